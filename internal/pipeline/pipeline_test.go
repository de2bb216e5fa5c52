package pipeline

import (
	"testing"

	"github.com/luxfi/vmtally/internal/label"
	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/tallyid"
)

func unitID(t *testing.T, path string) tallyid.UnitID {
	t.Helper()
	id, err := tallyid.ParseUnitID("U:plebiscite:v1:" + path)
	if err != nil {
		t.Fatalf("ParseUnitID: %v", err)
	}
	return id
}

func optID(t *testing.T, s string) tallyid.OptionID {
	t.Helper()
	id, err := tallyid.ParseOptionID(s)
	if err != nil {
		t.Fatalf("ParseOptionID: %v", err)
	}
	return id
}

// basePS mirrors the load package's own basePS fixture helper: a full
// VM-VAR values map with every variable this pipeline reads set to a
// known default, merged with per-test overrides.
func basePS(overrides map[string]interface{}) *params.Set {
	values := map[string]interface{}{
		"VM-VAR-001":       "plurality",
		"VM-VAR-002":       int64(0),
		"VM-VAR-003":       int64(10),
		"VM-VAR-004":       "none",
		"VM-VAR-005":       "reduce_continuing_denominator",
		"VM-VAR-006":       "schulze",
		"VM-VAR-007":       false,
		"VM-VAR-010":       "winner_take_all",
		"VM-VAR-011":       int64(0),
		"VM-VAR-012":       "hare",
		"VM-VAR-013":       "national",
		"VM-VAR-014":       int64(50),
		"VM-VAR-015":       "fixed_total",
		"VM-VAR-016":       "allow_overhang",
		"VM-VAR-017":       "dhondt",
		"VM-VAR-020":       int64(0),
		"VM-VAR-021":       int64(0),
		"VM-VAR-021-SCOPE": "frontier_only",
		"VM-VAR-022":       int64(50),
		"VM-VAR-023":       int64(50),
		"VM-VAR-024":       false,
		"VM-VAR-025":       "by_proposed_change",
		"VM-VAR-026":       []interface{}{},
		"VM-VAR-027":       "",
		"VM-VAR-028":       false,
		"VM-VAR-029":       false,
		"VM-VAR-030":       []interface{}{},
		"VM-VAR-031":       int64(3),
		"VM-VAR-040":       "none",
		"VM-VAR-041":       int64(50),
		"VM-VAR-042":       []interface{}{},
		"VM-VAR-043":       []interface{}{"land"},
		"VM-VAR-044":       "none",
		"VM-VAR-045":       false,
		"VM-VAR-046":       map[string]interface{}{},
		"VM-VAR-050":       "deterministic_order",
		"VM-VAR-052":       int64(0),
		"VM-VAR-073":       "standard",
		"VM-VAR-080":       "equal_unit",
	}
	for k, v := range overrides {
		values[k] = v
	}
	return &params.Set{Values: values}
}

// plebisciteFixture builds a two-unit registry - a root carrying no
// ballots and two base units that do - voting on a change option against
// a status quo option, with the given per-unit (yes, no) vote splits and
// eligible rolls.
func plebisciteFixture(t *testing.T, u1Yes, u1No, u2Yes, u2No, eligible1, eligible2 int64) (*model.Registry, *model.BallotTally) {
	t.Helper()
	root := unitID(t, "root")
	u1 := unitID(t, "root.u1")
	u2 := unitID(t, "root.u2")
	yes := optID(t, "OPT:yes")
	no := optID(t, "OPT:no")

	reg := &model.Registry{
		Units:      map[string]*model.Unit{},
		RootUnitID: root,
		Options: []model.Option{
			{ID: yes, Name: "Yes", OrderIndex: 0},
			{ID: no, Name: "No", OrderIndex: 1, IsStatusQuo: true},
		},
	}
	reg.Units[root.String()] = &model.Unit{ID: root, Magnitude: 1, EligibleRoll: eligible1 + eligible2}
	reg.Units[u1.String()] = &model.Unit{ID: u1, Magnitude: 1, EligibleRoll: eligible1}
	reg.Units[u2.String()] = &model.Unit{ID: u2, Magnitude: 1, EligibleRoll: eligible2}

	tally := &model.BallotTally{Units: map[string]*model.UnitTally{
		u1.String(): {
			UnitID:      u1,
			BallotsCast: u1Yes + u1No,
			OptionVotes: map[tallyid.OptionID]int64{yes: u1Yes, no: u1No},
		},
		u2.String(): {
			UnitID:      u2,
			BallotsCast: u2Yes + u2No,
			OptionVotes: map[tallyid.OptionID]int64{yes: u2Yes, no: u2No},
		},
	}}
	return reg, tally
}

func TestRunDecisiveChangeApproved(t *testing.T) {
	reg, tally := plebisciteFixture(t, 70, 30, 65, 35, 100, 100)
	ps := basePS(map[string]interface{}{"VM-VAR-020": int64(40)})

	outcome, err := Run(reg, tally, ps, Options{EngineVersion: "test"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.ExitCode != ExitSuccess {
		t.Fatalf("exit code = %d, want %d", outcome.ExitCode, ExitSuccess)
	}
	if outcome.Result.Label != label.Decisive {
		t.Fatalf("label = %q, want %q (reason %q)", outcome.Result.Label, label.Decisive, outcome.Result.LabelReason)
	}
	if outcome.Result.National.ValidBallots != 200 {
		t.Fatalf("national valid ballots = %d, want 200", outcome.Result.National.ValidBallots)
	}
	if outcome.Result.ResultID == "" {
		t.Fatalf("expected a non-empty ResultID")
	}
}

func TestRunGateFailureBelowMajorityThreshold(t *testing.T) {
	reg, tally := plebisciteFixture(t, 45, 55, 48, 52, 100, 100)
	ps := basePS(nil)

	outcome, err := Run(reg, tally, ps, Options{EngineVersion: "test"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.ExitCode != ExitSuccess {
		t.Fatalf("exit code = %d, want %d (gate failure is a labeled result, not an error exit)", outcome.ExitCode, ExitSuccess)
	}
	if outcome.Result.Label != label.Invalid {
		t.Fatalf("label = %q, want %q", outcome.Result.Label, label.Invalid)
	}
	if outcome.Result.LabelReason != "gate_failed" {
		t.Fatalf("label reason = %q, want gate_failed", outcome.Result.LabelReason)
	}
	if outcome.Result.Gates.Majority.Passed {
		t.Fatalf("expected majority gate to have failed")
	}
}

func TestRunQuorumFailure(t *testing.T) {
	reg, tally := plebisciteFixture(t, 70, 30, 65, 35, 1000, 1000)
	ps := basePS(map[string]interface{}{"VM-VAR-020": int64(50)})

	outcome, err := Run(reg, tally, ps, Options{EngineVersion: "test"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Result.Gates.Quorum.Passed {
		t.Fatalf("expected quorum gate to fail with 200/2000 turnout against a 50%% threshold")
	}
	if outcome.Result.Label != label.Invalid || outcome.Result.LabelReason != "gate_failed" {
		t.Fatalf("label = %s/%s, want Invalid/gate_failed", outcome.Result.Label, outcome.Result.LabelReason)
	}
}

func TestRunValidationFailureUnknownOption(t *testing.T) {
	reg, tally := plebisciteFixture(t, 70, 30, 65, 35, 100, 100)
	bogus := optID(t, "OPT:bogus")
	tally.Units[unitID(t, "root.u1").String()].OptionVotes[bogus] = 5
	ps := basePS(nil)

	outcome, err := Run(reg, tally, ps, Options{EngineVersion: "test"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.ExitCode != ExitValidationFailure {
		t.Fatalf("exit code = %d, want %d", outcome.ExitCode, ExitValidationFailure)
	}
	if outcome.Result.Label != label.Invalid || outcome.Result.LabelReason != "validation_failed" {
		t.Fatalf("label = %s/%s, want Invalid/validation_failed", outcome.Result.Label, outcome.Result.LabelReason)
	}
	if len(outcome.Issues) == 0 {
		t.Fatalf("expected at least one validation issue")
	}
}

func TestRunMarginalBelowBand(t *testing.T) {
	// 51.2% support against a 50% threshold and a 3pp marginal band:
	// decisive enough to pass the gate, too close to call decisive.
	reg, tally := plebisciteFixture(t, 512, 488, 0, 0, 2000, 0)
	ps := basePS(map[string]interface{}{"VM-VAR-031": int64(3)})

	outcome, err := Run(reg, tally, ps, Options{EngineVersion: "test"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !outcome.Result.Gates.Majority.Passed {
		t.Fatalf("expected majority gate to pass at 51.2%% support")
	}
	if outcome.Result.Label != label.Marginal {
		t.Fatalf("label = %q, want %q (reason %q)", outcome.Result.Label, label.Marginal, outcome.Result.LabelReason)
	}
	if outcome.Result.LabelReason != "margin_below_band" {
		t.Fatalf("label reason = %q, want margin_below_band", outcome.Result.LabelReason)
	}
}

func TestRunIsDeterministicAcrossRepeatedCalls(t *testing.T) {
	reg, tally := plebisciteFixture(t, 70, 30, 65, 35, 100, 100)
	ps := basePS(nil)

	first, err := Run(reg, tally, ps, Options{EngineVersion: "test"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := Run(reg, tally, ps, Options{EngineVersion: "test"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if first.Result.ResultID != second.Result.ResultID {
		t.Fatalf("ResultID differs across identical runs: %s vs %s", first.Result.ResultID, second.Result.ResultID)
	}
	if first.Result.FormulaID != second.Result.FormulaID {
		t.Fatalf("FormulaID differs across identical runs: %s vs %s", first.Result.FormulaID, second.Result.FormulaID)
	}
}
