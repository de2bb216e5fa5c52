package load

import (
	"testing"

	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/tallyid"
)

func unitID(t *testing.T, path string) tallyid.UnitID {
	t.Helper()
	id, err := tallyid.ParseUnitID("U:example:v1:" + path)
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
		"VM-VAR-073":       "standard",
		"VM-VAR-080":       "equal_unit",
	}
	for k, v := range overrides {
		values[k] = v
	}
	return &params.Set{Values: values}
}

func simpleRegistryAndTally(t *testing.T) (*model.Registry, *model.BallotTally) {
	t.Helper()
	root := unitID(t, "root")
	a := optID(t, "OPT:a")
	b := optID(t, "OPT:b")

	reg := &model.Registry{
		Units:      map[string]*model.Unit{},
		RootUnitID: root,
		Options:    []model.Option{{ID: a, Name: "A", OrderIndex: 0}, {ID: b, Name: "B", OrderIndex: 1}},
	}
	reg.Units[root.String()] = &model.Unit{ID: root, Magnitude: 1}

	tally := &model.BallotTally{Units: map[string]*model.UnitTally{
		root.String(): {UnitID: root, BallotsCast: 100, InvalidOrBlank: 0, OptionVotes: map[tallyid.OptionID]int64{a: 60, b: 40}},
	}}
	return reg, tally
}

func TestValidateAcceptsWellFormedInputs(t *testing.T) {
	reg, tally := simpleRegistryAndTally(t)
	issues := Validate(reg, tally, basePS(nil))
	if !issues.Empty() {
		t.Fatalf("expected no issues, got %v", issues.Sort())
	}
}

func TestValidateRejectsMagnitudeZero(t *testing.T) {
	reg, tally := simpleRegistryAndTally(t)
	reg.Units[reg.RootUnitID.String()].Magnitude = 0
	issues := Validate(reg, tally, basePS(nil))
	if issues.Empty() {
		t.Fatalf("expected a magnitude violation")
	}
}

func TestValidateRejectsWTAWithMagnitudeAboveOne(t *testing.T) {
	reg, tally := simpleRegistryAndTally(t)
	reg.Units[reg.RootUnitID.String()].Magnitude = 3
	issues := Validate(reg, tally, basePS(nil))
	if issues.Empty() {
		t.Fatalf("expected WTA/magnitude mismatch to be flagged")
	}
}

func TestValidateRejectsDuplicateOrderIndex(t *testing.T) {
	reg, tally := simpleRegistryAndTally(t)
	reg.Options[1].OrderIndex = 0
	issues := Validate(reg, tally, basePS(nil))
	found := false
	for _, i := range issues.Issues() {
		if i.Token == "E-OPT-ORDERDUP" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected E-OPT-ORDERDUP, got %v", issues.Sort())
	}
}

func TestValidateRejectsMissingEligibleRollWhenQuorumActive(t *testing.T) {
	reg, tally := simpleRegistryAndTally(t)
	issues := Validate(reg, tally, basePS(map[string]interface{}{"VM-VAR-020": int64(10)}))
	found := false
	for _, i := range issues.Issues() {
		if i.Token == "E-ELIG-MISSING" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected E-ELIG-MISSING, got %v", issues.Sort())
	}
}

func TestValidateRejectsUnknownOptionInTally(t *testing.T) {
	reg, tally := simpleRegistryAndTally(t)
	bogus := optID(t, "OPT:bogus")
	tally.Units[reg.RootUnitID.String()].OptionVotes[bogus] = 5
	issues := Validate(reg, tally, basePS(nil))
	found := false
	for _, i := range issues.Issues() {
		if i.Token == "E-TALLY-OPTREF" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected E-TALLY-OPTREF, got %v", issues.Sort())
	}
}

func TestValidateRejectsMissingTallyEntry(t *testing.T) {
	reg, tally := simpleRegistryAndTally(t)
	delete(tally.Units, reg.RootUnitID.String())
	issues := Validate(reg, tally, basePS(nil))
	found := false
	for _, i := range issues.Issues() {
		if i.Token == "E-TALLY-MISSING" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected E-TALLY-MISSING, got %v", issues.Sort())
	}
}
