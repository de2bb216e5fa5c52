package tabulate

import (
	"testing"

	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/tallyid"
)

const testUnitIDStr = "U:example:v1:root"

func mustUnit(id string) *model.Unit {
	u, err := tallyid.ParseUnitID(id)
	if err != nil {
		panic(err)
	}
	return &model.Unit{ID: u}
}

func mustOption(id string, order int) model.Option {
	o, err := tallyid.ParseOptionID(id)
	if err != nil {
		panic(err)
	}
	return model.Option{ID: o, OrderIndex: order}
}

func TestTabulatePluralityCounts(t *testing.T) {
	unit := mustUnit(testUnitIDStr)
	a := mustOption("OPT:A", 0)
	b := mustOption("OPT:B", 1)
	tally := &model.UnitTally{
		BallotsCast:    100,
		InvalidOrBlank: 0,
		OptionVotes:    map[tallyid.OptionID]int64{a.ID: 60, b.ID: 40},
	}
	ps := &params.Set{Values: map[string]interface{}{"VM-VAR-001": "plurality"}}

	got, err := Tabulate(unit, tally, []model.Option{a, b}, ps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Scores[a.ID] != 60 || got.Scores[b.ID] != 40 {
		t.Fatalf("unexpected scores: %+v", got.Scores)
	}
	if got.Turnout.ValidBallots != 100 {
		t.Fatalf("expected 100 valid ballots, got %d", got.Turnout.ValidBallots)
	}
}

// TestTabulateIRVWithExhaustion covers the spec's S7 fixture:
// 100 ranked ballots - 40 B>A>C, 35 A>C, 15 C>B, 10 C.
// Round 1: A=35, B=40, C=25. Eliminate C. 15 transfer to B, 10 exhaust.
// Continuing denominator becomes 90. Round 2: B=55, A=35. Winner B.
// Exhausted count 10.
func TestTabulateIRVWithExhaustion(t *testing.T) {
	a := mustOption("OPT:A", 0)
	b := mustOption("OPT:B", 1)
	c := mustOption("OPT:C", 2)
	unit := mustUnit(testUnitIDStr)

	tally := &model.UnitTally{
		BallotsCast:    100,
		InvalidOrBlank: 0,
		Ranked: []model.RankedGroup{
			{Ranking: []tallyid.OptionID{b.ID, a.ID, c.ID}, Count: 40},
			{Ranking: []tallyid.OptionID{a.ID, c.ID}, Count: 35},
			{Ranking: []tallyid.OptionID{c.ID, b.ID}, Count: 15},
			{Ranking: []tallyid.OptionID{c.ID}, Count: 10},
		},
	}
	ps := &params.Set{Values: map[string]interface{}{"VM-VAR-001": "ranked_irv"}}

	got, err := Tabulate(unit, tally, []model.Option{a, b, c}, ps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.IRV) != 2 {
		t.Fatalf("expected 2 rounds, got %d: %+v", len(got.IRV), got.IRV)
	}
	round1 := got.IRV[0]
	if round1.Continuing[a.ID] != 35 || round1.Continuing[b.ID] != 40 || round1.Continuing[c.ID] != 25 {
		t.Fatalf("unexpected round 1 tallies: %+v", round1.Continuing)
	}
	if round1.Eliminated != c.ID {
		t.Fatalf("expected C eliminated in round 1, got %s", round1.Eliminated)
	}
	round2 := got.IRV[1]
	if round2.ContinuingBallots != 90 {
		t.Fatalf("expected continuing denominator 90 in round 2, got %d", round2.ContinuingBallots)
	}
	if round2.Continuing[b.ID] != 55 || round2.Continuing[a.ID] != 35 {
		t.Fatalf("unexpected round 2 tallies: %+v", round2.Continuing)
	}
	if got.Exhausted != 10 {
		t.Fatalf("expected 10 exhausted ballots, got %d", got.Exhausted)
	}
	if got.Scores[b.ID] != 1 {
		t.Fatalf("expected B to win, got scores %+v", got.Scores)
	}
}

// TestTabulateScoreLinearNormalizationRescales covers VM-VAR-004=linear:
// raw per-option score sums over [0,10] are rescaled to
// [0, normalizedScoreScale] before being exposed as Scores, using the
// affine-transform shortcut (raw_sum, ballot_count) rather than
// revisiting individual ballots.
func TestTabulateScoreLinearNormalizationRescales(t *testing.T) {
	a := mustOption("OPT:A", 0)
	b := mustOption("OPT:B", 1)
	unit := mustUnit(testUnitIDStr)

	// 10 score ballots, raw sums 80 for A and 20 for B over a 0-10 scale.
	tally := &model.UnitTally{
		BallotsCast:      10,
		ScoreBallotCount: 10,
		OptionVotes:      map[tallyid.OptionID]int64{a.ID: 80, b.ID: 20},
	}
	ps := &params.Set{Values: map[string]interface{}{
		"VM-VAR-001": "score",
		"VM-VAR-002": int64(0),
		"VM-VAR-003": int64(10),
		"VM-VAR-004": "linear",
	}}

	got, err := Tabulate(unit, tally, []model.Option{a, b}, ps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Scores[a.ID] != 8_000_000 || got.Scores[b.ID] != 2_000_000 {
		t.Fatalf("unexpected normalized scores: %+v", got.Scores)
	}
}

// TestTabulateScoreWithoutNormalizationPassesRawSums covers
// VM-VAR-004!=linear: scores pass through as the raw per-option sums.
func TestTabulateScoreWithoutNormalizationPassesRawSums(t *testing.T) {
	a := mustOption("OPT:A", 0)
	b := mustOption("OPT:B", 1)
	unit := mustUnit(testUnitIDStr)

	tally := &model.UnitTally{
		BallotsCast: 10,
		OptionVotes: map[tallyid.OptionID]int64{a.ID: 80, b.ID: 20},
	}
	ps := &params.Set{Values: map[string]interface{}{"VM-VAR-001": "score", "VM-VAR-004": "none"}}

	got, err := Tabulate(unit, tally, []model.Option{a, b}, ps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Scores[a.ID] != 80 || got.Scores[b.ID] != 20 {
		t.Fatalf("unexpected raw scores: %+v", got.Scores)
	}
}

func TestTabulateCondorcetPicksConditionWinner(t *testing.T) {
	a := mustOption("OPT:A", 0)
	b := mustOption("OPT:B", 1)
	c := mustOption("OPT:C", 2)
	unit := mustUnit(testUnitIDStr)

	// A beats B and C head to head on every ballot: clear Condorcet winner.
	tally := &model.UnitTally{
		BallotsCast: 30,
		Ranked: []model.RankedGroup{
			{Ranking: []tallyid.OptionID{a.ID, b.ID, c.ID}, Count: 20},
			{Ranking: []tallyid.OptionID{a.ID, c.ID, b.ID}, Count: 10},
		},
	}
	ps := &params.Set{Values: map[string]interface{}{"VM-VAR-001": "ranked_condorcet", "VM-VAR-006": "schulze"}}

	got, err := Tabulate(unit, tally, []model.Option{a, b, c}, ps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CondorcetWinner != a.ID {
		t.Fatalf("expected A as Condorcet winner, got %s", got.CondorcetWinner)
	}
	if got.Condorcet[a.ID][b.ID] != 30 || got.Condorcet[a.ID][c.ID] != 30 {
		t.Fatalf("unexpected pairwise matrix: %+v", got.Condorcet)
	}
}

func TestTabulateCondorcetSchulzeResolvesCycle(t *testing.T) {
	a := mustOption("OPT:A", 0)
	b := mustOption("OPT:B", 1)
	c := mustOption("OPT:C", 2)
	unit := mustUnit(testUnitIDStr)

	// A classic Condorcet cycle: A>B>C>A in pairwise strength.
	tally := &model.UnitTally{
		BallotsCast: 3,
		Ranked: []model.RankedGroup{
			{Ranking: []tallyid.OptionID{a.ID, b.ID, c.ID}, Count: 1},
			{Ranking: []tallyid.OptionID{b.ID, c.ID, a.ID}, Count: 1},
			{Ranking: []tallyid.OptionID{c.ID, a.ID, b.ID}, Count: 1},
		},
	}
	ps := &params.Set{Values: map[string]interface{}{"VM-VAR-001": "ranked_condorcet", "VM-VAR-006": "schulze"}}

	got, err := Tabulate(unit, tally, []model.Option{a, b, c}, ps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CondorcetWinner == "" {
		t.Fatal("expected a deterministic Schulze resolution, got empty winner")
	}
}
