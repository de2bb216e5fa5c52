package aggregate

import (
	"testing"

	"github.com/luxfi/vmtally/internal/allocate"
	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/tallyid"
)

func mustUnit(path string, pop int64) *model.Unit {
	u, err := tallyid.ParseUnitID("U:example:v1:" + path)
	if err != nil {
		panic(err)
	}
	return &model.Unit{ID: u, PopulationBaseline: pop}
}

func mustOpt(id string) tallyid.OptionID {
	o, err := tallyid.ParseOptionID(id)
	if err != nil {
		panic(err)
	}
	return o
}

func TestRollEqualUnit(t *testing.T) {
	parent := mustUnit("root", 0)
	a := mustOpt("OPT:A")
	b := mustOpt("OPT:B")

	children := []ChildContribution{
		{Unit: mustUnit("root.c1", 0), Allocation: allocate.UnitAllocation{Seats: map[tallyid.OptionID]int64{a: 1, b: 0}}, BallotsCast: 100, EligibleRoll: 150},
		{Unit: mustUnit("root.c2", 0), Allocation: allocate.UnitAllocation{Seats: map[tallyid.OptionID]int64{a: 0, b: 1}}, BallotsCast: 200, EligibleRoll: 250},
	}
	ps := &params.Set{Values: map[string]interface{}{"VM-VAR-080": "equal_unit"}}

	got := Roll(parent, children, ps)
	if got.WeightScale != 2 {
		t.Fatalf("expected WeightScale 2, got %d", got.WeightScale)
	}
	if got.Totals[a] != 1 || got.Totals[b] != 1 {
		t.Fatalf("unexpected totals: %+v", got.Totals)
	}
	if got.BallotsCast != 300 || got.EligibleRoll != 400 {
		t.Fatalf("unexpected turnout roll-up: ballots=%d eligible=%d", got.BallotsCast, got.EligibleRoll)
	}
}

func TestRollPopulationWeighted(t *testing.T) {
	parent := mustUnit("root", 0)
	a := mustOpt("OPT:A")
	b := mustOpt("OPT:B")

	children := []ChildContribution{
		{Unit: mustUnit("root.c1", 90), Allocation: allocate.UnitAllocation{Seats: map[tallyid.OptionID]int64{a: 1}}},
		{Unit: mustUnit("root.c2", 10), Allocation: allocate.UnitAllocation{Seats: map[tallyid.OptionID]int64{b: 1}}},
	}
	ps := &params.Set{Values: map[string]interface{}{"VM-VAR-080": "population_baseline"}}

	got := Roll(parent, children, ps)
	if got.WeightScale != 100 {
		t.Fatalf("expected WeightScale 100 (total population), got %d", got.WeightScale)
	}
	if got.Totals[a] != 90 || got.Totals[b] != 10 {
		t.Fatalf("unexpected population-weighted totals: %+v", got.Totals)
	}
}

func TestRollIsStableUnderChildOrder(t *testing.T) {
	parent := mustUnit("root", 0)
	a := mustOpt("OPT:A")

	c1 := ChildContribution{Unit: mustUnit("root.c1", 0), Allocation: allocate.UnitAllocation{Seats: map[tallyid.OptionID]int64{a: 1}}}
	c2 := ChildContribution{Unit: mustUnit("root.c2", 0), Allocation: allocate.UnitAllocation{Seats: map[tallyid.OptionID]int64{a: 2}}}
	ps := &params.Set{Values: map[string]interface{}{"VM-VAR-080": "equal_unit"}}

	forward := Roll(parent, []ChildContribution{c1, c2}, ps)
	reversed := Roll(parent, []ChildContribution{c2, c1}, ps)
	if forward.Totals[a] != reversed.Totals[a] {
		t.Fatalf("expected order-independent totals, got %d vs %d", forward.Totals[a], reversed.Totals[a])
	}
}
