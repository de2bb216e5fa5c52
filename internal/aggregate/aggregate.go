// Package aggregate implements C10: rolling per-unit allocations up the
// registry's hierarchy levels under equal-unit or population-baseline
// weighting. Reduction order is stable - children are always sorted by
// unit_id before folding, so a parallel per-unit allocation stage can
// feed this one in any completion order (spec.md SS4.10).
package aggregate

import (
	"sort"

	"github.com/luxfi/vmtally/internal/allocate"
	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/tallyid"
)

// LevelTotal is one hierarchy level's rolled-up result: weighted seat/vote
// totals per option, plus the turnout numerator/denominator the gates
// stage needs.
type LevelTotal struct {
	UnitID       tallyid.UnitID
	Totals       map[tallyid.OptionID]int64 // weighted sum, scaled by WeightScale
	WeightScale  int64                      // denominator Totals is expressed over (1 for equal_unit with single child)
	BallotsCast  int64
	EligibleRoll int64
}

// Share returns optionID's weighted share as an exact ratio
// (numerator/WeightScale), safe for cross-multiplied comparisons.
func (lt LevelTotal) Share(optionID tallyid.OptionID) (num, den int64) {
	return lt.Totals[optionID], lt.WeightScale
}

// Roll aggregates a parent Unit's direct children's allocations into one
// LevelTotal, per VM-VAR-080 (weighting_method). children must already be
// each child's UnitAllocation plus the Unit and UnitTally needed for
// weighting and turnout.
func Roll(parent *model.Unit, children []ChildContribution, ps *params.Set) LevelTotal {
	sorted := make([]ChildContribution, len(children))
	copy(sorted, children)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Unit.ID.String() < sorted[j].Unit.ID.String()
	})

	result := LevelTotal{UnitID: parent.ID, Totals: map[tallyid.OptionID]int64{}}

	switch ps.String("VM-VAR-080") {
	case "population_baseline":
		rollPopulationWeighted(&result, sorted)
	default: // equal_unit
		rollEqualUnit(&result, sorted)
	}

	for _, c := range sorted {
		result.BallotsCast += c.BallotsCast
		result.EligibleRoll += c.EligibleRoll
	}
	return result
}

// ChildContribution is one child unit's inputs to a parent-level roll-up.
type ChildContribution struct {
	Unit         *model.Unit
	Allocation   allocate.UnitAllocation
	BallotsCast  int64
	EligibleRoll int64
}

// rollEqualUnit gives each child an equal weight of 1; WeightScale ends
// up as the child count, so Totals/WeightScale is each option's average
// seat share across children.
func rollEqualUnit(result *LevelTotal, children []ChildContribution) {
	result.WeightScale = int64(len(children))
	for _, c := range children {
		for optID, seats := range c.Allocation.Seats {
			result.Totals[optID] += seats
		}
	}
}

// rollPopulationWeighted scales each child's contribution by its
// population_baseline before summing; WeightScale is the sum of
// baselines, so Totals/WeightScale is the population-weighted average.
func rollPopulationWeighted(result *LevelTotal, children []ChildContribution) {
	var totalPop int64
	for _, c := range children {
		totalPop += c.Unit.PopulationBaseline
	}
	result.WeightScale = totalPop
	for _, c := range children {
		weight := c.Unit.PopulationBaseline
		for optID, seats := range c.Allocation.Seats {
			result.Totals[optID] += seats * weight
		}
	}
}
