// Package load implements C6: the structural validator that runs before
// any tabulation math. It never stops at the first problem - every
// check accumulates into a single vmerr.IssueList, sorted by
// (VarID, Token), which the driver reports verbatim on a validation
// failure (spec.md SS4.6).
package load

import (
	"github.com/luxfi/vmtally/internal/idset"
	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/vmerr"
)

// Validate runs every structural check against a loaded Registry,
// BallotTally and ParameterSet, returning the accumulated issue list.
// An empty list means the inputs are fit to tabulate.
func Validate(registry *model.Registry, tally *model.BallotTally, ps *params.Set) *vmerr.IssueList {
	issues := &vmerr.IssueList{}

	for _, i := range params.ValidateDomains(ps).Issues() {
		issues.Add(i)
	}
	for _, i := range params.ValidateCrossVariable(ps).Issues() {
		issues.Add(i)
	}

	checkTreeShape(registry, issues)
	checkMagnitudes(registry, ps, issues)
	checkOptionOrderIndex(registry, issues)
	checkEligibleRollPresence(registry, ps, issues)
	checkPopulationBaseline(registry, ps, issues)
	checkAdjacencyDomain(registry, issues)
	checkFrontierBands(ps, issues)
	checkTallyReferences(registry, tally, ps, issues)

	return issues
}

// checkTreeShape enforces exactly one root and no cycles: every Unit's
// Parent() chain must terminate at a single shared root within
// len(Units) steps.
func checkTreeShape(registry *model.Registry, issues *vmerr.IssueList) {
	var roots int
	for _, u := range registry.UnitsSorted() {
		if u.ID.IsRoot() {
			roots++
			continue
		}
		seen := idset.Of(u.ID.String())
		cur := u.ID
		for {
			parent, ok := cur.Parent()
			if !ok {
				break
			}
			if _, exists := registry.Units[parent.String()]; !exists {
				issues.Addf(vmerr.ReferenceError, "", "E-TREE-ORPHAN", u.ID.String(),
					"unit %s references missing parent %s", u.ID, parent)
				break
			}
			if seen.Contains(parent.String()) {
				issues.Addf(vmerr.ConstraintError, "", "E-TREE-CYCLE", u.ID.String(),
					"unit %s is part of a parent cycle", u.ID)
				break
			}
			seen.Add(parent.String())
			cur = parent
		}
	}
	if roots == 0 {
		issues.Addf(vmerr.ConstraintError, "", "E-TREE-NOROOT", "", "registry has no root unit")
	} else if roots > 1 {
		issues.Addf(vmerr.ConstraintError, "", "E-TREE-MULTIROOT", "", "registry has %d root units, expected exactly one", roots)
	}
}

// checkMagnitudes enforces magnitude >= 1 everywhere, and magnitude == 1
// on every unit when the allocation method is winner_take_all.
func checkMagnitudes(registry *model.Registry, ps *params.Set, issues *vmerr.IssueList) {
	wta := ps.String("VM-VAR-010") == "winner_take_all"
	for _, u := range registry.UnitsSorted() {
		if u.Magnitude < 1 {
			issues.Addf(vmerr.ConstraintError, "VM-VAR-010", "E-MAG-LT1", u.ID.String(),
				"unit %s has magnitude %d, must be >= 1", u.ID, u.Magnitude)
			continue
		}
		if wta && u.Magnitude != 1 {
			issues.Addf(vmerr.ConstraintError, "VM-VAR-010", "E-MAG-WTA", u.ID.String(),
				"winner_take_all requires magnitude=1, unit %s has %d", u.ID, u.Magnitude)
		}
	}
}

// checkOptionOrderIndex enforces Option.order_index uniqueness across the
// registry's option set.
func checkOptionOrderIndex(registry *model.Registry, issues *vmerr.IssueList) {
	seen := map[int]string{}
	for _, o := range registry.Options {
		if prev, ok := seen[o.OrderIndex]; ok {
			issues.Addf(vmerr.ConstraintError, "", "E-OPT-ORDERDUP", "",
				"options %s and %s share order_index %d", prev, o.ID, o.OrderIndex)
			continue
		}
		seen[o.OrderIndex] = string(o.ID)
	}
}

// checkEligibleRollPresence enforces eligible_roll presence on every unit
// whenever a quorum variable is active, since quorum math is undefined
// without it.
func checkEligibleRollPresence(registry *model.Registry, ps *params.Set, issues *vmerr.IssueList) {
	if ps.Pct("VM-VAR-020") == 0 && ps.Pct("VM-VAR-021") == 0 {
		return
	}
	for _, u := range registry.UnitsSorted() {
		if u.EligibleRoll <= 0 {
			issues.Addf(vmerr.ConstraintError, "VM-VAR-020", "E-ELIG-MISSING", u.ID.String(),
				"unit %s has no eligible_roll but a quorum variable is active", u.ID)
		}
	}
}

// checkPopulationBaseline enforces population_baseline presence on every
// unit when weighting_method = population_baseline (VM-VAR-080).
func checkPopulationBaseline(registry *model.Registry, ps *params.Set, issues *vmerr.IssueList) {
	if ps.String("VM-VAR-080") != "population_baseline" {
		return
	}
	for _, u := range registry.UnitsSorted() {
		if !u.HasPopulationBaseline() {
			issues.Addf(vmerr.ConstraintError, "VM-VAR-080", "E-POP-MISSING", u.ID.String(),
				"unit %s has no population_baseline but weighting_method=population_baseline", u.ID)
		}
	}
}

// checkAdjacencyDomain enforces that every edge's endpoints exist and its
// type is one of land/bridge/water.
func checkAdjacencyDomain(registry *model.Registry, issues *vmerr.IssueList) {
	for _, e := range registry.Adjacency {
		if _, ok := registry.Units[e.A.String()]; !ok {
			issues.Addf(vmerr.ReferenceError, "", "E-ADJ-REF", e.A.String(), "adjacency edge references missing unit %s", e.A)
		}
		if _, ok := registry.Units[e.B.String()]; !ok {
			issues.Addf(vmerr.ReferenceError, "", "E-ADJ-REF", e.B.String(), "adjacency edge references missing unit %s", e.B)
		}
		switch e.Type {
		case model.EdgeLand, model.EdgeBridge, model.EdgeWater:
		default:
			issues.Addf(vmerr.SchemaError, "", "E-ADJ-TYPE", "", "adjacency edge %s-%s has unknown type %q", e.A, e.B, e.Type)
		}
	}
}

// checkFrontierBands enforces structural validity of VM-VAR-042 whenever
// frontier_mode requires a band table: non-empty, contiguous, ascending,
// and with min_pct/max_pct in [0,100].
func checkFrontierBands(ps *params.Set, issues *vmerr.IssueList) {
	mode := ps.String("VM-VAR-040")
	if mode != "sliding_scale" && mode != "autonomy_ladder" {
		return
	}
	raw, _ := ps.Get("VM-VAR-042")
	arr, ok := raw.([]interface{})
	if !ok || len(arr) == 0 {
		issues.Addf(vmerr.MethodConfigError, "VM-VAR-042", "E-BAND-EMPTY", "", "%s requires a non-empty frontier_bands array", mode)
		return
	}
	var prevMax int64 = -1
	for i, item := range arr {
		obj, ok := item.(map[string]interface{})
		if !ok {
			issues.Addf(vmerr.SchemaError, "VM-VAR-042", "E-BAND-SHAPE", "", "frontier_bands[%d] is not an object", i)
			continue
		}
		minPct := toInt64(obj["min_pct"])
		maxPct := toInt64(obj["max_pct"])
		if minPct < 0 || maxPct > 100 || minPct >= maxPct {
			issues.Addf(vmerr.ConstraintError, "VM-VAR-042", "E-BAND-RANGE", "",
				"frontier_bands[%d] has invalid range [%d,%d]", i, minPct, maxPct)
		}
		if prevMax >= 0 && minPct != prevMax {
			issues.Addf(vmerr.ConstraintError, "VM-VAR-042", "E-BAND-GAP", "",
				"frontier_bands[%d] does not start where the previous band ended (%d != %d)", i, minPct, prevMax)
		}
		prevMax = maxPct
	}
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// checkTallyReferences cross-references the BallotTally against the
// Registry: every tally unit must exist in the registry, every
// option key in OptionVotes/Ranked rankings must be a known option, and
// ranked data must be present when the ballot type requires it.
func checkTallyReferences(registry *model.Registry, tally *model.BallotTally, ps *params.Set, issues *vmerr.IssueList) {
	knownOptions := make(map[string]bool, len(registry.Options))
	for _, o := range registry.Options {
		knownOptions[string(o.ID)] = true
	}
	ballotType := ps.String("VM-VAR-001")
	ranked := ballotType == "ranked_irv" || ballotType == "ranked_condorcet"

	for _, u := range registry.UnitsSorted() {
		ut, ok := tally.Units[u.ID.String()]
		if !ok {
			issues.Addf(vmerr.ReferenceError, "", "E-TALLY-MISSING", u.ID.String(), "unit %s has no corresponding tally entry", u.ID)
			continue
		}
		if ut.BallotsCast < 0 || ut.InvalidOrBlank < 0 {
			issues.Addf(vmerr.ConstraintError, "", "E-TALLY-NEG", u.ID.String(), "unit %s has negative ballot counts", u.ID)
		}
		if ut.InvalidOrBlank > ut.BallotsCast {
			issues.Addf(vmerr.ConstraintError, "", "E-TALLY-INVALIDEXCESS", u.ID.String(),
				"unit %s has more invalid/blank ballots (%d) than ballots cast (%d)", u.ID, ut.InvalidOrBlank, ut.BallotsCast)
		}
		for optID := range ut.OptionVotes {
			if !knownOptions[string(optID)] {
				issues.Addf(vmerr.ReferenceError, "", "E-TALLY-OPTREF", u.ID.String(), "unit %s tally references unknown option %s", u.ID, optID)
			}
		}
		if ranked {
			if len(ut.Ranked) == 0 && ut.BallotsCast > ut.InvalidOrBlank {
				issues.Addf(vmerr.ConstraintError, "VM-VAR-001", "E-TALLY-RANKEDMISSING", u.ID.String(),
					"unit %s has no ranked ballot groups but ballot_type=%s", u.ID, ballotType)
			}
			for _, grp := range ut.Ranked {
				for _, optID := range grp.Ranking {
					if !knownOptions[string(optID)] {
						issues.Addf(vmerr.ReferenceError, "", "E-TALLY-OPTREF", u.ID.String(), "unit %s ranked group references unknown option %s", u.ID, optID)
					}
				}
			}
		} else if len(ut.Ranked) > 0 {
			issues.Addf(vmerr.ConstraintError, "VM-VAR-001", "E-TALLY-RANKEDUNEXPECTED", u.ID.String(),
				"unit %s carries ranked ballot groups but ballot_type=%s", u.ID, ballotType)
		}
		if ballotType == "score" && ps.String("VM-VAR-004") == "linear" &&
			ut.ScoreBallotCount <= 0 && ut.BallotsCast > ut.InvalidOrBlank {
			issues.Addf(vmerr.ConstraintError, "VM-VAR-004", "E-TALLY-SCORECOUNT", u.ID.String(),
				"unit %s has no score_ballot_count but score_normalization=linear requires it", u.ID)
		}
	}

	for unitID := range tally.Units {
		if _, ok := registry.Units[unitID]; !ok {
			issues.Addf(vmerr.ReferenceError, "", "E-TALLY-UNITREF", unitID, "tally references unknown unit %s", unitID)
		}
	}
}
