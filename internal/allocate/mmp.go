package allocate

import (
	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/ratio"
	"github.com/luxfi/vmtally/internal/tabulate"
	"github.com/luxfi/vmtally/internal/tallyid"
)

// CorrectionScope bundles every SMD-local WTA allocation that shares a
// single mlc_correction_level scope (national, or one region), plus the
// natural vote totals used to compute the proportional target vector.
type CorrectionScope struct {
	ScopeID      string
	LocalSeats   map[tallyid.OptionID]int64 // summed WTA wins across the scope's SMDs
	NaturalVotes map[tallyid.OptionID]int64 // summed natural scores across the scope's SMDs
	Options      []model.Option
}

// MMPResult is the correction-scope top-up outcome: target seats per the
// chosen proportional method, and the top-ups actually awarded on top of
// LocalSeats under the configured overhang_policy.
type MMPResult struct {
	ScopeID    string
	TotalSeats int64
	Target     map[tallyid.OptionID]int64
	TopUps     map[tallyid.OptionID]int64
	Overhang   map[tallyid.OptionID]int64
}

// ApplyMMPCorrection runs step 2-4 of spec.md SS4.9's Mixed-Member
// Correction: derive the scope's total seats, apportion a target vector
// proportionally, then award top-ups under overhang_policy.
func ApplyMMPCorrection(scope CorrectionScope, ps *params.Set) MMPResult {
	localTotal := int64(0)
	for _, v := range scope.LocalSeats {
		localTotal += v
	}

	total := correctionTotalSeats(localTotal, ps)
	target := apportionTarget(scope, ps, total)

	result := MMPResult{
		ScopeID:    scope.ScopeID,
		TotalSeats: total,
		Target:     target,
		TopUps:     make(map[tallyid.OptionID]int64, len(target)),
		Overhang:   make(map[tallyid.OptionID]int64, len(target)),
	}

	for _, opt := range scope.Options {
		local := scope.LocalSeats[opt.ID]
		tgt := target[opt.ID]
		if local > tgt {
			result.Overhang[opt.ID] = local - tgt
		}
	}

	switch ps.String("VM-VAR-016") {
	case "add_total_seats":
		applyAddTotalSeats(&result, scope, ps)
	case "compensate_others":
		applyCompensateOthers(&result, scope)
	default: // allow_overhang
		for _, opt := range scope.Options {
			local := scope.LocalSeats[opt.ID]
			tgt := target[opt.ID]
			if tgt > local {
				result.TopUps[opt.ID] = tgt - local
			}
		}
	}

	return result
}

// correctionTotalSeats computes T per spec.md SS4.9 step 1.
func correctionTotalSeats(localTotal int64, ps *params.Set) int64 {
	s := ps.Pct("VM-VAR-014")
	if ps.String("VM-VAR-015") == "variable_add_seats" || s >= 100 {
		return localTotal
	}
	return ratio.RoundHalfEven(localTotal*100, 100-s)
}

// apportionTarget distributes total among options from natural vote
// shares using the method named by VM-VAR-017.
func apportionTarget(scope CorrectionScope, ps *params.Set, total int64) map[tallyid.OptionID]int64 {
	ids := sortedOptionIDs(scope.Options)
	byID := optionsByID(scope.Options)
	pseudoScores := tabulate.UnitScores{Scores: scope.NaturalVotes}

	noop := noopTieBreaker{}
	switch ps.String("VM-VAR-017") {
	case "proportional_favor_small":
		alloc, _ := allocateHighestAverages(tallyid.UnitID{}, pseudoScores, ids, byID, ps, noop, total, divisorsSainteLague)
		return alloc.Seats
	case "largest_remainder":
		alloc, _ := allocateLargestRemainder(tallyid.UnitID{}, pseudoScores, ids, byID, ps, total)
		return alloc.Seats
	default: // dhondt
		alloc, _ := allocateHighestAverages(tallyid.UnitID{}, pseudoScores, ids, byID, ps, noop, total, divisorsDHondt)
		return alloc.Seats
	}
}

// noopTieBreaker resolves an apportionment tie for the target vector by
// (order_index, option_id) unconditionally: the target vector is an
// internal computation, not itself a decisive outcome, so it never
// consults VM-VAR-050 or the RNG.
type noopTieBreaker struct{}

func (noopTieBreaker) Resolve(_ string, _ tallyid.UnitID, tied []tallyid.OptionID, options map[tallyid.OptionID]model.Option) (tallyid.OptionID, error) {
	return breakQuotientTie(tied, zeroScores(tied), options), nil
}

func zeroScores(ids []tallyid.OptionID) map[tallyid.OptionID]int64 {
	m := make(map[tallyid.OptionID]int64, len(ids))
	for _, id := range ids {
		m[id] = 0
	}
	return m
}

func applyAddTotalSeats(result *MMPResult, scope CorrectionScope, ps *params.Set) {
	total := result.TotalSeats
	target := result.Target
	for {
		ok := true
		for _, opt := range scope.Options {
			if scope.LocalSeats[opt.ID] > target[opt.ID] {
				ok = false
				break
			}
		}
		if ok {
			break
		}
		total++
		target = apportionTarget(scope, ps, total)
	}
	result.TotalSeats = total
	result.Target = target
	for _, opt := range scope.Options {
		local := scope.LocalSeats[opt.ID]
		tgt := target[opt.ID]
		if tgt > local {
			result.TopUps[opt.ID] = tgt - local
		}
	}
}

func applyCompensateOthers(result *MMPResult, scope CorrectionScope) {
	var deficitTotal int64
	deficits := make(map[tallyid.OptionID]int64, len(scope.Options))
	for _, opt := range scope.Options {
		local := scope.LocalSeats[opt.ID]
		tgt := result.Target[opt.ID]
		if tgt > local && result.Overhang[opt.ID] == 0 {
			deficits[opt.ID] = tgt - local
			deficitTotal += tgt - local
		}
	}

	// Available top-up pool is what's left of TotalSeats after every
	// already-awarded local seat, overhang seats included, so the scope's
	// total never exceeds TotalSeats.
	pool := result.TotalSeats - sumSeats(scope.LocalSeats)
	if pool < 0 {
		pool = 0
	}
	if pool >= deficitTotal || deficitTotal == 0 {
		for id, d := range deficits {
			result.TopUps[id] = d
		}
		return
	}
	// Scale down proportionally, largest remainder, to fit the pool.
	awarded := int64(0)
	remainders := make(map[tallyid.OptionID]int64, len(deficits))
	for id, d := range deficits {
		share := d * pool
		base := share / deficitTotal
		result.TopUps[id] = base
		remainders[id] = share - base*deficitTotal
		awarded += base
	}
	remaining := pool - awarded
	ids := make([]tallyid.OptionID, 0, len(deficits))
	for id := range deficits {
		ids = append(ids, id)
	}
	order := remainderOrder(ids, remainders, deficits, optionsByID(scope.Options), true)
	for i := int64(0); i < remaining && int(i) < len(order); i++ {
		result.TopUps[order[i]]++
	}
}

func sumSeats(m map[tallyid.OptionID]int64) int64 {
	var total int64
	for _, v := range m {
		total += v
	}
	return total
}
