// Package allocate implements C9: turning one Unit's UnitScores into seats
// or power shares that sum to the Unit's magnitude. Every comparison
// between competing quotients is done by cross-multiplication over
// int64/big.Int, never by floating-point division, per spec.md SS4.9.
package allocate

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/tabulate"
	"github.com/luxfi/vmtally/internal/tallyid"
)

// UnitAllocation is the per-unit seat or power-share award, summing to
// the Unit's magnitude (or to a WTA single seat standing for 100%).
type UnitAllocation struct {
	UnitID   tallyid.UnitID
	Seats    map[tallyid.OptionID]int64
	Filtered []tallyid.OptionID // options dropped by pr_entry_threshold_pct
}

// TieBreaker resolves an allocation-time tie among equally-ranked
// options. Implemented by *tiebreak.Resolver; accepted here as a narrow
// interface so this package doesn't import tiebreak's RNG plumbing
// directly.
type TieBreaker interface {
	Resolve(ctx string, unitID tallyid.UnitID, tied []tallyid.OptionID, options map[tallyid.OptionID]model.Option) (tallyid.OptionID, error)
}

// Allocate dispatches on VM-VAR-010 (allocation_method) for a single Unit.
// mixed_local_correction is not dispatched here: SMDs are allocated WTA
// (magnitude=1) and the correction itself runs once per correction scope
// via ApplyMMPCorrection, after every SMD in that scope has its local
// result.
func Allocate(unit *model.Unit, scores tabulate.UnitScores, options []model.Option, ps *params.Set, tb TieBreaker) (UnitAllocation, error) {
	byID := optionsByID(options)
	sortedIDs := sortedOptionIDs(options)
	magnitude := int64(unit.Magnitude)
	if magnitude <= 0 {
		magnitude = 1
	}

	switch ps.String("VM-VAR-010") {
	case "winner_take_all":
		return allocateWTA(unit.ID, scores, sortedIDs, byID, tb)
	case "dhondt":
		return allocateHighestAverages(unit.ID, scores, sortedIDs, byID, ps, tb, magnitude, divisorsDHondt)
	case "proportional_favor_small":
		return allocateHighestAverages(unit.ID, scores, sortedIDs, byID, ps, tb, magnitude, divisorsSainteLague)
	case "largest_remainder":
		return allocateLargestRemainder(unit.ID, scores, sortedIDs, byID, ps, magnitude)
	case "mixed_local_correction":
		return allocateWTA(unit.ID, scores, sortedIDs, byID, tb)
	default:
		return UnitAllocation{}, fmt.Errorf("allocate: unknown allocation_method %q", ps.String("VM-VAR-010"))
	}
}

func optionsByID(options []model.Option) map[tallyid.OptionID]model.Option {
	m := make(map[tallyid.OptionID]model.Option, len(options))
	for _, o := range options {
		m[o.ID] = o
	}
	return m
}

func sortedOptionIDs(options []model.Option) []tallyid.OptionID {
	sorted := make([]model.Option, len(options))
	copy(sorted, options)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].OrderIndex != sorted[j].OrderIndex {
			return sorted[i].OrderIndex < sorted[j].OrderIndex
		}
		return sorted[i].ID < sorted[j].ID
	})
	ids := make([]tallyid.OptionID, len(sorted))
	for i, o := range sorted {
		ids[i] = o.ID
	}
	return ids
}

func naturalDenominator(scores map[tallyid.OptionID]int64) int64 {
	var total int64
	for _, v := range scores {
		total += v
	}
	return total
}

// entryFiltered returns the subset of ids whose natural share
// (score/denominator) is >= pr_entry_threshold_pct, plus the excluded
// remainder, using exact cross-multiplied comparison.
func entryFiltered(ids []tallyid.OptionID, scores map[tallyid.OptionID]int64, thresholdPct int64, denominator int64) (kept, dropped []tallyid.OptionID) {
	if thresholdPct <= 0 || denominator == 0 {
		return ids, nil
	}
	for _, id := range ids {
		// score/denominator >= threshold/100  <=>  score*100 >= threshold*denominator
		lhs := big.NewInt(scores[id] * 100)
		rhs := big.NewInt(thresholdPct * denominator)
		if lhs.Cmp(rhs) >= 0 {
			kept = append(kept, id)
		} else {
			dropped = append(dropped, id)
		}
	}
	return kept, dropped
}

func allocateWTA(unitID tallyid.UnitID, scores tabulate.UnitScores, ids []tallyid.OptionID, byID map[tallyid.OptionID]model.Option, tb TieBreaker) (UnitAllocation, error) {
	best := int64(-1)
	var leaders []tallyid.OptionID
	for _, id := range ids {
		v := scores.Scores[id]
		if v > best {
			best = v
			leaders = []tallyid.OptionID{id}
		} else if v == best {
			leaders = append(leaders, id)
		}
	}
	winner := leaders[0]
	if len(leaders) > 1 {
		w, err := tb.Resolve("wta_winner", unitID, leaders, byID)
		if err != nil {
			return UnitAllocation{}, err
		}
		winner = w
	}
	seats := make(map[tallyid.OptionID]int64, len(ids))
	for _, id := range ids {
		seats[id] = 0
	}
	seats[winner] = 1
	return UnitAllocation{UnitID: unitID, Seats: seats}, nil
}

func divisorsDHondt(k int64) int64      { return k + 1 }
func divisorsSainteLague(k int64) int64 { return 2*k + 1 }

// allocateHighestAverages implements D'Hondt and Sainte-Laguë: at each of
// magnitude slots, award to the option maximizing score/divisor(seats),
// compared by cross-multiplication.
func allocateHighestAverages(unitID tallyid.UnitID, scores tabulate.UnitScores, ids []tallyid.OptionID, byID map[tallyid.OptionID]model.Option, ps *params.Set, tb TieBreaker, magnitude int64, divisor func(int64) int64) (UnitAllocation, error) {
	denom := naturalDenominator(scores.Scores)
	kept, dropped := entryFiltered(ids, scores.Scores, ps.Pct("VM-VAR-011"), denom)

	seats := make(map[tallyid.OptionID]int64, len(ids))
	for _, id := range ids {
		seats[id] = 0
	}

	for slot := int64(0); slot < magnitude; slot++ {
		var leaders []tallyid.OptionID
		var bestNum, bestDen int64 = -1, 1
		for _, id := range kept {
			num := scores.Scores[id]
			den := divisor(seats[id])
			if bestNum < 0 {
				bestNum, bestDen = num, den
				leaders = []tallyid.OptionID{id}
				continue
			}
			// Compare num/den vs bestNum/bestDen via cross-multiplication.
			lhs := big.NewInt(num)
			lhs.Mul(lhs, big.NewInt(bestDen))
			rhs := big.NewInt(bestNum)
			rhs.Mul(rhs, big.NewInt(den))
			cmp := lhs.Cmp(rhs)
			if cmp > 0 {
				bestNum, bestDen = num, den
				leaders = []tallyid.OptionID{id}
			} else if cmp == 0 {
				leaders = append(leaders, id)
			}
		}
		if len(leaders) == 0 {
			break
		}
		winner := breakQuotientTie(leaders, scores.Scores, byID)
		if winner == "" {
			w, err := tb.Resolve("highest_averages_slot", unitID, leaders, byID)
			if err != nil {
				return UnitAllocation{}, err
			}
			winner = w
		}
		seats[winner]++
	}

	return UnitAllocation{UnitID: unitID, Seats: seats, Filtered: dropped}, nil
}

// breakQuotientTie applies the raw-score-then-(order_index,option_id) tie
// rule. It always resolves deterministically once option ids are unique,
// so the tie-policy escalation path in callers is unreachable in
// practice but kept for interface symmetry with WTA.
func breakQuotientTie(tied []tallyid.OptionID, scores map[tallyid.OptionID]int64, byID map[tallyid.OptionID]model.Option) tallyid.OptionID {
	if len(tied) == 1 {
		return tied[0]
	}
	bestScore := scores[tied[0]]
	for _, id := range tied[1:] {
		if scores[id] > bestScore {
			bestScore = scores[id]
		}
	}
	var topScorers []tallyid.OptionID
	for _, id := range tied {
		if scores[id] == bestScore {
			topScorers = append(topScorers, id)
		}
	}
	sort.Slice(topScorers, func(i, j int) bool {
		oi, oj := byID[topScorers[i]], byID[topScorers[j]]
		if oi.OrderIndex != oj.OrderIndex {
			return oi.OrderIndex < oj.OrderIndex
		}
		return topScorers[i] < topScorers[j]
	})
	return topScorers[0]
}

func quota(kind string, validVotes, magnitude int64) int64 {
	switch kind {
	case "droop":
		return validVotes/(magnitude+1) + 1
	case "imperiali":
		return validVotes / (magnitude + 2)
	default: // hare
		return validVotes / magnitude
	}
}

// allocateLargestRemainder implements Hare/Droop/Imperiali quota
// apportionment with remainder distribution, including Imperiali's
// possible over-allocation trim.
func allocateLargestRemainder(unitID tallyid.UnitID, scores tabulate.UnitScores, ids []tallyid.OptionID, byID map[tallyid.OptionID]model.Option, ps *params.Set, magnitude int64) (UnitAllocation, error) {
	denom := naturalDenominator(scores.Scores)
	kept, dropped := entryFiltered(ids, scores.Scores, ps.Pct("VM-VAR-011"), denom)

	q := quota(ps.String("VM-VAR-012"), denom, magnitude)
	if q <= 0 {
		q = 1
	}

	seats := make(map[tallyid.OptionID]int64, len(ids))
	remainder := make(map[tallyid.OptionID]int64, len(ids))
	var awarded int64
	for _, id := range kept {
		base := scores.Scores[id] / q
		seats[id] = base
		remainder[id] = scores.Scores[id] - base*q
		awarded += base
	}
	for _, id := range dropped {
		seats[id] = 0
	}

	remaining := magnitude - awarded
	switch {
	case remaining > 0:
		order := remainderOrder(kept, remainder, scores.Scores, byID, true)
		for i := int64(0); i < remaining && int(i) < len(order); i++ {
			seats[order[i]]++
		}
	case remaining < 0:
		// Imperiali over-allocation: trim from the smallest remainders.
		order := remainderOrder(kept, remainder, scores.Scores, byID, false)
		toTrim := -remaining
		for i := int64(0); i < toTrim && int(i) < len(order); i++ {
			if seats[order[i]] > 0 {
				seats[order[i]]--
			}
		}
	}

	return UnitAllocation{UnitID: unitID, Seats: seats, Filtered: dropped}, nil
}

// remainderOrder ranks options by remainder then raw score - descending
// (largest first) when awarding extra seats, ascending (smallest first)
// when trimming an Imperiali over-allocation. The (order_index, option_id)
// tiebreak always runs ascending in both directions, since it resolves
// ties rather than ranking by magnitude.
func remainderOrder(ids []tallyid.OptionID, remainder, scores map[tallyid.OptionID]int64, byID map[tallyid.OptionID]model.Option, descending bool) []tallyid.OptionID {
	order := make([]tallyid.OptionID, len(ids))
	copy(order, ids)
	sort.Slice(order, func(i, j int) bool {
		ri, rj := remainder[order[i]], remainder[order[j]]
		if ri != rj {
			if descending {
				return ri > rj
			}
			return ri < rj
		}
		si, sj := scores[order[i]], scores[order[j]]
		if si != sj {
			if descending {
				return si > sj
			}
			return si < sj
		}
		oi, oj := byID[order[i]], byID[order[j]]
		if oi.OrderIndex != oj.OrderIndex {
			return oi.OrderIndex < oj.OrderIndex
		}
		return order[i] < order[j]
	})
	return order
}
