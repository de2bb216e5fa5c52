package tabulate

import (
	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/tallyid"
)

// tabulateIRV iteratively eliminates the option with the lowest current
// tally and transfers each of its ballots to the next continuing
// preference. Ballots with no remaining preference exhaust and reduce the
// continuing-ballots denominator for subsequent rounds. Elimination ties
// are broken by (order_index, option_id) - i.e. options' position in the
// `options` slice, which callers already sort that way - regardless of
// the global tie policy (spec.md SS4.8).
func tabulateIRV(unitID tallyid.UnitID, turnout Turnout, tally *model.UnitTally, options []tallyid.OptionID) (UnitScores, error) {
	continuing := map[tallyid.OptionID]bool{}
	for _, o := range options {
		continuing[o] = true
	}

	// ballots is a mutable working copy: each ballot's ranking, trimmed on
	// the fly to only its continuing preferences as options are eliminated.
	type ballot struct {
		ranking []tallyid.OptionID
		count   int64
	}
	ballots := make([]ballot, 0, len(tally.Ranked))
	for _, g := range tally.Ranked {
		ballots = append(ballots, ballot{ranking: g.Ranking, count: g.Count})
	}

	var rounds []IRVRound
	var totalExhausted int64

	for {
		current := map[tallyid.OptionID]int64{}
		for o := range continuing {
			if continuing[o] {
				current[o] = 0
			}
		}
		var continuingBallots int64
		var exhaustedThisRound int64
		for _, b := range ballots {
			found := false
			for _, o := range b.ranking {
				if continuing[o] {
					current[o] += b.count
					continuingBallots += b.count
					found = true
					break
				}
			}
			if !found {
				exhaustedThisRound += b.count
			}
		}
		totalExhausted += exhaustedThisRound

		remaining := remainingOptions(options, continuing)
		if len(remaining) == 1 {
			rounds = append(rounds, IRVRound{Continuing: current, ContinuingBallots: continuingBallots, ExhaustedThisRound: exhaustedThisRound})
			winner := remaining[0]
			return irvResult(unitID, turnout, winner, rounds, totalExhausted), nil
		}
		if continuingBallots > 0 {
			for _, o := range remaining {
				if current[o]*2 > continuingBallots {
					rounds = append(rounds, IRVRound{Continuing: current, ContinuingBallots: continuingBallots, ExhaustedThisRound: exhaustedThisRound})
					return irvResult(unitID, turnout, o, rounds, totalExhausted), nil
				}
			}
		}

		// Eliminate the lowest-tally continuing option; ties broken by
		// (order_index, option_id), i.e. first in `options` order.
		var loser tallyid.OptionID
		lowest := int64(-1)
		for _, o := range remaining {
			if lowest == -1 || current[o] < lowest {
				lowest = current[o]
				loser = o
			}
		}
		continuing[loser] = false
		rounds = append(rounds, IRVRound{Continuing: current, Eliminated: loser, ContinuingBallots: continuingBallots, ExhaustedThisRound: exhaustedThisRound})
	}
}

func remainingOptions(options []tallyid.OptionID, continuing map[tallyid.OptionID]bool) []tallyid.OptionID {
	var out []tallyid.OptionID
	for _, o := range options {
		if continuing[o] {
			out = append(out, o)
		}
	}
	return out
}

func irvResult(unitID tallyid.UnitID, turnout Turnout, winner tallyid.OptionID, rounds []IRVRound, exhausted int64) UnitScores {
	scores := map[tallyid.OptionID]int64{winner: 1}
	return UnitScores{UnitID: unitID, Turnout: turnout, Scores: scores, IRV: rounds, Exhausted: exhausted}
}

// tabulateCondorcet builds the full pairwise matrix and resolves the
// winner: the Condorcet winner if one exists, otherwise the completion
// rule named by VM-VAR-006 (schulze path strengths, or minimax).
func tabulateCondorcet(unitID tallyid.UnitID, turnout Turnout, tally *model.UnitTally, options []tallyid.OptionID, ps *params.Set) (UnitScores, error) {
	matrix := make(CondorcetMatrix, len(options))
	for _, a := range options {
		matrix[a] = make(map[tallyid.OptionID]int64, len(options))
	}

	for _, g := range tally.Ranked {
		rank := make(map[tallyid.OptionID]int, len(g.Ranking))
		for i, o := range g.Ranking {
			rank[o] = i
		}
		for _, a := range options {
			for _, b := range options {
				if a == b {
					continue
				}
				ra, aRanked := rank[a]
				rb, bRanked := rank[b]
				switch {
				case aRanked && bRanked:
					if ra < rb {
						matrix[a][b] += g.Count
					}
				case aRanked && !bRanked:
					matrix[a][b] += g.Count
				}
			}
		}
	}

	winner, ok := condorcetWinner(options, matrix)
	if !ok {
		switch ps.String("VM-VAR-006") {
		case "minimax":
			winner = minimaxWinner(options, matrix)
		default:
			winner = schulzeWinner(options, matrix)
		}
	}

	scores := map[tallyid.OptionID]int64{winner: 1}
	return UnitScores{UnitID: unitID, Turnout: turnout, Scores: scores, Condorcet: matrix, CondorcetWinner: winner}, nil
}

func condorcetWinner(options []tallyid.OptionID, m CondorcetMatrix) (tallyid.OptionID, bool) {
	for _, a := range options {
		wins := true
		for _, b := range options {
			if a == b {
				continue
			}
			if m[a][b] <= m[b][a] {
				wins = false
				break
			}
		}
		if wins {
			return a, true
		}
	}
	return "", false
}

// schulzeWinner implements the Schulze method via path strengths (beatpath
// widest-path, not a beatpath heuristic shortcut - spec.md SS9 requires
// the fixture to match the genuine widest-path computation).
func schulzeWinner(options []tallyid.OptionID, m CondorcetMatrix) tallyid.OptionID {
	n := len(options)
	p := make([][]int64, n)
	for i := range p {
		p[i] = make([]int64, n)
	}
	for i, a := range options {
		for j, b := range options {
			if i == j {
				continue
			}
			if m[a][b] > m[b][a] {
				p[i][j] = m[a][b]
			}
		}
	}
	// Floyd-Warshall widest path.
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if i == k {
				continue
			}
			for j := 0; j < n; j++ {
				if j == i || j == k {
					continue
				}
				if alt := min64(p[i][k], p[k][j]); alt > p[i][j] {
					p[i][j] = alt
				}
			}
		}
	}
	var winner tallyid.OptionID
	for i, a := range options {
		beatsAll := true
		for j := range options {
			if i == j {
				continue
			}
			if p[i][j] <= p[j][i] {
				beatsAll = false
				break
			}
		}
		if beatsAll {
			winner = a
			break
		}
	}
	if winner == "" {
		// No strict Schulze winner (can happen with perfect symmetric
		// cycles): fall back to (order_index, option_id), i.e. first in
		// `options` order, deterministically.
		winner = options[0]
	}
	return winner
}

// minimaxWinner picks the option whose worst pairwise defeat margin is
// smallest (minimax / Simpson-Kramer).
func minimaxWinner(options []tallyid.OptionID, m CondorcetMatrix) tallyid.OptionID {
	var winner tallyid.OptionID
	var bestWorst int64 = -1 << 62
	for _, a := range options {
		var worst int64 = 0
		for _, b := range options {
			if a == b {
				continue
			}
			defeat := m[b][a] - m[a][b]
			if defeat > worst {
				worst = defeat
			}
		}
		if winner == "" || worst < bestWorst {
			bestWorst = worst
			winner = a
		}
	}
	return winner
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
