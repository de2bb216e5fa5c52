// Package tabulate implements C8: per-unit tabulation across the five
// ballot families (plurality, approval, score, ranked IRV, ranked
// Condorcet). Every function is pure integer math over the caller's
// already-validated UnitTally; unknown option keys are rejected by the
// loader (internal/load), not here.
package tabulate

import (
	"fmt"
	"sort"

	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/ratio"
	"github.com/luxfi/vmtally/internal/tallyid"
)

// normalizedScoreScale fixes the denominator linear normalization scores
// to: a score ballot's contribution to an option is rescaled from
// [score_scale_min, score_scale_max] to [0, normalizedScoreScale] before
// summing, keeping the tally exact int64 arithmetic rather than floats.
const normalizedScoreScale = 1_000_000

// Turnout is the per-unit ballot accounting shared by every ballot type.
type Turnout struct {
	BallotsCast    int64
	InvalidOrBlank int64
	ValidBallots   int64
}

// IRVRound records one elimination round of an IRV count, carried in
// UnitScores.IRV. Result does not include these rounds, and VM-VAR-033
// (include_audit_trail) is not read by this package.
type IRVRound struct {
	Continuing         map[tallyid.OptionID]int64
	Eliminated         tallyid.OptionID
	ExhaustedThisRound int64
	ContinuingBallots  int64
}

// CondorcetMatrix is the full pairwise preference matrix: Wins[a][b] is
// the number of ballots ranking a ahead of b.
type CondorcetMatrix map[tallyid.OptionID]map[tallyid.OptionID]int64

// UnitScores is the uniform tabulation output for one Unit, regardless of
// ballot family - the "natural tally" per option that allocation consumes.
type UnitScores struct {
	UnitID          tallyid.UnitID
	Turnout         Turnout
	Scores          map[tallyid.OptionID]int64
	IRV             []IRVRound      // non-nil only for ranked_irv
	Exhausted       int64           // total ballots exhausted across all IRV rounds
	Condorcet       CondorcetMatrix // non-nil only for ranked_condorcet
	CondorcetWinner tallyid.OptionID
}

// Tabulate dispatches on VM-VAR-001 (ballot_type).
func Tabulate(unit *model.Unit, tally *model.UnitTally, options []model.Option, ps *params.Set) (UnitScores, error) {
	turnout := Turnout{
		BallotsCast:    tally.BallotsCast,
		InvalidOrBlank: tally.InvalidOrBlank,
		ValidBallots:   tally.BallotsCast - tally.InvalidOrBlank,
	}
	sortedOptions := sortedOptionIDs(options)

	switch ps.String("VM-VAR-001") {
	case "plurality", "approval":
		return tabulateCounted(unit.ID, turnout, tally, sortedOptions)
	case "score":
		return tabulateScore(unit.ID, turnout, tally, sortedOptions, ps)
	case "ranked_irv":
		return tabulateIRV(unit.ID, turnout, tally, sortedOptions)
	case "ranked_condorcet":
		return tabulateCondorcet(unit.ID, turnout, tally, sortedOptions, ps)
	default:
		return UnitScores{}, fmt.Errorf("tabulate: unknown ballot_type %q", ps.String("VM-VAR-001"))
	}
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

// tabulateCounted handles plurality (one vote per ballot) and approval
// (any subset approved) - both are a direct per-option count already
// accumulated in UnitTally.OptionVotes by the loader.
func tabulateCounted(unitID tallyid.UnitID, turnout Turnout, tally *model.UnitTally, options []tallyid.OptionID) (UnitScores, error) {
	scores := make(map[tallyid.OptionID]int64, len(options))
	for _, opt := range options {
		scores[opt] = tally.OptionVotes[opt]
	}
	return UnitScores{UnitID: unitID, Turnout: turnout, Scores: scores}, nil
}

// tabulateScore sums per-ballot scores. OptionVotes already holds the raw
// per-option score sums; when score_normalization=linear (VM-VAR-004),
// each ballot's raw score is linearly rescaled from [score_scale_min,
// score_scale_max] to [0, normalizedScoreScale] before summing. Because
// that rescale is affine, it commutes with summation: the normalized
// per-option sum is derivable from the raw sum and ScoreBallotCount alone,
// without revisiting individual ballots.
func tabulateScore(unitID tallyid.UnitID, turnout Turnout, tally *model.UnitTally, options []tallyid.OptionID, ps *params.Set) (UnitScores, error) {
	scores := make(map[tallyid.OptionID]int64, len(options))
	if ps.String("VM-VAR-004") == "linear" {
		min := ps.Int("VM-VAR-002")
		max := ps.Int("VM-VAR-003")
		span := max - min
		if span <= 0 {
			return UnitScores{}, fmt.Errorf("tabulate: score_scale_min >= score_scale_max")
		}
		count := tally.ScoreBallotCount
		for _, opt := range options {
			rawSum := tally.OptionVotes[opt]
			scores[opt] = ratio.RoundHalfEven((rawSum-min*count)*normalizedScoreScale, span)
		}
	} else {
		for _, opt := range options {
			scores[opt] = tally.OptionVotes[opt]
		}
	}
	return UnitScores{UnitID: unitID, Turnout: turnout, Scores: scores}, nil
}
