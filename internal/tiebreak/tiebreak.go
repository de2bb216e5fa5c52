// Package tiebreak implements C13: resolution of blocking ties wherever
// they occur in the pipeline - WTA single-winner ties, largest-remainder
// last-seat ties, IRV elimination ties that spec.md pins to
// (order_index, option_id) rather than the configured policy, and MMP
// top-up seat ties. A tie is "blocking" when the outcome genuinely
// depends on which option is chosen, not merely when two counts happen
// to match (spec.md SS4.8).
package tiebreak

import (
	"fmt"
	"sort"

	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/rng"
	"github.com/luxfi/vmtally/internal/tallyid"
)

// Event records one resolved tie for the RunRecord audit trail.
type Event struct {
	Context  string // e.g. "wta_winner", "lr_last_seat", "mmp_topup"
	UnitID   string
	Tied     []tallyid.OptionID
	Policy   string
	Winner   tallyid.OptionID
	RNGWords uint64 // words drawn from the seed stream, 0 unless policy=random
}

// Resolver threads a single RNG stream across every random-policy tie
// resolved during one pipeline run, so the draw sequence is reproducible
// end to end for a given VM-VAR-052 seed.
type Resolver struct {
	ps     *params.Set
	stream *rng.Stream
	Events []Event
}

// NewResolver builds a Resolver for one run. stream is nil unless
// tie_policy=random, in which case it must be pre-seeded from
// VM-VAR-052.
func NewResolver(ps *params.Set, stream *rng.Stream) *Resolver {
	return &Resolver{ps: ps, stream: stream}
}

// Resolve picks one option among tied, in the context named by ctx, for
// unitID (empty for a national-level tie). options provides each tied
// option's order_index for deterministic_order and status_quo lookups.
func (r *Resolver) Resolve(ctx string, unitID tallyid.UnitID, tied []tallyid.OptionID, options map[tallyid.OptionID]model.Option) (tallyid.OptionID, error) {
	if len(tied) == 0 {
		return "", fmt.Errorf("tiebreak: Resolve called with no tied options")
	}
	if len(tied) == 1 {
		return tied[0], nil
	}

	sorted := make([]tallyid.OptionID, len(tied))
	copy(sorted, tied)
	sort.Slice(sorted, func(i, j int) bool {
		oi, oj := options[sorted[i]], options[sorted[j]]
		if oi.OrderIndex != oj.OrderIndex {
			return oi.OrderIndex < oj.OrderIndex
		}
		return sorted[i] < sorted[j]
	})

	policy := r.ps.String("VM-VAR-050")
	var winner tallyid.OptionID
	var words uint64

	switch policy {
	case "status_quo":
		winner = statusQuoOrFirst(sorted, options)
	case "random":
		if r.stream == nil {
			return "", fmt.Errorf("tiebreak: tie_policy=random but no seeded RNG stream was provided")
		}
		before := r.stream.WordsDrawn()
		winner = resolveRandomDraw(r.stream, sorted)
		words = r.stream.WordsDrawn() - before
	case "deterministic_order":
		winner = sorted[0]
	default:
		return "", fmt.Errorf("tiebreak: unknown tie_policy %q", policy)
	}

	r.Events = append(r.Events, Event{
		Context:  ctx,
		UnitID:   unitID.String(),
		Tied:     sorted,
		Policy:   policy,
		Winner:   winner,
		RNGWords: words,
	})
	return winner, nil
}

// ResolveIRVElimination breaks an IRV elimination tie by (order_index,
// option_id) unconditionally - spec.md SS4.8 pins this regardless of
// VM-VAR-050, since an elimination tie is not itself the decisive
// outcome and must stay reproducible without consuming RNG draws.
func ResolveIRVElimination(tied []tallyid.OptionID, options map[tallyid.OptionID]model.Option) tallyid.OptionID {
	sorted := make([]tallyid.OptionID, len(tied))
	copy(sorted, tied)
	sort.Slice(sorted, func(i, j int) bool {
		oi, oj := options[sorted[i]], options[sorted[j]]
		if oi.OrderIndex != oj.OrderIndex {
			return oi.OrderIndex < oj.OrderIndex
		}
		return sorted[i] < sorted[j]
	})
	return sorted[0]
}

// resolveRandomDraw draws exactly one RNG word per tied option - k draws
// for a k-way tie - then sorts the tied subset by (draw_value, option_id)
// and takes the head, so the outcome depends on every draw rather than
// only the one that happened to land on the winning index.
func resolveRandomDraw(stream *rng.Stream, sorted []tallyid.OptionID) tallyid.OptionID {
	type draw struct {
		value uint64
		opt   tallyid.OptionID
	}
	draws := make([]draw, len(sorted))
	for i, opt := range sorted {
		draws[i] = draw{value: stream.Uint64(), opt: opt}
	}
	sort.Slice(draws, func(i, j int) bool {
		if draws[i].value != draws[j].value {
			return draws[i].value < draws[j].value
		}
		return draws[i].opt < draws[j].opt
	})
	return draws[0].opt
}

func statusQuoOrFirst(sorted []tallyid.OptionID, options map[tallyid.OptionID]model.Option) tallyid.OptionID {
	for _, id := range sorted {
		if options[id].IsStatusQuo {
			return id
		}
	}
	return sorted[0]
}
