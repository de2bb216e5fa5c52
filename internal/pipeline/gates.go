package pipeline

import (
	"fmt"
	stdmath "math"
	"sort"

	"github.com/luxfi/vmtally/internal/aggregate"
	"github.com/luxfi/vmtally/internal/allocate"
	"github.com/luxfi/vmtally/internal/frontier"
	"github.com/luxfi/vmtally/internal/gates"
	"github.com/luxfi/vmtally/internal/idset"
	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/ratio"
	"github.com/luxfi/vmtally/internal/tabulate"
	"github.com/luxfi/vmtally/internal/tallyid"
	vmmath "github.com/luxfi/vmtally/utils/math"
)

// addCount adds two non-negative ballot/vote counts with overflow
// detection; load.Validate already rejects negative tally counts, so a
// plain uint64 round-trip is safe here.
func addCount(a, b int64) (int64, error) {
	sum, err := vmmath.Add64(uint64(a), uint64(b))
	if err != nil {
		return 0, err
	}
	if sum > stdmath.MaxInt64 {
		return 0, vmmath.ErrOverflow
	}
	return int64(sum), nil
}

// supportForChange implements the fixed-denominator invariant spec.md
// SS4.11.2 requires: for approval ballots, num is the approvals cast for
// the non-status-quo option(s) and den is always valid_ballots - never a
// share of total approvals, which can exceed one vote per ballot. Other
// ballot families use the same shape (votes/score for change options
// over valid, optionally widened by include_blank_in_denominator), so
// the gates and frontier stages share one implementation rather than
// diverging on this invariant.
func supportForChange(scores map[tallyid.OptionID]int64, options []model.Option, turnout tabulate.Turnout, ballotType string, includeBlank bool) (num, den int64) {
	for _, o := range options {
		if !o.IsStatusQuo {
			num += scores[o.ID]
		}
	}
	den = turnout.ValidBallots
	if ballotType != "approval" && includeBlank {
		den += turnout.InvalidOrBlank
	}
	return num, den
}

// nationalTotals sums every base unit's raw tabulation output into the
// gates' NationalTotals - deliberately independent of aggregate.Roll,
// whose Totals are seat-weighted for the "aggregates by level" display
// field and must never be read as a vote-share legitimacy input.
func nationalTotals(units []*model.Unit, scoreByUnit map[string]tabulate.UnitScores, options []model.Option, ps *params.Set) (gates.NationalTotals, map[tallyid.OptionID]int64, error) {
	ballotType := ps.String("VM-VAR-001")
	includeBlank := ps.Bool("VM-VAR-028")

	scores := make(map[tallyid.OptionID]int64)
	var ballotsCast, eligibleRoll, validBallots, blankBallots int64
	var err error
	for _, u := range units {
		s := scoreByUnit[u.ID.String()]
		if ballotsCast, err = addCount(ballotsCast, s.Turnout.BallotsCast); err != nil {
			return gates.NationalTotals{}, nil, fmt.Errorf("national ballots cast: %w", err)
		}
		if eligibleRoll, err = addCount(eligibleRoll, u.EligibleRoll); err != nil {
			return gates.NationalTotals{}, nil, fmt.Errorf("national eligible roll: %w", err)
		}
		if validBallots, err = addCount(validBallots, s.Turnout.ValidBallots); err != nil {
			return gates.NationalTotals{}, nil, fmt.Errorf("national valid ballots: %w", err)
		}
		if blankBallots, err = addCount(blankBallots, s.Turnout.InvalidOrBlank); err != nil {
			return gates.NationalTotals{}, nil, fmt.Errorf("national blank ballots: %w", err)
		}
		for optID, v := range s.Scores {
			if scores[optID], err = addCount(scores[optID], v); err != nil {
				return gates.NationalTotals{}, nil, fmt.Errorf("national score for %s: %w", optID, err)
			}
		}
	}

	turnout := tabulate.Turnout{ValidBallots: validBallots, InvalidOrBlank: blankBallots}
	num, _ := supportForChange(scores, options, turnout, ballotType, includeBlank)

	national := gates.NationalTotals{
		BallotsCast:      ballotsCast,
		EligibleRoll:     eligibleRoll,
		ValidBallots:     validBallots,
		BlankBallots:     blankBallots,
		SupportForChange: num,
		BallotType:       ballotType,
	}
	return national, scores, nil
}

// nationalDenominator mirrors gates.evalMajority's (unexported)
// denominator rule, for the label stage's margin computation - kept in
// one place here rather than duplicated inline at the call site.
func nationalDenominator(n gates.NationalTotals, ps *params.Set) int64 {
	den := n.ValidBallots
	if n.BallotType != "approval" && ps.Bool("VM-VAR-028") {
		den += n.BlankBallots
	}
	return den
}

// marginPercentagePoints returns the achieved support minus the
// threshold, in tenths-of-a-percentage-point (label.Inputs's scale).
func marginPercentagePoints(num, den, thresholdPct int64) int64 {
	achievedTenths := ratio.OneDecimalPercentTenths(num, den)
	return achievedTenths - thresholdPct*10
}

// familySupport computes the affected-family aggregate the
// double-majority gate needs, per VM-VAR-025's family selection mode.
// Returns nil when double majority is disabled. frontierStatuses carries
// each Unit's preliminary (pre-gate) frontier verdict, needed by
// by_proposed_change; it is nil when frontier_mode=none, which
// ValidateCrossVariable already forbids combining with
// affected_family_mode=by_proposed_change. unitQuorumOK narrows
// by_proposed_change further to units that also cleared per-unit quorum
// when VM-VAR-021-SCOPE=frontier_and_family (spec.md SS4.5 VM-VAR-021).
func familySupport(ps *params.Set, units []*model.Unit, scoreByUnit map[string]tabulate.UnitScores, options []model.Option, frontierStatuses []frontier.UnitStatus, unitQuorumOK map[string]bool) (*gates.FamilySupport, error) {
	if !ps.Bool("VM-VAR-024") {
		return nil, nil
	}

	var members []*model.Unit
	switch ps.String("VM-VAR-025") {
	case "by_list":
		allowed := idset.Of(ps.StringSlice("VM-VAR-026")...)
		for _, u := range units {
			if allowed.Contains(u.ID.String()) {
				members = append(members, u)
			}
		}
	case "by_tag":
		tag := ps.String("VM-VAR-027")
		for _, u := range units {
			if u.Level == tag {
				members = append(members, u)
			}
		}
	default: // by_proposed_change: units whose status actually changed under the frontier result
		changed := idset.New[string](len(frontierStatuses))
		for _, s := range frontierStatuses {
			if s.WantsChange {
				changed.Add(s.UnitID.String())
			}
		}
		familyScoped := ps.String("VM-VAR-021-SCOPE") == "frontier_and_family"
		for _, u := range units {
			if !changed.Contains(u.ID.String()) {
				continue
			}
			if familyScoped {
				if ok, present := unitQuorumOK[u.ID.String()]; present && !ok {
					continue
				}
			}
			members = append(members, u)
		}
	}
	if len(members) == 0 {
		return &gates.FamilySupport{}, nil
	}

	ballotType := ps.String("VM-VAR-001")
	includeBlank := ps.Bool("VM-VAR-028")
	scores := make(map[tallyid.OptionID]int64, len(options))
	var valid, blank int64
	var err error
	for _, u := range members {
		s := scoreByUnit[u.ID.String()]
		if valid, err = addCount(valid, s.Turnout.ValidBallots); err != nil {
			return nil, fmt.Errorf("family valid ballots: %w", err)
		}
		if blank, err = addCount(blank, s.Turnout.InvalidOrBlank); err != nil {
			return nil, fmt.Errorf("family blank ballots: %w", err)
		}
		for optID, v := range s.Scores {
			if scores[optID], err = addCount(scores[optID], v); err != nil {
				return nil, fmt.Errorf("family score for %s: %w", optID, err)
			}
		}
	}
	num, den := supportForChange(scores, options, tabulate.Turnout{ValidBallots: valid, InvalidOrBlank: blank}, ballotType, includeBlank)
	return &gates.FamilySupport{SupportForChange: num, Denominator: den}, nil
}

// frontierFlags folds the per-unit frontier statuses into the three
// booleans label.Derive needs.
func frontierFlags(statuses []frontier.UnitStatus) (anyMediation, anyEnclave, anyOverride bool) {
	for _, s := range statuses {
		if s.Mediation {
			anyMediation = true
		}
		if s.EnclaveFlag {
			anyEnclave = true
		}
		if s.ProtectedOverride {
			anyOverride = true
		}
	}
	return anyMediation, anyEnclave, anyOverride
}

// rollToCountry aggregates every base unit directly into the registry's
// root level (spec.md SS4.10 "Aggregation is done at the country level
// (v1)") - a single flat rollup, not a recursive per-level traversal.
func rollToCountry(registry *model.Registry, baseUnits []*model.Unit, allocByUnit map[string]allocate.UnitAllocation, scoreByUnit map[string]tabulate.UnitScores, ps *params.Set) aggregate.LevelTotal {
	root := registry.Units[registry.RootUnitID.String()]
	children := make([]aggregate.ChildContribution, 0, len(baseUnits))
	for _, u := range baseUnits {
		s := scoreByUnit[u.ID.String()]
		children = append(children, aggregate.ChildContribution{
			Unit:         u,
			Allocation:   allocByUnit[u.ID.String()],
			BallotsCast:  s.Turnout.BallotsCast,
			EligibleRoll: u.EligibleRoll,
		})
	}
	return aggregate.Roll(root, children, ps)
}

// applyMMPIfConfigured runs the mixed_local_correction top-up once every
// SMD base unit already has its local WTA result (VM-VAR-010). Per
// VM-VAR-013 (mlc_correction_level), "national" folds every base unit
// into one CorrectionScope; "regional" groups base units by their Level
// (the registry's only existing region-like grouping key) and runs one
// independent correction per region.
func applyMMPIfConfigured(baseUnits []*model.Unit, scoreByUnit map[string]tabulate.UnitScores, allocByUnit map[string]allocate.UnitAllocation, options []model.Option, ps *params.Set) []allocate.MMPResult {
	if ps.String("VM-VAR-010") != "mixed_local_correction" {
		return nil
	}

	groups := mmpScopeGroups(baseUnits, ps)
	results := make([]allocate.MMPResult, 0, len(groups))
	for _, g := range groups {
		localSeats := make(map[tallyid.OptionID]int64, len(options))
		naturalVotes := make(map[tallyid.OptionID]int64, len(options))
		for _, u := range g.units {
			alloc := allocByUnit[u.ID.String()]
			for optID, seats := range alloc.Seats {
				localSeats[optID] += seats
			}
			for optID, v := range scoreByUnit[u.ID.String()].Scores {
				naturalVotes[optID] += v
			}
		}
		scope := allocate.CorrectionScope{
			ScopeID:      g.scopeID,
			LocalSeats:   localSeats,
			NaturalVotes: naturalVotes,
			Options:      options,
		}
		results = append(results, allocate.ApplyMMPCorrection(scope, ps))
	}
	return results
}

type mmpScopeGroup struct {
	scopeID string
	units   []*model.Unit
}

// mmpScopeGroups partitions baseUnits into correction scopes per
// VM-VAR-013: a single "national" scope, or one scope per distinct
// Level value (sorted for determinism) when mlc_correction_level is
// "regional".
func mmpScopeGroups(baseUnits []*model.Unit, ps *params.Set) []mmpScopeGroup {
	if ps.String("VM-VAR-013") != "regional" {
		return []mmpScopeGroup{{scopeID: "national", units: baseUnits}}
	}

	byLevel := make(map[string][]*model.Unit)
	for _, u := range baseUnits {
		byLevel[u.Level] = append(byLevel[u.Level], u)
	}
	levels := make([]string, 0, len(byLevel))
	for level := range byLevel {
		levels = append(levels, level)
	}
	sort.Strings(levels)

	groups := make([]mmpScopeGroup, 0, len(levels))
	for _, level := range levels {
		groups = append(groups, mmpScopeGroup{scopeID: "regional:" + level, units: byLevel[level]})
	}
	return groups
}
