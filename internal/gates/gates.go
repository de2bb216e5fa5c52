// Package gates implements C11: the fixed-order legitimacy checks -
// quorum, majority/supermajority, double-majority and symmetry - run
// after aggregation and before frontier mapping. Every outcome is
// recorded even when an earlier gate fails; a gate failure is a result
// value, never a Go error (spec.md SS4.11).
package gates

import (
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/ratio"
	"github.com/luxfi/vmtally/internal/tallyid"
)

// Outcome is one gate's pass/fail verdict plus the support ratio it was
// evaluated against, for the RunRecord/Result audit trail.
type Outcome struct {
	Name         string
	Passed       bool
	Num, Den     int64 // the exact ratio actually compared
	ThresholdPct int64
}

// Report is every gate's outcome for one run, in evaluation order.
type Report struct {
	Quorum         Outcome
	Majority       Outcome
	DoubleMajority *Outcome // nil when VM-VAR-024 is off
	Symmetry       *Outcome // nil when VM-VAR-029 is off; always "informational"
	UnitQuorum     map[string]bool
}

// NationalTotals is the country-level roll-up gates evaluate against.
type NationalTotals struct {
	BallotsCast      int64
	EligibleRoll     int64
	ValidBallots     int64
	BlankBallots     int64
	SupportForChange int64 // approvals_for_change (approval) or support votes (other ballot types)
	BallotType       string
}

// UnitTurnout is one Unit's turnout inputs, for the per-unit quorum leg.
type UnitTurnout struct {
	UnitID       tallyid.UnitID
	BallotsCast  int64
	EligibleRoll int64
}

// FamilySupport is the affected-family aggregate used by the
// double-majority gate.
type FamilySupport struct {
	SupportForChange int64
	Denominator      int64
}

// Evaluate runs every gate in fixed order and returns the full Report.
func Evaluate(national NationalTotals, units []UnitTurnout, family *FamilySupport, ps *params.Set) Report {
	var report Report

	report.Quorum = evalQuorum(national, ps)
	report.UnitQuorum = EvalUnitQuorum(units, ps)
	report.Majority = evalMajority(national, ps)

	if ps.Bool("VM-VAR-024") {
		dm := evalDoubleMajority(report.Majority, family, ps)
		report.DoubleMajority = &dm
	}

	if ps.Bool("VM-VAR-029") {
		sym := evalSymmetry(ps)
		report.Symmetry = &sym
	}

	return report
}

func evalQuorum(n NationalTotals, ps *params.Set) Outcome {
	threshold := ps.Pct("VM-VAR-020")
	return Outcome{
		Name:         "quorum",
		Passed:       ratio.MeetsPercent(n.BallotsCast, n.EligibleRoll, threshold),
		Num:          n.BallotsCast,
		Den:          n.EligibleRoll,
		ThresholdPct: threshold,
	}
}

// EvalUnitQuorum computes the per-unit quorum leg standalone, so the
// pipeline can use its pass/fail map ahead of the full Evaluate pass -
// the affected-family computation (VM-VAR-025=by_proposed_change with
// VM-VAR-021-SCOPE=frontier_and_family) needs it before gates run.
func EvalUnitQuorum(units []UnitTurnout, ps *params.Set) map[string]bool {
	threshold := ps.Pct("VM-VAR-021")
	out := make(map[string]bool, len(units))
	for _, u := range units {
		if threshold <= 0 {
			out[u.UnitID.String()] = true
			continue
		}
		out[u.UnitID.String()] = ratio.MeetsPercent(u.BallotsCast, u.EligibleRoll, threshold)
	}
	return out
}

// evalMajority applies the denominator rule of spec.md SS4.11.2: approval
// ballots use a fixed approvals_for_change/valid_ballots ratio; other
// ballot types use support/valid_ballots, or support/(valid+blank) when
// include_blank_in_denominator is on - a gates-only adjustment that never
// touches tabulation.
func evalMajority(n NationalTotals, ps *params.Set) Outcome {
	threshold := ps.Pct("VM-VAR-022")
	den := n.ValidBallots
	if n.BallotType != "approval" && ps.Bool("VM-VAR-028") {
		den += n.BlankBallots
	}
	return Outcome{
		Name:         "majority",
		Passed:       ratio.MeetsPercent(n.SupportForChange, den, threshold),
		Num:          n.SupportForChange,
		Den:          den,
		ThresholdPct: threshold,
	}
}

func evalDoubleMajority(national Outcome, family *FamilySupport, ps *params.Set) Outcome {
	threshold := ps.Pct("VM-VAR-023")
	if family == nil || family.Denominator == 0 {
		return Outcome{Name: "double_majority", Passed: national.Passed, ThresholdPct: threshold}
	}
	familyPassed := ratio.MeetsPercent(family.SupportForChange, family.Denominator, threshold)
	return Outcome{
		Name:         "double_majority",
		Passed:       national.Passed && familyPassed,
		Num:          family.SupportForChange,
		Den:          family.Denominator,
		ThresholdPct: threshold,
	}
}

// evalSymmetry is informational only: spec.md SS4.11.4 says a symmetry
// failure is recorded but never itself blocks a gate pass. Passed records
// whether symmetry is respected, and is false whenever
// symmetry_exceptions (VM-VAR-030) lists any entry; the thresholds
// themselves are not inspected. The pipeline leaves this outcome out of
// its gate-failure decision.
func evalSymmetry(ps *params.Set) Outcome {
	exceptions := ps.StringSlice("VM-VAR-030")
	return Outcome{Name: "symmetry", Passed: len(exceptions) == 0}
}
