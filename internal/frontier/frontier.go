// Package frontier implements C12: territorial status mapping. Runs only
// when frontier_mode != none and every gate has passed (the driver
// enforces that precondition; this package only computes the mapping
// itself). Every Unit ends up with exactly one status (spec.md SS4.12).
package frontier

import (
	"sort"

	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/ratio"
	"github.com/luxfi/vmtally/internal/tallyid"
)

// Status vocabulary (spec.md SS4.12): no_change, or one of the band
// actions it was mapped to - phased_change, immediate_change, or
// autonomy(AP:<name>:v<n>) for the autonomy_ladder package a Unit landed
// on.
const (
	StatusNoChange        = "no_change"
	StatusPhasedChange    = "phased_change"
	StatusImmediateChange = "immediate_change"
)

// autonomyStatus formats an autonomy_ladder package assignment as the
// literal status string the spec's vocabulary requires.
func autonomyStatus(pkgID tallyid.AutonomyPackageID) string {
	return "autonomy(" + pkgID.String() + ")"
}

// UnitSupport is one Unit's support ratio, using the same denominator
// semantics as the majority gate (approval-rate for approval ballots).
type UnitSupport struct {
	UnitID tallyid.UnitID
	Num    int64
	Den    int64
}

// UnitStatus is the final per-unit frontier verdict.
type UnitStatus struct {
	UnitID tallyid.UnitID
	// Status is the literal vocabulary string: no_change, phased_change,
	// immediate_change, or autonomy(AP:...).
	Status      string
	WantsChange bool   // true whenever Status != StatusNoChange, kept separate so contiguity/mediation can reason about it before Status is finalized
	BandMet     string // band label or ladder rung, "" for binary_cutoff

	AutonomyPackage   tallyid.AutonomyPackageID
	Mediation         bool // isolated component, no status change possible
	ProtectedOverride bool
	EnclaveFlag       bool
}

// Band is one sliding_scale/autonomy_ladder row: support in [MinPct,
// MaxPct) maps to Action (and, for the ladder, an autonomy package key
// looked up in VM-VAR-046).
type Band struct {
	MinPct int64
	MaxPct int64 // exclusive upper bound; the last band's MaxPct is treated as inclusive
	Action string
}

// Map computes every Unit's frontier status.
func Map(registry *model.Registry, support map[string]UnitSupport, bands []Band, unitQuorumOK map[string]bool, ps *params.Set) []UnitStatus {
	mode := ps.String("VM-VAR-040")
	units := registry.UnitsSorted()

	wantsChangeByUnit := make(map[string]bool, len(units))

	results := make([]UnitStatus, 0, len(units))
	for _, u := range units {
		s := support[u.ID.String()]
		result := UnitStatus{UnitID: u.ID}

		if u.ProtectedArea && !ps.Bool("VM-VAR-045") {
			result.Status = StatusNoChange
			wantsChangeByUnit[u.ID.String()] = false
			results = append(results, result)
			continue
		}

		var wantsChange bool
		var band string
		if mode == "binary_cutoff" {
			wantsChange = evalBinaryCutoff(s, ps.Pct("VM-VAR-041"))
		} else {
			wantsChange, band = evalBand(s, bands)
		}
		result.BandMet = band

		if wantsChange && u.ProtectedArea {
			result.ProtectedOverride = true
		}

		if unitQuorumOK != nil {
			if ok, present := unitQuorumOK[u.ID.String()]; present && !ok {
				wantsChange = false
			}
		}

		result.Status = StatusNoChange
		if wantsChange {
			switch mode {
			case "binary_cutoff":
				result.Status = StatusImmediateChange
			case "autonomy_ladder":
				if pkgID, ok := autonomyPackageFor(band, ps); ok {
					result.AutonomyPackage = pkgID
					result.Status = autonomyStatus(pkgID)
				} else {
					result.Status = band
				}
			default: // sliding_scale
				result.Status = band
			}
		}
		result.WantsChange = wantsChange

		wantsChangeByUnit[u.ID.String()] = wantsChange
		results = append(results, result)
	}

	applyContiguity(registry, units, wantsChangeByUnit, results, ps)

	sort.Slice(results, func(i, j int) bool {
		return results[i].UnitID.String() < results[j].UnitID.String()
	})
	return results
}

// evalBand assigns a Unit to exactly one band by support percentage and
// reports whether that band's action is anything other than no_change.
func evalBand(s UnitSupport, bands []Band) (bool, string) {
	pct := supportPct(s)
	for i, b := range bands {
		upper := b.MaxPct
		inclusive := i == len(bands)-1
		if pct >= b.MinPct && (pct < upper || inclusive) {
			return b.Action != "no_change" && b.Action != "", bandLabel(b)
		}
	}
	return false, ""
}

func bandLabel(b Band) string {
	return b.Action
}

// supportPct converts an exact ratio to a percent via banker's rounding,
// for band lookups only - gate comparisons always stay in exact ratio
// form via ratio.MeetsPercent.
func supportPct(s UnitSupport) int64 {
	if s.Den == 0 {
		return 0
	}
	return ratio.RoundHalfEven(s.Num*100, s.Den)
}

func autonomyPackageFor(bandLabel string, ps *params.Set) (tallyid.AutonomyPackageID, bool) {
	m := ps.Object("VM-VAR-046")
	raw, ok := m[bandLabel]
	if !ok {
		return tallyid.AutonomyPackageID{}, false
	}
	str, ok := raw.(string)
	if !ok {
		return tallyid.AutonomyPackageID{}, false
	}
	id, err := tallyid.ParseAutonomyPackageID(str)
	if err != nil {
		return tallyid.AutonomyPackageID{}, false
	}
	return id, true
}

// evalBinaryCutoff applies binary_cutoff directly: change iff support >=
// cutoff_pct (exact ratio comparison) and contiguity holds - contiguity
// is folded in by applyContiguity after this pass.
func evalBinaryCutoff(s UnitSupport, cutoffPct int64) bool {
	return ratio.MeetsPercent(s.Num, s.Den, cutoffPct)
}
