package pipeline

import (
	"fmt"
	"sort"

	"github.com/luxfi/vmtally/internal/aggregate"
	"github.com/luxfi/vmtally/internal/allocate"
	"github.com/luxfi/vmtally/internal/canon"
	"github.com/luxfi/vmtally/internal/frontier"
	"github.com/luxfi/vmtally/internal/gates"
	"github.com/luxfi/vmtally/internal/label"
	"github.com/luxfi/vmtally/internal/manifest"
	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/tabulate"
	"github.com/luxfi/vmtally/internal/tallyid"
	"github.com/luxfi/vmtally/internal/tiebreak"
	"github.com/luxfi/vmtally/internal/vmerr"
)

// Result is the engine's primary output artifact (spec.md SS6): one
// election's tabulated, allocated and labeled outcome. ResultID is the
// artifact's own content hash and is therefore always omitted from the
// hash input itself (json "omitempty" on the zero value).
type Result struct {
	ResultID      string               `json:"result_id,omitempty"`
	FormulaID     string               `json:"formula_id"`
	EngineVersion string               `json:"engine_version,omitempty"`
	Label         string               `json:"label"`
	LabelReason   string               `json:"label_reason"`
	National      NationalSummary      `json:"national"`
	Units         []UnitResult         `json:"units"`
	Gates         gates.Report         `json:"gates"`
	MMP           []allocate.MMPResult `json:"mmp,omitempty"`
}

// OptionTally is one option's entry in a Result's ordered per-option
// array: raw votes, its share of the total, and (when seats were
// awarded) its seat count. Entries are ordered by (order_index,
// option_id), never by vote count - the ordering is a registry property,
// not a ranking (spec.md SS6).
type OptionTally struct {
	OptionID tallyid.OptionID `json:"option_id"`
	Votes    int64            `json:"votes"`
	Share    canon.Share      `json:"share"`
	Seats    int64            `json:"seats,omitempty"`
}

// buildOptionTallies orders options by (order_index, option_id) and pairs
// each with its votes, share of the total, and seats (if any).
func buildOptionTallies(options []model.Option, votes map[tallyid.OptionID]int64, seats map[tallyid.OptionID]int64) []OptionTally {
	sorted := make([]model.Option, len(options))
	copy(sorted, options)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].OrderIndex != sorted[j].OrderIndex {
			return sorted[i].OrderIndex < sorted[j].OrderIndex
		}
		return sorted[i].ID < sorted[j].ID
	})

	var total int64
	for _, o := range sorted {
		total += votes[o.ID]
	}

	out := make([]OptionTally, 0, len(sorted))
	for _, o := range sorted {
		v := votes[o.ID]
		var share float64
		if total > 0 {
			share = float64(v) / float64(total)
		}
		out = append(out, OptionTally{OptionID: o.ID, Votes: v, Share: canon.Share(share), Seats: seats[o.ID]})
	}
	return out
}

// NationalSummary is the country-level roll-up: raw vote totals (the
// gates' own inputs) alongside the seat-weighted aggregate.Roll output.
type NationalSummary struct {
	BallotsCast  int64         `json:"ballots_cast"`
	EligibleRoll int64         `json:"eligible_roll"`
	ValidBallots int64         `json:"valid_ballots"`
	BlankBallots int64         `json:"blank_ballots"`
	Options      []OptionTally `json:"options"`
	WeightScale  int64         `json:"weight_scale"`
}

// UnitResult is one base unit's tabulated scores and awarded seats.
type UnitResult struct {
	UnitID       string        `json:"unit_id"`
	BallotsCast  int64         `json:"ballots_cast"`
	ValidBallots int64         `json:"valid_ballots"`
	Options      []OptionTally `json:"options"`
}

// RunRecord is the audit/provenance artifact alongside Result: the
// exact Formula ID, digests of the artifacts it produced, the tie
// resolution trail, and every variable's effective value (Included and
// Excluded alike) for reproducibility (spec.md SS6).
type RunRecord struct {
	RunID                   string                 `json:"run_id,omitempty"`
	FormulaID               string                 `json:"formula_id"`
	NormativeManifestDigest string                 `json:"normative_manifest_digest"`
	ResultDigest            string                 `json:"result_digest"`
	FrontierDigest          string                 `json:"frontier_digest,omitempty"`
	TiePolicy               string                 `json:"tie_policy"`
	Seed                    *uint64                `json:"seed,omitempty"`
	TieEvents               []tiebreak.Event       `json:"tie_events,omitempty"`
	VarsEffective           map[string]interface{} `json:"vars_effective"`
	EngineVersion           string                 `json:"engine_version,omitempty"`
	Issues                  []string               `json:"issues,omitempty"`
}

// FrontierMap is the per-unit territorial status artifact (spec.md
// SS4.12), produced only when frontier mapping runs.
type FrontierMap struct {
	FrontierID string                `json:"frontier_id,omitempty"`
	Units      []frontier.UnitStatus `json:"units"`
}

func buildResult(
	baseUnits []*model.Unit,
	options []model.Option,
	scoreByUnit map[string]tabulate.UnitScores,
	allocByUnit map[string]allocate.UnitAllocation,
	nationalScores map[tallyid.OptionID]int64,
	national gates.NationalTotals,
	levelTotal aggregate.LevelTotal,
	gateReport gates.Report,
	mmp []allocate.MMPResult,
	formulaID, engineVersion, lbl, reason string,
) Result {
	units := make([]UnitResult, 0, len(baseUnits))
	for _, u := range baseUnits {
		s := scoreByUnit[u.ID.String()]
		a := allocByUnit[u.ID.String()]
		units = append(units, UnitResult{
			UnitID:       u.ID.String(),
			BallotsCast:  s.Turnout.BallotsCast,
			ValidBallots: s.Turnout.ValidBallots,
			Options:      buildOptionTallies(options, s.Scores, a.Seats),
		})
	}
	return Result{
		FormulaID:     formulaID,
		EngineVersion: engineVersion,
		Label:         lbl,
		LabelReason:   reason,
		National: NationalSummary{
			BallotsCast:  national.BallotsCast,
			EligibleRoll: national.EligibleRoll,
			ValidBallots: national.ValidBallots,
			BlankBallots: national.BlankBallots,
			Options:      buildOptionTallies(options, nationalScores, levelTotal.Totals),
			WeightScale:  levelTotal.WeightScale,
		},
		Units: units,
		Gates: gateReport,
		MMP:   mmp,
	}
}

func buildRunRecord(ps *params.Set, opts Options, formulaID, resultDigest, frontierDigest string, resolver *tiebreak.Resolver, tiePolicy string, seed *uint64) RunRecord {
	return RunRecord{
		FormulaID:               formulaID,
		NormativeManifestDigest: formulaID,
		ResultDigest:            resultDigest,
		FrontierDigest:          frontierDigest,
		TiePolicy:               tiePolicy,
		Seed:                    seed,
		TieEvents:               resolver.Events,
		VarsEffective:           ps.EffectiveSnapshot(),
		EngineVersion:           opts.EngineVersion,
	}
}

func buildFrontierMap(statuses []frontier.UnitStatus) FrontierMap {
	return FrontierMap{Units: statuses}
}

func buildInvalidArtifacts(ps *params.Set, opts Options, reason string, issues []vmerr.Issue) (Result, RunRecord) {
	nm := manifest.Build(ps)
	formulaID, _, _ := manifest.FormulaID(nm)

	result := Result{
		FormulaID:     formulaID,
		EngineVersion: opts.EngineVersion,
		Label:         label.Invalid,
		LabelReason:   reason,
	}
	digest, _, _ := canon.HashOf(result)
	result.ResultID = "RES:" + digest

	issueStrings := make([]string, 0, len(issues))
	for _, i := range issues {
		issueStrings = append(issueStrings, i.Error())
	}

	runRecord := RunRecord{
		FormulaID:               formulaID,
		NormativeManifestDigest: formulaID,
		ResultDigest:            digest,
		TiePolicy:               ps.String("VM-VAR-050"),
		VarsEffective:           ps.EffectiveSnapshot(),
		EngineVersion:           opts.EngineVersion,
		Issues:                  issueStrings,
	}
	return result, runRecord
}

// selfVerify is S9: recompute the Formula ID from the same manifest and
// rehash a copy of Result with its own ResultID cleared, and confirm
// both match what was already produced (spec.md SS4.15 "S9 fail -> exit
// 3 on hash or FID mismatch").
func selfVerify(result Result, resultDigest, formulaID string, nm manifest.Manifest) error {
	recomputedFID, _, err := manifest.FormulaID(nm)
	if err != nil {
		return fmt.Errorf("self-verify: recompute formula id: %w", err)
	}
	if recomputedFID != formulaID {
		return fmt.Errorf("self-verify: formula id mismatch: got %s, want %s", recomputedFID, formulaID)
	}

	check := result
	check.ResultID = ""
	digest, _, err := canon.HashOf(check)
	if err != nil {
		return fmt.Errorf("self-verify: rehash result: %w", err)
	}
	if digest != resultDigest {
		return fmt.Errorf("self-verify: result digest mismatch: got %s, want %s", digest, resultDigest)
	}
	return nil
}
