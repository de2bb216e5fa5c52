// Package pipeline implements C15: the driver that wires every other
// package into the fixed S0-S9 state machine (spec.md SS4.15):
//
//	S1 VALIDATE -> S2 MANIFEST&FID -> S3 PER-UNIT LOOP{TABULATE, ALLOCATE,
//	TIES} -> S4 AGGREGATE&GATES -> S5 FRONTIER -> S6 LABEL -> S7 BUILD
//	RESULT -> S8 BUILD RUN RECORD -> S9 SELF-VERIFY
//
// Run() takes already-parsed inputs (S0's file decode is cmd/vmtally's
// job) and returns an Outcome carrying the exit code spec.md SS6 defines.
package pipeline

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/luxfi/log"

	"github.com/luxfi/vmtally/internal/allocate"
	"github.com/luxfi/vmtally/internal/canon"
	"github.com/luxfi/vmtally/internal/frontier"
	"github.com/luxfi/vmtally/internal/gates"
	"github.com/luxfi/vmtally/internal/label"
	"github.com/luxfi/vmtally/internal/load"
	"github.com/luxfi/vmtally/internal/logging"
	"github.com/luxfi/vmtally/internal/manifest"
	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/obsmetrics"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/internal/rng"
	"github.com/luxfi/vmtally/internal/tabulate"
	"github.com/luxfi/vmtally/internal/tiebreak"
	"github.com/luxfi/vmtally/internal/vmerr"
)

// ExitCode mirrors spec.md SS6's process exit codes.
type ExitCode int

const (
	ExitSuccess            ExitCode = 0
	ExitValidationFailure  ExitCode = 2
	ExitSelfVerifyMismatch ExitCode = 3
	ExitIOError            ExitCode = 4
	ExitSpecViolation      ExitCode = 5
)

// Options configures one Run: everything that is not itself an input
// artifact (registry, tally, parameter set).
type Options struct {
	EngineVersion string
	// SeedOverride, when set, replaces VM-VAR-052 at runtime (the --seed
	// CLI flag). It never changes the Formula ID.
	SeedOverride *uint64
	// Bands is the sliding_scale/autonomy_ladder band table; required
	// when VM-VAR-040 is one of those two modes.
	Bands []frontier.Band
	// MaxWorkers bounds the per-unit tabulation worker pool. Defaults to
	// runtime.GOMAXPROCS(0) when <= 0.
	MaxWorkers int
	Logger     log.Logger
	Metrics    *obsmetrics.RunMetrics
}

// Outcome is everything one Run produced: the artifacts plus the exit
// code the caller (cmd/vmtally) should return.
type Outcome struct {
	ExitCode    ExitCode
	Result      Result
	RunRecord   RunRecord
	FrontierMap *FrontierMap
	Issues      []vmerr.Issue
}

// Run executes S1 through S9 against already-loaded inputs.
func Run(registry *model.Registry, tally *model.BallotTally, ps *params.Set, opts Options) (*Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	// S1 VALIDATE
	issues := load.Validate(registry, tally, ps)
	if !issues.Empty() {
		sorted := issues.Sort()
		logger.Warn("validation failed", "issue_count", len(sorted))
		if opts.Metrics != nil {
			opts.Metrics.ValidationFailures.Add(float64(len(sorted)))
		}
		result, runRecord := buildInvalidArtifacts(ps, opts, "validation_failed", sorted)
		return &Outcome{ExitCode: ExitValidationFailure, Result: result, RunRecord: runRecord, Issues: sorted}, nil
	}

	// S2 MANIFEST & FID
	nm := manifest.Build(ps)
	formulaID, _, err := manifest.FormulaID(nm)
	if err != nil {
		return nil, fmt.Errorf("pipeline: formula id: %w", err)
	}

	seed := uint64(ps.Int("VM-VAR-052"))
	if opts.SeedOverride != nil {
		seed = *opts.SeedOverride
	}

	tiePolicy := ps.String("VM-VAR-050")
	var stream *rng.Stream
	if tiePolicy == "random" {
		stream, err = rng.NewStream(seed)
		if err != nil {
			return nil, fmt.Errorf("pipeline: rng stream: %w", err)
		}
	}
	resolver := tiebreak.NewResolver(ps, stream)

	// S3 PER-UNIT LOOP. Tabulation is pure integer math with no RNG and
	// runs across a bounded worker pool; allocation shares one Resolver
	// and must therefore run strictly serially, unit by unit in UnitID
	// order, so a random tie policy draws its RNG words reproducibly
	// (spec.md SS5).
	baseUnits := baseUnitsOf(registry, tally)
	options := registry.OptionsByOrderIndex()

	scoreByUnit, err := tabulateAll(baseUnits, tally, options, ps, maxWorkers(opts.MaxWorkers))
	if err != nil {
		return nil, fmt.Errorf("pipeline: tabulate: %w", err)
	}

	allocByUnit := make(map[string]allocate.UnitAllocation, len(baseUnits))
	for _, u := range baseUnits {
		scores := scoreByUnit[u.ID.String()]
		alloc, err := allocate.Allocate(u, scores, options, ps, resolver)
		if err != nil {
			return nil, fmt.Errorf("pipeline: allocate unit %s: %w", u.ID, err)
		}
		allocByUnit[u.ID.String()] = alloc
		if opts.Metrics != nil {
			opts.Metrics.UnitsTabulated.Inc()
		}
	}
	// The effective seed is echoed into the RunRecord only when a random
	// tie actually fired.
	var seedEchoed *uint64
	for _, evt := range resolver.Events {
		if evt.Policy == "random" {
			seedEchoed = &seed
			break
		}
	}
	for _, evt := range resolver.Events {
		if opts.Metrics == nil {
			break
		}
		if evt.Policy == "random" {
			opts.Metrics.TiesRandom.Inc()
		} else {
			opts.Metrics.TiesDeterministic.Inc()
		}
	}

	mmpResult := applyMMPIfConfigured(baseUnits, scoreByUnit, allocByUnit, options, ps)

	// national raw totals, independent of aggregate.Roll's seat-weighted
	// level totals - gates evaluate against vote shares, never seats.
	national, nationalScores, err := nationalTotals(baseUnits, scoreByUnit, options, ps)
	if err != nil {
		return nil, fmt.Errorf("pipeline: national totals: %w", err)
	}

	// S4 AGGREGATE & GATES. Aggregation is a single flat rollup of base
	// units to the country level (spec.md SS4.10 "v1"); there is no
	// recursive multi-level hierarchy traversal.
	levelTotal := rollToCountry(registry, baseUnits, allocByUnit, scoreByUnit, ps)

	unitTurnouts := make([]gates.UnitTurnout, 0, len(baseUnits))
	for _, u := range baseUnits {
		t := scoreByUnit[u.ID.String()].Turnout
		unitTurnouts = append(unitTurnouts, gates.UnitTurnout{UnitID: u.ID, BallotsCast: t.BallotsCast, EligibleRoll: u.EligibleRoll})
	}
	unitQuorumOK := gates.EvalUnitQuorum(unitTurnouts, ps)

	// Frontier's per-unit status is computed here, ahead of the gates
	// themselves, because affected_family_mode=by_proposed_change needs
	// the set of units whose frontier verdict wants a change as an input
	// to the double-majority gate (spec.md SS4.9/SS4.12). This is the
	// preliminary computation
	// only: whether it is ever published as the FrontierMap artifact, or
	// folds into the label's mediation/enclave/override flags, still
	// depends on every gate actually passing, below.
	var preliminaryFrontier []frontier.UnitStatus
	if ps.String("VM-VAR-040") != "none" {
		ballotType := ps.String("VM-VAR-001")
		includeBlank := ps.Bool("VM-VAR-028")
		support := make(map[string]frontier.UnitSupport, len(baseUnits))
		for _, u := range baseUnits {
			s := scoreByUnit[u.ID.String()]
			num, den := supportForChange(s.Scores, options, s.Turnout, ballotType, includeBlank)
			support[u.ID.String()] = frontier.UnitSupport{UnitID: u.ID, Num: num, Den: den}
		}
		preliminaryFrontier = frontier.Map(registry, support, opts.Bands, unitQuorumOK, ps)
	}

	family, err := familySupport(ps, baseUnits, scoreByUnit, options, preliminaryFrontier, unitQuorumOK)
	if err != nil {
		return nil, fmt.Errorf("pipeline: family support: %w", err)
	}
	gateReport := gates.Evaluate(national, unitTurnouts, family, ps)
	gatesFailed := !gateReport.Quorum.Passed || !gateReport.Majority.Passed ||
		(gateReport.DoubleMajority != nil && !gateReport.DoubleMajority.Passed)

	// S5 FRONTIER PUBLICATION - only when every gate has passed; a
	// frontier outcome can demote a label to Marginal but never itself
	// invalidates a run (spec.md SS4.12/SS4.13).
	var frontierStatuses []frontier.UnitStatus
	if !gatesFailed {
		frontierStatuses = preliminaryFrontier
	}

	// S6 LABEL
	marginPP := marginPercentagePoints(national.SupportForChange, nationalDenominator(national, ps), ps.Pct("VM-VAR-022"))
	anyMediation, anyEnclave, anyOverride := frontierFlags(frontierStatuses)
	lbl, reason := label.Derive(label.Inputs{
		GatesFailed:          gatesFailed,
		NationalMarginPP:     marginPP,
		MarginalBandPP:       ps.Int("VM-VAR-031") * 10,
		AnyMediation:         anyMediation,
		AnyEnclave:           anyEnclave,
		AnyProtectedOverride: anyOverride,
	})

	// S7 BUILD RESULT
	result := buildResult(baseUnits, options, scoreByUnit, allocByUnit, nationalScores, national, levelTotal, gateReport, mmpResult, formulaID, opts.EngineVersion, lbl, reason)
	resultDigest, _, err := canon.HashOf(result)
	if err != nil {
		return nil, fmt.Errorf("pipeline: hash result: %w", err)
	}
	result.ResultID = "RES:" + resultDigest

	var frontierMap *FrontierMap
	var frontierDigest string
	if frontierStatuses != nil {
		fm := buildFrontierMap(frontierStatuses)
		frontierDigest, _, err = canon.HashOf(fm)
		if err != nil {
			return nil, fmt.Errorf("pipeline: hash frontier map: %w", err)
		}
		fm.FrontierID = "FR:" + frontierDigest
		frontierMap = &fm
	}

	// S8 BUILD RUN RECORD
	runRecord := buildRunRecord(ps, opts, formulaID, resultDigest, frontierDigest, resolver, tiePolicy, seedEchoed)

	// S9 SELF-VERIFY
	if err := selfVerify(result, resultDigest, formulaID, nm); err != nil {
		logger.Error("self-verify failed", "err", err.Error())
		return &Outcome{ExitCode: ExitSelfVerifyMismatch, Result: result, RunRecord: runRecord, FrontierMap: frontierMap}, nil
	}

	logger.Info("run complete", "label", lbl, "formula_id", formulaID)
	return &Outcome{ExitCode: ExitSuccess, Result: result, RunRecord: runRecord, FrontierMap: frontierMap}, nil
}

func maxWorkers(requested int) int {
	if requested > 0 {
		return requested
	}
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}

// baseUnitsOf returns every Unit with a tally entry, sorted by unit_id -
// the ballot-bearing leaves a real registry's tree has under it.
func baseUnitsOf(registry *model.Registry, tally *model.BallotTally) []*model.Unit {
	var units []*model.Unit
	for _, u := range registry.UnitsSorted() {
		if _, ok := tally.Units[u.ID.String()]; ok {
			units = append(units, u)
		}
	}
	return units
}

// tabulateAll runs Tabulate for every base unit over a bounded worker
// pool; tabulation is pure integer math with no RNG, so unlike
// allocation it is safe to parallelize (spec.md SS5).
func tabulateAll(units []*model.Unit, tally *model.BallotTally, options []model.Option, ps *params.Set, workers int) (map[string]tabulate.UnitScores, error) {
	out := make(map[string]tabulate.UnitScores, len(units))
	var mu sync.Mutex
	var firstErr error
	var errOnce sync.Once

	jobs := make(chan *model.Unit)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				score, err := tabulate.Tabulate(u, tally.Units[u.ID.String()], options, ps)
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					continue
				}
				mu.Lock()
				out[u.ID.String()] = score
				mu.Unlock()
			}
		}()
	}
	for _, u := range units {
		jobs <- u
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
