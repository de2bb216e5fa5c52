package main

import (
	"fmt"
	"os"

	"github.com/luxfi/vmtally/codec"
	"github.com/luxfi/vmtally/internal/canon"
	"github.com/luxfi/vmtally/internal/model"
	"github.com/luxfi/vmtally/internal/params"
	"github.com/luxfi/vmtally/utils/wrappers"
)

// pipelineExitIOError mirrors pipeline.ExitIOError (spec.md SS6): bad
// input files or a pipeline construction failure never reach S1, so the
// CLI reports them with the same exit code the state machine reserves
// for I/O/parse errors.
const pipelineExitIOError = 4

// inputs bundles the three artifacts every run needs, loaded and decoded
// in one pass so a bad file anywhere gets reported before any tabulation
// starts.
type inputs struct {
	Registry *model.Registry
	Tally    *model.BallotTally
	Params   *params.Set
}

// loadInputs reads and JSON-decodes the registry/tally/parameter-set
// files, collecting every I/O and decode error with wrappers.Errs rather
// than stopping at the first bad file - the caller gets one combined
// report instead of fixing files one at a time.
func loadInputs(registryPath, tallyPath, paramsPath string) (*inputs, error) {
	var errs wrappers.Errs

	registry := &model.Registry{}
	errs.Add(decodeFile(registryPath, registry))

	tally := &model.BallotTally{}
	errs.Add(decodeFile(tallyPath, tally))

	ps := &params.Set{}
	errs.Add(decodeFile(paramsPath, ps))

	if errs.Errored() {
		return nil, errs.Err()
	}
	return &inputs{Registry: registry, Tally: tally, Params: ps}, nil
}

func decodeFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if _, err := codec.Codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeArtifact writes v in the same single-line canonical JSON form
// (canon.Marshal) that its ResultID/FrontierID hash was computed over.
func writeArtifact(path string, v interface{}) error {
	data, err := canon.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
