package indexer

import (
	"github.com/hub-search/indexcore/internal/batch"
	"github.com/hub-search/indexcore/internal/errs"
)

// Mode tokens, spec §4.1.
const (
	ModeIndex  = batch.ModeIndex
	ModeResume = batch.ModeResume
	ModeMerge  = batch.ModeMerge
	ModePurge  = batch.ModePurge
)

// Step names, spec §4.1/§3.
const (
	StepPre   = "pre"
	StepIndex = "index"
	StepPost  = "post"
)

const (
	minBatchSize = 50
	maxBatchSize = 10000
)

var validModes = map[string]bool{
	ModeIndex: true, ModeResume: true, ModeMerge: true, ModePurge: true,
}

var validSteps = map[string]bool{
	StepPre: true, StepIndex: true, StepPost: true,
}

// Params bundles Index's input per spec §4.1's public contract.
type Params struct {
	Steps     []string
	BatchSize int
	Mode      string
	IDs       []string
}

// Validate enforces spec §4.1's input constraints: `50 ≤ batch_size ≤
// 10000`; steps is a non-empty ordered subsequence of the three canonical
// phases with no repeats; mode is one of the four tokens. Violations raise
// BadInput synchronously, before any state change (scenario S1).
func (p Params) Validate() error {
	if p.BatchSize < minBatchSize || p.BatchSize > maxBatchSize {
		return &errs.BadInput{Msg: "batch_size must be between 50 and 10000"}
	}
	if !validModes[p.Mode] {
		return &errs.BadInput{Msg: "mode must be one of index, resume, merge, purge"}
	}
	if len(p.Steps) == 0 {
		return &errs.BadInput{Msg: "steps must be non-empty"}
	}
	seen := make(map[string]bool, len(p.Steps))
	for _, step := range p.Steps {
		if !validSteps[step] {
			return &errs.BadInput{Msg: "unknown step " + step}
		}
		if seen[step] {
			return &errs.BadInput{Msg: "duplicate step " + step}
		}
		seen[step] = true
	}
	return nil
}
