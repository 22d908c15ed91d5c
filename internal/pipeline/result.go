package pipeline

import (
	"time"

	"github.com/l3aro/java-dataset-converter/pkg/manifest"
)

// Stage names a step of the per-file conversion.
type Stage string

const (
	StageObfuscate Stage = "obfuscate"
	StagePair      Stage = "pair"
)

// FileOutcome is what a run did to one source file.
type FileOutcome struct {
	// Path is relative to the input directory, slash-separated.
	Path string

	Obfuscate manifest.Outcome
	Pair      manifest.Outcome
	Methods   int
	Locals    int

	// Reason explains an unchanged file; it is not a failure.
	Reason error

	// Errors holds the stage failures, at most one per stage.
	Errors []error
}

// Failed reports whether any stage failed.
func (o FileOutcome) Failed() bool {
	return len(o.Errors) > 0
}

// Stats captures aggregate information about a run.
type Stats struct {
	Files int

	Renamed         int
	Unchanged       int
	Skipped         int
	ObfuscateFailed int

	Paired      int
	PairSkipped int
	PairFailed  int

	Methods int
	Locals  int

	Duration time.Duration
}

// Result is the overall run result.
type Result struct {
	// Files is ordered by path.
	Files []FileOutcome
	Stats Stats

	// ErrorLog is the path failures were appended to.
	ErrorLog string
	// Errors holds run-level problems that did not stop the batch.
	Errors []error
}

// HasFailures reports whether any file failed a stage.
func (r *Result) HasFailures() bool {
	if r == nil {
		return false
	}
	return r.Stats.ObfuscateFailed > 0 || r.Stats.PairFailed > 0
}

func (r *Result) accumulate(o FileOutcome) {
	r.Files = append(r.Files, o)
	r.Stats.Files++
	r.Stats.Methods += o.Methods
	r.Stats.Locals += o.Locals

	switch o.Obfuscate {
	case manifest.OutcomeRenamed:
		r.Stats.Renamed++
	case manifest.OutcomeUnchanged:
		r.Stats.Unchanged++
	case manifest.OutcomeSkipped:
		r.Stats.Skipped++
	case manifest.OutcomeFailed:
		r.Stats.ObfuscateFailed++
	}

	switch o.Pair {
	case manifest.OutcomeWritten:
		r.Stats.Paired++
	case manifest.OutcomeSkipped:
		r.Stats.PairSkipped++
	case manifest.OutcomeFailed:
		r.Stats.PairFailed++
	}
}
