// Package pipeline converts a directory of Java sources into obfuscated
// copies and prompt/response JSONL records.
//
// Each file runs two stages. The obfuscate stage is skipped when its output
// already exists; the pair stage is skipped when its .jsonl holds a record. Either
// stage can fail without stopping the batch: failures go to an append-only
// error log and the run moves on, so an interrupted run can be resumed by
// running it again.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"time"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/l3aro/java-dataset-converter/internal/log"
	"github.com/l3aro/java-dataset-converter/internal/scanner"
	"github.com/l3aro/java-dataset-converter/pkg/dataset"
	"github.com/l3aro/java-dataset-converter/pkg/manifest"
	"github.com/l3aro/java-dataset-converter/pkg/obfuscator"
)

// ErrSameDirectory is returned when the output would overwrite the input.
var ErrSameDirectory = errors.New("output directory must differ from input directory")

// Options configures a run.
type Options struct {
	Input    string
	Output   string
	JSONLDir string // defaults to Output
	Workers  int    // defaults to runtime.NumCPU()
	JSONL    bool
	Manifest bool
	ErrorLog string // defaults to Output/errors.log
	Force    bool   // redo stages whose outputs exist
	Scan     scanner.Options

	// Progress receives the progress line; nil disables it.
	Progress io.Writer
}

// Pipeline runs conversions with one Obfuscator shared by all workers.
type Pipeline struct {
	obf  *obfuscator.Obfuscator
	opts Options
}

// New creates a Pipeline.
func New(obf *obfuscator.Obfuscator, opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Pipeline{obf: obf, opts: opts}
}

type dirs struct {
	input, output, jsonl string
}

func (p *Pipeline) resolveDirs() (dirs, error) {
	var d dirs
	var err error
	if d.input, err = filepath.Abs(p.opts.Input); err != nil {
		return d, fmt.Errorf("resolving input directory: %w", err)
	}
	if d.output, err = filepath.Abs(p.opts.Output); err != nil {
		return d, fmt.Errorf("resolving output directory: %w", err)
	}
	jsonl := p.opts.JSONLDir
	if jsonl == "" {
		jsonl = p.opts.Output
	}
	if d.jsonl, err = filepath.Abs(jsonl); err != nil {
		return d, fmt.Errorf("resolving jsonl directory: %w", err)
	}
	if d.input == d.output || (p.opts.JSONL && d.input == d.jsonl) {
		return d, ErrSameDirectory
	}
	return d, nil
}

// Run scans the input directory and converts every matching file. The
// returned error covers setup problems and cancellation only; per-file
// failures are reported in the Result.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	logger := log.FromContext(ctx)

	d, err := p.resolveDirs()
	if err != nil {
		return nil, err
	}

	scanOpts := p.opts.Scan
	scanOpts.Exclude = append(append([]string(nil), scanOpts.Exclude...), d.output, d.jsonl)
	files, err := scanner.New(scanOpts).Scan(ctx, d.input)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(d.output, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if p.opts.JSONL {
		if err := os.MkdirAll(d.jsonl, 0755); err != nil {
			return nil, fmt.Errorf("creating jsonl directory: %w", err)
		}
	}

	errPath := p.opts.ErrorLog
	if errPath == "" {
		errPath = filepath.Join(d.output, DefaultErrorLog)
	}
	errLog, err := OpenErrorLog(errPath)
	if err != nil {
		return nil, err
	}
	defer errLog.Close()

	var m *manifest.Manifest
	manifestPath := filepath.Join(d.output, manifest.DefaultFile)
	if p.opts.Manifest {
		m, err = manifest.LoadFile(manifestPath)
		if err != nil {
			logger.Warn("ignoring unreadable manifest", log.FieldPath, manifestPath, log.FieldError, err)
			m = manifest.New("")
		}
		m.SetBackend(p.obf.Backend().Name())
	}

	logger.Info("converting",
		log.FieldInput, d.input,
		log.FieldOutput, d.output,
		log.FieldFiles, len(files),
		log.FieldBackend, p.obf.Backend().Name(),
		log.FieldWorkers, p.opts.Workers,
	)

	progress := log.NewProgressTo(io.Discard, len(files), "converting", false)
	if p.opts.Progress != nil {
		progress = log.NewProgress(p.opts.Progress, len(files), "converting")
	}

	outcomes := make([]FileOutcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = p.process(gctx, f, d, errLog, m)
			progress.Increment(f.Path)
			return nil
		})
	}
	waitErr := g.Wait()
	if waitErr == nil {
		waitErr = ctx.Err()
	}
	progress.Finish()
	if n := errLog.Count(); n > 0 {
		logger.Warn("failures recorded", log.FieldPath, errPath, log.FieldFailures, n)
	}

	result := &Result{
		Files:    make([]FileOutcome, 0, len(files)),
		ErrorLog: errPath,
	}
	for _, o := range outcomes {
		if o.Path != "" {
			result.accumulate(o)
		}
	}

	if m != nil {
		if err := m.SaveFile(manifestPath); err != nil {
			logger.Warn("could not save manifest", log.FieldPath, manifestPath, log.FieldError, err)
			result.Errors = append(result.Errors, err)
		}
	}
	result.Stats.Duration = time.Since(start)

	if waitErr != nil {
		return result, fmt.Errorf("run cancelled: %w", waitErr)
	}
	return result, nil
}

// process runs both stages for one file.
func (p *Pipeline) process(ctx context.Context, f scanner.FileInfo, d dirs, errLog *ErrorLog, m *manifest.Manifest) FileOutcome {
	logger := log.FromContext(ctx).With(log.FieldFile, f.Path)
	outcome := FileOutcome{Path: f.Path}

	out := filepath.Join(d.output, filepath.FromSlash(f.Path))
	switch {
	case !p.opts.Force && exists(out):
		logger.Debug("output exists, skipping", log.FieldStage, StageObfuscate)
		outcome.Obfuscate = manifest.OutcomeSkipped
	default:
		res, err := p.obf.ObfuscateFile(ctx, f.FullPath, out)
		if err != nil && ctx.Err() != nil {
			// Interrupted files are left for the next run.
			logger.Debug("cancelled", log.FieldStage, StageObfuscate)
			return FileOutcome{}
		}
		if err != nil {
			outcome.Obfuscate = manifest.OutcomeFailed
			p.fail(logger, errLog, &outcome, StageObfuscate, err)
			break
		}
		outcome.Methods = res.Methods
		outcome.Locals = res.Locals
		outcome.Reason = res.Reason
		outcome.Obfuscate = manifest.OutcomeUnchanged
		if res.Status == obfuscator.Renamed {
			outcome.Obfuscate = manifest.OutcomeRenamed
		}
		switch {
		case errors.Is(res.Reason, obfuscator.ErrParseFailure):
			logger.Warn("copied unchanged", log.FieldReason, res.Reason)
		default:
			logger.Debug("obfuscated", log.FieldMethods, res.Methods, log.FieldLocals, res.Locals)
		}
	}

	if p.opts.JSONL {
		jsonl := filepath.Join(d.jsonl, filepath.FromSlash(path.Dir(f.Path)), dataset.JSONLName(f.Path))
		switch {
		case !p.opts.Force && hasRecord(jsonl):
			logger.Debug("record exists, skipping", log.FieldStage, StagePair)
			outcome.Pair = manifest.OutcomeSkipped
		default:
			if err := dataset.Pair(f.FullPath, out, jsonl); err != nil {
				outcome.Pair = manifest.OutcomeFailed
				p.fail(logger, errLog, &outcome, StagePair, err)
			} else {
				outcome.Pair = manifest.OutcomeWritten
			}
		}
	}

	if m != nil {
		prior, _ := m.Get(f.Path)
		m.Put(entryFor(outcome, prior, f.FullPath))
	}
	return outcome
}

func (p *Pipeline) fail(logger *charmlog.Logger, errLog *ErrorLog, outcome *FileOutcome, stage Stage, err error) {
	outcome.Errors = append(outcome.Errors, fmt.Errorf("%s: %w", stage, err))
	logger.Error("stage failed", log.FieldStage, stage, log.FieldError, err)
	if werr := errLog.Record(stage, outcome.Path, err); werr != nil {
		logger.Error("could not record failure", log.FieldError, werr)
	}
}

// entryFor builds the manifest entry for o. A skipped stage keeps the
// outcome recorded by the run that produced its output.
func entryFor(o FileOutcome, prior manifest.Entry, source string) manifest.Entry {
	e := manifest.Entry{
		Path:      o.Path,
		Obfuscate: o.Obfuscate,
		Pair:      o.Pair,
		Methods:   o.Methods,
		Locals:    o.Locals,
	}
	if o.Obfuscate == manifest.OutcomeSkipped && (prior.Obfuscate == manifest.OutcomeRenamed || prior.Obfuscate == manifest.OutcomeUnchanged) {
		e.Obfuscate = prior.Obfuscate
		e.Methods = prior.Methods
		e.Locals = prior.Locals
		e.Reason = prior.Reason
	}
	if o.Pair == manifest.OutcomeSkipped && prior.Pair == manifest.OutcomeWritten {
		e.Pair = prior.Pair
	}
	if data, err := os.ReadFile(source); err == nil {
		e.Digest = manifest.Digest(data)
	}
	switch {
	case len(o.Errors) > 0:
		e.Reason = errors.Join(o.Errors...).Error()
	case o.Reason != nil:
		e.Reason = o.Reason.Error()
	}
	return e
}

// hasRecord reports whether path holds at least one readable record. A
// truncated or empty file is rebuilt.
func hasRecord(path string) bool {
	records, err := dataset.ReadFile(path)
	return err == nil && len(records) > 0
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
