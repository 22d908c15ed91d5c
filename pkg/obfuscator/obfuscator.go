// Package obfuscator de-identifies Java source for dataset generation.
//
// Obfuscate runs two passes over one compilation unit. The first renames
// every method declaration to func_N in declaration order. The second
// renames, per method, each parameter and local variable to var_N and
// rewrites every reference to them. Literals, comments, keywords, types,
// fields and class names are left untouched.
package obfuscator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/l3aro/java-dataset-converter/pkg/patch"
	"github.com/l3aro/java-dataset-converter/pkg/syntax"
)

var (
	// ErrParseFailure marks a buffer the backend could not parse cleanly.
	ErrParseFailure = errors.New("source could not be parsed")
	// ErrNoTargets marks a buffer with nothing to rename.
	ErrNoTargets = errors.New("no identifiers to rename")
)

// Status tells whether a pass changed the buffer.
type Status int

const (
	Unchanged Status = iota
	Renamed
)

func (s Status) String() string {
	if s == Renamed {
		return "renamed"
	}
	return "unchanged"
}

// Result is the outcome of a pass. Source is always usable: on Unchanged it
// is the input buffer and Reason says why nothing was rewritten.
type Result struct {
	Source  []byte
	Status  Status
	Reason  error
	Methods int
	Locals  int
	Edits   patch.Stats
}

func unchanged(src []byte, reason error) Result {
	return Result{Source: src, Status: Unchanged, Reason: reason}
}

// Options controls synthetic naming and error tolerance.
type Options struct {
	FuncPrefix      string
	VarPrefix       string
	AvoidCollisions bool
	AllowPartial    bool
}

// DefaultOptions returns func_/var_ naming with collision avoidance.
func DefaultOptions() Options {
	return Options{
		FuncPrefix:      "func_",
		VarPrefix:       "var_",
		AvoidCollisions: true,
	}
}

// Obfuscator renames methods and locals using a syntax backend. It holds no
// per-file state and is safe for concurrent use.
type Obfuscator struct {
	backend syntax.Backend
	opts    Options
}

// New creates an Obfuscator. Empty prefixes fall back to the defaults.
func New(backend syntax.Backend, opts Options) *Obfuscator {
	defaults := DefaultOptions()
	if opts.FuncPrefix == "" {
		opts.FuncPrefix = defaults.FuncPrefix
	}
	if opts.VarPrefix == "" {
		opts.VarPrefix = defaults.VarPrefix
	}
	return &Obfuscator{backend: backend, opts: opts}
}

// Backend returns the syntax backend in use.
func (o *Obfuscator) Backend() syntax.Backend {
	return o.backend
}

// Obfuscate renames methods, then parameters and locals of the renamed text.
// When ctx is done before both passes finish, the input is returned
// Unchanged with the context error as Reason; no partial rewrite escapes.
func (o *Obfuscator) Obfuscate(ctx context.Context, src []byte) Result {
	methods := o.RenameMethods(ctx, src)
	if errors.Is(methods.Reason, ErrParseFailure) || isContextErr(methods.Reason) {
		return unchanged(src, methods.Reason)
	}

	locals := o.RenameLocals(ctx, methods.Source)
	if isContextErr(locals.Reason) {
		return unchanged(src, locals.Reason)
	}
	if errors.Is(locals.Reason, ErrParseFailure) {
		// The method pass already produced a valid rewrite; keep it.
		locals = unchanged(methods.Source, locals.Reason)
	}

	result := Result{
		Source:  locals.Source,
		Status:  Unchanged,
		Methods: methods.Methods,
		Locals:  locals.Locals,
		Edits: patch.Stats{
			Applied:  methods.Edits.Applied + locals.Edits.Applied,
			Invalid:  methods.Edits.Invalid + locals.Edits.Invalid,
			Conflict: methods.Edits.Conflict + locals.Edits.Conflict,
			Repaired: methods.Edits.Repaired || locals.Edits.Repaired,
		},
	}
	if methods.Status == Renamed || locals.Status == Renamed {
		result.Status = Renamed
	} else {
		result.Reason = ErrNoTargets
	}
	return result
}

// ObfuscateFile reads a Java file, obfuscates it and writes the result to
// out, creating parent directories. Filesystem and context errors are
// returned, and out is not written when ctx was done; an unparseable file is
// written through unchanged.
func (o *Obfuscator) ObfuscateFile(ctx context.Context, in, out string) (Result, error) {
	src, err := os.ReadFile(in)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", in, err)
	}

	result := o.Obfuscate(ctx, src)
	if isContextErr(result.Reason) {
		return result, result.Reason
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return result, fmt.Errorf("creating directory for %s: %w", out, err)
	}
	if err := os.WriteFile(out, result.Source, 0644); err != nil {
		return result, fmt.Errorf("writing %s: %w", out, err)
	}
	return result, nil
}

// parse returns a tree or the reason the buffer must be passed through.
// Context errors are returned as-is: a cancelled parse says nothing about
// the source.
func (o *Obfuscator) parse(ctx context.Context, src []byte) (syntax.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tree, err := o.backend.Parse(ctx, src)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	if tree.HasError() && !o.opts.AllowPartial {
		tree.Close()
		return nil, fmt.Errorf("%w: %s reported syntax errors", ErrParseFailure, o.backend.Name())
	}
	return tree, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (o *Obfuscator) taken(src []byte) map[string]struct{} {
	if !o.opts.AvoidCollisions {
		return nil
	}
	return syntax.Words(src)
}
