package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/java-dataset-converter/internal/log"
	"github.com/l3aro/java-dataset-converter/internal/scanner"
	"github.com/l3aro/java-dataset-converter/pkg/dataset"
	"github.com/l3aro/java-dataset-converter/pkg/manifest"
	"github.com/l3aro/java-dataset-converter/pkg/obfuscator"
	"github.com/l3aro/java-dataset-converter/pkg/syntax"
)

const (
	testSource   = "public class Test { public void myFunction(int param1) { int x = 0; x = x + param1; } }"
	testExpected = "public class Test { public void func_1(int var_1) { int var_2 = 0; var_2 = var_2 + var_1; } }"
	brokenSource = "public class Broken { void f( { }"
)

func quietContext() context.Context {
	return log.WithLogger(context.Background(), log.New(log.Options{Writer: io.Discard}))
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func newPipeline(opts Options) *Pipeline {
	obf := obfuscator.New(syntax.NewTreeSitter(), obfuscator.DefaultOptions())
	if opts.Scan.Extension == "" {
		opts.Scan = scanner.DefaultOptions()
	}
	return New(obf, opts)
}

func TestRunConvertsDirectory(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{
		"Test.java":       testSource,
		"Broken.java":     brokenSource,
		"notes.txt":       "not java",
		"sub/Nested.java": "class Nested { void skip() {} }",
	})

	result, err := newPipeline(Options{
		Input:    in,
		Output:   out,
		Workers:  2,
		JSONL:    true,
		Manifest: true,
	}).Run(quietContext())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.Files)
	assert.Equal(t, 1, result.Stats.Renamed)
	assert.Equal(t, 1, result.Stats.Unchanged)
	assert.Equal(t, 2, result.Stats.Paired)
	assert.Equal(t, 1, result.Stats.Methods)
	assert.Equal(t, 2, result.Stats.Locals)
	assert.False(t, result.HasFailures())

	require.Len(t, result.Files, 2)
	assert.Equal(t, "Broken.java", result.Files[0].Path)
	assert.ErrorIs(t, result.Files[0].Reason, obfuscator.ErrParseFailure)
	assert.Equal(t, "Test.java", result.Files[1].Path)

	assert.Equal(t, testExpected, readFile(t, filepath.Join(out, "Test.java")))
	assert.Equal(t, brokenSource, readFile(t, filepath.Join(out, "Broken.java")))
	assert.NoFileExists(t, filepath.Join(out, "sub", "Nested.java"))

	records, err := dataset.ReadFile(filepath.Join(out, "Test.java.jsonl"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, testExpected, records[0].Prompt)
	assert.Equal(t, testSource, records[0].Response)

	m, err := manifest.LoadFile(filepath.Join(out, manifest.DefaultFile))
	require.NoError(t, err)
	assert.Equal(t, "treesitter", m.Backend())
	entry, ok := m.Get("Test.java")
	require.True(t, ok)
	assert.Equal(t, manifest.OutcomeRenamed, entry.Obfuscate)
	assert.Equal(t, manifest.OutcomeWritten, entry.Pair)
	assert.Equal(t, manifest.Digest([]byte(testSource)), entry.Digest)
	broken, ok := m.Get("Broken.java")
	require.True(t, ok)
	assert.Equal(t, manifest.OutcomeUnchanged, broken.Obfuscate)
	assert.Contains(t, broken.Reason, "could not be parsed")
}

func TestRunResumesPerStage(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{
		"A.java": "class A { void a(int p) { int q = p; } }",
		"B.java": "class B { void b() {} }",
	})
	opts := Options{Input: in, Output: out, Workers: 1, JSONL: true, Manifest: true}
	ctx := quietContext()

	_, err := newPipeline(opts).Run(ctx)
	require.NoError(t, err)

	// A hand-edited output survives a rerun, and only the missing record is rebuilt.
	require.NoError(t, os.WriteFile(filepath.Join(out, "A.java"), []byte("edited"), 0644))
	require.NoError(t, os.Remove(filepath.Join(out, "B.java.jsonl")))

	result, err := newPipeline(opts).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Skipped)
	assert.Equal(t, 0, result.Stats.Renamed)
	assert.Equal(t, 1, result.Stats.PairSkipped)
	assert.Equal(t, 1, result.Stats.Paired)
	assert.Equal(t, "edited", readFile(t, filepath.Join(out, "A.java")))

	records, err := dataset.ReadFile(filepath.Join(out, "B.java.jsonl"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "class B { void func_1() {} }", records[0].Prompt)

	// The manifest keeps what the first run did for skipped stages.
	m, err := manifest.LoadFile(filepath.Join(out, manifest.DefaultFile))
	require.NoError(t, err)
	entry, _ := m.Get("A.java")
	assert.Equal(t, manifest.OutcomeRenamed, entry.Obfuscate)
	assert.Equal(t, 2, entry.Locals)
	assert.Equal(t, manifest.OutcomeWritten, entry.Pair)

	// A truncated record is rebuilt rather than skipped.
	require.NoError(t, os.WriteFile(filepath.Join(out, "B.java.jsonl"), []byte(`{"prompt":"cla`), 0644))
	result, err = newPipeline(opts).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.PairSkipped)
	assert.Equal(t, 1, result.Stats.Paired)
	records, err = dataset.ReadFile(filepath.Join(out, "B.java.jsonl"))
	require.NoError(t, err)
	require.Len(t, records, 1)

	opts.Force = true
	result, err = newPipeline(opts).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Renamed)
	assert.Equal(t, 2, result.Stats.Paired)
	assert.Equal(t, "class A { void func_1(int var_1) { int var_2 = var_1; } }", readFile(t, filepath.Join(out, "A.java")))
}

func TestRunRecordsFailures(t *testing.T) {
	in, out, jsonlDir := t.TempDir(), t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{
		"Good.java":     "class Good { void g() {} }",
		"sub/Bad.java":  "class Bad { void b() {} }",
		"sub/Also.java": "class Also { void a() {} }",
	})
	// A file where the sub directory should be makes both stages fail.
	require.NoError(t, os.WriteFile(filepath.Join(out, "sub"), []byte("blocker"), 0644))

	scan := scanner.DefaultOptions()
	scan.Recursive = true
	result, err := newPipeline(Options{
		Input:    in,
		Output:   out,
		JSONLDir: jsonlDir,
		Workers:  4,
		JSONL:    true,
		Scan:     scan,
	}).Run(quietContext())
	require.NoError(t, err)

	assert.True(t, result.HasFailures())
	assert.Equal(t, 1, result.Stats.Renamed)
	assert.Equal(t, 2, result.Stats.ObfuscateFailed)
	assert.Equal(t, 1, result.Stats.Paired)
	assert.Equal(t, 2, result.Stats.PairFailed)
	assert.FileExists(t, filepath.Join(jsonlDir, "Good.java.jsonl"))
	assert.NoFileExists(t, filepath.Join(out, manifest.DefaultFile))

	for _, f := range result.Files {
		if strings.HasPrefix(f.Path, "sub/") {
			assert.True(t, f.Failed(), f.Path)
			assert.Len(t, f.Errors, 2, f.Path)
		}
	}

	entries, err := ReadErrorLog(result.ErrorLog)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	stages := map[Stage]int{}
	for _, e := range entries {
		stages[e.Stage]++
		assert.True(t, strings.HasPrefix(e.File, "sub/"), e.File)
		assert.NotEmpty(t, e.Error)
		assert.False(t, e.Time.IsZero())
	}
	assert.Equal(t, map[Stage]int{StageObfuscate: 2, StagePair: 2}, stages)
}

func TestRunWithoutJSONL(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{"A.java": "class A { void a() {} }"})

	result, err := newPipeline(Options{Input: in, Output: out}).Run(quietContext())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.Renamed)
	assert.Equal(t, 0, result.Stats.Paired)
	assert.NoFileExists(t, filepath.Join(out, "A.java.jsonl"))
	assert.Equal(t, manifest.OutcomeNone, result.Files[0].Pair)
}

func TestRunOutputInsideInput(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(in, "converted")
	writeFiles(t, in, map[string]string{
		"A.java":           "class A { void a() {} }",
		"converted/B.java": "class B { void b() {} }",
	})
	scan := scanner.DefaultOptions()
	scan.Recursive = true

	result, err := newPipeline(Options{Input: in, Output: out, Scan: scan}).Run(quietContext())
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "A.java", result.Files[0].Path)
}

func TestRunRejectsSameDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := newPipeline(Options{Input: dir, Output: dir}).Run(quietContext())
	assert.ErrorIs(t, err, ErrSameDirectory)

	_, err = newPipeline(Options{Input: dir, Output: t.TempDir(), JSONL: true, JSONLDir: dir}).Run(quietContext())
	assert.ErrorIs(t, err, ErrSameDirectory)
}

func TestRunMissingInput(t *testing.T) {
	_, err := newPipeline(Options{
		Input:  filepath.Join(t.TempDir(), "missing"),
		Output: t.TempDir(),
	}).Run(quietContext())
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{"A.java": "class A {}"})

	ctx, cancel := context.WithCancel(quietContext())
	cancel()
	out := t.TempDir()
	_, err := newPipeline(Options{Input: in, Output: out}).Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoFileExists(t, filepath.Join(out, "A.java"))
}

func TestProcessCancelledLeavesNothingBehind(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{"A.java": testSource})
	p := newPipeline(Options{Input: in, Output: out, JSONL: true, Manifest: true})
	d, err := p.resolveDirs()
	require.NoError(t, err)

	errLog, err := OpenErrorLog(filepath.Join(t.TempDir(), DefaultErrorLog))
	require.NoError(t, err)
	defer errLog.Close()
	m := manifest.New(syntax.BackendTreeSitter)

	ctx, cancel := context.WithCancel(quietContext())
	cancel()
	f := scanner.FileInfo{Path: "A.java", FullPath: filepath.Join(in, "A.java")}
	outcome := p.process(ctx, f, d, errLog, m)

	assert.Empty(t, outcome.Path)
	assert.NoFileExists(t, filepath.Join(out, "A.java"))
	assert.NoFileExists(t, filepath.Join(out, "A.java.jsonl"))
	assert.Equal(t, 0, errLog.Count())
	assert.Equal(t, 0, m.Len())

	// The interrupted file is converted by the next run.
	result, err := p.Run(quietContext())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.Renamed)
	assert.Equal(t, testExpected, readFile(t, filepath.Join(out, "A.java")))
}

func TestErrorLogConcurrentAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "errors.log")
	l, err := OpenErrorLog(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Record(StagePair, "F.java", errors.New("disk full")))
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, l.Count())
	require.NoError(t, l.Close())

	// Reopening appends instead of truncating.
	l, err = OpenErrorLog(path)
	require.NoError(t, err)
	require.NoError(t, l.Record(StageObfuscate, "G.java", errors.New("denied")))
	require.NoError(t, l.Close())

	entries, err := ReadErrorLog(path)
	require.NoError(t, err)
	require.Len(t, entries, 21)
	assert.Equal(t, ErrorEntry{Stage: StageObfuscate, File: "G.java", Error: "denied", Time: entries[20].Time}, entries[20])
}

func TestRenderSummary(t *testing.T) {
	stats := Stats{
		Files:           5,
		Renamed:         3,
		Unchanged:       1,
		ObfuscateFailed: 1,
		Paired:          4,
		PairFailed:      1,
		Methods:         7,
		Locals:          12,
		Duration:        1500 * time.Millisecond,
	}

	out := RenderSummary(stats, "/out/errors.log", NewStyles(false))
	assert.Contains(t, out, "done with failures")
	assert.Contains(t, out, "3 renamed, 1 unchanged, 0 skipped, 1 failed")
	assert.Contains(t, out, "4 written, 0 skipped, 1 failed")
	assert.Contains(t, out, "7 methods, 12 locals")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "/out/errors.log")

	clean := RenderSummary(Stats{Files: 1, Renamed: 1}, "/out/errors.log", NewStyles(false))
	assert.NotContains(t, clean, "failures")
	assert.NotContains(t, clean, "errors.log")
}

func TestColorEnabled(t *testing.T) {
	assert.False(t, ColorEnabled(io.Discard))
	t.Setenv("NO_COLOR", "1")
	assert.False(t, ColorEnabled(os.Stdout))
}
