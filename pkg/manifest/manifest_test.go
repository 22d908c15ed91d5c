package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_PutGet(t *testing.T) {
	m := New("treesitter")
	m.Put(Entry{Path: "a/Foo.java", Obfuscate: OutcomeRenamed, Methods: 2})

	e, ok := m.Get("a/Foo.java")
	require.True(t, ok)
	assert.Equal(t, 2, e.Methods)
	assert.False(t, e.UpdatedAt.IsZero(), "Put should stamp the entry")

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestManifest_SaveLoad(t *testing.T) {
	m := New("lexical")
	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.Put(Entry{Path: "B.java", Digest: Digest([]byte("b")), Obfuscate: OutcomeUnchanged, Reason: "source could not be parsed", UpdatedAt: stamp})
	m.Put(Entry{Path: "A.java", Digest: Digest([]byte("a")), Obfuscate: OutcomeRenamed, Pair: OutcomeWritten, Methods: 1, Locals: 3, UpdatedAt: stamp})

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	loaded := New("")
	require.NoError(t, loaded.Load(&buf))

	assert.Equal(t, "lexical", loaded.Backend())
	assert.False(t, loaded.UpdatedAt().IsZero())
	entries := loaded.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "A.java", entries[0].Path)
	assert.Equal(t, 3, entries[0].Locals)
	assert.Equal(t, OutcomeWritten, entries[0].Pair)
	assert.True(t, stamp.Equal(entries[0].UpdatedAt))
	assert.Equal(t, "source could not be parsed", entries[1].Reason)
}

func TestManifest_LoadRejectsGarbage(t *testing.T) {
	err := New("").Load(bytes.NewReader([]byte("not msgpack")))
	assert.Error(t, err)
}

func TestManifest_FileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", DefaultFile)

	m := New("treesitter")
	m.Put(Entry{Path: "Foo.java", Obfuscate: OutcomeRenamed})
	require.NoError(t, m.SaveFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())

	matches, err := filepath.Glob(path + ".*")
	require.NoError(t, err)
	assert.Empty(t, matches, "temporary files should be cleaned up")
}

func TestLoadFile_Missing(t *testing.T) {
	m, err := LoadFile(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestLoadFile_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte{0xc1}, 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestManifest_Summarize(t *testing.T) {
	m := New("treesitter")
	m.Put(Entry{Path: "1", Obfuscate: OutcomeRenamed, Pair: OutcomeWritten, Methods: 2, Locals: 5})
	m.Put(Entry{Path: "2", Obfuscate: OutcomeUnchanged, Pair: OutcomeWritten})
	m.Put(Entry{Path: "3", Obfuscate: OutcomeSkipped, Pair: OutcomeSkipped})
	m.Put(Entry{Path: "4", Obfuscate: OutcomeFailed})
	m.Put(Entry{Path: "5", Obfuscate: OutcomeRenamed, Pair: OutcomeFailed, Methods: 1})

	s := m.Summarize()
	assert.Equal(t, Summary{
		Files: 5, Renamed: 2, Unchanged: 1, Skipped: 1, Failed: 1,
		Paired: 2, PairFailed: 1, Methods: 3, Locals: 5,
	}, s)

	failures := m.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "4", failures[0].Path)
	assert.Equal(t, "5", failures[1].Path)
}

func TestManifest_ConcurrentPut(t *testing.T) {
	m := New("treesitter")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Put(Entry{Path: filepath.Join("dir", string(rune('a'+i%26)), "F.java"), Methods: i})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 26, m.Len())
}

func TestDigest(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Digest(nil))
	assert.NotEqual(t, Digest([]byte("a")), Digest([]byte("b")))
}
