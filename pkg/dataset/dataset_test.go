package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_EncodeSingleLine(t *testing.T) {
	original := "class A {\n  // <b> & \"quoted\"\n  void f() {}\n}\n"
	obfuscated := "class A {\n  // <b> & \"quoted\"\n  void func_1() {}\n}\n"

	line, err := NewRecord([]byte(original), []byte(obfuscated)).Encode()
	require.NoError(t, err)

	assert.Equal(t, 1, bytes.Count(line, []byte("\n")), "record must be exactly one line")
	assert.True(t, bytes.HasSuffix(line, []byte("\n")))
	assert.Contains(t, string(line), `"prompt":"class A {\n  // <b> & \"quoted\"\n  void func_1() {}\n}\n"`)
	assert.Contains(t, string(line), `"response":"class A {`)

	r, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, obfuscated, r.Prompt)
	assert.Equal(t, original, r.Response)
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode([]byte("  \n"))
	assert.ErrorIs(t, err, ErrEmptyLine)

	_, err = Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestJSONLName(t *testing.T) {
	assert.Equal(t, "Foo.java.jsonl", JSONLName("Foo.java"))
	assert.Equal(t, "Foo.java.jsonl", JSONLName(filepath.Join("a", "b", "Foo.java")))
}

func TestPair(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "Foo.java")
	obf := filepath.Join(dir, "out", "Foo.java")
	out := filepath.Join(dir, "jsonl", JSONLName(orig))

	require.NoError(t, os.WriteFile(orig, []byte("class Foo { void run() {} }"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Dir(obf), 0755))
	require.NoError(t, os.WriteFile(obf, []byte("class Foo { void func_1() {} }"), 0644))

	require.NoError(t, Pair(orig, obf, out))

	records, err := ReadFile(out)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "class Foo { void func_1() {} }", records[0].Prompt)
	assert.Equal(t, "class Foo { void run() {} }", records[0].Response)
}

func TestPair_MissingObfuscated(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "Foo.java")
	require.NoError(t, os.WriteFile(orig, []byte("class Foo {}"), 0644))

	out := filepath.Join(dir, "Foo.java.jsonl")
	err := Pair(orig, filepath.Join(dir, "missing.java"), out)
	assert.Error(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no record file should be written on failure")
}

func TestWrite_Appends(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Record{Prompt: "a", Response: "b"}))
	require.NoError(t, Write(&buf, Record{Prompt: "c", Response: "d"}))

	assert.Equal(t, "{\"prompt\":\"a\",\"response\":\"b\"}\n{\"prompt\":\"c\",\"response\":\"d\"}\n", buf.String())
}
