// Package dataset writes obfuscated/original source pairs as JSON Lines
// training records.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Ext is the suffix appended to a source file name to name its record file.
const Ext = ".jsonl"

// maxLine bounds a single record when reading; one record holds two copies
// of a source file.
const maxLine = 64 << 20

// ErrEmptyLine is returned by Decode for a blank line.
var ErrEmptyLine = errors.New("empty record line")

// Record is one training pair. Prompt is the obfuscated source and Response
// the original, both verbatim.
type Record struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// NewRecord builds a record from the original and obfuscated buffers.
func NewRecord(original, obfuscated []byte) Record {
	return Record{Prompt: string(obfuscated), Response: string(original)}
}

// Encode returns the record as a single JSON line terminated by '\n'.
// Only standard JSON string escaping is applied: HTML characters are kept
// as-is and newlines inside the sources become \n.
func (r Record) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses one JSON line into a record.
func Decode(line []byte) (Record, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Record{}, ErrEmptyLine
	}
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return Record{}, fmt.Errorf("decoding record: %w", err)
	}
	return r, nil
}

// Write appends r to w as one line.
func Write(w io.Writer, r Record) error {
	line, err := r.Encode()
	if err != nil {
		return err
	}
	_, err = w.Write(line)
	return err
}

// JSONLName returns the record file name for a source file: the base name
// with Ext appended, so Foo.java pairs into Foo.java.jsonl.
func JSONLName(source string) string {
	return filepath.Base(source) + Ext
}

// Pair reads the original and obfuscated files and writes their record to
// out, replacing any existing file and creating parent directories.
func Pair(original, obfuscated, out string) error {
	orig, err := os.ReadFile(original)
	if err != nil {
		return fmt.Errorf("reading original %s: %w", original, err)
	}
	obf, err := os.ReadFile(obfuscated)
	if err != nil {
		return fmt.Errorf("reading obfuscated %s: %w", obfuscated, err)
	}
	return WriteFile(out, NewRecord(orig, obf))
}

// WriteFile writes a single-record JSONL file.
func WriteFile(path string, r Record) error {
	line, err := r.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, line, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadFile returns every record in a JSONL file, skipping blank lines.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for line := 1; scanner.Scan(); line++ {
		r, err := Decode(scanner.Bytes())
		if errors.Is(err, ErrEmptyLine) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}
