package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultErrorLog is the error log file name inside the output directory.
const DefaultErrorLog = "errors.log"

// ErrorEntry is one line of the error log.
type ErrorEntry struct {
	Time  time.Time `json:"time"`
	Stage Stage     `json:"stage"`
	File  string    `json:"file"`
	Error string    `json:"error"`
}

// ErrorLog appends one JSON object per failed stage. Safe for concurrent use.
type ErrorLog struct {
	mu    sync.Mutex
	path  string
	f     *os.File
	enc   *json.Encoder
	count int
}

// OpenErrorLog opens path for appending, creating it and its directory.
func OpenErrorLog(path string) (*ErrorLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating error log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening error log: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	return &ErrorLog{path: path, f: f, enc: enc}, nil
}

// Path returns the log file path.
func (l *ErrorLog) Path() string {
	return l.path
}

// Record appends a failure for file at stage.
func (l *ErrorLog) Record(stage Stage, file string, cause error) error {
	entry := ErrorEntry{
		Time:  time.Now().UTC(),
		Stage: stage,
		File:  file,
		Error: cause.Error(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(entry); err != nil {
		return fmt.Errorf("writing error log: %w", err)
	}
	l.count++
	return nil
}

// Count returns how many entries this handle has written.
func (l *ErrorLog) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Close closes the underlying file.
func (l *ErrorLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// ReadErrorLog returns every entry in the log at path.
func ReadErrorLog(path string) ([]ErrorEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening error log: %w", err)
	}
	defer f.Close()

	var entries []ErrorEntry
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e ErrorEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading error log: %w", err)
	}
	return entries, nil
}
