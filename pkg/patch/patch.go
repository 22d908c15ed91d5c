// Package patch applies byte-range replacements to an immutable source buffer.
package patch

import (
	"bytes"
	"sort"
	"unicode/utf8"
)

// Edit replaces the byte range [Start, End) with Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Valid reports whether the edit can be applied to a buffer of length n.
func (e Edit) Valid(n int) bool {
	return e.Start >= 0 && e.Start <= e.End && e.End <= n
}

// Delta is the change in buffer length caused by applying the edit.
func (e Edit) Delta() int {
	return len(e.Text) - (e.End - e.Start)
}

// Stats describes what happened to a batch of edits.
type Stats struct {
	Applied  int // edits written into the output
	Invalid  int // out-of-bounds or inverted spans
	Conflict int // duplicate or overlapping spans
	Repaired bool
}

// Apply returns a copy of src with edits applied.
//
// Edits are taken in descending Start order; among edits with the same Start
// the one collected first wins. An edit overlapping one that was already taken
// is dropped, as is any edit whose span is invalid for src. Neither case is an
// error. The result is always valid UTF-8.
func Apply(src []byte, edits []Edit) ([]byte, Stats) {
	var stats Stats

	ordered := make([]Edit, 0, len(edits))
	for _, e := range edits {
		if !e.Valid(len(src)) {
			stats.Invalid++
			continue
		}
		ordered = append(ordered, e)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start > ordered[j].Start
	})

	// Walk from the end of the buffer towards the start; limit is the lowest
	// offset already claimed by an applied edit.
	limit := len(src)
	taken := make([]Edit, 0, len(ordered))
	for _, e := range ordered {
		if e.End > limit {
			stats.Conflict++
			continue
		}
		if e.Start == e.End && e.Text == "" {
			continue
		}
		taken = append(taken, e)
		limit = e.Start
	}
	stats.Applied = len(taken)

	size := len(src)
	for _, e := range taken {
		size += e.Delta()
	}

	var out bytes.Buffer
	out.Grow(size)
	pos := 0
	for i := len(taken) - 1; i >= 0; i-- {
		e := taken[i]
		out.Write(src[pos:e.Start])
		out.WriteString(e.Text)
		pos = e.End
	}
	out.Write(src[pos:])

	result := out.Bytes()
	if !utf8.Valid(result) {
		result = bytes.ToValidUTF8(result, []byte(string(utf8.RuneError)))
		stats.Repaired = true
	}
	return result, stats
}
