package syntax

import (
	"bytes"
	"sort"
)

// RangeKind classifies a protected span.
type RangeKind int

const (
	StringLiteral RangeKind = iota
	CharLiteral
	TextBlock
	LineComment
	BlockComment
)

func (k RangeKind) String() string {
	switch k {
	case StringLiteral:
		return "string"
	case CharLiteral:
		return "char"
	case TextBlock:
		return "text_block"
	case LineComment:
		return "line_comment"
	case BlockComment:
		return "block_comment"
	default:
		return "unknown"
	}
}

// Range is a protected [Start, End) span that renaming must never touch.
type Range struct {
	Start int
	End   int
	Kind  RangeKind
}

// ProtectedRanges scans src for string, char and text-block literals and for
// line and block comments. Ranges are returned in ascending, non-overlapping
// order. Unterminated string and char literals stop at the end of the line;
// unterminated comments and text blocks run to the end of the buffer.
func ProtectedRanges(src []byte) []Range {
	var ranges []Range
	n := len(src)
	i := 0
	for i < n {
		c := src[i]
		switch {
		case c == '/' && i+1 < n && src[i+1] == '/':
			end := n
			if nl := bytes.IndexByte(src[i:], '\n'); nl >= 0 {
				end = i + nl
			}
			ranges = append(ranges, Range{Start: i, End: end, Kind: LineComment})
			i = end
		case c == '/' && i+1 < n && src[i+1] == '*':
			end := n
			if stop := bytes.Index(src[i+2:], []byte("*/")); stop >= 0 {
				end = i + 2 + stop + 2
			}
			ranges = append(ranges, Range{Start: i, End: end, Kind: BlockComment})
			i = end
		case c == '"' && bytes.HasPrefix(src[i:], []byte(`"""`)):
			end := scanTextBlock(src, i)
			ranges = append(ranges, Range{Start: i, End: end, Kind: TextBlock})
			i = end
		case c == '"':
			end := scanQuoted(src, i, '"')
			ranges = append(ranges, Range{Start: i, End: end, Kind: StringLiteral})
			i = end
		case c == '\'':
			end := scanQuoted(src, i, '\'')
			ranges = append(ranges, Range{Start: i, End: end, Kind: CharLiteral})
			i = end
		default:
			i++
		}
	}
	return ranges
}

// scanQuoted returns the offset just past the literal opened at src[start].
// A backslash escapes the following byte, so \" does not close a string.
func scanQuoted(src []byte, start int, quote byte) int {
	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1
		case '\n':
			return i
		}
		i++
	}
	return len(src)
}

func scanTextBlock(src []byte, start int) int {
	i := start + 3
	for i < len(src) {
		if src[i] == '\\' {
			i += 2
			continue
		}
		if bytes.HasPrefix(src[i:], []byte(`"""`)) {
			return i + 3
		}
		i++
	}
	return len(src)
}

// InRanges reports whether offset falls inside one of the sorted ranges.
func InRanges(ranges []Range, offset int) bool {
	i := sort.Search(len(ranges), func(i int) bool {
		return ranges[i].End > offset
	})
	return i < len(ranges) && ranges[i].Start <= offset
}

// Mask returns a copy of src with every protected byte except newlines
// replaced by a space. Offsets in the masked copy match src exactly.
func Mask(src []byte, ranges []Range) []byte {
	masked := make([]byte, len(src))
	copy(masked, src)
	for _, r := range ranges {
		end := r.End
		if end > len(masked) {
			end = len(masked)
		}
		for i := r.Start; i < end; i++ {
			if masked[i] != '\n' {
				masked[i] = ' '
			}
		}
	}
	return masked
}

// Words returns every word token of src that lies outside protected ranges.
// Numeric literals are excluded.
func Words(src []byte) map[string]struct{} {
	masked := Mask(src, ProtectedRanges(src))
	words := make(map[string]struct{})
	for _, loc := range tokenPattern.FindAllIndex(masked, -1) {
		if isDigit(masked[loc[0]]) {
			continue
		}
		words[string(masked[loc[0]:loc[1]])] = struct{}{}
	}
	return words
}
