package syntax

import "bytes"

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

// skipSpace returns the first offset at or after i that is not whitespace.
func skipSpace(m []byte, i int) int {
	for i < len(m) && isSpace(m[i]) {
		i++
	}
	return i
}

// skipSpaceBack returns the last offset before i that is not whitespace, or -1.
func skipSpaceBack(m []byte, i int) int {
	i--
	for i >= 0 && isSpace(m[i]) {
		i--
	}
	return i
}

// trimSpaceBack moves end left over trailing whitespace, never past start.
func trimSpaceBack(m []byte, start, end int) int {
	for end > start && isSpace(m[end-1]) {
		end--
	}
	return end
}

func identEnd(m []byte, i int) int {
	for i < len(m) && isIdentByte(m[i]) {
		i++
	}
	return i
}

// identStartBack returns where the identifier ending at offset j begins.
func identStartBack(m []byte, j int) int {
	for j > 0 && isIdentByte(m[j-1]) {
		j--
	}
	return j
}

func hasWordAt(m []byte, i int, word string) bool {
	if i < 0 || !bytes.HasPrefix(m[i:], []byte(word)) {
		return false
	}
	if i > 0 && isIdentByte(m[i-1]) {
		return false
	}
	end := i + len(word)
	return end == len(m) || !isIdentByte(m[end])
}

func precededByWord(m []byte, p int, word string) bool {
	k := skipSpaceBack(m, p)
	if k < 0 || !isIdentByte(m[k]) {
		return false
	}
	return string(m[identStartBack(m, k):k+1]) == word
}

// matchForward returns the offset of the delimiter closing the one at open.
func matchForward(m []byte, open int, o, c byte) int {
	depth := 0
	for i := open; i < len(m); i++ {
		switch m[i] {
		case o:
			depth++
		case c:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// matchBackward returns the offset of the delimiter opening the one at closeAt.
func matchBackward(m []byte, closeAt int, o, c byte) int {
	depth := 0
	for i := closeAt; i >= 0; i-- {
		switch m[i] {
		case c:
			depth++
		case o:
			depth--
			if depth == 0 {
				return i
			}
		case ';', '{', '}':
			return -1
		}
	}
	return -1
}

// skipDims skips C-style array dimensions after a parameter list.
func skipDims(m []byte, i int) int {
	for i < len(m) && m[i] == '[' {
		j := skipSpace(m, i+1)
		if j >= len(m) || m[j] != ']' {
			return i
		}
		i = skipSpace(m, j+1)
	}
	return i
}

// skipThrows skips a throws clause and returns the offset of the following
// '{' or ';'. Anything unexpected leaves i unchanged.
func skipThrows(m []byte, i int) int {
	if !hasWordAt(m, i, "throws") {
		return i
	}
	for j := i + len("throws"); j < len(m); j++ {
		switch c := m[j]; {
		case c == '{' || c == ';':
			return j
		case isIdentByte(c) || isSpace(c) || c == '.' || c == ',' || c == '<' || c == '>' || c == '?':
		default:
			return i
		}
	}
	return i
}

// statementEnd returns the offset of the ';' ending the statement that
// contains from, or -1 when a closing delimiter or EOF comes first.
func statementEnd(m []byte, from int) int {
	depth := 0
	for i := from; i < len(m); i++ {
		switch m[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				return -1
			}
			depth--
		case ';':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits [from, to) at commas outside any bracket pair. Angle
// brackets count as a pair only when angle is set, since '<' in an
// initializer is usually a comparison.
func splitTopLevel(m []byte, from, to int, angle bool) []Range {
	var out []Range
	depth := 0
	start := from
	for i := from; i < to; i++ {
		switch c := m[i]; {
		case c == '(' || c == '[' || c == '{' || (angle && c == '<'):
			depth++
		case c == ')' || c == ']' || c == '}' || (angle && c == '>'):
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0:
			out = append(out, Range{Start: start, End: i})
			start = i + 1
		}
	}
	if start < to {
		out = append(out, Range{Start: start, End: to})
	}
	return out
}

func containsEllipsis(b []byte) bool {
	return bytes.Contains(b, []byte("..."))
}

// terminated reports whether a protected span found by ProtectedRanges was
// properly closed.
func terminated(text []byte, kind RangeKind) bool {
	switch kind {
	case StringLiteral:
		return len(text) >= 2 && text[len(text)-1] == '"'
	case CharLiteral:
		return len(text) >= 2 && text[len(text)-1] == '\''
	case TextBlock:
		return len(text) >= 6 && bytes.HasSuffix(text, []byte(`"""`))
	case BlockComment:
		return len(text) >= 4 && bytes.HasSuffix(text, []byte("*/"))
	default:
		return true
	}
}
