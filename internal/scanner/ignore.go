package scanner

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IgnorePattern is one line of a .jdcignore file, interpreted with gitignore
// rules: "!" negates, a trailing "/" matches directories only, and a pattern
// containing a "/" is anchored to the directory holding the ignore file.
// Patterns without a "/" match a name at any depth.
type IgnorePattern struct {
	raw      string
	negate   bool
	dirOnly  bool
	anchored bool
	segments []string
	base     string
}

// ParseIgnorePattern parses a single pattern line.
func ParseIgnorePattern(line string) IgnorePattern {
	p := IgnorePattern{raw: line}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = line[1:]
	}
	if strings.Contains(line, "/") {
		p.anchored = true
	}
	p.segments = strings.Split(line, "/")
	return p
}

// String returns the pattern as written.
func (p IgnorePattern) String() string {
	return p.raw
}

// IsNegation reports whether the pattern re-includes what it matches.
func (p IgnorePattern) IsNegation() bool {
	return p.negate
}

// Match reports whether rel, a slash-separated path relative to the scan
// root, or any directory above it matches the pattern.
func (p IgnorePattern) Match(rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	if p.base != "" {
		if !strings.HasPrefix(rel, p.base+"/") {
			return false
		}
		rel = strings.TrimPrefix(rel, p.base+"/")
	}

	parts := strings.Split(rel, "/")
	for n := 1; n <= len(parts); n++ {
		if p.dirOnly && n == len(parts) && !isDir {
			continue
		}
		if p.matchParts(parts[:n]) {
			return true
		}
	}
	return false
}

func (p IgnorePattern) matchParts(parts []string) bool {
	if !p.anchored {
		return globSegment(p.segments[0], parts[len(parts)-1])
	}
	return matchSegments(p.segments, parts)
}

// matchSegments matches pattern segments against path segments; "**"
// stands for any number of directories.
func matchSegments(pat, parts []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			rest := pat[1:]
			for i := 0; i <= len(parts); i++ {
				if matchSegments(rest, parts[i:]) {
					return true
				}
			}
			return false
		}
		if len(parts) == 0 || !globSegment(pat[0], parts[0]) {
			return false
		}
		pat, parts = pat[1:], parts[1:]
	}
	return len(parts) == 0
}

func globSegment(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}

// IgnoreRules is an ordered pattern list; the last matching pattern decides.
type IgnoreRules struct {
	patterns []IgnorePattern
}

// Add appends patterns read from the ignore file in directory base, given
// relative to the scan root ("" for the root itself).
func (r *IgnoreRules) Add(base string, patterns ...IgnorePattern) {
	base = strings.Trim(filepath.ToSlash(base), "/")
	if base == "." {
		base = ""
	}
	for _, p := range patterns {
		p.base = base
		r.patterns = append(r.patterns, p)
	}
}

// Len returns the number of patterns.
func (r *IgnoreRules) Len() int {
	return len(r.patterns)
}

// Ignored reports whether rel is excluded.
func (r *IgnoreRules) Ignored(rel string, isDir bool) bool {
	ignored := false
	for _, p := range r.patterns {
		if p.Match(rel, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}

// LoadIgnoreFile reads patterns from path, skipping blank lines and
// comments. A missing file yields no patterns.
func LoadIgnoreFile(path string) ([]IgnorePattern, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var patterns []IgnorePattern
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, ParseIgnorePattern(line))
	}
	return patterns, sc.Err()
}
