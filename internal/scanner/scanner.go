// Package scanner discovers source files for a conversion run. It filters by
// extension, honours .jdcignore files with gitignore-style patterns, and
// tags each file with its language.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultIgnoreFile is the per-directory ignore file name.
const DefaultIgnoreFile = ".jdcignore"

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Path     string // Relative path from root, slash-separated
	FullPath string // Absolute path
	Language string // Language detected from the extension
	Size     int64  // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	Extension       string   // Extension to keep, without the dot; empty keeps everything
	Recursive       bool     // Descend into subdirectories
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	SkipVendored    bool     // Skip paths go-enry classifies as vendored
	FollowSymlinks  bool     // Follow file symlinks that stay within root
	DefaultExcludes []string // Directory names never entered
	Exclude         []string // Absolute paths never entered, such as the output directory
	IgnoreFileName  string   // Name of the ignore file (default: .jdcignore)
}

// DefaultOptions returns options for a flat scan of .java files.
func DefaultOptions() Options {
	return Options{
		Extension:      "java",
		SkipHidden:     true,
		SkipVendored:   true,
		IgnoreFileName: DefaultIgnoreFile,
		DefaultExcludes: []string{
			".git",
			".hg",
			".svn",
			".idea",
			".vscode",
			".gradle",
			"node_modules",
			"build",
			"target",
			"out",
			"bin",
		},
	}
}

// Scanner walks a directory and returns matching files.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	if opts.IgnoreFileName == "" {
		opts.IgnoreFileName = DefaultIgnoreFile
	}
	return &Scanner{opts: opts}
}

// Scan returns the files under root in path order. Without Recursive only
// the immediate entries of root are considered. Unreadable entries below
// root are skipped; an unreadable root is an error.
func (s *Scanner) Scan(ctx context.Context, root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input %s is not a directory", root)
	}

	var rules IgnoreRules
	patterns, err := LoadIgnoreFile(filepath.Join(absRoot, s.opts.IgnoreFileName))
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}
	rules.Add("", patterns...)

	excluded := make(map[string]struct{}, len(s.opts.Exclude))
	for _, e := range s.opts.Exclude {
		if abs, err := filepath.Abs(e); err == nil {
			excluded[abs] = struct{}{}
		}
	}

	var files []FileInfo
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if s.skipDir(path, rel, d.Name(), excluded, &rules) {
				return filepath.SkipDir
			}
			if nested, err := LoadIgnoreFile(filepath.Join(path, s.opts.IgnoreFileName)); err == nil {
				rules.Add(rel, nested...)
			}
			return nil
		}

		if fi, ok := s.accept(path, rel, d, &rules); ok {
			files = append(files, fi)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *Scanner) skipDir(path, rel, name string, excluded map[string]struct{}, rules *IgnoreRules) bool {
	if !s.opts.Recursive {
		return true
	}
	if _, ok := excluded[path]; ok {
		return true
	}
	if s.opts.SkipHidden && isHidden(name) {
		return true
	}
	if s.isDefaultExcluded(name) {
		return true
	}
	if s.opts.SkipVendored && IsVendored(rel+"/") {
		return true
	}
	return rules.Ignored(rel, true)
}

// accept applies the file filters and resolves symlinks.
func (s *Scanner) accept(path, rel string, d fs.DirEntry, rules *IgnoreRules) (FileInfo, bool) {
	name := d.Name()
	if s.opts.SkipHidden && isHidden(name) {
		return FileInfo{}, false
	}
	if !HasExtension(name, s.opts.Extension) {
		return FileInfo{}, false
	}
	if s.opts.SkipVendored && IsVendored(rel) {
		return FileInfo{}, false
	}
	if rules.Ignored(rel, false) {
		return FileInfo{}, false
	}

	info, err := d.Info()
	if err != nil {
		return FileInfo{}, false
	}
	if info.Mode()&os.ModeSymlink != 0 {
		if !s.opts.FollowSymlinks {
			return FileInfo{}, false
		}
		target, ok := resolveLink(path, s.realRoot(path, rel))
		if !ok {
			return FileInfo{}, false
		}
		info = target
	}
	if !info.Mode().IsRegular() {
		return FileInfo{}, false
	}

	return FileInfo{
		Path:     rel,
		FullPath: path,
		Language: DetectLanguage(name),
		Size:     info.Size(),
	}, true
}

// resolveLink follows a file symlink whose target stays inside root.
func resolveLink(path, root string) (os.FileInfo, bool) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, false
	}
	if !strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return nil, false
	}
	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return nil, false
	}
	return info, true
}

// realRoot recovers the scan root from a walked path and resolves its links.
func (s *Scanner) realRoot(path, rel string) string {
	root := strings.TrimSuffix(path, string(filepath.Separator)+filepath.FromSlash(rel))
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		return resolved
	}
	return root
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// Scan scans root with default options.
func Scan(ctx context.Context, root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(ctx, root)
}
