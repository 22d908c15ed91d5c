package scanner

import (
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// DetectLanguage returns the lower-cased linguist language for a file name,
// or "" when the extension is unknown or ambiguous.
func DetectLanguage(name string) string {
	if filepath.Ext(name) == "" {
		return ""
	}
	lang, safe := enry.GetLanguageByExtension(strings.ToLower(filepath.Base(name)))
	if !safe || lang == "" {
		return ""
	}
	return strings.ToLower(lang)
}

// IsVendored reports whether rel looks like third-party code: vendor
// directories, minified bundles and similar paths linguist skips.
func IsVendored(rel string) bool {
	return enry.IsVendor(filepath.ToSlash(rel))
}

// HasExtension reports whether name ends in "."+ext, ignoring case.
func HasExtension(name, ext string) bool {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return true
	}
	got := strings.TrimPrefix(filepath.Ext(name), ".")
	return strings.EqualFold(got, ext)
}
