package codecanvas

import (
	"path/filepath"
	"strings"
)

// Language is a source language offered to users. The gateway accepts any
// non-empty language tag; this list only drives selection and inference.
type Language struct {
	Tag        string
	Name       string
	Extensions []string
}

// Languages is the set of languages offered by default, in display order.
var Languages = []Language{
	{Tag: "javascript", Name: "JavaScript", Extensions: []string{".js", ".mjs", ".cjs", ".jsx"}},
	{Tag: "python", Name: "Python", Extensions: []string{".py"}},
	{Tag: "typescript", Name: "TypeScript", Extensions: []string{".ts", ".tsx", ".mts"}},
	{Tag: "java", Name: "Java", Extensions: []string{".java"}},
	{Tag: "cpp", Name: "C++", Extensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".hh", ".h"}},
}

// LanguageForPath returns the language whose extensions match path.
// Matching is case-insensitive on the extension.
func LanguageForPath(path string) (Language, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return Language{}, false
	}
	for _, lang := range Languages {
		for _, e := range lang.Extensions {
			if e == ext {
				return lang, true
			}
		}
	}
	return Language{}, false
}

// LookupLanguage returns the language with the given tag.
func LookupLanguage(tag string) (Language, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, lang := range Languages {
		if lang.Tag == tag {
			return lang, true
		}
	}
	return Language{}, false
}
