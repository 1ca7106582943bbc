// Package deps builds the reverse-dependency map of relative imports.
package deps

import (
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/huangsam/prisk/schema"
)

// Lexical import patterns. They operate on raw text and may miss computed specifiers.
var (
	staticImportRe = regexp.MustCompile(`(?:^|[;\s}])(?:import|export)\s[^'"` + "`" + `;]*?\bfrom\s*['"]([^'"\n]+)['"]`)
	sideEffectRe   = regexp.MustCompile(`(?:^|[;\s}])import\s*['"]([^'"\n]+)['"]`)
	dynamicRe      = regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"\n]+)['"]\s*\)`)
	requireRe      = regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"\n]+)['"]\s*\)`)
)

type specifierHit struct {
	pos  int
	spec string
}

// ExtractImportSpecifiers returns the distinct import specifiers in content,
// ordered by first appearance.
func ExtractImportSpecifiers(content string) []string {
	var hits []specifierHit
	for _, re := range []*regexp.Regexp{staticImportRe, sideEffectRe, dynamicRe, requireRe} {
		for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
			hits = append(hits, specifierHit{pos: m[2], spec: content[m[2]:m[3]]})
		}
	}
	slices.SortStableFunc(hits, func(a, b specifierHit) int { return a.pos - b.pos })

	seen := make(map[string]struct{}, len(hits))
	specs := make([]string, 0, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.spec]; ok {
			continue
		}
		seen[h.spec] = struct{}{}
		specs = append(specs, h.spec)
	}
	return specs
}

// IsRelative reports whether spec is a relative specifier.
func IsRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// JoinSpecifier joins a relative specifier with the importer's directory.
// It returns false for bare specifiers and for targets outside the repository.
func JoinSpecifier(importer, spec string) (string, bool) {
	if !IsRelative(spec) {
		return "", false
	}
	joined := path.Join(path.Dir(importer), spec)
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return "", false
	}
	return joined, true
}

// ResolveSpecifier resolves a relative specifier against the set of known files.
// Resolution tries the exact path, then each source extension, then each index file.
func ResolveSpecifier(importer, spec string, known map[string]struct{}) (string, bool) {
	joined, ok := JoinSpecifier(importer, spec)
	if !ok {
		return "", false
	}
	if _, ok := known[joined]; ok {
		return joined, true
	}
	for _, ext := range schema.SourceExtensions {
		if _, ok := known[joined+ext]; ok {
			return joined + ext, true
		}
	}
	for _, index := range schema.IndexFileNames {
		candidate := path.Join(joined, index)
		if _, ok := known[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}
