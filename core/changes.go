package core

import (
	"path"
	"slices"
	"strings"

	"github.com/huangsam/prisk/schema"
)

// Top-level directories whose contents are always tests.
var testRootDirs = []string{"test", "tests", "e2e"}

// Path segments that mark test or mock code anywhere in the tree.
var testSegments = []string{"__tests__", "__mocks__"}

// Documentation files that commonly ship without an extension.
var docBaseNames = []string{"README", "CHANGELOG", "CONTRIBUTING", "LICENSE", "AUTHORS"}

// Exact file names that configure a JS/TS project.
var configFileNames = []string{
	"package.json", "package-lock.json", "yarn.lock", "pnpm-lock.yaml", "bun.lockb",
	"Dockerfile", "Makefile", "Procfile", ".npmrc", ".nvmrc", ".gitignore", ".gitattributes",
	".editorconfig", ".prettierrc", ".babelrc", ".browserslistrc",
}

// Extensions that always denote configuration.
var configExtensions = []string{".json", ".yaml", ".yml", ".toml", ".ini", ".cfg", ".conf", ".lock", ".env"}

// CategorizeFile assigns exactly one category to a repo-relative path.
// Rules are checked in order: test, doc, config, source, other.
func CategorizeFile(p string) schema.FileCategory {
	p = strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "./")
	switch {
	case isTestPath(p):
		return schema.CategoryTest
	case isDocPath(p):
		return schema.CategoryDoc
	case isConfigPath(p):
		return schema.CategoryConfig
	case IsSourcePath(p):
		return schema.CategorySource
	default:
		return schema.CategoryOther
	}
}

// IsSourcePath reports whether p has a recognized source extension.
func IsSourcePath(p string) bool {
	return slices.Contains(schema.SourceExtensions, path.Ext(p))
}

func isTestPath(p string) bool {
	segments := strings.Split(p, "/")
	if len(segments) > 1 && slices.Contains(testRootDirs, segments[0]) {
		return true
	}
	for _, seg := range segments[:len(segments)-1] {
		if slices.Contains(testSegments, seg) {
			return true
		}
	}
	base := segments[len(segments)-1]
	return strings.Contains(base, ".test.") ||
		strings.Contains(base, ".spec.") ||
		strings.Contains(base, "_test.")
}

func isDocPath(p string) bool {
	base := path.Base(p)
	if slices.Contains(schema.DocExtensions, strings.ToLower(path.Ext(base))) {
		return true
	}
	return path.Ext(base) == "" && slices.Contains(docBaseNames, strings.ToUpper(base))
}

func isConfigPath(p string) bool {
	base := path.Base(p)
	switch {
	case slices.Contains(configFileNames, base):
		return true
	case strings.HasPrefix(base, "tsconfig") && strings.HasSuffix(base, ".json"):
		return true
	case strings.HasPrefix(base, ".eslintrc"), strings.HasPrefix(base, ".env"):
		return true
	case strings.Contains(base, ".config."), strings.HasSuffix(base, "rc.js"), strings.HasSuffix(base, "rc.cjs"):
		return true
	}
	return slices.Contains(configExtensions, strings.ToLower(path.Ext(base)))
}

// BuildChangedFiles categorizes raw file changes and returns them sorted by path.
func BuildChangedFiles(changes []schema.FileChange) []schema.ChangedFile {
	files := make([]schema.ChangedFile, 0, len(changes))
	for _, c := range changes {
		f := schema.ChangedFile{
			Path:      c.Path,
			Status:    c.Status,
			Additions: c.Additions,
			Deletions: c.Deletions,
			Category:  CategorizeFile(c.Path),
		}
		if c.Status == schema.StatusRenamed || c.Status == schema.StatusCopied {
			f.OldPath = c.OldPath
		}
		files = append(files, f)
	}
	slices.SortFunc(files, func(a, b schema.ChangedFile) int {
		return strings.Compare(a.Path, b.Path)
	})
	return files
}
