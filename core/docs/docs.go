// Package docs finds documentation lines that mention paths or symbols a change removed.
package docs

import (
	"cmp"
	"context"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/huangsam/prisk/core/deps"
	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"
)

// Options identifies the repository and revisions being compared.
type Options struct {
	RepoPath string
	Base     string
	Head     string
	Excludes []string
}

// importLineRe matches lines that load modules.
var importLineRe = regexp.MustCompile(`^\s*import\b|\bimport\s*\(|\brequire\s*\(|\bfrom\s+['"]`)

// Check scans every documentation file for stale references.
// Docs are read from disk first and from the head revision otherwise.
// Docs that cannot be read either way are skipped.
func Check(ctx context.Context, client contract.GitClient, finder contract.FileFinder, opts Options, changed []schema.ChangedFile) (schema.DocStalenessReport, error) {
	refs, err := collectReferences(ctx, client, opts, changed)
	if err != nil {
		return schema.DocStalenessReport{}, err
	}
	docs, err := discoverDocs(ctx, client, finder, opts)
	if err != nil {
		return schema.DocStalenessReport{}, err
	}

	report := schema.DocStalenessReport{
		StaleReferences: make([]schema.StaleReference, 0),
		CheckedFiles:    make([]string, 0, len(docs)),
	}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return schema.DocStalenessReport{}, err
		}
		content, ok := readDoc(ctx, client, finder, opts, doc)
		if !ok {
			continue
		}
		report.CheckedFiles = append(report.CheckedFiles, doc)
		report.StaleReferences = append(report.StaleReferences, scanDoc(doc, content, refs)...)
	}

	slices.SortFunc(report.StaleReferences, compareRefs)
	report.StaleReferences = slices.CompactFunc(report.StaleReferences, func(a, b schema.StaleReference) bool {
		return compareRefs(a, b) == 0
	})
	return report, nil
}

func compareRefs(a, b schema.StaleReference) int {
	return cmp.Or(
		cmp.Compare(a.DocFile, b.DocFile),
		cmp.Compare(a.Line, b.Line),
		cmp.Compare(a.Reference, b.Reference),
		cmp.Compare(a.Reason, b.Reason),
	)
}

// DocPatterns returns the discovery globs for documentation files.
func DocPatterns() []string {
	patterns := make([]string, 0, len(schema.DocExtensions))
	for _, ext := range schema.DocExtensions {
		patterns = append(patterns, "*"+ext)
	}
	return patterns
}

// discoverDocs unions docs on disk with docs tracked at the head revision.
func discoverDocs(ctx context.Context, client contract.GitClient, finder contract.FileFinder, opts Options) ([]string, error) {
	ignore := deps.IgnoreList(opts.Excludes)
	onDisk, err := finder.DiscoverFiles(ctx, opts.RepoPath, DocPatterns(), ignore)
	if err != nil {
		return nil, fmt.Errorf("discover docs: %w", err)
	}
	docs := append([]string{}, onDisk...)

	tracked, err := client.ListFilesAtRef(ctx, opts.RepoPath, opts.Head)
	if err != nil {
		contract.LogWarn("Cannot list docs at "+opts.Head, err)
	}
	for _, p := range tracked {
		if slices.Contains(schema.DocExtensions, strings.ToLower(path.Ext(p))) && !contract.ShouldIgnore(p, ignore) {
			docs = append(docs, p)
		}
	}
	return schema.SortedUnique(docs), nil
}

// readDoc returns the doc content from disk, falling back to the head revision.
func readDoc(ctx context.Context, client contract.GitClient, finder contract.FileFinder, opts Options, doc string) (string, bool) {
	if content, err := finder.ReadFile(ctx, opts.RepoPath, doc); err == nil {
		return content, true
	}
	if content, err := client.ReadFileAtRevision(ctx, opts.RepoPath, opts.Head, doc); err == nil {
		return content, true
	}
	return "", false
}

// scanDoc reports every line of content that matches a reference.
func scanDoc(doc, content string, refs []reference) []schema.StaleReference {
	var out []schema.StaleReference
	inFence := false
	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		for _, r := range refs {
			if r.matches(line, inFence) {
				out = append(out, schema.StaleReference{DocFile: doc, Line: i + 1, Reference: r.text, Reason: r.reason})
			}
		}
	}
	return out
}

// matches reports whether line mentions the reference.
// Generic names must appear in code, a path or an import.
func (r reference) matches(line string, inFence bool) bool {
	if r.isPath {
		return containsPath(line, r.text)
	}
	if !r.word.MatchString(line) {
		return false
	}
	if r.near == nil || inFence {
		return true
	}
	for _, span := range backtickSpans(line) {
		if r.word.MatchString(span) {
			return true
		}
	}
	return r.near.MatchString(line) || importLineRe.MatchString(line)
}

// backtickSpans returns the contents of closed inline code spans.
func backtickSpans(line string) []string {
	parts := strings.Split(line, "`")
	var spans []string
	for i := 1; i < len(parts)-1; i += 2 {
		spans = append(spans, parts[i])
	}
	return spans
}

// containsPath finds p in line as a complete path. A leading slash is only
// accepted as part of a ./ or ../ prefix.
func containsPath(line, p string) bool {
	for offset := 0; ; {
		i := strings.Index(line[offset:], p)
		if i < 0 {
			return false
		}
		start, end := offset+i, offset+i+len(p)
		if boundedBefore(line, start) && (end == len(line) || !isPathByte(line[end])) {
			return true
		}
		offset = start + 1
	}
}

func boundedBefore(line string, start int) bool {
	if start == 0 {
		return true
	}
	prev := line[start-1]
	if prev == '/' {
		return start >= 2 && line[start-2] == '.'
	}
	return !isPathByte(prev)
}

func isPathByte(ch byte) bool {
	return ch == '_' || ch == '$' || ch == '-' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}
