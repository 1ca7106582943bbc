// Package schema has models and constants for all parts of prisk.
package schema

import (
	"slices"
	"strings"
)

// FileChange is one entry of a raw revision-to-revision file listing.
type FileChange struct {
	Path      string     // Canonical path (new path for renames and copies)
	OldPath   string     // Previous path, set only for renames and copies
	Status    FileStatus // How the file changed
	Additions int        // Lines added (0 for binary files)
	Deletions int        // Lines deleted (0 for binary files)
}

// ChangedFile is a categorized FileChange. Category is assigned once.
type ChangedFile struct {
	Path      string       `json:"path"`
	OldPath   string       `json:"oldPath,omitempty"`
	Status    FileStatus   `json:"status"`
	Additions int          `json:"additions"`
	Deletions int          `json:"deletions"`
	Category  FileCategory `json:"category"`
	Hunks     int          `json:"hunks"`
}

// ExportedSymbol is a symbol exported by a file at one revision.
// It is transient: only diffs derived from it are kept.
type ExportedSymbol struct {
	Name      string
	Kind      string // function, class, variable, interface, type, enum, reexport
	Signature string // whitespace-normalized declaration head
}

// IsTypeOnly reports whether the symbol is a type-level construct.
func (s ExportedSymbol) IsTypeOnly() bool {
	switch s.Kind {
	case "interface", "type", "enum":
		return true
	}
	return false
}

// BreakingChange describes one detected API break in a changed file.
type BreakingChange struct {
	FilePath   string             `json:"filePath"`
	SymbolName string             `json:"symbolName"`
	Type       BreakingChangeType `json:"type"`
	Before     *string            `json:"before"`
	After      *string            `json:"after"`
	Severity   Severity           `json:"severity"`
	Consumers  []string           `json:"consumers"`
}

// NewExport is an export that appeared in an existing file.
type NewExport struct {
	FilePath   string `json:"filePath"`
	SymbolName string `json:"symbolName"`
	Signature  string `json:"signature"`
}

// ReverseDependencyMap maps a repo-relative path to the files importing it.
type ReverseDependencyMap struct {
	// Dependents holds importers of files that resolved on disk.
	Dependents map[string][]string `json:"dependents"`

	// Dangling holds importers of relative targets that did not resolve,
	// keyed by the cleaned target path as written (without extension resolution).
	Dangling map[string][]string `json:"dangling"`
}

// NewReverseDependencyMap returns an empty map ready for use.
func NewReverseDependencyMap() ReverseDependencyMap {
	return ReverseDependencyMap{
		Dependents: make(map[string][]string),
		Dangling:   make(map[string][]string),
	}
}

// ImportersOf returns the sorted, distinct files importing path.
// Files absent from disk are looked up through their dangling specifiers.
func (m ReverseDependencyMap) ImportersOf(path string) []string {
	var out []string
	out = append(out, m.Dependents[path]...)
	for _, key := range danglingKeys(path) {
		out = append(out, m.Dangling[key]...)
	}
	return SortedUnique(out)
}

// Size returns the number of files with at least one importer.
func (m ReverseDependencyMap) Size() int {
	return len(m.Dependents) + len(m.Dangling)
}

// danglingKeys lists the specifier forms that could have referred to path.
func danglingKeys(path string) []string {
	keys := []string{path}
	for _, ext := range SourceExtensions {
		if stem, ok := strings.CutSuffix(path, ext); ok {
			keys = append(keys, stem)
			if dir, ok := strings.CutSuffix(stem, "/index"); ok {
				keys = append(keys, dir)
			}
			break
		}
	}
	return keys
}

// ImpactEdge records that From imports To.
type ImpactEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// ImpactGraph is the bounded set of files affected by a change.
type ImpactGraph struct {
	DirectlyChanged    []string     `json:"directlyChanged"`
	IndirectlyAffected []string     `json:"indirectlyAffected"`
	Edges              []ImpactEdge `json:"edges"`
	MaxDepth           int          `json:"maxDepth"`
}

// CoverageGap is a changed source file without a changed conventional test.
type CoverageGap struct {
	SourceFile        string   `json:"sourceFile"`
	TestFileExists    bool     `json:"testFileExists"`
	ExpectedTestFiles []string `json:"expectedTestFiles"`
}

// TestCoverageReport summarizes whether source changes came with test changes.
type TestCoverageReport struct {
	ChangedSourceFiles         int           `json:"changedSourceFiles"`
	SourceFilesWithTestChanges int           `json:"sourceFilesWithTestChanges"`
	CoverageRatio              float64       `json:"coverageRatio"`
	Gaps                       []CoverageGap `json:"gaps"`
}

// StaleReference is a documentation line that mentions something the change removed.
type StaleReference struct {
	DocFile   string `json:"docFile"`
	Line      int    `json:"line"` // 1-based
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

// DocStalenessReport lists stale documentation references.
type DocStalenessReport struct {
	StaleReferences []StaleReference `json:"staleReferences"`
	CheckedFiles    []string         `json:"checkedFiles"`
}

// RiskFactor is one weighted contributor to the overall score.
type RiskFactor struct {
	Name        FactorName `json:"name"`
	Score       float64    `json:"score"`  // 0-100
	Weight      float64    `json:"weight"` // (0, 1]
	Description string     `json:"description"`
	Details     []string   `json:"details"`
}

// RiskAssessment is the reduced score over all factors.
type RiskAssessment struct {
	Score   int          `json:"score"` // 0-100
	Level   RiskLevel    `json:"level"`
	Factors []RiskFactor `json:"factors"`
}

// PRAnalysis is the immutable result of one analysis run.
type PRAnalysis struct {
	RepoPath        string             `json:"repoPath"`
	BaseBranch      string             `json:"baseBranch"`
	HeadBranch      string             `json:"headBranch"`
	BaseRevision    string             `json:"baseRevision"`
	ChangedFiles    []ChangedFile      `json:"changedFiles"`
	BreakingChanges []BreakingChange   `json:"breakingChanges"`
	NewExports      []NewExport        `json:"newExports"`
	TestCoverage    TestCoverageReport `json:"testCoverage"`
	DocStaleness    DocStalenessReport `json:"docStaleness"`
	ImpactGraph     ImpactGraph        `json:"impactGraph"`
	RiskScore       RiskAssessment     `json:"riskScore"`
	Summary         string             `json:"summary"`
}

// SearchMatch is a single line returned by a repository-wide pattern search.
type SearchMatch struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// TotalLines returns additions plus deletions across all changed files.
func (a *PRAnalysis) TotalLines() (additions, deletions int) {
	for _, f := range a.ChangedFiles {
		additions += f.Additions
		deletions += f.Deletions
	}
	return additions, deletions
}

// FilesByCategory returns the changed files of the given category, in order.
func FilesByCategory(files []ChangedFile, category FileCategory) []ChangedFile {
	var out []ChangedFile
	for _, f := range files {
		if f.Category == category {
			out = append(out, f)
		}
	}
	return out
}

// SortedUnique returns a sorted copy of values without duplicates. It never returns nil.
func SortedUnique(values []string) []string {
	out := make([]string, 0, len(values))
	out = append(out, values...)
	slices.Sort(out)
	return slices.Compact(out)
}
