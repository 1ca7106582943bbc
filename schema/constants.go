package schema

// Custom string types for type safety.
type (
	// FileStatus represents how a file changed between two revisions.
	FileStatus string

	// FileCategory represents the role of a changed file.
	FileCategory string

	// BreakingChangeType represents the kind of API break detected.
	BreakingChangeType string

	// Severity represents how disruptive a breaking change is.
	Severity string

	// RiskLevel represents the bucket derived from the overall risk score.
	RiskLevel string

	// FactorName represents keys used for risk factors and their weights.
	FactorName string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string
)

// All file statuses supported.
const (
	StatusAdded    FileStatus = "added"
	StatusModified FileStatus = "modified"
	StatusDeleted  FileStatus = "deleted"
	StatusRenamed  FileStatus = "renamed"
	StatusCopied   FileStatus = "copied"
)

// All file categories supported.
const (
	CategorySource FileCategory = "source"
	CategoryTest   FileCategory = "test"
	CategoryDoc    FileCategory = "doc"
	CategoryConfig FileCategory = "config"
	CategoryOther  FileCategory = "other"
)

// All breaking change types supported.
const (
	RemovedExport    BreakingChangeType = "removed_export"
	ChangedSignature BreakingChangeType = "changed_signature"
	ChangedType      BreakingChangeType = "changed_type"
	RenamedExport    BreakingChangeType = "renamed_export" // reserved; renames are never inferred
)

// All severities supported.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// All risk levels supported, ascending.
const (
	LowRisk      RiskLevel = "low"
	MediumRisk   RiskLevel = "medium"
	HighRisk     RiskLevel = "high"
	CriticalRisk RiskLevel = "critical"
)

// Risk factor names used in the scoring logic.
const (
	FactorBreakingChanges FactorName = "breaking_changes"
	FactorDiffSize        FactorName = "diff_size"
	FactorBlastRadius     FactorName = "blast_radius"
	FactorUntestedChanges FactorName = "untested_changes"
	FactorDocStaleness    FactorName = "doc_staleness"
	FactorChangeScatter   FactorName = "change_scatter"
)

// All output modes supported.
const (
	TextOut     OutputMode = "text" // default
	MarkdownOut OutputMode = "markdown"
	JSONOut     OutputMode = "json"
	CSVOut      OutputMode = "csv"
	ParquetOut  OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ImportsEdge is the only edge type emitted in an impact graph.
const ImportsEdge = "imports"

// AllFactorNames returns the risk factors in their canonical order.
var AllFactorNames = []FactorName{
	FactorBreakingChanges,
	FactorDiffSize,
	FactorBlastRadius,
	FactorUntestedChanges,
	FactorDocStaleness,
	FactorChangeScatter,
}

// AllRiskLevels returns risk levels in ascending order.
var AllRiskLevels = []RiskLevel{LowRisk, MediumRisk, HighRisk, CriticalRisk}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:     {},
	MarkdownOut: {},
	JSONOut:     {},
	CSVOut:      {},
	ParquetOut:  {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidRiskLevels lists all valid risk levels.
var ValidRiskLevels = map[RiskLevel]struct{}{
	LowRisk:      {},
	MediumRisk:   {},
	HighRisk:     {},
	CriticalRisk: {},
}

// ValidFactorNames lists all valid risk factor names.
var ValidFactorNames = map[FactorName]struct{}{
	FactorBreakingChanges: {},
	FactorDiffSize:        {},
	FactorBlastRadius:     {},
	FactorUntestedChanges: {},
	FactorDocStaleness:    {},
	FactorChangeScatter:   {},
}

// SourceExtensions are the recognized source file extensions, in resolution order.
var SourceExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// IndexFileNames are tried when a relative import points at a directory.
var IndexFileNames = []string{"index.ts", "index.tsx", "index.js", "index.jsx", "index.mjs", "index.cjs"}

// DocExtensions are the recognized documentation file extensions.
var DocExtensions = []string{".md", ".mdx", ".markdown", ".rst", ".adoc", ".txt"}

// IgnoredDirs are never descended into when discovering files.
var IgnoredDirs = []string{"node_modules", ".git", "dist", "build", "out", "coverage", "vendor", ".next"}

// Rank returns the position of the level in AllRiskLevels, or -1 if unknown.
func (l RiskLevel) Rank() int {
	for i, lvl := range AllRiskLevels {
		if lvl == l {
			return i
		}
	}
	return -1
}

// AtLeast reports whether l is the same as or above other.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Rank() >= other.Rank()
}
