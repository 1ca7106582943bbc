package contract

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/huangsam/prisk/schema"
)

// Default values for configuration.
const (
	DefaultBaseRef   = "main"
	DefaultTargetRef = "HEAD"
	DefaultMaxDepth  = 3
	MaxMaxDepth      = 50
	DefaultPrecision = 1
	DefaultFailOn    = schema.HighRisk
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// FactorWeightsRaw holds custom factor weights from the YAML config file.
// Use float64 pointers so that omitted factors keep their default weight.
type FactorWeightsRaw struct {
	BreakingChanges *float64 `mapstructure:"breaking_changes"`
	UntestedChanges *float64 `mapstructure:"untested_changes"`
	BlastRadius     *float64 `mapstructure:"blast_radius"`
	DiffSize        *float64 `mapstructure:"diff_size"`
	ChangeScatter   *float64 `mapstructure:"change_scatter"`
	DocStaleness    *float64 `mapstructure:"doc_staleness"`
}

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	RepoPath  string
	BaseRef   string
	TargetRef string
	MaxDepth  int
	Workers   int
	Excludes  []string
	Detail    bool
	Precision int

	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	FailOn schema.RiskLevel

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	// Weights is the final weight for every factor, computed from defaults + custom overrides
	Weights map[schema.FactorName]float64
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Workers        int    `mapstructure:"workers"`
	Exclude        string `mapstructure:"exclude"`
	Precision      int    `mapstructure:"precision"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`

	// --- Fields from analyzeCmd.Flags() and checkCmd.Flags() ---
	BaseRef    string `mapstructure:"base-ref"`
	TargetRef  string `mapstructure:"target-ref"`
	MaxDepth   int    `mapstructure:"max-depth"`
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Detail     bool   `mapstructure:"detail"`

	// --- Fields from checkCmd.Flags() ---
	FailOn string `mapstructure:"fail-on"`

	// --- Custom weights from config file ---
	Weights FactorWeightsRaw `mapstructure:"weights"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Excludes != nil {
		clone.Excludes = make([]string, len(c.Excludes))
		copy(clone.Excludes, c.Excludes)
	}
	if c.Weights != nil {
		clone.Weights = make(map[schema.FactorName]float64, len(c.Weights))
		maps.Copy(clone.Weights, c.Weights)
	}
	return &clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processRefs(cfg, input); err != nil {
		return err
	}
	if err := processFactorWeights(cfg, input); err != nil {
		return err
	}
	if err := resolveGitPath(ctx, cfg, client, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Width = input.Width

	cfg.UseColors = true
	if input.Color != "" {
		colors, err := ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid --color value: %w", err)
		}
		cfg.UseColors = colors
	}

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Depth Validation ---
	if input.MaxDepth < 0 || input.MaxDepth > MaxMaxDepth {
		return fmt.Errorf("max-depth must be between 0 and %d (received %d)", MaxMaxDepth, input.MaxDepth)
	}
	cfg.MaxDepth = input.MaxDepth

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, markdown, json, csv, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 4. Gate Validation ---
	cfg.FailOn = DefaultFailOn
	if input.FailOn != "" {
		cfg.FailOn = schema.RiskLevel(strings.ToLower(input.FailOn))
		if _, ok := schema.ValidRiskLevels[cfg.FailOn]; !ok {
			return fmt.Errorf("invalid fail-on level '%s'. must be low, medium, high, critical", input.FailOn)
		}
	}

	// --- 5. Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- 6. Excludes Processing ---
	cfg.Excludes = ParseExcludes(input.Exclude)

	return nil
}

// ParseExcludes splits a comma-separated exclude list into trimmed, non-empty patterns.
func ParseExcludes(s string) []string {
	excludes := []string{}
	for p := range strings.SplitSeq(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			excludes = append(excludes, trimmed)
		}
	}
	return excludes
}

// processRefs handles the base and target references.
func processRefs(cfg *Config, input *ConfigRawInput) error {
	cfg.BaseRef = strings.TrimSpace(input.BaseRef)
	cfg.TargetRef = strings.TrimSpace(input.TargetRef)
	if cfg.BaseRef == "" {
		cfg.BaseRef = DefaultBaseRef
	}
	if cfg.TargetRef == "" {
		cfg.TargetRef = DefaultTargetRef
	}
	if strings.HasPrefix(cfg.BaseRef, "-") || strings.HasPrefix(cfg.TargetRef, "-") {
		return fmt.Errorf("references must not start with '-' (base %q, target %q)", cfg.BaseRef, cfg.TargetRef)
	}
	return nil
}

// ProcessWeightsRawInput merges custom weights over the defaults.
// If validateSum is true, it validates that the merged weights sum to 1.0.
func ProcessWeightsRawInput(weights FactorWeightsRaw, validateSum bool) (map[schema.FactorName]float64, error) {
	result := schema.GetDefaultWeights()

	overrides := map[schema.FactorName]*float64{
		schema.FactorBreakingChanges: weights.BreakingChanges,
		schema.FactorUntestedChanges: weights.UntestedChanges,
		schema.FactorBlastRadius:     weights.BlastRadius,
		schema.FactorDiffSize:        weights.DiffSize,
		schema.FactorChangeScatter:   weights.ChangeScatter,
		schema.FactorDocStaleness:    weights.DocStaleness,
	}
	for name, w := range overrides {
		if w == nil {
			continue
		}
		if *w <= 0 || *w > 1 {
			return nil, fmt.Errorf("weight for factor %s must be in (0, 1], got %.3f", name, *w)
		}
		result[name] = *w
	}

	if validateSum {
		sum := 0.0
		for _, w := range result {
			sum += w
		}
		if sum < 0.999 || sum > 1.001 {
			return nil, fmt.Errorf("factor weights must sum to 1.0, got %.3f", sum)
		}
	}

	return result, nil
}

// processFactorWeights computes the final cfg.Weights map.
func processFactorWeights(cfg *Config, input *ConfigRawInput) error {
	weights, err := ProcessWeightsRawInput(input.Weights, true)
	if err != nil {
		return err
	}
	cfg.Weights = weights
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveGitPath resolves the Git repository root from the positional path.
func resolveGitPath(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	searchPath := input.RepoPathStr
	if searchPath == "" {
		searchPath = "."
	}
	absSearchPath, err := filepath.Abs(searchPath)
	if err != nil {
		return err
	}
	absSearchPath = filepath.Clean(absSearchPath)

	gitContextPath := absSearchPath
	if info, statErr := os.Stat(absSearchPath); statErr == nil && !info.IsDir() {
		gitContextPath = filepath.Dir(absSearchPath)
	}

	gitRoot, err := client.GetRepoRoot(ctx, gitContextPath)
	if err != nil {
		return err
	}
	cfg.RepoPath = gitRoot
	return nil
}
