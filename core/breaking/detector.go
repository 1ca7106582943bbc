package breaking

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"
)

// Result holds everything the detector reports for one change.
type Result struct {
	BreakingChanges []schema.BreakingChange
	NewExports      []schema.NewExport
}

// Detect compares the exports of every changed source file between base and head.
// Deleted files lose all their exports. Modified and renamed files are compared
// symbol by symbol. Added and copied files cannot break consumers.
func Detect(
	ctx context.Context,
	client contract.GitClient,
	repoPath, base, head string,
	changed []schema.ChangedFile,
	deps schema.ReverseDependencyMap,
) (Result, error) {
	result := Result{
		BreakingChanges: make([]schema.BreakingChange, 0),
		NewExports:      make([]schema.NewExport, 0),
	}

	for _, f := range changed {
		if f.Category != schema.CategorySource {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		switch f.Status {
		case schema.StatusAdded, schema.StatusCopied:
			continue
		case schema.StatusDeleted:
			before, err := client.ReadFileAtRevision(ctx, repoPath, base, f.Path)
			if err != nil {
				return Result{}, fmt.Errorf("read %s at base: %w", f.Path, err)
			}
			consumers := consumersOf(deps, f)
			for _, sym := range ExtractExports(before) {
				result.BreakingChanges = append(result.BreakingChanges, removed(f.Path, sym, consumers))
			}
		default:
			oldPath := cmp.Or(f.OldPath, f.Path)
			before, err := client.ReadFileAtRevision(ctx, repoPath, base, oldPath)
			if err != nil {
				return Result{}, fmt.Errorf("read %s at base: %w", oldPath, err)
			}
			after, err := client.ReadFileAtRevision(ctx, repoPath, head, f.Path)
			if err != nil {
				return Result{}, fmt.Errorf("read %s at head: %w", f.Path, err)
			}
			changes, added := Compare(f.Path, ExtractExports(before), ExtractExports(after), consumersOf(deps, f))
			result.BreakingChanges = append(result.BreakingChanges, changes...)
			result.NewExports = append(result.NewExports, added...)
		}
	}

	slices.SortFunc(result.BreakingChanges, func(a, b schema.BreakingChange) int {
		return cmp.Or(
			cmp.Compare(a.FilePath, b.FilePath),
			cmp.Compare(a.SymbolName, b.SymbolName),
			cmp.Compare(a.Type, b.Type),
		)
	})
	slices.SortFunc(result.NewExports, func(a, b schema.NewExport) int {
		return cmp.Or(cmp.Compare(a.FilePath, b.FilePath), cmp.Compare(a.SymbolName, b.SymbolName))
	})
	return result, nil
}

// Compare diffs two export lists of the same file. Symbols missing after the
// change are removals, differing signatures are signature or type changes, and
// symbols only present after the change are new exports.
func Compare(path string, before, after []schema.ExportedSymbol, consumers []string) ([]schema.BreakingChange, []schema.NewExport) {
	afterByName := make(map[string]schema.ExportedSymbol, len(after))
	for _, sym := range after {
		afterByName[sym.Name] = sym
	}
	beforeNames := make(map[string]struct{}, len(before))

	var changes []schema.BreakingChange
	for _, old := range before {
		beforeNames[old.Name] = struct{}{}
		cur, ok := afterByName[old.Name]
		if !ok {
			changes = append(changes, removed(path, old, consumers))
			continue
		}
		if old.Kind == KindReexport || cur.Kind == KindReexport || old.Signature == cur.Signature {
			continue
		}
		typeLike := old.IsTypeOnly() || cur.IsTypeOnly()
		changeType := schema.ChangedSignature
		if typeLike {
			changeType = schema.ChangedType
		}
		changes = append(changes, schema.BreakingChange{
			FilePath:   path,
			SymbolName: old.Name,
			Type:       changeType,
			Before:     &old.Signature,
			After:      &cur.Signature,
			Severity:   GradeSeverity(old.Signature, cur.Signature, typeLike),
			Consumers:  consumers,
		})
	}

	var added []schema.NewExport
	for _, sym := range after {
		if _, ok := beforeNames[sym.Name]; !ok {
			added = append(added, schema.NewExport{FilePath: path, SymbolName: sym.Name, Signature: sym.Signature})
		}
	}
	return changes, added
}

// removed builds a removed_export record for sym.
func removed(path string, sym schema.ExportedSymbol, consumers []string) schema.BreakingChange {
	return schema.BreakingChange{
		FilePath:   path,
		SymbolName: sym.Name,
		Type:       schema.RemovedExport,
		Before:     &sym.Signature,
		Severity:   schema.SeverityHigh,
		Consumers:  consumers,
	}
}

// consumersOf returns the importers of a file under its current and previous paths.
func consumersOf(deps schema.ReverseDependencyMap, f schema.ChangedFile) []string {
	consumers := deps.ImportersOf(f.Path)
	if f.OldPath != "" && f.OldPath != f.Path {
		consumers = schema.SortedUnique(append(consumers, deps.ImportersOf(f.OldPath)...))
	}
	return consumers
}
