package breaking

import (
	"context"
	"testing"

	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sourceChange(path string, status schema.FileStatus) schema.ChangedFile {
	return schema.ChangedFile{Path: path, Status: status, Category: schema.CategorySource}
}

func TestDetectDeletedFile(t *testing.T) {
	ctx := context.Background()
	client := new(contract.MockGitClient)
	client.On("ReadFileAtRevision", ctx, "/repo", "base", "src/config.ts").
		Return("export function parseConfig(path: string) {\n  return path\n}\n", nil)

	deps := schema.NewReverseDependencyMap()
	deps.Dangling["src/config"] = []string{"src/cli.ts", "src/app.ts"}

	result, err := Detect(ctx, client, "/repo", "base", "head",
		[]schema.ChangedFile{sourceChange("src/config.ts", schema.StatusDeleted)}, deps)
	require.NoError(t, err)

	require.Len(t, result.BreakingChanges, 1)
	bc := result.BreakingChanges[0]
	assert.Equal(t, "src/config.ts", bc.FilePath)
	assert.Equal(t, "parseConfig", bc.SymbolName)
	assert.Equal(t, schema.RemovedExport, bc.Type)
	assert.Equal(t, schema.SeverityHigh, bc.Severity)
	assert.Equal(t, []string{"src/app.ts", "src/cli.ts"}, bc.Consumers)
	require.NotNil(t, bc.Before)
	assert.Nil(t, bc.After)
	assert.Empty(t, result.NewExports)
}

func TestDetectModifiedFile(t *testing.T) {
	ctx := context.Background()
	client := new(contract.MockGitClient)
	client.On("ReadFileAtRevision", ctx, "/repo", "base", "src/api.ts").Return(
		"export function fetchUser(id: string) {}\n"+
			"export function legacy() {}\n"+
			"export interface User { id: string }\n"+
			"export const TIMEOUT = 10\n", nil)
	client.On("ReadFileAtRevision", ctx, "/repo", "head", "src/api.ts").Return(
		"export function fetchUser(id: string, opts?: Options) {}\n"+
			"export interface User { id: string; name: string }\n"+
			"export const TIMEOUT = 20\n"+
			"export function fetchTeam(id: string) {}\n", nil)

	deps := schema.NewReverseDependencyMap()
	deps.Dependents["src/api.ts"] = []string{"src/ui.ts"}

	result, err := Detect(ctx, client, "/repo", "base", "head",
		[]schema.ChangedFile{sourceChange("src/api.ts", schema.StatusModified)}, deps)
	require.NoError(t, err)

	var summary [][3]string
	for _, bc := range result.BreakingChanges {
		summary = append(summary, [3]string{bc.SymbolName, string(bc.Type), string(bc.Severity)})
		assert.Equal(t, []string{"src/ui.ts"}, bc.Consumers)
	}
	assert.Equal(t, [][3]string{
		{"User", "changed_type", "medium"},
		{"fetchUser", "changed_signature", "low"},
		{"legacy", "removed_export", "high"},
	}, summary)
	assert.Equal(t, []schema.NewExport{
		{FilePath: "src/api.ts", SymbolName: "fetchTeam", Signature: "function fetchTeam(id:string)"},
	}, result.NewExports)
}

func TestDetectRenamedFileReadsOldPath(t *testing.T) {
	ctx := context.Background()
	client := new(contract.MockGitClient)
	client.On("ReadFileAtRevision", ctx, "/repo", "base", "src/old.ts").Return("export const a = 1\nexport const b = 2\n", nil)
	client.On("ReadFileAtRevision", ctx, "/repo", "head", "src/new.ts").Return("export const a = 1\n", nil)

	deps := schema.NewReverseDependencyMap()
	deps.Dangling["src/old"] = []string{"src/x.ts"}
	deps.Dependents["src/new.ts"] = []string{"src/y.ts"}

	f := sourceChange("src/new.ts", schema.StatusRenamed)
	f.OldPath = "src/old.ts"
	result, err := Detect(ctx, client, "/repo", "base", "head", []schema.ChangedFile{f}, deps)
	require.NoError(t, err)

	require.Len(t, result.BreakingChanges, 1)
	assert.Equal(t, "b", result.BreakingChanges[0].SymbolName)
	assert.Equal(t, "src/new.ts", result.BreakingChanges[0].FilePath)
	assert.Equal(t, []string{"src/x.ts", "src/y.ts"}, result.BreakingChanges[0].Consumers)
}

func TestDetectSkipsAddedAndNonSource(t *testing.T) {
	client := new(contract.MockGitClient)
	changed := []schema.ChangedFile{
		sourceChange("src/new.ts", schema.StatusAdded),
		sourceChange("src/copy.ts", schema.StatusCopied),
		{Path: "README.md", Status: schema.StatusDeleted, Category: schema.CategoryDoc},
		{Path: "src/a.test.ts", Status: schema.StatusModified, Category: schema.CategoryTest},
	}
	result, err := Detect(context.Background(), client, "/repo", "base", "head", changed, schema.NewReverseDependencyMap())
	require.NoError(t, err)
	assert.Empty(t, result.BreakingChanges)
	assert.NotNil(t, result.BreakingChanges)
	client.AssertNotCalled(t, "ReadFileAtRevision", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDetectPropagatesReadErrors(t *testing.T) {
	ctx := context.Background()
	client := new(contract.MockGitClient)
	client.On("ReadFileAtRevision", ctx, "/repo", "base", "src/a.ts").Return("export const a = 1\n", nil)
	client.On("ReadFileAtRevision", ctx, "/repo", "head", "src/a.ts").Return("", contract.ErrFileNotFound)

	_, err := Detect(ctx, client, "/repo", "base", "head",
		[]schema.ChangedFile{sourceChange("src/a.ts", schema.StatusModified)}, schema.NewReverseDependencyMap())
	assert.ErrorIs(t, err, contract.ErrFileNotFound)
}

func TestDetectSortsAcrossFiles(t *testing.T) {
	ctx := context.Background()
	client := new(contract.MockGitClient)
	client.On("ReadFileAtRevision", ctx, "/repo", "base", "src/z.ts").Return("export const y = 1\nexport const x = 1\n", nil)
	client.On("ReadFileAtRevision", ctx, "/repo", "base", "src/a.ts").Return("export const q = 1\n", nil)

	changed := []schema.ChangedFile{
		sourceChange("src/z.ts", schema.StatusDeleted),
		sourceChange("src/a.ts", schema.StatusDeleted),
	}
	result, err := Detect(ctx, client, "/repo", "base", "head", changed, schema.NewReverseDependencyMap())
	require.NoError(t, err)

	var order []string
	for _, bc := range result.BreakingChanges {
		order = append(order, bc.FilePath+"#"+bc.SymbolName)
		assert.Equal(t, []string{}, bc.Consumers)
	}
	assert.Equal(t, []string{"src/a.ts#q", "src/z.ts#x", "src/z.ts#y"}, order)
}

func TestCompareSkipsReexports(t *testing.T) {
	before := []schema.ExportedSymbol{{Name: "a", Kind: KindReexport, Signature: "a"}}
	after := []schema.ExportedSymbol{{Name: "a", Kind: KindFunction, Signature: "function a()"}}
	changes, added := Compare("src/i.ts", before, after, nil)
	assert.Empty(t, changes)
	assert.Empty(t, added)
}

func TestCompareDefaultExportRename(t *testing.T) {
	before := ExtractExports("export default function parse(input: string) {}\n")
	after := ExtractExports("export default function parseInput(input: string) {}\n")
	changes, added := Compare("src/parse.ts", before, after, []string{"src/app.ts"})
	assert.Empty(t, changes)
	assert.Empty(t, added)

	anonymous := ExtractExports("export default function (input: string) {}\n")
	changes, added = Compare("src/parse.ts", before, anonymous, nil)
	assert.Empty(t, changes)
	assert.Empty(t, added)
}

func TestCompareDefaultExportRemoved(t *testing.T) {
	before := ExtractExports("export default class Parser {}\nexport const VERSION = 1\n")
	after := ExtractExports("export const VERSION = 1\n")
	changes, added := Compare("src/parser.ts", before, after, []string{"src/app.ts"})
	require.Len(t, changes, 1)
	assert.Equal(t, "default", changes[0].SymbolName)
	assert.Equal(t, schema.RemovedExport, changes[0].Type)
	assert.Equal(t, schema.SeverityHigh, changes[0].Severity)
	assert.Empty(t, added)
}

func TestCompareLaterDeclaratorRemoved(t *testing.T) {
	before := ExtractExports("export const a = 1, b = 2\n")
	after := ExtractExports("export const a = 1\n")
	changes, added := Compare("src/consts.ts", before, after, nil)
	require.Len(t, changes, 1)
	assert.Equal(t, "b", changes[0].SymbolName)
	assert.Equal(t, schema.RemovedExport, changes[0].Type)
	assert.Empty(t, added)
}
