package contract

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/huangsam/prisk/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfGitNotAvailable skips the test if git binary is not found in PATH
func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
}

// gitRun runs git in dir and fails the test on error.
func gitRun(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

// writeFile writes content to a repo-relative path, creating directories.
func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

// newTestRepo creates a repository with a main branch and a feature branch.
// main: src/a.ts, src/b.ts, src/old.ts; feature: a.ts modified, b.ts deleted, old.ts renamed, c.ts added.
func newTestRepo(t *testing.T) string {
	t.Helper()
	skipIfGitNotAvailable(t)
	dir := t.TempDir()
	gitRun(t, dir, "init", "-q", "-b", "main")
	gitRun(t, dir, "config", "user.email", "test@example.com")
	gitRun(t, dir, "config", "user.name", "Test")
	gitRun(t, dir, "config", "commit.gpgsign", "false")

	writeFile(t, dir, "src/a.ts", "export function a(x: number) {\n  return x;\n}\n")
	writeFile(t, dir, "src/b.ts", "export const b = 1;\n")
	writeFile(t, dir, "src/old.ts", "export const renamed = 'value';\nexport const other = 2;\nexport const third = 3;\n")
	gitRun(t, dir, "add", ".")
	gitRun(t, dir, "commit", "-q", "-m", "base")

	gitRun(t, dir, "checkout", "-q", "-b", "feature")
	writeFile(t, dir, "src/a.ts", "export function a(x: number, y: number) {\n  return x + y;\n}\n")
	gitRun(t, dir, "rm", "-q", "src/b.ts")
	gitRun(t, dir, "mv", "src/old.ts", "src/new.ts")
	writeFile(t, dir, "src/c.ts", "export const c = 3;\n")
	gitRun(t, dir, "add", ".")
	gitRun(t, dir, "commit", "-q", "-m", "feature")
	return dir
}

func TestMockGitClient_Run(t *testing.T) {
	mockClient := new(MockGitClient)
	ctx := context.Background()
	expectedOutput := []byte("a1b2c3d commit message")
	expectedError := errors.New("mocked git error")

	mockClient.
		On("Run", ctx, "/path/to/repo", "log", "-1", "--oneline").
		Return(expectedOutput, expectedError).
		Once()

	actualOutput, actualError := mockClient.Run(ctx, "/path/to/repo", "log", "-1", "--oneline")
	assert.Equal(t, expectedOutput, actualOutput)
	assert.Equal(t, expectedError, actualError)
	mockClient.AssertExpectations(t)
}

func TestNewLocalGitClient(t *testing.T) {
	client := NewLocalGitClient()
	assert.NotNil(t, client)
	assert.IsType(t, &LocalGitClient{}, client)
}

func TestParseNameStatus(t *testing.T) {
	out := []byte("M\x00src/a.ts\x00D\x00src/b.ts\x00R087\x00src/old.ts\x00src/new.ts\x00A\x00src/c.ts\x00C100\x00x.ts\x00y.ts\x00")
	changes, err := ParseNameStatus(out)
	require.NoError(t, err)
	assert.Equal(t, []schema.FileChange{
		{Path: "src/a.ts", Status: schema.StatusModified},
		{Path: "src/b.ts", Status: schema.StatusDeleted},
		{Path: "src/new.ts", OldPath: "src/old.ts", Status: schema.StatusRenamed},
		{Path: "src/c.ts", Status: schema.StatusAdded},
		{Path: "y.ts", OldPath: "x.ts", Status: schema.StatusCopied},
	}, changes)

	empty, err := ParseNameStatus(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseNameStatus([]byte("R100\x00only-old.ts\x00"))
	assert.Error(t, err)
}

func TestParseNumstat(t *testing.T) {
	out := []byte("3\t1\tsrc/a.ts\x00-\t-\tlogo.png\x000\t0\t\x00src/old.ts\x00src/new.ts\x00")
	counts := ParseNumstat(out)
	assert.Equal(t, [2]int{3, 1}, counts["src/a.ts"])
	assert.Equal(t, [2]int{0, 0}, counts["logo.png"])
	assert.Equal(t, [2]int{0, 0}, counts["src/new.ts"])
	_, hasOld := counts["src/old.ts"]
	assert.False(t, hasOld)
}

func TestParseGrepOutput(t *testing.T) {
	out := []byte("HEAD:src/a.ts:12:import { b } from './b';\nHEAD:docs/x:y.md:3:see a:1\n")
	matches := ParseGrepOutput(out, "HEAD")
	assert.Equal(t, []schema.SearchMatch{
		{Path: "src/a.ts", Line: 12, Text: "import { b } from './b';"},
		{Path: "docs/x:y.md", Line: 3, Text: "see a:1"},
	}, matches)

	assert.Empty(t, ParseGrepOutput(nil, ""))
}

func TestLocalGitClient_Run(t *testing.T) {
	skipIfGitNotAvailable(t)
	client := NewLocalGitClient()
	ctx := context.Background()

	_, err := client.Run(ctx, "/nonexistent/path", "status")
	assert.Error(t, err)

	dir := newTestRepo(t)
	_, err = client.Run(ctx, dir, "invalid-command")
	var cmdErr *GitCommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.NotZero(t, cmdErr.ExitCode)
}

func TestLocalGitClient_Refs(t *testing.T) {
	dir := newTestRepo(t)
	client := NewLocalGitClient()
	ctx := context.Background()

	root, err := client.GetRepoRoot(ctx, filepath.Join(dir, "src"))
	require.NoError(t, err)
	expectedRoot, _ := filepath.EvalSymlinks(dir)
	actualRoot, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, expectedRoot, actualRoot)

	head, err := client.GetRepoHash(ctx, dir)
	require.NoError(t, err)
	resolved, err := client.ResolveRef(ctx, dir, "feature")
	require.NoError(t, err)
	assert.Equal(t, head, resolved)

	_, err = client.ResolveRef(ctx, dir, "no-such-branch")
	assert.ErrorIs(t, err, ErrRefNotFound)

	mainHash, err := client.ResolveRef(ctx, dir, "main")
	require.NoError(t, err)
	base, err := client.MergeBase(ctx, dir, "main", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, mainHash, base)

	_, err = client.MergeBase(ctx, dir, "no-such-branch", "HEAD")
	assert.ErrorIs(t, err, ErrRefNotFound)

	dirty, err := client.IsWorkingTreeDirty(ctx, dir)
	require.NoError(t, err)
	assert.False(t, dirty)

	writeFile(t, dir, "scratch.txt", "x")
	dirty, err = client.IsWorkingTreeDirty(ctx, dir)
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestLocalGitClient_ListChangedFiles(t *testing.T) {
	dir := newTestRepo(t)
	client := NewLocalGitClient()
	ctx := context.Background()

	changes, err := client.ListChangedFiles(ctx, dir, "main", "feature")
	require.NoError(t, err)

	byPath := make(map[string]schema.FileChange)
	for _, c := range changes {
		byPath[c.Path] = c
	}
	require.Len(t, byPath, 4)
	assert.Equal(t, schema.StatusModified, byPath["src/a.ts"].Status)
	assert.Equal(t, 2, byPath["src/a.ts"].Additions)
	assert.Equal(t, 2, byPath["src/a.ts"].Deletions)
	assert.Equal(t, schema.StatusDeleted, byPath["src/b.ts"].Status)
	assert.Equal(t, 1, byPath["src/b.ts"].Deletions)
	assert.Equal(t, schema.StatusAdded, byPath["src/c.ts"].Status)
	assert.Equal(t, schema.StatusRenamed, byPath["src/new.ts"].Status)
	assert.Equal(t, "src/old.ts", byPath["src/new.ts"].OldPath)

	patch, err := client.Diff(ctx, dir, "main", "feature", "src/a.ts")
	require.NoError(t, err)
	assert.Contains(t, patch, "@@")
	assert.Contains(t, patch, "+export function a(x: number, y: number) {")
}

func TestLocalGitClient_ReadFileAtRevision(t *testing.T) {
	dir := newTestRepo(t)
	client := NewLocalGitClient()
	ctx := context.Background()

	content, err := client.ReadFileAtRevision(ctx, dir, "main", "src/b.ts")
	require.NoError(t, err)
	assert.Equal(t, "export const b = 1;\n", content)

	_, err = client.ReadFileAtRevision(ctx, dir, "feature", "src/b.ts")
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = client.ReadFileAtRevision(ctx, dir, "no-such-branch", "src/b.ts")
	assert.ErrorIs(t, err, ErrRefNotFound)
	assert.NotErrorIs(t, err, ErrFileNotFound)
}

func TestLocalGitClient_SearchPattern(t *testing.T) {
	dir := newTestRepo(t)
	client := NewLocalGitClient()
	ctx := context.Background()

	matches, err := client.SearchPattern(ctx, dir, "feature", `export const c\b`)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, schema.SearchMatch{Path: "src/c.ts", Line: 1, Text: "export const c = 3;"}, matches[0])

	matches, err = client.SearchPattern(ctx, dir, "feature", "definitely-not-present-anywhere")
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)

	matches, err = client.SearchPattern(ctx, dir, "main", "export", "*.ts")
	require.NoError(t, err)
	assert.Len(t, matches, 5)
}

func TestLocalGitClient_ListFilesAtRef(t *testing.T) {
	dir := newTestRepo(t)
	client := NewLocalGitClient()
	ctx := context.Background()

	files, err := client.ListFilesAtRef(ctx, dir, "feature")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/a.ts", "src/c.ts", "src/new.ts"}, files)

	_, err = client.ListFilesAtRef(ctx, dir, "invalid-ref")
	assert.Error(t, err)
}
