//go:build integration || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedPriskPath holds the path to a shared prisk binary built once for all tests.
	sharedPriskPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getPriskBinary returns the path to the prisk binary, building it once if needed.
func getPriskBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "prisk-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		priskPath := filepath.Join(tempDir, "prisk")
		buildCmd := exec.Command("go", "build", "-o", priskPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build prisk: %v\n%s", err, out))
		}

		sharedPriskPath = priskPath
	})

	return sharedPriskPath
}

// git runs a git command inside dir and fails the test on error.
func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=prisk", "GIT_AUTHOR_EMAIL=prisk@example.com",
		"GIT_COMMITTER_NAME=prisk", "GIT_COMMITTER_EMAIL=prisk@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return string(out)
}

// writeFile writes content to a repository-relative path, creating parents.
func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newFixtureRepo creates a repository with a main branch and a feature branch that
// removes an exported function still imported elsewhere and renames a module.
func newFixtureRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()

	git(t, dir, "init", "-q", "-b", "main")
	writeFile(t, dir, "src/parser.ts", "export function parse(input: string): Ast {\n  return build(input)\n}\n\nexport function tokenize(input: string): string[] {\n  return input.split(' ')\n}\n")
	writeFile(t, dir, "src/app.ts", "import { parse } from './parser'\n\nexport function run(src: string) {\n  return parse(src)\n}\n")
	writeFile(t, dir, "src/util.ts", "export const VERSION = '1.0.0'\n")
	writeFile(t, dir, "src/parser.test.ts", "import { parse } from './parser'\n")
	writeFile(t, dir, "README.md", "# Fixture\n\nCall `tokenize` from src/parser.ts.\nVersion lives in src/util.ts.\n")
	git(t, dir, "add", "-A")
	git(t, dir, "commit", "-q", "-m", "base")

	git(t, dir, "checkout", "-q", "-b", "feature")
	writeFile(t, dir, "src/parser.ts", "export function parse(input: string, strict: boolean): Ast {\n  return build(input)\n}\n")
	git(t, dir, "mv", "src/util.ts", "src/version.ts")
	writeFile(t, dir, "src/extra.ts", "export function helper() {}\n")
	git(t, dir, "add", "-A")
	git(t, dir, "commit", "-q", "-m", "feature")
	return dir
}

// runPrisk runs the prisk binary in dir and returns its stdout.
func runPrisk(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getPriskBinary(), args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			t.Logf("Command failed: %s\nStderr: %s", cmd.String(), exitErr.Stderr)
		}
	}
	return string(output), err
}
