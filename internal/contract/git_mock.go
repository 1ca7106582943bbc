package contract

import (
	"context"

	"github.com/huangsam/prisk/schema"
	"github.com/stretchr/testify/mock"
)

// MockGitClient is a mock implementation of GitClient for testing.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	callArgs := []any{ctx, repoPath}
	for _, a := range args {
		callArgs = append(callArgs, a)
	}
	ret := m.Called(callArgs...)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// GetRepoRoot implements the GitClient interface.
func (m *MockGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	ret := m.Called(ctx, contextPath)
	return ret.String(0), ret.Error(1)
}

// GetRepoHash implements the GitClient interface.
func (m *MockGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	ret := m.Called(ctx, repoPath)
	return ret.String(0), ret.Error(1)
}

// IsWorkingTreeDirty implements the GitClient interface.
func (m *MockGitClient) IsWorkingTreeDirty(ctx context.Context, repoPath string) (bool, error) {
	ret := m.Called(ctx, repoPath)
	return ret.Bool(0), ret.Error(1)
}

// ResolveRef implements the GitClient interface.
func (m *MockGitClient) ResolveRef(ctx context.Context, repoPath string, ref string) (string, error) {
	ret := m.Called(ctx, repoPath, ref)
	return ret.String(0), ret.Error(1)
}

// MergeBase implements the GitClient interface.
func (m *MockGitClient) MergeBase(ctx context.Context, repoPath string, a, b string) (string, error) {
	ret := m.Called(ctx, repoPath, a, b)
	return ret.String(0), ret.Error(1)
}

// Diff implements the GitClient interface.
func (m *MockGitClient) Diff(ctx context.Context, repoPath string, base, head string, paths ...string) (string, error) {
	callArgs := []any{ctx, repoPath, base, head}
	for _, p := range paths {
		callArgs = append(callArgs, p)
	}
	ret := m.Called(callArgs...)
	return ret.String(0), ret.Error(1)
}

// ListChangedFiles implements the GitClient interface.
func (m *MockGitClient) ListChangedFiles(ctx context.Context, repoPath string, base, head string) ([]schema.FileChange, error) {
	ret := m.Called(ctx, repoPath, base, head)
	changes, _ := ret.Get(0).([]schema.FileChange)
	return changes, ret.Error(1)
}

// ReadFileAtRevision implements the GitClient interface.
func (m *MockGitClient) ReadFileAtRevision(ctx context.Context, repoPath string, rev string, path string) (string, error) {
	ret := m.Called(ctx, repoPath, rev, path)
	return ret.String(0), ret.Error(1)
}

// SearchPattern implements the GitClient interface.
func (m *MockGitClient) SearchPattern(ctx context.Context, repoPath string, rev string, pattern string, globs ...string) ([]schema.SearchMatch, error) {
	callArgs := []any{ctx, repoPath, rev, pattern}
	for _, g := range globs {
		callArgs = append(callArgs, g)
	}
	ret := m.Called(callArgs...)
	matches, _ := ret.Get(0).([]schema.SearchMatch)
	return matches, ret.Error(1)
}

// ListFilesAtRef implements the GitClient interface.
func (m *MockGitClient) ListFilesAtRef(ctx context.Context, repoPath string, ref string) ([]string, error) {
	ret := m.Called(ctx, repoPath, ref)
	files, _ := ret.Get(0).([]string)
	return files, ret.Error(1)
}
