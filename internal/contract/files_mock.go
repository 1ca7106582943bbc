package contract

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockFileFinder is a mock implementation of FileFinder for testing.
type MockFileFinder struct {
	mock.Mock
}

var _ FileFinder = &MockFileFinder{} // Compile-time check

// DiscoverFiles implements the FileFinder interface.
func (m *MockFileFinder) DiscoverFiles(ctx context.Context, root string, patterns []string, ignore []string) ([]string, error) {
	ret := m.Called(ctx, root, patterns, ignore)
	files, _ := ret.Get(0).([]string)
	return files, ret.Error(1)
}

// ReadFile implements the FileFinder interface.
func (m *MockFileFinder) ReadFile(ctx context.Context, root string, path string) (string, error) {
	ret := m.Called(ctx, root, path)
	return ret.String(0), ret.Error(1)
}
