package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/huangsam/prisk/schema"
)

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct{}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{}
}

// GitCommandError is returned by Run when git exits with a non-zero status.
type GitCommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *GitCommandError) Error() string {
	return fmt.Sprintf("git %s exited with status %d: %s", strings.Join(e.Args, " "), e.ExitCode, e.Stderr)
}

// exitCode extracts the git exit status from err, or -1.
func exitCode(err error) int {
	var cmdErr *GitCommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return -1
}

// stderrOf extracts the git stderr text from err.
func stderrOf(err error) string {
	var cmdErr *GitCommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Stderr
	}
	return ""
}

// Run executes a git command and returns its stdout output.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr := &GitCommandError{
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Stderr:   strings.TrimSpace(string(exitErr.Stderr)),
		}
		return nil, fmt.Errorf("git command failed in %q: %w", repoPath, cmdErr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// GetRepoRoot implements the GitClient interface.
func (c *LocalGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	out, err := c.Run(ctx, contextPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w. If this is not a Git repository, verify the path or run 'git init'", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// GetRepoHash implements the GitClient interface.
func (c *LocalGitClient) GetRepoHash(ctx context.Context, repoPath string) (string, error) {
	out, err := c.Run(ctx, repoPath, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// IsWorkingTreeDirty implements the GitClient interface.
func (c *LocalGitClient) IsWorkingTreeDirty(ctx context.Context, repoPath string) (bool, error) {
	out, err := c.Run(ctx, repoPath, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return len(bytes.TrimSpace(out)) > 0, nil
}

// ResolveRef implements the GitClient interface.
func (c *LocalGitClient) ResolveRef(ctx context.Context, repoPath string, ref string) (string, error) {
	out, err := c.Run(ctx, repoPath, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		if exitCode(err) > 0 {
			return "", fmt.Errorf("resolve %q: %w", ref, ErrRefNotFound)
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// MergeBase implements the GitClient interface.
func (c *LocalGitClient) MergeBase(ctx context.Context, repoPath string, a, b string) (string, error) {
	out, err := c.Run(ctx, repoPath, "merge-base", a, b)
	if err == nil {
		return strings.TrimSpace(string(out)), nil
	}
	// Prefer a precise error when one of the refs does not exist.
	for _, ref := range []string{a, b} {
		if _, refErr := c.ResolveRef(ctx, repoPath, ref); errors.Is(refErr, ErrRefNotFound) {
			return "", refErr
		}
	}
	return "", fmt.Errorf("merge-base %s %s: %w", a, b, err)
}

// Diff implements the GitClient interface.
func (c *LocalGitClient) Diff(ctx context.Context, repoPath string, base, head string, paths ...string) (string, error) {
	args := []string{"diff", "--no-color", "--no-ext-diff", "-M", "-C", base, head}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	out, err := c.Run(ctx, repoPath, args...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ListChangedFiles implements the GitClient interface.
func (c *LocalGitClient) ListChangedFiles(ctx context.Context, repoPath string, base, head string) ([]schema.FileChange, error) {
	statusOut, err := c.Run(ctx, repoPath, "diff", "--name-status", "-z", "-M", "-C", base, head)
	if err != nil {
		return nil, err
	}
	numstatOut, err := c.Run(ctx, repoPath, "diff", "--numstat", "-z", "-M", "-C", base, head)
	if err != nil {
		return nil, err
	}
	changes, err := ParseNameStatus(statusOut)
	if err != nil {
		return nil, err
	}
	counts := ParseNumstat(numstatOut)
	for i := range changes {
		if n, ok := counts[changes[i].Path]; ok {
			changes[i].Additions = n[0]
			changes[i].Deletions = n[1]
		}
	}
	return changes, nil
}

// ReadFileAtRevision implements the GitClient interface.
func (c *LocalGitClient) ReadFileAtRevision(ctx context.Context, repoPath string, rev string, path string) (string, error) {
	out, err := c.Run(ctx, repoPath, "show", rev+":"+path)
	if err != nil {
		stderr := stderrOf(err)
		switch {
		case strings.Contains(stderr, "does not exist"), strings.Contains(stderr, "exists on disk, but not in"):
			return "", fmt.Errorf("%s at %s: %w", path, rev, ErrFileNotFound)
		case strings.Contains(stderr, "invalid object name"), strings.Contains(stderr, "unknown revision"), strings.Contains(stderr, "bad revision"):
			return "", fmt.Errorf("%s at %s: %w", path, rev, ErrRefNotFound)
		}
		return "", err
	}
	return string(out), nil
}

// SearchPattern implements the GitClient interface.
func (c *LocalGitClient) SearchPattern(ctx context.Context, repoPath string, rev string, pattern string, globs ...string) ([]schema.SearchMatch, error) {
	args := []string{"grep", "-n", "-I", "-E", "-e", pattern}
	if rev != "" {
		args = append(args, rev)
	}
	if len(globs) > 0 {
		args = append(args, "--")
		args = append(args, globs...)
	}
	out, err := c.Run(ctx, repoPath, args...)
	if err != nil {
		if exitCode(err) == 1 { // git grep exits 1 when nothing matched
			return []schema.SearchMatch{}, nil
		}
		return nil, err
	}
	return ParseGrepOutput(out, rev), nil
}

// ListFilesAtRef implements the GitClient interface.
func (c *LocalGitClient) ListFilesAtRef(ctx context.Context, repoPath string, ref string) ([]string, error) {
	out, err := c.Run(ctx, repoPath, "ls-tree", "-r", "-z", "--name-only", ref)
	if err != nil {
		if strings.Contains(stderrOf(err), "Not a valid object name") {
			return nil, fmt.Errorf("list files at %s: %w", ref, ErrRefNotFound)
		}
		return nil, err
	}
	return splitNUL(out), nil
}

// ParseNameStatus parses the output of 'git diff --name-status -z'.
func ParseNameStatus(out []byte) ([]schema.FileChange, error) {
	tokens := splitNUL(out)
	changes := []schema.FileChange{}
	for i := 0; i < len(tokens); {
		code := tokens[i]
		if code == "" {
			i++
			continue
		}
		switch code[0] {
		case 'R', 'C':
			if i+2 >= len(tokens) {
				return nil, fmt.Errorf("truncated name-status entry %q", code)
			}
			status := schema.StatusRenamed
			if code[0] == 'C' {
				status = schema.StatusCopied
			}
			changes = append(changes, schema.FileChange{Path: tokens[i+2], OldPath: tokens[i+1], Status: status})
			i += 3
		default:
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("truncated name-status entry %q", code)
			}
			changes = append(changes, schema.FileChange{Path: tokens[i+1], Status: statusFromCode(code[0])})
			i += 2
		}
	}
	return changes, nil
}

// statusFromCode maps a single-letter git status to a FileStatus.
func statusFromCode(code byte) schema.FileStatus {
	switch code {
	case 'A':
		return schema.StatusAdded
	case 'D':
		return schema.StatusDeleted
	default: // M, T (type change) and U are all treated as modifications
		return schema.StatusModified
	}
}

// ParseNumstat parses the output of 'git diff --numstat -z' into additions and
// deletions keyed by the new path. Binary files count as zero lines.
func ParseNumstat(out []byte) map[string][2]int {
	counts := make(map[string][2]int)
	tokens := splitNUL(out)
	for i := 0; i < len(tokens); i++ {
		fields := strings.SplitN(tokens[i], "\t", 3)
		if len(fields) < 3 {
			continue
		}
		added, _ := strconv.Atoi(fields[0]) // "-" for binary files
		deleted, _ := strconv.Atoi(fields[1])
		path := fields[2]
		if path == "" {
			// Renames and copies are followed by the old and new paths.
			if i+2 >= len(tokens) {
				break
			}
			path = tokens[i+2]
			i += 2
		}
		counts[path] = [2]int{added, deleted}
	}
	return counts
}

var grepLinePattern = regexp.MustCompile(`^(.*?):(\d+):(.*)$`)

// ParseGrepOutput parses 'git grep -n' output. Lines are prefixed with rev when one was given.
func ParseGrepOutput(out []byte, rev string) []schema.SearchMatch {
	matches := []schema.SearchMatch{}
	prefix := ""
	if rev != "" {
		prefix = rev + ":"
	}
	for line := range strings.SplitSeq(strings.TrimRight(string(out), "\n"), "\n") {
		line = strings.TrimPrefix(line, prefix)
		m := grepLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[2])
		matches = append(matches, schema.SearchMatch{Path: m[1], Line: n, Text: m[3]})
	}
	return matches
}

// splitNUL splits NUL-terminated output, dropping the trailing empty token.
func splitNUL(out []byte) []string {
	s := strings.TrimSuffix(string(out), "\x00")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\x00")
}
