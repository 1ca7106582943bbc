package core

import (
	"strings"

	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"
	"github.com/sourcegraph/go-diff/diff"
)

// CountHunks parses a unified multi-file patch and returns the hunk count per new path.
// Deleted files are keyed by their old path.
func CountHunks(patch string) (map[string]int, error) {
	counts := make(map[string]int)
	if strings.TrimSpace(patch) == "" {
		return counts, nil
	}
	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(patch)).ReadAllFiles()
	if err != nil {
		return nil, err
	}
	for _, fd := range fileDiffs {
		name := diffPath(fd.NewName)
		if name == "" {
			name = diffPath(fd.OrigName)
		}
		counts[name] += len(fd.Hunks)
	}
	return counts, nil
}

// diffPath strips the a/ or b/ prefix git adds to patch file names.
func diffPath(name string) string {
	if name == "/dev/null" {
		return ""
	}
	if rest, ok := strings.CutPrefix(name, "a/"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(name, "b/"); ok {
		return rest
	}
	return name
}

// applyHunks records hunk counts on files. A patch that fails to parse leaves counts at zero.
func applyHunks(files []schema.ChangedFile, patch string) {
	counts, err := CountHunks(patch)
	if err != nil {
		contract.LogWarn("Could not parse patch for hunk counts", err)
		return
	}
	for i := range files {
		files[i].Hunks = counts[files[i].Path]
	}
}
