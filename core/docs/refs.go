package docs

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/huangsam/prisk/core/breaking"
	"github.com/huangsam/prisk/internal/contract"
	"github.com/huangsam/prisk/schema"
)

// genericNames are too common to match in prose. They only count inside code,
// path-like or import contexts.
var genericNames = map[string]struct{}{
	"index": {}, "main": {}, "app": {}, "mod": {}, "lib": {}, "utils": {}, "util": {},
	"helpers": {}, "helper": {}, "types": {}, "type": {}, "constants": {}, "config": {},
	"common": {}, "shared": {}, "core": {}, "base": {}, "test": {}, "tests": {}, "src": {},
	"default": {}, "init": {}, "setup": {},
}

// IsGenericName reports whether name is on the generic denylist.
func IsGenericName(name string) bool {
	_, ok := genericNames[strings.ToLower(name)]
	return ok
}

// reference is something a change made invalid.
type reference struct {
	text   string
	reason string
	isPath bool

	word *regexp.Regexp // whole-word matcher for names
	near *regexp.Regexp // path-like matcher for generic names
}

func newPathRef(text, reason string) reference {
	return reference{text: text, reason: reason, isPath: true}
}

func newNameRef(text, reason string) reference {
	quoted := regexp.QuoteMeta(text)
	ref := reference{
		text:   text,
		reason: reason,
		word:   regexp.MustCompile(`(?:^|[^\w$])` + quoted + `(?:[^\w$]|$)`),
	}
	if IsGenericName(text) {
		exts := make([]string, 0, len(schema.SourceExtensions)+len(schema.DocExtensions))
		for _, ext := range append(append([]string{}, schema.SourceExtensions...), schema.DocExtensions...) {
			exts = append(exts, regexp.QuoteMeta(strings.TrimPrefix(ext, ".")))
		}
		ref.near = regexp.MustCompile(`/` + quoted + `(?:[^\w$]|$)|(?:^|[^\w$])` + quoted + `(?:/|\.(?:` + strings.Join(exts, "|") + `)\b)`)
	}
	return ref
}

// collectReferences gathers deleted paths, renamed paths, stems of deleted
// sources and symbols removed from sources.
func collectReferences(ctx context.Context, client contract.GitClient, opts Options, changed []schema.ChangedFile) ([]reference, error) {
	var refs []reference
	seen := make(map[[2]string]struct{})
	add := func(r reference) {
		key := [2]string{r.text, r.reason}
		if _, ok := seen[key]; ok || r.text == "" {
			return
		}
		seen[key] = struct{}{}
		refs = append(refs, r)
	}

	for _, f := range changed {
		switch f.Status {
		case schema.StatusDeleted:
			add(newPathRef(f.Path, "file deleted"))
			if f.Category == schema.CategorySource {
				stem := strings.TrimSuffix(path.Base(f.Path), path.Ext(f.Path))
				add(newNameRef(stem, "file deleted: "+f.Path))
			}
		case schema.StatusRenamed:
			if f.OldPath != "" {
				add(newPathRef(f.OldPath, "file renamed to "+f.Path))
			}
		}
	}

	for _, f := range changed {
		if f.Category != schema.CategorySource {
			continue
		}
		switch f.Status {
		case schema.StatusDeleted, schema.StatusModified, schema.StatusRenamed:
		default:
			continue
		}
		removed, err := removedSymbols(ctx, client, opts, f)
		if err != nil {
			return nil, err
		}
		for _, name := range removed {
			add(newNameRef(name, "symbol removed from "+f.Path))
		}
	}
	return refs, nil
}

// removedSymbols lists exports present at base but gone at head.
func removedSymbols(ctx context.Context, client contract.GitClient, opts Options, f schema.ChangedFile) ([]string, error) {
	basePath := f.Path
	if f.OldPath != "" {
		basePath = f.OldPath
	}
	before, err := client.ReadFileAtRevision(ctx, opts.RepoPath, opts.Base, basePath)
	if err != nil {
		return nil, fmt.Errorf("read %s at base: %w", basePath, err)
	}

	present := make(map[string]struct{})
	if f.Status != schema.StatusDeleted {
		after, err := client.ReadFileAtRevision(ctx, opts.RepoPath, opts.Head, f.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s at head: %w", f.Path, err)
		}
		for _, sym := range breaking.ExtractExports(after) {
			present[sym.Name] = struct{}{}
		}
	}

	var out []string
	for _, sym := range breaking.ExtractExports(before) {
		if sym.Name == "default" {
			continue
		}
		if _, ok := present[sym.Name]; !ok {
			out = append(out, sym.Name)
		}
	}
	return out, nil
}
