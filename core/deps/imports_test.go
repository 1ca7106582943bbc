package deps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractImportSpecifiers(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "static default import",
			content:  "import parse from './parser';\n",
			expected: []string{"./parser"},
		},
		{
			name:     "named multi-line import",
			content:  "import {\n  a,\n  b,\n} from \"../lib/util\";\n",
			expected: []string{"../lib/util"},
		},
		{
			name:     "type-only import and re-exports",
			content:  "import type { Cfg } from './types';\nexport * from './all';\nexport { x as y } from './x';\n",
			expected: []string{"./types", "./all", "./x"},
		},
		{
			name:     "side-effect import",
			content:  "import './polyfill';\n",
			expected: []string{"./polyfill"},
		},
		{
			name:     "dynamic import and require",
			content:  "const m = await import('./lazy');\nconst fs = require(\"fs\");\nconst h = require('./helpers');\n",
			expected: []string{"./lazy", "fs", "./helpers"},
		},
		{
			name:     "duplicates keep first appearance",
			content:  "import a from './a';\nimport b from './b';\nconst again = require('./a');\n",
			expected: []string{"./a", "./b"},
		},
		{
			name:     "computed specifiers are missed",
			content:  "const m = require(base + '/x');\nimport(`./tpl/${name}`);\n",
			expected: []string{},
		},
		{
			name:     "no imports",
			content:  "export const x = 1;\n",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractImportSpecifiers(tt.content))
		})
	}
}

func TestResolveSpecifier(t *testing.T) {
	known := map[string]struct{}{
		"src/config.ts":          {},
		"src/util/math.ts":       {},
		"src/util/index.js":      {},
		"src/widgets/index.tsx":  {},
		"src/exact.mjs":          {},
		"src/components/Btn.jsx": {},
	}

	tests := []struct {
		name     string
		importer string
		spec     string
		want     string
		ok       bool
	}{
		{"extension appended", "src/app.ts", "./config", "src/config.ts", true},
		{"parent directory", "src/util/math.ts", "../config", "src/config.ts", true},
		{"exact path", "src/app.ts", "./exact.mjs", "src/exact.mjs", true},
		{"directory index", "src/app.ts", "./widgets", "src/widgets/index.tsx", true},
		{"extension beats index", "src/app.ts", "./util/math", "src/util/math.ts", true},
		{"index of util", "src/app.ts", "./util", "src/util/index.js", true},
		{"bare module ignored", "src/app.ts", "react", "", false},
		{"missing target", "src/app.ts", "./nope", "", false},
		{"escaping the repository", "src/app.ts", "../../outside", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveSpecifier(tt.importer, tt.spec, known)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildReverseMap(t *testing.T) {
	files := []string{"src/a.ts", "src/b.ts", "src/c.ts", "src/config.ts"}
	imports := []fileImports{
		{path: "src/c.ts", specs: []string{"./config", "./a", "./parser"}},
		{path: "src/a.ts", specs: []string{"./config", "./a", "lodash"}},
		{path: "src/b.ts", specs: []string{"./config", "./config.ts"}},
	}

	m := BuildReverseMap(files, imports)
	assert.Equal(t, []string{"src/a.ts", "src/b.ts", "src/c.ts"}, m.Dependents["src/config.ts"])
	assert.Equal(t, []string{"src/c.ts"}, m.Dependents["src/a.ts"], "self imports are dropped")
	assert.Equal(t, []string{"src/c.ts"}, m.Dangling["src/parser"])
	assert.Equal(t, []string{"src/c.ts"}, m.ImportersOf("src/parser.ts"))
	assert.Empty(t, m.ImportersOf("src/b.ts"))
}
