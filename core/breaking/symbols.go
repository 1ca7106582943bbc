// Package breaking detects API breaks between two revisions of changed source files.
package breaking

import (
	"regexp"
	"strings"

	"github.com/huangsam/prisk/schema"
)

// Symbol kinds produced by ExtractExports.
const (
	KindFunction  = "function"
	KindClass     = "class"
	KindVariable  = "variable"
	KindInterface = "interface"
	KindType      = "type"
	KindEnum      = "enum"
	KindNamespace = "namespace"
	KindReexport  = "reexport"
)

// exportHeadRe finds statement heads that can introduce exported names.
var exportHeadRe = regexp.MustCompile(`(?m)^[ \t]*(?:export\b|(?:module\.)?exports\.([A-Za-z_$][\w$]*)[ \t]*=[^=])`)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	punctSpaceRe  = regexp.MustCompile(` ?([(){}\[\]<>,:;=|&?]) ?`)
	repeatSemiRe  = regexp.MustCompile(`;{2,}`)
	typeSeparator = strings.NewReplacer("{;", "{", ";}", "}", ",;", ",", ";,", ",", "(;", "(", ";)", ")",
		"=;", "=", "|;", "|", ";|", "|", "&;", "&", ";&", "&", "=|", "=", ",}", "}", ",)", ")", ",]", "]")
)

// ExtractExports lists the symbols a module exports, in order of appearance.
// Only statement heads are inspected: export declarations, export lists and
// CommonJS property assignments. Repeated names (overloads, declaration
// merging) are folded into one symbol with signatures joined by "; ".
func ExtractExports(content string) []schema.ExportedSymbol {
	src := stripComments(content)
	var out []schema.ExportedSymbol
	index := make(map[string]int)

	add := func(sym schema.ExportedSymbol) {
		sym.Signature = normalizeSignature(sym.Signature, sym.IsTypeOnly())
		if i, ok := index[sym.Name]; ok {
			if out[i].Signature != sym.Signature {
				out[i].Signature += "; " + sym.Signature
			}
			return
		}
		index[sym.Name] = len(out)
		out = append(out, sym)
	}

	for _, m := range exportHeadRe.FindAllStringSubmatchIndex(src, -1) {
		if m[2] >= 0 {
			name := src[m[2]:m[3]]
			start := strings.IndexAny(src[m[0]:], "em") + m[0]
			add(parseCommonJS(src, start, name, m[1]-1))
			continue
		}
		c := &cursor{s: src, i: m[1]}
		for _, sym := range parseDeclaration(c, false) {
			add(sym)
		}
	}
	return out
}

// parseCommonJS handles exports.name = value, where at points just past the '='.
func parseCommonJS(src string, start int, name string, at int) schema.ExportedSymbol {
	sig := strings.TrimSpace(strings.TrimSuffix(src[start:at], "="))
	if head := functionHead(src, at); head != "" {
		sig += " = " + head
	}
	return schema.ExportedSymbol{Name: name, Kind: KindVariable, Signature: sig}
}

// parseDeclaration parses what follows an export keyword.
func parseDeclaration(c *cursor, isDefault bool) []schema.ExportedSymbol {
	if !isDefault {
		switch c.peekByte() {
		case '{':
			return parseExportList(c)
		case '*':
			return parseStarExport(c)
		case '=':
			return nil // export = value
		}
	}

	start := c.i
	switch kw := c.word(); kw {
	case "default":
		if isDefault {
			return nil
		}
		return parseDeclaration(c, true)
	case "declare":
		return parseDeclaration(c, isDefault)
	case "async":
		if c.word() != "function" {
			if isDefault {
				c.i = start
				return defaultExpression(c)
			}
			return nil
		}
		return parseFunction(c, start, isDefault)
	case "function":
		return parseFunction(c, start, isDefault)
	case "abstract":
		if c.word() != "class" {
			return nil
		}
		return parseBlockHead(c, start, KindClass, isDefault)
	case "class":
		return parseBlockHead(c, start, KindClass, isDefault)
	case "interface":
		return parseBlockBody(c, start, KindInterface)
	case "enum":
		return parseBlockBody(c, start, KindEnum)
	case "namespace", "module":
		if c.peekByte() == '\'' || c.peekByte() == '"' {
			return nil // ambient module declaration
		}
		return parseBlockHead(c, start, KindNamespace, false)
	case "type":
		if c.peekByte() == '{' {
			return parseExportList(c) // export type { A } from
		}
		name := c.word()
		if name == "" {
			return nil
		}
		end := scanHead(c.s, c.i, headOpts{})
		return []schema.ExportedSymbol{{Name: name, Kind: KindType, Signature: c.s[start:end]}}
	case "const", "let", "var":
		if kw == "const" && c.peekWord() == "enum" {
			c.word()
			return parseBlockBody(c, start, KindEnum)
		}
		return parseVariable(c, start)
	case "":
		if isDefault {
			return defaultExpression(c)
		}
		return nil
	default:
		if isDefault {
			c.i = start
			return defaultExpression(c)
		}
		return nil
	}
}

// parseFunction reads a function head. The cursor sits after the function keyword.
func parseFunction(c *cursor, start int, isDefault bool) []schema.ExportedSymbol {
	c.consume("*")
	name := c.peekWord()
	nameAt := c.i
	c.i += len(name)
	if name == "" && !isDefault {
		return nil
	}
	end := scanHead(c.s, c.i, headOpts{})
	if isDefault {
		return []schema.ExportedSymbol{defaultDeclaration(c.s, start, nameAt, name, end, KindFunction)}
	}
	return []schema.ExportedSymbol{{Name: name, Kind: KindFunction, Signature: c.s[start:end]}}
}

// parseBlockHead reads a declaration whose signature stops at its body brace.
func parseBlockHead(c *cursor, start int, kind string, isDefault bool) []schema.ExportedSymbol {
	name := c.peekWord()
	nameAt := c.i
	if name == "extends" || name == "implements" {
		name = ""
	}
	if name == "" && !isDefault {
		return nil
	}
	c.i += len(name)
	end := scanHead(c.s, c.i, headOpts{keepNewlines: true})
	if isDefault {
		return []schema.ExportedSymbol{defaultDeclaration(c.s, start, nameAt, name, end, kind)}
	}
	return []schema.ExportedSymbol{{Name: name, Kind: kind, Signature: c.s[start:end]}}
}

// defaultDeclaration exports a declaration under the name default. Importers
// bind a default export to a name of their own, so the local binding is left
// out of the signature.
func defaultDeclaration(s string, start, nameAt int, local string, end int, kind string) schema.ExportedSymbol {
	sig := s[start:nameAt] + " " + s[nameAt+len(local):end]
	return schema.ExportedSymbol{Name: "default", Kind: kind, Signature: sig}
}

// parseBlockBody reads a declaration whose signature includes its whole body.
func parseBlockBody(c *cursor, start int, kind string) []schema.ExportedSymbol {
	name := c.word()
	if name == "" {
		return nil
	}
	end := scanHead(c.s, c.i, headOpts{keepNewlines: true})
	if end < len(c.s) && c.s[end] == '{' {
		end = skipBalanced(c.s, end)
	}
	return []schema.ExportedSymbol{{Name: name, Kind: kind, Signature: c.s[start:end]}}
}

// parseVariable reads every declarator of a const, let or var statement.
// A function-valued initializer contributes its parameter list to the signature.
// Destructuring patterns export nothing here.
func parseVariable(c *cursor, start int) []schema.ExportedSymbol {
	kw := strings.TrimSpace(c.s[start:c.i])
	var out []schema.ExportedSymbol
	for {
		from := c.i
		name := c.word()
		if name == "" {
			return out
		}
		end := scanHead(c.s, c.i, headOpts{stopAtAssign: true, stopAtComma: true})
		sig := kw + " " + strings.TrimSpace(c.s[from:end])
		next := end
		if end < len(c.s) && c.s[end] == '=' {
			if head := functionHead(c.s, end+1); head != "" {
				sig += " = " + head
			}
			next = skipInitializer(c.s, end+1)
		}
		out = append(out, schema.ExportedSymbol{Name: name, Kind: KindVariable, Signature: sig})
		if next >= len(c.s) || c.s[next] != ',' {
			return out
		}
		c.i = next + 1
	}
}

// defaultExpression handles export default followed by an arbitrary expression.
func defaultExpression(c *cursor) []schema.ExportedSymbol {
	sig := "default"
	if head := functionHead(c.s, c.i); head != "" {
		sig += " = " + head
	}
	return []schema.ExportedSymbol{{Name: "default", Kind: KindVariable, Signature: sig}}
}

// functionHead returns the head of a function expression or arrow function
// starting at i, or "" when the value is not function-like.
func functionHead(s string, i int) string {
	c := &cursor{s: s, i: i}
	c.skipSpace()
	from := c.i
	w := c.peekWord()
	if w == "async" {
		c.word()
		w = c.peekWord()
	}
	if w == "function" {
		end := scanHead(s, from, headOpts{})
		return strings.TrimSpace(s[from:end])
	}
	switch c.peekByte() {
	case '(', '<':
	default:
		if w == "" {
			return ""
		}
		c.word()
		if !c.consume("=>") {
			return ""
		}
		return strings.TrimSpace(s[from:c.i])
	}
	end := scanHead(s, from, headOpts{stopAtArrow: true})
	head := strings.TrimSpace(s[from:end])
	if !strings.HasSuffix(head, "=>") {
		return ""
	}
	return head
}

// parseExportList reads export { a, b as c } and export type { ... } forms.
func parseExportList(c *cursor) []schema.ExportedSymbol {
	if !c.consume("{") {
		return nil
	}
	closing := strings.IndexByte(c.s[c.i:], '}')
	if closing < 0 {
		return nil
	}
	inner := c.s[c.i : c.i+closing]
	c.i += closing + 1

	var out []schema.ExportedSymbol
	for item := range strings.SplitSeq(inner, ",") {
		item = strings.Join(strings.Fields(item), " ")
		item = strings.TrimPrefix(item, "type ")
		if item == "" {
			continue
		}
		name := item
		if _, alias, ok := strings.Cut(item, " as "); ok {
			name = alias
		}
		if !isIdentifier(name) {
			continue
		}
		out = append(out, schema.ExportedSymbol{Name: name, Kind: KindReexport, Signature: item})
	}
	return out
}

// parseStarExport reads export * as ns from '...'. A bare export * adds no names.
func parseStarExport(c *cursor) []schema.ExportedSymbol {
	c.consume("*")
	if c.peekWord() != "as" {
		return nil
	}
	c.word()
	name := c.word()
	if name == "" {
		return nil
	}
	return []schema.ExportedSymbol{{Name: name, Kind: KindReexport, Signature: "* as " + name}}
}

func isIdentifier(s string) bool {
	if s == "" || s[0] >= '0' && s[0] <= '9' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

// normalizeSignature makes signatures comparable regardless of layout.
// Type-like bodies treat line breaks as member separators.
func normalizeSignature(sig string, typeLike bool) string {
	sig = strings.TrimSpace(sig)
	if typeLike {
		sig = strings.ReplaceAll(sig, "\n", ";")
	}
	sig = whitespaceRe.ReplaceAllString(sig, " ")
	sig = punctSpaceRe.ReplaceAllString(sig, "$1")
	if typeLike {
		for {
			next := typeSeparator.Replace(repeatSemiRe.ReplaceAllString(sig, ";"))
			if next == sig {
				break
			}
			sig = next
		}
		sig = strings.TrimSuffix(sig, ";")
	}
	return strings.TrimSpace(sig)
}
