package breaking

import (
	"regexp"
	"strings"

	"github.com/huangsam/prisk/schema"
	"github.com/pmezard/go-difflib/difflib"
)

var tokenRe = regexp.MustCompile(`\.\.\.|=>|[A-Za-z_$][\w$]*|\d+|\S`)

// tokenize splits a normalized signature into identifiers and punctuation.
func tokenize(sig string) []string {
	return tokenRe.FindAllString(sig, -1)
}

// GradeSeverity rates how disruptive a signature change is for consumers.
// Type-like symbols are high unless the change only inserted tokens.
// For everything else, edits inside the first parameter list or a higher
// required arity are high, other removals are medium and pure additions low.
func GradeSeverity(before, after string, typeLike bool) schema.Severity {
	a, b := tokenize(before), tokenize(after)
	ops := difflib.NewMatcher(a, b).GetOpCodes()

	onlyInserts := true
	for _, op := range ops {
		if op.Tag == 'd' || op.Tag == 'r' {
			onlyInserts = false
			break
		}
	}

	if typeLike {
		if onlyInserts {
			return schema.SeverityMedium
		}
		return schema.SeverityHigh
	}

	if requiredArity(after) > requiredArity(before) {
		return schema.SeverityHigh
	}
	if onlyInserts {
		return schema.SeverityLow
	}

	lo, hi := paramSpan(a)
	for _, op := range ops {
		if op.Tag != 'd' && op.Tag != 'r' {
			continue
		}
		if op.I1 < hi && op.I2 > lo {
			return schema.SeverityHigh
		}
	}
	return schema.SeverityMedium
}

// paramSpan returns the token range of the first parenthesized group, or an empty range.
func paramSpan(tokens []string) (int, int) {
	depth := 0
	start := -1
	for i, tok := range tokens {
		switch tok {
		case "(":
			if depth == 0 && start < 0 {
				start = i
			}
			depth++
		case ")":
			depth--
			if depth == 0 && start >= 0 {
				return start, i + 1
			}
		}
	}
	return 0, 0
}

// requiredArity counts parameters of the first parameter list that are
// neither optional, defaulted nor rest parameters.
func requiredArity(sig string) int {
	open := strings.IndexByte(sig, '(')
	if open < 0 {
		return 0
	}
	var params []string
	depth, last := 0, open+1
loop:
	for i := open + 1; i < len(sig); i++ {
		switch sig[i] {
		case '(', '[', '{', '<':
			depth++
		case ']', '}':
			depth--
		case '>':
			if i > 0 && sig[i-1] == '=' {
				continue
			}
			depth--
		case ')':
			if depth == 0 {
				params = append(params, sig[last:i])
				break loop
			}
			depth--
		case ',':
			if depth == 0 {
				params = append(params, sig[last:i])
				last = i + 1
			}
		}
	}

	required := 0
	for _, p := range params {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "...") || strings.HasPrefix(p, "this:") {
			continue
		}
		if isOptionalParam(p) {
			continue
		}
		required++
	}
	return required
}

// isOptionalParam reports whether a single parameter has a ? marker or a default value.
func isOptionalParam(p string) bool {
	depth := 0
	for i := 0; i < len(p); i++ {
		switch p[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}':
			depth--
		case '>':
			if i > 0 && p[i-1] == '=' {
				continue
			}
			depth--
		case '?':
			if depth == 0 && (i+1 == len(p) || p[i+1] == ':') {
				return true
			}
		case ':':
			if depth == 0 {
				return strings.Contains(p[i:], "=") && hasTopLevelDefault(p[i:])
			}
		case '=':
			if depth == 0 && (i+1 == len(p) || p[i+1] != '>') {
				return true
			}
		}
	}
	return false
}

// hasTopLevelDefault reports whether a type annotation is followed by a default value.
func hasTopLevelDefault(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}':
			depth--
		case '>':
			if i > 0 && s[i-1] == '=' {
				continue
			}
			depth--
		case '=':
			if depth == 0 && (i+1 == len(s) || s[i+1] != '>') {
				return true
			}
		}
	}
	return false
}
