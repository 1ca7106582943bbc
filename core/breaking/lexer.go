package breaking

import "strings"

// stripComments blanks out line and block comments while leaving string
// literals intact. Newlines are kept so line-based matching still works.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			end := skipString(src, i)
			b.WriteString(src[i : end+1])
			i = end
		case ch == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				b.WriteByte('\n')
			}
		case ch == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i < len(src) && !(src[i] == '*' && i+1 < len(src) && src[i+1] == '/') {
				if src[i] == '\n' {
					b.WriteByte('\n')
				}
				i++
			}
			i++ // land on the closing slash
			b.WriteByte(' ')
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// skipString returns the index of the quote closing the literal opened at i.
// Plain string literals also end at a newline.
func skipString(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j
		case '\n':
			if q != '`' {
				return j
			}
		}
	}
	return len(s) - 1
}

// skipBalanced returns the index just past the brace matching the one at open.
func skipBalanced(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\'', '"', '`':
			i = skipString(s, i)
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(s)
}

type headOpts struct {
	stopAtArrow  bool // include a top-level => and stop after it
	stopAtAssign bool // stop before a top-level =
	keepNewlines bool // a newline never ends the head
	stopAtComma  bool // stop before a top-level ,
}

// scanHead returns the end of a declaration head starting at from. The head
// ends at the body brace, a top-level semicolon, or a line break that does not
// continue the declaration. A brace following one of :|&,<(= opens a type
// literal and is part of the head.
func scanHead(s string, from int, opts headOpts) int {
	var stack []byte
	var last byte
	for i := from; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '\'', '"', '`':
			i = skipString(s, i)
			last = ch
			continue
		case '(', '[':
			stack = append(stack, ch)
		case ')', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case '<':
			if isIdentByte(last) {
				stack = append(stack, ch)
			}
		case '>':
			if len(stack) > 0 && stack[len(stack)-1] == '<' {
				stack = stack[:len(stack)-1]
			}
		case '{':
			if len(stack) == 0 && !strings.ContainsRune(":|&,<(=", rune(last)) {
				return i
			}
			stack = append(stack, ch)
		case '}':
			if len(stack) == 0 {
				return i
			}
			stack = stack[:len(stack)-1]
		case ';':
			if len(stack) == 0 {
				return i
			}
		case ',':
			if opts.stopAtComma && len(stack) == 0 {
				return i
			}
		case '=':
			if i+1 < len(s) && s[i+1] == '>' {
				i++
				last = '>'
				if opts.stopAtArrow && len(stack) == 0 {
					return i + 1
				}
				continue
			}
			if opts.stopAtAssign && len(stack) == 0 && !strings.ContainsRune("!<>=", rune(last)) &&
				(i+1 >= len(s) || s[i+1] != '=') {
				return i
			}
		case '\n':
			if len(stack) == 0 && !opts.keepNewlines && !continuesAfter(last) && !continuesBefore(s, i+1) {
				return i
			}
		}
		if ch != ' ' && ch != '\t' && ch != '\r' && ch != '\n' {
			last = ch
		}
	}
	return len(s)
}

// skipInitializer returns the end of the variable initializer starting at from:
// a top-level comma, a semicolon, a closing bracket it did not open, or a line
// break that does not continue the expression.
func skipInitializer(s string, from int) int {
	depth := 0
	var last byte
	for i := from; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '\'', '"', '`':
			i = skipString(s, i)
			last = ch
			continue
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				return i
			}
			depth--
		case ',', ';':
			if depth == 0 {
				return i
			}
		case '\n':
			if depth == 0 && !continuesAfter(last) && !continuesBefore(s, i+1) {
				return i
			}
		}
		if ch != ' ' && ch != '\t' && ch != '\r' && ch != '\n' {
			last = ch
		}
	}
	return len(s)
}

// continuesAfter reports whether a line ending in ch must continue on the next line.
func continuesAfter(ch byte) bool {
	return ch == 0 || strings.ContainsRune(",([{:|&=<.?", rune(ch))
}

// continuesBefore reports whether the line starting at i continues the previous one.
func continuesBefore(s string, i int) bool {
	for ; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r':
			continue
		case '|', '&', '.', '?', ':', '=', ')', ']', '>':
			return true
		}
		return false
	}
	return false
}

func isIdentByte(ch byte) bool {
	return ch == '_' || ch == '$' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}

// cursor walks a stripped source string token by token.
type cursor struct {
	s string
	i int
}

func (c *cursor) skipSpace() {
	for c.i < len(c.s) && strings.ContainsRune(" \t\r\n", rune(c.s[c.i])) {
		c.i++
	}
}

// peekWord returns the identifier at the cursor without consuming it.
func (c *cursor) peekWord() string {
	c.skipSpace()
	j := c.i
	for j < len(c.s) && isIdentByte(c.s[j]) {
		j++
	}
	if j == c.i || c.s[c.i] >= '0' && c.s[c.i] <= '9' {
		return ""
	}
	return c.s[c.i:j]
}

// word consumes and returns the identifier at the cursor.
func (c *cursor) word() string {
	w := c.peekWord()
	c.i += len(w)
	return w
}

// consume advances past prefix if it is next.
func (c *cursor) consume(prefix string) bool {
	c.skipSpace()
	if strings.HasPrefix(c.s[c.i:], prefix) {
		c.i += len(prefix)
		return true
	}
	return false
}

// peekByte returns the next non-space byte, or 0 at the end.
func (c *cursor) peekByte() byte {
	c.skipSpace()
	if c.i >= len(c.s) {
		return 0
	}
	return c.s[c.i]
}
