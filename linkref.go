package pulldown

import (
	"strings"

	"golang.org/x/text/cases"
)

const (
	maxLabelLen = 999
	// maxLinkParens bounds parenthesis nesting in a bare destination.
	maxLinkParens = 32
)

type linkRef struct {
	dest  string
	title string
}

// normalizeLabel strips the brackets of a link label, collapses internal
// whitespace and case-folds the result.
func normalizeLabel(raw string) string {
	s := strings.TrimPrefix(strings.TrimSuffix(raw, "]"), "[")
	var b strings.Builder
	b.Grow(len(s))
	space, hi := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case ' ', '\t', '\n', '\r':
			space = b.Len() > 0
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c >= 0x80 {
			hi = true
		}
		b.WriteByte(c)
	}
	s = b.String()
	if hi {
		s = cases.Fold().String(s)
	}
	return s
}

// scanLinkLabel returns the length of the bracketed label at s[pos:],
// brackets included, or 0.
func scanLinkLabel(s string, pos int) int {
	if pos >= len(s) || s[pos] != '[' {
		return 0
	}
	for i := pos + 1; i < len(s); i++ {
		if i-pos-1 > maxLabelLen {
			return 0
		}
		switch s[i] {
		case '\\':
			i++
		case '[':
			return 0
		case ']':
			return i - pos + 1
		}
	}
	return 0
}

// scanLinkDestination parses a pointy-bracketed or bare destination.
func scanLinkDestination(s string, pos int) (dest string, end int, ok bool) {
	if pos < len(s) && s[pos] == '<' {
		for i := pos + 1; i < len(s); i++ {
			switch s[i] {
			case '\\':
				if i+1 < len(s) && s[i+1] != '\n' {
					i++
				}
			case '>':
				return unescapeString(s[pos+1 : i]), i + 1, true
			case '<', '\n':
				return "", pos, false
			}
		}
		return "", pos, false
	}
	parens := 0
	i := pos
loop:
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && isASCIIPunct(s[i+1]):
			i += 2
		case c == '(':
			parens++
			if parens > maxLinkParens {
				return "", pos, false
			}
			i++
		case c == ')':
			if parens == 0 {
				break loop
			}
			parens--
			i++
		case c <= ' ' || c == 0x7f:
			break loop
		default:
			i++
		}
	}
	if i == pos && (i >= len(s) || s[i] != ')') || parens != 0 {
		return "", pos, false
	}
	return unescapeString(s[pos:i]), i, true
}

// scanLinkTitle parses a "…", '…' or (…) title.
func scanLinkTitle(s string, pos int) (title string, end int, ok bool) {
	if pos >= len(s) {
		return "", pos, false
	}
	closer := s[pos]
	switch closer {
	case '"', '\'':
	case '(':
		closer = ')'
	default:
		return "", pos, false
	}
	for i := pos + 1; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\':
			i++
		case c == closer:
			return unescapeString(s[pos+1 : i]), i + 1, true
		case closer == ')' && c == '(':
			return "", pos, false
		}
	}
	return "", pos, false
}

// skipSpnl skips spaces and tabs with at most one line ending.
func skipSpnl(s string, pos int) int {
	for pos < len(s) && isSpaceOrTab(s[pos]) {
		pos++
	}
	if pos < len(s) && s[pos] == '\n' {
		pos++
		for pos < len(s) && isSpaceOrTab(s[pos]) {
			pos++
		}
	}
	return pos
}

func spaceAtEndOfLine(s string, pos int) (int, bool) {
	for pos < len(s) && isSpaceOrTab(s[pos]) {
		pos++
	}
	switch {
	case pos == len(s):
		return pos, true
	case s[pos] == '\n':
		return pos + 1, true
	}
	return pos, false
}

// parseReferenceDefinition parses one link reference definition at the
// start of s, records it unless the label is already defined, and returns
// the number of bytes consumed or 0.
func parseReferenceDefinition(s string, refs map[string]linkRef) int {
	n := scanLinkLabel(s, 0)
	if n == 0 || n >= len(s) || s[n] != ':' {
		return 0
	}
	raw := s[:n]
	dest, pos, ok := scanLinkDestination(s, skipSpnl(s, n+1))
	if !ok {
		return 0
	}
	beforeTitle := pos
	title, hasTitle := "", false
	if p := skipSpnl(s, pos); p != beforeTitle {
		if t, e, ok := scanLinkTitle(s, p); ok {
			title, pos, hasTitle = t, e, true
		}
	}
	end, atLineEnd := spaceAtEndOfLine(s, pos)
	if !atLineEnd && hasTitle {
		title = ""
		end, atLineEnd = spaceAtEndOfLine(s, beforeTitle)
	}
	if !atLineEnd {
		return 0
	}
	label := normalizeLabel(raw)
	if label == "" {
		return 0
	}
	if _, dup := refs[label]; !dup {
		refs[label] = linkRef{dest: dest, title: title}
	}
	return end
}
