package pulldown

import (
	"html"
	"strconv"
	"strings"
	"unicode/utf8"
)

// scanEntity decodes an entity or numeric character reference at the start
// of s. It returns the decoded text and the number of bytes consumed, or
// n == 0 when s does not start with a valid reference.
func scanEntity(s string) (decoded string, n int) {
	if len(s) < 3 || s[0] != '&' {
		return "", 0
	}
	if s[1] == '#' {
		return scanNumericEntity(s)
	}
	i := 1
	for i < len(s) && i <= 32 && isASCIIAlnum(s[i]) {
		i++
	}
	if i == 1 || !isASCIILetter(s[1]) || i >= len(s) || s[i] != ';' || i-1 < 2 {
		return "", 0
	}
	ref := s[:i+1]
	out := html.UnescapeString(ref)
	// A prefix match such as "&notin" inside "&notit;" leaves the tail
	// behind; real references decode to one or two code points.
	if out == ref || utf8.RuneCountInString(out) > 2 {
		return "", 0
	}
	return out, i + 1
}

func scanNumericEntity(s string) (string, int) {
	i := 2
	base := 10
	maxDigits := 7
	if i < len(s) && (s[i] == 'x' || s[i] == 'X') {
		base = 16
		maxDigits = 6
		i++
	}
	start := i
	for i < len(s) && i-start < maxDigits {
		c := s[i]
		if base == 10 && !isASCIIDigit(c) || base == 16 && !isHexDigit(c) {
			break
		}
		i++
	}
	if i == start || i >= len(s) || s[i] != ';' {
		return "", 0
	}
	v, err := strconv.ParseUint(s[start:i], base, 32)
	r := rune(v)
	if err != nil || r == 0 || !utf8.ValidRune(r) {
		r = utf8.RuneError
	}
	return string(r), i + 1
}

// unescapeString resolves backslash escapes and character references, as
// applied to link destinations, titles and info strings.
func unescapeString(s string) string {
	if strings.IndexByte(s, '\\') < 0 && strings.IndexByte(s, '&') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c == '\\' && i+1 < len(s) && isASCIIPunct(s[i+1]) {
			b.WriteByte(s[i+1])
			i += 2
			continue
		}
		if c == '&' {
			if dec, n := scanEntity(s[i:]); n > 0 {
				b.WriteString(dec)
				i += n
				continue
			}
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

func isASCIIPunct(c byte) bool {
	return '!' <= c && c <= '/' || ':' <= c && c <= '@' || '[' <= c && c <= '`' || '{' <= c && c <= '~'
}

func isASCIILetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isASCIIDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isASCIIAlnum(c byte) bool {
	return isASCIILetter(c) || isASCIIDigit(c)
}

func isHexDigit(c byte) bool {
	return isASCIIDigit(c) || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
