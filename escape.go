package pulldown

import (
	"io"
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
)

// EscapeHTML escapes the characters that are significant in HTML text and
// double-quoted attribute values.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

func writeEscapedHTML(w io.Writer, s string) error {
	_, err := htmlEscaper.WriteString(w, s)
	return err
}

// hrefSafe marks the ASCII bytes that pass through EscapeHref untouched.
var hrefSafe = func() (t [128]bool) {
	for c := 'a'; c <= 'z'; c++ {
		t[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		t[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		t[c] = true
	}
	for _, c := range "-_.+,/:;=?@!#$%()*~" {
		t[c] = true
	}
	return t
}()

const upperHex = "0123456789ABCDEF"

// EscapeHref prepares a link destination for use in an href or src
// attribute. Existing percent escapes are kept; other unsafe bytes are
// percent-encoded, except & and ' which become character references.
func EscapeHref(s string) string {
	var b strings.Builder
	mark := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 128 && hrefSafe[c] {
			continue
		}
		if b.Len() == 0 {
			b.Grow(len(s) + 8)
		}
		b.WriteString(s[mark:i])
		switch c {
		case '&':
			b.WriteString("&amp;")
		case '\'':
			b.WriteString("&#x27;")
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0xF])
		}
		mark = i + 1
	}
	if b.Len() == 0 {
		return s
	}
	b.WriteString(s[mark:])
	return b.String()
}
