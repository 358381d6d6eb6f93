package pulldown

import "strings"

const (
	enDash   = "–"
	emDash   = "—"
	ellipsis = "…"
)

// smartenText replaces "..." with an ellipsis and runs of hyphens with
// en and em dashes. Quotes are handled by the delimiter stack.
func smartenText(s string) string {
	if !strings.Contains(s, "...") && !strings.Contains(s, "--") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "..."):
			b.WriteString(ellipsis)
			i += 3
		case s[i] == '-' && i+1 < len(s) && s[i+1] == '-':
			n := runLength(s, i, '-')
			b.WriteString(dashes(n))
			i += n
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String()
}

// dashes spells a run of n hyphens, preferring em dashes and using en
// dashes only for the remainder, and never mixing when one kind divides n.
func dashes(n int) string {
	var em, en int
	switch {
	case n%3 == 0:
		em = n / 3
	case n%2 == 0:
		en = n / 2
	case n%3 == 2:
		em, en = (n-2)/3, 1
	default:
		em, en = (n-4)/3, 2
	}
	return strings.Repeat(emDash, em) + strings.Repeat(enDash, en)
}
