package pulldown

import (
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
)

// truncateWithEllipsis cuts text to limit columns, marking the cut.
func truncateWithEllipsis(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	return truncate.StringWithTail(text, uint(limit), "…")
}

// fitURL shortens url to limit columns, dropping the scheme first.
func fitURL(url string, limit int) string {
	if ansi.PrintableRuneWidth(url) <= limit {
		return url
	}
	if idx := strings.Index(url, "://"); idx != -1 {
		trimmed := url[idx+3:]
		if ansi.PrintableRuneWidth(trimmed) <= limit {
			return trimmed
		}
	}
	return truncateWithEllipsis(url, limit)
}
