// Package palette holds the ANSI color sets behind the built-in themes.
package palette

import (
	"fmt"
	"strconv"
)

// SGR attribute sequences.
const (
	Reset         = "\x1b[0m"
	Bold          = "\x1b[1m"
	Faint         = "\x1b[2m"
	Italic        = "\x1b[3m"
	Underline     = "\x1b[4m"
	Strikethrough = "\x1b[9m"
)

// Palette assigns a foreground sequence to each semantic role.
type Palette struct {
	Text          string
	H1            string
	H2            string
	H3            string
	H4            string
	H5            string
	H6            string
	Emphasis      string
	Strong        string
	Strikethrough string
	CodeInline    string
	CodeBlock     string
	Quote         string
	ListMarker    string
	LinkText      string
	LinkURL       string
	ThematicBreak string
	TableBorder   string
	Footnote      string
}

// Hex returns the 24-bit foreground sequence for a color such as "#ff8800".
// It panics on malformed input; palettes are package-level literals.
func Hex(color string) string {
	if len(color) != 7 || color[0] != '#' {
		panic(fmt.Sprintf("palette: bad color %q", color))
	}
	v, err := strconv.ParseUint(color[1:], 16, 32)
	if err != nil {
		panic(fmt.Sprintf("palette: bad color %q: %v", color, err))
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", v>>16&0xff, v>>8&0xff, v&0xff)
}

func build(text, h1, h2, h3, accent, code, quote, marker, link, url, muted string) Palette {
	return Palette{
		Text:          Hex(text),
		H1:            Bold + Hex(h1),
		H2:            Bold + Hex(h2),
		H3:            Bold + Hex(h3),
		H4:            Hex(h3),
		H5:            Hex(h3),
		H6:            Faint + Hex(h3),
		Emphasis:      Hex(accent),
		Strong:        Hex(text),
		Strikethrough: Hex(muted),
		CodeInline:    Hex(code),
		CodeBlock:     Hex(code),
		Quote:         Hex(quote),
		ListMarker:    Hex(marker),
		LinkText:      Hex(link),
		LinkURL:       Hex(url),
		ThematicBreak: Hex(muted),
		TableBorder:   Hex(muted),
		Footnote:      Hex(marker),
	}
}

var (
	PaletteDefault = build("#d0d0d0", "#5fafff", "#5fd7af", "#d7af5f", "#d787d7",
		"#87d787", "#8a8a8a", "#ffaf5f", "#5fafff", "#6c6c6c", "#585858")
	PaletteGruvbox = build("#ebdbb2", "#fb4934", "#fabd2f", "#b8bb26", "#d3869b",
		"#8ec07c", "#928374", "#fe8019", "#83a598", "#7c6f64", "#665c54")
	PaletteDracula = build("#f8f8f2", "#ff79c6", "#bd93f9", "#8be9fd", "#f1fa8c",
		"#50fa7b", "#6272a4", "#ffb86c", "#8be9fd", "#6272a4", "#44475a")
	PaletteNord = build("#d8dee9", "#88c0d0", "#81a1c1", "#5e81ac", "#b48ead",
		"#a3be8c", "#616e88", "#ebcb8b", "#88c0d0", "#4c566a", "#434c5e")
	PaletteSolarizedDark = build("#839496", "#268bd2", "#2aa198", "#859900", "#d33682",
		"#b58900", "#586e75", "#cb4b16", "#268bd2", "#586e75", "#073642")
	PaletteGithubLight = build("#24292f", "#0550ae", "#0a3069", "#116329", "#8250df",
		"#953800", "#57606a", "#cf222e", "#0969da", "#6e7781", "#d0d7de")
)
