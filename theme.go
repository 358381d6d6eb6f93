package pulldown

import (
	"sort"
	"strings"

	"pkt.systems/pulldown/internal/palette"
)

// Style describes a terminal style as an ANSI prefix sequence.
type Style struct {
	Prefix string
}

// Styles groups the semantic styles used by the ANSI renderer.
type Styles struct {
	Text          Style
	Heading       [6]Style
	Emphasis      Style
	Strong        Style
	Strikethrough Style
	CodeInline    Style
	CodeBlock     Style
	Quote         Style
	ListMarker    Style
	LinkText      Style
	LinkURL       Style
	ThematicBreak Style
	TableBorder   Style
	Footnote      Style
}

// Theme provides named styles for terminal rendering.
type Theme interface {
	Name() string
	Styles() Styles
}

type theme struct {
	name   string
	styles Styles
}

func (t theme) Name() string   { return t.name }
func (t theme) Styles() Styles { return t.styles }

// NewTheme returns a Theme from a Styles definition.
func NewTheme(name string, styles Styles) Theme {
	return theme{name: name, styles: styles}
}

func style(prefixes ...string) Style {
	return Style{Prefix: strings.Join(prefixes, "")}
}

func stylesFromPalette(p palette.Palette) Styles {
	return Styles{
		Text:          style(p.Text),
		Heading:       [6]Style{style(p.H1), style(p.H2), style(p.H3), style(p.H4), style(p.H5), style(p.H6)},
		Emphasis:      style(palette.Italic, p.Emphasis),
		Strong:        style(palette.Bold, p.Strong),
		Strikethrough: style(palette.Strikethrough, p.Strikethrough),
		CodeInline:    style(p.CodeInline),
		CodeBlock:     style(p.CodeBlock),
		Quote:         style(p.Quote),
		ListMarker:    style(p.ListMarker),
		LinkText:      style(palette.Underline, p.LinkText),
		LinkURL:       style(p.LinkURL),
		ThematicBreak: style(p.ThematicBreak),
		TableBorder:   style(p.TableBorder),
		Footnote:      style(p.Footnote),
	}
}

var builtinThemes = map[string]Theme{
	"default":        theme{name: "default", styles: stylesFromPalette(palette.PaletteDefault)},
	"gruvbox":        theme{name: "gruvbox", styles: stylesFromPalette(palette.PaletteGruvbox)},
	"dracula":        theme{name: "dracula", styles: stylesFromPalette(palette.PaletteDracula)},
	"nord":           theme{name: "nord", styles: stylesFromPalette(palette.PaletteNord)},
	"solarized-dark": theme{name: "solarized-dark", styles: stylesFromPalette(palette.PaletteSolarizedDark)},
	"github-light":   theme{name: "github-light", styles: stylesFromPalette(palette.PaletteGithubLight)},
	"plain":          theme{name: "plain"},
}

// AvailableThemes returns the names of built-in themes.
func AvailableThemes() []string {
	names := make([]string, 0, len(builtinThemes))
	for name := range builtinThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ThemeByName returns a built-in theme by name. The empty name selects the
// default theme.
func ThemeByName(name string) (Theme, bool) {
	if name == "" {
		return builtinThemes["default"], true
	}
	t, ok := builtinThemes[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// DefaultTheme returns the default built-in theme.
func DefaultTheme() Theme {
	return builtinThemes["default"]
}
