package palette

import "testing"

func TestHex(t *testing.T) {
	if got := Hex("#ff8800"); got != "\x1b[38;2;255;136;0m" {
		t.Fatalf("Hex = %q", got)
	}
	if got := Hex("#0A0B0C"); got != "\x1b[38;2;10;11;12m" {
		t.Fatalf("Hex = %q", got)
	}
}

func TestHexPanicsOnMalformedColor(t *testing.T) {
	for _, bad := range []string{"", "ff8800", "#ff88", "#gggggg"} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("Hex(%q) did not panic", bad)
				}
			}()
			Hex(bad)
		}()
	}
}

func TestPalettesAreComplete(t *testing.T) {
	for name, p := range map[string]Palette{
		"default":        PaletteDefault,
		"gruvbox":        PaletteGruvbox,
		"dracula":        PaletteDracula,
		"nord":           PaletteNord,
		"solarized-dark": PaletteSolarizedDark,
		"github-light":   PaletteGithubLight,
	} {
		for role, seq := range map[string]string{
			"text": p.Text, "h1": p.H1, "h6": p.H6, "code": p.CodeBlock,
			"link": p.LinkText, "url": p.LinkURL, "border": p.TableBorder,
		} {
			if seq == "" {
				t.Fatalf("palette %s has no %s color", name, role)
			}
		}
	}
}
