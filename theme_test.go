package pulldown

import (
	"slices"
	"testing"
)

func TestAvailableThemes(t *testing.T) {
	got := AvailableThemes()
	want := []string{"default", "dracula", "github-light", "gruvbox", "nord", "plain", "solarized-dark"}
	if !slices.Equal(got, want) {
		t.Fatalf("AvailableThemes() = %v, want %v", got, want)
	}
	for _, name := range got {
		th, ok := ThemeByName(name)
		if !ok {
			t.Fatalf("theme %q listed but not found", name)
		}
		if th.Name() != name {
			t.Fatalf("theme %q reports name %q", name, th.Name())
		}
	}
}

func TestThemeByName(t *testing.T) {
	th, ok := ThemeByName("")
	if !ok || th.Name() != "default" {
		t.Fatalf("empty name should select default, got %v %v", th, ok)
	}
	if th, ok := ThemeByName("  Nord "); !ok || th.Name() != "nord" {
		t.Fatalf("lookup should ignore case and spaces, got %v %v", th, ok)
	}
	if _, ok := ThemeByName("missing"); ok {
		t.Fatalf("unknown theme should not resolve")
	}
}

func TestThemeStyles(t *testing.T) {
	plain, _ := ThemeByName("plain")
	if plain.Styles() != (Styles{}) {
		t.Fatalf("plain theme should have no styles")
	}
	def := DefaultTheme().Styles()
	for i, h := range def.Heading {
		if h.Prefix == "" {
			t.Fatalf("default heading %d has no style", i+1)
		}
	}
	if def.Emphasis.Prefix == def.Text.Prefix {
		t.Fatalf("emphasis should differ from body text")
	}
	custom := NewTheme("mine", Styles{Strong: Style{Prefix: "\x1b[1m"}})
	if custom.Name() != "mine" || custom.Styles().Strong.Prefix != "\x1b[1m" {
		t.Fatalf("unexpected custom theme %+v", custom)
	}
}
