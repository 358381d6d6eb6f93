package pulldown

import (
	"errors"
	"testing"
)

func TestOptionsValidate(t *testing.T) {
	if err := EnableGFM.Validate(); err != nil {
		t.Fatalf("EnableGFM should validate, got %v", err)
	}
	if err := Options(0).Validate(); err != nil {
		t.Fatalf("zero options should validate, got %v", err)
	}
	err := (EnableTables | Options(1<<30)).Validate()
	if !errors.Is(err, ErrUnsupportedOption) {
		t.Fatalf("expected ErrUnsupportedOption, got %v", err)
	}
	if got := (EnableTables | Options(1<<30)).Known(); got != EnableTables {
		t.Fatalf("Known kept unknown bits: %v", got)
	}
}

func TestOptionsString(t *testing.T) {
	cases := []struct {
		opts Options
		want string
	}{
		{0, "commonmark"},
		{Options(1 << 30), "commonmark"},
		{EnableTables, "tables"},
		{EnableGFM, "tables|footnotes|strikethrough|tasklists"},
		{EnableSmartPunctuation | EnableMetadataBlocks, "smart-punctuation|metadata-blocks"},
	}
	for _, tc := range cases {
		if got := tc.opts.String(); got != tc.want {
			t.Fatalf("Options(%#x).String() = %q, want %q", uint32(tc.opts), got, tc.want)
		}
	}
}

func TestParseOptionName(t *testing.T) {
	for _, name := range []string{"tables", "footnotes", "strikethrough", "tasklists",
		"smart-punctuation", "heading-attributes", "metadata-blocks"} {
		opt, ok := ParseOptionName(name)
		if !ok || opt.String() != name {
			t.Fatalf("ParseOptionName(%q) = %v, %v", name, opt, ok)
		}
	}
	if opt, ok := ParseOptionName(" GFM "); !ok || opt != EnableGFM {
		t.Fatalf("gfm should map to EnableGFM, got %v, %v", opt, ok)
	}
	if _, ok := ParseOptionName("emoji"); ok {
		t.Fatalf("unexpected match for unknown name")
	}
}

func TestGoldenOptions(t *testing.T) {
	cases := map[string]Options{
		"basics.md":                   0,
		"tables__layout.md":           EnableTables,
		"gfm+smart-punctuation__x.md": EnableGFM | EnableSmartPunctuation,
		"bogus__x.md":                 0,
	}
	for name, want := range cases {
		if got := GoldenOptions(name); got != want {
			t.Fatalf("GoldenOptions(%q) = %v, want %v", name, got, want)
		}
	}
}
