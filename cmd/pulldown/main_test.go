package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pkt.systems/pulldown"
)

func TestOpenInputFileAndURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.md")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	reader, closer, err := openInputs([]string{path})
	if err != nil {
		t.Fatalf("openInputs file: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ := io.ReadAll(reader)
	if string(buf) != "hello" {
		t.Fatalf("unexpected file content: %q", string(buf))
	}

	reader, closer, err = openInputs([]string{"file://" + path})
	if err != nil {
		t.Fatalf("openInputs file URL: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ = io.ReadAll(reader)
	if string(buf) != "hello" {
		t.Fatalf("unexpected file URL content: %q", string(buf))
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("stream"))
	}))
	defer srv.Close()
	reader, closer, err = openInputs([]string{srv.URL})
	if err != nil {
		t.Fatalf("openInputs http: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ = io.ReadAll(reader)
	if string(buf) != "stream" {
		t.Fatalf("unexpected http content: %q", string(buf))
	}
}

func TestOpenInputsConcatenates(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.md")
	second := filepath.Join(dir, "b.md")
	if err := os.WriteFile(first, []byte("one "), 0o644); err != nil {
		t.Fatalf("write first: %v", err)
	}
	if err := os.WriteFile(second, []byte("two"), 0o644); err != nil {
		t.Fatalf("write second: %v", err)
	}
	reader, closer, err := openInputs([]string{first, second})
	if err != nil {
		t.Fatalf("openInputs concat: %v", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	buf, _ := io.ReadAll(reader)
	if string(buf) != "one two" {
		t.Fatalf("unexpected concatenated content: %q", string(buf))
	}
}

func TestOpenURLRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()
	reader, closer, err := openInputs([]string{srv.URL})
	if err != nil {
		t.Fatalf("openInputs: %v", err)
	}
	defer func() { _ = closer.Close() }()
	if _, err := io.ReadAll(reader); err == nil || !strings.Contains(err.Error(), "410") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestResolveOSC8(t *testing.T) {
	for _, mode := range []string{"on", "true", "1", "yes"} {
		if got, err := resolveOSC8(mode); err != nil || !got {
			t.Fatalf("resolveOSC8(%q) = %v, %v", mode, got, err)
		}
	}
	for _, mode := range []string{"off", "false", "0", "no"} {
		if got, err := resolveOSC8(mode); err != nil || got {
			t.Fatalf("resolveOSC8(%q) = %v, %v", mode, got, err)
		}
	}
	if _, err := resolveOSC8("sometimes"); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
}

func TestBoringThemeHasNoStyles(t *testing.T) {
	styles := boringTheme().Styles()
	if styles.Text.Prefix != "" || styles.Heading[0].Prefix != "" || styles.LinkURL.Prefix != "" {
		t.Fatalf("boring theme should not carry SGR prefixes: %+v", styles)
	}
}

func TestResolveExtensions(t *testing.T) {
	cases := []struct {
		name string
		cfg  cliConfig
		want pulldown.Options
	}{
		{"none", cliConfig{}, 0},
		{"gfm", cliConfig{gfm: true}, pulldown.EnableGFM},
		{"flags", cliConfig{tables: true, smart: true}, pulldown.EnableTables | pulldown.EnableSmartPunctuation},
		{"hex", cliConfig{optionBits: "0x2"}, pulldown.EnableTables},
		{"names", cliConfig{optionBits: "footnotes,strikethrough"}, pulldown.EnableFootnotes | pulldown.EnableStrikethrough},
		{"merged", cliConfig{optionBits: "tables", metadata: true}, pulldown.EnableTables | pulldown.EnableMetadataBlocks},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveExtensions(tc.cfg)
			if err != nil {
				t.Fatalf("resolveExtensions: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
	if _, err := resolveExtensions(cliConfig{optionBits: "tables,bogus"}); err == nil {
		t.Fatalf("expected error for unknown extension name")
	}
}

func TestResolveFormat(t *testing.T) {
	var buf bytes.Buffer
	got, err := resolveFormat("auto", &buf, "")
	if err != nil || got != pulldown.FormatHTML {
		t.Fatalf("auto on buffer = %v, %v", got, err)
	}
	got, err = resolveFormat("auto", &buf, "out.HTML")
	if err != nil || got != pulldown.FormatHTML {
		t.Fatalf("auto with .html = %v, %v", got, err)
	}
	got, err = resolveFormat("events", &buf, "")
	if err != nil || got != pulldown.FormatTrace {
		t.Fatalf("events = %v, %v", got, err)
	}
	if _, err := resolveFormat("pdf", &buf, ""); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestRunRendersHTML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	if err := os.WriteFile(path, []byte("hello\n=====\n* alpha\n* beta\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--format", "html", path}, &stdout, &stderr); code != 0 {
		t.Fatalf("run exit %d: %s", code, stderr.String())
	}
	want := "<h1>hello</h1>\n<ul>\n<li>alpha</li>\n<li>beta</li>\n</ul>\n"
	if stdout.String() != want {
		t.Fatalf("unexpected output:\n%s", stdout.String())
	}
}

func TestRunFrontMatter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	if err := os.WriteFile(path, []byte("---\ntitle: Hi\n---\n# body\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--front-matter", path}, &stdout, &stderr); code != 0 {
		t.Fatalf("run exit %d: %s", code, stderr.String())
	}
	if stdout.String() != "title: Hi\n" {
		t.Fatalf("unexpected front matter: %q", stdout.String())
	}
}

func TestRunUsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--format", "pdf", "missing.md"}, &stdout, &stderr); code == 0 {
		t.Fatalf("expected failure")
	}
	stderr.Reset()
	if code := run([]string{"--no-such-flag"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected usage exit 2, got %d", code)
	}
}
