package pulldown

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMarkdownToHTMLHeadingAndList(t *testing.T) {
	got, err := MarkdownToHTML("hello\n=====\n* alpha\n* beta\n")
	if err != nil {
		t.Fatalf("MarkdownToHTML: %v", err)
	}
	want := "<h1>hello</h1>\n<ul>\n<li>alpha</li>\n<li>beta</li>\n</ul>\n"
	if got != want {
		t.Fatalf("unexpected html:\n%s", cmp.Diff(want, got))
	}
}

func TestStrikethroughAndEmphasisEvents(t *testing.T) {
	src := "Hello world, this is a ~~complicated~~ *very simple* example."
	events, err := ParseWithOptions(src, EnableStrikethrough)
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	want := []string{
		`Start(Paragraph)`,
		`Text("Hello world, this is a ")`,
		`Start(Strikethrough)`,
		`Text("complicated")`,
		`End(Strikethrough)`,
		`Text(" ")`,
		`Start(Emphasis)`,
		`Text("very simple")`,
		`End(Emphasis)`,
		`Text(" example.")`,
		`End(Paragraph)`,
	}
	if diff := cmp.Diff(want, eventStrings(events)); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyInput(t *testing.T) {
	events, err := ParseWithOptions("", EnableGFM|EnableSmartPunctuation)
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %v", eventStrings(events))
	}
	out, err := MarkdownToHTML("")
	if err != nil || out != "" {
		t.Fatalf("expected empty output, got %q, %v", out, err)
	}
}

func TestUnterminatedFenceRunsToEOF(t *testing.T) {
	src := "```\ncode\nmore"
	events, err := ParseWithOptions(src, 0)
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	want := []string{
		`Start(CodeBlock fenced "")`,
		`Text("code\n")`,
		`Text("more\n")`,
		`End(CodeBlock)`,
	}
	if diff := cmp.Diff(want, eventStrings(events)); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if r := events[0].Range; r.Start != 0 || r.End != len(src) {
		t.Fatalf("code block should span the input, got %+v", r)
	}
	out, _ := MarkdownToHTML(src)
	if out != "<pre><code>code\nmore\n</code></pre>\n" {
		t.Fatalf("unexpected html %q", out)
	}
}

func TestInvalidUTF8(t *testing.T) {
	if _, err := ParseWithOptions("ok \xff", 0); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
	if _, err := MarkdownToHTML("\xc3"); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
	if _, err := NewParser("\xed\xa0\x80", 0); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("surrogate encoding should be rejected, got %v", err)
	}
}

func TestNULBecomesReplacementCharacter(t *testing.T) {
	p, err := NewParser("a\x00b", 0)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	if p.Source() != "a\ufffdb" {
		t.Fatalf("unexpected source %q", p.Source())
	}
	if out := RenderHTML(p.Events()); out != "<p>a\ufffdb</p>\n" {
		t.Fatalf("unexpected html %q", out)
	}
}

func eventStrings(events []Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.String()
	}
	return out
}
