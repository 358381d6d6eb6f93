package pulldown

import (
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

var optionSets = []Options{0, EnableGFM, knownOptions}

func propertyCorpus() []string {
	corpus := []string{
		"",
		"hello\n=====\n* alpha\n* beta\n",
		"Hello world, this is a ~~complicated~~ *very simple* example.",
		"```\nunterminated",
		"> quote with *emph* and `code`\n> - item\n>   continued\n\nafter\n",
		"1. a\n\n   b\n2. c\n\n- [ ] task\n- [x] done\n",
		"| h1 | h2 |\n|:--|--:|\n| *a* | [l](/u) |\n| b |\n",
		"Footnote[^x] here.\n\n[^x]: The *note*.\n    More.\n",
		"---\ntitle: t\n---\n# Heading {#id .c}\n\n\"Smart\" -- text...\n",
		"***strong emph*** __*mixed*__ ![img *alt*](/i.png)\n",
		"line  \nbreak\\\nagain\n\n    code\n\ttabbed\n",
		"<div>\n*raw*\n</div>\n\n<span>inline</span> &copy; &#x41;\n",
		"[ref]\n\n[ref]: /target 'Title'\n",
		"* a\n  * b\n    * c\n* d\n",
		"a\r\nb\rc\n",
	}
	for _, tc := range commonmarkCases {
		corpus = append(corpus, tc.in)
	}
	for _, tc := range extensionCases {
		corpus = append(corpus, tc.in)
	}
	return corpus
}

func TestEventsAreBalanced(t *testing.T) {
	for _, src := range propertyCorpus() {
		for _, opts := range optionSets {
			events, err := ParseWithOptions(src, opts)
			require.NoError(t, err)
			var stack []TagKind
			for _, ev := range events {
				switch ev.Kind {
				case EventStart:
					stack = append(stack, ev.Tag.Kind)
				case EventEnd:
					require.NotEmpty(t, stack, "unexpected End(%s) in %q", ev.Tag.Kind, src)
					assert.Equal(t, stack[len(stack)-1], ev.Tag.Kind, "mismatched end in %q", src)
					stack = stack[:len(stack)-1]
				}
			}
			assert.Empty(t, stack, "unclosed tags in %q with %v", src, opts)
		}
	}
}

func TestEventRangesWithinParents(t *testing.T) {
	for _, src := range propertyCorpus() {
		for _, opts := range optionSets {
			p, err := NewParser(src, opts)
			require.NoError(t, err)
			n := len(p.Source())
			var parents []Range
			for ev := range p.Events() {
				r := ev.Range
				require.True(t, 0 <= r.Start && r.Start <= r.End && r.End <= n,
					"range %+v of %v out of bounds in %q", r, ev, src)
				if ev.Kind == EventEnd {
					parents = parents[:len(parents)-1]
					continue
				}
				if len(parents) > 0 {
					outer := parents[len(parents)-1]
					assert.True(t, outer.Start <= r.Start && r.End <= outer.End,
						"%v range %+v escapes parent %+v in %q", ev, r, outer, src)
				}
				if ev.Kind == EventStart {
					parents = append(parents, r)
				}
			}
		}
	}
}

func TestStartAndEndShareRange(t *testing.T) {
	events, err := ParseWithOptions("> *a* [b](/c)\n", 0)
	require.NoError(t, err)
	var open []Event
	for _, ev := range events {
		switch ev.Kind {
		case EventStart:
			open = append(open, ev)
		case EventEnd:
			start := open[len(open)-1]
			open = open[:len(open)-1]
			assert.Equal(t, start.Range, ev.Range)
			assert.Equal(t, start.Tag, ev.Tag)
		}
	}
}

func TestRenderingIsIdempotent(t *testing.T) {
	for _, src := range propertyCorpus() {
		events, err := ParseWithOptions(src, knownOptions)
		require.NoError(t, err)
		first := RenderHTML(slices.Values(events))
		second := RenderHTML(slices.Values(events))
		assert.Equal(t, first, second, "rendering %q twice differs", src)
	}
}

func TestParsingIsDeterministic(t *testing.T) {
	for _, src := range propertyCorpus() {
		a, err := ParseWithOptions(src, EnableGFM)
		require.NoError(t, err)
		b, err := ParseWithOptions(src, EnableGFM)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

// extensionSyntax reports whether src contains anything an extension
// could claim.
func extensionSyntax(src string) bool {
	if strings.ContainsAny(src, "~|\"'{") {
		return true
	}
	for _, s := range []string{"--", "...", "[^", "[ ]", "[x]", "[X]", "+++"} {
		if strings.Contains(src, s) {
			return true
		}
	}
	return false
}

func TestOptionsDoNotAffectUnrelatedConstructs(t *testing.T) {
	checked := 0
	for _, src := range propertyCorpus() {
		if extensionSyntax(src) {
			continue
		}
		checked++
		base, err := ParseWithOptions(src, 0)
		require.NoError(t, err)
		for _, opt := range []Options{EnableTables, EnableFootnotes, EnableStrikethrough, EnableTasklists,
			EnableSmartPunctuation, EnableHeadingAttributes, EnableMetadataBlocks, knownOptions} {
			got, err := ParseWithOptions(src, opt)
			require.NoError(t, err)
			assert.Equal(t, base, got, "option %v changed the parse of %q", opt, src)
		}
	}
	require.Greater(t, checked, 10)
}

func TestStrikethroughLeavesEmphasisAlone(t *testing.T) {
	src := "*a* **b** _c_ ***d*** ~~e~~\n"
	without, err := ParseWithOptions(src, 0)
	require.NoError(t, err)
	with, err := ParseWithOptions(src, EnableStrikethrough)
	require.NoError(t, err)
	emphasis := func(events []Event) []Event {
		var out []Event
		for _, ev := range events {
			if (ev.Kind == EventStart || ev.Kind == EventEnd) &&
				(ev.Tag.Kind == TagEmphasis || ev.Tag.Kind == TagStrong) {
				out = append(out, ev)
			}
		}
		return out
	}
	assert.Equal(t, emphasis(without), emphasis(with))
	assert.Contains(t, RenderHTML(slices.Values(with)), "<del>e</del>")
}

func TestEarlyTermination(t *testing.T) {
	src := "# one\n\ntwo *three*\n\n- four\n- five\n"
	all, err := ParseWithOptions(src, 0)
	require.NoError(t, err)

	p, err := NewParser(src, 0)
	require.NoError(t, err)
	var head []Event
	for ev := range p.Events() {
		head = append(head, ev)
		if len(head) == 3 {
			break
		}
	}
	require.Len(t, head, 3)
	rest := slices.Collect(p.Events())
	assert.Equal(t, all, append(head, rest...))

	ev, ok := p.Next()
	assert.False(t, ok)
	assert.Zero(t, ev)
}

var voidElements = map[string]bool{"br": true, "hr": true, "img": true, "input": true}

// assertBalancedHTML tokenizes out and checks that every element is
// closed in order.
func assertBalancedHTML(t *testing.T, src, out string) {
	t.Helper()
	z := html.NewTokenizer(strings.NewReader(out))
	var stack []string
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			require.ErrorIs(t, z.Err(), io.EOF)
			assert.Empty(t, stack, "unclosed elements for %q:\n%s", src, out)
			return
		case html.StartTagToken:
			name, _ := z.TagName()
			if !voidElements[string(name)] {
				stack = append(stack, string(name))
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			require.NotEmpty(t, stack, "stray </%s> for %q:\n%s", name, src, out)
			require.Equal(t, stack[len(stack)-1], string(name), "misnested html for %q:\n%s", src, out)
			stack = stack[:len(stack)-1]
		}
	}
}

func TestRenderedHTMLIsWellFormed(t *testing.T) {
	for _, src := range propertyCorpus() {
		if strings.Contains(src, "<") {
			continue
		}
		for _, opts := range optionSets {
			events, err := ParseWithOptions(src, opts)
			require.NoError(t, err)
			assertBalancedHTML(t, src, RenderHTML(slices.Values(events)))
		}
	}
}
