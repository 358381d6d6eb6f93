package pulldown

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormatEvents(t *testing.T) {
	p, err := NewParser("# Hi\n\n- [x] *done* `x`\n\n***\n", EnableTasklists)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	want := `Start(Heading 1)
  Text("Hi")
End(Heading)
Start(List tight)
  Start(Item)
    Start(Paragraph)
      TaskListMarker(true)
      Start(Emphasis)
        Text("done")
      End(Emphasis)
      Text(" ")
      Code("x")
    End(Paragraph)
  End(Item)
End(List)
Rule
`
	if diff := cmp.Diff(want, FormatEvents(p.Events())); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestTagString(t *testing.T) {
	cases := []struct {
		tag  Tag
		want string
	}{
		{Tag{Kind: TagHeading, Level: 2, ID: "a", Classes: []string{"b", "c"}}, "Heading 2 #a .b .c"},
		{Tag{Kind: TagCodeBlock, CodeBlock: CodeBlockFenced, Info: "go linenos"}, `CodeBlock fenced "go linenos"`},
		{Tag{Kind: TagCodeBlock}, "CodeBlock indented"},
		{Tag{Kind: TagList, Ordered: true, Start: 3}, "List ordered 3"},
		{Tag{Kind: TagLink, LinkType: LinkInline, URL: "/u", Title: "t"}, `Link Inline "/u" "t"`},
		{Tag{Kind: TagImage, LinkType: LinkShortcut, URL: "/i"}, `Image Shortcut "/i"`},
		{Tag{Kind: TagTable, Alignments: []Alignment{AlignRight, AlignCenter}}, "Table Right Center"},
		{Tag{Kind: TagMetadataBlock, Metadata: MetadataPluses}, "MetadataBlock pluses"},
		{Tag{Kind: TagStrong}, "Strong"},
	}
	for _, tc := range cases {
		if got := tc.tag.String(); got != tc.want {
			t.Fatalf("Tag.String() = %q, want %q", got, tc.want)
		}
	}
	if got := (Tag{Kind: TagCodeBlock, Info: "rust ignore"}).Language(); got != "rust" {
		t.Fatalf("Language() = %q", got)
	}
}
