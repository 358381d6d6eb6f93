package pulldown

import "strconv"

// EventKind discriminates Event.
type EventKind uint8

const (
	EventStart EventKind = iota + 1
	EventEnd
	EventText
	EventCode
	EventHTML
	EventFootnoteReference
	EventSoftBreak
	EventHardBreak
	EventRule
	EventTaskListMarker
)

var eventKindNames = [...]string{
	EventStart:             "Start",
	EventEnd:               "End",
	EventText:              "Text",
	EventCode:              "Code",
	EventHTML:              "Html",
	EventFootnoteReference: "FootnoteReference",
	EventSoftBreak:         "SoftBreak",
	EventHardBreak:         "HardBreak",
	EventRule:              "Rule",
	EventTaskListMarker:    "TaskListMarker",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) && eventKindNames[k] != "" {
		return eventKindNames[k]
	}
	return "EventKind(" + strconv.Itoa(int(k)) + ")"
}

// Range is a half-open byte range into the parsed source.
type Range struct {
	Start, End int
}

// Event is one token of the parse. Tag is set for EventStart and EventEnd;
// Text carries the payload of EventText, EventCode, EventHTML and the
// label of EventFootnoteReference; Checked is set for EventTaskListMarker.
type Event struct {
	Kind    EventKind
	Tag     Tag
	Text    string
	Checked bool
	Range   Range
}

// TagKind discriminates Tag.
type TagKind uint8

const (
	TagParagraph TagKind = iota + 1
	TagHeading
	TagBlockQuote
	TagCodeBlock
	TagHTMLBlock
	TagList
	TagItem
	TagFootnoteDefinition
	TagTable
	TagTableHead
	TagTableRow
	TagTableCell
	TagEmphasis
	TagStrong
	TagStrikethrough
	TagLink
	TagImage
	TagMetadataBlock
)

var tagKindNames = [...]string{
	TagParagraph:          "Paragraph",
	TagHeading:            "Heading",
	TagBlockQuote:         "BlockQuote",
	TagCodeBlock:          "CodeBlock",
	TagHTMLBlock:          "HtmlBlock",
	TagList:               "List",
	TagItem:               "Item",
	TagFootnoteDefinition: "FootnoteDefinition",
	TagTable:              "Table",
	TagTableHead:          "TableHead",
	TagTableRow:           "TableRow",
	TagTableCell:          "TableCell",
	TagEmphasis:           "Emphasis",
	TagStrong:             "Strong",
	TagStrikethrough:      "Strikethrough",
	TagLink:               "Link",
	TagImage:              "Image",
	TagMetadataBlock:      "MetadataBlock",
}

func (k TagKind) String() string {
	if int(k) < len(tagKindNames) && tagKindNames[k] != "" {
		return tagKindNames[k]
	}
	return "TagKind(" + strconv.Itoa(int(k)) + ")"
}

// IsBlock reports whether the tag opens a block-level construct.
func (k TagKind) IsBlock() bool {
	return k >= TagParagraph && k <= TagTableCell || k == TagMetadataBlock
}

// CodeBlockKind tells fenced code from indented code.
type CodeBlockKind uint8

const (
	CodeBlockIndented CodeBlockKind = iota
	CodeBlockFenced
)

// LinkType records how a link or image destination was written.
type LinkType uint8

const (
	LinkInline LinkType = iota
	LinkReference
	LinkReferenceUnknown
	LinkCollapsed
	LinkCollapsedUnknown
	LinkShortcut
	LinkShortcutUnknown
	LinkAutolink
	LinkEmail
)

var linkTypeNames = [...]string{
	LinkInline:           "Inline",
	LinkReference:        "Reference",
	LinkReferenceUnknown: "ReferenceUnknown",
	LinkCollapsed:        "Collapsed",
	LinkCollapsedUnknown: "CollapsedUnknown",
	LinkShortcut:         "Shortcut",
	LinkShortcutUnknown:  "ShortcutUnknown",
	LinkAutolink:         "Autolink",
	LinkEmail:            "Email",
}

func (t LinkType) String() string {
	if int(t) < len(linkTypeNames) {
		return linkTypeNames[t]
	}
	return "LinkType(" + strconv.Itoa(int(t)) + ")"
}

// Alignment is the column alignment of a table.
type Alignment uint8

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "Left"
	case AlignCenter:
		return "Center"
	case AlignRight:
		return "Right"
	default:
		return "None"
	}
}

// MetadataBlockKind tells YAML front matter from plus-delimited front matter.
type MetadataBlockKind uint8

const (
	MetadataYAML MetadataBlockKind = iota
	MetadataPluses
)

// Tag describes a construct opened by EventStart and closed by EventEnd.
// Only the fields relevant to Kind are set.
type Tag struct {
	Kind TagKind

	// Heading.
	Level   int
	ID      string
	Classes []string

	// CodeBlock. Info is the full info string of a fenced block.
	CodeBlock CodeBlockKind
	Info      string

	// List. Start is meaningful only when Ordered is set.
	Ordered bool
	Start   int
	Tight   bool

	// FootnoteDefinition.
	Label string

	// Table.
	Alignments []Alignment

	// Link and Image.
	LinkType LinkType
	URL      string
	Title    string

	// MetadataBlock.
	Metadata MetadataBlockKind
}

// Language returns the first word of a fenced code block's info string.
func (t Tag) Language() string {
	info := t.Info
	for i := 0; i < len(info); i++ {
		if info[i] == ' ' || info[i] == '\t' {
			return info[:i]
		}
	}
	return info
}
