package pulldown

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"unicode/utf8"
)

// Parser produces the events of one document on demand. The block
// structure is scanned up front; the inline content of each leaf is
// resolved only when the parser reaches it.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	src   string
	opts  Options
	tree  *blockTree
	stack []frame
	queue []Event
	qpos  int
}

type frame struct {
	b    *block
	next int
}

// NewParser validates source and scans its block structure. Unknown
// option bits are ignored.
func NewParser(source string, opts Options) (*Parser, error) {
	if !utf8.ValidString(source) {
		return nil, fmt.Errorf("parse: %w", ErrInvalidUTF8)
	}
	if strings.IndexByte(source, 0) >= 0 {
		source = strings.ReplaceAll(source, "\x00", "\ufffd")
	}
	opts = opts.Known()
	tree := scanBlocks(source, opts)
	return &Parser{
		src:   source,
		opts:  opts,
		tree:  tree,
		stack: []frame{{b: tree.root}},
	}, nil
}

// Source returns the text the event ranges refer to. It differs from the
// input only in that NUL characters are replaced by U+FFFD.
func (p *Parser) Source() string { return p.src }

// Next returns the next event, or false once the document is exhausted.
func (p *Parser) Next() (Event, bool) {
	for {
		if p.qpos < len(p.queue) {
			ev := p.queue[p.qpos]
			p.qpos++
			return ev, true
		}
		p.queue, p.qpos = p.queue[:0], 0
		if len(p.stack) == 0 {
			return Event{}, false
		}
		top := &p.stack[len(p.stack)-1]
		b := top.b
		if top.next >= len(b.children) {
			p.stack = p.stack[:len(p.stack)-1]
			if b.kind != blockDocument {
				p.queue = append(p.queue, Event{Kind: EventEnd, Tag: p.tag(b), Range: Range{b.start, b.end}})
			}
			continue
		}
		child := b.children[top.next]
		top.next++
		p.enter(child)
	}
}

// Events adapts the parser to a range-over-func sequence. Breaking out of
// the loop leaves the remaining content unresolved.
func (p *Parser) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for {
			ev, ok := p.Next()
			if !ok || !yield(ev) {
				return
			}
		}
	}
}

// ParseWithOptions parses source and collects all of its events.
func ParseWithOptions(source string, opts Options) ([]Event, error) {
	p, err := NewParser(source, opts)
	if err != nil {
		return nil, err
	}
	var events []Event
	for ev := range p.Events() {
		events = append(events, ev)
	}
	return events, nil
}

// MarkdownToHTML renders source as HTML with no extensions enabled.
func MarkdownToHTML(source string) (string, error) {
	p, err := NewParser(source, 0)
	if err != nil {
		return "", err
	}
	return RenderHTML(p.Events()), nil
}

func (p *Parser) tag(b *block) Tag {
	switch b.kind {
	case blockParagraph:
		return Tag{Kind: TagParagraph}
	case blockHeading:
		return Tag{Kind: TagHeading, Level: b.level, ID: b.hid, Classes: b.classes}
	case blockCodeBlock:
		if b.fenced {
			return Tag{Kind: TagCodeBlock, CodeBlock: CodeBlockFenced, Info: b.info}
		}
		return Tag{Kind: TagCodeBlock, CodeBlock: CodeBlockIndented}
	case blockHTML:
		return Tag{Kind: TagHTMLBlock}
	case blockQuote:
		return Tag{Kind: TagBlockQuote}
	case blockList:
		return Tag{Kind: TagList, Ordered: b.list.ordered, Start: b.list.start, Tight: b.list.tight}
	case blockItem:
		return Tag{Kind: TagItem}
	case blockFootnoteDefinition:
		return Tag{Kind: TagFootnoteDefinition, Label: b.label}
	case blockTable:
		return Tag{Kind: TagTable, Alignments: b.aligns}
	case blockTableHead:
		return Tag{Kind: TagTableHead}
	case blockTableRow:
		return Tag{Kind: TagTableRow}
	case blockTableCell:
		return Tag{Kind: TagTableCell}
	case blockMetadata:
		return Tag{Kind: TagMetadataBlock, Metadata: b.meta}
	}
	panic(fmt.Sprintf("pulldown: no tag for block kind %d", b.kind))
}

// enter queues the events for b. Containers push a frame; leaves are
// resolved completely.
func (p *Parser) enter(b *block) {
	r := Range{b.start, b.end}
	switch b.kind {
	case blockThematicBreak:
		p.queue = append(p.queue, Event{Kind: EventRule, Range: r})
		return
	case blockQuote, blockList, blockItem, blockFootnoteDefinition,
		blockTable, blockTableHead, blockTableRow:
		p.queue = append(p.queue, Event{Kind: EventStart, Tag: p.tag(b), Range: r})
		p.stack = append(p.stack, frame{b: b})
		return
	}

	tag := p.tag(b)
	p.queue = append(p.queue, Event{Kind: EventStart, Tag: tag, Range: r})
	switch b.kind {
	case blockParagraph, blockHeading, blockTableCell:
		if b.task != taskNone {
			p.queue = append(p.queue, Event{
				Kind:    EventTaskListMarker,
				Checked: b.task == taskChecked,
				Range:   Range{b.start, b.lines[0].offset},
			})
		}
		p.inlineEvents(b)
	case blockCodeBlock:
		for _, l := range b.lines {
			p.queue = append(p.queue, Event{Kind: EventText, Text: p.lineWithNewline(l, true), Range: lineRange(l)})
		}
	case blockHTML:
		for _, l := range b.lines {
			p.queue = append(p.queue, Event{Kind: EventHTML, Text: p.lineWithNewline(l, l.eol), Range: lineRange(l)})
		}
	case blockMetadata:
		var sb strings.Builder
		for _, l := range b.lines {
			sb.WriteString(l.text)
			sb.WriteByte('\n')
		}
		if sb.Len() > 0 {
			start, end := b.lines[0].offset, lineRange(b.lines[len(b.lines)-1]).End
			p.queue = append(p.queue, Event{Kind: EventText, Text: sb.String(), Range: Range{start, end}})
		}
	}
	p.queue = append(p.queue, Event{Kind: EventEnd, Tag: tag, Range: r})
}

func lineRange(l sourceLine) Range {
	return Range{l.offset, l.offset + len(l.text)}
}

// lineWithNewline returns l.text, followed by a newline when nl is set,
// reusing the source when it already holds exactly that text.
func (p *Parser) lineWithNewline(l sourceLine, nl bool) string {
	end := l.offset + len(l.text)
	if end > len(p.src) || p.src[l.offset:end] != l.text {
		if nl {
			return l.text + "\n"
		}
		return l.text
	}
	if !nl {
		return l.text
	}
	if end < len(p.src) && p.src[end] == '\n' {
		return p.src[l.offset : end+1]
	}
	return l.text + "\n"
}

// segment maps a stretch of leaf content back to the source.
type segment struct {
	content int
	source  int
	length  int
}

// leafContent joins the lines of a leaf into the string the inline
// resolver works on.
func leafContent(lines []sourceLine) (string, []segment) {
	if len(lines) == 1 {
		text := strings.TrimRight(lines[0].text, " \t")
		return text, []segment{{0, lines[0].offset, len(text)}}
	}
	var sb strings.Builder
	segs := make([]segment, 0, len(lines))
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		text := l.text
		if i == len(lines)-1 {
			text = strings.TrimRight(text, " \t")
		}
		segs = append(segs, segment{sb.Len(), l.offset, len(text)})
		sb.WriteString(text)
	}
	return sb.String(), segs
}

func (p *Parser) sourcePos(segs []segment, pos int) int {
	i := sort.Search(len(segs), func(i int) bool { return segs[i].content > pos }) - 1
	if i < 0 {
		i = 0
	}
	s := segs[i]
	off := pos - s.content
	if off > s.length {
		// The joining newline sits at the end of the source line.
		off = s.length + 1
	}
	return min(max(s.source+off, 0), len(p.src))
}

func (p *Parser) inlineEvents(b *block) {
	if len(b.lines) == 0 {
		return
	}
	content, segs := leafContent(b.lines)
	root := parseInlines(content, p.opts, p.tree.refs, b.kind == blockTableCell)
	p.emitInlines(root, segs)
}

func (p *Parser) emitInlines(n *inline, segs []segment) {
	for c := n.first; c != nil; c = c.next {
		r := Range{p.sourcePos(segs, c.start), p.sourcePos(segs, c.end)}
		switch c.kind {
		case inlineText:
			p.queue = append(p.queue, Event{Kind: EventText, Text: c.text, Range: r})
		case inlineSoftBreak:
			p.queue = append(p.queue, Event{Kind: EventSoftBreak, Range: r})
		case inlineHardBreak:
			p.queue = append(p.queue, Event{Kind: EventHardBreak, Range: r})
		case inlineCode:
			p.queue = append(p.queue, Event{Kind: EventCode, Text: c.text, Range: r})
		case inlineHTML:
			p.queue = append(p.queue, Event{Kind: EventHTML, Text: c.text, Range: r})
		case inlineFootnoteRef:
			p.queue = append(p.queue, Event{Kind: EventFootnoteReference, Text: c.text, Range: r})
		case inlineEmphasis, inlineStrong, inlineStrikethrough, inlineLink, inlineImage:
			tag := inlineTag(c)
			p.queue = append(p.queue, Event{Kind: EventStart, Tag: tag, Range: r})
			p.emitInlines(c, segs)
			p.queue = append(p.queue, Event{Kind: EventEnd, Tag: tag, Range: r})
		}
	}
}

func inlineTag(n *inline) Tag {
	switch n.kind {
	case inlineEmphasis:
		return Tag{Kind: TagEmphasis}
	case inlineStrong:
		return Tag{Kind: TagStrong}
	case inlineStrikethrough:
		return Tag{Kind: TagStrikethrough}
	case inlineImage:
		return Tag{Kind: TagImage, LinkType: n.linkType, URL: n.url, Title: n.title}
	default:
		return Tag{Kind: TagLink, LinkType: n.linkType, URL: n.url, Title: n.title}
	}
}
