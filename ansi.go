package pulldown

import (
	"bufio"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"pkt.systems/pulldown/internal/palette"
)

const (
	ansiReset      = palette.Reset
	ruleWidth      = 40
	minColumnWidth = 3
)

// ansiContainer is an open block that contributes a prefix to each line
// written inside it. first, when set, replaces rest on the next line.
type ansiContainer struct {
	kind    TagKind
	first   string
	rest    string
	tight   bool
	ordered bool
	next    int
	started bool
}

// ansiRenderer folds events into themed terminal output. Leaf content is
// collected with its styles, then wrapped and prefixed line by line.
type ansiRenderer struct {
	w      *bufio.Writer
	err    error
	width  int
	styles Styles
	cfg    renderConfig

	containers []ansiContainer
	started    bool

	leaf       TagKind
	level      int
	inline     strings.Builder
	styleStack []string
	links      []Tag
	image      int
	imageTag   Tag
	alt        strings.Builder
	metadata   int

	code     strings.Builder
	codeTag  Tag
	aligns   []Alignment
	row      []string
	rows     [][]string
	headRows int
}

// WriteANSI renders events as styled terminal text wrapped to width. A
// width of 0 disables wrapping.
func WriteANSI(w io.Writer, events iter.Seq[Event], width int, theme Theme, opts ...RenderOption) error {
	r := &ansiRenderer{}
	r.reset(w, width, theme, newRenderConfig(opts))
	for ev := range events {
		r.event(ev)
		if r.err != nil {
			return r.err
		}
	}
	return r.flush()
}

func (r *ansiRenderer) reset(w io.Writer, width int, theme Theme, cfg renderConfig) {
	if r.w == nil {
		r.w = bufio.NewWriter(w)
	} else {
		r.w.Reset(w)
	}
	if theme == nil {
		theme = DefaultTheme()
	}
	r.err = nil
	r.width = width
	r.styles = theme.Styles()
	r.cfg = cfg
	r.containers = r.containers[:0]
	r.started = false
	r.leaf = 0
	r.inline.Reset()
	r.styleStack = r.styleStack[:0]
	r.links = r.links[:0]
	r.image = 0
	r.alt.Reset()
	r.metadata = 0
	r.code.Reset()
	r.aligns = nil
	r.row = nil
	r.rows = nil
	r.headRows = 0
}

func (r *ansiRenderer) flush() error {
	if r.err != nil {
		return r.err
	}
	return r.w.Flush()
}

func (r *ansiRenderer) write(s string) {
	if r.err != nil {
		return
	}
	_, r.err = r.w.WriteString(s)
}

func (r *ansiRenderer) event(ev Event) {
	if r.metadata > 0 {
		switch ev.Kind {
		case EventStart:
			r.metadata++
		case EventEnd:
			r.metadata--
		}
		return
	}
	if r.image > 0 {
		r.imageEvent(ev)
		return
	}
	switch ev.Kind {
	case EventStart:
		r.start(ev.Tag)
	case EventEnd:
		r.end(ev.Tag)
	case EventText:
		switch r.leaf {
		case TagCodeBlock, TagHTMLBlock:
			r.code.WriteString(ev.Text)
		default:
			r.inline.WriteString(ev.Text)
		}
	case EventCode:
		r.pushStyle(r.styles.CodeInline)
		if r.styles.CodeInline.Prefix == "" {
			r.inline.WriteString("`" + ev.Text + "`")
		} else {
			r.inline.WriteString(ev.Text)
		}
		r.popStyle()
	case EventHTML:
		if r.leaf == TagHTMLBlock {
			r.code.WriteString(ev.Text)
		} else {
			r.inline.WriteString(ev.Text)
		}
	case EventSoftBreak:
		r.inline.WriteByte(' ')
	case EventHardBreak:
		r.inline.WriteByte('\n')
	case EventFootnoteReference:
		r.pushStyle(r.styles.Footnote)
		r.inline.WriteString("[^" + ev.Text + "]")
		r.popStyle()
	case EventTaskListMarker:
		r.pushStyle(r.styles.ListMarker)
		if ev.Checked {
			r.inline.WriteString("[x] ")
		} else {
			r.inline.WriteString("[ ] ")
		}
		r.popStyle()
	case EventRule:
		r.blockStart()
		n := ruleWidth
		if avail := r.available(); r.width > 0 && avail > 0 {
			n = avail
		}
		r.writeLine(r.styles.ThematicBreak.Prefix + strings.Repeat("─", n) + r.resetFor(r.styles.ThematicBreak))
	}
}

func (r *ansiRenderer) resetFor(s Style) string {
	if s.Prefix == "" {
		return ""
	}
	return ansiReset
}

func (r *ansiRenderer) pushStyle(s Style) {
	r.styleStack = append(r.styleStack, s.Prefix)
	r.inline.WriteString(s.Prefix)
}

func (r *ansiRenderer) popStyle() {
	n := len(r.styleStack)
	if n == 0 {
		return
	}
	popped := r.styleStack[n-1]
	r.styleStack = r.styleStack[:n-1]
	if popped == "" {
		return
	}
	r.inline.WriteString(ansiReset)
	for _, s := range r.styleStack {
		r.inline.WriteString(s)
	}
}

func (r *ansiRenderer) beginLeaf(kind TagKind, base Style) {
	r.leaf = kind
	r.inline.Reset()
	r.styleStack = r.styleStack[:0]
	r.pushStyle(base)
}

func (r *ansiRenderer) endLeaf() string {
	for len(r.styleStack) > 0 {
		r.popStyle()
	}
	r.leaf = 0
	return r.inline.String()
}

// blockStart separates a block from its predecessor in the same container
// by a blank line, except inside tight lists and on an item's marker line.
func (r *ansiRenderer) blockStart() {
	started := &r.started
	if n := len(r.containers); n > 0 {
		c := &r.containers[n-1]
		started = &c.started
		switch {
		case c.kind == TagItem && (c.first != "" || c.tight),
			c.kind == TagList && c.tight:
			c.started = true
			return
		}
	}
	if *started {
		r.write(strings.TrimRight(r.restPrefix(), " ") + "\n")
	}
	*started = true
}

// linePrefix returns the prefix for the next line, consuming pending
// item markers.
func (r *ansiRenderer) linePrefix() string {
	var b strings.Builder
	for i := range r.containers {
		c := &r.containers[i]
		if c.first != "" {
			b.WriteString(c.first)
			c.first = ""
		} else {
			b.WriteString(c.rest)
		}
	}
	return b.String()
}

func (r *ansiRenderer) restPrefix() string {
	var b strings.Builder
	for _, c := range r.containers {
		b.WriteString(c.rest)
	}
	return b.String()
}

func (r *ansiRenderer) available() int {
	return r.width - ansi.PrintableRuneWidth(r.restPrefix())
}

func (r *ansiRenderer) writeLine(line string) {
	r.write(r.linePrefix() + line + "\n")
}

// writeWrapped wraps styled text to the available width and prefixes each
// line. Lines after the first are additionally indented by hang columns.
func (r *ansiRenderer) writeWrapped(text string, hang int) {
	if r.cfg.osc8 {
		// indent.Writer misreads OSC 8 payloads as SGR sequences.
		for i, l := range strings.Split(text, "\n") {
			p := r.linePrefix()
			if i > 0 && hang > 0 {
				p += strings.Repeat(" ", hang)
			}
			r.write(p + l + "\n")
		}
		return
	}
	if avail := r.available() - hang; r.width > 0 && avail > 0 {
		text = wordwrap.String(text, avail)
		if r.cfg.softWrap {
			text = wrap.String(text, avail)
		}
	}
	line := 0
	iw := indent.NewWriter(1, func(w io.Writer) {
		p := r.linePrefix()
		if line > 0 && hang > 0 {
			p += strings.Repeat(" ", hang)
		}
		line++
		_, _ = io.WriteString(w, p)
	})
	if _, err := iw.Write([]byte(text + "\n")); err != nil {
		r.err = err
		return
	}
	r.write(iw.String())
}

func (r *ansiRenderer) pushContainer(c ansiContainer) {
	r.containers = append(r.containers, c)
}

func (r *ansiRenderer) popContainer() ansiContainer {
	n := len(r.containers)
	if n == 0 {
		return ansiContainer{}
	}
	c := r.containers[n-1]
	r.containers = r.containers[:n-1]
	return c
}

func (r *ansiRenderer) start(tag Tag) {
	switch tag.Kind {
	case TagParagraph:
		r.blockStart()
		r.beginLeaf(TagParagraph, r.styles.Text)
	case TagHeading:
		r.blockStart()
		r.level = tag.Level
		r.beginLeaf(TagHeading, r.styles.Heading[min(max(tag.Level, 1), 6)-1])
		r.inline.WriteString(strings.Repeat("#", tag.Level) + " ")
	case TagBlockQuote:
		r.blockStart()
		q := r.styles.Quote.Prefix + ">" + r.resetFor(r.styles.Quote) + " "
		r.pushContainer(ansiContainer{kind: TagBlockQuote, rest: q})
	case TagList:
		r.blockStart()
		r.pushContainer(ansiContainer{kind: TagList, tight: tag.Tight, ordered: tag.Ordered, next: tag.Start})
	case TagItem:
		r.blockStart()
		marker := "-"
		tight := false
		if n := len(r.containers); n > 0 && r.containers[n-1].kind == TagList {
			list := &r.containers[n-1]
			tight = list.tight
			if list.ordered {
				marker = strconv.Itoa(list.next) + "."
				list.next++
			}
		}
		styled := r.styles.ListMarker.Prefix + marker + r.resetFor(r.styles.ListMarker) + " "
		r.pushContainer(ansiContainer{
			kind:  TagItem,
			first: styled,
			rest:  strings.Repeat(" ", len(marker)+1),
			tight: tight,
		})
	case TagFootnoteDefinition:
		r.blockStart()
		label := r.styles.Footnote.Prefix + "[^" + tag.Label + "]:" + r.resetFor(r.styles.Footnote) + " "
		r.pushContainer(ansiContainer{kind: TagFootnoteDefinition, first: label, rest: "    "})
	case TagCodeBlock:
		r.blockStart()
		r.leaf = TagCodeBlock
		r.codeTag = tag
		r.code.Reset()
	case TagHTMLBlock:
		r.blockStart()
		r.leaf = TagHTMLBlock
		r.code.Reset()
	case TagTable:
		r.blockStart()
		r.aligns = tag.Alignments
		r.rows = r.rows[:0]
		r.headRows = 0
	case TagTableHead, TagTableRow:
		r.row = nil
	case TagTableCell:
		r.beginLeaf(TagTableCell, r.styles.Text)
	case TagEmphasis:
		r.pushStyle(r.styles.Emphasis)
	case TagStrong:
		r.pushStyle(r.styles.Strong)
	case TagStrikethrough:
		r.pushStyle(r.styles.Strikethrough)
	case TagLink:
		r.pushStyle(r.styles.LinkText)
		if r.cfg.osc8 {
			r.inline.WriteString(osc8Open(tag.URL))
		}
		r.links = append(r.links, tag)
	case TagImage:
		r.image = 1
		r.imageTag = tag
		r.alt.Reset()
	case TagMetadataBlock:
		r.metadata = 1
	}
}

func (r *ansiRenderer) end(tag Tag) {
	switch tag.Kind {
	case TagParagraph:
		r.writeWrapped(r.endLeaf(), 0)
	case TagHeading:
		r.writeWrapped(r.endLeaf(), r.level+1)
	case TagBlockQuote, TagList, TagFootnoteDefinition:
		r.popContainer()
	case TagItem:
		if n := len(r.containers); n > 0 && r.containers[n-1].first != "" {
			r.writeLine("")
		}
		r.popContainer()
	case TagCodeBlock:
		r.leaf = 0
		r.writeCodeBlock()
	case TagHTMLBlock:
		r.leaf = 0
		for _, line := range splitLines(r.code.String()) {
			r.writeLine(line)
		}
	case TagTableCell:
		r.row = append(r.row, r.endLeaf())
	case TagTableHead:
		r.rows = append(r.rows, r.row)
		r.headRows = len(r.rows)
	case TagTableRow:
		r.rows = append(r.rows, r.row)
	case TagTable:
		r.writeTable()
	case TagEmphasis, TagStrong, TagStrikethrough:
		r.popStyle()
	case TagLink:
		r.endLink()
	}
}

func (r *ansiRenderer) endLink() {
	n := len(r.links)
	if n == 0 {
		r.popStyle()
		return
	}
	tag := r.links[n-1]
	r.links = r.links[:n-1]
	if r.cfg.osc8 {
		r.inline.WriteString(osc8End)
		r.popStyle()
		return
	}
	r.popStyle()
	switch tag.LinkType {
	case LinkAutolink, LinkEmail:
		return
	}
	url := tag.URL
	if limit := r.available() / 2; r.width > 0 && limit > 0 {
		url = fitURL(url, limit)
	}
	r.inline.WriteString(" (")
	r.pushStyle(r.styles.LinkURL)
	r.inline.WriteString(url)
	r.popStyle()
	r.inline.WriteString(")")
}

func (r *ansiRenderer) imageEvent(ev Event) {
	switch ev.Kind {
	case EventStart:
		r.image++
	case EventEnd:
		r.image--
		if r.image > 0 {
			return
		}
		r.pushStyle(r.styles.LinkText)
		r.inline.WriteString("[" + r.alt.String() + "]")
		r.popStyle()
		r.inline.WriteString(" (")
		r.pushStyle(r.styles.LinkURL)
		r.inline.WriteString(r.imageTag.URL)
		r.popStyle()
		r.inline.WriteString(")")
	case EventText, EventCode:
		r.alt.WriteString(ev.Text)
	case EventSoftBreak, EventHardBreak:
		r.alt.WriteByte(' ')
	}
}

func (r *ansiRenderer) writeCodeBlock() {
	st := r.styles.CodeBlock
	fence := "```"
	if r.codeTag.CodeBlock == CodeBlockFenced {
		r.writeLine(st.Prefix + fence + r.codeTag.Language() + r.resetFor(st))
	}
	for _, line := range splitLines(r.code.String()) {
		if r.codeTag.CodeBlock == CodeBlockIndented {
			line = "    " + line
		}
		r.writeLine(st.Prefix + line + r.resetFor(st))
	}
	if r.codeTag.CodeBlock == CodeBlockFenced {
		r.writeLine(st.Prefix + fence + r.resetFor(st))
	}
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// writeTable lays the collected cells out in aligned columns.
func (r *ansiRenderer) writeTable() {
	widths := make([]int, len(r.aligns))
	for _, row := range r.rows {
		for j, cell := range row {
			if j < len(widths) {
				widths[j] = max(widths[j], ansi.PrintableRuneWidth(cell), minColumnWidth)
			}
		}
	}
	border := r.styles.TableBorder
	sep := " " + border.Prefix + "│" + r.resetFor(border) + " "
	for i, row := range r.rows {
		cells := make([]string, len(widths))
		for j := range widths {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			cells[j] = alignCell(cell, widths[j], r.aligns[j])
		}
		r.writeLine(strings.TrimRight(strings.Join(cells, sep), " "))
		if i+1 == r.headRows {
			rules := make([]string, len(widths))
			for j, w := range widths {
				rules[j] = strings.Repeat("─", w)
			}
			r.writeLine(border.Prefix + strings.Join(rules, "─┼─") + r.resetFor(border))
		}
	}
	r.rows = r.rows[:0]
}

func alignCell(cell string, width int, align Alignment) string {
	gap := width - ansi.PrintableRuneWidth(cell)
	if gap <= 0 {
		return cell
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + cell
	case AlignCenter:
		left := gap / 2
		return padding.String(strings.Repeat(" ", left)+cell, uint(width))
	default:
		return padding.String(cell, uint(width))
	}
}
