package pulldown

import (
	"bufio"
	"io"
	"iter"
	"strconv"
	"strings"
)

type tableState uint8

const (
	tableHead tableState = iota
	tableBody
)

type openTag struct {
	tag    Tag
	hidden bool
}

// htmlWriter folds events into HTML. It writes a newline before a block
// tag only when the output does not already end in one.
type htmlWriter struct {
	w          *bufio.Writer
	err        error
	endNewline bool

	open      []openTag
	table     tableState
	aligns    []Alignment
	cell      int
	footnotes map[string]int
	image     int
	alt       strings.Builder
	imageTag  Tag
	metadata  int
}

// WriteHTML renders events to w.
func WriteHTML(w io.Writer, events iter.Seq[Event]) error {
	hw := newHTMLWriter(w)
	for ev := range events {
		hw.event(ev)
		if hw.err != nil {
			return hw.err
		}
	}
	return hw.flush()
}

// RenderHTML renders events to a string.
func RenderHTML(events iter.Seq[Event]) string {
	var sb strings.Builder
	_ = WriteHTML(&sb, events)
	return sb.String()
}

func newHTMLWriter(w io.Writer) *htmlWriter {
	return &htmlWriter{w: bufio.NewWriter(w), endNewline: true}
}

func (h *htmlWriter) reset(w io.Writer) {
	h.w.Reset(w)
	h.err = nil
	h.endNewline = true
	h.open = h.open[:0]
	h.aligns = nil
	h.cell = 0
	h.footnotes = nil
	h.image = 0
	h.alt.Reset()
	h.metadata = 0
}

func (h *htmlWriter) flush() error {
	if h.err != nil {
		return h.err
	}
	return h.w.Flush()
}

func (h *htmlWriter) write(s string) {
	if h.err != nil || s == "" {
		return
	}
	_, h.err = h.w.WriteString(s)
	h.endNewline = s[len(s)-1] == '\n'
}

func (h *htmlWriter) escaped(s string) {
	if h.err != nil || s == "" {
		return
	}
	h.err = writeEscapedHTML(h.w, s)
	h.endNewline = s[len(s)-1] == '\n'
}

func (h *htmlWriter) blockStart(s string) {
	if !h.endNewline {
		h.write("\n")
	}
	h.write(s)
}

func (h *htmlWriter) footnoteNumber(label string) int {
	if h.footnotes == nil {
		h.footnotes = make(map[string]int)
	}
	n, ok := h.footnotes[label]
	if !ok {
		n = len(h.footnotes) + 1
		h.footnotes[label] = n
	}
	return n
}

func (h *htmlWriter) event(ev Event) {
	if h.metadata > 0 {
		switch ev.Kind {
		case EventStart:
			h.metadata++
		case EventEnd:
			h.metadata--
		}
		return
	}
	if h.image > 0 {
		h.imageAlt(ev)
		return
	}
	switch ev.Kind {
	case EventStart:
		h.start(ev.Tag)
	case EventEnd:
		h.end(ev.Tag)
	case EventText:
		h.escaped(ev.Text)
	case EventCode:
		h.write("<code>")
		h.escaped(ev.Text)
		h.write("</code>")
	case EventHTML:
		h.write(ev.Text)
	case EventSoftBreak:
		h.write("\n")
	case EventHardBreak:
		h.write("<br />\n")
	case EventRule:
		h.blockStart("<hr />\n")
	case EventFootnoteReference:
		n := h.footnoteNumber(ev.Text)
		h.write(`<sup class="footnote-reference"><a href="#`)
		h.escaped(ev.Text)
		h.write(`">` + strconv.Itoa(n) + `</a></sup>`)
	case EventTaskListMarker:
		if ev.Checked {
			h.write("<input disabled=\"\" type=\"checkbox\" checked=\"\"/>\n")
		} else {
			h.write("<input disabled=\"\" type=\"checkbox\"/>\n")
		}
	}
}

// tightParagraph reports whether a paragraph opened now sits directly in
// an item of a tight list.
func (h *htmlWriter) tightParagraph() bool {
	if len(h.open) == 0 || h.open[len(h.open)-1].tag.Kind != TagItem {
		return false
	}
	for i := len(h.open) - 2; i >= 0; i-- {
		if h.open[i].tag.Kind == TagList {
			return h.open[i].tag.Tight
		}
	}
	return false
}

func (h *htmlWriter) start(tag Tag) {
	hidden := false
	switch tag.Kind {
	case TagParagraph:
		if hidden = h.tightParagraph(); !hidden {
			h.blockStart("<p>")
		}
	case TagHeading:
		h.blockStart("<h" + strconv.Itoa(tag.Level))
		if tag.ID != "" {
			h.write(` id="`)
			h.escaped(tag.ID)
			h.write(`"`)
		}
		if len(tag.Classes) > 0 {
			h.write(` class="`)
			h.escaped(strings.Join(tag.Classes, " "))
			h.write(`"`)
		}
		h.write(">")
	case TagTable:
		h.aligns = tag.Alignments
		h.blockStart("<table>")
	case TagTableHead:
		h.table = tableHead
		h.cell = 0
		h.write("<thead><tr>")
	case TagTableRow:
		h.cell = 0
		h.write("<tr>")
	case TagTableCell:
		if h.table == tableHead {
			h.write("<th")
		} else {
			h.write("<td")
		}
		if h.cell < len(h.aligns) {
			switch h.aligns[h.cell] {
			case AlignLeft:
				h.write(` style="text-align: left"`)
			case AlignCenter:
				h.write(` style="text-align: center"`)
			case AlignRight:
				h.write(` style="text-align: right"`)
			}
		}
		h.write(">")
	case TagBlockQuote:
		h.blockStart("<blockquote>\n")
	case TagCodeBlock:
		if lang := tag.Language(); tag.CodeBlock == CodeBlockFenced && lang != "" {
			h.blockStart(`<pre><code class="language-`)
			h.escaped(lang)
			h.write(`">`)
		} else {
			h.blockStart("<pre><code>")
		}
	case TagList:
		switch {
		case !tag.Ordered:
			h.blockStart("<ul>\n")
		case tag.Start == 1:
			h.blockStart("<ol>\n")
		default:
			h.blockStart(`<ol start="` + strconv.Itoa(tag.Start) + "\">\n")
		}
	case TagItem:
		h.blockStart("<li>")
	case TagHTMLBlock:
		h.blockStart("")
	case TagFootnoteDefinition:
		h.blockStart(`<div class="footnote-definition" id="`)
		h.escaped(tag.Label)
		h.write(`"><sup class="footnote-definition-label">` + strconv.Itoa(h.footnoteNumber(tag.Label)) + "</sup>")
	case TagEmphasis:
		h.write("<em>")
	case TagStrong:
		h.write("<strong>")
	case TagStrikethrough:
		h.write("<del>")
	case TagLink:
		if tag.LinkType == LinkEmail {
			h.write(`<a href="mailto:`)
		} else {
			h.write(`<a href="`)
		}
		h.write(EscapeHref(tag.URL))
		if tag.Title != "" {
			h.write(`" title="`)
			h.escaped(tag.Title)
		}
		h.write(`">`)
	case TagImage:
		h.image = 1
		h.imageTag = tag
		h.alt.Reset()
		return
	case TagMetadataBlock:
		h.metadata = 1
		return
	}
	h.open = append(h.open, openTag{tag: tag, hidden: hidden})
}

func (h *htmlWriter) end(tag Tag) {
	hidden := false
	if n := len(h.open); n > 0 {
		hidden = h.open[n-1].hidden
		h.open = h.open[:n-1]
	}
	switch tag.Kind {
	case TagParagraph:
		if !hidden {
			h.write("</p>\n")
		}
	case TagHeading:
		h.write("</h" + strconv.Itoa(tag.Level) + ">\n")
	case TagTable:
		h.write("</tbody></table>\n")
	case TagTableHead:
		h.write("</tr></thead><tbody>\n")
		h.table = tableBody
	case TagTableRow:
		h.write("</tr>\n")
	case TagTableCell:
		if h.table == tableHead {
			h.write("</th>")
		} else {
			h.write("</td>")
		}
		h.cell++
	case TagBlockQuote:
		h.write("</blockquote>\n")
	case TagCodeBlock:
		h.write("</code></pre>\n")
	case TagList:
		if tag.Ordered {
			h.write("</ol>\n")
		} else {
			h.write("</ul>\n")
		}
	case TagItem:
		h.write("</li>\n")
	case TagFootnoteDefinition:
		h.write("</div>\n")
	case TagEmphasis:
		h.write("</em>")
	case TagStrong:
		h.write("</strong>")
	case TagStrikethrough:
		h.write("</del>")
	case TagLink:
		h.write("</a>")
	}
}

// imageAlt collects the plain text of an image's content until the image
// closes, then writes the img element.
func (h *htmlWriter) imageAlt(ev Event) {
	switch ev.Kind {
	case EventStart:
		h.image++
	case EventEnd:
		h.image--
		if h.image > 0 {
			return
		}
		tag := h.imageTag
		h.write(`<img src="`)
		h.write(EscapeHref(tag.URL))
		h.write(`" alt="`)
		h.escaped(h.alt.String())
		if tag.Title != "" {
			h.write(`" title="`)
			h.escaped(tag.Title)
		}
		h.write(`" />`)
	case EventText, EventCode, EventHTML:
		h.alt.WriteString(ev.Text)
	case EventSoftBreak, EventHardBreak:
		h.alt.WriteByte(' ')
	case EventFootnoteReference:
		h.alt.WriteString("[^" + ev.Text + "]")
	}
}
