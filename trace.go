package pulldown

import (
	"bufio"
	"io"
	"iter"
	"strconv"
	"strings"
)

// FormatEvents renders events as a line-oriented trace, one event per
// line, indented by nesting depth.
func FormatEvents(events iter.Seq[Event]) string {
	var sb strings.Builder
	_ = WriteEvents(&sb, events)
	return sb.String()
}

// WriteEvents writes the trace of FormatEvents to w.
func WriteEvents(w io.Writer, events iter.Seq[Event]) error {
	bw := bufio.NewWriter(w)
	depth := 0
	for ev := range events {
		if ev.Kind == EventEnd {
			depth--
		}
		bw.WriteString(strings.Repeat("  ", max(depth, 0)))
		bw.WriteString(ev.String())
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		if ev.Kind == EventStart {
			depth++
		}
	}
	return bw.Flush()
}

// String formats the event as it appears in FormatEvents.
func (ev Event) String() string {
	switch ev.Kind {
	case EventStart:
		return "Start(" + ev.Tag.String() + ")"
	case EventEnd:
		return "End(" + ev.Tag.Kind.String() + ")"
	case EventText, EventCode, EventHTML, EventFootnoteReference:
		return ev.Kind.String() + "(" + strconv.Quote(ev.Text) + ")"
	case EventTaskListMarker:
		return "TaskListMarker(" + strconv.FormatBool(ev.Checked) + ")"
	default:
		return ev.Kind.String()
	}
}

// String describes the tag with the attributes relevant to its kind.
func (t Tag) String() string {
	var args []string
	switch t.Kind {
	case TagHeading:
		args = append(args, strconv.Itoa(t.Level))
		if t.ID != "" {
			args = append(args, "#"+t.ID)
		}
		for _, c := range t.Classes {
			args = append(args, "."+c)
		}
	case TagCodeBlock:
		if t.CodeBlock == CodeBlockFenced {
			args = append(args, "fenced", strconv.Quote(t.Info))
		} else {
			args = append(args, "indented")
		}
	case TagList:
		if t.Ordered {
			args = append(args, "ordered", strconv.Itoa(t.Start))
		}
		if t.Tight {
			args = append(args, "tight")
		}
	case TagFootnoteDefinition:
		args = append(args, strconv.Quote(t.Label))
	case TagTable:
		for _, a := range t.Alignments {
			args = append(args, a.String())
		}
	case TagLink, TagImage:
		args = append(args, t.LinkType.String(), strconv.Quote(t.URL))
		if t.Title != "" {
			args = append(args, strconv.Quote(t.Title))
		}
	case TagMetadataBlock:
		if t.Metadata == MetadataPluses {
			args = append(args, "pluses")
		} else {
			args = append(args, "yaml")
		}
	}
	if len(args) == 0 {
		return t.Kind.String()
	}
	return t.Kind.String() + " " + strings.Join(args, " ")
}
