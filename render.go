package pulldown

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Format selects the output of Render.
type Format uint8

const (
	FormatANSI Format = iota
	FormatHTML
	FormatTrace
)

func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatTrace:
		return "events"
	default:
		return "ansi"
	}
}

// ParseFormat maps "ansi", "html" or "events" to a Format.
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ansi":
		return FormatANSI, true
	case "html":
		return FormatHTML, true
	case "events":
		return FormatTrace, true
	}
	return 0, false
}

var inputPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 64*1024)
		return &b
	},
}

var validatorPool = sync.Pool{
	New: func() any {
		return &validator{}
	},
}

var htmlWriterPool = sync.Pool{
	New: func() any {
		return newHTMLWriter(io.Discard)
	},
}

var ansiRendererPool = sync.Pool{
	New: func() any {
		return &ansiRenderer{}
	},
}

// RenderRequest configures Render.
type RenderRequest struct {
	Reader     io.Reader
	Writer     io.Writer
	Format     Format
	Extensions Options
	Width      int
	Theme      Theme
	Options    []RenderOption
}

// Render reads Markdown from req.Reader, validates it and writes it to
// req.Writer in the requested format. It is safe for concurrent use.
func Render(req RenderRequest) error {
	if req.Reader == nil {
		return fmt.Errorf("render: reader is nil")
	}
	if req.Writer == nil {
		return fmt.Errorf("render: writer is nil")
	}
	bufp := inputPool.Get().(*[]byte)
	v := validatorPool.Get().(*validator)
	data, err := v.readValidated(req.Reader, (*bufp)[:0])
	validatorPool.Put(v)
	if err != nil {
		*bufp = data[:0]
		inputPool.Put(bufp)
		return fmt.Errorf("render: %w", err)
	}
	src := string(data)
	*bufp = data[:0]
	inputPool.Put(bufp)

	p, err := NewParser(src, req.Extensions)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	switch req.Format {
	case FormatHTML:
		hw := htmlWriterPool.Get().(*htmlWriter)
		hw.reset(req.Writer)
		for ev := range p.Events() {
			if hw.event(ev); hw.err != nil {
				break
			}
		}
		err = hw.flush()
		hw.reset(io.Discard)
		htmlWriterPool.Put(hw)
	case FormatTrace:
		err = WriteEvents(req.Writer, p.Events())
	default:
		r := ansiRendererPool.Get().(*ansiRenderer)
		r.reset(req.Writer, req.Width, req.Theme, newRenderConfig(req.Options))
		for ev := range p.Events() {
			if r.event(ev); r.err != nil {
				break
			}
		}
		err = r.flush()
		r.reset(io.Discard, 0, nil, renderConfig{})
		ansiRendererPool.Put(r)
	}
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}
