package pulldown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderFormats(t *testing.T) {
	src := "hello\n=====\n* alpha\n* beta\n"
	cases := []struct {
		format Format
		want   string
	}{
		{FormatHTML, "<h1>hello</h1>\n<ul>\n<li>alpha</li>\n<li>beta</li>\n</ul>\n"},
		{FormatANSI, "# hello\n\n- alpha\n- beta\n"},
	}
	for _, tc := range cases {
		t.Run(tc.format.String(), func(t *testing.T) {
			var out bytes.Buffer
			err := Render(RenderRequest{
				Reader: strings.NewReader(src),
				Writer: &out,
				Format: tc.format,
				Width:  40,
				Theme:  plainTheme(t),
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.String())
		})
	}
}

func TestRenderTraceMatchesFormatEvents(t *testing.T) {
	src := "a ~~b~~\n"
	var out bytes.Buffer
	require.NoError(t, Render(RenderRequest{
		Reader:     strings.NewReader(src),
		Writer:     &out,
		Format:     FormatTrace,
		Extensions: EnableStrikethrough,
	}))
	p, err := NewParser(src, EnableStrikethrough)
	require.NoError(t, err)
	assert.Equal(t, FormatEvents(p.Events()), out.String())
}

func TestRenderErrors(t *testing.T) {
	var out bytes.Buffer
	err := Render(RenderRequest{Writer: &out})
	assert.ErrorContains(t, err, "reader is nil")

	err = Render(RenderRequest{Reader: strings.NewReader("x")})
	assert.ErrorContains(t, err, "writer is nil")

	err = Render(RenderRequest{Reader: strings.NewReader("ok \xff"), Writer: &out})
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	err = Render(RenderRequest{Reader: strings.NewReader("truncated \xe2\x82"), Writer: &out})
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	err = Render(RenderRequest{Reader: strings.NewReader("a\x00b"), Writer: &out})
	assert.ErrorIs(t, err, ErrBinaryInput)

	readErr := errors.New("boom")
	err = Render(RenderRequest{Reader: iotest.ErrReader(readErr), Writer: &out})
	assert.ErrorIs(t, err, readErr)

	assert.Zero(t, out.Len(), "failed renders must not write output")
}

func TestRenderWriteError(t *testing.T) {
	err := Render(RenderRequest{
		Reader: strings.NewReader("# x\n"),
		Writer: failingWriter{},
		Format: FormatHTML,
	})
	assert.ErrorIs(t, err, errWriteFailed)
}

var errWriteFailed = errors.New("write failed")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errWriteFailed }

func TestRenderOneByteReader(t *testing.T) {
	src := "# Café \U0001F600\n\n*naïve* text\n"
	var want, got bytes.Buffer
	require.NoError(t, Render(RenderRequest{Reader: strings.NewReader(src), Writer: &want, Format: FormatHTML}))
	require.NoError(t, Render(RenderRequest{
		Reader: iotest.OneByteReader(strings.NewReader(src)),
		Writer: &got,
		Format: FormatHTML,
	}))
	assert.Equal(t, want.String(), got.String())
	assert.Contains(t, got.String(), "<h1>Café \U0001F600</h1>")
}

func TestRenderLargeInput(t *testing.T) {
	var src strings.Builder
	for i := 0; src.Len() < 200*1024; i++ {
		fmt.Fprintf(&src, "Paragraph %d with élève and *emphasis*.\n\n", i)
	}
	var out bytes.Buffer
	require.NoError(t, Render(RenderRequest{
		Reader: strings.NewReader(src.String()),
		Writer: &out,
		Format: FormatHTML,
	}))
	want, err := MarkdownToHTML(src.String())
	require.NoError(t, err)
	assert.Equal(t, want, out.String())
}

func TestRenderConcurrent(t *testing.T) {
	inputs := []string{
		"# one\n",
		"- a\n- b\n",
		"| a |\n|---|\n| b |\n",
		"text with [link](/x)\n",
	}
	want := make([]string, len(inputs))
	for i, in := range inputs {
		var out bytes.Buffer
		require.NoError(t, Render(RenderRequest{Reader: strings.NewReader(in), Writer: &out, Format: FormatHTML, Extensions: EnableGFM}))
		want[i] = out.String()
	}
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for n := 0; n < 64; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			i := n % len(inputs)
			format := FormatHTML
			if n%2 == 1 {
				format = FormatANSI
			}
			var out bytes.Buffer
			if err := Render(RenderRequest{Reader: strings.NewReader(inputs[i]), Writer: &out, Format: format, Extensions: EnableGFM, Width: 40}); err != nil {
				errs <- err
				return
			}
			if format == FormatHTML && out.String() != want[i] {
				errs <- fmt.Errorf("render %d: got %q want %q", n, out.String(), want[i])
			}
		}(n)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestFormatNames(t *testing.T) {
	for _, f := range []Format{FormatANSI, FormatHTML, FormatTrace} {
		got, ok := ParseFormat(" " + strings.ToUpper(f.String()) + " ")
		require.True(t, ok)
		assert.Equal(t, f, got)
	}
	_, ok := ParseFormat("pdf")
	assert.False(t, ok)
}

func TestHTTPRender(t *testing.T) {
	var accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.md":
			accept = r.Header.Get("Accept")
			w.Header().Set("Content-Type", "text/markdown")
			_, _ = w.Write([]byte("# Remote\n\n~~old~~ new\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := HTTPRender(context.Background(), HTTPRenderRequest{
		URL:        srv.URL + "/doc.md",
		Client:     srv.Client(),
		Writer:     &out,
		Format:     FormatHTML,
		Extensions: EnableStrikethrough,
	})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Remote</h1>\n<p><del>old</del> new</p>\n", out.String())
	assert.Contains(t, accept, "text/markdown")

	err = HTTPRender(context.Background(), HTTPRenderRequest{URL: srv.URL + "/missing", Client: srv.Client(), Writer: &out})
	assert.ErrorContains(t, err, "404")
}

func TestHTTPRenderRequestErrors(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorContains(t, HTTPRender(context.Background(), HTTPRenderRequest{Writer: &out}), "URL is required")
	assert.ErrorContains(t, HTTPRender(context.Background(), HTTPRenderRequest{URL: "http://example.com"}), "Writer is nil")
	assert.ErrorContains(t, HTTPRender(context.Background(), HTTPRenderRequest{URL: "ftp://example.com/x.md", Writer: &out}), "unsupported scheme")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("never"))
	}))
	defer srv.Close()
	err := HTTPRender(ctx, HTTPRenderRequest{URL: srv.URL, Client: srv.Client(), Writer: &out})
	assert.ErrorIs(t, err, context.Canceled)
}
