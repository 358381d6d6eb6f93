package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
	"pkt.systems/pulldown"
	"pkt.systems/version"
)

const (
	defaultThemeName = "default"
	defaultWidth     = 80
)

func init() {
	version.SetDefaultModule("pkt.systems/pulldown")
}

type cliConfig struct {
	themeName   string
	width       int
	osc8        string
	listThemes  bool
	outPath     string
	plain       bool
	format      string
	frontMatter bool
	verbose     bool
	softWrap    bool
	optionBits  string

	tables, footnotes, strikethrough, tasklists bool
	smart, headingAttrs, metadata, gfm          bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var cfg cliConfig
	flags := pflag.NewFlagSet("pulldown", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&cfg.themeName, "theme", "t", defaultThemeName, "Theme name for ANSI output")
	flags.IntVarP(&cfg.width, "width", "w", 0, "Output width override (0 uses terminal width if available)")
	flags.StringVarP(&cfg.osc8, "osc8", "8", "auto", "OSC8 hyperlinks: auto|on|off")
	flags.BoolVar(&cfg.listThemes, "list-themes", false, "List available themes")
	flags.StringVarP(&cfg.outPath, "output", "o", "", "Output file instead of stdout")
	flags.BoolVarP(&cfg.plain, "boring", "b", false, "ANSI output without colors")
	flags.StringVarP(&cfg.format, "format", "f", "auto", "Output format: auto|html|ansi|events")
	flags.BoolVar(&cfg.frontMatter, "front-matter", false, "Print the YAML front matter of the input and exit")
	flags.BoolVarP(&cfg.verbose, "verbose", "v", false, "Debug logging to stderr")
	flags.BoolVar(&cfg.softWrap, "soft-wrap", false, "Break words longer than the width")
	flags.StringVar(&cfg.optionBits, "options", "", "Extension bitset (decimal, 0x hex or comma separated names)")
	flags.BoolVar(&cfg.tables, "tables", false, "Enable tables")
	flags.BoolVar(&cfg.footnotes, "footnotes", false, "Enable footnotes")
	flags.BoolVar(&cfg.strikethrough, "strikethrough", false, "Enable strikethrough")
	flags.BoolVar(&cfg.tasklists, "tasklists", false, "Enable task lists")
	flags.BoolVar(&cfg.smart, "smart", false, "Enable smart punctuation")
	flags.BoolVar(&cfg.headingAttrs, "heading-attributes", false, "Enable {#id .class} heading attributes")
	flags.BoolVar(&cfg.metadata, "metadata", false, "Enable front matter metadata blocks")
	flags.BoolVar(&cfg.gfm, "gfm", false, "Enable tables, footnotes, strikethrough and task lists")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(stderr, version.Module(), version.Current())
		fmt.Fprintf(stderr, "Usage: pulldown [flags] [inputs...]\n")
		fmt.Fprintln(stderr, "\nIf no input is provided, Markdown is read from stdin.")
		fmt.Fprintln(stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if cfg.listThemes {
		printThemes(stdout)
		return 0
	}

	exts, err := resolveExtensions(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "invalid --options %q: %v\n", cfg.optionBits, err)
		return 2
	}
	if err := exts.Validate(); err != nil {
		logger.Warn("ignoring unknown option bits", "options", exts, "error", err)
	}

	reader, closer, err := openInputs(flags.Args())
	if err != nil {
		fmt.Fprintf(stderr, "open input: %v\n", err)
		return 1
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	if cfg.frontMatter {
		if err := printFrontMatter(reader, stdout); err != nil {
			fmt.Fprintf(stderr, "front matter: %v\n", err)
			return 1
		}
		return 0
	}

	writer, closeOut, err := resolveOutput(cfg.outPath, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "open output: %v\n", err)
		return 1
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}

	format, err := resolveFormat(cfg.format, writer, cfg.outPath)
	if err != nil {
		fmt.Fprintf(stderr, "invalid --format %q: %v\n", cfg.format, err)
		return 2
	}

	theme, ok := pulldown.ThemeByName(cfg.themeName)
	if !ok {
		fmt.Fprintf(stderr, "unknown theme %q\n\n", cfg.themeName)
		printThemes(stderr)
		return 2
	}
	if cfg.plain {
		theme = boringTheme()
	}
	osc8, err := resolveOSC8(cfg.osc8)
	if err != nil {
		fmt.Fprintf(stderr, "invalid --osc8 %q: %v\n", cfg.osc8, err)
		return 2
	}

	counter := &countingWriter{w: writer}
	start := time.Now()
	err = pulldown.Render(pulldown.RenderRequest{
		Reader:     reader,
		Writer:     counter,
		Format:     format,
		Extensions: exts,
		Width:      resolveWidth(cfg.width),
		Theme:      theme,
		Options: []pulldown.RenderOption{
			pulldown.WithOSC8(osc8),
			pulldown.WithSoftWrap(cfg.softWrap),
		},
	})
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	logger.Debug("rendered",
		"format", format,
		"options", exts,
		"bytes", counter.n,
		"elapsed", time.Since(start),
	)
	return 0
}

func resolveExtensions(cfg cliConfig) (pulldown.Options, error) {
	var opts pulldown.Options
	if raw := strings.TrimSpace(cfg.optionBits); raw != "" {
		if bits, err := strconv.ParseUint(raw, 0, 32); err == nil {
			opts = pulldown.Options(bits)
		} else {
			for _, name := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '|' }) {
				opt, ok := pulldown.ParseOptionName(name)
				if !ok {
					return 0, fmt.Errorf("unknown extension %q", name)
				}
				opts |= opt
			}
		}
	}
	for _, f := range []struct {
		set bool
		opt pulldown.Options
	}{
		{cfg.tables, pulldown.EnableTables},
		{cfg.footnotes, pulldown.EnableFootnotes},
		{cfg.strikethrough, pulldown.EnableStrikethrough},
		{cfg.tasklists, pulldown.EnableTasklists},
		{cfg.smart, pulldown.EnableSmartPunctuation},
		{cfg.headingAttrs, pulldown.EnableHeadingAttributes},
		{cfg.metadata, pulldown.EnableMetadataBlocks},
		{cfg.gfm, pulldown.EnableGFM},
	} {
		if f.set {
			opts |= f.opt
		}
	}
	return opts, nil
}

// resolveFormat picks ANSI for terminals and HTML otherwise when the
// format is auto. An output path ending in .html forces HTML.
func resolveFormat(name string, w io.Writer, outPath string) (pulldown.Format, error) {
	if strings.EqualFold(strings.TrimSpace(name), "auto") || name == "" {
		lower := strings.ToLower(outPath)
		switch {
		case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
			return pulldown.FormatHTML, nil
		case isTerminal(w):
			return pulldown.FormatANSI, nil
		default:
			return pulldown.FormatHTML, nil
		}
	}
	f, ok := pulldown.ParseFormat(name)
	if !ok {
		return 0, fmt.Errorf("expected auto|html|ansi|events")
	}
	return f, nil
}

func printFrontMatter(r io.Reader, w io.Writer) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if err := pulldown.ValidateInput(src); err != nil {
		return err
	}
	md, ok, err := pulldown.FrontMatter(string(src))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no front matter")
	}
	if md.Values == nil {
		_, err := io.WriteString(w, md.Raw)
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(md.Values); err != nil {
		return err
	}
	return enc.Close()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func printThemes(w io.Writer) {
	for _, name := range pulldown.AvailableThemes() {
		fmt.Fprintln(w, name)
	}
}

func resolveWidth(width int) int {
	if width > 0 {
		return width
	}
	return terminalWidth(defaultWidth)
}

func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if w, err := strconv.Atoi(value); err == nil && w > 0 {
			return w
		}
	}
	return fallback
}

func resolveOSC8(mode string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return pulldown.DetectOSC8Support(), nil
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("expected auto|on|off")
	}
}

func boringTheme() pulldown.Theme {
	return pulldown.NewTheme("boring", pulldown.Styles{})
}

type inputSource struct {
	open func() (io.Reader, io.Closer, error)
}

type multiInputReader struct {
	sources   []inputSource
	idx       int
	cur       io.Reader
	curCloser io.Closer
	closed    bool
}

func (m *multiInputReader) Read(p []byte) (int, error) {
	for {
		if m.closed {
			return 0, io.EOF
		}
		if m.cur == nil {
			if m.idx >= len(m.sources) {
				m.closed = true
				return 0, io.EOF
			}
			reader, closer, err := m.sources[m.idx].open()
			if err != nil {
				return 0, err
			}
			m.cur = reader
			m.curCloser = closer
			m.idx++
		}
		n, err := m.cur.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			if m.curCloser != nil {
				_ = m.curCloser.Close()
			}
			m.cur = nil
			m.curCloser = nil
			continue
		}
		if err != nil {
			return 0, err
		}
	}
}

func (m *multiInputReader) Close() error {
	m.closed = true
	if m.curCloser != nil {
		return m.curCloser.Close()
	}
	return nil
}

func openInputs(args []string) (io.Reader, io.Closer, error) {
	if len(args) == 0 {
		return os.Stdin, nil, nil
	}
	sources := make([]inputSource, 0, len(args))
	for _, raw := range args {
		src, err := makeInputSource(raw)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, src)
	}
	m := &multiInputReader{sources: sources}
	return m, m, nil
}

func makeInputSource(raw string) (inputSource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return inputSource{}, fmt.Errorf("empty input argument")
	}
	if raw == "-" {
		return inputSource{open: func() (io.Reader, io.Closer, error) {
			return os.Stdin, nil, nil
		}}, nil
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return inputSource{open: func() (io.Reader, io.Closer, error) {
				return openURL(raw)
			}}, nil
		case "file":
			path := u.Path
			if path == "" {
				path = u.Host
			}
			if unescaped, err := url.PathUnescape(path); err == nil {
				path = unescaped
			}
			return inputSource{open: func() (io.Reader, io.Closer, error) {
				return openFile(path)
			}}, nil
		}
	}
	return inputSource{open: func() (io.Reader, io.Closer, error) {
		return openFile(raw)
	}}, nil
}

func openURL(raw string) (io.Reader, io.Closer, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, raw, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("http %s: %s", raw, resp.Status)
	}
	return resp.Body, resp.Body, nil
}

func openFile(path string) (io.Reader, io.Closer, error) {
	f, err := os.Open(normalizePath(path))
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func resolveOutput(path string, stdout io.Writer) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return stdout, nil, nil
	}
	clean := normalizePath(path)
	if dir := filepath.Dir(clean); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		return abs
	}
	return path
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
