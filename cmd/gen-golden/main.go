package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/pulldown"
)

// gen-golden rewrites testdata/*.html from the matching .md files. The
// file name prefix selects the extensions, see pulldown.GoldenOptions.
func main() {
	root := "testdata"
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.HasSuffix(path, ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		fatalf("walk %s: %v", root, err)
	}
	if len(paths) == 0 {
		fatalf("no markdown files found under %s", root)
	}
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			fatalf("read %s: %v", path, err)
		}
		var out bytes.Buffer
		err = pulldown.Render(pulldown.RenderRequest{
			Reader:     bytes.NewReader(src),
			Writer:     &out,
			Format:     pulldown.FormatHTML,
			Extensions: pulldown.GoldenOptions(filepath.Base(path)),
		})
		if err != nil {
			fatalf("render %s: %v", path, err)
		}
		goldenPath := strings.TrimSuffix(path, ".md") + ".html"
		if err := os.WriteFile(goldenPath, out.Bytes(), 0o644); err != nil {
			fatalf("write %s: %v", goldenPath, err)
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", goldenPath)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
