package pulldown

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metadata is a front matter block found at the start of a document.
// Values is decoded only for YAML blocks.
type Metadata struct {
	Kind   MetadataBlockKind
	Raw    string
	Values map[string]any
}

// FrontMatter decodes the metadata block at the start of source, if any.
func FrontMatter(source string) (Metadata, bool, error) {
	kind, lines, _, ok := splitMetadata(source, skipBOM(source))
	if !ok {
		return Metadata{}, false, nil
	}
	var raw strings.Builder
	for _, l := range lines {
		raw.WriteString(l.text)
		raw.WriteByte('\n')
	}
	md := Metadata{Kind: kind, Raw: raw.String()}
	if kind == MetadataYAML {
		if err := yaml.Unmarshal([]byte(md.Raw), &md.Values); err != nil {
			return md, true, fmt.Errorf("front matter: %w", err)
		}
	}
	return md, true, nil
}

func skipBOM(src string) int {
	if strings.HasPrefix(src, "\ufeff") {
		return len("\ufeff")
	}
	return 0
}

// scanMetadata adds a metadata block starting at pos to the document and
// returns the position after it, or pos when there is none.
func (s *scanner) scanMetadata(pos int) int {
	kind, lines, end, ok := splitMetadata(s.src, pos)
	if !ok {
		return pos
	}
	b := s.newBlock(blockMetadata, pos)
	b.open = false
	b.parent = s.doc
	b.meta = kind
	b.lines = lines
	b.startLine = 1
	for p := pos; p < end; {
		_, next := lineBounds(s.src, p)
		s.lineNum++
		s.lineEnds = append(s.lineEnds, next)
		p = next
	}
	b.endLine = s.lineNum
	b.end = end
	s.doc.children = append(s.doc.children, b)
	return end
}

// splitMetadata recognizes "---" ... "---"/"..." (YAML) and "+++" ... "+++"
// blocks. The line after the opening delimiter must not be blank.
func splitMetadata(src string, pos int) (MetadataBlockKind, []sourceLine, int, bool) {
	open, next, ok := nextLine(src, pos)
	if !ok {
		return 0, nil, 0, false
	}
	kind, closers, isMeta := parseOpeningDelimiter(open)
	if !isMeta {
		return 0, nil, 0, false
	}
	first, _, ok := nextLine(src, next)
	if !ok || isBlankString(first) {
		return 0, nil, 0, false
	}
	var lines []sourceLine
	for p := next; p < len(src); {
		line, after, _ := nextLine(src, p)
		trimmed := strings.TrimRight(line, " \t")
		for _, c := range closers {
			if trimmed == c {
				return kind, lines, after, true
			}
		}
		lines = append(lines, sourceLine{text: line, offset: p, eol: after > p+len(line)})
		p = after
	}
	return 0, nil, 0, false
}

func nextLine(src string, start int) (string, int, bool) {
	if start >= len(src) {
		return "", start, false
	}
	end, next := lineBounds(src, start)
	return src[start:end], next, true
}

func parseOpeningDelimiter(line string) (MetadataBlockKind, []string, bool) {
	switch strings.TrimRight(line, " \t") {
	case "---":
		return MetadataYAML, []string{"---", "..."}, true
	case "+++":
		return MetadataPluses, []string{"+++"}, true
	default:
		return 0, nil, false
	}
}
