package pulldown

import (
	"regexp"
	"strconv"
	"strings"
)

type startResult uint8

const (
	startNone startResult = iota
	startContainer
	startLeaf
)

// blockStarts are tried in order on each line that is not a lazy or plain
// continuation.
var blockStarts = [...]func(*scanner, *block) startResult{
	startBlockQuote,
	startATXHeading,
	startFencedCode,
	startHTMLBlock,
	startTable,
	startSetextHeading,
	startThematicBreak,
	startFootnoteDefinition,
	startListItem,
	startIndentedCode,
}

func startBlockQuote(s *scanner, _ *block) startResult {
	if s.indented || s.peek(s.nextNonspace) != '>' {
		return startNone
	}
	s.advanceNextNonspace()
	s.advanceOffset(1, false)
	if isSpaceOrTab(s.peek(s.offset)) {
		s.advanceOffset(1, true)
	}
	s.closeUnmatched()
	s.addChild(blockQuote, s.nextNonspace)
	return startContainer
}

func startATXHeading(s *scanner, _ *block) startResult {
	if s.indented {
		return startNone
	}
	rest := s.line[s.nextNonspace:]
	level := 0
	for level < len(rest) && rest[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level < len(rest) && !isSpaceOrTab(rest[level]) {
		return startNone
	}
	s.advanceNextNonspace()
	s.advanceOffset(level, false)
	s.closeUnmatched()
	h := s.addChild(blockHeading, s.nextNonspace)
	h.level = level
	text := s.line[s.offset:]
	from, to := atxContent(text)
	h.lines = []sourceLine{{
		text:   text[from:to],
		offset: s.lineStart + s.offset + from,
		eol:    s.lineEOL,
	}}
	s.advanceOffset(len(s.line)-s.offset, false)
	return startLeaf
}

// atxContent trims the surrounding whitespace and the optional closing
// sequence of an ATX heading.
func atxContent(text string) (from, to int) {
	for from < len(text) && isSpaceOrTab(text[from]) {
		from++
	}
	to = len(text)
	for to > from && isSpaceOrTab(text[to-1]) {
		to--
	}
	j := to
	for j > from && text[j-1] == '#' {
		j--
	}
	switch {
	case j == from:
		return from, from
	case j < to && isSpaceOrTab(text[j-1]):
		to = j
		for to > from && isSpaceOrTab(text[to-1]) {
			to--
		}
	}
	return from, to
}

func startFencedCode(s *scanner, _ *block) startResult {
	if s.indented {
		return startNone
	}
	c := s.peek(s.nextNonspace)
	if c != '`' && c != '~' {
		return startNone
	}
	rest := s.line[s.nextNonspace:]
	n := 0
	for n < len(rest) && rest[n] == c {
		n++
	}
	if n < 3 || c == '`' && strings.IndexByte(rest[n:], '`') >= 0 {
		return startNone
	}
	s.closeUnmatched()
	b := s.addChild(blockCodeBlock, s.nextNonspace)
	b.fenced = true
	b.fenceChar = c
	b.fenceLen = n
	b.fenceOffset = s.indent
	s.advanceNextNonspace()
	s.advanceOffset(n, false)
	return startLeaf
}

// closingFenceLen returns the length of a closing fence made of c, or 0
// when text is not a closing fence.
func closingFenceLen(text string, c byte) int {
	n := 0
	for n < len(text) && text[n] == c {
		n++
	}
	if n < 3 || !isBlankString(text[n:]) {
		return 0
	}
	return n
}

func startHTMLBlock(s *scanner, container *block) startResult {
	if s.indented || s.peek(s.nextNonspace) != '<' {
		return startNone
	}
	rest := s.line[s.nextNonspace:]
	for t := 1; t <= 7; t++ {
		if !htmlBlockOpen[t].MatchString(rest) {
			continue
		}
		if t == 7 && (container.kind == blockParagraph || !s.allClosed && !s.blank && s.tip.kind == blockParagraph) {
			continue
		}
		s.closeUnmatched()
		b := s.addChild(blockHTML, s.offset)
		b.htmlType = t
		return startLeaf
	}
	return startNone
}

const (
	tagName        = `[A-Za-z][A-Za-z0-9-]*`
	attrName       = `[a-zA-Z_:][a-zA-Z0-9:._-]*`
	attrValue      = `(?:[^"'=<>` + "`" + `\x00-\x20]+|'[^']*'|"[^"]*")`
	attribute      = `(?:\s+` + attrName + `(?:\s*=\s*` + attrValue + `)?)`
	openTagPattern = `<` + tagName + attribute + `*\s*/?>`
	closeTag       = `</` + tagName + `\s*>`
	htmlComment    = `<!-->|<!--->|<!--[\s\S]*?-->`
	procInstr      = `<\?[\s\S]*?\?>`
	declaration    = `<![A-Za-z][^>]*>`
	cdataSection   = `<!\[CDATA\[[\s\S]*?\]\]>`
	htmlTag        = `(?:` + openTagPattern + `|` + closeTag + `|` + htmlComment + `|` + procInstr + `|` + declaration + `|` + cdataSection + `)`
)

var htmlBlockOpen = [...]*regexp.Regexp{
	nil,
	regexp.MustCompile(`(?i)^<(?:script|pre|textarea|style)(?:\s|>|$)`),
	regexp.MustCompile(`^<!--`),
	regexp.MustCompile(`^<[?]`),
	regexp.MustCompile(`^<![A-Za-z]`),
	regexp.MustCompile(`^<!\[CDATA\[`),
	regexp.MustCompile(`(?i)^</?(?:address|article|aside|base|basefont|blockquote|body|caption|center|col|colgroup|dd|details|dialog|dir|div|dl|dt|fieldset|figcaption|figure|footer|form|frame|frameset|h[123456]|head|header|hr|html|iframe|legend|li|link|main|menu|menuitem|nav|noframes|ol|optgroup|option|p|param|search|section|summary|table|tbody|td|tfoot|th|thead|title|tr|track|ul)(?:\s|/?>|$)`),
	regexp.MustCompile(`(?i)^(?:` + openTagPattern + `|` + closeTag + `)\s*$`),
}

var htmlBlockClose = [...]*regexp.Regexp{
	nil,
	regexp.MustCompile(`(?i)</(?:script|pre|textarea|style)>`),
	regexp.MustCompile(`-->`),
	regexp.MustCompile(`\?>`),
	regexp.MustCompile(`>`),
	regexp.MustCompile(`\]\]>`),
}

func htmlBlockCloses(t int, text string) bool {
	return t >= 1 && t <= 5 && htmlBlockClose[t].MatchString(text)
}

func startTable(s *scanner, container *block) startResult {
	if !s.opts.Has(EnableTables) || s.indented || container.kind != blockParagraph || len(container.lines) != 1 {
		return startNone
	}
	aligns, ok := parseDelimiterRow(s.line[s.nextNonspace:])
	if !ok || len(splitTableRow(container.lines[0].text)) != len(aligns) {
		return startNone
	}
	s.closeUnmatched()
	container.kind = blockTable
	container.aligns = aligns
	s.advanceOffset(len(s.line)-s.offset, false)
	s.lineConsumed = true
	return startLeaf
}

func startSetextHeading(s *scanner, container *block) startResult {
	if s.indented || container.kind != blockParagraph {
		return startNone
	}
	level := setextLevel(s.line[s.nextNonspace:])
	if level == 0 {
		return startNone
	}
	s.closeUnmatched()
	s.stripReferences(container)
	if len(container.lines) == 0 {
		return startNone
	}
	container.kind = blockHeading
	container.level = level
	container.setext = true
	s.advanceOffset(len(s.line)-s.offset, false)
	return startLeaf
}

func setextLevel(text string) int {
	if text == "" || text[0] != '=' && text[0] != '-' {
		return 0
	}
	c := text[0]
	n := 0
	for n < len(text) && text[n] == c {
		n++
	}
	if !isBlankString(text[n:]) {
		return 0
	}
	if c == '=' {
		return 1
	}
	return 2
}

func startThematicBreak(s *scanner, _ *block) startResult {
	if s.indented || !isThematicBreak(s.line[s.nextNonspace:]) {
		return startNone
	}
	s.closeUnmatched()
	s.addChild(blockThematicBreak, s.nextNonspace)
	s.advanceOffset(len(s.line)-s.offset, false)
	return startLeaf
}

func isThematicBreak(text string) bool {
	if text == "" {
		return false
	}
	c := text[0]
	if c != '*' && c != '-' && c != '_' {
		return false
	}
	n := 0
	for i := 0; i < len(text); i++ {
		switch {
		case text[i] == c:
			n++
		case isSpaceOrTab(text[i]):
		default:
			return false
		}
	}
	return n >= 3
}

func startFootnoteDefinition(s *scanner, container *block) startResult {
	if !s.opts.Has(EnableFootnotes) || s.indented || container.kind == blockParagraph || container.kind == blockTable {
		return startNone
	}
	label, n := scanFootnoteLabel(s.line[s.nextNonspace:])
	if n == 0 || s.peek(s.nextNonspace+n) != ':' {
		return startNone
	}
	s.closeUnmatched()
	b := s.addChild(blockFootnoteDefinition, s.nextNonspace)
	b.label = label
	s.advanceNextNonspace()
	s.advanceOffset(n+1, false)
	return startContainer
}

// scanFootnoteLabel matches [^label] at the start of text.
func scanFootnoteLabel(text string) (string, int) {
	if len(text) < 4 || text[0] != '[' || text[1] != '^' {
		return "", 0
	}
	for i := 2; i < len(text) && i < 1000; i++ {
		switch c := text[i]; {
		case c == ']':
			if i == 2 {
				return "", 0
			}
			return text[2:i], i + 1
		case c == '[' || c == ' ' || c == '\t' || c == '\\':
			return "", 0
		}
	}
	return "", 0
}

func startListItem(s *scanner, container *block) startResult {
	if s.indented && container.kind != blockList {
		return startNone
	}
	data, ok := s.parseListMarker(container)
	if !ok {
		return startNone
	}
	s.closeUnmatched()
	if s.tip.kind != blockList || !listsMatch(s.tip.list, data) {
		l := s.addChild(blockList, s.nextNonspace)
		l.list = data
	}
	item := s.addChild(blockItem, s.nextNonspace)
	item.list = data
	return startContainer
}

func listsMatch(a, b listData) bool {
	return a.ordered == b.ordered && a.bullet == b.bullet && a.delimiter == b.delimiter
}

func (s *scanner) parseListMarker(container *block) (listData, bool) {
	if s.indent >= codeIndent {
		return listData{}, false
	}
	rest := s.line[s.nextNonspace:]
	data := listData{markerOffset: s.indent}
	n := 0
	switch c := s.peek(s.nextNonspace); {
	case c == '*' || c == '+' || c == '-':
		data.bullet = c
		n = 1
	case isASCIIDigit(c):
		for n < len(rest) && n < 9 && isASCIIDigit(rest[n]) {
			n++
		}
		if n >= len(rest) || rest[n] != '.' && rest[n] != ')' {
			return listData{}, false
		}
		start, _ := strconv.Atoi(rest[:n])
		if container.kind == blockParagraph && start != 1 {
			return listData{}, false
		}
		data.ordered = true
		data.start = start
		data.delimiter = rest[n]
		n++
	default:
		return listData{}, false
	}
	if next := s.peek(s.nextNonspace + n); next != 0 && !isSpaceOrTab(next) {
		return listData{}, false
	}
	if container.kind == blockParagraph && isBlankString(rest[n:]) {
		return listData{}, false
	}
	s.advanceNextNonspace()
	s.advanceOffset(n, true)
	startCol, startOffset := s.column, s.offset
	for {
		s.advanceOffset(1, true)
		if s.column-startCol >= 5 || !isSpaceOrTab(s.peek(s.offset)) {
			break
		}
	}
	blankItem := s.offset >= len(s.line)
	spaces := s.column - startCol
	if spaces >= 5 || spaces < 1 || blankItem {
		data.padding = n + 1
		s.column, s.offset = startCol, startOffset
		if isSpaceOrTab(s.peek(s.offset)) {
			s.advanceOffset(1, true)
		}
	} else {
		data.padding = n + spaces
	}
	return data, true
}

func startIndentedCode(s *scanner, _ *block) startResult {
	if !s.indented || s.blank || s.tip.kind == blockParagraph || s.tip.kind == blockTable {
		return startNone
	}
	s.advanceOffset(codeIndent, true)
	s.closeUnmatched()
	s.addChild(blockCodeBlock, s.offset)
	return startLeaf
}

// parseHeadingAttributes moves a trailing {#id .class} block out of the
// heading text.
func parseHeadingAttributes(h *block) {
	if len(h.lines) == 0 {
		return
	}
	last := &h.lines[len(h.lines)-1]
	text := strings.TrimRight(last.text, " \t")
	if !strings.HasSuffix(text, "}") {
		return
	}
	open := strings.LastIndexByte(text, '{')
	if open < 0 {
		return
	}
	for _, field := range strings.Fields(text[open+1 : len(text)-1]) {
		switch {
		case len(field) > 1 && field[0] == '#':
			h.hid = field[1:]
		case len(field) > 1 && field[0] == '.':
			h.classes = append(h.classes, field[1:])
		}
	}
	last.text = strings.TrimRight(text[:open], " \t")
}
