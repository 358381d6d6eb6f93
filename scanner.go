package pulldown

import (
	"strings"
)

const codeIndent = 4

type blockKind uint8

const (
	blockDocument blockKind = iota
	blockParagraph
	blockHeading
	blockThematicBreak
	blockCodeBlock
	blockHTML
	blockQuote
	blockList
	blockItem
	blockFootnoteDefinition
	blockTable
	blockTableHead
	blockTableRow
	blockTableCell
	blockMetadata
)

// sourceLine is one line of leaf content. offset is the source position of
// text[0]; eol records whether the source line had a line ending.
type sourceLine struct {
	text   string
	offset int
	eol    bool
}

type listData struct {
	ordered      bool
	bullet       byte
	delimiter    byte
	start        int
	markerOffset int
	padding      int
	tight        bool
}

type block struct {
	id       int
	kind     blockKind
	parent   *block
	children []*block
	open     bool

	startLine, endLine int
	start, end         int

	lines []sourceLine

	level   int
	setext  bool
	hid     string
	classes []string

	fenced      bool
	fenceChar   byte
	fenceLen    int
	fenceOffset int
	info        string

	htmlType int
	list     listData
	task     int8
	label    string
	aligns   []Alignment
	meta     MetadataBlockKind
}

const (
	taskNone int8 = iota
	taskUnchecked
	taskChecked
)

func (b *block) lastChild() *block {
	if len(b.children) == 0 {
		return nil
	}
	return b.children[len(b.children)-1]
}

func (b *block) canContain(kind blockKind) bool {
	switch b.kind {
	case blockDocument, blockQuote, blockItem, blockFootnoteDefinition:
		return kind != blockItem
	case blockList:
		return kind == blockItem
	default:
		return false
	}
}

func (b *block) acceptsLines() bool {
	switch b.kind {
	case blockParagraph, blockCodeBlock, blockHTML, blockTable:
		return true
	default:
		return false
	}
}

func (b *block) removeChild(c *block) {
	for i, x := range b.children {
		if x == c {
			b.children = append(b.children[:i], b.children[i+1:]...)
			return
		}
	}
}

// blockTree is the output of the block scan.
type blockTree struct {
	root   *block
	blocks []*block
	refs   map[string]linkRef
}

type continueResult uint8

const (
	continueMatched continueResult = iota
	continueFailed
	continueDone
)

type scanner struct {
	src    string
	opts   Options
	refs   map[string]linkRef
	blocks []*block

	doc, tip, oldTip, lastMatched *block
	allClosed                     bool

	line      string
	lineStart int
	lineEOL   bool
	lineNum   int
	lineEnds  []int

	offset, column                   int
	nextNonspace, nextNonspaceColumn int
	indent                           int
	indented, blank                  bool
	partiallyConsumedTab             bool
	lineConsumed                     bool
}

// scanBlocks runs the block phase over the whole source.
func scanBlocks(src string, opts Options) *blockTree {
	s := &scanner{
		src:      src,
		opts:     opts,
		refs:     make(map[string]linkRef),
		lineEnds: []int{0},
	}
	s.doc = s.newBlock(blockDocument, 0)
	s.doc.open = true
	s.tip = s.doc
	pos := skipBOM(src)
	if opts.Has(EnableMetadataBlocks) {
		pos = s.scanMetadata(pos)
	}
	for pos < len(src) {
		end, next := lineBounds(src, pos)
		s.lineNum++
		s.lineEnds = append(s.lineEnds, next)
		s.incorporate(src[pos:end], pos, next > end)
		pos = next
	}
	for s.tip != nil {
		s.finalize(s.tip, s.lineNum)
	}
	s.doc.end = len(src)
	return &blockTree{root: s.doc, blocks: s.blocks, refs: s.refs}
}

// lineBounds returns the end of the line starting at pos and the start of
// the following line. Lines end at \n, \r\n or \r.
func lineBounds(src string, pos int) (end, next int) {
	i := strings.IndexAny(src[pos:], "\r\n")
	if i < 0 {
		return len(src), len(src)
	}
	end = pos + i
	if src[end] == '\r' && end+1 < len(src) && src[end+1] == '\n' {
		return end, end + 2
	}
	return end, end + 1
}

func (s *scanner) newBlock(kind blockKind, start int) *block {
	b := &block{id: len(s.blocks), kind: kind, open: true, start: start, end: start}
	s.blocks = append(s.blocks, b)
	return b
}

func (s *scanner) incorporate(line string, start int, eol bool) {
	s.line = line
	s.lineStart = start
	s.lineEOL = eol
	s.offset, s.column = 0, 0
	s.blank = false
	s.partiallyConsumedTab = false
	s.lineConsumed = false
	s.oldTip = s.tip

	container := s.doc
	allMatched := true
	for {
		last := container.lastChild()
		if last == nil || !last.open {
			break
		}
		container = last
		s.findNextNonspace()
		switch s.continueBlock(container) {
		case continueFailed:
			allMatched = false
		case continueDone:
			return
		}
		if !allMatched {
			container = container.parent
			break
		}
	}

	s.allClosed = container == s.oldTip
	s.lastMatched = container

	matchedLeaf := container.kind != blockParagraph && container.kind != blockTable && container.acceptsLines()
	for !matchedLeaf {
		s.findNextNonspace()
		if !s.indented && !s.maybeSpecial(s.peek(s.nextNonspace)) {
			s.advanceNextNonspace()
			break
		}
		res := startNone
		for _, start := range blockStarts {
			if res = start(s, container); res != startNone {
				break
			}
		}
		if res == startNone {
			s.advanceNextNonspace()
			break
		}
		container = s.tip
		matchedLeaf = res == startLeaf
	}

	if s.lineConsumed {
		return
	}
	if !s.allClosed && !s.blank && s.tip.kind == blockParagraph {
		s.addLine()
		return
	}
	s.closeUnmatched()
	switch {
	case container.acceptsLines():
		text := s.addLine()
		if container.kind == blockHTML && container.htmlType >= 1 && container.htmlType <= 5 &&
			htmlBlockCloses(container.htmlType, text) {
			s.finalize(container, s.lineNum)
		}
	case s.offset < len(s.line) && !s.blank:
		s.addChild(blockParagraph, s.offset)
		s.advanceNextNonspace()
		s.addLine()
	}
}

func (s *scanner) continueBlock(b *block) continueResult {
	switch b.kind {
	case blockQuote:
		if !s.indented && s.peek(s.nextNonspace) == '>' {
			s.advanceNextNonspace()
			s.advanceOffset(1, false)
			if isSpaceOrTab(s.peek(s.offset)) {
				s.advanceOffset(1, true)
			}
			return continueMatched
		}
		return continueFailed
	case blockList:
		return continueMatched
	case blockItem:
		if s.blank {
			if len(b.children) == 0 {
				return continueFailed
			}
			s.advanceNextNonspace()
			return continueMatched
		}
		if s.indent >= b.list.markerOffset+b.list.padding {
			s.advanceOffset(b.list.markerOffset+b.list.padding, true)
			return continueMatched
		}
		return continueFailed
	case blockFootnoteDefinition:
		if s.blank {
			s.advanceNextNonspace()
			return continueMatched
		}
		if s.indent >= codeIndent {
			s.advanceOffset(codeIndent, true)
			return continueMatched
		}
		return continueFailed
	case blockCodeBlock:
		if b.fenced {
			if s.indent <= 3 && s.peek(s.nextNonspace) == b.fenceChar &&
				closingFenceLen(s.line[s.nextNonspace:], b.fenceChar) >= b.fenceLen {
				s.finalize(b, s.lineNum)
				return continueDone
			}
			for i := b.fenceOffset; i > 0 && isSpaceOrTab(s.peek(s.offset)); i-- {
				s.advanceOffset(1, true)
			}
			return continueMatched
		}
		if s.indent >= codeIndent {
			s.advanceOffset(codeIndent, true)
			return continueMatched
		}
		if s.blank {
			s.advanceNextNonspace()
			return continueMatched
		}
		return continueFailed
	case blockHTML:
		if s.blank && (b.htmlType == 6 || b.htmlType == 7) {
			return continueFailed
		}
		return continueMatched
	case blockParagraph, blockTable:
		if s.blank {
			return continueFailed
		}
		return continueMatched
	default:
		return continueFailed
	}
}

func (s *scanner) maybeSpecial(c byte) bool {
	switch c {
	case '#', '`', '~', '*', '+', '_', '=', '<', '>', '-':
		return true
	case '|', ':':
		return s.opts.Has(EnableTables)
	case '[':
		return s.opts.Has(EnableFootnotes)
	}
	return isASCIIDigit(c)
}

func (s *scanner) peek(i int) byte {
	if i < len(s.line) {
		return s.line[i]
	}
	return 0
}

func (s *scanner) findNextNonspace() {
	i, cols := s.offset, s.column
	for i < len(s.line) {
		c := s.line[i]
		if c == ' ' {
			i++
			cols++
		} else if c == '\t' {
			i++
			cols += 4 - cols%4
		} else {
			break
		}
	}
	s.blank = i == len(s.line)
	s.nextNonspace = i
	s.nextNonspaceColumn = cols
	s.indent = cols - s.column
	s.indented = s.indent >= codeIndent
}

func (s *scanner) advanceNextNonspace() {
	s.offset = s.nextNonspace
	s.column = s.nextNonspaceColumn
	s.partiallyConsumedTab = false
}

// advanceOffset moves count bytes, or count columns when columns is set,
// splitting a tab when it spans the target column.
func (s *scanner) advanceOffset(count int, columns bool) {
	for count > 0 && s.offset < len(s.line) {
		if s.line[s.offset] == '\t' {
			toTab := 4 - s.column%4
			if columns {
				s.partiallyConsumedTab = toTab > count
				n := min(toTab, count)
				s.column += n
				if !s.partiallyConsumedTab {
					s.offset++
				}
				count -= n
			} else {
				s.partiallyConsumedTab = false
				s.column += toTab
				s.offset++
				count--
			}
		} else {
			s.partiallyConsumedTab = false
			s.offset++
			s.column++
			count--
		}
	}
}

func (s *scanner) addLine() string {
	var pad string
	if s.partiallyConsumedTab {
		s.offset++
		pad = strings.Repeat(" ", 4-s.column%4)
	}
	text := s.line[s.offset:]
	if pad != "" {
		text = pad + text
	}
	s.tip.lines = append(s.tip.lines, sourceLine{
		text:   text,
		offset: max(s.lineStart, s.lineStart+s.offset-len(pad)),
		eol:    s.lineEOL,
	})
	return text
}

func (s *scanner) addChild(kind blockKind, offset int) *block {
	for !s.tip.canContain(kind) {
		s.finalize(s.tip, s.lineNum-1)
	}
	b := s.newBlock(kind, s.lineStart+offset)
	b.startLine = s.lineNum
	b.parent = s.tip
	s.tip.children = append(s.tip.children, b)
	s.tip = b
	return b
}

func (s *scanner) closeUnmatched() {
	if s.allClosed {
		return
	}
	for s.oldTip != s.lastMatched {
		parent := s.oldTip.parent
		s.finalize(s.oldTip, s.lineNum-1)
		s.oldTip = parent
	}
	s.allClosed = true
}

func (s *scanner) finalize(b *block, line int) {
	parent := b.parent
	b.open = false
	b.endLine = line
	switch b.kind {
	case blockParagraph:
		s.stripReferences(b)
		if len(b.lines) == 0 && parent != nil {
			parent.removeChild(b)
		}
	case blockHeading:
		if s.opts.Has(EnableHeadingAttributes) {
			parseHeadingAttributes(b)
		}
	case blockCodeBlock:
		if b.fenced {
			if len(b.lines) > 0 {
				b.info = unescapeString(strings.Trim(b.lines[0].text, " \t"))
				b.lines = b.lines[1:]
			}
		} else {
			b.lines = trimTrailingBlankLines(b.lines)
			b.endLine = b.startLine + max(len(b.lines), 1) - 1
		}
	case blockHTML:
		b.lines = trimTrailingBlankLines(b.lines)
	case blockItem:
		if last := b.lastChild(); last != nil {
			b.endLine = last.endLine
		} else {
			b.endLine = b.startLine
		}
		if s.opts.Has(EnableTasklists) {
			detectTask(b)
		}
	case blockList:
		if last := b.lastChild(); last != nil {
			b.endLine = last.endLine
		}
		b.list.tight = listIsTight(b)
	case blockTable:
		s.buildTable(b)
	}
	if b.endLine >= b.startLine && b.endLine < len(s.lineEnds) && b.kind != blockDocument {
		b.end = s.lineEnds[b.endLine]
	}
	s.tip = parent
}

// listIsTight reports whether no item is followed by a blank line before
// its sibling and no item has blank lines between its children.
func listIsTight(list *block) bool {
	for i, item := range list.children {
		if i+1 < len(list.children) && list.children[i+1].startLine > item.endLine+1 {
			return false
		}
		for j, sub := range item.children {
			if j+1 < len(item.children) && item.children[j+1].startLine > sub.endLine+1 {
				return false
			}
		}
	}
	return true
}

func (s *scanner) stripReferences(b *block) {
	for len(b.lines) > 0 && strings.HasPrefix(b.lines[0].text, "[") {
		var sb strings.Builder
		for _, l := range b.lines {
			sb.WriteString(l.text)
			sb.WriteByte('\n')
		}
		n := parseReferenceDefinition(sb.String(), s.refs)
		if n == 0 {
			return
		}
		for consumed := 0; len(b.lines) > 0 && consumed < n; {
			consumed += len(b.lines[0].text) + 1
			b.lines = b.lines[1:]
		}
		if len(b.lines) > 0 {
			b.start = b.lines[0].offset
		}
	}
}

func trimTrailingBlankLines(lines []sourceLine) []sourceLine {
	for len(lines) > 0 && isBlankString(lines[len(lines)-1].text) {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// detectTask strips a leading [ ], [x] or [X] marker from the first
// paragraph of an item.
func detectTask(item *block) {
	if len(item.children) == 0 {
		return
	}
	p := item.children[0]
	if p.kind != blockParagraph || len(p.lines) == 0 {
		return
	}
	text := p.lines[0].text
	if len(text) < 4 || text[0] != '[' || text[2] != ']' || !isSpaceOrTab(text[3]) {
		return
	}
	var state int8
	switch text[1] {
	case ' ':
		state = taskUnchecked
	case 'x', 'X':
		state = taskChecked
	default:
		return
	}
	rest := strings.TrimLeft(text[3:], " \t")
	if rest == "" && len(p.lines) == 1 {
		return
	}
	p.task = state
	p.lines[0].offset += len(text) - len(rest)
	p.lines[0].text = rest
}

func isSpaceOrTab(c byte) bool {
	return c == ' ' || c == '\t'
}

func isBlankString(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\v', '\f':
		default:
			return false
		}
	}
	return true
}
