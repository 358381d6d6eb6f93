package pulldown

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type inlineKind uint8

const (
	inlineRoot inlineKind = iota
	inlineText
	inlineSoftBreak
	inlineHardBreak
	inlineCode
	inlineHTML
	inlineEmphasis
	inlineStrong
	inlineStrikethrough
	inlineLink
	inlineImage
	inlineFootnoteRef
)

// inline is a node of the inline tree of one leaf block. start and end are
// byte positions in the leaf's content.
type inline struct {
	kind     inlineKind
	text     string
	url      string
	title    string
	linkType LinkType

	start, end int

	parent, first, last, prev, next *inline
}

func (n *inline) appendChild(c *inline) {
	c.unlink()
	c.parent = n
	if n.last != nil {
		n.last.next = c
		c.prev = n.last
	} else {
		n.first = c
	}
	n.last = c
}

func (n *inline) unlink() {
	if n.prev != nil {
		n.prev.next = n.next
	} else if n.parent != nil {
		n.parent.first = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else if n.parent != nil {
		n.parent.last = n.prev
	}
	n.parent, n.prev, n.next = nil, nil, nil
}

func (n *inline) insertAfter(sib *inline) {
	sib.unlink()
	sib.parent = n.parent
	sib.prev = n
	sib.next = n.next
	if n.next != nil {
		n.next.prev = sib
	} else if n.parent != nil {
		n.parent.last = sib
	}
	n.next = sib
}

type delimiter struct {
	char              byte
	num, orig         int
	node              *inline
	prev, next        *delimiter
	canOpen, canClose bool
}

type bracket struct {
	node         *inline
	prev         *bracket
	prevDelim    *delimiter
	index        int
	image        bool
	active       bool
	bracketAfter bool
}

type inlineParser struct {
	src      string
	pos      int
	opts     Options
	refs     map[string]linkRef
	delims   *delimiter
	brackets *bracket
	inTable  bool

	// brackets at or below deactivated have already been deactivated by
	// an earlier link.
	deactivated *bracket
}

var (
	reAutolink      = regexp.MustCompile(`^<[A-Za-z][A-Za-z0-9.+-]{1,31}:[^<>\x00-\x20]*>`)
	reEmailAutolink = regexp.MustCompile(`^<([a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*)>`)
	reHTMLTag       = regexp.MustCompile(`^` + htmlTag)
)

// parseInlines resolves the inline content of one leaf block.
func parseInlines(content string, opts Options, refs map[string]linkRef, inTable bool) *inline {
	p := &inlineParser{src: content, opts: opts, refs: refs, inTable: inTable}
	root := &inline{kind: inlineRoot, end: len(content)}
	for p.pos < len(p.src) {
		p.parseInline(root)
	}
	p.processEmphasis(nil)
	mergeText(root, content)
	return root
}

func (p *inlineParser) parseInline(block *inline) {
	switch c := p.src[p.pos]; c {
	case '\n':
		p.parseNewline(block)
	case '\\':
		p.parseBackslash(block)
	case '`':
		p.parseBackticks(block)
	case '*', '_':
		p.handleDelim(block, c)
	case '~':
		if p.opts.Has(EnableStrikethrough) {
			p.handleDelim(block, c)
		} else {
			p.parseString(block)
		}
	case '\'', '"':
		if p.opts.Has(EnableSmartPunctuation) {
			p.handleDelim(block, c)
		} else {
			p.parseString(block)
		}
	case '[':
		p.parseOpenBracket(block)
	case '!':
		p.parseBang(block)
	case ']':
		p.parseCloseBracket(block)
	case '<':
		if !p.parseAutolink(block) && !p.parseHTMLTag(block) {
			p.pos++
			p.appendText(block, "<", p.pos-1, p.pos)
		}
	case '&':
		p.parseEntity(block)
	default:
		p.parseString(block)
	}
}

func (p *inlineParser) special(c byte) bool {
	switch c {
	case '\n', '\\', '`', '*', '_', '[', ']', '!', '<', '&':
		return true
	case '~':
		return p.opts.Has(EnableStrikethrough)
	case '\'', '"':
		return p.opts.Has(EnableSmartPunctuation)
	}
	return false
}

func (p *inlineParser) appendText(block *inline, text string, start, end int) *inline {
	n := &inline{kind: inlineText, text: text, start: start, end: end}
	block.appendChild(n)
	return n
}

func (p *inlineParser) parseString(block *inline) {
	start := p.pos
	p.pos++
	for p.pos < len(p.src) && !p.special(p.src[p.pos]) {
		p.pos++
	}
	text := p.src[start:p.pos]
	if p.opts.Has(EnableSmartPunctuation) {
		text = smartenText(text)
	}
	p.appendText(block, text, start, p.pos)
}

func (p *inlineParser) parseNewline(block *inline) {
	start := p.pos
	p.pos++
	kind := inlineSoftBreak
	if last := block.last; last != nil && last.kind == inlineText && strings.HasSuffix(last.text, " ") {
		if strings.HasSuffix(last.text, "  ") {
			kind = inlineHardBreak
		}
		trimmed := strings.TrimRight(last.text, " ")
		start = last.end - (len(last.text) - len(trimmed))
		last.end = start
		last.text = trimmed
	}
	block.appendChild(&inline{kind: kind, start: start, end: p.pos})
	for p.pos < len(p.src) && isSpaceOrTab(p.src[p.pos]) {
		p.pos++
	}
}

func (p *inlineParser) parseBackslash(block *inline) {
	start := p.pos
	p.pos++
	switch {
	case p.pos < len(p.src) && p.src[p.pos] == '\n':
		p.pos++
		block.appendChild(&inline{kind: inlineHardBreak, start: start, end: p.pos})
	case p.pos < len(p.src) && isASCIIPunct(p.src[p.pos]):
		p.pos++
		p.appendText(block, p.src[p.pos-1:p.pos], start, p.pos)
	default:
		p.appendText(block, `\`, start, p.pos)
	}
}

func (p *inlineParser) parseBackticks(block *inline) {
	start := p.pos
	n := runLength(p.src, p.pos, '`')
	after := start + n
	for p.pos = after; ; {
		i := strings.IndexByte(p.src[p.pos:], '`')
		if i < 0 {
			break
		}
		j := p.pos + i
		m := runLength(p.src, j, '`')
		p.pos = j + m
		if m != n {
			continue
		}
		content := strings.ReplaceAll(p.src[after:j], "\n", " ")
		if len(content) > 1 && content[0] == ' ' && content[len(content)-1] == ' ' && strings.Trim(content, " ") != "" {
			content = content[1 : len(content)-1]
		}
		if p.inTable {
			content = strings.ReplaceAll(content, `\|`, "|")
		}
		block.appendChild(&inline{kind: inlineCode, text: content, start: start, end: p.pos})
		return
	}
	p.pos = after
	p.appendText(block, p.src[start:after], start, after)
}

func runLength(s string, pos int, c byte) int {
	n := 0
	for pos+n < len(s) && s[pos+n] == c {
		n++
	}
	return n
}

// scanDelims measures the delimiter run at the current position and
// applies the flanking rules.
func (p *inlineParser) scanDelims(c byte) (num int, canOpen, canClose bool) {
	start := p.pos
	if c == '\'' || c == '"' {
		num = 1
	} else {
		num = runLength(p.src, start, c)
	}
	before, after := '\n', '\n'
	if start > 0 {
		before, _ = utf8.DecodeLastRuneInString(p.src[:start])
	}
	if start+num < len(p.src) {
		after, _ = utf8.DecodeRuneInString(p.src[start+num:])
	}
	afterSpace, afterPunct := isUnicodeSpace(after), isUnicodePunct(after)
	beforeSpace, beforePunct := isUnicodeSpace(before), isUnicodePunct(before)
	left := !afterSpace && (!afterPunct || beforeSpace || beforePunct)
	right := !beforeSpace && (!beforePunct || afterSpace || afterPunct)
	switch c {
	case '_':
		canOpen = left && (!right || beforePunct)
		canClose = right && (!left || afterPunct)
	case '\'', '"':
		canOpen = left && !right
		canClose = right
	default:
		canOpen, canClose = left, right
	}
	return num, canOpen, canClose
}

func (p *inlineParser) handleDelim(block *inline, c byte) {
	start := p.pos
	num, canOpen, canClose := p.scanDelims(c)
	p.pos += num
	text := p.src[start:p.pos]
	switch c {
	case '\'':
		text = "’"
	case '"':
		text = "“"
	case '~':
		if num > 2 {
			p.appendText(block, text, start, p.pos)
			return
		}
	}
	node := p.appendText(block, text, start, p.pos)
	if !canOpen && !canClose {
		return
	}
	d := &delimiter{char: c, num: num, orig: num, node: node, prev: p.delims, canOpen: canOpen, canClose: canClose}
	if d.prev != nil {
		d.prev.next = d
	}
	p.delims = d
}

func (p *inlineParser) removeDelimiter(d *delimiter) {
	if d.prev != nil {
		d.prev.next = d.next
	}
	if d.next == nil {
		p.delims = d.prev
	} else {
		d.next.prev = d.prev
	}
}

func openersBottomIndex(d *delimiter) int {
	switch d.char {
	case '\'':
		return 0
	case '"':
		return 1
	case '~':
		return 14 + min(d.num, 2) - 1
	}
	i := d.orig % 3
	if d.canOpen {
		i += 3
	}
	if d.char == '_' {
		return 2 + i
	}
	return 8 + i
}

func delimsMatch(opener, closer *delimiter) bool {
	switch closer.char {
	case '~':
		return opener.num == closer.num
	case '\'', '"':
		return true
	}
	odd := (closer.canOpen || opener.canClose) && closer.orig%3 != 0 && (opener.orig+closer.orig)%3 == 0
	return !odd
}

// processEmphasis matches the delimiters above bottom, wrapping the nodes
// between each matched pair, and then drops them from the stack.
func (p *inlineParser) processEmphasis(bottom *delimiter) {
	var openersBottom [16]*delimiter
	for i := range openersBottom {
		openersBottom[i] = bottom
	}
	closer := p.delims
	for closer != nil && closer.prev != bottom {
		closer = closer.prev
	}
	for closer != nil {
		if !closer.canClose {
			closer = closer.next
			continue
		}
		idx := openersBottomIndex(closer)
		opener := closer.prev
		found := false
		for opener != nil && opener != bottom && opener != openersBottom[idx] {
			if opener.char == closer.char && opener.canOpen && delimsMatch(opener, closer) {
				found = true
				break
			}
			opener = opener.prev
		}
		oldCloser := closer
		switch closer.char {
		case '*', '_', '~':
			if !found {
				closer = closer.next
				break
			}
			closer = p.wrapEmphasis(opener, closer)
		case '\'', '"':
			closer.node.text = "’"
			if closer.char == '"' {
				closer.node.text = "”"
			}
			next := closer.next
			if found {
				opener.node.text = "‘"
				if closer.char == '"' {
					opener.node.text = "“"
				}
				p.removeDelimitersBetween(opener, closer)
				p.removeDelimiter(opener)
				p.removeDelimiter(closer)
			}
			closer = next
		}
		if !found {
			openersBottom[idx] = oldCloser.prev
			if !oldCloser.canOpen {
				p.removeDelimiter(oldCloser)
			}
		}
	}
	for p.delims != nil && p.delims != bottom {
		p.removeDelimiter(p.delims)
	}
}

// removeDelimitersBetween drops the delimiters strictly between opener and
// closer.
func (p *inlineParser) removeDelimitersBetween(opener, closer *delimiter) {
	for d := closer.prev; d != nil && d != opener; d = d.prev {
		p.removeDelimiter(d)
	}
}

// wrapEmphasis consumes delimiters from a matched pair and returns the
// next closer to examine.
func (p *inlineParser) wrapEmphasis(opener, closer *delimiter) *delimiter {
	use := 1
	kind := inlineEmphasis
	switch {
	case closer.char == '~':
		use = closer.num
		kind = inlineStrikethrough
	case closer.num >= 2 && opener.num >= 2:
		use = 2
		kind = inlineStrong
	}
	on, cn := opener.node, closer.node
	opener.num -= use
	closer.num -= use
	on.text = on.text[:len(on.text)-use]
	on.end -= use
	cn.text = cn.text[:len(cn.text)-use]
	cn.start += use

	emph := &inline{kind: kind, start: on.end, end: cn.start}
	for n := on.next; n != nil && n != cn; {
		next := n.next
		emph.appendChild(n)
		n = next
	}
	on.insertAfter(emph)

	opener.next = closer
	closer.prev = opener

	if opener.num == 0 {
		on.unlink()
		p.removeDelimiter(opener)
	}
	if closer.num == 0 {
		cn.unlink()
		next := closer.next
		p.removeDelimiter(closer)
		return next
	}
	return closer
}

func (p *inlineParser) parseOpenBracket(block *inline) {
	start := p.pos
	p.pos++
	node := p.appendText(block, "[", start, p.pos)
	p.addBracket(node, start, false)
}

func (p *inlineParser) parseBang(block *inline) {
	start := p.pos
	p.pos++
	if p.pos < len(p.src) && p.src[p.pos] == '[' {
		p.pos++
		node := p.appendText(block, "![", start, p.pos)
		p.addBracket(node, start+1, true)
		return
	}
	p.appendText(block, "!", start, p.pos)
}

func (p *inlineParser) addBracket(node *inline, index int, image bool) {
	if p.brackets != nil {
		p.brackets.bracketAfter = true
	}
	p.brackets = &bracket{
		node:      node,
		prev:      p.brackets,
		prevDelim: p.delims,
		index:     index,
		image:     image,
		active:    true,
	}
}

func (p *inlineParser) removeBracket() {
	p.brackets = p.brackets.prev
}

func (p *inlineParser) parseCloseBracket(block *inline) {
	p.pos++
	startpos := p.pos
	opener := p.brackets
	if opener == nil {
		p.appendText(block, "]", startpos-1, startpos)
		return
	}
	if !opener.active {
		p.appendText(block, "]", startpos-1, startpos)
		p.removeBracket()
		return
	}
	image := opener.image
	if !image && p.opts.Has(EnableFootnotes) && p.parseFootnoteReference(block, opener, startpos) {
		return
	}

	var dest, title string
	linkType := LinkInline
	matched := false
	savepos := p.pos
	if p.pos < len(p.src) && p.src[p.pos] == '(' {
		if d, t, end, ok := p.parseInlineDestination(p.pos + 1); ok {
			dest, title, matched = d, t, true
			p.pos = end
		}
	}
	if !matched {
		beforeLabel := p.pos
		n := scanLinkLabel(p.src, beforeLabel)
		var reflabel string
		switch {
		case n > 2:
			reflabel = p.src[beforeLabel : beforeLabel+n]
			linkType = LinkReference
		case !opener.bracketAfter:
			reflabel = p.src[opener.index:startpos]
			linkType = LinkShortcut
			if n == 2 {
				linkType = LinkCollapsed
			}
		}
		if n == 0 {
			p.pos = savepos
		} else {
			p.pos = beforeLabel + n
		}
		if reflabel != "" {
			if ref, ok := p.refs[normalizeLabel(reflabel)]; ok {
				dest, title, matched = ref.dest, ref.title, true
			}
		}
	}
	if !matched {
		p.removeBracket()
		p.pos = startpos
		p.appendText(block, "]", startpos-1, startpos)
		return
	}

	kind, start := inlineLink, opener.index
	if image {
		kind, start = inlineImage, opener.index-1
	}
	node := &inline{kind: kind, url: dest, title: title, linkType: linkType, start: start, end: p.pos}
	for n := opener.node.next; n != nil; {
		next := n.next
		node.appendChild(n)
		n = next
	}
	block.appendChild(node)
	p.processEmphasis(opener.prevDelim)
	p.removeBracket()
	opener.node.unlink()
	if !image {
		for b := p.brackets; b != nil && b != p.deactivated; b = b.prev {
			if !b.image {
				b.active = false
			}
		}
		p.deactivated = p.brackets
	}
}

// parseInlineDestination parses the "(dest "title")" tail of an inline
// link, starting just after the opening parenthesis.
func (p *inlineParser) parseInlineDestination(pos int) (dest, title string, end int, ok bool) {
	pos = skipSpnl(p.src, pos)
	dest, after, ok := scanLinkDestination(p.src, pos)
	if !ok {
		return "", "", 0, false
	}
	pos = skipSpnl(p.src, after)
	if pos != after {
		if t, e, ok := scanLinkTitle(p.src, pos); ok {
			title = t
			pos = skipSpnl(p.src, e)
		}
	}
	if pos >= len(p.src) || p.src[pos] != ')' {
		return "", "", 0, false
	}
	return dest, title, pos + 1, true
}

// parseFootnoteReference turns [^label] into a footnote reference.
func (p *inlineParser) parseFootnoteReference(block *inline, opener *bracket, startpos int) bool {
	label := p.src[opener.index+1 : startpos-1]
	if len(label) < 2 || label[0] != '^' || strings.ContainsAny(label, " \t\n[]") {
		return false
	}
	for n := opener.node.next; n != nil; {
		next := n.next
		n.unlink()
		n = next
	}
	for p.delims != nil && p.delims != opener.prevDelim {
		p.removeDelimiter(p.delims)
	}
	block.appendChild(&inline{kind: inlineFootnoteRef, text: label[1:], start: opener.index, end: startpos})
	p.removeBracket()
	opener.node.unlink()
	return true
}

func (p *inlineParser) parseAutolink(block *inline) bool {
	rest := p.src[p.pos:]
	start := p.pos
	if m := reAutolink.FindString(rest); m != "" {
		uri := m[1 : len(m)-1]
		p.pos += len(m)
		link := &inline{kind: inlineLink, url: uri, linkType: LinkAutolink, start: start, end: p.pos}
		link.appendChild(&inline{kind: inlineText, text: uri, start: start + 1, end: p.pos - 1})
		block.appendChild(link)
		return true
	}
	if m := reEmailAutolink.FindStringSubmatch(rest); m != nil {
		addr := m[1]
		p.pos += len(m[0])
		link := &inline{kind: inlineLink, url: addr, linkType: LinkEmail, start: start, end: p.pos}
		link.appendChild(&inline{kind: inlineText, text: addr, start: start + 1, end: p.pos - 1})
		block.appendChild(link)
		return true
	}
	return false
}

func (p *inlineParser) parseHTMLTag(block *inline) bool {
	m := reHTMLTag.FindString(p.src[p.pos:])
	if m == "" {
		return false
	}
	start := p.pos
	p.pos += len(m)
	block.appendChild(&inline{kind: inlineHTML, text: m, start: start, end: p.pos})
	return true
}

func (p *inlineParser) parseEntity(block *inline) {
	start := p.pos
	if dec, n := scanEntity(p.src[p.pos:]); n > 0 {
		p.pos += n
		p.appendText(block, dec, start, p.pos)
		return
	}
	p.pos++
	p.appendText(block, "&", start, p.pos)
}

// mergeText joins each run of adjacent text nodes into one and drops empty
// ones. A run that is a contiguous slice of content stays a slice.
func mergeText(n *inline, content string) {
	for c := n.first; c != nil; {
		if c.kind != inlineText {
			if c.first != nil {
				mergeText(c, content)
			}
			c = c.next
			continue
		}
		stop := c.next
		for stop != nil && stop.kind == inlineText {
			stop = stop.next
		}
		joinText(c, stop, content)
		if c.text == "" {
			c.unlink()
		}
		c = stop
	}
}

// joinText folds the text nodes from first up to stop into first.
func joinText(first, stop *inline, content string) {
	if first.next == stop {
		return
	}
	var b strings.Builder
	slice := true
	end := first.start
	for t := first; t != stop; t = t.next {
		if t.start != end || t.text != content[t.start:t.end] {
			slice = false
		}
		end = t.end
		b.WriteString(t.text)
	}
	if slice {
		first.text = content[first.start:end]
	} else {
		first.text = b.String()
	}
	first.end = end
	for t := first.next; t != stop; {
		next := t.next
		t.unlink()
		t = next
	}
}

func isUnicodeSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\f', '\r':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isUnicodePunct(r rune) bool {
	if r < utf8.RuneSelf {
		return isASCIIPunct(byte(r))
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
