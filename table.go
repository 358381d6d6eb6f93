package pulldown

import "strings"

type cellSpan struct{ from, to int }

// splitTableRow splits a row on unescaped pipes, dropping the optional
// leading and trailing pipe and trimming each cell.
func splitTableRow(text string) []cellSpan {
	from, to := 0, len(text)
	for from < to && isSpaceOrTab(text[from]) {
		from++
	}
	for to > from && isSpaceOrTab(text[to-1]) {
		to--
	}
	if from < to && text[from] == '|' {
		from++
	}
	if to > from && text[to-1] == '|' && (to-2 < from || text[to-2] != '\\') {
		to--
	}
	var cells []cellSpan
	start := from
	for i := from; i < to; i++ {
		switch text[i] {
		case '\\':
			i++
		case '|':
			cells = append(cells, trimSpan(text, start, i))
			start = i + 1
		}
	}
	return append(cells, trimSpan(text, start, to))
}

func trimSpan(text string, from, to int) cellSpan {
	to = min(to, len(text))
	for from < to && isSpaceOrTab(text[from]) {
		from++
	}
	for to > from && isSpaceOrTab(text[to-1]) {
		to--
	}
	return cellSpan{from, to}
}

// parseDelimiterRow recognizes a row such as "| :-- | :-: | --: |".
func parseDelimiterRow(text string) ([]Alignment, bool) {
	if strings.IndexByte(text, '|') < 0 {
		return nil, false
	}
	cells := splitTableRow(text)
	aligns := make([]Alignment, 0, len(cells))
	for _, c := range cells {
		cell := text[c.from:c.to]
		if cell == "" {
			return nil, false
		}
		left := cell[0] == ':'
		right := cell[len(cell)-1] == ':'
		dashes := strings.TrimSuffix(strings.TrimPrefix(cell, ":"), ":")
		if dashes == "" || strings.Trim(dashes, "-") != "" {
			return nil, false
		}
		switch {
		case left && right:
			aligns = append(aligns, AlignCenter)
		case left:
			aligns = append(aligns, AlignLeft)
		case right:
			aligns = append(aligns, AlignRight)
		default:
			aligns = append(aligns, AlignNone)
		}
	}
	return aligns, true
}

// buildTable turns the collected rows of a table into a head and body
// rows of cells, padding or truncating rows to the header width.
func (s *scanner) buildTable(t *block) {
	rows := t.lines
	t.lines = nil
	for i, row := range rows {
		kind := blockTableRow
		if i == 0 {
			kind = blockTableHead
		}
		r := s.newBlock(kind, row.offset)
		r.open = false
		r.parent = t
		r.startLine, r.endLine = t.startLine, t.startLine
		r.end = row.offset + len(row.text)
		spans := splitTableRow(row.text)
		for j := range t.aligns {
			c := s.newBlock(blockTableCell, r.end)
			c.open = false
			c.parent = r
			if j < len(spans) {
				sp := spans[j]
				c.start = row.offset + sp.from
				c.end = row.offset + sp.to
				c.lines = []sourceLine{{text: row.text[sp.from:sp.to], offset: c.start}}
			}
			r.children = append(r.children, c)
		}
		t.children = append(t.children, r)
	}
}
