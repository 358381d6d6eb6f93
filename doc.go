// Package pulldown parses CommonMark into a pull-based stream of events
// and renders the stream as HTML or ANSI terminal text.
//
// Parsing runs in three stages. A block scanner builds the container and
// leaf structure of the document line by line. When the event producer
// reaches a leaf, the inline resolver turns the leaf's text into code
// spans, emphasis, links and the other inline constructs. The producer
// hands out one Event at a time, so a consumer that stops early never pays
// for inline resolution of the rest of the document.
//
// Extensions are opt-in through Options:
//   - EnableTables, EnableFootnotes, EnableStrikethrough, EnableTasklists
//     (together EnableGFM)
//   - EnableSmartPunctuation, EnableHeadingAttributes, EnableMetadataBlocks
//
// Example:
//
//	p, err := pulldown.NewParser("# Hello\n\n*Markdown* in, events out.\n", pulldown.EnableGFM)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := pulldown.WriteHTML(os.Stdout, p.Events()); err != nil {
//		log.Fatal(err)
//	}
//
// Render wraps reading, validation and rendering for io.Reader inputs and
// reuses its buffers across calls.
package pulldown
