package pulldown

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedOption reports option bits outside the recognized set.
var ErrUnsupportedOption = errors.New("unsupported option")

// Options is a bitset of parser extensions. The zero value parses strict
// CommonMark. Bits outside the recognized set are ignored by the parser.
type Options uint32

const (
	EnableTables Options = 1 << (iota + 1)
	EnableFootnotes
	EnableStrikethrough
	EnableTasklists
	EnableSmartPunctuation
	EnableHeadingAttributes
	EnableMetadataBlocks
)

// EnableGFM turns on the GitHub flavored extensions.
const EnableGFM = EnableTables | EnableFootnotes | EnableStrikethrough | EnableTasklists

const knownOptions = EnableTables | EnableFootnotes | EnableStrikethrough |
	EnableTasklists | EnableSmartPunctuation | EnableHeadingAttributes |
	EnableMetadataBlocks

var optionNames = []struct {
	opt  Options
	name string
}{
	{EnableTables, "tables"},
	{EnableFootnotes, "footnotes"},
	{EnableStrikethrough, "strikethrough"},
	{EnableTasklists, "tasklists"},
	{EnableSmartPunctuation, "smart-punctuation"},
	{EnableHeadingAttributes, "heading-attributes"},
	{EnableMetadataBlocks, "metadata-blocks"},
}

// Has reports whether every bit of flag is set.
func (o Options) Has(flag Options) bool {
	return o&flag == flag
}

// Known strips unrecognized bits.
func (o Options) Known() Options {
	return o & knownOptions
}

// Validate returns ErrUnsupportedOption if o carries unrecognized bits.
func (o Options) Validate() error {
	if extra := o &^ knownOptions; extra != 0 {
		return fmt.Errorf("options %#x: %w", uint32(extra), ErrUnsupportedOption)
	}
	return nil
}

func (o Options) String() string {
	if o.Known() == 0 {
		return "commonmark"
	}
	var parts []string
	for _, n := range optionNames {
		if o.Has(n.opt) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseOptionName maps an extension name as printed by Options.String to
// its flag.
func ParseOptionName(name string) (Options, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "gfm" {
		return EnableGFM, true
	}
	for _, n := range optionNames {
		if n.name == name {
			return n.opt, true
		}
	}
	return 0, false
}

// GoldenOptions derives extensions from a fixture file name of the form
// "tables+footnotes__name.md". Names without "__" parse as CommonMark.
func GoldenOptions(fileName string) Options {
	prefix, _, ok := strings.Cut(fileName, "__")
	if !ok {
		return 0
	}
	var opts Options
	for _, name := range strings.Split(prefix, "+") {
		if opt, ok := ParseOptionName(name); ok {
			opts |= opt
		}
	}
	return opts
}
