// Copyright 2024 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package markup converts Markdown-style text into a flat stream of tokens
// using ordered, pluggable rule sets.
//
// Parsing happens in three stages, each driven by its own [Ruler]:
// a line-oriented [BlockParser] splits the document into block tokens,
// a position-oriented [InlineParser] expands the raw text of each block,
// and a [CoreParser] runs whole-document passes
// (reference collection, footnotes, typography) around the other two.
// The resulting tokens can be rendered with an [HTMLRenderer].
package markup

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"go4.org/bytereplacer"
)

// DefaultMaxNesting is the nesting limit used
// when [Options.MaxNesting] is not positive.
const DefaultMaxNesting = 20

// Options is the set of parameters that affect tokenization.
type Options struct {
	// HTML enables raw HTML blocks and inline tags.
	HTML bool
	// Linkify converts bare URLs and e-mail addresses in text to links.
	Linkify bool
	// Typographer enables typographic replacements and smart quotes.
	Typographer bool
	// Quotes is the set of replacements for smart quotes:
	// double open, double close, single open, single close.
	Quotes [4]string
	// MaxNesting limits the depth of nested containers and inline spans.
	MaxNesting int
}

func (opts *Options) maxNesting() int {
	if opts.MaxNesting <= 0 {
		return DefaultMaxNesting
	}
	return opts.MaxNesting
}

func (opts *Options) quote(i int) string {
	if opts.Quotes[i] == "" {
		return defaultQuotes[i]
	}
	return opts.Quotes[i]
}

var defaultQuotes = [4]string{"“", "”", "‘", "’"}

// Preset is an enumeration of rule and option configurations for [NewParser].
type Preset int

const (
	// PresetDefault enables everything except definition lists, insertions,
	// highlights, subscripts, superscripts, inline footnotes, and abbreviations.
	PresetDefault Preset = iota
	// PresetFull enables every rule.
	PresetFull
	// PresetCommonMark restricts the rules to the constructs
	// that CommonMark defines and enables raw HTML.
	PresetCommonMark
)

var commonMarkRules = struct {
	core, block, inline []string
}{
	core: []string{"block", "references", "inline"},
	block: []string{
		"blockquote",
		"code",
		"fences",
		"heading",
		"hr",
		"htmlblock",
		"lheading",
		"list",
		"paragraph",
	},
	inline: []string{
		"autolink",
		"backticks",
		"emphasis",
		"entity",
		"escape",
		"htmltag",
		"links",
		"newline",
		"text",
	},
}

// Env holds the document-wide data collected during a parse.
type Env struct {
	// References maps normalized labels to link reference definitions.
	References ReferenceMap
	// Abbreviations maps abbreviation labels to their titles.
	Abbreviations map[string]string
	// Footnotes holds the footnotes defined or referenced by the document.
	Footnotes Footnotes
}

// Footnotes is the footnote data collected during a parse.
type Footnotes struct {
	// Refs maps footnote labels to their index in List,
	// or -1 if the footnote has been defined but not yet referenced.
	Refs map[string]int
	// List is the sequence of referenced footnotes in order of first reference.
	List []*Footnote
}

// A Footnote is a single referenced footnote.
type Footnote struct {
	// Label is the footnote's label. It is empty for inline footnotes.
	Label string
	// Count is the number of references to the footnote.
	Count int
	// Tokens is the parsed content of an inline footnote.
	Tokens []*Token
}

// A Parser converts source text into tokens.
// A Parser's rulers must not be modified while a parse is in progress,
// but a Parser may otherwise be used from multiple goroutines.
type Parser struct {
	Options Options
	Block   *BlockParser
	Inline  *InlineParser
	Core    *CoreParser
}

// NewParser returns a new parser configured with the given preset.
func NewParser(preset Preset) *Parser {
	p := &Parser{
		Options: Options{
			Quotes:     defaultQuotes,
			MaxNesting: DefaultMaxNesting,
		},
		Block:  NewBlockParser(),
		Inline: NewInlineParser(),
		Core:   NewCoreParser(),
	}
	switch preset {
	case PresetDefault:
		must(p.Block.Ruler.Disable("deflist"))
		must(p.Inline.Ruler.Disable("ins", "mark", "sub", "sup", "footnote_inline"))
		must(p.Core.Ruler.Disable("abbr", "abbr2"))
	case PresetFull:
	case PresetCommonMark:
		p.Options.HTML = true
		must(p.Core.Ruler.EnableOnly(commonMarkRules.core...))
		must(p.Block.Ruler.EnableOnly(commonMarkRules.block...))
		must(p.Inline.Ruler.EnableOnly(commonMarkRules.inline...))
	default:
		panic("markup: unknown preset")
	}
	return p
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Parse tokenizes a document.
// It returns the block-level tokens, whose [InlineKind] tokens
// hold their parsed inline content as children,
// along with the document-wide data collected along the way.
func (p *Parser) Parse(src string) ([]*Token, *Env) {
	return p.process(src, false)
}

// ParseInline tokenizes src as a single run of inline content,
// skipping block-level constructs.
// The result is a single [InlineKind] token,
// or nil if src is empty after trimming.
func (p *Parser) ParseInline(src string) ([]*Token, *Env) {
	return p.process(src, true)
}

func (p *Parser) process(src string, inlineMode bool) ([]*Token, *Env) {
	env := &Env{References: make(ReferenceMap)}
	state := &CoreState{
		Src:        src,
		Options:    &p.Options,
		Env:        env,
		InlineMode: inlineMode,
		Block:      p.Block,
		Inline:     p.Inline,
	}
	p.Core.Process(state)
	return state.Tokens, env
}

const tabStopSize = 4

var sourceReplacer = bytereplacer.New(
	"\r\n", "\n",
	"\r\u0085", "\n",
	"\r", "\n",
	"\u0085", "\n",
	"\u2028", "\n",
	"\u2029", "\n",
	"\u2424", "\n",
	"\u00a0", " ",
	"\x00", "\ufffd",
)

// normalizeSource folds line endings to "\n",
// replaces non-breaking spaces with spaces,
// replaces NUL bytes with U+FFFD,
// and expands tabs to the next multiple-of-4 column.
// Columns are counted in runes from the start of the line.
func normalizeSource(src string) string {
	b := sourceReplacer.Replace([]byte(src))
	if bytes.IndexByte(b, '\t') < 0 {
		return string(b)
	}
	sb := new(strings.Builder)
	sb.Grow(len(b) + 3*bytes.Count(b, []byte{'\t'}))
	col := 0
	for len(b) > 0 {
		c, n := utf8.DecodeRune(b)
		switch c {
		case '\n':
			sb.WriteByte('\n')
			col = 0
		case '\t':
			spaces := tabStopSize - col%tabStopSize
			sb.WriteString("    "[:spaces])
			col += spaces
		default:
			sb.Write(b[:n])
			col++
		}
		b = b[n:]
	}
	return sb.String()
}
