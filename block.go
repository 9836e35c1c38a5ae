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

package markup

import (
	"fmt"
	"strings"
)

// Mode is an enumeration of the ways a rule can be invoked.
type Mode int8

const (
	// Commit asks a rule to consume input and append tokens.
	Commit Mode = iota
	// Validate asks a rule only to report whether it would match.
	// A rule invoked in Validate mode must not append tokens.
	Validate
)

// A BlockRule attempts to match a block construct starting at startLine.
// Lines at or after endLine must not be consumed.
//
// In [Commit] mode, a matching rule appends its tokens,
// sets state.Line past the lines it consumed, and returns true.
// In [Validate] mode, a rule reports whether it would match
// without appending tokens or moving state.Line.
type BlockRule func(state *BlockState, startLine, endLine int, mode Mode) bool

// ParentType is an enumeration of the containers
// that can enclose a block-level scan.
type ParentType int8

const (
	ParentRoot ParentType = iota
	ParentBlockquote
	ParentList
	ParentFootnote
	ParentDeflist
)

func (pt ParentType) String() string {
	switch pt {
	case ParentRoot:
		return "root"
	case ParentBlockquote:
		return "blockquote"
	case ParentList:
		return "list"
	case ParentFootnote:
		return "footnote"
	case ParentDeflist:
		return "deflist"
	default:
		return fmt.Sprintf("ParentType(%d)", int8(pt))
	}
}

// A BlockParser splits normalized source text into block-level tokens.
type BlockParser struct {
	Ruler Ruler[BlockRule]
}

type namedBlockRule struct {
	name   string
	fn     BlockRule
	chains []string
}

// blockRules is the precedence order of the built-in block rules.
// Chains name the rules a paragraph, blockquote, or list
// consults to find out whether a line interrupts it.
var blockRules = []namedBlockRule{
	{"code", codeRule, nil},
	{"fences", fencesRule, []string{"paragraph", "blockquote", "list"}},
	{"blockquote", blockquoteRule, []string{"paragraph", "blockquote", "list"}},
	{"hr", hrRule, []string{"paragraph", "blockquote", "list"}},
	{"list", listRule, []string{"paragraph", "blockquote"}},
	{"footnote", footnoteRule, []string{"paragraph"}},
	{"heading", headingRule, []string{"paragraph", "blockquote"}},
	{"lheading", lheadingRule, nil},
	{"htmlblock", htmlBlockRule, []string{"paragraph", "blockquote"}},
	{"table", tableRule, []string{"paragraph"}},
	{"deflist", deflistRule, []string{"paragraph"}},
	{"paragraph", paragraphRule, nil},
}

// NewBlockParser returns a block parser with all of the built-in rules enabled.
func NewBlockParser() *BlockParser {
	p := new(BlockParser)
	for _, rule := range blockRules {
		must(p.Ruler.Register(rule.name, rule.fn, rule.chains...))
	}
	return p
}

// Parse normalizes src and splits it into block-level tokens.
// It returns nil for empty input.
func (p *BlockParser) Parse(src string, options *Options, env *Env) []*Token {
	if src == "" {
		return nil
	}
	state := NewBlockState(normalizeSource(src), p, options, env)
	p.Tokenize(state, state.Line, state.LineMax)
	return state.Tokens
}

// Tokenize appends the tokens for lines [startLine, endLine) to state.Tokens.
// It stops early without consuming a line
// whose indentation is less than state.BlkIndent.
//
// Tokenize panics if no enabled rule matches a line
// or if a rule reports a match without advancing state.Line.
func (p *BlockParser) Tokenize(state *BlockState, startLine, endLine int) {
	rules := p.Ruler.Rules("")
	line := startLine
	hasEmptyLines := false
	for line < endLine {
		line = state.SkipEmptyLines(line)
		state.Line = line
		if line >= endLine {
			break
		}
		if state.TShift[line] < state.BlkIndent {
			// End of the enclosing container.
			break
		}

		matched := false
		for _, rule := range rules {
			if rule(state, line, endLine, Commit) {
				matched = true
				break
			}
		}
		if !matched {
			panic(fmt.Sprintf("markup: no block rule matched line %d", line))
		}
		if state.Line <= line {
			panic(fmt.Sprintf("markup: block rule matched line %d without consuming it", line))
		}

		// A blank line before the item just closed makes the scan loose.
		state.Tight = !hasEmptyLines
		// Paragraphs in nested lists may have eaten one trailing blank line.
		if state.IsEmpty(state.Line - 1) {
			hasEmptyLines = true
		}

		line = state.Line
		if line < endLine && state.IsEmpty(line) {
			hasEmptyLines = true
			line++
			// Two blank lines end a list.
			if line < endLine && state.ParentType == ParentList && state.IsEmpty(line) {
				break
			}
			state.Line = line
		}
	}
}

// BlockState is the state of a single block-level parse.
type BlockState struct {
	Src     string
	Parser  *BlockParser
	Options *Options
	Env     *Env
	Tokens  []*Token

	// BMarks and EMarks hold the byte offsets of the start and end of each line.
	// TShift holds the number of leading spaces on each line.
	// Each has an extra empty entry past the last line.
	// Container rules may adjust these temporarily for the lines they enclose;
	// a negative TShift marks a lazy continuation line.
	BMarks []int
	EMarks []int
	TShift []int

	// BlkIndent is the indentation a line needs
	// to stay in the current container.
	BlkIndent int
	// Line is the line cursor.
	Line int
	// LineMax is the number of lines in Src.
	LineMax int
	// Tight reports whether no blank line separated
	// the most recently tokenized blocks.
	Tight bool
	// ParentType is the kind of the container enclosing the current scan.
	ParentType ParentType
	// DDIndent is the indentation of the current definition list body,
	// or -1 outside of one.
	DDIndent int
	// Level is the nesting depth of the next token.
	Level int
}

// NewBlockState returns a new state for tokenizing the normalized source src.
// Nil options or env are replaced with zero values.
func NewBlockState(src string, parser *BlockParser, options *Options, env *Env) *BlockState {
	if options == nil {
		options = new(Options)
	}
	if env == nil {
		env = new(Env)
	}
	s := &BlockState{
		Src:      src,
		Parser:   parser,
		Options:  options,
		Env:      env,
		DDIndent: -1,
	}
	for start := 0; start < len(src); {
		end := strings.IndexByte(src[start:], '\n')
		if end < 0 {
			end = len(src)
		} else {
			end += start
		}
		indent := 0
		for start+indent < end && src[start+indent] == ' ' {
			indent++
		}
		s.BMarks = append(s.BMarks, start)
		s.EMarks = append(s.EMarks, end)
		s.TShift = append(s.TShift, indent)
		start = end + 1
	}
	s.LineMax = len(s.BMarks)
	s.BMarks = append(s.BMarks, len(src))
	s.EMarks = append(s.EMarks, len(src))
	s.TShift = append(s.TShift, 0)
	return s
}

// Nest tokenizes lines [startLine, endLine) as the content of a container.
// The container's indentation and parent type apply for the duration of the call;
// BlkIndent, ParentType, and Tight are restored before Nest returns.
// Nest reports whether the nested content was tight.
func (s *BlockState) Nest(parent ParentType, blkIndent, startLine, endLine int) (tight bool) {
	oldIndent, oldParent, oldTight := s.BlkIndent, s.ParentType, s.Tight
	defer func() {
		s.BlkIndent, s.ParentType, s.Tight = oldIndent, oldParent, oldTight
	}()
	s.BlkIndent = blkIndent
	s.ParentType = parent
	s.Tight = true
	s.Parser.Tokenize(s, startLine, endLine)
	return s.Tight
}

// IsEmpty reports whether the line contains only spaces.
func (s *BlockState) IsEmpty(line int) bool {
	return s.BMarks[line]+s.TShift[line] >= s.EMarks[line]
}

// SkipEmptyLines returns the first non-empty line at or after from,
// or LineMax if there is none.
func (s *BlockState) SkipEmptyLines(from int) int {
	for ; from < s.LineMax; from++ {
		if !s.IsEmpty(from) {
			break
		}
	}
	return from
}

// SkipSpaces returns the offset of the first non-space byte at or after pos.
func (s *BlockState) SkipSpaces(pos int) int {
	return s.SkipChars(pos, ' ')
}

// SkipChars returns the offset of the first byte at or after pos that is not c.
func (s *BlockState) SkipChars(pos int, c byte) int {
	for pos < len(s.Src) && s.Src[pos] == c {
		pos++
	}
	return pos
}

// SkipCharsBack returns the offset just past the last byte before pos that is not c,
// without going below limit.
func (s *BlockState) SkipCharsBack(pos int, c byte, limit int) int {
	for pos > limit {
		if s.Src[pos-1] != c {
			break
		}
		pos--
	}
	return pos
}

// GetLines returns the text of lines [begin, end)
// with up to indent leading spaces removed from each line.
// Lines are joined with "\n";
// if keepLastLF is true, the last line's newline is kept too.
func (s *BlockState) GetLines(begin, end, indent int, keepLastLF bool) string {
	if begin >= end {
		return ""
	}
	sb := new(strings.Builder)
	for line := begin; line < end; line++ {
		shift := min(max(s.TShift[line], 0), indent)
		first := s.BMarks[line] + shift
		last := s.EMarks[line]
		if line+1 < end || keepLastLF {
			last = min(last+1, len(s.Src))
		}
		if first < last {
			sb.WriteString(s.Src[first:last])
		}
	}
	return sb.String()
}

// lineStart returns the offset of the first non-space byte on the line.
func (s *BlockState) lineStart(line int) int {
	return s.BMarks[line] + s.TShift[line]
}

func (s *BlockState) push(tok *Token) *Token {
	s.Tokens = append(s.Tokens, tok)
	return tok
}

// interrupted reports whether any rule in the chain
// would start a new block at line.
func (s *BlockState) interrupted(chain string, line, endLine int) bool {
	for _, rule := range s.Parser.Ruler.Rules(chain) {
		if rule(s, line, endLine, Validate) {
			return true
		}
	}
	return false
}

// pushOpen appends tok at the current level and enters it.
func (s *BlockState) pushOpen(tok *Token) *Token {
	tok.Level = s.Level
	s.Level++
	return s.push(tok)
}

// pushClose leaves the current level and appends a closing token of the given kind.
func (s *BlockState) pushClose(kind TokenKind) {
	s.Level--
	s.push(&Token{Kind: kind, Level: s.Level})
}
