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

import "fmt"

// An InlineRule attempts to match an inline construct at state.Pos.
//
// In [Commit] mode, a matching rule appends its tokens or pending text,
// advances state.Pos past the input it consumed, and returns true.
// In [Validate] mode, a matching rule advances state.Pos
// to the end of the construct without appending anything.
type InlineRule func(state *InlineState, mode Mode) bool

// An InlineParser splits the raw content of a block into inline tokens.
type InlineParser struct {
	Ruler Ruler[InlineRule]

	// ValidateLink reports whether a link destination is allowed.
	// Links with disallowed destinations are left as text.
	// If ValidateLink is nil, the package-level [ValidateLink] is used.
	ValidateLink func(url string) bool
}

type namedInlineRule struct {
	name string
	fn   InlineRule
}

// inlineRules is the precedence order of the built-in inline rules.
var inlineRules = []namedInlineRule{
	{"text", textRule},
	{"newline", newlineRule},
	{"escape", escapeRule},
	{"backticks", backticksRule},
	{"del", delRule},
	{"ins", insRule},
	{"mark", markRule},
	{"emphasis", emphasisRule},
	{"sub", subRule},
	{"sup", supRule},
	{"links", linksRule},
	{"footnote_inline", footnoteInlineRule},
	{"footnote_ref", footnoteRefRule},
	{"autolink", autolinkRule},
	{"htmltag", htmlTagRule},
	{"entity", entityRule},
}

// NewInlineParser returns an inline parser with all of the built-in rules enabled.
func NewInlineParser() *InlineParser {
	p := &InlineParser{ValidateLink: ValidateLink}
	for _, rule := range inlineRules {
		must(p.Ruler.Register(rule.name, rule.fn))
	}
	return p
}

func (p *InlineParser) validateLink(url string) bool {
	if p.ValidateLink == nil {
		return ValidateLink(url)
	}
	return p.ValidateLink(url)
}

// Parse splits src into inline tokens.
func (p *InlineParser) Parse(src string, options *Options, env *Env) []*Token {
	state := NewInlineState(src, p, options, env)
	p.Tokenize(state)
	return state.Tokens
}

// Tokenize appends tokens for state.Src[state.Pos:state.PosMax] to state.Tokens.
// Bytes that no rule matches are collected into text tokens.
//
// Tokenize panics if a rule reports a match without advancing state.Pos.
func (p *InlineParser) Tokenize(state *InlineState) {
	rules := p.Ruler.Rules("")
	end := state.PosMax
	for state.Pos < end {
		pos := state.Pos
		matched := false
		for _, rule := range rules {
			if rule(state, Commit) {
				matched = true
				break
			}
		}
		if matched {
			if state.Pos <= pos {
				panic(fmt.Sprintf("markup: inline rule matched at %d without consuming input", pos))
			}
			continue
		}
		state.pending = append(state.pending, state.Src[state.Pos])
		state.Pos++
	}
	state.flushPending()
}

// SkipToken advances state.Pos past the construct that starts there
// without appending any tokens, or by one byte if no rule matches.
// The result for each starting position is computed at most once per state.
func (p *InlineParser) SkipToken(state *InlineState) {
	pos := state.Pos
	if end, ok := state.cache[pos]; ok {
		state.Pos = end
		return
	}
	matched := false
	for _, rule := range p.Ruler.Rules("") {
		if rule(state, Validate) {
			matched = true
			break
		}
	}
	if !matched {
		state.Pos++
	} else if state.Pos <= pos {
		panic(fmt.Sprintf("markup: inline rule validated at %d without consuming input", pos))
	}
	state.cacheSet(pos, state.Pos)
}

// InlineState is the state of a single inline-level parse.
type InlineState struct {
	Src     string
	Parser  *InlineParser
	Options *Options
	Env     *Env
	Tokens  []*Token

	// Pos is the scan position and PosMax is the exclusive end of the scan.
	Pos    int
	PosMax int
	// Level is the nesting depth of the next token.
	Level int
	// LinkLevel is the number of links enclosing the scan.
	LinkLevel int

	pending      []byte
	pendingLevel int

	// cache maps a start position to the position SkipToken reached from it.
	cache map[int]int

	isInLabel            bool
	labelUnmatchedScopes int
}

// NewInlineState returns a new state for tokenizing src.
// Nil options or env are replaced with zero values.
func NewInlineState(src string, parser *InlineParser, options *Options, env *Env) *InlineState {
	if options == nil {
		options = new(Options)
	}
	if env == nil {
		env = new(Env)
	}
	return &InlineState{
		Src:     src,
		Parser:  parser,
		Options: options,
		Env:     env,
		PosMax:  len(src),
	}
}

// AppendPending adds text to the pending text run.
func (s *InlineState) AppendPending(text string) {
	s.pending = append(s.pending, text...)
}

// Push appends a token, first flushing any pending text into a text token.
func (s *InlineState) Push(tok *Token) {
	s.flushPending()
	s.Tokens = append(s.Tokens, tok)
	s.pendingLevel = s.Level
}

// flushPending converts the pending text run into a single text token.
func (s *InlineState) flushPending() {
	if len(s.pending) == 0 {
		return
	}
	s.Tokens = append(s.Tokens, &Token{
		Kind:    TextKind,
		Content: string(s.pending),
		Level:   s.pendingLevel,
	})
	s.pending = s.pending[:0]
}

func (s *InlineState) pushOpen(kind TokenKind) *Token {
	tok := &Token{Kind: kind, Level: s.Level}
	s.Level++
	s.Push(tok)
	return tok
}

func (s *InlineState) pushClose(kind TokenKind) {
	s.Level--
	s.Push(&Token{Kind: kind, Level: s.Level})
}

func (s *InlineState) cacheSet(pos, end int) {
	if s.cache == nil {
		s.cache = make(map[int]int)
	}
	if _, ok := s.cache[pos]; !ok {
		s.cache[pos] = end
	}
}

func (s *InlineState) atNestingLimit() bool {
	return s.Level >= s.Options.maxNesting()
}
