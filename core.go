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

import "strings"

// A CoreRule is a pass over the whole token stream of a document.
type CoreRule func(state *CoreState)

// CoreState is the state of a single document parse.
type CoreState struct {
	Src     string
	Options *Options
	Env     *Env
	Tokens  []*Token
	// InlineMode is set when the source is a single run of inline content.
	InlineMode bool

	Block  *BlockParser
	Inline *InlineParser
}

// A CoreParser runs the top-level passes of a parse in order.
type CoreParser struct {
	Ruler Ruler[CoreRule]
}

type namedCoreRule struct {
	name string
	fn   CoreRule
}

var coreRules = []namedCoreRule{
	{"block", blockPass},
	{"abbr", abbrPass},
	{"references", referencesPass},
	{"inline", inlinePass},
	{"footnote_tail", footnoteTail},
	{"abbr2", abbrReplacePass},
	{"replacements", replacementsPass},
	{"smartquotes", smartQuotesPass},
	{"linkify", linkifyPass},
}

// NewCoreParser returns a core parser with all of the built-in passes enabled.
func NewCoreParser() *CoreParser {
	p := new(CoreParser)
	for _, rule := range coreRules {
		must(p.Ruler.Register(rule.name, rule.fn))
	}
	return p
}

// Process runs each enabled pass over state in order.
func (p *CoreParser) Process(state *CoreState) {
	for _, rule := range p.Ruler.Rules("") {
		rule(state)
	}
}

// blockPass splits the source into block tokens.
// In inline mode, the whole source becomes a single inline token.
func blockPass(state *CoreState) {
	if !state.InlineMode {
		state.Tokens = append(state.Tokens, state.Block.Parse(state.Src, state.Options, state.Env)...)
		return
	}
	content := strings.TrimSpace(strings.ReplaceAll(normalizeSource(state.Src), "\n", " "))
	if content == "" {
		return
	}
	state.Tokens = append(state.Tokens, &Token{
		Kind:    InlineKind,
		Content: content,
		Lines:   [2]int{0, 1},
	})
}

// inlinePass parses the content of each inline token into its children.
func inlinePass(state *CoreState) {
	for _, tok := range state.Tokens {
		if tok.Kind == InlineKind {
			tok.Children = state.Inline.Parse(tok.Content, state.Options, state.Env)
		}
	}
}

// paragraphInlines calls f for each inline token
// that is the sole content of a paragraph.
func paragraphInlines(tokens []*Token, f func(open, inline, close *Token)) {
	for i := 1; i+1 < len(tokens); i++ {
		if tokens[i-1].Kind == ParagraphOpenKind &&
			tokens[i].Kind == InlineKind &&
			tokens[i+1].Kind == ParagraphCloseKind {
			f(tokens[i-1], tokens[i], tokens[i+1])
		}
	}
}
