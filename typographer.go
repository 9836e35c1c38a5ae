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
	"regexp"
	"sort"
	"strings"
)

var (
	scopedAbbrRE = regexp.MustCompile(`(?i)\((c|tm|r|p)\)`)
	rareRE       = regexp.MustCompile(`\+-|\.\.|\?\?\?\?|!!!!|,,|--`)

	plusMinusRE     = regexp.MustCompile(`\+-`)
	ellipsisRE      = regexp.MustCompile(`\.{2,}`)
	punctEllipsisRE = regexp.MustCompile(`([?!])…`)
	repeatPunctRE   = regexp.MustCompile(`([?!]){4,}`)
	repeatCommaRE   = regexp.MustCompile(`,{2,}`)
	emDashRE        = regexp.MustCompile(`(?m)(^|[^-])---([^-]|$)`)
	spacedEnDashRE  = regexp.MustCompile(`(?m)(^|\s)--(\s|$)`)
	enDashRE        = regexp.MustCompile(`(?m)(^|[^-\s])--([^-\s]|$)`)
)

var scopedAbbrs = map[string]string{
	"c":  "©",
	"r":  "®",
	"p":  "§",
	"tm": "™",
}

// replacementsPass applies typographic replacements to text tokens,
// such as "(c)" to "©" and "--" to an en dash.
func replacementsPass(state *CoreState) {
	if !state.Options.Typographer {
		return
	}
	Walk(state.Tokens, &WalkOptions{
		Pre: func(c *Cursor) bool {
			if tok := c.Token(); tok.Kind == TextKind {
				tok.Content = replaceTypography(tok.Content)
			}
			return true
		},
	})
}

func replaceTypography(text string) string {
	if strings.Contains(text, "(") {
		text = scopedAbbrRE.ReplaceAllStringFunc(text, func(m string) string {
			return scopedAbbrs[strings.ToLower(m[1:len(m)-1])]
		})
	}
	if !rareRE.MatchString(text) {
		return text
	}
	text = plusMinusRE.ReplaceAllString(text, "±")
	// "?..." and "!..." keep two dots.
	text = ellipsisRE.ReplaceAllString(text, "…")
	text = punctEllipsisRE.ReplaceAllString(text, "$1..")
	text = repeatPunctRE.ReplaceAllString(text, "$1$1$1")
	text = repeatCommaRE.ReplaceAllString(text, ",")
	text = emDashRE.ReplaceAllString(text, "${1}—${2}")
	text = spacedEnDashRE.ReplaceAllString(text, "${1}–${2}")
	text = enDashRE.ReplaceAllString(text, "${1}–${2}")
	return text
}

const apostrophe = "’"

// quoteEdit is a replacement of the quote character
// at byte offset pos of a token's content.
type quoteEdit struct {
	token int
	pos   int
	s     string
}

// openQuote is a quote that may be closed later in the same inline run.
type openQuote struct {
	token  int
	pos    int
	single bool
	level  int
}

// isQuoteLetter reports whether the byte at pos counts as part of a word
// for the purposes of matching quotes.
func isQuoteLetter(text string, pos int) bool {
	if pos < 0 || pos >= len(text) {
		return false
	}
	switch text[pos] {
	case '-', '(', ')', '[', ']', ' ', '\t', '\n', '\v', '\f', '\r':
		return false
	default:
		return true
	}
}

// smartQuotesPass replaces straight quotes in text tokens
// with typographic quotes and apostrophes.
func smartQuotesPass(state *CoreState) {
	if !state.Options.Typographer {
		return
	}
	for _, block := range state.Tokens {
		if block.Kind == InlineKind {
			smartQuotes(block.Children, state.Options)
		}
	}
}

func smartQuotes(tokens []*Token, opts *Options) {
	var stack []openQuote
	var edits []quoteEdit
	for i, tok := range tokens {
		if tok.Kind != TextKind {
			continue
		}
		level := tok.Level
		for len(stack) > 0 && stack[len(stack)-1].level > level {
			stack = stack[:len(stack)-1]
		}

		text := tok.Content
	quotes:
		for pos := 0; pos < len(text); {
			q := strings.IndexAny(text[pos:], `'"`)
			if q < 0 {
				break
			}
			q += pos
			pos = q + 1
			single := text[q] == '\''
			lastSpace := !isQuoteLetter(text, q-1)
			nextSpace := !isQuoteLetter(text, pos)
			if !lastSpace && !nextSpace {
				// Inside a word.
				if single {
					edits = append(edits, quoteEdit{i, q, apostrophe})
				}
				continue
			}

			canOpen, canClose := !nextSpace, !lastSpace
			if canClose {
				for j := len(stack) - 1; j >= 0 && stack[j].level >= level; j-- {
					open := stack[j]
					if open.single != single || open.level != level {
						continue
					}
					openQ, closeQ := opts.quote(0), opts.quote(1)
					if single {
						openQ, closeQ = opts.quote(2), opts.quote(3)
					}
					edits = append(edits,
						quoteEdit{open.token, open.pos, openQ},
						quoteEdit{i, q, closeQ},
					)
					stack = stack[:j]
					continue quotes
				}
			}
			if canOpen {
				stack = append(stack, openQuote{token: i, pos: q, single: single, level: level})
			} else if canClose && single {
				edits = append(edits, quoteEdit{i, q, apostrophe})
			}
		}
	}
	applyQuoteEdits(tokens, edits)
}

// applyQuoteEdits replaces single quote bytes in token contents.
// Edits are applied from the end so that earlier offsets stay valid.
func applyQuoteEdits(tokens []*Token, edits []quoteEdit) {
	sort.Slice(edits, func(i, j int) bool {
		if edits[i].token != edits[j].token {
			return edits[i].token < edits[j].token
		}
		return edits[i].pos > edits[j].pos
	})
	for _, e := range edits {
		tok := tokens[e.token]
		tok.Content = tok.Content[:e.pos] + e.s + tok.Content[e.pos+1:]
	}
}
