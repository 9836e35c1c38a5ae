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
	"slices"
	"strings"
	"unicode/utf8"
)

// abbrPass removes abbreviation definitions like "*[HTML]: Hyper Text"
// from the start of paragraphs and records them in the environment.
// A paragraph left empty is marked tight so that it renders as nothing.
func abbrPass(state *CoreState) {
	if state.InlineMode {
		return
	}
	paragraphInlines(state.Tokens, func(open, inline, close *Token) {
		content := inline.Content
		for content != "" {
			pos := parseAbbr(content, state.Inline, state.Options, state.Env)
			if pos < 0 {
				break
			}
			content = strings.TrimSpace(content[pos:])
		}
		inline.Content = content
		if content == "" {
			open.Tight = true
			close.Tight = true
		}
	})
}

// parseAbbr parses an abbreviation definition at the start of s.
// It returns the position just past the definition or -1.
func parseAbbr(s string, parser *InlineParser, options *Options, env *Env) int {
	if !strings.HasPrefix(s, "*[") || !strings.Contains(s, "]:") {
		return -1
	}
	state := NewInlineState(s, parser, options, env)
	labelEnd := parseLinkLabel(state, 1)
	if labelEnd < 0 || labelEnd+1 >= len(s) || s[labelEnd+1] != ':' {
		return -1
	}
	// Titles are a single line.
	pos := labelEnd + 2
	if i := strings.IndexByte(s[pos:], '\n'); i >= 0 {
		pos += i
	} else {
		pos = len(s)
	}
	label := s[2:labelEnd]
	title := strings.TrimSpace(s[labelEnd+2 : pos])
	if label == "" || title == "" {
		return -1
	}
	if env.Abbreviations == nil {
		env.Abbreviations = make(map[string]string)
	}
	if _, exists := env.Abbreviations[label]; !exists {
		env.Abbreviations[label] = title
	}
	return pos
}

// isAbbrBoundary reports whether c may appear next to an abbreviation.
func isAbbrBoundary(c byte) bool {
	return strings.IndexByte(" \n()[]'\".,!?-", c) >= 0
}

// abbrPattern returns a pattern that matches any of the given abbreviations,
// preferring longer ones.
func abbrPattern(abbrs map[string]string) *regexp.Regexp {
	labels := make([]string, 0, len(abbrs))
	for label := range abbrs {
		labels = append(labels, label)
	}
	slices.SortFunc(labels, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	for i, label := range labels {
		labels[i] = regexp.QuoteMeta(label)
	}
	return regexp.MustCompile(strings.Join(labels, "|"))
}

// abbrReplacePass wraps occurrences of defined abbreviations in text tokens
// with abbreviation tokens.
func abbrReplacePass(state *CoreState) {
	if len(state.Env.Abbreviations) == 0 {
		return
	}
	pattern := abbrPattern(state.Env.Abbreviations)
	for _, block := range state.Tokens {
		if block.Kind != InlineKind {
			continue
		}
		var children []*Token
		changed := false
		for _, tok := range block.Children {
			if tok.Kind != TextKind {
				children = append(children, tok)
				continue
			}
			nodes := splitAbbrs(tok, pattern, state.Env.Abbreviations)
			if nodes == nil {
				children = append(children, tok)
				continue
			}
			children = append(children, nodes...)
			changed = true
		}
		if changed {
			block.Children = children
		}
	}
}

// splitAbbrs splits a text token around the abbreviations it contains.
// It returns nil if the text contains no abbreviations.
func splitAbbrs(tok *Token, pattern *regexp.Regexp, abbrs map[string]string) []*Token {
	text := tok.Content
	level := tok.Level
	var nodes []*Token
	last := 0
	for pos := 0; pos < len(text); {
		loc := pattern.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if (start > 0 && !isAbbrBoundary(text[start-1])) ||
			(end < len(text) && !isAbbrBoundary(text[end])) {
			_, size := utf8.DecodeRuneInString(text[start:])
			pos = start + size
			continue
		}
		if start > last {
			nodes = append(nodes, &Token{Kind: TextKind, Content: text[last:start], Level: level})
		}
		label := text[start:end]
		nodes = append(nodes,
			&Token{Kind: AbbrOpenKind, Title: abbrs[label], Level: level},
			&Token{Kind: TextKind, Content: label, Level: level + 1},
			&Token{Kind: AbbrCloseKind, Level: level},
		)
		last = end
		pos = end
	}
	if nodes == nil {
		return nil
	}
	if last < len(text) {
		nodes = append(nodes, &Token{Kind: TextKind, Content: text[last:], Level: level})
	}
	return nodes
}
