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
	"strings"
	"sync"

	"mvdan.cc/xurls/v2"
)

var linkScanRE = regexp.MustCompile(`www|@|://`)

// relaxedURLs matches URLs with or without a scheme and bare e-mail addresses.
var relaxedURLs = sync.OnceValue(xurls.Relaxed)

var (
	htmlLinkOpenRE  = regexp.MustCompile(`(?i)^<a[>\s]`)
	htmlLinkCloseRE = regexp.MustCompile(`(?i)^</a\s*>`)
)

// linkifyPass converts URLs and e-mail addresses in text tokens into links.
// Text inside existing links is left alone.
func linkifyPass(state *CoreState) {
	if !state.Options.Linkify {
		return
	}
	for _, block := range state.Tokens {
		if block.Kind == InlineKind {
			block.Children = linkify(block.Children, state.Inline)
		}
	}
}

func linkify(tokens []*Token, parser *InlineParser) []*Token {
	var out []*Token
	linkDepth := 0
	htmlLinkDepth := 0
	for _, tok := range tokens {
		switch tok.Kind {
		case LinkOpenKind:
			linkDepth++
		case LinkCloseKind:
			linkDepth--
		case HTMLTagKind:
			if htmlLinkOpenRE.MatchString(tok.Content) {
				htmlLinkDepth++
			} else if htmlLinkCloseRE.MatchString(tok.Content) && htmlLinkDepth > 0 {
				htmlLinkDepth--
			}
		case TextKind:
			if linkDepth == 0 && htmlLinkDepth == 0 && linkScanRE.MatchString(tok.Content) {
				out = append(out, linkifyText(tok, parser)...)
				continue
			}
		}
		out = append(out, tok)
	}
	return out
}

// linkifyText splits a text token around the links it contains.
func linkifyText(tok *Token, parser *InlineParser) []*Token {
	text := tok.Content
	level := tok.Level
	var nodes []*Token
	last := 0
	for _, loc := range relaxedURLs().FindAllStringIndex(text, -1) {
		match := text[loc[0]:loc[1]]
		href := normalizeLink(linkifyHref(match))
		if !parser.validateLink(href) {
			continue
		}
		if loc[0] > last {
			nodes = append(nodes, &Token{Kind: TextKind, Content: text[last:loc[0]], Level: level})
		}
		nodes = append(nodes,
			&Token{Kind: LinkOpenKind, Href: href, Level: level},
			&Token{Kind: TextKind, Content: match, Level: level + 1},
			&Token{Kind: LinkCloseKind, Level: level},
		)
		last = loc[1]
	}
	if nodes == nil {
		return []*Token{tok}
	}
	if last < len(text) {
		nodes = append(nodes, &Token{Kind: TextKind, Content: text[last:], Level: level})
	}
	return nodes
}

// linkifyHref returns the destination for a detected URL or e-mail address.
func linkifyHref(match string) string {
	if scheme, _, ok := strings.Cut(match, ":"); ok && isURLScheme(scheme) {
		return match
	}
	switch {
	case strings.Contains(match, "://"):
		return match
	case strings.Contains(match, "@"):
		return "mailto:" + match
	default:
		return "http://" + match
	}
}
