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

// LinkDefinition is the data of a link reference definition
// like `[label]: /url "title"`.
type LinkDefinition struct {
	Href  string
	Title string
}

// ReferenceMap is a mapping of normalized labels to link definitions.
type ReferenceMap map[string]LinkDefinition

// MatchReference reports whether the label appears in the map.
// The label is normalized before lookup.
func (m ReferenceMap) MatchReference(label string) bool {
	_, ok := m[normalizeReference(label)]
	return ok
}

// add records a definition unless the label is already defined.
func (m ReferenceMap) add(label string, def LinkDefinition) {
	if _, exists := m[label]; !exists {
		m[label] = def
	}
}

// referencesPass removes link reference definitions
// from the start of paragraphs and records them in the environment.
// A paragraph left empty is marked tight so that it renders as nothing.
func referencesPass(state *CoreState) {
	if state.InlineMode {
		return
	}
	if state.Env.References == nil {
		state.Env.References = make(ReferenceMap)
	}
	paragraphInlines(state.Tokens, func(open, inline, close *Token) {
		content := inline.Content
		for content != "" {
			pos := parseReference(content, state.Inline, state.Options, state.Env)
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

// parseReference parses a link reference definition at the start of s
// and adds it to env.References.
// It returns the position just past the definition or -1.
func parseReference(s string, parser *InlineParser, options *Options, env *Env) int {
	if !strings.HasPrefix(s, "[") || !strings.Contains(s, "]:") {
		return -1
	}
	state := NewInlineState(s, parser, options, env)
	labelEnd := parseLinkLabel(state, 0)
	if labelEnd < 0 || labelEnd+1 >= len(s) || s[labelEnd+1] != ':' {
		return -1
	}

	end := state.PosMax
	pos := skipLinkSpace(s, labelEnd+2, end)
	href, pos, ok := parseLinkDestination(state, pos)
	if !ok {
		return -1
	}

	// The title must be separated from the destination by whitespace.
	title := ""
	afterDest := pos
	pos = skipLinkSpace(s, pos, end)
	if t, titleEnd, ok := parseLinkTitle(state, pos); pos > afterDest && ok {
		title = t
		pos = titleEnd
	} else {
		pos = afterDest
	}

	// Nothing else may follow on the line.
	for pos < end && s[pos] == ' ' {
		pos++
	}
	if pos < end && s[pos] != '\n' {
		return -1
	}

	env.References.add(normalizeReference(s[1:labelEnd]), LinkDefinition{
		Href:  href,
		Title: title,
	})
	return pos
}
