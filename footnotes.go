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

// footnoteRule matches a footnote definition like "[^label]: text".
// The definition's blocks are collected into footnote reference tokens
// that the footnote tail pass moves to the end of the document.
func footnoteRule(state *BlockState, startLine, endLine int, mode Mode) bool {
	start := state.lineStart(startLine)
	end := state.EMarks[startLine]
	if start+4 > end || state.Src[start] != '[' || state.Src[start+1] != '^' {
		return false
	}
	if state.Level >= state.Options.maxNesting() {
		return false
	}
	pos := start + 2
	for ; pos < end; pos++ {
		if state.Src[pos] == ' ' {
			return false
		}
		if state.Src[pos] == ']' {
			break
		}
	}
	if pos == start+2 || pos+1 >= end || state.Src[pos+1] != ':' {
		return false
	}
	if mode == Validate {
		return true
	}
	label := state.Src[start+2 : pos]
	pos += 2

	fn := &state.Env.Footnotes
	if fn.Refs == nil {
		fn.Refs = make(map[string]int)
	}
	fn.Refs[label] = -1

	open := state.pushOpen(&Token{
		Kind:  FootnoteReferenceOpenKind,
		Label: label,
		Lines: [2]int{startLine, 0},
	})

	// The first line's content starts after the label.
	// Its marks are shifted so the line stays inside the footnote's indent.
	oldBMark, oldTShift := state.BMarks[startLine], state.TShift[startLine]
	blkIndent := state.BlkIndent + 4
	state.TShift[startLine] = state.SkipSpaces(pos) - pos
	state.BMarks[startLine] = pos
	if state.TShift[startLine] < blkIndent {
		state.TShift[startLine] += blkIndent
		state.BMarks[startLine] -= blkIndent
	}
	state.Nest(ParentFootnote, blkIndent, startLine, endLine)
	state.BMarks[startLine], state.TShift[startLine] = oldBMark, oldTShift

	state.pushClose(FootnoteReferenceCloseKind)
	open.Lines[1] = state.Line
	return true
}

// footnoteInlineRule matches an inline footnote like "^[text]".
func footnoteInlineRule(state *InlineState, mode Mode) bool {
	start := state.Pos
	end := state.PosMax
	if start+2 >= end || state.Src[start] != '^' || state.Src[start+1] != '[' {
		return false
	}
	if state.atNestingLimit() {
		return false
	}
	labelStart := start + 2
	labelEnd := parseLinkLabel(state, start+1)
	if labelEnd < 0 {
		return false
	}

	if mode == Commit {
		fn := &state.Env.Footnotes
		id := len(fn.List)
		footnote := new(Footnote)
		fn.List = append(fn.List, footnote)
		state.Push(&Token{Kind: FootnoteRefKind, ID: id, Level: state.Level})

		// The footnote's content goes into its own token list.
		outer := state.Tokens
		state.Tokens = nil
		state.Pos = labelStart
		state.PosMax = labelEnd
		state.LinkLevel++
		state.Parser.Tokenize(state)
		state.LinkLevel--
		footnote.Tokens = state.Tokens
		state.Tokens = outer
	}
	state.Pos = labelEnd + 1
	state.PosMax = end
	return true
}

// footnoteRefRule matches a reference to a defined footnote like "[^label]".
func footnoteRefRule(state *InlineState, mode Mode) bool {
	start := state.Pos
	end := state.PosMax
	fn := &state.Env.Footnotes
	if start+3 > end || fn.Refs == nil {
		return false
	}
	if state.Src[start] != '[' || state.Src[start+1] != '^' {
		return false
	}
	if state.atNestingLimit() {
		return false
	}
	pos := start + 2
	for ; pos < end; pos++ {
		c := state.Src[pos]
		if c == ' ' || c == '\n' {
			return false
		}
		if c == ']' {
			break
		}
	}
	if pos == start+2 || pos >= end {
		return false
	}
	label := state.Src[start+2 : pos]
	id, defined := fn.Refs[label]
	if !defined {
		return false
	}

	if mode == Commit {
		if id < 0 {
			id = len(fn.List)
			fn.List = append(fn.List, &Footnote{Label: label})
			fn.Refs[label] = id
		}
		footnote := fn.List[id]
		state.Push(&Token{
			Kind:  FootnoteRefKind,
			ID:    id,
			SubID: footnote.Count,
			Level: state.Level,
		})
		footnote.Count++
	}
	state.Pos = pos + 1
	return true
}

// footnoteTail moves footnote definitions to a footnote block
// at the end of the document, in order of first reference.
// Definitions that are never referenced are dropped.
func footnoteTail(state *CoreState) {
	fn := &state.Env.Footnotes
	if fn.Refs == nil && len(fn.List) == 0 {
		return
	}

	defs := make(map[string][]*Token)
	var current []*Token
	currentLabel := ""
	insideRef := false
	kept := state.Tokens[:0]
	for _, tok := range state.Tokens {
		switch {
		case tok.Kind == FootnoteReferenceOpenKind:
			insideRef = true
			current = nil
			currentLabel = tok.Label
		case tok.Kind == FootnoteReferenceCloseKind:
			insideRef = false
			if _, exists := defs[currentLabel]; !exists {
				defs[currentLabel] = current
			}
		case insideRef:
			current = append(current, tok)
		default:
			kept = append(kept, tok)
		}
	}
	state.Tokens = kept
	if len(fn.List) == 0 {
		return
	}

	level := 0
	push := func(tok *Token) {
		state.Tokens = append(state.Tokens, tok)
	}
	push(&Token{Kind: FootnoteBlockOpenKind, Level: level})
	level++
	for id, footnote := range fn.List {
		push(&Token{Kind: FootnoteOpenKind, ID: id, Level: level})
		level++

		var body []*Token
		if footnote.Label == "" {
			body = []*Token{
				{Kind: ParagraphOpenKind, Level: level},
				{Kind: InlineKind, Level: level + 1, Children: footnote.Tokens},
				{Kind: ParagraphCloseKind, Level: level},
			}
		} else {
			body = defs[footnote.Label]
		}
		// Back-references go inside the last paragraph.
		var lastParagraph *Token
		if n := len(body); n > 0 && body[n-1].Kind == ParagraphCloseKind {
			lastParagraph = body[n-1]
			body = body[:n-1]
		}
		state.Tokens = append(state.Tokens, body...)
		for sub := 0; sub < max(footnote.Count, 1); sub++ {
			push(&Token{Kind: FootnoteAnchorKind, ID: id, SubID: sub, Level: level})
		}
		if lastParagraph != nil {
			push(lastParagraph)
		}

		level--
		push(&Token{Kind: FootnoteCloseKind, Level: level})
	}
	level--
	push(&Token{Kind: FootnoteBlockCloseKind, Level: level})
}
