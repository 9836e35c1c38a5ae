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
	"strconv"
	"strings"
)

// skipBulletListMarker returns the offset just past a bullet list marker
// at the start of the line, or -1 if the line does not start with one.
func skipBulletListMarker(state *BlockState, line int) int {
	pos := state.lineStart(line)
	end := state.EMarks[line]
	if pos >= end {
		return -1
	}
	switch state.Src[pos] {
	case '*', '-', '+':
	default:
		return -1
	}
	pos++
	if pos < end && state.Src[pos] != ' ' {
		return -1
	}
	return pos
}

// skipOrderedListMarker returns the offset just past an ordered list marker
// like "1." or "1)" at the start of the line, or -1 if there is none.
func skipOrderedListMarker(state *BlockState, line int) int {
	pos := state.lineStart(line)
	end := state.EMarks[line]
	if pos+1 >= end || !isASCIIDigit(state.Src[pos]) {
		return -1
	}
	for pos++; ; pos++ {
		if pos >= end {
			return -1
		}
		c := state.Src[pos]
		if isASCIIDigit(c) {
			continue
		}
		if c == ')' || c == '.' {
			pos++
			break
		}
		return -1
	}
	if pos < end && state.Src[pos] != ' ' {
		return -1
	}
	return pos
}

// markTightParagraphs hides the paragraph tags of the items
// of the list opened at tokens[openIndex].
func markTightParagraphs(state *BlockState, openIndex int) {
	level := state.Level + 2
	for i := openIndex + 2; i < len(state.Tokens)-2; i++ {
		if tok := state.Tokens[i]; tok.Level == level && tok.Kind == ParagraphOpenKind {
			tok.Tight = true
			state.Tokens[i+2].Tight = true
			i += 2
		}
	}
}

func listRule(state *BlockState, startLine, endLine int, mode Mode) bool {
	isOrdered := true
	posAfterMarker := skipOrderedListMarker(state, startLine)
	if posAfterMarker < 0 {
		isOrdered = false
		posAfterMarker = skipBulletListMarker(state, startLine)
		if posAfterMarker < 0 {
			return false
		}
	}
	if state.Level >= state.Options.maxNesting() {
		return false
	}
	// A different marker character starts a new list.
	markerChar := state.Src[posAfterMarker-1]
	if mode == Validate {
		return true
	}

	openIndex := len(state.Tokens)
	open := &Token{
		Kind:  BulletListOpenKind,
		Lines: [2]int{startLine, 0},
		Level: state.Level,
	}
	closeKind := BulletListCloseKind
	if isOrdered {
		open.Kind = OrderedListOpenKind
		closeKind = OrderedListCloseKind
		start := state.lineStart(startLine)
		open.Order, _ = strconv.Atoi(state.Src[start : posAfterMarker-1])
	}
	state.push(open)
	state.Level++

	tight := true
	prevEmptyEnd := false
	next := startLine
	for next < endLine {
		contentStart := state.SkipSpaces(posAfterMarker)
		indentAfterMarker := contentStart - posAfterMarker
		if contentStart >= state.EMarks[next] {
			// "-    \n  3": an empty first line.
			indentAfterMarker = 1
		}
		if indentAfterMarker > 4 {
			// The rest is an indented code block.
			indentAfterMarker = 1
		}
		if indentAfterMarker < 1 {
			indentAfterMarker = 1
		}
		indent := posAfterMarker - state.BMarks[next] + indentAfterMarker

		item := state.push(&Token{
			Kind:  ListItemOpenKind,
			Lines: [2]int{startLine, 0},
			Level: state.Level,
		})
		state.Level++
		oldTShift := state.TShift[startLine]
		state.TShift[startLine] = contentStart - state.BMarks[startLine]
		itemTight := state.Nest(ParentList, indent, startLine, endLine)
		state.TShift[startLine] = oldTShift
		if !itemTight || prevEmptyEnd {
			tight = false
		}
		// An item that ends with a blank line makes the list loose,
		// unless it is the last item.
		prevEmptyEnd = state.Line-startLine > 1 && state.IsEmpty(state.Line-1)
		state.Level--
		state.push(&Token{Kind: ListItemCloseKind, Level: state.Level})

		next = state.Line
		startLine = next
		item.Lines[1] = next
		if next >= endLine || state.IsEmpty(next) {
			break
		}
		if state.TShift[next] < state.BlkIndent {
			break
		}
		if state.interrupted("list", next, endLine) {
			break
		}
		if isOrdered {
			posAfterMarker = skipOrderedListMarker(state, next)
		} else {
			posAfterMarker = skipBulletListMarker(state, next)
		}
		if posAfterMarker < 0 || state.Src[posAfterMarker-1] != markerChar {
			break
		}
	}

	state.Level--
	state.push(&Token{Kind: closeKind, Level: state.Level})
	open.Lines[1] = next
	state.Line = next
	if tight {
		open.Tight = true
		markTightParagraphs(state, openIndex)
	}
	return true
}

// skipDeflistMarker returns the offset of the content
// after a ':' or '~' definition marker, or -1 if there is none.
func skipDeflistMarker(state *BlockState, line int) int {
	start := state.lineStart(line)
	end := state.EMarks[line]
	if start >= end {
		return -1
	}
	if c := state.Src[start]; c != '~' && c != ':' {
		return -1
	}
	start++
	pos := state.SkipSpaces(start)
	if pos == start || pos >= end {
		// Require a space after the marker and forbid empty definitions.
		return -1
	}
	return pos
}

func deflistRule(state *BlockState, startLine, endLine int, mode Mode) bool {
	if mode == Validate {
		// Only a definition body can interrupt a paragraph,
		// and only inside a definition list.
		return state.DDIndent >= 0 && skipDeflistMarker(state, startLine) >= 0
	}

	next := startLine + 1
	if next < endLine && state.IsEmpty(next) {
		next++
	}
	if next >= endLine || state.TShift[next] < state.BlkIndent {
		return false
	}
	contentStart := skipDeflistMarker(state, next)
	if contentStart < 0 {
		return false
	}
	if state.Level >= state.Options.maxNesting() {
		return false
	}

	openIndex := len(state.Tokens)
	open := state.push(&Token{
		Kind:  DLOpenKind,
		Lines: [2]int{startLine, 0},
		Level: state.Level,
	})
	state.Level++

	tight := true
	dtLine := startLine
	ddLine := next
items:
	for {
		tight = true
		prevEmptyEnd := false

		state.push(&Token{Kind: DTOpenKind, Lines: [2]int{dtLine, dtLine}, Level: state.Level})
		state.push(&Token{
			Kind:    InlineKind,
			Content: strings.TrimSpace(state.GetLines(dtLine, dtLine+1, state.BlkIndent, false)),
			Lines:   [2]int{dtLine, dtLine},
			Level:   state.Level + 2,
		})
		state.push(&Token{Kind: DTCloseKind, Level: state.Level})

		for {
			item := state.push(&Token{
				Kind:  DDOpenKind,
				Lines: [2]int{next, 0},
				Level: state.Level,
			})
			state.Level++
			oldDDIndent := state.DDIndent
			oldTShift := state.TShift[ddLine]
			indent := state.TShift[ddLine] + 2
			state.DDIndent = indent
			state.TShift[ddLine] = contentStart - state.BMarks[ddLine]
			itemTight := state.Nest(ParentDeflist, indent, ddLine, endLine)
			if !itemTight || prevEmptyEnd {
				tight = false
			}
			prevEmptyEnd = state.Line-ddLine > 1 && state.IsEmpty(state.Line-1)
			state.TShift[ddLine] = oldTShift
			state.DDIndent = oldDDIndent
			state.Level--
			state.push(&Token{Kind: DDCloseKind, Level: state.Level})

			next = state.Line
			item.Lines[1] = next
			if next >= endLine || state.TShift[next] < state.BlkIndent {
				break items
			}
			contentStart = skipDeflistMarker(state, next)
			if contentStart < 0 {
				break
			}
			ddLine = next
		}

		if next >= endLine {
			break
		}
		dtLine = next
		if state.IsEmpty(dtLine) || state.TShift[dtLine] < state.BlkIndent {
			break
		}
		ddLine = dtLine + 1
		if ddLine >= endLine {
			break
		}
		if state.IsEmpty(ddLine) {
			ddLine++
		}
		if ddLine >= endLine || state.TShift[ddLine] < state.BlkIndent {
			break
		}
		contentStart = skipDeflistMarker(state, ddLine)
		if contentStart < 0 {
			break
		}
		next = ddLine
	}

	state.Level--
	state.push(&Token{Kind: DLCloseKind, Level: state.Level})
	open.Lines[1] = next
	state.Line = next
	if tight {
		open.Tight = true
		markTightParagraphs(state, openIndex)
	}
	return true
}
