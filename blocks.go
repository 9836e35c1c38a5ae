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

	"golang.org/x/net/html/atom"
)

// lazyContinuation is the TShift value a blockquote assigns
// to the lines that continue its last paragraph without a '>' marker.
const lazyContinuation = -1

func codeRule(state *BlockState, startLine, endLine int, mode Mode) bool {
	if state.TShift[startLine]-state.BlkIndent < 4 {
		return false
	}
	if mode == Validate {
		return true
	}
	last := startLine + 1
	next := last
	for next < endLine {
		if state.IsEmpty(next) {
			next++
			continue
		}
		if state.TShift[next]-state.BlkIndent >= 4 {
			next++
			last = next
			continue
		}
		break
	}
	state.Line = next
	state.push(&Token{
		Kind:    CodeBlockKind,
		Content: state.GetLines(startLine, last, 4+state.BlkIndent, true),
		Lines:   [2]int{startLine, state.Line},
		Level:   state.Level,
	})
	return true
}

func fencesRule(state *BlockState, startLine, endLine int, mode Mode) bool {
	pos := state.lineStart(startLine)
	end := state.EMarks[startLine]
	if pos+3 > end {
		return false
	}
	marker := state.Src[pos]
	if marker != '~' && marker != '`' {
		return false
	}
	markerStart := pos
	pos = state.SkipChars(pos, marker)
	markerLen := pos - markerStart
	if markerLen < 3 {
		return false
	}
	params := strings.TrimSpace(state.Src[pos:end])
	if strings.Contains(params, "`") {
		return false
	}
	if mode == Validate {
		return true
	}

	next := startLine
	haveEndMarker := false
	for {
		next++
		if next >= endLine {
			// Unclosed fences end with the document or the enclosing container.
			break
		}
		pos = state.lineStart(next)
		end = state.EMarks[next]
		if pos < end && state.TShift[next] < state.BlkIndent {
			// A non-empty line with less indentation ends the enclosing list.
			break
		}
		if pos >= len(state.Src) || state.Src[pos] != marker {
			continue
		}
		if state.TShift[next]-state.BlkIndent >= 4 {
			continue
		}
		closeStart := pos
		pos = state.SkipChars(pos, marker)
		if pos-closeStart < markerLen {
			continue
		}
		if state.SkipSpaces(pos) < end {
			continue
		}
		haveEndMarker = true
		break
	}

	state.Line = next
	if haveEndMarker {
		state.Line++
	}
	state.push(&Token{
		Kind:    FenceKind,
		Params:  params,
		Content: state.GetLines(startLine+1, next, state.TShift[startLine], true),
		Lines:   [2]int{startLine, state.Line},
		Level:   state.Level,
	})
	return true
}

func blockquoteRule(state *BlockState, startLine, endLine int, mode Mode) bool {
	pos := state.lineStart(startLine)
	end := state.EMarks[startLine]
	if pos >= end || state.Src[pos] != '>' {
		return false
	}
	if state.Level >= state.Options.maxNesting() {
		return false
	}
	if mode == Validate {
		return true
	}

	// Each quoted line has its marker and one optional space
	// hidden from the nested scan.
	oldBMarks := make([]int, 0, endLine-startLine)
	oldTShift := make([]int, 0, endLine-startLine)
	stripMarker := func(line, pos, end int) (lastLineEmpty bool) {
		pos++
		if pos < len(state.Src) && state.Src[pos] == ' ' {
			pos++
		}
		oldBMarks = append(oldBMarks, state.BMarks[line])
		oldTShift = append(oldTShift, state.TShift[line])
		state.BMarks[line] = pos
		if pos < end {
			pos = state.SkipSpaces(pos)
		}
		state.TShift[line] = pos - state.BMarks[line]
		return pos >= end
	}
	lastLineEmpty := stripMarker(startLine, pos, end)

	next := startLine + 1
	for ; next < endLine; next++ {
		pos = state.lineStart(next)
		end = state.EMarks[next]
		if pos >= end {
			// A blank line outside the quote.
			break
		}
		if state.Src[pos] == '>' {
			lastLineEmpty = stripMarker(next, pos, end)
			continue
		}
		if lastLineEmpty {
			// An unquoted line after an empty quoted line.
			break
		}
		if state.interrupted("blockquote", next, endLine) {
			break
		}
		oldBMarks = append(oldBMarks, state.BMarks[next])
		oldTShift = append(oldTShift, state.TShift[next])
		state.TShift[next] = lazyContinuation
	}

	open := state.push(&Token{
		Kind:  BlockquoteOpenKind,
		Lines: [2]int{startLine, 0},
		Level: state.Level,
	})
	state.Level++
	state.Nest(ParentBlockquote, 0, startLine, next)
	state.Level--
	state.push(&Token{Kind: BlockquoteCloseKind, Level: state.Level})
	open.Lines[1] = state.Line

	for i := range oldTShift {
		state.BMarks[startLine+i] = oldBMarks[i]
		state.TShift[startLine+i] = oldTShift[i]
	}
	return true
}

func hrRule(state *BlockState, startLine, endLine int, mode Mode) bool {
	pos := state.lineStart(startLine)
	end := state.EMarks[startLine]
	if pos >= end {
		return false
	}
	marker := state.Src[pos]
	if marker != '*' && marker != '-' && marker != '_' {
		return false
	}
	count := 1
	for pos++; pos < end; pos++ {
		switch state.Src[pos] {
		case marker:
			count++
		case ' ':
		default:
			return false
		}
	}
	if count < 3 {
		return false
	}
	if mode == Validate {
		return true
	}
	state.Line = startLine + 1
	state.push(&Token{
		Kind:  HRKind,
		Lines: [2]int{startLine, state.Line},
		Level: state.Level,
	})
	return true
}

func headingRule(state *BlockState, startLine, endLine int, mode Mode) bool {
	pos := state.lineStart(startLine)
	end := state.EMarks[startLine]
	if pos >= end || state.Src[pos] != '#' {
		return false
	}
	level := 1
	for pos++; pos < end && state.Src[pos] == '#' && level <= 6; pos++ {
		level++
	}
	if level > 6 || (pos < end && state.Src[pos] != ' ') {
		return false
	}
	if mode == Validate {
		return true
	}

	// Drop a closing sequence like "  ###  ".
	end = state.SkipCharsBack(end, ' ', pos)
	if tmp := state.SkipCharsBack(end, '#', pos); tmp > pos && state.Src[tmp-1] == ' ' {
		end = tmp
	}

	state.Line = startLine + 1
	lines := [2]int{startLine, state.Line}
	state.push(&Token{Kind: HeadingOpenKind, HLevel: level, Lines: lines, Level: state.Level})
	if pos < end {
		state.push(&Token{
			Kind:    InlineKind,
			Content: strings.TrimSpace(state.Src[pos:end]),
			Lines:   lines,
			Level:   state.Level + 1,
		})
	}
	state.push(&Token{Kind: HeadingCloseKind, HLevel: level, Level: state.Level})
	return true
}

func lheadingRule(state *BlockState, startLine, endLine int, mode Mode) bool {
	next := startLine + 1
	if next >= endLine {
		return false
	}
	if state.TShift[next] < state.BlkIndent || state.TShift[next]-state.BlkIndent > 3 {
		return false
	}
	pos := state.lineStart(next)
	end := state.EMarks[next]
	if pos >= end {
		return false
	}
	marker := state.Src[pos]
	if marker != '-' && marker != '=' {
		return false
	}
	pos = state.SkipChars(pos, marker)
	if state.SkipSpaces(pos) < end {
		return false
	}
	if mode == Validate {
		return true
	}

	level := 2
	if marker == '=' {
		level = 1
	}
	state.Line = next + 1
	state.push(&Token{
		Kind:   HeadingOpenKind,
		HLevel: level,
		Lines:  [2]int{startLine, state.Line},
		Level:  state.Level,
	})
	state.push(&Token{
		Kind:    InlineKind,
		Content: strings.TrimSpace(state.Src[state.lineStart(startLine):state.EMarks[startLine]]),
		Lines:   [2]int{startLine, next},
		Level:   state.Level + 1,
	})
	state.push(&Token{Kind: HeadingCloseKind, HLevel: level, Level: state.Level})
	return true
}

var (
	htmlBlockOpenRE  = regexp.MustCompile(`^<([a-zA-Z]{1,15})[\s/>]`)
	htmlBlockCloseRE = regexp.MustCompile(`^</([a-zA-Z]{1,15})[\s>]`)
)

// htmlBlockTags is the set of elements that can start an HTML block.
var htmlBlockTags = map[atom.Atom]struct{}{
	atom.Article:    {},
	atom.Aside:      {},
	atom.Blockquote: {},
	atom.Body:       {},
	atom.Button:     {},
	atom.Canvas:     {},
	atom.Caption:    {},
	atom.Col:        {},
	atom.Colgroup:   {},
	atom.Dd:         {},
	atom.Div:        {},
	atom.Dl:         {},
	atom.Dt:         {},
	atom.Embed:      {},
	atom.Fieldset:   {},
	atom.Figcaption: {},
	atom.Figure:     {},
	atom.Footer:     {},
	atom.Form:       {},
	atom.H1:         {},
	atom.H2:         {},
	atom.H3:         {},
	atom.H4:         {},
	atom.H5:         {},
	atom.H6:         {},
	atom.Header:     {},
	atom.Hgroup:     {},
	atom.Hr:         {},
	atom.Iframe:     {},
	atom.Li:         {},
	atom.Map:        {},
	atom.Object:     {},
	atom.Ol:         {},
	atom.Output:     {},
	atom.P:          {},
	atom.Pre:        {},
	atom.Progress:   {},
	atom.Script:     {},
	atom.Section:    {},
	atom.Style:      {},
	atom.Table:      {},
	atom.Tbody:      {},
	atom.Td:         {},
	atom.Textarea:   {},
	atom.Tfoot:      {},
	atom.Th:         {},
	atom.Thead:      {},
	atom.Tr:         {},
	atom.Ul:         {},
	atom.Video:      {},
}

func isHTMLBlockTag(name string) bool {
	_, ok := htmlBlockTags[atom.Lookup([]byte(strings.ToLower(name)))]
	return ok
}

func htmlBlockRule(state *BlockState, startLine, endLine int, mode Mode) bool {
	if !state.Options.HTML {
		return false
	}
	shift := state.TShift[startLine]
	pos := state.lineStart(startLine)
	end := state.EMarks[startLine]
	if shift > 3 || pos+2 >= end || state.Src[pos] != '<' {
		return false
	}
	switch c := state.Src[pos+1]; {
	case c == '!' || c == '?':
		// Comment, declaration, or processing instruction.
	case c == '/':
		m := htmlBlockCloseRE.FindStringSubmatch(state.Src[pos:end])
		if m == nil || !isHTMLBlockTag(m[1]) {
			return false
		}
	case isASCIILetter(c):
		m := htmlBlockOpenRE.FindStringSubmatch(state.Src[pos:end])
		if m == nil || !isHTMLBlockTag(m[1]) {
			return false
		}
	default:
		return false
	}
	if mode == Validate {
		return true
	}

	// The block runs until the next blank line.
	next := startLine + 1
	for next < state.LineMax && !state.IsEmpty(next) {
		next++
	}
	state.Line = next
	state.push(&Token{
		Kind:    HTMLBlockKind,
		Content: state.GetLines(startLine, next, 0, true),
		Lines:   [2]int{startLine, state.Line},
		Level:   state.Level,
	})
	return true
}

func paragraphRule(state *BlockState, startLine, _ int, mode Mode) bool {
	if mode == Validate {
		return true
	}
	// Paragraphs absorb lazy continuation lines past the container's end.
	endLine := state.LineMax
	next := startLine + 1
	for ; next < endLine && !state.IsEmpty(next); next++ {
		if state.TShift[next] < 0 {
			continue
		}
		// Indented lines continue a paragraph instead of starting code.
		if state.TShift[next]-state.BlkIndent > 3 {
			continue
		}
		if state.interrupted("paragraph", next, endLine) {
			break
		}
	}
	content := strings.TrimSpace(state.GetLines(startLine, next, state.BlkIndent, false))
	state.Line = next
	if content == "" {
		return true
	}
	lines := [2]int{startLine, state.Line}
	state.push(&Token{Kind: ParagraphOpenKind, Lines: lines, Level: state.Level})
	state.push(&Token{Kind: InlineKind, Content: content, Lines: lines, Level: state.Level + 1})
	state.push(&Token{Kind: ParagraphCloseKind, Level: state.Level})
	return true
}

func isASCIILetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isASCIIDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
