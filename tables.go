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
)

var (
	tableAlignRowRE  = regexp.MustCompile(`^[-:| ]+$`)
	tableAlignCellRE = regexp.MustCompile(`^:?-+:?$`)
)

// tableLine returns the text of a line past the container indentation.
func tableLine(state *BlockState, line int) string {
	pos := state.BMarks[line] + state.BlkIndent
	end := state.EMarks[line]
	if pos >= end {
		return ""
	}
	return state.Src[pos:end]
}

// splitTableRow splits a row into cells,
// ignoring one leading and one trailing pipe.
func splitTableRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")
	return strings.Split(row, "|")
}

func tableRule(state *BlockState, startLine, endLine int, mode Mode) bool {
	if startLine+2 > endLine {
		return false
	}
	alignLine := startLine + 1
	if state.TShift[alignLine] < state.BlkIndent {
		return false
	}
	pos := state.lineStart(alignLine)
	if pos >= state.EMarks[alignLine] {
		return false
	}
	if c := state.Src[pos]; c != '|' && c != '-' && c != ':' {
		return false
	}
	lineText := tableLine(state, alignLine)
	if !tableAlignRowRE.MatchString(lineText) {
		return false
	}
	cells := strings.Split(lineText, "|")
	var aligns []string
	for i, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			// Allow empty columns before and after the table, but not between columns.
			if i == 0 || i == len(cells)-1 {
				continue
			}
			return false
		}
		if !tableAlignCellRE.MatchString(cell) {
			return false
		}
		switch {
		case strings.HasSuffix(cell, ":") && strings.HasPrefix(cell, ":"):
			aligns = append(aligns, "center")
		case strings.HasSuffix(cell, ":"):
			aligns = append(aligns, "right")
		case strings.HasPrefix(cell, ":"):
			aligns = append(aligns, "left")
		default:
			aligns = append(aligns, "")
		}
	}

	lineText = strings.TrimSpace(tableLine(state, startLine))
	if !strings.Contains(lineText, "|") {
		return false
	}
	header := splitTableRow(lineText)
	if len(aligns) != len(header) {
		return false
	}
	if mode == Validate {
		return true
	}

	table := state.pushOpen(&Token{Kind: TableOpenKind, Lines: [2]int{startLine, 0}})
	headLines := [2]int{startLine, startLine + 1}
	state.pushOpen(&Token{Kind: TheadOpenKind, Lines: headLines})
	state.pushOpen(&Token{Kind: TROpenKind, Lines: headLines})
	for i, cell := range header {
		state.pushOpen(&Token{Kind: THOpenKind, Align: aligns[i], Lines: headLines})
		state.push(&Token{
			Kind:    InlineKind,
			Content: strings.TrimSpace(cell),
			Lines:   headLines,
			Level:   state.Level,
		})
		state.pushClose(THCloseKind)
	}
	state.pushClose(TRCloseKind)
	state.pushClose(TheadCloseKind)

	body := state.pushOpen(&Token{Kind: TbodyOpenKind, Lines: [2]int{startLine + 2, 0}})
	next := startLine + 2
	for ; next < endLine; next++ {
		if state.TShift[next] < state.BlkIndent {
			break
		}
		lineText = strings.TrimSpace(tableLine(state, next))
		if !strings.Contains(lineText, "|") {
			break
		}
		state.pushOpen(&Token{Kind: TROpenKind})
		for i, cell := range splitTableRow(lineText) {
			tok := &Token{Kind: TDOpenKind}
			if i < len(aligns) {
				tok.Align = aligns[i]
			}
			state.pushOpen(tok)
			state.push(&Token{
				Kind:    InlineKind,
				Content: strings.TrimSpace(cell),
				Level:   state.Level,
			})
			state.pushClose(TDCloseKind)
		}
		state.pushClose(TRCloseKind)
	}
	state.pushClose(TbodyCloseKind)
	state.pushClose(TableCloseKind)

	table.Lines[1] = next
	body.Lines[1] = next
	state.Line = next
	return true
}
