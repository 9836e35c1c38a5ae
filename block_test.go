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
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewBlockState(t *testing.T) {
	state := NewBlockState("a\n  b\n\n", NewBlockParser(), nil, nil)
	if state.LineMax != 3 {
		t.Errorf("LineMax = %d; want 3", state.LineMax)
	}
	if diff := cmp.Diff([]int{0, 2, 6, 7}, state.BMarks); diff != "" {
		t.Errorf("BMarks (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 5, 6, 7}, state.EMarks); diff != "" {
		t.Errorf("EMarks (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2, 0, 0}, state.TShift); diff != "" {
		t.Errorf("TShift (-want +got):\n%s", diff)
	}
	for line, want := range []bool{false, false, true, true} {
		if got := state.IsEmpty(line); got != want {
			t.Errorf("IsEmpty(%d) = %t; want %t", line, got, want)
		}
	}
	if got := state.GetLines(0, 2, 1, false); got != "a\n b" {
		t.Errorf("GetLines(0, 2, 1, false) = %q; want %q", got, "a\n b")
	}
	if got := state.GetLines(1, 2, 4, true); got != "b\n" {
		t.Errorf("GetLines(1, 2, 4, true) = %q; want %q", got, "b\n")
	}
}

func TestBlockTokenizeStopsAtIndent(t *testing.T) {
	state := NewBlockState("a\n  b", NewBlockParser(), nil, nil)
	state.BlkIndent = 2
	state.Parser.Tokenize(state, 0, state.LineMax)
	if len(state.Tokens) != 0 {
		t.Errorf("Tokens = %q; want none", describeTokens(state.Tokens))
	}
	if state.Line != 0 {
		t.Errorf("Line = %d; want 0", state.Line)
	}
}

func TestBlockValidateDoesNotConsume(t *testing.T) {
	const src = "# heading\n" +
		"text\n" +
		"===\n" +
		"> quote\n" +
		"- item\n" +
		"1. item\n" +
		"```\n" +
		"    code\n" +
		"***\n" +
		"[^1]: note\n" +
		"| a | b |\n" +
		"|---|---|\n" +
		"term\n" +
		": definition\n" +
		"<div>\n"
	options := &Options{HTML: true}
	for _, rule := range blockRules {
		state := NewBlockState(src, NewBlockParser(), options, new(Env))
		state.DDIndent = 0
		bMarks := slices.Clone(state.BMarks)
		tShift := slices.Clone(state.TShift)
		for line := 0; line < state.LineMax; line++ {
			state.Line = line
			rule.fn(state, line, state.LineMax, Validate)
			if state.Line != line {
				t.Errorf("%s rule in validate mode on line %d moved Line to %d", rule.name, line, state.Line)
			}
			if len(state.Tokens) != 0 {
				t.Errorf("%s rule in validate mode on line %d appended %q", rule.name, line, describeTokens(state.Tokens))
				state.Tokens = nil
			}
			if state.Level != 0 {
				t.Errorf("%s rule in validate mode on line %d changed Level to %d", rule.name, line, state.Level)
			}
		}
		if !slices.Equal(bMarks, state.BMarks) || !slices.Equal(tShift, state.TShift) {
			t.Errorf("%s rule in validate mode modified line marks", rule.name)
		}
	}
}

func TestBlockInterrupted(t *testing.T) {
	state := NewBlockState("text\n# heading\n- item\nmore", NewBlockParser(), nil, nil)
	tests := []struct {
		chain string
		line  int
		want  bool
	}{
		{"paragraph", 1, true},
		{"paragraph", 2, true},
		{"paragraph", 3, false},
		{"blockquote", 1, true},
		{"list", 1, false},
		{"list", 2, false},
	}
	for _, test := range tests {
		if got := state.interrupted(test.chain, test.line, state.LineMax); got != test.want {
			t.Errorf("interrupted(%q, %d) = %t; want %t", test.chain, test.line, got, test.want)
		}
	}
}

func TestListTightness(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		want  []string
		tight []bool
	}{
		{
			name: "Tight",
			src:  "- a\n- b",
			want: []string{
				"bullet_list_open@0",
				"list_item_open@1",
				"paragraph_open@2",
				"inline@3 \"a\"",
				"\ttext@0 \"a\"",
				"paragraph_close@2",
				"list_item_close@1",
				"list_item_open@1",
				"paragraph_open@2",
				"inline@3 \"b\"",
				"\ttext@0 \"b\"",
				"paragraph_close@2",
				"list_item_close@1",
				"bullet_list_close@0",
			},
			tight: []bool{true, true},
		},
		{
			name: "Loose",
			src:  "- a\n\n- b",
			want: []string{
				"bullet_list_open@0",
				"list_item_open@1",
				"paragraph_open@2",
				"inline@3 \"a\"",
				"\ttext@0 \"a\"",
				"paragraph_close@2",
				"list_item_close@1",
				"list_item_open@1",
				"paragraph_open@2",
				"inline@3 \"b\"",
				"\ttext@0 \"b\"",
				"paragraph_close@2",
				"list_item_close@1",
				"bullet_list_close@0",
			},
			tight: []bool{false, false},
		},
		{
			name: "DoubleBlankEndsList",
			src:  "- a\n\n\n- b",
			want: []string{
				"bullet_list_open@0",
				"list_item_open@1",
				"paragraph_open@2",
				"inline@3 \"a\"",
				"\ttext@0 \"a\"",
				"paragraph_close@2",
				"list_item_close@1",
				"bullet_list_close@0",
				"bullet_list_open@0",
				"list_item_open@1",
				"paragraph_open@2",
				"inline@3 \"b\"",
				"\ttext@0 \"b\"",
				"paragraph_close@2",
				"list_item_close@1",
				"bullet_list_close@0",
			},
			tight: []bool{true, true},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tokens, _ := NewParser(PresetDefault).Parse(test.src)
			if diff := cmp.Diff(test.want, describeTokens(tokens)); diff != "" {
				t.Errorf("tokens (-want +got):\n%s", diff)
			}
			var tight []bool
			for _, tok := range tokens {
				if tok.Kind == ParagraphOpenKind {
					tight = append(tight, tok.Tight)
				}
			}
			if diff := cmp.Diff(test.tight, tight); diff != "" {
				t.Errorf("paragraph tightness (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOrderedListStart(t *testing.T) {
	tokens, _ := NewParser(PresetDefault).Parse("3. a\n4. b\n\n1) c")
	var orders []int
	for _, tok := range tokens {
		if tok.Kind == OrderedListOpenKind {
			orders = append(orders, tok.Order)
		}
	}
	if diff := cmp.Diff([]int{3, 1}, orders); diff != "" {
		t.Errorf("ordered list starts (-want +got):\n%s", diff)
	}
}

func TestBlockNestingLimit(t *testing.T) {
	p := NewParser(PresetDefault)
	p.Options.MaxNesting = 2
	tokens, _ := p.Parse("> > > a")
	want := []string{
		"blockquote_open@0",
		"blockquote_open@1",
		"paragraph_open@2",
		"inline@3 \"> a\"",
		"\ttext@0 \"> a\"",
		"paragraph_close@2",
		"blockquote_close@1",
		"blockquote_close@0",
	}
	if diff := cmp.Diff(want, describeTokens(tokens)); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}

func TestBlockNoRulePanics(t *testing.T) {
	p := NewBlockParser()
	if err := p.Ruler.EnableOnly("hr"); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Error("Parse did not panic")
		}
	}()
	p.Parse("text", nil, nil)
}
