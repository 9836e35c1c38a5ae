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
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// describeTokens returns a compact description of a token stream
// for comparison in tests.
// Inline tokens are followed by their children, indented by one tab.
func describeTokens(tokens []*Token) []string {
	var lines []string
	var add func(prefix string, tokens []*Token)
	add = func(prefix string, tokens []*Token) {
		for _, tok := range tokens {
			line := fmt.Sprintf("%s%v@%d", prefix, tok.Kind, tok.Level)
			if tok.Content != "" {
				line += fmt.Sprintf(" %q", tok.Content)
			}
			lines = append(lines, line)
			if tok.Kind == InlineKind {
				add(prefix+"\t", tok.Children)
			}
		}
	}
	add("", tokens)
	return lines
}

func TestNormalizeSource(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"", ""},
		{"abc", "abc"},
		{"a\tb", "a   b"},
		{"\tx", "    x"},
		{"abcd\tx", "abcd    x"},
		{"a\n\tb", "a\n    b"},
		{"é\tx", "é   x"},
		{"ab\r\ncd\ref", "ab\ncd\nef"},
		{"a\u2028b\u2029c\u0085d", "a\nb\nc\nd"},
		{"a\u2424b", "a\nb"},
		{"a\u00a0b", "a b"},
		{"a\x00b", "a\ufffdb"},
	}
	for _, test := range tests {
		if got := normalizeSource(test.src); got != test.want {
			t.Errorf("normalizeSource(%q) = %q; want %q", test.src, got, test.want)
		}
	}
}

func TestPresets(t *testing.T) {
	tests := []struct {
		preset Preset
		html   bool
		block  map[string]bool
		inline map[string]bool
		core   map[string]bool
	}{
		{
			preset: PresetDefault,
			block:  map[string]bool{"table": true, "footnote": true, "deflist": false},
			inline: map[string]bool{"del": true, "ins": false, "sub": false, "footnote_ref": true, "footnote_inline": false},
			core:   map[string]bool{"linkify": true, "abbr": false, "abbr2": false, "footnote_tail": true},
		},
		{
			preset: PresetFull,
			block:  map[string]bool{"table": true, "footnote": true, "deflist": true},
			inline: map[string]bool{"del": true, "ins": true, "mark": true, "sub": true, "sup": true, "footnote_inline": true},
			core:   map[string]bool{"linkify": true, "abbr": true, "abbr2": true},
		},
		{
			preset: PresetCommonMark,
			html:   true,
			block:  map[string]bool{"table": false, "footnote": false, "htmlblock": true, "paragraph": true},
			inline: map[string]bool{"del": false, "htmltag": true, "emphasis": true, "footnote_ref": false},
			core:   map[string]bool{"block": true, "inline": true, "references": true, "linkify": false, "smartquotes": false},
		},
	}
	for _, test := range tests {
		p := NewParser(test.preset)
		if p.Options.HTML != test.html {
			t.Errorf("NewParser(%d).Options.HTML = %t; want %t", test.preset, p.Options.HTML, test.html)
		}
		for name, want := range test.block {
			if got := p.Block.Ruler.IsEnabled(name); got != want {
				t.Errorf("NewParser(%d).Block.Ruler.IsEnabled(%q) = %t; want %t", test.preset, name, got, want)
			}
		}
		for name, want := range test.inline {
			if got := p.Inline.Ruler.IsEnabled(name); got != want {
				t.Errorf("NewParser(%d).Inline.Ruler.IsEnabled(%q) = %t; want %t", test.preset, name, got, want)
			}
		}
		for name, want := range test.core {
			if got := p.Core.Ruler.IsEnabled(name); got != want {
				t.Errorf("NewParser(%d).Core.Ruler.IsEnabled(%q) = %t; want %t", test.preset, name, got, want)
			}
		}
	}
}

func TestUnknownPresetPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewParser(99) did not panic")
		}
	}()
	NewParser(99)
}

func TestParseInsecureCharacters(t *testing.T) {
	tokens, _ := NewParser(PresetDefault).Parse("Hello,\x00World")
	want := []string{
		"paragraph_open@0",
		"inline@1 \"Hello,\ufffdWorld\"",
		"\ttext@0 \"Hello,\ufffdWorld\"",
		"paragraph_close@0",
	}
	if diff := cmp.Diff(want, describeTokens(tokens)); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}

func TestParseInline(t *testing.T) {
	p := NewParser(PresetDefault)
	tokens, _ := p.ParseInline("  a *b*\nc ")
	want := []string{
		"inline@0 \"a *b* c\"",
		"\ttext@0 \"a \"",
		"\tem_open@0",
		"\ttext@1 \"b\"",
		"\tem_close@0",
		"\ttext@0 \" c\"",
	}
	if diff := cmp.Diff(want, describeTokens(tokens)); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}

	// Block constructs are not recognized.
	tokens, _ = p.ParseInline("# not a heading")
	if len(tokens) != 1 || tokens[0].Kind != InlineKind {
		t.Fatalf("ParseInline(\"# not a heading\") = %q; want a single inline token", describeTokens(tokens))
	}

	if tokens, _ := p.ParseInline(" \n "); len(tokens) != 0 {
		t.Errorf("ParseInline(\" \\n \") = %q; want no tokens", describeTokens(tokens))
	}
}

func TestParseEmpty(t *testing.T) {
	for _, src := range []string{"", "\n", "\n\n  \n"} {
		tokens, env := NewParser(PresetFull).Parse(src)
		if len(tokens) != 0 {
			t.Errorf("Parse(%q) = %q; want no tokens", src, describeTokens(tokens))
		}
		if env == nil {
			t.Errorf("Parse(%q) returned nil env", src)
		}
	}
}

func TestTokenKindString(t *testing.T) {
	tests := []struct {
		kind TokenKind
		want string
	}{
		{ParagraphOpenKind, "paragraph_open"},
		{FootnoteRefKind, "footnote_ref"},
		{TokenKind(0), "TokenKind(0)"},
	}
	for _, test := range tests {
		if got := test.kind.String(); got != test.want {
			t.Errorf("TokenKind(%d).String() = %q; want %q", test.kind, got, test.want)
		}
	}
}
