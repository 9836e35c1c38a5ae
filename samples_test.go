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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"zombiezen.com/go/markup/internal/fixture"
	"zombiezen.com/go/markup/internal/normhtml"
)

var samplePresets = map[string]Preset{
	"default":    PresetDefault,
	"full":       PresetFull,
	"commonmark": PresetCommonMark,
}

func loadSamples(tb testing.TB) []fixture.Sample {
	tb.Helper()
	samples, err := fixture.Load()
	if err != nil {
		tb.Fatal(err)
	}
	return samples
}

func TestSamples(t *testing.T) {
	for _, sample := range loadSamples(t) {
		t.Run(sample.Name, func(t *testing.T) {
			preset, ok := samplePresets[sample.Preset]
			if !ok {
				t.Fatalf("unknown preset %q", sample.Preset)
			}
			tokens, _ := NewParser(preset).Parse(sample.Markdown)
			got := normhtml.NormalizeHTML(new(HTMLRenderer).AppendTokens(nil, tokens))
			want := normhtml.NormalizeHTML([]byte(sample.HTML))
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Input:\n%s\nOutput (-want +got):\n%s", sample.Markdown, diff)
			}
		})
	}
}

func FuzzParse(f *testing.F) {
	for _, sample := range loadSamples(f) {
		f.Add(sample.Markdown)
	}
	parsers := []*Parser{
		NewParser(PresetDefault),
		NewParser(PresetFull),
		NewParser(PresetCommonMark),
	}
	f.Fuzz(func(t *testing.T, src string) {
		for _, p := range parsers {
			tokens, _ := p.Parse(src)
			checkBalanced(t, tokens)
			for _, tok := range tokens {
				if tok.Kind == InlineKind {
					checkBalanced(t, tok.Children)
				}
			}
			new(HTMLRenderer).AppendTokens(nil, tokens)
		}
	})
}

// checkBalanced reports an error if the open and close tokens in tokens
// do not pair up.
func checkBalanced(tb testing.TB, tokens []*Token) {
	tb.Helper()
	depth := 0
	for i, tok := range tokens {
		switch {
		case tok.Kind.IsOpen():
			depth++
		case tok.Kind.IsClose():
			depth--
			if depth < 0 {
				tb.Errorf("token %d (%v) closes nothing", i, tok.Kind)
				return
			}
		}
	}
	if depth != 0 {
		tb.Errorf("%d tokens left open", depth)
	}
}
