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
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sebdah/goldie/v2"
	"zombiezen.com/go/markup/internal/normhtml"
)

func TestRenderGolden(t *testing.T) {
	tests := []struct {
		name   string
		preset Preset
		setup  func(p *Parser)
	}{
		{name: "basic", preset: PresetDefault},
		{name: "lists", preset: PresetDefault},
		{name: "footnotes", preset: PresetDefault},
		{name: "table", preset: PresetDefault},
		{
			name:   "typographer",
			preset: PresetDefault,
			setup: func(p *Parser) {
				p.Options.Typographer = true
				p.Options.Linkify = true
			},
		},
		{name: "extensions", preset: PresetFull},
	}
	g := goldie.New(t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithNameSuffix(".golden"),
	)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			input, err := os.ReadFile(filepath.Join("testdata", test.name+".md"))
			if err != nil {
				t.Fatal(err)
			}
			p := NewParser(test.preset)
			if test.setup != nil {
				test.setup(p)
			}
			tokens, _ := p.Parse(string(input))
			buf := new(bytes.Buffer)
			if err := RenderHTML(buf, tokens); err != nil {
				t.Fatal("RenderHTML:", err)
			}
			g.Assert(t, test.name, buf.Bytes())
		})
	}
}

func TestHTMLRendererOptions(t *testing.T) {
	tests := []struct {
		name     string
		renderer *HTMLRenderer
		input    string
		want     string
	}{
		{
			name:     "XHTMLBreak",
			renderer: &HTMLRenderer{XHTMLOut: true},
			input:    "a  \nb",
			want:     "<p>a<br />\nb</p>\n",
		},
		{
			name:     "XHTMLRule",
			renderer: &HTMLRenderer{XHTMLOut: true},
			input:    "***",
			want:     "<hr />\n",
		},
		{
			name:     "Breaks",
			renderer: &HTMLRenderer{Breaks: true},
			input:    "a\nb",
			want:     "<p>a<br>\nb</p>\n",
		},
		{
			name:     "LangPrefix",
			renderer: &HTMLRenderer{LangPrefix: "lang-"},
			input:    "```js\nx\n```",
			want:     "<pre><code class=\"lang-js\">x\n</code></pre>\n",
		},
		{
			name: "Highlight",
			renderer: &HTMLRenderer{
				Highlight: func(code, lang string) string {
					return "<b>" + lang + ":" + code + "</b>"
				},
			},
			input: "```js\nx\n```",
			want:  "<pre><code class=\"language-js\"><b>js:x\n</b></code></pre>\n",
		},
		{
			name: "HighlightFallback",
			renderer: &HTMLRenderer{
				Highlight: func(code, lang string) string { return "" },
			},
			input: "```\n<x>\n```",
			want:  "<pre><code>&lt;x&gt;\n</code></pre>\n",
		},
		{
			name:     "LinkTarget",
			renderer: &HTMLRenderer{LinkTarget: "_blank"},
			input:    `[a](/b "t")`,
			want:     "<p><a href=\"/b\" title=\"t\" target=\"_blank\">a</a></p>\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tokens, _ := NewParser(PresetDefault).Parse(test.input)
			if got := string(test.renderer.AppendTokens(nil, tokens)); got != test.want {
				t.Errorf("output = %q; want %q", got, test.want)
			}
		})
	}
}

func TestHTMLRendererEscaping(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Text",
			input: `a < b & "c"`,
			want:  "<p>a &lt; b &amp; &quot;c&quot;</p>\n",
		},
		{
			name:  "ImageAlt",
			input: `![a *b*](/i.png "t")`,
			want:  "<p><img src=\"/i.png\" alt=\"a *b*\" title=\"t\"></p>\n",
		},
		{
			name:  "IndentedCode",
			input: "    a<b\n",
			want:  "<pre><code>a&lt;b\n</code></pre>\n",
		},
		{
			name:  "ATXClosingSequence",
			input: "## h ##",
			want:  "<h2>h</h2>\n",
		},
		{
			name:  "Setext",
			input: "t\n===",
			want:  "<h1>t</h1>\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := renderString(NewParser(PresetDefault), test.input); got != test.want {
				t.Errorf("output = %q; want %q", got, test.want)
			}
		})
	}

	t.Run("FenceInfo", func(t *testing.T) {
		got := renderString(NewParser(PresetDefault), "```a&amp;b\nx\n```")
		const want = `class="language-a&amp;b"`
		if !strings.Contains(got, want) {
			t.Errorf("output = %q; want to contain %q", got, want)
		}
	})
}

func TestHTMLRendererEmpty(t *testing.T) {
	if got := string(new(HTMLRenderer).AppendTokens(nil, nil)); got != "" {
		t.Errorf("AppendTokens(nil, nil) = %q; want \"\"", got)
	}
}

func TestRenderMaxNesting(t *testing.T) {
	p := NewParser(PresetDefault)
	p.Options.MaxNesting = 2
	got := renderString(p, "> > > a")
	const want = "<blockquote>\n<blockquote>\n<p>&gt; a</p>\n</blockquote>\n</blockquote>\n"
	if got != want {
		t.Errorf("output = %q; want %q", got, want)
	}
}

func TestHTMLRendererIgnoreRaw(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "NoRaw",
			input: "Hello World!",
			want:  "<p>Hello World!</p>\n",
		},
		{
			name:  "MarkdownStrong",
			input: "Hello **World**!",
			want:  "<p>Hello <strong>World</strong>!</p>\n",
		},
		{
			name:  "HTMLStrong",
			input: "Hello <strong>World</strong>!",
			want:  "<p>Hello World!</p>\n",
		},
		{
			name:  "HTMLBlock",
			input: "<table>\n<tr><td>Hello</td></tr>\n</table>",
			want:  "",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tokens, _ := NewParser(PresetCommonMark).Parse(test.input)
			r := &HTMLRenderer{IgnoreRaw: true}
			buf := new(bytes.Buffer)
			if err := r.Render(buf, tokens); err != nil {
				t.Error("Render:", err)
			}
			if got := buf.String(); got != test.want {
				t.Errorf("output = %q; want %q", got, test.want)
			}
		})
	}
}

func TestHTMLRendererFilter(t *testing.T) {
	const gfmExample = "<strong> <title> <style> <em>\n\n" +
		"<blockquote>\n" +
		"  <xmp> is disallowed.  <XMP> is also disallowed.\n" +
		"</blockquote>\n"
	tests := []struct {
		name      string
		input     string
		filterTag func(tag string) bool
		want      string
	}{
		{
			name:      "GFMExample/Default",
			input:     gfmExample,
			filterTag: FilterTagGFM,
			want: "<p><strong> &lt;title> &lt;style> <em></p>\n" +
				"<blockquote>\n" +
				"  &lt;xmp> is disallowed.  &lt;XMP> is also disallowed.\n" +
				"</blockquote>\n",
		},
		{
			name:  "GFMExample/NoFilter",
			input: gfmExample,
			want: "<p><strong> <title> <style> <em></p>\n" +
				"<blockquote>\n" +
				"  <xmp> is disallowed.  <XMP> is also disallowed.\n" +
				"</blockquote>\n",
		},
		{
			name:      "GFMExample/AllowAll",
			input:     gfmExample,
			filterTag: func(tag string) bool { return false },
			want: "<p><strong> <title> <style> <em></p>\n" +
				"<blockquote>\n" +
				"  <xmp> is disallowed.  <XMP> is also disallowed.\n" +
				"</blockquote>\n",
		},
		{
			name:      "GFMExample/BlockAll",
			input:     gfmExample,
			filterTag: func(tag string) bool { return true },
			want: "<p>&lt;strong> &lt;title> &lt;style> &lt;em></p>\n" +
				"&lt;blockquote>\n" +
				"  &lt;xmp> is disallowed.  &lt;XMP> is also disallowed.\n" +
				"&lt;/blockquote>\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tokens, _ := NewParser(PresetCommonMark).Parse(test.input)
			r := &HTMLRenderer{FilterTag: test.filterTag}
			buf := new(bytes.Buffer)
			if err := r.Render(buf, tokens); err != nil {
				t.Error("Render:", err)
			}
			got := normhtml.NormalizeHTML(buf.Bytes())
			want := normhtml.NormalizeHTML([]byte(test.want))
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("-want +got:\n%s", diff)
			}
		})
	}

	t.Run("Script", func(t *testing.T) {
		tokens, _ := NewParser(PresetCommonMark).Parse("<script>x</script>")
		r := &HTMLRenderer{FilterTag: FilterTagGFM}
		const want = "&lt;script>x&lt;/script>"
		if got := string(r.AppendTokens(nil, tokens)); got != want {
			t.Errorf("output = %q; want %q", got, want)
		}
	})
}

func TestFilterTagGFM(t *testing.T) {
	for _, tag := range []string{"title", "textarea", "style", "xmp", "iframe", "noembed", "noframes", "script", "plaintext"} {
		if !FilterTagGFM(tag) {
			t.Errorf("FilterTagGFM(%q) = false; want true", tag)
		}
	}
	for _, tag := range []string{"strong", "em", "div", "p", ""} {
		if FilterTagGFM(tag) {
			t.Errorf("FilterTagGFM(%q) = true; want false", tag)
		}
	}
}

var errWrite = errors.New("write failed")

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) { return 0, errWrite }

func TestRenderWriteError(t *testing.T) {
	tokens, _ := NewParser(PresetDefault).Parse("Hello")
	err := RenderHTML(failWriter{}, tokens)
	if !errors.Is(err, errWrite) {
		t.Errorf("RenderHTML(...) = %v; want %v", err, errWrite)
	}
}

func BenchmarkRenderHTML(b *testing.B) {
	input, err := os.ReadFile(filepath.Join("testdata", "basic.md"))
	if err != nil {
		b.Fatal(err)
	}
	tokens, _ := NewParser(PresetFull).Parse(string(input))
	b.ResetTimer()
	b.SetBytes(int64(len(input)))

	for i := 0; i < b.N; i++ {
		RenderHTML(io.Discard, tokens)
	}
}
