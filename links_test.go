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
	"strings"
	"testing"
)

func TestValidateLink(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com", true},
		{"http://example.com/a?b=c#d", true},
		{"foo/bar", true},
		{"/absolute", true},
		{"mailto:me@example.com", true},
		{"javascript", true},
		{"javascript:alert(1)", false},
		{"JaVaScRiPt:alert(1)", false},
		{"  javascript:alert(1)", false},
		{"&#106;avascript:alert(1)", false},
		{"vbscript:msgbox", false},
		{"file:///etc/passwd", false},
		{"data:text/html,<script>alert(1)</script>", false},
	}
	for _, test := range tests {
		if got := ValidateLink(test.url); got != test.want {
			t.Errorf("ValidateLink(%q) = %t; want %t", test.url, got, test.want)
		}
	}
}

func TestCustomLinkValidator(t *testing.T) {
	p := NewParser(PresetDefault)
	p.Inline.ValidateLink = func(url string) bool {
		return strings.HasPrefix(url, "https:")
	}
	tests := []struct {
		src  string
		want string
	}{
		{"[a](https://x.com)", "<p><a href=\"https://x.com\">a</a></p>\n"},
		{"[a](http://x.com)", "<p>[a](http://x.com)</p>\n"},
		{"<http://x.com>", "<p>&lt;http://x.com&gt;</p>\n"},
		{"<https://x.com>", "<p><a href=\"https://x.com\">https://x.com</a></p>\n"},
	}
	for _, test := range tests {
		if got := renderString(p, test.src); got != test.want {
			t.Errorf("%q rendered %q; want %q", test.src, got, test.want)
		}
	}

	p.Inline.ValidateLink = nil
	if got, want := renderString(p, "[a](javascript:x)"), "<p>[a](javascript:x)</p>\n"; got != want {
		t.Errorf("with nil ValidateLink, output = %q; want %q", got, want)
	}
}

func TestNormalizeURI(t *testing.T) {
	tests := []struct {
		s    string
		want string
	}{
		{"", ""},
		{"http://example.com/a?b=c&d=e#f", "http://example.com/a?b=c&d=e#f"},
		{"/a b", "/a%20b"},
		{"/ä", "/%C3%A4"},
		{"a[b]", "a%5Bb%5D"},
		{"%41%zz", "%41%25zz"},
		{"%aF", "%aF"},
		{"100%", "100%25"},
	}
	for _, test := range tests {
		if got := NormalizeURI(test.s); got != test.want {
			t.Errorf("NormalizeURI(%q) = %q; want %q", test.s, got, test.want)
		}
	}
}

func TestNormalizeReference(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"foo", "foo"},
		{"  Foo\n  Bar ", "foo bar"},
		{"FOO\tBAR", "foo bar"},
		{"ΑΓΩ", "αγω"},
	}
	for _, test := range tests {
		if got := normalizeReference(test.label); got != test.want {
			t.Errorf("normalizeReference(%q) = %q; want %q", test.label, got, test.want)
		}
	}
}

func TestReplaceEntities(t *testing.T) {
	tests := []struct {
		s    string
		want string
	}{
		{"plain", "plain"},
		{"&amp; &lt; &#65; &#x42; &#X43;", "& < A B C"},
		{"&bogus; &copyx;", "&bogus; &copyx;"},
		{"&#0; &#xD800;", "&#0; &#xD800;"},
		{"AT&T", "AT&T"},
	}
	for _, test := range tests {
		if got := replaceEntities(test.s); got != test.want {
			t.Errorf("replaceEntities(%q) = %q; want %q", test.s, got, test.want)
		}
	}
}

func TestUnescapeMarkdown(t *testing.T) {
	tests := []struct {
		s    string
		want string
	}{
		{"plain", "plain"},
		{`\*a\_b\q`, `*a_b\q`},
		{`\\`, `\`},
	}
	for _, test := range tests {
		if got := unescapeMarkdown(test.s); got != test.want {
			t.Errorf("unescapeMarkdown(%q) = %q; want %q", test.s, got, test.want)
		}
	}
}
