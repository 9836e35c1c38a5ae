// Copyright 2023 Ross Light
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

// Package normhtml compares HTML output while ignoring insignificant differences:
// whitespace runs, whitespace around block-level elements,
// attribute order, and character reference spelling.
package normhtml

import (
	"bytes"
	"regexp"
	"sort"
	"unicode"

	"go4.org/bytereplacer"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Equal reports whether a and b normalize to the same HTML.
func Equal(a, b []byte) bool {
	return bytes.Equal(NormalizeHTML(a), NormalizeHTML(b))
}

// NormalizeHTML strips insignificant output differences from HTML.
func NormalizeHTML(b []byte) []byte {
	n := &normalizer{last: html.StartTagToken}
	tok := html.NewTokenizerFragment(bytes.NewReader(b), "div")
	for {
		tt := tok.Next()
		switch tt {
		case html.ErrorToken:
			return n.out
		case html.TextToken:
			n.text(tok.Text())
		case html.EndTagToken:
			name, _ := tok.TagName()
			n.endTag(string(name))
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tok.TagName()
			var attrs []attribute
			for hasAttr {
				var k, v []byte
				k, v, hasAttr = tok.TagAttr()
				attrs = append(attrs, attribute{string(k), string(v)})
			}
			n.startTag(string(name), attrs)
		case html.CommentToken:
			n.out = append(n.out, tok.Raw()...)
		}

		n.last = tt
		if tt == html.SelfClosingTagToken {
			n.last = html.EndTagToken
		}
	}
}

type attribute struct {
	key   string
	value string
}

type normalizer struct {
	out     []byte
	last    html.TokenType
	lastTag string
	inPre   bool
}

var (
	whitespaceRE = regexp.MustCompile(`\s+`)

	textEscaper = bytereplacer.New(
		"&", "&amp;",
		`'`, "&apos;",
		`<`, "&lt;",
		`>`, "&gt;",
		`"`, "&quot;",
	)
)

func (n *normalizer) text(data []byte) {
	afterTag := n.last == html.EndTagToken || n.last == html.StartTagToken
	if afterTag && n.lastTag == "br" {
		data = bytes.TrimLeft(data, "\n")
	}
	if n.inPre {
		n.out = append(n.out, textEscaper.Replace(bytes.Clone(data))...)
		return
	}
	data = whitespaceRE.ReplaceAll(data, []byte(" "))
	if afterTag && isBlockTag(n.lastTag) {
		if n.last == html.StartTagToken {
			data = bytes.TrimLeftFunc(data, unicode.IsSpace)
		} else {
			data = bytes.TrimSpace(data)
		}
	}
	n.out = append(n.out, textEscaper.Replace(data)...)
}

func (n *normalizer) startTag(name string, attrs []attribute) {
	if name == "pre" {
		n.inPre = true
	}
	if isBlockTag(name) {
		n.out = bytes.TrimRightFunc(n.out, unicode.IsSpace)
	}
	n.out = append(n.out, '<')
	n.out = append(n.out, name...)
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].key < attrs[j].key
	})
	for _, attr := range attrs {
		n.out = append(n.out, ' ')
		n.out = append(n.out, attr.key...)
		if attr.value != "" {
			n.out = append(n.out, `="`...)
			n.out = append(n.out, html.EscapeString(attr.value)...)
			n.out = append(n.out, '"')
		}
	}
	n.out = append(n.out, '>')
	n.lastTag = name
}

func (n *normalizer) endTag(name string) {
	if name == "pre" {
		n.inPre = false
	} else if isBlockTag(name) {
		n.out = bytes.TrimRightFunc(n.out, unicode.IsSpace)
	}
	n.out = append(n.out, "</"...)
	n.out = append(n.out, name...)
	n.out = append(n.out, '>')
	n.lastTag = name
}

var blockTags = make(map[atom.Atom]struct{})

func init() {
	for _, a := range []atom.Atom{
		atom.Article, atom.Aside, atom.Blockquote, atom.Body, atom.Button,
		atom.Canvas, atom.Caption, atom.Col, atom.Colgroup, atom.Dd, atom.Div,
		atom.Dl, atom.Dt, atom.Embed, atom.Fieldset, atom.Figcaption, atom.Figure,
		atom.Footer, atom.Form, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Header, atom.Hgroup, atom.Hr, atom.Iframe, atom.Li, atom.Map,
		atom.Object, atom.Ol, atom.Output, atom.P, atom.Pre, atom.Progress,
		atom.Script, atom.Section, atom.Style, atom.Table, atom.Tbody, atom.Td,
		atom.Textarea, atom.Tfoot, atom.Th, atom.Thead, atom.Tr, atom.Ul, atom.Video,
	} {
		blockTags[a] = struct{}{}
	}
}

func isBlockTag(name string) bool {
	a := atom.Lookup([]byte(name))
	if a == 0 {
		return false
	}
	_, ok := blockTags[a]
	return ok
}
