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
	"io"
	"strconv"
	"strings"

	"go4.org/bytereplacer"
	"golang.org/x/net/html/atom"
)

// An HTMLRenderer converts parsed tokens into HTML.
//
// # Security considerations
//
// With [Options.HTML] set, documents may contain raw HTML,
// which can introduce [Cross-Site Scripting (XSS)] vulnerabilities
// when used with untrusted inputs.
// There are a few options to mitigate this risk:
//
//   - The resulting HTML can be sent through an HTML sanitizer.
//     This is highly recommended.
//   - Set IgnoreRaw to prevent inclusion of raw HTML.
//     This can lead to content being omitted from the document entirely,
//     which may be surprising to end-users for legitimate use cases.
//   - FilterTag can be used to prevent some tags from being used
//     while still showing the source text.
//     For untrusted inputs, this technique should be combined with sanitization.
//
// Link destinations are checked by [InlineParser.ValidateLink] during parsing,
// not by the renderer.
//
// [Cross-Site Scripting (XSS)]: https://owasp.org/www-community/attacks/xss/
type HTMLRenderer struct {
	// XHTMLOut renders void elements in XHTML style, like "<br />".
	XHTMLOut bool
	// Breaks renders soft line breaks as "<br>".
	Breaks bool
	// LangPrefix is prepended to a fenced code block's language
	// to form its CSS class. If empty, "language-" is used.
	LangPrefix string
	// LinkTarget is the target attribute added to links, if not empty.
	LinkTarget string
	// Highlight returns the HTML for the content of a fenced code block.
	// lang is the first word of the fence's info string.
	// If Highlight is nil or returns the empty string,
	// the content is escaped as-is.
	Highlight func(code, lang string) string

	// If IgnoreRaw is true, the renderer skips any HTML blocks or inline HTML.
	IgnoreRaw bool
	// FilterTag is a predicate function
	// that reports whether an element with the given lowercased tag name
	// should have its leading angle bracket escaped in raw HTML.
	// If FilterTag is nil, then no filtering will occur.
	FilterTag func(tag string) bool
}

// RenderHTML writes tokens to w as HTML
// using the default options for [HTMLRenderer].
func RenderHTML(w io.Writer, tokens []*Token) error {
	return new(HTMLRenderer).Render(w, tokens)
}

// Render writes tokens to w as HTML.
// It returns the first error encountered, if any.
func (r *HTMLRenderer) Render(w io.Writer, tokens []*Token) error {
	if _, err := w.Write(r.AppendTokens(nil, tokens)); err != nil {
		return fmt.Errorf("render markup to html: %w", err)
	}
	return nil
}

// AppendTokens appends the rendered HTML of tokens to dst
// and returns the resulting byte slice.
func (r *HTMLRenderer) AppendTokens(dst []byte, tokens []*Token) []byte {
	state := &renderState{
		HTMLRenderer: r,
		dst:          dst,
	}
	for i, tok := range tokens {
		if tok.Kind == InlineKind {
			state.inlines(tok.Children)
		} else {
			state.token(tokens, i)
		}
	}
	return state.dst
}

type renderState struct {
	*HTMLRenderer
	dst []byte
}

func (r *renderState) openTag(name atom.Atom) {
	r.dst = append(r.dst, '<')
	r.dst = append(r.dst, name.String()...)
	r.dst = append(r.dst, '>')
}

func (r *renderState) closeTag(name atom.Atom) {
	r.dst = append(r.dst, "</"...)
	r.dst = append(r.dst, name.String()...)
	r.dst = append(r.dst, '>')
}

func (r *renderState) voidTag(name atom.Atom) {
	r.dst = append(r.dst, '<')
	r.dst = append(r.dst, name.String()...)
	r.closeVoid()
}

func (r *renderState) closeVoid() {
	if r.XHTMLOut {
		r.dst = append(r.dst, " />"...)
	} else {
		r.dst = append(r.dst, '>')
	}
}

func (r *renderState) attr(name, value string) {
	r.dst = append(r.dst, ' ')
	r.dst = append(r.dst, name...)
	r.dst = append(r.dst, `="`...)
	r.dst = appendEscaped(r.dst, value)
	r.dst = append(r.dst, '"')
}

func (r *renderState) text(s string) {
	r.dst = appendEscaped(r.dst, s)
}

func (r *renderState) newline() {
	r.dst = append(r.dst, '\n')
}

// lineBreak ends a block with a newline
// unless the block is the last one in a list item.
func (r *renderState) lineBreak(tokens []*Token, i int) {
	if i = nextVisibleToken(tokens, i); i < len(tokens) && tokens[i].Kind == ListItemCloseKind {
		return
	}
	r.newline()
}

// nextVisibleToken returns the index of the token after i,
// skipping paragraphs that render as nothing.
func nextVisibleToken(tokens []*Token, i int) int {
	for {
		i++
		if i+2 >= len(tokens) {
			return i
		}
		if !(tokens[i].Kind == ParagraphOpenKind && tokens[i].Tight &&
			tokens[i+1].Kind == InlineKind && tokens[i+1].Content == "" &&
			tokens[i+2].Kind == ParagraphCloseKind && tokens[i+2].Tight) {
			return i
		}
		i += 2
	}
}

// blockTags maps simple container tokens to their elements.
var blockTags = map[TokenKind]atom.Atom{
	ListItemOpenKind:  atom.Li,
	ListItemCloseKind: atom.Li,
	TableOpenKind:     atom.Table,
	TableCloseKind:    atom.Table,
	TheadOpenKind:     atom.Thead,
	TheadCloseKind:    atom.Thead,
	TbodyOpenKind:     atom.Tbody,
	TbodyCloseKind:    atom.Tbody,
	TROpenKind:        atom.Tr,
	TRCloseKind:       atom.Tr,
	THCloseKind:       atom.Th,
	TDCloseKind:       atom.Td,
	DLOpenKind:        atom.Dl,
	DLCloseKind:       atom.Dl,
	DTOpenKind:        atom.Dt,
	DTCloseKind:       atom.Dt,
	DDOpenKind:        atom.Dd,
	DDCloseKind:       atom.Dd,
}

func (r *renderState) token(tokens []*Token, i int) {
	tok := tokens[i]
	switch tok.Kind {
	case BlockquoteOpenKind:
		r.openTag(atom.Blockquote)
		r.newline()
	case BlockquoteCloseKind:
		r.closeTag(atom.Blockquote)
		r.lineBreak(tokens, i)
	case CodeBlockKind:
		r.dst = append(r.dst, "<pre><code>"...)
		r.text(tok.Content)
		r.dst = append(r.dst, "</code></pre>"...)
		r.lineBreak(tokens, i)
	case FenceKind:
		r.fence(tok)
		r.lineBreak(tokens, i)
	case HeadingOpenKind:
		r.dst = append(r.dst, "<h"...)
		r.dst = strconv.AppendInt(r.dst, int64(tok.HLevel), 10)
		r.dst = append(r.dst, '>')
	case HeadingCloseKind:
		r.dst = append(r.dst, "</h"...)
		r.dst = strconv.AppendInt(r.dst, int64(tok.HLevel), 10)
		r.dst = append(r.dst, ">\n"...)
	case HRKind:
		r.voidTag(atom.Hr)
		r.lineBreak(tokens, i)
	case BulletListOpenKind:
		r.openTag(atom.Ul)
		r.newline()
	case BulletListCloseKind:
		r.closeTag(atom.Ul)
		r.lineBreak(tokens, i)
	case OrderedListOpenKind:
		r.dst = append(r.dst, "<ol"...)
		if tok.Order > 1 {
			r.attr("start", strconv.Itoa(tok.Order))
		}
		r.dst = append(r.dst, ">\n"...)
	case OrderedListCloseKind:
		r.closeTag(atom.Ol)
		r.lineBreak(tokens, i)
	case ParagraphOpenKind:
		if !tok.Tight {
			r.openTag(atom.P)
		}
	case ParagraphCloseKind:
		if !tok.Tight {
			r.closeTag(atom.P)
		}
		empty := tok.Tight && i > 0 && tokens[i-1].Kind == InlineKind && tokens[i-1].Content == ""
		if !empty {
			r.lineBreak(tokens, i)
		}
	case HTMLBlockKind:
		r.raw(tok.Content)
	case THOpenKind, TDOpenKind:
		name := atom.Td
		if tok.Kind == THOpenKind {
			name = atom.Th
		}
		r.dst = append(r.dst, '<')
		r.dst = append(r.dst, name.String()...)
		if tok.Align != "" {
			r.attr("style", "text-align:"+tok.Align)
		}
		r.dst = append(r.dst, '>')
	case FootnoteBlockOpenKind:
		r.dst = append(r.dst, `<hr class="footnotes-sep"`...)
		r.closeVoid()
		r.dst = append(r.dst, "\n<section class=\"footnotes\">\n<ol class=\"footnotes-list\">\n"...)
	case FootnoteBlockCloseKind:
		r.dst = append(r.dst, "</ol>\n</section>\n"...)
	case FootnoteOpenKind:
		r.dst = append(r.dst, `<li id="fn`...)
		r.dst = strconv.AppendInt(r.dst, int64(tok.ID+1), 10)
		r.dst = append(r.dst, `" class="footnote-item">`...)
	case FootnoteCloseKind:
		r.dst = append(r.dst, "</li>\n"...)
	case FootnoteAnchorKind:
		r.dst = append(r.dst, ` <a href="#`...)
		r.dst = appendFootnoteRefID(r.dst, tok)
		r.dst = append(r.dst, `" class="footnote-backref">↩</a>`...)
	default:
		name, ok := blockTags[tok.Kind]
		if !ok {
			r.inline(tok)
			return
		}
		switch tok.Kind {
		case ListItemOpenKind, TROpenKind, DTOpenKind, DDOpenKind:
			r.openTag(name)
		case TableOpenKind, TheadOpenKind, TbodyOpenKind, DLOpenKind:
			r.openTag(name)
			r.newline()
		case THCloseKind, TDCloseKind:
			r.closeTag(name)
		default:
			r.closeTag(name)
			r.newline()
		}
	}
}

func (r *renderState) fence(tok *Token) {
	fields := strings.Fields(tok.Params)
	r.dst = append(r.dst, "<pre><code"...)
	lang := ""
	if len(fields) > 0 {
		lang = fields[0]
		prefix := r.LangPrefix
		if prefix == "" {
			prefix = "language-"
		}
		r.attr("class", prefix+replaceEntities(unescapeMarkdown(strings.Join(fields, " "))))
	}
	r.dst = append(r.dst, '>')
	highlighted := ""
	if r.Highlight != nil {
		highlighted = r.Highlight(tok.Content, lang)
	}
	if highlighted != "" {
		r.dst = append(r.dst, highlighted...)
	} else {
		r.text(tok.Content)
	}
	r.dst = append(r.dst, "</code></pre>"...)
}

func (r *renderState) inlines(tokens []*Token) {
	for _, tok := range tokens {
		r.inline(tok)
	}
}

// inlineTags maps simple inline span tokens to their elements.
var inlineTags = map[TokenKind]atom.Atom{
	StrongOpenKind:  atom.Strong,
	StrongCloseKind: atom.Strong,
	EmOpenKind:      atom.Em,
	EmCloseKind:     atom.Em,
	DelOpenKind:     atom.Del,
	DelCloseKind:    atom.Del,
	InsOpenKind:     atom.Ins,
	InsCloseKind:    atom.Ins,
	MarkOpenKind:    atom.Mark,
	MarkCloseKind:   atom.Mark,
	LinkCloseKind:   atom.A,
	AbbrCloseKind:   atom.Abbr,
}

func (r *renderState) inline(tok *Token) {
	switch tok.Kind {
	case TextKind:
		r.text(tok.Content)
	case CodeSpanKind:
		r.openTag(atom.Code)
		r.text(tok.Content)
		r.closeTag(atom.Code)
	case SubKind, SupKind:
		name := atom.Sub
		if tok.Kind == SupKind {
			name = atom.Sup
		}
		r.openTag(name)
		r.text(tok.Content)
		r.closeTag(name)
	case HardbreakKind:
		r.voidTag(atom.Br)
		r.newline()
	case SoftbreakKind:
		if r.Breaks {
			r.voidTag(atom.Br)
		}
		r.newline()
	case HTMLTagKind:
		r.raw(tok.Content)
	case LinkOpenKind:
		r.dst = append(r.dst, "<a"...)
		r.attr("href", tok.Href)
		if tok.Title != "" {
			r.attr("title", replaceEntities(tok.Title))
		}
		if r.LinkTarget != "" {
			r.attr("target", r.LinkTarget)
		}
		r.dst = append(r.dst, '>')
	case ImageKind:
		r.dst = append(r.dst, "<img"...)
		r.attr("src", tok.Src)
		r.attr("alt", replaceEntities(unescapeMarkdown(tok.Alt)))
		if tok.Title != "" {
			r.attr("title", replaceEntities(tok.Title))
		}
		r.closeVoid()
	case AbbrOpenKind:
		r.dst = append(r.dst, "<abbr"...)
		r.attr("title", replaceEntities(tok.Title))
		r.dst = append(r.dst, '>')
	case FootnoteRefKind:
		n := strconv.Itoa(tok.ID + 1)
		r.dst = append(r.dst, `<sup class="footnote-ref"><a href="#fn`...)
		r.dst = append(r.dst, n...)
		r.dst = append(r.dst, `" id="`...)
		r.dst = appendFootnoteRefID(r.dst, tok)
		r.dst = append(r.dst, `">[`...)
		r.dst = append(r.dst, n...)
		r.dst = append(r.dst, "]</a></sup>"...)
	default:
		name, ok := inlineTags[tok.Kind]
		if !ok {
			panic(fmt.Sprintf("markup: cannot render %v token", tok.Kind))
		}
		if tok.Kind.IsClose() {
			r.closeTag(name)
		} else {
			r.openTag(name)
		}
	}
}

// appendFootnoteRefID appends the id of a footnote reference,
// like "fnref1" or "fnref1:2" for repeated references.
func appendFootnoteRefID(dst []byte, tok *Token) []byte {
	dst = append(dst, "fnref"...)
	dst = strconv.AppendInt(dst, int64(tok.ID+1), 10)
	if tok.SubID > 0 {
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, int64(tok.SubID), 10)
	}
	return dst
}

// raw appends raw HTML, applying IgnoreRaw and FilterTag.
func (r *renderState) raw(s string) {
	switch {
	case r.IgnoreRaw:
	case r.FilterTag == nil:
		r.dst = append(r.dst, s...)
	default:
		r.filterRaw(s)
	}
}

// filterRaw copies raw HTML to the output,
// escaping the leading angle bracket of tags that FilterTag rejects.
// Comments, processing instructions, declarations, and CDATA sections
// are copied as-is.
//
// It cannot use a conventional HTML parser,
// since raw HTML may be incomplete or start in the middle of a tag.
func (r *renderState) filterRaw(rawHTML string) {
	copyStart := 0
	for i := 0; i < len(rawHTML); {
		if rawHTML[i] != '<' {
			i++
			continue
		}
		rest := rawHTML[i:]
		skipUntil := ""
		switch {
		case strings.HasPrefix(rest, "<![CDATA["):
			skipUntil = "]]>"
		case strings.HasPrefix(rest, "<!--"):
			skipUntil = "-->"
		case strings.HasPrefix(rest, "<?"):
			skipUntil = "?>"
		case strings.HasPrefix(rest, "<!"):
			skipUntil = ">"
		}
		if skipUntil != "" {
			if j := strings.Index(rest[2:], skipUntil); j >= 0 {
				i += 2 + j + len(skipUntil)
			} else {
				i = len(rawHTML)
			}
			continue
		}

		nameStart := i + 1
		if nameStart < len(rawHTML) && rawHTML[nameStart] == '/' {
			nameStart++
		}
		nameEnd := nameStart
		for nameEnd < len(rawHTML) && (isASCIILetter(rawHTML[nameEnd]) || isASCIIDigit(rawHTML[nameEnd])) {
			nameEnd++
		}
		if nameEnd > nameStart && r.FilterTag(strings.ToLower(rawHTML[nameStart:nameEnd])) {
			r.dst = append(r.dst, rawHTML[copyStart:i]...)
			r.dst = append(r.dst, "&lt;"...)
			copyStart = i + 1
		}
		i = nameEnd
	}
	r.dst = append(r.dst, rawHTML[copyStart:]...)
}

// FilterTagGFM reports whether tag is one of the tags disallowed by the
// GitHub Flavored Markdown [tagfilter extension].
// It is suitable for use as the FilterTag field in [HTMLRenderer].
//
// [tagfilter extension]: https://github.github.com/gfm/#disallowed-raw-html-extension-
func FilterTagGFM(tag string) bool {
	switch atom.Lookup([]byte(tag)) {
	case atom.Title, atom.Textarea, atom.Style, atom.Xmp, atom.Iframe,
		atom.Noembed, atom.Noframes, atom.Script, atom.Plaintext:
		return true
	default:
		return false
	}
}

var htmlEscaper = bytereplacer.New(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// appendEscaped appends the HTML-escaped version of s to dst.
func appendEscaped(dst []byte, s string) []byte {
	if !strings.ContainsAny(s, `&<>"`) {
		return append(dst, s...)
	}
	start := len(dst)
	dst = append(dst, s...)
	return append(dst[:start], htmlEscaper.Replace(dst[start:])...)
}
