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
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
)

// ValidateLink is the default link destination validator.
// It rejects destinations whose scheme is vbscript, javascript, file, or data,
// after trimming, lowercasing, and resolving entity references.
// All other destinations, including relative paths, are allowed.
func ValidateLink(url string) bool {
	s := replaceEntities(strings.ToLower(strings.TrimSpace(url)))
	scheme, _, ok := strings.Cut(s, ":")
	if !ok {
		return true
	}
	switch scheme {
	case "vbscript", "javascript", "file", "data":
		return false
	default:
		return true
	}
}

// normalizeLink resolves entity references in a link destination
// and percent-encodes it.
func normalizeLink(url string) string {
	return NormalizeURI(replaceEntities(url))
}

var (
	whitespaceRunRE = regexp.MustCompile(`\s+`)
	referenceFolder = cases.Fold()
)

// normalizeReference returns the key used to match a link label
// against reference definitions.
func normalizeReference(label string) string {
	label = whitespaceRunRE.ReplaceAllString(strings.TrimSpace(label), " ")
	return referenceFolder.String(label)
}

var markdownEscapeRE = regexp.MustCompile("\\\\([\\\\!\"#$%&'()*+,./:;<=>?@\\[\\]^_`{|}~-])")

// unescapeMarkdown removes backslashes from escaped punctuation.
func unescapeMarkdown(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	return markdownEscapeRE.ReplaceAllString(s, "$1")
}

var (
	entityReferenceRE = regexp.MustCompile(`(?i)&([a-z#][a-z0-9]{1,31});`)
	numericRefBodyRE  = regexp.MustCompile(`(?i)^#((?:x[a-f0-9]{1,8}|[0-9]{1,8}))$`)
)

// replaceEntities resolves valid character references in s.
// Unknown or invalid references are left as-is.
func replaceEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return entityReferenceRE.ReplaceAllStringFunc(s, func(ref string) string {
		name := ref[1 : len(ref)-1]
		if m := numericRefBodyRE.FindStringSubmatch(name); m != nil {
			if r, ok := decodeNumericEntity(m[1]); ok {
				return string(r)
			}
			return ref
		}
		if decoded, ok := decodeNamedEntity(name); ok {
			return decoded
		}
		return ref
	})
}

// decodeNamedEntity returns the text of the named character reference
// "&name;".
func decodeNamedEntity(name string) (string, bool) {
	ref := "&" + name + ";"
	decoded := html.UnescapeString(ref)
	if decoded == ref {
		return "", false
	}
	// UnescapeString also decodes legacy references without a semicolon,
	// which leaves the rest of the name behind.
	if strings.HasSuffix(decoded, ";") && decoded != ";" {
		return "", false
	}
	return decoded, true
}

// NormalizeURI percent-encodes any characters in a string
// that are not reserved or unreserved URI characters.
// Existing percent-encoded sequences are left intact.
func NormalizeURI(s string) string {
	// RFC 3986 reserved and unreserved characters.
	const safeSet = `;/?:@&=+$,-_.!~*'()#`

	sb := new(strings.Builder)
	sb.Grow(len(s))
	skip := 0
	var buf [utf8.UTFMax]byte
	for i, c := range s {
		if skip > 0 {
			skip--
			sb.WriteRune(c)
			continue
		}
		switch {
		case c == '%':
			if i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
				skip = 2
				sb.WriteByte('%')
			} else {
				sb.WriteString("%25")
			}
		case (c < utf8.RuneSelf && (isASCIILetter(byte(c)) || isASCIIDigit(byte(c)))) || strings.ContainsRune(safeSet, c):
			sb.WriteRune(c)
		default:
			n := utf8.EncodeRune(buf[:], c)
			for _, b := range buf[:n] {
				sb.WriteByte('%')
				sb.WriteByte(urlHexDigit(b >> 4))
				sb.WriteByte(urlHexDigit(b & 0x0f))
			}
		}
	}
	return sb.String()
}

func isHex(c byte) bool {
	return 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F' || isASCIIDigit(c)
}

func urlHexDigit(x byte) byte {
	switch {
	case x < 0xa:
		return '0' + x
	case x < 0x10:
		return 'A' + x - 0xa
	default:
		panic("out of bounds")
	}
}

// parseLinkLabel finds the closing bracket of the label
// whose opening bracket is at start.
// It returns the position of the closing bracket or -1.
// state.Pos is left unchanged.
func parseLinkLabel(state *InlineState, start int) int {
	if state.isInLabel {
		return -1
	}
	if state.labelUnmatchedScopes > 0 {
		// A previous scan already proved this bracket has no match.
		state.labelUnmatchedScopes--
		return -1
	}

	oldPos := state.Pos
	state.Pos = start + 1
	state.isInLabel = true
	defer func() {
		state.Pos = oldPos
		state.isInLabel = false
	}()

	level := 1
	for state.Pos < state.PosMax {
		switch state.Src[state.Pos] {
		case '[':
			level++
		case ']':
			level--
			if level == 0 {
				state.labelUnmatchedScopes = 0
				return state.Pos
			}
		}
		state.Parser.SkipToken(state)
	}
	state.labelUnmatchedScopes = level - 1
	return -1
}

// parseLinkDestination parses a link destination starting at pos.
// It returns the normalized destination and the position after it.
func parseLinkDestination(state *InlineState, pos int) (dest string, end int, ok bool) {
	start := pos
	max := state.PosMax
	if pos < max && state.Src[pos] == '<' {
		for pos++; pos < max; pos++ {
			switch c := state.Src[pos]; {
			case c == '\n':
				return "", 0, false
			case c == '>':
				dest = normalizeLink(unescapeMarkdown(state.Src[start+1 : pos]))
				if !state.Parser.validateLink(dest) {
					return "", 0, false
				}
				return dest, pos + 1, true
			case c == '\\' && pos+1 < max:
				pos++
			}
		}
		return "", 0, false
	}

	level := 0
scan:
	for pos < max {
		c := state.Src[pos]
		switch {
		case c == ' ' || c < 0x20 || c == 0x7f:
			break scan
		case c == '\\' && pos+1 < max:
			pos += 2
			continue
		case c == '(':
			level++
			if level > 1 {
				break scan
			}
		case c == ')':
			level--
			if level < 0 {
				break scan
			}
		}
		pos++
	}
	if pos == start {
		return "", 0, false
	}
	dest = normalizeLink(unescapeMarkdown(state.Src[start:pos]))
	if !state.Parser.validateLink(dest) {
		return "", 0, false
	}
	return dest, pos, true
}

// parseLinkTitle parses a quoted or parenthesized link title starting at pos.
// It returns the unescaped title and the position after it.
func parseLinkTitle(state *InlineState, pos int) (title string, end int, ok bool) {
	if pos >= state.PosMax {
		return "", 0, false
	}
	start := pos
	marker := state.Src[pos]
	switch marker {
	case '"', '\'':
	case '(':
		marker = ')'
	default:
		return "", 0, false
	}
	for pos++; pos < state.PosMax; pos++ {
		c := state.Src[pos]
		if c == marker {
			return unescapeMarkdown(state.Src[start+1 : pos]), pos + 1, true
		}
		if c == '\\' && pos+1 < state.PosMax {
			pos++
		}
	}
	return "", 0, false
}

// skipLinkSpace returns the first position at or after pos
// that is not a space or newline.
func skipLinkSpace(s string, pos, max int) int {
	for pos < max && (s[pos] == ' ' || s[pos] == '\n') {
		pos++
	}
	return pos
}

// linksRule matches inline links, reference links, and images.
func linksRule(state *InlineState, mode Mode) bool {
	oldPos := state.Pos
	max := state.PosMax
	start := state.Pos
	isImage := false
	if state.Src[start] == '!' {
		isImage = true
		start++
		if start >= max {
			return false
		}
	}
	if state.Src[start] != '[' || state.atNestingLimit() {
		return false
	}

	labelStart := start + 1
	labelEnd := parseLinkLabel(state, start)
	if labelEnd < 0 {
		return false
	}

	var href, title string
	pos := labelEnd + 1
	if pos < max && state.Src[pos] == '(' {
		// Inline link.
		pos = skipLinkSpace(state.Src, pos+1, max)
		if pos >= max {
			return false
		}
		if dest, end, ok := parseLinkDestination(state, pos); ok {
			href = dest
			pos = end
		}
		beforeSpace := pos
		pos = skipLinkSpace(state.Src, pos, max)
		if pos > beforeSpace {
			if t, end, ok := parseLinkTitle(state, pos); ok {
				title = t
				pos = skipLinkSpace(state.Src, end, max)
			}
		}
		if pos >= max || state.Src[pos] != ')' {
			state.Pos = oldPos
			return false
		}
		pos++
	} else {
		// Reference link. Reference links cannot nest.
		if state.LinkLevel > 0 {
			return false
		}
		label := ""
		hasLabel := false
		pos = skipLinkSpace(state.Src, pos, max)
		if pos < max && state.Src[pos] == '[' {
			refStart := pos + 1
			if refEnd := parseLinkLabel(state, pos); refEnd >= 0 {
				label = state.Src[refStart:refEnd]
				hasLabel = true
				pos = refEnd + 1
			} else {
				pos = refStart - 1
			}
		}
		if label == "" {
			// Collapsed "[foo][]" or shortcut "[foo]" reference.
			if !hasLabel {
				pos = labelEnd + 1
			}
			label = state.Src[labelStart:labelEnd]
		}
		def, ok := state.Env.References[normalizeReference(label)]
		if !ok {
			state.Pos = oldPos
			return false
		}
		href = def.Href
		title = def.Title
	}

	if mode == Commit {
		state.Pos = labelStart
		state.PosMax = labelEnd
		if isImage {
			state.Push(&Token{
				Kind:  ImageKind,
				Src:   href,
				Title: title,
				Alt:   state.Src[labelStart:labelEnd],
				Level: state.Level,
			})
		} else {
			open := state.pushOpen(LinkOpenKind)
			open.Href = href
			open.Title = title
			state.LinkLevel++
			state.Parser.Tokenize(state)
			state.LinkLevel--
			state.pushClose(LinkCloseKind)
		}
	}
	state.Pos = pos
	state.PosMax = max
	return true
}
