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
	"strconv"
	"strings"
	"unicode/utf8"
)

// isTerminatorChar reports whether c can start an inline construct.
func isTerminatorChar(c byte) bool {
	switch c {
	case '\n', '\\', '`', '*', '_', '^', '[', ']', '!', '&', '<', '>',
		'{', '}', '$', '%', '@', '~', '+', '=', ':':
		return true
	default:
		return false
	}
}

func textRule(state *InlineState, mode Mode) bool {
	pos := state.Pos
	for pos < state.PosMax && !isTerminatorChar(state.Src[pos]) {
		pos++
	}
	if pos == state.Pos {
		return false
	}
	if mode == Commit {
		state.AppendPending(state.Src[state.Pos:pos])
	}
	state.Pos = pos
	return true
}

func newlineRule(state *InlineState, mode Mode) bool {
	pos := state.Pos
	if state.Src[pos] != '\n' {
		return false
	}
	if mode == Commit {
		// Two trailing spaces make a hard break.
		kind := SoftbreakKind
		if n := len(state.pending); n > 0 && state.pending[n-1] == ' ' {
			if n > 1 && state.pending[n-2] == ' ' {
				kind = HardbreakKind
			}
			for n > 0 && state.pending[n-1] == ' ' {
				n--
			}
			state.pending = state.pending[:n]
		}
		state.Push(&Token{Kind: kind, Level: state.Level})
	}
	pos++
	for pos < state.PosMax && state.Src[pos] == ' ' {
		pos++
	}
	state.Pos = pos
	return true
}

// isEscapable reports whether c can be escaped with a backslash.
func isEscapable(c byte) bool {
	return strings.IndexByte("\\!\"#$%&'()*+,./:;<=>?@[]^_`{|}~-", c) >= 0
}

func escapeRule(state *InlineState, mode Mode) bool {
	pos := state.Pos
	if state.Src[pos] != '\\' {
		return false
	}
	pos++
	if pos < state.PosMax {
		c := state.Src[pos]
		if isEscapable(c) {
			if mode == Commit {
				state.AppendPending(state.Src[pos : pos+1])
			}
			state.Pos += 2
			return true
		}
		if c == '\n' {
			if mode == Commit {
				state.Push(&Token{Kind: HardbreakKind, Level: state.Level})
			}
			pos++
			for pos < state.PosMax && state.Src[pos] == ' ' {
				pos++
			}
			state.Pos = pos
			return true
		}
	}
	if mode == Commit {
		state.AppendPending("\\")
	}
	state.Pos++
	return true
}

var codeSpaceRE = regexp.MustCompile(`[ \n]+`)

func backticksRule(state *InlineState, mode Mode) bool {
	start := state.Pos
	if state.Src[start] != '`' {
		return false
	}
	pos := start + 1
	for pos < state.PosMax && state.Src[pos] == '`' {
		pos++
	}
	markerLen := pos - start

	for matchEnd := pos; ; {
		i := strings.IndexByte(state.Src[matchEnd:state.PosMax], '`')
		if i < 0 {
			break
		}
		matchStart := matchEnd + i
		matchEnd = matchStart + 1
		for matchEnd < state.PosMax && state.Src[matchEnd] == '`' {
			matchEnd++
		}
		if matchEnd-matchStart == markerLen {
			if mode == Commit {
				content := codeSpaceRE.ReplaceAllString(state.Src[pos:matchStart], " ")
				state.Push(&Token{
					Kind:    CodeSpanKind,
					Content: strings.TrimSpace(content),
					Level:   state.Level,
				})
			}
			state.Pos = matchEnd
			return true
		}
	}

	// An unmatched run of backticks is literal text.
	if mode == Commit {
		state.AppendPending(state.Src[start:pos])
	}
	state.Pos = pos
	return true
}

func delRule(state *InlineState, mode Mode) bool {
	return pairedRule(state, mode, '~', DelOpenKind, DelCloseKind)
}

func insRule(state *InlineState, mode Mode) bool {
	return pairedRule(state, mode, '+', InsOpenKind, InsCloseKind)
}

func markRule(state *InlineState, mode Mode) bool {
	return pairedRule(state, mode, '=', MarkOpenKind, MarkCloseKind)
}

// pairedRule matches a span delimited by doubled markers, like "~~text~~".
// It never matches in Validate mode.
func pairedRule(state *InlineState, mode Mode, marker byte, openKind, closeKind TokenKind) bool {
	start := state.Pos
	end := state.PosMax
	if state.Src[start] != marker || mode == Validate {
		return false
	}
	if start+4 >= end || state.Src[start+1] != marker || state.atNestingLimit() {
		return false
	}
	if start > 0 && state.Src[start-1] == marker {
		return false
	}
	switch state.Src[start+2] {
	case marker, ' ', '\n':
		return false
	}

	found := false
	depth := 1
	state.Pos = start + 2
	for state.Pos+1 < end {
		if state.Src[state.Pos] == marker && state.Src[state.Pos+1] == marker {
			last := state.Src[state.Pos-1]
			next := -1
			if state.Pos+2 < end {
				next = int(state.Src[state.Pos+2])
			}
			if next != int(marker) && last != marker {
				if last != ' ' && last != '\n' {
					depth--
				} else if next != ' ' && next != '\n' {
					depth++
				}
				if depth <= 0 {
					found = true
					break
				}
			}
		}
		state.Parser.SkipToken(state)
	}
	if !found {
		state.Pos = start
		return false
	}

	state.PosMax = state.Pos
	state.Pos = start + 2
	state.pushOpen(openKind)
	state.Parser.Tokenize(state)
	state.pushClose(closeKind)
	state.Pos = state.PosMax + 2
	state.PosMax = end
	return true
}

// delimRun describes a run of emphasis markers.
type delimRun struct {
	canOpen  bool
	canClose bool
	count    int
}

func scanDelims(state *InlineState, start int) delimRun {
	end := state.PosMax
	marker := state.Src[start]
	pos := start
	for pos < end && state.Src[pos] == marker {
		pos++
	}
	run := delimRun{
		canOpen:  pos < end,
		canClose: true,
		count:    pos - start,
	}
	if run.count >= 4 {
		// Four or more markers can neither open nor close.
		run.canOpen = false
		run.canClose = false
		return run
	}

	last, next := -1, -1
	if start > 0 {
		last = int(state.Src[start-1])
	}
	if pos < end {
		next = int(state.Src[pos])
	}
	if next == ' ' || next == '\n' {
		run.canOpen = false
	}
	if last == ' ' || last == '\n' {
		run.canClose = false
	}
	if marker == '_' {
		// Underscores inside a word are literal.
		if isAlphaNum(last) {
			run.canOpen = false
		}
		if isAlphaNum(next) {
			run.canClose = false
		}
	}
	return run
}

func isAlphaNum(c int) bool {
	return 0 <= c && c < utf8.RuneSelf && (isASCIILetter(byte(c)) || isASCIIDigit(byte(c)))
}

func emphasisRule(state *InlineState, mode Mode) bool {
	start := state.Pos
	end := state.PosMax
	marker := state.Src[start]
	if marker != '_' && marker != '*' {
		return false
	}
	if mode == Validate {
		return false
	}

	run := scanDelims(state, start)
	startCount := run.count
	if !run.canOpen {
		state.Pos += startCount
		state.AppendPending(state.Src[start:state.Pos])
		return true
	}
	if state.atNestingLimit() {
		return false
	}

	// Match closers against a stack of open run lengths.
	state.Pos = start + startCount
	stack := []int{startCount}
	found := false
	for state.Pos < end {
		if state.Src[state.Pos] != marker {
			state.Parser.SkipToken(state)
			continue
		}
		run = scanDelims(state, state.Pos)
		if !run.canClose {
			if run.canOpen {
				stack = append(stack, run.count)
			}
			state.Pos += run.count
			continue
		}
		oldCount := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		newCount := run.count
		for oldCount != newCount {
			if newCount < oldCount {
				stack = append(stack, oldCount-newCount)
				break
			}
			newCount -= oldCount
			if len(stack) == 0 {
				break
			}
			state.Pos += oldCount
			oldCount = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			startCount = oldCount
			found = true
			break
		}
		state.Pos += run.count
	}
	if !found {
		state.Pos = start
		return false
	}

	state.PosMax = state.Pos
	state.Pos = start + startCount
	strong := startCount == 2 || startCount == 3
	em := startCount == 1 || startCount == 3
	if strong {
		state.pushOpen(StrongOpenKind)
	}
	if em {
		state.pushOpen(EmOpenKind)
	}
	state.Parser.Tokenize(state)
	if em {
		state.pushClose(EmCloseKind)
	}
	if strong {
		state.pushClose(StrongCloseKind)
	}
	state.Pos = state.PosMax + startCount
	state.PosMax = end
	return true
}

func subRule(state *InlineState, mode Mode) bool {
	return scriptRule(state, mode, '~', SubKind)
}

func supRule(state *InlineState, mode Mode) bool {
	return scriptRule(state, mode, '^', SupKind)
}

// unescapedSpaceRE matches whitespace that is not escaped by a backslash.
var unescapedSpaceRE = regexp.MustCompile(`(^|[^\\])(\\\\)*\s`)

// scriptRule matches a subscript or superscript like "~x~" or "^x^".
// It never matches in Validate mode.
func scriptRule(state *InlineState, mode Mode, marker byte, kind TokenKind) bool {
	start := state.Pos
	end := state.PosMax
	if state.Src[start] != marker || mode == Validate {
		return false
	}
	if start+2 >= end || state.atNestingLimit() {
		return false
	}

	found := false
	state.Pos = start + 1
	for state.Pos < end {
		if state.Src[state.Pos] == marker {
			found = true
			break
		}
		state.Parser.SkipToken(state)
	}
	if !found || state.Pos == start+1 {
		state.Pos = start
		return false
	}
	content := state.Src[start+1 : state.Pos]
	if unescapedSpaceRE.MatchString(content) {
		state.Pos = start
		return false
	}

	state.Push(&Token{
		Kind:    kind,
		Content: unescapeMarkdown(content),
		Level:   state.Level,
	})
	state.Pos++
	return true
}

var (
	numericEntityRE = regexp.MustCompile(`^&#((?:[xX][a-fA-F0-9]{1,8}|[0-9]{1,8}));`)
	namedEntityRE   = regexp.MustCompile(`^&([a-zA-Z][a-zA-Z0-9]{1,31});`)
)

func entityRule(state *InlineState, mode Mode) bool {
	pos := state.Pos
	if state.Src[pos] != '&' {
		return false
	}
	if pos+1 < state.PosMax {
		tail := state.Src[pos:state.PosMax]
		if state.Src[pos+1] == '#' {
			if m := numericEntityRE.FindStringSubmatch(tail); m != nil {
				if mode == Commit {
					r, ok := decodeNumericEntity(m[1])
					if !ok {
						r = utf8.RuneError
					}
					state.AppendPending(string(r))
				}
				state.Pos += len(m[0])
				return true
			}
		} else if m := namedEntityRE.FindStringSubmatch(tail); m != nil {
			if decoded, ok := decodeNamedEntity(m[1]); ok {
				if mode == Commit {
					state.AppendPending(decoded)
				}
				state.Pos += len(m[0])
				return true
			}
		}
	}
	if mode == Commit {
		state.AppendPending("&")
	}
	state.Pos++
	return true
}

// decodeNumericEntity decodes the part of a numeric character reference
// between "&#" and ";".
// It reports false if the code point is not allowed in a document.
func decodeNumericEntity(ref string) (rune, bool) {
	var n uint64
	var err error
	if ref != "" && (ref[0] == 'x' || ref[0] == 'X') {
		n, err = strconv.ParseUint(ref[1:], 16, 32)
	} else {
		n, err = strconv.ParseUint(ref, 10, 32)
	}
	if err != nil || !isValidEntityCode(n) {
		return 0, false
	}
	return rune(n), true
}

func isValidEntityCode(c uint64) bool {
	switch {
	case c >= 0xd800 && c <= 0xdfff:
		// Surrogates.
		return false
	case c >= 0xfdd0 && c <= 0xfdef:
		return false
	case c&0xffff == 0xffff || c&0xffff == 0xfffe:
		return false
	case c <= 0x08, c == 0x0b, c >= 0x0e && c <= 0x1f, c >= 0x7f && c <= 0x9f:
		// Control codes.
		return false
	case c > utf8.MaxRune:
		return false
	default:
		return true
	}
}

var (
	emailAutolinkRE = regexp.MustCompile("^<([a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*)>")
	autolinkRE      = regexp.MustCompile(`^<([a-zA-Z.\-]{1,25}):([^<>\x00-\x20]*)>`)
)

func autolinkRule(state *InlineState, mode Mode) bool {
	pos := state.Pos
	if state.Src[pos] != '<' {
		return false
	}
	tail := state.Src[pos:state.PosMax]
	if !strings.Contains(tail, ">") {
		return false
	}

	var url, href string
	var n int
	if m := autolinkRE.FindStringSubmatch(tail); m != nil {
		if !isURLScheme(m[1]) {
			return false
		}
		url = m[0][1 : len(m[0])-1]
		if !state.Parser.validateLink(url) {
			return false
		}
		href = normalizeLink(url)
		n = len(m[0])
	} else if m := emailAutolinkRE.FindString(tail); m != "" {
		url = m[1 : len(m)-1]
		href = normalizeLink("mailto:" + url)
		if !state.Parser.validateLink(href) {
			return false
		}
		n = len(m)
	} else {
		return false
	}

	if mode == Commit {
		state.Push(&Token{Kind: LinkOpenKind, Href: href, Level: state.Level})
		state.Push(&Token{Kind: TextKind, Content: url, Level: state.Level + 1})
		state.Push(&Token{Kind: LinkCloseKind, Level: state.Level})
	}
	state.Pos += n
	return true
}

// urlSchemes is the set of schemes recognized in autolinks.
var urlSchemes = map[string]struct{}{}

func init() {
	for _, scheme := range strings.Fields(`
		aaa aaas acap cap cid crid data dav dict dns fax file ftp geo go gopher
		h323 http https iax icap im imap info ipp iris iris.beep iris.lwz
		iris.xpc iris.xpcs jabber ldap mailto mid msrp msrps mtqp mupdate news
		nfs ni nih nntp opaquelocktoken pop pres rtsp service session shttp
		sieve sip sips sms snmp soap.beep soap.beeps tag tel telnet tftp
		thismessage tip tn3270 tv urn vemmi ws wss xcon xcon-userid xmlrpc.beep
		xmlrpc.beeps xmpp z39.50r z39.50s
		adiumxtra afp afs aim apt attachment aw beshare bitcoin bolo callto
		chrome chrome-extension com-eventbrite-attendee content cvs dlna-playcontainer
		dlna-playsingle dtn dvb ed2k facetime feed finger fish gg git gizmoproject
		gtalk hcp icon ipn irc irc6 ircs itms jar jms keyparc lastfm ldaps magnet
		maps market message mms ms-help msnim mumble mvn notes oid palm paparazzi
		platform proxy psyc query res resource rmi rsync rtmp secondlife sftp sgn
		skype smb soldat spotify ssh steam svn teamspeak things udp unreal ut2004
		ventrilo view-source webcal wtai wyciwyg xfire xri ymsgr
	`) {
		urlSchemes[scheme] = struct{}{}
	}
}

func isURLScheme(s string) bool {
	_, ok := urlSchemes[strings.ToLower(s)]
	return ok
}

var htmlTagRE = regexp.MustCompile(`^(?:` +
	// Open tag.
	`<[A-Za-z][A-Za-z0-9]*` +
	`(?:\s+[a-zA-Z_:][a-zA-Z0-9:._-]*(?:\s*=\s*(?:[^"'=<>` + "`" + `\x00-\x20]+|'[^']*'|"[^"]*"))?)*` +
	`\s*/?>` +
	// Close tag.
	`|</[A-Za-z][A-Za-z0-9]*\s*>` +
	// Comment.
	`|<!---->|<!--(?:-?[^>-])(?:-?[^-])*-->` +
	// Processing instruction.
	`|<[?].*?[?]>` +
	// Declaration.
	`|<![A-Z]+\s+[^>]*>` +
	// CDATA section.
	`|<!\[CDATA\[[\s\S]*?\]\]>` +
	`)`)

func htmlTagRule(state *InlineState, mode Mode) bool {
	if !state.Options.HTML {
		return false
	}
	pos := state.Pos
	if state.Src[pos] != '<' || pos+2 >= state.PosMax {
		return false
	}
	if c := state.Src[pos+1]; c != '!' && c != '?' && c != '/' && !isASCIILetter(c) {
		return false
	}
	m := htmlTagRE.FindString(state.Src[pos:state.PosMax])
	if m == "" {
		return false
	}
	if mode == Commit {
		state.Push(&Token{Kind: HTMLTagKind, Content: m, Level: state.Level})
	}
	state.Pos += len(m)
	return true
}
