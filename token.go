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
	"strings"
)

// A Token is a single element of the token stream produced by a [Parser].
// Block-level tokens form a flat sequence of open/close pairs and leaves;
// tokens of [InlineKind] hold their parsed content in Children.
//
// Fields that do not apply to a token's kind are left as zero values.
type Token struct {
	Kind  TokenKind
	Level int // nesting depth of open tokens enclosing this one

	// Lines is the half-open range of source lines a block token covers.
	// It is only set for block-level tokens.
	Lines [2]int

	// Content is the raw text of text, code, inline, and HTML tokens.
	Content  string
	Children []*Token

	// Tight is set on paragraph tokens inside tight lists
	// and on list open tokens for lists without blank lines between items.
	Tight bool

	Params string // fence info string
	HLevel int    // heading level (1-6)
	Order  int    // ordered list start number
	Align  string // table cell alignment: "", "left", "center", or "right"

	Href  string // link destination
	Src   string // image source
	Title string // link, image, or abbreviation title
	Alt   string // image alternate text (unparsed)

	Label string // footnote label
	ID    int    // footnote number (zero-based)
	SubID int    // footnote reference occurrence
}

// TokenKind is an enumeration of values in [Token.Kind].
type TokenKind uint16

// Block-level token kinds.
const (
	ParagraphOpenKind TokenKind = 1 + iota
	ParagraphCloseKind
	InlineKind
	BlockquoteOpenKind
	BlockquoteCloseKind
	CodeBlockKind
	FenceKind
	HTMLBlockKind
	HRKind
	HeadingOpenKind
	HeadingCloseKind
	BulletListOpenKind
	BulletListCloseKind
	OrderedListOpenKind
	OrderedListCloseKind
	ListItemOpenKind
	ListItemCloseKind
	TableOpenKind
	TableCloseKind
	TheadOpenKind
	TheadCloseKind
	TbodyOpenKind
	TbodyCloseKind
	TROpenKind
	TRCloseKind
	THOpenKind
	THCloseKind
	TDOpenKind
	TDCloseKind
	DLOpenKind
	DLCloseKind
	DTOpenKind
	DTCloseKind
	DDOpenKind
	DDCloseKind
	FootnoteReferenceOpenKind
	FootnoteReferenceCloseKind
	FootnoteBlockOpenKind
	FootnoteBlockCloseKind
	FootnoteOpenKind
	FootnoteCloseKind
	FootnoteAnchorKind

	// Inline token kinds.

	TextKind
	SoftbreakKind
	HardbreakKind
	CodeSpanKind
	StrongOpenKind
	StrongCloseKind
	EmOpenKind
	EmCloseKind
	DelOpenKind
	DelCloseKind
	InsOpenKind
	InsCloseKind
	MarkOpenKind
	MarkCloseKind
	SubKind
	SupKind
	LinkOpenKind
	LinkCloseKind
	ImageKind
	FootnoteRefKind
	HTMLTagKind
	AbbrOpenKind
	AbbrCloseKind

	maxTokenKind
)

var tokenKindNames = [...]string{
	ParagraphOpenKind:          "paragraph_open",
	ParagraphCloseKind:         "paragraph_close",
	InlineKind:                 "inline",
	BlockquoteOpenKind:         "blockquote_open",
	BlockquoteCloseKind:        "blockquote_close",
	CodeBlockKind:              "code_block",
	FenceKind:                  "fence",
	HTMLBlockKind:              "htmlblock",
	HRKind:                     "hr",
	HeadingOpenKind:            "heading_open",
	HeadingCloseKind:           "heading_close",
	BulletListOpenKind:         "bullet_list_open",
	BulletListCloseKind:        "bullet_list_close",
	OrderedListOpenKind:        "ordered_list_open",
	OrderedListCloseKind:       "ordered_list_close",
	ListItemOpenKind:           "list_item_open",
	ListItemCloseKind:          "list_item_close",
	TableOpenKind:              "table_open",
	TableCloseKind:             "table_close",
	TheadOpenKind:              "thead_open",
	TheadCloseKind:             "thead_close",
	TbodyOpenKind:              "tbody_open",
	TbodyCloseKind:             "tbody_close",
	TROpenKind:                 "tr_open",
	TRCloseKind:                "tr_close",
	THOpenKind:                 "th_open",
	THCloseKind:                "th_close",
	TDOpenKind:                 "td_open",
	TDCloseKind:                "td_close",
	DLOpenKind:                 "dl_open",
	DLCloseKind:                "dl_close",
	DTOpenKind:                 "dt_open",
	DTCloseKind:                "dt_close",
	DDOpenKind:                 "dd_open",
	DDCloseKind:                "dd_close",
	FootnoteReferenceOpenKind:  "footnote_reference_open",
	FootnoteReferenceCloseKind: "footnote_reference_close",
	FootnoteBlockOpenKind:      "footnote_block_open",
	FootnoteBlockCloseKind:     "footnote_block_close",
	FootnoteOpenKind:           "footnote_open",
	FootnoteCloseKind:          "footnote_close",
	FootnoteAnchorKind:         "footnote_anchor",
	TextKind:                   "text",
	SoftbreakKind:              "softbreak",
	HardbreakKind:              "hardbreak",
	CodeSpanKind:               "code_span",
	StrongOpenKind:             "strong_open",
	StrongCloseKind:            "strong_close",
	EmOpenKind:                 "em_open",
	EmCloseKind:                "em_close",
	DelOpenKind:                "del_open",
	DelCloseKind:               "del_close",
	InsOpenKind:                "ins_open",
	InsCloseKind:               "ins_close",
	MarkOpenKind:               "mark_open",
	MarkCloseKind:              "mark_close",
	SubKind:                    "sub",
	SupKind:                    "sup",
	LinkOpenKind:               "link_open",
	LinkCloseKind:              "link_close",
	ImageKind:                  "image",
	FootnoteRefKind:            "footnote_ref",
	HTMLTagKind:                "htmltag",
	AbbrOpenKind:               "abbr_open",
	AbbrCloseKind:              "abbr_close",
}

func (kind TokenKind) String() string {
	if kind > 0 && kind < maxTokenKind {
		return tokenKindNames[kind]
	}
	return fmt.Sprintf("TokenKind(%d)", uint16(kind))
}

// IsOpen reports whether kind opens a container
// that a token of the corresponding close kind ends.
func (kind TokenKind) IsOpen() bool {
	return strings.HasSuffix(kind.String(), "_open")
}

// IsClose reports whether kind ends a container.
func (kind TokenKind) IsClose() bool {
	return strings.HasSuffix(kind.String(), "_close")
}
