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

// A Cursor describes a [Token] encountered during [Walk].
type Cursor struct {
	token  *Token
	parent *Token
}

// Token returns the current [Token].
// For a container, this is its open token.
func (c *Cursor) Token() *Token {
	return c.token
}

// Parent returns the open token or [InlineKind] token
// that encloses the current token,
// or nil if the current token is at the top level.
func (c *Cursor) Parent() *Token {
	return c.parent
}

// WalkOptions is the set of parameters to [Walk].
type WalkOptions struct {
	// If Pre is not nil, it is called for each token before the token's contents are traversed (pre-order).
	// The contents of an open token are the tokens up to its matching close token;
	// the contents of an [InlineKind] token are its children.
	// If Pre returns false, no contents are traversed, and Post is not called for that token.
	Pre func(c *Cursor) bool
	// If Post is not nil, it is called for each token after the token's contents are traversed (post-order).
	// Close tokens are not visited on their own;
	// Post is called for the open token when its close token is reached.
	// If Post returns false, traversal is terminated and Walk returns immediately.
	Post func(c *Cursor) bool
}

// Walk traverses a token stream as a tree,
// calling [WalkOptions.Pre] and [WalkOptions.Post].
func Walk(tokens []*Token, opts *WalkOptions) {
	type walkFrame struct {
		tokens []*Token
		pos    int
		// open is the stack of containers entered within tokens.
		open []*Token
		// inline is the token whose children are tokens, if any.
		inline *Token
		parent *Token
	}

	stack := []*walkFrame{{tokens: tokens}}
	cursor := new(Cursor)
	post := func(tok, parent *Token) bool {
		if opts.Post == nil {
			return true
		}
		cursor.token = tok
		cursor.parent = parent
		return opts.Post(cursor)
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		enclosing := f.inline
		if len(f.open) > 0 {
			enclosing = f.open[len(f.open)-1]
		}
		if f.pos >= len(f.tokens) {
			stack = stack[:len(stack)-1]
			if f.inline != nil && !post(f.inline, f.parent) {
				return
			}
			continue
		}
		tok := f.tokens[f.pos]
		f.pos++

		if tok.Kind.IsClose() && len(f.open) > 0 {
			f.open = f.open[:len(f.open)-1]
			parent := f.inline
			if len(f.open) > 0 {
				parent = f.open[len(f.open)-1]
			}
			if !post(enclosing, parent) {
				return
			}
			continue
		}

		if opts.Pre != nil {
			cursor.token = tok
			cursor.parent = enclosing
			if !opts.Pre(cursor) {
				if tok.Kind.IsOpen() {
					f.pos = matchingClose(f.tokens, f.pos-1) + 1
				}
				continue
			}
		}
		switch {
		case tok.Kind.IsOpen():
			f.open = append(f.open, tok)
		case tok.Kind == InlineKind:
			stack = append(stack, &walkFrame{
				tokens: tok.Children,
				inline: tok,
				parent: enclosing,
			})
		default:
			if !post(tok, enclosing) {
				return
			}
		}
	}
}

// matchingClose returns the index of the token that closes tokens[open],
// or len(tokens)-1 if the container is not closed.
func matchingClose(tokens []*Token, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		switch {
		case tokens[i].Kind.IsOpen():
			depth++
		case tokens[i].Kind.IsClose():
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(tokens) - 1
}
