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
)

func TestWalk(t *testing.T) {
	tokens, _ := NewParser(PresetDefault).Parse("# a\n\n- b *c*")

	describe := func(prefix string, c *Cursor) string {
		s := prefix + " " + c.Token().Kind.String()
		if p := c.Parent(); p != nil {
			s += " in " + p.Kind.String()
		}
		return s
	}
	var got []string
	Walk(tokens, &WalkOptions{
		Pre: func(c *Cursor) bool {
			got = append(got, describe("pre", c))
			return true
		},
		Post: func(c *Cursor) bool {
			got = append(got, describe("post", c))
			return true
		},
	})
	want := []string{
		"pre heading_open",
		"pre inline in heading_open",
		"pre text in inline",
		"post text in inline",
		"post inline in heading_open",
		"post heading_open",
		"pre bullet_list_open",
		"pre list_item_open in bullet_list_open",
		"pre paragraph_open in list_item_open",
		"pre inline in paragraph_open",
		"pre text in inline",
		"post text in inline",
		"pre em_open in inline",
		"pre text in em_open",
		"post text in em_open",
		"post em_open in inline",
		"post inline in paragraph_open",
		"post paragraph_open in list_item_open",
		"post list_item_open in bullet_list_open",
		"post bullet_list_open",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("visits (-want +got):\n%s", diff)
	}
}

func TestWalkSkipChildren(t *testing.T) {
	tokens, _ := NewParser(PresetDefault).Parse("- a\n\nb")
	var got []string
	Walk(tokens, &WalkOptions{
		Pre: func(c *Cursor) bool {
			got = append(got, c.Token().Kind.String())
			return c.Token().Kind != BulletListOpenKind
		},
	})
	want := []string{
		"bullet_list_open",
		"paragraph_open",
		"inline",
		"text",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("visits (-want +got):\n%s", diff)
	}
}

func TestWalkStop(t *testing.T) {
	tokens, _ := NewParser(PresetDefault).Parse("a\n\nb")
	n := 0
	Walk(tokens, &WalkOptions{
		Post: func(c *Cursor) bool {
			n++
			return c.Token().Kind != TextKind
		},
	})
	if n != 1 {
		t.Errorf("Post called %d times; want 1", n)
	}
}
