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
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateRule is returned when a rule is registered
	// under a name that is already in use.
	ErrDuplicateRule = errors.New("duplicate rule name")
	// ErrUnknownRule is returned when a rule name is not registered.
	ErrUnknownRule = errors.New("unknown rule")
)

// A Ruler is an ordered collection of named rules.
// Each rule may belong to any number of chains,
// which are labels that let one rule ask whether any rule
// in a group would claim the input at a position
// without knowing which rules are in the group.
//
// A Ruler must not be modified while a parse that uses it is in progress.
// Calls to [*Ruler.Rules] may happen concurrently.
type Ruler[T any] struct {
	rules []ruleEntry[T]

	mu    sync.Mutex
	cache map[string][]T // chain -> enabled rules, nil when stale
}

type ruleEntry[T any] struct {
	name    string
	fn      T
	chains  []string
	enabled bool
}

// Register appends a rule to the end of the ruler.
// The rule is enabled.
// Register returns an error wrapping [ErrDuplicateRule]
// if a rule with the same name is already registered.
func (r *Ruler[T]) Register(name string, fn T, chains ...string) error {
	if r.find(name) >= 0 {
		return fmt.Errorf("register rule %q: %w", name, ErrDuplicateRule)
	}
	r.rules = append(r.rules, newRuleEntry(name, fn, chains))
	r.invalidate()
	return nil
}

// Before inserts a rule immediately before the rule named anchor.
func (r *Ruler[T]) Before(anchor string, name string, fn T, chains ...string) error {
	return r.insert(anchor, 0, name, fn, chains)
}

// After inserts a rule immediately after the rule named anchor.
func (r *Ruler[T]) After(anchor string, name string, fn T, chains ...string) error {
	return r.insert(anchor, 1, name, fn, chains)
}

func (r *Ruler[T]) insert(anchor string, offset int, name string, fn T, chains []string) error {
	i := r.find(anchor)
	if i < 0 {
		return fmt.Errorf("insert rule %q: %q: %w", name, anchor, ErrUnknownRule)
	}
	if r.find(name) >= 0 {
		return fmt.Errorf("insert rule %q: %w", name, ErrDuplicateRule)
	}
	i += offset
	r.rules = append(r.rules, ruleEntry[T]{})
	copy(r.rules[i+1:], r.rules[i:])
	r.rules[i] = newRuleEntry(name, fn, chains)
	r.invalidate()
	return nil
}

func newRuleEntry[T any](name string, fn T, chains []string) ruleEntry[T] {
	return ruleEntry[T]{
		name:    name,
		fn:      fn,
		chains:  append([]string(nil), chains...),
		enabled: true,
	}
}

// Enable enables the named rules.
// If any name is not registered, Enable returns an error wrapping [ErrUnknownRule]
// and the ruler is not modified.
func (r *Ruler[T]) Enable(names ...string) error {
	return r.setEnabled(names, true)
}

// Disable disables the named rules.
// If any name is not registered, Disable returns an error wrapping [ErrUnknownRule]
// and the ruler is not modified.
func (r *Ruler[T]) Disable(names ...string) error {
	return r.setEnabled(names, false)
}

// EnableOnly enables the named rules and disables all others.
func (r *Ruler[T]) EnableOnly(names ...string) error {
	for _, name := range names {
		if r.find(name) < 0 {
			return fmt.Errorf("enable rule %q: %w", name, ErrUnknownRule)
		}
	}
	for i := range r.rules {
		r.rules[i].enabled = false
	}
	return r.setEnabled(names, true)
}

func (r *Ruler[T]) setEnabled(names []string, enabled bool) error {
	indices := make([]int, 0, len(names))
	for _, name := range names {
		i := r.find(name)
		if i < 0 {
			verb := "disable"
			if enabled {
				verb = "enable"
			}
			return fmt.Errorf("%s rule %q: %w", verb, name, ErrUnknownRule)
		}
		indices = append(indices, i)
	}
	for _, i := range indices {
		r.rules[i].enabled = enabled
	}
	r.invalidate()
	return nil
}

// IsEnabled reports whether the named rule is registered and enabled.
func (r *Ruler[T]) IsEnabled(name string) bool {
	i := r.find(name)
	return i >= 0 && r.rules[i].enabled
}

// Names returns the names of all registered rules in order,
// including disabled rules.
func (r *Ruler[T]) Names() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.name
	}
	return names
}

// Rules returns the enabled rules that belong to the given chain, in order.
// The empty chain returns every enabled rule.
// The returned slice is shared and must not be modified.
func (r *Ruler[T]) Rules(chain string) []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fns, ok := r.cache[chain]; ok {
		return fns
	}
	var fns []T
	for _, rule := range r.rules {
		if rule.enabled && (chain == "" || rule.inChain(chain)) {
			fns = append(fns, rule.fn)
		}
	}
	if r.cache == nil {
		r.cache = make(map[string][]T)
	}
	r.cache[chain] = fns
	return fns
}

func (r *Ruler[T]) invalidate() {
	r.mu.Lock()
	r.cache = nil
	r.mu.Unlock()
}

func (r *Ruler[T]) find(name string) int {
	for i, rule := range r.rules {
		if rule.name == name {
			return i
		}
	}
	return -1
}

func (rule *ruleEntry[T]) inChain(chain string) bool {
	for _, c := range rule.chains {
		if c == chain {
			return true
		}
	}
	return false
}
