// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cssq

import "github.com/bits-and-blooms/bitset"

// A State holds the scratch data of one top-level Search, Find, Match or
// Filter call. It is created fresh for each call and is never shared
// between calls, so it needs no locking.
//
// Node identities live in a side table owned by the State; nothing is ever
// attached to the nodes themselves. Identities are dense, starting from
// zero, and stable for the lifetime of the State.
type State struct {
	ids       map[Node]uint
	positions map[uint]int
	values    map[string]any
}

func newState() *State {
	return &State{ids: make(map[Node]uint)}
}

// ID returns the identity of n, assigning the next free one the first time
// n is seen.
func (s *State) ID(n Node) uint {
	id, ok := s.ids[n]
	if !ok {
		id = uint(len(s.ids))
		s.ids[n] = id
	}
	return id
}

// Position returns the number of element siblings preceding n. Positions
// are cached by identity; the backward walk stops at the first sibling
// whose position is already known.
func (s *State) Position(n Node) int {
	if s.positions == nil {
		s.positions = make(map[uint]int)
	}

	id := s.ID(n)
	if pos, ok := s.positions[id]; ok {
		return pos
	}

	count := 0
	for sib := prevElement(n); sib != nil; sib = prevElement(sib) {
		count++
		if pos, ok := s.positions[s.ID(sib)]; ok {
			count += pos
			break
		}
	}

	s.positions[id] = count
	return count
}

// Value returns scratch data stored by a pseudo-class under key.
func (s *State) Value(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// SetValue stores scratch data for the rest of the current call.
func (s *State) SetValue(key string, v any) {
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = v
}

// A guard admits each node identity at most once. A pass guard admits
// everything without recording it.
type guard struct {
	st   *State
	seen *bitset.BitSet
	pass bool
}

func (s *State) newGuard() *guard {
	return &guard{st: s, seen: bitset.New(uint(len(s.ids)))}
}

func (s *State) passGuard() *guard {
	return &guard{st: s, pass: true}
}

// admit reports whether n has not been seen by the guard yet, and marks it
// as seen.
func (g *guard) admit(n Node) bool {
	if g.pass {
		return true
	}
	id := g.st.ID(n)
	if g.seen.Test(id) {
		return false
	}
	g.seen.Set(id)
	return true
}
