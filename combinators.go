// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cssq

// A combinatorFunc applies a compiled segment relative to the context node
// ctx, appending the nodes it selects to combined. The guard rejects nodes
// already produced during the current step. fast is set when combined is
// empty and nothing needs deduplicating, allowing a simple selector to
// return its search results untouched.
type combinatorFunc func(s *selector, combined []Node, ctx Node, st *State, g *guard, fast bool) ([]Node, error)

var combinators = map[Combinator]combinatorFunc{
	Descendant: combineDescendant,
	Child:      combineChild,
	Adjacent:   combineAdjacent,
	Sibling:    combineSibling,
}

func combineDescendant(s *selector, combined []Node, ctx Node, st *State, g *guard, fast bool) ([]Node, error) {
	nodes := s.search(ctx)
	if fast && s.simple {
		return append(combined, nodes...), nil
	}

	for _, n := range nodes {
		if !g.admit(n) {
			continue
		}
		ok, err := s.matchAux.eval(n, st)
		if err != nil {
			return combined, err
		}
		if ok {
			combined = append(combined, n)
		}
	}
	return combined, nil
}

func combineChild(s *selector, combined []Node, ctx Node, st *State, g *guard, _ bool) ([]Node, error) {
	for _, n := range s.search(ctx) {
		if n.Parent() != ctx || !g.admit(n) {
			continue
		}
		ok, err := s.matchAux.eval(n, st)
		if err != nil {
			return combined, err
		}
		if ok {
			combined = append(combined, n)
		}
	}
	return combined, nil
}

// combineAdjacent only ever considers the first element sibling after ctx.
func combineAdjacent(s *selector, combined []Node, ctx Node, st *State, g *guard, _ bool) ([]Node, error) {
	n := nextElement(ctx)
	if n == nil || !g.admit(n) {
		return combined, nil
	}
	ok, err := s.match.eval(n, st)
	if err != nil {
		return combined, err
	}
	if ok {
		combined = append(combined, n)
	}
	return combined, nil
}

// combineSibling walks every following element sibling of ctx. Reaching a
// sibling the guard has already seen means an earlier context walked the
// rest of the list, so the walk stops there.
func combineSibling(s *selector, combined []Node, ctx Node, st *State, g *guard, _ bool) ([]Node, error) {
	for n := nextElement(ctx); n != nil; n = nextElement(n) {
		if !g.admit(n) {
			break
		}
		ok, err := s.match.eval(n, st)
		if err != nil {
			return combined, err
		}
		if ok {
			combined = append(combined, n)
		}
	}
	return combined, nil
}
