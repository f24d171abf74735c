// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cssq

import (
	"regexp"
	"strings"
)

//
// predicates
//

type predicateKind uint8

const (
	predID predicateKind = iota
	predTag
	predClass
	predAttr
	predPseudo
	predNot
)

// A predicate is one condition of a compiled segment.
type predicate struct {
	kind   predicateKind
	name   string         // id, tag, class, attribute or pseudo name
	op     string         // attribute operator
	value  string         // attribute value or pseudo argument
	re     *regexp.Regexp // class or pattern-based attribute rule
	pseudo PseudoFunc
	not    *Query
}

func (p *predicate) eval(n Node, st *State) (bool, error) {
	switch p.kind {
	case predID:
		return n.ID() == p.name, nil
	case predTag:
		return strings.EqualFold(n.Tag(), p.name), nil
	case predClass:
		c := n.Class()
		return c != "" && p.re.MatchString(c), nil
	case predAttr:
		return p.evalAttr(n), nil
	case predPseudo:
		return p.pseudo(n, p.value, st)
	case predNot:
		ok, err := p.not.matchState(n, st)
		return !ok, err
	}
	return false, nil
}

func (p *predicate) evalAttr(n Node) bool {
	v, ok := n.Attr(p.name)
	switch p.op {
	case "":
		return ok
	case "=":
		return ok && v == p.value
	case "!=":
		return !ok || v != p.value
	}
	if !ok || p.re == nil {
		return false
	}
	return p.re.MatchString(v)
}

// A chain is an ordered list of predicates evaluated left to right. An
// empty chain accepts every node.
type chain []*predicate

func (c chain) eval(n Node, st *State) (bool, error) {
	for _, p := range c {
		ok, err := p.eval(n, st)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

//
// compiled segments
//

// strategy is the way a compiled segment fetches its candidate nodes.
type strategy uint8

const (
	searchByID        strategy = iota // id lookup
	searchByClass                     // native class-set query
	searchByClassScan                 // tag query filtered by one class
	searchByTag                       // tag query
	searchAll                         // every descendant element
)

// A selector is the compiled form of a Segment.
//
// search fetches candidates cheaply, matchSearch holds the conditions that
// search already guarantees, and matchAux holds everything else. match is
// the two combined. A simple selector has an empty matchAux, so search
// results need no further checks.
type selector struct {
	strategy    strategy
	tree        Tree
	tag         string
	id          string
	classes     string
	classRe     *regexp.Regexp
	matchSearch chain
	matchAux    chain
	match       chain
	simple      bool
	combine     combinatorFunc
}

// compute compiles one segment, choosing the cheapest search strategy its
// shape allows: id, then classes, then tag, then a full scan.
func (e *Engine) compute(seg *Segment) *selector {
	s := &selector{tree: e.tree, tag: seg.Tag, id: seg.ID}
	tagged := false
	searching := false

	if seg.ID != "" {
		s.strategy, searching, tagged = searchByID, true, true
		s.matchSearch = append(s.matchSearch, &predicate{kind: predID, name: seg.ID})
	}

	if len(seg.Classes) > 0 {
		_, native := e.tree.(ClassQuerier)
		switch {
		case !searching && native:
			s.strategy, searching = searchByClass, true
			s.classes = strings.Join(seg.Classes, " ")
			for _, c := range seg.Classes {
				s.matchSearch = append(s.matchSearch, classPredicate(c))
			}
		case !searching && len(seg.Classes) == 1:
			s.strategy, searching, tagged = searchByClassScan, true, true
			p := classPredicate(seg.Classes[0])
			s.classRe = p.re
			s.matchSearch = append(s.matchSearch, p)
		default:
			for _, c := range seg.Classes {
				s.matchAux = append(s.matchAux, classPredicate(c))
			}
		}
	}

	if seg.Tag != "" {
		tag := &predicate{kind: predTag, name: seg.Tag}
		switch {
		case !searching:
			s.strategy, searching = searchByTag, true
			s.matchSearch = append(s.matchSearch, tag)
		case tagged:
			s.matchSearch = append(s.matchSearch, tag)
		default:
			s.matchAux = append(s.matchAux, tag)
		}
	} else if !searching {
		s.strategy = searchAll
	}

	for _, ps := range seg.Pseudos {
		s.matchAux = append(s.matchAux, e.pseudoPredicate(ps))
	}

	for _, a := range seg.Attrs {
		s.matchAux = append(s.matchAux, e.attrPredicate(a))
	}

	s.simple = len(s.matchAux) == 0
	s.match = append(append(chain(nil), s.matchSearch...), s.matchAux...)

	c := seg.Combinator
	if c == NoCombinator {
		c = Descendant
	}
	s.combine = combinators[c]

	return s
}

func classPredicate(name string) *predicate {
	return &predicate{kind: predClass, name: name, re: compileClassPattern(name)}
}

func (e *Engine) pseudoPredicate(ps PseudoClause) *predicate {
	if ps.Name == "not" {
		return &predicate{kind: predNot, name: ps.Name, value: ps.Value, not: e.Compile(ps.Value)}
	}

	if fn := e.lookupPseudo(ps.Name); fn != nil {
		return &predicate{kind: predPseudo, name: ps.Name, value: ps.Value, pseudo: fn}
	}

	// Unknown pseudo-classes are read as attribute clauses: :foo tests
	// that attribute foo exists and :foo(bar) that it equals bar.
	e.log.Debug().Str("pseudo", ps.Name).Msg("unknown pseudo-class, matching it as an attribute")
	a := AttrClause{Name: ps.Name}
	if ps.HasValue {
		a.Op, a.Value, a.HasValue = "=", ps.Value, true
	}
	return e.attrPredicate(a)
}

func (e *Engine) attrPredicate(a AttrClause) *predicate {
	p := &predicate{kind: predAttr, name: a.Name, op: a.Op, value: a.Value}
	switch a.Op {
	case "", "=", "!=":
	default:
		p.re = compileAttrPattern(e.lookupOperator(a.Op), a.Value)
	}
	return p
}

// search returns the candidate nodes of the selector below root.
func (s *selector) search(root Node) []Node {
	switch s.strategy {
	case searchByID:
		return s.searchID(root)
	case searchByClass:
		return s.tree.(ClassQuerier).ByClass(root, s.classes)
	case searchByClassScan:
		var found []Node
		for _, n := range s.tree.ByTag(root, s.tagOrAll()) {
			if c := n.Class(); c != "" && s.classRe.MatchString(c) {
				found = append(found, n)
			}
		}
		return found
	case searchByTag:
		return s.tree.ByTag(root, s.tag)
	default:
		return s.tree.ByTag(root, "*")
	}
}

func (s *selector) searchID(root Node) []Node {
	if q, ok := s.tree.(IDQuerier); ok {
		n := q.ByID(root, s.id)
		if n != nil && (s.tag == "" || strings.EqualFold(n.Tag(), s.tag)) {
			return []Node{n}
		}
		return nil
	}

	for _, n := range s.tree.ByTag(root, s.tagOrAll()) {
		if n.ID() == s.id {
			return []Node{n}
		}
	}
	return nil
}

func (s *selector) tagOrAll() string {
	if s.tag == "" {
		return "*"
	}
	return s.tag
}
