// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cssq

import "strings"

// A Combinator is the relation linking a segment to the previous segment of
// its group.
type Combinator byte

const (
	NoCombinator Combinator = 0
	Descendant   Combinator = ' '
	Child        Combinator = '>'
	Adjacent     Combinator = '+'
	Sibling      Combinator = '~'
)

func (c Combinator) String() string {
	switch c {
	case NoCombinator:
		return ""
	case Descendant:
		return "descendant"
	case Child:
		return "child"
	case Adjacent:
		return "adjacent-sibling"
	case Sibling:
		return "general-sibling"
	default:
		return string(c)
	}
}

// An AttrClause is one bracketed attribute condition. An empty Op means
// the clause only checks that the attribute exists.
type AttrClause struct {
	Name     string
	Op       string
	Value    string
	HasValue bool
}

// A PseudoClause is one colon-prefixed pseudo-class with its optional
// argument.
type PseudoClause struct {
	Name     string
	Value    string
	HasValue bool
}

// A Segment is one simple selector such as div.foo[bar=baz]:first-child,
// together with the combinator that links it to the previous segment of its
// group. An empty Tag stands for the universal selector.
//
// First and Last mark the boundaries of a comma-separated group. Raw holds
// the texts of every token that built the segment.
type Segment struct {
	Tag        string
	ID         string
	Classes    []string
	Attrs      []AttrClause
	Pseudos    []PseudoClause
	Combinator Combinator
	First      bool
	Last       bool
	Raw        []string
}

// key identifies a segment's compiled form. Group boundaries do not take
// part in compilation, so they are not part of the key.
func (s *Segment) key() string {
	return string(s.Combinator) + "\x00" + strings.Join(s.Raw, "\x00")
}

// blank reports whether the segment was built from no tokens at all.
func (s *Segment) blank() bool {
	return len(s.Raw) == 0 && s.Combinator == NoCombinator
}

// A parser turns a token stream into segments.
type parser struct {
	segments []*Segment
	current  *Segment
}

func newSegment(c Combinator) *Segment {
	return &Segment{Combinator: c}
}

// refresh closes the current segment and opens a new one linked to it by
// the combinator c.
func (p *parser) refresh(c Combinator) {
	p.segments = append(p.segments, p.current)
	p.current = newSegment(c)
}

func (p *parser) parse(t *Tokenizer) []*Segment {
	p.segments = nil
	p.current = newSegment(NoCombinator)
	p.current.First = true

	for tok, ok := t.Next(); ok; tok, ok = t.Next() {
		cur := p.current

		switch tok.Kind {
		case TokenClass:
			cur.Classes = append(cur.Classes, tok.Name)
		case TokenID:
			cur.ID = tok.Name
		case TokenAttribute:
			cur.Attrs = append(cur.Attrs, AttrClause{
				Name:     tok.Name,
				Op:       tok.Op,
				Value:    tok.Value,
				HasValue: tok.HasValue,
			})
		case TokenPseudo:
			cur.Pseudos = append(cur.Pseudos, PseudoClause{
				Name:     tok.Name,
				Value:    tok.Value,
				HasValue: tok.HasValue,
			})
		case TokenComma:
			cur.Last = true
			p.refresh(NoCombinator)
			p.current.First = true
			continue
		case TokenSpace, TokenCombinator:
			c := Combinator(tok.Op[0])
			if cur.First && len(cur.Raw) == 0 {
				// A combinator opening a group scopes the whole group
				// against the search context.
				cur.Combinator = c
			} else {
				p.refresh(c)
			}
		case TokenTag:
			cur.Tag = tok.Name
		case TokenUniversal:
			cur.Tag = ""
		}

		p.current.Raw = append(p.current.Raw, tok.Text)
	}

	p.current.Last = true
	p.segments = append(p.segments, p.current)
	return p.segments
}

// dropBlankGroups removes groups made of a single token-less segment, such
// as the one left behind by a trailing comma.
func dropBlankGroups(segs []*Segment) []*Segment {
	out := segs[:0:0]
	for _, s := range segs {
		if s.First && s.Last && s.blank() {
			continue
		}
		out = append(out, s)
	}
	return out
}

// splitGroups splits a segment list at its group boundaries.
func splitGroups(segs []*Segment) [][]*Segment {
	var groups [][]*Segment
	var g []*Segment
	for _, s := range segs {
		g = append(g, s)
		if s.Last {
			groups = append(groups, g)
			g = nil
		}
	}
	return groups
}
