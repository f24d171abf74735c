// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cssq

/*
A Query is a compiled selector list such as "ul > li.item, p:first-child".

The following selector syntax is supported:

    tag                 Elements with the given tag (case-insensitive).
    *                   Any element.
    #id                 Elements with the given id.
    .class              Elements carrying the class.
    [attr]              Elements having the attribute.
    [attr=val]          Attribute equals val.
    [attr!=val]         Attribute missing or not equal to val.
    [attr^=val]         Attribute starts with val.
    [attr$=val]         Attribute ends with val.
    [attr*=val]         Attribute contains val.
    [attr~=val]         Attribute has val as a whitespace-separated word.
    [attr|=val]         Attribute has val as a hyphen-separated word.

Attribute values may be bare, 'single-quoted' or "double-quoted".

Combinators:

    A B                 B descendant of A.
    A > B               B child of A.
    A + B               B immediately following A.
    A ~ B               B following A.
    A, B                Elements matching A or B, each reported once.

A group may begin with a combinator, which relates it to the search context
itself: "> li" selects the li children of the context.

Pseudo-classes:

    :first-child :last-child :only-child
    :nth-child(an+b)    Also odd, even, first, last, only and a bare index.
    :even :odd          Shorthands for nth-child(2n) and nth-child(2n+1).
    :empty              Elements with no text content.
    :contains(text)     Elements whose text content contains text.
    :index(n)           Elements preceded by exactly n element siblings.
    :not(selector)      Elements not matching the selector.

An unknown pseudo-class :name(value) is read as the attribute clause
[name=value], or [name] when it has no argument.
*/
type Query struct {
	text     string
	engine   *Engine
	segments []*Segment
	steps    []*selector // compiled form of each segment
	standard bool        // every clause has its CSS meaning
}

// Text returns the selector text the query was compiled from.
func (q *Query) Text() string {
	return q.text
}

// Empty reports whether the query has no selectors at all. An empty query
// matches nothing.
func (q *Query) Empty() bool {
	return len(q.segments) == 0
}

// Segments returns the query's segments in order, across all groups.
func (q *Query) Segments() []*Segment {
	return q.segments
}

// Groups returns the query's segments split into comma-separated groups.
func (q *Query) Groups() [][]*Segment {
	return splitGroups(q.segments)
}

// Search returns, without duplicates, every element below ctx that matches
// the query. A node matched by several groups is reported once.
func (q *Query) Search(ctx Node) ([]Node, error) {
	if q.Empty() || ctx == nil {
		return nil, nil
	}
	ctx = contextNode(ctx)
	if nodes, ok := q.engine.bulkQuery(ctx, q); ok {
		return nodes, nil
	}
	return q.search(ctx, newState())
}

func (q *Query) search(ctx Node, st *State) ([]Node, error) {
	var (
		results  []Node // final matches of the finished groups
		nodes    []Node // context nodes for the next segment
		finished bool   // at least one group has finished
		all      = st.newGuard()
	)

	for i, seg := range q.segments {
		s := q.steps[i]

		g := st.newGuard()
		if seg.First {
			if !finished {
				g = st.passGuard()
			}
			if seg.Combinator != NoCombinator {
				nodes = []Node{ctx}
			}
		}

		var combined []Node
		var err error
		if seg.Combinator == NoCombinator {
			combined, err = s.combine(s, nil, ctx, st, g, true)
		} else {
			for _, n := range nodes {
				if combined, err = s.combine(s, combined, n, st, g, false); err != nil {
					break
				}
			}
		}
		if err != nil {
			return nil, err
		}

		if !seg.Last {
			nodes = combined
			continue
		}

		for _, n := range combined {
			if all.admit(n) {
				results = append(results, n)
			}
		}
		finished = true
	}

	return results, nil
}

// Find returns the first element below ctx matching the query, or nil.
func (q *Query) Find(ctx Node) (Node, error) {
	nodes, err := q.Search(ctx)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0], nil
}

// Match tests a single node against the first segment of the query,
// without looking at the tree around it. An empty query matches nothing.
func (q *Query) Match(n Node) (bool, error) {
	return q.matchState(n, newState())
}

func (q *Query) matchState(n Node, st *State) (bool, error) {
	if q.Empty() || n == nil || !n.IsElement() {
		return false, nil
	}
	return q.steps[0].match.eval(n, st)
}

// Filter returns the nodes matching the query, in their original order.
func (q *Query) Filter(nodes []Node) ([]Node, error) {
	st := newState()
	var out []Node
	for _, n := range nodes {
		ok, err := q.matchState(n, st)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, n)
		}
	}
	return out, nil
}
