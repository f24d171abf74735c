// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cssq

import "strings"

// ElementTree is the Tree of the element trees built by this package. It
// also answers id and class lookups natively.
type ElementTree struct{}

// ByTag returns the descendant elements of root whose tag matches tag,
// ignoring case, in document order.
func (ElementTree) ByTag(root Node, tag string) []Node {
	var out []Node
	walkElements(root, func(e *Element) bool {
		if tag == "*" || strings.EqualFold(e.Name, tag) {
			out = append(out, e)
		}
		return true
	})
	return out
}

// ByID returns the first descendant element of root with the given id.
func (ElementTree) ByID(root Node, id string) Node {
	var found Node
	walkElements(root, func(e *Element) bool {
		if e.ID() == id {
			found = e
			return false
		}
		return true
	})
	return found
}

// ByClass returns the descendant elements of root carrying every class of
// the space-separated list classes.
func (ElementTree) ByClass(root Node, classes string) []Node {
	want := strings.Fields(classes)
	var out []Node
	walkElements(root, func(e *Element) bool {
		if hasClasses(e.Class(), want) {
			out = append(out, e)
		}
		return true
	})
	return out
}

func hasClasses(class string, want []string) bool {
	have := strings.Fields(class)
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return len(want) > 0
}

// walkElements calls fn for every descendant element of root in document
// order until fn returns false.
func walkElements(root Node, fn func(e *Element) bool) {
	if e := asElement(root); e != nil {
		walkChildren(e, fn)
	}
}

func walkChildren(e *Element, fn func(e *Element) bool) bool {
	for _, t := range e.Child {
		c, ok := t.(*Element)
		if !ok {
			continue
		}
		if !fn(c) || !walkChildren(c, fn) {
			return false
		}
	}
	return true
}

func asElement(n Node) *Element {
	switch n := n.(type) {
	case *Element:
		return n
	case *Document:
		return &n.Element
	}
	return nil
}

// contextNode returns the node a search context stands for. A *Document
// stands for its embedded element, which is the parent its top-level
// elements report.
func contextNode(n Node) Node {
	if d, ok := n.(*Document); ok {
		return &d.Element
	}
	return n
}
