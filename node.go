// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cssq

import (
	"errors"
	"fmt"
)

// ErrMalformedPseudoArgument is returned when a pseudo-class argument, such
// as the formula of an nth-child clause, cannot be parsed.
var ErrMalformedPseudoArgument = errors.New("cssq: malformed pseudo-class argument")

// ErrInvalidOperator is returned when an attribute operator symbol cannot be
// registered.
var ErrInvalidOperator = errors.New("cssq: invalid attribute operator")

// A PseudoArgumentError reports the pseudo-class and argument that could not
// be interpreted while matching a node.
type PseudoArgumentError struct {
	Pseudo   string
	Argument string
}

func (e *PseudoArgumentError) Error() string {
	return fmt.Sprintf("cssq: malformed argument %q for :%s", e.Argument, e.Pseudo)
}

// Unwrap returns ErrMalformedPseudoArgument.
func (e *PseudoArgumentError) Unwrap() error {
	return ErrMalformedPseudoArgument
}

// A Node is one node of a tree with single-parent, ordered-sibling
// semantics. Element and non-element nodes (text, comments) are both Nodes;
// only elements are ever returned by a search.
//
// Node values are compared with ==, so an implementation must return the
// same value for the same underlying node every time it is asked for it
// (a pointer, or a comparable struct wrapping one). A missing parent or
// sibling is reported as a nil Node.
type Node interface {
	Parent() Node
	NextSibling() Node
	PrevSibling() Node
	IsElement() bool
	Tag() string
	ID() string
	Class() string
	Attr(name string) (value string, ok bool)
	Text() string
}

// A Tree supplies the native query primitives of the host tree.
//
// ByTag returns, in document order, every descendant element of root whose
// tag matches tag. The tag "*" matches every element. The root itself is
// never part of the result.
type Tree interface {
	ByTag(root Node, tag string) []Node
}

// An IDQuerier is a Tree that can look up a descendant element of root by
// its id. ByID returns nil when no such element exists.
type IDQuerier interface {
	ByID(root Node, id string) Node
}

// A ClassQuerier is a Tree that can return the descendant elements of root
// carrying every class of a space-separated class list.
type ClassQuerier interface {
	ByClass(root Node, classes string) []Node
}

// A BulkQuerier is a Tree with its own CSS selector implementation. When
// the search context is a document root and every clause of the selector
// has its standard CSS meaning, the Engine hands the whole selector text to
// QueryAll and only runs the compiled query itself if QueryAll fails.
// Selectors using :contains, :empty, :even, :odd, :index, the |= operator,
// unknown or registered pseudo-classes, or registered operators always run
// compiled.
type BulkQuerier interface {
	IsDocument(n Node) bool
	QueryAll(root Node, selector string) ([]Node, error)
}

// nextElement returns the first element sibling following n.
func nextElement(n Node) Node {
	for n = n.NextSibling(); n != nil; n = n.NextSibling() {
		if n.IsElement() {
			return n
		}
	}
	return nil
}

// prevElement returns the first element sibling preceding n.
func prevElement(n Node) Node {
	for n = n.PrevSibling(); n != nil; n = n.PrevSibling() {
		if n.IsElement() {
			return n
		}
	}
	return nil
}
