// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package htmltree lets a cssq.Engine query documents parsed by
// golang.org/x/net/html.
//
// Whole-document searches are handed to cascadia, the selector engine
// goquery is built on, whenever it understands the selector; everything
// else runs through the compiled cssq query.
package htmltree

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/beevik/cssq"
	"golang.org/x/net/html"
)

// Node adapts an *html.Node to cssq.Node. Two Nodes wrapping the same
// *html.Node compare equal.
type Node struct {
	n *html.Node
}

// Wrap returns n as a cssq.Node, or nil when n is nil.
func Wrap(n *html.Node) cssq.Node {
	if n == nil {
		return nil
	}
	return Node{n}
}

// Unwrap returns the *html.Node behind a cssq.Node, or nil when the node
// does not come from this package.
func Unwrap(n cssq.Node) *html.Node {
	if hn, ok := n.(Node); ok {
		return hn.n
	}
	return nil
}

// Parse parses an HTML document and returns its document node.
func Parse(r io.Reader) (cssq.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return Wrap(doc), nil
}

// HTML returns the wrapped node.
func (n Node) HTML() *html.Node { return n.n }

func (n Node) Parent() cssq.Node      { return Wrap(n.n.Parent) }
func (n Node) NextSibling() cssq.Node { return Wrap(n.n.NextSibling) }
func (n Node) PrevSibling() cssq.Node { return Wrap(n.n.PrevSibling) }
func (n Node) IsElement() bool        { return n.n.Type == html.ElementNode }

func (n Node) Tag() string {
	if n.n.Type != html.ElementNode {
		return ""
	}
	return n.n.Data
}

func (n Node) ID() string {
	v, _ := n.Attr("id")
	return v
}

func (n Node) Class() string {
	v, _ := n.Attr("class")
	return v
}

func (n Node) Attr(name string) (string, bool) {
	for _, a := range n.n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Text returns the concatenated text of the node and its descendants.
func (n Node) Text() string {
	if n.n.Type == html.TextNode {
		return n.n.Data
	}
	var b strings.Builder
	appendText(&b, n.n)
	return b.String()
}

func appendText(b *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.WriteString(c.Data)
		case html.ElementNode:
			appendText(b, c)
		}
	}
}

// Tree is the cssq.Tree of HTML documents. It answers id and class lookups
// natively and hands whole-document searches to cascadia.
type Tree struct{}

var (
	_ cssq.Tree         = Tree{}
	_ cssq.IDQuerier    = Tree{}
	_ cssq.ClassQuerier = Tree{}
	_ cssq.BulkQuerier  = Tree{}
)

// ByTag returns the descendant elements of root with the given tag,
// ignoring case, in document order.
func (Tree) ByTag(root cssq.Node, tag string) []cssq.Node {
	var out []cssq.Node
	walk(Unwrap(root), func(n *html.Node) bool {
		if tag == "*" || strings.EqualFold(n.Data, tag) {
			out = append(out, Node{n})
		}
		return true
	})
	return out
}

// ByID returns the first descendant element of root with the given id.
func (Tree) ByID(root cssq.Node, id string) cssq.Node {
	var found cssq.Node
	walk(Unwrap(root), func(n *html.Node) bool {
		if v, _ := (Node{n}).Attr("id"); v == id {
			found = Node{n}
			return false
		}
		return true
	})
	return found
}

// ByClass returns the descendant elements of root carrying every class of
// the space-separated list classes.
func (Tree) ByClass(root cssq.Node, classes string) []cssq.Node {
	want := strings.Fields(classes)
	if len(want) == 0 {
		return nil
	}
	var out []cssq.Node
	walk(Unwrap(root), func(n *html.Node) bool {
		have := strings.Fields(Node{n}.Class())
		for _, w := range want {
			if !containsString(have, w) {
				return true
			}
		}
		out = append(out, Node{n})
		return true
	})
	return out
}

// IsDocument reports whether n is a document node.
func (Tree) IsDocument(n cssq.Node) bool {
	h := Unwrap(n)
	return h != nil && h.Type == html.DocumentNode
}

// QueryAll runs selector through cascadia. It fails for selectors cascadia
// does not support, such as pseudo-classes registered with a cssq.Engine.
func (Tree) QueryAll(root cssq.Node, selector string) ([]cssq.Node, error) {
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, err
	}
	found := cascadia.QueryAll(Unwrap(root), sel)
	if len(found) == 0 {
		return nil, nil
	}
	out := make([]cssq.Node, len(found))
	for i, n := range found {
		out[i] = Node{n}
	}
	return out, nil
}

// walk calls fn for every descendant element of root in document order
// until fn returns false.
func walk(root *html.Node, fn func(n *html.Node) bool) bool {
	if root == nil {
		return true
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !fn(c) {
			return false
		}
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

//
// goquery interop
//

// Nodes returns the nodes of a goquery selection.
func Nodes(sel *goquery.Selection) []cssq.Node {
	out := make([]cssq.Node, 0, len(sel.Nodes))
	for _, n := range sel.Nodes {
		out = append(out, Node{n})
	}
	return out
}

// Selection returns the nodes below doc's root as a goquery selection, in
// the order given. Nodes that do not come from this package or lie outside
// doc are dropped.
func Selection(doc *goquery.Document, nodes []cssq.Node) *goquery.Selection {
	hs := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		if h := Unwrap(n); h != nil {
			hs = append(hs, h)
		}
	}
	return doc.FindNodes(hs...)
}
