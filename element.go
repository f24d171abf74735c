// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cssq

import "strings"

// Content is a node of an element tree: an *Element, *CharData or
// *Comment.
type Content interface {
	Node
	setParent(parent *Element, index int)
	dup(parent *Element) Content
}

// A Document is the root of an element tree. It is never matched by a
// selector; its child elements are the top-level elements of the tree.
type Document struct {
	Element
}

// An Element is a tagged node with attributes and an ordered list of
// child content.
type Element struct {
	Name     string
	Attrs    []Attr
	Child    []Content
	parent   *Element
	index    int // position in parent.Child
	document bool
}

// An Attr is a key-value attribute of an element.
type Attr struct {
	Key   string
	Value string
}

// CharData is character data within an element.
type CharData struct {
	Data   string
	parent *Element
	index  int
}

// A Comment is a comment within an element.
type Comment struct {
	Data   string
	parent *Element
	index  int
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{Element{document: true}}
}

// Root returns the first child element of the document, or nil.
func (d *Document) Root() *Element {
	for _, t := range d.Child {
		if e, ok := t.(*Element); ok {
			return e
		}
	}
	return nil
}

// Copy returns a deep copy of e detached from any parent.
func (e *Element) Copy() *Element {
	c := e.dup(nil).(*Element)
	c.index = 0
	return c
}

// NewElement creates an element with the given tag and no parent.
func NewElement(tag string) *Element {
	return &Element{Name: tag}
}

// CreateElement creates a child element of e with the given tag.
func (e *Element) CreateElement(tag string) *Element {
	c := NewElement(tag)
	e.AddChild(c)
	return c
}

// AddChild appends t to the children of e, detaching it from its previous
// parent first.
func (e *Element) AddChild(t Content) {
	if p := t.Parent(); p != nil {
		p.(*Element).RemoveChild(t)
	}
	t.setParent(e, len(e.Child))
	e.Child = append(e.Child, t)
}

// RemoveChild removes t from the children of e and returns it, or returns
// nil when t is not a child of e.
func (e *Element) RemoveChild(t Content) Content {
	for i, c := range e.Child {
		if c != t {
			continue
		}
		copy(e.Child[i:], e.Child[i+1:])
		e.Child[len(e.Child)-1] = nil
		e.Child = e.Child[:len(e.Child)-1]
		for j := i; j < len(e.Child); j++ {
			e.Child[j].setParent(e, j)
		}
		t.setParent(nil, 0)
		return t
	}
	return nil
}

// ChildElements returns the child elements of e.
func (e *Element) ChildElements() []*Element {
	var out []*Element
	for _, t := range e.Child {
		if c, ok := t.(*Element); ok {
			out = append(out, c)
		}
	}
	return out
}

// CreateAttr sets the attribute key of e to value, adding it if needed.
func (e *Element) CreateAttr(key, value string) *Attr {
	for i := range e.Attrs {
		if e.Attrs[i].Key == key {
			e.Attrs[i].Value = value
			return &e.Attrs[i]
		}
	}
	e.Attrs = append(e.Attrs, Attr{Key: key, Value: value})
	return &e.Attrs[len(e.Attrs)-1]
}

// SelectAttrValue returns the value of the attribute key, or dflt when e
// has no such attribute.
func (e *Element) SelectAttrValue(key, dflt string) string {
	if v, ok := e.Attr(key); ok {
		return v
	}
	return dflt
}

// CreateCharData appends character data to the children of e.
func (e *Element) CreateCharData(data string) *CharData {
	c := &CharData{Data: data}
	e.AddChild(c)
	return c
}

// CreateComment appends a comment to the children of e.
func (e *Element) CreateComment(comment string) *Comment {
	c := &Comment{Data: comment}
	e.AddChild(c)
	return c
}

//
// Node implementation
//

// sibling returns the content at offset d from index i in the children of
// parent, or nil.
func sibling(parent *Element, i, d int) Node {
	if parent == nil {
		return nil
	}
	i += d
	if i < 0 || i >= len(parent.Child) {
		return nil
	}
	return parent.Child[i]
}

func parentNode(p *Element) Node {
	if p == nil {
		return nil
	}
	return p
}

func (e *Element) Parent() Node      { return parentNode(e.parent) }
func (e *Element) NextSibling() Node { return sibling(e.parent, e.index, 1) }
func (e *Element) PrevSibling() Node { return sibling(e.parent, e.index, -1) }
func (e *Element) IsElement() bool   { return !e.document }
func (e *Element) ID() string        { return e.SelectAttrValue("id", "") }
func (e *Element) Class() string     { return e.SelectAttrValue("class", "") }

// Tag returns the element's name. Documents have none.
func (e *Element) Tag() string { return e.Name }

// Attr returns the value of the attribute key.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Text returns the concatenated character data of every descendant of e.
func (e *Element) Text() string {
	var b strings.Builder
	e.appendText(&b)
	return b.String()
}

func (e *Element) appendText(b *strings.Builder) {
	for _, t := range e.Child {
		switch t := t.(type) {
		case *CharData:
			b.WriteString(t.Data)
		case *Element:
			t.appendText(b)
		}
	}
}

func (e *Element) setParent(parent *Element, index int) {
	e.parent, e.index = parent, index
}

func (e *Element) dup(parent *Element) Content {
	c := &Element{
		Name:     e.Name,
		Attrs:    append([]Attr(nil), e.Attrs...),
		Child:    make([]Content, len(e.Child)),
		parent:   parent,
		index:    e.index,
		document: e.document,
	}
	for i, t := range e.Child {
		c.Child[i] = t.dup(c)
	}
	return c
}

func (c *CharData) Parent() Node               { return parentNode(c.parent) }
func (c *CharData) NextSibling() Node          { return sibling(c.parent, c.index, 1) }
func (c *CharData) PrevSibling() Node          { return sibling(c.parent, c.index, -1) }
func (c *CharData) IsElement() bool            { return false }
func (c *CharData) Tag() string                { return "" }
func (c *CharData) ID() string                 { return "" }
func (c *CharData) Class() string              { return "" }
func (c *CharData) Attr(string) (string, bool) { return "", false }
func (c *CharData) Text() string               { return c.Data }

func (c *CharData) setParent(parent *Element, index int) {
	c.parent, c.index = parent, index
}

func (c *CharData) dup(parent *Element) Content {
	return &CharData{Data: c.Data, parent: parent, index: c.index}
}

func (c *Comment) Parent() Node               { return parentNode(c.parent) }
func (c *Comment) NextSibling() Node          { return sibling(c.parent, c.index, 1) }
func (c *Comment) PrevSibling() Node          { return sibling(c.parent, c.index, -1) }
func (c *Comment) IsElement() bool            { return false }
func (c *Comment) Tag() string                { return "" }
func (c *Comment) ID() string                 { return "" }
func (c *Comment) Class() string              { return "" }
func (c *Comment) Attr(string) (string, bool) { return "", false }
func (c *Comment) Text() string               { return "" }

func (c *Comment) setParent(parent *Element, index int) {
	c.parent, c.index = parent, index
}

func (c *Comment) dup(parent *Element) Content {
	return &Comment{Data: c.Data, parent: parent, index: c.index}
}
