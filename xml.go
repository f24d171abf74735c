// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cssq

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// ErrXML is returned when an XML document cannot be read.
var ErrXML = errors.New("cssq: invalid XML document")

//
// reading
//

// ReadFrom reads XML from r into the document, replacing its contents.
// Processing instructions and directives are skipped.
func (d *Document) ReadFrom(r io.Reader) (int64, error) {
	cr := &countReader{r: r}
	dec := xml.NewDecoder(cr)
	dec.Strict = false

	d.Child = nil
	stack := []*Element{&d.Element}
	for {
		t, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return cr.bytes, errors.Join(ErrXML, err)
		}

		top := stack[len(stack)-1]
		switch t := t.(type) {
		case xml.StartElement:
			e := top.CreateElement(qualified(t.Name))
			for _, a := range t.Attr {
				e.CreateAttr(qualified(a.Name), a.Value)
			}
			stack = append(stack, e)
		case xml.EndElement:
			if len(stack) == 1 {
				return cr.bytes, ErrXML
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			top.CreateCharData(string(t))
		case xml.Comment:
			top.CreateComment(string(t))
		}
	}
	if len(stack) != 1 {
		return cr.bytes, ErrXML
	}
	return cr.bytes, nil
}

// ReadFromString reads XML from the string s into the document.
func (d *Document) ReadFromString(s string) error {
	_, err := d.ReadFrom(strings.NewReader(s))
	return err
}

// ReadFromBytes reads XML from the byte slice b into the document.
func (d *Document) ReadFromBytes(b []byte) error {
	_, err := d.ReadFrom(bytes.NewReader(b))
	return err
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

type countReader struct {
	r     io.Reader
	bytes int64
}

func (cr *countReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.bytes += int64(n)
	return n, err
}

//
// writing
//

// WriteTo serializes the element and its descendants to w. A document
// writes its children only.
func (e *Element) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	b := bufio.NewWriter(cw)
	if e.document {
		for _, c := range e.Child {
			writeContent(b, c)
		}
	} else {
		writeContent(b, e)
	}
	err := b.Flush()
	return cw.bytes, err
}

// WriteToString serializes the element and its descendants to a string.
func (e *Element) WriteToString() (string, error) {
	var b strings.Builder
	if _, err := e.WriteTo(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeContent(w *bufio.Writer, t Content) {
	switch t := t.(type) {
	case *Element:
		w.WriteByte('<')
		w.WriteString(t.Name)
		for _, a := range t.Attrs {
			w.WriteByte(' ')
			w.WriteString(a.Key)
			w.WriteString(`="`)
			writeEscaped(w, a.Value)
			w.WriteByte('"')
		}
		if len(t.Child) == 0 {
			w.WriteString("/>")
			return
		}
		w.WriteByte('>')
		for _, c := range t.Child {
			writeContent(w, c)
		}
		w.WriteString("</")
		w.WriteString(t.Name)
		w.WriteByte('>')
	case *CharData:
		writeEscaped(w, t.Data)
	case *Comment:
		w.WriteString("<!--")
		w.WriteString(t.Data)
		w.WriteString("-->")
	}
}

// Indent modifies the element tree by inserting character data
// containing newlines and spaces for indentation. Existing whitespace-only
// character data is replaced. Elements holding non-whitespace text are left
// untouched.
func (e *Element) Indent(spaces int) {
	depth := 0
	if !e.document {
		depth = 1
	}
	e.indent(depth, spaces)
}

func (e *Element) indent(depth, spaces int) {
	var kept []Content
	mixed := false
	for _, c := range e.Child {
		if cd, ok := c.(*CharData); ok {
			if isWhitespace(cd.Data) {
				continue
			}
			mixed = true
		}
		kept = append(kept, c)
	}
	if mixed {
		return
	}

	e.Child = e.Child[:0]
	for _, c := range kept {
		if depth > 0 || len(e.Child) > 0 {
			e.Child = append(e.Child, &CharData{Data: crSpaces(depth * spaces)})
		}
		e.Child = append(e.Child, c)
		if ce, ok := c.(*Element); ok {
			ce.indent(depth+1, spaces)
		}
	}
	if len(kept) > 0 && depth > 0 {
		e.Child = append(e.Child, &CharData{Data: crSpaces((depth - 1) * spaces)})
	}
	for i, c := range e.Child {
		c.setParent(e, i)
	}
}
