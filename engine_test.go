// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cssq

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	e := NewEngine(ElementTree{})

	toks := e.Tokenize(`ul#nav > li.item[data-x^="a b"]:nth-child(2n+1), a:not(.x) ~ *`)
	kinds := make([]TokenKind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []TokenKind{
		TokenTag, TokenID, TokenCombinator, TokenTag, TokenClass, TokenAttribute, TokenPseudo,
		TokenComma, TokenTag, TokenPseudo, TokenCombinator, TokenUniversal,
	}, kinds)

	assert.Equal(t, "ul", toks[0].Name)
	assert.Equal(t, "nav", toks[1].Name)
	assert.Equal(t, ">", toks[2].Op)
	assert.Equal(t, "item", toks[4].Name)
	assert.Equal(t, Token{Kind: TokenAttribute, Text: `[data-x^="a b"]`, Name: "data-x", Op: "^=", Value: "a b", HasValue: true}, toks[5])
	assert.Equal(t, Token{Kind: TokenPseudo, Text: ":nth-child(2n+1)", Name: "nth-child", Value: "2n+1", HasValue: true}, toks[6])
	assert.Equal(t, ".x", toks[9].Value)
	assert.Equal(t, "~", toks[10].Op)

	toks = e.Tokenize("div p\t[x]")
	assert.Len(t, toks, 5)
	assert.Equal(t, TokenSpace, toks[1].Kind)
	assert.Equal(t, " ", toks[1].Op)
	assert.Equal(t, TokenSpace, toks[3].Kind)

	// Unrecognized characters are skipped.
	toks = e.Tokenize("div ?? {p}")
	assert.Len(t, toks, 2)
	assert.Equal(t, "div", toks[0].Name)
	assert.Equal(t, "p", toks[1].Name)

	// Attribute clause without a value.
	toks = e.Tokenize("[href]")
	if assert.Len(t, toks, 1) {
		assert.Equal(t, "href", toks[0].Name)
		assert.False(t, toks[0].HasValue)
		assert.Equal(t, "", toks[0].Op)
	}

	// Pseudo-class with an empty quoted argument.
	toks = e.Tokenize(`:contains("")`)
	if assert.Len(t, toks, 1) {
		assert.True(t, toks[0].HasValue)
		assert.Equal(t, "", toks[0].Value)
	}
}

func TestTokenizerRestart(t *testing.T) {
	e := NewEngine(ElementTree{})

	text := "div.a > p:first-child, span[x='1'] ~ b"
	want := e.Tokenize(text)

	// Interleave other tokenizations; the sequence must not change.
	other := e.Tokens("#other .thing")
	other.Next()

	tz := e.Tokens(text)
	first, ok := tz.Next()
	assert.True(t, ok)
	assert.Equal(t, want[0], first)

	e.Tokenize("ul li")

	tz.Reset()
	var got []Token
	for tok, ok := tz.Next(); ok; tok, ok = tz.Next() {
		got = append(got, tok)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, want, e.Tokenize(text))

	_, ok = tz.Next()
	assert.False(t, ok)
}

func TestParseSegments(t *testing.T) {
	e := NewEngine(ElementTree{})

	q := e.Compile("div#main.a.b[x=1]:first-child > p, > li + li")
	segs := q.Segments()
	if !assert.Len(t, segs, 4) {
		return
	}

	assert.Equal(t, "div", segs[0].Tag)
	assert.Equal(t, "main", segs[0].ID)
	assert.Equal(t, []string{"a", "b"}, segs[0].Classes)
	assert.Equal(t, []AttrClause{{Name: "x", Op: "=", Value: "1", HasValue: true}}, segs[0].Attrs)
	assert.Equal(t, []PseudoClause{{Name: "first-child"}}, segs[0].Pseudos)
	assert.Equal(t, NoCombinator, segs[0].Combinator)
	assert.True(t, segs[0].First)
	assert.False(t, segs[0].Last)

	assert.Equal(t, "p", segs[1].Tag)
	assert.Equal(t, Child, segs[1].Combinator)
	assert.False(t, segs[1].First)
	assert.True(t, segs[1].Last)

	// A combinator opening a group belongs to its first segment.
	assert.Equal(t, "li", segs[2].Tag)
	assert.Equal(t, Child, segs[2].Combinator)
	assert.True(t, segs[2].First)
	assert.False(t, segs[2].Last)

	assert.Equal(t, Adjacent, segs[3].Combinator)
	assert.True(t, segs[3].Last)

	groups := q.Groups()
	assert.Len(t, groups, 2)
	assert.Len(t, groups[0], 2)
	assert.Len(t, groups[1], 2)

	// The universal selector clears the tag.
	q = e.Compile("*.x")
	assert.Equal(t, "", q.Segments()[0].Tag)
	assert.Equal(t, []string{"x"}, q.Segments()[0].Classes)

	assert.Equal(t, "child", Child.String())
	assert.Equal(t, "descendant", Descendant.String())
}

func TestCompileIdempotent(t *testing.T) {
	e := NewEngine(ElementTree{})

	q1 := e.Compile("ul > li.item")
	q2 := e.Compile("ul > li.item")
	assert.Same(t, q1, q2)
	assert.Equal(t, "ul > li.item", q1.Text())

	// Leading whitespace does not take part in the cache key.
	assert.Same(t, q1, e.Compile("  ul > li.item"))

	// Identical segments share their compiled form across queries.
	q3 := e.Compile("ol, ul > li.item")
	assert.Same(t, q1.steps[1], q3.steps[2])

	// Separate engines keep separate caches.
	other := NewEngine(ElementTree{})
	assert.NotSame(t, q1, other.Compile("ul > li.item"))
}

func TestCompileConcurrent(t *testing.T) {
	e := NewEngine(ElementTree{})
	doc := mustParse(t, testXML)

	const workers = 16
	queries := make([]*Query, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			queries[i] = e.Compile("book:nth-child(odd) > title")
			nodes, err := queries[i].Search(doc)
			assert.NoError(t, err)
			assert.Equal(t, []string{"Everyday Italian", "XQuery Kick Start"}, labels(nodes))
		}(i)
	}
	wg.Wait()

	for _, q := range queries[1:] {
		assert.Same(t, queries[0], q)
	}
}

// A tree with no native id or class lookups.
type tagOnlyTree struct{}

func (tagOnlyTree) ByTag(root Node, tag string) []Node {
	return ElementTree{}.ByTag(root, tag)
}

func TestStrategies(t *testing.T) {
	native := NewEngine(ElementTree{})
	plain := NewEngine(tagOnlyTree{})

	cases := []struct {
		e        *Engine
		selector string
		strategy strategy
		simple   bool
	}{
		{native, "#a", searchByID, true},
		{native, "p#a.x", searchByID, false},
		{native, ".x.y", searchByClass, true},
		{native, "p.x", searchByClass, false},
		{plain, "p.x", searchByClassScan, true},
		{plain, ".x.y", searchAll, false},
		{native, "p", searchByTag, true},
		{native, "p[x]", searchByTag, false},
		{native, "*", searchAll, true},
		{native, ":first-child", searchAll, false},
	}

	for _, c := range cases {
		s := c.e.Compile(c.selector).steps[0]
		assert.Equal(t, c.strategy, s.strategy, c.selector)
		assert.Equal(t, c.simple, s.simple, c.selector)
	}
}

func TestStandardSelectors(t *testing.T) {
	e := NewEngine(ElementTree{}, WithPseudo("cheap", func(Node, string, *State) (bool, error) {
		return true, nil
	}))
	e.RegisterPseudo("last-child", func(n Node, _ string, _ *State) (bool, error) {
		return nextElement(n) == nil, nil
	})

	cases := []struct {
		selector string
		standard bool
	}{
		{"ul > li.a#b, p ~ span + i", true},
		{"[x], [x=1], [x!=1], [x^=a], [x$=a], [x*=a], [x~=a]", true},
		{"li:first-child, li:only-child", true},
		{"li:nth-child(2n+1), li:nth-child(odd), li:nth-child(3)", true},
		{"li:not(.x):not(:first-child)", true},
		{"> li", true},
		{"[x|=a]", false},
		{"[X=a]", false},
		{"li:contains(a)", false},
		{"li:empty", false},
		{"li:even", false},
		{"li:index(2)", false},
		{"li:nth-child(last)", false},
		{"li:lang(fr)", false},
		{"li:cheap", false},
		{"li:last-child", false},
		{"li:not(:contains(a))", false},
		{"p, li:empty", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.standard, e.Compile(c.selector).standard, c.selector)
	}
}

func TestStrategiesAgree(t *testing.T) {
	doc := mustParse(t, testXML)
	native := NewEngine(ElementTree{})
	plain := NewEngine(tagOnlyTree{})

	for _, test := range tests {
		a, err := native.Search(doc, test.selector)
		assert.NoError(t, err)
		b, err := plain.Search(doc, test.selector)
		assert.NoError(t, err)
		assert.Equal(t, labels(a), labels(b), test.selector)
	}
}

func TestRegisterPseudo(t *testing.T) {
	doc := mustParse(t, testXML)
	e := NewEngine(ElementTree{}, WithPseudo("cheap", func(n Node, arg string, _ *State) (bool, error) {
		return strings.HasPrefix(strings.TrimSpace(n.Text()), "2"), nil
	}))

	nodes, err := e.Search(doc, "price:cheap")
	assert.NoError(t, err)
	assert.Equal(t, []string{"29.99"}, labels(nodes))

	// Scratch values live for one call only.
	calls := 0
	e.RegisterPseudo("once", func(n Node, _ string, st *State) (bool, error) {
		if _, seen := st.Value("once"); seen {
			return false, nil
		}
		st.SetValue("once", true)
		calls++
		return true, nil
	})
	for i := 0; i < 2; i++ {
		nodes, err = e.Search(doc, "book:once")
		assert.NoError(t, err)
		assert.Equal(t, []string{"#b1"}, labels(nodes))
	}
	assert.Equal(t, 2, calls)

	// Registration replaces a builtin.
	e.RegisterPseudo("first-child", func(n Node, _ string, _ *State) (bool, error) {
		return nextElement(n) == nil, nil
	})
	nodes, err = e.Search(doc, "book:first-child")
	assert.NoError(t, err)
	assert.Equal(t, []string{"#b4"}, labels(nodes))
}

func TestRegisterAfterCompile(t *testing.T) {
	doc := mustParse(t, `<r><b/></r>`)
	e := NewEngine(ElementTree{})

	// Before registration :foo is an attribute test.
	nodes, err := e.Search(doc, ":foo")
	assert.NoError(t, err)
	assert.Empty(t, nodes)
	before := e.Compile(":foo")

	e.RegisterPseudo("foo", func(n Node, _ string, _ *State) (bool, error) {
		return n.Tag() == "b", nil
	})

	// New selector text sees the registration even where it shares a
	// segment with text compiled earlier.
	nodes, err = e.Search(doc, "r, :foo")
	assert.NoError(t, err)
	assert.Equal(t, []string{"<r>", "<b>"}, labels(nodes))

	// Text compiled earlier keeps its query.
	assert.Same(t, before, e.Compile(":foo"))
	nodes, err = e.Search(doc, ":foo")
	assert.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestRegisterOperator(t *testing.T) {
	doc := mustParse(t, testXML)
	e := NewEngine(ElementTree{})

	// Before registration "%=" is not part of the grammar, so the clause
	// falls apart into stray tags.
	toks := e.Tokenize("[lang%=n]")
	assert.Equal(t, []Token{
		{Kind: TokenTag, Text: "lang", Name: "lang"},
		{Kind: TokenTag, Text: "n", Name: "n"},
	}, toks)

	err := e.RegisterOperator("%=", func(value, escaped string) string {
		return `^.` + escaped
	})
	assert.NoError(t, err)

	nodes, err := e.Search(doc, "title[lang%=n]")
	assert.NoError(t, err)
	assert.Equal(t, []string{"Everyday Italian", "Harry Potter", "XQuery Kick Start"}, labels(nodes))

	for _, bad := range []string{"", "=", "%", "ab=", "-=", "%%=", "!=", "a="} {
		assert.ErrorIs(t, e.RegisterOperator(bad, nil), ErrInvalidOperator, bad)
	}

	// Options register operators before the grammar is built.
	e = NewEngine(ElementTree{}, WithOperator("@=", func(value, escaped string) string {
		return `(?i)^` + escaped + `$`
	}))
	nodes, err = e.Search(doc, "book[category@=web]")
	assert.NoError(t, err)
	assert.Equal(t, []string{"#b3", "#b4"}, labels(nodes))
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	e := NewEngine(ElementTree{}, WithLogger(log), WithOperator("ab=", nil))
	assert.Contains(t, buf.String(), "ignoring invalid attribute operator")

	buf.Reset()
	e.Compile("p:nope")
	out := buf.String()
	assert.Contains(t, out, `"selector":"p:nope"`)
	assert.Contains(t, out, "compiled selector")
	assert.Contains(t, out, `"pseudo":"nope"`)

	// Cache hits are silent.
	buf.Reset()
	e.Compile("p:nope")
	assert.Empty(t, buf.String())
}

func TestState(t *testing.T) {
	doc := mustParse(t, `<r><a/>x<b/><c/></r>`)
	kids := doc.Root().ChildElements()
	st := newState()

	assert.Equal(t, uint(0), st.ID(kids[2]))
	assert.Equal(t, uint(1), st.ID(kids[0]))
	assert.Equal(t, uint(0), st.ID(kids[2]))

	assert.Equal(t, 1, st.Position(kids[1]))
	assert.Equal(t, 2, st.Position(kids[2]))
	assert.Equal(t, 0, st.Position(kids[0]))

	g := st.newGuard()
	assert.True(t, g.admit(kids[0]))
	assert.False(t, g.admit(kids[0]))
	assert.True(t, g.admit(kids[1]))

	p := st.passGuard()
	assert.True(t, p.admit(kids[0]))
	assert.True(t, p.admit(kids[0]))
}

func TestParseNthFormula(t *testing.T) {
	cases := []struct {
		arg string
		f   nthFormula
		ok  bool
	}{
		{"2n+1", nthFormula{nthLinear, 2, 1}, true},
		{"2N + 1", nthFormula{nthLinear, 2, 1}, true},
		{"-n+3", nthFormula{nthLinear, -1, 3}, true},
		{"+n", nthFormula{nthLinear, 1, 0}, true},
		{"n-1", nthFormula{nthLinear, 1, -1}, true},
		{"", nthFormula{nthLinear, 1, 0}, true},
		{"odd", nthFormula{nthLinear, 2, 1}, true},
		{"even", nthFormula{nthLinear, 2, 0}, true},
		{"3", nthFormula{nthIndex, 2, 0}, true},
		{"first", nthFormula{nthIndex, 0, 0}, true},
		{"last", nthFormula{kind: nthLast}, true},
		{"only", nthFormula{kind: nthOnly}, true},
		{"2n1", nthFormula{}, false},
		{"n+", nthFormula{}, false},
		{"x", nthFormula{}, false},
		{"2odd", nthFormula{}, false},
		{"1.5n", nthFormula{}, false},
	}
	for _, c := range cases {
		f, ok := parseNthFormula(c.arg)
		assert.Equal(t, c.ok, ok, c.arg)
		if c.ok {
			assert.Equal(t, c.f, f, c.arg)
		}
	}

	assert.True(t, nthFormula{nthLinear, 2, 1}.matches(5))
	assert.False(t, nthFormula{nthLinear, 2, 1}.matches(4))
	assert.True(t, nthFormula{nthLinear, -1, 3}.matches(3))
	assert.False(t, nthFormula{nthLinear, -1, 3}.matches(4))
	assert.True(t, nthFormula{nthLinear, 0, 2}.matches(2))
	assert.False(t, nthFormula{nthLinear, 0, 2}.matches(3))
}
