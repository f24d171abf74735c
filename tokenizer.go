// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cssq

import (
	"strings"

	"github.com/dlclark/regexp2"
)

/*
Tokens:
  [\w\u00c0-\uFFFF][\w\u00c0-\uFFFF-]*   tag
  #name                                     id
  .name                                     class
  whitespace followed by a selector start   descendant combinator
  , > + ~ (then optional whitespace)        comma / combinator
  [name] [name op value]                    attribute
  :name :name(value)                        pseudo
  *                                         universal

Attribute and pseudo values may be double-quoted, single-quoted or bare.
Characters that start none of the above are skipped.
*/

// TokenKind identifies the lexical class of a Token.
type TokenKind uint8

const (
	TokenTag TokenKind = iota
	TokenID
	TokenClass
	TokenAttribute
	TokenPseudo
	TokenCombinator
	TokenComma
	TokenUniversal
	TokenSpace // whitespace acting as the descendant combinator
)

var tokenKindNames = [...]string{
	TokenTag:        "tag",
	TokenID:         "id",
	TokenClass:      "class",
	TokenAttribute:  "attribute",
	TokenPseudo:     "pseudo",
	TokenCombinator: "combinator",
	TokenComma:      "comma",
	TokenUniversal:  "universal",
	TokenSpace:      "space",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return "unknown"
}

// A Token is one lexical unit of selector text.
//
// Name holds the tag, id, class, attribute or pseudo name. Op holds an
// attribute operator or a combinator. Value holds an attribute or pseudo
// argument with its quotes removed; HasValue distinguishes an empty value
// from an absent one.
type Token struct {
	Kind     TokenKind
	Text     string
	Name     string
	Op       string
	Value    string
	HasValue bool
}

// Capture groups of the grammar.
const (
	grpCombinator = 1
	grpAttrName   = 2
	grpAttrOp     = 3
	grpAttrDQ     = 4
	grpAttrSQ     = 5
	grpAttrBare   = 6
	grpPseudoName = 7
	grpPseudoDQ   = 8
	grpPseudoSQ   = 9
	grpPseudoBare = 10
)

const (
	nameChars  = `\w\u00c0-\uFFFF`
	spaceChars = ` \t\r\n\f`
)

// buildGrammar compiles the single alternation pattern used by the
// tokenizer. Combinators are single characters.
func buildGrammar(combinators []string, operators []string) *regexp2.Regexp {
	combList := make([]string, 0, len(combinators)+1)
	for _, c := range combinators {
		combList = append(combList, regexp2.Escape(c))
	}
	combList = append(combList, ",")

	var ops strings.Builder
	ops.WriteString(`!`)
	for _, op := range operators {
		for _, r := range strings.TrimSuffix(op, "=") {
			ops.WriteByte('\\')
			ops.WriteRune(r)
		}
	}

	var b strings.Builder
	b.WriteString(`[` + nameChars + `][` + nameChars + `-]*|`)
	b.WriteString(`[#.][` + nameChars + `-]+|`)
	b.WriteString(`[` + spaceChars + `](?=[` + nameChars + `*#.\[:])|`)
	b.WriteString(`(` + strings.Join(combList, "|") + `)[` + spaceChars + `]*|`)
	b.WriteString(`\[([` + nameChars + `-]+)(?:([` + ops.String() + `]?=)(?:"([^"]*)"|'([^']*)'|([^\]]*)))?\]|`)
	b.WriteString(`:([-` + nameChars + `]+)(?:\((?:"([^"]*)"|'([^']*)'|((?:[^()]|\([^()]*\))*))\))?|`)
	b.WriteString(`\*`)

	return regexp2.MustCompile(b.String(), regexp2.None)
}

// A Tokenizer lazily scans selector text into tokens. It can be rewound
// with Reset and scanned again, always producing the same sequence.
type Tokenizer struct {
	grammar *regexp2.Regexp
	text    string
	m       *regexp2.Match
	started bool
	done    bool
}

func newTokenizer(grammar *regexp2.Regexp, text string) *Tokenizer {
	return &Tokenizer{grammar: grammar, text: text}
}

// Reset rewinds the tokenizer to the start of its text.
func (t *Tokenizer) Reset() {
	t.m, t.started, t.done = nil, false, false
}

// Next returns the next token, or false once the text is exhausted.
func (t *Tokenizer) Next() (Token, bool) {
	if t.done {
		return Token{}, false
	}

	var m *regexp2.Match
	var err error
	if !t.started {
		t.started = true
		m, err = t.grammar.FindStringMatch(t.text)
	} else {
		m, err = t.grammar.FindNextMatch(t.m)
	}

	// The grammar has no match timeout, so err is always nil; treat it
	// like the end of input anyway.
	if err != nil || m == nil {
		t.done = true
		return Token{}, false
	}
	t.m = m

	return tokenFromMatch(m), true
}

func tokenFromMatch(m *regexp2.Match) Token {
	text := m.String()
	tok := Token{Text: text}

	switch text[0] {
	case '.':
		tok.Kind, tok.Name = TokenClass, text[1:]
	case '#':
		tok.Kind, tok.Name = TokenID, text[1:]
	case '[':
		tok.Kind = TokenAttribute
		tok.Name = group(m, grpAttrName)
		tok.Op = group(m, grpAttrOp)
		tok.Value, tok.HasValue = firstGroup(m, grpAttrDQ, grpAttrSQ, grpAttrBare)
	case ':':
		tok.Kind = TokenPseudo
		tok.Name = group(m, grpPseudoName)
		tok.Value, tok.HasValue = firstGroup(m, grpPseudoDQ, grpPseudoSQ, grpPseudoBare)
	case ',':
		tok.Kind = TokenComma
	case ' ', '\t', '\r', '\n', '\f':
		tok.Kind, tok.Op = TokenSpace, " "
	case '*':
		tok.Kind = TokenUniversal
	default:
		if c := group(m, grpCombinator); c != "" {
			tok.Kind, tok.Op = TokenCombinator, c
		} else {
			tok.Kind, tok.Name = TokenTag, text
		}
	}

	return tok
}

func group(m *regexp2.Match, n int) string {
	g := m.GroupByNumber(n)
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	return g.String()
}

// firstGroup returns the first of the groups that took part in the match.
func firstGroup(m *regexp2.Match, groups ...int) (string, bool) {
	for _, n := range groups {
		if g := m.GroupByNumber(n); g != nil && len(g.Captures) > 0 {
			return g.String(), true
		}
	}
	return "", false
}
