// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cssq

import (
	"regexp"
	"strconv"
	"strings"
)

// A PseudoFunc tests a node against a pseudo-class. arg is the clause's
// parenthesized argument, or "" when it has none. st is the scratch state
// of the current query.
type PseudoFunc func(n Node, arg string, st *State) (bool, error)

func (e *Engine) builtinPseudos() map[string]PseudoFunc {
	return map[string]PseudoFunc{
		"first-child": func(n Node, _ string, _ *State) (bool, error) {
			return prevElement(n) == nil, nil
		},
		"last-child": func(n Node, _ string, _ *State) (bool, error) {
			return nextElement(n) == nil, nil
		},
		"only-child": func(n Node, _ string, _ *State) (bool, error) {
			return prevElement(n) == nil && nextElement(n) == nil, nil
		},
		"nth-child": e.nthChild,
		"even": func(n Node, _ string, st *State) (bool, error) {
			return e.nthChild(n, "2n", st)
		},
		"odd": func(n Node, _ string, st *State) (bool, error) {
			return e.nthChild(n, "2n+1", st)
		},
		"empty": func(n Node, _ string, _ *State) (bool, error) {
			return len(n.Text()) == 0, nil
		},
		"contains": func(n Node, arg string, _ *State) (bool, error) {
			return strings.Contains(n.Text(), arg), nil
		},
		"index": pseudoIndex,
	}
}

// pseudoIndex matches a node with exactly arg element siblings before it.
func pseudoIndex(n Node, arg string, _ *State) (bool, error) {
	index, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return false, &PseudoArgumentError{Pseudo: "index", Argument: arg}
	}
	return precededBy(n, index), nil
}

// precededBy reports whether exactly count element siblings precede n.
func precededBy(n Node, count int) bool {
	seen := 0
	for sib := prevElement(n); sib != nil; sib = prevElement(sib) {
		if seen++; seen > count {
			return false
		}
	}
	return seen == count
}

func (e *Engine) nthChild(n Node, arg string, st *State) (bool, error) {
	f, ok := e.parseNth(arg)
	if !ok {
		return false, &PseudoArgumentError{Pseudo: "nth-child", Argument: arg}
	}

	switch f.kind {
	case nthIndex:
		return precededBy(n, f.a), nil
	case nthLast:
		return nextElement(n) == nil, nil
	case nthOnly:
		return prevElement(n) == nil && nextElement(n) == nil, nil
	}
	return f.matches(st.Position(n) + 1), nil
}

//
// an+b formulas
//

type nthKind uint8

const (
	nthLinear nthKind = iota // a*n+b
	nthIndex                 // exactly a preceding siblings
	nthLast                  // last element sibling
	nthOnly                  // only element sibling
)

type nthFormula struct {
	kind nthKind
	a, b int
}

// nthResult is a memoized parse, failures included.
type nthResult struct {
	f  nthFormula
	ok bool
}

var nthPattern = regexp.MustCompile(`^([+-]?\d*)([a-z]*)([+-]\d*|\d*)$`)

// matches reports whether the 1-based sibling index i equals a*n+b for
// some n >= 0.
func (f nthFormula) matches(i int) bool {
	if f.a == 0 {
		return i == f.b
	}
	d := i - f.b
	return d%f.a == 0 && d/f.a >= 0
}

// parseNth parses an nth-child argument, consulting the engine's memo
// first. An empty argument means "n".
func (e *Engine) parseNth(arg string) (nthFormula, bool) {
	if r, ok := e.nth.Get(arg); ok {
		return r.f, r.ok
	}
	f, ok := parseNthFormula(arg)
	e.nth.SetIfAbsent(arg, nthResult{f, ok})
	return f, ok
}

func parseNthFormula(arg string) (nthFormula, bool) {
	s := strings.ToLower(strings.Join(strings.Fields(arg), ""))
	if s == "" {
		s = "n"
	}

	m := nthPattern.FindStringSubmatch(s)
	if m == nil {
		return nthFormula{}, false
	}
	lead, word, trail := m[1], m[2], m[3]

	switch word {
	case "n":
		a, ok := parseCoefficient(lead)
		if !ok {
			return nthFormula{}, false
		}
		b := 0
		if trail != "" {
			if trail[0] != '+' && trail[0] != '-' {
				return nthFormula{}, false
			}
			if b, ok = parseSigned(trail); !ok {
				return nthFormula{}, false
			}
		}
		return nthFormula{kind: nthLinear, a: a, b: b}, true

	case "":
		// A bare integer n selects the n-th element sibling.
		if trail != "" {
			return nthFormula{}, false
		}
		i, ok := parseSigned(lead)
		if !ok {
			return nthFormula{}, false
		}
		return nthFormula{kind: nthIndex, a: i - 1}, true
	}

	if lead != "" || trail != "" {
		return nthFormula{}, false
	}

	switch word {
	case "odd":
		return nthFormula{kind: nthLinear, a: 2, b: 1}, true
	case "even":
		return nthFormula{kind: nthLinear, a: 2, b: 0}, true
	case "first":
		return nthFormula{kind: nthIndex, a: 0}, true
	case "last":
		return nthFormula{kind: nthLast}, true
	case "only":
		return nthFormula{kind: nthOnly}, true
	}
	return nthFormula{}, false
}

// parseCoefficient parses the a of an+b, where "", "+" and "-" stand for
// 1, 1 and -1.
func parseCoefficient(s string) (int, bool) {
	switch s {
	case "", "+":
		return 1, true
	case "-":
		return -1, true
	}
	return parseSigned(s)
}

func parseSigned(s string) (int, bool) {
	i, err := strconv.Atoi(s)
	return i, err == nil
}
