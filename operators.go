// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cssq

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// An OperatorFunc turns an attribute clause value into a regular expression
// pattern. escaped is value with every pattern metacharacter quoted.
type OperatorFunc func(value, escaped string) string

const classSpace = `[ \t\r\n\f]`

// defaultOperators holds the pattern-based attribute operators. The
// equality operators "=" and "!=" compare strings directly and never reach
// this table.
var defaultOperators = map[string]OperatorFunc{
	// substring
	"*=": func(value, escaped string) string {
		return escaped
	},
	// prefix
	"^=": func(value, escaped string) string {
		return `^` + escaped
	},
	// suffix
	"$=": func(value, escaped string) string {
		return escaped + `$`
	},
	// whitespace-separated word
	"~=": func(value, escaped string) string {
		return `(?:^|` + classSpace + `)` + escaped + `(?:$|` + classSpace + `)`
	},
	// hyphen-separated word
	"|=": func(value, escaped string) string {
		return `(?:^|-)` + escaped + `(?:$|-)`
	},
}

// validOperator reports whether symbol can be added to the grammar: a
// single punctuation character followed by '='.
func validOperator(symbol string) bool {
	r, n := utf8.DecodeRuneInString(symbol)
	if n == 0 || symbol[n:] != "=" {
		return false
	}
	switch r {
	case '!', '=', '-', ']', '"', '\'', '\\':
		return false
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// compileClassPattern returns the pattern testing membership of name in a
// whitespace-separated class list.
func compileClassPattern(name string) *regexp.Regexp {
	q := regexp.QuoteMeta(name)
	return regexp.MustCompile(`(?:^|` + classSpace + `)` + q + `(?:$|` + classSpace + `)`)
}

// compileAttrPattern builds the pattern of a clause whose operator is
// pattern-based. It returns nil when the clause can never match: an
// unknown operator, an empty value, or a pattern that fails to compile.
func compileAttrPattern(fn OperatorFunc, value string) *regexp.Regexp {
	if fn == nil || value == "" {
		return nil
	}
	re, err := regexp.Compile(fn(value, regexp.QuoteMeta(value)))
	if err != nil {
		return nil
	}
	return re
}
