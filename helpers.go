// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cssq

import (
	"bufio"
	"io"
)

// escapeTable is a table of offsets into substTable for each ASCII
// character. Zero represents no substitution.
var escapeTable = [128]byte{
	'"':  1,
	'&':  2,
	'\'': 3,
	'<':  4,
	'>':  5,
}

var substTable = [...]string{
	"&quot;", // 1
	"&amp;",  // 2
	"&apos;", // 3
	"&lt;",   // 4
	"&gt;",   // 5
}

// writeEscaped writes s to w with the XML special characters escaped.
func writeEscaped(w *bufio.Writer, s string) {
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 128 || escapeTable[c] == 0 {
			continue
		}
		w.WriteString(s[last:i])
		w.WriteString(substTable[escapeTable[c]-1])
		last = i + 1
	}
	w.WriteString(s[last:])
}

// isWhitespace returns true if the string contains only whitespace
// characters.
func isWhitespace(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return false
		}
	}
	return true
}

var crsp = "\n                                "

// crSpaces returns a newline followed by n spaces. It's used to generate
// XML indentations.
func crSpaces(n int) string {
	if n+1 > len(crsp) {
		buf := make([]byte, n+1)
		buf[0] = '\n'
		for i := 1; i < n+1; i++ {
			buf[i] = ' '
		}
		return string(buf)
	}
	return crsp[:n+1]
}

// countWriter counts the bytes written through it.
type countWriter struct {
	w     io.Writer
	bytes int64
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.bytes += int64(n)
	return n, err
}
