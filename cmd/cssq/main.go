// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command cssq prints the elements of an HTML or XML document that match a
// CSS selector.
//
//	cssq [-f file] [-xml] [-indent n] [-json] [-first] [-native=false] [-v] selector
//
// The document is read from standard input unless -f is given.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/beevik/cssq"
	"github.com/beevik/cssq/htmltree"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

var errUsage = errors.New("usage: cssq [flags] selector")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	file   string
	xml    bool
	indent int
	json   bool
	first  bool
	native bool
	debug  bool
}

// A match is one selected element as printed with -json.
type match struct {
	Tag   string `json:"tag"`
	ID    string `json:"id,omitempty"`
	Class string `json:"class,omitempty"`
	Text  string `json:"text"`
	HTML  string `json:"html"`
}

func run(args []string, stdin io.Reader, outW, errW io.Writer) int {
	var opts options

	flags := flag.NewFlagSet("cssq", flag.ContinueOnError)
	flags.SetOutput(errW)
	flags.StringVar(&opts.file, "f", "", "read the document from `file` instead of standard input")
	flags.BoolVar(&opts.xml, "xml", false, "parse the document as XML")
	flags.IntVar(&opts.indent, "indent", 0, "indent each XML match by `n` spaces per level")
	flags.BoolVar(&opts.json, "json", false, "print matches as JSON")
	flags.BoolVar(&opts.first, "first", false, "print the first match only")
	flags.BoolVar(&opts.native, "native", true, "let cascadia run whole-document HTML searches it supports")
	flags.BoolVar(&opts.debug, "v", false, "log compilation details to standard error")

	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(errW, errUsage)
		flags.PrintDefaults()
		return 2
	}
	selector := flags.Arg(0)

	level := zerolog.WarnLevel
	if opts.debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = errW
		w.NoColor = true
		w.PartsExclude = []string{zerolog.TimestampFieldName}
	})).Level(level)

	in := stdin
	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			logger.Error().Err(err).Msg("cannot open document")
			return 1
		}
		defer f.Close()
		in = f
	}

	var matches []match
	var err error
	if opts.xml {
		matches, err = searchXML(in, selector, opts, logger)
	} else {
		matches, err = searchHTML(in, selector, opts, logger)
	}
	if err != nil {
		logger.Error().Err(err).Str("selector", selector).Msg("search failed")
		return 1
	}

	if opts.json {
		enc := json.NewEncoder(outW)
		enc.SetIndent("", "  ")
		if matches == nil {
			matches = []match{}
		}
		if err := enc.Encode(matches); err != nil {
			logger.Error().Err(err).Msg("cannot encode matches")
			return 1
		}
		return 0
	}

	for _, m := range matches {
		fmt.Fprintln(outW, m.HTML)
	}
	return 0
}

func searchHTML(r io.Reader, selector string, opts options, logger zerolog.Logger) ([]match, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	e := cssq.NewEngine(htmltree.Tree{}, cssq.WithLogger(logger), cssq.WithNativeQuery(opts.native))
	nodes, err := e.Search(htmltree.Wrap(doc.Nodes[0]), selector)
	if err != nil {
		return nil, err
	}
	if opts.first && len(nodes) > 1 {
		nodes = nodes[:1]
	}

	sel := htmltree.Selection(doc, nodes)
	out := make([]match, 0, len(nodes))
	for i, n := range nodes {
		html, err := goquery.OuterHtml(sel.Eq(i))
		if err != nil {
			return nil, err
		}
		out = append(out, newMatch(n, html))
	}
	return out, nil
}

func searchXML(r io.Reader, selector string, opts options, logger zerolog.Logger) ([]match, error) {
	doc := cssq.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, err
	}

	e := cssq.NewEngine(cssq.ElementTree{}, cssq.WithLogger(logger))
	nodes, err := e.Search(doc, selector)
	if err != nil {
		return nil, err
	}
	if opts.first && len(nodes) > 1 {
		nodes = nodes[:1]
	}

	out := make([]match, 0, len(nodes))
	for _, n := range nodes {
		el := n.(*cssq.Element)
		if opts.indent > 0 {
			el = el.Copy()
			el.Indent(opts.indent)
		}
		xml, err := el.WriteToString()
		if err != nil {
			return nil, err
		}
		out = append(out, newMatch(n, xml))
	}
	return out, nil
}

func newMatch(n cssq.Node, markup string) match {
	return match{
		Tag:   n.Tag(),
		ID:    n.ID(),
		Class: n.Class(),
		Text:  strings.TrimSpace(n.Text()),
		HTML:  markup,
	}
}
