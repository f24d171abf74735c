// Copyright 2015-2019 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cssq

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

// An Engine compiles selector text into queries and runs them against the
// nodes of one host Tree.
//
// Compiled queries are cached by selector text for the lifetime of the
// engine: entries are inserted once and never evicted or invalidated, so
// compiling the same text twice returns the same *Query. An Engine is safe
// for concurrent use.
type Engine struct {
	tree   Tree
	log    zerolog.Logger
	native bool

	mu        sync.RWMutex
	grammar   *regexp2.Regexp
	pseudos   map[string]PseudoFunc
	operators map[string]OperatorFunc
	custom    map[string]bool // registered pseudo names and operator symbols
	gen       uint64          // bumped by every registration

	queries   cmap.ConcurrentMap[string, *Query]
	selectors cmap.ConcurrentMap[string, *selector]
	nth       cmap.ConcurrentMap[string, nthResult]
}

// An Option configures an Engine.
type Option func(e *Engine)

// WithLogger sets the logger used for compilation and fallback events.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithNativeQuery enables or disables handing whole-document searches to
// the tree's BulkQuerier, when it has one. It is enabled by default.
func WithNativeQuery(enabled bool) Option {
	return func(e *Engine) {
		e.native = enabled
	}
}

// WithPseudo registers a pseudo-class.
func WithPseudo(name string, fn PseudoFunc) Option {
	return func(e *Engine) {
		e.pseudos[name] = fn
		e.custom[name] = true
	}
}

// WithOperator registers an attribute operator. Invalid symbols are logged
// and ignored.
func WithOperator(symbol string, fn OperatorFunc) Option {
	return func(e *Engine) {
		if !validOperator(symbol) {
			e.log.Warn().Str("operator", symbol).Msg("ignoring invalid attribute operator")
			return
		}
		e.operators[symbol] = fn
		e.custom[symbol] = true
	}
}

// combinatorSymbols lists the explicit combinators of the grammar. The
// descendant combinator is whitespace and has no symbol.
var combinatorSymbols = []string{string(Child), string(Adjacent), string(Sibling)}

// NewEngine creates an engine querying the given tree.
func NewEngine(tree Tree, opts ...Option) *Engine {
	e := &Engine{
		tree:      tree,
		log:       zerolog.Nop(),
		native:    true,
		operators: make(map[string]OperatorFunc, len(defaultOperators)),
		custom:    make(map[string]bool),
		queries:   cmap.New[*Query](),
		selectors: cmap.New[*selector](),
		nth:       cmap.New[nthResult](),
	}
	e.pseudos = e.builtinPseudos()
	for sym, fn := range defaultOperators {
		e.operators[sym] = fn
	}

	for _, opt := range opts {
		opt(e)
	}

	e.grammar = buildGrammar(combinatorSymbols, e.operatorSymbols())
	return e
}

// RegisterPseudo adds or replaces a pseudo-class. Queries compiled before
// the call keep the pseudo-classes they were compiled with, and so does
// selector text compiled before the call, since the text cache is never
// invalidated.
func (e *Engine) RegisterPseudo(name string, fn PseudoFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pseudos[name] = fn
	e.custom[name] = true
	e.gen++
}

// RegisterOperator adds or replaces an attribute operator such as "%=" and
// rebuilds the selector grammar to recognize it. The symbol must be one
// punctuation or symbol character followed by '='.
func (e *Engine) RegisterOperator(symbol string, fn OperatorFunc) error {
	if !validOperator(symbol) {
		return ErrInvalidOperator
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	_, known := e.operators[symbol]
	e.operators[symbol] = fn
	e.custom[symbol] = true
	e.gen++
	if !known {
		e.grammar = buildGrammar(combinatorSymbols, e.operatorSymbols())
		e.log.Info().Str("operator", symbol).Msg("rebuilt selector grammar")
	}
	return nil
}

// operatorSymbols returns the registered operator symbols in a stable
// order. The caller must hold e.mu or have exclusive access.
func (e *Engine) operatorSymbols() []string {
	syms := make([]string, 0, len(e.operators))
	for sym := range e.operators {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

func (e *Engine) lookupPseudo(name string) PseudoFunc {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pseudos[name]
}

func (e *Engine) lookupOperator(symbol string) OperatorFunc {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.operators[symbol]
}

func (e *Engine) isCustom(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.custom[name]
}

func (e *Engine) generation() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gen
}

func (e *Engine) currentGrammar() *regexp2.Regexp {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.grammar
}

// Tokens returns a lazy tokenizer over text.
func (e *Engine) Tokens(text string) *Tokenizer {
	return newTokenizer(e.currentGrammar(), text)
}

// Tokenize scans text into its full token sequence.
func (e *Engine) Tokenize(text string) []Token {
	var toks []Token
	t := e.Tokens(text)
	for tok, ok := t.Next(); ok; tok, ok = t.Next() {
		toks = append(toks, tok)
	}
	return toks
}

// Compile parses and compiles selector text. Compilation never fails:
// characters the grammar does not recognize are skipped, so malformed text
// yields a partial or empty query. Leading whitespace is ignored.
func (e *Engine) Compile(text string) *Query {
	text = strings.TrimLeft(text, " \t\r\n\f")

	if q, ok := e.queries.Get(text); ok {
		return q
	}

	q := e.build(text)
	if !e.queries.SetIfAbsent(text, q) {
		// Another goroutine compiled the same text first; use its query.
		q, _ = e.queries.Get(text)
		return q
	}

	e.log.Debug().Str("selector", text).Int("segments", len(q.segments)).Msg("compiled selector")
	return q
}

func (e *Engine) build(text string) *Query {
	var p parser
	segs := dropBlankGroups(p.parse(e.Tokens(text)))

	q := &Query{text: text, engine: e, segments: segs}
	q.steps = make([]*selector, len(segs))
	gen := e.generation()
	for i, seg := range segs {
		q.steps[i] = e.compiled(seg, gen)
	}
	q.standard = e.standard(segs)
	return q
}

// standardPseudos lists the builtin pseudo-classes that mean here what
// they mean in CSS. :not is checked through its argument.
var standardPseudos = map[string]bool{
	"first-child": true,
	"last-child":  true,
	"only-child":  true,
	"nth-child":   true,
}

// standardOperators lists the attribute operators that mean here what
// they mean in CSS.
var standardOperators = map[string]bool{
	"":   true,
	"=":  true,
	"!=": true,
	"^=": true,
	"$=": true,
	"*=": true,
	"~=": true,
}

// standard reports whether every clause of segs keeps its CSS meaning,
// so that any standard selector implementation returns the same nodes.
func (e *Engine) standard(segs []*Segment) bool {
	for _, seg := range segs {
		for _, a := range seg.Attrs {
			if !e.standardAttr(a.Name, a.Op) {
				return false
			}
		}
		for _, ps := range seg.Pseudos {
			switch {
			case ps.Name == "not":
				if !e.Compile(ps.Value).standard {
					return false
				}
			case !standardPseudos[ps.Name] || e.isCustom(ps.Name):
				return false
			case ps.Name == "nth-child":
				f, ok := e.parseNth(ps.Value)
				if !ok || (f.kind != nthLinear && f.kind != nthIndex) {
					return false
				}
			}
		}
	}
	return true
}

func (e *Engine) standardAttr(name, op string) bool {
	if name != strings.ToLower(name) || !standardOperators[op] {
		return false
	}
	return !e.isCustom(op)
}

// compiled returns the compiled form of seg, computing it at most once per
// distinct segment and registry generation.
func (e *Engine) compiled(seg *Segment, gen uint64) *selector {
	key := strconv.FormatUint(gen, 10) + "\x00" + seg.key()
	if s, ok := e.selectors.Get(key); ok {
		return s
	}
	s := e.compute(seg)
	if !e.selectors.SetIfAbsent(key, s) {
		s, _ = e.selectors.Get(key)
	}
	return s
}

// bulkQuery hands a whole-document search of q to the tree's own selector
// implementation. ok is false when that is not possible or fails.
func (e *Engine) bulkQuery(ctx Node, q *Query) (nodes []Node, ok bool) {
	if !e.native || !q.standard {
		return nil, false
	}
	text := q.text
	bq, isBulk := e.tree.(BulkQuerier)
	if !isBulk || !bq.IsDocument(ctx) {
		return nil, false
	}

	nodes, err := bq.QueryAll(ctx, text)
	if err != nil {
		e.log.Debug().Err(err).Str("selector", text).Msg("native query failed, using compiled selector")
		return nil, false
	}
	return nodes, true
}

// Search compiles text and returns every element below ctx matching it.
func (e *Engine) Search(ctx Node, text string) ([]Node, error) {
	return e.Compile(text).Search(ctx)
}

// Find compiles text and returns the first element below ctx matching it.
func (e *Engine) Find(ctx Node, text string) (Node, error) {
	return e.Compile(text).Find(ctx)
}

// Match compiles text and tests n against it.
func (e *Engine) Match(n Node, text string) (bool, error) {
	return e.Compile(text).Match(n)
}

// Filter compiles text and returns the nodes matching it.
func (e *Engine) Filter(nodes []Node, text string) ([]Node, error) {
	return e.Compile(text).Filter(nodes)
}
