// Package lang provides the language query catalog: one row per supported
// tree-sitter grammar, holding its embedded queries, scope node kinds and
// optional name-resolution hooks.
package lang

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

//go:embed queries/*.scm
var queryFS embed.FS

// Query categories, also used as the .scm file suffix.
const (
	ElementQuery   = "elements"
	CallQuery      = "calls"
	ReferenceQuery = "references"
)

// QueryError reports a built-in query that could not be loaded or compiled.
// Queries ship with the binary, so this is a packaging defect and must be
// surfaced rather than treated as "no facts".
type QueryError struct {
	Language string
	Category string
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s %s query: %v", e.Language, e.Category, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// FunctionNameFunc names a function-scope node whose name is not a plain
// identifier child (e.g. "impl Foo" for a Rust impl block). It returns ""
// to fall back to the identifier scan.
type FunctionNameFunc func(node *sitter.Node, source []byte, kind string) string

// ReceiverMethodFunc returns the method a receiver node belongs to, or "".
// limit bounds the number of ancestors visited; 0 means no bound.
type ReceiverMethodFunc func(node *sitter.Node, source []byte, limit int) string

// ReceiverTypeFunc returns the type a receiver node is bound to, or "".
type ReceiverTypeFunc func(node *sitter.Node, source []byte) string

// Language holds the catalog row for one grammar.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language

	// hasReferences is false for languages that ship no reference query.
	hasReferences bool

	// FunctionKinds are node kinds that open a function scope.
	FunctionKinds []string
	// NameKinds are node kinds whose text names a function scope.
	NameKinds []string

	FunctionName   FunctionNameFunc
	ReceiverMethod ReceiverMethodFunc
	ReceiverType   ReceiverTypeFunc

	queries [3]compiledQuery
}

type compiledQuery struct {
	once  sync.Once
	query *sitter.Query
	err   error
}

// NewParser creates a fresh tree-sitter parser for this language.
// A parser is not safe for concurrent use.
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// HasReferenceQuery reports whether the language ships a reference query.
func (l *Language) HasReferenceQuery() bool {
	return l.hasReferences
}

// IsFunctionKind reports whether kind opens a function scope.
func (l *Language) IsFunctionKind(kind string) bool {
	return contains(l.FunctionKinds, kind)
}

// IsNameKind reports whether kind holds identifier text.
func (l *Language) IsNameKind(kind string) bool {
	return contains(l.NameKinds, kind)
}

// Query returns the compiled query for a category (safe to share across
// goroutines). A nil query with a nil error means the language has no query
// of that category.
func (l *Language) Query(category string) (*sitter.Query, error) {
	var idx int
	switch category {
	case ElementQuery:
		idx = 0
	case CallQuery:
		idx = 1
	case ReferenceQuery:
		if !l.hasReferences {
			return nil, nil
		}
		idx = 2
	default:
		return nil, &QueryError{Language: l.Name, Category: category, Err: fmt.Errorf("unknown query category")}
	}

	cq := &l.queries[idx]
	cq.once.Do(func() {
		data, err := queryFS.ReadFile(fmt.Sprintf("queries/%s-%s.scm", l.Name, category))
		if err != nil {
			cq.err = &QueryError{Language: l.Name, Category: category, Err: fmt.Errorf("reading query file: %w", err)}
			return
		}
		q, err := sitter.NewQuery(data, l.lang)
		if err != nil {
			cq.err = &QueryError{Language: l.Name, Category: category, Err: fmt.Errorf("compiling query: %w", err)}
			return
		}
		cq.query = q
	})
	return cq.query, cq.err
}

// Languages maps catalog names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// alias is an identifier that shares another row's grammar and queries.
type alias struct {
	target     string
	extensions []string
}

var aliases = map[string]alias{
	"typescript": {target: "javascript", extensions: []string{".ts"}},
}

// Lookup returns the catalog row for a language identifier.
func Lookup(name string) (*Language, bool) {
	if a, ok := aliases[name]; ok {
		name = a.target
	}
	l, ok := Languages[name]
	return l, ok
}

// Names returns the sorted catalog names.
func Names() []string {
	names := make([]string, 0, len(Languages))
	for name := range Languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// childText returns the text of the first direct child whose kind is one of
// kinds, or "".
func childText(node *sitter.Node, source []byte, kinds ...string) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && contains(kinds, child.Type()) {
			return NodeText(child, source)
		}
	}
	return ""
}

// enclosing walks ancestors of node and returns the first whose kind is one
// of kinds. limit bounds the walk; 0 means no bound.
func enclosing(node *sitter.Node, limit int, kinds ...string) *sitter.Node {
	steps := 0
	for current := node.Parent(); current != nil; current = current.Parent() {
		if limit > 0 && steps >= limit {
			return nil
		}
		steps++
		if contains(kinds, current.Type()) {
			return current
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
