// Package graph builds a call graph from extracted facts and discovers
// bounded call chains over it.
package graph

import "github.com/utapyngo/code-analyzer/internal/model"

const (
	// ModuleScope labels calls made outside any function body.
	ModuleScope = "<module>"
	// TypeUsage labels a caller edge that records a type usage rather than
	// a call.
	TypeUsage = "<reference>"
)

// edge is one (file, line, symbol) entry in the callers or callees index.
type edge struct {
	file   string
	line   int
	symbol string
}

// CallGraph indexes who calls whom across a batch of files. It is built once
// per request and is read-only afterwards.
type CallGraph struct {
	callers     map[string][]edge
	callees     map[string][]edge
	definitions map[string][]model.Location
}

// Build creates the call graph from already-extracted facts, in input order.
func Build(files []model.FileFacts) *CallGraph {
	g := &CallGraph{
		callers:     make(map[string][]edge),
		callees:     make(map[string][]edge),
		definitions: make(map[string][]model.Location),
	}

	for i := range files {
		path := files[i].Path
		f := files[i].Facts
		if f == nil {
			continue
		}

		for _, fn := range f.Functions {
			g.definitions[fn.Name] = append(g.definitions[fn.Name], model.Location{File: path, Line: fn.Line})
		}
		for _, cls := range f.Classes {
			g.definitions[cls.Name] = append(g.definitions[cls.Name], model.Location{File: path, Line: cls.Line})
		}

		for _, c := range f.Calls {
			caller := c.Caller
			if caller == "" {
				caller = ModuleScope
			}
			g.callers[c.Callee] = append(g.callers[c.Callee], edge{path, c.Line, caller})
			if caller != ModuleScope {
				g.callees[caller] = append(g.callees[caller], edge{path, c.Line, c.Callee})
			}
		}

		for _, r := range f.References {
			switch {
			case r.Kind == model.MethodDefinition:
				if r.AssociatedType != "" {
					g.callees[r.AssociatedType] = append(g.callees[r.AssociatedType], edge{path, r.Line, r.Symbol})
				}
			case r.Kind.IsTypeUsage():
				g.callers[r.Symbol] = append(g.callers[r.Symbol], edge{path, r.Line, TypeUsage})
			}
		}
	}
	return g
}

// Definitions returns where symbol is defined, in discovery order.
func (g *CallGraph) Definitions(symbol string) []model.Location {
	return g.definitions[symbol]
}

// FindIncomingChains returns call chains that lead into symbol, at most
// maxDepth hops long. Each chain lists the outermost caller first.
func (g *CallGraph) FindIncomingChains(symbol string, maxDepth int) []model.Chain {
	return g.findChains(symbol, maxDepth, g.callers, func(path []model.Hop, e edge, current string) []model.Hop {
		hops := make([]model.Hop, 0, len(path)+1)
		hops = append(hops, model.Hop{File: e.file, Line: e.line, From: e.symbol, To: current})
		return append(hops, path...)
	})
}

// FindOutgoingChains returns call chains that start at symbol, at most
// maxDepth hops long. Each chain runs from symbol outward.
func (g *CallGraph) FindOutgoingChains(symbol string, maxDepth int) []model.Chain {
	return g.findChains(symbol, maxDepth, g.callees, func(path []model.Hop, e edge, current string) []model.Hop {
		hops := make([]model.Hop, 0, len(path)+1)
		hops = append(hops, path...)
		return append(hops, model.Hop{File: e.file, Line: e.line, From: current, To: e.symbol})
	})
}

type frontier struct {
	symbol string
	path   []model.Hop
	depth  int
}

// findChains is a breadth-first walk of index from symbol. A chain is
// emitted when it reaches maxDepth, when its last symbol has no further
// edges, or when that symbol was already expanded earlier in this call.
// The visited set is shared by every path in one call, so a symbol reached
// twice is expanded only from whichever path got there first.
func (g *CallGraph) findChains(symbol string, maxDepth int, index map[string][]edge, extend func([]model.Hop, edge, string) []model.Hop) []model.Chain {
	if maxDepth <= 0 {
		return nil
	}

	var chains []model.Chain
	var queue []frontier
	visited := make(map[string]struct{})

	for _, e := range index[symbol] {
		path := extend(nil, e, symbol)
		if maxDepth == 1 {
			chains = append(chains, model.Chain{Hops: path})
		} else {
			queue = append(queue, frontier{symbol: e.symbol, path: path, depth: 1})
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= maxDepth {
			chains = append(chains, model.Chain{Hops: cur.path})
			continue
		}
		if _, seen := visited[cur.symbol]; seen {
			chains = append(chains, model.Chain{Hops: cur.path})
			continue
		}
		visited[cur.symbol] = struct{}{}

		next := index[cur.symbol]
		if len(next) == 0 {
			chains = append(chains, model.Chain{Hops: cur.path})
			continue
		}
		for _, e := range next {
			path := extend(cur.path, e, cur.symbol)
			if cur.depth+1 >= maxDepth {
				chains = append(chains, model.Chain{Hops: path})
			} else {
				queue = append(queue, frontier{symbol: e.symbol, path: path, depth: cur.depth + 1})
			}
		}
	}
	return chains
}
