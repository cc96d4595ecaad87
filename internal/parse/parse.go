// Package parse extracts fact records from tree-sitter syntax trees using the
// language query catalog.
package parse

import (
	"bytes"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/utapyngo/code-analyzer/internal/lang"
	"github.com/utapyngo/code-analyzer/internal/model"
)

// ExtractElements runs the element query over tree and returns definitions,
// imports and their counts. Calls and references are left empty.
// An unknown language yields an empty record, not an error.
func ExtractElements(tree *sitter.Tree, source []byte, language string) (*model.Facts, error) {
	l, ok := lang.Lookup(language)
	if !ok {
		return model.Empty(0), nil
	}
	q, err := l.Query(lang.ElementQuery)
	if err != nil {
		return nil, err
	}

	facts := model.Empty(0)
	eachCapture(q, tree.RootNode(), source, func(capture string, node *sitter.Node) {
		text := lang.NodeText(node, source)
		line := lineAt(source, node.StartByte())
		switch capture {
		case "func", "const":
			facts.Functions = append(facts.Functions, model.Function{Name: text, Line: line})
		case "class", "struct":
			facts.Classes = append(facts.Classes, model.Class{Name: text, Line: line})
		case "import":
			facts.Imports = append(facts.Imports, text)
		}
	})

	facts.FunctionCount = len(facts.Functions)
	facts.ClassCount = len(facts.Classes)
	facts.ImportCount = len(facts.Imports)
	for _, fn := range facts.Functions {
		if fn.Name == "main" {
			facts.MainLine = fn.Line
			break
		}
	}
	return facts, nil
}

// ExtractWithDepth extracts facts at the detail level of mode.
//
// Structure keeps counts only. Semantic and Focused add call sites and,
// where the language has a reference query, type references. Every call is
// also recorded as a Call reference so the reference stream alone is enough
// to build a call graph. recursionLimit bounds ancestor walks done by
// receiver hooks; 0 means unbounded.
func ExtractWithDepth(tree *sitter.Tree, source []byte, language string, mode model.Mode, recursionLimit int) (*model.Facts, error) {
	facts, err := ExtractElements(tree, source, language)
	if err != nil {
		return nil, err
	}

	switch mode {
	case model.Structure:
		facts.Functions = nil
		facts.Classes = nil
		facts.Imports = nil
		return facts, nil
	case model.Semantic, model.Focused:
	default:
		return nil, fmt.Errorf("unknown analysis mode %q", mode)
	}

	l, ok := lang.Lookup(language)
	if !ok {
		return facts, nil
	}

	calls, err := extractCalls(tree, source, l)
	if err != nil {
		return nil, err
	}
	facts.Calls = calls
	for _, c := range calls {
		facts.References = append(facts.References, model.Reference{
			Symbol:  c.Callee,
			Kind:    model.Call,
			Line:    c.Line,
			Context: c.Context,
		})
	}

	refs, err := extractReferences(tree, source, l, recursionLimit)
	if err != nil {
		return nil, err
	}
	facts.References = append(facts.References, refs...)
	return facts, nil
}

func extractCalls(tree *sitter.Tree, source []byte, l *lang.Language) ([]model.CallInfo, error) {
	q, err := l.Query(lang.CallQuery)
	if err != nil || q == nil {
		return nil, err
	}

	var calls []model.CallInfo
	eachCapture(q, tree.RootNode(), source, func(capture string, node *sitter.Node) {
		switch capture {
		case "function.call", "method.call", "scoped.call", "macro.call",
			"constructor.call", "identifier.reference":
		default:
			return
		}
		calls = append(calls, model.CallInfo{
			Caller:  enclosingFunction(node, source, l),
			Callee:  lang.NodeText(node, source),
			Line:    lineAt(source, node.StartByte()),
			Column:  int(node.StartPoint().Column),
			Context: lineContext(source, node.StartByte(), node.EndByte()),
		})
	})
	return calls, nil
}

func extractReferences(tree *sitter.Tree, source []byte, l *lang.Language, recursionLimit int) ([]model.Reference, error) {
	q, err := l.Query(lang.ReferenceQuery)
	if err != nil || q == nil {
		return nil, err
	}

	var refs []model.Reference
	eachCapture(q, tree.RootNode(), source, func(capture string, node *sitter.Node) {
		text := lang.NodeText(node, source)
		ref := model.Reference{
			Symbol:  text,
			Line:    lineAt(source, node.StartByte()),
			Context: lineContext(source, node.StartByte(), node.EndByte()),
		}

		switch capture {
		case "method.receiver":
			if l.ReceiverMethod == nil {
				return
			}
			method := l.ReceiverMethod(node, source, recursionLimit)
			if method == "" {
				return
			}
			// Without a type hook the capture itself is the type name.
			owner := text
			if l.ReceiverType != nil {
				owner = l.ReceiverType(node, source)
			}
			if owner == "" {
				return
			}
			ref.Kind = model.MethodDefinition
			ref.Symbol = method
			ref.AssociatedType = owner
		case "struct.literal":
			ref.Kind = model.TypeInstantiation
		case "field.type":
			ref.Kind = model.FieldType
		case "param.type":
			ref.Kind = model.ParameterType
		case "var.type", "shortvar.type":
			ref.Kind = model.VariableType
		case "type.assertion", "type.conversion":
			ref.Kind = model.Call
		default:
			return
		}
		refs = append(refs, ref)
	})
	return refs, nil
}

// eachCapture runs q over root and calls fn for every capture of every match
// that passes the query's predicates.
func eachCapture(q *sitter.Query, root *sitter.Node, source []byte, fn func(capture string, node *sitter.Node)) {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)
		for _, c := range match.Captures {
			fn(q.CaptureNameForId(c.Index), c.Node)
		}
	}
}

// enclosingFunction returns the name of the innermost function scope around
// node, or "" at module scope. A scope whose name cannot be resolved is
// skipped in favor of the next one out.
func enclosingFunction(node *sitter.Node, source []byte, l *lang.Language) string {
	for current := node.Parent(); current != nil; current = current.Parent() {
		kind := current.Type()
		if !l.IsFunctionKind(kind) {
			continue
		}
		if l.FunctionName != nil {
			if name := l.FunctionName(current, source, kind); name != "" {
				return name
			}
		}
		for i := 0; i < int(current.ChildCount()); i++ {
			child := current.Child(i)
			if child != nil && l.IsNameKind(child.Type()) {
				return lang.NodeText(child, source)
			}
		}
	}
	return ""
}

// lineAt returns the 1-indexed line of a byte offset.
func lineAt(source []byte, offset uint32) int {
	if int(offset) > len(source) {
		offset = uint32(len(source))
	}
	return bytes.Count(source[:offset], []byte{'\n'}) + 1
}

// lineContext returns the trimmed source line containing [start, end).
func lineContext(source []byte, start, end uint32) string {
	s, e := int(start), int(end)
	if s > len(source) {
		s = len(source)
	}
	if e > len(source) {
		e = len(source)
	}
	if e < s {
		e = s
	}
	lineStart := bytes.LastIndexByte(source[:s], '\n') + 1
	lineEnd := len(source)
	if i := bytes.IndexByte(source[e:], '\n'); i >= 0 {
		lineEnd = e + i
	}
	return strings.TrimSpace(string(source[lineStart:lineEnd]))
}

// CountLines counts lines the way an editor does: a trailing newline does
// not start a new line, and empty content has zero lines.
func CountLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := bytes.Count(source, []byte{'\n'})
	if source[len(source)-1] != '\n' {
		n++
	}
	return n
}
