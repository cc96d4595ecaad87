// Package toon renders analysis results in TOON (Token-Oriented Object
// Notation), a compact tabular text format.
package toon

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/utapyngo/code-analyzer/internal/graph"
	"github.com/utapyngo/code-analyzer/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// EncodeFile renders one file's facts. Structure mode has counts only, so
// the detail tables are left out.
func EncodeFile(ff model.FileFacts, mode model.Mode) string {
	f := ff.Facts
	if f == nil {
		f = model.Empty(0)
	}

	parts := []string{
		fmt.Sprintf("file: %s", encodeValue(ff.Path)),
		fmt.Sprintf("language: %s", encodeValue(ff.Language)),
		fmt.Sprintf("mode: %s", mode),
		fmt.Sprintf("lines: %d", f.LineCount),
		fmt.Sprintf("functions: %d", f.FunctionCount),
		fmt.Sprintf("classes: %d", f.ClassCount),
		fmt.Sprintf("imports: %d", f.ImportCount),
	}
	if f.MainLine > 0 {
		parts = append(parts, fmt.Sprintf("main_line: %d", f.MainLine))
	}
	if mode == model.Structure {
		return strings.Join(parts, "\n")
	}

	var fnRows [][]string
	for _, fn := range f.Functions {
		fnRows = append(fnRows, []string{fn.Name, strconv.Itoa(fn.Line)})
	}
	parts = append(parts, formatTabular("functions", []string{"name", "line"}, fnRows))

	var classRows [][]string
	for _, c := range f.Classes {
		classRows = append(classRows, []string{c.Name, strconv.Itoa(c.Line)})
	}
	parts = append(parts, formatTabular("classes", []string{"name", "line"}, classRows))

	var importRows [][]string
	for _, imp := range f.Imports {
		importRows = append(importRows, []string{imp})
	}
	parts = append(parts, formatTabular("imports", []string{"import"}, importRows))

	var callRows [][]string
	for _, c := range f.Calls {
		caller := c.Caller
		if caller == "" {
			caller = graph.ModuleScope
		}
		callRows = append(callRows, []string{
			caller,
			c.Callee,
			strconv.Itoa(c.Line),
			strconv.Itoa(c.Column),
			c.Context,
		})
	}
	parts = append(parts, formatTabular("calls", []string{"caller", "callee", "line", "column", "context"}, callRows))

	// Call references duplicate the calls table.
	var refRows [][]string
	for _, r := range f.References {
		if r.Kind == model.Call {
			continue
		}
		refRows = append(refRows, []string{
			r.Symbol,
			string(r.Kind),
			strconv.Itoa(r.Line),
			r.AssociatedType,
		})
	}
	if len(refRows) > 0 {
		parts = append(parts, formatTabular("references", []string{"symbol", "kind", "line", "type"}, refRows))
	}

	return strings.Join(parts, "\n")
}

// EncodeDirectory renders a directory overview. Paths are shown relative
// to the result root.
func EncodeDirectory(res *model.DirectoryResult) string {
	parts := []string{
		fmt.Sprintf("root: %s", encodeValue(res.Root)),
		fmt.Sprintf("mode: %s", res.Mode),
		fmt.Sprintf("max_depth: %d", res.MaxDepth),
	}

	var fileRows [][]string
	for i := range res.Files {
		ff := &res.Files[i]
		f := ff.Facts
		if f == nil {
			f = model.Empty(0)
		}
		fileRows = append(fileRows, []string{
			relPath(res.Root, ff.Path),
			ff.Language,
			strconv.Itoa(f.LineCount),
			strconv.Itoa(f.FunctionCount),
			strconv.Itoa(f.ClassCount),
			strconv.Itoa(f.ImportCount),
			fmt.Sprintf("%.4f", ff.Rank),
		})
	}
	parts = append(parts, formatTabular("files",
		[]string{"path", "language", "lines", "functions", "classes", "imports", "rank"}, fileRows))

	return strings.Join(parts, "\n")
}

// EncodeFocused renders a focused result. root, when non-empty, shortens
// file paths.
func EncodeFocused(res *model.FocusedResult, root string) string {
	var parts []string
	if res.Note != "" {
		parts = append(parts, fmt.Sprintf("note: %s", encodeValue(res.Note)))
	}
	parts = append(parts,
		fmt.Sprintf("symbol: %s", encodeValue(res.Symbol)),
		fmt.Sprintf("follow_depth: %d", res.FollowDepth),
		fmt.Sprintf("files_analyzed: %d", len(res.Files)),
	)

	var defRows [][]string
	for _, d := range res.Definitions {
		defRows = append(defRows, []string{relPath(root, d.File), strconv.Itoa(d.Line)})
	}
	parts = append(parts, formatTabular("definitions", []string{"file", "line"}, defRows))

	parts = append(parts, formatTabular("incoming", chainColumns, chainRows(res.Incoming, root)))
	parts = append(parts, formatTabular("outgoing", chainColumns, chainRows(res.Outgoing, root)))

	return strings.Join(parts, "\n")
}

var chainColumns = []string{"chain", "hop", "file", "line", "from", "to"}

// chainRows flattens chains into one row per hop, numbered from 1.
func chainRows(chains []model.Chain, root string) [][]string {
	var rows [][]string
	for i, c := range chains {
		for j, h := range c.Hops {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				strconv.Itoa(j + 1),
				relPath(root, h.File),
				strconv.Itoa(h.Line),
				h.From,
				h.To,
			})
		}
	}
	return rows
}

func relPath(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	if rel == "." {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
