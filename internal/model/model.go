// Package model defines core data structures for code-analyzer.
package model

// Mode selects how much detail a file analysis produces.
type Mode string

const (
	// Structure keeps counts only; detail lists are always empty.
	Structure Mode = "structure"
	// Semantic records definitions, calls and type references.
	Semantic Mode = "semantic"
	// Focused tracks one symbol across files.
	Focused Mode = "focused"
)

// ReferenceKind classifies a symbol occurrence.
type ReferenceKind string

const (
	Definition        ReferenceKind = "definition"
	MethodDefinition  ReferenceKind = "method_definition"
	Call              ReferenceKind = "call"
	TypeInstantiation ReferenceKind = "type_instantiation"
	FieldType         ReferenceKind = "field_type"
	VariableType      ReferenceKind = "variable_type"
	ParameterType     ReferenceKind = "parameter_type"
	Import            ReferenceKind = "import"
)

// IsTypeUsage reports whether the kind records a symbol used as a type.
func (k ReferenceKind) IsTypeUsage() bool {
	switch k {
	case TypeInstantiation, FieldType, VariableType, ParameterType:
		return true
	}
	return false
}

// Function is a function or method definition.
type Function struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

// Class is a class, struct, interface or similar type definition.
type Class struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

// CallInfo is one call site. An empty Caller means the call happened at
// module scope, outside any recognized function body.
type CallInfo struct {
	Caller  string `json:"caller,omitempty"`
	Callee  string `json:"callee"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Context string `json:"context"`
}

// Reference is one typed symbol occurrence.
type Reference struct {
	Symbol         string        `json:"symbol"`
	Kind           ReferenceKind `json:"kind"`
	Line           int           `json:"line"`
	Context        string        `json:"context"`
	AssociatedType string        `json:"associated_type,omitempty"`
}

// Facts is the fact record produced by analyzing one file at one mode.
type Facts struct {
	Functions  []Function  `json:"functions"`
	Classes    []Class     `json:"classes"`
	Imports    []string    `json:"imports"`
	Calls      []CallInfo  `json:"calls"`
	References []Reference `json:"references"`

	FunctionCount int `json:"function_count"`
	ClassCount    int `json:"class_count"`
	ImportCount   int `json:"import_count"`
	LineCount     int `json:"line_count"`
	// MainLine is the line of a function named "main", or 0.
	MainLine int `json:"main_line,omitempty"`
}

// Empty returns a record with no facts besides the line count.
func Empty(lineCount int) *Facts {
	return &Facts{LineCount: lineCount}
}

// Clone returns a deep copy of f.
func (f *Facts) Clone() *Facts {
	if f == nil {
		return nil
	}
	c := *f
	c.Functions = append([]Function(nil), f.Functions...)
	c.Classes = append([]Class(nil), f.Classes...)
	c.Imports = append([]string(nil), f.Imports...)
	c.Calls = append([]CallInfo(nil), f.Calls...)
	c.References = append([]Reference(nil), f.References...)
	return &c
}

// FileFacts pairs a file with its fact record.
type FileFacts struct {
	Path     string  `json:"path"`
	Language string  `json:"language"`
	Facts    *Facts  `json:"facts"`
	Rank     float64 `json:"rank,omitempty"`
}

// Location is a definition site.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Hop is one edge traversed in a chain: From calls (or owns, or uses) To
// at File:Line.
type Hop struct {
	File string `json:"file"`
	Line int    `json:"line"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Chain is one path discovered from a query symbol outward.
type Chain struct {
	Hops []Hop `json:"hops"`
}

// FocusedResult is the answer to a focused analysis request.
type FocusedResult struct {
	Symbol      string     `json:"symbol"`
	FollowDepth int        `json:"follow_depth"`
	Files       []string   `json:"files"`
	Definitions []Location `json:"definitions"`
	Incoming    []Chain    `json:"incoming"`
	Outgoing    []Chain    `json:"outgoing"`
	Note        string     `json:"note,omitempty"`
}

// DirectoryResult is the per-file overview of a directory.
type DirectoryResult struct {
	Root     string      `json:"root"`
	Mode     Mode        `json:"mode"`
	MaxDepth int         `json:"max_depth"`
	Files    []FileFacts `json:"files"`
}
