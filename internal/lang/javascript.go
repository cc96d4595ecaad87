package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// The javascript row also serves .ts files (see aliases); the JavaScript
// grammar parses the common subset well enough for call tracking.
func init() {
	Languages["javascript"] = &Language{
		Name:          "javascript",
		Extensions:    []string{".js"},
		lang:          javascript.GetLanguage(),
		FunctionKinds: []string{"function_declaration", "method_definition", "arrow_function", "function", "function_expression"},
		NameKinds:     []string{"identifier", "field_identifier", "property_identifier"},
		FunctionName:  jsFunctionName,
	}
}

// jsFunctionName names anonymous function values by the binding they are
// assigned to: const handler = () => {...} is "handler".
func jsFunctionName(node *sitter.Node, source []byte, kind string) string {
	switch kind {
	case "arrow_function", "function", "function_expression":
	default:
		return ""
	}
	parent := node.Parent()
	if parent == nil {
		return ""
	}
	switch parent.Type() {
	case "variable_declarator":
		return childText(parent, source, "identifier")
	case "pair":
		return childText(parent, source, "property_identifier")
	}
	return ""
}
