package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

func init() {
	Languages["go"] = &Language{
		Name:           "go",
		Extensions:     []string{".go"},
		lang:           golang.GetLanguage(),
		hasReferences:  true,
		FunctionKinds:  []string{"function_declaration", "method_declaration"},
		NameKinds:      []string{"identifier", "field_identifier", "property_identifier"},
		ReceiverMethod: goReceiverMethod,
		ReceiverType:   goReceiverType,
	}
}

// goReceiverMethod returns the name of the method_declaration whose receiver
// contains node.
func goReceiverMethod(node *sitter.Node, source []byte, limit int) string {
	decl := enclosing(node, limit, "method_declaration")
	if decl == nil {
		return ""
	}
	if name := decl.ChildByFieldName("name"); name != nil {
		return NodeText(name, source)
	}
	return childText(decl, source, "field_identifier")
}

// goReceiverType extracts the receiver type name of the method_declaration
// enclosing node.
// Navigates: method_declaration → parameter_list (receiver) → parameter_declaration → type.
func goReceiverType(node *sitter.Node, source []byte) string {
	decl := enclosing(node, 0, "method_declaration")
	if decl == nil {
		return ""
	}
	recv := decl.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	for i := 0; i < int(recv.ChildCount()); i++ {
		param := recv.Child(i)
		if param != nil && param.Type() == "parameter_declaration" {
			return goExtractTypeName(param, source)
		}
	}
	return ""
}

// goExtractTypeName extracts the type name from a parameter_declaration,
// unwrapping pointer_type if present.
func goExtractTypeName(param *sitter.Node, source []byte) string {
	for i := 0; i < int(param.ChildCount()); i++ {
		child := param.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "type_identifier":
			return NodeText(child, source)
		case "pointer_type":
			if name := childText(child, source, "type_identifier"); name != "" {
				return name
			}
		}
	}
	return ""
}
