package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

func init() {
	Languages["rust"] = &Language{
		Name:           "rust",
		Extensions:     []string{".rs"},
		lang:           rust.GetLanguage(),
		hasReferences:  true,
		FunctionKinds:  []string{"function_item", "impl_item"},
		NameKinds:      []string{"identifier", "field_identifier", "property_identifier"},
		FunctionName:   rustFunctionName,
		ReceiverMethod: rustReceiverMethod,
		ReceiverType:   rustReceiverType,
	}
}

// rustFunctionName names an impl block "impl TypeName" so that calls made
// from associated consts and similar items still get a caller.
func rustFunctionName(node *sitter.Node, source []byte, kind string) string {
	if kind != "impl_item" {
		return ""
	}
	if name := childText(node, source, "type_identifier"); name != "" {
		return "impl " + name
	}
	return ""
}

// rustReceiverMethod returns the function_item a self parameter belongs to.
func rustReceiverMethod(node *sitter.Node, source []byte, limit int) string {
	fn := enclosing(node, limit, "function_item")
	if fn == nil {
		return ""
	}
	return childText(fn, source, "identifier")
}

// rustReceiverType returns the type of the impl block enclosing a self
// parameter.
func rustReceiverType(node *sitter.Node, source []byte) string {
	impl := enclosing(node, 0, "impl_item")
	if impl == nil {
		return ""
	}
	return childText(impl, source, "type_identifier")
}
