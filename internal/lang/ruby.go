package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"
)

func init() {
	Languages["ruby"] = &Language{
		Name:           "ruby",
		Extensions:     []string{".rb"},
		lang:           ruby.GetLanguage(),
		hasReferences:  true,
		FunctionKinds:  []string{"method", "singleton_method"},
		NameKinds:      []string{"identifier", "field_identifier", "property_identifier"},
		ReceiverMethod: rubyReceiverMethod,
		ReceiverType:   rubyReceiverType,
	}
}

// rubyReceiverMethod returns the name of the method or singleton_method
// enclosing node. The receiver capture is the method name itself, so the
// walk usually stops at the direct parent.
func rubyReceiverMethod(node *sitter.Node, source []byte, limit int) string {
	def := enclosing(node, limit, "method", "singleton_method")
	if def == nil {
		return ""
	}
	if name := def.ChildByFieldName("name"); name != nil {
		return NodeText(name, source)
	}
	return childText(def, source, "identifier")
}

// rubyReceiverType returns the innermost class or module name enclosing
// node. Returns "" for methods defined at script top-level.
func rubyReceiverType(node *sitter.Node, source []byte) string {
	owner := enclosing(node, 0, "class", "module")
	if owner == nil {
		return ""
	}
	return rubyClassName(owner, source)
}

// rubyClassName returns the name of a class or module node. Namespaced
// names (class Foo::Bar) are returned in full.
func rubyClassName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return NodeText(name, source)
	}
	return childText(node, source, "constant", "scope_resolution")
}
