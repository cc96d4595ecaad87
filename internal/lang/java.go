package lang

import (
	"github.com/smacker/go-tree-sitter/java"
)

func init() {
	Languages["java"] = &Language{
		Name:          "java",
		Extensions:    []string{".java"},
		lang:          java.GetLanguage(),
		FunctionKinds: []string{"method_declaration", "constructor_declaration"},
		NameKinds:     []string{"identifier", "field_identifier", "property_identifier"},
	}
}
