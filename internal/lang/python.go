package lang

import (
	"github.com/smacker/go-tree-sitter/python"
)

func init() {
	Languages["python"] = &Language{
		Name:          "python",
		Extensions:    []string{".py"},
		lang:          python.GetLanguage(),
		FunctionKinds: []string{"function_definition"},
		NameKinds:     []string{"identifier", "field_identifier", "property_identifier"},
	}
}
