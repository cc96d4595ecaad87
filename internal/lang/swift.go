package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/swift"
)

func init() {
	Languages["swift"] = &Language{
		Name:       "swift",
		Extensions: []string{".swift"},
		lang:       swift.GetLanguage(),
		FunctionKinds: []string{
			"function_declaration",
			"init_declaration",
			"deinit_declaration",
			"subscript_declaration",
		},
		NameKinds:    []string{"simple_identifier"},
		FunctionName: swiftFunctionName,
	}
}

// swiftFunctionName names the declarations that have no identifier of their
// own.
func swiftFunctionName(_ *sitter.Node, _ []byte, kind string) string {
	switch kind {
	case "init_declaration":
		return "init"
	case "deinit_declaration":
		return "deinit"
	case "subscript_declaration":
		return "subscript"
	}
	return ""
}
