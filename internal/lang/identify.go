package lang

import (
	"path/filepath"
	"strings"
	"sync"
)

// countOnlyExtensions maps extensions of languages without a catalog row.
// Their files are recognized as source and only count lines.
var countOnlyExtensions = map[string]string{
	".hs":         "haskell",
	".rkt":        "scheme",
	".scm":        "scheme",
	".json":       "json",
	".toml":       "toml",
	".yaml":       "yaml",
	".yml":        "yaml",
	".sh":         "bash",
	".ps1":        "powershell",
	".bat":        "batch",
	".cmd":        "batch",
	".vbs":        "vbscript",
	".md":         "markdown",
	".html":       "html",
	".css":        "css",
	".sql":        "sql",
	".cpp":        "cpp",
	".cc":         "cpp",
	".cxx":        "cpp",
	".c":          "c",
	".h":          "cpp",
	".hpp":        "cpp",
	".php":        "php",
	".scala":      "scala",
	".r":          "r",
	".m":          "matlab",
	".pl":         "perl",
	".dockerfile": "dockerfile",
}

var (
	extensionMap  map[string]string
	extensionOnce sync.Once
)

// getExtensionMap merges catalog rows, their aliases and the count-only
// table. Catalog rows win on conflict.
func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string, len(countOnlyExtensions)+16)
		for ext, id := range countOnlyExtensions {
			extensionMap[ext] = id
		}
		for name, a := range aliases {
			for _, ext := range a.extensions {
				extensionMap[ext] = name
			}
		}
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language identifier for a file extension, with
// or without the leading dot, or "" if unsupported.
func ForExtension(ext string) string {
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return getExtensionMap()[ext]
}

// Identify returns the language identifier for a file path, or "" if the
// file is not a recognized source file.
func Identify(path string) string {
	return ForExtension(filepath.Ext(path))
}
