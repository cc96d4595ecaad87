package analyze

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utapyngo/code-analyzer/internal/model"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func hops(c model.Chain) string {
	parts := make([]string, len(c.Hops))
	for i, h := range c.Hops {
		parts[i] = h.From + "->" + h.To
	}
	return strings.Join(parts, " ")
}

const serviceGo = `package app

func Handle() {
	validate()
	store()
}

func validate() {}
`

const storeGo = `package app

func store() {
	write()
}

func write() {}
`

const mainGo = `package app

func main() {
	Handle()
}
`

func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "service.go", serviceGo)
	writeFile(t, dir, "db/store.go", storeGo)
	writeFile(t, dir, "cmd/main.go", mainGo)
	writeFile(t, dir, "README.txt", "not source")
	return dir
}

func TestAnalyzeFileSemantic(t *testing.T) {
	t.Parallel()
	dir := project(t)
	a := New()

	f, err := a.AnalyzeFile(filepath.Join(dir, "service.go"), model.Semantic)
	require.NoError(t, err)
	assert.Equal(t, 2, f.FunctionCount)
	assert.Equal(t, 8, f.LineCount)
	assert.Len(t, f.Calls, 2)
}

func TestAnalyzeFileStructureKeepsCountsOnly(t *testing.T) {
	t.Parallel()
	dir := project(t)
	a := New()

	f, err := a.AnalyzeFile(filepath.Join(dir, "service.go"), model.Structure)
	require.NoError(t, err)
	assert.Equal(t, 2, f.FunctionCount)
	assert.Empty(t, f.Functions)
	assert.Empty(t, f.Calls)
}

func TestAnalyzeFileBinaryContentDegrades(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.py")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x9f, 0x80, 0xc3, 0x28, 0x01}, 0o644))

	f, err := New().AnalyzeFile(path, model.Semantic)
	require.NoError(t, err)
	assert.Equal(t, model.Empty(0), f)
}

func TestAnalyzeFileUnsupportedLanguageCountsLines(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "data.json", "{\n  \"a\": 1\n}\n")

	f, err := New().AnalyzeFile(path, model.Semantic)
	require.NoError(t, err)
	assert.Equal(t, model.Empty(3), f)
}

func TestAnalyzeFileMissingPath(t *testing.T) {
	t.Parallel()
	_, err := New().AnalyzeFile(filepath.Join(t.TempDir(), "nope.go"), model.Semantic)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestAnalyzeFileUsesCache(t *testing.T) {
	t.Parallel()
	dir := project(t)
	reg := prometheus.NewRegistry()
	a := New(WithRegistry(reg), WithCacheSize(8))
	path := filepath.Join(dir, "service.go")

	first, err := a.AnalyzeFile(path, model.Semantic)
	require.NoError(t, err)
	first.Functions[0].Name = "mutated"

	second, err := a.AnalyzeFile(path, model.Semantic)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", second.Functions[0].Name, "cached record is independent of returned copies")

	families, err := reg.Gather()
	require.NoError(t, err)
	counts := map[string]float64{}
	for _, mf := range families {
		counts[mf.GetName()] = mf.GetMetric()[0].GetCounter().GetValue()
	}
	assert.Equal(t, 1.0, counts["code_analyzer_fact_cache_hits_total"])
	assert.Equal(t, 1.0, counts["code_analyzer_fact_cache_misses_total"])
}

func TestDirectory(t *testing.T) {
	t.Parallel()
	dir := project(t)

	res, err := New(WithWorkers(2)).Directory(dir, 0, model.Structure)
	require.NoError(t, err)
	require.Len(t, res.Files, 3)
	assert.Equal(t, model.Structure, res.Mode)
	for _, f := range res.Files {
		assert.Equal(t, "go", f.Language)
		assert.Empty(t, f.Facts.Functions)
		assert.NotZero(t, f.Facts.FunctionCount)
	}

	res, err = New().Directory(dir, 1, model.Structure)
	require.NoError(t, err)
	require.Len(t, res.Files, 1, "depth 1 keeps root files only")
	assert.Equal(t, filepath.Join(dir, "service.go"), res.Files[0].Path)
}

func TestDirectoryStructureIsRankedByCalls(t *testing.T) {
	t.Parallel()
	dir := project(t)

	res, err := New().Directory(dir, 0, model.Structure)
	require.NoError(t, err)
	require.Len(t, res.Files, 3)

	// main.go calls into service.go, which calls into store.go.
	var paths []string
	for _, f := range res.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{
		filepath.Join(dir, "db", "store.go"),
		filepath.Join(dir, "service.go"),
		filepath.Join(dir, "cmd", "main.go"),
	}, paths)
	assert.Greater(t, res.Files[0].Rank, res.Files[1].Rank)
	assert.Greater(t, res.Files[1].Rank, res.Files[2].Rank)

	for _, f := range res.Files {
		assert.Empty(t, f.Facts.Calls, "structure output carries counts only")
		assert.Empty(t, f.Facts.References)
	}
}

func TestDirectoryMaxFilesKeepsTopRanked(t *testing.T) {
	t.Parallel()
	dir := project(t)

	res, err := New(WithMaxFiles(1)).Directory(dir, 0, model.Structure)
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, filepath.Join(dir, "db", "store.go"), res.Files[0].Path)
	assert.Equal(t, 2, res.Files[0].Facts.FunctionCount)
	assert.Empty(t, res.Files[0].Facts.Functions)
}

func TestDirectorySharesSemanticCacheEntries(t *testing.T) {
	t.Parallel()
	dir := project(t)
	reg := prometheus.NewRegistry()
	a := New(WithRegistry(reg))

	_, err := a.Directory(dir, 0, model.Structure)
	require.NoError(t, err)
	_, err = a.Focused(dir, "store", 1, 0)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	counts := map[string]float64{}
	for _, mf := range families {
		counts[mf.GetName()] = mf.GetMetric()[0].GetCounter().GetValue()
	}
	assert.Equal(t, 3.0, counts["code_analyzer_fact_cache_misses_total"])
	assert.Equal(t, 3.0, counts["code_analyzer_fact_cache_hits_total"])
}

func TestDirectoryExclude(t *testing.T) {
	t.Parallel()
	dir := project(t)

	res, err := New(WithExclude([]string{"db/**"})).Directory(dir, 0, model.Structure)
	require.NoError(t, err)
	assert.Len(t, res.Files, 2)
}

func TestFocusedCrossFileChains(t *testing.T) {
	t.Parallel()
	dir := project(t)

	res, err := New().Focused(dir, "store", 2, 0)
	require.NoError(t, err)

	assert.Len(t, res.Files, 3)
	require.Len(t, res.Definitions, 1)
	assert.Equal(t, filepath.Join(dir, "db", "store.go"), res.Definitions[0].File)
	assert.Equal(t, 3, res.Definitions[0].Line)

	var incoming []string
	for _, c := range res.Incoming {
		incoming = append(incoming, hops(c))
	}
	assert.Equal(t, []string{"main->Handle Handle->store"}, incoming)

	var outgoing []string
	for _, c := range res.Outgoing {
		outgoing = append(outgoing, hops(c))
	}
	assert.Equal(t, []string{"store->write"}, outgoing)
	assert.Empty(t, res.Note)

	first := res.Incoming[0].Hops[0]
	assert.Equal(t, filepath.Join(dir, "cmd", "main.go"), first.File)
	assert.Equal(t, 4, first.Line)
}

func TestFocusedDepthZeroOnlyDefinitions(t *testing.T) {
	t.Parallel()
	dir := project(t)

	res, err := New().Focused(dir, "Handle", 0, 0)
	require.NoError(t, err)
	assert.Len(t, res.Definitions, 1)
	assert.Empty(t, res.Incoming)
	assert.Empty(t, res.Outgoing)
}

func TestFocusedSingleFileAddsNote(t *testing.T) {
	t.Parallel()
	dir := project(t)

	res, err := New().Focused(filepath.Join(dir, "service.go"), "Handle", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, SingleFileNote, res.Note)
	assert.Len(t, res.Files, 1)
	assert.Len(t, res.Outgoing, 2)
}

func TestFocusedMissingPath(t *testing.T) {
	t.Parallel()
	_, err := New().Focused(filepath.Join(t.TempDir(), "gone"), "x", 1, 0)
	assert.Error(t, err)
}

func TestCustomClassifier(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "script.txt", "def f():\n    g()\n")

	a := New(WithClassifier(func(path string) string {
		if filepath.Ext(path) == ".txt" {
			return "python"
		}
		return ""
	}))
	ff, err := a.File(filepath.Join(dir, "script.txt"), model.Semantic)
	require.NoError(t, err)
	assert.Equal(t, "python", ff.Language)
	assert.Equal(t, 1, ff.Facts.FunctionCount)
}

func TestAutoMode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, model.Focused, AutoMode("x", true))
	assert.Equal(t, model.Focused, AutoMode("x", false))
	assert.Equal(t, model.Structure, AutoMode("", true))
	assert.Equal(t, model.Semantic, AutoMode("", false))
}
