package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func createSampleRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "models.py", `class User:
    def __init__(self, name):
        self.name = name
`)
	writeTestFile(t, dir, "main.py", `from models import User

def greet(user):
    return make_greeting(user.name)

def make_greeting(name):
    return "Hello, " + name

def main():
    greet(User("x"))
`)
	return dir
}

func TestRunDirectory(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.Contains(out, "mode: structure") {
		t.Errorf("directory should use structure mode, got:\n%s", out)
	}
	if !strings.Contains(out, "files[2]{path,language,lines,functions,classes,imports,rank}:") {
		t.Errorf("expected 2 files, got:\n%s", out)
	}
	if !strings.Contains(out, "models.py") || !strings.Contains(out, "main.py") {
		t.Errorf("missing files:\n%s", out)
	}
}

func TestRunFile(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{filepath.Join(dir, "main.py")}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{
		"mode: semantic",
		"main_line: 9",
		"functions[3]{name,line}:",
		"  greet,3",
		"  greet,make_greeting,4,",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRunFocused(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"-f", "make_greeting", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{
		"symbol: make_greeting",
		"follow_depth: 2",
		"files_analyzed: 2",
		"definitions[1]{file,line}:\n  main.py,6",
		"incoming[2]{chain,hop,file,line,from,to}:",
		"  1,1,main.py,10,main,greet",
		"  1,2,main.py,4,greet,make_greeting",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "note:") {
		t.Error("directory focus should not carry the single-file note")
	}
}

func TestRunFocusedSingleFileNote(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"-f", "greet", "-d", "1", filepath.Join(dir, "main.py")}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	if !strings.HasPrefix(out, "note: ") {
		t.Errorf("expected note first, got:\n%s", out)
	}
	if !strings.Contains(out, "incoming[1]") {
		t.Errorf("expected one direct caller, got:\n%s", out)
	}
}

func TestRunJSON(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--format", "json", "-f", "greet", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var got struct {
		Symbol      string            `json:"symbol"`
		Definitions []json.RawMessage `json:"definitions"`
		Incoming    []json.RawMessage `json:"incoming"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
	}
	if got.Symbol != "greet" || len(got.Definitions) != 1 || len(got.Incoming) != 1 {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestRunMaxFiles(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"-n", "1", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "files[1]") {
		t.Errorf("expected 1 file, got:\n%s", out)
	}
	// main.py instantiates User, so models.py ranks first.
	if !strings.Contains(out, "\n  models.py,python,") || strings.Contains(out, "main.py") {
		t.Errorf("expected models.py as the top file, got:\n%s", out)
	}
}

func TestRunExclude(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--exclude", "models.py", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "files[1]") || strings.Contains(out, "models.py") {
		t.Errorf("models.py should be excluded:\n%s", out)
	}
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	cfgPath := filepath.Join(t.TempDir(), "analyzer.yaml")
	writeTestFile(t, filepath.Dir(cfgPath), "analyzer.yaml", "max_files: 1\nformat: toon\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"--config", cfgPath, dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "files[1]") {
		t.Errorf("config max_files not applied:\n%s", stdout.String())
	}

	// Flags win over the file.
	stdout.Reset()
	err = run([]string{"--config", cfgPath, "-n", "0", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "files[2]") {
		t.Errorf("flag should override config:\n%s", stdout.String())
	}
}

func TestRunStats(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--stats", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	logs := stderr.String()
	if !strings.Contains(logs, "cache.stats") || !strings.Contains(logs, "code_analyzer_fact_cache_misses_total=2") {
		t.Errorf("missing stats in logs:\n%s", logs)
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"--version"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stdout.String() != "code-analyzer dev\n" {
		t.Errorf("version output: %q", stdout.String())
	}
}

func TestRunErrors(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing path", []string{filepath.Join(dir, "nope")}},
		{"bad format", []string{"--format", "xml", dir}},
		{"negative depth", []string{"-m", "-1", dir}},
		{"too many args", []string{dir, dir}},
		{"unknown flag", []string{"--bogus", dir}},
		{"missing config", []string{"--config", filepath.Join(dir, "absent.yaml"), dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var stdout, stderr bytes.Buffer
			if err := run(tt.args, &stdout, &stderr); err == nil {
				t.Errorf("expected error, got output:\n%s", stdout.String())
			}
		})
	}
}

func TestRunUnsupportedFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "data.json", "{}\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{filepath.Join(dir, "data.json")}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "language: json") || !strings.Contains(out, "lines: 1") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
