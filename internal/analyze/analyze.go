// Package analyze runs the per-file extraction pipeline over files and
// directories and answers focused call-chain queries.
package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/utapyngo/code-analyzer/internal/cache"
	"github.com/utapyngo/code-analyzer/internal/discover"
	"github.com/utapyngo/code-analyzer/internal/graph"
	"github.com/utapyngo/code-analyzer/internal/lang"
	"github.com/utapyngo/code-analyzer/internal/model"
	"github.com/utapyngo/code-analyzer/internal/parse"
)

// SingleFileNote prefixes focused results computed from a single file.
const SingleFileNote = "Focus mode works best with directory paths. " +
	"Use a parent directory in the path for cross-file analysis."

// Classifier maps a file path to a language identifier; "" means the file
// is not source and is skipped.
type Classifier func(path string) string

// Analyzer owns the parser and fact caches shared by all requests.
type Analyzer struct {
	parsers        *parse.ParserCache
	facts          *cache.Cache
	classify       Classifier
	workers        int
	recursionLimit int
	exclude        []string
	maxFiles       int
	logger         *slog.Logger

	cacheSize int
	registry  prometheus.Registerer
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClassifier replaces lang.Identify as the path classifier.
func WithClassifier(c Classifier) Option {
	return func(a *Analyzer) {
		if c != nil {
			a.classify = c
		}
	}
}

// WithCacheSize sets the fact cache capacity.
func WithCacheSize(n int) Option {
	return func(a *Analyzer) { a.cacheSize = n }
}

// WithWorkers bounds how many files are analyzed at once.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithRecursionLimit bounds receiver hook ancestor walks. 0 is unbounded.
func WithRecursionLimit(n int) Option {
	return func(a *Analyzer) { a.recursionLimit = n }
}

// WithExclude sets doublestar patterns skipped during directory walks.
func WithExclude(patterns []string) Option {
	return func(a *Analyzer) { a.exclude = patterns }
}

// WithMaxFiles keeps only the top-ranked n files in directory results.
func WithMaxFiles(n int) Option {
	return func(a *Analyzer) { a.maxFiles = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRegistry registers fact cache metrics on reg.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(a *Analyzer) { a.registry = reg }
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		parsers:   parse.NewParserCache(),
		classify:  lang.Identify,
		workers:   runtime.GOMAXPROCS(0),
		logger:    slog.Default(),
		cacheSize: cache.DefaultCapacity,
	}
	for _, opt := range opts {
		opt(a)
	}

	cacheOpts := []cache.Option{cache.WithLogger(a.logger)}
	if a.registry != nil {
		cacheOpts = append(cacheOpts, cache.WithMetrics(a.registry))
	}
	a.facts = cache.New(a.cacheSize, cacheOpts...)
	return a
}

// AnalyzeFile extracts facts from one file at mode. Unreadable or non-UTF-8
// content yields an empty record rather than an error; a missing file or a
// parse failure is an error.
func (a *Analyzer) AnalyzeFile(path string, mode model.Mode) (*model.Facts, error) {
	ff, err := a.file(path, mode)
	if err != nil {
		return nil, err
	}
	return ff.Facts, nil
}

// File is AnalyzeFile with the path and language attached.
func (a *Analyzer) File(path string, mode model.Mode) (model.FileFacts, error) {
	return a.file(path, mode)
}

func (a *Analyzer) file(path string, mode model.Mode) (model.FileFacts, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return model.FileFacts{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return model.FileFacts{}, fmt.Errorf("stat %s: %w", path, err)
	}

	language := a.classify(abs)
	result := model.FileFacts{Path: abs, Language: language}

	key := cache.Key{Path: abs, ModTime: info.ModTime(), Mode: mode}
	if cached, ok := a.facts.Get(key); ok {
		result.Facts = cached
		return result, nil
	}

	content, err := os.ReadFile(abs)
	if err != nil || !utf8.Valid(content) {
		a.logger.Debug("analyze.unreadable", "path", abs, "err", err)
		result.Facts = model.Empty(0)
		return result, nil
	}

	lines := parse.CountLines(content)
	if language == "" {
		result.Facts = model.Empty(lines)
		return result, nil
	}
	if _, ok := lang.Lookup(language); !ok {
		result.Facts = model.Empty(lines)
		return result, nil
	}

	tree, err := a.parsers.Parse(content, language)
	if err != nil {
		return model.FileFacts{}, fmt.Errorf("%s: %w", abs, err)
	}
	defer tree.Close()

	facts, err := parse.ExtractWithDepth(tree, content, language, mode, a.recursionLimit)
	if err != nil {
		return model.FileFacts{}, fmt.Errorf("%s: %w", abs, err)
	}
	facts.LineCount = lines

	a.facts.Put(key, facts)
	result.Facts = facts.Clone()
	return result, nil
}

// batch analyzes entries concurrently. The first failure stops files that
// have not started yet and is returned. Results are sorted by path.
func (a *Analyzer) batch(entries []discover.FileEntry, mode model.Mode) ([]model.FileFacts, error) {
	start := time.Now()
	results := make([]model.FileFacts, len(entries))

	workers := a.workers
	if workers > len(entries) {
		workers = len(entries)
	}
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for i, e := range entries {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			ff, err := a.file(e.Path, mode)
			if err != nil {
				return err
			}
			results[i] = ff
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	a.logger.Debug("analyze.batch",
		"files", len(results),
		"mode", string(mode),
		"workers", workers,
		"elapsed", time.Since(start),
	)
	return results, nil
}

func (a *Analyzer) discover(path string, maxDepth int) ([]discover.FileEntry, error) {
	return discover.Files(path, discover.Options{
		MaxDepth: maxDepth,
		Exclude:  a.exclude,
		Classify: a.classify,
	})
}

// Directory analyzes every source file under path at mode. Files are
// ordered by call-graph rank and cut to the configured maximum.
//
// Ranking needs call sites, so files are always extracted at Semantic and
// reduced to counts afterwards when mode is Structure.
func (a *Analyzer) Directory(path string, maxDepth int, mode model.Mode) (*model.DirectoryResult, error) {
	entries, err := a.discover(path, maxDepth)
	if err != nil {
		return nil, err
	}
	files, err := a.batch(entries, model.Semantic)
	if err != nil {
		return nil, err
	}

	graph.RankFiles(files)
	files = graph.TopFiles(files, a.maxFiles)
	if mode == model.Structure {
		for i := range files {
			files[i].Facts = countsOnly(files[i].Facts)
		}
	}
	return &model.DirectoryResult{
		Root:     path,
		Mode:     mode,
		MaxDepth: maxDepth,
		Files:    files,
	}, nil
}

// countsOnly returns the Structure view of semantic facts.
func countsOnly(f *model.Facts) *model.Facts {
	if f == nil {
		return nil
	}
	return &model.Facts{
		FunctionCount: f.FunctionCount,
		ClassCount:    f.ClassCount,
		ImportCount:   f.ImportCount,
		LineCount:     f.LineCount,
		MainLine:      f.MainLine,
	}
}

// Focused tracks symbol across the files under path: where it is defined
// and the call chains into and out of it, up to followDepth hops. maxDepth
// limits directory recursion.
func (a *Analyzer) Focused(path, symbol string, followDepth, maxDepth int) (*model.FocusedResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var entries []discover.FileEntry
	if info.IsDir() {
		entries, err = a.discover(path, maxDepth)
		if err != nil {
			return nil, err
		}
	} else {
		entries = []discover.FileEntry{{Path: path, Rel: filepath.Base(path), Language: a.classify(path)}}
	}

	// Focused extraction yields the same facts as semantic, so the batch
	// shares semantic cache entries.
	files, err := a.batch(entries, model.Semantic)
	if err != nil {
		return nil, err
	}

	g := graph.Build(files)
	result := &model.FocusedResult{
		Symbol:      symbol,
		FollowDepth: followDepth,
		Definitions: g.Definitions(symbol),
	}
	for _, f := range files {
		result.Files = append(result.Files, f.Path)
	}
	if followDepth > 0 {
		result.Incoming = g.FindIncomingChains(symbol, followDepth)
		result.Outgoing = g.FindOutgoingChains(symbol, followDepth)
	}
	if !info.IsDir() {
		result.Note = SingleFileNote
	}

	a.logger.Debug("analyze.focused",
		"symbol", symbol,
		"files", len(files),
		"incoming", len(result.Incoming),
		"outgoing", len(result.Outgoing),
	)
	return result, nil
}

// AutoMode picks the mode for a request: focused when a symbol is given,
// semantic for a single file and structure for a directory.
func AutoMode(symbol string, isDir bool) model.Mode {
	switch {
	case symbol != "":
		return model.Focused
	case isDir:
		return model.Structure
	default:
		return model.Semantic
	}
}
