// code-analyzer extracts definitions, calls and type references from source
// files with tree-sitter and traces call chains across them.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/utapyngo/code-analyzer/internal/analyze"
	"github.com/utapyngo/code-analyzer/internal/config"
	"github.com/utapyngo/code-analyzer/internal/model"
	"github.com/utapyngo/code-analyzer/internal/toon"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the CLI with args; it is the testable body of main.
func run(args []string, stdout, stderr io.Writer) error {
	cmd := rootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}

type options struct {
	focus             string
	followDepth       int
	maxDepth          int
	astRecursionLimit int
	format            string
	maxFiles          int
	exclude           []string
	configPath        string
	stats             bool
	verbose           bool
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "code-analyzer [flags] [PATH]",
		Short: "Analyze code structure and call relationships with tree-sitter",
		Long: `Analyze code structure and call relationships with tree-sitter.

Modes (auto-selected):
  directory     structure overview with line, function, class and import counts
  file          semantic analysis: functions, classes, imports, calls, references
  with -f       focused analysis: track a symbol across files with call chains

Supports: Python, Rust, JavaScript/TypeScript, Go, Java, Kotlin, Swift, Ruby`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return analyzePath(cmd, &opts, path, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("code-analyzer {{.Version}}\n")

	f := cmd.Flags()
	f.StringVarP(&opts.focus, "focus", "f", "", "symbol name to focus on")
	f.IntVarP(&opts.followDepth, "follow-depth", "d", 2, "call graph depth: 0=where defined, 1=direct callers/callees, 2+=transitive chains")
	f.IntVarP(&opts.maxDepth, "max-depth", "m", 3, "directory recursion limit, 0=unlimited")
	f.IntVar(&opts.astRecursionLimit, "ast-recursion-limit", 0, "maximum ancestor walk when resolving receivers, 0=unlimited")
	f.StringVar(&opts.format, "format", config.FormatTOON, "output format: toon or json")
	f.IntVarP(&opts.maxFiles, "max-files", "n", 0, "keep only the top N ranked files in directory output")
	f.StringArrayVar(&opts.exclude, "exclude", nil, "glob of paths to skip (repeatable, ** supported)")
	f.StringVar(&opts.configPath, "config", "", "config file (default: nearest "+config.ProjectConfigFile+")")
	f.BoolVar(&opts.stats, "stats", false, "log fact cache statistics when done")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(initCmd(stdout, stderr))
	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig layers explicitly set flags over the config file.
func loadConfig(cmd *cobra.Command, opts *options, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.NewLoader(logger).Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("follow-depth") {
		cfg.FollowDepth = opts.followDepth
	}
	if f.Changed("max-depth") {
		cfg.MaxDepth = opts.maxDepth
	}
	if f.Changed("ast-recursion-limit") {
		cfg.ASTRecursionLimit = opts.astRecursionLimit
	}
	if f.Changed("format") {
		cfg.Format = opts.format
	}
	if f.Changed("max-files") {
		cfg.MaxFiles = opts.maxFiles
	}
	if f.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, opts.exclude...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func analyzePath(cmd *cobra.Command, opts *options, path string, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, opts.verbose)

	cfg, err := loadConfig(cmd, opts, logger)
	if err != nil {
		return err
	}

	path, err = filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path: %w", err)
	}

	reg := prometheus.NewRegistry()
	a := analyze.New(
		analyze.WithCacheSize(cfg.CacheSize),
		analyze.WithWorkers(cfg.Workers),
		analyze.WithRecursionLimit(cfg.ASTRecursionLimit),
		analyze.WithExclude(cfg.Exclude),
		analyze.WithMaxFiles(cfg.MaxFiles),
		analyze.WithLogger(logger),
		analyze.WithRegistry(reg),
	)

	var (
		result any
		text   string
	)
	switch mode := analyze.AutoMode(opts.focus, info.IsDir()); mode {
	case model.Focused:
		res, err := a.Focused(path, opts.focus, cfg.FollowDepth, cfg.MaxDepth)
		if err != nil {
			return err
		}
		root := path
		if !info.IsDir() {
			root = filepath.Dir(path)
		}
		result, text = res, toon.EncodeFocused(res, root)
	case model.Semantic:
		ff, err := a.File(path, mode)
		if err != nil {
			return err
		}
		result, text = ff, toon.EncodeFile(ff, mode)
	default:
		res, err := a.Directory(path, cfg.MaxDepth, mode)
		if err != nil {
			return err
		}
		result, text = res, toon.EncodeDirectory(res)
	}

	if cfg.Format == config.FormatJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		text = string(data)
	}
	_, _ = fmt.Fprintln(stdout, text)

	if opts.stats {
		return logStats(logger, reg)
	}
	return nil
}

// logStats logs every counter gathered from reg.
func logStats(logger *slog.Logger, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering stats: %w", err)
	}
	attrs := make([]any, 0, len(families)*2)
	for _, mf := range families {
		attrs = append(attrs, mf.GetName(), sumCounters(mf.GetMetric()))
	}
	logger.Info("cache.stats", attrs...)
	return nil
}

func sumCounters(metrics []*dto.Metric) float64 {
	var total float64
	for _, m := range metrics {
		total += m.GetCounter().GetValue()
	}
	return total
}
