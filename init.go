package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const (
	sentinelStart = "<!-- code-analyzer:start -->"
	sentinelEnd   = "<!-- code-analyzer:end -->"
)

// initCmd builds the `code-analyzer init` subcommand, which writes (or
// updates) a code-analyzer usage section in a CLAUDE.md file.
func initCmd(stdout, stderr io.Writer) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "init [path-to-CLAUDE.md]",
		Short: "Write a code-analyzer usage section to a CLAUDE.md file",
		Long: `Write a code-analyzer usage section to a CLAUDE.md file. The section is
wrapped in sentinel comments so it can be updated in place on subsequent runs
without touching surrounding content. Creates the file if it does not exist.

path-to-CLAUDE.md defaults to ./CLAUDE.md.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeSection(args, dryRun, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// runInit runs the init subcommand on its own.
func runInit(args []string, stdout, stderr io.Writer) error {
	cmd := initCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func writeSection(args []string, dryRun bool, stdout, stderr io.Writer) error {
	section := generateSection()

	// --dry-run with no path: just print the section itself.
	if dryRun && len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, section)
		return nil
	}

	path := "CLAUDE.md"
	if len(args) > 0 {
		path = args[0]
	}

	existing, _ := os.ReadFile(path)
	updated := applySection(string(existing), section)

	if dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote code-analyzer section to %s\n", path)
	return nil
}

// generateSection returns the full sentinel-wrapped usage block.
func generateSection() string {
	body := `## code-analyzer: call graph and structure

Run ` + "`code-analyzer`" + ` via the Bash tool before reading unfamiliar code. It
reports what a directory contains, what a file defines and calls, and who calls
a given symbol, without opening every file.

**Availability:** Check with ` + "`code-analyzer --version`" + ` first; skip gracefully
if not found.

**Run it:**
` + "```" + `bash
code-analyzer .                       # structure overview of a directory
code-analyzer -n 20 .                 # only the 20 most central files
code-analyzer internal/cache/cache.go # functions, calls and references in a file
code-analyzer -f Build .              # where Build is defined, who calls it
code-analyzer -f Build -d 3 .         # transitive chains up to 3 hops
code-analyzer --format json -f Build .
` + "```" + `

**All flags:** ` + "`code-analyzer --help`" + `

**How to use the output:**

1. **Start from the directory overview.** The ` + "`files`" + ` table is ranked by
   call-graph centrality, so read from the top down.

2. **Use ` + "`-f SYMBOL`" + ` instead of Grep to find callers.** The ` + "`incoming`" + `
   table lists every chain that reaches the symbol, outermost caller first.
   A caller named ` + "`<reference>`" + ` is a type usage and ` + "`<module>`" + ` is top-level code.

3. **Use ` + "`-d 0`" + ` to find definitions only.**

4. **Names are matched textually.** Two functions with the same name in
   different packages share one node, so confirm with the file and line.`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
