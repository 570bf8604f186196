// Package config parses command line arguments for the findex subcommands.
package config

import (
	"flag"
	"fmt"
	"strings"
)

// Subcommand names accepted on the command line.
const (
	CommandIndex   = "index"
	CommandCompare = "compare"
	CommandReport  = "report"
)

// Config captures the parsed subcommand and its options.
type Config struct {
	Command string
	Index   IndexConfig
	Compare CompareConfig
	Report  ReportConfig
}

// IndexConfig holds the options of the index subcommand.
type IndexConfig struct {
	DBPath      string
	Root        string
	Incremental bool
	SkipErrors  bool
	Algorithm   string
	Exclude     []string
	Workers     int
}

// CompareConfig holds the options of the compare subcommand.
type CompareConfig struct {
	DBPath string
	Left   string
	Right  string
}

// ReportConfig holds the options of the report subcommand.
type ReportConfig struct {
	DBPath           string
	Out              string
	IncludeUnchanged bool
}

// FromArgs parses configuration from command line arguments (without the
// program name). It should be called by the main package to construct the
// initial configuration for the application.
func FromArgs(args []string) (Config, error) {
	if len(args) == 0 {
		return Config{}, fmt.Errorf("missing command: expected one of %s, %s, %s",
			CommandIndex, CommandCompare, CommandReport)
	}

	switch args[0] {
	case CommandIndex:
		return parseIndex(args[1:])
	case CommandCompare:
		return parseCompare(args[1:])
	case CommandReport:
		return parseReport(args[1:])
	default:
		return Config{}, fmt.Errorf("unknown command %q", args[0])
	}
}

func parseIndex(args []string) (Config, error) {
	cfg := Config{Command: CommandIndex}
	var exclude stringList

	fs := flag.NewFlagSet(CommandIndex, flag.ContinueOnError)
	fs.StringVar(&cfg.Index.DBPath, "db", "findex.db", "path to the index database")
	fs.BoolVar(&cfg.Index.Incremental, "incremental", false, "reuse stored digests for files with unchanged size and mtime")
	fs.BoolVar(&cfg.Index.SkipErrors, "skip-errors", false, "record unreadable files instead of aborting the run")
	fs.StringVar(&cfg.Index.Algorithm, "hash", "sha1", "content digest algorithm (sha1, sha256, sha512)")
	fs.IntVar(&cfg.Index.Workers, "workers", 0, "hashing workers (0 uses the CPU count)")
	fs.Var(&exclude, "exclude", "glob pattern to skip, relative to the root (repeatable)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.Index.Exclude = exclude

	if fs.NArg() != 1 {
		return Config{}, fmt.Errorf("usage: findex index [flags] DIRECTORY")
	}
	cfg.Index.Root = fs.Arg(0)

	return cfg, nil
}

func parseCompare(args []string) (Config, error) {
	cfg := Config{Command: CommandCompare}

	fs := flag.NewFlagSet(CommandCompare, flag.ContinueOnError)
	fs.StringVar(&cfg.Compare.DBPath, "db", "comparison.db", "path to the comparison database")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if fs.NArg() != 2 {
		return Config{}, fmt.Errorf("usage: findex compare [flags] INDEX1 INDEX2")
	}
	cfg.Compare.Left = fs.Arg(0)
	cfg.Compare.Right = fs.Arg(1)

	return cfg, nil
}

func parseReport(args []string) (Config, error) {
	cfg := Config{Command: CommandReport}

	fs := flag.NewFlagSet(CommandReport, flag.ContinueOnError)
	fs.StringVar(&cfg.Report.Out, "out", "report.xlsx", "path of the generated workbook")
	fs.BoolVar(&cfg.Report.IncludeUnchanged, "include-unchanged", false, "add a worksheet for unchanged files")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if fs.NArg() != 1 {
		return Config{}, fmt.Errorf("usage: findex report [flags] COMPARISON")
	}
	cfg.Report.DBPath = fs.Arg(0)

	return cfg, nil
}

// stringList collects repeatable flag values.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("pattern cannot be empty")
	}
	*l = append(*l, trimmed)
	return nil
}
