package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/alem-hub/school-report/config"
	"github.com/alem-hub/school-report/internal/domain/school"
	"github.com/alem-hub/school-report/internal/interface/cli"
)

const (
	commandReport      = "report"
	commandImport      = "import"
	commandExport      = "export"
	commandLeaderboard = "leaderboard"
)

// options are the command line settings. Flags override the configuration.
type options struct {
	Command      string
	Source       string
	Path         string
	Scopes       []school.Scope
	Subjects     []string
	RankingScope school.Scope
	TopN         int
	Format       cli.Format
	Color        bool
	Publish      bool
}

// listFlag collects a repeatable or comma separated flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

func parseOptions(cfg *config.Config, args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		scopes, subjects listFlag
		rankScope        string
		format           string
		noColor          bool
		opts             options
	)
	fs.StringVar(&opts.Source, "source", cfg.Dataset.Source, "dataset source: sample, file or postgres")
	fs.StringVar(&opts.Path, "data", cfg.Dataset.Path, "dataset file (YAML or JSON)")
	fs.Var(&scopes, "scope", "extra grade or course scope, e.g. primaria/segundo/A (repeatable)")
	fs.Var(&subjects, "subject", "subject for the best-in-subject lines (repeatable, default all)")
	fs.StringVar(&rankScope, "rank", "", "scope of the ranking table (default whole school)")
	fs.IntVar(&opts.TopN, "top", cfg.Report.TopN, "ranking size, 0 disables the ranking")
	fs.StringVar(&format, "format", cfg.Report.Format, "output format: table or json")
	fs.BoolVar(&noColor, "no-color", !cfg.Report.Color, "disable colored output")
	fs.BoolVar(&opts.Publish, "publish", cfg.Redis.Enabled, "publish the ranking to Redis")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch fs.NArg() {
	case 0:
		opts.Command = commandReport
	case 1:
		opts.Command = fs.Arg(0)
	default:
		return nil, fmt.Errorf("expected at most one command, got %q", fs.Args())
	}
	switch opts.Command {
	case commandReport, commandImport, commandExport, commandLeaderboard:
	default:
		return nil, fmt.Errorf("unknown command %q", opts.Command)
	}

	// An explicit data file implies the file source.
	if opts.Path != "" && !isFlagSet(fs, "source") && opts.Source == config.SourceSample {
		opts.Source = config.SourceFile
	}
	if !config.ValidSource(opts.Source) {
		return nil, fmt.Errorf("unknown dataset source %q (want sample, file or postgres)", opts.Source)
	}
	if opts.Source == config.SourceFile && opts.Path == "" {
		return nil, fmt.Errorf("-data or DATASET_PATH is required with -source=%s", config.SourceFile)
	}
	if opts.Source == config.SourcePostgres && cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required with -source=%s", config.SourcePostgres)
	}
	if opts.TopN < 0 {
		return nil, fmt.Errorf("-top must not be negative")
	}

	var err error
	if opts.Format, err = cli.ParseFormat(format); err != nil {
		return nil, err
	}
	opts.Color = !noColor && opts.Format == cli.FormatTable

	for _, raw := range scopes {
		scope, err := school.ParseScope(raw)
		if err != nil {
			return nil, err
		}
		opts.Scopes = append(opts.Scopes, scope)
	}
	opts.Subjects = subjects

	if opts.RankingScope, err = school.ParseScope(rankScope); err != nil {
		return nil, err
	}

	return &opts, nil
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
