package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-lark/repolist/internal/config"
	"github.com/go-lark/repolist/internal/github"
	"github.com/go-lark/repolist/internal/readme"
	"github.com/go-lark/repolist/internal/render"
)

// version is set at build time.
var version = "dev"

type rootOptions struct {
	configPath string
	readme     string
	owner      string
	featured   string
	limit      int
	dryRun     bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "repolist",
		Short: "Write a user's GitHub repositories into a README section",
		Long: `repolist fetches every repository owned by a GitHub user, newest first,
and replaces the content between the REPO_LIST markers of a markdown file.
The section is appended when the markers are missing.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML config file (default "+config.DefaultFile+" if present)")
	flags.StringVar(&opts.readme, "readme", "", "markdown file to update (default "+config.DefaultReadme+")")
	flags.StringVar(&opts.owner, "owner", "", "GitHub user whose repositories are listed")
	flags.StringVar(&opts.featured, "featured", "", "only list the repository with this name")
	flags.IntVar(&opts.limit, "limit", 0, "maximum number of repositories to list")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "print the updated file instead of writing it")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func run(ctx context.Context, stdout, stderr io.Writer, opts *rootOptions) error {
	logger := newLogger(stderr, opts.verbose)

	cfg, err := config.Load(opts.configPath, logger)
	if err != nil {
		return err
	}
	cfg = cfg.Override(opts.readme, opts.owner, opts.featured, opts.limit)

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	updater, err := readme.NewUpdater(cfg, logger)
	if err != nil {
		return err
	}
	client, err := github.NewClient(ctx, cfg.Token, cfg.APIBaseURL)
	if err != nil {
		return err
	}

	logger.Info("Generating repository list", "owner", cfg.Owner, "readme", cfg.Readme)
	repos, err := github.NewLister(client, cfg, logger).List(ctx)
	if err != nil {
		return err
	}
	logger.Debug("repositories selected", "count", len(repos), "featured", cfg.FeaturedRepo, "limit", cfg.Limit)

	body := render.List(repos)

	if opts.dryRun {
		current, err := os.ReadFile(cfg.Readme)
		if err != nil {
			return fmt.Errorf("read %s: %w", cfg.Readme, err)
		}
		updated, err := updater.Apply(string(current), body)
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, updated)
		return err
	}

	changed, err := updater.Update(cfg.Readme, body)
	if err != nil {
		return err
	}
	if changed {
		logger.Info("README updated.", "path", cfg.Readme)
	} else {
		logger.Info("No changes to README.", "path", cfg.Readme)
	}
	return nil
}
