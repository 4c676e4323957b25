package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"nowplaying/internal/database"
	"nowplaying/internal/logging"
	"nowplaying/internal/startup"
	"nowplaying/internal/thumbnail"
	"nowplaying/internal/workers"
)

const (
	flagCacheDir = "cache-dir"
	flagEnvFile  = "env-file"
	flagNoLedger = "no-ledger"
	flagParallel = "parallel"
	flagVerbose  = "verbose"
)

func main() {
	labeled := term.IsTerminal(int(os.Stdout.Fd()))
	if err := newApp(os.Stdout, os.Stderr, labeled).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer, labeled bool) *cli.App {
	//nolint:exhaustruct
	return &cli.App{
		Name:      "nowplaying-render",
		Usage:     "Render now-playing posters",
		Version:   startup.Version,
		ArgsUsage: "ID...",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:    flagCacheDir,
				Aliases: []string{"c"},
				Usage:   "Poster cache directory",
				EnvVars: []string{"CACHE_DIR"},
			},
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:  flagEnvFile,
				Usage: "Environment file to load before reading configuration",
				Value: ".env",
			},
			//nolint:exhaustruct
			&cli.BoolFlag{
				Name:  flagNoLedger,
				Usage: "Do not record renders in the ledger database",
			},
			//nolint:exhaustruct
			&cli.IntFlag{
				Name:    flagParallel,
				Aliases: []string{"p"},
				Usage:   "Identifiers rendered at once (default: 2 per CPU)",
			},
			//nolint:exhaustruct
			&cli.BoolFlag{
				Name:    flagVerbose,
				Aliases: []string{"v"},
				Usage:   "Log pipeline progress to stderr",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c, stdout, stderr, labeled)
		},
	}
}

type renderer interface {
	Render(ctx context.Context, id string) (thumbnail.Result, error)
}

type outcome struct {
	result thumbnail.Result
	err    error
}

func run(c *cli.Context, stdout, stderr io.Writer, labeled bool) error {
	ids := c.Args().Slice()
	if len(ids) == 0 {
		return errors.New("at least one track identifier is required")
	}

	if !c.Bool(flagVerbose) {
		logging.SetLevel(logging.LevelWarn)
	}

	if err := startup.LoadEnvFile(c.String(flagEnvFile)); err != nil {
		return err
	}
	if c.IsSet(flagCacheDir) {
		if err := os.Setenv("CACHE_DIR", c.String(flagCacheDir)); err != nil {
			return fmt.Errorf("failed to set cache directory: %w", err)
		}
	}

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := startup.LoadQuietConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	var ledger thumbnail.Ledger
	if !c.Bool(flagNoLedger) {
		db, err := database.New(ctx, cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		defer db.Close()
		ledger = db
	}

	stack, err := startup.NewStack(cfg, ledger)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	defer stack.Close()

	parallel := c.Int(flagParallel)
	if parallel <= 0 {
		parallel = workers.ForIO(len(ids))
	}

	outcomes := renderAll(ctx, stack.Renderer, ids, parallel)

	failed := 0
	for i, id := range ids {
		o := outcomes[i]
		if o.err != nil {
			failed++
			fmt.Fprintf(stderr, "%s: error: %v\n", id, o.err)
			continue
		}
		if labeled {
			fmt.Fprintf(stdout, "%s: %s %s\n", id, o.result.Outcome, o.result.Location())
		} else {
			fmt.Fprintln(stdout, o.result.Location())
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d renders failed", failed, len(ids))
	}
	return nil
}

// renderAll renders every identifier with at most parallel in flight and
// returns the outcomes in argument order.
func renderAll(ctx context.Context, r renderer, ids []string, parallel int) []outcome {
	outcomes := make([]outcome, len(ids))

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, id := range ids {
		g.Go(func() error {
			result, err := r.Render(ctx, id)
			outcomes[i] = outcome{result: result, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
