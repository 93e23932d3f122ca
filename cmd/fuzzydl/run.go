package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/config"
)

type runOptions struct {
	kbPath     string
	configPath string
	dbPath     string
	parallel   int
	classify   bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Answer every query of a knowledge-base document",
		Long: `Load a knowledge-base document, answer its queries in parallel and print
one JSON report per query. With --db the reports are stored for later
inspection with the history command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueries(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.kbPath, "kb", "", "Knowledge-base document (required)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Reasoner settings file")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite database for reports and classifications")
	cmd.Flags().IntVar(&opts.parallel, "parallel", 4, "Queries answered at the same time (0 = unbounded)")
	cmd.Flags().BoolVar(&opts.classify, "classify", false, "Classify the knowledge base before answering")
	_ = cmd.MarkFlagRequired("kb")
	return cmd
}

// signalContext bounds a command by --timeout (when positive) and by
// SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// loadReasoner builds the reasoner shared by run and classify.
func loadReasoner(ctx context.Context, kbPath, configPath, dbPath string) (*fuzzydl.Reasoner, *config.Components, error) {
	loader := &config.Loader{ConfigPath: configPath, KnowledgeBasePath: kbPath, Logger: logger}
	comp, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore(ctx, dbPath)
	if err != nil {
		return nil, nil, err
	}
	r := fuzzydl.New(fuzzydl.Options{
		KnowledgeBase: comp.KnowledgeBase,
		Name:          comp.Name,
		Store:         st,
		Logger:        logger,
	})
	return r, comp, nil
}

func runQueries(cmd *cobra.Command, opts runOptions) error {
	ctx, cancel := signalContext()
	defer cancel()

	r, comp, err := loadReasoner(ctx, opts.kbPath, opts.configPath, opts.dbPath)
	if err != nil {
		return err
	}
	defer r.Close()

	logger.Info("knowledge base loaded",
		zap.String("kb", comp.Name),
		zap.Stringer("logic", comp.KnowledgeBase.Logic()),
		zap.Int("queries", len(comp.Queries)))

	if opts.classify {
		if _, err := r.Classify(ctx); err != nil {
			return err
		}
	}

	reports, err := r.AskAll(ctx, comp.Queries, opts.parallel)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), reports)
}
