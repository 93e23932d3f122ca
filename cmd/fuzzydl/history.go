package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl"
)

func newHistoryCmd() *cobra.Command {
	var dbPath, kbName string
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored reports of a knowledge base, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			st, err := openStore(ctx, dbPath)
			if err != nil {
				return err
			}
			r := fuzzydl.New(fuzzydl.Options{Name: kbName, Store: st, Logger: logger})
			defer r.Close()

			reports, err := r.History(ctx, limit)
			if err != nil {
				return fmt.Errorf("history of %s: %w", kbName, err)
			}
			return writeJSON(cmd.OutOrStdout(), reports)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (required)")
	cmd.Flags().StringVar(&kbName, "kb-name", "", "Knowledge-base name as recorded by run (required)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of reports")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("kb-name")
	return cmd
}
