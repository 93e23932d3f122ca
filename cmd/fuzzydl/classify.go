package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/concept"
	"github.com/cognicore/fuzzydl/pkg/fuzzydl/kb"
)

func newClassifyCmd() *cobra.Command {
	var kbPath, configPath, dbPath string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Print the subsumption hierarchy of a knowledge base",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			r, _, err := loadReasoner(ctx, kbPath, configPath, dbPath)
			if err != nil {
				return err
			}
			defer r.Close()

			restored, err := r.Classify(ctx)
			if err != nil {
				return err
			}
			logger.Info("classified", zap.Bool("restored", restored))
			return printHierarchy(cmd.OutOrStdout(), r.KnowledgeBase().Classification())
		},
	}
	cmd.Flags().StringVar(&kbPath, "kb", "", "Knowledge-base document (required)")
	cmd.Flags().StringVar(&configPath, "config", "", "Reasoner settings file")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database caching classifications")
	_ = cmd.MarkFlagRequired("kb")
	return cmd
}

// printHierarchy writes one line per concept and implication listing the
// concepts that subsume it with degree 1.
func printHierarchy(w io.Writer, c *kb.Classification) error {
	seen := make(map[string]bool)
	var names []string
	for _, row := range c.Rows() {
		if !seen[row.Subsumed] {
			seen[row.Subsumed] = true
			names = append(names, row.Subsumed)
		}
	}
	sort.Strings(names)

	for _, impl := range concept.Implications {
		for _, name := range names {
			node, ok := c.Lookup(name)
			if !ok {
				continue
			}
			if _, err := fmt.Fprintf(w, "%-2s %s <= %s\n", impl, name, strings.Join(node.Subsumers(impl), " ")); err != nil {
				return err
			}
		}
	}
	return nil
}
