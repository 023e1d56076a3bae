package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/okian/hangman/internal/domain/scoring"
	"github.com/okian/hangman/internal/domain/wordbank"
)

func newWordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "words",
		Short: "Inspect word catalogues",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [catalogue.yaml]",
		Short: "Check a catalogue and summarize it by category",
		Long:  "Loads the given YAML catalogue, or the built-in one, and fails on the first invalid or duplicate entry.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			c, err := wordbank.NewLoader(path).Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			byCategory := make(map[string]int)
			for _, e := range c {
				byCategory[e.Category]++
			}
			categories := make([]string, 0, len(byCategory))
			for name := range byCategory {
				categories = append(categories, name)
			}
			sort.Strings(categories)

			fmt.Fprintf(out, "%d words in %d categories\n", len(c), len(categories))
			for _, name := range categories {
				fmt.Fprintf(out, "  %-24s %d\n", name, byCategory[name])
			}
			if len(c) < scoring.TotalRounds {
				fmt.Fprintf(out, "warning: sessions will end after %d rounds instead of %d\n", len(c), scoring.TotalRounds)
			}
			return nil
		},
	})
	return cmd
}
