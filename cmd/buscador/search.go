package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/buscador/internal/cli"
	"github.com/hyperjump/buscador/internal/models"
)

var (
	searchIndex  string
	searchFields []string
	searchSize   int
	searchTerms  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a free-text search",
	Long: `Query is all remaining arguments joined by spaces.

With --fields, a multi_match on those fields is used; otherwise a
query_string across all fields. --terms renders the simplified hit list of
the public search page.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchIndex, "index", "i", "", "index to search (default: search.default_index)")
	searchCmd.Flags().StringSliceVarP(&searchFields, "fields", "f", nil, "fields to match (multi_match)")
	searchCmd.Flags().IntVarP(&searchSize, "size", "n", models.DefaultSearchSize, "maximum number of hits")
	searchCmd.Flags().BoolVar(&searchTerms, "terms", false, "show the public search page hit list")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	format, err := outputFormat()
	if err != nil {
		return err
	}

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger, want{search: true})
	if err != nil {
		return err
	}
	defer components.Close()

	text := strings.Join(args, " ")
	if searchTerms {
		return cli.WriteTermHits(cmd.OutOrStdout(),
			components.Search.SearchTerms(ctx, searchIndex, text, searchSize), format)
	}
	out := components.Search.TextSearch(ctx, models.TextQuery{
		Index:  searchIndex,
		Text:   text,
		Fields: searchFields,
		Size:   searchSize,
	})
	if err := cli.WriteOutcome(cmd.OutOrStdout(), out, format); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("search failed: %s", out.Error)
	}
	return nil
}
