package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/buscador/internal/cli"
	"github.com/hyperjump/buscador/internal/scraper"
)

var (
	scrapeIndex    string
	scrapeTypes    string
	scrapeMaxFiles int
	scrapeMaxPages int
	scrapeDryRun   bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Index the files linked from a web page",
	Args:  cobra.ExactArgs(1),
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeIndex, "index", "i", "", "target index (default: search.default_index)")
	scrapeCmd.Flags().StringVar(&scrapeTypes, "types", "", "comma-separated extensions to follow (default: scraper.extensions)")
	scrapeCmd.Flags().IntVar(&scrapeMaxFiles, "max-files", 0, "maximum files to download (default: scraper.max_files)")
	scrapeCmd.Flags().IntVar(&scrapeMaxPages, "max-pages", 0, "maximum PDF pages read per file (default: scraper.max_pages)")
	scrapeCmd.Flags().BoolVar(&scrapeDryRun, "dry-run", false, "extract only, do not index")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
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
	req := scraper.Request{URL: args[0], MaxFiles: scrapeMaxFiles, MaxPages: scrapeMaxPages}
	if scrapeTypes != "" {
		req.Extensions = scraper.ParseExtensions(scrapeTypes)
	}
	if scrapeDryRun {
		res, err := newScraper(cfg, logger).Scrape(ctx, req)
		cli.WriteScrapeResult(cmd.OutOrStdout(), res)
		return err
	}

	components, err := initializeComponents(ctx, cfg, logger, want{search: true})
	if err != nil {
		return err
	}
	defer components.Close()

	res, err := components.Scraper.Scrape(ctx, req)
	cli.WriteScrapeResult(cmd.OutOrStdout(), res)
	if err != nil {
		return err
	}
	if len(res.Documents) == 0 {
		return nil
	}
	out := components.Search.BulkIndex(ctx, scrapeIndex, res.Documents)
	if err := cli.WriteOutcome(cmd.OutOrStdout(), out, format); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("bulk index failed: %s", out.Error)
	}
	return nil
}
