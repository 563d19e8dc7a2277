package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/buscador/internal/cli"
	"github.com/hyperjump/buscador/internal/ingest"
)

var (
	ingestIndex  string
	ingestDryRun bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.json|file.zip>...",
	Short: "Index JSON files and ZIP archives of JSON files",
	Long: `Reads each file like the upload page does: JSON objects and arrays of
objects become documents, ZIP archives contribute their .json entries. The
per-request file limit (ingest.max_files) applies.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestIndex, "index", "i", "", "target index (default: search.default_index)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "parse only, do not index")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
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
	uploads := make([]ingest.Upload, len(args))
	for i, p := range args {
		uploads[i] = ingest.PathUpload(p)
	}

	if ingestDryRun {
		res, err := ingest.NewPipeline(cfg.Ingest, nil, ingest.WithLogger(logger)).Process(ctx, uploads)
		cli.WriteIngestResult(cmd.OutOrStdout(), res)
		return err
	}

	components, err := initializeComponents(ctx, cfg, logger, want{search: true})
	if err != nil {
		return err
	}
	defer components.Close()

	res, out, err := components.Pipeline.IngestAndIndex(ctx, ingestIndex, uploads)
	if format == cli.OutputText {
		cli.WriteIngestResult(cmd.OutOrStdout(), res)
	}
	if err != nil {
		return err
	}
	if err := cli.WriteOutcome(cmd.OutOrStdout(), out, format); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("bulk index failed: %s", out.Error)
	}
	return nil
}
