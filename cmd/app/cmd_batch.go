package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ExoVista/internal/services/disposition"
	"ExoVista/internal/services/ingest"
	"ExoVista/internal/usecase"
)

var batchFlags struct {
	workers int
	maxRows int
}

var batchCmd = &cobra.Command{
	Use:   "batch <file.csv|file.json>",
	Short: "Classify every observation in a CSV or JSON file",
	Long: `Batch parses the file, classifies each row and prints one JSON line per row.
Rows that cannot be parsed or validated carry an "error" field instead of a report.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.IntVar(&batchFlags.workers, "workers", 4, "concurrent classifications")
	f.IntVar(&batchFlags.maxRows, "max-rows", 10000, "reject files with more rows")
}

func runBatch(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	uc := usecase.NewDispositionUseCase(disposition.NewClassifier(),
		usecase.WithBatchWorkers(batchFlags.workers),
		usecase.WithParser(ingest.NewParser(ingest.WithMaxRows(batchFlags.maxRows))))
	res, err := uc.AnalyzeFile(cmd.Context(), filepath.Base(path), f, usecase.SourceCLI)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, row := range res.Rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d rows, %d failed\n", res.Total, res.Failed)
	return nil
}
