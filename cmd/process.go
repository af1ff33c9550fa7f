// =============================================================================
// Order Export Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, the main command for converting
// order exports to XML reports.
//
// COMMAND USAGE:
//   converter process [flags]
//
// FLAGS:
//   --dry-run : Run the pipeline without writing outputs or archiving inputs
//   --single  : Process only a single file (specify with --file)
//   --file    : Path to a specific export to process (used with --single)
//
// PROCESSING PIPELINE:
//   1. Load the configuration
//   2. Clear the output directory
//   3. Discover order exports in the input directory
//   4. Open the configured order store
//   5. For each export, to completion and in sequence:
//      a. Parse the export into raw records
//      b. Replace the store collection and query it back filtered
//      c. Group records into per-channel order batches
//      d. Build and write one report pair per channel
//      e. Archive the export
//   6. Print the run summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orderforge/order-export-conversion/internal/config"
	"github.com/orderforge/order-export-conversion/internal/converter"
	"github.com/orderforge/order-export-conversion/internal/orderstore"
	"github.com/orderforge/order-export-conversion/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun executes the pipeline without writing output files.
var dryRun bool

// singleFile indicates whether to process only a single file.
var singleFile bool

// filePath is the path to a specific export to process (used with --single).
var filePath string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process order exports and convert them to XML order reports",
	Long: `The process command clears the output directory, scans the input directory
for order exports (.txt tab-delimited or .xlsx), and converts each one into
per-channel XML order reports.

Exports are processed to completion one at a time. A fatal error in one file
(malformed rows, unreachable store) aborts that file only; processing
continues with the next export.

On successful processing:
  - One <channel>.xml and <channel>.formatted.xml pair per sales channel is
    placed in the output directory
  - The export is moved to the input archive

On error:
  - The export remains in the input directory
  - Processing continues with the remaining exports`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context())
	},
}

// init registers the process command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Run the pipeline without writing outputs or archiving inputs",
	)

	processCmd.Flags().BoolVar(
		&singleFile,
		"single",
		false,
		"Process only a single file (use with --file)",
	)

	processCmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Path to a specific export to process (used with --single)",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess orchestrates the conversion run.
func runProcess(ctx context.Context) error {
	startTime := time.Now()

	fmt.Println("=== Order Export Converter ===")
	fmt.Println("Loading configuration...")

	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	files := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir)
	if err := files.EnsureDirectories(); err != nil {
		return err
	}

	// Each run starts from an empty output directory; stale reports from a
	// previous window must not survive.
	if !dryRun {
		if err := files.ClearOutputDir(); err != nil {
			return fmt.Errorf("failed to clear output directory: %w", err)
		}
	}

	inputFiles, err := discoverInputFiles(files)
	if err != nil {
		return err
	}
	if len(inputFiles) == 0 {
		fmt.Println("No order exports found in the input directory.")
		return nil
	}
	fmt.Printf("Found %d export(s) to process\n", len(inputFiles))

	store, cleanup, err := openStore(mainConfig)
	if err != nil {
		return err
	}
	defer cleanup()

	// Process each export to completion before starting the next; no
	// partial output of an in-flight file is ever observable.
	var results []converter.Result
	for _, file := range inputFiles {
		conv := converter.New(file, store, mainConfig, logger, converter.Options{DryRun: dryRun})
		results = append(results, conv.Run(ctx))
	}

	printSummary(results, time.Since(startTime))
	return nil
}

// discoverInputFiles resolves the set of exports for this run, honoring the
// --single/--file flags.
func discoverInputFiles(files *utils.FileManager) ([]string, error) {
	if singleFile {
		if filePath == "" {
			return nil, fmt.Errorf("--single requires --file")
		}
		if !utils.FileExists(filePath) {
			return nil, fmt.Errorf("export not found: %s", filePath)
		}
		return []string{filePath}, nil
	}

	return files.DiscoverInputFiles(".txt", ".xlsx")
}

// openStore builds the configured store implementation. The returned cleanup
// closes whatever needs closing.
func openStore(cfg *config.MainConfig) (orderstore.Store, func(), error) {
	switch cfg.Store.Driver {
	case "memory":
		return orderstore.NewMemoryStore(), func() {}, nil

	case "postgres":
		store, err := orderstore.NewPostgresStore(orderstore.PostgresConfig{
			Host:     cfg.Store.Postgres.Host,
			Port:     cfg.Store.Postgres.Port,
			Database: cfg.Store.Postgres.Database,
			Username: cfg.Store.Postgres.Username,
			Password: cfg.Store.Postgres.Password,
			SSLMode:  cfg.Store.Postgres.SSLMode,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close store", zap.Error(err))
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// printSummary prints the per-file outcomes and the run totals.
func printSummary(results []converter.Result, elapsed time.Duration) {
	var successCount, errorCount, channels, orders, lines, skipped int

	for _, result := range results {
		if result.Success {
			successCount++
			channels += result.Stats.Channels
			orders += result.Stats.Orders
			lines += result.Stats.Lines
			skipped += result.Stats.RenderFailures
			fmt.Printf("  ✓ %s (%d channel(s), %d order(s))\n",
				filepath.Base(result.FilePath), result.Stats.Channels, result.Stats.Orders)
		} else {
			errorCount++
			fmt.Printf("  ✗ %s: %v\n", filepath.Base(result.FilePath), result.Error)
		}
	}

	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:     %d\n", len(results))
	fmt.Printf("Successful:      %d\n", successCount)
	fmt.Printf("Errors:          %d\n", errorCount)
	fmt.Printf("Channels:        %d\n", channels)
	fmt.Printf("Orders:          %d\n", orders)
	fmt.Printf("Order lines:     %d\n", lines)
	if skipped > 0 {
		fmt.Printf("Orders skipped:  %d (missing required fields)\n", skipped)
	}
	fmt.Printf("Time elapsed:    %s\n", elapsed)
}
