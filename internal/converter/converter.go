// =============================================================================
// Order Export Converter - Converter Module
// =============================================================================
//
// This module orchestrates the pipeline for a single export file:
//
//   1. Parse the export (tab-delimited .txt or .xlsx) into raw records
//   2. Replace the store collection with the parsed records
//   3. Query the collection back through the report filter
//   4. Group the filtered records into channel batches
//   5. Build the envelope document for every channel
//   6. Write the compact and formatted serializations per channel
//   7. Archive the processed export
//
// Files are processed to completion one at a time; a fatal error (parse
// failure, store failure) aborts the current file only and is surfaced in
// the Result for the caller to log. Orders that fail rendering inside an
// otherwise healthy file are skipped and counted, never silently dropped.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/orderforge/order-export-conversion/internal/config"
	"github.com/orderforge/order-export-conversion/internal/grouper"
	"github.com/orderforge/order-export-conversion/internal/orderstore"
	"github.com/orderforge/order-export-conversion/internal/recordparser"
	"github.com/orderforge/order-export-conversion/internal/report"
	"github.com/orderforge/order-export-conversion/internal/types"
	"github.com/orderforge/order-export-conversion/internal/xlsxparser"
	"github.com/orderforge/order-export-conversion/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Result is the outcome of processing a single export file.
type Result struct {
	// FilePath is the processed export.
	FilePath string

	// OutputFiles lists every report file written, compact and formatted.
	OutputFiles []string

	// Success is true when the file was processed end to end. Orders that
	// failed rendering do not flip this; check Stats.RenderFailures.
	Success bool

	// Error holds the fatal error when Success is false.
	Error error

	// Stats carries the processing counters.
	Stats ProcessingStats
}

// ProcessingStats contains counters for the run summary.
type ProcessingStats struct {
	// RecordsParsed is the number of rows parsed from the export.
	RecordsParsed int

	// RecordsMatched is the number of records the store filter returned.
	RecordsMatched int

	// Channels is the number of channel batches (= report pairs written).
	Channels int

	// Orders is the number of orders rendered across all channels.
	Orders int

	// Lines is the number of order lines across all channel batches,
	// counting lines of skipped orders too.
	Lines int

	// RenderFailures is the number of orders skipped for missing required
	// fields.
	RenderFailures int

	// ProcessingTime is the wall time spent on the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER
// =============================================================================

// Options tune a Converter beyond its collaborators.
type Options struct {
	// DryRun executes the pipeline without writing reports or archiving the
	// input file.
	DryRun bool
}

// Converter processes one export file against a store and a configuration.
type Converter struct {
	path    string
	store   orderstore.Store
	cfg     *config.MainConfig
	builder *report.Builder
	files   *utils.FileManager
	log     *zap.Logger
	opts    Options
}

// New creates a Converter for one export file.
func New(path string, store orderstore.Store, cfg *config.MainConfig, logger *zap.Logger, opts Options) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		path:    path,
		store:   store,
		cfg:     cfg,
		builder: report.NewBuilder(cfg.MerchantID),
		files:   utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir),
		log:     logger.With(zap.String("file", filepath.Base(path))),
		opts:    opts,
	}
}

// Run executes the pipeline for the file.
func (c *Converter) Run(ctx context.Context) Result {
	startTime := time.Now()
	result := Result{FilePath: c.path}
	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	// Step 1: parse the export.
	records, err := c.parse()
	if err != nil {
		result.Error = err
		return result
	}
	result.Stats.RecordsParsed = len(records)
	c.log.Info("parsed export", zap.Int("records", len(records)))

	// Step 2: replace the collection with this export's records.
	collection := c.cfg.Store.Collection
	if err := c.store.ReplaceAll(ctx, collection, records); err != nil {
		result.Error = fmt.Errorf("failed to store records: %w", err)
		return result
	}

	// Step 3: query back through the report filter.
	filter := orderstore.Filter{
		PlacedAfter:      c.cfg.ReportWindow.Start,
		PlacedBefore:     c.cfg.ReportWindow.End,
		CancellationFlag: c.cfg.CancellationFlag,
	}
	matched, err := c.store.Query(ctx, collection, filter)
	if err != nil {
		result.Error = fmt.Errorf("failed to query records: %w", err)
		return result
	}
	result.Stats.RecordsMatched = len(matched)
	c.log.Info("queried records", zap.Int("matched", len(matched)))

	// Step 4: group into channel batches.
	batches, err := grouper.Group(matched)
	if err != nil {
		result.Error = fmt.Errorf("failed to group records: %w", err)
		return result
	}
	result.Stats.Channels = len(batches)

	// Steps 5+6: build and write one report pair per channel.
	for _, batch := range batches {
		envelope, failures := c.builder.Build(batch)
		for _, failure := range failures {
			c.log.Warn("order skipped", zap.String("channel", failure.Channel),
				zap.String("order", failure.OrderID), zap.String("field", failure.Field))
		}
		result.Stats.RenderFailures += len(failures)
		result.Stats.Orders += batch.Len() - len(failures)
		result.Stats.Lines += batch.LineCount()

		if c.opts.DryRun {
			continue
		}

		compactPath, formattedPath, err := c.files.WriteReportPair(
			batch.Channel, envelope.Render(), envelope.RenderIndent("  "))
		if err != nil {
			result.Error = err
			return result
		}
		result.OutputFiles = append(result.OutputFiles, compactPath, formattedPath)
		c.log.Info("wrote channel report", zap.String("channel", batch.Channel),
			zap.Int("orders", batch.Len()-len(failures)))
	}

	// Step 7: archive the processed export.
	if !c.opts.DryRun {
		if archived, err := c.files.ArchiveInputFile(c.path); err != nil {
			// Not fatal; the reports are already on disk.
			c.log.Warn("failed to archive export", zap.Error(err))
		} else {
			c.log.Info("archived export", zap.String("to", archived))
		}
	}

	result.Success = true
	return result
}

// parse dispatches on the export's file extension.
func (c *Converter) parse() ([]types.RawRecord, error) {
	switch strings.ToLower(filepath.Ext(c.path)) {
	case ".xlsx":
		return xlsxparser.ParseFile(c.path)
	default:
		return recordparser.ParseFile(c.path)
	}
}
