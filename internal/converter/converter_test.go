package converter_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderforge/order-export-conversion/internal/config"
	"github.com/orderforge/order-export-conversion/internal/converter"
	"github.com/orderforge/order-export-conversion/internal/orderstore"
	"github.com/orderforge/order-export-conversion/internal/recordparser"
	"github.com/orderforge/order-export-conversion/internal/types"
)

// failingStore stands in for an unreachable database. Either operation can
// be made to fail independently.
type failingStore struct {
	failReplace bool
	failQuery   bool
}

func (s *failingStore) ReplaceAll(context.Context, string, []types.RawRecord) error {
	if s.failReplace {
		return fmt.Errorf("%w: connection refused", orderstore.ErrStoreUnavailable)
	}
	return nil
}

func (s *failingStore) Query(context.Context, string, orderstore.Filter) ([]types.RawRecord, error) {
	if s.failQuery {
		return nil, fmt.Errorf("%w: connection refused", orderstore.ErrStoreUnavailable)
	}
	return nil, nil
}

// exportHeader lists every column the report consumes, tab-joined.
var exportColumns = []string{
	"order-id", "purchase-date", "payments-date", "buyer-email", "buyer-name",
	"buyer-phone-number", "sales-channel", "ship-service-level", "recipient-name",
	"bill-name", "bill-address-1", "bill-address-2", "bill-address-3",
	"bill-city", "bill-state", "bill-postal-code", "bill-country",
	"ship-address-1", "ship-address-2", "ship-address-3", "ship-city",
	"ship-state", "ship-postal-code", "ship-country", "ship-phone-number",
	"order-item-id", "sku", "product-name", "quantity-purchased", "currency",
	"item-price", "shipping-price", "item-tax", "shipping-tax",
	"payment-method-fee", "is-buyer-requested-cancellation",
}

// exportLine renders one data row with sensible values for every column,
// then applies overrides keyed by column name.
func exportLine(orderID, channel string, overrides map[string]string) string {
	values := map[string]string{
		"order-id":                        orderID,
		"purchase-date":                   "2024-12-25T10:30:00+00:00",
		"payments-date":                   "2024-12-25T10:31:00+00:00",
		"buyer-email":                     "buyer@example.com",
		"buyer-name":                      "Pat Buyer",
		"buyer-phone-number":              "555-0100",
		"sales-channel":                   channel,
		"ship-service-level":              "Standard",
		"recipient-name":                  "Pat Buyer",
		"bill-name":                       "Pat Buyer",
		"bill-address-1":                  "1 Billing St",
		"bill-city":                       "Springfield",
		"bill-state":                      "IL",
		"bill-postal-code":                "62701",
		"bill-country":                    "US",
		"ship-address-1":                  "1 Shipping Ave",
		"ship-city":                       "Springfield",
		"ship-state":                      "IL",
		"ship-postal-code":                "62701",
		"ship-country":                    "US",
		"ship-phone-number":               "555-0101",
		"order-item-id":                   "10001",
		"sku":                             "SKU-1",
		"product-name":                    "Widget",
		"quantity-purchased":              "1",
		"currency":                        "USD",
		"item-price":                      "19.99",
		"shipping-price":                  "3.99",
		"item-tax":                        "1.60",
		"shipping-tax":                    "0.32",
		"payment-method-fee":              "2.50",
		"is-buyer-requested-cancellation": "false",
	}
	for name, value := range overrides {
		values[name] = value
	}

	row := make([]string, len(exportColumns))
	for i, column := range exportColumns {
		row[i] = values[column]
	}
	return strings.Join(row, "\t")
}

// testConfig builds a MainConfig rooted in a fresh temp dir with the memory
// driver and a window containing the canonical purchase-date.
func testConfig(t *testing.T) *config.MainConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.MainConfig{
		InputDir:         filepath.Join(dir, "in"),
		OutputDir:        filepath.Join(dir, "out"),
		InputArchiveDir:  filepath.Join(dir, "archive"),
		MerchantID:       "A2DKZN1W9ZO5KL",
		CancellationFlag: "false",
	}
	cfg.ReportWindow.Start = time.Date(2024, 12, 23, 13, 45, 0, 0, time.UTC)
	cfg.ReportWindow.End = time.Date(2025, 1, 2, 17, 15, 0, 0, time.UTC)
	cfg.Store.Driver = "memory"
	cfg.Store.Collection = "orders"

	for _, d := range []string{cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir} {
		require.NoError(t, os.MkdirAll(d, 0755))
	}
	return cfg
}

func writeExport(t *testing.T, cfg *config.MainConfig, name string, lines ...string) string {
	t.Helper()
	content := strings.Join(exportColumns, "\t") + "\n" + strings.Join(lines, "\n") + "\n"
	path := filepath.Join(cfg.InputDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRunSingleChannel(t *testing.T) {
	cfg := testConfig(t)
	path := writeExport(t, cfg, "orders.txt",
		exportLine("111-2223334", "Amazon.com", map[string]string{"order-item-id": "10001"}),
		exportLine("111-2223334", "Amazon.com", map[string]string{"order-item-id": "10002", "sku": "SKU-2"}),
	)

	c := converter.New(path, orderstore.NewMemoryStore(), cfg, nil, converter.Options{})
	result := c.Run(context.Background())

	require.NoError(t, result.Error)
	require.True(t, result.Success)
	assert.Equal(t, 2, result.Stats.RecordsParsed)
	assert.Equal(t, 2, result.Stats.RecordsMatched)
	assert.Equal(t, 1, result.Stats.Channels)
	assert.Equal(t, 1, result.Stats.Orders)
	assert.Equal(t, 2, result.Stats.Lines)
	assert.Zero(t, result.Stats.RenderFailures)

	require.Len(t, result.OutputFiles, 2)
	compact, err := os.ReadFile(filepath.Join(cfg.OutputDir, "Amazon.com.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(compact), "<AmazonOrderID>111-2223334</AmazonOrderID>")
	assert.Contains(t, string(compact), "<MessageID>1</MessageID>")

	formatted, err := os.ReadFile(filepath.Join(cfg.OutputDir, "Amazon.com.formatted.xml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(formatted), "<?xml "))

	// The processed export is archived out of the input directory.
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(cfg.InputArchiveDir, "orders.txt"))
	assert.NoError(t, err)
}

func TestRunSplitsChannels(t *testing.T) {
	cfg := testConfig(t)
	path := writeExport(t, cfg, "orders.txt",
		exportLine("111", "Amazon.com", nil),
		exportLine("222", "Amazon.ca", nil),
	)

	c := converter.New(path, orderstore.NewMemoryStore(), cfg, nil, converter.Options{})
	result := c.Run(context.Background())

	require.True(t, result.Success, "error: %v", result.Error)
	assert.Equal(t, 2, result.Stats.Channels)
	assert.Len(t, result.OutputFiles, 4)

	for _, name := range []string{"Amazon.com.xml", "Amazon.com.formatted.xml", "Amazon.ca.xml", "Amazon.ca.formatted.xml"} {
		_, err := os.Stat(filepath.Join(cfg.OutputDir, name))
		assert.NoError(t, err, name)
	}
}

func TestRunFiltersOutsideWindowAndCancelled(t *testing.T) {
	cfg := testConfig(t)
	path := writeExport(t, cfg, "orders.txt",
		exportLine("kept", "Amazon.com", nil),
		exportLine("too-early", "Amazon.com", map[string]string{"purchase-date": "2024-12-01T00:00:00+00:00"}),
		exportLine("cancelled", "Amazon.com", map[string]string{"is-buyer-requested-cancellation": "true"}),
	)

	c := converter.New(path, orderstore.NewMemoryStore(), cfg, nil, converter.Options{})
	result := c.Run(context.Background())

	require.True(t, result.Success, "error: %v", result.Error)
	assert.Equal(t, 3, result.Stats.RecordsParsed)
	assert.Equal(t, 1, result.Stats.RecordsMatched)
	assert.Equal(t, 1, result.Stats.Orders)

	compact, err := os.ReadFile(filepath.Join(cfg.OutputDir, "Amazon.com.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(compact), "<AmazonOrderID>kept</AmazonOrderID>")
	assert.NotContains(t, string(compact), "too-early")
	assert.NotContains(t, string(compact), "cancelled")
}

func TestRunParseFailureIsFatalForFile(t *testing.T) {
	cfg := testConfig(t)
	path := writeExport(t, cfg, "orders.txt",
		exportLine("111", "Amazon.com", map[string]string{"purchase-date": "not-a-date"}),
	)

	c := converter.New(path, orderstore.NewMemoryStore(), cfg, nil, converter.Options{})
	result := c.Run(context.Background())

	assert.False(t, result.Success)
	var parseErr *recordparser.ParseError
	require.ErrorAs(t, result.Error, &parseErr)

	// Failed exports stay in the input directory for the next run.
	_, err := os.Stat(path)
	assert.NoError(t, err)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunCountsRenderFailures(t *testing.T) {
	cfg := testConfig(t)

	// An export missing most report columns: the order parses and matches the
	// filter but fails its required-field checks at render time.
	content := "order-id\tpurchase-date\tsales-channel\tis-buyer-requested-cancellation\n" +
		"bad\t2024-12-25T10:30:00+00:00\tAmazon.com\tfalse\n"
	path := filepath.Join(cfg.InputDir, "orders.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c := converter.New(path, orderstore.NewMemoryStore(), cfg, nil, converter.Options{})
	result := c.Run(context.Background())

	require.True(t, result.Success, "error: %v", result.Error)
	assert.Equal(t, 1, result.Stats.RenderFailures)
	assert.Zero(t, result.Stats.Orders)
	// Lines counts the skipped order's line as well.
	assert.Equal(t, 1, result.Stats.Lines)

	// The envelope is still written, holding no messages.
	compact, err := os.ReadFile(filepath.Join(cfg.OutputDir, "Amazon.com.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(compact), "<MessageType>OrderReport</MessageType>")
	assert.NotContains(t, string(compact), "<Message>")
}

func TestRunStoreUnavailableIsFatalForFile(t *testing.T) {
	cases := []struct {
		name  string
		store *failingStore
	}{
		{"replace fails", &failingStore{failReplace: true}},
		{"query fails", &failingStore{failQuery: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			path := writeExport(t, cfg, "orders.txt",
				exportLine("111", "Amazon.com", nil),
			)

			c := converter.New(path, tc.store, cfg, nil, converter.Options{})
			result := c.Run(context.Background())

			assert.False(t, result.Success)
			require.ErrorIs(t, result.Error, orderstore.ErrStoreUnavailable)
			assert.Empty(t, result.OutputFiles)

			// The export stays in the input directory for the next run; no
			// report files appear.
			_, err := os.Stat(path)
			assert.NoError(t, err)

			entries, err := os.ReadDir(cfg.OutputDir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestRunDryRun(t *testing.T) {
	cfg := testConfig(t)
	path := writeExport(t, cfg, "orders.txt",
		exportLine("111", "Amazon.com", nil),
	)

	c := converter.New(path, orderstore.NewMemoryStore(), cfg, nil, converter.Options{DryRun: true})
	result := c.Run(context.Background())

	require.True(t, result.Success, "error: %v", result.Error)
	assert.Equal(t, 1, result.Stats.Orders)
	assert.Empty(t, result.OutputFiles)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Dry runs never archive the input.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
