// =============================================================================
// Order Export Converter - Order Grouper Module
// =============================================================================
//
// This module folds the flat record stream coming back from the store into
// the two-level structure the report needs: records belong to orders (by
// order-id) and orders belong to channel batches (by sales-channel).
//
// ORDERING:
//   Insertion order is the only ordering anywhere in the pipeline. Channels
//   keep the order of their first record, orders keep the order of their
//   first record within the channel, and lines keep record order within the
//   order. The report's message numbering is derived from exactly this
//   order, so nothing here ever sorts.
//
// CHANNEL SPLITS:
//   Each record reports its channel independently. If lines of one order id
//   show up under two channels they end up in two batches carrying the same
//   order id. That split is deliberate: there is no ground to pick an owning
//   channel for such an order, so the input's own claim stands.
//
// =============================================================================

package grouper

import (
	"fmt"

	"github.com/orderforge/order-export-conversion/internal/types"
)

// =============================================================================
// GROUPED TYPES
// =============================================================================

// Order is one buyer transaction: an order id and its lines in first-seen
// order. Order-level report fields are read from the first line; lines of an
// order are assumed to agree on them and the first line wins if they do not.
type Order struct {
	// ID is the order id shared by all lines.
	ID string

	// Lines holds the order's records in input order, at least one.
	Lines []types.RawRecord
}

// First returns the line that order-level fields are read from.
func (o *Order) First() types.RawRecord {
	return o.Lines[0]
}

// ChannelBatch holds the orders of one sales channel, in first-seen order.
type ChannelBatch struct {
	// Channel is the sales-channel value shared by the batch's records.
	Channel string

	orders  map[string]*Order
	orderBy []string
}

func newChannelBatch(channel string) *ChannelBatch {
	return &ChannelBatch{
		Channel: channel,
		orders:  make(map[string]*Order),
	}
}

func (b *ChannelBatch) add(orderID string, record types.RawRecord) {
	order, ok := b.orders[orderID]
	if !ok {
		order = &Order{ID: orderID}
		b.orders[orderID] = order
		b.orderBy = append(b.orderBy, orderID)
	}
	order.Lines = append(order.Lines, record)
}

// Orders returns the batch's orders in first-seen order.
func (b *ChannelBatch) Orders() []*Order {
	orders := make([]*Order, len(b.orderBy))
	for i, id := range b.orderBy {
		orders[i] = b.orders[id]
	}
	return orders
}

// Len returns the number of orders in the batch.
func (b *ChannelBatch) Len() int {
	return len(b.orderBy)
}

// LineCount returns the total number of order lines across the batch.
func (b *ChannelBatch) LineCount() int {
	n := 0
	for _, order := range b.orders {
		n += len(order.Lines)
	}
	return n
}

// =============================================================================
// GROUPING
// =============================================================================

// Group folds records into channel batches in a single pass. The input is
// expected to be pre-filtered (date window, cancellation flag); every record
// lands in exactly one (channel, order) slot.
//
// A record without a sales-channel or order-id field is a structural defect
// of the export and fails the whole call.
func Group(records []types.RawRecord) ([]*ChannelBatch, error) {
	batches := make(map[string]*ChannelBatch)
	var channelBy []string

	for i, record := range records {
		if !record.Has(types.FieldSalesChannel) {
			return nil, fmt.Errorf("record %d: field %q missing from export", i+1, types.FieldSalesChannel)
		}
		if !record.Has(types.FieldOrderID) {
			return nil, fmt.Errorf("record %d: field %q missing from export", i+1, types.FieldOrderID)
		}

		channel := record.Field(types.FieldSalesChannel)
		batch, ok := batches[channel]
		if !ok {
			batch = newChannelBatch(channel)
			batches[channel] = batch
			channelBy = append(channelBy, channel)
		}

		batch.add(record.Field(types.FieldOrderID), record)
	}

	result := make([]*ChannelBatch, len(channelBy))
	for i, channel := range channelBy {
		result[i] = batches[channel]
	}

	return result, nil
}
