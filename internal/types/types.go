// =============================================================================
// Order Export Converter - Shared Types
// =============================================================================
//
// This package contains the record type and export field names shared across
// multiple modules to avoid import cycles. Types defined here are used by:
//   - recordparser
//   - xlsxparser
//   - orderstore
//   - grouper
//   - report
//
// =============================================================================

package types

import "time"

// =============================================================================
// RECORD TYPE
// =============================================================================

// RawRecord is one row of an order export: the raw field values keyed by the
// export's header names, plus the order date parsed from the purchase-date
// field. A record is never mutated after parsing; every field value flows
// through the pipeline exactly as it appeared in the source file.
type RawRecord struct {
	// Fields maps export header name -> raw string value.
	Fields map[string]string

	// OrderDate is the parsed value of the purchase-date field. It exists so
	// the store can filter on a typed instant instead of a string.
	OrderDate time.Time
}

// Field returns the raw value of the named field, or "" when absent.
func (r RawRecord) Field(name string) string {
	return r.Fields[name]
}

// Has reports whether the named field was present in the source row. An empty
// value still counts as present; only a column missing from the export header
// makes a field absent.
func (r RawRecord) Has(name string) bool {
	_, ok := r.Fields[name]
	return ok
}

// =============================================================================
// EXPORT FIELD NAMES
// =============================================================================
// Header names of the seller-central order export. The hyphenated spelling is
// the vendor's, not ours; keep these in sync with the export format.

const (
	// Order-level fields, read from the first line of each order.
	FieldOrderID          = "order-id"
	FieldPurchaseDate     = "purchase-date"
	FieldPaymentsDate     = "payments-date"
	FieldBuyerEmail       = "buyer-email"
	FieldBuyerName        = "buyer-name"
	FieldBuyerPhone       = "buyer-phone-number"
	FieldSalesChannel     = "sales-channel"
	FieldShipServiceLevel = "ship-service-level"
	FieldRecipientName    = "recipient-name"
	FieldShipPhone        = "ship-phone-number"

	// Billing address.
	FieldBillName       = "bill-name"
	FieldBillAddress1   = "bill-address-1"
	FieldBillAddress2   = "bill-address-2"
	FieldBillAddress3   = "bill-address-3"
	FieldBillCity       = "bill-city"
	FieldBillState      = "bill-state"
	FieldBillPostalCode = "bill-postal-code"
	FieldBillCountry    = "bill-country"

	// Shipping address.
	FieldShipAddress1   = "ship-address-1"
	FieldShipAddress2   = "ship-address-2"
	FieldShipAddress3   = "ship-address-3"
	FieldShipCity       = "ship-city"
	FieldShipState      = "ship-state"
	FieldShipPostalCode = "ship-postal-code"
	FieldShipCountry    = "ship-country"

	// Line-item fields.
	FieldOrderItemID       = "order-item-id"
	FieldSKU               = "sku"
	FieldProductName       = "product-name"
	FieldQuantityPurchased = "quantity-purchased"
	FieldCurrency          = "currency"
	FieldItemPrice         = "item-price"
	FieldShippingPrice     = "shipping-price"
	FieldItemTax           = "item-tax"
	FieldShippingTax       = "shipping-tax"
	FieldPaymentMethodFee  = "payment-method-fee"

	// Flags. BuyerCancel is used by the store filter; the Is* flags are
	// optional in the export and default to false in the report.
	FieldBuyerCancel     = "is-buyer-requested-cancellation"
	FieldIsBusinessOrder = "is-business-order"
	FieldIsPrime         = "is-prime"
	FieldIsPremiumOrder  = "is-premium-order"
	FieldIsIba           = "is-iba"
)
