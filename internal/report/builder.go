// =============================================================================
// Order Export Converter - Report Builder Module
// =============================================================================
//
// This module renders one channel batch into the AmazonEnvelope order-report
// document. It owns the whole schema shape: the envelope header, one Message
// per order, the billing and fulfillment blocks, the boolean flag defaults
// and the per-item price and fee component trees.
//
// DOCUMENT SHAPE:
//   <AmazonEnvelope xmlns:xsi="..." xsi:noNamespaceSchemaLocation="amzn-envelope.xsd">
//     <Header>
//       <DocumentVersion>1.01</DocumentVersion>
//       <MerchantIdentifier>...</MerchantIdentifier>
//     </Header>
//     <MessageType>OrderReport</MessageType>
//     <Message>
//       <MessageID>1</MessageID>
//       <OrderReport>
//         <AmazonOrderID/> <AmazonSessionID/> <OrderDate/> <OrderPostedDate/>
//         <BillingData>... <Address>...</Address></BillingData>
//         <FulfillmentData>... <Address>...</Address></FulfillmentData>
//         <IsBusinessOrder/> <IsPrime/> <IsPremiumOrder/> <IsIba/>
//         <Item>... <ItemPrice>4 components</ItemPrice> <ItemFees>1 fee</ItemFees></Item>*
//       </OrderReport>
//     </Message>*
//   </AmazonEnvelope>
//
// FIELD RULES:
//   - Order-level values come from the order's first line only.
//   - Monetary amounts and quantities are copied verbatim; the currency
//     attribute on each Amount is the line's currency field.
//   - Phone numbers are optional and default to empty; the four Is* flags
//     are optional and default to "false" (always rendered lowercase).
//   - Every other consumed field is required. A required field absent from
//     an order's first line fails that order with MissingFieldError and no
//     part of its Message is emitted; the rest of the batch still renders.
//
// =============================================================================

package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/orderforge/order-export-conversion/internal/grouper"
	"github.com/orderforge/order-export-conversion/internal/types"
	"github.com/orderforge/order-export-conversion/internal/xmlwriter"
)

// =============================================================================
// SCHEMA CONSTANTS
// =============================================================================

const (
	// DocumentVersion is the fixed envelope header version.
	DocumentVersion = "1.01"

	// MessageType identifies the envelope payload.
	MessageType = "OrderReport"

	// ProductTaxCode is emitted for every item; the export carries no tax
	// code of its own.
	ProductTaxCode = "A_GEN_STANDARD"

	// FulfillmentMethod is fixed; no alternate fulfillment path is modeled.
	FulfillmentMethod = "Ship"

	xsiNamespace   = "http://www.w3.org/2001/XMLSchema-instance"
	schemaLocation = "amzn-envelope.xsd"
)

// =============================================================================
// ERRORS
// =============================================================================

// MissingFieldError reports a required field absent when building an order's
// report. It is fatal for that order only.
type MissingFieldError struct {
	Channel string
	OrderID string
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("channel %q: order %s: required field %q missing", e.Channel, e.OrderID, e.Field)
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder renders channel batches into envelope documents. It is stateless
// across Build calls apart from the session-id generator.
type Builder struct {
	merchantID string

	// newSessionID produces the AmazonSessionID for each message. Random
	// UUIDs in production; injectable so tests can pin it.
	newSessionID func() string
}

// NewBuilder creates a Builder emitting random session ids.
func NewBuilder(merchantID string) *Builder {
	return NewBuilderWithSessionIDs(merchantID, uuid.NewString)
}

// NewBuilderWithSessionIDs creates a Builder with a custom session-id
// generator.
func NewBuilderWithSessionIDs(merchantID string, newSessionID func() string) *Builder {
	return &Builder{merchantID: merchantID, newSessionID: newSessionID}
}

// Build renders one channel batch. Orders are numbered 1-based in the
// batch's first-seen order; an order failing a required-field check emits no
// Message and is reported in the returned error slice, with numbering
// staying contiguous over the emitted messages. The envelope is returned
// even when every order failed.
func (b *Builder) Build(batch *grouper.ChannelBatch) (*xmlwriter.Element, []*MissingFieldError) {
	envelope := xmlwriter.New("AmazonEnvelope",
		xmlwriter.Attr{Name: "xmlns:xsi", Value: xsiNamespace},
		xmlwriter.Attr{Name: "xsi:noNamespaceSchemaLocation", Value: schemaLocation},
	)

	header := xmlwriter.New("Header")
	header.AddText("DocumentVersion", DocumentVersion)
	header.AddText("MerchantIdentifier", b.merchantID)
	envelope.Add(header)
	envelope.AddText("MessageType", MessageType)

	var failed []*MissingFieldError
	messageID := 0

	for _, order := range batch.Orders() {
		orderReport, err := b.buildOrderReport(batch.Channel, order)
		if err != nil {
			failed = append(failed, err)
			continue
		}

		messageID++
		message := xmlwriter.New("Message")
		message.AddText("MessageID", strconv.Itoa(messageID))
		message.Add(orderReport)
		envelope.Add(message)
	}

	return envelope, failed
}

// =============================================================================
// ORDER RENDERING
// =============================================================================

// buildOrderReport renders one order into its OrderReport element. No
// partial element escapes: the first missing required field abandons the
// whole order.
func (b *Builder) buildOrderReport(channel string, order *grouper.Order) (*xmlwriter.Element, *MissingFieldError) {
	first := order.First()
	fields := newFieldReader(channel, order.ID, first)

	orderReport := xmlwriter.New("OrderReport")
	orderReport.AddText("AmazonOrderID", order.ID)
	orderReport.AddText("AmazonSessionID", b.newSessionID())
	orderReport.AddText("OrderDate", fields.require(types.FieldPurchaseDate))
	orderReport.AddText("OrderPostedDate", fields.require(types.FieldPaymentsDate))

	// Billing block: buyer identity plus the billing address.
	billingData := xmlwriter.New("BillingData")
	billingData.AddText("BuyerEmailAddress", fields.require(types.FieldBuyerEmail))
	billingData.AddText("BuyerName", fields.require(types.FieldBuyerName))
	billingData.AddText("BuyerPhoneNumber", fields.optional(types.FieldBuyerPhone))

	billingAddress := xmlwriter.New("Address")
	billingAddress.AddText("Name", fields.require(types.FieldBillName))
	billingAddress.AddText("AddressFieldOne", fields.require(types.FieldBillAddress1))
	billingAddress.AddText("AddressFieldTwo", fields.require(types.FieldBillAddress2))
	billingAddress.AddText("AddressFieldThree", fields.require(types.FieldBillAddress3))
	billingAddress.AddText("City", fields.require(types.FieldBillCity))
	billingAddress.AddText("StateOrRegion", fields.require(types.FieldBillState))
	billingAddress.AddText("PostalCode", fields.require(types.FieldBillPostalCode))
	billingAddress.AddText("CountryCode", fields.require(types.FieldBillCountry))
	billingData.Add(billingAddress)
	orderReport.Add(billingData)

	// Fulfillment block: fixed method, service level, shipping address.
	fulfillmentData := xmlwriter.New("FulfillmentData")
	fulfillmentData.AddText("FulfillmentMethod", FulfillmentMethod)
	fulfillmentData.AddText("FulfillmentServiceLevel", fields.require(types.FieldShipServiceLevel))

	fulfillmentAddress := xmlwriter.New("Address")
	fulfillmentAddress.AddText("Name", fields.require(types.FieldRecipientName))
	fulfillmentAddress.AddText("AddressFieldOne", fields.require(types.FieldShipAddress1))
	fulfillmentAddress.AddText("AddressFieldTwo", fields.require(types.FieldShipAddress2))
	fulfillmentAddress.AddText("AddressFieldThree", fields.require(types.FieldShipAddress3))
	fulfillmentAddress.AddText("City", fields.require(types.FieldShipCity))
	fulfillmentAddress.AddText("StateOrRegion", fields.require(types.FieldShipState))
	fulfillmentAddress.AddText("PostalCode", fields.require(types.FieldShipPostalCode))
	fulfillmentAddress.AddText("CountryCode", fields.require(types.FieldShipCountry))
	fulfillmentAddress.AddText("PhoneNumber", fields.optional(types.FieldShipPhone))
	fulfillmentData.Add(fulfillmentAddress)
	orderReport.Add(fulfillmentData)

	orderReport.AddText("IsBusinessOrder", fields.flag(types.FieldIsBusinessOrder))
	orderReport.AddText("IsPrime", fields.flag(types.FieldIsPrime))
	orderReport.AddText("IsPremiumOrder", fields.flag(types.FieldIsPremiumOrder))
	orderReport.AddText("IsIba", fields.flag(types.FieldIsIba))

	for _, line := range order.Lines {
		item, err := buildItem(channel, order.ID, line)
		if err != nil {
			return nil, err
		}
		orderReport.Add(item)
	}

	if fields.missing != nil {
		return nil, fields.missing
	}

	return orderReport, nil
}

// buildItem renders one order line into an Item element with its price and
// fee component trees.
func buildItem(channel, orderID string, line types.RawRecord) (*xmlwriter.Element, *MissingFieldError) {
	fields := newFieldReader(channel, orderID, line)
	currency := fields.require(types.FieldCurrency)

	item := xmlwriter.New("Item")
	item.AddText("AmazonOrderItemCode", fields.require(types.FieldOrderItemID))
	item.AddText("SKU", fields.require(types.FieldSKU))
	item.AddText("Title", fields.require(types.FieldProductName))
	item.AddText("Quantity", fields.require(types.FieldQuantityPurchased))
	item.AddText("ProductTaxCode", ProductTaxCode)

	// Four price components in fixed order, amounts copied verbatim.
	itemPrice := xmlwriter.New("ItemPrice")
	itemPrice.Add(
		priceComponent("Principal", currency, fields.require(types.FieldItemPrice)),
		priceComponent("Shipping", currency, fields.require(types.FieldShippingPrice)),
		priceComponent("Tax", currency, fields.require(types.FieldItemTax)),
		priceComponent("ShippingTax", currency, fields.require(types.FieldShippingTax)),
	)
	item.Add(itemPrice)

	itemFees := xmlwriter.New("ItemFees")
	fee := xmlwriter.New("Fee")
	fee.AddText("Type", "Commission")
	fee.Add(amountElement(currency, fields.require(types.FieldPaymentMethodFee)))
	itemFees.Add(fee)
	item.Add(itemFees)

	if fields.missing != nil {
		return nil, fields.missing
	}

	return item, nil
}

func priceComponent(componentType, currency, amount string) *xmlwriter.Element {
	component := xmlwriter.New("Component")
	component.AddText("Type", componentType)
	component.Add(amountElement(currency, amount))
	return component
}

func amountElement(currency, amount string) *xmlwriter.Element {
	element := xmlwriter.New("Amount", xmlwriter.Attr{Name: "currency", Value: currency})
	element.Text = amount
	return element
}

// =============================================================================
// FIELD ACCESS
// =============================================================================

// fieldReader reads fields off one record and remembers the first required
// field that was absent. Collecting the error instead of returning it at
// every call keeps the tree construction readable; callers check missing
// once after building.
type fieldReader struct {
	channel string
	orderID string
	record  types.RawRecord
	missing *MissingFieldError
}

func newFieldReader(channel, orderID string, record types.RawRecord) *fieldReader {
	return &fieldReader{channel: channel, orderID: orderID, record: record}
}

// require returns the field value, recording a MissingFieldError when the
// field is absent from the record. An empty value counts as present.
func (f *fieldReader) require(name string) string {
	if !f.record.Has(name) {
		if f.missing == nil {
			f.missing = &MissingFieldError{Channel: f.channel, OrderID: f.orderID, Field: name}
		}
		return ""
	}
	return f.record.Field(name)
}

// optional returns the field value, or "" when absent.
func (f *fieldReader) optional(name string) string {
	return f.record.Field(name)
}

// flag returns the lowercase rendering of an optional boolean flag,
// defaulting to "false" when absent.
func (f *fieldReader) flag(name string) string {
	if !f.record.Has(name) {
		return "false"
	}
	return strings.ToLower(f.record.Field(name))
}
