package parse

import "time"

// Payment tender recorded on a draft bill.
const (
	PaymentCash   = "cash"
	PaymentCredit = "credit"
)

// DraftItem is one in-flight line item assembled from a window of classified
// lines. Batch and Expiry stay empty when the window never produced them.
type DraftItem struct {
	Quantity  int
	Name      string
	Batch     string
	Expiry    string
	UnitPrice float64
	Discount  float64
}

// DraftBill is a parsed, not-yet-persisted bill. It may still be invalid; the
// orchestrator's validity gate decides whether it reaches persistence.
type DraftBill struct {
	BillNo        string
	IsReturn      bool
	Date          time.Time
	CustomerName  string
	CustomerPhone string
	StoreName     string
	StoreAddress  string
	StorePhone    string
	PaymentType   string
	AmountPaid    float64
	CashAmount    float64
	CreditAmount  float64
	TotalAmount   float64
	Items         []DraftItem
}

// Reject records a segment that could not be assembled into a valid bill.
// Rejects are ledger entries, not errors: one bad bill never aborts a batch.
type Reject struct {
	BillNo string
	Reason string
}

// Reject reasons reported in the job ledger.
const (
	ReasonMissingBillNo = "missing bill number"
	ReasonMissingDate   = "missing or unparseable date"
	ReasonMissingStore  = "no store resolved"
)

// Options tunes the positional conventions of the receipt heuristics. The
// decimal offsets were reverse-engineered from sample receipts and vary by
// terminal firmware, so they are configuration rather than constants.
type Options struct {
	// ItemLookahead is how many lines after an item name are scanned for
	// batch, expiry and prices.
	ItemLookahead int
	// DiscountOrdinal is the 1-based position of the discount among the
	// decimals following an item's expiry.
	DiscountOrdinal int
	// SentinelPhone is the placeholder phone used when no customer phone is
	// extractable.
	SentinelPhone string
	// UnknownCustomerName is used when a phone was found but no name.
	UnknownCustomerName string
	// CashlistCustomerName is used when neither name nor phone were found.
	CashlistCustomerName string
	// KnownStores is the allow-list matched (case-insensitively) after the
	// payment marker before falling back to positional store resolution.
	KnownStores []string
	// FallbackStore is assigned to spreadsheet batches whose header rows never
	// named a store.
	FallbackStore string
	// FooterMarkers identify the trailing software/ERP footer line that
	// closes the paid-amount window.
	FooterMarkers []string
}

// DefaultSentinelPhone is the fixed placeholder phone for customers without
// an extractable phone number.
const DefaultSentinelPhone = "9999999999"

func (o Options) withDefaults() Options {
	if o.ItemLookahead <= 0 {
		o.ItemLookahead = 10
	}
	if o.DiscountOrdinal <= 0 {
		o.DiscountOrdinal = 6
	}
	if o.SentinelPhone == "" {
		o.SentinelPhone = DefaultSentinelPhone
	}
	if o.UnknownCustomerName == "" {
		o.UnknownCustomerName = "Unknown Customer"
	}
	if o.CashlistCustomerName == "" {
		o.CashlistCustomerName = "Cashlist Customer"
	}
	if len(o.FooterMarkers) == 0 {
		o.FooterMarkers = []string{"Marg", "ERP", "Software"}
	}
	return o
}
