package parse

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiptSegment(lines ...string) string {
	return strings.Join(lines, "\n")
}

func TestAssemble_SingleBill(t *testing.T) {
	a := NewAssembler(Options{})
	text := receiptSegment(
		"RUCH/0393",
		"07-04-2024",
		"JOHN DOE",
		"9876543210",
		"Cash Bill",
		"Green Cross Pharma",
		"12 Station Road",
		"9123456789",
		"1:0",
		"PARACETAMOL 500",
		"B12",
		"9/26",
		"10.00",
		"2.00",
		"Rs. Eight Only",
		"12.50",
		"8.00",
		"Marg ERP Ltd",
	)

	bills, rejects := a.Assemble(text)

	require.Len(t, bills, 1)
	assert.Empty(t, rejects)

	bill := bills[0]
	assert.Equal(t, "RUCH/0393", bill.BillNo)
	assert.False(t, bill.IsReturn)
	assert.Equal(t, time.Date(2024, 4, 7, 0, 0, 0, 0, time.UTC), bill.Date)
	assert.Equal(t, "JOHN DOE", bill.CustomerName)
	assert.Equal(t, "9876543210", bill.CustomerPhone)
	assert.Equal(t, PaymentCash, bill.PaymentType)
	assert.Equal(t, "Green Cross Pharma", bill.StoreName)
	assert.Equal(t, "12 Station Road", bill.StoreAddress)
	assert.Equal(t, "9123456789", bill.StorePhone)

	require.Len(t, bill.Items, 1)
	assert.Equal(t, "PARACETAMOL 500", bill.Items[0].Name)
	assert.Equal(t, 1, bill.Items[0].Quantity)

	// The last decimal before the footer wins; 12.50 is an intermediate
	// sub-total.
	assert.Equal(t, 8.00, bill.AmountPaid)
}

func TestAssemble_MultiBillSplit(t *testing.T) {
	a := NewAssembler(Options{})
	text := receiptSegment(
		"RUCH/0001",
		"01-04-2024",
		"Cash Bill",
		"Green Cross Pharma",
		"Rs. Ten Only",
		"10.00",
		"Marg ERP Ltd",
	) + "\nApr 7 3:12:09 PMCreating bill\n" + receiptSegment(
		"RUCH/0002",
		"02-04-2024",
		"Cash Bill",
		"Green Cross Pharma",
		"Rs. Twenty Only",
		"20.00",
		"Marg ERP Ltd",
	)

	bills, rejects := a.Assemble(text)

	require.Len(t, bills, 2)
	assert.Empty(t, rejects)
	assert.Equal(t, "RUCH/0001", bills[0].BillNo)
	assert.Equal(t, 10.00, bills[0].AmountPaid)
	assert.Equal(t, "RUCH/0002", bills[1].BillNo)
	assert.Equal(t, 20.00, bills[1].AmountPaid)
}

func TestAssemble_ReturnBillNegatesAmount(t *testing.T) {
	a := NewAssembler(Options{})
	text := receiptSegment(
		"CN1234",
		"07-04-2024",
		"Cash Bill",
		"Green Cross Pharma",
		"Rs. Fifty Only",
		"50.00",
		"Marg ERP Ltd",
	)

	bills, rejects := a.Assemble(text)

	require.Len(t, bills, 1)
	assert.Empty(t, rejects)
	assert.True(t, bills[0].IsReturn)
	assert.Equal(t, -50.00, bills[0].AmountPaid)
}

func TestAssemble_CreditBill(t *testing.T) {
	a := NewAssembler(Options{})
	text := receiptSegment(
		"RUCH/0400",
		"07-04-2024",
		"Credit Bill",
		"Green Cross Pharma",
		"Rs. Ninety Only",
		"90.00",
		"Marg ERP Ltd",
	)

	bills, _ := a.Assemble(text)

	require.Len(t, bills, 1)
	assert.Equal(t, PaymentCredit, bills[0].PaymentType)
}

func TestAssemble_KnownStoreAllowList(t *testing.T) {
	a := NewAssembler(Options{KnownStores: []string{"Green Cross Pharma"}})
	text := receiptSegment(
		"RUCH/0401",
		"07-04-2024",
		"Cash Bill",
		"some promo text",
		"Green Cross Pharma",
		"12 Station Road",
		"9123456789",
		"Rs. Five Only",
		"5.00",
		"Marg ERP Ltd",
	)

	bills, _ := a.Assemble(text)

	require.Len(t, bills, 1)
	assert.Equal(t, "Green Cross Pharma", bills[0].StoreName)
	assert.Equal(t, "12 Station Road", bills[0].StoreAddress)
	assert.Equal(t, "9123456789", bills[0].StorePhone)
}

func TestAssemble_AllowListedStoreIsNotACustomer(t *testing.T) {
	a := NewAssembler(Options{KnownStores: []string{"Green Cross Pharma"}})
	text := receiptSegment(
		"RUCH/0402",
		"07-04-2024",
		"Green Cross Pharma",
		"Cash Bill",
		"Green Cross Pharma",
		"Rs. Five Only",
		"5.00",
		"Marg ERP Ltd",
	)

	bills, _ := a.Assemble(text)

	require.Len(t, bills, 1)
	assert.Empty(t, bills[0].CustomerName)
	assert.Equal(t, "Green Cross Pharma", bills[0].StoreName)
}

func TestAssemble_CustomerPhoneWithoutName(t *testing.T) {
	a := NewAssembler(Options{})
	text := receiptSegment(
		"RUCH/0403",
		"07-04-2024",
		"9876543210",
		"Cash Bill",
		"Green Cross Pharma",
		"Rs. Five Only",
		"5.00",
		"Marg ERP Ltd",
	)

	bills, _ := a.Assemble(text)

	require.Len(t, bills, 1)
	assert.Equal(t, "9876543210", bills[0].CustomerPhone)
	assert.Empty(t, bills[0].CustomerName)
}

func TestAssemble_Rejects(t *testing.T) {
	a := NewAssembler(Options{})

	tests := []struct {
		name   string
		text   string
		reason string
	}{
		{
			name:   "no bill number",
			text:   receiptSegment("no numbers here", "07-04-2024"),
			reason: ReasonMissingBillNo,
		},
		{
			name:   "no date",
			text:   receiptSegment("RUCH/0404", "JOHN DOE", "Cash Bill"),
			reason: ReasonMissingDate,
		},
		{
			name:   "no store",
			text:   receiptSegment("RUCH/0405", "07-04-2024", "Cash Bill"),
			reason: ReasonMissingStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bills, rejects := a.Assemble(tt.text)
			assert.Empty(t, bills)
			if assert.Len(t, rejects, 1) {
				assert.Equal(t, tt.reason, rejects[0].Reason)
			}
		})
	}
}

func TestSplitBills(t *testing.T) {
	text := "first segment\nApr 7 3:12:09 PMCreating bill\nsecond segment\nCreating bill\nthird"

	parts := SplitBills(text)

	assert.Equal(t, []string{"first segment\n", "\nsecond segment\n", "\nthird"}, parts)
}

func TestSplitBills_EmptyFragmentsDropped(t *testing.T) {
	parts := SplitBills("Creating bill\nCreating bill\nonly one")
	assert.Len(t, parts, 1)
}
