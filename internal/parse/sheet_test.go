package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSegment_SingleBill(t *testing.T) {
	s := NewSegmenter(Options{})
	rows := [][]string{
		{"SALES STATEMENT"},
		{"GREEN CROSS PHARMA"},
		{"ADDRESS: 1 MAIN ROAD"},
		{"9876543210 RAVI KUMAR"},
		{"01-04-2024"},
		{"CS/1001", "", "450.00", "0.00"},
		{"4.0", "DOLO 650 TAB", "9/26 AB123", "25.00"},
		{"TOTAL AMOUNT", "", "450.00"},
	}

	bills, rejects := s.Segment(rows)

	require.Len(t, bills, 1)
	assert.Empty(t, rejects)

	bill := bills[0]
	assert.Equal(t, "CS/1001", bill.BillNo)
	assert.Equal(t, "GREEN CROSS PHARMA", bill.StoreName)
	assert.Equal(t, "RAVI KUMAR", bill.CustomerName)
	assert.Equal(t, "9876543210", bill.CustomerPhone)
	assert.Equal(t, PaymentCash, bill.PaymentType)
	assert.Equal(t, 450.00, bill.CashAmount)
	assert.Equal(t, 0.00, bill.CreditAmount)
	assert.Equal(t, 450.00, bill.TotalAmount)
	assert.Equal(t, 450.00, bill.AmountPaid)

	require.Len(t, bill.Items, 1)
	assert.Equal(t, 4, bill.Items[0].Quantity)
	assert.Equal(t, "DOLO 650 TAB", bill.Items[0].Name)
	assert.Equal(t, "AB123", bill.Items[0].Batch)
	assert.Equal(t, "9/26", bill.Items[0].Expiry)
	assert.Equal(t, 25.00, bill.Items[0].UnitPrice)
}

func TestSegment_CreditTender(t *testing.T) {
	s := NewSegmenter(Options{})
	rows := [][]string{
		{"GREEN CROSS PHARMA"},
		{"9876543210 RAVI KUMAR"},
		{"01-04-2024"},
		{"CS/1002", "", "0.00", "120.00"},
		{"1.0", "AZITHRAL 500 TAB", "12/25 XY99", "120.00"},
		{"TOTAL AMOUNT", "", "120.00"},
	}

	bills, _ := s.Segment(rows)

	require.Len(t, bills, 1)
	assert.Equal(t, PaymentCredit, bills[0].PaymentType)
	assert.Equal(t, 0.00, bills[0].CashAmount)
	assert.Equal(t, 120.00, bills[0].CreditAmount)
}

func TestSegment_ReturnBillNegatesAmount(t *testing.T) {
	s := NewSegmenter(Options{})
	rows := [][]string{
		{"GREEN CROSS PHARMA"},
		{"9876543210 RAVI KUMAR"},
		{"01-04-2024"},
		{"CN205", "", "75.00", "0.00"},
		{"1.0", "CROCIN ADVANCE TAB", "1/27 C77", "75.00"},
		{"TOTAL AMOUNT", "", "75.00"},
	}

	bills, _ := s.Segment(rows)

	require.Len(t, bills, 1)
	assert.True(t, bills[0].IsReturn)
	assert.Equal(t, 75.00, bills[0].TotalAmount)
	assert.Equal(t, -75.00, bills[0].AmountPaid)
}

func TestSegment_MultipleCustomers(t *testing.T) {
	s := NewSegmenter(Options{})
	rows := [][]string{
		{"GREEN CROSS PHARMA"},
		{"9876543210 RAVI KUMAR"},
		{"01-04-2024"},
		{"CS/1001", "", "450.00", "0.00"},
		{"4.0", "DOLO 650 TAB", "9/26 AB123", "25.00"},
		{"TOTAL AMOUNT", "", "450.00"},
		{"9123456780 MEERA SHAH"},
		{"02-04-2024"},
		{"CS/1003", "", "60.00", "0.00"},
		{"2.0", "ORS SACHET PACK", "5/26 Q1", "30.00"},
		{"TOTAL AMOUNT", "", "60.00"},
	}

	bills, rejects := s.Segment(rows)

	require.Len(t, bills, 2)
	assert.Empty(t, rejects)
	assert.Equal(t, "RAVI KUMAR", bills[0].CustomerName)
	assert.Equal(t, "MEERA SHAH", bills[1].CustomerName)
	assert.Equal(t, "CS/1003", bills[1].BillNo)
}

func TestSegment_BillWithoutTotalRowClosesAtNextBill(t *testing.T) {
	s := NewSegmenter(Options{})
	rows := [][]string{
		{"GREEN CROSS PHARMA"},
		{"9876543210 RAVI KUMAR"},
		{"01-04-2024"},
		{"CS/1001", "", "450.00", "0.00"},
		{"4.0", "DOLO 650 TAB", "9/26 AB123", "25.00"},
		{"CS/1002", "", "60.00", "0.00"},
		{"TOTAL AMOUNT", "", "60.00"},
	}

	bills, _ := s.Segment(rows)

	require.Len(t, bills, 2)
	assert.Equal(t, "CS/1001", bills[0].BillNo)
	assert.Equal(t, 0.00, bills[0].TotalAmount)
	assert.Equal(t, 60.00, bills[1].TotalAmount)
}

func TestSegment_FallbackStore(t *testing.T) {
	s := NewSegmenter(Options{FallbackStore: "Main Store"})
	rows := [][]string{
		{"SALES STATEMENT"},
		{"9876543210 RAVI KUMAR"},
		{"01-04-2024"},
		{"CS/1001", "", "10.00", "0.00"},
		{"TOTAL AMOUNT", "", "10.00"},
	}

	bills, _ := s.Segment(rows)

	require.Len(t, bills, 1)
	assert.Equal(t, "Main Store", bills[0].StoreName)
}

func TestSegment_BillBeforeDateRejected(t *testing.T) {
	s := NewSegmenter(Options{})
	rows := [][]string{
		{"GREEN CROSS PHARMA"},
		{"9876543210 RAVI KUMAR"},
		{"CS/1001", "", "10.00", "0.00"},
		{"TOTAL AMOUNT", "", "10.00"},
	}

	bills, rejects := s.Segment(rows)

	assert.Empty(t, bills)
	require.Len(t, rejects, 1)
	assert.Equal(t, ReasonMissingDate, rejects[0].Reason)
	assert.Equal(t, "CS/1001", rejects[0].BillNo)
}

func TestParseWorkbook(t *testing.T) {
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	rows := [][]any{
		{"GREEN CROSS PHARMA"},
		{"9876543210 RAVI KUMAR"},
		{"01-04-2024"},
		{"CS/1001", "", "450.00", "0.00"},
		{"4.0", "DOLO 650 TAB", "9/26 AB123", "25.00"},
		{"TOTAL AMOUNT", "", "450.00"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow(sheet, cell, &row))
	}

	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	s := NewSegmenter(Options{})
	bills, rejects, err := s.ParseWorkbook(buf)

	require.NoError(t, err)
	assert.Empty(t, rejects)
	require.Len(t, bills, 1)
	assert.Equal(t, "CS/1001", bills[0].BillNo)
	assert.Equal(t, "GREEN CROSS PHARMA", bills[0].StoreName)
}
