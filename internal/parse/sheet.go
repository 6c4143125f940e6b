package parse

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	reCustomerHeader = regexp.MustCompile(`^(\d{9,10})\s+(\S.*)$`)
	reSheetBillNo    = regexp.MustCompile(`^(CS/\d+|CN\d+)$`)
	reSheetQty       = regexp.MustCompile(`^(\d+)\.0$`)
	reSheetBatch     = regexp.MustCompile(`^(\d+/\d+)\s+(\w+)$`)
	reUpperDesc      = regexp.MustCompile(`^[A-Z0-9][A-Z0-9 .%/-]{5,}$`)
)

// sheet boilerplate that must not be mistaken for the store name.
var sheetBoilerplate = []string{"SALES STATEMENT", "ADDRESS", "PHONE", "PH:", "GSTIN", "TOTAL"}

// Segmenter is the spreadsheet counterpart of the assembler: it walks a
// loosely tabular sheet row by row, keeping a running customer and bill
// cursor, and closes the current bill at the next header or bill-number row.
type Segmenter struct {
	opts Options
}

// NewSegmenter builds a segmenter with the given heuristics options.
func NewSegmenter(opts Options) *Segmenter {
	return &Segmenter{opts: opts.withDefaults()}
}

// ParseWorkbook reads the first sheet of an xlsx workbook and segments it.
func (s *Segmenter) ParseWorkbook(r io.Reader) ([]DraftBill, []Reject, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = book.Close() }()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}

	bills, rejects := s.Segment(rows)
	return bills, rejects, nil
}

// Segment groups sheet rows into draft bills.
func (s *Segmenter) Segment(rows [][]string) ([]DraftBill, []Reject) {
	var (
		bills   []DraftBill
		rejects []Reject
	)

	storeName := s.sheetStore(rows)

	var (
		current   *DraftBill
		custName  string
		custPhone string
		date      time.Time
	)

	closeCurrent := func() {
		if current == nil {
			return
		}
		bill := *current
		current = nil
		if bill.BillNo == "" {
			rejects = append(rejects, Reject{Reason: ReasonMissingBillNo})
			return
		}
		if bill.Date.IsZero() {
			rejects = append(rejects, Reject{BillNo: bill.BillNo, Reason: ReasonMissingDate})
			return
		}
		bills = append(bills, bill)
	}

	for i, row := range rows {
		switch {
		case s.customerHeaderRow(row) != nil:
			closeCurrent()
			header := s.customerHeaderRow(row)
			custPhone, custName = header[1], strings.TrimSpace(header[2])

		case s.dateCell(row) != "":
			if parsed, err := time.Parse(DateLayout, s.dateCell(row)); err == nil {
				date = parsed
			}

		case s.billNoCell(row) != "":
			closeCurrent()
			billNo := s.billNoCell(row)
			current = &DraftBill{
				BillNo:        billNo,
				IsReturn:      IsReturnBill(billNo),
				Date:          date,
				CustomerName:  custName,
				CustomerPhone: custPhone,
				StoreName:     storeName,
				PaymentType:   PaymentCash,
			}
			cash, credit := s.tenderSplit(rows, i)
			current.CashAmount, current.CreditAmount = cash, credit
			if credit > 0 {
				current.PaymentType = PaymentCredit
			}

		case s.totalRow(row):
			if current != nil {
				current.TotalAmount = lastDecimalCell(row)
				current.AmountPaid = current.TotalAmount
				if current.IsReturn && current.AmountPaid > 0 {
					current.AmountPaid = -current.AmountPaid
				}
			}
			closeCurrent()

		default:
			if current == nil {
				continue
			}
			if item, ok := s.itemRow(row); ok {
				current.Items = append(current.Items, item)
			}
		}
	}
	closeCurrent()

	return bills, rejects
}

// sheetStore extracts the store identity once per sheet, from the first ~10
// rows, skipping known boilerplate.
func (s *Segmenter) sheetStore(rows [][]string) string {
	limit := 10
	if len(rows) < limit {
		limit = len(rows)
	}
	for _, row := range rows[:limit] {
		for _, cell := range row {
			text := strings.TrimSpace(cell)
			if text == "" || !isNameShaped(text) {
				continue
			}
			if s.boilerplate(text) || reCustomerHeader.MatchString(text) || reSheetBillNo.MatchString(text) {
				continue
			}
			return text
		}
	}
	return s.opts.FallbackStore
}

func (s *Segmenter) boilerplate(text string) bool {
	upper := strings.ToUpper(text)
	for _, marker := range sheetBoilerplate {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

func (s *Segmenter) customerHeaderRow(row []string) []string {
	for _, cell := range row {
		if m := reCustomerHeader.FindStringSubmatch(strings.TrimSpace(cell)); m != nil {
			return m
		}
	}
	return nil
}

func (s *Segmenter) dateCell(row []string) string {
	for _, cell := range row {
		if reDate.MatchString(strings.TrimSpace(cell)) {
			return strings.TrimSpace(cell)
		}
	}
	return ""
}

func (s *Segmenter) billNoCell(row []string) string {
	for _, cell := range row {
		if reSheetBillNo.MatchString(strings.TrimSpace(cell)) {
			return strings.TrimSpace(cell)
		}
	}
	return ""
}

func (s *Segmenter) totalRow(row []string) bool {
	for _, cell := range row {
		if strings.Contains(strings.ToUpper(cell), "TOTAL AMOUNT") {
			return true
		}
	}
	return false
}

// itemRow recognizes a line-item row: a quantity or batch shaped cell next to
// a long uppercase description cell.
func (s *Segmenter) itemRow(row []string) (DraftItem, bool) {
	item := DraftItem{Quantity: 1}
	marker := false

	for _, cell := range row {
		text := strings.TrimSpace(cell)
		switch {
		case text == "":
		case reSheetQty.MatchString(text):
			if qty, err := strconv.Atoi(reSheetQty.FindStringSubmatch(text)[1]); err == nil && qty > 0 {
				item.Quantity = qty
			}
			marker = true
		case reSheetBatch.MatchString(text):
			m := reSheetBatch.FindStringSubmatch(text)
			item.Expiry, item.Batch = m[1], m[2]
			marker = true
		case item.Name == "" && reUpperDesc.MatchString(text) && isNameShaped(text):
			item.Name = text
		case item.UnitPrice == 0 && reDecimal.MatchString(text):
			if value, err := strconv.ParseFloat(text, 64); err == nil {
				item.UnitPrice = value
			}
		}
	}

	if !marker || item.Name == "" {
		return DraftItem{}, false
	}
	return item, true
}

// tenderSplit reads the cash/credit tender from the last two columns of the
// bill-number row, widening the search ±3 rows when that row carries only
// zeroes. A bill with no non-zero tender anywhere defaults to fully cash.
func (s *Segmenter) tenderSplit(rows [][]string, billRow int) (cash, credit float64) {
	if cash, credit, ok := rowTender(rows[billRow]); ok {
		return cash, credit
	}
	for offset := 1; offset <= 3; offset++ {
		for _, idx := range []int{billRow - offset, billRow + offset} {
			if idx < 0 || idx >= len(rows) {
				continue
			}
			if cash, credit, ok := rowTender(rows[idx]); ok {
				return cash, credit
			}
		}
	}
	return 0, 0
}

// rowTender interprets the trailing two non-empty cells of a row as the cash
// and credit amounts; ok only when at least one of them is non-zero.
func rowTender(row []string) (cash, credit float64, ok bool) {
	var tail []float64
	for _, cell := range row {
		text := strings.TrimSpace(cell)
		if text == "" {
			continue
		}
		if value, err := strconv.ParseFloat(text, 64); err == nil {
			tail = append(tail, value)
		} else {
			tail = tail[:0]
		}
	}
	if len(tail) < 2 {
		return 0, 0, false
	}
	cash, credit = tail[len(tail)-2], tail[len(tail)-1]
	return cash, credit, cash != 0 || credit != 0
}

func lastDecimalCell(row []string) float64 {
	for i := len(row) - 1; i >= 0; i-- {
		text := strings.TrimSpace(row[i])
		if text == "" {
			continue
		}
		if value, err := strconv.ParseFloat(text, 64); err == nil {
			return value
		}
	}
	return 0
}
