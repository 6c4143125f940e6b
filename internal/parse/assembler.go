package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// billSeparator marks the boundary between concatenated bills inside one raw
// submission, e.g. "Apr 7 3:12:09 PMCreating bill".
var billSeparator = regexp.MustCompile(`(?:[A-Z][a-z]{2}\s+\d{1,2}\s+\d{1,2}:\d{2}:\d{2}\s*[AP]M)?Creating bill`)

// DateLayout is the receipt date format emitted by the billing terminals.
const DateLayout = "02-01-2006"

// Assembler groups classified receipt lines into draft bills. It is a
// stateful scanner: each stage performs a bounded forward scan for its target
// role instead of consuming exactly one line, because the terminal dialects
// interleave optional lines unpredictably.
type Assembler struct {
	opts  Options
	items itemExtractor
}

// NewAssembler builds an assembler with the given heuristics options.
func NewAssembler(opts Options) *Assembler {
	opts = opts.withDefaults()
	return &Assembler{opts: opts, items: itemExtractor{opts: opts}}
}

// Assemble splits a raw submission into bill segments and runs the scanner
// over each. Invalid segments come back as rejects, never as errors.
func (a *Assembler) Assemble(text string) ([]DraftBill, []Reject) {
	var (
		bills   []DraftBill
		rejects []Reject
	)
	for _, segment := range SplitBills(text) {
		lines := ClassifyLines(strings.Split(segment, "\n"))
		bill, reject := a.assembleSegment(lines)
		if reject != nil {
			rejects = append(rejects, *reject)
			continue
		}
		bills = append(bills, *bill)
	}
	return bills, rejects
}

// SplitBills cuts a raw submission on the embedded creation-timestamp markers
// and drops empty fragments.
func SplitBills(text string) []string {
	parts := billSeparator.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (a *Assembler) assembleSegment(lines []ClassifiedLine) (*DraftBill, *Reject) {
	cur := NewCursor(lines)

	// SeekBillNo
	billIdx, ok := cur.SeekRole(RoleBillNumber, 0)
	if !ok {
		return nil, &Reject{Reason: ReasonMissingBillNo}
	}
	billNo := lines[billIdx].Text
	bill := &DraftBill{BillNo: billNo, IsReturn: IsReturnBill(billNo)}

	// SeekDate
	cur.MoveTo(billIdx + 1)
	dateIdx, ok := cur.SeekRole(RoleDate, 0)
	if !ok {
		return nil, &Reject{BillNo: billNo, Reason: ReasonMissingDate}
	}
	date, err := time.Parse(DateLayout, lines[dateIdx].Text)
	if err != nil {
		return nil, &Reject{BillNo: billNo, Reason: ReasonMissingDate}
	}
	bill.Date = date

	// SeekPayment: the marker anchors both customer and store resolution.
	cur.MoveTo(dateIdx + 1)
	payIdx, hasPay := cur.SeekRole(RolePaymentMarker, 0)
	if !hasPay {
		payIdx = cur.Len()
	} else {
		bill.PaymentType = paymentType(lines[payIdx].Text)
	}
	if bill.PaymentType == "" {
		bill.PaymentType = PaymentCash
	}

	// SeekCustomer within (date, payment marker).
	a.resolveCustomer(cur, bill, dateIdx, payIdx)

	// SeekStore in the few lines after the payment marker.
	storeEnd := a.resolveStore(cur, bill, payIdx)
	if bill.StoreName == "" {
		return nil, &Reject{BillNo: billNo, Reason: ReasonMissingStore}
	}

	// SeekItems until the amount-in-words line.
	cur.MoveTo(storeEnd)
	bill.Items = a.items.extractItems(cur)

	// SeekTotal: last decimal between the "Rs. ... Only" line and the
	// software footer. Intermediate decimals in that window are discounts and
	// sub-totals, so the last one wins.
	a.resolveAmount(cur, bill)
	if bill.IsReturn && bill.AmountPaid > 0 {
		bill.AmountPaid = -bill.AmountPaid
	}

	return bill, nil
}

// resolveCustomer applies the customer precedence rules: a 10-digit phone
// before the payment marker with the nearest preceding name-shaped line, then
// any name-shaped line between date and marker, discarding names that are
// really store or bill-number shapes.
func (a *Assembler) resolveCustomer(cur *Cursor, bill *DraftBill, dateIdx, payIdx int) {
	window := cur.Window(dateIdx+1, payIdx)

	phoneAt := -1
	for i, line := range window {
		if line.Has(RolePhone) {
			phoneAt = i
			bill.CustomerPhone = line.Text
			break
		}
	}

	if phoneAt >= 0 {
		for i := phoneAt - 1; i >= 0; i-- {
			if a.acceptableName(window[i]) {
				bill.CustomerName = window[i].Text
				return
			}
		}
		return
	}

	for _, line := range window {
		if a.acceptableName(line) {
			bill.CustomerName = line.Text
			return
		}
	}
}

// acceptableName filters out false positives: lines that look like names but
// are actually bill numbers or allow-listed store names.
func (a *Assembler) acceptableName(line ClassifiedLine) bool {
	if !line.Has(RoleCustomerName) {
		return false
	}
	if line.Has(RoleBillNumber) || line.Has(RolePaymentMarker) {
		return false
	}
	for _, store := range a.opts.KnownStores {
		if strings.EqualFold(strings.TrimSpace(line.Text), store) {
			return false
		}
	}
	return true
}

// resolveStore prefers an allow-listed store name within six lines after the
// payment marker; otherwise it assumes the positional layout: name directly
// after the marker, address on the next line, phone after that when it is a
// 10-digit number. It returns the index after the consumed store block.
func (a *Assembler) resolveStore(cur *Cursor, bill *DraftBill, payIdx int) int {
	const storeScan = 6

	for i := payIdx + 1; i <= payIdx+storeScan; i++ {
		line, ok := cur.At(i)
		if !ok {
			break
		}
		for _, store := range a.opts.KnownStores {
			if strings.EqualFold(strings.TrimSpace(line.Text), store) {
				bill.StoreName = store
				if addr, ok := cur.At(i + 1); ok && isAddressShaped(addr) {
					bill.StoreAddress = addr.Text
				}
				if phone, ok := cur.At(i + 2); ok && phone.Has(RolePhone) {
					bill.StorePhone = phone.Text
					return i + 3
				}
				return i + 2
			}
		}
	}

	name, ok := cur.At(payIdx + 1)
	if !ok || !isNameShaped(name.Text) {
		return payIdx + 1
	}
	bill.StoreName = name.Text
	next := payIdx + 2
	if addr, ok := cur.At(payIdx + 2); ok && isAddressShaped(addr) {
		bill.StoreAddress = addr.Text
		next = payIdx + 3
	}
	if phone, ok := cur.At(next); ok && phone.Has(RolePhone) {
		bill.StorePhone = phone.Text
		next++
	}
	return next
}

// isAddressShaped accepts a free-text line for the store address slot. The
// amount-in-words line also looks like free text, so it is excluded
// explicitly.
func isAddressShaped(line ClassifiedLine) bool {
	return line.Has(RoleCustomerName) && !line.Has(RoleAmountWords)
}

func (a *Assembler) resolveAmount(cur *Cursor, bill *DraftBill) {
	// The amount window is located from the segment start, not the cursor:
	// item extraction may already have run past the amount-in-words line.
	wordsIdx := -1
	for i := 0; i < cur.Len(); i++ {
		line, _ := cur.At(i)
		if line.Has(RoleAmountWords) {
			wordsIdx = i
			break
		}
	}
	if wordsIdx < 0 {
		return
	}

	end := cur.Len()
	for i := wordsIdx + 1; i < cur.Len(); i++ {
		line, _ := cur.At(i)
		if a.isFooter(line.Text) {
			end = i
			break
		}
	}

	for i := end - 1; i > wordsIdx; i-- {
		line, _ := cur.At(i)
		if line.Has(RoleDecimal) {
			if value, err := strconv.ParseFloat(line.Text, 64); err == nil {
				bill.AmountPaid = value
			}
			return
		}
	}
}

func (a *Assembler) isFooter(text string) bool {
	for _, marker := range a.opts.FooterMarkers {
		if strings.Contains(strings.ToLower(text), strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

func paymentType(marker string) string {
	if reCreditToken.MatchString(strings.ToUpper(marker)) {
		return PaymentCredit
	}
	return PaymentCash
}
