package parse

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reLoneQty   = regexp.MustCompile(`^\d{1,3}$`)
	reQtySplit  = regexp.MustCompile(`^(\d+):(\d+)(?:\s+(.+))?$`)
	reMergedQty = regexp.MustCompile(`^(\d{1,3})\s+(\S.*)$`)
)

// itemExtractor assembles line items from a classified window. It supports
// three quantity dialects, auto-detected per window:
//
//  1. a lone 1-3 digit token followed by the name on the next line
//  2. a qty:subqty token (quantity is the first non-zero of the pair) with
//     the name inline or on the next line
//  3. an already-merged "qty name" line
type itemExtractor struct {
	opts Options
}

// extractItems walks the window until the terminator (an "Rs." amount line)
// and returns every item that resolved a name. Nameless markers are dropped,
// not defaulted.
func (e itemExtractor) extractItems(cur *Cursor) []DraftItem {
	var items []DraftItem
	for cur.Remaining() > 0 {
		line, _ := cur.Peek(0)
		if strings.HasPrefix(line.Text, "Rs.") {
			break
		}

		qty, name, consumed, ok := e.matchItemStart(cur)
		if !ok {
			cur.Advance(1)
			continue
		}
		cur.Advance(consumed)

		if name == "" {
			// A dangling quantity token with no resolvable name is noise.
			continue
		}

		item := DraftItem{Quantity: qty, Name: name}
		e.fillAttributes(cur, &item)
		items = append(items, item)
	}
	return items
}

// matchItemStart detects an item marker at the cursor and resolves the item's
// quantity and name. consumed is how many lines the marker and name used.
func (e itemExtractor) matchItemStart(cur *Cursor) (qty int, name string, consumed int, ok bool) {
	line, _ := cur.Peek(0)
	text := line.Text

	if m := reQtySplit.FindStringSubmatch(text); m != nil {
		qty = firstNonZero(m[1], m[2])
		if m[3] != "" {
			return qty, strings.TrimSpace(m[3]), 1, true
		}
		if next, exists := cur.Peek(1); exists && isNameShaped(next.Text) {
			return qty, next.Text, 2, true
		}
		return qty, "", 1, true
	}

	if reLoneQty.MatchString(text) {
		qty, _ = strconv.Atoi(text)
		if qty < 1 {
			qty = 1
		}
		if next, exists := cur.Peek(1); exists && isNameShaped(next.Text) {
			return qty, next.Text, 2, true
		}
		return qty, "", 1, true
	}

	if m := reMergedQty.FindStringSubmatch(text); m != nil && isNameShaped(m[2]) {
		qty, _ = strconv.Atoi(m[1])
		if qty < 1 {
			qty = 1
		}
		return qty, strings.TrimSpace(m[2]), 1, true
	}

	return 0, "", 0, false
}

// fillAttributes scans up to ItemLookahead lines after the name for a batch
// code, an expiry, and the positional decimal run: the first decimal is the
// unit price, the DiscountOrdinal-th is the discount. The scan stops early at
// the next item marker or an "Rs." line.
func (e itemExtractor) fillAttributes(cur *Cursor, item *DraftItem) {
	decimals := 0
	scanned := 0
	for scanned < e.opts.ItemLookahead {
		line, exists := cur.Peek(0)
		if !exists {
			return
		}
		if strings.HasPrefix(line.Text, "Rs.") {
			return
		}
		if e.isItemMarker(cur) {
			return
		}

		switch {
		case line.Has(RoleDecimal):
			decimals++
			value, err := strconv.ParseFloat(line.Text, 64)
			if err == nil {
				if decimals == 1 {
					item.UnitPrice = value
				}
				if decimals == e.opts.DiscountOrdinal {
					item.Discount = value
				}
			}
		case item.Expiry == "" && line.Has(RoleExpiry):
			item.Expiry = line.Text
		case item.Batch == "" && decimals == 0 && line.Has(RoleBatch):
			item.Batch = line.Text
		}

		cur.Advance(1)
		scanned++
	}
}

// isItemMarker reports whether the cursor sits on the start of another item,
// without resolving it.
func (e itemExtractor) isItemMarker(cur *Cursor) bool {
	line, exists := cur.Peek(0)
	if !exists {
		return false
	}
	text := line.Text
	if reQtySplit.MatchString(text) {
		return true
	}
	if reLoneQty.MatchString(text) {
		// A bare number only opens an item when a name follows it; otherwise
		// it is one of the numeric attribute lines.
		next, ok := cur.Peek(1)
		return ok && isNameShaped(next.Text)
	}
	if m := reMergedQty.FindStringSubmatch(text); m != nil {
		return isNameShaped(m[2]) && !line.Has(RoleDecimal)
	}
	return false
}

func firstNonZero(parts ...string) int {
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err == nil && n > 0 {
			return n
		}
	}
	return 1
}
