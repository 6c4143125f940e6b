package parse

import (
	"regexp"
	"strings"
)

// Role is the semantic label inferred for one input line. Classification is
// heuristic: a line may carry several roles and the assembler decides which
// one wins by position.
type Role string

const (
	RoleBillNumber    Role = "bill_number"
	RoleDate          Role = "date"
	RolePhone         Role = "phone"
	RoleCustomerName  Role = "customer_name"
	RolePaymentMarker Role = "payment_marker"
	RoleStoreName     Role = "store_name"
	RoleStoreAddress  Role = "store_address"
	RoleStorePhone    Role = "store_phone"
	RoleAmountWords   Role = "amount_words"
	RoleDecimal       Role = "decimal"
	RoleQuantity      Role = "quantity"
	RoleBatch         Role = "batch"
	RoleExpiry        Role = "expiry"
	RoleUnclassified  Role = "unclassified"
)

// RawLine is one unit of input: a receipt text line, or a spreadsheet row
// rendered as a single cell string.
type RawLine struct {
	Index int
	Text  string
}

// ClassifiedLine pairs a raw line with every role its shape matches.
type ClassifiedLine struct {
	RawLine
	Roles []Role
}

// Has reports whether the line matched the given role.
func (l ClassifiedLine) Has(role Role) bool {
	for _, r := range l.Roles {
		if r == role {
			return true
		}
	}
	return false
}

var (
	reBillNumber  = regexp.MustCompile(`^[A-Z]{2,}/\d+$`)
	reCreditNote  = regexp.MustCompile(`^CN\d+$`)
	reDate        = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
	rePhone       = regexp.MustCompile(`^\d{10}$`)
	reDecimal     = regexp.MustCompile(`^\d+\.\d{2}$`)
	reQuantity    = regexp.MustCompile(`^\d{1,3}$`)
	reQtyPair     = regexp.MustCompile(`^\d+:\d+$`)
	reBatch       = regexp.MustCompile(`^[A-Za-z0-9]{1,6}$`)
	reExpiry      = regexp.MustCompile(`^\d{1,2}/(?:\d{2}|\d{4})$`)
	reTimeOfDay   = regexp.MustCompile(`\d{1,2}:\d{2}`)
	rePureNumber  = regexp.MustCompile(`^[\d\s.,:/-]+$`)
	reCashToken   = regexp.MustCompile(`(?i)\bCASH\b`)
	reCreditToken = regexp.MustCompile(`(?i)\bCREDIT\b`)
)

// rule is one predicate/role pair of the classifier table. Rules are pure and
// independent; evaluation never stops early because a line may legitimately
// match several shapes.
type rule struct {
	role  Role
	match func(s string) bool
}

var classifierRules = []rule{
	{RoleBillNumber, func(s string) bool { return reBillNumber.MatchString(s) || reCreditNote.MatchString(s) }},
	{RoleDate, func(s string) bool { return reDate.MatchString(s) }},
	{RolePhone, func(s string) bool { return rePhone.MatchString(s) }},
	{RolePaymentMarker, isPaymentMarker},
	{RoleAmountWords, func(s string) bool {
		return strings.HasPrefix(s, "Rs.") && strings.Contains(s, "Only")
	}},
	{RoleDecimal, func(s string) bool { return reDecimal.MatchString(s) }},
	{RoleQuantity, func(s string) bool { return reQuantity.MatchString(s) || reQtyPair.MatchString(s) }},
	{RoleExpiry, func(s string) bool { return reExpiry.MatchString(s) }},
	{RoleBatch, func(s string) bool { return reBatch.MatchString(s) && !reQuantity.MatchString(s) }},
	{RoleCustomerName, isNameShaped},
}

func isPaymentMarker(s string) bool {
	upper := strings.ToUpper(s)
	hasTender := reCashToken.MatchString(upper) || reCreditToken.MatchString(upper)
	if !hasTender {
		return false
	}
	if strings.Contains(upper, "BILL") {
		return true
	}
	trimmed := strings.TrimSpace(upper)
	return trimmed == "CASH" || trimmed == "CREDIT"
}

// isNameShaped accepts free text that could plausibly be a person or store
// name: it must contain letters and must not be a date, a time, or a bare
// numeric/punctuation run.
func isNameShaped(s string) bool {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 3 {
		return false
	}
	if rePureNumber.MatchString(trimmed) {
		return false
	}
	if reDate.MatchString(trimmed) || reTimeOfDay.MatchString(trimmed) {
		return false
	}
	hasLetter := false
	for _, r := range trimmed {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			hasLetter = true
			break
		}
	}
	return hasLetter
}

// Classify labels a single line with every role it matches. It is pure and
// total: unrecognized input yields RoleUnclassified, never an error.
func Classify(text string) []Role {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []Role{RoleUnclassified}
	}

	var roles []Role
	for _, r := range classifierRules {
		if r.match(trimmed) {
			roles = append(roles, r.role)
		}
	}
	if len(roles) == 0 {
		return []Role{RoleUnclassified}
	}
	return roles
}

// ClassifyLines classifies a full segment, preserving unclassified lines so
// the assembler can still use them for positional lookups.
func ClassifyLines(lines []string) []ClassifiedLine {
	out := make([]ClassifiedLine, 0, len(lines))
	for i, line := range lines {
		out = append(out, ClassifiedLine{
			RawLine: RawLine{Index: i, Text: strings.TrimSpace(line)},
			Roles:   Classify(line),
		})
	}
	return out
}

// IsReturnBill reports whether a bill number follows the credit-note prefix
// convention.
func IsReturnBill(billNo string) bool {
	return strings.HasPrefix(billNo, "CN")
}
