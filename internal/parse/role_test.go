package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Role
	}{
		{
			name:  "bill number",
			input: "RUCH/0393",
			want:  []Role{RoleBillNumber, RoleCustomerName},
		},
		{
			name:  "credit note number",
			input: "CN1234",
			want:  []Role{RoleBillNumber, RoleBatch, RoleCustomerName},
		},
		{
			name:  "date",
			input: "07-04-2024",
			want:  []Role{RoleDate},
		},
		{
			name:  "phone",
			input: "9876543210",
			want:  []Role{RolePhone},
		},
		{
			name:  "cash bill marker",
			input: "Cash Bill",
			want:  []Role{RolePaymentMarker, RoleCustomerName},
		},
		{
			name:  "bare credit marker",
			input: "CREDIT",
			want:  []Role{RolePaymentMarker, RoleBatch, RoleCustomerName},
		},
		{
			name:  "amount in words",
			input: "Rs. One Hundred Only",
			want:  []Role{RoleAmountWords, RoleCustomerName},
		},
		{
			name:  "decimal",
			input: "123.45",
			want:  []Role{RoleDecimal},
		},
		{
			name:  "lone quantity",
			input: "12",
			want:  []Role{RoleQuantity},
		},
		{
			name:  "quantity pair",
			input: "1:0",
			want:  []Role{RoleQuantity},
		},
		{
			name:  "expiry",
			input: "9/26",
			want:  []Role{RoleExpiry},
		},
		{
			name:  "batch code",
			input: "B12X",
			want:  []Role{RoleBatch, RoleCustomerName},
		},
		{
			name:  "free text name",
			input: "RAVI KUMAR",
			want:  []Role{RoleCustomerName},
		},
		{
			name:  "empty line",
			input: "   ",
			want:  []Role{RoleUnclassified},
		},
		{
			name:  "time of day is not a name",
			input: "3:12:09 PM",
			want:  []Role{RoleUnclassified},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, Classify(tt.input))
		})
	}
}

func TestClassifyNeverErrors(t *testing.T) {
	inputs := []string{"", "!!!", "\t", "----", "a", "日本語"}
	for _, input := range inputs {
		roles := Classify(input)
		assert.NotEmpty(t, roles, "input %q", input)
	}
}

func TestClassifyLinesPreservesIndexes(t *testing.T) {
	lines := ClassifyLines([]string{"RUCH/0393", "  07-04-2024  ", "whatever"})

	assert.Len(t, lines, 3)
	assert.Equal(t, 1, lines[1].Index)
	assert.Equal(t, "07-04-2024", lines[1].Text)
	assert.True(t, lines[0].Has(RoleBillNumber))
	assert.True(t, lines[1].Has(RoleDate))
}

func TestIsReturnBill(t *testing.T) {
	assert.True(t, IsReturnBill("CN1234"))
	assert.False(t, IsReturnBill("RUCH/0393"))
	assert.False(t, IsReturnBill("CS/1001"))
}
