package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(price string, qty int, discount string) LineItem {
	return LineItem{
		ProductID: "p1",
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
		Discount:  decimal.RequireFromString(discount),
	}
}

func TestLineItemSubtotal(t *testing.T) {
	li := item("100.00", 2, "20.00")
	assert.True(t, decimal.RequireFromString("180.00").Equal(li.Subtotal()))
}

func TestOrderTotals(t *testing.T) {
	o := &Order{Status: StatusPending}
	assert.True(t, decimal.Zero.Equal(o.Total()))

	o.AddItem(item("100.00", 2, "20.00"))
	o.AddItem(item("0.333", 3, "0"))

	assert.True(t, decimal.RequireFromString("180.999").Equal(o.Total()), "running sums stay exact")
	assert.True(t, decimal.RequireFromString("20.00").Equal(o.DiscountTotal()))
	assert.True(t, o.Total().Equal(o.Payable()))

	charged := decimal.RequireFromString("50.00")
	o.TotalOverride = &charged
	assert.True(t, charged.Equal(o.Payable()))
	assert.True(t, decimal.RequireFromString("180.999").Equal(o.Total()))
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCreated, false},
		{StatusPending, StatusPending, false},
		{StatusCreated, StatusPaid, false},
		{StatusCreated, StatusPending, false},
		{StatusPaid, StatusPaid, false},
		{StatusPaid, StatusPending, false},
		{Status("BOGUS"), StatusPaid, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestStatusAcceptsItems(t *testing.T) {
	assert.True(t, StatusPending.AcceptsItems())
	assert.False(t, StatusCreated.AcceptsItems())
	assert.False(t, StatusPaid.AcceptsItems())
}

func TestParseStatus(t *testing.T) {
	for _, s := range []Status{StatusCreated, StatusPending, StatusPaid} {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStatus("SHIPPED")
	require.Error(t, err)
}
