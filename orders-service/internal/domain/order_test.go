package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_Valid(t *testing.T) {
	for _, s := range []OrderStatus{"pending", "confirmed", "processing", "shipped", "delivered", "cancelled"} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, OrderStatus("SHIPPED").Valid())
	assert.False(t, OrderStatus("returned").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.False(t, OrderStatusShipped.Terminal())
}

func TestPaymentStatus_Valid(t *testing.T) {
	assert.True(t, PaymentStatusRefunded.Valid())
	assert.False(t, PaymentStatus("chargeback").Valid())
}

func TestOrder_ItemCount(t *testing.T) {
	o := Order{Items: []OrderItem{
		{Quantity: 2, Price: decimal.NewFromInt(100)},
		{Quantity: 1, Price: decimal.NewFromInt(250)},
	}}
	assert.Equal(t, 3, o.ItemCount())
}

func TestValidationError_KeepsFieldOrder(t *testing.T) {
	var v ValidationError
	assert.NoError(t, v.Err())

	v.Add("phone", "invalid phone number")
	v.Add("city", "city is required")
	v.Add("phone", "duplicate")

	err := v.Err()
	assert.Error(t, err)
	assert.Equal(t, "phone", v.First())
	assert.True(t, v.Has("city"))
	assert.False(t, v.Has("name"))
	assert.Equal(t, map[string]string{"phone": "invalid phone number", "city": "city is required"}, v.Map())
	assert.Contains(t, err.Error(), "city: city is required")
}
