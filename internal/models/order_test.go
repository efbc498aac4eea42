package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   string
		want OrderStatus
		ok   bool
	}{
		{"Pending", OrderStatusPending, true},
		{"pending", OrderStatusPending, true},
		{"  SHIPPED  ", OrderStatusShipped, true},
		{"completed", OrderStatusCompleted, true},
		{"cAnCeLlEd", OrderStatusCancelled, true},
		{"delivered", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseStatus(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestCanTransition(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusPending: {OrderStatusPending, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled},
		OrderStatusShipped: {OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled},
		// terminal states only permit their own repeat
		OrderStatusCompleted: {OrderStatusCompleted},
		OrderStatusCancelled: {OrderStatusCancelled},
	}

	all := []OrderStatus{OrderStatusPending, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled}

	for from, tos := range allowed {
		permitted := make(map[OrderStatus]bool)
		for _, to := range tos {
			permitted[to] = true
		}

		for _, to := range all {
			assert.Equal(t, permitted[to], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
	assert.True(t, OrderStatusCompleted.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
}

func TestNewOrder(t *testing.T) {
	user := NewUser("Anas", "9876543210", "anas@example.com", "hash")

	items := []OrderItem{
		{TrophyID: "trf-1", Quantity: 2, Price: 250},
		{TrophyID: "trf-2", Quantity: 1, Price: 499.50},
	}

	order := NewOrder(user, items, Address{Street: "12 Market Rd", City: "Moradabad", State: "UP", PostalCode: "244001"}, "9123456780")

	require.NotEmpty(t, order.ID)
	assert.Equal(t, user.ID, order.UserID)
	assert.Equal(t, user.Email, order.Email)
	assert.Equal(t, user.MobileNumber, order.PrimaryNumber)
	assert.Equal(t, "9123456780", order.AlternateNumber)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.InDelta(t, 999.50, order.TotalAmount, 0.001)

	// country default applied when omitted
	assert.Equal(t, "India", order.Address.Country)

	wantDelivery := order.CreatedAt.Add(DeliveryEstimate)
	assert.WithinDuration(t, wantDelivery, order.DeliveryDate, time.Second)

	assert.Empty(t, order.OTP)
	assert.Nil(t, order.OTPExpiry)
}

func TestOrderOTPExpiry(t *testing.T) {
	now := GetCurrentTime()
	expiry := now.Add(OTPValidity)

	order := &Order{OTP: "123456", OTPExpiry: &expiry}

	assert.True(t, order.HasPendingOTP())
	assert.False(t, order.OTPExpired(now))
	assert.False(t, order.OTPExpired(now.Add(OTPValidity)))
	assert.True(t, order.OTPExpired(now.Add(OTPValidity+time.Second)))

	bare := &Order{}
	assert.False(t, bare.HasPendingOTP())
	assert.False(t, bare.OTPExpired(now))
}

func TestGenerateOTP(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9]{6}$`)

	for i := 0; i < 100; i++ {
		otp := GenerateOTP()
		require.True(t, pattern.MatchString(otp), "got %q", otp)
	}
}

func TestGenerateID(t *testing.T) {
	id := GenerateID("ord")
	assert.Regexp(t, `^ord-[0-9a-f]{8}$`, id)
	assert.NotEqual(t, id, GenerateID("ord"))
}
