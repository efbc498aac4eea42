package models

import (
	"strings"
	"time"
)

// OrderStatus represents the status of an order
type OrderStatus string

// Canonical order statuses. Input is matched case-insensitively but
// only these exact forms are ever persisted.
const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// OTPValidity is how long an order-completion code stays usable. The
// same window is applied to the account-verification codes.
const OTPValidity = 10 * time.Minute

// DeliveryEstimate is added to the order date to compute the estimated
// delivery date.
const DeliveryEstimate = 5 * 24 * time.Hour

// Address is the shipping address snapshot copied onto an order
type Address struct {
	Street     string `db:"street" json:"street"`
	City       string `db:"city" json:"city"`
	State      string `db:"state" json:"state"`
	PostalCode string `db:"postal_code" json:"postalCode"`
	Country    string `db:"country" json:"country"`
}

// OrderItem is one purchased line with the unit price frozen at order time
type OrderItem struct {
	ID       int64   `db:"id" json:"-"`
	OrderID  string  `db:"order_id" json:"-"`
	TrophyID string  `db:"trophy_id" json:"trophyId"`
	Quantity int     `db:"quantity" json:"quantity"`
	Price    float64 `db:"price" json:"price"`
}

// Order represents one checkout transaction. Items, address, contact
// fields and the total are write-once snapshots taken at creation.
type Order struct {
	ID              string      `db:"id" json:"id"`
	UserID          string      `db:"user_id" json:"userId"`
	Email           string      `db:"email" json:"email"`
	PrimaryNumber   string      `db:"primary_number" json:"primaryNumber,omitempty"`
	AlternateNumber string      `db:"alternate_number" json:"alternateNumber,omitempty"`
	Address         Address     `json:"address"`
	Items           []OrderItem `json:"items"`
	TotalAmount     float64     `db:"total_amount" json:"totalAmount"`
	Status          OrderStatus `db:"status" json:"status"`
	Msg             string      `db:"msg" json:"msg,omitempty"`
	OTP             string      `db:"otp" json:"-"`
	OTPExpiry       *time.Time  `db:"otp_expiry" json:"-"`
	DeliveryDate    time.Time   `db:"delivery_date" json:"deliveryDate"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updatedAt"`
}

// NewOrder snapshots the user's contact details and the cart into a
// Pending order. The total is computed from the items, never taken
// from the client.
func NewOrder(user *User, items []OrderItem, address Address, alternateNumber string) *Order {
	now := GetCurrentTime()

	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}

	if address.Country == "" {
		address.Country = "India"
	}

	return &Order{
		ID:              GenerateID("ord"),
		UserID:          user.ID,
		Email:           user.Email,
		PrimaryNumber:   user.MobileNumber,
		AlternateNumber: alternateNumber,
		Address:         address,
		Items:           items,
		TotalAmount:     total,
		Status:          OrderStatusPending,
		DeliveryDate:    now.Add(DeliveryEstimate),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// ParseStatus normalizes a status string to its canonical form.
// Comparisons are case-insensitive; "cancelled" and "Cancelled" are the
// same state.
func ParseStatus(s string) (OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return OrderStatusPending, true
	case "shipped":
		return OrderStatusShipped, true
	case "completed":
		return OrderStatusCompleted, true
	case "cancelled":
		return OrderStatusCancelled, true
	default:
		return "", false
	}
}

// IsTerminal reports whether no further transition leaves this status
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransition is the single authority on legal status transitions.
// A repeat of the current status is allowed and treated as a no-op by
// callers.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}

	if from.IsTerminal() {
		return false
	}

	switch from {
	case OrderStatusPending:
		return to == OrderStatusShipped || to == OrderStatusCompleted || to == OrderStatusCancelled
	case OrderStatusShipped:
		return to == OrderStatusCompleted || to == OrderStatusCancelled
	default:
		return false
	}
}

// HasPendingOTP reports whether a completion request is in flight
func (o *Order) HasPendingOTP() bool {
	return o.OTP != ""
}

// OTPExpired reports whether the stored completion code is past its window
func (o *Order) OTPExpired(now time.Time) bool {
	return o.OTPExpiry != nil && now.After(*o.OTPExpiry)
}
