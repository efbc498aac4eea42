package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
)

func TestRenderOrderOTP(t *testing.T) {
	html, err := Render(models.EventEmailOrderOTP, models.EmailPayload{
		Name:    "Anas",
		OrderID: "ord-1a2b3c4d",
		OTP:     "482913",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "482913")
	assert.Contains(t, html, "ord-1a2b3c4d")
	assert.Contains(t, html, "Anas")
	assert.Contains(t, html, "A.H Handicraft")
}

func TestRenderOrderConfirmation(t *testing.T) {
	html, err := Render(models.EventEmailOrderConfirmation, models.EmailPayload{
		Name:    "Anas",
		OrderID: "ord-1a2b3c4d",
		Total:   999.5,
	})
	require.NoError(t, err)

	assert.Contains(t, html, "ord-1a2b3c4d")
	assert.Contains(t, html, "999.50")
}

func TestRenderCancellationReason(t *testing.T) {
	withReason, err := Render(models.EventEmailOrderCancelled, models.EmailPayload{
		Name:    "Anas",
		OrderID: "ord-1a2b3c4d",
		Reason:  "out of stock",
	})
	require.NoError(t, err)
	assert.Contains(t, withReason, "out of stock")

	withoutReason, err := Render(models.EventEmailOrderCancelled, models.EmailPayload{
		Name:    "Anas",
		OrderID: "ord-1a2b3c4d",
	})
	require.NoError(t, err)
	assert.NotContains(t, withoutReason, "Reason:")
}

func TestRenderEscapesHTML(t *testing.T) {
	html, err := Render(models.EventEmailUserVerification, models.EmailPayload{
		Name: "<script>alert(1)</script>",
		OTP:  "123456",
	})
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
}

func TestRenderUnknownEventType(t *testing.T) {
	_, err := Render("order_created", models.EmailPayload{})
	assert.Error(t, err)
}

func TestRenderAllEmailEvents(t *testing.T) {
	events := []string{
		models.EventEmailOrderConfirmation,
		models.EventEmailOrderOTP,
		models.EventEmailOrderCancelled,
		models.EventEmailUserVerification,
		models.EventEmailPasswordReset,
	}

	for _, eventType := range events {
		html, err := Render(eventType, models.EmailPayload{Name: "Anas", OrderID: "ord-1", OTP: "123456"})
		require.NoError(t, err, eventType)
		assert.True(t, strings.Contains(html, "Anas"), eventType)

		assert.NotEmpty(t, Subject(eventType, models.EmailPayload{OrderID: "ord-1"}))
	}
}
