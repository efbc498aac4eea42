package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
)

// Every mail shares one outer layout; the per-mail templates only fill
// in the body block.
const layoutHTML = `<!DOCTYPE html>
<html>
  <body style="font-family: Arial, Helvetica, sans-serif; background: #f7f7f7; padding: 24px;">
    <div style="max-width: 520px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 32px;">
      <h2 style="color: #1a1a1a; margin-top: 0;">A.H Handicraft</h2>
      {{block "body" .}}{{end}}
      <p style="color: #888888; font-size: 12px; margin-top: 32px;">
        This is an automated message, please do not reply.
      </p>
    </div>
  </body>
</html>`

var templates = map[string]*template.Template{}

func init() {
	bodies := map[string]string{
		models.EventEmailOrderConfirmation: `{{define "body"}}
<p>Hi {{.Name}},</p>
<p>Thank you for your order! We have received it and will start working on it right away.</p>
<p><b>Order ID:</b> {{.OrderID}}<br><b>Total:</b> ₹{{printf "%.2f" .Total}}</p>
<p>You can track your order from the My Orders page.</p>
{{end}}`,
		models.EventEmailOrderOTP: `{{define "body"}}
<p>Hi {{.Name}},</p>
<p>Use the code below to confirm delivery of order <b>#{{.OrderID}}</b>:</p>
<p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.OTP}}</p>
<p>The code is valid for 10 minutes.</p>
{{end}}`,
		models.EventEmailOrderCancelled: `{{define "body"}}
<p>Hi {{.Name}},</p>
<p>Your order <b>#{{.OrderID}}</b> has been cancelled.</p>
{{if .Reason}}<p><b>Reason:</b> {{.Reason}}</p>{{end}}
<p>If you have any questions, please contact us.</p>
{{end}}`,
		models.EventEmailUserVerification: `{{define "body"}}
<p>Hi {{.Name}},</p>
<p>Welcome to A.H Handicraft! Verify your email with the code below:</p>
<p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.OTP}}</p>
<p>The code is valid for 10 minutes. Unverified accounts are removed automatically.</p>
{{end}}`,
		models.EventEmailPasswordReset: `{{define "body"}}
<p>Hi {{.Name}},</p>
<p>We received a request to reset your password. Use the code below:</p>
<p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.OTP}}</p>
<p>The code is valid for 10 minutes. If you did not request this, you can ignore this email.</p>
{{end}}`,
	}

	for event, body := range bodies {
		t := template.Must(template.New(event).Parse(layoutHTML))
		template.Must(t.Parse(body))
		templates[event] = t
	}
}

// Subject returns the subject line for a notification event type
func Subject(eventType string, p models.EmailPayload) string {
	switch eventType {
	case models.EventEmailOrderConfirmation:
		return fmt.Sprintf("Order Confirmed — #%s", p.OrderID)
	case models.EventEmailOrderOTP:
		return fmt.Sprintf("Order Verification OTP — #%s", p.OrderID)
	case models.EventEmailOrderCancelled:
		return fmt.Sprintf("Order Cancelled — #%s", p.OrderID)
	case models.EventEmailUserVerification:
		return "Verify Your Email — A.H Handicraft"
	case models.EventEmailPasswordReset:
		return "Password Reset Code — A.H Handicraft"
	default:
		return "A.H Handicraft"
	}
}

// Render produces the HTML body for a notification event type
func Render(eventType string, p models.EmailPayload) (string, error) {
	t, ok := templates[eventType]

	if !ok {
		return "", fmt.Errorf("no template for event type %q", eventType)
	}

	var buf bytes.Buffer

	if err := t.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render %s: %w", eventType, err)
	}

	return buf.String(), nil
}
