package controllers

import (
	"bytes"
	"html/template"
	"io"
	"net/http"

	apperrors "github.com/Jacob59569/Fast-Api-Stripe/common/errors"
	"github.com/Jacob59569/Fast-Api-Stripe/common/logger"
	"github.com/Jacob59569/Fast-Api-Stripe/models"
	"github.com/Jacob59569/Fast-Api-Stripe/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Stripe webhook bodies are well under this.
const maxWebhookBodyBytes = 65536

const stripeSignatureHeader = "Stripe-Signature"

type PaymentController struct {
	checkout services.CheckoutService
	payments services.PaymentService
	logger   *zap.Logger
}

func NewPaymentController(checkout services.CheckoutService, payments services.PaymentService, logger *zap.Logger) *PaymentController {
	return &PaymentController{checkout: checkout, payments: payments, logger: logger}
}

// CreateCheckoutSession starts a hosted checkout for the posted line items.
func (pc *PaymentController) CreateCheckoutSession(c *gin.Context) {
	var req models.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ErrInvalidInput.Wrap(err))
		return
	}

	sess, err := pc.checkout.CreateCheckoutSession(c.Request.Context(), req.Items, nil)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.CheckoutSessionResponse{CheckoutURL: sess.URL})
}

// StripeWebhook must read the body untouched; the signature covers the raw bytes.
func (pc *PaymentController) StripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.FromContext(c.Request.Context(), pc.logger).Warn("Failed to read webhook body", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, apperrors.New(http.StatusRequestEntityTooLarge, "request body too large", nil))
		return
	}

	res, err := pc.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader(stripeSignatureHeader))
	if err != nil {
		_ = c.Error(err)
		return
	}

	switch res.Outcome {
	case services.WebhookDuplicate:
		if res.Payment != nil {
			logger.FromContext(c.Request.Context(), pc.logger).Info("Duplicate webhook acknowledged",
				zap.String("event_id", res.EventID),
				zap.String("payment_id", res.Payment.ID.String()),
			)
		}
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
	case services.WebhookIgnored:
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}

func (pc *PaymentController) ListPayments(c *gin.Context) {
	payments, err := pc.payments.ListPayments(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

var paymentsTable = template.Must(template.New("payments").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Payments</title></head>
<body>
<h1>Payments</h1>
<table border="1">
<tr><th>Session ID</th><th>Email</th><th>Amount</th><th>Created</th></tr>
{{- range .}}
<tr><td>{{.SessionID}}</td><td>{{.CustomerEmail}}</td><td>{{.DisplayAmount}}</td><td>{{.CreatedAt.Format "2006-01-02 15:04:05"}}</td></tr>
{{- else}}
<tr><td colspan="4">No payments yet</td></tr>
{{- end}}
</table>
</body>
</html>
`))

// ListPaymentsHTML renders the same listing as a plain table.
func (pc *PaymentController) ListPaymentsHTML(c *gin.Context) {
	payments, err := pc.payments.ListPayments(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	var buf bytes.Buffer
	if err := paymentsTable.Execute(&buf, payments); err != nil {
		_ = c.Error(apperrors.ErrInternalServer.Wrap(err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
