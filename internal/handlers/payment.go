package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/tiffinbox/internal/gateway"
	"github.com/example/tiffinbox/internal/services"
)

// MaxInitiateAmount is the largest single charge the gateway accepts, in
// whole rupees.
const MaxInitiateAmount = 100000

// PaymentGateway is the slice of the gateway client the payment endpoints
// use. Narrowed to an interface so tests can stub the upstream.
type PaymentGateway interface {
	InitiatePayment(transactionID string, amountRupees float64, payerPhone, payerUserID string) (*gateway.InitiateResult, error)
	CheckPaymentStatus(transactionID string) (*gateway.StatusResult, error)
}

// PaymentHandler exposes payment initiation, the gateway callback, and the
// client-side polling endpoint.
type PaymentHandler struct {
	gateway    PaymentGateway
	reconciler *services.Reconciler
	saltKey    string
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(gw PaymentGateway, reconciler *services.Reconciler, saltKey string) *PaymentHandler {
	return &PaymentHandler{gateway: gw, reconciler: reconciler, saltKey: saltKey}
}

type initiateRequest struct {
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transactionId"`
	MobileNumber  string  `json:"mobileNumber"`
	UserID        string  `json:"userId"`
	Type          string  `json:"type"`
}

// Initiate starts a gateway transaction and returns the hosted payment page
// URL the browser should be redirected to.
func (h *PaymentHandler) Initiate(c *fiber.Ctx) error {
	var req initiateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Amount <= 0 || req.Amount > MaxInitiateAmount {
		return fiber.NewError(fiber.StatusBadRequest, "amount out of range")
	}
	if strings.TrimSpace(req.TransactionID) == "" || strings.TrimSpace(req.MobileNumber) == "" || strings.TrimSpace(req.UserID) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}
	if req.Type != "ORDER" && req.Type != "RECHARGE" {
		return fiber.NewError(fiber.StatusBadRequest, "type must be ORDER or RECHARGE")
	}

	result, err := h.gateway.InitiatePayment(req.TransactionID, req.Amount, req.MobileNumber, req.UserID)
	if err != nil {
		log.Printf("[Payment] initiate failed for %s: %v", req.TransactionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "payment gateway unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"redirectUrl":   result.RedirectURL,
		"transactionId": req.TransactionID,
	})
}

type callbackRequest struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	Code                  string `json:"code"`
	Status                string `json:"status"`
	TransactionID         string `json:"transactionId"`
	Amount                int64  `json:"amount"`
}

// Callback receives the gateway's asynchronous server-to-server notification.
// The signature is checked against the raw body before anything is applied;
// business-level failures still acknowledge with HTTP 200 so the gateway does
// not retry-storm.
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	rawBody := c.Body()

	if !gateway.VerifyCallbackSignature(c.Get("X-VERIFY"), string(rawBody), h.saltKey) {
		log.Printf("[Payment] callback signature verification failed, possible spoofing attempt")
		return fiber.NewError(fiber.StatusBadRequest, "invalid signature")
	}

	var req callbackRequest
	if err := json.Unmarshal(rawBody, &req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result := services.GatewayResult{
		TransactionID:     req.MerchantTransactionID,
		Code:              normalizeCallbackCode(req.Code, req.Status),
		ProviderReference: req.TransactionID,
		Amount:            req.Amount / 100,
	}

	outcome, err := h.reconciler.Reconcile(c.Context(), result)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTransactionFormat):
			return fiber.NewError(fiber.StatusBadRequest, "unknown transaction id format")
		case errors.Is(err, services.ErrTransactionNotFound):
			log.Printf("[Payment] callback for unknown transaction %s", req.MerchantTransactionID)
			return fiber.NewError(fiber.StatusNotFound, "transaction not found")
		default:
			// Persistence failure: the gateway will retry and the
			// idempotency gate makes the retry safe.
			return err
		}
	}

	switch {
	case outcome.Pending:
		return c.JSON(fiber.Map{"success": false, "message": "payment pending"})
	case outcome.Failed:
		return c.JSON(fiber.Map{"success": false, "message": "payment failed"})
	default:
		return c.JSON(fiber.Map{"success": true, "message": "payment reconciled"})
	}
}

// Verify is the client-side polling endpoint: it re-checks the gateway and
// feeds the result through the same reconciler the callback uses.
func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	txnID := strings.TrimSpace(c.Query("txnId"))
	if txnID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "txnId is required")
	}

	status, err := h.gateway.CheckPaymentStatus(txnID)
	if err != nil {
		// Undeterminable, not failed: tell the client to poll again.
		log.Printf("[Payment] status check undeterminable for %s: %v", txnID, err)
		return c.JSON(fiber.Map{
			"success": false,
			"pending": true,
			"error":   "payment status undeterminable",
		})
	}

	outcome, err := h.reconciler.Reconcile(c.Context(), services.ResultFromStatus(status))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTransactionFormat):
			return fiber.NewError(fiber.StatusBadRequest, "unknown transaction id format")
		case errors.Is(err, services.ErrTransactionNotFound):
			return fiber.NewError(fiber.StatusNotFound, "transaction not found")
		default:
			return err
		}
	}

	switch {
	case outcome.Pending:
		return c.JSON(fiber.Map{"success": false, "pending": true, "transactionId": txnID})
	case outcome.Failed:
		return c.JSON(fiber.Map{"success": false, "error": "payment failed", "transactionId": txnID})
	default:
		return c.JSON(fiber.Map{
			"success":       true,
			"transactionId": txnID,
			"amount":        status.Amount,
		})
	}
}

// normalizeCallbackCode maps the two envelope dialects the gateway emits
// (code-based and status-based) onto the code constants.
func normalizeCallbackCode(code, status string) string {
	if code != "" {
		return code
	}
	switch strings.ToLower(status) {
	case "success":
		return gateway.CodePaymentSuccess
	case "pending":
		return gateway.CodePaymentPending
	default:
		return gateway.CodePaymentError
	}
}
