package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tiffinbox/internal/gateway"
	"github.com/example/tiffinbox/internal/models"
	"github.com/example/tiffinbox/internal/services"
)

const testSaltKey = "handler-test-salt"

// stubGateway satisfies PaymentGateway without any network.
type stubGateway struct {
	initiateResult *gateway.InitiateResult
	initiateErr    error
	statusResult   *gateway.StatusResult
	statusErr      error
}

func (s *stubGateway) InitiatePayment(string, float64, string, string) (*gateway.InitiateResult, error) {
	return s.initiateResult, s.initiateErr
}

func (s *stubGateway) CheckPaymentStatus(string) (*gateway.StatusResult, error) {
	return s.statusResult, s.statusErr
}

// memStore is a minimal in-memory ReconcilerStore with the same conditional
// semantics as the database implementation.
type memStore struct {
	orders        map[string]string
	wallets       map[string]string
	walletAmounts map[string]int64
	balance       int64
}

func newMemStore() *memStore {
	return &memStore{
		orders:        map[string]string{},
		wallets:       map[string]string{},
		walletAmounts: map[string]int64{},
	}
}

func (m *memStore) CompleteOrderPayment(_ context.Context, txnID, _ string) (bool, error) {
	if m.orders[txnID] != models.PaymentStatusPending {
		return false, nil
	}
	m.orders[txnID] = models.PaymentStatusCompleted
	return true, nil
}

func (m *memStore) FailOrderPayment(_ context.Context, txnID string) (bool, error) {
	if m.orders[txnID] != models.PaymentStatusPending {
		return false, nil
	}
	m.orders[txnID] = models.PaymentStatusFailed
	return true, nil
}

func (m *memStore) ApproveWalletRecharge(_ context.Context, txnID, _ string) (bool, error) {
	if m.wallets[txnID] != models.WalletTxnStatusPending {
		return false, nil
	}
	m.wallets[txnID] = models.WalletTxnStatusApproved
	m.balance += m.walletAmounts[txnID]
	return true, nil
}

func (m *memStore) RejectWalletRecharge(_ context.Context, txnID string) (bool, error) {
	if m.wallets[txnID] != models.WalletTxnStatusPending {
		return false, nil
	}
	m.wallets[txnID] = models.WalletTxnStatusRejected
	return true, nil
}

func (m *memStore) OrderPaymentStatus(_ context.Context, txnID string) (string, error) {
	status, ok := m.orders[txnID]
	if !ok {
		return "", services.ErrTransactionNotFound
	}
	return status, nil
}

func (m *memStore) WalletRechargeStatus(_ context.Context, txnID string) (string, error) {
	status, ok := m.wallets[txnID]
	if !ok {
		return "", services.ErrTransactionNotFound
	}
	return status, nil
}

func newTestApp(gw PaymentGateway, store services.ReconcilerStore) *fiber.App {
	app := fiber.New()
	h := NewPaymentHandler(gw, services.NewReconciler(store, nil), testSaltKey)
	app.Post("/api/payments/initiate", h.Initiate)
	app.Post("/api/payments/callback", h.Callback)
	app.Get("/api/payments/verify", h.Verify)
	return app
}

func postCallback(t *testing.T, app *fiber.App, body map[string]any, sign bool) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if sign {
		req.Header.Set("X-VERIFY", gateway.SignChecksum(string(raw), testSaltKey, "1"))
	} else {
		req.Header.Set("X-VERIFY", gateway.SignChecksum(string(raw)+"tampered", testSaltKey, "1"))
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

func TestInitiate_Validation(t *testing.T) {
	app := newTestApp(&stubGateway{}, newMemStore())

	tests := []struct {
		name string
		body map[string]any
	}{
		{"zero amount", map[string]any{"amount": 0, "transactionId": "ORDER-a-1", "mobileNumber": "9876543210", "userId": "u1", "type": "ORDER"}},
		{"amount too large", map[string]any{"amount": 100001, "transactionId": "ORDER-a-1", "mobileNumber": "9876543210", "userId": "u1", "type": "ORDER"}},
		{"missing transaction id", map[string]any{"amount": 100, "mobileNumber": "9876543210", "userId": "u1", "type": "ORDER"}},
		{"bad type", map[string]any{"amount": 100, "transactionId": "ORDER-a-1", "mobileNumber": "9876543210", "userId": "u1", "type": "REFUND"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, _ := json.Marshal(tc.body)
			req := httptest.NewRequest(http.MethodPost, "/api/payments/initiate", bytes.NewReader(raw))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestInitiate_Success(t *testing.T) {
	app := newTestApp(&stubGateway{
		initiateResult: &gateway.InitiateResult{RedirectURL: "https://pay.example.com/x"},
	}, newMemStore())

	raw, _ := json.Marshal(map[string]any{
		"amount":        569,
		"transactionId": "ORDER-a-1",
		"mobileNumber":  "9876543210",
		"userId":        "u1",
		"type":          "ORDER",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/initiate", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	decoded := decodeJSON(t, resp)
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "https://pay.example.com/x", decoded["redirectUrl"])
	assert.Equal(t, "ORDER-a-1", decoded["transactionId"])
}

func TestInitiate_UpstreamUnavailable(t *testing.T) {
	app := newTestApp(&stubGateway{initiateErr: errors.New("connection refused")}, newMemStore())

	raw, _ := json.Marshal(map[string]any{
		"amount":        569,
		"transactionId": "ORDER-a-1",
		"mobileNumber":  "9876543210",
		"userId":        "u1",
		"type":          "ORDER",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/initiate", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	decoded := decodeJSON(t, resp)
	assert.Equal(t, false, decoded["success"])
}

func TestCallback_InvalidSignatureRejected(t *testing.T) {
	store := newMemStore()
	txnID := services.MakeOrderTransactionID(uuid.New())
	store.orders[txnID] = models.PaymentStatusPending

	app := newTestApp(&stubGateway{}, store)

	resp := postCallback(t, app, map[string]any{
		"merchantTransactionId": txnID,
		"code":                  gateway.CodePaymentSuccess,
		"amount":                56900,
	}, false)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	// Nothing applied.
	assert.Equal(t, models.PaymentStatusPending, store.orders[txnID])
}

func TestCallback_DuplicateDeliveryAcknowledged(t *testing.T) {
	store := newMemStore()
	txnID := services.MakeRechargeTransactionID(uuid.New())
	store.wallets[txnID] = models.WalletTxnStatusPending
	store.walletAmounts[txnID] = 500

	app := newTestApp(&stubGateway{}, store)
	body := map[string]any{
		"merchantTransactionId": txnID,
		"status":                "success",
		"transactionId":         "T777",
		"amount":                50000,
	}

	first := postCallback(t, app, body, true)
	require.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, int64(500), store.balance)

	second := postCallback(t, app, body, true)
	require.Equal(t, http.StatusOK, second.StatusCode)
	decoded := decodeJSON(t, second)
	assert.Equal(t, true, decoded["success"])
	// Credited exactly once.
	assert.Equal(t, int64(500), store.balance)
}

func TestCallback_BusinessFailureStillAcknowledged(t *testing.T) {
	store := newMemStore()
	txnID := services.MakeOrderTransactionID(uuid.New())
	store.orders[txnID] = models.PaymentStatusPending

	app := newTestApp(&stubGateway{}, store)

	resp := postCallback(t, app, map[string]any{
		"merchantTransactionId": txnID,
		"code":                  gateway.CodePaymentError,
		"amount":                56900,
	}, true)

	// Business failure, transport success: HTTP 200 so the gateway stops
	// retrying.
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decoded := decodeJSON(t, resp)
	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, models.PaymentStatusFailed, store.orders[txnID])
}

func TestCallback_UnknownTransaction(t *testing.T) {
	app := newTestApp(&stubGateway{}, newMemStore())

	resp := postCallback(t, app, map[string]any{
		"merchantTransactionId": services.MakeOrderTransactionID(uuid.New()),
		"code":                  gateway.CodePaymentSuccess,
		"amount":                100,
	}, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postCallback(t, app, map[string]any{
		"merchantTransactionId": "REFUND-nope-1",
		"code":                  gateway.CodePaymentSuccess,
		"amount":                100,
	}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerify_StatusFlow(t *testing.T) {
	store := newMemStore()
	txnID := services.MakeOrderTransactionID(uuid.New())
	store.orders[txnID] = models.PaymentStatusPending

	gw := &stubGateway{
		statusResult: &gateway.StatusResult{
			Success:       true,
			Code:          gateway.CodePaymentSuccess,
			TransactionID: txnID,
			Amount:        569,
		},
	}
	app := newTestApp(gw, store)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/verify?txnId="+txnID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	decoded := decodeJSON(t, resp)
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, txnID, decoded["transactionId"])
	assert.Equal(t, models.PaymentStatusCompleted, store.orders[txnID])
}

func TestVerify_UndeterminableIsPending(t *testing.T) {
	store := newMemStore()
	txnID := services.MakeOrderTransactionID(uuid.New())
	store.orders[txnID] = models.PaymentStatusPending

	app := newTestApp(&stubGateway{statusErr: errors.New("timeout")}, store)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/verify?txnId="+txnID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	decoded := decodeJSON(t, resp)
	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, true, decoded["pending"])
	// A timeout is not a failure: the record stays pending.
	assert.Equal(t, models.PaymentStatusPending, store.orders[txnID])
}

func TestVerify_MissingTxnID(t *testing.T) {
	app := newTestApp(&stubGateway{}, newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/api/payments/verify", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
