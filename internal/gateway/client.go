package gateway

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// Gateway API paths. The pay path participates in the request checksum, so
// it must match the gateway's contract byte for byte.
const (
	payPath    = "/pg/v1/pay"
	statusPath = "/pg/v1/status"
)

// Gateway result codes.
const (
	CodePaymentSuccess = "PAYMENT_SUCCESS"
	CodePaymentPending = "PAYMENT_PENDING"
	CodePaymentError   = "PAYMENT_ERROR"
)

// Config holds UPI gateway credentials and endpoints.
type Config struct {
	BaseURL     string
	MerchantID  string
	SaltKey     string
	SaltIndex   string
	CallbackURL string
	RedirectURL string
}

// Client signs and ships requests to the UPI payment gateway. All transport
// and decoding failures come back as errors; nothing panics across this
// boundary.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a gateway client with a standard request timeout.
func NewClient(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// InitiateResult carries the gateway-hosted payment page URL.
type InitiateResult struct {
	RedirectURL string
}

// StatusResult is the decoded gateway status envelope for one transaction.
// Amount is in whole rupees.
type StatusResult struct {
	Success           bool
	Code              string
	Message           string
	TransactionID     string
	ProviderReference string
	Amount            int64
}

// Pending reports whether the gateway has not yet settled the transaction.
func (r *StatusResult) Pending() bool {
	return r.Code == CodePaymentPending
}

// Succeeded reports a settled, successful payment.
func (r *StatusResult) Succeeded() bool {
	return r.Code == CodePaymentSuccess
}

type initiatePayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	MobileNumber          string            `json:"mobileNumber"`
	PaymentInstrument     paymentInstrument `json:"paymentInstrument"`
}

type paymentInstrument struct {
	Type string `json:"type"`
}

type initiateResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		InstrumentResponse struct {
			RedirectInfo struct {
				URL string `json:"url"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		Amount                int64  `json:"amount"`
	} `json:"data"`
}

// InitiatePayment registers a transaction with the gateway and returns the
// hosted payment page the browser should be redirected to. amountRupees is
// in major units; the gateway speaks paise.
func (c *Client) InitiatePayment(transactionID string, amountRupees float64, payerPhone, payerUserID string) (*InitiateResult, error) {
	payload := initiatePayload{
		MerchantID:            c.cfg.MerchantID,
		MerchantTransactionID: transactionID,
		MerchantUserID:        payerUserID,
		Amount:                int64(math.Round(amountRupees * 100)),
		RedirectURL:           c.cfg.RedirectURL,
		RedirectMode:          "REDIRECT",
		CallbackURL:           c.cfg.CallbackURL,
		MobileNumber:          payerPhone,
		PaymentInstrument:     paymentInstrument{Type: "PAY_PAGE"},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gateway initiate marshal: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	body, _ := json.Marshal(map[string]string{"request": encoded})

	req, err := http.NewRequest(http.MethodPost, c.cfg.BaseURL+payPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway initiate request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", SignChecksum(encoded+payPath, c.cfg.SaltKey, c.cfg.SaltIndex))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway initiate request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway initiate failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var decoded initiateResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("gateway initiate unmarshal: %w", err)
	}
	if !decoded.Success {
		return nil, fmt.Errorf("gateway initiate rejected: %s (%s)", decoded.Code, decoded.Message)
	}

	redirect := decoded.Data.InstrumentResponse.RedirectInfo.URL
	if redirect == "" {
		return nil, fmt.Errorf("gateway initiate: empty redirect url")
	}

	return &InitiateResult{RedirectURL: redirect}, nil
}

// CheckPaymentStatus polls the gateway for a transaction's state. A non-nil
// error means the state is undeterminable and the caller should retry later;
// it must not be treated as a failed payment.
func (c *Client) CheckPaymentStatus(transactionID string) (*StatusResult, error) {
	path := fmt.Sprintf("%s/%s/%s", statusPath, c.cfg.MerchantID, transactionID)

	req, err := http.NewRequest(http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway status request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", SignChecksum(path, c.cfg.SaltKey, c.cfg.SaltIndex))
	req.Header.Set("X-MERCHANT-ID", c.cfg.MerchantID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway status request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway status failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var decoded statusResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("gateway status unmarshal: %w", err)
	}

	txnID := decoded.Data.MerchantTransactionID
	if txnID == "" {
		txnID = transactionID
	}

	return &StatusResult{
		Success:           decoded.Success,
		Code:              decoded.Code,
		Message:           decoded.Message,
		TransactionID:     txnID,
		ProviderReference: decoded.Data.TransactionID,
		Amount:            decoded.Data.Amount / 100,
	}, nil
}

// SignChecksum computes the gateway checksum for the given material:
// SHA256(material + saltKey) suffixed with "###" and the salt index.
func SignChecksum(material, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(material + saltKey))
	return hex.EncodeToString(sum[:]) + "###" + saltIndex
}

// VerifyCallbackSignature checks a callback's X-VERIFY header against the raw
// response body. A callback that fails this check must never be applied to
// state.
func VerifyCallbackSignature(signatureHeader, rawBody, saltKey string) bool {
	signature, _, _ := strings.Cut(signatureHeader, "###")
	if signature == "" {
		return false
	}
	sum := sha256.Sum256([]byte(rawBody + saltKey))
	return hex.EncodeToString(sum[:]) == signature
}
