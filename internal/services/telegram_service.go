package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// TelegramService sends operational notifications to the platform admin chat.
type TelegramService struct {
	botToken    string
	adminChatID string
	httpClient  *http.Client
}

// NewTelegramService creates a new TelegramService. Empty credentials turn
// every send into a logged no-op.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendToAdmin sends an HTML message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.botToken == "" || s.adminChatID == "" {
		log.Println("[Telegram] Not configured, skipping notification")
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    s.adminChatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// NotifyNewOrder announces a freshly placed order.
func (s *TelegramService) NotifyNewOrder(shortID, restaurantName string, grandTotal int64, paymentMethod string) error {
	text := fmt.Sprintf(
		"<b>New order %s</b>\nRestaurant: %s\nTotal: ₹%d\nPayment: %s",
		shortID, restaurantName, grandTotal, paymentMethod,
	)
	return s.SendToAdmin(text)
}

// NotifyPaymentSuccess announces a settled gateway payment.
func (s *TelegramService) NotifyPaymentSuccess(kind, transactionID string, amount int64) error {
	text := fmt.Sprintf(
		"<b>Payment confirmed</b>\nKind: %s\nTransaction: %s\nAmount: ₹%d",
		kind, transactionID, amount,
	)
	return s.SendToAdmin(text)
}
