package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tiffinbox/internal/middleware"
	"github.com/example/tiffinbox/internal/models"
	"github.com/example/tiffinbox/internal/services"
	"github.com/example/tiffinbox/internal/utils"
)

// WalletHandler manages restaurant credit-wallet endpoints.
type WalletHandler struct {
	db *gorm.DB
}

// NewWalletHandler constructs WalletHandler.
func NewWalletHandler(db *gorm.DB) *WalletHandler {
	return &WalletHandler{db: db}
}

type rechargeRequest struct {
	Amount int64  `json:"amount"`
	Notes  string `json:"notes"`
}

// RequestRecharge creates a pending wallet transaction and hands back the
// merchant transaction id the client must use when initiating the gateway
// payment. The record exists before the gateway is ever invoked.
func (h *WalletHandler) RequestRecharge(c *fiber.Ctx) error {
	restaurantID, err := h.currentRestaurantID(c)
	if err != nil {
		return err
	}

	var req rechargeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Amount <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "amount must be positive")
	}

	txn := models.WalletTransaction{
		RestaurantID: restaurantID,
		Amount:       req.Amount,
		Type:         models.WalletTxnTypeRecharge,
		Status:       models.WalletTxnStatusPending,
		Notes:        req.Notes,
	}
	txn.ID = uuid.New()

	merchantTxnID := services.MakeRechargeTransactionID(txn.ID)
	txn.MerchantTransactionID = &merchantTxnID

	if err := h.db.Create(&txn).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":                      txn.ID,
			"amount":                  txn.Amount,
			"status":                  txn.Status,
			"merchant_transaction_id": merchantTxnID,
		},
	})
}

// ListTransactions returns the restaurant's credit ledger.
func (h *WalletHandler) ListTransactions(c *fiber.Ctx) error {
	restaurantID, err := h.currentRestaurantID(c)
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.WalletTransaction{}).Where("restaurant_id = ?", restaurantID)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if txnType := c.Query("type"); txnType != "" {
		query = query.Where("type = ?", txnType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var txns []models.WalletTransaction
	if err := query.
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&txns).Error; err != nil {
		return err
	}

	var restaurant models.Restaurant
	if err := h.db.First(&restaurant, "id = ?", restaurantID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"data":           txns,
		"credit_balance": restaurant.CreditBalance,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

func (h *WalletHandler) currentRestaurantID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return uuid.Nil, err
	}
	if user.RestaurantID == nil {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "no restaurant attached")
	}
	return *user.RestaurantID, nil
}
