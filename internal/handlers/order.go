package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tiffinbox/internal/config"
	"github.com/example/tiffinbox/internal/middleware"
	"github.com/example/tiffinbox/internal/models"
	"github.com/example/tiffinbox/internal/pricing"
	"github.com/example/tiffinbox/internal/services"
	"github.com/example/tiffinbox/internal/utils"
)

// statusRank orders the operational workflow; transitions only move forward.
var statusRank = map[string]int{
	models.OrderStatusPending:   0,
	models.OrderStatusConfirmed: 1,
	models.OrderStatusCooking:   2,
	models.OrderStatusReady:     3,
	models.OrderStatusDelivered: 4,
}

// OrderHandler manages checkout and order endpoints.
type OrderHandler struct {
	db       *gorm.DB
	cfg      *config.Config
	telegram *services.TelegramService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, cfg *config.Config, telegram *services.TelegramService) *OrderHandler {
	return &OrderHandler{db: db, cfg: cfg, telegram: telegram}
}

type orderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

type orderRequest struct {
	RestaurantID  string             `json:"restaurant_id"`
	Items         []orderItemRequest `json:"items"`
	CouponCode    string             `json:"coupon_code"`
	UseWallet     bool               `json:"use_wallet"`
	PaymentMethod string             `json:"payment_method"`
}

// quoteContext is everything resolved while pricing a cart; order creation
// reuses it verbatim so the quoted and charged amounts cannot diverge.
type quoteContext struct {
	restaurant models.Restaurant
	user       models.User
	items      []models.OrderItem
	coupon     *models.Coupon
	breakdown  pricing.Breakdown
}

func (h *OrderHandler) buildQuote(c *fiber.Ctx, req *orderRequest) (*quoteContext, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	restaurantID, err := uuid.Parse(req.RestaurantID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid restaurant_id")
	}
	if len(req.Items) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "cart is empty")
	}

	q := &quoteContext{}

	if err := h.db.First(&q.restaurant, "id = ?", restaurantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "restaurant not found")
		}
		return nil, err
	}
	if !q.restaurant.IsActive {
		return nil, fiber.NewError(fiber.StatusForbidden, "restaurant is not accepting orders")
	}
	if q.restaurant.Suspended() {
		return nil, fiber.NewError(fiber.StatusForbidden, "restaurant is suspended")
	}

	if err := h.db.First(&q.user, "id = ?", userID).Error; err != nil {
		return nil, err
	}

	var subtotal int64
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
		}
		menuItemID, err := uuid.Parse(item.MenuItemID)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "invalid menu_item_id")
		}

		var menuItem models.MenuItem
		if err := h.db.First(&menuItem, "id = ? AND restaurant_id = ?", menuItemID, restaurantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fiber.NewError(fiber.StatusBadRequest, "menu item not found")
			}
			return nil, err
		}
		if !menuItem.IsAvailable {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s is unavailable", menuItem.Name))
		}

		lineTotal := menuItem.Price * int64(item.Quantity)
		subtotal += lineTotal
		q.items = append(q.items, models.OrderItem{
			MenuItemID: &menuItem.ID,
			Name:       menuItem.Name,
			UnitPrice:  menuItem.Price,
			Quantity:   item.Quantity,
			LineTotal:  lineTotal,
		})
	}

	var discount int64
	if req.CouponCode != "" {
		var coupon models.Coupon
		err := h.db.First(&coupon, "restaurant_id = ? AND code = ?", restaurantID, req.CouponCode).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if err == nil {
			q.coupon = &coupon
			discount = pricing.CouponDiscount(&coupon, subtotal)
		}
		if discount == 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "coupon not applicable")
		}
	}

	q.breakdown = pricing.ComputeBreakdown(pricing.Input{
		CartSubtotal:          subtotal,
		BaseDeliveryFee:       q.restaurant.DeliveryFee,
		DiscountAmount:        discount,
		WalletBalance:         q.user.WalletBalance,
		UseWallet:             req.UseWallet,
		FreeDeliveryThreshold: q.restaurant.FreeDeliveryThreshold,
		GSTEnabled:            q.restaurant.GSTEnabled,
	})

	return q, nil
}

// Quote prices a cart without persisting anything. The checkout UI renders
// exactly what CreateOrder will later charge.
func (h *OrderHandler) Quote(c *fiber.Ctx) error {
	var req orderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	q, err := h.buildQuote(c, &req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": q.breakdown})
}

// CreateOrder places an order: snapshots the cart, writes the breakdown
// verbatim, debits the customer wallet, charges the restaurant's tech fee,
// and for UPI orders stamps the gateway transaction id.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req orderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	switch req.PaymentMethod {
	case models.PaymentMethodUPI, models.PaymentMethodCOD, models.PaymentMethodScanOnDelivery:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment method")
	}

	q, err := h.buildQuote(c, &req)
	if err != nil {
		return err
	}

	b := q.breakdown
	now := time.Now()
	shortID := generateShortID()

	order := models.Order{
		RestaurantID:  q.restaurant.ID,
		CustomerID:    q.user.ID,
		ShortID:       shortID,
		InvoiceNumber: fmt.Sprintf("INV-%d-%s", now.UnixMilli(), strings.TrimPrefix(shortID, "TB-")),
		Status:        models.OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
		PlacedAt:      now,

		SubtotalBeforeGST:   b.SubtotalBeforeGST,
		FoodGSTAmount:       b.FoodGSTAmount,
		DeliveryGSTAmount:   b.DeliveryGSTAmount,
		TotalGSTAmount:      b.TotalGSTAmount,
		CGSTAmount:          b.CGSTAmount,
		SGSTAmount:          b.SGSTAmount,
		DeliveryFeeAfterGST: b.DeliveryFeeAfterGST,
		DiscountAmount:      b.DiscountAmount,
		GrandTotal:          b.GrandTotal,
		WalletDeduction:     b.WalletDeduction,
		NetProfit:           q.restaurant.TechFee,

		Items: q.items,
	}
	order.ID = uuid.New()
	if q.coupon != nil {
		order.CouponCode = q.coupon.Code
	}

	if req.PaymentMethod == models.PaymentMethodUPI {
		txnID := services.MakeOrderTransactionID(order.ID)
		pendingStatus := models.PaymentStatusPending
		order.PaymentTransactionID = &txnID
		order.PaymentStatus = &pendingStatus
	}

	// Order row, customer wallet debit, and the restaurant's tech fee commit
	// together or not at all.
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		if err := services.DebitCustomerWallet(tx, q.user.ID, b.WalletDeduction); err != nil {
			if errors.Is(err, services.ErrInsufficientWalletBalance) {
				return fiber.NewError(fiber.StatusConflict, "wallet balance changed, re-quote the order")
			}
			return err
		}
		return services.ChargeTechFee(tx, q.restaurant.ID, q.restaurant.TechFee, order.ShortID)
	})
	if err != nil {
		return err
	}

	if h.telegram != nil {
		go func() {
			if err := h.telegram.NotifyNewOrder(order.ShortID, q.restaurant.Name, order.GrandTotal, order.PaymentMethod); err != nil {
				log.Printf("[Order] Telegram notification failed: %v", err)
			}
		}()
	}

	resp := fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":             order.ID,
			"short_id":       order.ShortID,
			"invoice_number": order.InvoiceNumber,
			"status":         order.Status,
			"placed_at":      order.PlacedAt,
			"breakdown":      b,
		},
	}
	if order.PaymentTransactionID != nil {
		resp["data"].(fiber.Map)["payment_transaction_id"] = *order.PaymentTransactionID
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListOrders returns the caller's orders: their own purchases for customers,
// the restaurant's order book for operators.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	role, _ := middleware.GetCurrentUserRole(c)
	if role == models.RoleRestaurant {
		var user models.User
		if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		if user.RestaurantID == nil {
			return fiber.NewError(fiber.StatusForbidden, "no restaurant attached")
		}
		query = query.Where("restaurant_id = ?", *user.RestaurantID)
	} else {
		query = query.Where("customer_id = ?", userID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns a single order visible to the caller.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.loadVisibleOrder(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": order})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus advances the operational workflow. Transitions are forward
// only; payment confirmation is written by the reconciler, never here.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	order, err := h.loadVisibleOrder(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	currentRank, ok := statusRank[order.Status]
	if !ok {
		return fiber.NewError(fiber.StatusConflict, "order is no longer in the workflow")
	}

	if req.Status == models.OrderStatusCancelled {
		if currentRank > statusRank[models.OrderStatusConfirmed] {
			return fiber.NewError(fiber.StatusConflict, "order can no longer be cancelled")
		}
	} else {
		newRank, ok := statusRank[req.Status]
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid status")
		}
		if newRank <= currentRank {
			return fiber.NewError(fiber.StatusConflict, "status can only move forward")
		}
		if order.PaymentStatus != nil && *order.PaymentStatus != models.PaymentStatusCompleted {
			return fiber.NewError(fiber.StatusConflict, "payment not confirmed yet")
		}
	}

	res := h.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Update("status", req.Status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusConflict, "order status changed concurrently")
	}

	return c.JSON(fiber.Map{"success": true, "status": req.Status})
}

// UPIQRCode renders the scan-on-delivery collection QR for the rider's
// screen. The encoded amount is what is actually collectable after the
// wallet offset.
func (h *OrderHandler) UPIQRCode(c *fiber.Ctx) error {
	order, err := h.loadVisibleOrder(c)
	if err != nil {
		return err
	}

	if order.PaymentMethod != models.PaymentMethodScanOnDelivery {
		return fiber.NewError(fiber.StatusBadRequest, "order is not scan-on-delivery")
	}

	png, err := services.UPIQRCodePNG(
		h.cfg.UPIPayeeVPA,
		h.cfg.UPIPayeeName,
		order.ShortID,
		order.GrandTotal-order.WalletDeduction,
	)
	if err != nil {
		return err
	}

	c.Set("Content-Type", "image/png")
	return c.Send(png)
}

func (h *OrderHandler) loadVisibleOrder(c *fiber.Ctx) (*models.Order, error) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return nil, err
	}

	role, _ := middleware.GetCurrentUserRole(c)
	switch role {
	case models.RoleAdmin:
	case models.RoleRestaurant:
		var user models.User
		if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
			return nil, err
		}
		if user.RestaurantID == nil || *user.RestaurantID != order.RestaurantID {
			return nil, fiber.NewError(fiber.StatusForbidden, "order belongs to another restaurant")
		}
	default:
		if order.CustomerID != userID {
			return nil, fiber.NewError(fiber.StatusNotFound, "order not found")
		}
	}

	return &order, nil
}

// generateShortID returns a human-readable order reference with enough
// randomness that near-simultaneous orders cannot collide on the unique index.
func generateShortID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "TB-" + strings.ToUpper(raw[:12])
}
