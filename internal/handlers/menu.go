package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tiffinbox/internal/middleware"
	"github.com/example/tiffinbox/internal/models"
)

// MenuHandler manages a restaurant's menu and coupons.
type MenuHandler struct {
	db *gorm.DB
}

// NewMenuHandler constructs MenuHandler.
func NewMenuHandler(db *gorm.DB) *MenuHandler {
	return &MenuHandler{db: db}
}

// ListMenu returns a restaurant's menu items.
func (h *MenuHandler) ListMenu(c *fiber.Ctx) error {
	restaurantID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var items []models.MenuItem
	if err := h.db.
		Where("restaurant_id = ?", restaurantID).
		Order("category asc, name asc").
		Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": items})
}

type menuItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       *int64 `json:"price"`
	IsAvailable *bool  `json:"is_available"`
}

// CreateMenuItem adds a dish to the caller's restaurant.
func (h *MenuHandler) CreateMenuItem(c *fiber.Ctx) error {
	restaurantID, err := h.authorizeRestaurant(c)
	if err != nil {
		return err
	}

	var req menuItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" || req.Price == nil || *req.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "name and non-negative price are required")
	}

	item := models.MenuItem{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Price:        *req.Price,
		IsAvailable:  true,
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := h.db.Create(&item).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

// UpdateMenuItem edits a dish.
func (h *MenuHandler) UpdateMenuItem(c *fiber.Ctx) error {
	restaurantID, err := h.authorizeRestaurant(c)
	if err != nil {
		return err
	}

	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid item id")
	}

	var req menuItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]any{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "price must be non-negative")
		}
		updates["price"] = *req.Price
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	res := h.db.Model(&models.MenuItem{}).
		Where("id = ? AND restaurant_id = ?", itemID, restaurantID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "menu item not found")
	}

	return c.JSON(fiber.Map{"success": true})
}

// DeleteMenuItem removes a dish.
func (h *MenuHandler) DeleteMenuItem(c *fiber.Ctx) error {
	restaurantID, err := h.authorizeRestaurant(c)
	if err != nil {
		return err
	}

	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid item id")
	}

	res := h.db.Where("id = ? AND restaurant_id = ?", itemID, restaurantID).
		Delete(&models.MenuItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "menu item not found")
	}

	return c.JSON(fiber.Map{"success": true})
}

// ListCoupons returns the restaurant's coupons.
func (h *MenuHandler) ListCoupons(c *fiber.Ctx) error {
	restaurantID, err := h.authorizeRestaurant(c)
	if err != nil {
		return err
	}

	var coupons []models.Coupon
	if err := h.db.
		Where("restaurant_id = ?", restaurantID).
		Order("created_at desc").
		Find(&coupons).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": coupons})
}

type couponRequest struct {
	Code           string `json:"code"`
	DiscountAmount int64  `json:"discount_amount"`
	MinOrderValue  int64  `json:"min_order_value"`
	IsActive       *bool  `json:"is_active"`
}

// CreateCoupon adds a flat-amount discount code.
func (h *MenuHandler) CreateCoupon(c *fiber.Ctx) error {
	restaurantID, err := h.authorizeRestaurant(c)
	if err != nil {
		return err
	}

	var req couponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Code) == "" || req.DiscountAmount <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "code and positive discount_amount are required")
	}

	coupon := models.Coupon{
		RestaurantID:   restaurantID,
		Code:           strings.ToUpper(strings.TrimSpace(req.Code)),
		DiscountAmount: req.DiscountAmount,
		MinOrderValue:  req.MinOrderValue,
		IsActive:       true,
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := h.db.Create(&coupon).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": coupon})
}

// UpdateCoupon toggles or edits a coupon.
func (h *MenuHandler) UpdateCoupon(c *fiber.Ctx) error {
	restaurantID, err := h.authorizeRestaurant(c)
	if err != nil {
		return err
	}

	couponID, err := uuid.Parse(c.Params("couponId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid coupon id")
	}

	var req couponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]any{}
	if req.DiscountAmount > 0 {
		updates["discount_amount"] = req.DiscountAmount
	}
	if req.MinOrderValue > 0 {
		updates["min_order_value"] = req.MinOrderValue
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	res := h.db.Model(&models.Coupon{}).
		Where("id = ? AND restaurant_id = ?", couponID, restaurantID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "coupon not found")
	}

	return c.JSON(fiber.Map{"success": true})
}

// authorizeRestaurant checks that the caller operates the restaurant in the
// path (admins pass for any restaurant).
func (h *MenuHandler) authorizeRestaurant(c *fiber.Ctx) (uuid.UUID, error) {
	restaurantID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	role, _ := middleware.GetCurrentUserRole(c)
	if role == models.RoleAdmin {
		return restaurantID, nil
	}

	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}
		return uuid.Nil, err
	}
	if user.RestaurantID == nil || *user.RestaurantID != restaurantID {
		return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "restaurant belongs to another operator")
	}

	return restaurantID, nil
}
