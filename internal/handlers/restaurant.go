package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tiffinbox/internal/models"
	"github.com/example/tiffinbox/internal/utils"
)

// RestaurantHandler manages the public browse surface and the super-admin
// restaurant console.
type RestaurantHandler struct {
	db *gorm.DB
}

// NewRestaurantHandler constructs RestaurantHandler.
func NewRestaurantHandler(db *gorm.DB) *RestaurantHandler {
	return &RestaurantHandler{db: db}
}

// ListRestaurants returns active restaurants for customer browsing.
func (h *RestaurantHandler) ListRestaurants(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Restaurant{}).Where("is_active = ?", true)

	if search := strings.TrimSpace(c.Query("q")); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var restaurants []models.Restaurant
	if err := query.
		Order("name asc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&restaurants).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    restaurants,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetRestaurant returns one restaurant with its menu.
func (h *RestaurantHandler) GetRestaurant(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var restaurant models.Restaurant
	if err := h.db.Preload("MenuItems", "is_available = ?", true).
		First(&restaurant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "restaurant not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": restaurant})
}

type restaurantRequest struct {
	Name                  string `json:"name"`
	Address               string `json:"address"`
	Phone                 string `json:"phone"`
	OwnerID               string `json:"owner_id"`
	GSTEnabled            *bool  `json:"gst_enabled"`
	DeliveryFee           *int64 `json:"delivery_fee"`
	FreeDeliveryThreshold *int64 `json:"free_delivery_threshold"`
	TechFee               *int64 `json:"tech_fee"`
	MinBalanceLimit       *int64 `json:"min_balance_limit"`
	IsActive              *bool  `json:"is_active"`
}

// CreateRestaurant onboards a new tenant (admin only).
func (h *RestaurantHandler) CreateRestaurant(c *fiber.Ctx) error {
	var req restaurantRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	restaurant := models.Restaurant{
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		IsActive: true,
	}
	if req.OwnerID != "" {
		if ownerID, err := uuid.Parse(req.OwnerID); err == nil {
			restaurant.OwnerID = &ownerID
		}
	}
	if req.GSTEnabled != nil {
		restaurant.GSTEnabled = *req.GSTEnabled
	}
	if req.DeliveryFee != nil {
		restaurant.DeliveryFee = *req.DeliveryFee
	}
	restaurant.FreeDeliveryThreshold = req.FreeDeliveryThreshold
	if req.TechFee != nil {
		restaurant.TechFee = *req.TechFee
	}
	if req.MinBalanceLimit != nil {
		restaurant.MinBalanceLimit = *req.MinBalanceLimit
	}

	if err := h.db.Create(&restaurant).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": restaurant})
}

// UpdateRestaurant adjusts tenant configuration (admin only). The credit
// balance is never writable here; only the wallet ledger moves it.
func (h *RestaurantHandler) UpdateRestaurant(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req restaurantRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]any{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Address != "" {
		updates["address"] = req.Address
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.GSTEnabled != nil {
		updates["gst_enabled"] = *req.GSTEnabled
	}
	if req.DeliveryFee != nil {
		updates["delivery_fee"] = *req.DeliveryFee
	}
	if req.FreeDeliveryThreshold != nil {
		updates["free_delivery_threshold"] = *req.FreeDeliveryThreshold
	}
	if req.TechFee != nil {
		updates["tech_fee"] = *req.TechFee
	}
	if req.MinBalanceLimit != nil {
		updates["min_balance_limit"] = *req.MinBalanceLimit
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "nothing to update")
	}

	res := h.db.Model(&models.Restaurant{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "restaurant not found")
	}

	return c.JSON(fiber.Map{"success": true})
}
