package models

import (
	"github.com/google/uuid"
)

// MenuItem is a dish offered by a restaurant. Price is in whole rupees.
type MenuItem struct {
	BaseModel
	RestaurantID uuid.UUID `gorm:"type:uuid;index" json:"restaurant_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Price        int64     `json:"price"`
	IsAvailable  bool      `gorm:"default:true" json:"is_available"`
}

// Coupon is a flat-amount discount code scoped to one restaurant.
type Coupon struct {
	BaseModel
	RestaurantID   uuid.UUID `gorm:"type:uuid;index:idx_coupon_code,unique" json:"restaurant_id"`
	Code           string    `gorm:"index:idx_coupon_code,unique" json:"code"`
	DiscountAmount int64     `json:"discount_amount"`
	MinOrderValue  int64     `json:"min_order_value"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
}
