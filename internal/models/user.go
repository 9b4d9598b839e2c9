package models

import (
	"github.com/google/uuid"
)

// User roles.
const (
	RoleCustomer   = "customer"
	RoleRestaurant = "restaurant"
	RoleAdmin      = "admin"
)

// User represents an authenticated account: a customer, a restaurant
// operator, or a super admin. WalletBalance is the customer's store credit in
// whole rupees, spent as an offset against an order's grand total at
// checkout.
type User struct {
	BaseModel
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Phone         string     `gorm:"uniqueIndex" json:"phone"`
	PasswordHash  string     `json:"-"`
	Role          string     `gorm:"default:customer" json:"role"`
	RestaurantID  *uuid.UUID `gorm:"type:uuid;index" json:"restaurant_id,omitempty"`
	WalletBalance int64      `json:"wallet_balance"`
	Orders        []Order    `gorm:"foreignKey:CustomerID" json:"orders,omitempty"`
}
