package models

import (
	"github.com/google/uuid"
)

// Restaurant is a tenant of the storefront. CreditBalance is the platform
// wallet: recharges credit it, per-order tech fees debit it. The balance may
// go negative down to MinBalanceLimit before the restaurant stops accepting
// new orders.
type Restaurant struct {
	BaseModel
	Name                  string     `json:"name"`
	Address               string     `json:"address"`
	Phone                 string     `json:"phone"`
	OwnerID               *uuid.UUID `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	GSTEnabled            bool       `json:"gst_enabled"`
	DeliveryFee           int64      `json:"delivery_fee"`
	FreeDeliveryThreshold *int64     `json:"free_delivery_threshold,omitempty"`
	TechFee               int64      `json:"tech_fee"`
	CreditBalance         int64      `json:"credit_balance"`
	MinBalanceLimit       int64      `json:"min_balance_limit"`
	IsActive              bool       `gorm:"default:true" json:"is_active"`
	MenuItems             []MenuItem `json:"menu_items,omitempty"`
}

// Suspended reports whether the restaurant has exhausted its credit and may
// no longer accept orders.
func (r *Restaurant) Suspended() bool {
	return r.CreditBalance <= r.MinBalanceLimit
}
