package models

import (
	"time"

	"github.com/google/uuid"
)

// Operational order statuses, restaurant-driven and strictly monotonic.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCooking   = "cooking"
	OrderStatusReady     = "ready"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Payment methods.
const (
	PaymentMethodUPI            = "upi"
	PaymentMethodCOD            = "cod"
	PaymentMethodScanOnDelivery = "scan_on_delivery"
)

// Payment statuses for prepaid orders. Set exactly once by the reconciler.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Order is one customer purchase. The monetary breakdown columns are written
// verbatim from the pricing engine at creation time and never recomputed; all
// amounts are whole rupees.
type Order struct {
	BaseModel
	ShortID       string    `gorm:"uniqueIndex" json:"short_id"`
	InvoiceNumber string    `gorm:"uniqueIndex" json:"invoice_number"`
	RestaurantID  uuid.UUID `gorm:"type:uuid;index" json:"restaurant_id"`
	CustomerID    uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	Status        string    `gorm:"default:pending" json:"status"`
	PaymentMethod string    `json:"payment_method"`
	PlacedAt      time.Time `json:"placed_at"`

	SubtotalBeforeGST   int64  `json:"subtotal_before_gst"`
	FoodGSTAmount       int64  `json:"food_gst_amount"`
	DeliveryGSTAmount   int64  `json:"delivery_gst_amount"`
	TotalGSTAmount      int64  `json:"total_gst_amount"`
	CGSTAmount          int64  `json:"cgst_amount"`
	SGSTAmount          int64  `json:"sgst_amount"`
	DeliveryFeeAfterGST int64  `json:"delivery_fee_after_gst"`
	DiscountAmount      int64  `json:"discount_amount"`
	CouponCode          string `json:"coupon_code"`
	GrandTotal          int64  `json:"grand_total"`
	WalletDeduction     int64  `json:"wallet_deduction"`
	NetProfit           int64  `json:"net_profit"`

	PaymentTransactionID *string `gorm:"index" json:"payment_transaction_id,omitempty"`
	PaymentStatus        *string `json:"payment_status,omitempty"`
	ProviderReference    string  `json:"provider_reference,omitempty"`

	Items []OrderItem `json:"items,omitempty"`
}

// OrderItem snapshots a cart line; name and unit price are immutable copies
// of the menu item at the moment the order was placed.
type OrderItem struct {
	BaseModel
	OrderID    uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	MenuItemID *uuid.UUID `gorm:"type:uuid" json:"menu_item_id,omitempty"`
	Name       string     `json:"name"`
	UnitPrice  int64      `json:"unit_price"`
	Quantity   int        `json:"quantity"`
	LineTotal  int64      `json:"line_total"`
}
