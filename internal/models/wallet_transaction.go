package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet transaction kinds.
const (
	WalletTxnTypeRecharge     = "recharge"
	WalletTxnTypeFeeDeduction = "fee_deduction"
)

// Wallet transaction statuses. Pending is the only non-terminal state; a
// transaction transitions out of it exactly once.
const (
	WalletTxnStatusPending  = "pending"
	WalletTxnStatusApproved = "approved"
	WalletTxnStatusRejected = "rejected"
)

// WalletTransaction is one entry in a restaurant's credit ledger: a recharge
// attempt via the payment gateway, or a per-order tech-fee deduction.
// MerchantTransactionID is our composite gateway id stamped at initiation;
// ProviderReference is the gateway's own id recorded at reconciliation.
type WalletTransaction struct {
	BaseModel
	RestaurantID          uuid.UUID  `gorm:"type:uuid;index" json:"restaurant_id"`
	Amount                int64      `json:"amount"`
	Type                  string     `json:"type"`
	Status                string     `gorm:"default:pending" json:"status"`
	MerchantTransactionID *string    `gorm:"index" json:"merchant_transaction_id,omitempty"`
	ProviderReference     string     `json:"provider_reference,omitempty"`
	Notes                 string     `json:"notes"`
	ApprovedAt            *time.Time `json:"approved_at,omitempty"`
}
