package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tiffinbox/internal/models"
)

// ErrInsufficientWalletBalance is returned when a wallet debit would take the
// customer's balance below zero. The quoted deduction was computed from a
// balance that has since changed; the caller should re-quote.
var ErrInsufficientWalletBalance = errors.New("insufficient wallet balance")

// ChargeTechFee debits the restaurant's credit balance by its flat per-order
// platform fee and records the matching ledger row. It runs on the caller's
// transaction so the fee, its ledger row, and the order they belong to commit
// or roll back together. A zero fee is a no-op.
func ChargeTechFee(tx *gorm.DB, restaurantID uuid.UUID, fee int64, orderShortID string) error {
	if fee <= 0 {
		return nil
	}

	if err := tx.Model(&models.Restaurant{}).
		Where("id = ?", restaurantID).
		Update("credit_balance", gorm.Expr("credit_balance - ?", fee)).Error; err != nil {
		return err
	}

	now := time.Now()
	entry := models.WalletTransaction{
		RestaurantID: restaurantID,
		Amount:       fee,
		Type:         models.WalletTxnTypeFeeDeduction,
		Status:       models.WalletTxnStatusApproved,
		Notes:        fmt.Sprintf("tech fee for order %s", orderShortID),
		ApprovedAt:   &now,
	}
	return tx.Create(&entry).Error
}

// DebitCustomerWallet spends store credit against an order. The decrement is
// conditional on the balance still covering the amount, so a deduction quoted
// from a stale balance cannot drive the wallet negative: the losing request
// gets ErrInsufficientWalletBalance instead.
func DebitCustomerWallet(tx *gorm.DB, userID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return nil
	}

	res := tx.Model(&models.User{}).
		Where("id = ? AND wallet_balance >= ?", userID, amount).
		Update("wallet_balance", gorm.Expr("wallet_balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientWalletBalance
	}
	return nil
}
