package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/tiffinbox/internal/models"
)

// GormReconcilerStore implements ReconcilerStore on the application database.
// Idempotency comes from single-statement conditional updates: the WHERE
// clause requires the record to still be pending, so a duplicate delivery
// matches zero rows instead of re-applying the transition.
type GormReconcilerStore struct {
	db *gorm.DB
}

func NewGormReconcilerStore(db *gorm.DB) *GormReconcilerStore {
	return &GormReconcilerStore{db: db}
}

func (s *GormReconcilerStore) CompleteOrderPayment(ctx context.Context, txnID, providerRef string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("payment_transaction_id = ? AND payment_status = ?", txnID, models.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status":     models.PaymentStatusCompleted,
			"status":             models.OrderStatusConfirmed,
			"provider_reference": providerRef,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormReconcilerStore) FailOrderPayment(ctx context.Context, txnID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("payment_transaction_id = ? AND payment_status = ?", txnID, models.PaymentStatusPending).
		Update("payment_status", models.PaymentStatusFailed)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ApproveWalletRecharge flips the recharge to approved and credits the
// restaurant balance in one database transaction. The balance is mutated with
// an in-database increment, never a read-modify-write from application
// memory.
func (s *GormReconcilerStore) ApproveWalletRecharge(ctx context.Context, txnID, providerRef string) (bool, error) {
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txn models.WalletTransaction
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("merchant_transaction_id = ?", txnID).
			First(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		if txn.Status != models.WalletTxnStatusPending {
			return nil
		}

		now := time.Now()
		res := tx.Model(&models.WalletTransaction{}).
			Where("id = ? AND status = ?", txn.ID, models.WalletTxnStatusPending).
			Updates(map[string]any{
				"status":             models.WalletTxnStatusApproved,
				"provider_reference": providerRef,
				"approved_at":        &now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&models.Restaurant{}).
			Where("id = ?", txn.RestaurantID).
			Update("credit_balance", gorm.Expr("credit_balance + ?", txn.Amount)).Error; err != nil {
			return err
		}

		applied = true
		return nil
	})
	return applied, err
}

func (s *GormReconcilerStore) RejectWalletRecharge(ctx context.Context, txnID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("merchant_transaction_id = ? AND status = ?", txnID, models.WalletTxnStatusPending).
		Update("status", models.WalletTxnStatusRejected)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormReconcilerStore) OrderPaymentStatus(ctx context.Context, txnID string) (string, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Select("payment_status").
		Where("payment_transaction_id = ?", txnID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrTransactionNotFound
	}
	if err != nil {
		return "", err
	}
	if order.PaymentStatus == nil {
		return models.PaymentStatusPending, nil
	}
	return *order.PaymentStatus, nil
}

func (s *GormReconcilerStore) WalletRechargeStatus(ctx context.Context, txnID string) (string, error) {
	var txn models.WalletTransaction
	err := s.db.WithContext(ctx).
		Select("status").
		Where("merchant_transaction_id = ?", txnID).
		First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrTransactionNotFound
	}
	if err != nil {
		return "", err
	}
	return txn.Status, nil
}
