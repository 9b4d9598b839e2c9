package services

import (
	"context"
	"errors"
	"log"

	"github.com/example/tiffinbox/internal/gateway"
	"github.com/example/tiffinbox/internal/models"
)

// ErrTransactionNotFound is returned when a gateway result references a
// record that was never created. Records always exist before the gateway is
// invoked, so this indicates a lost or spoofed transaction id.
var ErrTransactionNotFound = errors.New("transaction not found")

// GatewayResult is the normalized shape the reconciler consumes, whether the
// source was a callback push or a status poll. Amount is in whole rupees.
type GatewayResult struct {
	TransactionID     string
	Code              string
	ProviderReference string
	Amount            int64
}

// ResultFromStatus converts a polled gateway status into a GatewayResult.
func ResultFromStatus(s *gateway.StatusResult) GatewayResult {
	return GatewayResult{
		TransactionID:     s.TransactionID,
		Code:              s.Code,
		ProviderReference: s.ProviderReference,
		Amount:            s.Amount,
	}
}

// Outcome describes what one reconciliation pass did.
type Outcome struct {
	Kind              TransactionKind
	TransactionID     string
	Completed         bool
	Failed            bool
	Pending           bool
	AlreadyReconciled bool
}

// ReconcilerStore is the persistence surface the reconciler mutates state
// through. Every mutation is conditional on the record still being
// non-terminal: the applied return is false when the record was already
// settled, which is the idempotency gate for duplicate callbacks and
// callback/poll races. Implementations must apply the wallet balance credit
// and the status flip atomically. The status getters return
// ErrTransactionNotFound for ids no record carries.
type ReconcilerStore interface {
	CompleteOrderPayment(ctx context.Context, txnID, providerRef string) (applied bool, err error)
	FailOrderPayment(ctx context.Context, txnID string) (applied bool, err error)
	ApproveWalletRecharge(ctx context.Context, txnID, providerRef string) (applied bool, err error)
	RejectWalletRecharge(ctx context.Context, txnID string) (applied bool, err error)
	OrderPaymentStatus(ctx context.Context, txnID string) (string, error)
	WalletRechargeStatus(ctx context.Context, txnID string) (string, error)
}

// Reconciler applies gateway results to orders and wallet transactions
// exactly once. It never writes the operational order workflow; payment
// confirmation is its only order-side transition.
type Reconciler struct {
	store    ReconcilerStore
	telegram *TelegramService
}

// NewReconciler constructs a Reconciler. telegram may be nil.
func NewReconciler(store ReconcilerStore, telegram *TelegramService) *Reconciler {
	return &Reconciler{store: store, telegram: telegram}
}

// Reconcile routes one gateway result to the record it settles and applies
// at most one state transition. Duplicate deliveries return a successful
// AlreadyReconciled outcome with zero state delta. Store errors propagate;
// retrying after one is safe because of the idempotency gate.
func (r *Reconciler) Reconcile(ctx context.Context, res GatewayResult) (*Outcome, error) {
	kind, err := ClassifyTransactionID(res.TransactionID)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Kind: kind, TransactionID: res.TransactionID}

	if res.Code == gateway.CodePaymentPending {
		if _, err := r.storedStatus(ctx, kind, res.TransactionID); err != nil {
			return nil, err
		}
		outcome.Pending = true
		return outcome, nil
	}

	success := res.Code == gateway.CodePaymentSuccess

	var applied bool
	switch kind {
	case KindOrder:
		if success {
			applied, err = r.store.CompleteOrderPayment(ctx, res.TransactionID, res.ProviderReference)
		} else {
			applied, err = r.store.FailOrderPayment(ctx, res.TransactionID)
		}
	case KindRecharge:
		if success {
			applied, err = r.store.ApproveWalletRecharge(ctx, res.TransactionID, res.ProviderReference)
		} else {
			applied, err = r.store.RejectWalletRecharge(ctx, res.TransactionID)
		}
	}
	if err != nil {
		return nil, err
	}

	if !applied {
		// The record already left pending. Report its stored terminal
		// state, not the incoming code: a stale failure callback for an
		// order that has since been confirmed must not answer "failed".
		stored, err := r.storedStatus(ctx, kind, res.TransactionID)
		if err != nil {
			return nil, err
		}
		outcome.AlreadyReconciled = true
		switch stored {
		case models.PaymentStatusCompleted, models.WalletTxnStatusApproved:
			outcome.Completed = true
		case models.PaymentStatusFailed, models.WalletTxnStatusRejected:
			outcome.Failed = true
		default:
			outcome.Pending = true
		}
		return outcome, nil
	}

	outcome.Completed = success
	outcome.Failed = !success

	if success && r.telegram != nil {
		go func() {
			if err := r.telegram.NotifyPaymentSuccess(string(kind), res.TransactionID, res.Amount); err != nil {
				log.Printf("[Reconciler] Telegram payment notification failed: %v", err)
			}
		}()
	}

	return outcome, nil
}

func (r *Reconciler) storedStatus(ctx context.Context, kind TransactionKind, txnID string) (string, error) {
	if kind == KindOrder {
		return r.store.OrderPaymentStatus(ctx, txnID)
	}
	return r.store.WalletRechargeStatus(ctx, txnID)
}
