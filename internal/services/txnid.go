package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionKind routes a gateway transaction to the record it settles.
type TransactionKind string

const (
	KindOrder    TransactionKind = "ORDER"
	KindRecharge TransactionKind = "RECHARGE"
)

// ErrInvalidTransactionFormat is returned for transaction ids whose prefix
// matches no known kind.
var ErrInvalidTransactionFormat = errors.New("invalid transaction id format")

// MakeOrderTransactionID builds the composite gateway id for an order
// payment. The full string is stored on the order at initiation and is the
// only lookup key at reconciliation time.
func MakeOrderTransactionID(orderID uuid.UUID) string {
	return fmt.Sprintf("ORDER-%s-%d", orderID, time.Now().UnixMilli())
}

// MakeRechargeTransactionID builds the composite gateway id for a wallet
// recharge.
func MakeRechargeTransactionID(walletTxnID uuid.UUID) string {
	return fmt.Sprintf("RECHARGE-%s-%d", walletTxnID, time.Now().UnixMilli())
}

// ClassifyTransactionID decides which record kind a gateway transaction id
// refers to. Only the prefix is inspected; the embedded ids are never parsed
// back out of the composite string.
func ClassifyTransactionID(txnID string) (TransactionKind, error) {
	switch {
	case strings.HasPrefix(txnID, "ORDER-"), strings.HasPrefix(txnID, "order_"):
		return KindOrder, nil
	case strings.HasPrefix(txnID, "RECHARGE-"):
		return KindRecharge, nil
	default:
		return "", ErrInvalidTransactionFormat
	}
}
