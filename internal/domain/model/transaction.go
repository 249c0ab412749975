package model

import (
	"strings"
	"time"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"   // created at checkout; awaiting gateway confirmation
	TransactionStatusCompleted TransactionStatus = "completed" // paid (or zero-cost) and eligible for entitlement grant
	TransactionStatusFailed    TransactionStatus = "failed"    // order creation failed; terminal
)

// Terminal reports whether the status admits no further transitions.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// AppliedCoupon records one coupon effect on one cart product.
type AppliedCoupon struct {
	Code      string `json:"code"`
	ProductID string `json:"product_id"`
	Discount  int64  `json:"discount"`
}

// Transaction records a single purchase attempt.
type Transaction struct {
	ID              string // UUID
	BuyerID         string
	Amount          int64 // net amount after discounts, never negative
	ProductIDs      []string
	Coupons         []AppliedCoupon
	Status          TransactionStatus
	ProviderPayload string // raw notification fields as JSON, set on callback
	CreatedAt       time.Time
}

// OrderNo renders the transaction ID in the provider-safe form:
// the canonical UUID with hyphens stripped.
func (t *Transaction) OrderNo() string {
	return strings.ReplaceAll(t.ID, "-", "")
}

// CanonicalTransactionID restores the hyphenated UUID form from a
// provider order number. Providers that strip separators deliver a
// 32-character value; anything else is returned unchanged and looked
// up as-is.
func CanonicalTransactionID(orderNo string) string {
	if len(orderNo) != 32 || strings.Contains(orderNo, "-") {
		return orderNo
	}
	return orderNo[0:8] + "-" + orderNo[8:12] + "-" + orderNo[12:16] + "-" + orderNo[16:20] + "-" + orderNo[20:32]
}
