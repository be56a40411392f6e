package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Purchase transaction
// ============================================================

// Transaction is a purchase to be scored. It is immutable once built: use
// NewTransaction and the accessors.
type Transaction struct {
	merchant string
	amount   decimal.Decimal
	category string
}

// NewTransaction validates and builds a Transaction. Merchant and a
// non-negative amount are required; an empty category means "absent".
func NewTransaction(merchant string, amount decimal.Decimal, category string) (Transaction, error) {
	merchant = strings.TrimSpace(merchant)
	if merchant == "" {
		return Transaction{}, &ErrValidation{Field: "merchant", Message: "merchant is required"}
	}
	if amount.IsNegative() {
		return Transaction{}, &ErrValidation{Field: "amount", Message: "amount must be >= 0"}
	}
	return Transaction{
		merchant: merchant,
		amount:   amount,
		category: strings.TrimSpace(category),
	}, nil
}

func (t Transaction) Merchant() string        { return t.merchant }
func (t Transaction) Amount() decimal.Decimal { return t.amount }
func (t Transaction) Category() string        { return t.category }

// HasCategory reports whether a category was supplied.
func (t Transaction) HasCategory() bool { return t.category != "" }

// WithAmount returns a copy carrying a different amount. Used when the price
// of a named product is looked up after parsing.
func (t Transaction) WithAmount(amount decimal.Decimal) (Transaction, error) {
	return NewTransaction(t.merchant, amount, t.category)
}

// TransactionView is the JSON shape of a Transaction.
type TransactionView struct {
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category,omitempty"`
}

// View returns the serializable form of the transaction.
func (t Transaction) View() TransactionView {
	return TransactionView{Merchant: t.merchant, Amount: t.amount, Category: t.category}
}

// RecommendationRecord is a past recommendation kept for memory retrieval.
type RecommendationRecord struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Merchant        string          `json:"merchant"`
	Category        string          `json:"category,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	RecommendedCard string          `json:"recommended_card"`
	RewardPoints    float64         `json:"reward_points"`
	CreatedAt       time.Time       `json:"created_at"`
}
