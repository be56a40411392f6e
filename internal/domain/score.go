package domain

import "github.com/shopspring/decimal"

// ScoreEntry is the result of scoring one card against one transaction.
// Entries live for a single scoring pass and are never persisted.
type ScoreEntry struct {
	CardName          string  `json:"card_name"`
	AppliedMultiplier float64 `json:"applied_multiplier"`
	AppliedCategory   string  `json:"applied_category"`
	Points            float64 `json:"points"`
	Excluded          bool    `json:"excluded"`
}

// Recommendation is the outcome of a scoring pass: the best card (nil when no
// card qualifies) and the per-card breakdown in portfolio order.
type Recommendation struct {
	Transaction TransactionView `json:"transaction"`
	BestCard    *Card           `json:"best_card,omitempty"`
	Breakdown   []ScoreEntry    `json:"breakdown"`
}

// BestEntry returns the breakdown entry of the best card, if any.
func (r *Recommendation) BestEntry() (ScoreEntry, bool) {
	if r == nil || r.BestCard == nil {
		return ScoreEntry{}, false
	}
	for _, e := range r.Breakdown {
		if e.CardName == r.BestCard.Name && !e.Excluded {
			return e, true
		}
	}
	return ScoreEntry{}, false
}

// RecommendRequest is the body of POST /v1/users/{userId}/recommendations.
// When Amount is zero and Product is set, the product's price is looked up.
type RecommendRequest struct {
	Merchant string          `json:"merchant" validate:"required,notblank"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category,omitempty"`
	Product  string          `json:"product,omitempty"`
}

// RecommendResponse is a Recommendation with its rendered explanation.
type RecommendResponse struct {
	Recommendation
	Explanation string `json:"explanation"`
}
