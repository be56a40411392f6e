package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	maindomain "github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
)

func TestFormatRupees(t *testing.T) {
	tests := map[string]string{
		"0":         "₹0",
		"500":       "₹500",
		"2500":      "₹2,500",
		"1234567":   "₹1,234,567",
		"1999.5":    "₹1,999.50",
		"100000.25": "₹100,000.25",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatRupees(decimal.RequireFromString(in)), in)
	}
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "online_shopping", NormalizeCategory("Fashion"))
	assert.Equal(t, "online_shopping", NormalizeCategory(" electronics "))
	assert.Equal(t, "dining", NormalizeCategory("Restaurant"))
	assert.Equal(t, "travel", NormalizeCategory("TRAVEL"))
	assert.Equal(t, "fuel", NormalizeCategory("Fuel"))
	assert.Equal(t, "", NormalizeCategory(""))
}

func TestStripCommand(t *testing.T) {
	assert.Equal(t, "HDFC Regalia", StripCommand("/add_card HDFC Regalia", AddCardCommand))
	assert.Equal(t, "HDFC Regalia", StripCommand("  /ADD_CARD   HDFC Regalia ", AddCardCommand))
	assert.Equal(t, "", StripCommand("/add_card", AddCardCommand))
	assert.Equal(t, "which card?", StripCommand("which card?", AddCardCommand))
}

func TestFormatMemoryContext(t *testing.T) {
	assert.Empty(t, FormatMemoryContext(nil))

	got := FormatMemoryContext([]maindomain.RecommendationRecord{{
		Merchant:        "amazon",
		Category:        "online_shopping",
		Amount:          decimal.NewFromInt(2500),
		RecommendedCard: "Amazon ICICI",
		RewardPoints:    250,
		CreatedAt:       time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}})

	assert.Equal(t, MemoryContextHeader+
		"\n- 2026-03-04: ₹2,500 at amazon (online_shopping), used Amazon ICICI for 250.00 points", got)
}

func TestTemplateExplanation_ListsOtherCards(t *testing.T) {
	tx, _ := maindomain.NewTransaction("uber", decimal.NewFromInt(500), "")
	best := &maindomain.Card{Name: "A"}
	rec := &maindomain.Recommendation{
		BestCard: best,
		Breakdown: []maindomain.ScoreEntry{
			{CardName: "A", AppliedMultiplier: 10, AppliedCategory: "Rides", Points: 100},
			{CardName: "B", AppliedCategory: "Excluded", Excluded: true},
			{CardName: "C", AppliedMultiplier: 1, AppliedCategory: "Base Reward", Points: 10},
		},
	}

	got := TemplateExplanation(tx, rec)

	assert.Equal(t, "I recommend using your A card for uber (₹500). It earns 100.00 points at 10x (Rides).\n"+
		"- B: excluded\n"+
		"- C: 10.00 points (1x, Base Reward)", got)
}
