package reward

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
)

func mustTx(t *testing.T, merchant string, amount int64, category string) domain.Transaction {
	t.Helper()
	tx, err := domain.NewTransaction(merchant, decimal.NewFromInt(amount), category)
	require.NoError(t, err)
	return tx
}

func rule(category, multiplier string, merchants ...string) domain.RewardRule {
	return domain.RewardRule{Category: category, Multiplier: multiplier, Merchants: merchants}
}

func TestMatch_SpecificMerchant(t *testing.T) {
	card := domain.Card{
		Name:        "Swiggy HDFC",
		RewardRules: []domain.RewardRule{rule("Food Delivery", "10X", "uber")},
	}

	got := Match(mustTx(t, "Uber Eats", 500, ""), card)

	assert.Equal(t, MatchResult{Multiplier: 10, Category: "Food Delivery"}, got)
}

func TestMatch_ContainmentIsBidirectional(t *testing.T) {
	card := domain.Card{
		Name:        "Nykaa",
		RewardRules: []domain.RewardRule{rule("Beauty", "5x", "nykaa man")},
	}

	got := Match(mustTx(t, "nykaa", 100, ""), card)

	assert.Equal(t, "Beauty", got.Category)
	assert.InDelta(t, 5.0, got.Multiplier, 1e-9)
}

func TestMatch_SpecificBeatsAllRegardlessOfOrder(t *testing.T) {
	card := domain.Card{
		Name: "Millennia",
		RewardRules: []domain.RewardRule{
			rule("Everything", "1x", "all"),
			rule("Amazon", "5x", "amazon"),
		},
	}

	got := Match(mustTx(t, "amazon", 1000, ""), card)

	assert.Equal(t, "Amazon", got.Category)
	assert.InDelta(t, 5.0, got.Multiplier, 1e-9)
}

func TestMatch_AllRuleAppliesWhenNothingSpecific(t *testing.T) {
	card := domain.Card{
		Name: "Millennia",
		RewardRules: []domain.RewardRule{
			rule("Amazon", "5x", "amazon"),
			rule("Everything", "1%", "ALL"),
		},
	}

	got := Match(mustTx(t, "croma", 1000, ""), card)

	assert.Equal(t, "Everything", got.Category)
	assert.InDelta(t, 1.0, got.Multiplier, 1e-9)
}

func TestMatch_LastAllRuleWins(t *testing.T) {
	card := domain.Card{
		Name: "Tiered",
		RewardRules: []domain.RewardRule{
			rule("Tier 1", "1x", "all"),
			rule("Tier 2", "2x", "all"),
		},
	}

	got := Match(mustTx(t, "anything", 100, ""), card)

	assert.Equal(t, "Tier 2", got.Category)
	assert.InDelta(t, 2.0, got.Multiplier, 1e-9)
}

func TestMatch_NoRuleGivesBaseReward(t *testing.T) {
	card := domain.Card{
		Name:        "Plain",
		RewardRules: []domain.RewardRule{rule("Travel", "3x", "makemytrip")},
	}

	got := Match(mustTx(t, "zomato", 100, ""), card)

	assert.Equal(t, MatchResult{Multiplier: DefaultMultiplier, Category: BaseRewardCategory}, got)
}

func TestMatch_ExclusionByCategoryOrMerchant(t *testing.T) {
	card := domain.Card{
		Name:               "Regalia",
		ExcludedCategories: []string{"Fuel", "  ", "rent.com"},
		RewardRules:        []domain.RewardRule{rule("Everything", "4x", "all")},
	}

	byCategory := Match(mustTx(t, "hp petrol", 2000, "fuel"), card)
	byMerchant := Match(mustTx(t, "Rent.com", 2000, ""), card)
	notExcluded := Match(mustTx(t, "flipkart", 2000, ""), card)

	assert.Equal(t, MatchResult{Category: ExcludedCategory, Excluded: true}, byCategory)
	assert.Equal(t, MatchResult{Category: ExcludedCategory, Excluded: true}, byMerchant)
	assert.False(t, notExcluded.Excluded)
	assert.Equal(t, "Everything", notExcluded.Category)
}

func TestMatch_BlankRuleMerchantsNeverMatch(t *testing.T) {
	card := domain.Card{
		Name:        "Broken",
		RewardRules: []domain.RewardRule{rule("Ghost", "9x", "", "  ")},
	}

	got := Match(mustTx(t, "amazon", 100, ""), card)

	assert.Equal(t, BaseRewardCategory, got.Category)
}

func TestOrderRules_DoesNotMutateInput(t *testing.T) {
	rules := []domain.RewardRule{
		rule("A", "1x", "all"),
		rule("B", "2x", "b"),
	}

	ordered := orderRules(rules)

	assert.Equal(t, "B", ordered[0].Category)
	assert.Equal(t, "A", ordered[1].Category)
	assert.Equal(t, "A", rules[0].Category)
}
