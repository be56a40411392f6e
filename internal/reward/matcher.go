// Package reward implements the reward-optimization engine: resolving which
// rule of a card applies to a purchase and scoring a whole portfolio.
//
// Merchant matching is a bidirectional, case-insensitive substring test
// ("uber" matches "uber eats", "nykaa man" matches "nykaa"). It is permissive
// by nature and can produce false positives on short merchant tokens.
package reward

import (
	"sort"
	"strings"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
)

// BaseRewardCategory is reported when no rule of the card applies.
const BaseRewardCategory = "Base Reward"

// ExcludedCategory is reported for transactions a card excludes from earning.
const ExcludedCategory = "Excluded"

// MatchResult is the rule a card applies to a transaction.
type MatchResult struct {
	Multiplier float64
	Category   string
	Excluded   bool
}

// Match resolves the reward rule of card that applies to tx.
func Match(tx domain.Transaction, card domain.Card) MatchResult {
	merchant := normalize(tx.Merchant())
	category := normalize(tx.Category())

	if isExcluded(card.ExcludedCategories, merchant, category) {
		return MatchResult{Category: ExcludedCategory, Excluded: true}
	}

	var (
		result  = MatchResult{Multiplier: DefaultMultiplier, Category: BaseRewardCategory}
		matched bool
	)
	for _, rule := range orderRules(card.RewardRules) {
		isAll := rule.AppliesToAll()
		if !isAll && !merchantMatches(rule.Merchants, merchant) {
			continue
		}

		result = MatchResult{
			Multiplier: ParseMultiplier(rule.Multiplier),
			Category:   rule.Category,
		}
		matched = true
		if !isAll {
			return result
		}
		// "all" matches are provisional; a later "all" tier overwrites it.
	}

	if !matched {
		return MatchResult{Multiplier: DefaultMultiplier, Category: BaseRewardCategory}
	}
	return result
}

// orderRules moves rules carrying the "all" sentinel to the end, keeping the
// relative order of everything else. The input slice is not modified.
func orderRules(rules []domain.RewardRule) []domain.RewardRule {
	ordered := make([]domain.RewardRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return !ordered[i].AppliesToAll() && ordered[j].AppliesToAll()
	})
	return ordered
}

func isExcluded(excluded []string, merchant, category string) bool {
	for _, ex := range excluded {
		ex = normalize(ex)
		if ex == "" {
			continue
		}
		if ex == category || ex == merchant {
			return true
		}
	}
	return false
}

// merchantMatches reports whether any rule merchant contains the transaction
// merchant or is contained by it. Blank strings never match.
func merchantMatches(ruleMerchants []string, merchant string) bool {
	if merchant == "" {
		return false
	}
	for _, m := range ruleMerchants {
		m = normalize(m)
		if m == "" {
			continue
		}
		if strings.Contains(merchant, m) || strings.Contains(m, merchant) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
