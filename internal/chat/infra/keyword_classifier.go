package infra

import (
	"context"
	"strings"
	"unicode"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/domain"
)

// financeKeywords mark a message as a purchase to score.
var financeKeywords = map[string]struct{}{
	"expense":    {},
	"expenses":   {},
	"card":       {},
	"cards":      {},
	"category":   {},
	"categories": {},
	"reward":     {},
	"rewards":    {},
	"cashback":   {},
	"spend":      {},
	"spent":      {},
	"buy":        {},
	"buying":     {},
	"pay":        {},
	"paying":     {},
}

// KeywordClassifier labels messages without a model: the add-card command
// registers a card, finance vocabulary or an amount spent at a merchant asks
// for a recommendation, and everything else is general conversation. It never fails, so it also serves
// as the offline classifier.
type KeywordClassifier struct{}

// Classify ignores strict; the answer is always one of the known labels.
func (KeywordClassifier) Classify(_ context.Context, message string, _ bool) (string, error) {
	msg := strings.TrimSpace(message)
	if strings.HasPrefix(strings.ToLower(msg), addCardCommand) {
		return string(domain.IntentRegisterCard), nil
	}
	for _, w := range words(msg) {
		if _, ok := financeKeywords[w]; ok {
			return string(domain.IntentRecommend), nil
		}
	}
	if hasAmount(msg) && merchantPattern.MatchString(msg) {
		return string(domain.IntentRecommend), nil
	}
	return string(domain.IntentGeneral), nil
}

// words lower-cases msg and splits it on anything that is not a letter.
func words(msg string) []string {
	return strings.FieldsFunc(strings.ToLower(msg), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
