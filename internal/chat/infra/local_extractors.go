package infra

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/domain"
	maindomain "github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
)

const addCardCommand = "/add_card"

// ============================================================
// Offline extractors
// ============================================================

// JSONCardExtractor reads a card given as a JSON document in the message,
// which is how cards are registered without a gateway. Free text yields no
// card.
type JSONCardExtractor struct{}

// ExtractCard returns nil for anything that is not a JSON card object.
func (JSONCardExtractor) ExtractCard(_ context.Context, text string) (*domain.ParsedCard, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(strings.ToLower(text), addCardCommand) {
		text = strings.TrimSpace(text[len(addCardCommand):])
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, nil
	}

	var card maindomain.Card
	if err := json.Unmarshal([]byte(text[start:end+1]), &card); err != nil {
		return nil, nil
	}
	if strings.TrimSpace(card.Name) == "" {
		return nil, nil
	}
	return &domain.ParsedCard{Card: card, ExtractedFromUser: true}, nil
}

var (
	amountPattern   = regexp.MustCompile(`(?i)(?:₹|rs\.?|inr)?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(k)?\b`)
	merchantPattern = regexp.MustCompile(`(?i)\b(?:at|on|from|via)\s+([a-z0-9][a-z0-9 &'.\-]*)`)
	categoryPattern = regexp.MustCompile(`(?i)\bfor\s+([a-z][a-z &\-]*)`)
	productPattern  = regexp.MustCompile(`(?i)\bbuy(?:ing)?\s+(?:an?\s+|the\s+)?([a-z0-9][a-z0-9 \-]*?)\s+(?:at|on|from|via)\b`)
)

// stopWords end a merchant or category phrase.
var stopWords = map[string]struct{}{
	"for": {}, "with": {}, "using": {}, "and": {}, "which": {}, "what": {},
	"card": {}, "should": {}, "to": {}, "worth": {}, "of": {}, "at": {}, "on": {},
}

// HeuristicTransactionExtractor pulls a purchase out of short messages such
// as "spent 2,500 at Amazon for electronics" or "buying an iPhone 15 on
// Flipkart". It is the offline stand-in for the gateway.
type HeuristicTransactionExtractor struct{}

// ExtractTransaction returns nil when no merchant can be found.
func (HeuristicTransactionExtractor) ExtractTransaction(_ context.Context, text string) (*domain.ParsedTransaction, error) {
	m := merchantPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	merchant := phrase(m[1])
	if merchant == "" {
		return nil, nil
	}

	var product string
	if p := productPattern.FindStringSubmatch(text); p != nil {
		product = strings.TrimSpace(p[1])
	}

	amount := decimal.Zero
	if a, ok := parseAmount(text); ok && !strings.Contains(product, a.String()) {
		amount = a
	}

	var category string
	if c := categoryPattern.FindStringSubmatch(text); c != nil {
		category = phrase(c[1])
	}

	tx, err := maindomain.NewTransaction(merchant, amount, category)
	if err != nil {
		return nil, nil
	}
	return &domain.ParsedTransaction{Transaction: tx, Product: product}, nil
}

// phrase keeps the leading words of s up to the first stop word.
func phrase(s string) string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,!?")
		if _, stop := stopWords[w]; stop || w == "" {
			break
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// parseAmount returns the first currency-looking number, honouring a "k"
// suffix.
func parseAmount(text string) (decimal.Decimal, bool) {
	for _, m := range amountPattern.FindAllStringSubmatch(text, -1) {
		d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		if m[2] != "" {
			d = d.Mul(decimal.NewFromInt(1000))
		}
		return d, true
	}
	return decimal.Zero, false
}

func hasAmount(text string) bool {
	_, ok := parseAmount(text)
	return ok
}
