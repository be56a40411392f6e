package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/domain"
	maindomain "github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
)

const fallbackGeneralReply = "I'm having trouble answering right now. Please try again in a moment."

// MemoryContextHeader opens the memory block handed to the general responder.
const MemoryContextHeader = "### RELEVANT PAST TRANSACTIONS (LTM):"

// RenderReply returns the fixed reply of an outcome. Outcomes whose reply is
// produced by a collaborator (recommended, general) are handled by the caller.
func RenderReply(s domain.FlowState) string {
	switch s.Outcome {
	case domain.OutcomeCardAdded:
		if pc, ok := s.ParsedCard(); ok {
			return fmt.Sprintf("✅ %s added successfully to your cards.", pc.Card.Name)
		}
		return "✅ Card added successfully to your cards."
	case domain.OutcomeNeedCardDetails:
		return "I couldn't find card details in your message. Send " + AddCardCommand +
			" followed by the card's reward terms: its name, reward rates, the merchants they apply to and any exclusions."
	case domain.OutcomeNeedTransaction:
		return "Tell me what you're buying and how much it costs, for example \"₹2,500 at Amazon\", and I'll pick the best card."
	case domain.OutcomeEmptyPortfolio:
		return "You haven't added any cards yet. Add a card first with " + AddCardCommand + " followed by its reward terms."
	case domain.OutcomePortfolioUnavailable:
		return "I couldn't load your cards right now. Please try again in a moment."
	case domain.OutcomeNoEligibleCard:
		merchant := "this purchase"
		if pt, ok := s.ParsedTransaction(); ok {
			merchant = pt.Transaction.Merchant()
		}
		return fmt.Sprintf("None of your cards earn rewards on %s: every card excludes it.", merchant)
	case domain.OutcomeRecommended:
		if s.Recommendation != nil {
			if pt, ok := s.ParsedTransaction(); ok {
				return TemplateExplanation(pt.Transaction, s.Recommendation)
			}
		}
	}
	return fallbackGeneralReply
}

func cardNotSavedReply(name string, err error) string {
	var conflict *maindomain.ErrConflict
	if errors.As(err, &conflict) {
		return fmt.Sprintf("%s is already in your cards.", name)
	}
	return fmt.Sprintf("I couldn't save %s right now. Please try again in a moment.", name)
}

// TemplateExplanation is the explanation used when no generator is available.
func TemplateExplanation(tx maindomain.Transaction, rec *maindomain.Recommendation) string {
	entry, ok := rec.BestEntry()
	if !ok {
		return fallbackGeneralReply
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I recommend using your %s card for %s (%s).", entry.CardName, tx.Merchant(), FormatRupees(tx.Amount()))
	fmt.Fprintf(&b, " It earns %.2f points at %gx (%s).", entry.Points, entry.AppliedMultiplier, entry.AppliedCategory)

	for _, e := range rec.Breakdown {
		if e.CardName == entry.CardName {
			continue
		}
		if e.Excluded {
			fmt.Fprintf(&b, "\n- %s: excluded", e.CardName)
			continue
		}
		fmt.Fprintf(&b, "\n- %s: %.2f points (%gx, %s)", e.CardName, e.Points, e.AppliedMultiplier, e.AppliedCategory)
	}
	return b.String()
}

// FormatRupees renders an amount as "₹1,234.50" (two decimals only when
// there are paise).
func FormatRupees(amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	s = strings.TrimSuffix(s, ".00")

	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := "₹" + strings.Join(groups, ",")
	if neg {
		out = "-" + out
	}
	if frac != "" {
		out += "." + frac
	}
	return out
}

// FormatMemoryContext renders past recommendations for the general responder.
// No records yields "".
func FormatMemoryContext(records []maindomain.RecommendationRecord) string {
	if len(records) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(MemoryContextHeader)
	for _, r := range records {
		b.WriteString("\n- ")
		b.WriteString(r.CreatedAt.Format("2006-01-02"))
		b.WriteString(": ")
		b.WriteString(FormatRupees(r.Amount))
		b.WriteString(" at ")
		b.WriteString(r.Merchant)
		if r.Category != "" {
			b.WriteString(" (" + r.Category + ")")
		}
		fmt.Fprintf(&b, ", used %s for %.2f points", r.RecommendedCard, r.RewardPoints)
	}
	return b.String()
}

// StripCommand removes a leading slash command (case-insensitive) and trims.
func StripCommand(msg, command string) string {
	msg = strings.TrimSpace(msg)
	if len(msg) >= len(command) && strings.EqualFold(msg[:len(command)], command) {
		msg = msg[len(command):]
	}
	return strings.TrimSpace(msg)
}

// categoryAliases maps extractor categories onto the reward categories cards
// use.
var categoryAliases = map[string]string{
	"clothing":    "online_shopping",
	"fashion":     "online_shopping",
	"electronics": "online_shopping",
	"food":        "dining",
	"restaurant":  "dining",
	"travel":      "travel",
}

// NormalizeCategory lower-cases a category and applies categoryAliases.
// An empty category stays empty.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if alias, ok := categoryAliases[c]; ok {
		return alias
	}
	return c
}
