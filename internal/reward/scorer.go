package reward

import (
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SpendUnit is the spend (in rupees) that earns one multiplier's worth of
// points: points = amount / SpendUnit * multiplier.
var SpendUnit = decimal.NewFromInt(50)

// Scorer picks the best card of a portfolio for a transaction.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	logger *zap.Logger
}

// NewScorer creates a Scorer.
func NewScorer(logger *zap.Logger) *Scorer {
	return &Scorer{logger: logger}
}

// Points returns round(amount / 50 * multiplier, 2).
func Points(amount decimal.Decimal, multiplier float64) float64 {
	return amount.Div(SpendUnit).
		Mul(decimal.NewFromFloat(multiplier)).
		Round(2).
		InexactFloat64()
}

// Score evaluates every card against tx and returns the best card together
// with one ScoreEntry per card, in input order.
//
// A card replaces the current best only when its points are strictly
// greater, so ties go to the card that appears first. Excluded cards score
// zero and are never selected. A nil tx is a caller error.
func (s *Scorer) Score(tx *domain.Transaction, cards []domain.Card) (*domain.Card, []domain.ScoreEntry, error) {
	if tx == nil {
		return nil, nil, domain.ErrNoTransaction
	}

	if len(cards) == 0 {
		s.logger.Info("scoring skipped: empty portfolio",
			zap.String("merchant", tx.Merchant()),
		)
		return nil, []domain.ScoreEntry{}, nil
	}

	var (
		best       *domain.Card
		bestPoints float64
		breakdown  = make([]domain.ScoreEntry, 0, len(cards))
	)

	for i := range cards {
		card := &cards[i]
		m := Match(*tx, *card)

		if m.Excluded {
			breakdown = append(breakdown, domain.ScoreEntry{
				CardName:        card.Name,
				AppliedCategory: m.Category,
				Excluded:        true,
			})
			continue
		}

		points := Points(tx.Amount(), m.Multiplier)
		breakdown = append(breakdown, domain.ScoreEntry{
			CardName:          card.Name,
			AppliedMultiplier: m.Multiplier,
			AppliedCategory:   m.Category,
			Points:            points,
		})

		if best == nil || points > bestPoints {
			best = card
			bestPoints = points
		}
	}

	s.logger.Debug("portfolio scored",
		zap.String("merchant", tx.Merchant()),
		zap.String("amount", tx.Amount().String()),
		zap.Int("cards", len(cards)),
		zap.Bool("has_best", best != nil),
		zap.Float64("best_points", bestPoints),
	)

	return best, breakdown, nil
}

// Recommend wraps Score into a domain.Recommendation.
func (s *Scorer) Recommend(tx *domain.Transaction, cards []domain.Card) (*domain.Recommendation, error) {
	best, breakdown, err := s.Score(tx, cards)
	if err != nil {
		return nil, err
	}
	return &domain.Recommendation{
		Transaction: tx.View(),
		BestCard:    best,
		Breakdown:   breakdown,
	}, nil
}
