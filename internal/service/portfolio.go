// Package service provides the business logic layer (use cases) behind the
// REST surface: card registration, portfolio listing and direct scoring.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	chatport "github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/port"
	chatservice "github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/service"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/observability"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/port"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/reward"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/validator"
)

var tracer = otel.Tracer("service/portfolio")

// PortfolioService manages a user's cards and scores purchases against them.
type PortfolioService struct {
	cards   port.CardStore
	history port.RecommendationStore
	prices  chatport.PriceSearcher
	scorer  *reward.Scorer
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewPortfolioService creates the service. history and prices may be nil.
func NewPortfolioService(
	cards port.CardStore,
	history port.RecommendationStore,
	prices chatport.PriceSearcher,
	scorer *reward.Scorer,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *PortfolioService {
	return &PortfolioService{
		cards:   cards,
		history: history,
		prices:  prices,
		scorer:  scorer,
		metrics: metrics,
		logger:  logger,
	}
}

// ListCards returns the user's portfolio in registration order.
func (s *PortfolioService) ListCards(ctx context.Context, userID string) ([]domain.Card, error) {
	ctx, span := tracer.Start(ctx, "PortfolioService.ListCards")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.cards.ListCards(ctx, userID)
}

// RegisterCard validates and stores a card for the user.
func (s *PortfolioService) RegisterCard(ctx context.Context, userID string, card *domain.Card) (*domain.Card, error) {
	ctx, span := tracer.Start(ctx, "PortfolioService.RegisterCard")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if strings.TrimSpace(userID) == "" {
		return nil, &domain.ErrValidation{Field: "userId", Message: "userId is required"}
	}
	card.Name = strings.TrimSpace(card.Name)
	if err := validator.Struct(card); err != nil {
		return nil, err
	}
	card.ID = uuid.NewString()

	if err := s.cards.SaveCard(ctx, userID, card); err != nil {
		return nil, err
	}
	s.logger.Info("card registered",
		zap.String("user_id", userID),
		zap.String("card", card.Name),
		zap.Int("rules", len(card.RewardRules)),
	)
	return card, nil
}

// Recommend scores a purchase against the user's portfolio. The portfolio is
// fetched while the product price, if needed, is looked up.
func (s *PortfolioService) Recommend(ctx context.Context, userID string, req *domain.RecommendRequest) (*domain.RecommendResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "PortfolioService.Recommend")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordRequestDuration("recommend", time.Since(start))
		}
	}()

	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if req.Amount.IsNegative() {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be >= 0"}
	}

	var (
		cards  []domain.Card
		amount = req.Amount
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c, err := s.cards.ListCards(gCtx, userID)
		if err != nil {
			s.logger.Error("failed to fetch portfolio",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			return fmt.Errorf("portfolio fetch: %w", err)
		}
		cards = c
		return nil
	})

	if amount.IsZero() && strings.TrimSpace(req.Product) != "" && s.prices != nil {
		g.Go(func() error {
			price, err := s.prices.LookupPrice(gCtx, req.Product)
			if err != nil {
				// An unpriced purchase still gets a card; it just earns zero.
				s.logger.Warn("price lookup failed",
					zap.String("product", req.Product),
					zap.Error(err),
				)
				if s.metrics != nil {
					s.metrics.IncrExternalError("price_search")
				}
				return nil
			}
			amount = price
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	tx, err := domain.NewTransaction(req.Merchant, amount, chatservice.NormalizeCategory(req.Category))
	if err != nil {
		return nil, err
	}
	rec, err := s.scorer.Recommend(&tx, cards)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObservePortfolioSize(len(cards))
	}

	resp := &domain.RecommendResponse{Recommendation: *rec}
	switch {
	case len(cards) == 0:
		resp.Explanation = "No cards registered yet. Add a card first."
	case rec.BestCard == nil:
		resp.Explanation = fmt.Sprintf("None of your cards earn rewards on %s: every card excludes it.", tx.Merchant())
	default:
		resp.Explanation = chatservice.TemplateExplanation(tx, rec)
		s.record(ctx, userID, tx, rec)
	}
	return resp, nil
}

// record stores the recommendation for memory retrieval; failures are logged.
func (s *PortfolioService) record(ctx context.Context, userID string, tx domain.Transaction, rec *domain.Recommendation) {
	if s.history == nil {
		return
	}
	entry, ok := rec.BestEntry()
	if !ok {
		return
	}
	err := s.history.RecordRecommendation(ctx, &domain.RecommendationRecord{
		ID:              uuid.NewString(),
		UserID:          userID,
		Merchant:        tx.Merchant(),
		Category:        tx.Category(),
		Amount:          tx.Amount(),
		RecommendedCard: entry.CardName,
		RewardPoints:    entry.Points,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("failed to record recommendation", zap.String("user_id", userID), zap.Error(err))
		if s.metrics != nil {
			s.metrics.IncrExternalError("history")
		}
	}
}
