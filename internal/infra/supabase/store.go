package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	chatdomain "github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
)

// ============================================================
// Cards: CRUD via PostgREST
// ============================================================

type cardRow struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	CardName  string      `json:"card_name"`
	Data      domain.Card `json:"data"`
	CreatedAt *time.Time  `json:"created_at,omitempty"`
}

func (c *Client) ListCards(ctx context.Context, userID string) ([]domain.Card, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCards")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var rows []cardRow
	err := c.get(ctx, "cards", url.Values{
		"user_id": {"eq." + userID},
		"order":   {"created_at.asc,id.asc"},
	}, &rows)
	if err != nil {
		return nil, err
	}

	cards := make([]domain.Card, 0, len(rows))
	for _, r := range rows {
		card := r.Data
		card.ID = r.ID
		card.UserID = r.UserID
		if r.CreatedAt != nil {
			card.CreatedAt = *r.CreatedAt
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func (c *Client) SaveCard(ctx context.Context, userID string, card *domain.Card) error {
	ctx, span := tracer.Start(ctx, "Supabase.SaveCard")
	defer span.End()

	if _, err := uuid.Parse(card.ID); err != nil {
		card.ID = uuid.NewString()
	}
	card.UserID = userID
	card.CreatedAt = time.Now().UTC()

	_, err := c.insert(ctx, "cards", []cardRow{{
		ID:        card.ID,
		UserID:    userID,
		CardName:  card.Name,
		Data:      *card,
		CreatedAt: &card.CreatedAt,
	}})
	var serr *statusError
	if errors.As(err, &serr) && serr.Status == http.StatusConflict {
		return &domain.ErrConflict{Message: "card already registered: " + card.Name}
	}
	return err
}

// ============================================================
// Recommendation history
// ============================================================

type recommendationRow struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Merchant        string          `json:"merchant"`
	Category        string          `json:"category"`
	Amount          decimal.Decimal `json:"amount"`
	RecommendedCard string          `json:"recommended_card"`
	RewardPoints    float64         `json:"reward_points"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (c *Client) RecordRecommendation(ctx context.Context, rec *domain.RecommendationRecord) error {
	ctx, span := tracer.Start(ctx, "Supabase.RecordRecommendation")
	defer span.End()

	row := recommendationRow(*rec)
	if _, err := uuid.Parse(row.ID); err != nil {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	_, err := c.insert(ctx, "recommendations", []recommendationRow{row})
	return err
}

func (c *Client) SearchRecommendations(ctx context.Context, userID, query string, limit int) ([]domain.RecommendationRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SearchRecommendations")
	defer span.End()

	if limit <= 0 {
		limit = 5
	}
	q := url.Values{
		"user_id": {"eq." + userID},
		"order":   {"created_at.desc"},
		"limit":   {strconv.Itoa(limit)},
	}
	if terms := domain.SearchTerms(query); len(terms) > 0 {
		var filters []string
		for _, t := range terms {
			for _, col := range []string{"merchant", "category", "recommended_card"} {
				filters = append(filters, fmt.Sprintf("%s.ilike.*%s*", col, t))
			}
		}
		q.Set("or", "("+strings.Join(filters, ",")+")")
	}

	var rows []recommendationRow
	if err := c.get(ctx, "recommendations", q, &rows); err != nil {
		return nil, err
	}
	recs := make([]domain.RecommendationRecord, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, domain.RecommendationRecord(r))
	}
	return recs, nil
}

// ============================================================
// Threads
// ============================================================

type messageRow struct {
	ThreadID  string    `json:"thread_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Client) LoadThread(ctx context.Context, threadID string, limit int) ([]chatdomain.Message, error) {
	ctx, span := tracer.Start(ctx, "Supabase.LoadThread")
	defer span.End()

	q := url.Values{
		"thread_id": {"eq." + threadID},
		"select":    {"role,content,created_at"},
		"order":     {"id.desc"},
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var rows []messageRow
	if err := c.get(ctx, "chat_messages", q, &rows); err != nil {
		return nil, err
	}

	msgs := make([]chatdomain.Message, len(rows))
	for i, r := range rows {
		msgs[len(rows)-1-i] = chatdomain.Message{
			Role:      chatdomain.Role(r.Role),
			Content:   r.Content,
			CreatedAt: r.CreatedAt,
		}
	}
	return msgs, nil
}

func (c *Client) AppendMessages(ctx context.Context, threadID, userID string, msgs []chatdomain.Message) error {
	ctx, span := tracer.Start(ctx, "Supabase.AppendMessages")
	defer span.End()

	if len(msgs) == 0 {
		return nil
	}
	rows := make([]messageRow, 0, len(msgs))
	for _, m := range msgs {
		created := m.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		rows = append(rows, messageRow{
			ThreadID:  threadID,
			UserID:    userID,
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: created,
		})
	}
	_, err := c.insert(ctx, "chat_messages", rows)
	return err
}
