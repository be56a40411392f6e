// Package postgres is the PostgreSQL persistence backend built on pgxpool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	chatdomain "github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
)

var tracer = otel.Tracer("postgres")

const uniqueViolation = "23505"

// Store implements port.Store on a pgx connection pool.
type Store struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// Open connects a pool to dsn and verifies it.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewStore(pool, logger), nil
}

// NewStore wraps an existing pool.
func NewStore(db *pgxpool.Pool, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Ping(ctx context.Context) error { return s.db.Ping(ctx) }

func (s *Store) Close() { s.db.Close() }

// ============================================================
// Cards
// ============================================================

func (s *Store) ListCards(ctx context.Context, userID string) ([]domain.Card, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListCards")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := s.db.Query(ctx, `
		SELECT id, data, created_at FROM cards
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards := []domain.Card{}
	for rows.Next() {
		var (
			id      uuid.UUID
			data    []byte
			created time.Time
		)
		if err := rows.Scan(&id, &data, &created); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		var card domain.Card
		if err := json.Unmarshal(data, &card); err != nil {
			s.logger.Warn("skipping undecodable card",
				zap.String("card_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		card.ID = id.String()
		card.UserID = userID
		card.CreatedAt = created
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

func (s *Store) SaveCard(ctx context.Context, userID string, card *domain.Card) error {
	ctx, span := tracer.Start(ctx, "Postgres.SaveCard")
	defer span.End()

	id, err := uuid.Parse(card.ID)
	if err != nil {
		id = uuid.New()
	}
	card.ID = id.String()
	card.UserID = userID

	data, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("encode card: %w", err)
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO cards (id, user_id, card_name, data)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, id, userID, card.Name, data).Scan(&card.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &domain.ErrConflict{Message: "card already registered: " + card.Name}
		}
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// ============================================================
// Recommendation history
// ============================================================

func (s *Store) RecordRecommendation(ctx context.Context, rec *domain.RecommendationRecord) error {
	ctx, span := tracer.Start(ctx, "Postgres.RecordRecommendation")
	defer span.End()

	id, err := uuid.Parse(rec.ID)
	if err != nil {
		id = uuid.New()
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO recommendations
			(id, user_id, merchant, category, amount, recommended_card, reward_points, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, rec.UserID, rec.Merchant, rec.Category, rec.Amount.String(), rec.RecommendedCard, rec.RewardPoints, created)
	if err != nil {
		return fmt.Errorf("insert recommendation: %w", err)
	}
	return nil
}

func (s *Store) SearchRecommendations(ctx context.Context, userID, query string, limit int) ([]domain.RecommendationRecord, error) {
	ctx, span := tracer.Start(ctx, "Postgres.SearchRecommendations")
	defer span.End()

	terms := domain.SearchTerms(query)
	patterns := make([]string, len(terms))
	for i, t := range terms {
		patterns[i] = "%" + t + "%"
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, merchant, category, amount::text, recommended_card, reward_points, created_at
		FROM recommendations
		WHERE user_id = $1
		  AND (cardinality($2::text[]) = 0
		       OR merchant ILIKE ANY($2)
		       OR category ILIKE ANY($2)
		       OR recommended_card ILIKE ANY($2))
		ORDER BY created_at DESC
		LIMIT $3
	`, userID, patterns, limit)
	if err != nil {
		return nil, fmt.Errorf("search recommendations: %w", err)
	}

	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RecommendationRecord, error) {
		var (
			r      domain.RecommendationRecord
			id     uuid.UUID
			amount string
		)
		if err := row.Scan(&id, &r.UserID, &r.Merchant, &r.Category, &amount, &r.RecommendedCard, &r.RewardPoints, &r.CreatedAt); err != nil {
			return r, err
		}
		r.ID = id.String()
		if err := r.Amount.UnmarshalText([]byte(amount)); err != nil {
			return r, err
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan recommendations: %w", err)
	}
	return recs, nil
}

// ============================================================
// Threads
// ============================================================

func (s *Store) LoadThread(ctx context.Context, threadID string, limit int) ([]chatdomain.Message, error) {
	ctx, span := tracer.Start(ctx, "Postgres.LoadThread")
	defer span.End()

	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.Query(ctx, `
		SELECT role, content, created_at FROM (
			SELECT id, role, content, created_at FROM chat_messages
			WHERE thread_id = $1
			ORDER BY id DESC
			LIMIT $2
		) recent
		ORDER BY id
	`, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}

	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (chatdomain.Message, error) {
		var (
			m    chatdomain.Message
			role string
		)
		err := row.Scan(&role, &m.Content, &m.CreatedAt)
		m.Role = chatdomain.Role(role)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan thread: %w", err)
	}
	return msgs, nil
}

func (s *Store) AppendMessages(ctx context.Context, threadID, userID string, msgs []chatdomain.Message) error {
	ctx, span := tracer.Start(ctx, "Postgres.AppendMessages")
	defer span.End()
	span.SetAttributes(attribute.Int("messages", len(msgs)))

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, m := range msgs {
		created := m.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO chat_messages (thread_id, user_id, role, content, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, threadID, userID, string(m.Role), m.Content, created); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit messages: %w", err)
	}
	return nil
}
