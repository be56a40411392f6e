// Package memstore is an in-process persistence backend for local runs and
// tests. Nothing survives a restart.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	chatdomain "github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
)

// Store implements port.Store in memory. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	cards   map[string][]domain.Card
	recs    map[string][]domain.RecommendationRecord
	threads map[string][]chatdomain.Message
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		cards:   make(map[string][]domain.Card),
		recs:    make(map[string][]domain.RecommendationRecord),
		threads: make(map[string][]chatdomain.Message),
	}
}

// ============================================================
// Cards
// ============================================================

func (s *Store) ListCards(_ context.Context, userID string) ([]domain.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Card{}, s.cards[userID]...), nil
}

func (s *Store) SaveCard(_ context.Context, userID string, card *domain.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.cards[userID] {
		if strings.EqualFold(c.Name, card.Name) {
			return &domain.ErrConflict{Message: "card already registered: " + card.Name}
		}
	}

	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	card.UserID = userID
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now().UTC()
	}
	s.cards[userID] = append(s.cards[userID], *card)
	return nil
}

// ============================================================
// Recommendation history
// ============================================================

func (s *Store) RecordRecommendation(_ context.Context, rec *domain.RecommendationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := *rec
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.recs[r.UserID] = append(s.recs[r.UserID], r)
	return nil
}

func (s *Store) SearchRecommendations(_ context.Context, userID, query string, limit int) ([]domain.RecommendationRecord, error) {
	s.mu.RLock()
	all := append([]domain.RecommendationRecord(nil), s.recs[userID]...)
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	terms := domain.SearchTerms(query)
	out := []domain.RecommendationRecord{}
	for i := range all {
		if limit > 0 && len(out) == limit {
			break
		}
		if all[i].Mentions(terms) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// ============================================================
// Threads
// ============================================================

func (s *Store) LoadThread(_ context.Context, threadID string, limit int) ([]chatdomain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return chatdomain.Window(s.threads[threadID], limit), nil
}

func (s *Store) AppendMessages(_ context.Context, threadID, _ string, msgs []chatdomain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[threadID] = append(s.threads[threadID], msgs...)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}
