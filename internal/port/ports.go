// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	chatport "github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/port"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
)

// CardStore persists the user's card portfolio.
type CardStore interface {
	// ListCards returns the user's cards in registration order. A user
	// without cards gets an empty slice.
	ListCards(ctx context.Context, userID string) ([]domain.Card, error)

	// SaveCard registers a card. A card whose name the user already
	// registered (case-insensitive) fails with *domain.ErrConflict.
	SaveCard(ctx context.Context, userID string, card *domain.Card) error
}

// RecommendationStore keeps past recommendations for memory retrieval.
type RecommendationStore interface {
	RecordRecommendation(ctx context.Context, rec *domain.RecommendationRecord) error

	// SearchRecommendations returns up to limit of the user's records,
	// newest first, that mention any term of query. A query without terms
	// matches the most recent records.
	SearchRecommendations(ctx context.Context, userID, query string, limit int) ([]domain.RecommendationRecord, error)
}

// Store is a complete persistence backend.
type Store interface {
	CardStore
	RecommendationStore
	chatport.ThreadStore

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close()
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
