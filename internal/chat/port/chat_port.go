// Package port defines the collaborators the conversation flow depends on.
// Every implementation is external to the flow: LLM gateway clients, local
// heuristics, stores. The flow treats each call as either a value or a
// failure and never lets a failure abort the turn.
package port

import (
	"context"

	"github.com/shopspring/decimal"

	chatdomain "github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
)

// IntentClassifier labels a message. The label may be outside the known
// set; strict asks for a more constrained second attempt.
type IntentClassifier interface {
	Classify(ctx context.Context, message string, strict bool) (string, error)
}

// CardExtractor turns card terms into a card. A nil result with a nil error
// means the text holds no card.
type CardExtractor interface {
	ExtractCard(ctx context.Context, text string) (*chatdomain.ParsedCard, error)
}

// TransactionExtractor turns a purchase description into a transaction.
// A nil result with a nil error means no purchase was found.
type TransactionExtractor interface {
	ExtractTransaction(ctx context.Context, text string) (*chatdomain.ParsedTransaction, error)
}

// PortfolioFetcher loads a user's cards. An empty slice is a valid answer.
type PortfolioFetcher interface {
	ListCards(ctx context.Context, userID string) ([]domain.Card, error)
}

// CardSink persists a parsed card. It is only ever called with a non-nil,
// validated card.
type CardSink interface {
	SaveCard(ctx context.Context, userID string, card *domain.Card) error
}

// ExplanationGenerator renders the recommendation for the user. It never
// influences which card is chosen.
type ExplanationGenerator interface {
	Explain(ctx context.Context, tx domain.Transaction, best *domain.Card, breakdown []domain.ScoreEntry) (string, error)
}

// ContextRetriever finds past recommendations relevant to a message.
type ContextRetriever interface {
	SearchRecommendations(ctx context.Context, userID, query string, limit int) ([]domain.RecommendationRecord, error)
}

// HistoryRecorder stores a recommendation for later retrieval.
type HistoryRecorder interface {
	RecordRecommendation(ctx context.Context, rec *domain.RecommendationRecord) error
}

// GeneralResponder answers a message outside the card flows.
type GeneralResponder interface {
	Respond(ctx context.Context, req *chatdomain.GeneralRequest) (string, error)
}

// PriceSearcher looks up the typical price of a named product.
type PriceSearcher interface {
	LookupPrice(ctx context.Context, product string) (decimal.Decimal, error)
}

// ThreadStore checkpoints per-thread message history. LoadThread returns the
// newest limit messages in chronological order; AppendMessages adds the
// messages of one turn. Writers of the same thread are expected to be
// serialized by the store.
type ThreadStore interface {
	LoadThread(ctx context.Context, threadID string, limit int) ([]chatdomain.Message, error)
	AppendMessages(ctx context.Context, threadID, userID string, msgs []chatdomain.Message) error
}
