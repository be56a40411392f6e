package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/domain"
	maindomain "github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/resilience"
)

func newTestChatService(fx *flowFixture, threads *fakeThreads, window int) *ChatService {
	return NewChatService(fx.flow(), threads, resilience.NewBulkhead(4), window, fx.metrics, zap.NewNop())
}

func TestProcessMessage_Validation(t *testing.T) {
	svc := newTestChatService(newFixture(), newFakeThreads(), 10)

	_, err := svc.ProcessMessage(context.Background(), &domain.ChatRequest{UserID: "u-1", Message: "   "})

	var verr *maindomain.ErrValidation
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Message", verr.Field)
}

func TestProcessMessage_GeneratesThreadAndCheckpoints(t *testing.T) {
	fx := newFixture()
	threads := newFakeThreads()
	svc := newTestChatService(fx, threads, 10)

	resp, err := svc.ProcessMessage(context.Background(), &domain.ChatRequest{UserID: "u-1", Message: "hello"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.ThreadID)
	assert.Equal(t, domain.IntentGeneral, resp.Intent)
	assert.Equal(t, domain.OutcomeGeneral, resp.Outcome)
	assert.Equal(t, "hello there", resp.Answer)

	saved := threads.msgs[resp.ThreadID]
	require.Len(t, saved, 2)
	assert.Equal(t, domain.RoleUser, saved[0].Role)
	assert.Equal(t, "hello", saved[0].Content)
	assert.Equal(t, domain.RoleAssistant, saved[1].Role)

	snap := fx.metrics.FlowSnapshot()
	assert.Equal(t, int64(1), snap.TurnsByOutcome["general"])
}

func TestProcessMessage_HistoryWindow(t *testing.T) {
	fx := newFixture()
	threads := newFakeThreads()
	for i := 0; i < 15; i++ {
		threads.msgs["t-9"] = append(threads.msgs["t-9"], domain.Message{Role: domain.RoleUser, Content: "old"})
	}
	svc := newTestChatService(fx, threads, 10)

	_, err := svc.ProcessMessage(context.Background(), &domain.ChatRequest{UserID: "u-1", ThreadID: "t-9", Message: "new"})

	require.NoError(t, err)
	require.NotNil(t, fx.responder.last)
	msgs := fx.responder.last.Messages
	require.Len(t, msgs, 11)
	assert.Equal(t, "new", msgs[10].Content)
	assert.Len(t, threads.msgs["t-9"], 17)
}

func TestProcessMessage_IncognitoNotCheckpointed(t *testing.T) {
	fx := newFixture()
	threads := newFakeThreads()
	threads.msgs["t-2"] = []domain.Message{{Role: domain.RoleUser, Content: "secret"}}
	svc := newTestChatService(fx, threads, 10)

	resp, err := svc.ProcessMessage(context.Background(), &domain.ChatRequest{
		UserID: "u-1", ThreadID: "t-2", Message: "hello", Incognito: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "t-2", resp.ThreadID)
	assert.Zero(t, threads.appends)
	assert.Len(t, fx.responder.last.Messages, 1)
	assert.Zero(t, fx.memory.searches)
}

func TestProcessMessage_ThreadStoreFailureDegrades(t *testing.T) {
	fx := newFixture()
	threads := newFakeThreads()
	threads.loadErr = errDown
	svc := newTestChatService(fx, threads, 10)

	resp, err := svc.ProcessMessage(context.Background(), &domain.ChatRequest{UserID: "u-1", ThreadID: "t-3", Message: "hello"})

	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Answer)
	assert.Equal(t, int64(1), fx.metrics.FlowSnapshot().ExternalErrors["thread_store"])
}

func TestProcessMessage_RecommendationReturned(t *testing.T) {
	fx := newFixture()
	fx.classifier.labels = []string{"recommend"}
	fx.txParser.result = parsedTx(t, "uber eats", 500, "", "")
	fx.cards.cards = []maindomain.Card{uberCard()}
	svc := newTestChatService(fx, newFakeThreads(), 10)

	resp, err := svc.ProcessMessage(context.Background(), &domain.ChatRequest{UserID: "u-1", Message: "500 on uber eats"})

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRecommended, resp.Outcome)
	require.NotNil(t, resp.Recommendation)
	assert.Equal(t, "Swiggy HDFC", resp.Recommendation.BestCard.Name)
}

func TestProcessMessage_ConcurrentThreads(t *testing.T) {
	fx := newFixture()
	threads := newFakeThreads()
	svc := NewChatService(
		NewFlow(FlowDeps{
			Classifier: staticClassifier{},
			CardParser: fx.cardParser,
			TxParser:   fx.txParser,
			Portfolio:  fx.cards,
			Sink:       fx.cards,
			Responder:  staticResponder{},
			Scorer:     fx.flow().deps.Scorer,
			Logger:     zap.NewNop(),
		}),
		threads, resilience.NewBulkhead(2), 10, nil, zap.NewNop(),
	)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.ProcessMessage(context.Background(), &domain.ChatRequest{
				UserID: "u", ThreadID: string(rune('a' + i)), Message: "hi",
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, threads.appends)
}

// Stateless collaborators for the concurrency test.
type staticClassifier struct{}

func (staticClassifier) Classify(context.Context, string, bool) (string, error) {
	return "general", nil
}

type staticResponder struct{}

func (staticResponder) Respond(context.Context, *domain.GeneralRequest) (string, error) {
	return "ok", nil
}
