package service

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/domain"
	maindomain "github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
)

var errDown = errors.New("service down")

// fakeClassifier answers from a queue of labels; an empty queue returns
// "general".
type fakeClassifier struct {
	labels []string
	errs   []error
	calls  []bool // strict flag of each call
}

func (f *fakeClassifier) Classify(_ context.Context, _ string, strict bool) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, strict)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.labels) {
		return f.labels[i], nil
	}
	return "general", nil
}

type fakeCardParser struct {
	result *domain.ParsedCard
	err    error
	calls  int
}

func (f *fakeCardParser) ExtractCard(context.Context, string) (*domain.ParsedCard, error) {
	f.calls++
	return f.result, f.err
}

type fakeTxParser struct {
	result *domain.ParsedTransaction
	err    error
	calls  int
}

func (f *fakeTxParser) ExtractTransaction(context.Context, string) (*domain.ParsedTransaction, error) {
	f.calls++
	return f.result, f.err
}

type fakeCardStore struct {
	mu      sync.Mutex
	cards   []maindomain.Card
	listErr error
	saveErr error
	saves   int
	lists   int
}

func (f *fakeCardStore) ListCards(context.Context, string) ([]maindomain.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]maindomain.Card(nil), f.cards...), nil
}

func (f *fakeCardStore) SaveCard(_ context.Context, _ string, card *maindomain.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.cards = append(f.cards, *card)
	return nil
}

type fakeExplainer struct {
	text  string
	err   error
	calls int
}

func (f *fakeExplainer) Explain(context.Context, maindomain.Transaction, *maindomain.Card, []maindomain.ScoreEntry) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeMemory struct {
	records  []maindomain.RecommendationRecord
	err      error
	searches int
	recorded []maindomain.RecommendationRecord
}

func (f *fakeMemory) SearchRecommendations(context.Context, string, string, int) ([]maindomain.RecommendationRecord, error) {
	f.searches++
	return f.records, f.err
}

func (f *fakeMemory) RecordRecommendation(_ context.Context, rec *maindomain.RecommendationRecord) error {
	f.recorded = append(f.recorded, *rec)
	return nil
}

type fakeResponder struct {
	answer string
	err    error
	last   *domain.GeneralRequest
}

func (f *fakeResponder) Respond(_ context.Context, req *domain.GeneralRequest) (string, error) {
	f.last = req
	return f.answer, f.err
}

type fakePrices struct {
	price decimal.Decimal
	err   error
	calls int
}

func (f *fakePrices) LookupPrice(context.Context, string) (decimal.Decimal, error) {
	f.calls++
	return f.price, f.err
}

type fakeThreads struct {
	mu      sync.Mutex
	msgs    map[string][]domain.Message
	loadErr error
	appends int
}

func newFakeThreads() *fakeThreads {
	return &fakeThreads{msgs: make(map[string][]domain.Message)}
}

func (f *fakeThreads) LoadThread(_ context.Context, threadID string, limit int) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return domain.Window(f.msgs[threadID], limit), nil
}

func (f *fakeThreads) AppendMessages(_ context.Context, threadID, _ string, msgs []domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends++
	f.msgs[threadID] = append(f.msgs[threadID], msgs...)
	return nil
}
