package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/port"
	maindomain "github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/observability"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/resilience"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/validator"
)

// ============================================================
// ChatService: one turn per call
// ============================================================

// ChatService loads the thread, runs the flow and checkpoints the result.
//
// Turns of different threads run concurrently, bounded by the bulkhead.
// Turns of the same thread are serialized by the thread store, not here.
type ChatService struct {
	flow          *Flow
	threads       port.ThreadStore
	bulkhead      *resilience.Bulkhead
	historyWindow int
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// NewChatService creates the ChatService. threads may be nil, in which case
// every turn starts with an empty history.
func NewChatService(
	flow *Flow,
	threads port.ThreadStore,
	bulkhead *resilience.Bulkhead,
	historyWindow int,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		flow:          flow,
		threads:       threads,
		bulkhead:      bulkhead,
		historyWindow: historyWindow,
		metrics:       metrics,
		logger:        logger,
	}
}

// ProcessMessage runs one conversation turn.
//
// Incognito turns neither read nor write the thread history, and their
// recommendations are not recorded.
func (s *ChatService) ProcessMessage(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := flowTracer.Start(ctx, "ChatService.ProcessMessage")
	defer span.End()

	start := time.Now()

	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	if s.bulkhead != nil {
		if err := s.bulkhead.Acquire(ctx); err != nil {
			return nil, &maindomain.ErrTimeout{Operation: "chat turn admission"}
		}
		defer s.bulkhead.Release()
	}

	threadID := strings.TrimSpace(req.ThreadID)
	if threadID == "" {
		threadID = uuid.NewString()
	}
	span.SetAttributes(
		attribute.String("user.id", req.UserID),
		attribute.String("thread.id", threadID),
	)

	history := s.loadHistory(ctx, threadID, req.Incognito)
	userMsg := domain.Message{
		Role:      domain.RoleUser,
		Content:   strings.TrimSpace(req.Message),
		CreatedAt: time.Now().UTC(),
	}

	state := domain.FlowState{
		ThreadID:  threadID,
		UserID:    req.UserID,
		Messages:  append(history, userMsg),
		Incognito: req.Incognito,
	}

	final, err := s.flow.Run(ctx, state)
	if err != nil {
		s.logger.Error("chat turn failed",
			zap.String("user_id", req.UserID),
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
		s.observe("error", start, final)
		return nil, err
	}

	if !req.Incognito {
		s.saveTurn(ctx, threadID, req.UserID, final.Messages[len(history):])
	}

	s.observe("success", start, final)
	s.logger.Info("chat turn completed",
		zap.String("user_id", req.UserID),
		zap.String("thread_id", threadID),
		zap.String("intent", string(final.Intent)),
		zap.String("outcome", string(final.Outcome)),
		zap.Bool("classifier_fallback", final.ClassifierFallback),
		zap.Bool("incognito", req.Incognito),
		zap.Duration("latency", time.Since(start)),
	)

	resp := &domain.ChatResponse{
		ThreadID: threadID,
		Answer:   final.Reply,
		Intent:   final.Intent,
		Outcome:  final.Outcome,
	}
	if final.Outcome == domain.OutcomeRecommended || final.Outcome == domain.OutcomeNoEligibleCard {
		resp.Recommendation = final.Recommendation
	}
	return resp, nil
}

// loadHistory returns the recent window of the thread. Failures degrade to
// an empty history.
func (s *ChatService) loadHistory(ctx context.Context, threadID string, incognito bool) []domain.Message {
	if incognito || s.threads == nil {
		return nil
	}

	msgs, err := s.threads.LoadThread(ctx, threadID, s.historyWindow)
	if err != nil {
		s.logger.Warn("thread load failed, starting empty",
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.IncrExternalError("thread_store")
		}
		return nil
	}
	return domain.Window(msgs, s.historyWindow)
}

func (s *ChatService) saveTurn(ctx context.Context, threadID, userID string, msgs []domain.Message) {
	if s.threads == nil || len(msgs) == 0 {
		return
	}
	if err := s.threads.AppendMessages(ctx, threadID, userID, msgs); err != nil {
		s.logger.Warn("thread checkpoint failed",
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.IncrExternalError("thread_store")
		}
	}
}

func (s *ChatService) observe(status string, start time.Time, final domain.FlowState) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncrRequest(status)
	s.metrics.RecordRequestDuration("chat_turn", time.Since(start))
	if status == "success" {
		s.metrics.IncrTurn(string(final.Intent), string(final.Outcome))
	}
}
