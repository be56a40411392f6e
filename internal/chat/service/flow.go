// Package service runs one conversation turn through the card-optimiser flow.
//
// ============================================================
// FLOW
// ============================================================
//
//	classify ─┬─ register_card ─> parse_card ─┬─> persist_card ─> respond
//	          │                               └─> respond (need details)
//	          ├─ recommend ─> parse_transaction ─┬─> fetch_portfolio ─┬─> score ─┬─> explain ─> respond
//	          │                                  │                    │          └─> respond (no eligible card)
//	          │                                  │                    └─> respond (empty / unavailable)
//	          │                                  └─> respond (need transaction)
//	          └─ general ─> retrieve_context ─> respond
//
// Choosing the next node is a pure function of FlowState held in the
// transitions table. Every call to a collaborator happens inside a node body.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/port"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/observability"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/reward"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var flowTracer = otel.Tracer("chat/service")

// maxSteps bounds a turn. The longest path visits six nodes.
const maxSteps = 16

// transition selects the node that runs after the current one.
type transition func(s domain.FlowState) domain.StateID

// transitions is the complete edge set of the flow.
var transitions = map[domain.StateID]transition{
	domain.StateClassify: func(s domain.FlowState) domain.StateID {
		switch s.Intent {
		case domain.IntentRegisterCard:
			return domain.StateParseCard
		case domain.IntentRecommend:
			return domain.StateParseTransaction
		default:
			return domain.StateRetrieveContext
		}
	},
	domain.StateParseCard: func(s domain.FlowState) domain.StateID {
		if _, ok := s.ParsedCard(); ok {
			return domain.StatePersistCard
		}
		return domain.StateRespond
	},
	domain.StatePersistCard: always(domain.StateRespond),
	domain.StateParseTransaction: func(s domain.FlowState) domain.StateID {
		if _, ok := s.ParsedTransaction(); ok {
			return domain.StateFetchPortfolio
		}
		return domain.StateRespond
	},
	domain.StateFetchPortfolio: func(s domain.FlowState) domain.StateID {
		if s.Outcome != "" || len(s.Portfolio) == 0 {
			return domain.StateRespond
		}
		return domain.StateScore
	},
	domain.StateScore: func(s domain.FlowState) domain.StateID {
		if s.Recommendation == nil || s.Recommendation.BestCard == nil {
			return domain.StateRespond
		}
		return domain.StateExplain
	},
	domain.StateExplain:         always(domain.StateRespond),
	domain.StateRetrieveContext: always(domain.StateRespond),
	domain.StateRespond:         always(domain.StateEnd),
}

func always(next domain.StateID) transition {
	return func(domain.FlowState) domain.StateID { return next }
}

// Next returns the node that follows current for state s.
func Next(current domain.StateID, s domain.FlowState) (domain.StateID, error) {
	t, ok := transitions[current]
	if !ok {
		return "", fmt.Errorf("flow: no transition from state %q", current)
	}
	return t(s), nil
}

// node is the body of one flow state. It returns the updated state; a non-nil
// error is a contract violation and ends the turn.
type node func(ctx context.Context, s domain.FlowState) (domain.FlowState, error)

// FlowDeps are the collaborators of the flow. Prices, History and Retriever
// may be nil; the corresponding steps are then skipped.
type FlowDeps struct {
	Classifier  port.IntentClassifier
	CardParser  port.CardExtractor
	TxParser    port.TransactionExtractor
	Portfolio   port.PortfolioFetcher
	Sink        port.CardSink
	Explainer   port.ExplanationGenerator
	Retriever   port.ContextRetriever
	History     port.HistoryRecorder
	Responder   port.GeneralResponder
	Prices      port.PriceSearcher
	Scorer      *reward.Scorer
	CallTimeout time.Duration
	MemoryLimit int
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// Flow is the conversation state machine. It keeps no per-turn state and is
// safe for concurrent use across threads.
type Flow struct {
	deps  FlowDeps
	nodes map[domain.StateID]node
}

// NewFlow wires the node bodies to their collaborators.
func NewFlow(deps FlowDeps) *Flow {
	if deps.CallTimeout <= 0 {
		deps.CallTimeout = 20 * time.Second
	}
	if deps.MemoryLimit <= 0 {
		deps.MemoryLimit = 5
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	f := &Flow{deps: deps}
	f.nodes = map[domain.StateID]node{
		domain.StateClassify:         f.classify,
		domain.StateParseCard:        f.parseCard,
		domain.StatePersistCard:      f.persistCard,
		domain.StateParseTransaction: f.parseTransaction,
		domain.StateFetchPortfolio:   f.fetchPortfolio,
		domain.StateScore:            f.score,
		domain.StateExplain:          f.explain,
		domain.StateRetrieveContext:  f.retrieveContext,
		domain.StateRespond:          f.respond,
	}
	return f
}

// Run executes one turn starting at classify and returns the final state.
// The last message of s.Messages must be the user's message for this turn.
func (f *Flow) Run(ctx context.Context, s domain.FlowState) (domain.FlowState, error) {
	ctx, span := flowTracer.Start(ctx, "Flow.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("thread.id", s.ThreadID),
		attribute.Bool("incognito", s.Incognito),
	)

	current := domain.StateClassify
	for step := 0; step < maxSteps; step++ {
		body, ok := f.nodes[current]
		if !ok {
			return s, fmt.Errorf("flow: no node for state %q", current)
		}

		var err error
		s, err = f.runNode(ctx, current, body, s)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return s, err
		}

		next, err := Next(current, s)
		if err != nil {
			return s, err
		}
		f.deps.Logger.Debug("flow transition",
			zap.String("thread_id", s.ThreadID),
			zap.String("from", string(current)),
			zap.String("to", string(next)),
		)
		if next == domain.StateEnd {
			span.SetAttributes(
				attribute.String("intent", string(s.Intent)),
				attribute.String("outcome", string(s.Outcome)),
			)
			return s, nil
		}
		current = next
	}
	return s, fmt.Errorf("flow: exceeded %d steps", maxSteps)
}

func (f *Flow) runNode(ctx context.Context, id domain.StateID, body node, s domain.FlowState) (domain.FlowState, error) {
	ctx, span := flowTracer.Start(ctx, "Flow."+string(id))
	defer span.End()

	start := time.Now()
	out, err := body(ctx, s)
	if f.deps.Metrics != nil {
		f.deps.Metrics.RecordNodeDuration(string(id), time.Since(start))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

// call bounds one collaborator call with the configured timeout.
func (f *Flow) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, f.deps.CallTimeout)
}

// externalFailure logs and counts a degraded collaborator call.
func (f *Flow) externalFailure(service string, s domain.FlowState, err error) {
	f.deps.Logger.Warn("collaborator failed, degrading",
		zap.String("service", service),
		zap.String("thread_id", s.ThreadID),
		zap.Error(err),
	)
	if f.deps.Metrics != nil {
		f.deps.Metrics.IncrExternalError(service)
	}
}
