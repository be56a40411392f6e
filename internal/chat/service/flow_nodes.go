package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/domain"
	maindomain "github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/validator"
)

// AddCardCommand prefixes messages that register a card.
const AddCardCommand = "/add_card"

// ============================================================
// classify
// ============================================================

// classify asks the classifier for a label. An out-of-set label or a failed
// call gets one strict retry; if that is unusable too the turn is general.
func (f *Flow) classify(ctx context.Context, s domain.FlowState) (domain.FlowState, error) {
	msg := s.LastUserMessage()

	for _, strict := range []bool{false, true} {
		intent, err := f.classifyOnce(ctx, msg, strict)
		if err != nil {
			f.externalFailure("classifier", s, err)
			continue
		}
		if intent != "" {
			s.Intent = intent
			return s, nil
		}
	}

	s.Intent = domain.IntentGeneral
	s.ClassifierFallback = true
	if f.deps.Metrics != nil {
		f.deps.Metrics.IncrClassifierFallback()
	}
	f.deps.Logger.Info("classifier fallback to general", zap.String("thread_id", s.ThreadID))
	return s, nil
}

// classifyOnce returns "" for a label outside the known set.
func (f *Flow) classifyOnce(ctx context.Context, msg string, strict bool) (domain.Intent, error) {
	callCtx, cancel := f.call(ctx)
	defer cancel()

	label, err := f.deps.Classifier.Classify(callCtx, msg, strict)
	if err != nil {
		return "", err
	}
	intent, ok := domain.ParseIntent(label)
	if !ok {
		f.deps.Logger.Warn("classifier returned unknown label",
			zap.String("label", label),
			zap.Bool("strict", strict),
		)
		return "", nil
	}
	return intent, nil
}

// ============================================================
// register_card path
// ============================================================

// parseCard extracts a card from the message. Blank input never reaches the
// extractor. Anything short of a valid, user-supplied card leaves Parsed nil.
func (f *Flow) parseCard(ctx context.Context, s domain.FlowState) (domain.FlowState, error) {
	s.Parsed = nil
	raw := StripCommand(s.LastUserMessage(), AddCardCommand)
	if raw == "" {
		s.Outcome = domain.OutcomeNeedCardDetails
		return s, nil
	}

	callCtx, cancel := f.call(ctx)
	defer cancel()

	parsed, err := f.deps.CardParser.ExtractCard(callCtx, raw)
	if err != nil {
		f.externalFailure("card_extractor", s, err)
		parsed = nil
	}
	if parsed == nil || !parsed.ExtractedFromUser {
		s.Outcome = domain.OutcomeNeedCardDetails
		return s, nil
	}

	card := parsed.Card
	card.Name = strings.TrimSpace(card.Name)
	if err := validator.Struct(card); err != nil {
		f.deps.Logger.Info("parsed card rejected",
			zap.String("thread_id", s.ThreadID),
			zap.Error(err),
		)
		s.Outcome = domain.OutcomeNeedCardDetails
		return s, nil
	}

	s.Parsed = &domain.ParsedCard{Card: card, ExtractedFromUser: true}
	return s, nil
}

// persistCard hands the parsed card to the sink. Reaching it without a card
// is a wiring bug.
func (f *Flow) persistCard(ctx context.Context, s domain.FlowState) (domain.FlowState, error) {
	pc, ok := s.ParsedCard()
	if !ok {
		return s, maindomain.ErrNoParsedCard
	}

	card := pc.Card
	card.UserID = s.UserID
	if card.ID == "" {
		card.ID = uuid.NewString()
	}

	callCtx, cancel := f.call(ctx)
	defer cancel()

	if err := f.deps.Sink.SaveCard(callCtx, s.UserID, &card); err != nil {
		var conflict *maindomain.ErrConflict
		if !errors.As(err, &conflict) {
			f.externalFailure("card_store", s, err)
		}
		s.Parsed = &domain.ParsedCard{Card: card, ExtractedFromUser: true}
		s.Outcome = domain.OutcomeCardNotSaved
		s.Reply = cardNotSavedReply(card.Name, err)
		return s, nil
	}

	f.deps.Logger.Info("card registered",
		zap.String("user_id", s.UserID),
		zap.String("card", card.Name),
		zap.Int("rules", len(card.RewardRules)),
	)
	s.Parsed = &domain.ParsedCard{Card: card, ExtractedFromUser: true}
	s.Outcome = domain.OutcomeCardAdded
	return s, nil
}

// ============================================================
// recommend path
// ============================================================

// parseTransaction extracts the purchase, normalizes its category and, when
// only a product was named, looks up its price.
func (f *Flow) parseTransaction(ctx context.Context, s domain.FlowState) (domain.FlowState, error) {
	s.Parsed = nil
	raw := strings.TrimSpace(s.LastUserMessage())
	if raw == "" {
		s.Outcome = domain.OutcomeNeedTransaction
		return s, nil
	}

	callCtx, cancel := f.call(ctx)
	parsed, err := f.deps.TxParser.ExtractTransaction(callCtx, raw)
	cancel()
	if err != nil {
		f.externalFailure("transaction_extractor", s, err)
		parsed = nil
	}
	if parsed == nil {
		s.Outcome = domain.OutcomeNeedTransaction
		return s, nil
	}

	tx, err := maindomain.NewTransaction(
		parsed.Transaction.Merchant(),
		parsed.Transaction.Amount(),
		NormalizeCategory(parsed.Transaction.Category()),
	)
	if err != nil {
		s.Outcome = domain.OutcomeNeedTransaction
		return s, nil
	}

	if tx.Amount().IsZero() && parsed.Product != "" && f.deps.Prices != nil {
		tx = f.lookupPrice(ctx, s, tx, parsed.Product)
	}

	s.Parsed = &domain.ParsedTransaction{Transaction: tx, Product: parsed.Product}
	return s, nil
}

// lookupPrice degrades to the unchanged (zero-amount) transaction on failure.
func (f *Flow) lookupPrice(ctx context.Context, s domain.FlowState, tx maindomain.Transaction, product string) maindomain.Transaction {
	callCtx, cancel := f.call(ctx)
	defer cancel()

	price, err := f.deps.Prices.LookupPrice(callCtx, product)
	if err != nil {
		f.externalFailure("price_search", s, err)
		return tx
	}
	priced, err := tx.WithAmount(price)
	if err != nil {
		return tx
	}
	f.deps.Logger.Debug("product price resolved",
		zap.String("product", product),
		zap.String("price", price.String()),
	)
	return priced
}

// fetchPortfolio loads the user's cards fresh for this turn.
func (f *Flow) fetchPortfolio(ctx context.Context, s domain.FlowState) (domain.FlowState, error) {
	callCtx, cancel := f.call(ctx)
	defer cancel()

	cards, err := f.deps.Portfolio.ListCards(callCtx, s.UserID)
	if err != nil {
		f.externalFailure("card_store", s, err)
		s.Portfolio = nil
		s.Outcome = domain.OutcomePortfolioUnavailable
		return s, nil
	}

	s.Portfolio = cards
	if len(cards) == 0 {
		s.Outcome = domain.OutcomeEmptyPortfolio
	}
	return s, nil
}

// score runs the Scorer over the fetched portfolio.
func (f *Flow) score(_ context.Context, s domain.FlowState) (domain.FlowState, error) {
	pt, ok := s.ParsedTransaction()
	if !ok {
		return s, maindomain.ErrNoTransaction
	}

	rec, err := f.deps.Scorer.Recommend(&pt.Transaction, s.Portfolio)
	if err != nil {
		return s, err
	}
	if f.deps.Metrics != nil {
		f.deps.Metrics.ObservePortfolioSize(len(s.Portfolio))
	}

	s.Recommendation = rec
	if rec.BestCard == nil {
		s.Outcome = domain.OutcomeNoEligibleCard
	}
	return s, nil
}

// explain renders the recommendation, falling back to a fixed template.
func (f *Flow) explain(ctx context.Context, s domain.FlowState) (domain.FlowState, error) {
	pt, ok := s.ParsedTransaction()
	rec := s.Recommendation
	if !ok || rec == nil || rec.BestCard == nil {
		return s, maindomain.ErrNoTransaction
	}
	s.Outcome = domain.OutcomeRecommended

	if f.deps.Explainer != nil {
		callCtx, cancel := f.call(ctx)
		text, err := f.deps.Explainer.Explain(callCtx, pt.Transaction, rec.BestCard, rec.Breakdown)
		cancel()
		if err == nil && strings.TrimSpace(text) != "" {
			s.Reply = text
			return s, nil
		}
		if err != nil {
			f.externalFailure("explainer", s, err)
		}
	}

	s.Reply = TemplateExplanation(pt.Transaction, rec)
	return s, nil
}

// ============================================================
// general path
// ============================================================

// retrieveContext searches the user's past recommendations. Incognito turns
// get no context and touch no store.
func (f *Flow) retrieveContext(ctx context.Context, s domain.FlowState) (domain.FlowState, error) {
	s.MemoryContext = ""
	if s.Incognito || f.deps.Retriever == nil {
		return s, nil
	}

	callCtx, cancel := f.call(ctx)
	defer cancel()

	records, err := f.deps.Retriever.SearchRecommendations(callCtx, s.UserID, s.LastUserMessage(), f.deps.MemoryLimit)
	if err != nil {
		f.externalFailure("memory", s, err)
		return s, nil
	}
	s.MemoryContext = FormatMemoryContext(records)
	return s, nil
}

// ============================================================
// respond
// ============================================================

// respond produces the reply for the outcome reached, records a completed
// recommendation and appends the reply to the history.
func (f *Flow) respond(ctx context.Context, s domain.FlowState) (domain.FlowState, error) {
	if s.Outcome == "" {
		s.Outcome = domain.OutcomeGeneral
	}

	switch s.Outcome {
	case domain.OutcomeGeneral:
		s.Reply = f.generalAnswer(ctx, s)
	case domain.OutcomeRecommended:
		f.recordRecommendation(ctx, s)
	}
	if s.Reply == "" {
		s.Reply = RenderReply(s)
	}

	msgs := s.Messages[:len(s.Messages):len(s.Messages)]
	s.Messages = append(msgs, domain.Message{
		Role:      domain.RoleAssistant,
		Content:   s.Reply,
		CreatedAt: time.Now().UTC(),
	})
	return s, nil
}

func (f *Flow) generalAnswer(ctx context.Context, s domain.FlowState) string {
	if f.deps.Responder == nil {
		return fallbackGeneralReply
	}

	callCtx, cancel := f.call(ctx)
	defer cancel()

	answer, err := f.deps.Responder.Respond(callCtx, &domain.GeneralRequest{
		UserID:        s.UserID,
		Messages:      s.Messages,
		MemoryContext: s.MemoryContext,
	})
	if err != nil || strings.TrimSpace(answer) == "" {
		if err != nil {
			f.externalFailure("responder", s, err)
		}
		return fallbackGeneralReply
	}
	return answer
}

// recordRecommendation stores the chosen card for later memory retrieval.
// Incognito turns are never recorded; failures are logged only.
func (f *Flow) recordRecommendation(ctx context.Context, s domain.FlowState) {
	if s.Incognito || f.deps.History == nil {
		return
	}
	pt, ok := s.ParsedTransaction()
	if !ok || s.Recommendation == nil {
		return
	}
	entry, ok := s.Recommendation.BestEntry()
	if !ok {
		return
	}

	callCtx, cancel := f.call(ctx)
	defer cancel()

	tx := pt.Transaction
	err := f.deps.History.RecordRecommendation(callCtx, &maindomain.RecommendationRecord{
		ID:              uuid.NewString(),
		UserID:          s.UserID,
		Merchant:        tx.Merchant(),
		Category:        tx.Category(),
		Amount:          tx.Amount(),
		RecommendedCard: entry.CardName,
		RewardPoints:    entry.Points,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		f.externalFailure("history", s, err)
	}
}
