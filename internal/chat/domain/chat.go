// Package domain holds the types of one conversation turn: the request and
// response of the chat API, the message history, the intent labels and the
// FlowState record threaded through the flow controller.
//
// A turn always ends in exactly one Outcome. Outcomes are expected states
// (an empty portfolio is an outcome, not an error); only caller contract
// violations surface as Go errors.
package domain

import (
	"strings"
	"time"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
)

// ============================================================
// Chat API
// ============================================================

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	UserID    string `json:"userId" validate:"required,notblank"`
	ThreadID  string `json:"threadId,omitempty"`
	Message   string `json:"message" validate:"required,notblank"`
	Incognito bool   `json:"incognito,omitempty"`
}

// ChatResponse is returned for every completed turn.
type ChatResponse struct {
	ThreadID       string                 `json:"threadId"`
	Answer         string                 `json:"answer"`
	Intent         Intent                 `json:"intent"`
	Outcome        Outcome                `json:"outcome"`
	Recommendation *domain.Recommendation `json:"recommendation,omitempty"`
}

// ============================================================
// Messages
// ============================================================

// Role of a message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a thread's history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Window returns the last n messages of msgs (all of them if n <= 0 or
// len(msgs) <= n). The result never aliases a prefix the caller may append to.
func Window(msgs []Message, n int) []Message {
	if n <= 0 || len(msgs) <= n {
		return append([]Message(nil), msgs...)
	}
	return append([]Message(nil), msgs[len(msgs)-n:]...)
}

// ============================================================
// Intent
// ============================================================

// Intent is the label produced by the intent classifier.
type Intent string

const (
	IntentRegisterCard Intent = "register_card"
	IntentRecommend    Intent = "recommend"
	IntentGeneral      Intent = "general"
)

// ParseIntent accepts exactly the three known labels (case-insensitive,
// surrounding whitespace ignored).
func ParseIntent(label string) (Intent, bool) {
	switch Intent(strings.ToLower(strings.TrimSpace(label))) {
	case IntentRegisterCard:
		return IntentRegisterCard, true
	case IntentRecommend:
		return IntentRecommend, true
	case IntentGeneral:
		return IntentGeneral, true
	}
	return "", false
}

// ============================================================
// Outcome
// ============================================================

// Outcome is the terminal result of a turn.
type Outcome string

const (
	OutcomeCardAdded            Outcome = "card_added"
	OutcomeCardNotSaved         Outcome = "card_not_saved"
	OutcomeNeedCardDetails      Outcome = "need_card_details"
	OutcomeNeedTransaction      Outcome = "need_transaction"
	OutcomeEmptyPortfolio       Outcome = "empty_portfolio"
	OutcomePortfolioUnavailable Outcome = "portfolio_unavailable"
	OutcomeNoEligibleCard       Outcome = "no_eligible_card"
	OutcomeRecommended          Outcome = "recommended"
	OutcomeGeneral              Outcome = "general"
)

// ============================================================
// Agent gateway wire types
// ============================================================

// GeneralRequest is what the general responder receives: the conversation so
// far and any retrieved memory context.
type GeneralRequest struct {
	UserID        string    `json:"user_id"`
	Messages      []Message `json:"messages"`
	MemoryContext string    `json:"memory_context,omitempty"`
}
