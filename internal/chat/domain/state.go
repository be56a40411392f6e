package domain

import "github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"

// StateID names a node of the conversation flow.
type StateID string

const (
	StateClassify         StateID = "classify"
	StateParseCard        StateID = "parse_card"
	StatePersistCard      StateID = "persist_card"
	StateParseTransaction StateID = "parse_transaction"
	StateFetchPortfolio   StateID = "fetch_portfolio"
	StateScore            StateID = "score"
	StateExplain          StateID = "explain"
	StateRetrieveContext  StateID = "retrieve_context"
	StateRespond          StateID = "respond"

	// StateEnd is not a node; it marks the end of the turn.
	StateEnd StateID = "end"
)

// FlowState is the per-turn record threaded through the flow. Nodes receive
// it by value and return the updated copy; nothing else holds it.
type FlowState struct {
	ThreadID  string
	UserID    string
	Messages  []Message
	Incognito bool

	Intent             Intent
	ClassifierFallback bool

	Parsed         ParsedEntity
	Portfolio      []domain.Card
	Recommendation *domain.Recommendation
	MemoryContext  string

	Outcome Outcome
	Reply   string
}

// LastUserMessage returns the content of the most recent user message.
func (s FlowState) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// ParsedCard returns the parsed card, if the parsed entity is one.
func (s FlowState) ParsedCard() (*ParsedCard, bool) {
	pc, ok := s.Parsed.(*ParsedCard)
	return pc, ok && pc != nil
}

// ParsedTransaction returns the parsed transaction, if the parsed entity is one.
func (s FlowState) ParsedTransaction() (*ParsedTransaction, bool) {
	pt, ok := s.Parsed.(*ParsedTransaction)
	return pt, ok && pt != nil
}
