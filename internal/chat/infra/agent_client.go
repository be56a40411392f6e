package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/domain"
	maindomain "github.com/jatinverma85276/Credit-Card-Optimiser/internal/domain"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/resilience"
)

var tracer = otel.Tracer("chat/infra")

// ============================================================
// AgentClient: HTTP client for the LLM gateway
// ============================================================
//
// The gateway owns every prompt; this client only speaks its JSON contract:
//
//	POST /v1/classify             {"message", "strict"}         -> {"label"}
//	POST /v1/extract/card         {"text"}                      -> {"card", "extracted_from_user"}
//	POST /v1/extract/transaction  {"text"}                      -> {"found", "merchant", "amount", "category", "product"}
//	POST /v1/explain              {"transaction", "best_card", "breakdown"} -> {"text"}
//	POST /v1/chat                 {"user_id", "messages", "memory_context"} -> {"answer"}
//
// Every call runs through the circuit breaker and retry policy. 4xx answers
// are not retried.

// AgentClient implements the classifier, both extractors, the explanation
// generator and the general responder on top of the gateway.
type AgentClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewAgentClient creates the client. baseURL has no trailing slash.
func NewAgentClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *AgentClient {
	return &AgentClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cb:         cb,
		cfg:        cfg,
	}
}

type classifyRequest struct {
	Message string `json:"message"`
	Strict  bool   `json:"strict"`
}

type classifyResponse struct {
	Label string `json:"label"`
}

// Classify returns the gateway's label verbatim; validating it is the
// caller's job.
func (c *AgentClient) Classify(ctx context.Context, message string, strict bool) (string, error) {
	ctx, span := tracer.Start(ctx, "AgentClient.Classify")
	defer span.End()
	span.SetAttributes(attribute.Bool("strict", strict))

	var resp classifyResponse
	if err := c.post(ctx, "/v1/classify", classifyRequest{Message: message, Strict: strict}, &resp); err != nil {
		return "", err
	}
	return resp.Label, nil
}

type extractRequest struct {
	Text string `json:"text"`
}

type extractCardResponse struct {
	Card              *maindomain.Card `json:"card"`
	ExtractedFromUser bool             `json:"extracted_from_user"`
}

// ExtractCard returns nil when the gateway found no card.
func (c *AgentClient) ExtractCard(ctx context.Context, text string) (*domain.ParsedCard, error) {
	ctx, span := tracer.Start(ctx, "AgentClient.ExtractCard")
	defer span.End()

	var resp extractCardResponse
	if err := c.post(ctx, "/v1/extract/card", extractRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	if resp.Card == nil {
		return nil, nil
	}
	return &domain.ParsedCard{Card: *resp.Card, ExtractedFromUser: resp.ExtractedFromUser}, nil
}

type extractTransactionResponse struct {
	Found    bool            `json:"found"`
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
	Product  string          `json:"product"`
}

// ExtractTransaction returns nil when the gateway found no purchase or the
// purchase it found is not a valid transaction.
func (c *AgentClient) ExtractTransaction(ctx context.Context, text string) (*domain.ParsedTransaction, error) {
	ctx, span := tracer.Start(ctx, "AgentClient.ExtractTransaction")
	defer span.End()

	var resp extractTransactionResponse
	if err := c.post(ctx, "/v1/extract/transaction", extractRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	tx, err := maindomain.NewTransaction(resp.Merchant, resp.Amount, resp.Category)
	if err != nil {
		return nil, nil
	}
	return &domain.ParsedTransaction{Transaction: tx, Product: strings.TrimSpace(resp.Product)}, nil
}

type explainRequest struct {
	Transaction maindomain.TransactionView `json:"transaction"`
	BestCard    *maindomain.Card           `json:"best_card"`
	Breakdown   []maindomain.ScoreEntry    `json:"breakdown"`
}

type textResponse struct {
	Text string `json:"text"`
}

// Explain asks the gateway to phrase the recommendation.
func (c *AgentClient) Explain(ctx context.Context, tx maindomain.Transaction, best *maindomain.Card, breakdown []maindomain.ScoreEntry) (string, error) {
	ctx, span := tracer.Start(ctx, "AgentClient.Explain")
	defer span.End()

	var resp textResponse
	req := explainRequest{Transaction: tx.View(), BestCard: best, Breakdown: breakdown}
	if err := c.post(ctx, "/v1/explain", req, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

type chatResponse struct {
	Answer     string `json:"answer"`
	TokensUsed int    `json:"tokens_used,omitempty"`
}

// Respond answers a general message with the conversation and memory context.
func (c *AgentClient) Respond(ctx context.Context, req *domain.GeneralRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "AgentClient.Respond")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", req.UserID),
		attribute.Int("messages", len(req.Messages)),
	)

	var resp chatResponse
	if err := c.post(ctx, "/v1/chat", req, &resp); err != nil {
		return "", err
	}
	span.SetAttributes(attribute.Int("tokens_used", resp.TokensUsed))
	return resp.Answer, nil
}

// post sends body as JSON to path and decodes a 200 answer into out.
func (c *AgentClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	_, err = resilience.Call(ctx, c.cb, c.cfg, "agent", func(ctx context.Context) (struct{}, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, resilience.Permanent(fmt.Errorf("create request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return struct{}{}, fmt.Errorf("call agent %s: %w", path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			statusErr := fmt.Errorf("agent %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return struct{}{}, resilience.Permanent(statusErr)
			}
			return struct{}{}, statusErr
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, resilience.Permanent(fmt.Errorf("decode agent %s response: %w", path, err))
		}
		return struct{}{}, nil
	})
	return err
}
