package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	chatinfra "github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/infra"
	chatport "github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/port"
	chatservice "github.com/jatinverma85276/Credit-Card-Optimiser/internal/chat/service"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/config"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/cache"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/client"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/memstore"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/observability"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/postgres"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/resilience"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/supabase"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/port"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/reward"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/service"
)

// memoryLimit is how many past recommendations a general turn may recall.
const memoryLimit = 5

// app is the wired object graph shared by the serve and telegram commands.
type app struct {
	store     port.Store
	storeName string
	chat      *chatservice.ChatService
	portfolio *service.PortfolioService
	metrics   *observability.Metrics
}

func (a *app) Close() { a.store.Close() }

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	metrics := observability.NewMetrics()
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	// --- Storage ---
	store, storeName, err := openStore(ctx, cfg, httpClient, resilienceCfg, logger)
	if err != nil {
		return nil, err
	}

	// --- Language agent or offline fallbacks ---
	var classifier chatport.IntentClassifier = chatinfra.KeywordClassifier{}
	var cardParser chatport.CardExtractor = chatinfra.JSONCardExtractor{}
	var txParser chatport.TransactionExtractor = chatinfra.HeuristicTransactionExtractor{}
	var explainer chatport.ExplanationGenerator
	var responder chatport.GeneralResponder
	if cfg.AgentAPIURL != "" {
		agent := chatinfra.NewAgentClient(httpClient, cfg.AgentAPIURL, resilience.NewCircuitBreaker("agent"), resilienceCfg)
		classifier, cardParser, txParser = agent, agent, agent
		explainer, responder = agent, agent
		logger.Info("language agent enabled", zap.String("url", cfg.AgentAPIURL))
	} else {
		logger.Warn("AGENT_API_URL not set, using keyword classifier and local extractors")
	}

	// --- Price search ---
	var prices chatport.PriceSearcher
	if cfg.PriceSearchAPIKey != "" {
		prices = client.NewPriceClient(
			httpClient,
			cfg.PriceSearchURL,
			cfg.PriceSearchAPIKey,
			resilience.NewCircuitBreaker("price_search"),
			resilienceCfg,
			cache.New[decimal.Decimal](cfg.CacheTTL),
			metrics,
			logger,
		)
	}

	// --- Services ---
	scorer := reward.NewScorer(logger)
	flow := chatservice.NewFlow(chatservice.FlowDeps{
		Classifier:  classifier,
		CardParser:  cardParser,
		TxParser:    txParser,
		Portfolio:   store,
		Sink:        store,
		Explainer:   explainer,
		Retriever:   store,
		History:     store,
		Responder:   responder,
		Prices:      prices,
		Scorer:      scorer,
		CallTimeout: cfg.CallTimeout,
		MemoryLimit: memoryLimit,
		Metrics:     metrics,
		Logger:      logger,
	})

	return &app{
		store:     store,
		storeName: storeName,
		chat: chatservice.NewChatService(
			flow, store, resilience.NewBulkhead(cfg.MaxConcurrency), cfg.HistoryWindow, metrics, logger,
		),
		portfolio: service.NewPortfolioService(store, store, prices, scorer, metrics, logger),
		metrics:   metrics,
	}, nil
}

// openStore picks Supabase, then Postgres, then the in-memory store.
func openStore(ctx context.Context, cfg *config.Config, httpClient *http.Client, rcfg resilience.Config, logger *zap.Logger) (port.Store, string, error) {
	switch {
	case cfg.SupabaseEnabled():
		logger.Info("using Supabase as data backend", zap.String("supabase_url", cfg.SupabaseURL))
		return supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			rcfg,
			logger,
		), "supabase", nil
	case cfg.DatabaseURL != "":
		logger.Info("using Postgres as data backend")
		store, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, "", fmt.Errorf("open postgres: %w", err)
		}
		return store, "postgres", nil
	default:
		logger.Warn("no database configured, data is kept in memory only")
		return memstore.New(), "memory", nil
	}
}
