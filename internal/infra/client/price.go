package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/cache"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/observability"
	"github.com/jatinverma85276/Credit-Card-Optimiser/internal/infra/resilience"
)

var tracer = otel.Tracer("client")

// Plausible prices lie strictly inside (minPrice, maxPrice) rupees.
var (
	minPrice = decimal.NewFromInt(100)
	maxPrice = decimal.NewFromInt(10_000_000)
)

// pricePatterns find rupee amounts in search snippets.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`₹\s*([0-9,]+)`),
	regexp.MustCompile(`Rs\.?\s*([0-9,]+)`),
	regexp.MustCompile(`INR\s*([0-9,]+)`),
	regexp.MustCompile(`Price:\s*₹?\s*([0-9,]+)`),
	regexp.MustCompile(`MRP:\s*₹?\s*([0-9,]+)`),
	regexp.MustCompile(`₹([0-9]+(?:,[0-9]+)*)`),
}

// PriceClient estimates the current price of a product from web search
// snippets. Lookups are cached per product.
type PriceClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	cache      *cache.InMemory[decimal.Decimal]
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewPriceClient creates a new PriceClient. metrics may be nil.
func NewPriceClient(
	httpClient *http.Client,
	baseURL, apiKey string,
	cb *gobreaker.CircuitBreaker,
	cfg resilience.Config,
	c *cache.InMemory[decimal.Decimal],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *PriceClient {
	return &PriceClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		cb:         cb,
		cfg:        cfg,
		cache:      c,
		metrics:    metrics,
		logger:     logger,
	}
}

type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// LookupPrice returns the median plausible price found for product, or zero
// when the search turned up none.
func (c *PriceClient) LookupPrice(ctx context.Context, product string) (decimal.Decimal, error) {
	ctx, span := tracer.Start(ctx, "PriceClient.LookupPrice")
	defer span.End()
	span.SetAttributes(attribute.String("product", product))

	key := strings.ToLower(strings.TrimSpace(product))
	price, hit, err := c.cache.GetOrLoad(ctx, key, func(ctx context.Context) (decimal.Decimal, error) {
		return c.search(ctx, product)
	})
	if c.metrics != nil {
		if hit {
			c.metrics.IncrCacheHit("price")
		} else {
			c.metrics.IncrCacheMiss("price")
		}
	}
	if err != nil {
		return decimal.Zero, err
	}
	span.SetAttributes(attribute.Bool("cache.hit", hit), attribute.String("price", price.String()))
	return price, nil
}

func (c *PriceClient) search(ctx context.Context, product string) (decimal.Decimal, error) {
	payload, err := json.Marshal(searchRequest{
		APIKey:      c.apiKey,
		Query:       fmt.Sprintf("%s price in India", product),
		SearchDepth: "basic",
		MaxResults:  5,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("marshal search request: %w", err)
	}

	resp, err := resilience.Call(ctx, c.cb, c.cfg, "price_search", func(ctx context.Context) (*searchResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
		if err != nil {
			return nil, resilience.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		if httpResp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, httpResp.Body)
			statusErr := fmt.Errorf("search API returned status %d", httpResp.StatusCode)
			if httpResp.StatusCode >= 400 && httpResp.StatusCode < 500 && httpResp.StatusCode != http.StatusTooManyRequests {
				return nil, resilience.Permanent(statusErr)
			}
			return nil, statusErr
		}

		var out searchResponse
		if err := json.NewDecoder(httpResp.Body).Decode(&out); err != nil {
			return nil, resilience.Permanent(fmt.Errorf("decode search response: %w", err))
		}
		return &out, nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	var snippets []string
	for _, r := range resp.Results {
		snippets = append(snippets, r.Title, r.Content)
	}
	price := EstimatePrice(snippets)
	c.logger.Debug("price estimated",
		zap.String("product", product),
		zap.Int("results", len(resp.Results)),
		zap.String("price", price.String()),
	)
	return price, nil
}

// EstimatePrice extracts every plausible rupee amount from texts and returns
// their median, or zero when there is none.
func EstimatePrice(texts []string) decimal.Decimal {
	var prices []decimal.Decimal
	for _, text := range texts {
		for _, re := range pricePatterns {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
				if err != nil {
					continue
				}
				if d.GreaterThan(minPrice) && d.LessThan(maxPrice) {
					prices = append(prices, d)
				}
			}
		}
	}
	if len(prices) == 0 {
		return decimal.Zero
	}

	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })
	mid := len(prices) / 2
	if len(prices)%2 == 1 {
		return prices[mid]
	}
	return prices[mid-1].Add(prices[mid]).Div(decimal.NewFromInt(2))
}
