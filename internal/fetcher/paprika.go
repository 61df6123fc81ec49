package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const paprikaTickersPath = "/v1/tickers?quotes=USD"

// PaprikaOptions parameterise the CoinPaprika fetcher.
type PaprikaOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Paprika fetches market snapshots from the CoinPaprika tickers endpoint.
type Paprika struct {
	opts    PaprikaOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewPaprika constructs a CoinPaprika fetcher.
func NewPaprika(opts PaprikaOptions, logger zerolog.Logger) *Paprika {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coinpaprika.com"
	}

	return &Paprika{
		opts:    opts,
		logger:  logger.With().Str("component", "paprika_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

type paprikaTicker struct {
	Symbol string `json:"symbol"`
	Quotes struct {
		USD struct {
			Price        *float64 `json:"price"`
			PctChange24h *float64 `json:"percent_change_24h"`
			Volume24h    *float64 `json:"volume_24h"`
			MarketCap    *float64 `json:"market_cap"`
		} `json:"USD"`
	} `json:"quotes"`
}

// FetchSnapshots pulls all USD-quoted tickers in one request.
func (p *Paprika) FetchSnapshots(ctx context.Context) ([]Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+paprikaTickersPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(p.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paprika http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var tickers []paprikaTicker
	if err := json.Unmarshal(payload, &tickers); err != nil {
		return nil, fmt.Errorf("decode paprika tickers: %w", err)
	}

	out := make([]Snapshot, 0, len(tickers))
	for _, t := range tickers {
		usd := t.Quotes.USD
		out = append(out, Snapshot{
			Symbol:    strings.ToUpper(t.Symbol),
			Price:     floatOrNaN(usd.Price),
			Pct24h:    floatOrNaN(usd.PctChange24h),
			Volume24h: floatOrNaN(usd.Volume24h),
			MarketCap: floatOrNaN(usd.MarketCap),
		})
	}

	p.logger.Debug().Int("assets", len(out)).Msg("fetched paprika tickers")
	return out, nil
}

var _ SnapshotFetcher = (*Paprika)(nil)
