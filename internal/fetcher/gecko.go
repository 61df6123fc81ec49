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

const geckoMarketsPath = "/coins/markets"

// GeckoOptions parameterise the CoinGecko fetcher.
type GeckoOptions struct {
	BaseURL   string
	Pages     int
	PerPage   int
	Backoff   time.Duration
	Timeout   time.Duration
	UserAgent string
}

// Gecko fetches market snapshots from the CoinGecko markets endpoint.
type Gecko struct {
	opts    GeckoOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
	sleep   func(time.Duration)
}

// NewGecko constructs a CoinGecko fetcher.
func NewGecko(opts GeckoOptions, logger zerolog.Logger) *Gecko {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}

	return &Gecko{
		opts:    opts,
		logger:  logger.With().Str("component", "gecko_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		sleep:   time.Sleep,
	}
}

type geckoMarketRow struct {
	Symbol            string   `json:"symbol"`
	CurrentPrice      *float64 `json:"current_price"`
	PctChange24hInCur *float64 `json:"price_change_percentage_24h_in_currency"`
	PctChange24h      *float64 `json:"price_change_percentage_24h"`
	TotalVolume       *float64 `json:"total_volume"`
	MarketCap         *float64 `json:"market_cap"`
}

// FetchSnapshots pulls up to opts.Pages pages of markets ordered by market cap.
func (g *Gecko) FetchSnapshots(ctx context.Context) ([]Snapshot, error) {
	pages := g.opts.Pages
	if pages <= 0 {
		pages = 1
	}
	perPage := g.opts.PerPage
	if perPage <= 0 {
		perPage = 250
	}

	out := make([]Snapshot, 0, pages*perPage)
	for page := 1; page <= pages; page++ {
		rows, err := g.fetchPage(ctx, page, perPage)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			out = append(out, row.snapshot())
		}
		if page < pages && g.opts.Backoff > 0 {
			g.sleep(g.opts.Backoff)
		}
	}

	g.logger.Debug().Int("assets", len(out)).Msg("fetched gecko markets")
	return out, nil
}

func (g *Gecko) fetchPage(ctx context.Context, page, perPage int) ([]geckoMarketRow, error) {
	url := fmt.Sprintf(
		"%s%s?vs_currency=usd&order=market_cap_desc&per_page=%d&page=%d&price_change_percentage=24h",
		g.baseURL, geckoMarketsPath, perPage, page,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(g.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("gecko rate limited (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gecko http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var rows []geckoMarketRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("decode gecko markets: %w", err)
	}
	return rows, nil
}

func (r geckoMarketRow) snapshot() Snapshot {
	// The per-currency 24h field is only present when requested; fall back
	// to the plain one.
	pct := r.PctChange24hInCur
	if pct == nil {
		pct = r.PctChange24h
	}
	return Snapshot{
		Symbol:    strings.ToUpper(r.Symbol),
		Price:     floatOrNaN(r.CurrentPrice),
		Pct24h:    floatOrNaN(pct),
		Volume24h: floatOrNaN(r.TotalVolume),
		MarketCap: floatOrNaN(r.MarketCap),
	}
}

var _ SnapshotFetcher = (*Gecko)(nil)
