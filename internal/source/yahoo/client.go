package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wonny/stockscope/internal/marketdata"
	"github.com/wonny/stockscope/pkg/httputil"
	"github.com/wonny/stockscope/pkg/logger"
)

// Suffixes appended to domestic (numeric) stock codes. Yahoo lists KOSPI
// tickers under .KS and KOSDAQ under .KQ; which market a code belongs to is
// not derivable from the code itself, so .KS is tried first and .KQ on an
// empty result.
const (
	kospiSuffix  = ".KS"
	kosdaqSuffix = ".KQ"
)

// Client fetches daily price history from the Yahoo Finance chart API
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo Finance client.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
	}
}

// Name implements source.Source.
func (c *Client) Name() string { return "yahoo" }

// Fetch retrieves up to years of daily bars. Domestic numeric codes get the
// KOSPI suffix first and are retried once with the KOSDAQ suffix when the
// first query comes back empty.
func (c *Client) Fetch(ctx context.Context, symbol string, years int) (marketdata.Series, error) {
	rng := fmt.Sprintf("%dy", years)

	if !marketdata.IsKoreanCode(symbol) {
		return c.fetchChart(ctx, symbol, rng)
	}

	bars, err := c.fetchChart(ctx, symbol+kospiSuffix, rng)
	if err == nil && len(bars) > 0 {
		return bars, nil
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"tried":  symbol + kospiSuffix,
	}).Debug("Empty KOSPI result, retrying with KOSDAQ suffix")

	return c.fetchChart(ctx, symbol+kosdaqSuffix, rng)
}

// LatestClose returns the most recent daily close for a ticker. Used for
// exchange-rate quotes and current-price lookups.
func (c *Client) LatestClose(ctx context.Context, symbol string) (float64, error) {
	bars, err := c.fetchChart(ctx, symbol, "5d")
	if err != nil {
		return 0, err
	}
	last, ok := bars.Latest()
	if !ok {
		return 0, fmt.Errorf("yahoo %s: %w", symbol, marketdata.ErrNoData)
	}
	return last.Close, nil
}

// chartResponse is the response structure of the Yahoo Finance chart API.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) fetchChart(ctx context.Context, ticker, rng string) (marketdata.Series, error) {
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		c.baseURL, url.PathEscape(ticker), rng)

	resp, err := c.httpClient.Get(ctx, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode chart response: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error for %s: %s", ticker, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", ticker, marketdata.ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make(marketdata.Series, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue // null bars (holidays, suspended sessions)
		}
		bar := marketdata.Bar{
			Date:  marketdata.Day(time.Unix(ts, 0).UTC()),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(bars),
	}).Debug("Fetched chart")

	return bars.Normalize(), nil
}
