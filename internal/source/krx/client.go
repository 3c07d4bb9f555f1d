package krx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/stockscope/internal/marketdata"
	"github.com/wonny/stockscope/pkg/httputil"
	"github.com/wonny/stockscope/pkg/logger"
)

// dailyPriceBld selects the daily stock price statement on the KRX data API.
const dailyPriceBld = "dbms/MDC/STAT/standard/MDCSTAT01701"

// Client fetches daily price history from the KRX (한국거래소) data API
// ⭐ SSOT: KRX 데이터 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new KRX client.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://data.krx.co.kr"
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
	}
}

// Name implements source.Source.
func (c *Client) Name() string { return "krx" }

// priceRow is one row of the KRX daily price statement. All numeric fields
// arrive as strings with thousands separators.
type priceRow struct {
	TradeDate string `json:"TRD_DD"`
	Open      string `json:"TDD_OPNPRC"`
	High      string `json:"TDD_HGPRC"`
	Low       string `json:"TDD_LWPRC"`
	Close     string `json:"TDD_CLSPRC"`
	Volume    string `json:"ACC_TRDVOL"`
}

type priceResponse struct {
	Output []priceRow `json:"output"`
}

// Fetch queries the daily price statement with an explicit date range.
func (c *Client) Fetch(ctx context.Context, symbol string, years int) (marketdata.Series, error) {
	to := marketdata.Day(time.Now().UTC())
	from := to.AddDate(-years, 0, 0)

	form := url.Values{
		"bld":             {dailyPriceBld},
		"locale":          {"ko_KR"},
		"isuCd":           {symbol},
		"isuCd2":          {symbol},
		"strtDd":          {from.Format("20060102")},
		"endDd":           {to.Format("20060102")},
		"adjStkPrc_check": {"Y"},
		"adjStkPrc":       {"2"},
		"share":           {"1"},
		"money":           {"1"},
		"csvxls_isNo":     {"false"},
	}

	resp, err := c.httpClient.PostForm(ctx, c.baseURL+"/comm/bldAttendant/getJsonData.cmd", form)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	var parsed priceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode KRX response: %w", err)
	}
	if len(parsed.Output) == 0 {
		return nil, fmt.Errorf("krx %s: %w", symbol, marketdata.ErrNoData)
	}

	bars := make(marketdata.Series, 0, len(parsed.Output))
	for _, row := range parsed.Output {
		bar, err := row.toBar()
		if err != nil {
			return nil, fmt.Errorf("malformed KRX row for %s: %w", symbol, err)
		}
		bars = append(bars, bar)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(bars),
	}).Debug("Fetched daily prices")

	return bars.Normalize(), nil
}

func (r priceRow) toBar() (marketdata.Bar, error) {
	// KRX는 날짜를 "2024/01/15" 형식으로 내려줌
	date, err := time.Parse("2006/01/02", r.TradeDate)
	if err != nil {
		return marketdata.Bar{}, fmt.Errorf("parse trade date %q: %w", r.TradeDate, err)
	}

	open, err := parseNumber(r.Open)
	if err != nil {
		return marketdata.Bar{}, err
	}
	high, err := parseNumber(r.High)
	if err != nil {
		return marketdata.Bar{}, err
	}
	low, err := parseNumber(r.Low)
	if err != nil {
		return marketdata.Bar{}, err
	}
	closePrice, err := parseNumber(r.Close)
	if err != nil {
		return marketdata.Bar{}, err
	}
	volume, err := parseNumber(r.Volume)
	if err != nil {
		return marketdata.Bar{}, err
	}

	return marketdata.Bar{
		Date:   marketdata.Day(date),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: int64(volume),
	}, nil
}

// parseNumber strips thousands separators before parsing.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty numeric field")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse numeric field %q: %w", s, err)
	}
	return v, nil
}
