package naver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/wonny/stockscope/internal/marketdata"
	"github.com/wonny/stockscope/pkg/httputil"
	"github.com/wonny/stockscope/pkg/logger"
)

const (
	defaultMaxPages  = 100
	defaultPageDelay = 100 * time.Millisecond
)

var dateRe = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`)

// Client scrapes daily price history from Naver Finance's paginated
// sise_day pages
// ⭐ SSOT: Naver Finance 일별시세 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	limiter    *rate.Limiter // pacing between page requests
	maxPages   int
}

// NewClient creates a new Naver Finance client. pageDelay throttles
// consecutive page requests; maxPages caps a single fetch.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string, pageDelay time.Duration, maxPages int) *Client {
	if baseURL == "" {
		baseURL = "https://finance.naver.com"
	}
	if pageDelay <= 0 {
		pageDelay = defaultPageDelay
	}
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Every(pageDelay), 1),
		maxPages:   maxPages,
	}
}

// Name implements source.Source.
func (c *Client) Name() string { return "naver" }

// Fetch walks the daily-price pages newest-first, stopping once a page's
// oldest row predates the lookback start, then returns the rows sorted
// ascending and filtered to the window.
func (c *Client) Fetch(ctx context.Context, symbol string, years int) (marketdata.Series, error) {
	to := marketdata.Day(time.Now().UTC())
	from := to.AddDate(-years, 0, 0)

	doc, err := c.fetchPage(ctx, symbol, 1)
	if err != nil {
		return nil, err
	}

	lastPage, err := lastPageNumber(doc)
	if err != nil {
		return nil, err
	}
	if lastPage > c.maxPages {
		lastPage = c.maxPages
	}

	var all marketdata.Series
	bars, oldest := parseDailyTable(doc)
	all = append(all, bars...)

	for page := 2; page <= lastPage; page++ {
		if !oldest.IsZero() && oldest.Before(from) {
			break // already past the requested window
		}

		doc, err := c.fetchPage(ctx, symbol, page)
		if err != nil {
			return nil, err
		}

		bars, oldest = parseDailyTable(doc)
		all = append(all, bars...)
	}

	all = all.Normalize().Filter(from, to)
	if len(all) == 0 {
		return nil, fmt.Errorf("naver %s: %w", symbol, marketdata.ErrNoData)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(all),
	}).Debug("Fetched daily prices")

	return all, nil
}

// fetchPage requests one sise_day page, honoring the inter-request limiter.
func (c *Client) fetchPage(ctx context.Context, symbol string, page int) (*goquery.Document, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	fullURL := fmt.Sprintf("%s/item/sise_day.nhn?code=%s&page=%d", c.baseURL, url.QueryEscape(symbol), page)

	resp, err := c.httpClient.Get(ctx, fullURL, map[string]string{
		"Referer": c.baseURL + "/",
	})
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

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}
	return doc, nil
}

// lastPageNumber extracts the total page count from the pgRR ("맨뒤")
// pagination marker. A page without the marker is a single-page result; a
// marker whose link cannot be parsed is malformed upstream data.
func lastPageNumber(doc *goquery.Document) (int, error) {
	link := doc.Find("td.pgRR a")
	if link.Length() == 0 {
		return 1, nil
	}

	href, _ := link.First().Attr("href")
	u, err := url.Parse(href)
	if err != nil {
		return 0, fmt.Errorf("malformed pagination marker %q: %w", href, err)
	}

	page, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil || page < 1 {
		return 0, fmt.Errorf("malformed pagination marker %q", href)
	}
	return page, nil
}

// parseDailyTable extracts the price rows of one page. Rows are listed
// newest-first; the returned oldest is the date of the last valid row.
// 컬럼: 날짜 | 종가 | 전일비 | 시가 | 고가 | 저가 | 거래량
func parseDailyTable(doc *goquery.Document) (marketdata.Series, time.Time) {
	var bars marketdata.Series
	var oldest time.Time

	doc.Find("table.type2 tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		dateText := strings.TrimSpace(cells.Eq(0).Text())
		if !dateRe.MatchString(dateText) {
			return
		}

		date, err := time.Parse("2006.01.02", dateText)
		if err != nil {
			return
		}
		oldest = marketdata.Day(date)

		closePrice, err1 := parseNumber(cells.Eq(1).Text())
		openPrice, err2 := parseNumber(cells.Eq(3).Text())
		highPrice, err3 := parseNumber(cells.Eq(4).Text())
		lowPrice, err4 := parseNumber(cells.Eq(5).Text())
		volume, err5 := parseNumber(cells.Eq(6).Text())
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			return
		}

		bars = append(bars, marketdata.Bar{
			Date:   marketdata.Day(date),
			Open:   openPrice,
			High:   highPrice,
			Low:    lowPrice,
			Close:  closePrice,
			Volume: int64(volume),
		})
	})

	return bars, oldest
}

// parseNumber strips thousands separators before parsing.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty numeric field")
	}
	return strconv.ParseFloat(s, 64)
}
