package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscope/internal/alert"
	"github.com/wonny/stockscope/internal/fetch"
	"github.com/wonny/stockscope/internal/fx"
	"github.com/wonny/stockscope/internal/marketdata"
	"github.com/wonny/stockscope/internal/portfolio"
	"github.com/wonny/stockscope/pkg/logger"
)

// fakeSource serves a fixed series.
type fakeSource struct {
	bars marketdata.Series
	err  error
}

func (f *fakeSource) Name() string { return "fake" }
func (f *fakeSource) Fetch(ctx context.Context, symbol string, years int) (marketdata.Series, error) {
	return f.bars, f.err
}

func flatBars(n int) marketdata.Series {
	bars := make(marketdata.Series, n)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = marketdata.Bar{Date: day, Open: 100, High: 101, Low: 99, Close: 100, Volume: 10}
		day = day.AddDate(0, 0, 1)
	}
	return bars
}

func newTestServer(t *testing.T, src *fakeSource) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	log := logger.NewNop()

	runner := fetch.NewRunner(fetch.NewOrchestrator(log, src), log)
	ledger := portfolio.NewLedger(filepath.Join(dir, "portfolio.json"), log)
	alerts := alert.NewManager(filepath.Join(dir, "alerts.json"), nil, log)
	rates := fx.NewManager(nil, 1350, log)
	hub := NewHub(log)

	handler := NewHandler(runner, ledger, alerts, rates, hub, log)
	server := httptest.NewServer(NewRouter(handler, hub, log))
	t.Cleanup(server.Close)
	t.Cleanup(hub.Close)
	return server
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(t, &fakeSource{bars: flatBars(5)})

	var body map[string]interface{}
	status := getJSON(t, server.URL+"/health", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestGetHistory(t *testing.T) {
	server := newTestServer(t, &fakeSource{bars: flatBars(60)})

	var body historyResponse
	status := getJSON(t, server.URL+"/api/v1/stocks/005930/history", &body)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "005930", body.Symbol)
	assert.Equal(t, "fake", body.Source)
	assert.Len(t, body.Bars, 60)
	require.NotNil(t, body.Indicators)
	assert.Len(t, body.Indicators.MA9, 60)
	assert.Len(t, body.Indicators.RSI, 60)
}

func TestGetHistoryInvalidYears(t *testing.T) {
	server := newTestServer(t, &fakeSource{bars: flatBars(5)})

	status := getJSON(t, server.URL+"/api/v1/stocks/005930/history?years=abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = getJSON(t, server.URL+"/api/v1/stocks/005930/history?years=0", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetHistoryAllSourcesFailed(t *testing.T) {
	server := newTestServer(t, &fakeSource{err: errors.New("unreachable")})

	var body map[string]string
	status := getJSON(t, server.URL+"/api/v1/stocks/005930/history", &body)

	assert.Equal(t, http.StatusBadGateway, status)
	assert.NotEmpty(t, body["error"])
}

func TestGetPortfolio(t *testing.T) {
	server := newTestServer(t, &fakeSource{bars: flatBars(5)})

	var body map[string]interface{}
	status := getJSON(t, server.URL+"/api/v1/portfolio", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "holdings")
	assert.Contains(t, body, "transactions")
}

func TestGetAlerts(t *testing.T) {
	server := newTestServer(t, &fakeSource{bars: flatBars(5)})

	status := getJSON(t, server.URL+"/api/v1/alerts", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestGetExchangeRate(t *testing.T) {
	server := newTestServer(t, &fakeSource{bars: flatBars(5)})

	var body map[string]interface{}
	status := getJSON(t, server.URL+"/api/v1/exchange-rate", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1350.0, body["usd_krw"])
	assert.Contains(t, body["info"], "KRW")
}
