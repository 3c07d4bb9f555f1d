package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/stockscope/internal/alert"
	"github.com/wonny/stockscope/internal/fetch"
	"github.com/wonny/stockscope/internal/fx"
	"github.com/wonny/stockscope/internal/indicator"
	"github.com/wonny/stockscope/internal/marketdata"
	"github.com/wonny/stockscope/internal/portfolio"
	"github.com/wonny/stockscope/pkg/logger"
)

// Handler serves the stock data endpoints.
type Handler struct {
	runner *fetch.Runner
	ledger *portfolio.Ledger
	alerts *alert.Manager
	rates  *fx.Manager
	hub    *Hub
	logger *logger.Logger
}

// NewHandler creates the API handler.
func NewHandler(runner *fetch.Runner, ledger *portfolio.Ledger, alerts *alert.Manager, rates *fx.Manager, hub *Hub, log *logger.Logger) *Handler {
	return &Handler{
		runner: runner,
		ledger: ledger,
		alerts: alerts,
		rates:  rates,
		hub:    hub,
		logger: log.WithField("module", "api"),
	}
}

// historyResponse is the payload of GET /stocks/{symbol}/history.
type historyResponse struct {
	Symbol     string            `json:"symbol"`
	Source     string            `json:"source"`
	Bars       marketdata.Series `json:"bars"`
	Indicators *indicator.Set    `json:"indicators"`
}

// GetHistory fetches the price history and indicator overlay for a symbol.
// Fetch progress is broadcast on the websocket hub, keyed by symbol.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	years := 1
	if y := r.URL.Query().Get("years"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "years must be a positive integer")
			return
		}
		years = parsed
	}

	req := marketdata.FetchRequest{Symbol: symbol, Years: years}
	outcome, err := h.runner.RunSync(r.Context(), req, func(msg string) {
		h.hub.Broadcast(ProgressMessage{Symbol: symbol, Message: msg})
	})
	if err != nil {
		if errors.Is(err, fetch.ErrAllSourcesFailed) {
			writeError(w, http.StatusBadGateway, "data unavailable")
			return
		}
		h.logger.WithError(err).WithField("symbol", symbol).Error("History fetch failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Symbol:     symbol,
		Source:     outcome.Source,
		Bars:       outcome.Bars,
		Indicators: indicator.Compute(outcome.Bars),
	})
}

// GetPortfolio returns the current holdings and transaction log.
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"holdings":     h.ledger.Holdings(),
		"transactions": h.ledger.Transactions(),
	})
}

// GetAlerts returns the configured alerts.
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.alerts.List())
}

// GetExchangeRate returns the cached USD→KRW rate.
func (h *Handler) GetExchangeRate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"usd_krw": h.rates.Rate(r.Context()),
		"info":    h.rates.Info(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
