// Package portfolio keeps a personal holdings ledger with average-cost
// accounting and a transaction log, persisted as a JSON file.
package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/wonny/stockscope/internal/marketdata"
	"github.com/wonny/stockscope/pkg/logger"
)

// Holding is the current position in one symbol.
type Holding struct {
	Quantity  float64 `json:"quantity"`
	AvgPrice  float64 `json:"avg_price"`
	TotalCost float64 `json:"total_cost"`
}

// Transaction is one buy or sell record.
type Transaction struct {
	Date     time.Time `json:"date"`
	Symbol   string    `json:"symbol"`
	Type     string    `json:"type"` // "buy" or "sell"
	Quantity float64   `json:"quantity"`
	Price    float64   `json:"price"`
}

// Converter turns a USD amount into KRW. Satisfied by fx.Manager.
type Converter interface {
	ToKRW(usd float64) float64
}

// Ledger owns the holdings map and transaction log
// ⭐ SSOT: 포트폴리오 장부는 여기서만
type Ledger struct {
	mu           sync.Mutex
	path         string
	holdings     map[string]Holding
	transactions []Transaction
	logger       *logger.Logger
}

type ledgerFile struct {
	Holdings     map[string]Holding `json:"holdings"`
	Transactions []Transaction      `json:"transactions"`
}

// NewLedger loads the ledger from path; a missing file starts empty.
func NewLedger(path string, log *logger.Logger) *Ledger {
	l := &Ledger{
		path:     path,
		holdings: make(map[string]Holding),
		logger:   log.WithField("module", "portfolio"),
	}
	l.load()
	return l
}

// Buy records a purchase, updating the average price.
func (l *Ledger) Buy(symbol string, quantity, price float64, date time.Time) error {
	if quantity <= 0 || price <= 0 {
		return fmt.Errorf("quantity and price must be positive")
	}
	if date.IsZero() {
		date = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	h := l.holdings[symbol]
	totalCost := h.TotalCost + quantity*price
	totalQuantity := h.Quantity + quantity

	l.holdings[symbol] = Holding{
		Quantity:  totalQuantity,
		AvgPrice:  totalCost / totalQuantity,
		TotalCost: totalCost,
	}

	l.transactions = append(l.transactions, Transaction{
		Date:     date,
		Symbol:   symbol,
		Type:     "buy",
		Quantity: quantity,
		Price:    price,
	})

	l.save()
	return nil
}

// Sell records a sale at average cost. Selling more than held is an error.
func (l *Ledger) Sell(symbol string, quantity, price float64, date time.Time) error {
	if quantity <= 0 || price <= 0 {
		return fmt.Errorf("quantity and price must be positive")
	}
	if date.IsZero() {
		date = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.holdings[symbol]
	if !ok || h.Quantity < quantity {
		return fmt.Errorf("insufficient holdings of %s", symbol)
	}

	h.Quantity -= quantity
	h.TotalCost = h.Quantity * h.AvgPrice

	if h.Quantity == 0 {
		delete(l.holdings, symbol)
	} else {
		l.holdings[symbol] = h
	}

	l.transactions = append(l.transactions, Transaction{
		Date:     date,
		Symbol:   symbol,
		Type:     "sell",
		Quantity: quantity,
		Price:    price,
	})

	l.save()
	return nil
}

// Holdings returns a copy of the current positions.
func (l *Ledger) Holdings() map[string]Holding {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]Holding, len(l.holdings))
	for k, v := range l.holdings {
		out[k] = v
	}
	return out
}

// Symbols returns the held symbols, sorted.
func (l *Ledger) Symbols() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.holdings))
	for s := range l.holdings {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Transactions returns a copy of the transaction log.
func (l *Ledger) Transactions() []Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// Position is a valued holding. Non-domestic (US) positions additionally
// carry a KRW valuation through the exchange rate.
type Position struct {
	Quantity        float64 `json:"quantity"`
	AvgPrice        float64 `json:"avg_price"`
	CurrentPrice    float64 `json:"current_price"`
	TotalCost       float64 `json:"total_cost"`
	CurrentValue    float64 `json:"current_value"`
	CurrentValueKRW float64 `json:"current_value_krw"`
	Profit          float64 `json:"profit"`
	ProfitRate      float64 `json:"profit_rate"` // percent
	IsUSStock       bool    `json:"is_us_stock"`
}

// Summary totals the portfolio in KRW.
type Summary struct {
	TotalCostKRW    float64 `json:"total_cost_krw"`
	TotalValueKRW   float64 `json:"total_value_krw"`
	TotalProfitKRW  float64 `json:"total_profit_krw"`
	TotalProfitRate float64 `json:"total_profit_rate"` // percent
}

// Returns values each holding at its current price. Symbols missing from
// currentPrices are skipped. US-ticker positions are converted to KRW.
func (l *Ledger) Returns(currentPrices map[string]float64, converter Converter) (map[string]Position, Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	positions := make(map[string]Position)
	var totalCostKRW, totalValueKRW float64

	for symbol, h := range l.holdings {
		currentPrice, ok := currentPrices[symbol]
		if !ok {
			continue
		}

		currentValue := h.Quantity * currentPrice
		profit := currentValue - h.TotalCost
		profitRate := 0.0
		if h.TotalCost > 0 {
			profitRate = profit / h.TotalCost * 100
		}

		isUS := !marketdata.IsKoreanCode(symbol)
		valueKRW := currentValue
		costKRW := h.TotalCost
		if isUS && converter != nil {
			valueKRW = converter.ToKRW(currentValue)
			costKRW = converter.ToKRW(h.TotalCost)
		}

		totalCostKRW += costKRW
		totalValueKRW += valueKRW

		positions[symbol] = Position{
			Quantity:        h.Quantity,
			AvgPrice:        h.AvgPrice,
			CurrentPrice:    currentPrice,
			TotalCost:       h.TotalCost,
			CurrentValue:    currentValue,
			CurrentValueKRW: valueKRW,
			Profit:          profit,
			ProfitRate:      profitRate,
			IsUSStock:       isUS,
		}
	}

	summary := Summary{
		TotalCostKRW:   totalCostKRW,
		TotalValueKRW:  totalValueKRW,
		TotalProfitKRW: totalValueKRW - totalCostKRW,
	}
	if totalCostKRW > 0 {
		summary.TotalProfitRate = summary.TotalProfitKRW / totalCostKRW * 100
	}

	return positions, summary
}

// load reads the ledger file (constructor only, no lock held).
func (l *Ledger) load() {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return
	}

	var f ledgerFile
	if err := json.Unmarshal(data, &f); err != nil {
		l.logger.WithError(err).Warn("Failed to parse portfolio file, starting empty")
		return
	}
	if f.Holdings != nil {
		l.holdings = f.Holdings
	}
	l.transactions = f.Transactions
}

// save writes the ledger file. Caller holds the lock.
func (l *Ledger) save() {
	f := ledgerFile{Holdings: l.holdings, Transactions: l.transactions}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		l.logger.WithError(err).Error("Failed to encode portfolio")
		return
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		l.logger.WithError(err).Error("Failed to save portfolio")
	}
}
