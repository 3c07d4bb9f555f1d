// Package store persists fetched price history into PostgreSQL.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/stockscope/internal/marketdata"
)

// PriceStore persists daily bars keyed by (symbol, trade_date)
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PriceStore struct {
	pool *pgxpool.Pool
}

// NewPriceStore creates a new price store.
func NewPriceStore(pool *pgxpool.Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

// Schema returns the DDL for the price-history table. Run once at setup.
func Schema() string {
	return `
		CREATE TABLE IF NOT EXISTS stock_prices (
			symbol      TEXT             NOT NULL,
			trade_date  DATE             NOT NULL,
			open_price  DOUBLE PRECISION NOT NULL,
			high_price  DOUBLE PRECISION NOT NULL,
			low_price   DOUBLE PRECISION NOT NULL,
			close_price DOUBLE PRECISION NOT NULL,
			volume      BIGINT           NOT NULL DEFAULT 0,
			PRIMARY KEY (symbol, trade_date)
		)
	`
}

// Init creates the price-history table if missing.
func (s *PriceStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema())
	return err
}

// SaveSeries upserts every bar of a fetched series.
func (s *PriceStore) SaveSeries(ctx context.Context, symbol string, bars marketdata.Series) error {
	query := `
		INSERT INTO stock_prices (symbol, trade_date, open_price, high_price, low_price, close_price, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume
	`

	for _, b := range bars {
		_, err := s.pool.Exec(ctx, query,
			symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetSeries retrieves the stored bars for a symbol within a date range,
// ascending by date.
func (s *PriceStore) GetSeries(ctx context.Context, symbol string, from, to time.Time) (marketdata.Series, error) {
	query := `
		SELECT trade_date, open_price, high_price, low_price, close_price, volume
		FROM stock_prices
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars marketdata.Series
	for rows.Next() {
		var b marketdata.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Date = marketdata.Day(b.Date)
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LatestClose returns the most recent stored close for a symbol.
func (s *PriceStore) LatestClose(ctx context.Context, symbol string) (float64, error) {
	query := `
		SELECT close_price
		FROM stock_prices
		WHERE symbol = $1
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var closePrice float64
	err := s.pool.QueryRow(ctx, query, symbol).Scan(&closePrice)
	if err != nil {
		return 0, err
	}
	return closePrice, nil
}
