// Package fx provides the USD→KRW exchange rate for display layers.
package fx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/stockscope/pkg/logger"
)

// usdkrwTicker is the Yahoo Finance symbol for the USD/KRW rate.
const usdkrwTicker = "USDKRW=X"

// QuoteSource resolves the latest close for a ticker. Satisfied by the
// primary source adapter.
type QuoteSource interface {
	LatestClose(ctx context.Context, symbol string) (float64, error)
}

// Manager caches the USD→KRW rate with a static fallback when the quote
// source is unreachable
// ⭐ SSOT: 환율 조회는 여기서만
type Manager struct {
	source   QuoteSource
	fallback float64
	logger   *logger.Logger

	mu        sync.Mutex
	rate      float64
	updatedAt time.Time
}

// NewManager creates an exchange-rate manager. fallback is used until the
// first successful update.
func NewManager(source QuoteSource, fallback float64, log *logger.Logger) *Manager {
	return &Manager{
		source:   source,
		fallback: fallback,
		logger:   log.WithField("module", "fx"),
	}
}

// Update refreshes the rate from the quote source. On failure the previous
// rate (or the static fallback) stays in effect.
func (m *Manager) Update(ctx context.Context) (float64, error) {
	rate, err := m.source.LatestClose(ctx, usdkrwTicker)
	if err != nil {
		m.logger.WithError(err).Warn("Exchange rate update failed, keeping previous rate")
		return m.Rate(ctx), err
	}

	m.mu.Lock()
	m.rate = rate
	m.updatedAt = time.Now()
	m.mu.Unlock()

	m.logger.WithField("usd_krw", rate).Info("Updated exchange rate")
	return rate, nil
}

// Rate returns the cached rate, attempting one update when none has
// succeeded yet. Falls back to the static default.
func (m *Manager) Rate(ctx context.Context) float64 {
	m.mu.Lock()
	rate := m.rate
	m.mu.Unlock()

	if rate > 0 {
		return rate
	}

	if m.source != nil {
		if fetched, err := m.source.LatestClose(ctx, usdkrwTicker); err == nil && fetched > 0 {
			m.mu.Lock()
			m.rate = fetched
			m.updatedAt = time.Now()
			m.mu.Unlock()
			return fetched
		}
	}

	return m.fallback
}

// ToKRW converts a USD amount using the cached rate (or fallback).
func (m *Manager) ToKRW(usd float64) float64 {
	m.mu.Lock()
	rate := m.rate
	m.mu.Unlock()

	if rate <= 0 {
		rate = m.fallback
	}
	return usd * rate
}

// Info renders the current rate for display.
func (m *Manager) Info() string {
	m.mu.Lock()
	rate := m.rate
	updatedAt := m.updatedAt
	m.mu.Unlock()

	if rate <= 0 {
		rate = m.fallback
	}
	if updatedAt.IsZero() {
		return fmt.Sprintf("1 USD = %.0f KRW", rate)
	}
	return fmt.Sprintf("1 USD = %.0f KRW (%s 기준)", rate, updatedAt.Format("15:04"))
}
