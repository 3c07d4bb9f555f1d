// Package alert keeps user-defined price and crossover alerts in a JSON
// file and checks them against fresh data.
package alert

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/wonny/stockscope/internal/indicator"
	"github.com/wonny/stockscope/pkg/logger"
)

// Type is an alert condition kind.
type Type string

const (
	PriceAbove  Type = "price_above"
	PriceBelow  Type = "price_below"
	GoldenCross Type = "golden_cross"
	DeadCross   Type = "dead_cross"
)

// Alert is one condition record. A triggered alert is deactivated so it
// fires at most once.
type Alert struct {
	Symbol  string    `json:"symbol"`
	Type    Type      `json:"type"`
	Value   float64   `json:"value,omitempty"` // threshold for price alerts
	Active  bool      `json:"active"`
	Created time.Time `json:"created"`
}

// NotifyFunc receives triggered alert messages.
type NotifyFunc func(symbol, message string)

// Manager owns the alert list and its JSON persistence
// ⭐ SSOT: 알림 조건 관리는 여기서만
type Manager struct {
	mu     sync.Mutex
	path   string
	alerts []Alert
	notify NotifyFunc
	logger *logger.Logger
}

// NewManager loads alerts from path (a missing or unreadable file starts
// empty) and reports triggers through notify.
func NewManager(path string, notify NotifyFunc, log *logger.Logger) *Manager {
	m := &Manager{
		path:   path,
		notify: notify,
		logger: log.WithField("module", "alert"),
	}
	m.load()
	return m
}

// Add registers a new active alert and persists the list.
func (m *Manager) Add(symbol string, typ Type, value float64) (Alert, error) {
	switch typ {
	case PriceAbove, PriceBelow, GoldenCross, DeadCross:
	default:
		return Alert{}, fmt.Errorf("unknown alert type %q", typ)
	}

	a := Alert{
		Symbol:  symbol,
		Type:    typ,
		Value:   value,
		Active:  true,
		Created: time.Now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, a)
	m.save()
	return a, nil
}

// Remove deletes the alert at index.
func (m *Manager) Remove(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.alerts) {
		return fmt.Errorf("alert index %d out of range", index)
	}
	m.alerts = append(m.alerts[:index], m.alerts[index+1:]...)
	m.save()
	return nil
}

// List returns a copy of the current alerts.
func (m *Manager) List() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Alert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Check evaluates all active alerts for a symbol against the current price
// and the short/long moving-average pair. Triggered alerts are deactivated
// and reported once.
func (m *Manager) Check(symbol string, currentPrice float64, shortMA, longMA indicator.Series) {
	cross := indicator.DetectCross(shortMA, longMA)

	m.mu.Lock()
	defer m.mu.Unlock()

	changed := false
	for i := range m.alerts {
		a := &m.alerts[i]
		if a.Symbol != symbol || !a.Active {
			continue
		}

		var message string
		switch a.Type {
		case PriceAbove:
			if currentPrice >= a.Value {
				message = fmt.Sprintf("%s 현재가(%.0f)가 목표가(%.0f) 도달", symbol, currentPrice, a.Value)
			}
		case PriceBelow:
			if currentPrice <= a.Value {
				message = fmt.Sprintf("%s 현재가(%.0f)가 목표가(%.0f) 도달", symbol, currentPrice, a.Value)
			}
		case GoldenCross:
			if cross == indicator.GoldenCross {
				message = fmt.Sprintf("%s 골든크로스 발생 (9일선이 22일선 상향 돌파)", symbol)
			}
		case DeadCross:
			if cross == indicator.DeadCross {
				message = fmt.Sprintf("%s 데드크로스 발생 (9일선이 22일선 하향 돌파)", symbol)
			}
		}

		if message == "" {
			continue
		}

		a.Active = false // 한 번만 알림
		changed = true

		m.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"type":   a.Type,
		}).Info("Alert triggered")

		if m.notify != nil {
			m.notify(symbol, message)
		}
	}

	if changed {
		m.save()
	}
}

// load reads the alert file. Callers hold no lock yet (constructor only).
func (m *Manager) load() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		m.alerts = nil
		return
	}
	if err := json.Unmarshal(data, &m.alerts); err != nil {
		m.logger.WithError(err).Warn("Failed to parse alert file, starting empty")
		m.alerts = nil
	}
}

// save writes the alert file. Caller holds the lock.
func (m *Manager) save() {
	data, err := json.MarshalIndent(m.alerts, "", "  ")
	if err != nil {
		m.logger.WithError(err).Error("Failed to encode alerts")
		return
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		m.logger.WithError(err).Error("Failed to save alerts")
	}
}
