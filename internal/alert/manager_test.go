package alert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscope/internal/indicator"
	"github.com/wonny/stockscope/pkg/logger"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "alerts.json")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAddAndList(t *testing.T) {
	m := NewManager(tempPath(t), nil, logger.NewNop())

	_, err := m.Add("005930", PriceAbove, 80000)
	require.NoError(t, err)
	_, err = m.Add("AAPL", GoldenCross, 0)
	require.NoError(t, err)

	alerts := m.List()
	require.Len(t, alerts, 2)
	assert.True(t, alerts[0].Active)
	assert.Equal(t, PriceAbove, alerts[0].Type)
	assert.Equal(t, 80000.0, alerts[0].Value)
}

func TestAddRejectsUnknownType(t *testing.T) {
	m := NewManager(tempPath(t), nil, logger.NewNop())

	_, err := m.Add("005930", Type("volume_spike"), 0)
	assert.Error(t, err)
	assert.Empty(t, m.List())
}

func TestRemove(t *testing.T) {
	m := NewManager(tempPath(t), nil, logger.NewNop())
	m.Add("005930", PriceAbove, 80000)
	m.Add("005930", PriceBelow, 60000)

	require.NoError(t, m.Remove(0))
	alerts := m.List()
	require.Len(t, alerts, 1)
	assert.Equal(t, PriceBelow, alerts[0].Type)

	assert.Error(t, m.Remove(5))
	assert.Error(t, m.Remove(-1))
}

func TestPersistenceAcrossReload(t *testing.T) {
	path := tempPath(t)

	m := NewManager(path, nil, logger.NewNop())
	m.Add("005930", PriceAbove, 80000)

	reloaded := NewManager(path, nil, logger.NewNop())
	alerts := reloaded.List()
	require.Len(t, alerts, 1)
	assert.Equal(t, "005930", alerts[0].Symbol)
}

func TestCheckPriceAboveTriggersOnce(t *testing.T) {
	var notified []string
	m := NewManager(tempPath(t), func(symbol, message string) {
		notified = append(notified, message)
	}, logger.NewNop())
	m.Add("005930", PriceAbove, 80000)

	// Below the threshold: nothing happens.
	m.Check("005930", 79000, nil, nil)
	assert.Empty(t, notified)

	// At the threshold: fires and deactivates.
	m.Check("005930", 80000, nil, nil)
	require.Len(t, notified, 1)
	assert.False(t, m.List()[0].Active)

	// Further checks stay silent. 한 번만 알림.
	m.Check("005930", 90000, nil, nil)
	assert.Len(t, notified, 1)
}

func TestCheckPriceBelow(t *testing.T) {
	var notified int
	m := NewManager(tempPath(t), func(string, string) { notified++ }, logger.NewNop())
	m.Add("005930", PriceBelow, 60000)

	m.Check("005930", 61000, nil, nil)
	assert.Zero(t, notified)

	m.Check("005930", 59000, nil, nil)
	assert.Equal(t, 1, notified)
}

func TestCheckIgnoresOtherSymbols(t *testing.T) {
	var notified int
	m := NewManager(tempPath(t), func(string, string) { notified++ }, logger.NewNop())
	m.Add("005930", PriceAbove, 80000)

	m.Check("035720", 90000, nil, nil)
	assert.Zero(t, notified)
	assert.True(t, m.List()[0].Active)
}

func TestCheckGoldenCross(t *testing.T) {
	var messages []string
	m := NewManager(tempPath(t), func(symbol, message string) {
		messages = append(messages, message)
	}, logger.NewNop())
	m.Add("005930", GoldenCross, 0)

	// Fast average crosses the slow one between the last two positions.
	shortMA := indicator.Series{
		{Value: 9, Valid: true},
		{Value: 11, Valid: true},
	}
	longMA := indicator.Series{
		{Value: 10, Valid: true},
		{Value: 10, Valid: true},
	}

	m.Check("005930", 71000, shortMA, longMA)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "골든크로스")
	assert.False(t, m.List()[0].Active)
}

func TestCheckDeadCross(t *testing.T) {
	var notified int
	m := NewManager(tempPath(t), func(string, string) { notified++ }, logger.NewNop())
	m.Add("005930", DeadCross, 0)

	shortMA := indicator.Series{
		{Value: 11, Valid: true},
		{Value: 9, Valid: true},
	}
	longMA := indicator.Series{
		{Value: 10, Valid: true},
		{Value: 10, Valid: true},
	}

	// A golden-cross alert on the same series must not fire.
	m.Add("005930", GoldenCross, 0)

	m.Check("005930", 71000, shortMA, longMA)
	assert.Equal(t, 1, notified)
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := tempPath(t)
	writeFile(t, path, "{not json")

	m := NewManager(path, nil, logger.NewNop())
	assert.Empty(t, m.List())
}
