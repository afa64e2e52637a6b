package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LPSentinel/internal/model"
)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func count(t *testing.T, r *SQLiteRecorder, table string) int {
	t.Helper()
	var n int
	require.NoError(t, r.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSQLiteRecorder_RecordsEverything(t *testing.T) {
	r := openTemp(t)
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, r.RecordCycle(&CycleEvent{CycleID: "c1", At: at, UniverseSize: 100, Posted: true, Tracked: 2}))
	require.NoError(t, r.RecordSelection(&SelectionEvent{
		CycleID: "c1", At: at, Trigger: model.TriggerScheduled,
		Picks: []model.Pick{
			{Pool: model.Pool{ID: "a", Symbol: "USDC-USDT", IL7d: model.Float(0.001)}, Score: 20, Tier: "primary", Category: model.CategoryStableStable},
			{Pool: model.Pool{ID: "b", Symbol: "WETH-USDC"}, Score: 18, Tier: "fallback", Category: model.CategoryStableBase},
		},
	}))
	require.NoError(t, r.RecordAlert(&AlertEvent{
		CycleID: "c1", At: at,
		Degraded: []model.Degradation{{
			Snapshot: model.PoolSnapshot{Pool: "a", Symbol: "USDC-USDT"},
			Reasons:  []string{"TVL ↓ 30.0%", "Vol7d ↓ 55.0%"},
		}},
	}))

	assert.Equal(t, 1, count(t, r, "cycles"))
	assert.Equal(t, 2, count(t, r, "selections"))
	assert.Equal(t, 1, count(t, r, "alerts"))

	var reasons string
	require.NoError(t, r.DB().QueryRow("SELECT reasons FROM alerts WHERE pool = 'a'").Scan(&reasons))
	assert.Equal(t, "TVL ↓ 30.0%; Vol7d ↓ 55.0%", reasons)

	var position int
	var tier string
	require.NoError(t, r.DB().QueryRow("SELECT position, tier FROM selections WHERE pool = 'b'").Scan(&position, &tier))
	assert.Equal(t, 2, position)
	assert.Equal(t, "fallback", tier)
}

func TestSQLiteRecorder_ReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r.RecordCycle(&CycleEvent{CycleID: "c1", At: time.Now()}))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, 1, count(t, r, "cycles"))
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordCycle(&CycleEvent{}))
	assert.NoError(t, r.RecordSelection(&SelectionEvent{}))
	assert.NoError(t, r.RecordAlert(&AlertEvent{}))
	assert.NoError(t, r.Close())
}
