package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LPSentinel/internal/model"
)

func sampleState() *model.MonitorState {
	last := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return &model.MonitorState{
		LastPostAt: &last,
		Current: []model.PoolSnapshot{{
			Pool: "a1", Chain: "Ethereum", Project: "curve-dex", Symbol: "USDC-USDT",
			TVLUsd: 150e6, VolumeUsd7d: 30e6, IL7d: model.Float(0.001), NetAPY: 3.75, APY: 4.5,
			CapturedAt: last,
		}},
		UpdatedAt: last,
	}
}

func TestFileStore_MissingFileIsFresh(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	st, err := fs.Load()
	require.NoError(t, err)
	assert.Nil(t, st.LastPostAt)
	assert.Empty(t, st.Current)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	fs := NewFileStore(path)
	want := sampleState()
	require.NoError(t, fs.Save(want))

	got, err := fs.Load()
	require.NoError(t, err)
	require.NotNil(t, got.LastPostAt)
	assert.True(t, want.LastPostAt.Equal(*got.LastPostAt))
	require.Len(t, got.Current, 1)
	assert.Equal(t, "a1", got.Current[0].Pool)
	assert.Equal(t, 0.001, *got.Current[0].IL7d)

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_OverwriteReplacesWholesale(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, fs.Save(sampleState()))
	require.NoError(t, fs.Save(&model.MonitorState{}))

	got, err := fs.Load()
	require.NoError(t, err)
	assert.Nil(t, got.LastPostAt)
	assert.Empty(t, got.Current)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

func TestRedisStore_Load(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rs := &RedisStore{Client: db, Key: "k"}

	data, err := encode(sampleState())
	require.NoError(t, err)
	mock.ExpectGet("k").SetVal(string(data))

	got, err := rs.Load()
	require.NoError(t, err)
	require.Len(t, got.Current, 1)
	assert.Equal(t, "curve-dex", got.Current[0].Project)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_MissingKeyIsFresh(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rs := &RedisStore{Client: db, Key: "k"}
	mock.ExpectGet("k").RedisNil()

	got, err := rs.Load()
	require.NoError(t, err)
	assert.Empty(t, got.Current)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Save(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rs := &RedisStore{Client: db, Key: "k"}
	st := sampleState()
	data, err := encode(st)
	require.NoError(t, err)
	mock.ExpectSet("k", data, 0).SetVal("OK")

	require.NoError(t, rs.Save(st))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Errors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rs := &RedisStore{Client: db, Key: "k"}
	mock.ExpectGet("k").SetErr(errors.New("conn refused"))

	_, err := rs.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conn refused")
}
