package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_KeyValue(t *testing.T) {
	m := NewMemory("")
	ctx := t.Context()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", "v1"))
	require.NoError(t, m.Set(ctx, "k", "v2"))

	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
}

func TestMemory_Users(t *testing.T) {
	m := NewMemory("")
	ctx := t.Context()

	for _, id := range []int64{3, 1, 3, 2} {
		require.NoError(t, m.Add(ctx, id))
	}

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMemory_CountersConcurrent(t *testing.T) {
	m := NewMemory("")
	ctx := t.Context()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Increment(ctx, "ping")
		}()
	}
	wg.Wait()

	counters, err := m.Counters(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{"ping": 50}, counters)

	counters["ping"] = 0
	again, _ := m.Counters(ctx)
	assert.Equal(t, uint64(50), again["ping"], "returned map must be a copy")
}

func TestMemory_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	ctx := t.Context()

	m := NewMemory(dir)
	require.NoError(t, m.Set(ctx, "color", "blue"))
	require.NoError(t, m.Add(ctx, 20))
	require.NoError(t, m.Add(ctx, 10))
	require.NoError(t, m.Increment(ctx, "ping"))
	require.NoError(t, m.Save(ctx))

	users, err := os.ReadFile(filepath.Join(dir, usersFile))
	require.NoError(t, err)
	assert.JSONEq(t, `[10,20]`, string(users))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")

	restored := NewMemory(dir)
	restored.Load()

	v, ok, _ := restored.Get(ctx, "color")
	assert.True(t, ok)
	assert.Equal(t, "blue", v)

	ids, _ := restored.List(ctx)
	assert.Equal(t, []int64{10, 20}, ids)

	counters, _ := restored.Counters(ctx)
	assert.Empty(t, counters)
}

func TestMemory_Load(t *testing.T) {
	tests := []struct {
		name      string
		kv        string
		users     string
		wantKV    bool
		wantUsers int
	}{
		{name: "missing files", wantKV: false, wantUsers: 0},
		{name: "corrupt kv keeps users", kv: "{not json", users: "[1,2]", wantKV: false, wantUsers: 2},
		{name: "corrupt users keeps kv", kv: `{"a":"b"}`, users: `"nope"`, wantKV: true, wantUsers: 0},
		{name: "null snapshots", kv: "null", users: "null", wantKV: false, wantUsers: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.kv != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, kvFile), []byte(tt.kv), 0o600))
			}
			if tt.users != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, usersFile), []byte(tt.users), 0o600))
			}

			m := NewMemory(dir)
			m.Load()

			_, ok, _ := m.Get(t.Context(), "a")
			assert.Equal(t, tt.wantKV, ok)

			n, _ := m.Count(t.Context())
			assert.Equal(t, tt.wantUsers, n)

			require.NotPanics(t, func() {
				require.NoError(t, m.Set(t.Context(), "k", "v"))
				require.NoError(t, m.Add(t.Context(), 9))
			})
			v, ok, _ := m.Get(t.Context(), "k")
			assert.True(t, ok)
			assert.Equal(t, "v", v)
		})
	}
}
