package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"relaybot/internal/core/port"

	"github.com/rs/zerolog/log"
)

var (
	_ port.KeyValueStore = (*Memory)(nil)
	_ port.UserSet       = (*Memory)(nil)
	_ port.CounterStore  = (*Memory)(nil)
	_ port.Snapshotter   = (*Memory)(nil)
	_ port.KeyValueStore = (*Redis)(nil)
	_ port.UserSet       = (*Redis)(nil)
	_ port.CounterStore  = (*Redis)(nil)
	_ port.Snapshotter   = (*Redis)(nil)
)

const (
	kvFile    = "kv.json"
	usersFile = "users.json"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Memory keeps the key/value pairs, known chats and command counters in process memory. Key/value
// pairs and chats are persisted as JSON snapshots in dir; counters live for the process only.
type Memory struct {
	dir string

	mu       sync.RWMutex
	kv       map[string]string
	users    map[int64]struct{}
	counters map[string]uint64
}

func NewMemory(dir string) *Memory {
	return &Memory{
		dir:      dir,
		kv:       make(map[string]string),
		users:    make(map[int64]struct{}),
		counters: make(map[string]uint64),
	}
}

// Load reads the snapshots from disk. Missing or corrupt snapshots leave the store empty.
func (m *Memory) Load() {
	if m.dir == "" {
		return
	}

	kv := make(map[string]string)
	if readSnapshot(filepath.Join(m.dir, kvFile), &kv) {
		// a "null" snapshot decodes to a nil map
		if kv == nil {
			kv = make(map[string]string)
		}
		m.mu.Lock()
		m.kv = kv
		m.mu.Unlock()
	}

	var users []int64
	if readSnapshot(filepath.Join(m.dir, usersFile), &users) {
		set := make(map[int64]struct{}, len(users))
		for _, id := range users {
			set[id] = struct{}{}
		}
		m.mu.Lock()
		m.users = set
		m.mu.Unlock()
	}
}

func readSnapshot(path string, v any) bool {
	l := log.With().Str("path", path).Logger()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.Warn().Err(err).Msg("could not read snapshot, starting empty")
		}
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		l.Warn().Err(err).Msg("corrupt snapshot, starting empty")
		return false
	}

	l.Info().Msg("loaded snapshot")

	return true
}

// Save writes both snapshots atomically.
func (m *Memory) Save(_ context.Context) error {
	if m.dir == "" {
		return nil
	}

	m.mu.RLock()
	kv, err := json.Marshal(m.kv)
	if err != nil {
		m.mu.RUnlock()
		return fmt.Errorf("error encoding kv snapshot %w", err)
	}
	users := make([]int64, 0, len(m.users))
	for id := range m.users {
		users = append(users, id)
	}
	m.mu.RUnlock()

	slices.Sort(users)
	usersJSON, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("error encoding users snapshot %w", err)
	}

	if err := writeAtomic(filepath.Join(m.dir, kvFile), kv); err != nil {
		return err
	}

	return writeAtomic(filepath.Join(m.dir, usersFile), usersJSON)
}

func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("error creating snapshot dir %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("error creating temp snapshot %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("error writing snapshot %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("error syncing snapshot %w", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return fmt.Errorf("error setting snapshot permissions %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing snapshot %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("error replacing snapshot %w", err)
	}

	return nil
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.kv[key]

	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.kv[key] = value
	m.mu.Unlock()

	return nil
}

func (m *Memory) Add(_ context.Context, chatID int64) error {
	m.mu.Lock()
	m.users[chatID] = struct{}{}
	m.mu.Unlock()

	return nil
}

func (m *Memory) List(_ context.Context) ([]int64, error) {
	m.mu.RLock()
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	slices.Sort(ids)

	return ids, nil
}

func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.users), nil
}

func (m *Memory) Increment(_ context.Context, name string) error {
	m.mu.Lock()
	m.counters[name]++
	m.mu.Unlock()

	return nil
}

func (m *Memory) Counters(_ context.Context) (map[string]uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]uint64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}

	return out, nil
}
