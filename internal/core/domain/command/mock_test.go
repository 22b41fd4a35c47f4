package command

import (
	"context"
	"encoding/json"
	"sync"

	"relaybot/internal/core/port"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) SendText(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

func (m *MockClient) SendReply(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) error {
	args := m.Called(ctx, chatID, text, markup)
	return args.Error(0)
}

func (m *MockClient) SendDocument(ctx context.Context, chatID int64, path string) error {
	args := m.Called(ctx, chatID, path)
	return args.Error(0)
}

func (m *MockClient) AnswerCallback(ctx context.Context, callbackID, text string) error {
	args := m.Called(ctx, callbackID, text)
	return args.Error(0)
}

func (m *MockClient) GetChat(ctx context.Context, chatID int64) (json.RawMessage, error) {
	args := m.Called(ctx, chatID)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *MockClient) GetUserProfilePhotos(ctx context.Context, userID int64) (models.UserProfilePhotos, error) {
	args := m.Called(ctx, userID)
	photos, _ := args.Get(0).(models.UserProfilePhotos)
	return photos, args.Error(1)
}

func (m *MockClient) GetFile(ctx context.Context, fileID string) (models.File, error) {
	args := m.Called(ctx, fileID)
	f, _ := args.Get(0).(models.File)
	return f, args.Error(1)
}

func (m *MockClient) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	args := m.Called(ctx, filePath)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type fakeAuth struct {
	operator int64
}

func (a fakeAuth) Operator() (int64, bool) {
	return a.operator, a.operator != 0
}

func (a fakeAuth) Authorize(ctx context.Context, sender port.Sender, chatID, userID int64) bool {
	switch {
	case a.operator == 0:
		_ = sender.SendText(ctx, chatID, "ADMIN_ID not set")
		return false
	case userID != a.operator:
		_ = sender.SendText(ctx, chatID, "not allowed")
		return false
	}

	return true
}

type fakeStore struct {
	mu       sync.Mutex
	kv       map[string]string
	users    []int64
	counters map[string]uint64
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{kv: map[string]string{}, counters: map[string]uint64{}}
}

func (s *fakeStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.kv[key]
	return v, ok, s.err
}

func (s *fakeStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return s.err
}

func (s *fakeStore) Add(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, chatID)
	return s.err
}

func (s *fakeStore) List(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.users...), s.err
}

func (s *fakeStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), s.err
}

func (s *fakeStore) Increment(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name]++
	return s.err
}

func (s *fakeStore) Counters(_ context.Context) (map[string]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.counters))
	for k, v := range s.counters {
		out[k] = v
	}
	return out, s.err
}

type fakeTemp struct {
	saved   []byte
	removed string
}

func (f *fakeTemp) Save(data []byte, extension string) (string, error) {
	f.saved = data
	return "/tmp/report" + extension, nil
}

func (f *fakeTemp) Remove(path string) {
	f.removed = path
}
