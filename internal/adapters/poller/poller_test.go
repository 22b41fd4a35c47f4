package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"relaybot/internal/adapters/store"
	"relaybot/internal/core/domain"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pollResult struct {
	updates []models.Update
	err     error
}

// fakeSource serves scripted poll results and cancels the run once they are used up.
type fakeSource struct {
	mu      sync.Mutex
	results []pollResult
	offsets []int64
	sent    map[int64][]string
	cancel  context.CancelFunc
}

func (f *fakeSource) GetUpdates(ctx context.Context, offset int64, _ time.Duration) ([]models.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.offsets = append(f.offsets, offset)
	if len(f.results) == 0 {
		f.cancel()
		return nil, ctx.Err()
	}

	r := f.results[0]
	f.results = f.results[1:]

	return r.updates, r.err
}

func (f *fakeSource) SendText(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sent == nil {
		f.sent = make(map[int64][]string)
	}
	f.sent[chatID] = append(f.sent[chatID], text)

	return nil
}

type fakeDispatcher struct {
	mu        sync.Mutex
	messages  []string
	callbacks []string
}

func (d *fakeDispatcher) Dispatch(_ context.Context, event *domain.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, event.Message.Text)
}

func (d *fakeDispatcher) DispatchCallbackAction(_ context.Context, event *domain.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks = append(d.callbacks, event.Callback.Data)
}

type denyAfterFirst struct {
	seen map[int64]bool
}

func (c *denyAfterFirst) Allow(_ context.Context, chatID int64) bool {
	if c.seen[chatID] {
		return false
	}
	c.seen[chatID] = true
	return true
}

func textUpdate(id int64, chatID int64, text string) models.Update {
	return models.Update{ID: id, Message: &models.Message{
		ID:   int(id),
		Chat: models.Chat{ID: chatID},
		From: &models.User{ID: chatID, FirstName: "u"},
		Text: text,
	}}
}

func run(t *testing.T, results []pollResult, opts ...Option) (*fakeSource, *fakeDispatcher, *store.Memory) {
	t.Helper()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	src := &fakeSource{results: results, cancel: cancel}
	disp := &fakeDispatcher{}
	mem := store.NewMemory("")

	p := New(src, disp, mem, mem, opts...)
	var sleeps []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop")
	}

	for _, r := range results {
		if r.err != nil {
			assert.Contains(t, sleeps, ErrorCooldown)
		}
	}

	return src, disp, mem
}

func TestPoller_OffsetAndDispatch(t *testing.T) {
	src, disp, mem := run(t, []pollResult{
		{updates: []models.Update{textUpdate(5, 1, "/ping"), textUpdate(6, 2, "hello")}},
		{updates: []models.Update{textUpdate(7, 1, "/echo hi")}},
	})

	assert.Equal(t, []int64{0, 7, 8}, src.offsets)
	assert.Equal(t, []string{"/ping", "hello", "/echo hi"}, disp.messages)

	n, _ := mem.Count(t.Context())
	assert.Equal(t, 2, n)

	counters, _ := mem.Counters(t.Context())
	assert.Equal(t, map[string]uint64{"ping": 1, "echo": 1}, counters)
}

func TestPoller_ErrorCooldown(t *testing.T) {
	src, disp, _ := run(t, []pollResult{
		{err: errors.New("connection reset")},
		{updates: []models.Update{textUpdate(1, 1, "/ping")}},
	})

	assert.Equal(t, []int64{0, 0, 2}, src.offsets)
	assert.Equal(t, []string{"/ping"}, disp.messages)
}

func TestPoller_Cooldown(t *testing.T) {
	_, disp, mem := run(t, []pollResult{
		{updates: []models.Update{
			textUpdate(1, 1, "/ping"),
			textUpdate(2, 1, "/ping"),
			textUpdate(3, 1, "not a command"),
		}},
	}, WithCooldown(&denyAfterFirst{seen: map[int64]bool{}}))

	assert.Equal(t, []string{"/ping", "not a command"}, disp.messages)

	counters, _ := mem.Counters(t.Context())
	assert.Equal(t, uint64(2), counters["ping"], "rejected commands are still counted")
}

func TestPoller_ForwardsToOperator(t *testing.T) {
	const operator = int64(99)

	contact := models.Update{ID: 1, Message: &models.Message{
		Chat:    models.Chat{ID: 5},
		Contact: &models.Contact{PhoneNumber: "+100", FirstName: "Ann", LastName: "Lee", UserID: 5},
	}}
	location := models.Update{ID: 2, Message: &models.Message{
		Chat:     models.Chat{ID: 5},
		Location: &models.Location{Latitude: 52.5, Longitude: 13.4},
	}}

	src, _, _ := run(t, []pollResult{{updates: []models.Update{contact, location}}}, WithOperator(operator))

	require.Len(t, src.sent[operator], 3)
	assert.Equal(t, "Contact from chat 5:\nphone: +100\nfirst_name: Ann\nlast_name: Lee\nuser_id: 5\n", src.sent[operator][0])
	assert.Equal(t, "Location from chat 5:\nlat: 52.5\nlon: 13.4\n", src.sent[operator][1])
	assert.Equal(t, shutdownNotice, src.sent[operator][2])
}

func TestPoller_NoOperatorNoNotices(t *testing.T) {
	contact := models.Update{ID: 1, Message: &models.Message{
		Chat:    models.Chat{ID: 5},
		Contact: &models.Contact{PhoneNumber: "+100", FirstName: "Ann"},
	}}

	src, _, _ := run(t, []pollResult{{updates: []models.Update{contact}}})

	assert.Empty(t, src.sent)
}

func TestPoller_Callbacks(t *testing.T) {
	cb := models.Update{ID: 3, CallbackQuery: &models.CallbackQuery{
		ID:   "q",
		Data: "echo Hello from button",
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{Chat: models.Chat{ID: 8}},
		},
	}}
	other := models.Update{ID: 4}

	src, disp, _ := run(t, []pollResult{{updates: []models.Update{cb, other}}})

	assert.Equal(t, []string{"echo Hello from button"}, disp.callbacks)
	assert.Empty(t, disp.messages)
	assert.Equal(t, []int64{0, 5}, src.offsets)
}

func TestContactReport(t *testing.T) {
	got := contactReport(3, &domain.Contact{PhoneNumber: "1", FirstName: "A"})
	assert.Equal(t, "Contact from chat 3:\nphone: 1\nfirst_name: A\n", got)
}
