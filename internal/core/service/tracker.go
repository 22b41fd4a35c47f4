package service

import (
	"context"
	"sync"
	"time"

	"relaybot/internal/core/port"

	"github.com/rs/zerolog/log"
)

const cooldownWarning = "Please wait a moment before sending another command."

// CooldownTracker rate limits commands per chat. A chat may issue one command per window.
type CooldownTracker struct {
	last   map[int64]time.Time
	window time.Duration
	mutex  sync.Mutex
	sender port.Sender
	now    func() time.Time
}

func NewCooldownTracker(sender port.Sender, window time.Duration) *CooldownTracker {
	return &CooldownTracker{
		last:   make(map[int64]time.Time),
		window: window,
		sender: sender,
		now:    time.Now,
	}
}

// Allow records a command from chatID and reports whether it is outside the cooldown window.
// Rejected chats are told to wait; a rejected command does not restart the window.
func (t *CooldownTracker) Allow(ctx context.Context, chatID int64) bool {
	if t.window <= 0 {
		return true
	}

	now := t.now()

	t.mutex.Lock()
	last, seen := t.last[chatID]
	allowed := !seen || now.Sub(last) >= t.window
	if allowed {
		t.last[chatID] = now
	}
	t.mutex.Unlock()

	if allowed {
		return true
	}

	log.Debug().Int64("chatId", chatID).Msg("command rejected by cooldown")

	if err := t.sender.SendText(ctx, chatID, cooldownWarning); err != nil {
		log.Warn().Err(err).Msg("failed to send cooldown warning")
	}

	return false
}

// Prune periodically forgets chats whose window has passed, until ctx is done.
func (t *CooldownTracker) Prune(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.prune()
		case <-ctx.Done():
			log.Debug().Msg("stopping cooldown pruning")
			return
		}
	}
}

func (t *CooldownTracker) prune() {
	now := t.now()

	t.mutex.Lock()
	defer t.mutex.Unlock()

	for id, last := range t.last {
		if now.Sub(last) >= t.window {
			delete(t.last, id)
		}
	}
}
