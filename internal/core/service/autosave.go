package service

import (
	"context"
	"time"

	"relaybot/internal/core/port"

	"github.com/rs/zerolog/log"
)

const (
	DefaultAutosaveInterval = 30 * time.Second

	finalSaveTimeout = 10 * time.Second
)

// Autosave persists the snapshotter every interval until ctx is done, then saves once more.
func Autosave(ctx context.Context, s port.Snapshotter, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}

	l := log.With().Str("component", "autosave").Logger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Save(ctx); err != nil {
				l.Error().Err(err).Msg("autosave failed")
				continue
			}
			l.Debug().Msg("state saved")
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalSaveTimeout)
			if err := s.Save(saveCtx); err != nil {
				l.Error().Err(err).Msg("final save failed")
			} else {
				l.Info().Msg("state saved on shutdown")
			}
			cancel()
			return
		}
	}
}
