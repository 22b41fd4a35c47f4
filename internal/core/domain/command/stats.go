package command

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"relaybot/internal/core/domain"
	"relaybot/internal/core/port"
)

// Stats reports the number of known chats and how often each command was used.
type Stats struct {
	users    port.UserSet
	counters port.CounterStore
}

func NewStats(users port.UserSet, counters port.CounterStore) *Stats {
	return &Stats{users: users, counters: counters}
}

func (s *Stats) Handle(ctx context.Context, client port.Client, event *domain.Event) error {
	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}

	counters, err := s.counters.Counters(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	slices.Sort(names)

	var sb strings.Builder
	fmt.Fprintf(&sb, "users: %d\n", count)
	for _, name := range names {
		fmt.Fprintf(&sb, "%s: %d\n", name, counters[name])
	}

	return client.SendText(ctx, event.Message.ChatID, sb.String())
}
