package poller

import (
	"context"
	"fmt"
	"time"

	"relaybot/internal/adapters/telegram"
	"relaybot/internal/core/domain"
	"relaybot/internal/core/domain/command"
	"relaybot/internal/core/port"
	"relaybot/internal/metrics"

	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPollTimeout = 30 * time.Second
	ErrorCooldown      = 2 * time.Second

	shutdownNotice  = "Bot is shutting down"
	shutdownTimeout = 10 * time.Second
)

// Source is the part of the API client the poller needs.
type Source interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]models.Update, error)
	SendText(ctx context.Context, chatID int64, text string) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, event *domain.Event)
	DispatchCallbackAction(ctx context.Context, event *domain.Event)
}

type Cooldown interface {
	Allow(ctx context.Context, chatID int64) bool
}

// Poller long-polls for updates and feeds them to the dispatcher.
type Poller struct {
	source     Source
	dispatcher Dispatcher
	users      port.UserSet
	counters   port.CounterStore
	cooldown   Cooldown
	operator   int64

	pollTimeout   time.Duration
	errorCooldown time.Duration
	offset        int64
	sleep         func(ctx context.Context, d time.Duration) error
	l             zerolog.Logger
}

type Option func(*Poller)

// WithOperator sets the chat that receives forwarded contacts, locations and the shutdown notice.
func WithOperator(id int64) Option {
	return func(p *Poller) {
		p.operator = id
	}
}

func WithCooldown(c Cooldown) Option {
	return func(p *Poller) {
		p.cooldown = c
	}
}

func WithPollTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.pollTimeout = d
		}
	}
}

func New(source Source, dispatcher Dispatcher, users port.UserSet, counters port.CounterStore, opts ...Option) *Poller {
	p := &Poller{
		source:        source,
		dispatcher:    dispatcher,
		users:         users,
		counters:      counters,
		pollTimeout:   DefaultPollTimeout,
		errorCooldown: ErrorCooldown,
		sleep:         sleepContext,
		l:             log.With().Str("component", "poller").Logger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run polls until ctx is done, then notifies the operator that the bot is going away.
func (p *Poller) Run(ctx context.Context) {
	p.l.Info().Dur("pollTimeout", p.pollTimeout).Msg("starting polling")

	for ctx.Err() == nil {
		updates, err := p.source.GetUpdates(ctx, p.offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			p.l.Error().Err(err).Dur("cooldown", p.errorCooldown).Msg("poll failed")
			_ = p.sleep(ctx, p.errorCooldown)
			continue
		}

		for _, u := range updates {
			p.handle(ctx, u)
		}
	}

	p.l.Info().Msg("shutdown signal received, stopping polling")
	p.notifyShutdown(ctx)
}

func (p *Poller) handle(ctx context.Context, u models.Update) {
	if next := u.ID + 1; next > p.offset {
		p.offset = next
	}

	event := telegram.ToEvent(u)

	switch {
	case event.Message != nil:
		metrics.UpdatesTotal.WithLabelValues("message").Inc()
		p.handleMessage(ctx, &event)
	case event.Callback != nil:
		metrics.UpdatesTotal.WithLabelValues("callback").Inc()
		p.dispatcher.DispatchCallbackAction(ctx, &event)
	default:
		metrics.UpdatesTotal.WithLabelValues("other").Inc()
		p.l.Debug().Int64("updateId", u.ID).Msg("ignoring update")
	}
}

func (p *Poller) handleMessage(ctx context.Context, event *domain.Event) {
	msg := event.Message

	l := p.l.With().Int64("updateId", event.UpdateID).Int64("chatId", msg.ChatID).Logger()

	if err := p.users.Add(ctx, msg.ChatID); err != nil {
		l.Warn().Err(err).Msg("failed to record chat")
	}

	if command.IsCommand(msg.Text) {
		name, _ := command.ParseCommand(msg.Text)
		if err := p.counters.Increment(ctx, name); err != nil {
			l.Warn().Err(err).Str("command", name).Msg("failed to count command")
		}

		if p.cooldown != nil && !p.cooldown.Allow(ctx, msg.ChatID) {
			return
		}
	}

	l.Info().Str("text", msg.Text).Msg("received message")

	p.forward(ctx, msg)
	p.dispatcher.Dispatch(ctx, event)
}

// forward relays shared contacts and locations to the operator.
func (p *Poller) forward(ctx context.Context, msg *domain.Message) {
	if p.operator == 0 {
		return
	}

	if c := msg.Contact; c != nil {
		p.notify(ctx, contactReport(msg.ChatID, c))
	}

	if loc := msg.Location; loc != nil {
		p.notify(ctx, fmt.Sprintf("Location from chat %d:\nlat: %v\nlon: %v\n", msg.ChatID, loc.Latitude, loc.Longitude))
	}
}

func contactReport(chatID int64, c *domain.Contact) string {
	body := fmt.Sprintf("Contact from chat %d:\nphone: %s\nfirst_name: %s\n", chatID, c.PhoneNumber, c.FirstName)
	if c.LastName != "" {
		body += fmt.Sprintf("last_name: %s\n", c.LastName)
	}
	if c.UserID != 0 {
		body += fmt.Sprintf("user_id: %d\n", c.UserID)
	}

	return body
}

func (p *Poller) notify(ctx context.Context, text string) {
	if err := p.source.SendText(ctx, p.operator, text); err != nil {
		p.l.Warn().Err(err).Msg("failed to notify operator")
	}
}

func (p *Poller) notifyShutdown(ctx context.Context) {
	if p.operator == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	p.notify(ctx, shutdownNotice)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
