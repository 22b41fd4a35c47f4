package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"relaybot/internal/core/domain"
	"relaybot/internal/core/domain/command"
	"relaybot/internal/core/port"
	"relaybot/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultTimeout = 2 * time.Minute

	callbackCommand = "callback"
	reportTimeout   = 10 * time.Second
)

// Dispatcher routes events to registered handlers. Each handler runs in its own goroutine;
// failures and panics are contained there and reported, never returned to the caller.
type Dispatcher struct {
	registry port.CommandRegistry
	client   port.Client

	sem      *semaphore.Weighted
	operator int64
	timeout  time.Duration

	wg sync.WaitGroup
	l  zerolog.Logger
}

func NewDispatcher(registry port.CommandRegistry, client port.Client) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		client:   client,
		timeout:  DefaultTimeout,
		l:        log.With().Str("component", "dispatcher").Logger(),
	}
}

// SetConcurrencyLimit bounds the number of handlers executing at once. Zero or less removes the bound.
// Must be called before the first dispatch.
func (d *Dispatcher) SetConcurrencyLimit(n int) {
	if n <= 0 {
		d.sem = nil
		return
	}

	d.sem = semaphore.NewWeighted(int64(n))
}

// SetOperator sets the chat that receives handler failure reports. Zero disables reports.
func (d *Dispatcher) SetOperator(id int64) {
	d.operator = id
}

// SetTimeout sets the deadline of each handler task. Zero disables it.
func (d *Dispatcher) SetTimeout(timeout time.Duration) {
	d.timeout = timeout
}

// Dispatch starts the handlers registered for the command in the event's message text.
// Messages that are not commands, and unknown commands, are ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, event *domain.Event) {
	if event == nil || event.Message == nil || !command.IsCommand(event.Message.Text) {
		return
	}

	name, _ := command.ParseCommand(event.Message.Text)
	handlers := d.registry.Lookup(name)
	if len(handlers) == 0 {
		d.l.Debug().Str("command", name).Int64("chatId", event.Message.ChatID).Msg("no handler for command")
		return
	}

	for _, h := range handlers {
		d.spawn(ctx, name, h, event)
	}
}

// DispatchCallbackAction starts the catch-all handlers for a button press.
func (d *Dispatcher) DispatchCallbackAction(ctx context.Context, event *domain.Event) {
	if event == nil || event.Callback == nil {
		return
	}

	for _, h := range d.registry.CatchAll() {
		d.spawn(ctx, callbackCommand, h, event)
	}
}

// Wait blocks until every handler started so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) spawn(ctx context.Context, name string, h port.Handler, event *domain.Event) {
	taskCtx := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		if d.sem != nil {
			// taskCtx is never cancelled, so Acquire only returns once a permit is free
			if err := d.sem.Acquire(taskCtx, 1); err != nil {
				d.l.Error().Err(err).Str("command", name).Msg("could not acquire handler permit")
				return
			}
			defer d.sem.Release(1)
		}

		metrics.HandlersInflight.Inc()
		defer metrics.HandlersInflight.Dec()

		d.run(taskCtx, name, h, event)
	}()
}

func (d *Dispatcher) run(ctx context.Context, name string, h port.Handler, event *domain.Event) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	l := d.l.With().Str("command", name).Int64("updateId", event.UpdateID).Logger()
	started := time.Now()

	var err error
	var pc panics.Catcher
	pc.Try(func() {
		err = h.Handle(ctx, d.client, event)
	})

	if r := pc.Recovered(); r != nil {
		fault := &domain.HandlerFault{Command: name, Value: r.Value, Stack: r.Stack}
		l.Error().Interface("panic", r.Value).Bytes("stack", r.Stack).Msg("handler panicked")
		metrics.HandlerRunsTotal.WithLabelValues(name, "panic").Inc()
		d.report(fault.Error())
		return
	}

	if err != nil {
		l.Error().Err(err).Dur("took", time.Since(started)).Msg("handler failed")
		metrics.HandlerRunsTotal.WithLabelValues(name, "error").Inc()
		d.report(fmt.Sprintf("handler %s failed: %v", name, err))
		return
	}

	l.Debug().Dur("took", time.Since(started)).Msg("handler finished")
	metrics.HandlerRunsTotal.WithLabelValues(name, "ok").Inc()
}

// report notifies the operator. Failures to deliver are logged and dropped.
func (d *Dispatcher) report(text string) {
	if d.operator == 0 || d.client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	if err := d.client.SendText(ctx, d.operator, text); err != nil {
		d.l.Warn().Err(err).Msg("could not notify operator")
	}
}
