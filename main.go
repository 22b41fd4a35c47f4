package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relaybot/internal/adapters/file"
	"relaybot/internal/adapters/handler"
	"relaybot/internal/adapters/poller"
	"relaybot/internal/adapters/store"
	"relaybot/internal/adapters/telegram"
	"relaybot/internal/config"
	"relaybot/internal/core/domain/command"
	"relaybot/internal/core/port"
	"relaybot/internal/core/service"
	"relaybot/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

const (
	shutdownGrace    = 30 * time.Second
	cooldownPruneInt = time.Minute
)

type backend interface {
	port.KeyValueStore
	port.UserSet
	port.CounterStore
	port.Snapshotter
}

func main() {
	log.Info().Msg("starting relaybot...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	setupLogging(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := telegram.New(cfg.Token,
		telegram.WithBaseURL(cfg.APIURL),
		telegram.WithBackoff(telegram.Backoff{Initial: cfg.InitialBackoff, MaxAttempts: cfg.MaxAttempts}),
		telegram.WithRateLimit(cfg.RateLimit, 1),
	)

	me, err := client.GetMe(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to reach telegram api")
	}
	log.Info().Str("username", me.Username).Int64("id", me.ID).Msg("authenticated")

	db, closeStore := openStore(cfg)
	defer closeStore()

	auth := service.NewOperatorAuthorizer(cfg.AdminID)
	registry := registerCommands(cfg, db, auth)

	dispatcher := handler.NewDispatcher(registry, client)
	dispatcher.SetConcurrencyLimit(cfg.MaxConcurrency)
	dispatcher.SetOperator(cfg.AdminID)
	dispatcher.SetTimeout(cfg.HandlerTimeout)

	cooldown := service.NewCooldownTracker(client, cfg.Cooldown)

	var wg conc.WaitGroup
	wg.Go(func() { service.Autosave(ctx, db, cfg.AutosaveInterval) })
	wg.Go(func() { cooldown.Prune(ctx, cooldownPruneInt) })

	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr)
		wg.Go(func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Msg("metrics server failed")
			}
		})
		wg.Go(func() {
			<-ctx.Done()
			stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := srv.Stop(stopCtx); err != nil {
				log.Warn().Err(err).Msg("metrics server shutdown failed")
			}
		})
	}

	p := poller.New(client, dispatcher, db, db,
		poller.WithOperator(cfg.AdminID),
		poller.WithCooldown(cooldown),
		poller.WithPollTimeout(cfg.PollTimeout),
	)

	log.Info().Msg("bot listening")
	p.Run(ctx)

	waitForHandlers(dispatcher)
	wg.Wait()

	log.Info().Msg("bye")
}

func setupLogging(cfg *config.Config) {
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)
}

func openStore(cfg *config.Config) (backend, func()) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		r, err := store.NewRedis(cfg.RedisURL, store.DefaultPrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("failed initializing redis store")
		}
		log.Info().Msg("using redis store")
		return r, func() {
			if err := r.Close(); err != nil {
				log.Warn().Err(err).Msg("failed closing redis store")
			}
		}
	default:
		m := store.NewMemory(cfg.StoreDir)
		m.Load()
		log.Info().Str("dir", cfg.StoreDir).Msg("using file store")
		return m, func() {}
	}
}

func registerCommands(cfg *config.Config, db backend, auth *service.OperatorAuthorizer) *command.Registry {
	registry := command.NewRegistry()

	registry.Register("help", command.NewHelp(registry, auth, command.MenuKeyboard()))
	registry.Register("start", command.NewStart(db, auth, file.Temp{}, command.ShareKeyboard()))
	registry.Register("ping", port.HandlerFunc(command.Ping))
	registry.Register("echo", port.HandlerFunc(command.Echo))
	registry.Register("whoami", port.HandlerFunc(command.Whoami))
	registry.Register("keyboard", command.NewMarkup("Choose:", command.MenuKeyboard()))
	registry.Register("inline", command.NewMarkup("Inline example:", command.InlineKeyboard()))
	registry.Register("set", command.NewSet(db))
	registry.Register("get", command.NewGet(db))
	registry.Register("broadcast", command.NewBroadcast(db, auth))
	registry.Register("inspect", command.NewInspect(auth))
	registry.Register("upload", command.NewUpload(cfg.UploadPath))
	registry.Register("stats", command.NewStats(db, db))
	registry.Register("debug", command.NewDebug(auth))
	registry.RegisterCatchAll(port.HandlerFunc(command.Button))

	return registry
}

// waitForHandlers gives in-flight handlers a bounded time to finish. Handlers are otherwise
// fire-and-forget; this grace period lets a reply being sent at shutdown complete instead
// of being dropped, and handlers still running after shutdownGrace are abandoned.
func waitForHandlers(d *handler.Dispatcher) {
	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownGrace):
		log.Warn().Dur("grace", shutdownGrace).Msg("handlers still running at shutdown")
	}
}
