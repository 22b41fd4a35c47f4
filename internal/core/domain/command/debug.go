package command

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"runtime/metrics"

	"relaybot/internal/core/domain"
	"relaybot/internal/core/port"

	"github.com/rs/zerolog/log"
)

const kb = 1024

const debugTemplate = `allocated mem: %d KB
goroutines: %d
heap: %d KB
stack: %d KB
compiled with %s for %s-%s
`

// Debug reports runtime memory and build information. Operator only.
type Debug struct {
	auth port.Authorizer
}

func NewDebug(auth port.Authorizer) *Debug {
	return &Debug{auth: auth}
}

func (d *Debug) Handle(ctx context.Context, client port.Client, event *domain.Event) error {
	msg := event.Message
	if !d.auth.Authorize(ctx, client, msg.ChatID, msg.FromID) {
		return nil
	}

	log.Info().Int64("chatId", msg.ChatID).Str("command", "debug").Msg("handling request")

	return client.SendText(ctx, msg.ChatID, runtimeReport())
}

func runtimeReport() string {
	samples := []metrics.Sample{
		{Name: "/memory/classes/heap/objects:bytes"},
		{Name: "/memory/classes/heap/stacks:bytes"},
		{Name: "/memory/classes/total:bytes"},
	}
	metrics.Read(samples)

	values := make([]uint64, len(samples))
	for i, s := range samples {
		if s.Value.Kind() == metrics.KindUint64 {
			values[i] = s.Value.Uint64()
		}
	}

	goos, goarch := runtime.GOOS, runtime.GOARCH
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "GOOS":
				goos = setting.Value
			case "GOARCH":
				goarch = setting.Value
			}
		}
	}

	return fmt.Sprintf(debugTemplate,
		values[2]/kb,
		runtime.NumGoroutine(),
		values[0]/kb,
		values[1]/kb,
		runtime.Version(), goos, goarch,
	)
}
