package command

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"relaybot/internal/core/domain"
	"relaybot/internal/core/port"

	"github.com/rs/zerolog/log"
)

// Registry maps command names to handlers. It is filled once at startup and only read
// afterwards, so it needs no locking.
type Registry struct {
	commands map[string][]port.Handler
	catchAll []port.Handler
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string][]port.Handler)}
}

func (r *Registry) Register(name string, handler port.Handler) {
	if r.commands == nil {
		r.commands = make(map[string][]port.Handler)
	}

	name = normalize(name)

	log.Info().Str("command", name).Msg("adding command handler to registry")
	r.commands[name] = append(r.commands[name], handler)
}

func (r *Registry) RegisterCatchAll(handler port.Handler) {
	log.Info().Msg("adding catch-all handler to registry")
	r.catchAll = append(r.catchAll, handler)
}

func (r *Registry) Lookup(name string) []port.Handler {
	log.Debug().Str("command", name).Msg("fetching command handlers from registry")

	return r.commands[normalize(name)]
}

func (r *Registry) CatchAll() []port.Handler {
	return r.catchAll
}

func (r *Registry) ListCommands() []string {
	keys := make([]string, 0, len(r.commands))
	for k := range r.commands {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func normalize(name string) string {
	return strings.TrimLeft(name, domain.CommandMarker)
}

// IsCommand reports whether text starts with the command marker.
func IsCommand(text string) bool {
	return strings.HasPrefix(text, domain.CommandMarker)
}

// ParseCommand splits a command message into its normalized name and the text following the
// first whitespace-delimited token. A "@botname" suffix on the name is dropped.
func ParseCommand(text string) (string, string) {
	token, args := text, ""

	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		token = text[:i]
		_, size := utf8.DecodeRuneInString(text[i:])
		args = text[i+size:]
	}

	if at := strings.Index(token, "@"); at > 0 {
		token = token[:at]
	}

	return normalize(token), args
}

// ParseCommandArgs returns the text following the command name.
func ParseCommandArgs(text string) string {
	_, args := ParseCommand(text)
	return args
}
