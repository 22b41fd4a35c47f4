package telegram

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxAttempts    = 5

	// shifts above this would overflow time.Duration
	maxShift = 32

	// longest server hint honoured, in seconds
	maxRetryAfterSecs = 3600
)

// Backoff computes the wait between attempts of one remote call.
type Backoff struct {
	Initial     time.Duration
	MaxAttempts int
}

func DefaultBackoff() Backoff {
	return Backoff{Initial: DefaultInitialBackoff, MaxAttempts: DefaultMaxAttempts}
}

// NextDelay returns the wait after the given number of failed attempts (starting at 1).
// A positive hint from the remote replaces the exponential delay.
func (b Backoff) NextDelay(attempt int, hint time.Duration) time.Duration {
	if hint > 0 {
		return hint
	}

	initial := b.Initial
	if initial <= 0 {
		initial = DefaultInitialBackoff
	}

	shift := attempt - 1
	if shift < 0 {
		shift = 0
	}
	if shift > maxShift {
		shift = maxShift
	}

	return initial << shift
}

// Attempts returns the attempt budget, at least 1.
func (b Backoff) Attempts() int {
	if b.MaxAttempts < 1 {
		return 1
	}

	return b.MaxAttempts
}

var retryAfterPattern = regexp.MustCompile(`(?i)retry after[\s:=(~-]*(\d[\d,_]*)`)

// ParseRetryAfter extracts the number of seconds following "retry after" in free text.
// Only punctuation or whitespace may separate the phrase from the number.
func ParseRetryAfter(text string) (time.Duration, bool) {
	match := retryAfterPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}

	digits := strings.NewReplacer(",", "", "_", "").Replace(match[1])

	secs, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}

	return retryAfterSeconds(secs)
}

// retryAfterSeconds rejects negative hints and hints above maxRetryAfterSecs.
func retryAfterSeconds(secs int) (time.Duration, bool) {
	if secs < 0 || secs > maxRetryAfterSecs {
		return 0, false
	}

	return time.Duration(secs) * time.Second, true
}

// retryAfterHeader reads an integer-seconds Retry-After header.
func retryAfterHeader(h http.Header) (time.Duration, bool) {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0, false
	}

	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}

	return retryAfterSeconds(secs)
}
