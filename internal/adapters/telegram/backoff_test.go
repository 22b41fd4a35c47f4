package telegram

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_NextDelay(t *testing.T) {
	b := DefaultBackoff()

	tests := []struct {
		name    string
		attempt int
		hint    time.Duration
		want    time.Duration
	}{
		{name: "first retry", attempt: 1, want: 500 * time.Millisecond},
		{name: "second retry doubles", attempt: 2, want: time.Second},
		{name: "fourth retry", attempt: 4, want: 4 * time.Second},
		{name: "no upper clamp", attempt: 10, want: 256 * time.Second},
		{name: "attempt zero treated as first", attempt: 0, want: 500 * time.Millisecond},
		{name: "hint overrides", attempt: 3, hint: 7 * time.Second, want: 7 * time.Second},
		{name: "hint may be shorter", attempt: 5, hint: time.Second, want: time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, b.NextDelay(tc.attempt, tc.hint))
		})
	}
}

func TestBackoff_NextDelayMonotone(t *testing.T) {
	b := Backoff{Initial: 10 * time.Millisecond, MaxAttempts: 50}

	prev := time.Duration(0)
	for attempt := 1; attempt <= 50; attempt++ {
		d := b.NextDelay(attempt, 0)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
		prev = d
	}
}

func TestBackoff_Attempts(t *testing.T) {
	assert.Equal(t, 5, DefaultBackoff().Attempts())
	assert.Equal(t, 1, Backoff{}.Attempts())
	assert.Equal(t, 3, Backoff{MaxAttempts: 3}.Attempts())
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		text   string
		want   time.Duration
		wantOK bool
	}{
		{text: "Too Many Requests: retry after 7", want: 7 * time.Second, wantOK: true},
		{text: "RETRY AFTER 7", want: 7 * time.Second, wantOK: true},
		{text: "please Retry After: 7s.", want: 7 * time.Second, wantOK: true},
		{text: "retry after (7) seconds", want: 7 * time.Second, wantOK: true},
		{text: "retry after ~ 7 sec, thanks", want: 7 * time.Second, wantOK: true},
		{text: "retry after 1,200", want: 1200 * time.Second, wantOK: true},
		{text: "Bad Request: chat not found", wantOK: false},
		{text: "retry later", wantOK: false},
		{text: "retry after soon", wantOK: false},
		{text: "Bad Request: can't retry after message was deleted, message_id 12345", wantOK: false},
		{text: "retry after soon; error 42", wantOK: false},
		{text: "retry after 99999999999", wantOK: false},
		{text: "retry after 3601", wantOK: false},
		{text: "retry after 3600", want: time.Hour, wantOK: true},
		{text: "", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			got, ok := ParseRetryAfter(tc.text)

			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRetryAfterHeader(t *testing.T) {
	h := http.Header{}
	_, ok := retryAfterHeader(h)
	assert.False(t, ok)

	h.Set("Retry-After", "3")
	d, ok := retryAfterHeader(h)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)

	h.Set("Retry-After", "Wed, 21 Oct 2015 07:28:00 GMT")
	_, ok = retryAfterHeader(h)
	assert.False(t, ok)
}
