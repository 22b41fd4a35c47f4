package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a remote call failed.
type ErrorKind int

const (
	// KindTransport means no response was obtained (connection, IO).
	KindTransport ErrorKind = iota + 1
	// KindRateLimited means the remote throttled the call and the attempt budget ran out.
	KindRateLimited
	// KindRemoteFault means the remote kept answering with 5xx statuses.
	KindRemoteFault
	// KindApplication means the remote answered ok=false.
	KindApplication
	// KindDecode means the response did not match the expected envelope or result schema.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRateLimited:
		return "rate_limited"
	case KindRemoteFault:
		return "remote_fault"
	case KindApplication:
		return "application"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against a *CallError of the same kind.
var (
	ErrTransport   = errors.New("transport error")
	ErrRateLimited = errors.New("rate limited")
	ErrRemoteFault = errors.New("remote fault")
	ErrApplication = errors.New("application error")
	ErrDecode      = errors.New("decode error")
)

// CallError is the terminal failure of a remote call.
type CallError struct {
	Kind        ErrorKind
	Method      string
	Status      int
	Description string
	Err         error
}

func (e *CallError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Method, e.Kind, e.Description)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func (e *CallError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrRemoteFault:
		return e.Kind == KindRemoteFault
	case ErrApplication:
		return e.Kind == KindApplication
	case ErrDecode:
		return e.Kind == KindDecode
	}

	return false
}

// KindOf returns the kind of a call error anywhere in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}

	return 0
}

// HandlerFault is a panic recovered from a handler task.
type HandlerFault struct {
	Command string
	Value   any
	Stack   []byte
}

func (f *HandlerFault) Error() string {
	return fmt.Sprintf("handler %s panicked: %v", f.Command, f.Value)
}
