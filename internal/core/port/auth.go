package port

import "context"

type Authorizer interface {
	// Operator returns the configured operator chat ID, if any.
	Operator() (int64, bool)
	// Authorize reports whether userID may run operator commands. When it may not, the reason is
	// sent to chatID.
	Authorize(ctx context.Context, sender Sender, chatID, userID int64) bool
}
