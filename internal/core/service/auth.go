package service

import (
	"context"

	"relaybot/internal/core/port"

	"github.com/rs/zerolog/log"
)

const (
	noOperator = "ADMIN_ID not set"
	forbidden  = "not allowed"
)

// OperatorAuthorizer allows operator commands for a single configured user.
type OperatorAuthorizer struct {
	operator int64
}

// NewOperatorAuthorizer returns an authorizer for the given operator. Zero means none is configured.
func NewOperatorAuthorizer(operator int64) *OperatorAuthorizer {
	return &OperatorAuthorizer{operator: operator}
}

func (a *OperatorAuthorizer) Operator() (int64, bool) {
	return a.operator, a.operator != 0
}

func (a *OperatorAuthorizer) IsOperator(userID int64) bool {
	return a.operator != 0 && userID == a.operator
}

func (a *OperatorAuthorizer) Authorize(ctx context.Context, sender port.Sender, chatID, userID int64) bool {
	if a.IsOperator(userID) {
		return true
	}

	reply := forbidden
	if a.operator == 0 {
		reply = noOperator
	}

	log.Info().Int64("chatId", chatID).Int64("userId", userID).Str("reason", reply).Msg("rejected operator command")

	if err := sender.SendText(ctx, chatID, reply); err != nil {
		log.Err(err).Msg("failed to send unauthorized warning")
	}

	return false
}
