package chats

import "errors"

var (
	ErrInvalidInput         = errors.New("message content is required")
	ErrSendInProgress       = errors.New("a reply is already being generated for this resume")
	ErrAssistantUnavailable = errors.New("assistant unavailable")
	ErrTurnNotFound         = errors.New("chat turn not found")
)
