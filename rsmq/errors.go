package rsmq

import "errors"

var (
	ErrInvalidArgument     = errors.New("rsmq: invalid argument")
	ErrQueueNotFound       = errors.New("rsmq: queue not found")
	ErrQueueExists         = errors.New("rsmq: queue exists")
	ErrMessageTooLong      = errors.New("rsmq: message too long")
	ErrNoAttributeSupplied = errors.New("rsmq: no attribute was supplied")
	ErrRealtimeDisabled    = errors.New("rsmq: realtime not enabled")
)
