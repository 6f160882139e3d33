package queue

import (
	"errors"
	"fmt"
)

var (
	ErrNoActiveQueue = errors.New("queue: you must first create a queue")
	ErrNoAttributes  = errors.New("queue: you must at least provide an attribute to set (vt, delay, maxsize)")
	ErrDecode        = errors.New("queue: cannot decode message body")
)

// DecodeError is returned by Message.Decode when the body is not valid
// JSON for the target value.
type DecodeError struct {
	ID  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: message %s: %v", ErrDecode, e.ID, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }
