package message

import "errors"

// ErrMessageTypeNotSupported is returned when a MessageType tag does not
// match any known AnyMessage variant.
var ErrMessageTypeNotSupported = errors.New("message: message type not supported")

// ErrInvalidType is returned when a WireType tag does not match Request or
// Result.
var ErrInvalidType = errors.New("message: invalid wire type")
