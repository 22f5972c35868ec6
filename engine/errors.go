package engine

import "errors"

// Error taxonomy mirrors spec.md §6 verbatim; names are stable across
// hosts even though this implementation surfaces them as Go sentinel
// errors rather than per-chain error codes.
var (
	ErrOnlyAdmin               = errors.New("xcall: only admin")
	ErrUninitialized           = errors.New("xcall: uninitialized")
	ErrNoDefaultConnection     = errors.New("xcall: no default connection")
	ErrMaxDataSizeExceeded     = errors.New("xcall: max data size exceeded")
	ErrMaxRollbackSizeExceeded = errors.New("xcall: max rollback size exceeded")
	ErrRollbackNotPossible     = errors.New("xcall: rollback not possible")
	ErrRollbackNotEnabled      = errors.New("xcall: rollback not enabled")
	ErrNoRollbackData          = errors.New("xcall: no rollback data")
	ErrProtocolsMismatch       = errors.New("xcall: protocols mismatch")
	ErrInvalidRequestID        = errors.New("xcall: invalid request id")
	ErrDataMismatch            = errors.New("xcall: data mismatch")
	ErrMessageTypeNotSupported = errors.New("xcall: message type not supported")
	ErrInvalidType             = errors.New("xcall: invalid type")
	ErrCallRequestNotFound     = errors.New("xcall: call request not found")
	ErrInvalidReplyReceived    = errors.New("xcall: invalid reply received")
	ErrDecodeFailed            = errors.New("xcall: decode failed")
)
