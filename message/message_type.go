package message

// MessageType tags the three AnyMessage variants on the wire. The source
// ecosystem carries two incompatible encodings of CallMessage across VM
// targets (1-byte and 0-byte tags); this module picks the mapping spec.md
// recommends: CallMessage=0, CallMessageWithRollback=1, CallMessagePersisted=2.
type MessageType uint8

const (
	TypeCallMessage             MessageType = 0
	TypeCallMessageWithRollback MessageType = 1
	TypeCallMessagePersisted    MessageType = 2
)

func (t MessageType) String() string {
	switch t {
	case TypeCallMessage:
		return "CallMessage"
	case TypeCallMessageWithRollback:
		return "CallMessageWithRollback"
	case TypeCallMessagePersisted:
		return "CallMessagePersisted"
	default:
		return "Unknown"
	}
}

// NeedResponse reports whether a request of this type requires the
// receiver to send a CSMessageResult back to the origin.
func NeedResponse(t MessageType) bool {
	return t == TypeCallMessageWithRollback
}

// AllowRetry reports whether a request of this type keeps its proxy record
// around after a failed execute_call, so the dapp can be retried.
func AllowRetry(t MessageType) bool {
	return t == TypeCallMessagePersisted
}

// WireType is the outer CSMessage discriminator. Both values present in the
// source ecosystem are preserved verbatim per spec.md's Open Question 1.
type WireType uint8

const (
	WireResult  WireType = 0
	WireRequest WireType = 1
)
