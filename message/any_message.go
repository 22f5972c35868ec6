package message

import "xcall-engine/codec"

// AnyMessage is the closed sum type a local sender hands to send_call: a
// fire-and-forget CallMessage, a CallMessageWithRollback that requires
// acknowledgement, or a CallMessagePersisted that must eventually be
// delivered. It is implemented as a closed variant (an unexported marker
// method) rather than an open interface so the codec and the send/receive
// pipelines can exhaustively switch on it.
type AnyMessage interface {
	Type() MessageType
	isAnyMessage()
}

// CallMessage is fire-and-forget: no reply, no rollback.
type CallMessage struct {
	Data []byte
}

func (CallMessage) Type() MessageType { return TypeCallMessage }
func (CallMessage) isAnyMessage()     {}

// CallMessageWithRollback requires an acknowledgement from the receiver;
// Rollback may be executed at the origin if that acknowledgement is Failure.
type CallMessageWithRollback struct {
	Data     []byte
	Rollback []byte
}

func (CallMessageWithRollback) Type() MessageType { return TypeCallMessageWithRollback }
func (CallMessageWithRollback) isAnyMessage()     {}

// CallMessagePersisted must eventually be delivered: retries are allowed at
// the receive side via execute_call, but there is no rollback path.
type CallMessagePersisted struct {
	Data []byte
}

func (CallMessagePersisted) Type() MessageType { return TypeCallMessagePersisted }
func (CallMessagePersisted) isAnyMessage()     {}

// EncodeAnyMessage RLP-encodes the variant's inner struct (not the
// MessageType tag; that travels alongside in the Envelope).
func EncodeAnyMessage(m AnyMessage) ([]byte, error) {
	switch v := m.(type) {
	case CallMessage:
		return codec.Encode(v)
	case CallMessageWithRollback:
		return codec.Encode(v)
	case CallMessagePersisted:
		return codec.Encode(v)
	default:
		return nil, ErrMessageTypeNotSupported
	}
}

// DecodeAnyMessage decodes inner bytes into the variant named by t.
func DecodeAnyMessage(t MessageType, inner []byte) (AnyMessage, error) {
	switch t {
	case TypeCallMessage:
		var v CallMessage
		if err := codec.Decode(inner, &v); err != nil {
			return nil, err
		}
		return v, nil
	case TypeCallMessageWithRollback:
		var v CallMessageWithRollback
		if err := codec.Decode(inner, &v); err != nil {
			return nil, err
		}
		return v, nil
	case TypeCallMessagePersisted:
		var v CallMessagePersisted
		if err := codec.Decode(inner, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, ErrMessageTypeNotSupported
	}
}
