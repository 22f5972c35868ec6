package message

import "xcall-engine/codec"

// CSMessageRequest is the wire form of an inbound request, carried inside a
// CSMessage. From is the full "nid/account" of the sender; To carries only
// the destination account (the receiving chain's own nid is implicit).
// Wire shape: [from, to, sequence_no, protocols_list, msg_type_u8, data].
type CSMessageRequest struct {
	From       string
	To         string
	SequenceNo uint64
	Protocols  []string
	MsgType    MessageType
	Data       []byte
}

// WithDataHash returns a copy of req with Data replaced by its keccak-256
// digest, the form stored at the receiver to bound proxy-request storage.
func (req CSMessageRequest) WithDataHash() CSMessageRequest {
	h := codec.Keccak256(req.Data)
	cp := req
	cp.Data = h.Bytes()
	return cp
}

func (req CSMessageRequest) Encode() ([]byte, error) {
	return codec.Encode(req)
}

func DecodeCSMessageRequest(data []byte) (CSMessageRequest, error) {
	var req CSMessageRequest
	if err := codec.Decode(data, &req); err != nil {
		return CSMessageRequest{}, err
	}
	return req, nil
}

// ResponseCode is CSMessageResult's outcome tag.
type ResponseCode uint8

const (
	CodeFailure ResponseCode = 0
	CodeSuccess ResponseCode = 1
)

// CSMessageResult is the wire form of a reply to an earlier
// CallMessageWithRollback. Message may carry a reply-as-request encoding
// (the reply optimization) when non-empty.
// Wire shape: [sequence_no, response_code_u8, message_bytes].
type CSMessageResult struct {
	SequenceNo   uint64
	ResponseCode ResponseCode
	Message      []byte
}

func (res CSMessageResult) Encode() ([]byte, error) {
	return codec.Encode(res)
}

func DecodeCSMessageResult(data []byte) (CSMessageResult, error) {
	var res CSMessageResult
	if err := codec.Decode(data, &res); err != nil {
		return CSMessageResult{}, err
	}
	return res, nil
}

// CSMessage is the outermost wire frame exchanged between connections.
// Wire shape: [wire_type_u8, payload].
type CSMessage struct {
	WireType WireType
	Payload  []byte
}

func (m CSMessage) Encode() ([]byte, error) {
	return codec.Encode(m)
}

func DecodeCSMessage(data []byte) (CSMessage, error) {
	var m CSMessage
	if err := codec.Decode(data, &m); err != nil {
		return CSMessage{}, err
	}
	if m.WireType != WireRequest && m.WireType != WireResult {
		return CSMessage{}, ErrInvalidType
	}
	return m, nil
}

// WrapRequest builds the outer CSMessage carrying an encoded request.
func WrapRequest(req CSMessageRequest) ([]byte, error) {
	payload, err := req.Encode()
	if err != nil {
		return nil, err
	}
	return CSMessage{WireType: WireRequest, Payload: payload}.Encode()
}

// WrapResult builds the outer CSMessage carrying an encoded result.
func WrapResult(res CSMessageResult) ([]byte, error) {
	payload, err := res.Encode()
	if err != nil {
		return nil, err
	}
	return CSMessage{WireType: WireResult, Payload: payload}.Encode()
}
