package message

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnyMessageRoundTrip(t *testing.T) {
	cases := []AnyMessage{
		CallMessage{Data: []byte("hi")},
		CallMessageWithRollback{Data: []byte("hi"), Rollback: []byte("rb")},
		CallMessagePersisted{Data: []byte("hi")},
	}
	for _, msg := range cases {
		inner, err := EncodeAnyMessage(msg)
		require.NoError(t, err)
		out, err := DecodeAnyMessage(msg.Type(), inner)
		require.NoError(t, err)
		require.Equal(t, msg, out)
	}
}

func TestMessageTypeTagValues(t *testing.T) {
	require.Equal(t, MessageType(0), TypeCallMessage)
	require.Equal(t, MessageType(1), TypeCallMessageWithRollback)
	require.Equal(t, MessageType(2), TypeCallMessagePersisted)
}

func TestWireTypeTagValues(t *testing.T) {
	require.Equal(t, WireType(0), WireResult)
	require.Equal(t, WireType(1), WireRequest)
}

func TestNeedResponseAllowRetry(t *testing.T) {
	require.False(t, NeedResponse(TypeCallMessage))
	require.True(t, NeedResponse(TypeCallMessageWithRollback))
	require.False(t, NeedResponse(TypeCallMessagePersisted))

	require.False(t, AllowRetry(TypeCallMessage))
	require.False(t, AllowRetry(TypeCallMessageWithRollback))
	require.True(t, AllowRetry(TypeCallMessagePersisted))
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(CallMessageWithRollback{Data: []byte("d"), Rollback: []byte("r")}, []string{"C1", "C2"}, []string{"D1", "D2"})
	require.NoError(t, err)

	b, err := env.Encode()
	require.NoError(t, err)
	out, err := DecodeEnvelope(b)
	require.NoError(t, err)
	require.Equal(t, env, out)

	msg, err := out.Message()
	require.NoError(t, err)
	require.Equal(t, CallMessageWithRollback{Data: []byte("d"), Rollback: []byte("r")}, msg)
}

func TestCSMessageRequestWithDataHash(t *testing.T) {
	req := CSMessageRequest{
		From: "0x1.icon/A1", To: "B1", SequenceNo: 1,
		Protocols: []string{"C1"}, MsgType: TypeCallMessage, Data: []byte("payload"),
	}
	stored := req.WithDataHash()
	require.Len(t, stored.Data, 32)
	require.NotEqual(t, req.Data, stored.Data)
	require.Equal(t, req.From, stored.From)
}

func TestCSMessageRequestRoundTrip(t *testing.T) {
	req := CSMessageRequest{
		From: "0x1.icon/A1", To: "B1", SequenceNo: 42,
		Protocols: []string{"C1", "C2"}, MsgType: TypeCallMessageWithRollback, Data: []byte("data"),
	}
	b, err := req.Encode()
	require.NoError(t, err)
	out, err := DecodeCSMessageRequest(b)
	require.NoError(t, err)
	require.Equal(t, req, out)
}

func TestCSMessageResultRoundTrip(t *testing.T) {
	res := CSMessageResult{SequenceNo: 9, ResponseCode: CodeSuccess, Message: []byte("reply")}
	b, err := res.Encode()
	require.NoError(t, err)
	out, err := DecodeCSMessageResult(b)
	require.NoError(t, err)
	require.Equal(t, res, out)
}

func TestCSMessageWrapRequestAndResult(t *testing.T) {
	req := CSMessageRequest{From: "nid/acct", To: "to", SequenceNo: 1, Protocols: []string{"C"}, MsgType: TypeCallMessage, Data: []byte("x")}
	reqBytes, err := WrapRequest(req)
	require.NoError(t, err)
	decoded, err := DecodeCSMessage(reqBytes)
	require.NoError(t, err)
	require.Equal(t, WireRequest, decoded.WireType)

	res := CSMessageResult{SequenceNo: 1, ResponseCode: CodeFailure}
	resBytes, err := WrapResult(res)
	require.NoError(t, err)
	decoded, err = DecodeCSMessage(resBytes)
	require.NoError(t, err)
	require.Equal(t, WireResult, decoded.WireType)
}

func TestDecodeCSMessageRejectsUnknownWireType(t *testing.T) {
	// WireType is only ever 0 or 1; manually encoding a CSMessage with tag 2
	// must be rejected rather than silently accepted.
	raw := CSMessage{WireType: 2, Payload: []byte("x")}
	b, err := raw.Encode()
	require.NoError(t, err)
	_, err = DecodeCSMessage(b)
	require.ErrorIs(t, err, ErrInvalidType)
}
