package message

import "xcall-engine/codec"

// Envelope is the sender-side description of a local call: which AnyMessage
// variant to send, and the explicit route (sources/destinations) to use.
// Wire shape: [msg_type_u8, inner_bytes, sources_list, destinations_list].
type Envelope struct {
	MsgType      MessageType
	Inner        []byte
	Sources      []string
	Destinations []string
}

// NewEnvelope encodes msg's inner variant and packages it with the given
// route.
func NewEnvelope(msg AnyMessage, sources, destinations []string) (Envelope, error) {
	inner, err := EncodeAnyMessage(msg)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		MsgType:      msg.Type(),
		Inner:        inner,
		Sources:      sources,
		Destinations: destinations,
	}, nil
}

// Message decodes the envelope's inner variant back into an AnyMessage.
func (e Envelope) Message() (AnyMessage, error) {
	return DecodeAnyMessage(e.MsgType, e.Inner)
}

// Encode RLP-encodes the envelope for transmission to the local VM's
// send_call entry point (not itself placed on the inter-chain wire).
func (e Envelope) Encode() ([]byte, error) {
	return codec.Encode(e)
}

// DecodeEnvelope decodes bytes produced by Encode.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := codec.Decode(data, &e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}
