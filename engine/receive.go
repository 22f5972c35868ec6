package engine

import (
	"context"
	"encoding/binary"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"xcall-engine/codec"
	"xcall-engine/message"
	"xcall-engine/store"
)

// responsePendingKey keys PendingResponse by sequence number rather than by
// a hash of the encoded result: HandleForcedRollback (spec.md §4.6) needs
// to ask "is a response aggregation for this sequence partially filled"
// without having a copy of whatever CSMessageResult bytes are in flight.
func responsePendingKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

// HandleMessage is the connection-facing entry point of the receive
// pipeline (spec.md §4.5). connID identifies the calling connection (the
// authenticated invoker); fromNID is the network the connection claims the
// message originated from.
func (e *Engine) HandleMessage(ctx context.Context, fromNID, connID string, payload []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.requireConfig(); err != nil {
		return err
	}

	csMsg, err := message.DecodeCSMessage(payload)
	if err != nil {
		return ErrDecodeFailed
	}

	switch csMsg.WireType {
	case message.WireRequest:
		return e.handleRequest(ctx, fromNID, connID, csMsg.Payload)
	case message.WireResult:
		return e.handleResult(ctx, connID, csMsg.Payload)
	default:
		return ErrInvalidType
	}
}

func (e *Engine) handleRequest(ctx context.Context, fromNID, connID string, encodedReq []byte) error {
	req, err := message.DecodeCSMessageRequest(encodedReq)
	if err != nil {
		return ErrDecodeFailed
	}
	origin, err := codec.ParseNetworkAddress(req.From)
	if err != nil {
		return ErrDecodeFailed
	}
	if origin.NID != fromNID {
		return ErrProtocolsMismatch
	}

	h := codec.Keccak256(encodedReq)

	if len(req.Protocols) == 1 {
		if req.Protocols[0] != connID {
			return ErrProtocolsMismatch
		}
		return e.mintRequest(req, encodedReq)
	}

	if !containsString(req.Protocols, connID) {
		return ErrProtocolsMismatch
	}

	pending, err := e.store.GetPendingRequest(h.Bytes())
	if err != nil {
		return err
	}
	if pending.Contains(connID) {
		return ErrProtocolsMismatch
	}
	pending.Add(connID)

	required := mapset.NewSet(req.Protocols...)
	if pending.Equal(required) {
		if err := e.store.DeletePendingRequest(h.Bytes()); err != nil {
			return err
		}
		return e.mintRequest(req, encodedReq)
	}
	return e.store.PutPendingRequest(h.Bytes(), pending)
}

// mintRequest allocates a request id, stores the hash-bound proxy record,
// and emits the full payload to observers (spec.md §4.5 step 2).
func (e *Engine) mintRequest(req message.CSMessageRequest, encodedReq []byte) error {
	reqID, err := store.NextRequestID(e.store)
	if err != nil {
		return err
	}
	stored := req.WithDataHash()
	if err := e.store.PutProxyRequest(reqID, store.ProxyRequest{
		From:       stored.From,
		To:         stored.To,
		SequenceNo: stored.SequenceNo,
		Protocols:  stored.Protocols,
		MsgType:    uint8(stored.MsgType),
		DataHash:   stored.Data,
	}); err != nil {
		return err
	}

	e.log.Info("xcall request aggregated", "from", req.From, "to", req.To, "req_id", reqID)
	e.emit(Event{Kind: KindCallMessage, CallMessage: &CallMessage{
		From: req.From, To: req.To, SN: req.SequenceNo, ReqID: reqID, Data: req.Data,
	}})
	return nil
}

func (e *Engine) handleResult(ctx context.Context, connID string, encodedRes []byte) error {
	res, err := message.DecodeCSMessageResult(encodedRes)
	if err != nil {
		return ErrDecodeFailed
	}

	rb, err := e.store.GetRollback(res.SequenceNo)
	if err != nil {
		return ErrCallRequestNotFound
	}
	if !containsString(rb.Protocols, connID) {
		return ErrProtocolsMismatch
	}

	key := responsePendingKey(res.SequenceNo)

	if len(rb.Protocols) > 1 {
		pending, err := e.store.GetPendingResponse(key)
		if err != nil {
			return err
		}
		if pending.Contains(connID) {
			return ErrProtocolsMismatch
		}
		pending.Add(connID)

		required := mapset.NewSet(rb.Protocols...)
		if !pending.Equal(required) {
			return e.store.PutPendingResponse(key, pending)
		}
		if err := e.store.DeletePendingResponse(key); err != nil {
			return err
		}
	}

	return e.finalizeResult(res, rb)
}

func (e *Engine) finalizeResult(res message.CSMessageResult, rb store.Rollback) error {
	switch res.ResponseCode {
	case message.CodeSuccess:
		if err := e.store.SetSuccessfulResponse(res.SequenceNo); err != nil {
			return err
		}
		if err := e.store.DeleteRollback(res.SequenceNo); err != nil {
			return err
		}
		e.log.Info("xcall response success", "sn", res.SequenceNo)
		e.emit(Event{Kind: KindResponseMessage, ResponseMessage: &ResponseMessage{SN: res.SequenceNo, Success: true}})

		if len(res.Message) > 0 {
			reply, err := message.DecodeCSMessageRequest(res.Message)
			if err != nil {
				return ErrInvalidReplyReceived
			}
			replyOrigin, err := codec.ParseNetworkAddress(reply.From)
			if err != nil {
				return ErrInvalidReplyReceived
			}
			to, err := codec.ParseNetworkAddress(rb.To)
			if err != nil || replyOrigin.NID != to.NID {
				return ErrInvalidReplyReceived
			}
			reply.Protocols = rb.Protocols
			return e.mintRequest(reply, mustEncode(reply))
		}
		return nil

	case message.CodeFailure:
		rb.Enabled = true
		if err := e.store.PutRollback(res.SequenceNo, rb); err != nil {
			return err
		}
		e.log.Info("xcall response failure", "sn", res.SequenceNo)
		e.emit(Event{Kind: KindResponseMessage, ResponseMessage: &ResponseMessage{SN: res.SequenceNo, Success: false}})
		e.emit(Event{Kind: KindRollbackMessage, RollbackMessage: &RollbackMessage{SN: res.SequenceNo}})
		return nil

	default:
		return ErrInvalidType
	}
}

// HandleError is handle_error(sequence_no) from spec.md §4.5: equivalent
// to receiving a synthetic Failure result from the sole authorized
// connection for that rollback.
func (e *Engine) HandleError(ctx context.Context, connID string, seq uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rb, err := e.store.GetRollback(seq)
	if err != nil {
		return ErrCallRequestNotFound
	}
	if !containsString(rb.Protocols, connID) {
		return ErrProtocolsMismatch
	}
	return e.finalizeResult(message.CSMessageResult{SequenceNo: seq, ResponseCode: message.CodeFailure}, rb)
}

func containsString(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func mustEncode(req message.CSMessageRequest) []byte {
	b, err := req.Encode()
	if err != nil {
		// req was itself just decoded from valid RLP; re-encoding cannot fail.
		panic(fmt.Sprintf("xcall: re-encode reply request: %v", err))
	}
	return b
}
