package engine

import (
	"context"

	"xcall-engine/codec"
	"xcall-engine/message"
)

// ExecuteCall is execute_call from spec.md §4.6: verify the supplied raw
// data against the stored digest, invoke the destination dapp, emit
// CallExecuted, and — for a rollback-capable request whose sequence_no is
// nonzero (i.e. this node is the receiver, not replaying its own reply) —
// send a CSMessageResult back through every protocol that delivered the
// original request.
func (e *Engine) ExecuteCall(ctx context.Context, reqID uint64, rawData []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pr, err := e.store.GetProxyRequest(reqID)
	if err != nil {
		return ErrInvalidRequestID
	}

	h := codec.Keccak256(rawData)
	if !bytesEqual(h.Bytes(), pr.DataHash) {
		return ErrDataMismatch
	}

	from, err := codec.ParseNetworkAddress(pr.From)
	if err != nil {
		return ErrDecodeFailed
	}

	result := e.dapp.HandleCallMessage(ctx, pr.To, from, rawData, pr.Protocols)

	msgType := message.MessageType(pr.MsgType)
	keepForRetry := message.AllowRetry(msgType) && !result.Success
	if !keepForRetry {
		if err := e.store.DeleteProxyRequest(reqID); err != nil {
			return err
		}
	}

	e.log.Info("xcall execute_call", "req_id", reqID, "success", result.Success)
	e.emit(Event{Kind: KindCallExecuted, CallExecuted: &CallExecuted{ReqID: reqID, Success: result.Success, Message: result.Message}})

	if message.NeedResponse(msgType) && pr.SequenceNo != 0 {
		code := message.CodeFailure
		if result.Success {
			code = message.CodeSuccess
		}
		var replyBytes []byte
		if result.Success && result.Message != "" {
			// The reply optimization (spec.md §4.5): a Success result may
			// carry a fresh CSMessageRequest-encoded message, which the
			// origin's receive pipeline decodes and mints as a new proxy.
			replyBytes = []byte(result.Message)
		}
		payload, err := message.WrapResult(message.CSMessageResult{
			SequenceNo:   pr.SequenceNo,
			ResponseCode: code,
			Message:      replyBytes,
		})
		if err != nil {
			return err
		}
		conns, err := e.resolveConnections(pr.Protocols)
		if err != nil {
			return err
		}
		for _, c := range conns {
			if err := c.SendMessage(ctx, pr.To, from.NID, 0, payload); err != nil {
				return err
			}
		}
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

