package engine

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"xcall-engine/codec"
	"xcall-engine/message"
	"xcall-engine/store"
)

// SendCall is send_call from spec.md §4.4: validate, allocate a sequence
// number, resolve the route, dispatch to every source connection, and
// (for rollback-capable calls) persist a Rollback record. Any
// connection-send failure aborts the whole send atomically — no store
// mutation is committed until every dispatch has succeeded.
func (e *Engine) SendCall(ctx context.Context, sender string, senderIsContract bool, env message.Envelope, to codec.NetworkAddress) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, err := e.requireConfig()
	if err != nil {
		return 0, err
	}

	msg, err := env.Message()
	if err != nil {
		return 0, err
	}
	if err := validateMessage(msg, senderIsContract); err != nil {
		return 0, err
	}

	sources, err := e.resolveRoute(to.NID, env.Sources)
	if err != nil {
		return 0, err
	}
	destinations := env.Destinations
	if len(destinations) == 0 {
		destinations, err = e.resolveRoute(to.NID, nil)
		if err != nil {
			return 0, err
		}
	}

	// The sequence counter is only advanced in the store once every dispatch
	// below has succeeded, so a failed send burns no sequence number.
	seq := cfg.SequenceNo + 1

	data, rollbackBytes := messageBytes(msg)

	wireSeq := seq
	if msg.Type() == message.TypeCallMessage && len(destinations) == 1 {
		wireSeq = 0
	}

	req := message.CSMessageRequest{
		From:       cfg.NetworkID + "/" + sender,
		To:         to.Account,
		SequenceNo: wireSeq,
		Protocols:  destinations,
		MsgType:    msg.Type(),
		Data:       data,
	}
	payload, err := message.WrapRequest(req)
	if err != nil {
		return 0, err
	}

	var signedSN int64
	switch {
	case message.NeedResponse(msg.Type()):
		signedSN = int64(seq)
	case message.AllowRetry(msg.Type()):
		signedSN = -int64(seq)
	default:
		signedSN = 0
	}

	conns, err := e.resolveConnections(sources)
	if err != nil {
		return 0, err
	}

	total := new(uint256.Int).Set(cfg.ProtocolFee)
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range conns {
		c := c
		fee, err := c.GetFee(to.NID, message.NeedResponse(msg.Type()))
		if err != nil {
			return 0, fmt.Errorf("get_fee %s: %w", c.ID(), err)
		}
		total.Add(total, fee)
		g.Go(func() error {
			return c.SendMessage(gctx, sender, to.NID, signedSN, payload)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("send_message: %w", err)
	}
	if _, err := store.NextSequence(e.store); err != nil {
		return 0, err
	}

	if message.NeedResponse(msg.Type()) {
		if err := e.store.PutRollback(seq, store.Rollback{
			From:          sender,
			To:            to.String(),
			Protocols:     sources,
			RollbackBytes: rollbackBytes,
			Enabled:       false,
		}); err != nil {
			return 0, err
		}
	}

	e.log.Info("xcall send", "from", sender, "to", to.String(), "sn", seq, "type", msg.Type())
	e.emit(Event{Kind: KindCallMessageSent, CallMessageSent: &CallMessageSent{From: sender, To: to.String(), SN: seq}})
	return seq, nil
}

// SendCallMessage is the legacy convenience wrapper from spec.md §6: build
// a default-routed envelope around data (and an optional rollback payload)
// and send it.
func (e *Engine) SendCallMessage(ctx context.Context, sender string, senderIsContract bool, to codec.NetworkAddress, data, rollback []byte) (uint64, error) {
	var msg message.AnyMessage
	if len(rollback) > 0 {
		msg = message.CallMessageWithRollback{Data: data, Rollback: rollback}
	} else {
		msg = message.CallMessage{Data: data}
	}
	env, err := message.NewEnvelope(msg, nil, nil)
	if err != nil {
		return 0, err
	}
	return e.SendCall(ctx, sender, senderIsContract, env, to)
}

func validateMessage(msg message.AnyMessage, senderIsContract bool) error {
	switch v := msg.(type) {
	case message.CallMessage:
		if len(v.Data) > MaxDataSize {
			return ErrMaxDataSizeExceeded
		}
	case message.CallMessagePersisted:
		if len(v.Data) > MaxDataSize {
			return ErrMaxDataSizeExceeded
		}
	case message.CallMessageWithRollback:
		if len(v.Data) > MaxDataSize {
			return ErrMaxDataSizeExceeded
		}
		if len(v.Rollback) == 0 {
			return ErrNoRollbackData
		}
		if len(v.Rollback) > MaxRollbackSize {
			return ErrMaxRollbackSizeExceeded
		}
		if !senderIsContract {
			return ErrRollbackNotPossible
		}
	default:
		return ErrMessageTypeNotSupported
	}
	return nil
}

func messageBytes(msg message.AnyMessage) (data, rollback []byte) {
	switch v := msg.(type) {
	case message.CallMessage:
		return v.Data, nil
	case message.CallMessagePersisted:
		return v.Data, nil
	case message.CallMessageWithRollback:
		return v.Data, v.Rollback
	default:
		return nil, nil
	}
}

// resolveRoute returns ids unchanged if non-empty, otherwise the single
// DefaultConnection configured for toNID.
func (e *Engine) resolveRoute(toNID string, ids []string) ([]string, error) {
	if len(ids) > 0 {
		return ids, nil
	}
	def, err := e.store.GetDefaultConnection(toNID)
	if err != nil {
		return nil, ErrNoDefaultConnection
	}
	return []string{def}, nil
}
