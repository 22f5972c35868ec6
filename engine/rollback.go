package engine

import (
	"context"

	"xcall-engine/codec"
)

// ExecuteRollback is execute_rollback from spec.md §4.6: invoke the origin
// dapp with the stored rollback payload and delete the record. Both dapp
// outcomes are terminal — rollback is best-effort, so a Failure result here
// still deletes the record and emits RollbackExecuted rather than
// reverting.
func (e *Engine) ExecuteRollback(ctx context.Context, seq uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.executeRollbackLocked(ctx, seq)
}

func (e *Engine) executeRollbackLocked(ctx context.Context, seq uint64) error {
	rb, err := e.store.GetRollback(seq)
	if err != nil {
		return ErrRollbackNotEnabled
	}
	if !rb.Enabled {
		return ErrRollbackNotEnabled
	}

	cfg, err := e.requireConfig()
	if err != nil {
		return err
	}
	self := codec.NetworkAddress{NID: cfg.NetworkID, Account: "self"}

	result := e.dapp.HandleCallMessage(ctx, rb.From, self, rb.RollbackBytes, rb.Protocols)

	if err := e.store.DeleteRollback(seq); err != nil {
		return err
	}

	e.log.Info("xcall execute_rollback", "sn", seq, "success", result.Success, "message", result.Message)
	e.emit(Event{Kind: KindRollbackExecuted, RollbackExecuted: &RollbackExecuted{SN: seq}})
	return nil
}

// HandleForcedRollback is forced_rollback from spec.md §4.6: admin- or
// original-sender-gated, and only valid when the peer has never returned
// Success and no response aggregation for seq is partially filled (both of
// which would mean the happy path might still complete).
func (e *Engine) HandleForcedRollback(ctx context.Context, caller string, seq uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, err := e.requireConfig()
	if err != nil {
		return err
	}
	rb, err := e.store.GetRollback(seq)
	if err != nil {
		return ErrCallRequestNotFound
	}
	if caller != cfg.Admin && caller != rb.From {
		return ErrOnlyAdmin
	}

	ok, err := e.store.IsSuccessfulResponse(seq)
	if err != nil {
		return err
	}
	if ok {
		return ErrRollbackNotPossible
	}

	pending, err := e.store.GetPendingResponse(responsePendingKey(seq))
	if err != nil {
		return err
	}
	if !pending.IsEmpty() {
		// A quorum of protocols hasn't finished delivering a result yet,
		// so the happy path (or a clean failure) could still complete.
		return ErrRollbackNotPossible
	}

	rb.Enabled = true
	if err := e.store.PutRollback(seq, rb); err != nil {
		return err
	}
	return e.executeRollbackLocked(ctx, seq)
}
