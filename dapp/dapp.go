// Package dapp defines the application-contract interface the engine
// invokes from execute_call/execute_rollback (spec.md §6), plus a Mock
// implementation grounded on the cw-mock-dapp-multi / mock-dapp-multi
// contracts in original_source: a scriptable handler keyed by account.
package dapp

import (
	"context"
	"fmt"
	"sync"

	"xcall-engine/codec"
)

// Result is the narrow response struct the engine captures from a dapp
// invocation; an aborting dapp is represented by Success=false, not by a Go
// error (spec.md §7: dapp failures are data, not propagated errors).
type Result struct {
	Success bool
	Message string
}

// Dapp is invoked by the engine with a single operation: resolve to (the
// destination account, a capability-style lookup, not dynamic method
// dispatch) and hand it the call. from carries the full NetworkAddress of
// the original sender; data is the original payload (not the stored
// digest); protocols are the authorized connections that delivered/are
// delivering this message.
type Dapp interface {
	HandleCallMessage(ctx context.Context, to string, from codec.NetworkAddress, data []byte, protocols []string) Result
}

// HandleFunc lets tests script a dapp's behaviour per invocation.
type HandleFunc func(ctx context.Context, from codec.NetworkAddress, data []byte, protocols []string) Result

// Mock is an in-memory Dapp registry keyed by account (the account
// component of the local NetworkAddress the engine routes to.req.To).
// Register a HandleFunc per account; unregistered accounts fail closed:
// HandleCallMessage returns a Failure Result for them.
type Mock struct {
	mu       sync.Mutex
	handlers map[string]HandleFunc
	calls    []Call
}

// Call records one HandleCallMessage invocation for test assertions.
type Call struct {
	Account string
	From    codec.NetworkAddress
	Data    []byte
}

func NewMock() *Mock {
	return &Mock{handlers: make(map[string]HandleFunc)}
}

// Register installs fn as the handler for account.
func (m *Mock) Register(account string, fn HandleFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[account] = fn
}

// Always installs a handler for account that always returns result,
// regardless of input — the common case in tests.
func (m *Mock) Always(account string, result Result) {
	m.Register(account, func(context.Context, codec.NetworkAddress, []byte, []string) Result {
		return result
	})
}

// HandleCallMessage dispatches to the handler registered for to, recovering
// a panicking handler into a Failure result the same way an aborting
// on-chain call becomes {success:false, message}.
func (m *Mock) HandleCallMessage(ctx context.Context, to string, from codec.NetworkAddress, data []byte, protocols []string) (result Result) {
	m.mu.Lock()
	fn, ok := m.handlers[to]
	m.calls = append(m.calls, Call{Account: to, From: from, Data: data})
	m.mu.Unlock()

	if !ok {
		return Result{Success: false, Message: "no dapp registered for account"}
	}
	defer func() {
		if r := recover(); r != nil {
			result = Result{Success: false, Message: fmt.Sprintf("dapp panic: %v", r)}
		}
	}()
	return fn(ctx, from, data, protocols)
}

// Calls returns every recorded invocation, for test assertions.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}
