package engine

import "github.com/ethereum/go-ethereum/event"

// EventKind tags which field of Event is populated; Event itself is the one
// concrete type pushed onto the engine's event.Feed (go-ethereum's
// subscribe/publish primitive, the same one the teacher's event-filtering
// lessons consume from a live chain — here produced in-process) so a single
// Feed can carry all six heterogeneous event shapes without violating
// event.Feed's "one type per feed" rule.
type EventKind int

const (
	KindCallMessageSent EventKind = iota
	KindCallMessage
	KindCallExecuted
	KindResponseMessage
	KindRollbackMessage
	KindRollbackExecuted
)

// CallMessageSent is emitted at the end of a successful send_call.
type CallMessageSent struct {
	From string
	To   string
	SN   uint64
}

// CallMessage is emitted once a request (or reply) finishes aggregation and
// a proxy is minted; Data is included for observers only — on-chain (here,
// in-store) state keeps just its digest.
type CallMessage struct {
	From  string
	To    string
	SN    uint64
	ReqID uint64
	Data  []byte
}

// CallExecuted is emitted when execute_call finishes.
type CallExecuted struct {
	ReqID   uint64
	Success bool
	Message string
}

// ResponseMessage is emitted at the origin once a CSMessageResult
// aggregates to quorum.
type ResponseMessage struct {
	SN      uint64
	Success bool
}

// RollbackMessage is emitted at the origin when a Failure result enables a
// rollback.
type RollbackMessage struct {
	SN uint64
}

// RollbackExecuted is emitted once execute_rollback completes.
type RollbackExecuted struct {
	SN uint64
}

// Event is the single value type carried on Engine's event.Feed.
type Event struct {
	Kind             EventKind
	CallMessageSent  *CallMessageSent
	CallMessage      *CallMessage
	CallExecuted     *CallExecuted
	ResponseMessage  *ResponseMessage
	RollbackMessage  *RollbackMessage
	RollbackExecuted *RollbackExecuted
}

// SubscribeEvents registers ch to receive every event the engine emits;
// mirrors the subscribe-then-read loop cmd/geth-09-events_solution uses for
// live Transfer logs.
func (e *Engine) SubscribeEvents(ch chan<- Event) event.Subscription {
	return e.feed.Subscribe(ch)
}

func (e *Engine) emit(ev Event) {
	e.feed.Send(ev)
}
