// Package connection defines the relay-connection interface the engine
// consumes (spec.md §6) plus a Mock implementation for tests and the
// cmd/xcall-relay demo. Production connections (centralized, multisig
// cluster, ...) are out of scope; they are black boxes implementing this
// interface, grounded here on the centralized-connection program in
// original_source (fee + send_message + its own receipts table).
package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"xcall-engine/store"
)

// ErrDuplicateMessage is returned when a connection observes two deliveries
// for the same (src_nid, conn_sn) pair; spec.md §6 requires every
// connection to maintain its own receipts table and reject duplicates.
var ErrDuplicateMessage = errors.New("connection: duplicate message")

// Connection is the fixed surface the engine calls into: quote a fee, send
// a message, and (implicitly, via its own receipts table) deduplicate.
type Connection interface {
	ID() string
	GetFee(toNID string, response bool) (*uint256.Int, error)
	// SendMessage ships msg to toNID on behalf of txOrigin. sn > 0 means
	// response-expected, sn == 0 means none, sn < 0 means persisted-retry.
	SendMessage(ctx context.Context, txOrigin, toNID string, sn int64, msg []byte) error
}

// Receiver is the minimal surface a Connection needs back on the engine
// side to hand over an inbound delivery; Mock uses it to wire two engines
// together without either package importing the other.
type Receiver interface {
	HandleMessage(ctx context.Context, fromNID string, connID string, payload []byte) error
}

// Mock is an in-memory Connection for tests and the relay demo. Fee is a
// fixed quote (optionally different for response-expected sends); SendMessage
// routes a sent message straight into a peer engine's HandleMessage,
// exactly the "connection carries opaque bytes" black box spec.md
// describes.
type Mock struct {
	mu sync.Mutex

	id        string
	baseFee   *uint256.Int
	replyFee  *uint256.Int
	store     store.Store
	peer      Receiver
	peerNID   string
	delivered []Delivery
}

// Delivery records one SendMessage call for test assertions.
type Delivery struct {
	TxOrigin string
	ToNID    string
	SN       int64
	Msg      []byte
}

// NewMock builds a Mock connection named id, quoting baseFee for
// no-response sends and replyFee for response-expected sends, using st for
// its own duplicate-receipt tracking.
func NewMock(id string, baseFee, replyFee *uint256.Int, st store.Store) *Mock {
	return &Mock{id: id, baseFee: baseFee, replyFee: replyFee, store: st}
}

// Attach wires this connection to a peer engine reachable under peerNID, so
// SendMessage delivers directly into it. Delivery is always an in-process
// synchronous call; cmd/xcall and cmd/xcall-relay both rely on it.
func (m *Mock) Attach(peerNID string, peer Receiver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.peerNID = peerNID
	m.peer = peer
}

func (m *Mock) ID() string { return m.id }

func (m *Mock) GetFee(toNID string, response bool) (*uint256.Int, error) {
	if response {
		return new(uint256.Int).Set(m.replyFee), nil
	}
	return new(uint256.Int).Set(m.baseFee), nil
}

func (m *Mock) SendMessage(ctx context.Context, txOrigin, toNID string, sn int64, msg []byte) error {
	m.mu.Lock()
	m.delivered = append(m.delivered, Delivery{TxOrigin: txOrigin, ToNID: toNID, SN: sn, Msg: msg})
	peer, peerNID := m.peer, m.peerNID
	m.mu.Unlock()

	if peer == nil {
		return fmt.Errorf("connection %s: no peer attached for %s", m.id, toNID)
	}
	has, err := m.store.HasReceipt(m.id, peerNID, sn)
	if err != nil {
		return err
	}
	if has {
		return ErrDuplicateMessage
	}
	if err := m.store.PutReceipt(m.id, peerNID, sn); err != nil {
		return err
	}
	return peer.HandleMessage(ctx, peerNID, m.id, msg)
}

// Deliveries returns every message this connection has sent, for test
// assertions.
func (m *Mock) Deliveries() []Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Delivery, len(m.delivered))
	copy(out, m.delivered)
	return out
}
