// Package store defines the keyed-table state store behind the xCall
// engine (spec.md §4.3) and two implementations: an in-memory map store for
// tests and the relay demo, and a modernc.org/sqlite-backed store for a
// durable single-process deployment, in the style of the teacher's
// cmd/geth-17-indexer tool.
package store

import (
	"errors"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"
)

// ErrNotFound is returned by Get-style lookups when no record exists under
// the given key.
var ErrNotFound = errors.New("store: not found")

// Config is the engine's singleton configuration record.
type Config struct {
	Admin         string
	FeeHandler    string
	NetworkID     string
	ProtocolFee   *uint256.Int
	SequenceNo    uint64
	LastRequestID uint64
}

// Rollback is the origin-side record of an outbound rollback-capable call.
type Rollback struct {
	From          string // local account that originated the call
	To            string // peer NetworkAddress ("nid/account")
	Protocols     []string
	RollbackBytes []byte
	Enabled       bool
}

// ProxyRequest is the receiver-side record of an aggregated request awaiting
// execute_call. DataHash holds only the keccak-256 digest of the original
// payload; the full payload is re-supplied by the execute_call caller.
type ProxyRequest struct {
	From       string
	To         string
	SequenceNo uint64
	Protocols  []string
	MsgType    uint8
	DataHash   []byte
}

// Store is the full set of logical tables the engine reads and writes.
// Implementations must make every method safe to call from one logical
// transaction at a time (see spec.md §5); Engine itself serializes calls
// with a mutex, so implementations need not add their own locking beyond
// what's required for their own consistency (e.g. sqlite's single
// connection).
type Store interface {
	GetConfig() (Config, error)
	PutConfig(Config) error

	GetDefaultConnection(nid string) (string, error) // ErrNotFound if unset
	SetDefaultConnection(nid, address string) error

	GetRollback(seq uint64) (Rollback, error) // ErrNotFound if absent
	PutRollback(seq uint64, rb Rollback) error
	DeleteRollback(seq uint64) error

	GetProxyRequest(reqID uint64) (ProxyRequest, error) // ErrNotFound if absent
	PutProxyRequest(reqID uint64, pr ProxyRequest) error
	DeleteProxyRequest(reqID uint64) error

	GetPendingRequest(hash []byte) (mapset.Set[string], error) // empty set if absent
	PutPendingRequest(hash []byte, sources mapset.Set[string]) error
	DeletePendingRequest(hash []byte) error

	GetPendingResponse(hash []byte) (mapset.Set[string], error)
	PutPendingResponse(hash []byte, sources mapset.Set[string]) error
	DeletePendingResponse(hash []byte) error

	IsSuccessfulResponse(seq uint64) (bool, error)
	SetSuccessfulResponse(seq uint64) error

	HasReceipt(connID, srcNID string, connSN int64) (bool, error)
	PutReceipt(connID, srcNID string, connSN int64) error
}

// NextSequence atomically allocates the next send sequence number.
func NextSequence(s Store) (uint64, error) {
	cfg, err := s.GetConfig()
	if err != nil {
		return 0, err
	}
	cfg.SequenceNo++
	if err := s.PutConfig(cfg); err != nil {
		return 0, err
	}
	return cfg.SequenceNo, nil
}

// NextRequestID atomically allocates the next receiver-side request id.
func NextRequestID(s Store) (uint64, error) {
	cfg, err := s.GetConfig()
	if err != nil {
		return 0, err
	}
	cfg.LastRequestID++
	if err := s.PutConfig(cfg); err != nil {
		return 0, err
	}
	return cfg.LastRequestID, nil
}
