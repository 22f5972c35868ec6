// Package engine implements the xCall protocol engine: send, receive, and
// execute/rollback pipelines (spec.md §4.4–§4.6) over an injected Store and
// a set of Connection/Dapp collaborators. It runs single-threaded per
// logical transaction — every public method holds Engine's mutex for its
// duration, standing in for the host VM's serialized execution (spec.md
// §5) — and it never retries delivery itself; that is left to whatever
// drives Connection.SendMessage/HandleMessage.
package engine

import (
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"xcall-engine/connection"
	"xcall-engine/dapp"
	"xcall-engine/store"
)

const (
	// MaxDataSize bounds CSMessageRequest/AnyMessage payload size.
	MaxDataSize = 2048
	// MaxRollbackSize bounds CallMessageWithRollback.Rollback size.
	MaxRollbackSize = 1024
)

// Engine is one chain's xCall contract instance.
type Engine struct {
	mu sync.Mutex

	store       store.Store
	connections map[string]connection.Connection
	dapp        dapp.Dapp
	log         log.Logger
	feed        event.Feed
}

// New builds an Engine over st, dispatching resolved dapp calls to d and
// resolving connection ids (Envelope.Sources/Destinations,
// DefaultConnection) against conns. logger defaults to log.New("module",
// "xcall") when nil, mirroring how go-ethereum subsystems accept an
// optional logger.
func New(st store.Store, d dapp.Dapp, conns map[string]connection.Connection, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.New("module", "xcall")
	}
	return &Engine{store: st, dapp: d, connections: conns, log: logger}
}

// Initialize creates the singleton Config. admin is both the initial admin
// and fee handler, matching original_source's Config::new.
func (e *Engine) Initialize(admin, networkID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.store.GetConfig(); err == nil {
		return nil // already initialized; idempotent
	}
	return e.store.PutConfig(store.Config{
		Admin:       admin,
		FeeHandler:  admin,
		NetworkID:   networkID,
		ProtocolFee: uint256.NewInt(0),
	})
}

func (e *Engine) requireConfig() (store.Config, error) {
	cfg, err := e.store.GetConfig()
	if err != nil {
		return store.Config{}, ErrUninitialized
	}
	return cfg, nil
}

// SetAdmin is admin-gated (spec.md §6).
func (e *Engine) SetAdmin(caller, addr string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, err := e.requireConfig()
	if err != nil {
		return err
	}
	if cfg.Admin != caller {
		return ErrOnlyAdmin
	}
	cfg.Admin = addr
	return e.store.PutConfig(cfg)
}

// SetProtocolFee is admin-gated.
func (e *Engine) SetProtocolFee(caller string, fee *uint256.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, err := e.requireConfig()
	if err != nil {
		return err
	}
	if cfg.Admin != caller {
		return ErrOnlyAdmin
	}
	cfg.ProtocolFee = fee
	return e.store.PutConfig(cfg)
}

// SetProtocolFeeHandler is admin-gated.
func (e *Engine) SetProtocolFeeHandler(caller, addr string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, err := e.requireConfig()
	if err != nil {
		return err
	}
	if cfg.Admin != caller {
		return ErrOnlyAdmin
	}
	cfg.FeeHandler = addr
	return e.store.PutConfig(cfg)
}

// SetDefaultConnection is admin-gated.
func (e *Engine) SetDefaultConnection(caller, nid, address string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, err := e.requireConfig()
	if err != nil {
		return err
	}
	if cfg.Admin != caller {
		return ErrOnlyAdmin
	}
	return e.store.SetDefaultConnection(nid, address)
}

// GetDefaultConnection is a plain query.
func (e *Engine) GetDefaultConnection(nid string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.GetDefaultConnection(nid)
}

// GetNetworkAddress returns this engine's own NetworkAddress, using the
// fixed "self" sentinel account original_source's engines use for their own
// identity in rollback-mode dapp invocations.
func (e *Engine) GetNetworkAddress() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, err := e.requireConfig()
	if err != nil {
		return "", err
	}
	return cfg.NetworkID + "/self", nil
}

// GetFee is get_fee from spec.md §6: the protocol fee plus every source
// connection's own quote for (nid, rollback). sources defaults to
// DefaultConnection[nid] when empty, mirroring send_call's own route
// resolution.
func (e *Engine) GetFee(nid string, rollback bool, sources []string) (*uint256.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, err := e.requireConfig()
	if err != nil {
		return nil, err
	}
	ids, err := e.resolveRoute(nid, sources)
	if err != nil {
		return nil, err
	}
	conns, err := e.resolveConnections(ids)
	if err != nil {
		return nil, err
	}
	total := new(uint256.Int).Set(cfg.ProtocolFee)
	for _, c := range conns {
		fee, err := c.GetFee(nid, rollback)
		if err != nil {
			return nil, err
		}
		total.Add(total, fee)
	}
	return total, nil
}

func (e *Engine) resolveConnections(ids []string) ([]connection.Connection, error) {
	out := make([]connection.Connection, 0, len(ids))
	for _, id := range ids {
		c, ok := e.connections[id]
		if !ok {
			return nil, ErrNoDefaultConnection
		}
		out = append(out, c)
	}
	return out, nil
}
