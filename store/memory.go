package store

import (
	"encoding/hex"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Memory is an in-memory Store guarded by a single mutex, standing in for
// the "one transaction at a time" semantics spec.md §5 describes for the
// host VM. It is what the unit tests and cmd/xcall-relay use.
type Memory struct {
	mu sync.Mutex

	config          *Config
	defaultConn     map[string]string
	rollbacks       map[uint64]Rollback
	proxyRequests   map[uint64]ProxyRequest
	pendingRequest  map[string]mapset.Set[string]
	pendingResponse map[string]mapset.Set[string]
	successful      map[uint64]bool
	receipts        map[string]bool
}

// NewMemory returns an initialized, empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		defaultConn:     make(map[string]string),
		rollbacks:       make(map[uint64]Rollback),
		proxyRequests:   make(map[uint64]ProxyRequest),
		pendingRequest:  make(map[string]mapset.Set[string]),
		pendingResponse: make(map[string]mapset.Set[string]),
		successful:      make(map[uint64]bool),
		receipts:        make(map[string]bool),
	}
}

func hashKey(h []byte) string { return hex.EncodeToString(h) }

func (m *Memory) GetConfig() (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.config == nil {
		return Config{}, ErrNotFound
	}
	return *m.config, nil
}

func (m *Memory) PutConfig(c Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := c
	m.config = &cp
	return nil
}

func (m *Memory) GetDefaultConnection(nid string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.defaultConn[nid]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) SetDefaultConnection(nid, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConn[nid] = address
	return nil
}

func (m *Memory) GetRollback(seq uint64) (Rollback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rb, ok := m.rollbacks[seq]
	if !ok {
		return Rollback{}, ErrNotFound
	}
	return rb, nil
}

func (m *Memory) PutRollback(seq uint64, rb Rollback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollbacks[seq] = rb
	return nil
}

func (m *Memory) DeleteRollback(seq uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rollbacks, seq)
	return nil
}

func (m *Memory) GetProxyRequest(reqID uint64) (ProxyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pr, ok := m.proxyRequests[reqID]
	if !ok {
		return ProxyRequest{}, ErrNotFound
	}
	return pr, nil
}

func (m *Memory) PutProxyRequest(reqID uint64, pr ProxyRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proxyRequests[reqID] = pr
	return nil
}

func (m *Memory) DeleteProxyRequest(reqID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.proxyRequests, reqID)
	return nil
}

func (m *Memory) GetPendingRequest(hash []byte) (mapset.Set[string], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.pendingRequest[hashKey(hash)]
	if !ok {
		return mapset.NewSet[string](), nil
	}
	return s.Clone(), nil
}

func (m *Memory) PutPendingRequest(hash []byte, sources mapset.Set[string]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingRequest[hashKey(hash)] = sources.Clone()
	return nil
}

func (m *Memory) DeletePendingRequest(hash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pendingRequest, hashKey(hash))
	return nil
}

func (m *Memory) GetPendingResponse(hash []byte) (mapset.Set[string], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.pendingResponse[hashKey(hash)]
	if !ok {
		return mapset.NewSet[string](), nil
	}
	return s.Clone(), nil
}

func (m *Memory) PutPendingResponse(hash []byte, sources mapset.Set[string]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingResponse[hashKey(hash)] = sources.Clone()
	return nil
}

func (m *Memory) DeletePendingResponse(hash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pendingResponse, hashKey(hash))
	return nil
}

func (m *Memory) IsSuccessfulResponse(seq uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.successful[seq], nil
}

func (m *Memory) SetSuccessfulResponse(seq uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successful[seq] = true
	return nil
}

func receiptKey(connID, srcNID string, connSN int64) string {
	return connID + "|" + srcNID + "|" + hexInt(connSN)
}

func hexInt(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := hex.EncodeToString([]byte{byte(n >> 56), byte(n >> 48), byte(n >> 40), byte(n >> 32), byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	if neg {
		return "-" + s
	}
	return s
}

func (m *Memory) HasReceipt(connID, srcNID string, connSN int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.receipts[receiptKey(connID, srcNID, connSN)], nil
}

func (m *Memory) PutReceipt(connID, srcNID string, connSN int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts[receiptKey(connID, srcNID, connSN)] = true
	return nil
}
