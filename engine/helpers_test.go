package engine

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"xcall-engine/connection"
	"xcall-engine/dapp"
	"xcall-engine/store"
)

const (
	originNID = "0x1.icon"
	destNID   = "archway"
)

// pair bundles one origin/destination engine, wired together through one
// or more named connections, plus the mock collaborators so tests can
// script dapp behaviour and inspect connection deliveries.
type pair struct {
	origin, dest         *Engine
	originDapp, destDapp *dapp.Mock
	originConns          map[string]*connection.Mock
	destConns            map[string]*connection.Mock
}

// newPair builds two engines ("0x1.icon" and "archway"), each carrying one
// Mock connection per id in connIDs, cross-attached so SendMessage on
// either side synchronously invokes HandleMessage on the other — this is
// what lets a single-threaded test drive the whole send/receive/execute
// lifecycle without a real relay process.
func newPair(t *testing.T, connIDs []string) *pair {
	t.Helper()

	originStore := store.NewMemory()
	destStore := store.NewMemory()
	originDapp := dapp.NewMock()
	destDapp := dapp.NewMock()

	originConnMap := make(map[string]connection.Connection)
	destConnMap := make(map[string]connection.Connection)
	originMocks := make(map[string]*connection.Mock)
	destMocks := make(map[string]*connection.Mock)

	for _, id := range connIDs {
		oc := connection.NewMock(id, uint256.NewInt(10), uint256.NewInt(25), originStore)
		dc := connection.NewMock(id, uint256.NewInt(10), uint256.NewInt(25), destStore)
		originConnMap[id] = oc
		destConnMap[id] = dc
		originMocks[id] = oc
		destMocks[id] = dc
	}

	origin := New(originStore, originDapp, originConnMap, nil)
	dest := New(destStore, destDapp, destConnMap, nil)

	for _, id := range connIDs {
		originMocks[id].Attach(destNID, dest)
		destMocks[id].Attach(originNID, origin)
	}

	require.NoError(t, origin.Initialize("admin", originNID))
	require.NoError(t, dest.Initialize("admin", destNID))
	for _, id := range connIDs {
		require.NoError(t, origin.SetDefaultConnection("admin", destNID, id))
		require.NoError(t, dest.SetDefaultConnection("admin", originNID, id))
	}

	return &pair{
		origin: origin, dest: dest,
		originDapp: originDapp, destDapp: destDapp,
		originConns: originMocks, destConns: destMocks,
	}
}

// collect drains every event currently queued on ch without blocking.
func collect(ch chan Event) []Event {
	var out []Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func findEvent(events []Event, kind EventKind) *Event {
	for i := range events {
		if events[i].Kind == kind {
			return &events[i]
		}
	}
	return nil
}
