package connection

import (
	"context"
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"xcall-engine/store"
)

type recordingReceiver struct {
	mu       sync.Mutex
	messages [][]byte
}

func (r *recordingReceiver) HandleMessage(ctx context.Context, fromNID, connID string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, payload)
	return nil
}

func TestMockGetFee(t *testing.T) {
	m := NewMock("C", uint256.NewInt(10), uint256.NewInt(25), store.NewMemory())
	fee, err := m.GetFee("archway", false)
	require.NoError(t, err)
	require.True(t, fee.Eq(uint256.NewInt(10)))

	fee, err = m.GetFee("archway", true)
	require.NoError(t, err)
	require.True(t, fee.Eq(uint256.NewInt(25)))
}

func TestMockSendMessageDeliversToPeer(t *testing.T) {
	st := store.NewMemory()
	m := NewMock("C", uint256.NewInt(1), uint256.NewInt(1), st)
	peer := &recordingReceiver{}
	m.Attach("archway", peer)

	err := m.SendMessage(context.Background(), "A1", "archway", 1, []byte("payload"))
	require.NoError(t, err)

	peer.mu.Lock()
	defer peer.mu.Unlock()
	require.Len(t, peer.messages, 1)
	require.Equal(t, []byte("payload"), peer.messages[0])

	require.Len(t, m.Deliveries(), 1)
	require.Equal(t, int64(1), m.Deliveries()[0].SN)
}

func TestMockSendMessageRejectsDuplicateConnSN(t *testing.T) {
	st := store.NewMemory()
	m := NewMock("C", uint256.NewInt(1), uint256.NewInt(1), st)
	peer := &recordingReceiver{}
	m.Attach("archway", peer)

	require.NoError(t, m.SendMessage(context.Background(), "A1", "archway", 1, []byte("first")))
	err := m.SendMessage(context.Background(), "A1", "archway", 1, []byte("second"))
	require.ErrorIs(t, err, ErrDuplicateMessage)

	// only the first delivery should have reached the peer
	peer.mu.Lock()
	defer peer.mu.Unlock()
	require.Len(t, peer.messages, 1)
}

func TestMockSendMessageWithoutPeerFails(t *testing.T) {
	m := NewMock("C", uint256.NewInt(1), uint256.NewInt(1), store.NewMemory())
	err := m.SendMessage(context.Background(), "A1", "archway", 1, []byte("x"))
	require.Error(t, err)
}
