package dapp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"xcall-engine/codec"
)

func TestMockAlwaysReturnsConfiguredResult(t *testing.T) {
	m := NewMock()
	m.Always("B1", Result{Success: true, Message: "ok"})

	from := codec.NewNetworkAddress("0x1.icon", "A1")
	result := m.HandleCallMessage(context.Background(), "B1", from, []byte("data"), []string{"C1"})
	require.Equal(t, Result{Success: true, Message: "ok"}, result)
	require.Len(t, m.Calls(), 1)
	require.Equal(t, "B1", m.Calls()[0].Account)
}

func TestMockUnregisteredAccountFailsClosed(t *testing.T) {
	m := NewMock()
	from := codec.NewNetworkAddress("0x1.icon", "A1")
	result := m.HandleCallMessage(context.Background(), "unknown", from, []byte("data"), nil)
	require.False(t, result.Success)
}

func TestMockHandlerCanInspectInputs(t *testing.T) {
	m := NewMock()
	var gotData []byte
	var gotFrom codec.NetworkAddress
	m.Register("B1", func(ctx context.Context, from codec.NetworkAddress, data []byte, protocols []string) Result {
		gotData = data
		gotFrom = from
		return Result{Success: len(protocols) == 2}
	})

	from := codec.NewNetworkAddress("0x1.icon", "A1")
	result := m.HandleCallMessage(context.Background(), "B1", from, []byte("payload"), []string{"C1", "C2"})
	require.True(t, result.Success)
	require.Equal(t, []byte("payload"), gotData)
	require.Equal(t, from, gotFrom)
}

func TestMockRecoversPanickingHandler(t *testing.T) {
	m := NewMock()
	m.Register("B1", func(ctx context.Context, from codec.NetworkAddress, data []byte, protocols []string) Result {
		panic("boom")
	})

	result := m.HandleCallMessage(context.Background(), "B1", codec.NewNetworkAddress("0x1.icon", "A1"), nil, nil)
	require.False(t, result.Success)
	require.Contains(t, result.Message, "boom")
}
