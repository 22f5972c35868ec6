package store

import (
	"path/filepath"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xcall.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestSQLiteConfigRoundTrip(t *testing.T) {
	s := openTestSQLite(t)
	_, err := s.GetConfig()
	require.ErrorIs(t, err, ErrNotFound)

	cfg := Config{Admin: "admin", FeeHandler: "fh", NetworkID: "0x1.icon", ProtocolFee: uint256.NewInt(11), SequenceNo: 3, LastRequestID: 2}
	require.NoError(t, s.PutConfig(cfg))

	got, err := s.GetConfig()
	require.NoError(t, err)
	require.Equal(t, cfg.Admin, got.Admin)
	require.Equal(t, cfg.NetworkID, got.NetworkID)
	require.True(t, cfg.ProtocolFee.Eq(got.ProtocolFee))
	require.Equal(t, cfg.SequenceNo, got.SequenceNo)

	cfg.SequenceNo = 4
	require.NoError(t, s.PutConfig(cfg))
	got, err = s.GetConfig()
	require.NoError(t, err)
	require.Equal(t, uint64(4), got.SequenceNo)
}

func TestSQLiteRollbackRoundTrip(t *testing.T) {
	s := openTestSQLite(t)
	rb := Rollback{From: "A1", To: "archway/B1", Protocols: []string{"C1", "C2"}, RollbackBytes: []byte("rb"), Enabled: false}
	require.NoError(t, s.PutRollback(1, rb))

	got, err := s.GetRollback(1)
	require.NoError(t, err)
	require.Equal(t, rb, got)

	rb.Enabled = true
	require.NoError(t, s.PutRollback(1, rb))
	got, err = s.GetRollback(1)
	require.NoError(t, err)
	require.True(t, got.Enabled)

	require.NoError(t, s.DeleteRollback(1))
	_, err = s.GetRollback(1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteProxyRequestRoundTrip(t *testing.T) {
	s := openTestSQLite(t)
	pr := ProxyRequest{From: "0x1.icon/A1", To: "B1", SequenceNo: 9, Protocols: []string{"C1"}, MsgType: 1, DataHash: []byte("0123456789012345678901234567890x")}
	require.NoError(t, s.PutProxyRequest(5, pr))

	got, err := s.GetProxyRequest(5)
	require.NoError(t, err)
	require.Equal(t, pr, got)

	require.NoError(t, s.DeleteProxyRequest(5))
	_, err = s.GetProxyRequest(5)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLitePendingSetsAndReceipts(t *testing.T) {
	s := openTestSQLite(t)
	h := []byte("some-hash")

	empty, err := s.GetPendingResponse(h)
	require.NoError(t, err)
	require.True(t, empty.IsEmpty())

	require.NoError(t, s.PutPendingResponse(h, mapset.NewSet("C1", "C2")))
	got, err := s.GetPendingResponse(h)
	require.NoError(t, err)
	require.True(t, got.Contains("C1"))
	require.True(t, got.Contains("C2"))

	require.NoError(t, s.DeletePendingResponse(h))
	cleared, err := s.GetPendingResponse(h)
	require.NoError(t, err)
	require.True(t, cleared.IsEmpty())

	has, err := s.HasReceipt("C", "archway", -3)
	require.NoError(t, err)
	require.False(t, has)
	require.NoError(t, s.PutReceipt("C", "archway", -3))
	has, err = s.HasReceipt("C", "archway", -3)
	require.NoError(t, err)
	require.True(t, has)
}

func TestSQLiteSuccessfulResponse(t *testing.T) {
	s := openTestSQLite(t)
	ok, err := s.IsSuccessfulResponse(42)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.SetSuccessfulResponse(42))
	ok, err = s.IsSuccessfulResponse(42)
	require.NoError(t, err)
	require.True(t, ok)
}
