package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	type inner struct {
		A uint64
		B []byte
		C []string
	}
	in := inner{A: 7, B: []byte("hello"), C: []string{"x", "y", "z"}}

	b, err := Encode(in)
	require.NoError(t, err)

	var out inner
	require.NoError(t, Decode(b, &out))
	require.Equal(t, in, out)
}

func TestEncodeUintZeroIsEmptyString(t *testing.T) {
	b, err := EncodeUint(0)
	require.NoError(t, err)
	require.Equal(t, []byte{0x80}, b)
}

func TestDecodeMalformedFails(t *testing.T) {
	var out []byte
	err := Decode([]byte{0xb8, 0xff, 0x01}, &out) // claims 255 bytes, has 1
	require.ErrorIs(t, err, ErrDecodeFailed)
}

func TestDecodeTruncatedListFails(t *testing.T) {
	type inner struct {
		A uint64
		B uint64
	}
	var out inner
	err := Decode([]byte{0xc1, 0x01}, &out) // list declares 1 byte, struct needs two fields
	require.ErrorIs(t, err, ErrDecodeFailed)
}

func TestKeccak256Deterministic(t *testing.T) {
	h1 := Keccak256([]byte("abc"))
	h2 := Keccak256([]byte("abc"))
	require.Equal(t, h1, h2)

	h3 := Keccak256([]byte("abd"))
	require.NotEqual(t, h1, h3)
}

func TestParseNetworkAddress(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
		nid     string
		account string
	}{
		{"0x1.icon/hx1234", false, "0x1.icon", "hx1234"},
		{"archway/wasm1abc", false, "archway", "wasm1abc"},
		{"noseparator", true, "", ""},
		{"/account", true, "", ""},
		{"nid/", true, "", ""},
		{"nid/account/extra", true, "", ""},
	}
	for _, c := range cases {
		addr, err := ParseNetworkAddress(c.in)
		if c.wantErr {
			require.Error(t, err, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		require.Equal(t, c.nid, addr.NID)
		require.Equal(t, c.account, addr.Account)
		require.Equal(t, c.in, addr.String())
	}
}
