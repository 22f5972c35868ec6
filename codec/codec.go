// Package codec implements the wire framing used between xCall engines:
// the same length-prefixed list encoding as Ethereum RLP (single byte <0x80
// is itself, short/long strings use 0x80/0xb7 prefixes, short/long lists use
// 0xc0/0xf7 prefixes, integers are minimal big-endian with zero as the empty
// string). Rather than reimplement that framing, this package is a thin
// wrapper around github.com/ethereum/go-ethereum/rlp, the same codec the
// teacher's dependency graph already carries.
package codec

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// ErrDecodeFailed is returned whenever the underlying RLP stream is
// malformed: truncated input, an incorrect list length, or trailing bytes
// beyond a declared payload length.
var ErrDecodeFailed = errors.New("codec: decode failed")

// EncodeBytes RLP-encodes an arbitrary byte string.
func EncodeBytes(b []byte) ([]byte, error) {
	return rlp.EncodeToBytes(b)
}

// EncodeString RLP-encodes a Go string as an RLP byte string.
func EncodeString(s string) ([]byte, error) {
	return rlp.EncodeToBytes(s)
}

// EncodeUint RLP-encodes an unsigned integer using minimal big-endian
// representation (zero encodes as the empty string).
func EncodeUint(n uint64) ([]byte, error) {
	return rlp.EncodeToBytes(n)
}

// EncodeList concatenates already-encoded items into a single RLP list,
// exactly mirroring how every wire struct in package message is built:
// encode each field independently, then wrap the raw values in a list.
func EncodeList(items ...rlp.RawValue) ([]byte, error) {
	return rlp.EncodeToBytes(items)
}

// Encode RLP-encodes any value implementing the struct-tag conventions the
// rest of this module relies on (field order is wire order).
func Encode(val interface{}) ([]byte, error) {
	return rlp.EncodeToBytes(val)
}

// Decode RLP-decodes data into out, translating any malformed-input error
// into ErrDecodeFailed so callers only ever see the engine's closed error
// taxonomy.
func Decode(data []byte, out interface{}) error {
	if err := rlp.DecodeBytes(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return nil
}
