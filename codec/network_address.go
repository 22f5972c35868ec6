package codec

import (
	"errors"
	"strings"
)

// ErrInvalidNetworkAddress is returned by ParseNetworkAddress when the input is not a
// well-formed "nid/account" pair.
var ErrInvalidNetworkAddress = errors.New("codec: invalid network address")

// NetworkAddress is the immutable "nid/account" pair used to name a party
// on a remote chain, e.g. "0x1.icon/hx1234" or "archway/wasm1abc...".
type NetworkAddress struct {
	NID     string
	Account string
}

// NewNetworkAddress builds a NetworkAddress from already-split parts.
func NewNetworkAddress(nid, account string) NetworkAddress {
	return NetworkAddress{NID: nid, Account: account}
}

// ParseNetworkAddress splits "nid/account". Exactly one '/' is required and
// both parts must be non-empty.
func ParseNetworkAddress(s string) (NetworkAddress, error) {
	idx := strings.IndexByte(s, '/')
	if idx < 0 || strings.IndexByte(s[idx+1:], '/') >= 0 {
		return NetworkAddress{}, ErrInvalidNetworkAddress
	}
	nid, account := s[:idx], s[idx+1:]
	if nid == "" || account == "" {
		return NetworkAddress{}, ErrInvalidNetworkAddress
	}
	return NetworkAddress{NID: nid, Account: account}, nil
}

// String renders the canonical wire form "nid/account".
func (a NetworkAddress) String() string {
	return a.NID + "/" + a.Account
}

// IsZero reports whether a is the unparsed zero value.
func (a NetworkAddress) IsZero() bool {
	return a.NID == "" && a.Account == ""
}
