package codec

import (
	"github.com/ethereum/go-ethereum/crypto"
)

// Hash is a keccak-256 digest, used to bound the storage size of proxy
// requests and to identify in-flight aggregation sets.
type Hash [32]byte

// Keccak256 hashes data the same way every connection/dapp in the source
// ecosystem does: via go-ethereum's crypto package (backed by
// golang.org/x/crypto/sha3).
func Keccak256(data ...[]byte) Hash {
	return Hash(crypto.Keccak256Hash(data...))
}

func (h Hash) Bytes() []byte { return h[:] }
