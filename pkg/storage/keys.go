package storage

import (
	"encoding/binary"
	"math/big"
)

// Key prefixes of the engine's persisted state. The 0x0X range holds ledger
// state, 0x1X roles and the pause flag, 0x2X the reserve and price
// configuration.
var (
	// PrefixToken maps token id -> JSON-encoded token.
	PrefixToken = []byte{0x01}
	// PrefixOwnerIndex maps owner || token id -> 0x01 (derived index).
	PrefixOwnerIndex = []byte{0x02}
	// PrefixApproval maps token id -> approved spender address.
	PrefixApproval = []byte{0x03}
	// PrefixOperator maps owner || operator -> 0x01.
	PrefixOperator = []byte{0x04}
	// KeyTotalSupply holds the number of existing tokens.
	KeyTotalSupply = []byte{0x05}
	// KeyMintSequence holds the monotonic mint counter used for token ids.
	KeyMintSequence = []byte{0x06}

	// KeyAdmin holds the admin address.
	KeyAdmin = []byte{0x10}
	// KeyPaused holds the pause flag (present and 0x01 when paused).
	KeyPaused = []byte{0x11}
	// KeyOracle holds the oracle/minter address.
	KeyOracle = []byte{0x12}

	// KeyReserve holds the settlement-asset reserve balance.
	KeyReserve = []byte{0x20}
	// KeyPrice holds the price per compute unit (absent while unset).
	KeyPrice = []byte{0x21}
	// KeyFeeRate holds the sell fee rate as a decimal string.
	KeyFeeRate = []byte{0x22}
)

// Join concatenates key parts into a single storage key.
func Join(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	key := make([]byte, 0, n)
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

// PutUint64 stores v as an 8-byte big-endian value.
func PutUint64(s Store, key []byte, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	s.Put(key, buf[:])
}

// GetUint64 reads an 8-byte big-endian value, defaulting to zero when the key
// is absent.
func GetUint64(s Store, key []byte) uint64 {
	v, ok := s.Get(key)
	if !ok || len(v) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

// PutBig stores a non-negative big integer under key.
func PutBig(s Store, key []byte, v *big.Int) {
	s.Put(key, v.Bytes())
}

// GetBig reads a big integer, defaulting to zero when the key is absent.
func GetBig(s Store, key []byte) *big.Int {
	v, ok := s.Get(key)
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).SetBytes(v)
}
