package store

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
)

// Value is a 256-bit storage word. It is backed by uint256.Int (the same
// library go-ethereum uses for EVM words) so the micro-op interpreter can
// perform real arithmetic on storage values instead of treating them as
// inert byte blobs.
type Value = uint256.Int

// ZeroValue is the distinguished "unset" value: an all-zero word.
var ZeroValue = Value{}

// ValueFromUint64 builds a Value from a small integer constant, used by
// micro-op PUSH operands and the synthetic block generator.
func ValueFromUint64(n uint64) Value {
	return *uint256.NewInt(n)
}

// HexToValue parses a 0x-prefixed (or bare) hex string into a Value.
func HexToValue(s string) (Value, error) {
	b, err := decodeHex(s)
	if err != nil {
		return Value{}, fmt.Errorf("store: invalid value hex %q: %w", s, err)
	}
	if len(b) > 32 {
		return Value{}, fmt.Errorf("store: value hex %q exceeds 256 bits", s)
	}
	var v Value
	v.SetBytes(b)
	return v, nil
}

// ValueHex returns the 0x-prefixed, big-endian hex representation of v.
func ValueHex(v Value) string {
	b := v.Bytes32()
	return "0x" + hex.EncodeToString(b[:])
}

// IsZero reports whether v is the all-zero "unset" value.
func IsZero(v Value) bool {
	return v.IsZero()
}
