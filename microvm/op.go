// Package microvm is the opaque micro-operation interpreter the executor
// delegates transaction execution to. The core treats programs as opaque
// except for the AccessOracle's static scan, which must recognize
// storage-load and storage-store ops by key; everything else --
// arithmetic, no-ops -- is free-form compute.
package microvm

import (
	"encoding/json"
	"fmt"

	"github.com/eth2030/paravm/store"
)

// OpCode identifies a micro-operation.
type OpCode uint8

const (
	// OpNop performs no work; a pure compute placeholder.
	OpNop OpCode = iota
	// OpPush pushes a constant word onto the operand stack.
	OpPush
	// OpLoad reads a storage key and pushes its value.
	OpLoad
	// OpStore pops the top of stack and writes it to a storage key; on an
	// empty stack it writes the op's own Value instead.
	OpStore
	// OpAdd pops two words, pushes their sum.
	OpAdd
	// OpSub pops two words (b, a with b popped first), pushes a-b.
	OpSub
	// OpMul pops two words, pushes their product.
	OpMul
)

func (op OpCode) String() string {
	switch op {
	case OpNop:
		return "nop"
	case OpPush:
		return "push"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

func opFromString(s string) (OpCode, error) {
	switch s {
	case "nop":
		return OpNop, nil
	case "push":
		return OpPush, nil
	case "load":
		return OpLoad, nil
	case "store":
		return OpStore, nil
	case "add":
		return OpAdd, nil
	case "sub":
		return OpSub, nil
	case "mul":
		return OpMul, nil
	default:
		return 0, fmt.Errorf("microvm: unknown op %q", s)
	}
}

// MicroOp is a single instruction in a transaction's program. Key is set
// for OpLoad/OpStore; Value is set for OpPush/OpStore.
type MicroOp struct {
	Op    OpCode
	Key   store.Key
	Value store.Value
}

// Load builds a storage-load micro-op.
func Load(k store.Key) MicroOp { return MicroOp{Op: OpLoad, Key: k} }

// Store builds a storage-store micro-op carrying a constant value, which
// is written only when the operand stack is empty at that point.
func Store(k store.Key, v store.Value) MicroOp { return MicroOp{Op: OpStore, Key: k, Value: v} }

// Push builds a push-constant micro-op.
func Push(v store.Value) MicroOp { return MicroOp{Op: OpPush, Value: v} }

// TouchesStorage reports whether op addresses a storage key, per the
// AccessOracle's static-scan contract.
func (op MicroOp) TouchesStorage() bool {
	return op.Op == OpLoad || op.Op == OpStore
}

type jsonMicroOp struct {
	Op    string `json:"op"`
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
}

// MarshalJSON implements json.Marshaler using the block file format's
// hex-encoded key/value convention.
func (op MicroOp) MarshalJSON() ([]byte, error) {
	j := jsonMicroOp{Op: op.Op.String()}
	if op.Op == OpLoad || op.Op == OpStore {
		j.Key = op.Key.Hex()
	}
	if op.Op == OpPush || op.Op == OpStore {
		j.Value = store.ValueHex(op.Value)
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler.
func (op *MicroOp) UnmarshalJSON(data []byte) error {
	var j jsonMicroOp
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	code, err := opFromString(j.Op)
	if err != nil {
		return err
	}
	parsed := MicroOp{Op: code}
	if j.Key != "" {
		k, err := store.HexToKey(j.Key)
		if err != nil {
			return err
		}
		parsed.Key = k
	}
	if j.Value != "" {
		v, err := store.HexToValue(j.Value)
		if err != nil {
			return err
		}
		parsed.Value = v
	}
	*op = parsed
	return nil
}
