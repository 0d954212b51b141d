package microvm

import (
	"github.com/eth2030/paravm/store"
)

// Gas costs. SLOAD follows an EIP-2929-inspired warm/cold split consumed
// by the executor. The warm set resets at the start of every
// transaction; it does not persist across transactions within a wave.
const (
	GasNop       uint64 = 1
	GasPush      uint64 = 3
	GasArith     uint64 = 3
	GasSloadCold uint64 = 2100
	GasSloadWarm uint64 = 100
	GasSstore    uint64 = 20000
)

// Result is the outcome of interpreting one program against a working
// copy of state. It carries no transaction identity; the caller (the
// executor) attaches the TxId to build a chain.ExecutionResult.
type Result struct {
	GasUsed      uint64
	ActualReads  map[store.Key]struct{}
	ActualWrites map[store.Key]struct{}
	WriteBuffer  []store.KV
	Success      bool
	Err          error
}

// ErrOutOfGas marks a result that stopped because the gas limit was
// exhausted. It is not a Go error returned to callers; it is captured in
// the result and block processing continues.
type outOfGasError struct{}

func (outOfGasError) Error() string { return "microvm: out of gas" }

// ErrOutOfGas is the sentinel stored in Result.Err on gas exhaustion.
var ErrOutOfGas error = outOfGasError{}

// ErrStackUnderflow marks a malformed program that pops more than it pushed.
type stackUnderflowError struct{}

func (stackUnderflowError) Error() string { return "microvm: stack underflow" }

// ErrStackUnderflow is the sentinel stored in Result.Err on a malformed program.
var ErrStackUnderflow error = stackUnderflowError{}

// Run interprets program against wc, a transaction's private working copy
// of pre-transaction state, up to gasLimit. On success it returns the
// accumulated gas, the actual read/write sets, and the ordered write
// buffer. On gas exhaustion it returns success=false with gasUsed clamped
// to gasLimit and an empty write buffer: it commits as a failed tx with
// an empty write buffer, and any writes already buffered are discarded
// since the working copy is never committed.
func Run(program []MicroOp, gasLimit uint64, wc *store.WorkingCopy) Result {
	var (
		stack   []store.Value
		gasUsed uint64
		warm    = make(map[store.Key]struct{}) // reset per transaction
		reads   = make(map[store.Key]struct{})
		writes  = make(map[store.Key]struct{})
	)

	fail := func(err error) Result {
		return Result{
			GasUsed:      gasLimit,
			ActualReads:  reads,
			ActualWrites: writes,
			WriteBuffer:  nil,
			Success:      false,
			Err:          err,
		}
	}

	charge := func(cost uint64) bool {
		if gasUsed+cost > gasLimit {
			return false
		}
		gasUsed += cost
		return true
	}

	pop := func() (store.Value, bool) {
		if len(stack) == 0 {
			return store.Value{}, false
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, true
	}

	for _, op := range program {
		switch op.Op {
		case OpNop:
			if !charge(GasNop) {
				return fail(ErrOutOfGas)
			}
		case OpPush:
			if !charge(GasPush) {
				return fail(ErrOutOfGas)
			}
			stack = append(stack, op.Value)
		case OpLoad:
			cost := GasSloadCold
			if _, ok := warm[op.Key]; ok {
				cost = GasSloadWarm
			}
			if !charge(cost) {
				return fail(ErrOutOfGas)
			}
			warm[op.Key] = struct{}{}
			reads[op.Key] = struct{}{}
			stack = append(stack, wc.Get(op.Key))
		case OpStore:
			if !charge(GasSstore) {
				return fail(ErrOutOfGas)
			}
			v := op.Value
			if popped, ok := pop(); ok {
				v = popped
			}
			warm[op.Key] = struct{}{}
			writes[op.Key] = struct{}{}
			wc.Set(op.Key, v)
		case OpAdd, OpSub, OpMul:
			if !charge(GasArith) {
				return fail(ErrOutOfGas)
			}
			b, ok1 := pop()
			a, ok2 := pop()
			if !ok1 || !ok2 {
				return fail(ErrStackUnderflow)
			}
			var r store.Value
			switch op.Op {
			case OpAdd:
				r.Add(&a, &b)
			case OpSub:
				r.Sub(&a, &b)
			case OpMul:
				r.Mul(&a, &b)
			}
			stack = append(stack, r)
		}
	}

	return Result{
		GasUsed:      gasUsed,
		ActualReads:  reads,
		ActualWrites: writes,
		WriteBuffer:  wc.WriteBuffer(),
		Success:      true,
	}
}
