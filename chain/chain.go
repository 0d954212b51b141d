// Package chain defines the block and transaction data model: the
// canonical serial order, the opaque micro-op program each transaction
// carries, and the estimated/actual access-set types that flow between
// the oracle, the conflict graph and the executor.
package chain

import (
	"fmt"
	"sort"

	"github.com/eth2030/paravm/microvm"
	"github.com/eth2030/paravm/store"
)

// TxId is a monotonically increasing, non-negative transaction identifier
// assigned by the block generator. It defines the canonical serial order:
// the final state of parallel execution must equal the final state of
// executing a Block's transactions in ascending TxId order.
type TxId uint64

// AccessListEntry is one EIP-2930-style pre-declared access-list entry.
type AccessListEntry struct {
	Key     store.Key `json:"key"`
	IsWrite bool      `json:"is_write"`
}

// Transaction is an immutable record of one unit of work: an ordered
// micro-op program plus hints the AccessOracle may consult.
type Transaction struct {
	ID             TxId                `json:"id"`
	Program        []microvm.MicroOp   `json:"program"`
	DeclaredReads  []store.Key         `json:"declared_reads"`
	DeclaredWrites []store.Key         `json:"declared_writes"`
	AccessList     []AccessListEntry   `json:"access_list"`
	GasLimit       uint64              `json:"gas_limit,omitempty"`
}

// DefaultGasLimit is used when a transaction does not declare one.
const DefaultGasLimit = 10_000_000

// Limit returns the transaction's gas limit, defaulting when unset.
func (tx Transaction) Limit() uint64 {
	if tx.GasLimit == 0 {
		return DefaultGasLimit
	}
	return tx.GasLimit
}

// Block is an ordered sequence of Transactions with strictly increasing
// IDs; that order is also the serial-equivalence order.
type Block struct {
	Transactions []Transaction `json:"transactions"`
}

// Validate checks the Block's well-formedness invariant: IDs strictly
// increasing, i.e. the slice is already the canonical serial order.
func (b Block) Validate() error {
	for i := 1; i < len(b.Transactions); i++ {
		if b.Transactions[i].ID <= b.Transactions[i-1].ID {
			return fmt.Errorf("chain: block is not strictly ordered by id at index %d (%d <= %d)",
				i, b.Transactions[i].ID, b.Transactions[i-1].ID)
		}
	}
	return nil
}

// Ids returns the block's transaction IDs in ascending order.
func (b Block) Ids() []TxId {
	ids := make([]TxId, len(b.Transactions))
	for i, tx := range b.Transactions {
		ids[i] = tx.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AccessSets is a pair of finite key sets: the keys a transaction reads
// and the keys it writes. reads and writes may overlap.
type AccessSets struct {
	Reads  map[store.Key]struct{}
	Writes map[store.Key]struct{}
}

// NewAccessSets returns an empty AccessSets pair.
func NewAccessSets() AccessSets {
	return AccessSets{
		Reads:  make(map[store.Key]struct{}),
		Writes: make(map[store.Key]struct{}),
	}
}

// AddRead adds k to the read set.
func (a AccessSets) AddRead(k store.Key) { a.Reads[k] = struct{}{} }

// AddWrite adds k to the write set.
func (a AccessSets) AddWrite(k store.Key) { a.Writes[k] = struct{}{} }

// Union merges other into a in place.
func (a AccessSets) Union(other AccessSets) {
	for k := range other.Reads {
		a.Reads[k] = struct{}{}
	}
	for k := range other.Writes {
		a.Writes[k] = struct{}{}
	}
}

// ExecutionResult is the outcome of running one transaction against a
// private working copy of some pre-transaction state.
type ExecutionResult struct {
	ID           TxId
	GasUsed      uint64
	ActualReads  map[store.Key]struct{}
	ActualWrites map[store.Key]struct{}
	WriteBuffer  []store.KV
	Success      bool
	Err          error
}
