// Package utxoset models the wallet's spendable outputs and exposes a
// deterministic iteration order required for reproducible satpoint
// auto-selection.
package utxoset

import (
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-exchange/inscribecore/pkg/helpers"
)

// Set maps an outpoint to the amount it carries. Keys are unique.
type Set map[wire.OutPoint]btcutil.Amount

// Entry pairs an outpoint with its amount for ordered iteration.
type Entry struct {
	OutPoint wire.OutPoint
	Amount   btcutil.Amount
}

// Ordered returns the set's entries sorted ascending by outpoint, first
// by txid bytes then by output index. This is the "defined iteration
// order" satpoint auto-selection relies on for determinism.
func (s Set) Ordered() []Entry {
	entries := make([]Entry, 0, len(s))
	for op, amt := range s {
		entries = append(entries, Entry{OutPoint: op, Amount: amt})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].OutPoint, entries[j].OutPoint
		if cmp := helpers.CompareBytes(a.Hash[:], b.Hash[:]); cmp != 0 {
			return cmp < 0
		}
		return a.Index < b.Index
	})
	return entries
}
