package utxoset

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

func outpoint(n byte) wire.OutPoint {
	var hash chainhash.Hash
	hash[0] = n
	return wire.OutPoint{Hash: hash, Index: 0}
}

func TestOrderedIsDeterministicAscending(t *testing.T) {
	set := Set{
		outpoint(3): btcutil.Amount(1000),
		outpoint(1): btcutil.Amount(2000),
		outpoint(2): btcutil.Amount(3000),
	}

	entries := set.Ordered()
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	for i := 0; i < len(entries)-1; i++ {
		a, b := entries[i].OutPoint, entries[i+1].OutPoint
		less := string(a.Hash[:]) < string(b.Hash[:])
		if !less {
			t.Errorf("entries not ascending at index %d", i)
		}
	}
}

func TestOrderedStableAcrossCalls(t *testing.T) {
	set := Set{
		outpoint(1): btcutil.Amount(1),
		outpoint(2): btcutil.Amount(2),
	}
	first := set.Ordered()
	second := set.Ordered()
	for i := range first {
		if first[i].OutPoint != second[i].OutPoint {
			t.Fatalf("ordering differs between calls at index %d", i)
		}
	}
}
