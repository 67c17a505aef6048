package builder

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-exchange/inscribecore/internal/index"
	"github.com/klingon-exchange/inscribecore/internal/utxoset"
)

func outpoint(n byte) wire.OutPoint {
	var hash chainhash.Hash
	hash[0] = n
	return wire.OutPoint{Hash: hash, Index: 0}
}

func testAddress(t *testing.T, seed byte) btcutil.Address {
	t.Helper()
	hash := make([]byte, 20)
	hash[0] = seed
	addr, err := btcutil.NewAddressWitnessPubKeyHash(hash, &chaincfg.RegressionNetParams)
	if err != nil {
		t.Fatalf("NewAddressWitnessPubKeyHash: %v", err)
	}
	return addr
}

func TestBuildFundsCommitOutput(t *testing.T) {
	sp := index.SatPoint{OutPoint: outpoint(1), Offset: 0}
	utxos := utxoset.Set{outpoint(1): btcutil.Amount(5000)}

	tx, err := Build(sp, utxos, testAddress(t, 1), btcutil.Amount(1000), testAddress(t, 2), FeeRate(1.0))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tx.TxOut[0].Value != 1000 {
		t.Errorf("commit output value = %d, want 1000", tx.TxOut[0].Value)
	}
	if tx.TxIn[0].Sequence >= 0xFFFFFFFE {
		t.Error("expected RBF-enabled sequence")
	}
}

func TestBuildMissingSatpointFails(t *testing.T) {
	sp := index.SatPoint{OutPoint: outpoint(9), Offset: 0}
	utxos := utxoset.Set{outpoint(1): btcutil.Amount(5000)}

	if _, err := Build(sp, utxos, testAddress(t, 1), btcutil.Amount(1000), testAddress(t, 2), FeeRate(1.0)); err == nil {
		t.Error("expected funding failure for missing satpoint")
	}
}

func TestFeeRateFeeRoundsUp(t *testing.T) {
	rate := FeeRate(3.3)
	fee := rate.Fee(100)
	if fee != 330 {
		t.Errorf("Fee(100) at 3.3 = %d, want 330", fee)
	}
	if got := rate.Fee(101); got != 334 {
		t.Errorf("Fee(101) at 3.3 = %d, want 334", got)
	}

	rate2 := FeeRate(1.0)
	if got := rate2.Fee(100); got != 100 {
		t.Errorf("Fee(100) at 1.0 = %d, want 100", got)
	}
}
