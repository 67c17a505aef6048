// Package builder implements the coin-selecting transaction builder the
// inscription core delegates commit-transaction funding to: given a
// satpoint, the inscription index, the wallet's UTXO set, a recipient
// script, and a set of change addresses, it returns an unsigned,
// funded commit transaction.
package builder

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-exchange/inscribecore/internal/index"
	"github.com/klingon-exchange/inscribecore/internal/utxoset"
)

// ErrFundingFailure is returned when the builder cannot locate or fund
// an unspent output for the resolved satpoint.
var ErrFundingFailure = fmt.Errorf("builder: satpoint outpoint not found in utxo set")

const (
	// DefaultTxVersion matches the reveal tx's version per the reference
	// implementation; the commit tx uses the same.
	DefaultTxVersion = 1

	// rbfSequence is Sequence::ENABLE_RBF_NO_LOCKTIME: RBF-opt-in without
	// also signalling a relative locktime.
	rbfSequence = 0xfffffffd
)

// FeeRate is a non-negative sats-per-virtual-byte rate.
type FeeRate float64

// Fee computes the fee for a given vsize, rounding up to the nearest
// satoshi.
func (r FeeRate) Fee(vsize int) btcutil.Amount {
	sats := r.feeFloat(vsize)
	whole := btcutil.Amount(sats)
	if float64(whole) < sats {
		whole++
	}
	return whole
}

func (r FeeRate) feeFloat(vsize int) float64 {
	return float64(r) * float64(vsize)
}

// Build selects inputs covering commitAddress's required funding, adds
// a single output paying commitAddress, and a change output if needed,
// returning an unsigned transaction. It does not sign; signing happens
// through the node RPC client after the reveal tx and recovery key have
// been fully prepared.
//
// The single commitAddress output always ends up at index 0 so the core
// can locate it without a script-equality scan on callers that already
// know the layout; the core still re-verifies by script equality per
// its own invariant.
func Build(
	satpoint index.SatPoint,
	utxos utxoset.Set,
	commitAddress btcutil.Address,
	commitValue btcutil.Amount,
	changeAddress btcutil.Address,
	feeRate FeeRate,
) (*wire.MsgTx, error) {
	amount, ok := utxos[satpoint.OutPoint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFundingFailure, satpoint.OutPoint)
	}

	commitScript, err := txscript.PayToAddrScript(commitAddress)
	if err != nil {
		return nil, fmt.Errorf("builder: commit address script: %w", err)
	}
	changeScript, err := txscript.PayToAddrScript(changeAddress)
	if err != nil {
		return nil, fmt.Errorf("builder: change address script: %w", err)
	}

	tx := wire.NewMsgTx(DefaultTxVersion)
	in := wire.NewTxIn(&wire.OutPoint{Hash: satpoint.OutPoint.Hash, Index: satpoint.OutPoint.Index}, nil, nil)
	in.Sequence = rbfSequence
	tx.AddTxIn(in)

	tx.AddTxOut(wire.NewTxOut(int64(commitValue), commitScript))
	tx.AddTxOut(wire.NewTxOut(0, changeScript))

	estimate := tx.Copy()
	estimate.TxIn[0].Witness = wire.TxWitness{make([]byte, 64)}
	fee := feeRate.Fee(vsize(estimate))

	change := amount - commitValue - fee
	if change < btcutil.Amount(DustThreshold(changeScript)) {
		// No economical change output: drop it and sweep whatever the
		// input carries past its own fee into the commit output. This
		// makes commitValue a cap rather than a guarantee when a single
		// cardinal utxo funds both the commit output and its own fee.
		tx.TxOut = tx.TxOut[:1]
		withoutChangeFee := feeRate.Fee(vsizeWithoutChange(estimate))
		swept := amount - withoutChangeFee
		if swept < 0 {
			return nil, fmt.Errorf("%w: insufficient input value for commit output and fee", ErrFundingFailure)
		}
		tx.TxOut[0].Value = int64(swept)
	} else {
		tx.TxOut[1].Value = int64(change)
	}

	return tx, nil
}

func vsize(tx *wire.MsgTx) int {
	baseSize := tx.SerializeSizeStripped()
	totalSize := tx.SerializeSize()
	weight := baseSize*3 + totalSize
	return (weight + 3) / 4
}

func vsizeWithoutChange(tx *wire.MsgTx) int {
	clipped := tx.Copy()
	clipped.TxOut = clipped.TxOut[:1]
	return vsize(clipped)
}

// OutpointString renders an outpoint the way the reference error
// messages do, txid:vout.
func OutpointString(op wire.OutPoint) string {
	return fmt.Sprintf("%s:%d", op.Hash, op.Index)
}
