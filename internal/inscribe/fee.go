package inscribe

import "github.com/btcsuite/btcd/wire"

// schnorrSignatureSize is the fixed length of a BIP-340 Schnorr
// signature under SIGHASH_DEFAULT (no appended sighash-type byte).
const schnorrSignatureSize = 64

// vsize computes a transaction's virtual size: weight = 3*strippedSize
// + totalSize, vsize = ceil(weight / 4).
func vsize(tx *wire.MsgTx) int {
	stripped := tx.SerializeSizeStripped()
	total := tx.SerializeSize()
	weight := stripped*3 + total
	return (weight + 3) / 4
}

// dummyWitnessVsize measures the reveal transaction's vsize using a
// dummy witness of exactly the real witness's final size: a
// zero-filled 64-byte signature, the literal reveal script, and the
// literal serialized control block. Because Schnorr signatures under
// SIGHASH_DEFAULT are fixed-length, this lets the fee be computed
// before the transaction is signable.
func dummyWitnessVsize(tx *wire.MsgTx, revealScript, controlBlock []byte) int {
	clone := tx.Copy()
	clone.TxIn[0].Witness = wire.TxWitness{
		make([]byte, schnorrSignatureSize),
		revealScript,
		controlBlock,
	}
	return vsize(clone)
}
