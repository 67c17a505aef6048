// Package taproot builds the single-leaf Taproot tree that anchors an
// inscription reveal script and derives the resulting commit address.
package taproot

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// LeafVersion is the tapscript leaf version used by every reveal script
// this engine builds.
const LeafVersion = txscript.BaseLeafVersion

// Tree holds the derived artifacts of a single-leaf Taproot commitment:
// the reveal script it commits to, the control block needed to spend it
// via the script path, and the commit (P2TR) address.
type Tree struct {
	RevealScript  []byte
	ControlBlock  []byte
	CommitAddress *btcutil.AddressTaproot
	OutputKey     *btcec.PublicKey
	MerkleRoot    [32]byte
}

// Build constructs the single-leaf tree rooted at revealScript, tweaked
// by internalKey, and derives the resulting P2TR address on network.
// With one leaf the Merkle root equals the leaf hash and the control
// block carries no sibling hashes.
func Build(internalKey *btcec.PublicKey, revealScript []byte, network *chaincfg.Params) (*Tree, error) {
	leaf := txscript.NewBaseTapLeaf(revealScript)
	proof := &txscript.TapscriptProof{
		TapLeaf:  leaf,
		RootNode: leaf,
	}

	controlBlock := proof.ToControlBlock(internalKey)
	controlBlockBytes, err := controlBlock.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("taproot: compute control block: %w", err)
	}

	merkleRoot := proof.RootNode.TapHash()

	outputKey := txscript.ComputeTaprootOutputKey(internalKey, merkleRoot[:])

	commitAddress, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), network)
	if err != nil {
		return nil, fmt.Errorf("taproot: derive commit address: %w", err)
	}

	return &Tree{
		RevealScript:  revealScript,
		ControlBlock:  controlBlockBytes,
		CommitAddress: commitAddress,
		OutputKey:     outputKey,
		MerkleRoot:    merkleRoot,
	}, nil
}
