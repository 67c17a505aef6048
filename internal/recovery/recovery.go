// Package recovery derives the Taproot key-path recovery key for a
// commit output and exports it to the node wallet as an importable
// descriptor, so the commit output remains spendable even if the
// reveal transaction is lost.
package recovery

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/klingon-exchange/inscribecore/internal/noderpc"
)

// ErrImportFailed is returned when any descriptor-import sub-result
// reports failure.
var ErrImportFailed = fmt.Errorf("recovery: commit tx recovery key import failed")

const label = "commit tx recovery key"

// Key is the tweaked key pair that can spend a commit output via the
// Taproot key path.
type Key struct {
	PrivateKey *btcec.PrivateKey
	XOnlyPub   *btcec.PublicKey
}

// Derive computes the key-path tweak of the ephemeral internal key
// under merkleRoot, and asserts the tweaked x-only public key matches
// the output key already embedded in the commit address. A mismatch is
// a programming error in the Taproot construction, not a user-facing
// error, so it panics per the core's assertion discipline.
func Derive(internalKey *btcec.PrivateKey, merkleRoot [32]byte, commitOutputKey *btcec.PublicKey) Key {
	tweaked := txscript.TweakTaprootPrivKey(*internalKey, merkleRoot[:])
	tweakedPub := tweaked.PubKey()

	if !bytes.Equal(schnorr.SerializePubKey(tweakedPub), schnorr.SerializePubKey(commitOutputKey)) {
		panic("recovery: tweaked recovery key does not match commit output key")
	}

	return Key{PrivateKey: tweaked, XOnlyPub: tweakedPub}
}

// Backup exports the recovery key to the node wallet following the
// exact get_descriptor_info -> import_descriptors -> result-check
// sequence the reference implementation uses.
func Backup(client *noderpc.Client, key Key, params *chaincfg.Params) error {
	wif, err := btcutil.NewWIF(key.PrivateKey, params, true)
	if err != nil {
		return fmt.Errorf("recovery: encode WIF: %w", err)
	}

	bareDescriptor := fmt.Sprintf("rawtr(%s)", wif.String())

	info, err := client.GetDescriptorInfo(bareDescriptor)
	if err != nil {
		return fmt.Errorf("recovery: get descriptor info: %w", err)
	}

	descriptor := fmt.Sprintf("%s#%s", bareDescriptor, info.Checksum)

	results, err := client.ImportDescriptors([]noderpc.ImportDescriptorsRequest{{
		Descriptor: descriptor,
		Timestamp:  "now",
		Active:     false,
		Internal:   false,
		Label:      label,
	}})
	if err != nil {
		return fmt.Errorf("recovery: import descriptors: %w", err)
	}

	for _, result := range results {
		if !result.Success {
			return ErrImportFailed
		}
	}
	return nil
}
