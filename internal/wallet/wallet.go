// Package wallet derives the Taproot change addresses the inscription
// pipeline pays change to, via a BIP39/BIP86 hierarchical
// deterministic key tree.
package wallet

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/tyler-smith/go-bip39"

	"github.com/klingon-exchange/inscribecore/internal/chain"
)

// Wallet derives BIP86 Taproot keys from a single BIP39 seed.
type Wallet struct {
	network chain.Network
	params  *chaincfg.Params
	master  *hdkeychain.ExtendedKey

	mu        sync.Mutex
	addrCache map[uint32]*btcutil.AddressTaproot
	nextIndex uint32
}

// NewFromMnemonic derives a Wallet's master key from a BIP39 mnemonic
// and an optional passphrase.
func NewFromMnemonic(mnemonic, passphrase string, network chain.Network) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("wallet: invalid mnemonic")
	}

	params, err := chain.Params(network)
	if err != nil {
		return nil, err
	}

	seed := bip39.NewSeed(mnemonic, passphrase)
	master, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, fmt.Errorf("wallet: derive master key: %w", err)
	}

	return &Wallet{
		network:   network,
		params:    params,
		master:    master,
		addrCache: make(map[uint32]*btcutil.AddressTaproot),
	}, nil
}

// GenerateMnemonic creates a fresh BIP39 mnemonic at 256 bits of entropy
// (24 words).
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("wallet: generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("wallet: generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// deriveChild walks the BIP86 path m/86'/coinType'/0'/1/index (change
// chain, account 0) to an extended private key for a given address
// index.
func (w *Wallet) deriveChild(index uint32) (*hdkeychain.ExtendedKey, error) {
	path := chain.DerivationPath(w.network, 0, 1, index)

	key := w.master
	for _, step := range path {
		child, err := key.Derive(step)
		if err != nil {
			return nil, fmt.Errorf("wallet: derive path step %d: %w", step, err)
		}
		key = child
	}
	return key, nil
}

// GetChangeAddresses returns n freshly derived Taproot change addresses,
// implementing the `wallet.get_change_addresses(n)` external
// collaborator contract. Each call advances the internal address
// cursor, so one Wallet never returns the same address twice. The
// cursor is held in memory and starts at index 0 for every new Wallet.
func (w *Wallet) GetChangeAddresses(n int) ([]*btcutil.AddressTaproot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	addrs := make([]*btcutil.AddressTaproot, n)
	for i := 0; i < n; i++ {
		addr, err := w.addressAt(w.nextIndex)
		if err != nil {
			return nil, err
		}
		addrs[i] = addr
		w.nextIndex++
	}
	return addrs, nil
}

func (w *Wallet) addressAt(index uint32) (*btcutil.AddressTaproot, error) {
	if cached, ok := w.addrCache[index]; ok {
		return cached, nil
	}

	child, err := w.deriveChild(index)
	if err != nil {
		return nil, err
	}
	pub, err := child.ECPubKey()
	if err != nil {
		return nil, fmt.Errorf("wallet: derive public key at index %d: %w", index, err)
	}

	outputKey := txscript.ComputeTaprootKeyNoScript(pub)
	addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), w.params)
	if err != nil {
		return nil, fmt.Errorf("wallet: derive taproot address at index %d: %w", index, err)
	}

	w.addrCache[index] = addr
	return addr, nil
}

// PrivateKeyAt returns the raw secp256k1 private key backing the
// change address at index. Commit inputs are signed by the node's own
// wallet over RPC, not from this key directly; this accessor exists so
// callers can verify a derived address's key pair out-of-band.
func (w *Wallet) PrivateKeyAt(index uint32) (*btcec.PrivateKey, error) {
	child, err := w.deriveChild(index)
	if err != nil {
		return nil, err
	}
	return child.ECPrivKey()
}
