// Package chain resolves the Bitcoin network a node is operating on into
// the chaincfg.Params the rest of the engine needs for address encoding
// and WIF prefixes.
package chain

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

// Network identifies which Bitcoin network the engine is wired to.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Signet  Network = "signet"
	Regtest Network = "regtest"
)

// Params returns the chaincfg.Params for a network name.
func Params(network Network) (*chaincfg.Params, error) {
	switch network {
	case Mainnet:
		return &chaincfg.MainNetParams, nil
	case Testnet:
		return &chaincfg.TestNet3Params, nil
	case Signet:
		return &chaincfg.SigNetParams, nil
	case Regtest:
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("chain: unknown network %q", network)
	}
}

// Purpose is the BIP44 purpose field used for HD derivation. The engine
// only ever derives Taproot (BIP86) change addresses.
const Purpose = uint32(86)

// CoinType is the BIP44 coin type: 0 for Bitcoin mainnet, 1 for every
// test network per BIP44's shared testnet convention.
func CoinType(network Network) uint32 {
	if network == Mainnet {
		return 0
	}
	return 1
}

// DerivationPath returns the BIP86 path m/86'/coinType'/account'/change/index.
func DerivationPath(network Network, account, change, index uint32) []uint32 {
	const hardened = 0x80000000
	return []uint32{
		Purpose + hardened,
		CoinType(network) + hardened,
		account + hardened,
		change,
		index,
	}
}
