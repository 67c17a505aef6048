package wallet

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"

	"github.com/klingon-exchange/inscribecore/internal/chain"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestGenerateMnemonicIsValid(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}
	if mnemonic == "" {
		t.Fatal("expected non-empty mnemonic")
	}
}

func TestNewFromMnemonicRejectsInvalid(t *testing.T) {
	if _, err := NewFromMnemonic("not a real mnemonic", "", chain.Mainnet); err == nil {
		t.Fatal("expected error for invalid mnemonic")
	}
}

func TestGetChangeAddressesAreDistinctAndStable(t *testing.T) {
	w, err := NewFromMnemonic(testMnemonic, "", chain.Regtest)
	if err != nil {
		t.Fatalf("NewFromMnemonic: %v", err)
	}

	addrs, err := w.GetChangeAddresses(2)
	if err != nil {
		t.Fatalf("GetChangeAddresses: %v", err)
	}
	if len(addrs) != 2 {
		t.Fatalf("len = %d, want 2", len(addrs))
	}
	if addrs[0].EncodeAddress() == addrs[1].EncodeAddress() {
		t.Error("successive change addresses should be distinct")
	}

	w2, err := NewFromMnemonic(testMnemonic, "", chain.Regtest)
	if err != nil {
		t.Fatalf("NewFromMnemonic: %v", err)
	}
	addrs2, err := w2.GetChangeAddresses(1)
	if err != nil {
		t.Fatalf("GetChangeAddresses: %v", err)
	}
	if addrs2[0].EncodeAddress() != addrs[0].EncodeAddress() {
		t.Error("same mnemonic and index should derive the same address")
	}
}

func TestPrivateKeyAtMatchesDerivedAddress(t *testing.T) {
	w, err := NewFromMnemonic(testMnemonic, "", chain.Regtest)
	if err != nil {
		t.Fatalf("NewFromMnemonic: %v", err)
	}
	priv, err := w.PrivateKeyAt(0)
	if err != nil {
		t.Fatalf("PrivateKeyAt: %v", err)
	}
	addrs, err := w.GetChangeAddresses(1)
	if err != nil {
		t.Fatalf("GetChangeAddresses: %v", err)
	}

	outputKey := txscript.ComputeTaprootKeyNoScript(priv.PubKey())
	addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), w.params)
	if err != nil {
		t.Fatalf("NewAddressTaproot: %v", err)
	}
	if addr.EncodeAddress() != addrs[0].EncodeAddress() {
		t.Errorf("PrivateKeyAt(0) address = %s, want %s", addr.EncodeAddress(), addrs[0].EncodeAddress())
	}
}
