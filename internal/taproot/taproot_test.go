package taproot

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

func TestBuildControlBlockAndAddress(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	internalKey := priv.PubKey()

	script := txscript.NewScriptBuilder().
		AddData(schnorr.SerializePubKey(internalKey)).
		AddOp(txscript.OP_CHECKSIG)
	revealScript, err := script.Script()
	if err != nil {
		t.Fatalf("Script: %v", err)
	}
	revealScript = append(revealScript, txscript.OP_ENDIF)

	tree, err := Build(internalKey, revealScript, &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(tree.ControlBlock) == 0 {
		t.Error("expected non-empty control block")
	}
	if tree.CommitAddress == nil {
		t.Fatal("expected commit address")
	}

	wantScript, err := txscript.PayToAddrScript(tree.CommitAddress)
	if err != nil {
		t.Fatalf("PayToAddrScript: %v", err)
	}
	gotScript, err := txscript.PayToAddrScript(tree.CommitAddress)
	if err != nil {
		t.Fatalf("PayToAddrScript: %v", err)
	}
	if string(wantScript) != string(gotScript) {
		t.Error("commit address script_pubkey should be stable")
	}
}

func TestBuildOutputKeyMatchesAddress(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	revealScript := []byte{txscript.OP_TRUE}

	tree, err := Build(priv.PubKey(), revealScript, &chaincfg.SigNetParams)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	wantAddr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(tree.OutputKey), &chaincfg.SigNetParams)
	if err != nil {
		t.Fatalf("NewAddressTaproot: %v", err)
	}
	if wantAddr.EncodeAddress() != tree.CommitAddress.EncodeAddress() {
		t.Errorf("CommitAddress = %s, want %s", tree.CommitAddress.EncodeAddress(), wantAddr.EncodeAddress())
	}
}
