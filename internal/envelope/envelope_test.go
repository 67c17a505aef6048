package envelope

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
)

func signingBuilder(t *testing.T) *txscript.ScriptBuilder {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	pub := schnorr.SerializePubKey(priv.PubKey())
	return txscript.NewScriptBuilder().AddData(pub).AddOp(txscript.OP_CHECKSIG)
}

func TestAppendEnvelopeSmallBody(t *testing.T) {
	script, err := AppendEnvelope(signingBuilder(t), Inscription{ContentType: "text/plain", Body: []byte("ord")})
	if err != nil {
		t.Fatalf("AppendEnvelope: %v", err)
	}
	if script[len(script)-1] != txscript.OP_ENDIF {
		t.Error("script should end with OP_ENDIF")
	}
	if !bytes.Contains(script, []byte(protocolID)) {
		t.Error("script should contain the ord protocol id")
	}
}

func TestAppendEnvelopeChunksLargeBody(t *testing.T) {
	body := bytes.Repeat([]byte{1}, 10_000)
	script, err := AppendEnvelope(signingBuilder(t), Inscription{ContentType: "image/png", Body: body})
	if err != nil {
		t.Fatalf("AppendEnvelope: %v", err)
	}
	if len(script) < len(body) {
		t.Errorf("script len %d should be at least body len %d", len(script), len(body))
	}

	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		if n := len(tokenizer.Data()); n > maxScriptPush {
			t.Errorf("push of %d bytes exceeds %d", n, maxScriptPush)
		}
	}
	if err := tokenizer.Err(); err != nil {
		t.Fatalf("tokenize script: %v", err)
	}
}
