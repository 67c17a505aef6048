// Package envelope builds the ordinals inscription envelope: the
// OP_FALSE OP_IF ... OP_ENDIF script-push sequence that carries a
// payload's content type and body inside a Taproot reveal script.
package envelope

import "github.com/btcsuite/btcd/txscript"

// maxScriptPush is the maximum bytes a single data push may carry on
// Taproot (no script-size limit applies the way it does pre-Taproot, but
// individual pushes are still bound by this convention).
const maxScriptPush = 520

const protocolID = "ord"

// Inscription is an opaque payload with a MIME content type and a body.
type Inscription struct {
	ContentType string
	Body        []byte
}

// AppendEnvelope appends this inscription's envelope to a partial script
// builder that has already pushed the signing public key and OP_CHECKSIG.
// It returns the builder's finished script with the closing OP_ENDIF
// appended, since txscript.ScriptBuilder has no direct way to push a bare
// opcode after calling Script().
func AppendEnvelope(builder *txscript.ScriptBuilder, insc Inscription) ([]byte, error) {
	builder.
		AddOp(txscript.OP_FALSE).
		AddOp(txscript.OP_IF).
		AddData([]byte(protocolID)).
		AddOp(txscript.OP_DATA_1).
		AddOp(txscript.OP_DATA_1).
		AddData([]byte(insc.ContentType)).
		AddOp(txscript.OP_0)

	for i := 0; i < len(insc.Body); i += maxScriptPush {
		end := i + maxScriptPush
		if end > len(insc.Body) {
			end = len(insc.Body)
		}
		builder.AddFullData(insc.Body[i:end])
	}

	script, err := builder.Script()
	if err != nil {
		return nil, err
	}

	return append(script, txscript.OP_ENDIF), nil
}
