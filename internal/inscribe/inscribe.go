// Package inscribe implements the core commit/reveal inscription
// minting pipeline: satpoint resolution, reveal-script and Taproot tree
// construction, commit-transaction funding, reveal-transaction fee
// resolution and signing, and recovery-key derivation and export.
package inscribe

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/google/uuid"

	"github.com/klingon-exchange/inscribecore/internal/builder"
	"github.com/klingon-exchange/inscribecore/internal/envelope"
	"github.com/klingon-exchange/inscribecore/internal/index"
	"github.com/klingon-exchange/inscribecore/internal/noderpc"
	"github.com/klingon-exchange/inscribecore/internal/recovery"
	"github.com/klingon-exchange/inscribecore/internal/taproot"
	"github.com/klingon-exchange/inscribecore/internal/utxoset"
	"github.com/klingon-exchange/inscribecore/pkg/logging"
)

// rbfSequenceThreshold is the boundary below which an input sequence
// signals RBF opt-in (BIP-125).
const rbfSequenceThreshold = 0xFFFFFFFE

// OptsInToRBF reports whether tx has at least one input sequence
// strictly below the RBF threshold.
func OptsInToRBF(tx *wire.MsgTx) bool {
	for _, in := range tx.TxIn {
		if in.Sequence < rbfSequenceThreshold {
			return true
		}
	}
	return false
}

// Result is the core's public contract: the commit and reveal txids
// and the minted inscription id, which is the reveal txid.
type Result struct {
	Commit      chainhash.Hash
	Reveal      chainhash.Hash
	Inscription index.InscriptionId
}

// Options bundles everything the pipeline needs beyond the payload
// itself, mirroring create_inscription_transactions' parameter list.
type Options struct {
	Satpoint      *index.SatPoint
	Inscription   envelope.Inscription
	Inscriptions  map[index.SatPoint]index.InscriptionId
	Network       *chaincfg.Params
	Utxos         utxoset.Set
	ChangeAddrs   []btcutil.Address
	Destination   btcutil.Address
	FeeRate       builder.FeeRate
}

// plan is everything create_inscription_transactions computes before
// delegating to the node for signing and broadcast.
type plan struct {
	CommitTx    *wire.MsgTx
	RevealTx    *wire.MsgTx
	RecoveryKey recovery.Key
}

// resolveSatpoint implements §4.1: explicit satpoints pass through
// unchanged; otherwise the first non-inscribed outpoint in the utxo
// set's defined ascending order is chosen.
func resolveSatpoint(satpoint *index.SatPoint, utxos utxoset.Set, inscriptions map[index.SatPoint]index.InscriptionId) (index.SatPoint, error) {
	if satpoint != nil {
		return *satpoint, nil
	}

	inscribedOutpoints := make(map[wire.OutPoint]struct{}, len(inscriptions))
	for sp := range inscriptions {
		inscribedOutpoints[sp.OutPoint] = struct{}{}
	}

	for _, entry := range utxos.Ordered() {
		if _, inscribed := inscribedOutpoints[entry.OutPoint]; !inscribed {
			return index.SatPoint{OutPoint: entry.OutPoint, Offset: 0}, nil
		}
	}

	return index.SatPoint{}, ErrNoCardinalUtxos
}

// checkCollisions implements the second half of §4.1.
func checkCollisions(resolved index.SatPoint, inscriptions map[index.SatPoint]index.InscriptionId) error {
	for inscribedSatpoint, id := range inscriptions {
		if inscribedSatpoint == resolved {
			return &SatAlreadyInscribed{SatPoint: resolved}
		}
		if inscribedSatpoint.OutPoint == resolved.OutPoint {
			return &OutpointAlreadyInscribed{OutPoint: inscribedSatpoint, InscriptionID: id}
		}
	}
	return nil
}

// buildRevealScript implements §4.2 steps 1-3: sample an ephemeral key,
// derive its x-only public key, and build the reveal script committing
// to it and the inscription's envelope.
func buildRevealScript(insc envelope.Inscription) (*btcec.PrivateKey, []byte, error) {
	internalKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("inscribe: sample ephemeral key: %w", err)
	}

	scriptBuilder := txscript.NewScriptBuilder().
		AddData(schnorr.SerializePubKey(internalKey.PubKey())).
		AddOp(txscript.OP_CHECKSIG)

	revealScript, err := envelope.AppendEnvelope(scriptBuilder, insc)
	if err != nil {
		return nil, nil, fmt.Errorf("inscribe: build reveal script: %w", err)
	}

	return internalKey, revealScript, nil
}

// createInscriptionTransactions is the core algorithm, grounded
// directly on create_inscription_transactions: it builds the Taproot
// tree, delegates commit funding, builds the reveal tx template,
// resolves the self-referential fee, signs, and derives the recovery
// key. It does not broadcast or export the recovery key — those are
// orchestrated by Service.Inscribe in the order §5 requires.
func createInscriptionTransactions(opts Options) (*plan, error) {
	satpoint, err := resolveSatpoint(opts.Satpoint, opts.Utxos, opts.Inscriptions)
	if err != nil {
		return nil, err
	}
	if err := checkCollisions(satpoint, opts.Inscriptions); err != nil {
		return nil, err
	}

	internalKey, revealScript, err := buildRevealScript(opts.Inscription)
	if err != nil {
		return nil, err
	}

	tree, err := taproot.Build(internalKey.PubKey(), revealScript, opts.Network)
	if err != nil {
		// Taproot finalization for a well-formed single-leaf tree is
		// guaranteed to succeed by the library; failure here is a bug.
		panic(fmt.Sprintf("inscribe: taproot construction failed: %v", err))
	}

	if len(opts.ChangeAddrs) < 2 {
		return nil, fmt.Errorf("inscribe: need at least two change addresses, got %d", len(opts.ChangeAddrs))
	}

	commitScript, err := txscript.PayToAddrScript(tree.CommitAddress)
	if err != nil {
		panic(fmt.Sprintf("inscribe: commit address script derivation failed: %v", err))
	}

	// commitValue is the full amount the satpoint's utxo carries. The
	// builder treats it as a cap: with no economical change left, it
	// sweeps the utxo's value less the commit transaction's own fee into
	// the commit output, so that output ends up below commitValue.
	commitValue := opts.Utxos[satpoint.OutPoint]

	commitTx, err := builder.Build(satpoint, opts.Utxos, tree.CommitAddress, commitValue, opts.ChangeAddrs[0], opts.FeeRate)
	if err != nil {
		return nil, &FundingFailure{Err: err}
	}

	vout, output, err := locateCommitOutput(commitTx, commitScript)
	if err != nil {
		// The builder's contract guarantees exactly one output matches
		// the commit script; violation is a programming error.
		panic(err.Error())
	}

	revealTx := &wire.MsgTx{
		Version:  builder.DefaultTxVersion,
		LockTime: 0,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{Hash: commitTx.TxHash(), Index: uint32(vout)},
			Sequence:         0xFFFFFFFD,
		}},
		TxOut: []*wire.TxOut{{
			PkScript: mustPayToAddrScript(opts.Destination),
			Value:    output.Value,
		}},
	}

	fee := opts.FeeRate.Fee(dummyWitnessVsize(revealTx, revealScript, tree.ControlBlock))

	newValue, ok := checkedSub(revealTx.TxOut[0].Value, int64(fee))
	if !ok {
		return nil, ErrInsufficientCommitValue
	}
	revealTx.TxOut[0].Value = newValue

	if revealTx.TxOut[0].Value < builder.DustThreshold(revealTx.TxOut[0].PkScript) {
		return nil, ErrRevealWouldBeDust
	}

	if err := signReveal(revealTx, internalKey, revealScript, tree.ControlBlock, output); err != nil {
		panic(fmt.Sprintf("inscribe: signing reveal transaction failed: %v", err))
	}

	recoveryKey := recovery.Derive(internalKey, tree.MerkleRoot, tree.OutputKey)
	internalKey.Zero()

	return &plan{
		CommitTx:    commitTx,
		RevealTx:    revealTx,
		RecoveryKey: recoveryKey,
	}, nil
}

func locateCommitOutput(tx *wire.MsgTx, commitScript []byte) (int, *wire.TxOut, error) {
	found := -1
	for i, out := range tx.TxOut {
		if bytes.Equal(out.PkScript, commitScript) {
			if found >= 0 {
				return 0, nil, fmt.Errorf("inscribe: found more than one sat commit/inscription output")
			}
			found = i
		}
	}
	if found < 0 {
		return 0, nil, fmt.Errorf("inscribe: should find sat commit/inscription output")
	}
	return found, tx.TxOut[found], nil
}

func mustPayToAddrScript(addr btcutil.Address) []byte {
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		panic(fmt.Sprintf("inscribe: destination address script derivation failed: %v", err))
	}
	return script
}

func checkedSub(value, fee int64) (int64, bool) {
	result := value - fee
	if result < 0 {
		return 0, false
	}
	return result, true
}

func signReveal(tx *wire.MsgTx, internalKey *btcec.PrivateKey, revealScript, controlBlock []byte, commitOutput *wire.TxOut) error {
	fetcher := txscript.NewCannedPrevOutputFetcher(commitOutput.PkScript, commitOutput.Value)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	leaf := txscript.NewBaseTapLeaf(revealScript)
	sigHash, err := txscript.CalcTapscriptSignaturehash(sigHashes, txscript.SigHashDefault, tx, 0, fetcher, leaf)
	if err != nil {
		return fmt.Errorf("compute tapscript sighash: %w", err)
	}

	signature, err := schnorr.Sign(internalKey, sigHash)
	if err != nil {
		return fmt.Errorf("schnorr sign: %w", err)
	}

	tx.TxIn[0].Witness = wire.TxWitness{signature.Serialize(), revealScript, controlBlock}
	return nil
}

// Service orchestrates the full pipeline, including the external
// collaborators and the strict broadcast ordering §5 requires.
type Service struct {
	Node     *noderpc.Client
	Index    *index.Index
	Log      *logging.Logger
}

// NewService builds a Service with its own "inscribe" component
// logger.
func NewService(node *noderpc.Client, idx *index.Index) *Service {
	return &Service{
		Node:  node,
		Index: idx,
		Log:   logging.GetDefault().Component("inscribe"),
	}
}

// Inscribe runs the full pipeline: build the plan, optionally back up
// the recovery key, broadcast the commit, then broadcast the reveal,
// and finally record the new inscription in the index.
func (s *Service) Inscribe(opts Options, noBackup bool) (*Result, error) {
	requestID := uuid.New().String()
	log := s.Log.With("request_id", requestID)

	if err := s.Index.Update(s.Node); err != nil {
		return nil, fmt.Errorf("inscribe: %w", err)
	}

	p, err := createInscriptionTransactions(opts)
	if err != nil {
		return nil, err
	}
	log.Info("reveal transaction prepared", "fee_rate", float64(opts.FeeRate), "satpoint", opts.Satpoint)

	if !noBackup {
		if err := recovery.Backup(s.Node, p.RecoveryKey, opts.Network); err != nil {
			return nil, &RecoveryKeyImportFailed{Err: err}
		}
		log.Info("recovery key exported")
	}

	signedCommit, err := s.Node.SignRawTransactionWithWallet(p.CommitTx)
	if err != nil {
		return nil, fmt.Errorf("inscribe: sign commit transaction: %w", err)
	}

	commitTxid, err := s.Node.SendRawTransaction(signedCommit)
	if err != nil {
		return nil, &CommitBroadcastFailed{Err: err}
	}
	log.Info("commit transaction broadcast", "txid", commitTxid.String())

	revealTxid, err := s.Node.SendRawTransaction(p.RevealTx)
	if err != nil {
		return nil, &RevealBroadcastFailed{Err: err, RevealHex: serializeHex(p.RevealTx)}
	}
	log.Info("reveal transaction broadcast", "txid", revealTxid.String())

	inscriptionID := index.InscriptionId{TxHash: *revealTxid}
	resolvedSatpoint, _ := resolveSatpoint(opts.Satpoint, opts.Utxos, opts.Inscriptions)
	if err := s.Index.Record(resolvedSatpoint, inscriptionID); err != nil {
		return nil, fmt.Errorf("inscribe: record inscription: %w", err)
	}

	return &Result{
		Commit:      *commitTxid,
		Reveal:      *revealTxid,
		Inscription: inscriptionID,
	}, nil
}

func serializeHex(tx *wire.MsgTx) string {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		panic(fmt.Sprintf("inscribe: serialize reveal transaction failed: %v", err))
	}
	return fmt.Sprintf("%x", buf.Bytes())
}
