package inscribe

import (
	"errors"
	"fmt"

	"github.com/klingon-exchange/inscribecore/internal/index"
)

var (
	ErrNoCardinalUtxos         = errors.New("wallet contains no cardinal utxos")
	ErrInsufficientCommitValue = errors.New("commit transaction output value insufficient to pay transaction fee")
	ErrRevealWouldBeDust       = errors.New("commit transaction output would be dust")
)

// SatAlreadyInscribed is returned when the resolved satpoint exactly
// matches an existing inscription index entry.
type SatAlreadyInscribed struct {
	SatPoint index.SatPoint
}

func (e *SatAlreadyInscribed) Error() string {
	return fmt.Sprintf("sat at %s already inscribed", e.SatPoint)
}

// OutpointAlreadyInscribed is returned when the resolved outpoint
// already carries a different inscribed sat.
type OutpointAlreadyInscribed struct {
	OutPoint      index.SatPoint
	InscriptionID index.InscriptionId
}

func (e *OutpointAlreadyInscribed) Error() string {
	return fmt.Sprintf(
		"utxo %s already inscribed with inscription %s on sat %s",
		e.OutPoint.OutPoint, e.InscriptionID, e.OutPoint,
	)
}

// CommitBroadcastFailed wraps an RPC rejection of the commit
// transaction.
type CommitBroadcastFailed struct {
	Err error
}

func (e *CommitBroadcastFailed) Error() string {
	return fmt.Sprintf("failed to send commit transaction: %v", e.Err)
}

func (e *CommitBroadcastFailed) Unwrap() error { return e.Err }

// RevealBroadcastFailed wraps an RPC rejection of the reveal
// transaction. The commit transaction has already been broadcast by
// this point, so RevealHex carries the fully-signed reveal so the
// caller can persist it for manual rebroadcast or recovery-key spend.
type RevealBroadcastFailed struct {
	Err       error
	RevealHex string
}

func (e *RevealBroadcastFailed) Error() string {
	return fmt.Sprintf("failed to send reveal transaction: %v", e.Err)
}

func (e *RevealBroadcastFailed) Unwrap() error { return e.Err }

// RecoveryKeyImportFailed wraps a failure in the recovery-key backup
// protocol. It is always returned before any broadcast.
type RecoveryKeyImportFailed struct {
	Err error
}

func (e *RecoveryKeyImportFailed) Error() string {
	return fmt.Sprintf("commit tx recovery key import failed: %v", e.Err)
}

func (e *RecoveryKeyImportFailed) Unwrap() error { return e.Err }

// FundingFailure wraps a failure from the transaction builder.
type FundingFailure struct {
	Err error
}

func (e *FundingFailure) Error() string {
	return fmt.Sprintf("funding commit transaction failed: %v", e.Err)
}

func (e *FundingFailure) Unwrap() error { return e.Err }
