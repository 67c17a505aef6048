// Package index tracks which satoshis are already inscribed, backed by
// SQLite for durability across runs.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	_ "github.com/mattn/go-sqlite3"

	"github.com/klingon-exchange/inscribecore/internal/noderpc"
)

// SatPoint identifies one satoshi inside a UTXO by its byte offset from
// the first sat of that output.
type SatPoint struct {
	OutPoint wire.OutPoint
	Offset   uint64
}

func (s SatPoint) String() string {
	return fmt.Sprintf("%s:%d:%d", s.OutPoint.Hash, s.OutPoint.Index, s.Offset)
}

// InscriptionId identifies a minted inscription. In this engine it is
// always the reveal transaction's txid.
type InscriptionId struct {
	TxHash chainhash.Hash
}

func (id InscriptionId) String() string {
	return id.TxHash.String()
}

// Index maps SatPoint to InscriptionId. Keys are unique.
type Index struct {
	db *sql.DB
	mu sync.RWMutex
}

// Config configures where the index's database file lives.
type Config struct {
	DataDir string
}

// Open opens (creating if absent) the SQLite-backed inscription index.
func Open(cfg *Config) (*Index, error) {
	dataDir := cfg.DataDir
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("index: create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "inscriptions.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("index: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("index: ping database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	idx := &Index{db: db}
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("index: init schema: %w", err)
	}
	return idx, nil
}

func (idx *Index) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS inscriptions (
		txid TEXT NOT NULL,
		vout INTEGER NOT NULL,
		offset INTEGER NOT NULL,
		inscription_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (txid, vout, offset)
	);
	CREATE INDEX IF NOT EXISTS idx_inscriptions_outpoint ON inscriptions (txid, vout);
	`
	_, err := idx.db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// GetInscriptions returns the entire inscription index, implementing the
// `index.get_inscriptions(None)` external collaborator contract.
func (idx *Index) GetInscriptions() (map[SatPoint]InscriptionId, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(`SELECT txid, vout, offset, inscription_id FROM inscriptions`)
	if err != nil {
		return nil, fmt.Errorf("index: query inscriptions: %w", err)
	}
	defer rows.Close()

	result := make(map[SatPoint]InscriptionId)
	for rows.Next() {
		var txid string
		var vout uint32
		var offset uint64
		var inscriptionID string
		if err := rows.Scan(&txid, &vout, &offset, &inscriptionID); err != nil {
			return nil, fmt.Errorf("index: scan row: %w", err)
		}

		hash, err := chainhash.NewHashFromStr(txid)
		if err != nil {
			return nil, fmt.Errorf("index: parse txid %q: %w", txid, err)
		}
		idHash, err := chainhash.NewHashFromStr(inscriptionID)
		if err != nil {
			return nil, fmt.Errorf("index: parse inscription id %q: %w", inscriptionID, err)
		}

		sp := SatPoint{OutPoint: wire.OutPoint{Hash: *hash, Index: vout}, Offset: offset}
		result[sp] = InscriptionId{TxHash: *idHash}
	}
	return result, rows.Err()
}

// Record persists a newly minted inscription at the given satpoint.
func (idx *Index) Record(sp SatPoint, id InscriptionId) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	_, err := idx.db.Exec(
		`INSERT OR REPLACE INTO inscriptions (txid, vout, offset, inscription_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		sp.OutPoint.Hash.String(), sp.OutPoint.Index, sp.Offset, id.TxHash.String(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("index: record inscription: %w", err)
	}
	return nil
}

// Update refreshes the index against the node's current chain tip. This
// engine's index has no background crawler of its own: updating means
// nothing beyond confirming the node RPC client is reachable, since
// inscriptions are recorded synchronously by Record as this process
// mints them.
func (idx *Index) Update(client *noderpc.Client) error {
	if _, err := client.GetBlockCount(); err != nil {
		return fmt.Errorf("index: update: %w", err)
	}
	return nil
}
