// Package noderpc wraps the Bitcoin node's JSON-RPC surface with the
// handful of calls the inscription engine needs: signing and
// broadcasting transactions, and importing the recovery descriptor.
// The descriptor calls aren't in rpcclient's typed surface, so they go
// through RawRequest.
package noderpc

import (
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"

	"github.com/klingon-exchange/inscribecore/internal/utxoset"
)

// Config configures the connection to the node's RPC endpoint.
type Config struct {
	Host         string
	User         string
	Pass         string
	DisableTLS   bool
	HTTPPostMode bool
}

// Client is a thin wrapper around rpcclient.Client scoped to the calls
// the inscription pipeline consumes.
type Client struct {
	rpc *rpcclient.Client
}

// New dials the node's RPC endpoint.
func New(cfg Config) (*Client, error) {
	connCfg := &rpcclient.ConnConfig{
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Pass,
		DisableTLS:   cfg.DisableTLS,
		HTTPPostMode: cfg.HTTPPostMode,
	}

	rpc, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("noderpc: connect: %w", err)
	}
	return &Client{rpc: rpc}, nil
}

// Shutdown releases the underlying RPC connection.
func (c *Client) Shutdown() {
	c.rpc.Shutdown()
}

// GetBlockCount is used as a liveness probe by the index's Update step.
func (c *Client) GetBlockCount() (int64, error) {
	return c.rpc.GetBlockCount()
}

// ListUnspent returns every spendable output the node's wallet knows
// about, implementing the `wallet.get_unspent_outputs()` external
// collaborator contract.
func (c *Client) ListUnspent() (utxoset.Set, error) {
	unspent, err := c.rpc.ListUnspent()
	if err != nil {
		return nil, fmt.Errorf("noderpc: listunspent: %w", err)
	}

	set := make(utxoset.Set, len(unspent))
	for _, u := range unspent {
		hash, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return nil, fmt.Errorf("noderpc: listunspent: parse txid %q: %w", u.TxID, err)
		}
		amount, err := btcutil.NewAmount(u.Amount)
		if err != nil {
			return nil, fmt.Errorf("noderpc: listunspent: parse amount: %w", err)
		}
		set[wire.OutPoint{Hash: *hash, Index: u.Vout}] = amount
	}
	return set, nil
}

// SignRawTransactionWithWallet signs tx using keys held by the node's
// wallet, returning the signed transaction.
func (c *Client) SignRawTransactionWithWallet(tx *wire.MsgTx) (*wire.MsgTx, error) {
	signed, complete, err := c.rpc.SignRawTransactionWithWallet(tx)
	if err != nil {
		return nil, fmt.Errorf("noderpc: sign raw transaction with wallet: %w", err)
	}
	if !complete {
		return nil, fmt.Errorf("noderpc: wallet could not produce a complete signature")
	}
	return signed, nil
}

// SendRawTransaction broadcasts tx and returns its txid.
func (c *Client) SendRawTransaction(tx *wire.MsgTx) (*chainhash.Hash, error) {
	txid, err := c.rpc.SendRawTransaction(tx, false)
	if err != nil {
		return nil, fmt.Errorf("noderpc: send raw transaction: %w", err)
	}
	return txid, nil
}

// DescriptorInfo is the result of get_descriptor_info: the canonical
// checksum to append to a descriptor string before import.
type DescriptorInfo struct {
	Descriptor string `json:"descriptor"`
	Checksum   string `json:"checksum"`
}

// GetDescriptorInfo queries the node for a descriptor's checksum.
func (c *Client) GetDescriptorInfo(descriptor string) (*DescriptorInfo, error) {
	params, err := json.Marshal([]interface{}{descriptor})
	if err != nil {
		return nil, fmt.Errorf("noderpc: marshal params: %w", err)
	}

	raw, err := c.rpc.RawRequest("getdescriptorinfo", []json.RawMessage{params})
	if err != nil {
		return nil, fmt.Errorf("noderpc: getdescriptorinfo: %w", err)
	}

	var info DescriptorInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("noderpc: decode getdescriptorinfo response: %w", err)
	}
	return &info, nil
}

// ImportDescriptorsRequest mirrors bitcoind's importdescriptors request
// object for a single descriptor entry.
type ImportDescriptorsRequest struct {
	Descriptor string `json:"desc"`
	Timestamp  string `json:"timestamp"`
	Active     bool   `json:"active"`
	Internal   bool   `json:"internal"`
	Label      string `json:"label"`
}

// ImportDescriptorsResult is one element of importdescriptors' response
// array.
type ImportDescriptorsResult struct {
	Success bool              `json:"success"`
	Warnings []string         `json:"warnings,omitempty"`
	Error    *json.RawMessage `json:"error,omitempty"`
}

// ImportDescriptors imports one or more descriptors into the node's
// wallet, implementing the `import_descriptors` external collaborator
// contract.
func (c *Client) ImportDescriptors(reqs []ImportDescriptorsRequest) ([]ImportDescriptorsResult, error) {
	params, err := json.Marshal(reqs)
	if err != nil {
		return nil, fmt.Errorf("noderpc: marshal requests: %w", err)
	}

	raw, err := c.rpc.RawRequest("importdescriptors", []json.RawMessage{params})
	if err != nil {
		return nil, fmt.Errorf("noderpc: importdescriptors: %w", err)
	}

	var results []ImportDescriptorsResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("noderpc: decode importdescriptors response: %w", err)
	}
	return results, nil
}

// EstimateSmartFee returns the node's estimated fee rate, in sats per
// virtual byte, for confirmation within confTarget blocks. Used as a
// fallback when the caller does not pin a fee rate explicitly.
func (c *Client) EstimateSmartFee(confTarget int64) (btcutil.Amount, error) {
	result, err := c.rpc.EstimateSmartFee(confTarget, nil)
	if err != nil {
		return 0, fmt.Errorf("noderpc: estimatesmartfee: %w", err)
	}
	if result.FeeRate == nil {
		return 0, fmt.Errorf("noderpc: estimatesmartfee: no estimate available")
	}
	btcPerKvb, err := btcutil.NewAmount(*result.FeeRate)
	if err != nil {
		return 0, fmt.Errorf("noderpc: estimatesmartfee: invalid fee rate: %w", err)
	}
	return btcPerKvb / 1000, nil
}
