// Command inscribed mints a single ordinals inscription: it builds and
// broadcasts a commit/reveal transaction pair from a content file, a
// recipient address, and the keys held by a BIP39 wallet, against a
// Bitcoin node's wallet for funding and broadcast.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"gopkg.in/yaml.v3"

	"github.com/klingon-exchange/inscribecore/internal/builder"
	"github.com/klingon-exchange/inscribecore/internal/chain"
	"github.com/klingon-exchange/inscribecore/internal/config"
	"github.com/klingon-exchange/inscribecore/internal/envelope"
	"github.com/klingon-exchange/inscribecore/internal/index"
	"github.com/klingon-exchange/inscribecore/internal/inscribe"
	"github.com/klingon-exchange/inscribecore/internal/noderpc"
	"github.com/klingon-exchange/inscribecore/internal/wallet"
	"github.com/klingon-exchange/inscribecore/pkg/logging"
)

const version = "0.1.0"

func main() {
	dataDir := flag.String("data-dir", "~/.inscribecore", "directory for the config, wallet seed, and inscription index")
	configPath := flag.String("config", "", "path to a config file (defaults to <data-dir>/config.yaml)")
	network := flag.String("network", "", "override the configured network (mainnet, testnet, signet, regtest)")
	file := flag.String("file", "", "path to the file to inscribe (required)")
	contentType := flag.String("content-type", "", "MIME content type (sniffed from the file extension if omitted)")
	destination := flag.String("destination", "", "address the inscription is sent to (required)")
	satpointFlag := flag.String("satpoint", "", "satpoint to inscribe on, txid:vout:offset (auto-selected if omitted)")
	feeRate := flag.Float64("fee-rate", 0, "fee rate in sats/vbyte (falls back to the node's fee estimate, then the config default)")
	noBackup := flag.Bool("no-backup", false, "skip exporting the commit output's recovery key descriptor")
	logLevel := flag.String("log-level", "", "override the configured log level")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("inscribed", version)
		return
	}

	log := logging.New(logging.DefaultConfig())
	logging.SetDefault(log)

	if *file == "" {
		log.Fatal("-file is required")
	}
	if *destination == "" {
		log.Fatal("-destination is required")
	}

	cfg, err := loadConfig(*dataDir, *configPath)
	if err != nil {
		log.Fatal("load config", "err", err)
	}
	if *network != "" {
		cfg.Network = chain.Network(*network)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	log = logging.New(&logging.Config{Level: cfg.Logging.Level})
	logging.SetDefault(log)

	params, err := chain.Params(cfg.Network)
	if err != nil {
		log.Fatal("resolve network params", "err", err)
	}

	node, err := noderpc.New(noderpc.Config{
		Host:         cfg.Node.Host,
		User:         cfg.Node.User,
		Pass:         cfg.Node.Pass,
		DisableTLS:   cfg.Node.DisableTLS,
		HTTPPostMode: true,
	})
	if err != nil {
		log.Fatal("connect to node", "err", err)
	}
	defer node.Shutdown()

	idx, err := index.Open(&index.Config{DataDir: expandDataDir(*dataDir)})
	if err != nil {
		log.Fatal("open inscription index", "err", err)
	}
	defer idx.Close()

	w, err := loadWallet(expandDataDir(*dataDir), cfg.Network)
	if err != nil {
		log.Fatal("load wallet", "err", err)
	}

	body, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal("read inscription content", "err", err)
	}
	insc := envelope.Inscription{
		ContentType: resolveContentType(*contentType, *file),
		Body:        body,
	}

	destAddr, err := btcutil.DecodeAddress(*destination, params)
	if err != nil {
		log.Fatal("decode destination address", "err", err)
	}

	satpoint, err := parseSatpoint(*satpointFlag)
	if err != nil {
		log.Fatal("parse satpoint", "err", err)
	}

	utxos, err := node.ListUnspent()
	if err != nil {
		log.Fatal("list unspent outputs", "err", err)
	}

	inscriptions, err := idx.GetInscriptions()
	if err != nil {
		log.Fatal("load inscription index", "err", err)
	}

	changeAddrs, err := w.GetChangeAddresses(2)
	if err != nil {
		log.Fatal("derive change addresses", "err", err)
	}
	changeAddresses := make([]btcutil.Address, len(changeAddrs))
	for i, addr := range changeAddrs {
		changeAddresses[i] = addr
	}

	rate, err := resolveFeeRate(*feeRate, cfg.DefaultFeeRate, node)
	if err != nil {
		log.Fatal("resolve fee rate", "err", err)
	}

	opts := inscribe.Options{
		Satpoint:     satpoint,
		Inscription:  insc,
		Inscriptions: inscriptions,
		Network:      params,
		Utxos:        utxos,
		ChangeAddrs:  changeAddresses,
		Destination:  destAddr,
		FeeRate:      rate,
	}

	log.Info("minting inscription",
		"network", cfg.Network,
		"fee_rate", float64(rate),
		"content_type", insc.ContentType,
		"body_size", len(insc.Body),
	)

	service := inscribe.NewService(node, idx)
	result, err := service.Inscribe(opts, *noBackup || !cfg.RecoveryBackupEnabled)
	if err != nil {
		log.Fatal("inscribe", "err", err)
	}

	printResult(result)
}

type resultOutput struct {
	Commit      string `json:"commit"`
	Reveal      string `json:"reveal"`
	Inscription string `json:"inscription"`
}

func printResult(result *inscribe.Result) {
	out := resultOutput{
		Commit:      result.Commit.String(),
		Reveal:      result.Reveal.String(),
		Inscription: result.Inscription.String(),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		// Marshaling a struct of plain strings cannot fail.
		panic(fmt.Sprintf("inscribed: marshal result: %v", err))
	}
	fmt.Println(string(data))
}

// loadConfig loads the engine's config. With no explicit -config path it
// uses the data directory's default location, creating one on first run.
// An explicit path is read as-is, layered onto the same defaults, and
// never written back.
func loadConfig(dataDir, configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.LoadConfig(dataDir)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", configPath, err)
	}
	cfg := config.DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", configPath, err)
	}
	return cfg, nil
}

// loadWallet loads the BIP39 mnemonic from its encrypted seed file under
// dataDir. The decryption password is read from INSCRIBECORE_WALLET_PASSWORD
// rather than a flag, so it never ends up in shell history or a process
// listing.
func loadWallet(dataDir string, network chain.Network) (*wallet.Wallet, error) {
	password := os.Getenv("INSCRIBECORE_WALLET_PASSWORD")
	if password == "" {
		return nil, fmt.Errorf("INSCRIBECORE_WALLET_PASSWORD is not set")
	}

	seedPath := filepath.Join(dataDir, "seed.json")
	encrypted, err := wallet.LoadEncryptedSeed(seedPath)
	if err != nil {
		return nil, fmt.Errorf("load encrypted seed %q: %w", seedPath, err)
	}

	mnemonic, err := wallet.DecryptMnemonic(encrypted, password)
	if err != nil {
		return nil, err
	}

	return wallet.NewFromMnemonic(mnemonic, "", network)
}

func resolveContentType(explicit, path string) string {
	if explicit != "" {
		return explicit
	}
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return strings.SplitN(ct, ";", 2)[0]
	}
	return "application/octet-stream"
}

// resolveFeeRate honors an explicit -fee-rate flag first, then the
// node's own fee estimate, then the config's default.
func resolveFeeRate(explicit, configDefault float64, node *noderpc.Client) (builder.FeeRate, error) {
	if explicit > 0 {
		return builder.FeeRate(explicit), nil
	}

	if estimate, err := node.EstimateSmartFee(6); err == nil && estimate > 0 {
		return builder.FeeRate(float64(estimate)), nil
	}

	return builder.FeeRate(configDefault), nil
}

func parseSatpoint(s string) (*index.SatPoint, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("satpoint %q must be txid:vout:offset", s)
	}

	op, err := parseOutpoint(parts[0], parts[1])
	if err != nil {
		return nil, err
	}
	offset, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("satpoint %q: invalid offset: %w", s, err)
	}

	return &index.SatPoint{OutPoint: op, Offset: offset}, nil
}

func parseOutpoint(txid, vout string) (wire.OutPoint, error) {
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return wire.OutPoint{}, fmt.Errorf("invalid txid %q: %w", txid, err)
	}
	voutIdx, err := strconv.ParseUint(vout, 10, 32)
	if err != nil {
		return wire.OutPoint{}, fmt.Errorf("invalid vout %q: %w", vout, err)
	}
	return wire.OutPoint{Hash: *hash, Index: uint32(voutIdx)}, nil
}

func expandDataDir(dataDir string) string {
	return filepath.Dir(config.ConfigPath(dataDir))
}
