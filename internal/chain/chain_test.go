package chain

import "testing"

func TestParamsKnownNetworks(t *testing.T) {
	for _, n := range []Network{Mainnet, Testnet, Signet, Regtest} {
		if _, err := Params(n); err != nil {
			t.Errorf("Params(%s) returned error: %v", n, err)
		}
	}
}

func TestParamsUnknownNetwork(t *testing.T) {
	if _, err := Params(Network("notarealnet")); err == nil {
		t.Error("expected error for unknown network")
	}
}

func TestCoinType(t *testing.T) {
	if got := CoinType(Mainnet); got != 0 {
		t.Errorf("CoinType(Mainnet) = %d, want 0", got)
	}
	for _, n := range []Network{Testnet, Signet, Regtest} {
		if got := CoinType(n); got != 1 {
			t.Errorf("CoinType(%s) = %d, want 1", n, got)
		}
	}
}

func TestDerivationPath(t *testing.T) {
	path := DerivationPath(Mainnet, 0, 1, 5)
	want := []uint32{86 + 0x80000000, 0 + 0x80000000, 0 + 0x80000000, 1, 5}
	if len(path) != len(want) {
		t.Fatalf("path length = %d, want %d", len(path), len(want))
	}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("path[%d] = %d, want %d", i, path[i], want[i])
		}
	}
}
