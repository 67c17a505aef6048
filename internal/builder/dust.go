package builder

import "github.com/btcsuite/btcd/txscript"

// dustRelayFeePerKvb mirrors Bitcoin Core's DUST_RELAY_TX_FEE default of
// 3000 sat/kvB (3 sat/vB), the rate rust-bitcoin's Script::dust_value
// (and therefore the reference inscribe implementation) uses to size
// the dust threshold for a given output script.
const dustRelayFeePerKvb = 3000

// DustThreshold returns the minimum value, in satoshis, an output with
// pkScript may carry without being relay-rejected as dust. This
// reproduces rust-bitcoin's Script::dust_value formula: the relay fee
// for the estimated cost of spending this output (witness programs get
// a discounted estimate since spending them needs less non-witness
// data), no suitable Go library in the example pack exposes this
// formula directly.
func DustThreshold(pkScript []byte) int64 {
	if len(pkScript) > 0 && pkScript[0] == txscript.OP_RETURN {
		return 0
	}

	var spendCost int64
	if txscript.IsWitnessProgram(pkScript) {
		spendCost = 32 + 4 + 1 + (107 / 4) + 4
	} else {
		spendCost = 32 + 4 + 1 + 107 + 4
	}
	spendCost += int64(len(pkScript))

	return spendCost * dustRelayFeePerKvb / 1000
}
