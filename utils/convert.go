package utils

import (
	"math/big"
)

var (
	OneGweiInWei = int64(1_000_000_000)
)

// FloatToUnits converts a display amount to the token's smallest unit given
// its decimals count. The fractional part beyond the declared decimals is
// truncated, never rounded up.
func FloatToUnits(value float64, decimals int) *big.Int {
	bigval := new(big.Float)
	bigval.SetFloat64(value)

	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	bigval = bigval.Mul(bigval, new(big.Float).SetInt(unit))

	result := new(big.Int)
	bigval.Int(result)
	return result
}

// GweiToWei converts a gas price expressed in gwei to wei.
func GweiToWei(gwei int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(gwei), big.NewInt(OneGweiInWei))
}
