package footprint

import "math"

// AwardTokens maps an actual footprint and its benchmark to a token count.
// Users at or above the benchmark get nothing. Below it they get the base
// reward plus one token per 10 kg saved, truncated toward zero. The count
// saturates at math.MaxInt for absurdly large benchmarks.
func AwardTokens(actualCO2, expectedCO2 float64) int {
	if actualCO2 >= expectedCO2 {
		return 0
	}
	saved := expectedCO2 - actualCO2
	bonus := math.Floor(saved * BonusTokensPerKg)
	// float-to-int conversion of an out-of-range value is undefined; saturate instead
	if bonus >= float64(math.MaxInt-BaseTokenReward) {
		return math.MaxInt
	}
	return BaseTokenReward + int(bonus)
}

// RoundKg rounds a kg value to two decimal places.
func RoundKg(value float64) float64 {
	return math.Round(value*100) / 100
}
