package services

import (
	"math"
	"math/big"

	"github.com/dmitrijs2005/keylessvault/internal/client/models"
)

// apyTable holds the per-term yield, in percent, advertised for each asset.
var apyTable = map[models.Asset]map[int64]float64{
	models.AssetAPT:  {models.DurationOneMonth: 0.71, models.DurationSixMonths: 4.25},
	models.AssetUSDC: {models.DurationOneMonth: 1.04, models.DurationSixMonths: 6.23},
	models.AssetUSDT: {models.DurationOneMonth: 0.99, models.DurationSixMonths: 5.95},
}

// APYForDuration returns the percent earned over one lock term of
// durationSecs for assetType. Unknown durations or assets yield 0.
func APYForDuration(durationSecs int64, assetType string) float64 {
	return apyTable[models.AssetOf(assetType)][durationSecs]
}

// ExpectedYield is amount * APYForDuration / 100.
func ExpectedYield(amount float64, durationSecs int64, assetType string) float64 {
	return amount * APYForDuration(durationSecs, assetType) / 100
}

// TotalReturn is amount plus ExpectedYield.
func TotalReturn(amount float64, durationSecs int64, assetType string) float64 {
	return amount + ExpectedYield(amount, durationSecs, assetType)
}

// FormatDuration names a lock duration for display.
func FormatDuration(durationSecs int64) string {
	switch durationSecs {
	case models.DurationOneMonth:
		return "1 Month"
	case models.DurationSixMonths:
		return "6 Months"
	default:
		return "Unknown"
	}
}

func tierBps(durationSecs int64) int64 {
	switch durationSecs {
	case models.DurationOneMonth:
		return models.OneMonthBps
	case models.DurationSixMonths:
		return models.SixMonthsBps
	default:
		return 0
	}
}

// ContractAPY is the annual rate, in percent, of the contract tier for
// durationSecs.
func ContractAPY(durationSecs int64) float64 {
	return float64(tierBps(durationSecs)) / float64(models.BasisPointsDenominator) * 100
}

// ContractExpectedYield mirrors the contract's integer arithmetic:
// floor(amount * bps * duration / (secondsInYear * 10000)), saturated at
// math.MaxInt64.
func ContractExpectedYield(amount, durationSecs int64) int64 {
	bps := tierBps(durationSecs)
	if bps == 0 || amount <= 0 {
		return 0
	}
	num := new(big.Int).Mul(big.NewInt(amount), big.NewInt(bps))
	num.Mul(num, big.NewInt(durationSecs))
	den := big.NewInt(models.SecondsInYear * models.BasisPointsDenominator)
	num.Quo(num, den)
	if !num.IsInt64() {
		return math.MaxInt64
	}
	return num.Int64()
}

// ContractTotalReturn is amount plus ContractExpectedYield, saturated at
// math.MaxInt64.
func ContractTotalReturn(amount, durationSecs int64) int64 {
	y := ContractExpectedYield(amount, durationSecs)
	if y > 0 && amount > math.MaxInt64-y {
		return math.MaxInt64
	}
	return amount + y
}
