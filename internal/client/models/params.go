package models

import "strings"

// Asset type tags understood by the vault.
const (
	AptosCoinType = "0x1::aptos_coin::AptosCoin"
	mockUSDC      = "mock_coins::USDC"
	mockUSDT      = "mock_coins::USDT"
)

// Asset is the coarse asset family of a type tag.
type Asset int

const (
	AssetUnknown Asset = iota
	AssetAPT
	AssetUSDC
	AssetUSDT
)

func (a Asset) String() string {
	switch a {
	case AssetAPT:
		return "APT"
	case AssetUSDC:
		return "USDC"
	case AssetUSDT:
		return "USDT"
	default:
		return "unknown"
	}
}

// AssetOf maps a type tag to its family. An empty tag means APT.
func AssetOf(assetType string) Asset {
	switch {
	case assetType == "" || assetType == AptosCoinType:
		return AssetAPT
	case strings.Contains(assetType, mockUSDC):
		return AssetUSDC
	case strings.Contains(assetType, mockUSDT):
		return AssetUSDT
	default:
		return AssetUnknown
	}
}

// IsStablecoin reports whether deposits of assetType go through deposit_usdc.
func IsStablecoin(assetType string) bool {
	a := AssetOf(assetType)
	return a == AssetUSDC || a == AssetUSDT
}

// DepositParams describes a deposit. Amount is in the asset's smallest unit.
type DepositParams struct {
	Amount       int64
	DurationSecs int64
	AssetType    string
}

// WithdrawParams describes a withdrawal. A nil Amount withdraws everything.
type WithdrawParams struct {
	Amount *uint64
}

// ValidDuration reports whether secs is one of the two lock durations.
func ValidDuration(secs int64) bool {
	return secs == DurationOneMonth || secs == DurationSixMonths
}
