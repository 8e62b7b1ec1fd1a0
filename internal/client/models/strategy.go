package models

// YieldStrategy is one entry of the strategy catalog shown to the user.
type YieldStrategy struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	APY            float64 `json:"apy"`
	TVL            string  `json:"tvl"`
	Volume24h      string  `json:"volume_24h"`
	Stable         bool    `json:"stable"`
	Version        string  `json:"version"`
	PoolAddress    string  `json:"pool_address"`
	StrategyObject string  `json:"strategy_object"`
}

// DefaultStrategies returns the static catalog bound to the vault at
// poolAddress.
func DefaultStrategies(poolAddress string) []YieldStrategy {
	return []YieldStrategy{
		{
			ID: "apt-strategy-1", Name: "APT Yield Strategy", Symbol: "APT",
			APY: 8.50, TVL: "$1,000,000", Volume24h: "$25,000.00",
			Stable: false, Version: "1.0", PoolAddress: poolAddress, StrategyObject: "0x1",
		},
		{
			ID: "usdc-strategy-1", Name: "USDC Yield Strategy", Symbol: "USDC",
			APY: 12.45, TVL: "$4,763,266", Volume24h: "$67,496.43",
			Stable: true, Version: "0.5", PoolAddress: poolAddress, StrategyObject: "0x1",
		},
		{
			ID: "usdt-strategy-1", Name: "USDT Yield Strategy", Symbol: "USDT",
			APY: 11.89, TVL: "$334,274", Volume24h: "$2,006.12",
			Stable: true, Version: "0.5", PoolAddress: poolAddress, StrategyObject: "0x1",
		},
	}
}
