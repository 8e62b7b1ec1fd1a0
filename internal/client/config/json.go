package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/keylessvault/internal/flagx"
	"github.com/dmitrijs2005/keylessvault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	Network         string         `json:"network"`
	NodeURL         string         `json:"node_url"`
	PepperURL       string         `json:"pepper_url"`
	ProverURL       string         `json:"prover_url"`
	OAuthClientID   string         `json:"oauth_client_id"`
	OAuthAuthURL    string         `json:"oauth_auth_url"`
	Origin          string         `json:"origin"`
	ContractAddress string         `json:"contract_address"`
	DatabasePath    string         `json:"database_path"`
	ConfirmTimeout  timex.Duration `json:"confirm_timeout"`
	EphemeralTTL    timex.Duration `json:"ephemeral_ttl"`
	LogLevel        string         `json:"log_level"`
}

// parseJson overlays cfg with the fields present in the JSON file named by
// -c/-config. Absent fields keep their earlier value. It panics on read or
// unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFilePath()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.Network, jc.Network)
	setString(&cfg.NodeURL, jc.NodeURL)
	setString(&cfg.PepperURL, jc.PepperURL)
	setString(&cfg.ProverURL, jc.ProverURL)
	setString(&cfg.OAuthClientID, jc.OAuthClientID)
	setString(&cfg.OAuthAuthURL, jc.OAuthAuthURL)
	setString(&cfg.Origin, jc.Origin)
	setString(&cfg.ContractAddress, jc.ContractAddress)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.ConfirmTimeout.Duration > 0 {
		cfg.ConfirmTimeout = jc.ConfirmTimeout.Duration
	}
	if jc.EphemeralTTL.Duration > 0 {
		cfg.EphemeralTTL = jc.EphemeralTTL.Duration
	}
}
