package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvNetwork         = "VAULT_NETWORK"
	EnvNodeURL         = "VAULT_NODE_URL"
	EnvPepperURL       = "VAULT_PEPPER_URL"
	EnvProverURL       = "VAULT_PROVER_URL"
	EnvOAuthClientID   = "VAULT_OAUTH_CLIENT_ID"
	EnvOAuthAuthURL    = "VAULT_OAUTH_AUTH_URL"
	EnvOrigin          = "VAULT_ORIGIN"
	EnvContractAddress = "VAULT_CONTRACT_ADDRESS"
	EnvDatabasePath    = "VAULT_DB"
	EnvConfirmTimeout  = "VAULT_CONFIRM_TIMEOUT"
	EnvEphemeralTTL    = "VAULT_EPHEMERAL_TTL"
	EnvLogLevel        = "VAULT_LOG_LEVEL"
)

// parseEnv overlays cfg with VAULT_* values. Values from a dotenv file are
// used only where the process environment has none. A missing default
// ".env" is not an error; a missing file named with -e is.
func parseEnv(cfg *Config) {
	fileValues := map[string]string{}

	path := flagx.EnvFilePath()
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if values, err := godotenv.Read(path); err == nil {
		fileValues = values
	} else if explicit {
		panic(err)
	}

	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		return fileValues[key]
	}

	setString(&cfg.Network, lookup(EnvNetwork))
	setString(&cfg.NodeURL, lookup(EnvNodeURL))
	setString(&cfg.PepperURL, lookup(EnvPepperURL))
	setString(&cfg.ProverURL, lookup(EnvProverURL))
	setString(&cfg.OAuthClientID, lookup(EnvOAuthClientID))
	setString(&cfg.OAuthAuthURL, lookup(EnvOAuthAuthURL))
	setString(&cfg.Origin, lookup(EnvOrigin))
	setString(&cfg.ContractAddress, lookup(EnvContractAddress))
	setString(&cfg.DatabasePath, lookup(EnvDatabasePath))
	setString(&cfg.LogLevel, lookup(EnvLogLevel))
	setDuration(&cfg.ConfirmTimeout, lookup(EnvConfirmTimeout))
	setDuration(&cfg.EphemeralTTL, lookup(EnvEphemeralTTL))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// setDuration ignores values that do not parse, keeping the earlier layer.
func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
