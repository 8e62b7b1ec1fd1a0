package config

import (
	"fmt"
	"strings"
	"time"
)

// Network names understood by NetworkEndpoints.
const (
	NetworkDevnet  = "devnet"
	NetworkTestnet = "testnet"
	NetworkMainnet = "mainnet"
	NetworkLocal   = "local"
)

// Config holds runtime settings for the vault CLI.
//
// Units: ConfirmTimeout and EphemeralTTL are time.Duration values.
type Config struct {
	Network         string
	NodeURL         string
	PepperURL       string
	ProverURL       string
	OAuthClientID   string
	OAuthAuthURL    string
	Origin          string
	ContractAddress string
	DatabasePath    string
	ConfirmTimeout  time.Duration
	EphemeralTTL    time.Duration
	LogLevel        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Network = NetworkDevnet
	c.OAuthAuthURL = "https://accounts.google.com/o/oauth2/v2/auth"
	c.Origin = "http://127.0.0.1:5173"
	c.DatabasePath = "session.db"
	c.ConfirmTimeout = 30 * time.Second
	c.EphemeralTTL = 24 * time.Hour
	c.LogLevel = "info"
}

// LoadConfig constructs a Config from defaults, then environment (including
// an optional dotenv file), then JSON, then command-line flags. Later sources
// take precedence. Endpoints left empty are derived from the network.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	cfg.applyNetworkDefaults()
	return cfg
}

// NetworkEndpoints returns the node, pepper and prover base URLs for a
// known network.
func NetworkEndpoints(network string) (node, pepper, prover string, err error) {
	switch strings.ToLower(network) {
	case NetworkDevnet, NetworkTestnet, NetworkMainnet:
		base := fmt.Sprintf("https://api.%s.aptoslabs.com", strings.ToLower(network))
		return base + "/v1", base + "/keyless/pepper/v0", base + "/keyless/prover/v0", nil
	case NetworkLocal:
		return "http://127.0.0.1:8080/v1", "http://127.0.0.1:8000/v0", "http://127.0.0.1:8083/v0", nil
	default:
		return "", "", "", fmt.Errorf("unknown network %q", network)
	}
}

func (c *Config) applyNetworkDefaults() {
	node, pepper, prover, err := NetworkEndpoints(c.Network)
	if err != nil {
		return
	}
	if c.NodeURL == "" {
		c.NodeURL = node
	}
	if c.PepperURL == "" {
		c.PepperURL = pepper
	}
	if c.ProverURL == "" {
		c.ProverURL = prover
	}
}

// CallbackURL is the redirect target registered with the identity provider.
func (c *Config) CallbackURL() string {
	return strings.TrimRight(c.Origin, "/") + CallbackPath
}

// CallbackPath is the fixed route the identity provider redirects to.
const CallbackPath = "/auth/callback"

// Validate reports settings that make login or vault calls impossible.
func (c *Config) Validate() error {
	var missing []string
	if c.NodeURL == "" {
		missing = append(missing, "node url")
	}
	if c.OAuthClientID == "" {
		missing = append(missing, "oauth client id")
	}
	if c.ContractAddress == "" {
		missing = append(missing, "contract address")
	}
	if c.ConfirmTimeout <= 0 {
		missing = append(missing, "positive confirm timeout")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing %s", strings.Join(missing, ", "))
	}
	return nil
}
