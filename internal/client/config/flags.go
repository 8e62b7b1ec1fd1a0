package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/keylessvault/internal/flagx"
)

// parseFlags populates Config fields from command-line flags. Only the flags
// listed here are considered (see flagx.FilterArgs). It panics on malformed
// values.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-n", "-u", "-o", "-a", "-v", "-d", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Network, "n", cfg.Network, "network: devnet, testnet, mainnet or local")
	fs.StringVar(&cfg.NodeURL, "u", cfg.NodeURL, "fullnode REST URL")
	fs.StringVar(&cfg.OAuthClientID, "o", cfg.OAuthClientID, "OAuth client id")
	fs.StringVar(&cfg.Origin, "a", cfg.Origin, "origin of the local callback listener")
	fs.StringVar(&cfg.ContractAddress, "v", cfg.ContractAddress, "vault contract address")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local session database")
	confirmTimeout := fs.Int("t", int(cfg.ConfirmTimeout.Seconds()), "confirmation timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.ConfirmTimeout = time.Duration(*confirmTimeout) * time.Second
}
