// Package config loads runtime configuration for the vault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: a dotenv file (".env", or the one given with -e/-env) and
//     then the process environment, VAULT_* variables.
//  3. Optional JSON file selected with -c or -config.
//  4. Command-line flags, which override everything else.
//
// Node, pepper and prover URLs that are still empty afterwards are derived
// from the network name.
//
// Supported flags
//
//	-n string   network (devnet, testnet, mainnet, local)
//	-u string   fullnode REST URL
//	-o string   OAuth client id
//	-a string   origin of the local callback listener
//	-v string   vault contract address
//	-d string   path of the local session database
//	-t int      confirmation timeout (seconds)
//	-l string   log level
//
// # JSON schema
//
// Durations use timex.Duration, so values may be strings like "30s" or
// integer nanoseconds:
//
//	{
//	  "network": "devnet",
//	  "oauth_client_id": "123.apps.googleusercontent.com",
//	  "contract_address": "0x4b60...",
//	  "confirm_timeout": "30s",
//	  "ephemeral_ttl": "24h"
//	}
package config
