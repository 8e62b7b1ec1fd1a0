// Package models defines the data exchanged between the session manager,
// the vault service, the chain client and the CLI: stakes, deposit and
// withdraw parameters, session records, identity claims, yield strategies
// and transaction payloads.
package models
