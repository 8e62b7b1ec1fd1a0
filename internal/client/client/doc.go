// Package client talks to the outside world on behalf of the vault client.
//
// # Overview
//
// The package provides:
//  1. Chain, the read/write contract of a chain node: view calls, account
//     sequence numbers, transaction submission and lookup, and a health
//     probe. NodeClient implements it over the node's REST/JSON API.
//  2. KeylessClient, the pepper and prover services a keyless account needs.
//     NodeClient implements it as well when pepper and prover URLs are set.
//  3. WaitForTransaction, a bounded confirmation wait built on failsafe-go.
//  4. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying the embedded goose migrations.
//
// # Error Handling
//
// Non-2xx node responses surface as *APIError, whose text is what
// common.Classify inspects. Transport failures and 5xx map to
// ErrUnavailable; missing resources to ErrNotFound.
package client
