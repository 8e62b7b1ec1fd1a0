// Package services contains application services for the vault client.
//
// VaultService is the vault access layer: it validates deposit, withdraw
// and harvest requests, submits them through the account's signer, waits a
// bounded time for confirmation and keeps the stake cache current. The
// yield helpers in yield.go are pure functions over the two lock durations.
package services
