// Package cli provides the interactive keyless vault command-line client.
//
// It wires configuration, the local session store, the chain client, the
// session manager, the vault service and the loopback callback listener
// behind a small REPL. Typical flow: restore the saved session, start the
// callback listener and a background connectivity watcher, then execute
// user commands.
//
// Key features:
//   - Login through the identity provider (the browser returns to the
//     callback listener) and Logout
//   - Deposit / Withdraw / Harvest with an approval prompt before signing
//   - Stake, balances, strategy catalog and yield quotes
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
