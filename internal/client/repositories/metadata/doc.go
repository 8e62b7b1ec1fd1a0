// Package metadata is the client's key-value persistence boundary.
//
// The session layer keeps exactly two keys here (the pending ephemeral key
// pair and the session record) and never touches the database directly, so
// tests can swap the SQLite store for the in-memory one.
//
// Key Types
//
//   - type Repository        - Get/Set/Delete/List/Clear
//   - type Store             - Repository plus atomic multi-key write and delete
//   - type SQLiteRepository  - SQLite implementation over dbx.DBTX
//   - type SQLiteStore       - SQLiteRepository bound to *sql.DB with transactions
//   - type MemoryStore       - map-backed Store for tests and ephemeral runs
//
// Get returns (nil, nil) for an absent key in every implementation.
package metadata
