// Package session implements keyless login and the session lifecycle.
//
// Login is a two-phase protocol driven by Manager:
//
//	NoSession --BeginLogin--> PendingLogin --HandleCallback--> Authenticated
//	    ^                                                          |
//	    +-------------------------- Logout ------------------------+
//
// BeginLogin generates an ephemeral key pair, persists it and hands the
// identity-provider URL to a Navigator. HandleCallback restores that same
// key pair, checks the identity token's nonce against it, derives the
// account address and saves the session. Persisted state lives under two
// keys of a metadata.Store and is always removed as a unit.
package session
