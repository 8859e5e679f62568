// Package models defines domain entities and persistence interfaces for the client/contact manager.
//
// Persistent entities:
//   - [Client] : business entity with a generated client code and a set of linked contact IDs
//   - [Contact] : person record with a validated email and a set of linked client IDs
//   - [Counter] : named monotonic sequence backing client codes
//
// The link between clients and contacts is stored redundantly, once on each side.
// The attach/detach methods on [Client] and [Contact] exist for the link coordinator (internal/tasks) and nothing else,
// which keeps the two reference sets from diverging.
//
// The [Repository] interface defines standard data access for entities, [CounterStore] the sequence operations,
// and [Transactor] groups client and contact writes into one transaction when the store supports it.
package models
