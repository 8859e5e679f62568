// Package repositories implements SQLite persistence for clients, contacts and counters.
//
// Key Implementations:
//   - [ClientRepository] : client rows plus the client side of the link (client_contacts)
//   - [ContactRepository] : contact rows plus the contact side of the link (contact_clients)
//   - [CounterRepository] : named sequences; [CounterRepository.FetchAndIncrement] is one upsert statement
//   - [Store] : bundles the three and implements [models.Transactor]
//
// The two link tables are written independently, each only when its owning record is persisted,
// so a failure between the two writes is observable as an asymmetric link.
//
// Driver errors are translated into the shared taxonomy: missing rows become [shared.ErrNotFound],
// unique constraint violations [shared.ErrConflict], deadline expiry [shared.ErrTimeout],
// and everything else [shared.ErrConnectivity].
package repositories
