// Package services implements client and contact operations on top of the repositories.
//
// # Clients
//
// [ClientService.Create] trims and checks the name, asks the code generator for the next client code and
// persists the client. A counter failure aborts creation before any client row is written.
// [ClientService.Save] flips isSaved once; later saves return the client unchanged.
//
// # Contacts
//
// [ContactService.Create] validates name, surname and email before persisting.
//
// # Reverse Lookups
//
// [ClientService.Contacts] and [ContactService.Clients] resolve a record's own reference set into full
// records. IDs that no longer resolve are logged and skipped.
//
// # API Client
//
// [APIService] issues raw GET, POST and PUT requests against a running server for the CLI's api commands.
// Transport failures wrap [shared.ErrAPIRequest]; non-2xx responses are returned, not treated as errors.
package services
