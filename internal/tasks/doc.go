// Package tasks keeps both sides of a client/contact link consistent.
//
// # Link Coordination
//
// A link is stored twice: once in the client's contact set and once in the contact's client set.
// [LinkCoordinator.Link] and [LinkCoordinator.Unlink] load both records, update both sets and persist
// the client before the contact, whichever side of the API initiated the call.
//
//  1. A missing client or contact fails with [shared.ErrNotFound] before anything is written.
//  2. A failed client write fails the call with nothing committed.
//  3. A failed contact write returns a [PartialLinkError]; the client side stays committed.
//
// Both records are written on every call, so retrying a partial link or unlink repairs it.
//
// # Transactional Mode
//
// Given a [models.Transactor], the coordinator runs the two writes in one transaction and a failed
// contact write rolls back the client write as well.
//
// # Audit and Repair
//
// [LinkCoordinator.Audit] reports every pair present on one side only. [LinkCoordinator.Repair] fixes
// them with the client side as the source of truth, matching the client-first write order.
// Both report progress through non-blocking [ProgressUpdate] channels.
package tasks
