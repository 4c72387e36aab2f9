// Package identity provides a multi-tenant, multi-application identity core:
// managers for users, roles, tenants, and applications, a storage abstraction
// that any durable store can satisfy, signed/encrypted bearer-token issuance,
// and a claim-based sign-in service.
//
// Storage:
//   - DataStore is a query-by-example port (count, create, update-by-example,
//     delete-by-example, query-by-example). Entity stores translate identity
//     operations into port calls and enforce tenant/application scoping on
//     every read, write, and delete. Adapters live under memstore (in-memory,
//     test-friendly) and bunstore (SQL via Bun).
//
// Managers:
//   - Every mutating call runs Validate -> Stamp -> Normalize -> Persist.
//     Validators accumulate errors so a single failed save reports every
//     violation at once. Managers own the optional lookup-protection retry
//     loop that re-derives protected lookup keys across key-ring epochs.
//
// Tokens:
//   - TokenFabricator issues compact JWTs (HS256) or JWE-wrapped tokens with
//     the standard registered claims plus caller-supplied claims. Timestamps
//     come from an injected clock so issuance is testable.
package identity
