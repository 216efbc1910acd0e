// Package core provides the business logic for the commerce CRM: validation,
// order pricing, transactional mutations, queries, and CSV import.
//
// The package is independent of any transport. HTTP handlers, CLI tools, and
// tests all drive the same [Service], which talks to persistence only through
// the store interfaces.
//
// # Mutations
//
// Every mutation acquires a transaction from the injected store and commits
// or rolls back on every exit path. Single-entity operations are
// all-or-nothing. [Service.BulkCreateCustomers] runs one transaction for the
// whole batch: each input is validated against the transaction's view (so
// earlier inserts in the same batch count for uniqueness), failures are
// collected as [domain.BatchError] records, and one final commit applies all
// successful inserts together.
//
// # Validation
//
// Validators are pure functions returning typed *domain.Error values.
// Callers branch on the error kind, never on message text. Uniqueness is not
// checked by the pure validators; it is read through the transaction so the
// check observes a consistent view.
//
// # CSV Import
//
// [Service.ImportCustomersCSV] parses a CSV document (UTF-8 sanitized,
// header detected within the first rows, blank lines skipped) and feeds the
// rows through the bulk mutation, mapping each batch error back to its CSV
// line number. Concurrent imports are bounded by [ImportLimiter]; when all
// slots stay occupied past the wait timeout the call fails with
// [ErrTooManyImports].
//
// # Error Messages
//
// Technical errors are mapped to user-facing messages with support codes by
// [MapError]. Typed domain errors keep their own message and get a
// kind-derived code; infrastructure errors match a pattern table.
package core
