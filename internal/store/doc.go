// Package store declares the persistence contracts for stored readings and
// journal entries, together with the error vocabulary and transaction helper
// shared by every implementation.
//
// Services depend only on ReadingStore and JournalStore. The postgres
// package supplies the production implementations; tests use the fn-field
// mocks in internal/mocks. A store is bound to a DBTX, so the same
// implementation runs against the pool or inside a transaction opened by
// RunInTransaction via WithTx.
package store
