// Package testdb provides utilities for database integration tests.
//
// Tests skip unless a database URL is configured, and each test runs in a
// transaction that is rolled back when it completes, so tests can share a
// database without cleaning up after themselves:
//
//	func TestReadingStore(t *testing.T) {
//	    db := testdb.Open(t, migrateUp)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        readings := postgres.NewPostgresReadingStore(tx, logger)
//	        // ...
//	    })
//	}
//
// # Environment Variables
//
//   - DATABASE_URL: URL of the test database
//   - TAROT_DATABASE_URL: used when DATABASE_URL is unset
package testdb
