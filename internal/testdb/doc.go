//go:build integration

// Package testdb provides a migrated PostgreSQL database for integration
// tests.
//
// Open connects to PGR_TEST_DATABASE_URL when it is set; otherwise it starts
// a disposable postgres container. Either way the embedded migrations are
// applied before the handle is returned.
//
// WithTx runs a test body inside a transaction that is always rolled back,
// so tests sharing one database do not see each other's rows:
//
//	db := testdb.Open(t)
//	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//		audits := postgres.NewPostgresAuditStore(tx, nil)
//		...
//	})
package testdb
