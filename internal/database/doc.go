// Package database provides the SQLite render ledger.
//
// Every poster written to the cache gets one row recording the metadata
// snapshot it was drawn from, where it lives, and how long it took. The
// ledger is informational: the cache directory remains the source of truth
// for whether a poster exists, and a ledger failure never fails a render.
//
// The database uses WAL mode for concurrent reads while renders write.
package database
