// Package storage persists pipeline output in SQLite.
//
// SQLiteStore holds the most recent canonical table (replaced wholesale on
// every save) and an append-only history of runs. It uses the pure-Go
// modernc.org/sqlite driver, so no cgo toolchain is needed.
package storage
