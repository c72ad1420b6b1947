// Package database manages the SQLite connection for busboard.
//
// It opens the database with WAL mode and a busy timeout, restricts the
// connection pool to a single connection (SQLite's single-writer model,
// which also serialises device store mutations), and applies embedded
// schema migrations at startup.
package database
