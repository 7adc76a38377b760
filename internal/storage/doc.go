// Package storage persists the firing journal: one record per scheduler
// event the host chooses to keep (task ran, retired, removed, panicked).
//
// Two drivers are available:
//   - file: JSON Lines, append-only, compacted to the retention bound
//   - sqlite: a single table in an SQLite database (modernc.org/sqlite)
package storage
