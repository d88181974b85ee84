// Package sqlite provides SQLite-backed implementations of driven ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It owns two kinds of database file:
//
//   - The structured store (TimelineStore): milestones, spans and status cards
//   - The local retrieval index file: chunks with their embedding vectors
//
// # Schema
//
// Each file kind has its own versioned migrations under migrations/.
// Each migration is a pair of .up.sql and .down.sql files.
//
// # Rebuilds
//
// Both files are rebuilt by writing a fresh database next to the live one and
// renaming it into place. Connections opened on the previous file keep reading
// it until they are closed. Rollback journaling is used instead of WAL so the
// rename never leaves a stale write-ahead log beside the new file.
package sqlite
