// Package store keeps a SQLite history of the notices each session
// produced, so `edc history` can list what happened after the fact.
//
// Only advisory text is stored. Session state is rebuilt from the journal
// on every start and is never persisted here.
//
// # Tables
//
//   - sessions: one row per watch/replay run, keyed by a UUIDv7 id
//   - notices: append-only notice rows, ordered by an autoincrement id
//
// # Ordering
//
// Notices are read back in insertion order (ORDER BY id). Timestamps come
// from journal records and may repeat or run backwards across rotations,
// so they are never used for ordering.
//
// # Connection
//
// Pragmas travel in the connection string so every pooled connection gets
// them: WAL journal, synchronous=NORMAL, a 5 second busy timeout and
// foreign keys on. Schema upgrades are keyed on PRAGMA user_version.
package store
