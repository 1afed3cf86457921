// Package repositories implements SQLite persistence for the playback history.
//
// [PlayRepository] implements [models.Repository] for [models.Play] with atomic sequence generation.
// The [NextSequence] function increments per-table counters stored in dedicated sequence tables,
// so entries keep their insertion order even when two plays share a timestamp.
package repositories
