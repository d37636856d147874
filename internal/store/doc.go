// Package store provides the SQLite backend of the document repository.
//
// Two tables hold each document type:
//   - documents: the projection of the current revision (data, owner,
//     deleted flag and the reference that produced it). Queries run here.
//   - revisions: the full ordered history, rebuilt into an SVDocument on read.
//
// A single row in sync_state records the last applied block.
//
// # Critical Patterns
//
// Deterministic results
//   - Every query ends with ORDER BY d.id COLLATE BINARY ASC
//   - Skip/take windows are therefore stable across calls and backends
//
// Atomic replacement
//   - Upsert writes the projection and the revision list in one transaction
//   - Reads load projection and revisions from one transaction snapshot
//
// Path matching
//   - Field conditions are compiled by internal/querysql to json_tree scans
//   - The driver registers sv_path_match and sv_key_match on every
//     connection so SQL path resolution is the same function the
//     in-process evaluator uses
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Revisions cascade with their document
//
// Document data is stored as canonical JSON (internal/ir) so that equal
// documents always have identical bytes.
package store
