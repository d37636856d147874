// Package document holds the state-view document model: documents, the
// block/state-transition references that produced them, and SVDocument, a
// document identity together with its ordered revision history.
//
// Every mutation of an SVDocument is an appended Revision. Deletion is a
// revision too: an SVDocument whose current revision is a delete is
// soft-deleted and absent from queries, while its history remains available
// for audit and reorg rollback. State is always derived from the current
// revision and never stored on its own.
package document
