// Package ingest feeds state transitions into repositories in block order
// and rolls them back when their block is orphaned.
//
// The Applier is the single writer for the repositories it drives: blocks
// must be applied one at a time, in strictly increasing height, and a
// rollback must finish before the next block is applied.
//
// With a sync store the Applier persists the last applied block after each
// block and each revert of the last block, and Resume picks it up again.
package ingest
