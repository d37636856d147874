// Package kvstore implements the document backend over ordered key-value
// engines: Badger, bbolt and an in-memory treemap.
//
// Every engine holds the same key spaces:
//
//	d/<type>\x00<id>                 -> JSON document.Record
//	o/<stHash>\x00<type>\x00<id>     -> empty (origin index)
//	s/state                          -> JSON document.SyncState
//
// Keys sort by bytes, so a prefix scan over d/<type>\x00 yields documents in
// id order. Queries run the plan in process with queryir.Apply, which gives
// the same results as the SQL backend.
package kvstore
