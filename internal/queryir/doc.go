// Package queryir is the backend-agnostic query plan that sits between a
// validated query and a storage engine.
//
// ARCHITECTURE:
//
//	[query.Query] -> Translator -> [Plan] -> querysql.Compiler -> [SQLite]
//	                                      -> Apply              -> [KV backends]
//
// A Plan is a conjunction of typed predicates plus a composite sort and a
// skip/take window. The Translator always conjoins TypeIs and NotDeleted
// with the caller's conditions, so no backend can return documents of
// another type or soft-deleted documents.
//
// SEALED INTERFACES:
//
// Predicate is sealed with a marker method. Backends switch exhaustively
// over the predicate types declared here.
//
// FIELD RESOLUTION:
//
// Data fields resolve with ir.Resolve: dotted segments step into objects,
// numeric segments index arrays, and intermediate arrays fan out over their
// elements. A predicate holds when it holds for any resolved value. $id and
// $userId are columns, not data paths.
//
// ORDERING:
//
// Sort keys use ir.SortCompare on the single value at the path (no fan-out).
// Every plan ends with an implicit id ascending tiebreak, so results are
// totally ordered and skip/take windows are stable.
//
// Apply is the in-process execution of a Plan. querysql compiles the same
// semantics to SQL; the two are kept in agreement by shared tests.
package queryir
