// Package query defines the abstract query accepted by Repository.Fetch and
// validates it.
//
// A raw query is an object with the keys where, orderBy, limit, startAt and
// startAfter. Validation runs two passes. The structural pass checks shapes,
// operators and value types, and builds the typed Query. The conflict pass
// rejects operator combinations the backend cannot execute as one scan:
// range conditions on more than one field, a range field that does not lead
// orderBy, and oversized or repeated in conditions. Each pass collects every
// error it finds; the conflict pass only runs once the structural pass is
// clean.
package query
