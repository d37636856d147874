// Package harness runs conformance scenarios against the document store.
//
// A scenario is a YAML file holding a sequence of blocks in the ingest
// format followed by a list of steps. Blocks are applied through an
// ingest.Applier, then each step exercises one repository operation and
// checks its outcome:
//
//	name: element_match
//	description: elementMatch selects documents by array element
//	type: niceDocument
//	blocks:
//	  - height: 1
//	    hash: block-1
//	    transitions: [...]
//	steps:
//	  - op: fetch
//	    query:
//	      where: [["arrayWithObjects", "elementMatch", [["item", "==", 2]]]]
//	    expect:
//	      ids: [doc-2]
//
// Supported operations are fetch, find, origin and rollback. Every step is
// recorded in the result trace, which RunWithGolden compares against a
// golden file. Scenarios are backend independent: the same trace must come
// out of every storage engine.
package harness
