// Package harness runs reconciler scenarios and compares their traces
// against golden files.
//
// A scenario is a YAML file describing a sequence of render steps against
// one in-memory host container:
//
//	name: trailing_placement
//	description: A trailing child is a single Placement
//	steps:
//	  - render: {type: div, props: {id: A1}, children: [...]}
//	  - render: {type: div, props: {id: A1}, children: [..., {type: div, props: {id: B3}}]}
//	    expect:
//	      effects: [Update div#C1, ..., Placement div#B3, Update div#A1]
//	      counts: {Placement: 1, Deletion: 0}
//
// Each step renders its tree and drives the engine until the pass commits,
// aborts or (with slices) is left in flight for the next step to abandon.
// units bounds the work per slice to exercise yielding; fail arms a
// one-shot host failure.
//
// Every pass is written to an in-memory SQLite store and read back before
// assertions run, so results reflect what the commit log holds.
//
// Golden files live in testdata/golden/{scenario.Name}.golden. To
// regenerate them, run:
//
//	go test ./internal/harness -update
package harness
