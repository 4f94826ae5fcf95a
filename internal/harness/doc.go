// Package harness runs rewrite scenarios: small YAML files that name a set
// of CUE specs, a tree declared in them and assertions about what the rules
// do to that tree.
//
// # Scenario Format
//
//	name: and_to_or
//	description: "And predicates become Or"
//	specs:
//	  - specs/shop.cue
//	tree: q1
//	rules: [andToOr]        # optional, default every rule in spec order
//	pass_limit: 12          # optional, default engine.DefaultPassLimit
//	context: fingerprint    # optional, fingerprint or identity
//	run_id: run-and-to-or   # optional, default "test-run-default"
//	assertions:
//	  - type: fired
//	    rule: andToOr
//	  - type: fire_count
//	    rule: andToOr
//	    count: 1
//	  - type: result
//	    expect: |
//	      Filter
//	        ...
//
// Spec paths are relative to the scenario file.
//
// # Assertion Types
//
//   - fired: the rule fired at least once
//   - not_fired: the rule never fired
//   - fire_order: the rules first fired in the given order
//   - fire_count: the rule fired exactly count times
//   - result: the formatted result tree equals expect
//   - stats: the named processor counters have the given values
//   - deterministic: a second run from freshly compiled specs reproduces
//     the stored firings
//
// # Deterministic Testing
//
// Each scenario runs against a fresh in-memory store with a fixed run id.
// Node ids are left out of snapshots, so traces are identical across runs
// and can be compared against golden files.
package harness
