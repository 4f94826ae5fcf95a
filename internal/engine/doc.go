// Package engine implements the plancore rule processor.
//
// The processor rewrites an ir.Node tree bottom-up until no rule fires.
// Rules are grouped in a RuleTable by the OpType they trigger on; for each
// node the rules registered for its OpType are tried in registration order
// and the first one that reports a change wins the pass.
//
// ARCHITECTURE:
//
// Bottom-up fixpoint:
// Each subtree is processed in passes. A pass first processes every child in
// place, then tries the node's own rules. If a rule changed the node the
// subtree is processed again from the top, re-hashing and re-descending,
// until a pass changes nothing.
//
// Cycle detection:
// Every pass is keyed by a SubTreeID (context hash of the root, parent, child
// index). A run-scoped processed set memoizes finished subtrees across the
// whole tree; a call-scoped set catches a subtree that rewrites back into a
// state it already had at the same position. Two rules that undo each other
// therefore terminate instead of oscillating.
//
// Pass limit:
// The number of passes per subtree is capped (DefaultPassLimit). Hitting the
// cap is an anomaly: it is logged and counted, and in strict mode it panics
// with an assertion failure.
//
// CRITICAL PATTERNS:
//
// Contract violations (a rule that reports "unchanged" but returns another
// node, a rewrite that breaks arity) panic with cockroachdb/errors assertion
// failures. They are defects in rule code, never runtime conditions.
//
// The processor is single-threaded and synchronous. The Context passed to
// ApplyRulesToSubtree is the only caller-owned state it touches.
package engine
