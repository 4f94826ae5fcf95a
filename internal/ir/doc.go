// Package ir provides the operator tree that every plan rewrite operates on.
//
// A tree is built from Nodes. Each Node holds exactly one Op and owns an
// ordered list of child Nodes. Ops are immutable and describe what kind of
// computation a node represents; Nodes are mutated in place only by rule
// rewrites and child reassignment.
//
// Key design constraints:
//   - OpType fixes both the arity and the category of an Op
//   - Arity is checked whenever a node is built or its children are replaced
//   - Vars are compared by identity, never by name or type
//   - NodeInfo is a memoisation only; it never takes part in equivalence
//
// ir imports only internal/md. All other internal packages import ir.
package ir
