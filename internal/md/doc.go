// Package md holds the metadata values embedded in plan trees: types, table
// descriptors, entity sets and relationship properties.
//
// Everything here is an immutable input supplied by the metadata layer. The
// rewrite core never derives metadata; it only compares and carries it.
// md imports nothing internal.
package md
