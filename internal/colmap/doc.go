// Package colmap describes how the flat columns of a query result assemble
// into typed values.
//
// A ColumnMap is an immutable tree. Leaves read a single column (by command
// and ordinal, or through an ir.Var); composite kinds build records, complex
// values, entities, refs, collections and polymorphic values out of their
// children. The set of kinds is closed: Visitor and Transformer have one
// method per kind, so adding a kind breaks every implementation until it is
// handled.
//
// Copy clones a ColumnMap while substituting vars through an ir.VarMap.
package colmap
