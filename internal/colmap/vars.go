package colmap

import "github.com/roach88/plancore/internal/ir"

// ReferencedVars returns the vars read by VarRef leaves of m, in walk order
// and without duplicates.
func ReferencedVars(m ColumnMap) ir.VarList {
	var vars ir.VarList
	seen := make(ir.VarSet)
	Inspect(m, func(c ColumnMap) bool {
		if r, ok := c.(*VarRefColumnMap); ok && !seen.Contains(r.Var) {
			seen.Add(r.Var)
			vars = append(vars, r.Var)
		}
		return true
	})
	return vars
}
