package compiler

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/plancore/internal/colmap"
	"github.com/roach88/plancore/internal/ir"
)

// Validation codes (E120-E129).
const (
	ErrRuleNeverMatches  = "E120" // rule op type appears in no tree
	ErrVarMapCycle       = "E121" // var map chain loops back on itself
	ErrColumnMapNotCopy  = "E122" // column map holds a kind Copy rejects
	ErrColumnMapDangling = "E123" // column map reads a var no tree defines
	ErrTreeUndefinedVar  = "E124" // VarRef to a var its tree never defines
)

// ValidationError is a problem found in a program that compiled.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled program for problems that compile cleanly but
// make trees, rules or column maps useless. All problems are returned; the
// order is deterministic.
func Validate(p *Program) []ValidationError {
	var errs []ValidationError
	defined := make(ir.VarSet)
	present := make(map[ir.OpType]bool)

	for _, name := range slices.Sorted(maps.Keys(p.Trees)) {
		tree := p.Trees[name]
		treeDefs := treeDefinitions(tree)
		defined = defined.Union(treeDefs)
		tree.Walk(func(n *ir.Node) bool {
			present[n.Op().OpType()] = true
			if r, ok := n.Op().(*ir.VarRefOp); ok && !treeDefs.Contains(r.Var) && r.Var.Kind() == ir.VarColumn {
				errs = append(errs, ValidationError{
					Field:   "tree." + name,
					Message: fmt.Sprintf("VarRef(%s) reads %q, which no scan in the tree produces", r.Var, r.Var.Name()),
					Code:    ErrTreeUndefinedVar,
				})
			}
			return true
		})
	}

	for _, r := range p.RuleSpecs {
		if len(p.Trees) > 0 && !present[r.Match] {
			errs = append(errs, ValidationError{
				Field:   "rule." + r.Name,
				Message: fmt.Sprintf("matches %s, which appears in no tree", r.Match),
				Code:    ErrRuleNeverMatches,
			})
		}
	}

	for _, name := range slices.Sorted(maps.Keys(p.VarMaps)) {
		vm := p.VarMaps[name]
		for _, k := range vm.Keys() {
			if looping(vm, k) {
				errs = append(errs, ValidationError{
					Field:   "varmap." + name,
					Message: fmt.Sprintf("chain from %q loops back on itself", k.Name()),
					Code:    ErrVarMapCycle,
				})
				break
			}
		}
	}

	for _, name := range slices.Sorted(maps.Keys(p.ColumnMaps)) {
		m := p.ColumnMaps[name]
		if !Copyable(m) {
			errs = append(errs, ValidationError{
				Field:   "columnmap." + name,
				Message: "contains a MultipleDiscriminatorPolymorphic map, which cannot be copied",
				Code:    ErrColumnMapNotCopy,
			})
		}
		for _, v := range colmap.ReferencedVars(m) {
			if len(p.Trees) > 0 && v.Kind() == ir.VarColumn && !defined.Contains(v) {
				errs = append(errs, ValidationError{
					Field:   "columnmap." + name,
					Message: fmt.Sprintf("reads %q, which no tree defines", v.Name()),
					Code:    ErrColumnMapDangling,
				})
			}
		}
	}
	return errs
}

// Copyable reports whether colmap.Copy accepts m.
func Copyable(m colmap.ColumnMap) bool {
	ok := true
	colmap.Inspect(m, func(c colmap.ColumnMap) bool {
		if _, multi := c.(*colmap.MultipleDiscriminatorPolymorphicColumnMap); multi {
			ok = false
		}
		return ok
	})
	return ok
}

// treeDefinitions returns the vars a tree brings into scope.
func treeDefinitions(root *ir.Node) ir.VarSet {
	defs := make(ir.VarSet)
	root.Walk(func(n *ir.Node) bool {
		switch op := n.Op().(type) {
		case *ir.ScanTableOp:
			for _, v := range op.Columns {
				defs.Add(v)
			}
		case *ir.VarDefOp:
			defs.Add(op.Var)
		case *ir.UnnestOp:
			defs.Add(op.Output)
		case *ir.SetOp:
			for _, v := range op.Outputs {
				defs.Add(v)
			}
		case *ir.GroupByOp:
			for _, v := range op.Outputs {
				defs.Add(v)
			}
		}
		return true
	})
	return defs
}

// looping reports whether following vm from v revisits a var other than
// by a self-mapping.
func looping(vm *ir.VarMap, v *ir.Var) bool {
	seen := ir.NewVarSet(v)
	cur := v
	for {
		next, ok := vm.Lookup(cur)
		if !ok || next == cur {
			return false
		}
		if seen.Contains(next) {
			return true
		}
		seen.Add(next)
		cur = next
	}
}
