package ir

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/plancore/internal/md"
)

// VarKind says where a Var's value comes from.
type VarKind int8

const (
	// VarColumn is a column produced by a table scan.
	VarColumn VarKind = iota
	// VarComputed is defined by a VarDef.
	VarComputed
	// VarParameter is a query parameter.
	VarParameter
	// VarSetOp is an output of a set operation.
	VarSetOp
)

func (k VarKind) String() string {
	switch k {
	case VarColumn:
		return "column"
	case VarComputed:
		return "computed"
	case VarParameter:
		return "parameter"
	case VarSetOp:
		return "setop"
	default:
		return fmt.Sprintf("VarKind(%d)", int(k))
	}
}

// Var is a handle for a computed or bound value slot. Vars are compared by
// identity: two Vars with the same name and type are still different Vars.
// Vars are minted by a Factory, which keeps ids unique within a tree.
type Var struct {
	id   int
	kind VarKind
	name string
	typ  *md.Type
}

// ID returns the factory-assigned id.
func (v *Var) ID() int { return v.id }

// Kind returns where the var's value comes from.
func (v *Var) Kind() VarKind { return v.kind }

// Name returns the diagnostic name, which may be empty.
func (v *Var) Name() string { return v.name }

// Type returns the var's type.
func (v *Var) Type() *md.Type { return v.typ }

func (v *Var) String() string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("v%d", v.id)
}

// VarList is an ordered list of vars.
type VarList []*Var

func (l VarList) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Contains reports whether v is in the list.
func (l VarList) Contains(v *Var) bool {
	return slices.Contains(l, v)
}

// VarSet is an unordered set of vars. The zero value is an empty set ready
// to use for reads; use Add to populate it.
type VarSet map[*Var]struct{}

// NewVarSet returns a set holding vars.
func NewVarSet(vars ...*Var) VarSet {
	s := make(VarSet, len(vars))
	for _, v := range vars {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v.
func (s VarSet) Add(v *Var) { s[v] = struct{}{} }

// Contains reports whether v is in the set.
func (s VarSet) Contains(v *Var) bool {
	_, ok := s[v]
	return ok
}

// Union returns a new set with the members of s and o.
func (s VarSet) Union(o VarSet) VarSet {
	r := make(VarSet, len(s)+len(o))
	for v := range s {
		r[v] = struct{}{}
	}
	for v := range o {
		r[v] = struct{}{}
	}
	return r
}

// Minus returns a new set with the members of s not in o.
func (s VarSet) Minus(o VarSet) VarSet {
	r := make(VarSet, len(s))
	for v := range s {
		if !o.Contains(v) {
			r[v] = struct{}{}
		}
	}
	return r
}

// Intersect returns a new set with the members of s that are also in o.
func (s VarSet) Intersect(o VarSet) VarSet {
	r := make(VarSet)
	for v := range s {
		if o.Contains(v) {
			r[v] = struct{}{}
		}
	}
	return r
}

// SubsetOf reports whether every member of s is in o.
func (s VarSet) SubsetOf(o VarSet) bool {
	for v := range s {
		if !o.Contains(v) {
			return false
		}
	}
	return true
}

// Sorted returns the members ordered by id.
func (s VarSet) Sorted() VarList {
	l := make(VarList, 0, len(s))
	for v := range s {
		l = append(l, v)
	}
	slices.SortFunc(l, func(a, b *Var) int { return a.id - b.id })
	return l
}

func (s VarSet) String() string {
	return s.Sorted().String()
}

// VarMap is an ordered mapping from Var to Var that expresses "replace this
// var with that one". Keys are unique; re-adding a key replaces its target
// but keeps its original position.
type VarMap struct {
	keys VarList
	m    map[*Var]*Var
}

// NewVarMap returns an empty map.
func NewVarMap() *VarMap {
	return &VarMap{m: make(map[*Var]*Var)}
}

// Add maps from to to.
func (vm *VarMap) Add(from, to *Var) {
	if vm.m == nil {
		vm.m = make(map[*Var]*Var)
	}
	if _, ok := vm.m[from]; !ok {
		vm.keys = append(vm.keys, from)
	}
	vm.m[from] = to
}

// Lookup returns the direct replacement for v.
func (vm *VarMap) Lookup(v *Var) (*Var, bool) {
	if vm == nil {
		return nil, false
	}
	to, ok := vm.m[v]
	return to, ok
}

// Len returns the number of entries.
func (vm *VarMap) Len() int {
	if vm == nil {
		return 0
	}
	return len(vm.keys)
}

// Keys returns the keys in insertion order.
func (vm *VarMap) Keys() VarList {
	if vm == nil {
		return nil
	}
	return slices.Clone(vm.keys)
}

// Resolve follows the replacement chain starting at v and returns the var at
// the end of it. The walk stops when a lookup misses or when a var maps to
// itself. A longer cycle (v1->v2->v1) stops at the last var before the walk
// would revisit one.
func (vm *VarMap) Resolve(v *Var) *Var {
	cur := v
	var seen VarSet
	for {
		next, ok := vm.Lookup(cur)
		if !ok || next == cur {
			return cur
		}
		if seen == nil {
			seen = NewVarSet(cur)
		}
		if seen.Contains(next) {
			return cur
		}
		seen.Add(next)
		cur = next
	}
}

func (vm *VarMap) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, k := range vm.Keys() {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "%s->%s", k, vm.m[k])
	}
	b.WriteString("}")
	return b.String()
}
