package ir

import "github.com/roach88/plancore/internal/md"

// Factory mints the Vars of one tree and offers shorthand for building
// common node shapes. Var ids start at 1 and are unique per Factory.
type Factory struct {
	nextVar int
	vars    []*Var
}

// NewFactory returns an empty factory.
func NewFactory() *Factory {
	return &Factory{}
}

// NewVar mints a new var.
func (f *Factory) NewVar(kind VarKind, name string, typ *md.Type) *Var {
	f.nextVar++
	v := &Var{id: f.nextVar, kind: kind, name: name, typ: typ}
	f.vars = append(f.vars, v)
	return v
}

// NewComputedVar mints a var for a VarDef.
func (f *Factory) NewComputedVar(name string, typ *md.Type) *Var {
	return f.NewVar(VarComputed, name, typ)
}

// Vars returns every var minted so far, in id order.
func (f *Factory) Vars() VarList {
	return append(VarList(nil), f.vars...)
}

// VarByName returns the first var minted with the given name.
func (f *Factory) VarByName(name string) (*Var, bool) {
	for _, v := range f.vars {
		if v.name == name {
			return v, true
		}
	}
	return nil, false
}

// ScanTable builds a scan of table, minting one column var per column.
func (f *Factory) ScanTable(table *md.Table) *Node {
	cols := make(VarList, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = f.NewVar(VarColumn, table.Name+"."+c.Name, c.Type)
	}
	return NewNode(NewScanTableOp(table, cols))
}

// VarRef builds a reference to v.
func (f *Factory) VarRef(v *Var) *Node {
	return NewNode(NewVarRefOp(v))
}

// Constant builds a constant of the given type.
func (f *Factory) Constant(typ *md.Type, v Value) *Node {
	return NewNode(NewConstantOp(OpConstant, typ, v))
}

// ConstantPredicate builds the constant predicate b.
func (f *Factory) ConstantPredicate(b bool) *Node {
	return NewNode(NewConstantOp(OpConstantPredicate, md.Boolean, Bool(b)))
}

// Scalar builds a payload-free scalar node.
func (f *Factory) Scalar(t OpType, typ *md.Type, children ...*Node) *Node {
	return NewNode(NewScalarOp(t, typ), children...)
}

// Filter builds Filter(input, predicate).
func (f *Factory) Filter(input, predicate *Node) *Node {
	return NewNode(NewRelOp(OpFilter), input, predicate)
}

// Project builds Project(input, VarDefList(defs...)) whose outputs are the
// given vars.
func (f *Factory) Project(input *Node, outputs VarList, defs ...*Node) *Node {
	return NewNode(NewProjectOp(outputs), input, NewNode(NewVarDefListOp(), defs...))
}

// VarDef builds a definition of a new computed var holding the value of
// expr. The new var is returned with the node.
func (f *Factory) VarDef(name string, expr *Node) (*Node, *Var) {
	typ := md.Boolean
	if t, ok := expr.Op().(ScalarTyped); ok && t.ResultType() != nil {
		typ = t.ResultType()
	}
	v := f.NewComputedVar(name, typ)
	return NewNode(NewVarDefOp(v), expr), v
}

// Join builds a binary join of type t with a predicate.
func (f *Factory) Join(t OpType, left, right, predicate *Node) *Node {
	return NewNode(NewRelOp(t), left, right, predicate)
}
