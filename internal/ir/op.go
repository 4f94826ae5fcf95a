package ir

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/roach88/plancore/internal/md"
)

// Op describes what kind of computation a node represents. Ops are
// immutable once built.
//
// This is a sealed interface; only types in this package implement it. The
// OpType fixes the category and the arity. Variants may carry immutable
// payload (a result type, a constant, the Var a VarDef defines, ...).
type Op interface {
	OpType() OpType
	Arity() int
	IsScalarOp() bool
	IsRelOp() bool
	IsAncillaryOp() bool
	IsPhysicalOp() bool
	IsRulePatternOp() bool

	// IsEquivalent reports whether other describes the same computation.
	// The default is identity; scalar ops compare structurally.
	IsEquivalent(other Op) bool

	String() string

	op()
}

// ScalarTyped is implemented by ops that carry a result type.
type ScalarTyped interface {
	ResultType() *md.Type
}

type opBase struct {
	typ OpType
}

func (b opBase) OpType() OpType { return b.typ }
func (b opBase) Arity() int { return b.typ.Arity() }
func (b opBase) IsScalarOp() bool { return b.typ.IsScalarOp() }
func (b opBase) IsRelOp() bool { return b.typ.IsRelOp() }
func (b opBase) IsAncillaryOp() bool { return b.typ.IsAncillaryOp() }
func (b opBase) IsPhysicalOp() bool { return b.typ.IsPhysicalOp() }
func (b opBase) IsRulePatternOp() bool { return b.typ.IsRulePatternOp() }
func (b opBase) op() {}
func (b opBase) String() string { return b.typ.String() }
func (b opBase) sameType(other Op) bool { return other != nil && other.OpType() == b.typ }
func (b opBase) checkCategory(c Category) {
	if !b.typ.valid() || b.typ.Category() != c {
		panic(errors.AssertionFailedf("op type %s is not a %s op", b.typ, c))
	}
}

func newBase(t OpType, c Category) opBase {
	b := opBase{typ: t}
	b.checkCategory(c)
	return b
}

// scalarBase is the common part of every scalar op.
type scalarBase struct {
	opBase
	resultType *md.Type
}

// ResultType returns the type of the value the op computes.
func (s scalarBase) ResultType() *md.Type { return s.resultType }

func (s scalarBase) equivalentBase(other Op) bool {
	if !s.sameType(other) {
		return false
	}
	t, ok := other.(ScalarTyped)
	return ok && s.resultType.Equal(t.ResultType())
}

// ScalarOp is a payload-free scalar operator: comparisons, arithmetic,
// boolean connectives, casts, constructors and the like.
type ScalarOp struct {
	scalarBase
}

// NewScalarOp returns a scalar op of type t producing resultType.
func NewScalarOp(t OpType, resultType *md.Type) *ScalarOp {
	return &ScalarOp{scalarBase{newBase(t, CategoryScalar), resultType}}
}

// IsEquivalent compares OpType and result type.
func (o *ScalarOp) IsEquivalent(other Op) bool {
	if _, ok := other.(*ScalarOp); !ok {
		return false
	}
	return o.equivalentBase(other)
}

// ConstantOp is a constant value: Constant, InternalConstant, NullConstant,
// NullSentinel or ConstantPredicate.
type ConstantOp struct {
	scalarBase
	Value Value
}

// NewConstantOp returns a constant op of type t.
func NewConstantOp(t OpType, resultType *md.Type, v Value) *ConstantOp {
	switch t {
	case OpConstant, OpInternalConstant, OpNullConstant, OpNullSentinel, OpConstantPredicate:
	default:
		panic(errors.AssertionFailedf("op type %s is not a constant op", t))
	}
	if t == OpConstantPredicate {
		if _, ok := v.(Bool); !ok {
			panic(errors.AssertionFailedf("constant predicate requires a boolean value, got %v", v))
		}
	}
	return &ConstantOp{scalarBase: scalarBase{opBase{t}, resultType}, Value: v}
}

// IsTrue reports whether o is the constant predicate true.
func (o *ConstantOp) IsTrue() bool {
	return o.typ == OpConstantPredicate && o.Value == Bool(true)
}

// IsFalse reports whether o is the constant predicate false.
func (o *ConstantOp) IsFalse() bool {
	return o.typ == OpConstantPredicate && o.Value == Bool(false)
}

// IsEquivalent compares OpType, result type and value.
func (o *ConstantOp) IsEquivalent(other Op) bool {
	c, ok := other.(*ConstantOp)
	return ok && o.equivalentBase(other) && ValuesEqual(o.Value, c.Value)
}

func (o *ConstantOp) String() string {
	return fmt.Sprintf("%s(%v)", o.typ, o.Value)
}

// VarRefOp reads the value of a Var.
type VarRefOp struct {
	scalarBase
	Var *Var
}

// NewVarRefOp returns a reference to v typed as v's type.
func NewVarRefOp(v *Var) *VarRefOp {
	return &VarRefOp{scalarBase: scalarBase{opBase{OpVarRef}, v.Type()}, Var: v}
}

// IsEquivalent reports whether other refers to the same Var.
func (o *VarRefOp) IsEquivalent(other Op) bool {
	r, ok := other.(*VarRefOp)
	return ok && o.equivalentBase(other) && r.Var == o.Var
}

func (o *VarRefOp) String() string {
	return fmt.Sprintf("VarRef(%s)", o.Var)
}

// PropertyOp reads a named property of its single child.
type PropertyOp struct {
	scalarBase
	Property string
}

// NewPropertyOp returns a property accessor.
func NewPropertyOp(resultType *md.Type, property string) *PropertyOp {
	return &PropertyOp{scalarBase: scalarBase{opBase{OpProperty}, resultType}, Property: property}
}

// IsEquivalent compares result type and property name.
func (o *PropertyOp) IsEquivalent(other Op) bool {
	p, ok := other.(*PropertyOp)
	return ok && o.equivalentBase(other) && p.Property == o.Property
}

func (o *PropertyOp) String() string {
	return fmt.Sprintf("Property(%s)", o.Property)
}

// RelPropertyOp navigates a relationship from its single child.
type RelPropertyOp struct {
	scalarBase
	Prop md.RelProperty
}

// NewRelPropertyOp returns a relationship navigation.
func NewRelPropertyOp(resultType *md.Type, prop md.RelProperty) *RelPropertyOp {
	return &RelPropertyOp{scalarBase: scalarBase{opBase{OpRelProperty}, resultType}, Prop: prop}
}

// IsEquivalent compares result type and the relationship property.
func (o *RelPropertyOp) IsEquivalent(other Op) bool {
	p, ok := other.(*RelPropertyOp)
	return ok && o.equivalentBase(other) && p.Prop.Equal(o.Prop)
}

func (o *RelPropertyOp) String() string {
	return fmt.Sprintf("RelProperty(%s)", o.Prop)
}

// FunctionOp calls a named function or aggregate.
type FunctionOp struct {
	scalarBase
	Name string
}

// NewFunctionOp returns a call of kind OpFunction or OpAggregate.
func NewFunctionOp(t OpType, resultType *md.Type, name string) *FunctionOp {
	if t != OpFunction && t != OpAggregate {
		panic(errors.AssertionFailedf("op type %s is not a function op", t))
	}
	return &FunctionOp{scalarBase: scalarBase{opBase{t}, resultType}, Name: name}
}

// IsEquivalent compares OpType, result type and function name.
func (o *FunctionOp) IsEquivalent(other Op) bool {
	f, ok := other.(*FunctionOp)
	return ok && o.equivalentBase(other) && f.Name == o.Name
}

func (o *FunctionOp) String() string {
	return fmt.Sprintf("%s(%s)", o.typ, o.Name)
}

// identityBase is embedded by ops whose equivalence is identity: relational,
// ancillary and physical ops.
type identityBase struct {
	opBase
}

// RelOp is a payload-free relational operator such as Filter, the joins
// and applies, SingleRow and SingleRowTable.
type RelOp struct {
	identityBase
}

// NewRelOp returns a relational op of type t.
func NewRelOp(t OpType) *RelOp {
	return &RelOp{identityBase{newBase(t, CategoryRelational)}}
}

// IsEquivalent reports identity.
func (o *RelOp) IsEquivalent(other Op) bool { return Op(o) == other }

// ScanTableOp produces the rows of a table; each column is exposed as a Var.
type ScanTableOp struct {
	identityBase
	Table   *md.Table
	Columns VarList
}

// NewScanTableOp returns a scan of table exposing columns, one Var per
// table column in ordinal order.
func NewScanTableOp(table *md.Table, columns VarList) *ScanTableOp {
	if len(columns) != len(table.Columns) {
		panic(errors.AssertionFailedf("scan of %s: %d vars for %d columns", table.Name, len(columns), len(table.Columns)))
	}
	return &ScanTableOp{identityBase: identityBase{opBase{OpScanTable}}, Table: table, Columns: columns}
}

// IsEquivalent reports identity.
func (o *ScanTableOp) IsEquivalent(other Op) bool { return Op(o) == other }

func (o *ScanTableOp) String() string {
	return fmt.Sprintf("ScanTable(%s)%s", o.Table.Name, o.Columns)
}

// ProjectOp computes Outputs from its input and its VarDefList.
type ProjectOp struct {
	identityBase
	Outputs VarList
}

// NewProjectOp returns a projection producing outputs.
func NewProjectOp(outputs VarList) *ProjectOp {
	return &ProjectOp{identityBase: identityBase{opBase{OpProject}}, Outputs: outputs}
}

// IsEquivalent reports identity.
func (o *ProjectOp) IsEquivalent(other Op) bool { return Op(o) == other }

func (o *ProjectOp) String() string {
	return fmt.Sprintf("Project%s", o.Outputs)
}

// SortKey orders rows by one Var.
type SortKey struct {
	Var       *Var
	Ascending bool
}

func (k SortKey) String() string {
	if k.Ascending {
		return "+" + k.Var.String()
	}
	return "-" + k.Var.String()
}

// SortOp orders its input: Sort or ConstrainedSort.
type SortOp struct {
	identityBase
	Keys []SortKey
}

// NewSortOp returns a sort of type t on keys.
func NewSortOp(t OpType, keys ...SortKey) *SortOp {
	if t != OpSort && t != OpConstrainedSort {
		panic(errors.AssertionFailedf("op type %s is not a sort op", t))
	}
	return &SortOp{identityBase: identityBase{opBase{t}}, Keys: keys}
}

// IsEquivalent reports identity.
func (o *SortOp) IsEquivalent(other Op) bool { return Op(o) == other }

func (o *SortOp) String() string {
	return fmt.Sprintf("%s%v", o.typ, o.Keys)
}

// GroupByOp groups its input by Keys and computes Outputs.
type GroupByOp struct {
	identityBase
	Keys    VarList
	Outputs VarList
}

// NewGroupByOp returns a GroupBy or GroupByInto.
func NewGroupByOp(t OpType, keys, outputs VarList) *GroupByOp {
	if t != OpGroupBy && t != OpGroupByInto {
		panic(errors.AssertionFailedf("op type %s is not a group-by op", t))
	}
	return &GroupByOp{identityBase: identityBase{opBase{t}}, Keys: keys, Outputs: outputs}
}

// IsEquivalent reports identity.
func (o *GroupByOp) IsEquivalent(other Op) bool { return Op(o) == other }

func (o *GroupByOp) String() string {
	return fmt.Sprintf("%s(keys=%s)%s", o.typ, o.Keys, o.Outputs)
}

// DistinctOp removes duplicate rows with respect to Keys.
type DistinctOp struct {
	identityBase
	Keys VarList
}

// NewDistinctOp returns a Distinct on keys.
func NewDistinctOp(keys VarList) *DistinctOp {
	return &DistinctOp{identityBase: identityBase{opBase{OpDistinct}}, Keys: keys}
}

// IsEquivalent reports identity.
func (o *DistinctOp) IsEquivalent(other Op) bool { return Op(o) == other }

func (o *DistinctOp) String() string {
	return fmt.Sprintf("Distinct%s", o.Keys)
}

// SetOp is UnionAll, Intersect or Except. Outputs are the set-op vars;
// VarMaps[i] maps each output to the corresponding var of input i.
type SetOp struct {
	identityBase
	Outputs VarList
	VarMaps [2]*VarMap
}

// NewSetOp returns a set operation.
func NewSetOp(t OpType, outputs VarList, left, right *VarMap) *SetOp {
	switch t {
	case OpUnionAll, OpIntersect, OpExcept:
	default:
		panic(errors.AssertionFailedf("op type %s is not a set op", t))
	}
	return &SetOp{identityBase: identityBase{opBase{t}}, Outputs: outputs, VarMaps: [2]*VarMap{left, right}}
}

// IsEquivalent reports identity.
func (o *SetOp) IsEquivalent(other Op) bool { return Op(o) == other }

func (o *SetOp) String() string {
	return fmt.Sprintf("%s%s", o.typ, o.Outputs)
}

// UnnestOp turns the collection held in Input into rows, one Var per row.
type UnnestOp struct {
	identityBase
	Input  *Var
	Output *Var
}

// NewUnnestOp returns an Unnest of input producing output.
func NewUnnestOp(input, output *Var) *UnnestOp {
	return &UnnestOp{identityBase: identityBase{opBase{OpUnnest}}, Input: input, Output: output}
}

// IsEquivalent reports identity.
func (o *UnnestOp) IsEquivalent(other Op) bool { return Op(o) == other }

func (o *UnnestOp) String() string {
	return fmt.Sprintf("Unnest(%s->%s)", o.Input, o.Output)
}

// VarDefOp defines Var as the value of its single scalar child.
type VarDefOp struct {
	identityBase
	Var *Var
}

// NewVarDefOp returns a definition of v.
func NewVarDefOp(v *Var) *VarDefOp {
	return &VarDefOp{identityBase: identityBase{opBase{OpVarDef}}, Var: v}
}

// IsEquivalent reports identity.
func (o *VarDefOp) IsEquivalent(other Op) bool { return Op(o) == other }

func (o *VarDefOp) String() string {
	return fmt.Sprintf("VarDef(%s)", o.Var)
}

// VarDefListOp groups VarDef children.
type VarDefListOp struct {
	identityBase
}

// NewVarDefListOp returns a VarDefList.
func NewVarDefListOp() *VarDefListOp {
	return &VarDefListOp{identityBase{opBase{OpVarDefList}}}
}

// IsEquivalent reports identity.
func (o *VarDefListOp) IsEquivalent(other Op) bool { return Op(o) == other }

// PhysicalOp is PhysicalProject, SingleStreamNest or MultiStreamNest.
type PhysicalOp struct {
	identityBase
	Outputs VarList
}

// NewPhysicalOp returns a physical op of type t producing outputs.
func NewPhysicalOp(t OpType, outputs VarList) *PhysicalOp {
	return &PhysicalOp{identityBase: identityBase{newBase(t, CategoryPhysical)}, Outputs: outputs}
}

// IsEquivalent reports identity.
func (o *PhysicalOp) IsEquivalent(other Op) bool { return Op(o) == other }

func (o *PhysicalOp) String() string {
	return fmt.Sprintf("%s%s", o.typ, o.Outputs)
}

// PatternOp stands for "any op of this OpType" inside a rule pattern. The
// Leaf pattern op matches any subtree at all.
type PatternOp struct {
	opBase
}

// IsEquivalent reports identity.
func (o *PatternOp) IsEquivalent(other Op) bool { return Op(o) == other }

var patternOps = func() (ops [NumOpTypes]*PatternOp) {
	for t := OpType(1); t < NumOpTypes; t++ {
		ops[t] = &PatternOp{opBase{t}}
	}
	return ops
}()

// Pattern returns the shared pattern op for t. Pattern ops are never placed
// in query trees, only in rule patterns.
func Pattern(t OpType) *PatternOp {
	if !t.valid() {
		panic(errors.AssertionFailedf("no pattern op for %s", t))
	}
	return patternOps[t]
}

// Leaf is the wildcard pattern op.
var Leaf = Pattern(OpLeaf)
