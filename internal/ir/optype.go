package ir

import "fmt"

// OpType is the closed enumeration of operator kinds.
type OpType int16

const (
	OpUnknown OpType = iota

	// Scalar operators.
	OpConstant
	OpInternalConstant
	OpNullConstant
	OpNullSentinel
	OpConstantPredicate
	OpVarRef
	OpGT
	OpGE
	OpLE
	OpLT
	OpEQ
	OpNE
	OpLike
	OpPlus
	OpMinus
	OpMultiply
	OpDivide
	OpModulo
	OpUnaryMinus
	OpAnd
	OpOr
	OpNot
	OpIsNull
	OpCast
	OpSoftCast
	OpTreat
	OpIsOf
	OpCase
	OpFunction
	OpAggregate
	OpNewInstance
	OpNewEntity
	OpDiscriminatedNewEntity
	OpNewMultiset
	OpNewRecord
	OpRef
	OpDeref
	OpGetEntityRef
	OpGetRefKey
	OpProperty
	OpRelProperty
	OpNavigate
	OpCollect
	OpElement
	OpExists

	// Relational operators.
	OpScanTable
	OpScanView
	OpUnnest
	OpFilter
	OpProject
	OpInnerJoin
	OpLeftOuterJoin
	OpFullOuterJoin
	OpCrossJoin
	OpCrossApply
	OpOuterApply
	OpSort
	OpConstrainedSort
	OpGroupBy
	OpGroupByInto
	OpUnionAll
	OpIntersect
	OpExcept
	OpDistinct
	OpSingleRow
	OpSingleRowTable

	// Ancillary operators.
	OpVarDef
	OpVarDefList

	// Physical operators.
	OpPhysicalProject
	OpSingleStreamNest
	OpMultiStreamNest

	// Rule pattern operators.
	OpLeaf

	// NumOpTypes is the number of operator kinds, including OpUnknown.
	NumOpTypes
)

// ArityVariable is the arity of ops that accept any number of children.
const ArityVariable = -1

// Category is the abstract class an OpType belongs to.
type Category int8

const (
	CategoryUnknown Category = iota
	CategoryScalar
	CategoryRelational
	CategoryAncillary
	CategoryPhysical
	CategoryRulePattern
)

func (c Category) String() string {
	switch c {
	case CategoryScalar:
		return "scalar"
	case CategoryRelational:
		return "relational"
	case CategoryAncillary:
		return "ancillary"
	case CategoryPhysical:
		return "physical"
	case CategoryRulePattern:
		return "pattern"
	default:
		return "unknown"
	}
}

type opTypeInfo struct {
	name     string
	category Category
	arity    int
}

var opTypeTab = [NumOpTypes]opTypeInfo{
	OpUnknown: {"Unknown", CategoryUnknown, 0},

	OpConstant:               {"Constant", CategoryScalar, 0},
	OpInternalConstant:       {"InternalConstant", CategoryScalar, 0},
	OpNullConstant:           {"NullConstant", CategoryScalar, 0},
	OpNullSentinel:           {"NullSentinel", CategoryScalar, 0},
	OpConstantPredicate:      {"ConstantPredicate", CategoryScalar, 0},
	OpVarRef:                 {"VarRef", CategoryScalar, 0},
	OpGT:                     {"GT", CategoryScalar, 2},
	OpGE:                     {"GE", CategoryScalar, 2},
	OpLE:                     {"LE", CategoryScalar, 2},
	OpLT:                     {"LT", CategoryScalar, 2},
	OpEQ:                     {"EQ", CategoryScalar, 2},
	OpNE:                     {"NE", CategoryScalar, 2},
	OpLike:                   {"Like", CategoryScalar, 3},
	OpPlus:                   {"Plus", CategoryScalar, 2},
	OpMinus:                  {"Minus", CategoryScalar, 2},
	OpMultiply:               {"Multiply", CategoryScalar, 2},
	OpDivide:                 {"Divide", CategoryScalar, 2},
	OpModulo:                 {"Modulo", CategoryScalar, 2},
	OpUnaryMinus:             {"UnaryMinus", CategoryScalar, 1},
	OpAnd:                    {"And", CategoryScalar, 2},
	OpOr:                     {"Or", CategoryScalar, 2},
	OpNot:                    {"Not", CategoryScalar, 1},
	OpIsNull:                 {"IsNull", CategoryScalar, 1},
	OpCast:                   {"Cast", CategoryScalar, 1},
	OpSoftCast:               {"SoftCast", CategoryScalar, 1},
	OpTreat:                  {"Treat", CategoryScalar, 1},
	OpIsOf:                   {"IsOf", CategoryScalar, 1},
	OpCase:                   {"Case", CategoryScalar, ArityVariable},
	OpFunction:               {"Function", CategoryScalar, ArityVariable},
	OpAggregate:              {"Aggregate", CategoryScalar, ArityVariable},
	OpNewInstance:            {"NewInstance", CategoryScalar, ArityVariable},
	OpNewEntity:              {"NewEntity", CategoryScalar, ArityVariable},
	OpDiscriminatedNewEntity: {"DiscriminatedNewEntity", CategoryScalar, ArityVariable},
	OpNewMultiset:            {"NewMultiset", CategoryScalar, ArityVariable},
	OpNewRecord:              {"NewRecord", CategoryScalar, ArityVariable},
	OpRef:                    {"Ref", CategoryScalar, 1},
	OpDeref:                  {"Deref", CategoryScalar, 1},
	OpGetEntityRef:           {"GetEntityRef", CategoryScalar, 1},
	OpGetRefKey:              {"GetRefKey", CategoryScalar, 1},
	OpProperty:               {"Property", CategoryScalar, 1},
	OpRelProperty:            {"RelProperty", CategoryScalar, 1},
	OpNavigate:               {"Navigate", CategoryScalar, 1},
	OpCollect:                {"Collect", CategoryScalar, 1},
	OpElement:                {"Element", CategoryScalar, 1},
	OpExists:                 {"Exists", CategoryScalar, 1},

	OpScanTable:       {"ScanTable", CategoryRelational, 0},
	OpScanView:        {"ScanView", CategoryRelational, 1},
	OpUnnest:          {"Unnest", CategoryRelational, 1},
	OpFilter:          {"Filter", CategoryRelational, 2},
	OpProject:         {"Project", CategoryRelational, 2},
	OpInnerJoin:       {"InnerJoin", CategoryRelational, 3},
	OpLeftOuterJoin:   {"LeftOuterJoin", CategoryRelational, 3},
	OpFullOuterJoin:   {"FullOuterJoin", CategoryRelational, 3},
	OpCrossJoin:       {"CrossJoin", CategoryRelational, ArityVariable},
	OpCrossApply:      {"CrossApply", CategoryRelational, 2},
	OpOuterApply:      {"OuterApply", CategoryRelational, 2},
	OpSort:            {"Sort", CategoryRelational, 1},
	OpConstrainedSort: {"ConstrainedSort", CategoryRelational, 3},
	OpGroupBy:         {"GroupBy", CategoryRelational, 3},
	OpGroupByInto:     {"GroupByInto", CategoryRelational, 4},
	OpUnionAll:        {"UnionAll", CategoryRelational, 2},
	OpIntersect:       {"Intersect", CategoryRelational, 2},
	OpExcept:          {"Except", CategoryRelational, 2},
	OpDistinct:        {"Distinct", CategoryRelational, 1},
	OpSingleRow:       {"SingleRow", CategoryRelational, 1},
	OpSingleRowTable:  {"SingleRowTable", CategoryRelational, 0},

	OpVarDef:     {"VarDef", CategoryAncillary, 1},
	OpVarDefList: {"VarDefList", CategoryAncillary, ArityVariable},

	OpPhysicalProject:  {"PhysicalProject", CategoryPhysical, ArityVariable},
	OpSingleStreamNest: {"SingleStreamNest", CategoryPhysical, ArityVariable},
	OpMultiStreamNest:  {"MultiStreamNest", CategoryPhysical, ArityVariable},

	OpLeaf: {"Leaf", CategoryRulePattern, 0},
}

func (t OpType) valid() bool {
	return t > OpUnknown && t < NumOpTypes
}

func (t OpType) String() string {
	if t < 0 || t >= NumOpTypes {
		return fmt.Sprintf("OpType(%d)", int(t))
	}
	return opTypeTab[t].name
}

// Category returns the category t belongs to.
func (t OpType) Category() Category {
	if t < 0 || t >= NumOpTypes {
		return CategoryUnknown
	}
	return opTypeTab[t].category
}

// Arity returns the fixed number of children for t, or ArityVariable.
func (t OpType) Arity() int {
	if t < 0 || t >= NumOpTypes {
		return 0
	}
	return opTypeTab[t].arity
}

// IsScalarOp reports whether t is a scalar operator.
func (t OpType) IsScalarOp() bool { return t.Category() == CategoryScalar }

// IsRelOp reports whether t is a relational operator.
func (t OpType) IsRelOp() bool { return t.Category() == CategoryRelational }

// IsAncillaryOp reports whether t is an ancillary operator.
func (t OpType) IsAncillaryOp() bool { return t.Category() == CategoryAncillary }

// IsPhysicalOp reports whether t is a physical operator.
func (t OpType) IsPhysicalOp() bool { return t.Category() == CategoryPhysical }

// IsRulePatternOp reports whether t is a rule pattern operator.
func (t OpType) IsRulePatternOp() bool { return t.Category() == CategoryRulePattern }

// ParseOpType looks an OpType up by name. Names match String output.
func ParseOpType(name string) (OpType, bool) {
	for i := OpType(1); i < NumOpTypes; i++ {
		if opTypeTab[i].name == name {
			return i, true
		}
	}
	return OpUnknown, false
}

// ArityAccepts reports whether a node of type t may have n children.
func (t OpType) ArityAccepts(n int) bool {
	a := t.Arity()
	return a == ArityVariable || a == n
}
