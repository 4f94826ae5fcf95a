package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/plancore/internal/ir"
	"github.com/roach88/plancore/internal/md"
)

// payloadFree reports whether ops of type t carry nothing but their type
// (and, for scalars, a result type). Only these can be retagged by a
// declarative rule.
func payloadFree(t ir.OpType) bool {
	switch t {
	case ir.OpFilter, ir.OpInnerJoin, ir.OpLeftOuterJoin, ir.OpFullOuterJoin,
		ir.OpCrossJoin, ir.OpCrossApply, ir.OpOuterApply,
		ir.OpSingleRow, ir.OpSingleRowTable:
		return true
	case ir.OpConstant, ir.OpInternalConstant, ir.OpNullConstant, ir.OpNullSentinel,
		ir.OpConstantPredicate, ir.OpVarRef, ir.OpProperty, ir.OpRelProperty,
		ir.OpFunction, ir.OpAggregate:
		return false
	}
	return t.IsScalarOp()
}

// compileTree compiles a named tree:
//
//	tree: q1: {
//		op: "Filter"
//		children: [
//			{op: "ScanTable", table: "orders"},
//			{op: "ConstantPredicate", value: true},
//		]
//	}
func (p *Program) compileTree(name string, v cue.Value) error {
	field := "tree." + name
	if _, dup := p.Trees[name]; dup {
		return errorf(ErrCodeDuplicateName, v, field, "tree %q already declared", name)
	}
	n, err := p.compileNode(v, field)
	if err != nil {
		return err
	}
	p.Trees[name] = n
	return nil
}

func (p *Program) compileNode(v cue.Value, field string) (*ir.Node, error) {
	opName, err := requireString(v, "op", field)
	if err != nil {
		return nil, err
	}
	t, ok := ir.ParseOpType(opName)
	if !ok {
		return nil, errorf(ErrCodeUnknownOp, v, field+".op", "unknown op %q", opName)
	}
	if t.IsRulePatternOp() {
		return nil, errorf(ErrCodeUnsupportedOp, v, field+".op", "%s is only valid in rule patterns", t)
	}

	childVals, err := list(v, "children", field)
	if err != nil {
		return nil, err
	}
	if !t.ArityAccepts(len(childVals)) {
		return nil, errorf(ErrCodeArity, v, field+".children", "%s requires %d children, got %d", t, t.Arity(), len(childVals))
	}
	children := make([]*ir.Node, len(childVals))
	for i, cv := range childVals {
		c, err := p.compileNode(cv, fmt.Sprintf("%s.children[%d]", field, i))
		if err != nil {
			return nil, err
		}
		children[i] = c
	}

	op, err := p.compileOp(t, v, field)
	if err != nil {
		return nil, err
	}
	return ir.NewNode(op, children...), nil
}

// compileOp builds the op of one tree node from the node's payload fields.
func (p *Program) compileOp(t ir.OpType, v cue.Value, field string) (ir.Op, error) {
	switch t {
	case ir.OpScanTable:
		tname, err := requireString(v, "table", field)
		if err != nil {
			return nil, err
		}
		table, ok := p.Tables[tname]
		if !ok {
			return nil, errorf(ErrCodeUnknownName, v, field+".table", "unknown table %q", tname)
		}
		cols, err := p.scanColumns(table, v, field)
		if err != nil {
			return nil, err
		}
		return ir.NewScanTableOp(table, cols), nil

	case ir.OpConstantPredicate:
		cv, ok := lookup(v, "value")
		if !ok {
			return nil, errorf(ErrCodeMissingField, v, field, "value is required")
		}
		b, err := cv.Bool()
		if err != nil {
			return nil, formatCUEError(err, field+".value")
		}
		return ir.NewConstantOp(t, md.Boolean, ir.Bool(b)), nil

	case ir.OpConstant, ir.OpInternalConstant, ir.OpNullConstant, ir.OpNullSentinel:
		typ, err := p.typeField(v, "type", field)
		if err != nil {
			return nil, err
		}
		var val ir.Value = ir.Null{}
		if cv, ok := lookup(v, "value"); ok {
			if val, err = constant(cv, field+".value"); err != nil {
				return nil, err
			}
		}
		return ir.NewConstantOp(t, typ, val), nil

	case ir.OpVarRef:
		name, err := requireString(v, "var", field)
		if err != nil {
			return nil, err
		}
		vr, err := p.varRef(name, v, field+".var")
		if err != nil {
			return nil, err
		}
		return ir.NewVarRefOp(vr), nil

	case ir.OpProperty:
		typ, err := p.typeField(v, "type", field)
		if err != nil {
			return nil, err
		}
		prop, err := requireString(v, "property", field)
		if err != nil {
			return nil, err
		}
		return ir.NewPropertyOp(typ, prop), nil

	case ir.OpFunction, ir.OpAggregate:
		typ, err := p.typeField(v, "type", field)
		if err != nil {
			return nil, err
		}
		fn, err := requireString(v, "function", field)
		if err != nil {
			return nil, err
		}
		return ir.NewFunctionOp(t, typ, fn), nil

	case ir.OpProject:
		outputs, err := p.varList(v, "outputs", field)
		if err != nil {
			return nil, err
		}
		return ir.NewProjectOp(outputs), nil

	case ir.OpSort, ir.OpConstrainedSort:
		keyVals, err := list(v, "keys", field)
		if err != nil {
			return nil, err
		}
		keys := make([]ir.SortKey, 0, len(keyVals))
		for _, kv := range keyVals {
			name, err := requireString(kv, "var", field+".keys")
			if err != nil {
				return nil, err
			}
			vr, err := p.varRef(name, kv, field+".keys")
			if err != nil {
				return nil, err
			}
			asc, err := optionalBool(kv, "ascending", field+".keys", true)
			if err != nil {
				return nil, err
			}
			keys = append(keys, ir.SortKey{Var: vr, Ascending: asc})
		}
		return ir.NewSortOp(t, keys...), nil

	case ir.OpGroupBy, ir.OpGroupByInto:
		keys, err := p.varList(v, "keys", field)
		if err != nil {
			return nil, err
		}
		outputs, err := p.varList(v, "outputs", field)
		if err != nil {
			return nil, err
		}
		return ir.NewGroupByOp(t, keys, outputs), nil

	case ir.OpDistinct:
		keys, err := p.varList(v, "keys", field)
		if err != nil {
			return nil, err
		}
		return ir.NewDistinctOp(keys), nil

	case ir.OpUnionAll, ir.OpIntersect, ir.OpExcept:
		outputs, err := p.varList(v, "outputs", field)
		if err != nil {
			return nil, err
		}
		left, err := p.inlineVarMap(v, "left", field)
		if err != nil {
			return nil, err
		}
		right, err := p.inlineVarMap(v, "right", field)
		if err != nil {
			return nil, err
		}
		return ir.NewSetOp(t, outputs, left, right), nil

	case ir.OpUnnest:
		in, err := requireString(v, "input", field)
		if err != nil {
			return nil, err
		}
		out, err := requireString(v, "output", field)
		if err != nil {
			return nil, err
		}
		iv, err := p.varRef(in, v, field+".input")
		if err != nil {
			return nil, err
		}
		ov, err := p.varRef(out, v, field+".output")
		if err != nil {
			return nil, err
		}
		return ir.NewUnnestOp(iv, ov), nil

	case ir.OpVarDef:
		name, err := requireString(v, "var", field)
		if err != nil {
			return nil, err
		}
		vr, err := p.varRef(name, v, field+".var")
		if err != nil {
			return nil, err
		}
		return ir.NewVarDefOp(vr), nil

	case ir.OpVarDefList:
		return ir.NewVarDefListOp(), nil

	case ir.OpPhysicalProject, ir.OpSingleStreamNest, ir.OpMultiStreamNest:
		outputs, err := p.varList(v, "outputs", field)
		if err != nil {
			return nil, err
		}
		return ir.NewPhysicalOp(t, outputs), nil
	}

	if !payloadFree(t) {
		return nil, errorf(ErrCodeUnsupportedOp, v, field+".op", "%s cannot be written in a tree spec", t)
	}
	if t.IsRelOp() {
		return ir.NewRelOp(t), nil
	}
	typ := md.Boolean
	if _, ok := lookup(v, "type"); ok {
		var err error
		if typ, err = p.typeField(v, "type", field); err != nil {
			return nil, err
		}
	}
	return ir.NewScalarOp(t, typ), nil
}
