package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/plancore/internal/engine"
	"github.com/roach88/plancore/internal/ir"
	"github.com/roach88/plancore/internal/md"
)

// RewriteKind says what a declarative rule does to a matched node.
type RewriteKind int8

const (
	// RewriteRetag replaces the node with a node of another op type that
	// takes over its children.
	RewriteRetag RewriteKind = iota
	// RewriteHoist replaces the node with one of its children.
	RewriteHoist
)

func (k RewriteKind) String() string {
	if k == RewriteHoist {
		return "hoist"
	}
	return "retag"
}

// RuleSpec is the compiled form of a declarative rule, kept beside the
// engine rule for analysis.
type RuleSpec struct {
	Name    string
	Match   ir.OpType
	Pattern *ir.Node
	Kind    RewriteKind
	Target  ir.OpType // RewriteRetag
	Child   int       // RewriteHoist
}

// compileRule compiles a declarative rule and registers it in the
// program's rule table:
//
//	rule: dropTrueFilter: {
//		match: {op: "Filter", children: [{op: "Leaf"}, {op: "ConstantPredicate"}]}
//		rewrite: {child: 0}
//	}
//	rule: flipAnd: {
//		match: {op: "And"}
//		rewrite: {op: "Or"}
//	}
//
// A match without children matches every node of its op type. A match with
// children matches structurally, Leaf matching any subtree. Nested patterns
// of variable-arity ops must list their children.
func (p *Program) compileRule(name string, v cue.Value) error {
	field := "rule." + name
	for _, rs := range p.RuleSpecs {
		if rs.Name == name {
			return errorf(ErrCodeDuplicateName, v, field, "rule %q already declared", name)
		}
	}
	mv, ok := lookup(v, "match")
	if !ok {
		return errorf(ErrCodeMissingField, v, field, "match is required")
	}
	pattern, err := compilePattern(mv, field+".match", false)
	if err != nil {
		return err
	}
	spec := RuleSpec{Name: name, Match: pattern.Op().OpType()}
	if spec.Match == ir.OpLeaf {
		return errorf(ErrCodeBadField, mv, field+".match.op", "the root of a match cannot be Leaf")
	}
	if _, explicit := lookup(mv, "children"); explicit {
		spec.Pattern = pattern
	}

	rv, ok := lookup(v, "rewrite")
	if !ok {
		return errorf(ErrCodeMissingField, v, field, "rewrite is required")
	}
	if err := spec.compileRewrite(rv, field+".rewrite"); err != nil {
		return err
	}

	var rule *engine.Rule
	if spec.Pattern != nil {
		rule = engine.NewPatternRule(name, spec.Pattern, spec.rewriteFunc())
	} else {
		rule = engine.NewSimpleRule(name, spec.Match, spec.rewriteFunc())
	}
	p.Rules.Register(rule)
	p.RuleSpecs = append(p.RuleSpecs, spec)
	return nil
}

// compilePattern compiles a match block into a pattern tree. nested is false
// for the root of a match, whose children may be left out to match by op
// type alone.
func compilePattern(v cue.Value, field string, nested bool) (*ir.Node, error) {
	opName, err := requireString(v, "op", field)
	if err != nil {
		return nil, err
	}
	t, ok := ir.ParseOpType(opName)
	if !ok {
		return nil, errorf(ErrCodeUnknownOp, v, field+".op", "unknown op %q", opName)
	}
	childVals, err := list(v, "children", field)
	if err != nil {
		return nil, err
	}
	if _, explicit := lookup(v, "children"); nested && !explicit && t.Arity() == ir.ArityVariable {
		return nil, errorf(ErrCodeArity, v, field+".children", "%s takes any number of children; list them, or use Leaf to match any %s subtree", t, t)
	}
	if len(childVals) > 0 && !t.ArityAccepts(len(childVals)) {
		return nil, errorf(ErrCodeArity, v, field+".children", "%s requires %d children, got %d", t, t.Arity(), len(childVals))
	}
	children := make([]*ir.Node, len(childVals))
	for i, cv := range childVals {
		c, err := compilePattern(cv, fmt.Sprintf("%s.children[%d]", field, i), true)
		if err != nil {
			return nil, err
		}
		children[i] = c
	}
	if len(children) == 0 && t != ir.OpLeaf && t.Arity() > 0 {
		// A nested fixed-arity pattern without children stands for any node
		// of its type.
		children = make([]*ir.Node, t.Arity())
		for i := range children {
			children[i] = ir.NewLeafPattern()
		}
	}
	return ir.NewPatternNode(t, children...), nil
}

func (s *RuleSpec) compileRewrite(v cue.Value, field string) error {
	_, hasOp := lookup(v, "op")
	_, hasChild := lookup(v, "child")
	switch {
	case hasOp && hasChild:
		return errorf(ErrCodeBadRewrite, v, field, "op and child are mutually exclusive")
	case hasOp:
		opName, err := requireString(v, "op", field)
		if err != nil {
			return err
		}
		t, ok := ir.ParseOpType(opName)
		if !ok {
			return errorf(ErrCodeUnknownOp, v, field+".op", "unknown op %q", opName)
		}
		if t == s.Match {
			return errorf(ErrCodeBadRewrite, v, field+".op", "retag of %s to itself never changes the tree", t)
		}
		if !payloadFree(s.Match) || !payloadFree(t) {
			return errorf(ErrCodeBadRewrite, v, field+".op", "cannot retag %s to %s: both ops must be payload-free", s.Match, t)
		}
		if s.Match.Category() != t.Category() {
			return errorf(ErrCodeBadRewrite, v, field+".op", "cannot retag %s op %s to %s op %s", s.Match.Category(), s.Match, t.Category(), t)
		}
		if s.Match.Arity() != t.Arity() {
			return errorf(ErrCodeBadRewrite, v, field+".op", "cannot retag %s to %s: arity %d != %d", s.Match, t, s.Match.Arity(), t.Arity())
		}
		s.Kind, s.Target = RewriteRetag, t
	case hasChild:
		i, err := optionalInt(v, "child", field)
		if err != nil {
			return err
		}
		n := s.Match.Arity()
		if s.Pattern != nil {
			n = s.Pattern.NumChildren()
		}
		if i < 0 || (n != ir.ArityVariable && i >= n) {
			return errorf(ErrCodeBadRewrite, v, field+".child", "%s has no child %d", s.Match, i)
		}
		s.Kind, s.Child = RewriteHoist, i
	default:
		return errorf(ErrCodeMissingField, v, field, "one of op or child is required")
	}
	return nil
}

func (s *RuleSpec) rewriteFunc() engine.RewriteFunc {
	switch s.Kind {
	case RewriteHoist:
		child := s.Child
		return func(_ engine.Context, n *ir.Node) (*ir.Node, bool) {
			if child >= n.NumChildren() {
				return n, false
			}
			return n.Child(child), true
		}
	default:
		target := s.Target
		return func(_ engine.Context, n *ir.Node) (*ir.Node, bool) {
			return ir.NewNode(retag(n.Op(), target), n.Children()...), true
		}
	}
}

// retag returns a payload-free op of type t standing in for op. Scalars keep
// their result type.
func retag(op ir.Op, t ir.OpType) ir.Op {
	if t.IsRelOp() {
		return ir.NewRelOp(t)
	}
	typ := md.Boolean
	if st, ok := op.(ir.ScalarTyped); ok && st.ResultType() != nil {
		typ = st.ResultType()
	}
	return ir.NewScalarOp(t, typ)
}
