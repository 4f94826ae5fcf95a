package engine

import (
	"github.com/roach88/plancore/internal/ir"
)

// MatchKind says how a rule decides whether it applies to a node.
type MatchKind int8

const (
	// MatchByOpType applies to every node of the rule's OpType.
	MatchByOpType MatchKind = iota
	// MatchByPattern applies when the rule's pattern tree matches.
	MatchByPattern
)

func (k MatchKind) String() string {
	if k == MatchByPattern {
		return "pattern"
	}
	return "optype"
}

// RewriteFunc rewrites n. It returns the new root of the subtree and whether
// anything changed. When changed is false the returned node must be n
// itself and n must not have been mutated.
type RewriteFunc func(ctx Context, n *ir.Node) (result *ir.Node, changed bool)

// Rule is a match predicate plus a rewrite callback. Rules are immutable once
// built and can be shared by any number of tables and processors.
type Rule struct {
	name    string
	opType  ir.OpType
	kind    MatchKind
	pattern *ir.Node
	rewrite RewriteFunc
}

// NewSimpleRule returns a rule that applies to every node of type t.
func NewSimpleRule(name string, t ir.OpType, fn RewriteFunc) *Rule {
	r := &Rule{name: name, opType: t, kind: MatchByOpType, rewrite: fn}
	r.validate()
	return r
}

// NewPatternRule returns a rule that applies where pattern matches. The rule
// triggers on the OpType of the pattern root, which must not be Leaf.
func NewPatternRule(name string, pattern *ir.Node, fn RewriteFunc) *Rule {
	if pattern == nil {
		contractViolation(ErrCodeInvalidPattern, nil, ir.OpUnknown, "rule %s: nil pattern", name)
	}
	if err := ir.CheckArity(pattern); err != nil {
		contractViolation(ErrCodeInvalidPattern, nil, pattern.Op().OpType(), "rule %s: %v", name, err)
	}
	r := &Rule{name: name, opType: pattern.Op().OpType(), kind: MatchByPattern, pattern: pattern, rewrite: fn}
	r.validate()
	return r
}

func (r *Rule) validate() {
	switch {
	case r.opType == ir.OpLeaf:
		contractViolation(ErrCodeInvalidPattern, nil, r.opType, "rule %s: patterns cannot be rooted at Leaf", r.name)
	case r.opType <= ir.OpUnknown || r.opType >= ir.NumOpTypes:
		contractViolation(ErrCodeInvalidPattern, nil, r.opType, "rule %s: invalid op type", r.name)
	case r.rewrite == nil:
		contractViolation(ErrCodeInvalidPattern, nil, r.opType, "rule %s: nil rewrite", r.name)
	}
}

// Name returns the diagnostic name set at construction.
func (r *Rule) Name() string { return r.name }

// OpType returns the OpType the rule triggers on.
func (r *Rule) OpType() ir.OpType { return r.opType }

// Kind returns how the rule matches.
func (r *Rule) Kind() MatchKind { return r.kind }

// Pattern returns the pattern tree, or nil for a simple rule.
func (r *Rule) Pattern() *ir.Node { return r.pattern }

// Match reports whether the rule applies to n.
func (r *Rule) Match(n *ir.Node) bool {
	if r.kind == MatchByPattern {
		return matchPattern(r.pattern, n)
	}
	return n.Op().OpType() == r.opType
}

// Apply runs the rewrite callback.
func (r *Rule) Apply(ctx Context, n *ir.Node) (*ir.Node, bool) {
	return r.rewrite(ctx, n)
}

func (r *Rule) String() string { return r.name }

// RuleTable holds ordered rule lists indexed by the OpType they trigger on.
//
// INVARIANTS:
//   - rules for one OpType are kept in registration order
//   - rule names are unique within a table
type RuleTable struct {
	byOp  [ir.NumOpTypes][]*Rule
	all   []*Rule
	names map[string]struct{}
}

// NewRuleTable builds a table from one or more rule sets, registered in the
// order given.
func NewRuleTable(sets ...[]*Rule) *RuleTable {
	t := &RuleTable{names: make(map[string]struct{})}
	for _, set := range sets {
		t.Register(set...)
	}
	return t
}

// Register appends rules to the table.
func (t *RuleTable) Register(rules ...*Rule) {
	if t.names == nil {
		t.names = make(map[string]struct{})
	}
	for _, r := range rules {
		if _, dup := t.names[r.name]; dup {
			contractViolation(ErrCodeDuplicateRule, r, r.opType, "rule %s registered twice", r.name)
		}
		t.names[r.name] = struct{}{}
		t.byOp[r.opType] = append(t.byOp[r.opType], r)
		t.all = append(t.all, r)
	}
}

// RulesFor returns the rules that trigger on op, in registration order.
func (t *RuleTable) RulesFor(op ir.OpType) []*Rule {
	if op <= ir.OpUnknown || op >= ir.NumOpTypes {
		return nil
	}
	return t.byOp[op]
}

// Rules returns every rule in registration order.
func (t *RuleTable) Rules() []*Rule {
	return append([]*Rule(nil), t.all...)
}

// Len returns the number of registered rules.
func (t *RuleTable) Len() int { return len(t.all) }
