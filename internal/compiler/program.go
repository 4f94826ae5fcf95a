package compiler

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/cockroachdb/errors"

	"github.com/roach88/plancore/internal/colmap"
	"github.com/roach88/plancore/internal/engine"
	"github.com/roach88/plancore/internal/ir"
	"github.com/roach88/plancore/internal/md"
)

// Program is everything declared by one set of CUE specs. All trees, var
// maps and column maps of a program share one Factory, so a var name means
// the same Var everywhere in the program.
type Program struct {
	Factory    *ir.Factory
	Types      map[string]*md.Type
	Tables     map[string]*md.Table
	EntitySets map[string]*md.EntitySet
	Trees      map[string]*ir.Node
	VarMaps    map[string]*ir.VarMap
	ColumnMaps map[string]colmap.ColumnMap
	RuleSpecs  []RuleSpec
	Rules      *engine.RuleTable

	// SpecHash identifies the sources the program was compiled from. It is
	// empty when the program was compiled from a bare cue.Value.
	SpecHash string

	vars     map[string]*ir.Var
	scanVars map[string]ir.VarList
}

func newProgram() *Program {
	return &Program{
		Factory:    ir.NewFactory(),
		Types:      make(map[string]*md.Type),
		Tables:     make(map[string]*md.Table),
		EntitySets: make(map[string]*md.EntitySet),
		Trees:      make(map[string]*ir.Node),
		VarMaps:    make(map[string]*ir.VarMap),
		ColumnMaps: make(map[string]colmap.ColumnMap),
		Rules:      engine.NewRuleTable(),
		vars:       make(map[string]*ir.Var),
		scanVars:   make(map[string]ir.VarList),
	}
}

// Var returns the program var with the given name.
func (p *Program) Var(name string) (*ir.Var, bool) {
	v, ok := p.vars[name]
	return v, ok
}

// section is one top-level field of a spec and the function compiling each
// of its entries. Sections compile in this order; later sections may refer
// to names declared by earlier ones.
type section struct {
	name    string
	compile func(p *Program, name string, v cue.Value) error
}

var sections = []section{
	{"type", (*Program).compileType},
	{"table", (*Program).compileTable},
	{"entityset", (*Program).compileEntitySet},
	{"var", (*Program).compileVar},
	{"tree", (*Program).compileTree},
	{"varmap", (*Program).compileVarMap},
	{"columnmap", (*Program).compileColumnMap},
	{"rule", (*Program).compileRule},
}

// Compile compiles every declaration in v. Entries that fail are skipped
// and their errors collected; the returned program holds everything that
// compiled.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`table: orders: { ... }`)
//	prog, errs := Compile(v)
func Compile(v cue.Value) (*Program, []error) {
	p := newProgram()
	if err := v.Validate(); err != nil {
		return p, []error{formatCUEError(err, "spec")}
	}
	var errs []error
	for _, s := range sections {
		sv, ok := lookup(v, s.name)
		if !ok {
			continue
		}
		iter, err := sv.Fields()
		if err != nil {
			errs = append(errs, formatCUEError(err, s.name))
			continue
		}
		for iter.Next() {
			if err := s.compile(p, iter.Label(), iter.Value()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return p, errs
}

// CompileString compiles CUE source held in memory. filename is used in
// error positions.
func CompileString(src, filename string) (*Program, []error) {
	ctx := cuecontext.New()
	return Compile(ctx.CompileString(src, cue.Filename(filename)))
}

// ErrRuleListedTwice marks SelectRules errors for a rule name given more
// than once.
var ErrRuleListedTwice = errors.New("rule listed twice")

// SelectRules returns a rule table holding the named rules in the given
// order, or the program's whole table when names is empty. A name that is
// not declared, or is listed twice, is an error.
func (p *Program) SelectRules(names []string) (*engine.RuleTable, error) {
	if len(names) == 0 {
		return p.Rules, nil
	}
	byName := make(map[string]*engine.Rule, p.Rules.Len())
	for _, r := range p.Rules.Rules() {
		byName[r.Name()] = r
	}
	selected := make([]*engine.Rule, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		r, ok := byName[name]
		if !ok {
			return nil, errors.Newf("rule %q is not declared in the specs", name)
		}
		if seen[name] {
			return nil, errors.Mark(errors.Newf("rule %q is listed twice", name), ErrRuleListedTwice)
		}
		seen[name] = true
		selected = append(selected, r)
	}
	return engine.NewRuleTable(selected), nil
}
