package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/plancore/internal/ir"
)

// compileVarMap compiles a named var map. Entries keep their declaration
// order:
//
//	varmap: rename: [{from: "orders.id", to: "order_id"}]
func (p *Program) compileVarMap(name string, v cue.Value) error {
	field := "varmap." + name
	if _, dup := p.VarMaps[name]; dup {
		return errorf(ErrCodeDuplicateName, v, field, "var map %q already declared", name)
	}
	vm, err := p.varMapEntries(v, field)
	if err != nil {
		return err
	}
	p.VarMaps[name] = vm
	return nil
}

// inlineVarMap reads an optional list of from/to pairs at path.
func (p *Program) inlineVarMap(v cue.Value, path, field string) (*ir.VarMap, error) {
	f, ok := lookup(v, path)
	if !ok {
		return ir.NewVarMap(), nil
	}
	return p.varMapEntries(f, field+"."+path)
}

func (p *Program) varMapEntries(v cue.Value, field string) (*ir.VarMap, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err, field)
	}
	vm := ir.NewVarMap()
	for iter.Next() {
		ev := iter.Value()
		from, err := requireString(ev, "from", field)
		if err != nil {
			return nil, err
		}
		to, err := requireString(ev, "to", field)
		if err != nil {
			return nil, err
		}
		fv, err := p.varRef(from, ev, field+".from")
		if err != nil {
			return nil, err
		}
		tv, err := p.varRef(to, ev, field+".to")
		if err != nil {
			return nil, err
		}
		vm.Add(fv, tv)
	}
	return vm, nil
}
