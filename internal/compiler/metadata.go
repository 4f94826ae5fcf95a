package compiler

import (
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/plancore/internal/ir"
	"github.com/roach88/plancore/internal/md"
)

// primitives are the type names usable without a declaration.
var primitives = map[string]bool{
	"Binary":   true,
	"Boolean":  true,
	"Byte":     true,
	"DateTime": true,
	"Decimal":  true,
	"Guid":     true,
	"Int16":    true,
	"Int32":    true,
	"Int64":    true,
	"String":   true,
}

// resolveType parses a type reference:
//
//	Int32          nullable primitive
//	Int32!         not-null primitive
//	Customer       declared type
//	Ref(Customer)  reference to a declared entity type
//	Collection(T)  collection of T
func (p *Program) resolveType(ref string, v cue.Value, field string) (*md.Type, error) {
	ref = strings.TrimSpace(ref)
	if rest, ok := strings.CutSuffix(ref, "!"); ok {
		t, err := p.resolveType(rest, v, field)
		if err != nil {
			return nil, err
		}
		return md.NotNull(t), nil
	}
	if inner, ok := unwrap(ref, "Ref"); ok {
		t, err := p.resolveType(inner, v, field)
		if err != nil {
			return nil, err
		}
		if t.Kind != md.KindEntity {
			return nil, errorf(ErrCodeUnknownType, v, field, "Ref target %q is not an entity type", inner)
		}
		return md.RefTo(t), nil
	}
	if inner, ok := unwrap(ref, "Collection"); ok {
		t, err := p.resolveType(inner, v, field)
		if err != nil {
			return nil, err
		}
		return md.CollectionOf(t), nil
	}
	if t, ok := p.Types[ref]; ok {
		return t, nil
	}
	if primitives[ref] {
		return md.Primitive(ref), nil
	}
	return nil, errorf(ErrCodeUnknownType, v, field, "unknown type %q", ref)
}

func unwrap(ref, ctor string) (string, bool) {
	rest, ok := strings.CutPrefix(ref, ctor+"(")
	if !ok {
		return "", false
	}
	return strings.CutSuffix(rest, ")")
}

func (p *Program) typeField(v cue.Value, path, field string) (*md.Type, error) {
	ref, err := requireString(v, path, field)
	if err != nil {
		return nil, err
	}
	return p.resolveType(ref, v, field+"."+path)
}

// compileType compiles a structured type declaration:
//
//	type: Customer: {
//		kind: "entity"
//		fields: [{name: "id", type: "Int32!"}]
//		base?: "Person"
//	}
func (p *Program) compileType(name string, v cue.Value) error {
	field := "type." + name
	if _, dup := p.Types[name]; dup || primitives[name] {
		return errorf(ErrCodeDuplicateName, v, field, "type %q already declared", name)
	}
	kindName, err := requireString(v, "kind", field)
	if err != nil {
		return err
	}
	kind, ok := md.ParseTypeKind(kindName)
	if !ok {
		return errorf(ErrCodeBadField, v, field+".kind", "unknown type kind %q", kindName)
	}
	switch kind {
	case md.KindRow, md.KindComplex, md.KindEntity:
	default:
		return errorf(ErrCodeBadField, v, field+".kind", "only row, complex and entity types can be declared, got %s", kind)
	}
	nullable, err := optionalBool(v, "nullable", field, true)
	if err != nil {
		return err
	}
	t := &md.Type{Kind: kind, Name: name, Nullable: nullable}

	fields, err := list(v, "fields", field)
	if err != nil {
		return err
	}
	for i, fv := range fields {
		fname, err := requireString(fv, "name", field+".fields")
		if err != nil {
			return err
		}
		ft, err := p.typeField(fv, "type", field+".fields."+fname)
		if err != nil {
			return err
		}
		if _, dup := t.Field(fname); dup {
			return errorf(ErrCodeDuplicateName, fields[i], field+".fields", "duplicate field %q", fname)
		}
		t.Fields = append(t.Fields, md.Field{Name: fname, Type: ft})
	}

	base, err := optionalString(v, "base", field)
	if err != nil {
		return err
	}
	if base != "" {
		bt, ok := p.Types[base]
		if !ok {
			return errorf(ErrCodeUnknownType, v, field+".base", "unknown base type %q", base)
		}
		if bt.Kind != kind {
			return errorf(ErrCodeBadField, v, field+".base", "base %q is a %s type, not %s", base, bt.Kind, kind)
		}
		t.Base = bt
	}
	p.Types[name] = t
	return nil
}

// compileTable compiles a table declaration:
//
//	table: orders: {
//		columns: [{name: "id", type: "Int32"}, {name: "note", type: "String", nullable: true}]
//		key: ["id"]
//	}
func (p *Program) compileTable(name string, v cue.Value) error {
	field := "table." + name
	if _, dup := p.Tables[name]; dup {
		return errorf(ErrCodeDuplicateName, v, field, "table %q already declared", name)
	}
	cols, err := list(v, "columns", field)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return errorf(ErrCodeMissingField, v, field+".columns", "at least one column is required")
	}
	var columns []md.Column
	seen := make(map[string]bool)
	for _, cv := range cols {
		cname, err := requireString(cv, "name", field+".columns")
		if err != nil {
			return err
		}
		if seen[cname] {
			return errorf(ErrCodeDuplicateName, cv, field+".columns", "duplicate column %q", cname)
		}
		seen[cname] = true
		ct, err := p.typeField(cv, "type", field+".columns."+cname)
		if err != nil {
			return err
		}
		nullable, err := optionalBool(cv, "nullable", field+".columns."+cname, false)
		if err != nil {
			return err
		}
		columns = append(columns, md.Column{Name: cname, Type: ct, Nullable: nullable})
	}
	keys, err := stringList(v, "key", field)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if !seen[k] {
			return errorf(ErrCodeUnknownName, v, field+".key", "key column %q is not a column", k)
		}
	}
	p.Tables[name] = md.NewTable(name, columns, keys...)
	return nil
}

// compileEntitySet compiles an entity set declaration:
//
//	entityset: Customers: {container: "Shop", type: "Customer"}
func (p *Program) compileEntitySet(name string, v cue.Value) error {
	field := "entityset." + name
	if _, dup := p.EntitySets[name]; dup {
		return errorf(ErrCodeDuplicateName, v, field, "entity set %q already declared", name)
	}
	container, err := optionalString(v, "container", field)
	if err != nil {
		return err
	}
	t, err := p.typeField(v, "type", field)
	if err != nil {
		return err
	}
	if t.Kind != md.KindEntity {
		return errorf(ErrCodeBadField, v, field+".type", "entity set element %s is not an entity type", t)
	}
	p.EntitySets[name] = &md.EntitySet{Container: container, Name: name, ElementType: t}
	return nil
}

// compileVar declares a computed var, for use by VarDef nodes, var maps and
// column maps:
//
//	var: total: {type: "Int64"}
func (p *Program) compileVar(name string, v cue.Value) error {
	field := "var." + name
	if _, dup := p.vars[name]; dup {
		return errorf(ErrCodeDuplicateName, v, field, "var %q already declared", name)
	}
	t, err := p.typeField(v, "type", field)
	if err != nil {
		return err
	}
	p.vars[name] = p.Factory.NewComputedVar(name, t)
	return nil
}

// varRef resolves a var name.
func (p *Program) varRef(name string, v cue.Value, field string) (*ir.Var, error) {
	vr, ok := p.vars[name]
	if !ok {
		return nil, errorf(ErrCodeUnknownName, v, field, "unknown var %q", name)
	}
	return vr, nil
}

func (p *Program) varList(v cue.Value, path, field string) (ir.VarList, error) {
	names, err := stringList(v, path, field)
	if err != nil {
		return nil, err
	}
	var out ir.VarList
	for _, n := range names {
		vr, err := p.varRef(n, v, field+"."+path)
		if err != nil {
			return nil, err
		}
		out = append(out, vr)
	}
	return out, nil
}

// scanColumns returns the column vars of table, minting them on the first
// scan. Later scans of the same table reuse the vars.
func (p *Program) scanColumns(table *md.Table, v cue.Value, field string) (ir.VarList, error) {
	if cols, ok := p.scanVars[table.Name]; ok {
		return cols, nil
	}
	cols := make(ir.VarList, len(table.Columns))
	for i, c := range table.Columns {
		name := table.Name + "." + c.Name
		if _, dup := p.vars[name]; dup {
			return nil, errorf(ErrCodeDuplicateName, v, field, "column var %q clashes with a declared var", name)
		}
		cols[i] = p.Factory.NewVar(ir.VarColumn, name, c.Type)
		p.vars[name] = cols[i]
	}
	p.scanVars[table.Name] = cols
	return cols, nil
}

// constant converts a CUE scalar into a constant Value.
func constant(v cue.Value, field string) (ir.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err, field)
		}
		return ir.Bool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err, field)
		}
		return ir.Int(n), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err, field)
		}
		return ir.String(s), nil
	case cue.FloatKind, cue.NumberKind:
		return nil, errorf(ErrCodeFloatForbidden, v, field, "float constants are forbidden, use int instead")
	default:
		return nil, errorf(ErrCodeBadField, v, field, "unsupported constant kind %v", v.Kind())
	}
}
