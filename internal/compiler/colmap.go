package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/plancore/internal/colmap"
	"github.com/roach88/plancore/internal/md"
)

// compileColumnMap compiles a named column map. Every map has a kind, a
// name and a type; the other fields depend on the kind:
//
//	columnmap: customer: {
//		kind: "Entity", name: "c", type: "Customer"
//		properties: [{kind: "VarRef", name: "id", type: "Int32", var: "customers.id"}]
//		identity: {kind: "Simple", entityset: "Customers", keys: [...]}
//	}
func (p *Program) compileColumnMap(name string, v cue.Value) error {
	field := "columnmap." + name
	if _, dup := p.ColumnMaps[name]; dup {
		return errorf(ErrCodeDuplicateName, v, field, "column map %q already declared", name)
	}
	m, err := p.columnMap(v, field)
	if err != nil {
		return err
	}
	p.ColumnMaps[name] = m
	return nil
}

func (p *Program) header(v cue.Value, field string) (colmap.Header, error) {
	name, err := optionalString(v, "name", field)
	if err != nil {
		return colmap.Header{}, err
	}
	var typ *md.Type
	if _, ok := lookup(v, "type"); ok {
		if typ, err = p.typeField(v, "type", field); err != nil {
			return colmap.Header{}, err
		}
	}
	return colmap.Header{Type: typ, Name: name}, nil
}

func (p *Program) columnMap(v cue.Value, field string) (colmap.ColumnMap, error) {
	kind, err := requireString(v, "kind", field)
	if err != nil {
		return nil, err
	}
	h, err := p.header(v, field)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "Scalar", "VarRef":
		return p.simpleColumnMap(v, field)

	case "Record", "ComplexType":
		props, err := p.columnMaps(v, "properties", field)
		if err != nil {
			return nil, err
		}
		sentinel, err := p.optionalSimple(v, "nullSentinel", field)
		if err != nil {
			return nil, err
		}
		if kind == "Record" {
			return &colmap.RecordColumnMap{Header: h, Properties: props, NullSentinel: sentinel}, nil
		}
		return &colmap.ComplexTypeColumnMap{Header: h, Properties: props, NullSentinel: sentinel}, nil

	case "Entity":
		props, err := p.columnMaps(v, "properties", field)
		if err != nil {
			return nil, err
		}
		id, err := p.identity(v, field)
		if err != nil {
			return nil, err
		}
		return &colmap.EntityColumnMap{Header: h, Properties: props, Identity: id}, nil

	case "Ref":
		id, err := p.identity(v, field)
		if err != nil {
			return nil, err
		}
		return &colmap.RefColumnMap{Header: h, Identity: id}, nil

	case "SimpleCollection", "DiscriminatedCollection":
		ev, ok := lookup(v, "element")
		if !ok {
			return nil, errorf(ErrCodeMissingField, v, field, "element is required")
		}
		elem, err := p.columnMap(ev, field+".element")
		if err != nil {
			return nil, err
		}
		keys, err := p.simpleColumnMaps(v, "keys", field)
		if err != nil {
			return nil, err
		}
		fks, err := p.simpleColumnMaps(v, "foreignKeys", field)
		if err != nil {
			return nil, err
		}
		if kind == "SimpleCollection" {
			return &colmap.SimpleCollectionColumnMap{Header: h, Element: elem, Keys: keys, ForeignKeys: fks}, nil
		}
		disc, err := p.requireSimple(v, "discriminator", field)
		if err != nil {
			return nil, err
		}
		dv, ok := lookup(v, "discriminatorValue")
		if !ok {
			return nil, errorf(ErrCodeMissingField, v, field, "discriminatorValue is required")
		}
		val, err := constant(dv, field+".discriminatorValue")
		if err != nil {
			return nil, err
		}
		return &colmap.DiscriminatedCollectionColumnMap{
			Header: h, Element: elem, Keys: keys, ForeignKeys: fks,
			Discriminator: disc, DiscriminatorValue: val,
		}, nil

	case "SimplePolymorphic":
		base, err := p.columnMaps(v, "base", field)
		if err != nil {
			return nil, err
		}
		disc, err := p.requireSimple(v, "discriminator", field)
		if err != nil {
			return nil, err
		}
		choiceVals, err := list(v, "choices", field)
		if err != nil {
			return nil, err
		}
		m := &colmap.SimplePolymorphicColumnMap{Header: h, BaseTypeColumns: base, TypeDiscriminator: disc}
		for i, cv := range choiceVals {
			cf := fmt.Sprintf("%s.choices[%d]", field, i)
			when, ok := lookup(cv, "when")
			if !ok {
				return nil, errorf(ErrCodeMissingField, cv, cf, "when is required")
			}
			val, err := constant(when, cf+".when")
			if err != nil {
				return nil, err
			}
			cm, err := p.choiceMap(cv, cf)
			if err != nil {
				return nil, err
			}
			m.TypeChoices = append(m.TypeChoices, colmap.TypeChoice{Value: val, Map: cm})
		}
		return m, nil

	case "MultipleDiscriminatorPolymorphic":
		base, err := p.columnMaps(v, "base", field)
		if err != nil {
			return nil, err
		}
		discs, err := p.simpleColumnMaps(v, "discriminators", field)
		if err != nil {
			return nil, err
		}
		choiceVals, err := list(v, "choices", field)
		if err != nil {
			return nil, err
		}
		m := &colmap.MultipleDiscriminatorPolymorphicColumnMap{Header: h, BaseTypeColumns: base, TypeDiscriminators: discs}
		for i, cv := range choiceVals {
			cf := fmt.Sprintf("%s.choices[%d]", field, i)
			typ, err := p.typeField(cv, "type", cf)
			if err != nil {
				return nil, err
			}
			cm, err := p.choiceMap(cv, cf)
			if err != nil {
				return nil, err
			}
			m.TypeChoices = append(m.TypeChoices, colmap.TypedChoice{Type: typ, Map: cm})
		}
		return m, nil
	}
	return nil, errorf(ErrCodeBadField, v, field+".kind", "unknown column map kind %q", kind)
}

func (p *Program) choiceMap(v cue.Value, field string) (colmap.ColumnMap, error) {
	mv, ok := lookup(v, "map")
	if !ok {
		return nil, errorf(ErrCodeMissingField, v, field, "map is required")
	}
	return p.columnMap(mv, field+".map")
}

func (p *Program) simpleColumnMap(v cue.Value, field string) (colmap.SimpleColumnMap, error) {
	kind, err := requireString(v, "kind", field)
	if err != nil {
		return nil, err
	}
	h, err := p.header(v, field)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "Scalar":
		cmd, err := optionalInt(v, "command", field)
		if err != nil {
			return nil, err
		}
		col, err := optionalInt(v, "column", field)
		if err != nil {
			return nil, err
		}
		return &colmap.ScalarColumnMap{Header: h, CommandID: cmd, ColumnPos: col}, nil
	case "VarRef":
		name, err := requireString(v, "var", field)
		if err != nil {
			return nil, err
		}
		vr, err := p.varRef(name, v, field+".var")
		if err != nil {
			return nil, err
		}
		if h.Type == nil {
			h.Type = vr.Type()
		}
		return &colmap.VarRefColumnMap{Header: h, Var: vr}, nil
	}
	return nil, errorf(ErrCodeBadField, v, field+".kind", "%q is not a simple column map kind", kind)
}

func (p *Program) requireSimple(v cue.Value, path, field string) (colmap.SimpleColumnMap, error) {
	f, ok := lookup(v, path)
	if !ok {
		return nil, errorf(ErrCodeMissingField, v, field, "%s is required", path)
	}
	return p.simpleColumnMap(f, field+"."+path)
}

func (p *Program) optionalSimple(v cue.Value, path, field string) (colmap.SimpleColumnMap, error) {
	if _, ok := lookup(v, path); !ok {
		return nil, nil
	}
	return p.requireSimple(v, path, field)
}

func (p *Program) columnMaps(v cue.Value, path, field string) ([]colmap.ColumnMap, error) {
	vals, err := list(v, path, field)
	if err != nil {
		return nil, err
	}
	var out []colmap.ColumnMap
	for i, ev := range vals {
		m, err := p.columnMap(ev, fmt.Sprintf("%s.%s[%d]", field, path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (p *Program) simpleColumnMaps(v cue.Value, path, field string) ([]colmap.SimpleColumnMap, error) {
	vals, err := list(v, path, field)
	if err != nil {
		return nil, err
	}
	var out []colmap.SimpleColumnMap
	for i, ev := range vals {
		m, err := p.simpleColumnMap(ev, fmt.Sprintf("%s.%s[%d]", field, path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// identity compiles the identity field of an Entity or Ref map:
//
//	identity: {kind: "Simple", entityset: "Customers", keys: [...]}
//	identity: {kind: "Discriminated", entitysets: ["Customers", "Archived"], column: {...}, keys: [...]}
func (p *Program) identity(v cue.Value, field string) (colmap.EntityIdentity, error) {
	iv, ok := lookup(v, "identity")
	if !ok {
		return nil, errorf(ErrCodeMissingField, v, field, "identity is required")
	}
	field += ".identity"
	kind, err := requireString(iv, "kind", field)
	if err != nil {
		return nil, err
	}
	keys, err := p.simpleColumnMaps(iv, "keys", field)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "Simple":
		name, err := requireString(iv, "entityset", field)
		if err != nil {
			return nil, err
		}
		set, ok := p.EntitySets[name]
		if !ok {
			return nil, errorf(ErrCodeUnknownName, iv, field+".entityset", "unknown entity set %q", name)
		}
		return &colmap.SimpleEntityIdentity{EntitySet: set, Keys: keys}, nil
	case "Discriminated":
		names, err := stringList(iv, "entitysets", field)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return nil, errorf(ErrCodeMissingField, iv, field, "entitysets is required")
		}
		sets := make([]*md.EntitySet, len(names))
		for i, n := range names {
			set, ok := p.EntitySets[n]
			if !ok {
				return nil, errorf(ErrCodeUnknownName, iv, field+".entitysets", "unknown entity set %q", n)
			}
			sets[i] = set
		}
		col, err := p.requireSimple(iv, "column", field)
		if err != nil {
			return nil, err
		}
		return &colmap.DiscriminatedEntityIdentity{EntitySetColumn: col, EntitySets: sets, Keys: keys}, nil
	}
	return nil, errorf(ErrCodeBadField, iv, field+".kind", "unknown identity kind %q", kind)
}
