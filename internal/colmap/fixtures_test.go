package colmap

import (
	"github.com/roach88/plancore/internal/ir"
	"github.com/roach88/plancore/internal/md"
)

var (
	rowType      = &md.Type{Kind: md.KindRow, Name: "Row", Nullable: true}
	addressType  = &md.Type{Kind: md.KindComplex, Name: "Address", Nullable: true}
	customerType = &md.Type{Kind: md.KindEntity, Name: "Customer", Nullable: true}
	vipType      = &md.Type{Kind: md.KindEntity, Name: "Vip", Nullable: true, Base: customerType}

	customers = &md.EntitySet{Container: "Shop", Name: "Customers", ElementType: customerType}
	archived  = &md.EntitySet{Container: "Shop", Name: "Archived", ElementType: customerType}
)

// fixture holds the vars shared by the column maps built for one test.
type fixture struct {
	f    *ir.Factory
	id   *ir.Var // v1
	name *ir.Var // v2
	city *ir.Var // v3
}

func newFixture() *fixture {
	f := ir.NewFactory()
	return &fixture{
		f:    f,
		id:   f.NewVar(ir.VarColumn, "c.id", md.Int32),
		name: f.NewVar(ir.VarColumn, "c.name", md.String),
		city: f.NewVar(ir.VarColumn, "c.city", md.String),
	}
}

func scalar(name string, pos int) *ScalarColumnMap {
	return &ScalarColumnMap{Header: Header{Type: md.Int32, Name: name}, ColumnPos: pos}
}

func varRef(name string, v *ir.Var) *VarRefColumnMap {
	return &VarRefColumnMap{Header: Header{Type: v.Type(), Name: name}, Var: v}
}

func (x *fixture) record() *RecordColumnMap {
	return &RecordColumnMap{
		Header:       Header{Type: rowType, Name: "row"},
		Properties:   []ColumnMap{scalar("n", 0), varRef("name", x.name)},
		NullSentinel: scalar("sentinel", 4),
	}
}

func (x *fixture) complexType() *ComplexTypeColumnMap {
	return &ComplexTypeColumnMap{
		Header:       Header{Type: addressType, Name: "address"},
		Properties:   []ColumnMap{varRef("city", x.city)},
		NullSentinel: scalar("has_address", 5),
	}
}

func (x *fixture) entity() *EntityColumnMap {
	return &EntityColumnMap{
		Header:     Header{Type: customerType, Name: "customer"},
		Properties: []ColumnMap{varRef("id", x.id), varRef("name", x.name), x.complexType()},
		Identity: &SimpleEntityIdentity{
			EntitySet: customers,
			Keys:      []SimpleColumnMap{varRef("id", x.id)},
		},
	}
}

func (x *fixture) ref() *RefColumnMap {
	return &RefColumnMap{
		Header: Header{Type: md.RefTo(customerType), Name: "customer_ref"},
		Identity: &DiscriminatedEntityIdentity{
			EntitySetColumn: scalar("set", 6),
			EntitySets:      []*md.EntitySet{customers, archived},
			Keys:            []SimpleColumnMap{varRef("id", x.id)},
		},
	}
}

func (x *fixture) simpleCollection() *SimpleCollectionColumnMap {
	return &SimpleCollectionColumnMap{
		Header:      Header{Type: md.CollectionOf(rowType), Name: "rows"},
		Element:     x.record(),
		Keys:        []SimpleColumnMap{scalar("n", 0)},
		ForeignKeys: []SimpleColumnMap{varRef("id", x.id)},
	}
}

func (x *fixture) discriminatedCollection() *DiscriminatedCollectionColumnMap {
	return &DiscriminatedCollectionColumnMap{
		Header:             Header{Type: md.CollectionOf(rowType), Name: "tagged"},
		Element:            x.record(),
		Keys:               []SimpleColumnMap{scalar("n", 0)},
		ForeignKeys:        []SimpleColumnMap{varRef("id", x.id)},
		Discriminator:      scalar("branch", 7),
		DiscriminatorValue: ir.Int(2),
	}
}

func (x *fixture) simplePolymorphic() *SimplePolymorphicColumnMap {
	return &SimplePolymorphicColumnMap{
		Header:            Header{Type: customerType, Name: "poly"},
		BaseTypeColumns:   []ColumnMap{varRef("id", x.id)},
		TypeDiscriminator: scalar("kind", 8),
		TypeChoices: []TypeChoice{
			{Value: ir.String("C"), Map: x.entity()},
			{Value: ir.String("V"), Map: &EntityColumnMap{
				Header:     Header{Type: vipType, Name: "vip"},
				Properties: []ColumnMap{varRef("id", x.id)},
				Identity:   &SimpleEntityIdentity{EntitySet: customers, Keys: []SimpleColumnMap{varRef("id", x.id)}},
			}},
		},
	}
}

func (x *fixture) multipleDiscriminator() *MultipleDiscriminatorPolymorphicColumnMap {
	return &MultipleDiscriminatorPolymorphicColumnMap{
		Header:             Header{Type: customerType, Name: "multi"},
		BaseTypeColumns:    []ColumnMap{varRef("id", x.id)},
		TypeDiscriminators: []SimpleColumnMap{scalar("d1", 9), scalar("d2", 10)},
		TypeChoices:        []TypedChoice{{Type: customerType, Map: x.entity()}},
	}
}

// supported returns one map of every kind Copy handles.
func (x *fixture) supported() map[string]ColumnMap {
	return map[string]ColumnMap{
		"scalar":                   scalar("n", 3),
		"varref":                   varRef("name", x.name),
		"record":                   x.record(),
		"complex type":             x.complexType(),
		"entity":                   x.entity(),
		"ref":                      x.ref(),
		"simple collection":        x.simpleCollection(),
		"discriminated collection": x.discriminatedCollection(),
		"simple polymorphic":       x.simplePolymorphic(),
	}
}
