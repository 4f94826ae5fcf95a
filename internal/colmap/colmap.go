package colmap

import (
	"github.com/roach88/plancore/internal/ir"
	"github.com/roach88/plancore/internal/md"
)

// ColumnMap is one node of a result shape. Only types in this package
// implement it.
type ColumnMap interface {
	// ColumnType returns the type of the value the map produces.
	ColumnType() *md.Type
	// ColumnName returns the name of the value, which may be empty.
	ColumnName() string
	// Accept calls the visitor method for the map's kind.
	Accept(v Visitor) error

	columnMap()
}

// SimpleColumnMap is a leaf: it reads exactly one column.
type SimpleColumnMap interface {
	ColumnMap
	simpleColumnMap()
}

// Header is the part every ColumnMap kind carries.
type Header struct {
	Type *md.Type
	Name string
}

// ColumnType returns the type of the value the map produces.
func (h Header) ColumnType() *md.Type { return h.Type }

// ColumnName returns the name of the value.
func (h Header) ColumnName() string { return h.Name }

func (Header) columnMap() {}

// ScalarColumnMap reads the column at ColumnPos of the reader produced by
// command CommandID.
type ScalarColumnMap struct {
	Header
	CommandID int
	ColumnPos int
}

func (*ScalarColumnMap) simpleColumnMap() {}

// Accept calls v.VisitScalar.
func (m *ScalarColumnMap) Accept(v Visitor) error { return v.VisitScalar(m) }

// VarRefColumnMap reads the column produced for Var.
type VarRefColumnMap struct {
	Header
	Var *ir.Var
}

func (*VarRefColumnMap) simpleColumnMap() {}

// Accept calls v.VisitVarRef.
func (m *VarRefColumnMap) Accept(v Visitor) error { return v.VisitVarRef(m) }

// RecordColumnMap builds a row from its properties. When NullSentinel is set
// and reads null, the whole record is null.
type RecordColumnMap struct {
	Header
	Properties   []ColumnMap
	NullSentinel SimpleColumnMap
}

// Accept calls v.VisitRecord.
func (m *RecordColumnMap) Accept(v Visitor) error { return v.VisitRecord(m) }

// ComplexTypeColumnMap builds a complex-type value from its properties.
type ComplexTypeColumnMap struct {
	Header
	Properties   []ColumnMap
	NullSentinel SimpleColumnMap
}

// Accept calls v.VisitComplexType.
func (m *ComplexTypeColumnMap) Accept(v Visitor) error { return v.VisitComplexType(m) }

// EntityColumnMap builds an entity from its properties; Identity says how
// the entity's key is read.
type EntityColumnMap struct {
	Header
	Properties []ColumnMap
	Identity   EntityIdentity
}

// Accept calls v.VisitEntity.
func (m *EntityColumnMap) Accept(v Visitor) error { return v.VisitEntity(m) }

// RefColumnMap builds a reference to the entity described by Identity.
type RefColumnMap struct {
	Header
	Identity EntityIdentity
}

// Accept calls v.VisitRef.
func (m *RefColumnMap) Accept(v Visitor) error { return v.VisitRef(m) }

// SimpleCollectionColumnMap builds a collection whose elements are described
// by Element. Keys identify an element within the collection; ForeignKeys
// link the collection to its parent row.
type SimpleCollectionColumnMap struct {
	Header
	Element     ColumnMap
	Keys        []SimpleColumnMap
	ForeignKeys []SimpleColumnMap
}

// Accept calls v.VisitSimpleCollection.
func (m *SimpleCollectionColumnMap) Accept(v Visitor) error { return v.VisitSimpleCollection(m) }

// DiscriminatedCollectionColumnMap is a collection whose rows belong to it
// only when Discriminator reads DiscriminatorValue.
type DiscriminatedCollectionColumnMap struct {
	Header
	Element            ColumnMap
	Keys               []SimpleColumnMap
	ForeignKeys        []SimpleColumnMap
	Discriminator      SimpleColumnMap
	DiscriminatorValue ir.Value
}

// Accept calls v.VisitDiscriminatedCollection.
func (m *DiscriminatedCollectionColumnMap) Accept(v Visitor) error {
	return v.VisitDiscriminatedCollection(m)
}

// TypeChoice selects Map when the type discriminator reads Value.
type TypeChoice struct {
	Value ir.Value
	Map   ColumnMap
}

// SimplePolymorphicColumnMap builds a value whose concrete type is chosen by
// a single discriminator column. BaseTypeColumns are the properties shared by
// every choice.
type SimplePolymorphicColumnMap struct {
	Header
	BaseTypeColumns   []ColumnMap
	TypeDiscriminator SimpleColumnMap
	TypeChoices       []TypeChoice
}

// Accept calls v.VisitSimplePolymorphic.
func (m *SimplePolymorphicColumnMap) Accept(v Visitor) error { return v.VisitSimplePolymorphic(m) }

// TypedChoice selects Map when the discriminators resolve to Type.
type TypedChoice struct {
	Type *md.Type
	Map  ColumnMap
}

// MultipleDiscriminatorPolymorphicColumnMap builds a value whose concrete
// type is decided by several discriminator columns together.
type MultipleDiscriminatorPolymorphicColumnMap struct {
	Header
	BaseTypeColumns    []ColumnMap
	TypeDiscriminators []SimpleColumnMap
	TypeChoices        []TypedChoice
}

// Accept calls v.VisitMultipleDiscriminatorPolymorphic.
func (m *MultipleDiscriminatorPolymorphicColumnMap) Accept(v Visitor) error {
	return v.VisitMultipleDiscriminatorPolymorphic(m)
}

var (
	_ SimpleColumnMap = (*ScalarColumnMap)(nil)
	_ SimpleColumnMap = (*VarRefColumnMap)(nil)
	_ ColumnMap       = (*RecordColumnMap)(nil)
	_ ColumnMap       = (*ComplexTypeColumnMap)(nil)
	_ ColumnMap       = (*EntityColumnMap)(nil)
	_ ColumnMap       = (*RefColumnMap)(nil)
	_ ColumnMap       = (*SimpleCollectionColumnMap)(nil)
	_ ColumnMap       = (*DiscriminatedCollectionColumnMap)(nil)
	_ ColumnMap       = (*SimplePolymorphicColumnMap)(nil)
	_ ColumnMap       = (*MultipleDiscriminatorPolymorphicColumnMap)(nil)
)
