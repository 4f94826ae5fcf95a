package colmap

import "github.com/cockroachdb/errors"

// Transformer computes a value of type T from a ColumnMap and a value of
// type I from an EntityIdentity. There are no defaults: every kind must be
// handled.
type Transformer[T, I any] interface {
	TransformScalar(*ScalarColumnMap) T
	TransformVarRef(*VarRefColumnMap) T
	TransformRecord(*RecordColumnMap) T
	TransformComplexType(*ComplexTypeColumnMap) T
	TransformEntity(*EntityColumnMap) T
	TransformRef(*RefColumnMap) T
	TransformSimpleCollection(*SimpleCollectionColumnMap) T
	TransformDiscriminatedCollection(*DiscriminatedCollectionColumnMap) T
	TransformSimplePolymorphic(*SimplePolymorphicColumnMap) T
	TransformMultipleDiscriminatorPolymorphic(*MultipleDiscriminatorPolymorphicColumnMap) T

	TransformSimpleIdentity(*SimpleEntityIdentity) I
	TransformDiscriminatedIdentity(*DiscriminatedEntityIdentity) I
}

// Transform dispatches m to the Transformer method for its kind.
func Transform[T, I any](t Transformer[T, I], m ColumnMap) T {
	switch m := m.(type) {
	case *ScalarColumnMap:
		return t.TransformScalar(m)
	case *VarRefColumnMap:
		return t.TransformVarRef(m)
	case *RecordColumnMap:
		return t.TransformRecord(m)
	case *ComplexTypeColumnMap:
		return t.TransformComplexType(m)
	case *EntityColumnMap:
		return t.TransformEntity(m)
	case *RefColumnMap:
		return t.TransformRef(m)
	case *SimpleCollectionColumnMap:
		return t.TransformSimpleCollection(m)
	case *DiscriminatedCollectionColumnMap:
		return t.TransformDiscriminatedCollection(m)
	case *SimplePolymorphicColumnMap:
		return t.TransformSimplePolymorphic(m)
	case *MultipleDiscriminatorPolymorphicColumnMap:
		return t.TransformMultipleDiscriminatorPolymorphic(m)
	default:
		panic(unknownKind(m))
	}
}

// TransformIdentity dispatches id to the Transformer method for its kind.
func TransformIdentity[T, I any](t Transformer[T, I], id EntityIdentity) I {
	switch id := id.(type) {
	case *SimpleEntityIdentity:
		return t.TransformSimpleIdentity(id)
	case *DiscriminatedEntityIdentity:
		return t.TransformDiscriminatedIdentity(id)
	default:
		panic(unknownIdentity(id))
	}
}

func unknownKind(m ColumnMap) error {
	return errors.AssertionFailedf("unknown column map kind %T", m)
}

func unknownIdentity(id EntityIdentity) error {
	return errors.AssertionFailedf("unknown entity identity kind %T", id)
}
