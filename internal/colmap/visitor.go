package colmap

// Visitor has one method per ColumnMap and EntityIdentity kind. A method
// that wants the default structural recursion calls VisitChildren (or
// VisitIdentityChildren) with the visitor itself. Returning an error stops
// the walk.
type Visitor interface {
	VisitScalar(*ScalarColumnMap) error
	VisitVarRef(*VarRefColumnMap) error
	VisitRecord(*RecordColumnMap) error
	VisitComplexType(*ComplexTypeColumnMap) error
	VisitEntity(*EntityColumnMap) error
	VisitRef(*RefColumnMap) error
	VisitSimpleCollection(*SimpleCollectionColumnMap) error
	VisitDiscriminatedCollection(*DiscriminatedCollectionColumnMap) error
	VisitSimplePolymorphic(*SimplePolymorphicColumnMap) error
	VisitMultipleDiscriminatorPolymorphic(*MultipleDiscriminatorPolymorphicColumnMap) error

	VisitSimpleIdentity(*SimpleEntityIdentity) error
	VisitDiscriminatedIdentity(*DiscriminatedEntityIdentity) error
}

// Walk dispatches m to v. A nil map is skipped.
func Walk(v Visitor, m ColumnMap) error {
	if m == nil {
		return nil
	}
	return m.Accept(v)
}

// VisitChildren walks every child map and sub-component of m in declaration
// order: properties, null sentinel, identity, element, keys, foreign keys,
// discriminators, then type choices.
func VisitChildren(v Visitor, m ColumnMap) error {
	switch m := m.(type) {
	case *ScalarColumnMap, *VarRefColumnMap:
		return nil
	case *RecordColumnMap:
		if err := walkAll(v, m.Properties); err != nil {
			return err
		}
		return walkSimple(v, m.NullSentinel)
	case *ComplexTypeColumnMap:
		if err := walkAll(v, m.Properties); err != nil {
			return err
		}
		return walkSimple(v, m.NullSentinel)
	case *EntityColumnMap:
		if err := walkAll(v, m.Properties); err != nil {
			return err
		}
		return walkIdentity(v, m.Identity)
	case *RefColumnMap:
		return walkIdentity(v, m.Identity)
	case *SimpleCollectionColumnMap:
		if err := Walk(v, m.Element); err != nil {
			return err
		}
		if err := walkAll(v, m.Keys); err != nil {
			return err
		}
		return walkAll(v, m.ForeignKeys)
	case *DiscriminatedCollectionColumnMap:
		if err := Walk(v, m.Element); err != nil {
			return err
		}
		if err := walkAll(v, m.Keys); err != nil {
			return err
		}
		if err := walkAll(v, m.ForeignKeys); err != nil {
			return err
		}
		return walkSimple(v, m.Discriminator)
	case *SimplePolymorphicColumnMap:
		if err := walkAll(v, m.BaseTypeColumns); err != nil {
			return err
		}
		if err := walkSimple(v, m.TypeDiscriminator); err != nil {
			return err
		}
		for _, c := range m.TypeChoices {
			if err := Walk(v, c.Map); err != nil {
				return err
			}
		}
		return nil
	case *MultipleDiscriminatorPolymorphicColumnMap:
		if err := walkAll(v, m.BaseTypeColumns); err != nil {
			return err
		}
		if err := walkAll(v, m.TypeDiscriminators); err != nil {
			return err
		}
		for _, c := range m.TypeChoices {
			if err := Walk(v, c.Map); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return nil
	default:
		panic(unknownKind(m))
	}
}

// VisitIdentityChildren walks the column maps inside id.
func VisitIdentityChildren(v Visitor, id EntityIdentity) error {
	switch id := id.(type) {
	case *SimpleEntityIdentity:
		return walkAll(v, id.Keys)
	case *DiscriminatedEntityIdentity:
		if err := walkSimple(v, id.EntitySetColumn); err != nil {
			return err
		}
		return walkAll(v, id.Keys)
	case nil:
		return nil
	default:
		panic(unknownIdentity(id))
	}
}

func walkAll[M ColumnMap](v Visitor, maps []M) error {
	for _, c := range maps {
		if err := Walk(v, c); err != nil {
			return err
		}
	}
	return nil
}

// walkSimple skips a nil optional leaf. A nil interface of type
// SimpleColumnMap converts to a nil ColumnMap.
func walkSimple(v Visitor, m SimpleColumnMap) error {
	if m == nil {
		return nil
	}
	return m.Accept(v)
}

func walkIdentity(v Visitor, id EntityIdentity) error {
	if id == nil {
		return nil
	}
	return id.AcceptIdentity(v)
}

// Inspect walks m depth-first, calling f for every map. If f returns false
// the map's children are skipped.
func Inspect(m ColumnMap, f func(ColumnMap) bool) {
	// inspector never returns errors.
	_ = Walk(inspector(f), m)
}

type inspector func(ColumnMap) bool

func (f inspector) visit(m ColumnMap) error {
	if f(m) {
		return VisitChildren(f, m)
	}
	return nil
}

func (f inspector) VisitScalar(m *ScalarColumnMap) error { return f.visit(m) }
func (f inspector) VisitVarRef(m *VarRefColumnMap) error { return f.visit(m) }
func (f inspector) VisitRecord(m *RecordColumnMap) error { return f.visit(m) }
func (f inspector) VisitComplexType(m *ComplexTypeColumnMap) error { return f.visit(m) }
func (f inspector) VisitEntity(m *EntityColumnMap) error { return f.visit(m) }
func (f inspector) VisitRef(m *RefColumnMap) error { return f.visit(m) }
func (f inspector) VisitSimpleCollection(m *SimpleCollectionColumnMap) error {
	return f.visit(m)
}
func (f inspector) VisitDiscriminatedCollection(m *DiscriminatedCollectionColumnMap) error {
	return f.visit(m)
}
func (f inspector) VisitSimplePolymorphic(m *SimplePolymorphicColumnMap) error {
	return f.visit(m)
}
func (f inspector) VisitMultipleDiscriminatorPolymorphic(m *MultipleDiscriminatorPolymorphicColumnMap) error {
	return f.visit(m)
}
func (f inspector) VisitSimpleIdentity(id *SimpleEntityIdentity) error {
	return VisitIdentityChildren(f, id)
}
func (f inspector) VisitDiscriminatedIdentity(id *DiscriminatedEntityIdentity) error {
	return VisitIdentityChildren(f, id)
}
