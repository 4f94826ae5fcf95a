package colmap

import "github.com/roach88/plancore/internal/md"

// EntityIdentity describes how the key of an entity, and the entity set it
// belongs to, are read from columns. Only types in this package implement it.
type EntityIdentity interface {
	// KeyColumns returns the columns forming the entity key.
	KeyColumns() []SimpleColumnMap
	// AcceptIdentity calls the visitor method for the identity's kind.
	AcceptIdentity(v Visitor) error

	entityIdentity()
}

// SimpleEntityIdentity is the identity of entities that all live in one
// entity set.
type SimpleEntityIdentity struct {
	EntitySet *md.EntitySet
	Keys      []SimpleColumnMap
}

// KeyColumns returns the key columns.
func (id *SimpleEntityIdentity) KeyColumns() []SimpleColumnMap { return id.Keys }

// AcceptIdentity calls v.VisitSimpleIdentity.
func (id *SimpleEntityIdentity) AcceptIdentity(v Visitor) error { return v.VisitSimpleIdentity(id) }

func (*SimpleEntityIdentity) entityIdentity() {}

// DiscriminatedEntityIdentity is the identity of entities that may live in
// one of several entity sets. EntitySetColumn holds the ordinal into
// EntitySets.
type DiscriminatedEntityIdentity struct {
	EntitySetColumn SimpleColumnMap
	EntitySets      []*md.EntitySet
	Keys            []SimpleColumnMap
}

// KeyColumns returns the key columns.
func (id *DiscriminatedEntityIdentity) KeyColumns() []SimpleColumnMap { return id.Keys }

// AcceptIdentity calls v.VisitDiscriminatedIdentity.
func (id *DiscriminatedEntityIdentity) AcceptIdentity(v Visitor) error {
	return v.VisitDiscriminatedIdentity(id)
}

func (*DiscriminatedEntityIdentity) entityIdentity() {}
