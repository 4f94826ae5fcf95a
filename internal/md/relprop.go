package md

// RelationshipEnd is one end of a relationship type.
type RelationshipEnd struct {
	Name string
	Type *Type
}

// Relationship is a relationship type between two ends.
type Relationship struct {
	Name string
	Ends [2]*RelationshipEnd
}

// RelProperty describes navigation across a relationship from one end to the
// other.
//
// Two RelProperties are equal when they refer to the same relationship and the
// same end instances. The descriptors are compared by identity, not by name:
// two relationships that happen to share a name in different containers are
// different properties.
type RelProperty struct {
	Relationship *Relationship
	FromEnd      *RelationshipEnd
	ToEnd        *RelationshipEnd
}

// Equal reports whether p and o describe the same navigation.
func (p RelProperty) Equal(o RelProperty) bool {
	return p.Relationship == o.Relationship && p.FromEnd == o.FromEnd && p.ToEnd == o.ToEnd
}

func (p RelProperty) String() string {
	if p.Relationship == nil || p.FromEnd == nil || p.ToEnd == nil {
		return "<invalid rel property>"
	}
	return p.Relationship.Name + ":" + p.FromEnd.Name + "->" + p.ToEnd.Name
}

// RelPropertySet is an insertion-ordered set of RelProperties.
type RelPropertySet struct {
	props []RelProperty
}

// Add inserts p unless an equal property is already present. It reports
// whether the set changed.
func (s *RelPropertySet) Add(p RelProperty) bool {
	if s.Contains(p) {
		return false
	}
	s.props = append(s.props, p)
	return true
}

// Contains reports whether an equal property is in the set.
func (s *RelPropertySet) Contains(p RelProperty) bool {
	for _, q := range s.props {
		if q.Equal(p) {
			return true
		}
	}
	return false
}

// Len returns the number of properties in the set.
func (s *RelPropertySet) Len() int {
	return len(s.props)
}

// Properties returns the properties in insertion order.
func (s *RelPropertySet) Properties() []RelProperty {
	return append([]RelProperty(nil), s.props...)
}
