package md

import (
	"fmt"
	"strings"
)

// TypeKind classifies a Type.
type TypeKind int

const (
	// KindPrimitive is a scalar type such as Int32 or String.
	KindPrimitive TypeKind = iota
	// KindRow is an anonymous record type.
	KindRow
	// KindComplex is a named structural type without identity.
	KindComplex
	// KindEntity is a named type with a key.
	KindEntity
	// KindRef is a reference to an entity type.
	KindRef
	// KindCollection is a multiset of an element type.
	KindCollection
)

var kindNames = [...]string{
	KindPrimitive:  "primitive",
	KindRow:        "row",
	KindComplex:    "complex",
	KindEntity:     "entity",
	KindRef:        "ref",
	KindCollection: "collection",
}

func (k TypeKind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("TypeKind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseTypeKind maps a kind name back to its TypeKind.
func ParseTypeKind(s string) (TypeKind, bool) {
	for i, name := range kindNames {
		if name == s {
			return TypeKind(i), true
		}
	}
	return 0, false
}

// Field is a named member of a structured type.
type Field struct {
	Name string
	Type *Type
}

// Type describes the result type of a scalar op, a var or a column map.
//
// Types are compared structurally by Equal; two separately constructed
// descriptions of Int32 are the same type.
type Type struct {
	Kind     TypeKind
	Name     string
	Nullable bool
	Element  *Type   // KindRef and KindCollection only
	Fields   []Field // KindRow, KindComplex, KindEntity
	Base     *Type   // optional supertype for KindEntity and KindComplex
}

// Primitive returns a nullable primitive type with the given name.
func Primitive(name string) *Type {
	return &Type{Kind: KindPrimitive, Name: name, Nullable: true}
}

// NotNull returns a copy of t that is not nullable.
func NotNull(t *Type) *Type {
	c := *t
	c.Nullable = false
	return &c
}

// CollectionOf returns a collection type of elem.
func CollectionOf(elem *Type) *Type {
	return &Type{Kind: KindCollection, Name: "Collection", Element: elem, Nullable: true}
}

// RefTo returns a reference type to the given entity type.
func RefTo(entity *Type) *Type {
	return &Type{Kind: KindRef, Name: "Ref", Element: entity, Nullable: true}
}

// Common primitive types.
var (
	Boolean = Primitive("Boolean")
	Int32   = Primitive("Int32")
	Int64   = Primitive("Int64")
	String  = Primitive("String")
)

// Equal reports whether t and o describe the same type. Nil only equals nil.
func (t *Type) Equal(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	if t.Kind != o.Kind || t.Name != o.Name || t.Nullable != o.Nullable {
		return false
	}
	if !t.Element.Equal(o.Element) || !t.Base.Equal(o.Base) {
		return false
	}
	if len(t.Fields) != len(o.Fields) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i].Name != o.Fields[i].Name || !t.Fields[i].Type.Equal(o.Fields[i].Type) {
			return false
		}
	}
	return true
}

// IsSubtypeOf reports whether t equals o or derives from it through Base.
func (t *Type) IsSubtypeOf(o *Type) bool {
	for c := t; c != nil; c = c.Base {
		if c.Equal(o) {
			return true
		}
	}
	return false
}

// Field returns the named field of a structured type.
func (t *Type) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	switch t.Kind {
	case KindRef:
		fmt.Fprintf(&b, "Ref(%s)", t.Element)
	case KindCollection:
		fmt.Fprintf(&b, "Collection(%s)", t.Element)
	default:
		b.WriteString(t.Name)
	}
	if !t.Nullable {
		b.WriteString("!")
	}
	return b.String()
}
