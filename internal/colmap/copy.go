package colmap

import (
	"github.com/cockroachdb/errors"

	"github.com/roach88/plancore/internal/ir"
	"github.com/roach88/plancore/internal/md"
)

// Copy returns a full clone of m in which every var reference is replaced by
// the end of its replacement chain in replacements (see ir.VarMap.Resolve).
// A nil replacements map copies vars unchanged.
//
// Every column map and identity in the result is freshly allocated, even
// where the source shares a sub-map between two parents; types, entity sets
// and discriminator values are immutable metadata and are shared.
//
// Copy panics with an assertion failure on a
// MultipleDiscriminatorPolymorphicColumnMap, which is never copied.
func Copy(m ColumnMap, replacements *ir.VarMap) ColumnMap {
	if m == nil {
		return nil
	}
	return Transform[ColumnMap, EntityIdentity](copier{vm: replacements}, m)
}

type copier struct {
	vm *ir.VarMap
}

var _ Transformer[ColumnMap, EntityIdentity] = copier{}

func (c copier) copy(m ColumnMap) ColumnMap {
	if m == nil {
		return nil
	}
	return Transform[ColumnMap, EntityIdentity](c, m)
}

func (c copier) copySimple(m SimpleColumnMap) SimpleColumnMap {
	if m == nil {
		return nil
	}
	return Transform[ColumnMap, EntityIdentity](c, m).(SimpleColumnMap)
}

func (c copier) copyList(maps []ColumnMap) []ColumnMap {
	if maps == nil {
		return nil
	}
	out := make([]ColumnMap, len(maps))
	for i, m := range maps {
		out[i] = c.copy(m)
	}
	return out
}

func (c copier) copySimpleList(maps []SimpleColumnMap) []SimpleColumnMap {
	if maps == nil {
		return nil
	}
	out := make([]SimpleColumnMap, len(maps))
	for i, m := range maps {
		out[i] = c.copySimple(m)
	}
	return out
}

func (c copier) copyIdentity(id EntityIdentity) EntityIdentity {
	if id == nil {
		return nil
	}
	return TransformIdentity[ColumnMap, EntityIdentity](c, id)
}

func (c copier) TransformScalar(m *ScalarColumnMap) ColumnMap {
	cp := *m
	return &cp
}

func (c copier) TransformVarRef(m *VarRefColumnMap) ColumnMap {
	return &VarRefColumnMap{Header: m.Header, Var: c.vm.Resolve(m.Var)}
}

func (c copier) TransformRecord(m *RecordColumnMap) ColumnMap {
	return &RecordColumnMap{
		Header:       m.Header,
		Properties:   c.copyList(m.Properties),
		NullSentinel: c.copySimple(m.NullSentinel),
	}
}

func (c copier) TransformComplexType(m *ComplexTypeColumnMap) ColumnMap {
	return &ComplexTypeColumnMap{
		Header:       m.Header,
		Properties:   c.copyList(m.Properties),
		NullSentinel: c.copySimple(m.NullSentinel),
	}
}

func (c copier) TransformEntity(m *EntityColumnMap) ColumnMap {
	return &EntityColumnMap{
		Header:     m.Header,
		Properties: c.copyList(m.Properties),
		Identity:   c.copyIdentity(m.Identity),
	}
}

func (c copier) TransformRef(m *RefColumnMap) ColumnMap {
	return &RefColumnMap{Header: m.Header, Identity: c.copyIdentity(m.Identity)}
}

func (c copier) TransformSimpleCollection(m *SimpleCollectionColumnMap) ColumnMap {
	return &SimpleCollectionColumnMap{
		Header:      m.Header,
		Element:     c.copy(m.Element),
		Keys:        c.copySimpleList(m.Keys),
		ForeignKeys: c.copySimpleList(m.ForeignKeys),
	}
}

func (c copier) TransformDiscriminatedCollection(m *DiscriminatedCollectionColumnMap) ColumnMap {
	return &DiscriminatedCollectionColumnMap{
		Header:             m.Header,
		Element:            c.copy(m.Element),
		Keys:               c.copySimpleList(m.Keys),
		ForeignKeys:        c.copySimpleList(m.ForeignKeys),
		Discriminator:      c.copySimple(m.Discriminator),
		DiscriminatorValue: m.DiscriminatorValue,
	}
}

func (c copier) TransformSimplePolymorphic(m *SimplePolymorphicColumnMap) ColumnMap {
	var choices []TypeChoice
	if m.TypeChoices != nil {
		choices = make([]TypeChoice, len(m.TypeChoices))
		for i, tc := range m.TypeChoices {
			choices[i] = TypeChoice{Value: tc.Value, Map: c.copy(tc.Map)}
		}
	}
	return &SimplePolymorphicColumnMap{
		Header:            m.Header,
		BaseTypeColumns:   c.copyList(m.BaseTypeColumns),
		TypeDiscriminator: c.copySimple(m.TypeDiscriminator),
		TypeChoices:       choices,
	}
}

func (c copier) TransformMultipleDiscriminatorPolymorphic(m *MultipleDiscriminatorPolymorphicColumnMap) ColumnMap {
	panic(errors.AssertionFailedf("copying multiple-discriminator polymorphic column map %q is not supported", m.Name))
}

func (c copier) TransformSimpleIdentity(id *SimpleEntityIdentity) EntityIdentity {
	return &SimpleEntityIdentity{EntitySet: id.EntitySet, Keys: c.copySimpleList(id.Keys)}
}

func (c copier) TransformDiscriminatedIdentity(id *DiscriminatedEntityIdentity) EntityIdentity {
	var sets []*md.EntitySet
	if id.EntitySets != nil {
		sets = append(make([]*md.EntitySet, 0, len(id.EntitySets)), id.EntitySets...)
	}
	return &DiscriminatedEntityIdentity{
		EntitySetColumn: c.copySimple(id.EntitySetColumn),
		EntitySets:      sets,
		Keys:            c.copySimpleList(id.Keys),
	}
}
