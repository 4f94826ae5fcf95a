package colmap

import (
	"fmt"
	"strings"

	"github.com/roach88/plancore/internal/ir"
	"github.com/roach88/plancore/internal/md"
)

// Format renders m one map per line, children indented two spaces. Parts
// other than plain properties are prefixed with a label such as "sentinel:"
// or "key:".
func Format(m ColumnMap) string {
	p := &printer{}
	p.child("", m)
	return p.b.String()
}

type printer struct {
	b     strings.Builder
	depth int
	label string
}

func typeName(t *md.Type) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

func valueString(v ir.Value) string {
	if v == nil {
		return "-"
	}
	return v.String()
}

func (p *printer) line(format string, args ...any) {
	for i := 0; i < p.depth; i++ {
		p.b.WriteString("  ")
	}
	if p.label != "" {
		p.b.WriteString(p.label)
		p.b.WriteString(": ")
		p.label = ""
	}
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

func (p *printer) header(kind string, h Header) string {
	return fmt.Sprintf("%s %s:%s", kind, h.Name, typeName(h.Type))
}

// child prints m one level below the current line.
func (p *printer) child(label string, m ColumnMap) {
	if m == nil {
		return
	}
	p.label = label
	// printer never returns errors.
	_ = m.Accept(p)
}

func (p *printer) nested(fn func()) {
	p.depth++
	fn()
	p.depth--
}

func (p *printer) children(label string, maps []ColumnMap) {
	for _, m := range maps {
		p.child(label, m)
	}
}

func (p *printer) simple(label string, maps []SimpleColumnMap) {
	for _, m := range maps {
		if m != nil {
			p.child(label, m)
		}
	}
}

func (p *printer) optional(label string, m SimpleColumnMap) {
	if m != nil {
		p.child(label, m)
	}
}

func (p *printer) VisitScalar(m *ScalarColumnMap) error {
	p.line("%s cmd=%d col=%d", p.header("Scalar", m.Header), m.CommandID, m.ColumnPos)
	return nil
}

func (p *printer) VisitVarRef(m *VarRefColumnMap) error {
	p.line("%s %s", p.header("VarRef", m.Header), m.Var)
	return nil
}

func (p *printer) VisitRecord(m *RecordColumnMap) error {
	p.line("%s", p.header("Record", m.Header))
	p.nested(func() {
		p.children("", m.Properties)
		p.optional("sentinel", m.NullSentinel)
	})
	return nil
}

func (p *printer) VisitComplexType(m *ComplexTypeColumnMap) error {
	p.line("%s", p.header("ComplexType", m.Header))
	p.nested(func() {
		p.children("", m.Properties)
		p.optional("sentinel", m.NullSentinel)
	})
	return nil
}

func (p *printer) VisitEntity(m *EntityColumnMap) error {
	p.line("%s", p.header("Entity", m.Header))
	p.nested(func() {
		p.children("", m.Properties)
		p.identity(m.Identity)
	})
	return nil
}

func (p *printer) VisitRef(m *RefColumnMap) error {
	p.line("%s", p.header("Ref", m.Header))
	p.nested(func() {
		p.identity(m.Identity)
	})
	return nil
}

func (p *printer) VisitSimpleCollection(m *SimpleCollectionColumnMap) error {
	p.line("%s", p.header("SimpleCollection", m.Header))
	p.nested(func() {
		p.child("element", m.Element)
		p.simple("key", m.Keys)
		p.simple("fk", m.ForeignKeys)
	})
	return nil
}

func (p *printer) VisitDiscriminatedCollection(m *DiscriminatedCollectionColumnMap) error {
	p.line("%s when=%s", p.header("DiscriminatedCollection", m.Header), valueString(m.DiscriminatorValue))
	p.nested(func() {
		p.child("element", m.Element)
		p.simple("key", m.Keys)
		p.simple("fk", m.ForeignKeys)
		p.optional("discriminator", m.Discriminator)
	})
	return nil
}

func (p *printer) VisitSimplePolymorphic(m *SimplePolymorphicColumnMap) error {
	p.line("%s", p.header("SimplePolymorphic", m.Header))
	p.nested(func() {
		p.children("", m.BaseTypeColumns)
		p.optional("discriminator", m.TypeDiscriminator)
		for _, c := range m.TypeChoices {
			p.child("when "+valueString(c.Value), c.Map)
		}
	})
	return nil
}

func (p *printer) VisitMultipleDiscriminatorPolymorphic(m *MultipleDiscriminatorPolymorphicColumnMap) error {
	p.line("%s", p.header("MultipleDiscriminatorPolymorphic", m.Header))
	p.nested(func() {
		p.children("", m.BaseTypeColumns)
		p.simple("discriminator", m.TypeDiscriminators)
		for _, c := range m.TypeChoices {
			p.child(fmt.Sprintf("when %s", typeName(c.Type)), c.Map)
		}
	})
	return nil
}

func (p *printer) identity(id EntityIdentity) {
	if id == nil {
		return
	}
	p.label = "identity"
	_ = id.AcceptIdentity(p)
}

func (p *printer) VisitSimpleIdentity(id *SimpleEntityIdentity) error {
	set := "-"
	if id.EntitySet != nil {
		set = id.EntitySet.String()
	}
	p.line("SimpleIdentity set=%s", set)
	p.nested(func() {
		p.simple("key", id.Keys)
	})
	return nil
}

func (p *printer) VisitDiscriminatedIdentity(id *DiscriminatedEntityIdentity) error {
	sets := make([]string, len(id.EntitySets))
	for i, s := range id.EntitySets {
		sets[i] = s.String()
	}
	p.line("DiscriminatedIdentity sets=[%s]", strings.Join(sets, ","))
	p.nested(func() {
		p.optional("entity-set", id.EntitySetColumn)
		p.simple("key", id.Keys)
	})
	return nil
}
