package classfiletest

// Access flag bits used by fixtures.
const (
	Public    uint16 = 0x0001
	Private   uint16 = 0x0002
	Protected uint16 = 0x0004
	Static    uint16 = 0x0008
	Final     uint16 = 0x0010
	Super     uint16 = 0x0020
	Bridge    uint16 = 0x0040
	Varargs   uint16 = 0x0080
	Interface uint16 = 0x0200
	Abstract  uint16 = 0x0400
	Synthetic uint16 = 0x1000
	Module    uint16 = 0x8000
)

type Attribute struct {
	Name string
	Data []byte
}

type Member struct {
	Flags      uint16
	Name       string
	Descriptor string
	Attributes []Attribute
}

// Class is a class file under construction. Attribute helpers intern
// their constants in the class's Pool, so attributes must be built from
// the class they are attached to.
type Class struct {
	Major      uint16
	Minor      uint16
	Flags      uint16
	Name       string
	Super      string
	Interfaces []string
	Fields     []Member
	Methods    []Member
	Attributes []Attribute
	Pool       *Pool
}

// New returns a public class extending java/lang/Object at Java 8.
func New(name string) *Class {
	return &Class{
		Major: 52,
		Flags: Public | Super,
		Name:  name,
		Super: "java/lang/Object",
		Pool:  NewPool(),
	}
}

// NewInterface returns a public abstract interface at Java 8.
func NewInterface(name string) *Class {
	c := New(name)
	c.Flags = Public | Interface | Abstract
	return c
}

func (c *Class) Extends(super string) *Class {
	c.Super = super
	return c
}

func (c *Class) Implements(names ...string) *Class {
	c.Interfaces = append(c.Interfaces, names...)
	return c
}

func (c *Class) Version(major uint16) *Class {
	c.Major = major
	return c
}

func (c *Class) Field(flags uint16, name, descriptor string, attrs ...Attribute) *Class {
	c.Fields = append(c.Fields, Member{Flags: flags, Name: name, Descriptor: descriptor, Attributes: attrs})
	return c
}

func (c *Class) Method(flags uint16, name, descriptor string, attrs ...Attribute) *Class {
	c.Methods = append(c.Methods, Member{Flags: flags, Name: name, Descriptor: descriptor, Attributes: attrs})
	return c
}

func (c *Class) Attr(attrs ...Attribute) *Class {
	c.Attributes = append(c.Attributes, attrs...)
	return c
}

// Bytes serializes the class. Members and attributes are encoded before
// the pool so every constant they need is interned first.
func (c *Class) Bytes() []byte {
	var body Buf
	body.U2(c.Flags)
	body.U2(c.Pool.Class(c.Name))
	if c.Super == "" {
		body.U2(0)
	} else {
		body.U2(c.Pool.Class(c.Super))
	}
	body.U2(uint16(len(c.Interfaces)))
	for _, i := range c.Interfaces {
		body.U2(c.Pool.Class(i))
	}
	c.writeMembers(&body, c.Fields)
	c.writeMembers(&body, c.Methods)
	c.writeAttributes(&body, c.Attributes)

	var out Buf
	out.U4(0xCAFEBABE).U2(c.Minor).U2(c.Major)
	out.Raw(c.Pool.Bytes())
	out.Raw(body.Bytes())
	return out.Bytes()
}

func (c *Class) writeMembers(b *Buf, members []Member) {
	b.U2(uint16(len(members)))
	for _, m := range members {
		b.U2(m.Flags).U2(c.Pool.Utf8(m.Name)).U2(c.Pool.Utf8(m.Descriptor))
		c.writeAttributes(b, m.Attributes)
	}
}

func (c *Class) writeAttributes(b *Buf, attrs []Attribute) {
	b.U2(uint16(len(attrs)))
	for _, a := range attrs {
		b.U2(c.Pool.Utf8(a.Name)).U4(uint32(len(a.Data))).Raw(a.Data)
	}
}
