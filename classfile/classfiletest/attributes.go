package classfiletest

// Value encodes one annotation element_value.
type Value func(c *Class, b *Buf)

type Pair struct {
	Name  string
	Value Value
}

// Ann is an annotation whose Type is a field descriptor.
type Ann struct {
	Type     string
	Elements []Pair
}

// A returns an annotation without elements.
func A(descriptor string) Ann { return Ann{Type: descriptor} }

func Str(s string) Value {
	return func(c *Class, b *Buf) { b.U1('s').U2(c.Pool.Utf8(s)) }
}

func Int(v int32) Value {
	return func(c *Class, b *Buf) { b.U1('I').U2(c.Pool.Integer(v)) }
}

func Long(v int64) Value {
	return func(c *Class, b *Buf) { b.U1('J').U2(c.Pool.Long(v)) }
}

func Bool(v bool) Value {
	i := int32(0)
	if v {
		i = 1
	}
	return func(c *Class, b *Buf) { b.U1('Z').U2(c.Pool.Integer(i)) }
}

func Enum(typeDescriptor, name string) Value {
	return func(c *Class, b *Buf) { b.U1('e').U2(c.Pool.Utf8(typeDescriptor)).U2(c.Pool.Utf8(name)) }
}

func ClassValue(descriptor string) Value {
	return func(c *Class, b *Buf) { b.U1('c').U2(c.Pool.Utf8(descriptor)) }
}

func Nested(a Ann) Value {
	return func(c *Class, b *Buf) { b.U1('@'); c.writeAnnotation(b, a) }
}

func Array(values ...Value) Value {
	return func(c *Class, b *Buf) {
		b.U1('[').U2(uint16(len(values)))
		for _, v := range values {
			v(c, b)
		}
	}
}

// BadTag writes an element value with an undefined tag.
func BadTag(tag byte) Value {
	return func(c *Class, b *Buf) { b.U1(tag).U2(1) }
}

func (c *Class) writeAnnotation(b *Buf, a Ann) {
	b.U2(c.Pool.Utf8(a.Type)).U2(uint16(len(a.Elements)))
	for _, e := range a.Elements {
		b.U2(c.Pool.Utf8(e.Name))
		e.Value(c, b)
	}
}

func (c *Class) Signature(sig string) Attribute {
	var b Buf
	b.U2(c.Pool.Utf8(sig))
	return Attribute{Name: "Signature", Data: b.Bytes()}
}

// Annotations builds RuntimeVisibleAnnotations, or the invisible variant
// when visible is false.
func (c *Class) Annotations(visible bool, anns ...Ann) Attribute {
	var b Buf
	b.U2(uint16(len(anns)))
	for _, a := range anns {
		c.writeAnnotation(&b, a)
	}
	name := "RuntimeInvisibleAnnotations"
	if visible {
		name = "RuntimeVisibleAnnotations"
	}
	return Attribute{Name: name, Data: b.Bytes()}
}

func (c *Class) ParameterAnnotations(visible bool, params ...[]Ann) Attribute {
	var b Buf
	b.U1(uint8(len(params)))
	for _, anns := range params {
		b.U2(uint16(len(anns)))
		for _, a := range anns {
			c.writeAnnotation(&b, a)
		}
	}
	name := "RuntimeInvisibleParameterAnnotations"
	if visible {
		name = "RuntimeVisibleParameterAnnotations"
	}
	return Attribute{Name: name, Data: b.Bytes()}
}

// TypeAnnotation is one type_annotation entry. TargetInfo holds the raw
// target_info bytes and Path the raw type_path entries.
type TypeAnnotation struct {
	TargetType uint8
	TargetInfo []byte
	Path       []byte
	Ann        Ann
}

func (c *Class) TypeAnnotations(visible bool, anns ...TypeAnnotation) Attribute {
	var b Buf
	b.U2(uint16(len(anns)))
	for _, ta := range anns {
		b.U1(ta.TargetType).Raw(ta.TargetInfo)
		b.U1(uint8(len(ta.Path) / 2)).Raw(ta.Path)
		c.writeAnnotation(&b, ta.Ann)
	}
	name := "RuntimeInvisibleTypeAnnotations"
	if visible {
		name = "RuntimeVisibleTypeAnnotations"
	}
	return Attribute{Name: name, Data: b.Bytes()}
}

func (c *Class) Exceptions(names ...string) Attribute {
	return Attribute{Name: "Exceptions", Data: c.classList(names)}
}

func (c *Class) NestHost(name string) Attribute {
	var b Buf
	b.U2(c.Pool.Class(name))
	return Attribute{Name: "NestHost", Data: b.Bytes()}
}

func (c *Class) NestMembers(names ...string) Attribute {
	return Attribute{Name: "NestMembers", Data: c.classList(names)}
}

func (c *Class) PermittedSubclasses(names ...string) Attribute {
	return Attribute{Name: "PermittedSubclasses", Data: c.classList(names)}
}

func (c *Class) classList(names []string) []byte {
	var b Buf
	b.U2(uint16(len(names)))
	for _, n := range names {
		b.U2(c.Pool.Class(n))
	}
	return b.Bytes()
}

type Inner struct {
	Inner, Outer, SimpleName string
	Flags                    uint16
}

func (c *Class) InnerClasses(entries ...Inner) Attribute {
	var b Buf
	b.U2(uint16(len(entries)))
	for _, e := range entries {
		b.U2(c.Pool.Class(e.Inner))
		if e.Outer == "" {
			b.U2(0)
		} else {
			b.U2(c.Pool.Class(e.Outer))
		}
		if e.SimpleName == "" {
			b.U2(0)
		} else {
			b.U2(c.Pool.Utf8(e.SimpleName))
		}
		b.U2(e.Flags)
	}
	return Attribute{Name: "InnerClasses", Data: b.Bytes()}
}

func (c *Class) EnclosingMethod(class, name, descriptor string) Attribute {
	var b Buf
	b.U2(c.Pool.Class(class))
	if name == "" {
		b.U2(0)
	} else {
		b.U2(c.Pool.NameAndType(name, descriptor))
	}
	return Attribute{Name: "EnclosingMethod", Data: b.Bytes()}
}

type Param struct {
	Name  string
	Flags uint16
}

func (c *Class) MethodParameters(params ...Param) Attribute {
	var b Buf
	b.U1(uint8(len(params)))
	for _, p := range params {
		b.U2(c.Pool.Utf8(p.Name)).U2(p.Flags)
	}
	return Attribute{Name: "MethodParameters", Data: b.Bytes()}
}

func (c *Class) AnnotationDefault(v Value) Attribute {
	var b Buf
	v(c, &b)
	return Attribute{Name: "AnnotationDefault", Data: b.Bytes()}
}

type Component struct {
	Name, Descriptor string
	Attributes       []Attribute
}

func (c *Class) Record(components ...Component) Attribute {
	var b Buf
	b.U2(uint16(len(components)))
	for _, rc := range components {
		b.U2(c.Pool.Utf8(rc.Name)).U2(c.Pool.Utf8(rc.Descriptor))
		c.writeAttributes(&b, rc.Attributes)
	}
	return Attribute{Name: "Record", Data: b.Bytes()}
}

// Export is an exports or opens directive; To makes it qualified.
type Export struct {
	Package string
	To      []string
}

// ModuleSpec describes a Module attribute. Package names are in internal
// form.
type ModuleSpec struct {
	Name     string
	Version  string
	Requires []string
	Exports  []Export
	Opens    []Export
	Uses     []string
	Provides map[string][]string
}

func (c *Class) Module(m ModuleSpec) Attribute {
	var b Buf
	b.U2(c.Pool.Module(m.Name)).U2(0)
	if m.Version == "" {
		b.U2(0)
	} else {
		b.U2(c.Pool.Utf8(m.Version))
	}
	b.U2(uint16(len(m.Requires)))
	for _, r := range m.Requires {
		b.U2(c.Pool.Module(r)).U2(0).U2(0)
	}
	c.writeExports(&b, m.Exports)
	c.writeExports(&b, m.Opens)
	b.U2(uint16(len(m.Uses)))
	for _, u := range m.Uses {
		b.U2(c.Pool.Class(u))
	}
	b.U2(uint16(len(m.Provides)))
	for _, service := range sortedKeys(m.Provides) {
		b.U2(c.Pool.Class(service))
		b.Raw(c.classList(m.Provides[service]))
	}
	return Attribute{Name: "Module", Data: b.Bytes()}
}

func (c *Class) writeExports(b *Buf, exports []Export) {
	b.U2(uint16(len(exports)))
	for _, e := range exports {
		b.U2(c.Pool.Package(e.Package)).U2(0).U2(uint16(len(e.To)))
		for _, to := range e.To {
			b.U2(c.Pool.Module(to))
		}
	}
}

func (c *Class) ModulePackages(packages ...string) Attribute {
	var b Buf
	b.U2(uint16(len(packages)))
	for _, p := range packages {
		b.U2(c.Pool.Package(p))
	}
	return Attribute{Name: "ModulePackages", Data: b.Bytes()}
}

// ModuleInfo returns the bytes of a module-info class for m.
func ModuleInfo(m ModuleSpec) []byte {
	c := New("module-info")
	c.Major = 53
	c.Flags = Module
	c.Super = ""
	return c.Attr(c.Module(m)).Bytes()
}
