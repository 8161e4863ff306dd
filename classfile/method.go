package classfile

type Method struct {
	Name        string
	Descriptor  string
	AccessFlags AccessFlags
	Signature   string

	Exceptions []string
	Parameters []MethodParameter

	VisibleAnnotations       []Annotation
	InvisibleAnnotations     []Annotation
	VisibleTypeAnnotations   []TypeAnnotation
	InvisibleTypeAnnotations []TypeAnnotation

	// Indexed by declared parameter; the tables may be shorter than the
	// descriptor's parameter list.
	VisibleParameterAnnotations   [][]Annotation
	InvisibleParameterAnnotations [][]Annotation

	AnnotationDefault *ElementValue
}

type MethodParameter struct {
	Name        string
	AccessFlags AccessFlags
}

func (m *Method) IsStatic() bool    { return m.AccessFlags.IsStatic() }
func (m *Method) IsBridge() bool    { return m.AccessFlags.IsBridge() }
func (m *Method) IsVarargs() bool   { return m.AccessFlags.IsVarargs() }
func (m *Method) IsSynthetic() bool { return m.AccessFlags.IsSynthetic() }

func (m *Method) IsConstructor() bool {
	return m.Name == "<init>"
}

func (m *Method) IsStaticInitializer() bool {
	return m.Name == "<clinit>"
}

func (m *Method) ParsedDescriptor() *MethodType {
	return ParseMethodDescriptor(m.Descriptor)
}
