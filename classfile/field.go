package classfile

type Field struct {
	Name        string
	Descriptor  string
	AccessFlags AccessFlags
	Signature   string

	VisibleAnnotations       []Annotation
	InvisibleAnnotations     []Annotation
	VisibleTypeAnnotations   []TypeAnnotation
	InvisibleTypeAnnotations []TypeAnnotation
}

func (f *Field) IsStatic() bool { return f.AccessFlags.IsStatic() }

func (f *Field) ParsedDescriptor() *FieldType {
	return ParseFieldDescriptor(f.Descriptor)
}
