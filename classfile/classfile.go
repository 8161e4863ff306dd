package classfile

import "strings"

// ClassDescriptor is the decoded structure of one class file. It is not
// modified after Read returns and may be shared freely.
type ClassDescriptor struct {
	Path         string
	MinorVersion uint16
	MajorVersion uint16
	AccessFlags  AccessFlags

	// Name and SuperName are in internal form (java/lang/Object).
	// SuperName is empty only for java/lang/Object and module-info.
	Name       string
	SuperName  string
	Interfaces []string
	Signature  string

	VisibleAnnotations       []Annotation
	InvisibleAnnotations     []Annotation
	VisibleTypeAnnotations   []TypeAnnotation
	InvisibleTypeAnnotations []TypeAnnotation

	Fields  []Field
	Methods []Method

	InnerClasses        []InnerClass
	EnclosingMethod     *EnclosingMethod
	NestHost            string
	NestMembers         []string
	RecordComponents    []RecordComponent
	PermittedSubclasses []string

	Module         *Module
	ModulePackages []string
}

type InnerClass struct {
	Inner       string
	Outer       string
	SimpleName  string
	AccessFlags AccessFlags
}

type EnclosingMethod struct {
	Class      string
	Name       string
	Descriptor string
}

type RecordComponent struct {
	Name       string
	Descriptor string
	Signature  string

	VisibleAnnotations       []Annotation
	InvisibleAnnotations     []Annotation
	VisibleTypeAnnotations   []TypeAnnotation
	InvisibleTypeAnnotations []TypeAnnotation
}

// PackageName returns the internal package name, empty for the default package.
func (cd *ClassDescriptor) PackageName() string {
	return PackageOf(cd.Name)
}

func (cd *ClassDescriptor) IsInterface() bool {
	return cd.AccessFlags.IsInterface() && !cd.AccessFlags.IsAnnotation()
}

func (cd *ClassDescriptor) IsModuleInfo() bool {
	return cd.AccessFlags.IsModule()
}

func (cd *ClassDescriptor) Field(name string) *Field {
	for i := range cd.Fields {
		if cd.Fields[i].Name == name {
			return &cd.Fields[i]
		}
	}
	return nil
}

// Method finds a method by name and descriptor. An empty descriptor
// matches the first method with that name.
func (cd *ClassDescriptor) Method(name, descriptor string) *Method {
	for i := range cd.Methods {
		m := &cd.Methods[i]
		if m.Name == name && (descriptor == "" || m.Descriptor == descriptor) {
			return m
		}
	}
	return nil
}

func (cd *ClassDescriptor) MethodsNamed(name string) []*Method {
	var methods []*Method
	for i := range cd.Methods {
		if cd.Methods[i].Name == name {
			methods = append(methods, &cd.Methods[i])
		}
	}
	return methods
}

// PackageOf returns the package part of an internal class name.
func PackageOf(internalName string) string {
	slash := strings.LastIndexByte(internalName, '/')
	if slash < 0 {
		return ""
	}
	return internalName[:slash]
}
