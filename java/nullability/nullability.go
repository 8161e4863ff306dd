// Package nullability derives nullness hints for fields, method returns
// and method parameters from the annotations compiled into class files.
package nullability

import (
	"sort"
	"strings"

	"github.com/dhamidi/linkage/classfile"
)

// State is the nullness of one value. The zero value is Platform: nothing
// is known.
type State int

const (
	Platform State = iota
	NonNull
	Nullable
)

func (s State) String() string {
	switch s {
	case NonNull:
		return "NON_NULL"
	case Nullable:
		return "NULLABLE"
	}
	return "PLATFORM"
}

type set map[string]bool

var (
	nonNullAnnotations = set{
		"Lorg/jetbrains/annotations/NotNull;":                  true,
		"Ljavax/annotation/Nonnull;":                           true,
		"Landroidx/annotation/NonNull;":                        true,
		"Lorg/checkerframework/checker/nullness/qual/NonNull;": true,
	}
	nullableAnnotations = set{
		"Lorg/jetbrains/annotations/Nullable;":                  true,
		"Ljavax/annotation/Nullable;":                           true,
		"Landroidx/annotation/Nullable;":                        true,
		"Lorg/checkerframework/checker/nullness/qual/Nullable;": true,
	}
	nonNullDefaults = set{
		"Ljavax/annotation/ParametersAreNonnullByDefault;": true,
		"Lorg/springframework/lang/NonNullApi;":            true,
		"Lorg/jspecify/annotations/NullMarked;":            true,
	}
	nullableDefaults = set{
		"Lorg/jspecify/annotations/NullUnmarked;": true,
	}
)

type Method struct {
	Name       string
	Descriptor string
	Return     State
	Parameters []State
}

type Class struct {
	Name    string
	Default State
	// Fields are keyed by name:descriptor.
	Fields map[string]State
	// Methods are keyed by name+descriptor.
	Methods map[string]Method
}

type Result struct {
	Classes         map[string]Class
	PackageDefaults map[string]State
}

// Field returns the nullness of a field, Platform when unknown.
func (r Result) Field(owner, name, descriptor string) State {
	return r.Classes[owner].Fields[name+":"+descriptor]
}

// Method looks up a method by owner, name and descriptor.
func (r Result) Method(owner, name, descriptor string) (Method, bool) {
	m, ok := r.Classes[owner].Methods[name+descriptor]
	return m, ok
}

// Parameters returns n parameter states for a method, padding with
// Platform where the analysis has nothing.
func (r Result) Parameters(owner, name, descriptor string, n int) []State {
	states := make([]State, n)
	if m, ok := r.Method(owner, name, descriptor); ok {
		copy(states, m.Parameters)
	}
	return states
}

// Analyze computes nullness for classes. package-info classes contribute
// package defaults and are not reported themselves.
func Analyze(classes []*classfile.ClassDescriptor) Result {
	sorted := append([]*classfile.ClassDescriptor(nil), classes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	res := Result{Classes: map[string]Class{}, PackageDefaults: map[string]State{}}
	for _, cd := range sorted {
		if !isPackageInfo(cd.Name) {
			continue
		}
		s := explicit(nonNullDefaults, nullableDefaults, cd.VisibleAnnotations, cd.InvisibleAnnotations)
		if s != Platform {
			res.PackageDefaults[classfile.PackageOf(cd.Name)] = s
		}
	}

	for _, cd := range sorted {
		if isPackageInfo(cd.Name) {
			continue
		}
		def := explicit(nonNullDefaults, nullableDefaults, cd.VisibleAnnotations, cd.InvisibleAnnotations)
		if def == Platform {
			def = res.PackageDefaults[classfile.PackageOf(cd.Name)]
		}
		c := Class{Name: cd.Name, Default: def, Fields: map[string]State{}, Methods: map[string]Method{}}
		for _, f := range cd.Fields {
			s := explicit(nonNullAnnotations, nullableAnnotations,
				f.VisibleAnnotations, f.InvisibleAnnotations,
				typeAnnotations(classfile.TargetField, -1, f.VisibleTypeAnnotations, f.InvisibleTypeAnnotations))
			c.Fields[f.Name+":"+f.Descriptor] = orDefault(s, def)
		}
		for _, m := range cd.Methods {
			if m.Name == "<init>" || m.Name == "<clinit>" {
				continue
			}
			ret := explicit(nonNullAnnotations, nullableAnnotations,
				m.VisibleAnnotations, m.InvisibleAnnotations,
				typeAnnotations(classfile.TargetReturn, -1, m.VisibleTypeAnnotations, m.InvisibleTypeAnnotations))
			c.Methods[m.Name+m.Descriptor] = Method{
				Name:       m.Name,
				Descriptor: m.Descriptor,
				Return:     orDefault(ret, def),
				Parameters: parameters(m, def),
			}
		}
		res.Classes[cd.Name] = c
	}
	return res
}

func parameters(m classfile.Method, def State) []State {
	n := classfile.ParameterCount(m.Descriptor)
	if n < 0 {
		n = 0
	}
	n = max(n, len(m.VisibleParameterAnnotations), len(m.InvisibleParameterAnnotations))
	states := make([]State, n)
	for i := range states {
		s := explicit(nonNullAnnotations, nullableAnnotations,
			at(m.VisibleParameterAnnotations, i), at(m.InvisibleParameterAnnotations, i),
			typeAnnotations(classfile.TargetFormalParameter, i, m.VisibleTypeAnnotations, m.InvisibleTypeAnnotations))
		states[i] = orDefault(s, def)
	}
	return states
}

func at(table [][]classfile.Annotation, i int) []classfile.Annotation {
	if i < len(table) {
		return table[i]
	}
	return nil
}

// typeAnnotations selects the annotations on the outermost type of one
// target. index picks the formal parameter and is ignored otherwise.
func typeAnnotations(target uint8, index int, groups ...[]classfile.TypeAnnotation) []classfile.Annotation {
	var out []classfile.Annotation
	for _, tas := range groups {
		for _, ta := range tas {
			if !ta.OnType(target) {
				continue
			}
			if target == classfile.TargetFormalParameter && ta.ParameterIndex != index {
				continue
			}
			out = append(out, ta.Annotation)
		}
	}
	return out
}

// explicit reads a state from annotations. A nullable marker beats a
// non-null one.
func explicit(nonNull, nullable set, groups ...[]classfile.Annotation) State {
	found := Platform
	for _, group := range groups {
		for _, a := range group {
			if nullable[a.Type] {
				return Nullable
			}
			if nonNull[a.Type] {
				found = NonNull
			}
		}
	}
	return found
}

func orDefault(s, def State) State {
	if s == Platform {
		return def
	}
	return s
}

func isPackageInfo(name string) bool {
	return name == "package-info" || strings.HasSuffix(name, "/package-info")
}
