package classfile

import (
	"fmt"
	"strings"
)

type Annotation struct {
	// Type is a field descriptor such as Lorg/jspecify/annotations/NullMarked;
	Type     string
	Elements []ElementPair
}

type ElementPair struct {
	Name  string
	Value ElementValue
}

// ElementValue is one annotation element. Tag selects which of the
// remaining fields is meaningful:
//
//	B C D F I J S Z s  Const
//	e                  EnumType, EnumName
//	c                  Class (a return descriptor)
//	@                  Annotation
//	[                  Array
type ElementValue struct {
	Tag        byte
	Const      string
	EnumType   string
	EnumName   string
	Class      string
	Annotation *Annotation
	Array      []ElementValue
}

func (v ElementValue) String() string {
	switch v.Tag {
	case 'e':
		return v.EnumType + "." + v.EnumName
	case 'c':
		return v.Class
	case '@':
		if v.Annotation == nil {
			return "@"
		}
		return "@" + v.Annotation.Type
	case '[':
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return v.Const
}

// Value returns the element named name.
func (a Annotation) Value(name string) (ElementValue, bool) {
	for _, e := range a.Elements {
		if e.Name == name {
			return e.Value, true
		}
	}
	return ElementValue{}, false
}

// TypeAnnotation keeps the target kind, the formal parameter index for
// 0x16 targets and the type path length. Other target info is dropped.
type TypeAnnotation struct {
	TargetType uint8
	// ParameterIndex is only meaningful when TargetType is 0x16.
	ParameterIndex int
	// PathLength is zero when the annotation applies to the outermost type.
	PathLength int
	Annotation Annotation
}

// Target kinds used by nullness analysis.
const (
	TargetField           uint8 = 0x13
	TargetReturn          uint8 = 0x14
	TargetReceiver        uint8 = 0x15
	TargetFormalParameter uint8 = 0x16
)

// OnType reports whether ta annotates the outermost type of target.
func (ta TypeAnnotation) OnType(target uint8) bool {
	return ta.TargetType == target && ta.PathLength == 0
}

func (d *decoder) readAnnotations(r *reader) []Annotation {
	count := int(r.u2())
	annotations := make([]Annotation, 0, count)
	for i := 0; i < count && r.err == nil; i++ {
		annotations = append(annotations, d.readAnnotation(r))
	}
	return annotations
}

func (d *decoder) readParameterAnnotations(r *reader) [][]Annotation {
	count := int(r.u1())
	params := make([][]Annotation, 0, count)
	for i := 0; i < count && r.err == nil; i++ {
		params = append(params, d.readAnnotations(r))
	}
	return params
}

func (d *decoder) readAnnotation(r *reader) Annotation {
	a := Annotation{Type: d.cp.utf8(r, r.u2())}
	pairs := int(r.u2())
	for i := 0; i < pairs && r.err == nil; i++ {
		name := d.cp.utf8(r, r.u2())
		a.Elements = append(a.Elements, ElementPair{Name: name, Value: d.readElementValue(r)})
	}
	return a
}

func (d *decoder) readElementValue(r *reader) ElementValue {
	v := ElementValue{Tag: r.u1()}
	if r.err != nil {
		return v
	}
	switch v.Tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		v.Const = d.cp.literal(r, r.u2(), v.Tag)
	case 'e':
		v.EnumType = d.cp.utf8(r, r.u2())
		v.EnumName = d.cp.utf8(r, r.u2())
	case 'c':
		v.Class = d.cp.utf8(r, r.u2())
	case '@':
		nested := d.readAnnotation(r)
		v.Annotation = &nested
	case '[':
		count := int(r.u2())
		for i := 0; i < count && r.err == nil; i++ {
			v.Array = append(v.Array, d.readElementValue(r))
		}
	default:
		r.fail(fmt.Errorf("%w: element value tag %q", ErrUnknownTag, v.Tag))
	}
	return v
}

func (d *decoder) readTypeAnnotations(r *reader) []TypeAnnotation {
	count := int(r.u2())
	annotations := make([]TypeAnnotation, 0, count)
	for i := 0; i < count && r.err == nil; i++ {
		ta := TypeAnnotation{TargetType: r.u1()}
		ta.ParameterIndex = readTypeAnnotationTarget(r, ta.TargetType)
		ta.PathLength = int(r.u1())
		r.take(ta.PathLength * 2)
		ta.Annotation = d.readAnnotation(r)
		annotations = append(annotations, ta)
	}
	return annotations
}

// readTypeAnnotationTarget consumes the target_info union for target and
// returns the formal parameter index, or -1 for other targets.
func readTypeAnnotationTarget(r *reader, target uint8) int {
	if r.err != nil {
		return -1
	}
	switch {
	case target == 0x00 || target == 0x01: // type parameter
		r.take(1)
	case target == 0x10: // supertype
		r.take(2)
	case target == 0x11 || target == 0x12: // type parameter bound
		r.take(2)
	case target >= 0x13 && target <= 0x15: // empty
	case target == TargetFormalParameter:
		return int(r.u1())
	case target == 0x17: // throws
		r.take(2)
	case target == 0x40 || target == 0x41: // localvar
		r.take(int(r.u2()) * 6)
	case target == 0x42: // catch
		r.take(2)
	case target >= 0x43 && target <= 0x46: // offset
		r.take(2)
	case target >= 0x47 && target <= 0x4B: // type argument
		r.take(3)
	default:
		r.fail(fmt.Errorf("%w: type annotation target 0x%02X", ErrUnknownTag, target))
	}
	return -1
}
