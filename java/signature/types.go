// Package signature models generic JVM types and parses the Signature
// attribute grammar, falling back to erased descriptors when a signature
// is missing or not understood.
package signature

import (
	"strings"
)

// Type is one of Primitive, ClassType, ParameterizedType, ArrayType,
// TypeVariable, Wildcard or Intersection.
type Type interface {
	String() string
	isType()
}

type PrimitiveKind int

const (
	Boolean PrimitiveKind = iota
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
	Void
)

var primitiveNames = [...]string{"boolean", "byte", "char", "short", "int", "long", "float", "double", "void"}

var primitiveCodes = [...]byte{'Z', 'B', 'C', 'S', 'I', 'J', 'F', 'D', 'V'}

func (k PrimitiveKind) String() string { return primitiveNames[k] }

// Descriptor returns the one-letter descriptor code.
func (k PrimitiveKind) Descriptor() byte { return primitiveCodes[k] }

// PrimitiveFor maps a descriptor code to its kind.
func PrimitiveFor(code byte) (PrimitiveKind, bool) {
	for i, c := range primitiveCodes {
		if c == code {
			return PrimitiveKind(i), true
		}
	}
	return 0, false
}

type Primitive struct {
	Kind PrimitiveKind
}

// ClassType is a raw or non-generic class reference in internal form.
type ClassType struct {
	InternalName string
}

// ParameterizedType is a class with type arguments, or an inner class of
// a generic owner. InternalName of an inner class joins segments with '$'.
type ParameterizedType struct {
	InternalName string
	Arguments    []Type
	Owner        Type
}

type ArrayType struct {
	Element Type
}

type TypeVariable struct {
	Name string
}

type Variance int

const (
	Unbounded Variance = iota
	Extends
	Super
)

// Wildcard is a type argument of the form ?, ? extends B or ? super B.
// Bound is nil when Variance is Unbounded.
type Wildcard struct {
	Variance Variance
	Bound    Type
}

type Intersection struct {
	Bounds []Type
}

type TypeParameter struct {
	Name   string
	Bounds []Type
}

func (Primitive) isType()         {}
func (ClassType) isType()         {}
func (ParameterizedType) isType() {}
func (ArrayType) isType()         {}
func (TypeVariable) isType()      {}
func (Wildcard) isType()          {}
func (Intersection) isType()      {}

var objectType = ClassType{InternalName: "java/lang/Object"}

func sourceName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

func (t Primitive) String() string { return t.Kind.String() }
func (t ClassType) String() string { return sourceName(t.InternalName) }

func (t ParameterizedType) String() string {
	var sb strings.Builder
	if t.Owner != nil {
		sb.WriteString(t.Owner.String())
		sb.WriteByte('.')
		sb.WriteString(t.InternalName[strings.LastIndexByte(t.InternalName, '$')+1:])
	} else {
		sb.WriteString(sourceName(t.InternalName))
	}
	if len(t.Arguments) > 0 {
		sb.WriteByte('<')
		writeJoined(&sb, t.Arguments, ", ")
		sb.WriteByte('>')
	}
	return sb.String()
}

func (t ArrayType) String() string    { return t.Element.String() + "[]" }
func (t TypeVariable) String() string { return t.Name }

func (t Wildcard) String() string {
	switch t.Variance {
	case Extends:
		return "? extends " + t.Bound.String()
	case Super:
		return "? super " + t.Bound.String()
	}
	return "?"
}

func (t Intersection) String() string {
	var sb strings.Builder
	writeJoined(&sb, t.Bounds, " & ")
	return sb.String()
}

func (p TypeParameter) String() string {
	if len(p.Bounds) == 0 {
		return p.Name
	}
	var sb strings.Builder
	sb.WriteString(p.Name)
	sb.WriteString(" extends ")
	writeJoined(&sb, p.Bounds, " & ")
	return sb.String()
}

func writeJoined(sb *strings.Builder, types []Type, sep string) {
	for i, t := range types {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(t.String())
	}
}

// Erasure returns the descriptor t erases to. Type variables erase to
// Object since their bounds are not visible here.
func Erasure(t Type) string {
	switch t := t.(type) {
	case Primitive:
		return string(t.Kind.Descriptor())
	case ClassType:
		return "L" + t.InternalName + ";"
	case ParameterizedType:
		return "L" + t.InternalName + ";"
	case ArrayType:
		return "[" + Erasure(t.Element)
	case Wildcard:
		if t.Variance == Extends {
			return Erasure(t.Bound)
		}
	case Intersection:
		if len(t.Bounds) > 0 {
			return Erasure(t.Bounds[0])
		}
	}
	return "Ljava/lang/Object;"
}
