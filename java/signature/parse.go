package signature

import (
	"fmt"

	"github.com/dhamidi/linkage/classfile"
)

const missingNote = "Missing generic Signature attribute; descriptor fallback applied."

func unsupportedNote(sig string) string {
	return fmt.Sprintf("Unsupported generic Signature `%s`; descriptor fallback applied.", sig)
}

func malformedDescriptorNote(note, desc string) string {
	return fmt.Sprintf("%s Descriptor `%s` is malformed.", note, desc)
}

type FieldSig struct {
	Type           Type
	ErasedFallback bool
	Note           string
}

type MethodSig struct {
	TypeParameters []TypeParameter
	Parameters     []Type
	// Return is Primitive{Void} for void methods.
	Return         Type
	Throws         []Type
	ErasedFallback bool
	Note           string
}

type ClassSig struct {
	TypeParameters []TypeParameter
	// Super is nil for java/lang/Object and module-info.
	Super          Type
	Interfaces     []Type
	ErasedFallback bool
	Note           string
}

// ParseFieldSignature parses sig, or falls back to the erased type of
// desc when sig is blank or malformed. It never fails.
func ParseFieldSignature(sig, desc string) FieldSig {
	if isBlank(sig) {
		return fieldFromDescriptor(desc, missingNote)
	}
	c := &cursor{src: sig}
	t := parseFieldType(c)
	c.expectEnd()
	if c.err != nil {
		return fieldFromDescriptor(desc, unsupportedNote(sig))
	}
	return FieldSig{Type: t}
}

// ParseMethodSignature parses sig, or falls back to the erased parameter
// and return types of desc.
func ParseMethodSignature(sig, desc string) MethodSig {
	if isBlank(sig) {
		return methodFromDescriptor(desc, missingNote)
	}
	c := &cursor{src: sig}
	ms := MethodSig{TypeParameters: parseTypeParameters(c)}
	c.expect('(')
	for c.err == nil && !c.consumeIf(')') {
		ms.Parameters = append(ms.Parameters, parseType(c))
	}
	if c.consumeIf('V') {
		ms.Return = Primitive{Kind: Void}
	} else {
		ms.Return = parseType(c)
	}
	for c.consumeIf('^') {
		switch c.next() {
		case 'T':
			name := c.identUntil(';')
			c.expect(';')
			ms.Throws = append(ms.Throws, TypeVariable{Name: name})
		case 'L':
			ms.Throws = append(ms.Throws, parseClassType(c))
		default:
			c.failf("unsupported throws signature")
		}
	}
	c.expectEnd()
	if c.err != nil {
		return methodFromDescriptor(desc, unsupportedNote(sig))
	}
	return ms
}

// ParseClassSignature parses a class Signature attribute. super and
// interfaces are the erased names from the class file, used when sig is
// blank or malformed.
func ParseClassSignature(sig, super string, interfaces []string) ClassSig {
	if isBlank(sig) {
		return classFromNames(super, interfaces, missingNote)
	}
	c := &cursor{src: sig}
	cs := ClassSig{TypeParameters: parseTypeParameters(c)}
	c.expect('L')
	cs.Super = parseClassType(c)
	for c.err == nil && c.pos < len(c.src) {
		c.expect('L')
		cs.Interfaces = append(cs.Interfaces, parseClassType(c))
	}
	c.expectEnd()
	if c.err != nil {
		return classFromNames(super, interfaces, unsupportedNote(sig))
	}
	return cs
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
		default:
			return false
		}
	}
	return true
}

func parseTypeParameters(c *cursor) []TypeParameter {
	if !c.consumeIf('<') {
		return nil
	}
	var params []TypeParameter
	for c.err == nil && !c.consumeIf('>') {
		name := c.identUntil(':')
		c.expect(':')
		var bounds []Type
		// An empty class bound is legal when interface bounds follow.
		if !c.peekIs(':') {
			bounds = append(bounds, parseFieldType(c))
		}
		for c.consumeIf(':') {
			bounds = append(bounds, parseFieldType(c))
		}
		if len(bounds) > 1 {
			bounds = []Type{Intersection{Bounds: bounds}}
		}
		params = append(params, TypeParameter{Name: name, Bounds: bounds})
	}
	return params
}

func parseType(c *cursor) Type {
	switch c.peek() {
	case 'L', 'T', '[':
		return parseFieldType(c)
	}
	code := c.next()
	kind, ok := PrimitiveFor(code)
	if !ok || kind == Void {
		c.failf("unsupported base type %q", code)
		return nil
	}
	return Primitive{Kind: kind}
}

func parseFieldType(c *cursor) Type {
	switch marker := c.next(); marker {
	case 'L':
		return parseClassType(c)
	case 'T':
		name := c.identUntil(';')
		c.expect(';')
		return TypeVariable{Name: name}
	case '[':
		return ArrayType{Element: parseType(c)}
	default:
		c.failf("unsupported field type marker %q", marker)
		return nil
	}
}

// parseClassType reads after the leading 'L' through the closing ';'.
func parseClassType(c *cursor) Type {
	name := ""
	var owner Type
	for c.err == nil {
		name += c.identUntilAny('<', ';', '.')
		var args []Type
		if c.consumeIf('<') {
			args = parseTypeArguments(c)
		}
		var current Type
		if len(args) == 0 && owner == nil {
			current = ClassType{InternalName: name}
		} else {
			current = ParameterizedType{InternalName: name, Arguments: args, Owner: owner}
		}
		if c.consumeIf('.') {
			owner = current
			name += "$"
			continue
		}
		c.expect(';')
		return current
	}
	return nil
}

func parseTypeArguments(c *cursor) []Type {
	var args []Type
	for c.err == nil && !c.consumeIf('>') {
		switch {
		case c.consumeIf('*'):
			args = append(args, Wildcard{Variance: Unbounded})
		case c.consumeIf('+'):
			args = append(args, Wildcard{Variance: Extends, Bound: parseFieldType(c)})
		case c.consumeIf('-'):
			args = append(args, Wildcard{Variance: Super, Bound: parseFieldType(c)})
		default:
			args = append(args, parseFieldType(c))
		}
	}
	return args
}

func fieldFromDescriptor(desc, note string) FieldSig {
	ft := classfile.ParseFieldDescriptor(desc)
	if ft == nil {
		return FieldSig{Type: objectType, ErasedFallback: true, Note: malformedDescriptorNote(note, desc)}
	}
	return FieldSig{Type: FromFieldType(ft), ErasedFallback: true, Note: note}
}

func methodFromDescriptor(desc, note string) MethodSig {
	mt := classfile.ParseMethodDescriptor(desc)
	if mt == nil {
		return MethodSig{Return: objectType, ErasedFallback: true, Note: malformedDescriptorNote(note, desc)}
	}
	ms := MethodSig{Return: Primitive{Kind: Void}, ErasedFallback: true, Note: note}
	for i := range mt.Parameters {
		ms.Parameters = append(ms.Parameters, FromFieldType(&mt.Parameters[i]))
	}
	if mt.Return != nil {
		ms.Return = FromFieldType(mt.Return)
	}
	return ms
}

func classFromNames(super string, interfaces []string, note string) ClassSig {
	cs := ClassSig{ErasedFallback: true, Note: note}
	if super != "" {
		cs.Super = ClassType{InternalName: super}
	}
	for _, i := range interfaces {
		cs.Interfaces = append(cs.Interfaces, ClassType{InternalName: i})
	}
	return cs
}

// FromFieldType converts a decoded descriptor into its erased Type.
func FromFieldType(ft *classfile.FieldType) Type {
	var t Type
	if ft.ClassName != "" {
		t = ClassType{InternalName: ft.ClassName}
	} else {
		kind, _ := PrimitiveFor(primitiveCode(ft.BaseType))
		t = Primitive{Kind: kind}
	}
	for i := 0; i < ft.ArrayDepth; i++ {
		t = ArrayType{Element: t}
	}
	return t
}

func primitiveCode(name string) byte {
	for i, n := range primitiveNames {
		if n == name {
			return primitiveCodes[i]
		}
	}
	return 0
}
