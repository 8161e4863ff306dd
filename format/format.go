// Package format renders class descriptors for people and tools.
package format

import (
	"encoding"
	"strings"

	"github.com/dhamidi/linkage/classfile"
	"github.com/dhamidi/linkage/java/hierarchy"
	"github.com/dhamidi/linkage/java/signature"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(class *classfile.ClassDescriptor) error
}

func visibility(flags classfile.AccessFlags) string {
	v := hierarchy.VisibilityOf(flags)
	if v == hierarchy.PackagePrivate {
		return "package"
	}
	return strings.ToLower(v.String())
}

func classKind(c *classfile.ClassDescriptor) string {
	switch {
	case c.IsModuleInfo():
		return "module"
	case c.AccessFlags&classfile.AccAnnotation != 0:
		return "annotation"
	case c.AccessFlags&classfile.AccEnum != 0:
		return "enum"
	case c.IsInterface():
		return "interface"
	case len(c.RecordComponents) > 0:
		return "record"
	}
	return "class"
}

// notModifiers are keywords the encoders print elsewhere: visibility in
// its own column and the class kind words in the kind column.
var notModifiers = map[classfile.FlagContext]map[string]bool{
	classfile.ClassFlags: {
		"public": true, "interface": true, "annotation": true, "enum": true, "module": true,
	},
	classfile.FieldFlags:  {"public": true, "private": true, "protected": true},
	classfile.MethodFlags: {"public": true, "private": true, "protected": true},
}

func modifiers(flags classfile.AccessFlags, ctx classfile.FlagContext) []string {
	var mods []string
	for _, name := range flags.Names(ctx) {
		if !notModifiers[ctx][name] {
			mods = append(mods, name)
		}
	}
	return mods
}

func joinOrDash(parts []string) string {
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

// fieldType renders the generic type of f in Java source form.
func fieldType(f classfile.Field) string {
	return signature.ParseFieldSignature(f.Signature, f.Descriptor).Type.String()
}

// methodType renders m as "<T> R (P1, P2) throws X".
func methodType(m classfile.Method) string {
	sig := signature.ParseMethodSignature(m.Signature, m.Descriptor)
	var sb strings.Builder
	if len(sig.TypeParameters) > 0 {
		parts := make([]string, len(sig.TypeParameters))
		for i, tp := range sig.TypeParameters {
			parts[i] = tp.String()
		}
		sb.WriteString("<" + strings.Join(parts, ", ") + "> ")
	}
	sb.WriteString(sig.Return.String())
	sb.WriteString(" (")
	sb.WriteString(joinTypes(sig.Parameters))
	sb.WriteString(")")
	if len(sig.Throws) > 0 {
		sb.WriteString(" throws ")
		sb.WriteString(joinTypes(sig.Throws))
	}
	return sb.String()
}

func joinTypes(types []signature.Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
