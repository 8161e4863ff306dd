package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/linkage/classfile"
)

// LineEncoder writes one tab-separated line per class, field and method.
type LineEncoder struct {
	w     io.Writer
	class *classfile.ClassDescriptor
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(class *classfile.ClassDescriptor) error {
	e.class = class
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	c := e.class

	mods := append([]string{visibility(c.AccessFlags)}, modifiers(c.AccessFlags, classfile.ClassFlags)...)
	fmt.Fprintf(&sb, "%s\t%s\t%s\t%d.%d\n", classKind(c), c.Name, strings.Join(mods, ","), c.MajorVersion, c.MinorVersion)
	if c.SuperName != "" {
		fmt.Fprintf(&sb, "extends\t%s\n", c.SuperName)
	}
	for _, iface := range c.Interfaces {
		fmt.Fprintf(&sb, "implements\t%s\n", iface)
	}

	for _, f := range c.Fields {
		fmt.Fprintf(&sb, "field\t%s\t%s\t%s\t%s\n",
			f.Name,
			f.Descriptor,
			visibility(f.AccessFlags),
			joinOrDash(modifiers(f.AccessFlags, classfile.FieldFlags)),
		)
		if f.Signature != "" {
			fmt.Fprintf(&sb, "signature\t%s\n", fieldType(f))
		}
	}

	for _, m := range c.Methods {
		fmt.Fprintf(&sb, "method\t%s\t%s\t%s\t%s\n",
			m.Name,
			m.Descriptor,
			visibility(m.AccessFlags),
			joinOrDash(modifiers(m.AccessFlags, classfile.MethodFlags)),
		)
		if m.Signature != "" {
			fmt.Fprintf(&sb, "signature\t%s\n", methodType(m))
		}
	}

	if mod := c.Module; mod != nil {
		for _, r := range mod.Requires {
			fmt.Fprintf(&sb, "requires\t%s\n", r.Module)
		}
		for _, x := range mod.Exports {
			fmt.Fprintf(&sb, "exports\t%s\t%s\n", x.Package, joinOrDash(x.To))
		}
	}

	return []byte(sb.String()), nil
}
