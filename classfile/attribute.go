package classfile

import "fmt"

// decoder carries the constant pool through attribute decoding.
type decoder struct {
	cp constantPool
}

// annotationSet collects the four annotation attributes shared by classes,
// fields, methods and record components.
type annotationSet struct {
	visible, invisible         *[]Annotation
	visibleType, invisibleType *[]TypeAnnotation
}

func (d *decoder) annotationAttribute(name string, ar *reader, set annotationSet) bool {
	switch name {
	case "RuntimeVisibleAnnotations":
		*set.visible = append(*set.visible, d.readAnnotations(ar)...)
	case "RuntimeInvisibleAnnotations":
		*set.invisible = append(*set.invisible, d.readAnnotations(ar)...)
	case "RuntimeVisibleTypeAnnotations":
		*set.visibleType = append(*set.visibleType, d.readTypeAnnotations(ar)...)
	case "RuntimeInvisibleTypeAnnotations":
		*set.invisibleType = append(*set.invisibleType, d.readTypeAnnotations(ar)...)
	default:
		return false
	}
	return true
}

// readAttributes walks an attribute table. handle decodes a recognized
// attribute from its own window and reports whether it recognized it;
// unrecognized attributes are skipped by their declared length.
func (d *decoder) readAttributes(r *reader, handle func(name string, ar *reader) bool) {
	count := int(r.u2())
	for i := 0; i < count && r.err == nil; i++ {
		name := d.cp.utf8(r, r.u2())
		length := r.u4()
		ar := r.window(int(length))
		if r.err != nil {
			return
		}
		if !handle(name, ar) {
			continue
		}
		if ar.err == nil && ar.remaining() > 0 {
			ar.fail(fmt.Errorf("%w: %d unread", ErrTrailingBytes, ar.remaining()))
		}
		r.adopt(ar, name+" attribute")
	}
}

func (d *decoder) readField(r *reader) Field {
	f := Field{
		AccessFlags: AccessFlags(r.u2()),
		Name:        d.cp.utf8(r, r.u2()),
		Descriptor:  d.cp.utf8(r, r.u2()),
	}
	set := annotationSet{&f.VisibleAnnotations, &f.InvisibleAnnotations, &f.VisibleTypeAnnotations, &f.InvisibleTypeAnnotations}
	d.readAttributes(r, func(name string, ar *reader) bool {
		if name == "Signature" {
			f.Signature = d.cp.utf8(ar, ar.u2())
			return true
		}
		return d.annotationAttribute(name, ar, set)
	})
	return f
}

func (d *decoder) readMethod(r *reader) Method {
	m := Method{
		AccessFlags: AccessFlags(r.u2()),
		Name:        d.cp.utf8(r, r.u2()),
		Descriptor:  d.cp.utf8(r, r.u2()),
	}
	set := annotationSet{&m.VisibleAnnotations, &m.InvisibleAnnotations, &m.VisibleTypeAnnotations, &m.InvisibleTypeAnnotations}
	d.readAttributes(r, func(name string, ar *reader) bool {
		switch name {
		case "Signature":
			m.Signature = d.cp.utf8(ar, ar.u2())
		case "Exceptions":
			count := int(ar.u2())
			for i := 0; i < count && ar.err == nil; i++ {
				m.Exceptions = append(m.Exceptions, d.cp.className(ar, ar.u2()))
			}
		case "MethodParameters":
			count := int(ar.u1())
			for i := 0; i < count && ar.err == nil; i++ {
				m.Parameters = append(m.Parameters, MethodParameter{
					Name:        d.cp.optionalUtf8(ar, ar.u2()),
					AccessFlags: AccessFlags(ar.u2()),
				})
			}
		case "RuntimeVisibleParameterAnnotations":
			m.VisibleParameterAnnotations = d.readParameterAnnotations(ar)
		case "RuntimeInvisibleParameterAnnotations":
			m.InvisibleParameterAnnotations = d.readParameterAnnotations(ar)
		case "AnnotationDefault":
			v := d.readElementValue(ar)
			m.AnnotationDefault = &v
		default:
			return d.annotationAttribute(name, ar, set)
		}
		return true
	})
	return m
}

func (d *decoder) readClassAttributes(r *reader, cd *ClassDescriptor) {
	set := annotationSet{&cd.VisibleAnnotations, &cd.InvisibleAnnotations, &cd.VisibleTypeAnnotations, &cd.InvisibleTypeAnnotations}
	d.readAttributes(r, func(name string, ar *reader) bool {
		switch name {
		case "Signature":
			cd.Signature = d.cp.utf8(ar, ar.u2())
		case "InnerClasses":
			count := int(ar.u2())
			for i := 0; i < count && ar.err == nil; i++ {
				cd.InnerClasses = append(cd.InnerClasses, InnerClass{
					Inner:       d.cp.optionalClassName(ar, ar.u2()),
					Outer:       d.cp.optionalClassName(ar, ar.u2()),
					SimpleName:  d.cp.optionalUtf8(ar, ar.u2()),
					AccessFlags: AccessFlags(ar.u2()),
				})
			}
		case "EnclosingMethod":
			em := &EnclosingMethod{Class: d.cp.className(ar, ar.u2())}
			if index := ar.u2(); index != 0 {
				em.Name, em.Descriptor = d.cp.nameAndType(ar, index)
			}
			cd.EnclosingMethod = em
		case "NestHost":
			cd.NestHost = d.cp.className(ar, ar.u2())
		case "NestMembers":
			cd.NestMembers = d.readClassList(ar)
		case "PermittedSubclasses":
			cd.PermittedSubclasses = d.readClassList(ar)
		case "Record":
			count := int(ar.u2())
			for i := 0; i < count && ar.err == nil; i++ {
				cd.RecordComponents = append(cd.RecordComponents, d.readRecordComponent(ar))
			}
		case "Module":
			cd.Module = d.readModule(ar)
		case "ModulePackages":
			count := int(ar.u2())
			for i := 0; i < count && ar.err == nil; i++ {
				cd.ModulePackages = append(cd.ModulePackages, d.cp.packageName(ar, ar.u2()))
			}
		default:
			return d.annotationAttribute(name, ar, set)
		}
		return true
	})
}

func (d *decoder) readClassList(r *reader) []string {
	count := int(r.u2())
	names := make([]string, 0, count)
	for i := 0; i < count && r.err == nil; i++ {
		names = append(names, d.cp.className(r, r.u2()))
	}
	return names
}

func (d *decoder) readRecordComponent(r *reader) RecordComponent {
	rc := RecordComponent{
		Name:       d.cp.utf8(r, r.u2()),
		Descriptor: d.cp.utf8(r, r.u2()),
	}
	set := annotationSet{&rc.VisibleAnnotations, &rc.InvisibleAnnotations, &rc.VisibleTypeAnnotations, &rc.InvisibleTypeAnnotations}
	d.readAttributes(r, func(name string, ar *reader) bool {
		if name == "Signature" {
			rc.Signature = d.cp.utf8(ar, ar.u2())
			return true
		}
		return d.annotationAttribute(name, ar, set)
	})
	return rc
}

func (d *decoder) readModule(r *reader) *Module {
	m := &Module{
		Name:    d.cp.moduleName(r, r.u2()),
		Flags:   AccessFlags(r.u2()),
		Version: d.cp.optionalUtf8(r, r.u2()),
	}

	count := int(r.u2())
	for i := 0; i < count && r.err == nil; i++ {
		m.Requires = append(m.Requires, ModuleRequires{
			Module:  d.cp.moduleName(r, r.u2()),
			Flags:   AccessFlags(r.u2()),
			Version: d.cp.optionalUtf8(r, r.u2()),
		})
	}

	m.Exports = d.readModuleExports(r)
	m.Opens = d.readModuleExports(r)

	count = int(r.u2())
	for i := 0; i < count && r.err == nil; i++ {
		m.Uses = append(m.Uses, d.cp.className(r, r.u2()))
	}

	count = int(r.u2())
	for i := 0; i < count && r.err == nil; i++ {
		p := ModuleProvides{Service: d.cp.className(r, r.u2())}
		p.With = d.readClassList(r)
		m.Provides = append(m.Provides, p)
	}
	return m
}

func (d *decoder) readModuleExports(r *reader) []ModuleExports {
	count := int(r.u2())
	var exports []ModuleExports
	for i := 0; i < count && r.err == nil; i++ {
		e := ModuleExports{
			Package: d.cp.packageName(r, r.u2()),
			Flags:   AccessFlags(r.u2()),
		}
		targets := int(r.u2())
		for j := 0; j < targets && r.err == nil; j++ {
			e.To = append(e.To, d.cp.moduleName(r, r.u2()))
		}
		exports = append(exports, e)
	}
	return exports
}
