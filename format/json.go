package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/linkage/classfile"
)

type JSONEncoder struct {
	w     io.Writer
	class *classfile.ClassDescriptor
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(class *classfile.ClassDescriptor) error {
	e.class = class
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	if _, err := e.w.Write(text); err != nil {
		return err
	}
	_, err = io.WriteString(e.w, "\n")
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(e.buildClassData(), "", "  ")
}

type jsonClass struct {
	Name       string       `json:"name"`
	Package    string       `json:"package"`
	SuperClass string       `json:"superClass,omitempty"`
	Interfaces []string     `json:"interfaces,omitempty"`
	Visibility string       `json:"visibility"`
	Kind       string       `json:"kind"`
	Modifiers  []string     `json:"modifiers,omitempty"`
	Version    jsonVersion  `json:"version"`
	Fields     []jsonMember `json:"fields,omitempty"`
	Methods    []jsonMember `json:"methods,omitempty"`
	Module     *jsonModule  `json:"module,omitempty"`
}

type jsonVersion struct {
	Major uint16 `json:"major"`
	Minor uint16 `json:"minor"`
}

type jsonMember struct {
	Name       string   `json:"name"`
	Descriptor string   `json:"descriptor"`
	Type       string   `json:"type"`
	Visibility string   `json:"visibility"`
	Modifiers  []string `json:"modifiers,omitempty"`
}

type jsonModule struct {
	Name     string       `json:"name"`
	Requires []string     `json:"requires,omitempty"`
	Exports  []jsonExport `json:"exports,omitempty"`
}

type jsonExport struct {
	Package string   `json:"package"`
	To      []string `json:"to,omitempty"`
}

func (e *JSONEncoder) buildClassData() jsonClass {
	c := e.class
	data := jsonClass{
		Name:       c.Name,
		Package:    c.PackageName(),
		SuperClass: c.SuperName,
		Interfaces: c.Interfaces,
		Visibility: visibility(c.AccessFlags),
		Kind:       classKind(c),
		Modifiers:  modifiers(c.AccessFlags, classfile.ClassFlags),
		Version:    jsonVersion{Major: c.MajorVersion, Minor: c.MinorVersion},
	}
	for _, f := range c.Fields {
		data.Fields = append(data.Fields, jsonMember{
			Name:       f.Name,
			Descriptor: f.Descriptor,
			Type:       fieldType(f),
			Visibility: visibility(f.AccessFlags),
			Modifiers:  modifiers(f.AccessFlags, classfile.FieldFlags),
		})
	}
	for _, m := range c.Methods {
		data.Methods = append(data.Methods, jsonMember{
			Name:       m.Name,
			Descriptor: m.Descriptor,
			Type:       methodType(m),
			Visibility: visibility(m.AccessFlags),
			Modifiers:  modifiers(m.AccessFlags, classfile.MethodFlags),
		})
	}
	if mod := c.Module; mod != nil {
		jm := &jsonModule{Name: mod.Name}
		for _, r := range mod.Requires {
			jm.Requires = append(jm.Requires, r.Module)
		}
		for _, x := range mod.Exports {
			jm.Exports = append(jm.Exports, jsonExport{Package: x.Package, To: x.To})
		}
		data.Module = jm
	}
	return data
}
