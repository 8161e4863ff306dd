// Package properties pairs JavaBeans style accessors into properties:
// getX or isX as the getter and setX as the setter.
package properties

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/linkage/classfile"
	"github.com/dhamidi/linkage/java/hierarchy"
)

var log = commonlog.GetLogger("linkage.properties")

// Property is one synthesized property. Either accessor may be missing.
type Property struct {
	Name             string
	Getter           string
	GetterDescriptor string
	Setter           string
	SetterDescriptor string
}

// ReadOnly reports whether the property has no setter.
func (p Property) ReadOnly() bool { return p.Setter == "" }

type Result struct {
	// Properties are sorted by name.
	Properties  []Property
	Diagnostics []string
}

type Synthesizer struct {
	hierarchy *hierarchy.Resolver
	// Disabled turns synthesis off; Synthesize then reports one
	// diagnostic and no properties.
	Disabled bool
}

func NewSynthesizer(resolver *hierarchy.Resolver) *Synthesizer {
	return &Synthesizer{hierarchy: resolver}
}

type accessor struct {
	name       string
	descriptor string
}

func (a accessor) String() string { return a.name + a.descriptor }

type candidates struct {
	aliases map[string]bool
	// get and is are unique per key once visible has collapsed overloads.
	get, is *accessor
	sets    []accessor
}

// Synthesize collects the properties of class name from its public
// instance methods, inherited ones included. Methods declared on
// java.lang.Object never form properties.
func (s *Synthesizer) Synthesize(name string) Result {
	if s.Disabled {
		return Result{Diagnostics: []string{"Property synthesis disabled by feature flag."}}
	}
	cd, ok := s.hierarchy.Class(name)
	if !ok {
		return Result{Diagnostics: []string{"Class not found: " + name}}
	}
	lookup := s.hierarchy.CollectMethods(cd.Name, hierarchy.Unrestricted(cd.Name))
	res := Result{Diagnostics: append([]string(nil), lookup.Diagnostics...)}

	byKey := map[string]*candidates{}
	add := func(raw string) *candidates {
		property := decapitalize(raw)
		key := strings.ToLower(property)
		c, ok := byKey[key]
		if !ok {
			c = &candidates{aliases: map[string]bool{}}
			byKey[key] = c
		}
		c.aliases[property] = true
		return c
	}

	for _, m := range visible(lookup.Members) {
		a := accessor{m.Name, m.Descriptor}
		params := classfile.ParameterCount(m.Descriptor)
		ret := returnType(m.Descriptor)
		switch {
		case len(m.Name) > 3 && strings.HasPrefix(m.Name, "get") && params == 0 && ret != "V":
			add(m.Name[3:]).get = &a
		case len(m.Name) > 2 && strings.HasPrefix(m.Name, "is") && params == 0 && isBoolean(ret):
			add(m.Name[2:]).is = &a
		case len(m.Name) > 3 && strings.HasPrefix(m.Name, "set") && params == 1:
			c := add(m.Name[3:])
			c.sets = append(c.sets, a)
		}
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		c := byKey[key]
		aliases := sortedKeys(c.aliases)
		if len(aliases) > 1 {
			res.skip(key, "conflicting accessor casing aliases %s", list(aliases))
			continue
		}
		name := aliases[0]
		getter, ok := res.selectGetter(name, c)
		if !ok {
			continue
		}
		setter, ok := res.selectSetter(name, c.sets, getter)
		if !ok {
			continue
		}
		if getter == nil && setter == nil {
			continue
		}
		p := Property{Name: name}
		if getter != nil {
			p.Getter, p.GetterDescriptor = getter.name, getter.descriptor
		}
		if setter != nil {
			p.Setter, p.SetterDescriptor = setter.name, setter.descriptor
		}
		res.Properties = append(res.Properties, p)
	}
	sort.Slice(res.Properties, func(i, j int) bool { return res.Properties[i].Name < res.Properties[j].Name })
	log.Debugf("%s: %d properties, %d skipped", cd.Name, len(res.Properties), len(res.Diagnostics))
	return res
}

// visible keeps the public instance methods not declared on Object,
// one per name and parameter list, the most specific declaration first.
func visible(methods []hierarchy.ResolvedMember) []hierarchy.ResolvedMember {
	seen := map[string]bool{}
	var out []hierarchy.ResolvedMember
	for _, m := range methods {
		f := m.AccessFlags
		if !f.IsPublic() || f.IsStatic() || f.IsBridge() || f.IsSynthetic() {
			continue
		}
		if m.Owner == "java/lang/Object" || strings.HasPrefix(m.Name, "<") {
			continue
		}
		key := m.Name + parameters(m.Descriptor)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

// selectGetter returns ok false when the property must be skipped.
func (r *Result) selectGetter(name string, c *candidates) (*accessor, bool) {
	get, is := c.get, c.is
	switch {
	case get != nil && is != nil:
		if isBoolean(returnType(get.descriptor)) {
			return is, true
		}
		r.skip(name, "conflicting get/is methods with non-boolean get return type %s",
			list([]string{get.String(), is.String()}))
		return nil, false
	case is != nil:
		return is, true
	}
	return get, true
}

// selectSetter prefers the one setter whose parameter type is the
// getter's return type when several overloads exist.
func (r *Result) selectSetter(name string, setters []accessor, getter *accessor) (*accessor, bool) {
	switch len(setters) {
	case 0:
		return nil, true
	case 1:
		return &setters[0], true
	}
	ambiguous := setters
	if getter != nil {
		want := "(" + returnType(getter.descriptor) + ")"
		var exact []accessor
		for _, s := range setters {
			if parameters(s.descriptor) == want {
				exact = append(exact, s)
			}
		}
		if len(exact) == 1 {
			return &exact[0], true
		}
		if len(exact) > 1 {
			ambiguous = exact
		}
	}
	r.skip(name, "ambiguous setter overloads %s", signatures(ambiguous))
	return nil, false
}

func (r *Result) skip(property, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics,
		fmt.Sprintf("Skipped property `%s`: %s.", property, fmt.Sprintf(format, args...)))
}

// decapitalize lowercases the first letter unless the first two letters
// are both upper case, so "URL" stays "URL" and "Name" becomes "name".
func decapitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	if len(runes) > 1 && unicode.IsUpper(runes[0]) && unicode.IsUpper(runes[1]) {
		return s
	}
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func isBoolean(desc string) bool {
	return desc == "Z" || desc == "Ljava/lang/Boolean;"
}

func parameters(descriptor string) string {
	end := strings.IndexByte(descriptor, ')')
	if end < 0 {
		return descriptor
	}
	return descriptor[:end+1]
}

func returnType(descriptor string) string {
	end := strings.IndexByte(descriptor, ')')
	if end < 0 {
		return ""
	}
	return descriptor[end+1:]
}

func signatures(accessors []accessor) string {
	out := make([]string, len(accessors))
	for i, a := range accessors {
		out[i] = a.String()
	}
	sort.Strings(out)
	return list(out)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func list(values []string) string {
	return "[" + strings.Join(values, ", ") + "]"
}
