package hierarchy

import (
	"strings"

	"github.com/dhamidi/linkage/classfile"
)

// NormalizedMethod is the method that wins among all methods sharing an
// override key.
type NormalizedMethod struct {
	Owner       string
	Name        string
	Descriptor  string
	OverrideKey string
	Bridge      bool
	Synthetic   bool
	// Overridden lists the descriptors of losing methods that differ from
	// Descriptor, in the order they were met.
	Overridden []string
}

type Normalization struct {
	// Candidates are the method members of the input.
	Candidates []ResolvedMember
	Methods    []NormalizedMethod
}

type arityKey struct {
	owner, name string
	arity       int
}

// NormalizeMethods collapses overriding methods, bridges and their
// targets into one entry per override key. The key is the method name
// plus its parameter descriptor; a non-bridge method shares the key of a
// bridge declared on the same owner with the same name and arity.
func NormalizeMethods(members []ResolvedMember) Normalization {
	var methods []ResolvedMember
	for _, m := range members {
		if m.Kind == Method {
			methods = append(methods, m)
		}
	}

	bridges := map[arityKey]string{}
	for _, m := range methods {
		if !m.AccessFlags.IsBridge() {
			continue
		}
		key := arityKey{m.Owner, m.Name, arity(m.Descriptor)}
		if _, ok := bridges[key]; !ok {
			bridges[key] = overrideKey(m.Name, m.Descriptor)
		}
	}

	type group struct {
		selected   ResolvedMember
		overridden []string
		seen       map[string]bool
	}
	var order []string
	groups := map[string]*group{}
	for _, m := range methods {
		key := overrideKey(m.Name, m.Descriptor)
		if !m.AccessFlags.IsBridge() {
			if k, ok := bridges[arityKey{m.Owner, m.Name, arity(m.Descriptor)}]; ok {
				key = k
			}
		}
		g, ok := groups[key]
		if !ok {
			groups[key] = &group{selected: m, seen: map[string]bool{}}
			order = append(order, key)
			continue
		}
		loser := m
		if prefer(m, g.selected) {
			loser, g.selected = g.selected, m
		}
		if loser.Descriptor != g.selected.Descriptor && !g.seen[loser.Descriptor] {
			g.seen[loser.Descriptor] = true
			g.overridden = append(g.overridden, loser.Descriptor)
		}
	}

	n := Normalization{Candidates: methods}
	for _, key := range order {
		g := groups[key]
		n.Methods = append(n.Methods, NormalizedMethod{
			Owner:       g.selected.Owner,
			Name:        g.selected.Name,
			Descriptor:  g.selected.Descriptor,
			OverrideKey: key,
			Bridge:      g.selected.AccessFlags.IsBridge(),
			Synthetic:   g.selected.AccessFlags.IsSynthetic(),
			Overridden:  g.overridden,
		})
	}
	return n
}

// prefer reports whether candidate should replace selected. Lower scores
// win; equal scores fall back to descriptor then owner order.
func prefer(candidate, selected ResolvedMember) bool {
	cs, ss := score(candidate), score(selected)
	if cs != ss {
		return cs < ss
	}
	if candidate.Descriptor != selected.Descriptor {
		return candidate.Descriptor < selected.Descriptor
	}
	return candidate.Owner < selected.Owner
}

func score(m ResolvedMember) int {
	s := 0
	if m.AccessFlags.IsBridge() {
		s += 4
	}
	if m.AccessFlags.IsSynthetic() {
		s += 2
	}
	if m.Inherited {
		s++
	}
	return s
}

func overrideKey(name, descriptor string) string {
	end := strings.IndexByte(descriptor, ')')
	if end < 0 {
		return name + descriptor
	}
	return name + descriptor[:end+1]
}

func arity(descriptor string) int {
	if n := classfile.ParameterCount(descriptor); n > 0 {
		return n
	}
	return 0
}
