package overload

import (
	"fmt"
	"sort"

	"github.com/dhamidi/linkage/classfile"
	"github.com/dhamidi/linkage/java/hierarchy"
	"github.com/dhamidi/linkage/java/nullability"
)

// Supplier produces the candidates for a member access on owner.
type Supplier interface {
	Candidates(owner, name string, kind InvokeKind) ([]Candidate, error)
}

// Member is one member as seen by a supplier: its declaring class, its
// descriptor and flags, and any known parameter nullness.
type Member struct {
	Owner       string
	Name        string
	Descriptor  string
	AccessFlags classfile.AccessFlags
	Field       bool
	Nullability []nullability.State
}

// ListingSupplier serves candidates from member listings the embedder
// already has, keyed by internal owner name. Listings should include
// inherited members; an inherited member with the same descriptor as one
// declared on the owner is overridden and collapses into it.
type ListingSupplier struct {
	Members map[string][]Member
}

func (s ListingSupplier) Candidates(owner, name string, kind InvokeKind) ([]Candidate, error) {
	owner = classfile.SourceToInternalName(owner)
	listed, ok := s.Members[owner]
	if !ok {
		return nil, fmt.Errorf("no members listed for %s", owner)
	}
	if kind == Constructor {
		name = "<init>"
	}
	var matching []Member
	for _, m := range listed {
		if m.Name == name {
			matching = append(matching, m)
		}
	}
	return candidates(owner, kind, matching), nil
}

// DescriptorSupplier builds candidates from class descriptors, walking
// the hierarchy of the owner.
type DescriptorSupplier struct {
	Hierarchy   *hierarchy.Resolver
	Nullability nullability.Result
	// Context filters members by accessibility. When nil only public
	// members are offered.
	Context *hierarchy.LookupContext
}

func (s DescriptorSupplier) Candidates(owner, name string, kind InvokeKind) ([]Candidate, error) {
	owner = classfile.SourceToInternalName(owner)
	if _, ok := s.Hierarchy.DirectSupertypes(owner); !ok {
		return nil, fmt.Errorf("supply candidates: class %s not found", owner)
	}
	if kind == Constructor {
		name = "<init>"
	}
	ctx := hierarchy.Unrestricted(owner)
	if s.Context != nil {
		ctx = *s.Context
	}
	lookup := s.Hierarchy.CollectMembers(owner, name, ctx)

	var members []hierarchy.ResolvedMember
	for _, m := range lookup.Members {
		if s.Context == nil && !m.AccessFlags.IsPublic() {
			continue
		}
		if s.Context != nil && !m.Accessible {
			continue
		}
		if kind == Constructor && m.Owner != owner {
			continue
		}
		members = append(members, m)
	}

	var selected []hierarchy.ResolvedMember
	if kind.isField() {
		for _, m := range members {
			if m.Kind == hierarchy.Field {
				selected = append(selected, m)
			}
		}
	} else {
		byKey := map[[2]string]hierarchy.ResolvedMember{}
		for _, m := range members {
			byKey[[2]string{m.Owner, m.Descriptor}] = m
		}
		for _, n := range hierarchy.NormalizeMethods(members).Methods {
			selected = append(selected, byKey[[2]string{n.Owner, n.Descriptor}])
		}
	}

	out := make([]Member, 0, len(selected))
	for _, m := range selected {
		out = append(out, Member{
			Owner:       m.Owner,
			Name:        m.Name,
			Descriptor:  m.Descriptor,
			AccessFlags: m.AccessFlags,
			Field:       m.Kind == hierarchy.Field,
			Nullability: s.nullabilityOf(m),
		})
	}
	return candidates(owner, kind, out), nil
}

func (s DescriptorSupplier) nullabilityOf(m hierarchy.ResolvedMember) []nullability.State {
	if m.Kind == hierarchy.Field {
		return []nullability.State{s.Nullability.Field(m.Owner, m.Name, m.Descriptor)}
	}
	n := classfile.ParameterCount(m.Descriptor)
	if n < 0 {
		return nil
	}
	return s.Nullability.Parameters(m.Owner, m.Name, m.Descriptor, n)
}

// candidates filters members by kind and turns them into candidates.
// Bridge and synthetic methods are used only when nothing else matches.
func candidates(owner string, kind InvokeKind, members []Member) []Candidate {
	var visible, plain []Member
	for _, m := range members {
		if m.Field != kind.isField() {
			continue
		}
		if kind != Constructor && m.AccessFlags.IsStatic() != kind.IsStatic() {
			continue
		}
		visible = append(visible, m)
		if !m.AccessFlags.IsBridge() && !m.AccessFlags.IsSynthetic() {
			plain = append(plain, m)
		}
	}
	selected := visible
	if len(plain) > 0 && !kind.isField() {
		selected = plain
	}
	selected = collapseOverrides(owner, selected)
	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].Descriptor != selected[j].Descriptor {
			return selected[i].Descriptor < selected[j].Descriptor
		}
		return selected[i].Owner < selected[j].Owner
	})

	out := make([]Candidate, 0, len(selected))
	for _, m := range selected {
		c := Candidate{
			Identity: Identity{Owner: owner, Name: m.Name, Descriptor: m.Descriptor, Kind: kind},
		}
		switch {
		case kind == StaticFieldGet || kind == InstanceFieldGet:
		case kind.isField():
			c.Parameters = []string{m.Descriptor}
			c.Nullability = []nullability.State{first(m.Nullability)}
		default:
			c.VarArgs = m.AccessFlags.IsVarargs()
			c.Parameters = classfile.ParameterDescriptors(m.Descriptor)
			c.Nullability = make([]nullability.State, len(c.Parameters))
			copy(c.Nullability, m.Nullability)
		}
		out = append(out, c)
	}
	return out
}

// collapseOverrides keeps one member per descriptor: the one declared on
// owner when there is one, else the first listed.
func collapseOverrides(owner string, members []Member) []Member {
	index := map[string]int{}
	var out []Member
	for _, m := range members {
		i, seen := index[m.Descriptor]
		if !seen {
			index[m.Descriptor] = len(out)
			out = append(out, m)
			continue
		}
		if m.Owner == owner && out[i].Owner != owner {
			out[i] = m
		}
	}
	return out
}

func first(states []nullability.State) nullability.State {
	if len(states) == 0 {
		return nullability.Platform
	}
	return states[0]
}
