// Package hierarchy walks class hierarchies: the supertype closure of a
// class, the members it declares or inherits under a given name, whether
// those members are accessible from a requesting class, and which of
// several inherited methods is the effective override.
//
// A Resolver caches everything it computes and is not safe for concurrent
// use. Use one Resolver per worker. The caches hold only for the classpath
// fingerprint and target release they were built under; a change of
// either, seen through a Versioned provider or signalled by Invalidate,
// clears them all.
package hierarchy

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/linkage/classfile"
	"github.com/dhamidi/linkage/java/symbols"
)

type MemberKind int

const (
	Field MemberKind = iota
	Method
)

func (k MemberKind) String() string {
	if k == Field {
		return "FIELD"
	}
	return "METHOD"
}

type SupertypeResult struct {
	// Supertypes in depth-first order: superclass chain before interfaces.
	Supertypes  []string
	Diagnostics []string
}

// Contains reports whether name is among the supertypes.
func (r SupertypeResult) Contains(name string) bool {
	for _, s := range r.Supertypes {
		if s == name {
			return true
		}
	}
	return false
}

type ResolvedMember struct {
	Owner       string
	Name        string
	Descriptor  string
	Kind        MemberKind
	AccessFlags classfile.AccessFlags
	// Signature is the generic Signature attribute, empty when absent.
	Signature string
	// Inherited is true when the member is declared on a supertype of the
	// class it was looked up on.
	Inherited       bool
	Visibility      Visibility
	Accessible      bool
	ModuleReadable  bool
	PackageExported bool
}

type MemberLookup struct {
	Members     []ResolvedMember
	Diagnostics []string
}

type declaredMember struct {
	name        string
	descriptor  string
	accessFlags classfile.AccessFlags
	kind        MemberKind
	signature   string
}

type memberKey struct {
	owner, name string
}

// Versioned is implemented by providers whose answers depend on a
// classpath fingerprint and target release, such as *symbols.Table.
type Versioned interface {
	Fingerprint() string
	TargetRelease() int
}

type cacheStamp struct {
	fingerprint string
	release     int
}

type Resolver struct {
	provider   symbols.Provider
	log        commonlog.Logger
	supertypes map[string]SupertypeResult
	members    map[memberKey][]declaredMember
	scans      map[memberKey]int

	// stamp is the (fingerprint, release) the caches were built under.
	stamp   cacheStamp
	stamped bool
}

func NewResolver(provider symbols.Provider) *Resolver {
	return &Resolver{
		provider:   provider,
		log:        commonlog.GetLogger("linkage.hierarchy"),
		supertypes: map[string]SupertypeResult{},
		members:    map[memberKey][]declaredMember{},
		scans:      map[memberKey]int{},
	}
}

// Invalidate drops every cached supertype closure and member scan.
func (r *Resolver) Invalidate() {
	r.supertypes = map[string]SupertypeResult{}
	r.members = map[memberKey][]declaredMember{}
	r.scans = map[memberKey]int{}
}

// sync clears the caches when a versioned provider has moved to another
// fingerprint or release since they were filled.
func (r *Resolver) sync() {
	v, ok := r.provider.(Versioned)
	if !ok {
		return
	}
	current := cacheStamp{fingerprint: v.Fingerprint(), release: v.TargetRelease()}
	if r.stamped && current == r.stamp {
		return
	}
	if r.stamped {
		r.log.Infof("hierarchy caches invalidated: fingerprint %s release %d", current.fingerprint, current.release)
		r.Invalidate()
	}
	r.stamp, r.stamped = current, true
}

// normalizeName accepts dotted or internal names.
func normalizeName(name string) string {
	return symbols.InternalName(strings.TrimSpace(name))
}

// lookup returns nil when the class cannot be used, with err set for
// read failures.
func (r *Resolver) lookup(name string) (*classfile.ClassDescriptor, error) {
	res, err := r.provider.ResolveClassWithMetadata(name)
	if err != nil {
		return nil, err
	}
	if res.Status != symbols.Found {
		return nil, nil
	}
	return res.Class, nil
}

// Supertypes returns the transitive superclasses and superinterfaces of
// name. Missing classes and cycles are reported as diagnostics.
func (r *Resolver) Supertypes(name string) SupertypeResult {
	r.sync()
	internal := normalizeName(name)
	if cached, ok := r.supertypes[internal]; ok {
		return cached
	}
	w := &walk{r: r, seen: map[string]bool{}}
	w.visit(internal)
	result := SupertypeResult{Supertypes: w.ordered, Diagnostics: w.diagnostics}
	r.supertypes[internal] = result
	return result
}

type walk struct {
	r           *Resolver
	ordered     []string
	seen        map[string]bool
	path        []string
	diagnostics []string
}

func (w *walk) visit(name string) {
	cd, err := w.r.lookup(name)
	if err != nil {
		w.diagnostics = append(w.diagnostics,
			fmt.Sprintf("Class could not be read while traversing supertypes: %s: %v", name, err))
		return
	}
	if cd == nil {
		w.diagnostics = append(w.diagnostics, "Class not found while traversing supertypes: "+name)
		return
	}
	w.path = append(w.path, name)
	if cd.SuperName != "" {
		w.edge(name, cd.SuperName)
	}
	for _, iface := range cd.Interfaces {
		w.edge(name, iface)
	}
	w.path = w.path[:len(w.path)-1]
}

func (w *walk) edge(from, to string) {
	for _, p := range w.path {
		if p == to {
			msg := fmt.Sprintf("Detected inheritance cycle at %s -> %s", from, to)
			w.r.log.Warning(msg)
			w.diagnostics = append(w.diagnostics, msg)
			return
		}
	}
	if w.seen[to] {
		return
	}
	w.seen[to] = true
	w.ordered = append(w.ordered, to)
	w.visit(to)
}

// DirectSupertypes returns the superclass followed by the interfaces of
// name. ok is false when the class cannot be resolved.
func (r *Resolver) DirectSupertypes(name string) ([]string, bool) {
	cd, err := r.lookup(normalizeName(name))
	if err != nil || cd == nil {
		return nil, false
	}
	var direct []string
	if cd.SuperName != "" {
		direct = append(direct, cd.SuperName)
	}
	return append(direct, cd.Interfaces...), true
}

// Class returns the descriptor of name, or false when it cannot be
// resolved.
func (r *Resolver) Class(name string) (*classfile.ClassDescriptor, bool) {
	cd, err := r.lookup(normalizeName(name))
	if err != nil || cd == nil {
		return nil, false
	}
	return cd, true
}

// CollectMembers finds every field and method called member on name and
// its supertypes, in supertype order, and evaluates each against ctx.
func (r *Resolver) CollectMembers(name, member string, ctx LookupContext) MemberLookup {
	return r.collect(name, member, ctx)
}

// CollectMethods lists every method declared on name and its supertypes,
// in supertype order and declaration order within each owner.
func (r *Resolver) CollectMethods(name string, ctx LookupContext) MemberLookup {
	lookup := r.collect(name, allMembers, ctx)
	methods := lookup.Members[:0]
	for _, m := range lookup.Members {
		if m.Kind == Method {
			methods = append(methods, m)
		}
	}
	lookup.Members = methods
	return lookup
}

// allMembers is the member name under which declared caches every member
// of an owner. No field or method can be named with the empty string.
const allMembers = ""

func (r *Resolver) collect(name, member string, ctx LookupContext) MemberLookup {
	target := normalizeName(name)
	supers := r.Supertypes(target)
	lookup := MemberLookup{Diagnostics: append([]string(nil), supers.Diagnostics...)}

	owners := append([]string{target}, supers.Supertypes...)
	for _, owner := range owners {
		for _, d := range r.declared(owner, member) {
			a := r.evaluateAccess(d.accessFlags, owner, ctx)
			lookup.Members = append(lookup.Members, ResolvedMember{
				Owner:           owner,
				Name:            d.name,
				Descriptor:      d.descriptor,
				Kind:            d.kind,
				AccessFlags:     d.accessFlags,
				Signature:       d.signature,
				Inherited:       owner != target,
				Visibility:      a.visibility,
				Accessible:      a.accessible,
				ModuleReadable:  a.moduleReadable,
				PackageExported: a.packageExported,
			})
		}
	}
	return lookup
}

// declared returns the fields, then the methods, that owner declares
// under name, or all of them for allMembers. Unresolvable owners declare
// nothing.
func (r *Resolver) declared(owner, name string) []declaredMember {
	r.sync()
	key := memberKey{owner, name}
	if cached, ok := r.members[key]; ok {
		return cached
	}
	r.scans[key]++
	var found []declaredMember
	cd, err := r.lookup(owner)
	if err != nil {
		r.log.Debugf("skip members of %s: %s", owner, err)
	}
	if cd != nil {
		for _, f := range cd.Fields {
			if name == allMembers || f.Name == name {
				found = append(found, declaredMember{f.Name, f.Descriptor, f.AccessFlags, Field, f.Signature})
			}
		}
		for _, m := range cd.Methods {
			if name == allMembers || m.Name == name {
				found = append(found, declaredMember{m.Name, m.Descriptor, m.AccessFlags, Method, m.Signature})
			}
		}
	}
	r.members[key] = found
	return found
}

// ScanCount reports how many times the members of owner named name were
// read from a class descriptor rather than the cache.
func (r *Resolver) ScanCount(owner, name string) int {
	return r.scans[memberKey{normalizeName(owner), name}]
}

func (r *Resolver) SupertypeCacheSize() int { return len(r.supertypes) }
func (r *Resolver) MemberCacheSize() int    { return len(r.members) }
