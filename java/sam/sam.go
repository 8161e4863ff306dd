// Package sam decides whether an interface is functional: whether it has
// exactly one abstract method once methods shared with java.lang.Object,
// default, static, bridge and synthetic methods are set aside and
// covariant redeclarations are folded together.
package sam

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/linkage/java/hierarchy"
	"github.com/dhamidi/linkage/java/signature"
)

var log = commonlog.GetLogger("linkage.sam")

const functionalInterface = "Ljava/lang/FunctionalInterface;"

// objectMethods holds name plus parameter descriptor for the public
// methods of java.lang.Object. An interface redeclaring one of them does
// not gain an abstract method.
var objectMethods = map[string]bool{
	"equals(Ljava/lang/Object;)": true,
	"hashCode()":                 true,
	"toString()":                 true,
	"getClass()":                 true,
	"notify()":                   true,
	"notifyAll()":                true,
	"wait()":                     true,
	"wait(J)":                    true,
	"wait(JI)":                   true,
}

// Method is the single abstract method of a functional interface.
type Method struct {
	Owner      string
	Name       string
	Descriptor string
	// Generic renders the method with its generic signature, for example
	// "<V> R apply(T, V)".
	Generic string
}

type Result struct {
	Interface  string
	Functional bool
	// Annotated is true when the interface carries @FunctionalInterface.
	Annotated bool
	// Method is set only for functional interfaces.
	Method *Method
	// Candidates lists name+descriptor of every abstract method left after
	// folding, in supertype order.
	Candidates  []string
	Diagnostics []string
}

type Analyzer struct {
	hierarchy *hierarchy.Resolver
}

func NewAnalyzer(resolver *hierarchy.Resolver) *Analyzer {
	return &Analyzer{hierarchy: resolver}
}

// Analyze inspects the interface name. Classes are never functional and
// unresolvable names yield a diagnostic.
func (a *Analyzer) Analyze(name string) Result {
	cd, ok := a.hierarchy.Class(name)
	if !ok {
		return Result{Interface: name, Diagnostics: []string{"Class not found: " + name}}
	}
	res := Result{Interface: cd.Name}
	if !cd.IsInterface() {
		return res
	}
	for _, ann := range cd.VisibleAnnotations {
		if ann.Type == functionalInterface {
			res.Annotated = true
		}
	}

	lookup := a.hierarchy.CollectMethods(cd.Name, hierarchy.Unrestricted(cd.Name))
	res.Diagnostics = append(res.Diagnostics, lookup.Diagnostics...)

	abstract := a.fold(a.abstractMethods(lookup.Members))
	for _, m := range abstract {
		res.Candidates = append(res.Candidates, m.Name+m.Descriptor)
	}

	if len(abstract) == 1 {
		m := abstract[0]
		res.Functional = true
		res.Method = &Method{
			Owner:      m.Owner,
			Name:       m.Name,
			Descriptor: m.Descriptor,
			Generic:    generic(m),
		}
		log.Debugf("%s is functional via %s.%s%s", cd.Name, m.Owner, m.Name, m.Descriptor)
	} else if res.Annotated {
		res.Diagnostics = append(res.Diagnostics, fmt.Sprintf(
			"@FunctionalInterface is inconsistent: expected exactly one abstract method but found %d.", len(abstract)))
	}
	return res
}

// abstractMethods keeps the public abstract instance methods that no
// default method in a more specific interface implements.
func (a *Analyzer) abstractMethods(methods []hierarchy.ResolvedMember) []hierarchy.ResolvedMember {
	defaults := map[string][]string{}
	for _, m := range methods {
		if m.AccessFlags.IsAbstract() || m.AccessFlags.IsStatic() || m.AccessFlags.IsPrivate() {
			continue
		}
		key := parameterKey(m)
		defaults[key] = append(defaults[key], m.Owner)
	}

	var out []hierarchy.ResolvedMember
	for _, m := range methods {
		switch {
		case objectMethods[parameterKey(m)]:
		case m.AccessFlags.IsStatic(), !m.AccessFlags.IsAbstract():
		case m.AccessFlags.IsBridge(), m.AccessFlags.IsSynthetic():
		case !m.AccessFlags.IsPublic():
		case a.implemented(m, defaults[parameterKey(m)]):
		default:
			out = append(out, m)
		}
	}
	return out
}

// implemented reports whether one of the owners of a default method with
// the same key is a subtype of m's owner.
func (a *Analyzer) implemented(m hierarchy.ResolvedMember, owners []string) bool {
	for _, owner := range owners {
		if owner != m.Owner && a.hierarchy.Supertypes(owner).Contains(m.Owner) {
			return true
		}
	}
	return false
}

// fold merges methods sharing a name and parameter list. The survivor
// is the one with the most specific return type.
func (a *Analyzer) fold(methods []hierarchy.ResolvedMember) []hierarchy.ResolvedMember {
	var order []string
	byKey := map[string]hierarchy.ResolvedMember{}
	for _, m := range methods {
		key := parameterKey(m)
		existing, ok := byKey[key]
		if !ok {
			order = append(order, key)
			byKey[key] = m
			continue
		}
		if a.narrower(returnType(m.Descriptor), returnType(existing.Descriptor)) {
			byKey[key] = m
		}
	}
	out := make([]hierarchy.ResolvedMember, len(order))
	for i, key := range order {
		out[i] = byKey[key]
	}
	return out
}

// narrower reports whether return descriptor sub is a proper subtype of
// super. Only class types are compared; primitives and arrays must match
// exactly to be interchangeable.
func (a *Analyzer) narrower(sub, super string) bool {
	if sub == super || !isClass(sub) || !isClass(super) {
		return false
	}
	if super == "Ljava/lang/Object;" {
		return true
	}
	return a.hierarchy.Supertypes(className(sub)).Contains(className(super))
}

func parameterKey(m hierarchy.ResolvedMember) string {
	end := strings.IndexByte(m.Descriptor, ')')
	if end < 0 {
		return m.Name + m.Descriptor
	}
	return m.Name + m.Descriptor[:end+1]
}

func returnType(descriptor string) string {
	end := strings.IndexByte(descriptor, ')')
	if end < 0 {
		return ""
	}
	return descriptor[end+1:]
}

func isClass(desc string) bool {
	return strings.HasPrefix(desc, "L") && strings.HasSuffix(desc, ";")
}

func className(desc string) string {
	return desc[1 : len(desc)-1]
}

func generic(m hierarchy.ResolvedMember) string {
	sig := signature.ParseMethodSignature(m.Signature, m.Descriptor)
	var sb strings.Builder
	if len(sig.TypeParameters) > 0 {
		parts := make([]string, len(sig.TypeParameters))
		for i, tp := range sig.TypeParameters {
			parts[i] = tp.String()
		}
		sb.WriteString("<" + strings.Join(parts, ", ") + "> ")
	}
	params := make([]string, len(sig.Parameters))
	for i, p := range sig.Parameters {
		params[i] = p.String()
	}
	fmt.Fprintf(&sb, "%s %s(%s)", sig.Return, m.Name, strings.Join(params, ", "))
	return sb.String()
}
