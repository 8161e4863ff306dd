// Package access decides whether a class may be referenced from a module,
// applying readability and export rules on top of class resolution.
//
// A Resolver is not safe for concurrent use.
package access

import (
	"fmt"

	"github.com/dhamidi/linkage/classfile"
	"github.com/dhamidi/linkage/java/modules"
	"github.com/dhamidi/linkage/java/symbols"
)

type Status int

const (
	Accessible Status = iota
	ClassNotFound
	ClassNotReadable
	ClassNotExported
	TargetLevelMismatch
)

func (s Status) String() string {
	switch s {
	case Accessible:
		return "ACCESSIBLE"
	case ClassNotFound:
		return "CLASS_NOT_FOUND"
	case ClassNotReadable:
		return "CLASS_NOT_READABLE"
	case ClassNotExported:
		return "CLASS_NOT_EXPORTED"
	case TargetLevelMismatch:
		return "TARGET_LEVEL_MISMATCH"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Context describes who is asking. An empty RequesterModule disables the
// module checks.
type Context struct {
	RequesterModule string
	// ClassModules pins classes to modules ahead of any origin
	// information, keyed by internal name.
	ClassModules map[string]string
	Readable     map[string]map[string]bool
	Exported     map[string]map[string]bool
	PackageOwner map[string]string
}

// Unrestricted returns a context under which every found class is
// accessible.
func Unrestricted() Context {
	return Context{}
}

// ForRequesterModule returns a context for code in module name, checked
// against graph.
func ForRequesterModule(name string, graph *modules.Graph) Context {
	return Context{
		RequesterModule: name,
		ClassModules:    map[string]string{},
		Readable:        graph.Readable,
		Exported:        graph.ExportedPackages,
		PackageOwner:    graph.PackageOwner,
	}
}

type Resolution struct {
	Status       Status
	InternalName string
	// OwnerModule is empty when the owning module is unknown.
	OwnerModule string
	Detail      string
	// Origin is set only for accessible classes.
	Origin *symbols.Origin
}

type Resolver struct {
	provider symbols.Provider
}

func NewResolver(provider symbols.Provider) *Resolver {
	return &Resolver{provider: provider}
}

// ResolveClass resolves name and checks that ctx may access it. Errors
// come only from the provider.
func (r *Resolver) ResolveClass(name string, ctx Context) (Resolution, error) {
	res, err := r.provider.ResolveClassWithMetadata(name)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve %s: %w", name, err)
	}
	switch res.Status {
	case symbols.NotFound:
		return Resolution{Status: ClassNotFound, InternalName: symbols.InternalName(name), Detail: "class-not-found"}, nil
	case symbols.TargetLevelMismatch:
		detail := res.Diagnostic
		if detail == "" {
			detail = "target-level-mismatch"
		}
		return Resolution{Status: TargetLevelMismatch, InternalName: symbols.InternalName(name), Detail: detail}, nil
	}

	internal := res.Class.Name
	owner := ownerModule(internal, res.Origin, ctx)
	requester := ctx.RequesterModule
	if owner != "" && requester != "" && owner != requester {
		if !ctx.Readable[requester][owner] {
			return Resolution{
				Status:       ClassNotReadable,
				InternalName: internal,
				OwnerModule:  owner,
				Detail:       fmt.Sprintf("class-not-readable: %s from %s", owner, requester),
			}, nil
		}
		pkg := classfile.PackageOf(internal)
		if !ctx.Exported[owner][pkg] {
			return Resolution{
				Status:       ClassNotExported,
				InternalName: internal,
				OwnerModule:  owner,
				Detail:       fmt.Sprintf("class-not-exported: %s from %s", pkg, owner),
			}, nil
		}
	}
	return Resolution{
		Status:       Accessible,
		InternalName: internal,
		OwnerModule:  owner,
		Detail:       "accessible",
		Origin:       res.Origin,
	}, nil
}

func ownerModule(internal string, origin *symbols.Origin, ctx Context) string {
	if m, ok := ctx.ClassModules[internal]; ok && m != "" {
		return m
	}
	if origin != nil && origin.Module != "" {
		return origin.Module
	}
	return ctx.PackageOwner[classfile.PackageOf(internal)]
}
