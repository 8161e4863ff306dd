package hierarchy

import (
	"github.com/dhamidi/linkage/classfile"
	"github.com/dhamidi/linkage/java/modules"
)

type Visibility int

const (
	Public Visibility = iota
	Protected
	PackagePrivate
	Private
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "PUBLIC"
	case Protected:
		return "PROTECTED"
	case Private:
		return "PRIVATE"
	}
	return "PACKAGE_PRIVATE"
}

// VisibilityOf reads the visibility bits in the order public, protected,
// private.
func VisibilityOf(flags classfile.AccessFlags) Visibility {
	switch {
	case flags.IsPublic():
		return Public
	case flags.IsProtected():
		return Protected
	case flags.IsPrivate():
		return Private
	}
	return PackagePrivate
}

// LookupContext describes the code asking for a member. Module checks are
// skipped when either side's module is unknown.
type LookupContext struct {
	RequestingClass  string
	RequestingModule string
	// ClassModules maps internal class names to their module.
	ClassModules map[string]string
	Readable     map[string]map[string]bool
	Exported     map[string]map[string]bool
}

// Unrestricted returns a context that applies only class and package
// rules.
func Unrestricted(requester string) LookupContext {
	return LookupContext{RequestingClass: normalizeName(requester)}
}

// ForModule returns a context for requester in module, checked against
// graph. classModules places classes into modules.
func ForModule(requester, module string, graph *modules.Graph, classModules map[string]string) LookupContext {
	return LookupContext{
		RequestingClass:  normalizeName(requester),
		RequestingModule: module,
		ClassModules:     classModules,
		Readable:         graph.Readable,
		Exported:         graph.ExportedPackages,
	}
}

type accessResult struct {
	visibility      Visibility
	accessible      bool
	moduleReadable  bool
	packageExported bool
}

func (r *Resolver) evaluateAccess(flags classfile.AccessFlags, owner string, ctx LookupContext) accessResult {
	requester := ctx.RequestingClass
	ownerModule := ctx.ClassModules[owner]
	requesterModule := ctx.RequestingModule
	ownerPackage := classfile.PackageOf(owner)
	samePackage := ownerPackage == classfile.PackageOf(requester)
	unknown := ownerModule == "" || requesterModule == ""

	res := accessResult{
		visibility:      VisibilityOf(flags),
		moduleReadable:  unknown || ownerModule == requesterModule || ctx.Readable[requesterModule][ownerModule],
		packageExported: unknown || ownerModule == requesterModule || ctx.Exported[ownerModule][ownerPackage],
	}
	switch res.visibility {
	case Public:
		res.accessible = res.moduleReadable && res.packageExported
	case Protected:
		res.accessible = res.moduleReadable && res.packageExported &&
			(samePackage || requester == owner || r.Supertypes(requester).Contains(owner))
	case PackagePrivate:
		res.accessible = samePackage && (unknown || ownerModule == requesterModule)
	case Private:
		res.accessible = owner == requester
	}
	return res
}
