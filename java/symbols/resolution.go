package symbols

import (
	"fmt"
	"strings"

	"github.com/dhamidi/linkage/classfile"
)

type Status int

const (
	Found Status = iota
	NotFound
	TargetLevelMismatch
)

var statusNames = map[Status]string{
	Found:               "FOUND",
	NotFound:            "NOT_FOUND",
	TargetLevelMismatch: "TARGET_LEVEL_MISMATCH",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func parseStatus(name string) (Status, bool) {
	for s, n := range statusNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// Origin records where a class was found.
type Origin struct {
	// Entry is the absolute classpath entry: a directory, jar or jmod.
	Entry     string
	EntryName string
	Versioned bool
	// SelectedVersion is the META-INF/versions release, zero when the
	// entry is not versioned.
	SelectedVersion int
	// Module is empty when the entry does not belong to a known module.
	Module string
}

type ClassResolution struct {
	Status     Status
	Class      *classfile.ClassDescriptor
	Origin     *Origin
	Diagnostic string
	Bytes      []byte
}

const classNotFound = "class-not-found"

func notFound() *ClassResolution {
	return &ClassResolution{Status: NotFound, Diagnostic: classNotFound}
}

func targetLevelMismatch(version int) *ClassResolution {
	diagnostic := "target-level-mismatch"
	if version > 0 {
		diagnostic = fmt.Sprintf("target-level-mismatch: requires class version %d", version)
	}
	return &ClassResolution{Status: TargetLevelMismatch, Diagnostic: diagnostic}
}

type CacheStats struct {
	Hits          int64
	Misses        int64
	Invalidations int64
}

// Provider supplies class descriptors by name. Names may use '.' or '/'.
// A missing class is a NotFound resolution, not an error; errors are
// reserved for unreadable or malformed inputs.
type Provider interface {
	ResolveClassWithMetadata(name string) (*ClassResolution, error)
}

// InternalName converts a dotted class name to internal form.
func InternalName(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}
