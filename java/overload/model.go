package overload

import (
	"fmt"
	"strings"

	"github.com/dhamidi/linkage/java/nullability"
)

type InvokeKind int

const (
	Constructor InvokeKind = iota
	StaticMethod
	InstanceMethod
	StaticFieldGet
	StaticFieldSet
	InstanceFieldGet
	InstanceFieldSet
)

var invokeKindNames = [...]string{
	Constructor:      "CONSTRUCTOR",
	StaticMethod:     "STATIC_METHOD",
	InstanceMethod:   "INSTANCE_METHOD",
	StaticFieldGet:   "STATIC_FIELD_GET",
	StaticFieldSet:   "STATIC_FIELD_SET",
	InstanceFieldGet: "INSTANCE_FIELD_GET",
	InstanceFieldSet: "INSTANCE_FIELD_SET",
}

func (k InvokeKind) String() string {
	if int(k) >= 0 && int(k) < len(invokeKindNames) {
		return invokeKindNames[k]
	}
	return fmt.Sprintf("InvokeKind(%d)", int(k))
}

// ParseInvokeKind accepts the names printed by String, case-insensitively.
func ParseInvokeKind(s string) (InvokeKind, error) {
	for k, name := range invokeKindNames {
		if strings.EqualFold(name, s) {
			return InvokeKind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown invoke kind %q", s)
}

// IsStatic reports whether the kind targets a static member.
func (k InvokeKind) IsStatic() bool {
	return k == StaticMethod || k == StaticFieldGet || k == StaticFieldSet
}

func (k InvokeKind) isField() bool {
	return k >= StaticFieldGet
}

// Identity names one member as a call site would bind to it.
type Identity struct {
	Owner      string
	Name       string
	Descriptor string
	Kind       InvokeKind
}

func (id Identity) String() string {
	return id.Owner + "#" + id.Name + id.Descriptor + "@" + id.Kind.String()
}

type Candidate struct {
	Identity   Identity
	VarArgs    bool
	Parameters []string
	// Nullability holds one state per parameter. Missing entries are
	// Platform.
	Nullability []nullability.State
}

func (c Candidate) nullability(i int) nullability.State {
	if i < len(c.Nullability) {
		return c.Nullability[i]
	}
	return nullability.Platform
}

type argumentKind int

const (
	typed argumentKind = iota
	nullLiteral
	undefinedLiteral
)

// Argument is the static type of one call-site argument, or a null or
// undefined literal.
type Argument struct {
	Descriptor string
	kind       argumentKind
}

func Descriptor(desc string) Argument { return Argument{Descriptor: desc} }
func Null() Argument                  { return Argument{kind: nullLiteral} }
func Undefined() Argument             { return Argument{kind: undefinedLiteral} }

// IsNullish reports whether the argument is a null or undefined literal.
func (a Argument) IsNullish() bool { return a.kind != typed }

func (a Argument) String() string {
	switch a.kind {
	case nullLiteral:
		return "null"
	case undefinedLiteral:
		return "undefined"
	}
	return a.Descriptor
}

// ParseArgument reads an argument as written on a command line: a
// descriptor, or the words null and undefined.
func ParseArgument(s string) Argument {
	switch s {
	case "null":
		return Null()
	case "undefined":
		return Undefined()
	}
	return Descriptor(s)
}

type Conversion struct {
	Applicable bool
	Cost       int
	Reason     string
}

func applicable(cost int) Conversion { return Conversion{Applicable: true, Cost: cost} }
func inapplicable(reason string) Conversion {
	return Conversion{Reason: reason}
}

type Status int

const (
	Selected Status = iota
	NoApplicable
	Ambiguous
)

func (s Status) String() string {
	switch s {
	case Selected:
		return "SELECTED"
	case NoApplicable:
		return "NO_APPLICABLE"
	case Ambiguous:
		return "AMBIGUOUS"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Outcome is the verdict on one candidate. Score is meaningful only when
// Applicable is set; Reason only when it is not.
type Outcome struct {
	Candidate  Candidate
	Applicable bool
	Score      int
	Reason     string
}

type Resolution struct {
	Status     Status
	Selected   *Identity
	Diagnostic string
	// Outcomes follow the order of the candidates.
	Outcomes []Outcome
	// Best lists the candidates that share the lowest score.
	Best []Identity
}
