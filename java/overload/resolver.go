// Package overload picks the member a call site binds to from a list of
// candidates, scoring each applicable candidate by the conversions its
// arguments need and breaking ties by specificity.
//
// A Resolver holds no caches of its own; its Hierarchy may.
package overload

import (
	"fmt"
	"math"
	"strings"

	"github.com/dhamidi/linkage/java/nullability"
)

// Hierarchy answers supertype queries for reference assignability.
// DirectSupertypes returns the superclass and interfaces of an internal
// class name; ok is false when the class is unknown.
type Hierarchy interface {
	DirectSupertypes(internalName string) ([]string, bool)
}

type Resolver struct {
	hierarchy Hierarchy
}

// NewResolver returns a resolver. h may be nil, in which case only the
// built-in assignability rules apply.
func NewResolver(h Hierarchy) *Resolver {
	return &Resolver{hierarchy: h}
}

func (r *Resolver) Resolve(candidates []Candidate, args []Argument) Resolution {
	res := Resolution{Outcomes: make([]Outcome, 0, len(candidates))}
	best := math.MaxInt
	for _, c := range candidates {
		o := r.evaluate(c, args)
		res.Outcomes = append(res.Outcomes, o)
		if o.Applicable && o.Score < best {
			best = o.Score
		}
	}
	if best == math.MaxInt {
		res.Status = NoApplicable
		res.Diagnostic = noApplicableDiagnostic(args, res.Outcomes)
		return res
	}

	var tied []Outcome
	for _, o := range res.Outcomes {
		if o.Applicable && o.Score == best {
			tied = append(tied, o)
			res.Best = append(res.Best, o.Candidate.Identity)
		}
	}
	if len(tied) == 1 {
		res.Status = Selected
		res.Selected = &tied[0].Candidate.Identity
		return res
	}
	if winner, ok := r.mostSpecific(tied, len(args)); ok {
		res.Status = Selected
		res.Selected = &winner.Candidate.Identity
		return res
	}
	res.Status = Ambiguous
	res.Diagnostic = ambiguousDiagnostic(args, tied)
	return res
}

func (r *Resolver) evaluate(c Candidate, args []Argument) Outcome {
	params := c.Parameters
	if c.VarArgs && len(params) == 0 {
		return Outcome{Candidate: c, Reason: "invalid varargs descriptor: no parameters"}
	}
	if !c.VarArgs && len(args) != len(params) {
		return Outcome{Candidate: c, Reason: "arity mismatch"}
	}
	if c.VarArgs && len(args) < len(params)-1 {
		return Outcome{Candidate: c, Reason: "arity mismatch for varargs"}
	}

	score := 0
	fixed := len(params)
	if c.VarArgs {
		fixed--
	}
	for i := 0; i < fixed; i++ {
		conv := r.Convert(args[i], params[i], c.nullability(i))
		if !conv.Applicable {
			return Outcome{Candidate: c, Reason: fmt.Sprintf("argument %d incompatible with %s: %s", i, params[i], conv.Reason)}
		}
		score += conv.Cost
	}

	if c.VarArgs {
		array := params[len(params)-1]
		if !strings.HasPrefix(array, "[") {
			return Outcome{Candidate: c, Reason: "invalid varargs descriptor: " + array}
		}
		component := array[1:]
		state := c.nullability(len(params) - 1)
		for i := fixed; i < len(args); i++ {
			conv := r.Convert(args[i], component, state)
			if !conv.Applicable {
				return Outcome{Candidate: c, Reason: fmt.Sprintf("vararg %d incompatible with %s: %s", i-fixed, component, conv.Reason)}
			}
			score += conv.Cost + 2
		}
		score += 3
	}
	return Outcome{Candidate: c, Applicable: true, Score: score}
}

// Convert scores passing arg to a parameter of type param.
func (r *Resolver) Convert(arg Argument, param string, state nullability.State) Conversion {
	if arg.IsNullish() {
		switch {
		case isPrimitive(param):
			return inapplicable("null/undefined is incompatible with primitive parameter")
		case state == nullability.NonNull:
			return inapplicable("nullability incompatible (NON_NULL parameter)")
		case state == nullability.Nullable:
			return applicable(0)
		}
		return applicable(1)
	}

	desc := arg.Descriptor
	if desc == param {
		return applicable(0)
	}

	if isPrimitive(param) {
		switch {
		case isPrimitive(desc):
			return widening(desc, param)
		case isWrapper(desc):
			return plus(widening(unbox[desc], param), 1)
		}
		return inapplicable("reference is incompatible with primitive parameter")
	}

	if isWrapper(param) {
		switch {
		case isPrimitive(desc):
			return plus(widening(desc, unbox[param]), 1)
		case isWrapper(desc):
			return plus(widening(unbox[desc], unbox[param]), 2)
		}
	}

	if isPrimitive(desc) {
		boxed, ok := box[desc]
		if ok && r.assignable(boxed, param) {
			return applicable(2 + r.distance(boxed, param))
		}
		return inapplicable("boxing conversion is not assignable")
	}

	if !isReference(desc) || !isReference(param) {
		return inapplicable("incompatible descriptor kinds")
	}
	if !r.assignable(desc, param) {
		return inapplicable("reference is not assignable")
	}
	return applicable(r.distance(desc, param))
}

func plus(c Conversion, extra int) Conversion {
	if c.Applicable {
		c.Cost += extra
	}
	return c
}

// mostSpecific returns the single tied candidate more specific than all
// others.
func (r *Resolver) mostSpecific(tied []Outcome, argc int) (Outcome, bool) {
	var winner *Outcome
	for i := range tied {
		dominates := true
		for j := range tied {
			if i != j && !r.moreSpecific(tied[i].Candidate, tied[j].Candidate, argc) {
				dominates = false
				break
			}
		}
		if !dominates {
			continue
		}
		if winner != nil {
			return Outcome{}, false
		}
		winner = &tied[i]
	}
	if winner == nil {
		return Outcome{}, false
	}
	return *winner, true
}

func (r *Resolver) moreSpecific(left, right Candidate, argc int) bool {
	lp, rp := expand(left, argc), expand(right, argc)
	if len(lp) != len(rp) {
		return false
	}
	strict := false
	for i := range lp {
		if lp[i] == rp[i] {
			continue
		}
		if !r.typeMoreSpecific(lp[i], rp[i]) {
			return false
		}
		strict = true
	}
	return strict
}

// expand replaces a trailing varargs array with one component per
// argument it absorbs.
func expand(c Candidate, argc int) []string {
	params := append([]string(nil), c.Parameters...)
	if !c.VarArgs || len(params) == 0 {
		return params
	}
	last := params[len(params)-1]
	params = params[:len(params)-1]
	component := strings.TrimPrefix(last, "[")
	for i := len(params); i < argc; i++ {
		params = append(params, component)
	}
	return params
}

func (r *Resolver) typeMoreSpecific(left, right string) bool {
	switch {
	case isPrimitive(left) && isPrimitive(right):
		lr, lok := rank[left]
		rr, rok := rank[right]
		return lok && rok && lr < rr
	case isReference(left) && isReference(right):
		return r.assignable(left, right) && !r.assignable(right, left)
	case isPrimitive(left) && isWrapper(right):
		return unbox[right] == left
	}
	return false
}

func noApplicableDiagnostic(args []Argument, outcomes []Outcome) string {
	lines := make([]string, len(outcomes))
	for i, o := range outcomes {
		lines[i] = o.Candidate.Identity.String() + " -> " + o.Reason
	}
	return "No applicable candidate for arguments " + argumentSummary(args) +
		"; candidates: " + strings.Join(lines, "; ")
}

func ambiguousDiagnostic(args []Argument, tied []Outcome) string {
	parts := make([]string, len(tied))
	for i, o := range tied {
		parts[i] = fmt.Sprintf("%s score=%d", o.Candidate.Identity, o.Score)
	}
	return "Ambiguous best candidates for arguments " + argumentSummary(args) + ": " + strings.Join(parts, ", ")
}

func argumentSummary(args []Argument) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
