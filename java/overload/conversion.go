package overload

import "strings"

const (
	objectDescriptor       = "Ljava/lang/Object;"
	cloneableDescriptor    = "Ljava/lang/Cloneable;"
	serializableDescriptor = "Ljava/io/Serializable;"

	// unknownDistance is charged when no supertype path can be found.
	unknownDistance = 6
	objectDistance  = 8
)

var (
	box = map[string]string{
		"B": "Ljava/lang/Byte;",
		"S": "Ljava/lang/Short;",
		"I": "Ljava/lang/Integer;",
		"J": "Ljava/lang/Long;",
		"F": "Ljava/lang/Float;",
		"D": "Ljava/lang/Double;",
		"Z": "Ljava/lang/Boolean;",
		"C": "Ljava/lang/Character;",
	}
	unbox = func() map[string]string {
		m := make(map[string]string, len(box))
		for p, w := range box {
			m[w] = p
		}
		return m
	}()
	rank = map[string]int{"B": 0, "S": 1, "C": 1, "I": 2, "J": 3, "F": 4, "D": 5}
)

func isPrimitive(desc string) bool {
	return len(desc) == 1 && strings.Contains("BCDFIJSZV", desc)
}

func isReference(desc string) bool {
	return strings.HasPrefix(desc, "L") || strings.HasPrefix(desc, "[")
}

func isWrapper(desc string) bool {
	_, ok := unbox[desc]
	return ok
}

func isFloating(desc string) bool { return desc == "F" || desc == "D" }

// widening scores a primitive widening conversion: 1 plus the rank gap.
func widening(from, to string) Conversion {
	if from == to {
		return applicable(0)
	}
	fr, fok := rank[from]
	tr, tok := rank[to]
	if !fok || !tok {
		return inapplicable("non-numeric primitive conversion")
	}
	if fr > tr {
		return inapplicable("numeric narrowing is not allowed")
	}
	if isFloating(from) && !isFloating(to) {
		return inapplicable("floating to integral narrowing is not allowed")
	}
	return applicable(1 + tr - fr)
}

// internal strips L...; from a class descriptor.
func internal(desc string) (string, bool) {
	if strings.HasPrefix(desc, "L") && strings.HasSuffix(desc, ";") {
		return desc[1 : len(desc)-1], true
	}
	return "", false
}

func (r *Resolver) assignable(from, to string) bool {
	if from == to || to == objectDescriptor {
		return true
	}
	if strings.HasPrefix(from, "[") {
		if to == cloneableDescriptor || to == serializableDescriptor {
			return true
		}
		if !strings.HasPrefix(to, "[") {
			return false
		}
		fc, tc := from[1:], to[1:]
		if isReference(fc) && isReference(tc) {
			return r.assignable(fc, tc)
		}
		return false
	}
	_, ok := r.path(from, to)
	return ok
}

func (r *Resolver) distance(from, to string) int {
	if from == to {
		return 0
	}
	if to == objectDescriptor {
		return objectDistance
	}
	if strings.HasPrefix(from, "[") && strings.HasPrefix(to, "[") {
		fc, tc := from[1:], to[1:]
		if isReference(fc) && isReference(tc) {
			return r.distance(fc, tc)
		}
		return unknownDistance
	}
	if n, ok := r.path(from, to); ok {
		return n
	}
	return unknownDistance
}

// path counts the supertype edges from one class descriptor to another by
// breadth-first search.
func (r *Resolver) path(from, to string) (int, bool) {
	if r.hierarchy == nil {
		return 0, false
	}
	start, ok := internal(from)
	if !ok {
		return 0, false
	}
	goal, ok := internal(to)
	if !ok {
		return 0, false
	}
	type step struct {
		name     string
		distance int
	}
	visited := map[string]bool{}
	queue := []step{{start, 0}}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if visited[s.name] {
			continue
		}
		visited[s.name] = true
		if s.name == goal {
			return s.distance, true
		}
		supers, _ := r.hierarchy.DirectSupertypes(s.name)
		for _, super := range supers {
			queue = append(queue, step{super, s.distance + 1})
		}
	}
	return 0, false
}
