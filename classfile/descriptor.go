package classfile

import "strings"

// FieldType is a decoded field descriptor. Exactly one of BaseType and
// ClassName is set.
type FieldType struct {
	BaseType   string
	ClassName  string
	ArrayDepth int
}

func (ft *FieldType) String() string {
	var sb strings.Builder
	if ft.BaseType != "" {
		sb.WriteString(ft.BaseType)
	} else {
		sb.WriteString(InternalToSourceName(ft.ClassName))
	}
	for i := 0; i < ft.ArrayDepth; i++ {
		sb.WriteString("[]")
	}
	return sb.String()
}

func (ft *FieldType) IsArray() bool     { return ft.ArrayDepth > 0 }
func (ft *FieldType) IsPrimitive() bool { return ft.BaseType != "" && ft.ArrayDepth == 0 }
func (ft *FieldType) IsReference() bool { return ft.ClassName != "" || ft.ArrayDepth > 0 }

// MethodType is a decoded method descriptor. Return is nil for void.
type MethodType struct {
	Parameters []FieldType
	Return     *FieldType
}

func (mt *MethodType) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, p := range mt.Parameters {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(") ")
	if mt.Return == nil {
		sb.WriteString("void")
	} else {
		sb.WriteString(mt.Return.String())
	}
	return sb.String()
}

var baseTypes = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
}

// ParseFieldDescriptor returns nil unless desc is exactly one field type.
func ParseFieldDescriptor(desc string) *FieldType {
	ft, n := parseFieldType(desc, 0)
	if ft == nil || n != len(desc) {
		return nil
	}
	return ft
}

// ParseMethodDescriptor returns nil for a malformed descriptor.
func ParseMethodDescriptor(desc string) *MethodType {
	params, end, ok := splitParameters(desc)
	if !ok {
		return nil
	}
	mt := &MethodType{}
	for _, p := range params {
		ft, _ := parseFieldType(p, 0)
		mt.Parameters = append(mt.Parameters, *ft)
	}
	ret := desc[end:]
	if ret == "V" {
		return mt
	}
	mt.Return = ParseFieldDescriptor(ret)
	if mt.Return == nil {
		return nil
	}
	return mt
}

// ParameterDescriptors splits a method descriptor into its raw parameter
// descriptors, e.g. "(I[Ljava/lang/String;)V" gives ["I",
// "[Ljava/lang/String;"]. A malformed descriptor gives nil.
func ParameterDescriptors(desc string) []string {
	params, _, ok := splitParameters(desc)
	if !ok {
		return nil
	}
	return params
}

// ParameterCount is len(ParameterDescriptors(desc)), or -1 when desc is
// malformed.
func ParameterCount(desc string) int {
	params, _, ok := splitParameters(desc)
	if !ok {
		return -1
	}
	return len(params)
}

// ReturnDescriptor returns the part of desc after ')'.
func ReturnDescriptor(desc string) string {
	if i := strings.IndexByte(desc, ')'); i >= 0 {
		return desc[i+1:]
	}
	return ""
}

func splitParameters(desc string) (params []string, end int, ok bool) {
	if len(desc) == 0 || desc[0] != '(' {
		return nil, 0, false
	}
	params = []string{}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		ft, n := parseFieldType(desc, i)
		if ft == nil {
			return nil, 0, false
		}
		params = append(params, desc[i:i+n])
		i += n
	}
	if i >= len(desc) {
		return nil, 0, false
	}
	return params, i + 1, true
}

func parseFieldType(desc string, start int) (*FieldType, int) {
	ft := &FieldType{}
	i := start
	for i < len(desc) && desc[i] == '[' {
		ft.ArrayDepth++
		i++
	}
	if i >= len(desc) {
		return nil, 0
	}
	if base, ok := baseTypes[desc[i]]; ok {
		ft.BaseType = base
		return ft, i - start + 1
	}
	if desc[i] != 'L' {
		return nil, 0
	}
	semicolon := strings.IndexByte(desc[i:], ';')
	if semicolon <= 1 {
		return nil, 0
	}
	ft.ClassName = desc[i+1 : i+semicolon]
	return ft, i - start + semicolon + 1
}

func InternalToSourceName(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

func SourceToInternalName(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}
