package classfile

import (
	"fmt"
	"math"
	"strconv"
)

// constant is one decoded pool slot. Reference kinds keep their operand
// indices in a and b; literal kinds keep their value in str or num.
type constant struct {
	tag ConstantTag
	str string
	num uint64
	a   uint16
	b   uint16
}

// constantPool is indexed from 1; slot 0 and the second slot of 8-byte
// entries hold a zero tag.
type constantPool []constant

func readConstantPool(r *reader) constantPool {
	count := r.u2()
	if r.err != nil {
		return nil
	}
	cp := make(constantPool, count)
	for i := 1; i < int(count); i++ {
		tag := ConstantTag(r.u1())
		c := constant{tag: tag}
		switch tag {
		case ConstantUtf8:
			c.str = decodeModifiedUtf8(r.take(int(r.u2())))
		case ConstantInteger, ConstantFloat:
			c.num = uint64(r.u4())
		case ConstantLong, ConstantDouble:
			high := r.u4()
			low := r.u4()
			c.num = uint64(high)<<32 | uint64(low)
		case ConstantClass, ConstantString, ConstantMethodType, ConstantModule, ConstantPackage:
			c.a = r.u2()
		case ConstantFieldref, ConstantMethodref, ConstantInterfaceMethodref,
			ConstantNameAndType, ConstantDynamic, ConstantInvokeDynamic:
			c.a = r.u2()
			c.b = r.u2()
		case ConstantMethodHandle:
			c.a = uint16(r.u1())
			c.b = r.u2()
		default:
			r.fail(fmt.Errorf("%w: constant pool tag %d at index %d", ErrUnknownTag, tag, i))
			return nil
		}
		if r.err != nil {
			return nil
		}
		cp[i] = c
		if tag == ConstantLong || tag == ConstantDouble {
			i++
		}
	}
	return cp
}

func (cp constantPool) entry(r *reader, index uint16, want ConstantTag) (constant, bool) {
	if r.err != nil {
		return constant{}, false
	}
	if index == 0 || int(index) >= len(cp) {
		r.fail(fmt.Errorf("%w: index %d out of range", ErrBadConstant, index))
		return constant{}, false
	}
	c := cp[index]
	if c.tag != want {
		r.fail(fmt.Errorf("%w: index %d has tag %d, want %d", ErrBadConstant, index, c.tag, want))
		return constant{}, false
	}
	return c, true
}

func (cp constantPool) utf8(r *reader, index uint16) string {
	c, _ := cp.entry(r, index, ConstantUtf8)
	return c.str
}

func (cp constantPool) className(r *reader, index uint16) string {
	c, ok := cp.entry(r, index, ConstantClass)
	if !ok {
		return ""
	}
	return cp.utf8(r, c.a)
}

// optionalClassName treats index 0 as absent.
func (cp constantPool) optionalClassName(r *reader, index uint16) string {
	if index == 0 {
		return ""
	}
	return cp.className(r, index)
}

func (cp constantPool) optionalUtf8(r *reader, index uint16) string {
	if index == 0 {
		return ""
	}
	return cp.utf8(r, index)
}

func (cp constantPool) nameAndType(r *reader, index uint16) (name, descriptor string) {
	c, ok := cp.entry(r, index, ConstantNameAndType)
	if !ok {
		return "", ""
	}
	return cp.utf8(r, c.a), cp.utf8(r, c.b)
}

func (cp constantPool) moduleName(r *reader, index uint16) string {
	c, ok := cp.entry(r, index, ConstantModule)
	if !ok {
		return ""
	}
	return cp.utf8(r, c.a)
}

func (cp constantPool) packageName(r *reader, index uint16) string {
	c, ok := cp.entry(r, index, ConstantPackage)
	if !ok {
		return ""
	}
	return cp.utf8(r, c.a)
}

// literal renders the constant an annotation element points at. The
// element tag decides which pool kind is legal.
func (cp constantPool) literal(r *reader, index uint16, elementTag byte) string {
	var want ConstantTag
	switch elementTag {
	case 'B', 'C', 'I', 'S', 'Z':
		want = ConstantInteger
	case 'J':
		want = ConstantLong
	case 'F':
		want = ConstantFloat
	case 'D':
		want = ConstantDouble
	default:
		want = ConstantUtf8
	}
	c, ok := cp.entry(r, index, want)
	if !ok {
		return ""
	}
	switch want {
	case ConstantInteger:
		v := int32(uint32(c.num))
		switch elementTag {
		case 'Z':
			return strconv.FormatBool(v != 0)
		case 'C':
			return string(rune(v))
		}
		return strconv.FormatInt(int64(v), 10)
	case ConstantLong:
		return strconv.FormatInt(int64(c.num), 10)
	case ConstantFloat:
		return strconv.FormatFloat(float64(math.Float32frombits(uint32(c.num))), 'g', -1, 32)
	case ConstantDouble:
		return strconv.FormatFloat(math.Float64frombits(c.num), 'g', -1, 64)
	}
	return c.str
}
