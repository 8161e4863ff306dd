package classfile

import (
	"encoding/binary"
	"fmt"
	"os"
)

// reader walks a byte window with a sticky error. Once err is set every
// read returns zero values, so decoders can run straight-line and check
// err once at the end.
type reader struct {
	data []byte
	pos  int
	base int
	err  error
	off  int
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
		r.off = r.base + r.pos
	}
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.remaining() {
		r.fail(fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, r.remaining()))
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u1() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u2() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) u4() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// window splits off the next n bytes as an independent reader.
func (r *reader) window(n int) *reader {
	start := r.base + r.pos
	b := r.take(n)
	if r.err != nil {
		return &reader{base: start, err: r.err, off: r.off}
	}
	return &reader{data: b, base: start}
}

// adopt copies a child window's failure into r.
func (r *reader) adopt(child *reader, context string) {
	if child.err == nil || r.err != nil {
		return
	}
	r.err = fmt.Errorf("%s: %w", context, child.err)
	r.off = child.off
}

// ReadFile reads and decodes the class file at path.
func ReadFile(path string) (*ClassDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class file: %w", err)
	}
	return Read(data, path)
}

// Read decodes a class file held in memory. path is used for diagnostics
// and recorded on the descriptor.
func Read(data []byte, path string) (*ClassDescriptor, error) {
	r := &reader{data: data}

	magic := r.u4()
	if r.err != nil {
		return nil, &FormatError{Path: path, Offset: r.off, Err: r.err}
	}
	if magic != Magic {
		return nil, &FormatError{Path: path, Err: fmt.Errorf("%w: 0x%08X", ErrBadMagic, magic)}
	}

	cd := &ClassDescriptor{
		Path:         path,
		MinorVersion: r.u2(),
		MajorVersion: r.u2(),
	}

	cp := readConstantPool(r)
	if r.err != nil {
		return nil, &FormatError{Path: path, Offset: r.off, Err: fmt.Errorf("constant pool: %w", r.err)}
	}
	d := &decoder{cp: cp}

	cd.AccessFlags = AccessFlags(r.u2())
	cd.Name = cp.className(r, r.u2())
	cd.SuperName = cp.optionalClassName(r, r.u2())

	interfacesCount := int(r.u2())
	for i := 0; i < interfacesCount && r.err == nil; i++ {
		cd.Interfaces = append(cd.Interfaces, cp.className(r, r.u2()))
	}

	fieldsCount := int(r.u2())
	for i := 0; i < fieldsCount && r.err == nil; i++ {
		cd.Fields = append(cd.Fields, d.readField(r))
	}

	methodsCount := int(r.u2())
	for i := 0; i < methodsCount && r.err == nil; i++ {
		cd.Methods = append(cd.Methods, d.readMethod(r))
	}

	d.readClassAttributes(r, cd)

	if r.err == nil && r.remaining() > 0 {
		r.fail(fmt.Errorf("%w: %d bytes after last attribute", ErrTrailingBytes, r.remaining()))
	}
	if r.err != nil {
		return nil, &FormatError{Path: path, Offset: r.off, Err: r.err}
	}
	return cd, nil
}

func decodeModifiedUtf8(bytes []byte) string {
	runes := make([]rune, 0, len(bytes))
	i := 0
	for i < len(bytes) {
		b := bytes[i]
		switch {
		case b&0x80 == 0:
			runes = append(runes, rune(b))
			i++
		case b&0xE0 == 0xC0 && i+1 < len(bytes):
			runes = append(runes, rune(b&0x1F)<<6|rune(bytes[i+1]&0x3F))
			i += 2
		case b&0xF0 == 0xE0 && i+2 < len(bytes):
			r := rune(b&0x0F)<<12 | rune(bytes[i+1]&0x3F)<<6 | rune(bytes[i+2]&0x3F)
			// Supplementary characters are stored as two encoded surrogates.
			if r >= 0xD800 && r <= 0xDBFF && i+5 < len(bytes) && bytes[i+3]&0xF0 == 0xE0 {
				low := rune(bytes[i+3]&0x0F)<<12 | rune(bytes[i+4]&0x3F)<<6 | rune(bytes[i+5]&0x3F)
				if low >= 0xDC00 && low <= 0xDFFF {
					runes = append(runes, 0x10000+((r-0xD800)<<10)+(low-0xDC00))
					i += 6
					continue
				}
			}
			runes = append(runes, r)
			i += 3
		default:
			runes = append(runes, rune(b))
			i++
		}
	}
	return string(runes)
}
