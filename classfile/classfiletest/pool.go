// Package classfiletest assembles class files, jars and jmods in memory
// for tests.
package classfiletest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Buf is a big-endian byte builder.
type Buf struct {
	bytes.Buffer
}

func (b *Buf) U1(v uint8) *Buf  { b.WriteByte(v); return b }
func (b *Buf) U2(v uint16) *Buf { _ = binary.Write(&b.Buffer, binary.BigEndian, v); return b }
func (b *Buf) U4(v uint32) *Buf { _ = binary.Write(&b.Buffer, binary.BigEndian, v); return b }
func (b *Buf) Raw(p []byte) *Buf {
	b.Write(p)
	return b
}

// Pool is a constant pool under construction. Identical constants are
// shared.
type Pool struct {
	entries []byte
	next    uint16
	index   map[string]uint16
}

func NewPool() *Pool {
	return &Pool{next: 1, index: map[string]uint16{}}
}

func (p *Pool) add(key string, slots uint16, encode func(b *Buf)) uint16 {
	if i, ok := p.index[key]; ok {
		return i
	}
	var b Buf
	encode(&b)
	p.entries = append(p.entries, b.Bytes()...)
	i := p.next
	p.next += slots
	p.index[key] = i
	return i
}

func (p *Pool) Utf8(s string) uint16 {
	return p.add("utf8:"+s, 1, func(b *Buf) {
		b.U1(1).U2(uint16(len(s))).Raw([]byte(s))
	})
}

func (p *Pool) Integer(v int32) uint16 {
	return p.add(fmt.Sprintf("int:%d", v), 1, func(b *Buf) { b.U1(3).U4(uint32(v)) })
}

func (p *Pool) Float(v float32) uint16 {
	return p.add(fmt.Sprintf("float:%v", v), 1, func(b *Buf) { b.U1(4).U4(math.Float32bits(v)) })
}

func (p *Pool) Long(v int64) uint16 {
	return p.add(fmt.Sprintf("long:%d", v), 2, func(b *Buf) {
		b.U1(5).U4(uint32(uint64(v) >> 32)).U4(uint32(v))
	})
}

func (p *Pool) Double(v float64) uint16 {
	bits := math.Float64bits(v)
	return p.add(fmt.Sprintf("double:%v", v), 2, func(b *Buf) {
		b.U1(6).U4(uint32(bits >> 32)).U4(uint32(bits))
	})
}

func (p *Pool) Class(name string) uint16 {
	n := p.Utf8(name)
	return p.add("class:"+name, 1, func(b *Buf) { b.U1(7).U2(n) })
}

func (p *Pool) String(s string) uint16 {
	n := p.Utf8(s)
	return p.add("string:"+s, 1, func(b *Buf) { b.U1(8).U2(n) })
}

func (p *Pool) NameAndType(name, descriptor string) uint16 {
	n, d := p.Utf8(name), p.Utf8(descriptor)
	return p.add("nat:"+name+":"+descriptor, 1, func(b *Buf) { b.U1(12).U2(n).U2(d) })
}

func (p *Pool) Module(name string) uint16 {
	n := p.Utf8(name)
	return p.add("module:"+name, 1, func(b *Buf) { b.U1(19).U2(n) })
}

func (p *Pool) Package(name string) uint16 {
	n := p.Utf8(name)
	return p.add("package:"+name, 1, func(b *Buf) { b.U1(20).U2(n) })
}

// Raw appends an entry verbatim, which is how tests plant malformed pools.
func (p *Pool) Raw(payload []byte) uint16 {
	i := p.next
	p.entries = append(p.entries, payload...)
	p.next++
	return i
}

// Bytes returns constant_pool_count followed by the entries.
func (p *Pool) Bytes() []byte {
	var b Buf
	b.U2(p.next).Raw(p.entries)
	return b.Bytes()
}
