package symbols

import (
	"fmt"

	"github.com/dhamidi/linkage/classfile"
)

// MemoryProvider serves classes that exist only in memory, typically the
// ones the embedding compiler is producing right now.
type MemoryProvider struct {
	// Module is recorded as the origin module of every class.
	Module  string
	classes map[string]*ClassResolution
}

func NewMemoryProvider(module string) *MemoryProvider {
	return &MemoryProvider{Module: module, classes: map[string]*ClassResolution{}}
}

// Add registers a decoded class, replacing any earlier one of that name.
func (p *MemoryProvider) Add(cd *classfile.ClassDescriptor) {
	p.classes[cd.Name] = &ClassResolution{
		Status: Found,
		Class:  cd,
		Origin: &Origin{Entry: "memory", EntryName: cd.Name + ".class", Module: p.Module},
	}
}

// AddBytes decodes data and registers the result.
func (p *MemoryProvider) AddBytes(data []byte) (*classfile.ClassDescriptor, error) {
	cd, err := classfile.Read(data, "")
	if err != nil {
		return nil, fmt.Errorf("register class: %w", err)
	}
	p.Add(cd)
	p.classes[cd.Name].Bytes = data
	return cd, nil
}

func (p *MemoryProvider) Remove(name string) {
	delete(p.classes, InternalName(name))
}

func (p *MemoryProvider) ResolveClassWithMetadata(name string) (*ClassResolution, error) {
	if res, ok := p.classes[InternalName(name)]; ok {
		return res, nil
	}
	return notFound(), nil
}

// Chain consults providers in order. The first result other than
// NotFound wins, so a target-level mismatch in an earlier provider hides
// a class in a later one, matching classpath order.
type Chain []Provider

func (c Chain) ResolveClassWithMetadata(name string) (*ClassResolution, error) {
	for _, p := range c {
		res, err := p.ResolveClassWithMetadata(name)
		if err != nil {
			return nil, err
		}
		if res.Status != NotFound {
			return res, nil
		}
	}
	return notFound(), nil
}

var (
	_ Provider = (*Table)(nil)
	_ Provider = (*MemoryProvider)(nil)
	_ Provider = Chain(nil)
)
