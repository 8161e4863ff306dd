package hierarchy_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/linkage/classfile/classfiletest"
	"github.com/dhamidi/linkage/java/hierarchy"
	"github.com/dhamidi/linkage/java/modules"
	"github.com/dhamidi/linkage/java/symbols"
)

const object = "java/lang/Object"

func register(t *testing.T, p *symbols.MemoryProvider, classes ...*classfiletest.Class) {
	t.Helper()
	for _, c := range classes {
		_, err := p.AddBytes(c.Bytes())
		require.NoError(t, err)
	}
}

func withObject(t *testing.T, classes ...*classfiletest.Class) *symbols.MemoryProvider {
	t.Helper()
	p := symbols.NewMemoryProvider("")
	register(t, p, classfiletest.New(object).Extends(""))
	register(t, p, classes...)
	return p
}

func TestSupertypes(t *testing.T) {
	p := withObject(t,
		classfiletest.New("demo/A"),
		classfiletest.New("demo/B").Extends("demo/A"),
		classfiletest.NewInterface("demo/J"),
		classfiletest.NewInterface("demo/I").Implements("demo/J"),
		classfiletest.New("demo/C").Extends("demo/B").Implements("demo/I"),
	)
	r := hierarchy.NewResolver(p)

	res := r.Supertypes("demo.C")
	assert.Equal(t, []string{"demo/B", "demo/A", object, "demo/I", "demo/J"}, res.Supertypes)
	assert.Empty(t, res.Diagnostics)
	assert.True(t, res.Contains("demo/J"))

	again := r.Supertypes("demo/C")
	assert.Equal(t, res, again)
	assert.Equal(t, 1, r.SupertypeCacheSize())

	direct, ok := r.DirectSupertypes("demo/C")
	require.True(t, ok)
	assert.Equal(t, []string{"demo/B", "demo/I"}, direct)
	_, ok = r.DirectSupertypes("demo/Missing")
	assert.False(t, ok)
}

func TestSupertypesCycle(t *testing.T) {
	p := symbols.NewMemoryProvider("")
	register(t, p,
		classfiletest.New("cyc/A").Extends("cyc/B"),
		classfiletest.New("cyc/B").Extends("cyc/A"),
	)
	res := hierarchy.NewResolver(p).Supertypes("cyc/A")
	assert.Equal(t, []string{"cyc/B"}, res.Supertypes)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "Detected inheritance cycle at cyc/B -> cyc/A", res.Diagnostics[0])
}

func TestSupertypesMissingClass(t *testing.T) {
	p := withObject(t, classfiletest.New("demo/C").Extends("gone/Base"))
	res := hierarchy.NewResolver(p).Supertypes("demo/C")
	assert.Equal(t, []string{"gone/Base"}, res.Supertypes)
	assert.Equal(t, []string{"Class not found while traversing supertypes: gone/Base"}, res.Diagnostics)
}

type brokenProvider struct {
	symbols.Provider
	broken string
}

func (b brokenProvider) ResolveClassWithMetadata(name string) (*symbols.ClassResolution, error) {
	if symbols.InternalName(name) == b.broken {
		return nil, errors.New("checksum mismatch")
	}
	return b.Provider.ResolveClassWithMetadata(name)
}

func TestSupertypesReadError(t *testing.T) {
	p := withObject(t, classfiletest.New("demo/C").Extends("demo/Bad"))
	r := hierarchy.NewResolver(brokenProvider{Provider: p, broken: "demo/Bad"})
	res := r.Supertypes("demo/C")
	assert.Equal(t, []string{"Class could not be read while traversing supertypes: demo/Bad: checksum mismatch"}, res.Diagnostics)

	members := r.CollectMembers("demo/C", "toString", hierarchy.Unrestricted("demo/C"))
	assert.Empty(t, members.Members)
	assert.Equal(t, res.Diagnostics, members.Diagnostics)
}

func TestCollectMembers(t *testing.T) {
	p := withObject(t,
		classfiletest.New("demo/Base").
			Field(classfiletest.Public, "value", "I").
			Method(classfiletest.Public, "value", "()I").
			Method(classfiletest.Public, "value", "(I)V"),
		classfiletest.New("demo/Sub").Extends("demo/Base").
			Method(classfiletest.Public, "value", "()I"),
	)
	r := hierarchy.NewResolver(p)

	lookup := r.CollectMembers("demo.Sub", "value", hierarchy.Unrestricted("demo/Other"))
	require.Len(t, lookup.Members, 4)
	assert.Empty(t, lookup.Diagnostics)

	first := lookup.Members[0]
	assert.Equal(t, "demo/Sub", first.Owner)
	assert.Equal(t, hierarchy.Method, first.Kind)
	assert.False(t, first.Inherited)

	field := lookup.Members[1]
	assert.Equal(t, "demo/Base", field.Owner)
	assert.Equal(t, hierarchy.Field, field.Kind)
	assert.Equal(t, "I", field.Descriptor)
	assert.True(t, field.Inherited)
	assert.Equal(t, hierarchy.Public, field.Visibility)
	assert.True(t, field.Accessible)

	assert.Equal(t, "(I)V", lookup.Members[3].Descriptor)

	r.CollectMembers("demo/Sub", "value", hierarchy.Unrestricted("demo/Other"))
	assert.Equal(t, 1, r.ScanCount("demo.Sub", "value"))
	assert.Equal(t, 1, r.ScanCount("demo/Base", "value"))
	assert.Equal(t, 1, r.ScanCount(object, "value"))
	assert.Equal(t, 3, r.MemberCacheSize())
}

func TestMemberAccessibility(t *testing.T) {
	p := withObject(t,
		classfiletest.New("p/Base").
			Method(classfiletest.Public, "open", "()V").
			Method(classfiletest.Protected, "guarded", "()V").
			Method(0, "local", "()V").
			Method(classfiletest.Private, "hidden", "()V"),
		classfiletest.New("q/Sub").Extends("p/Base"),
		classfiletest.New("q/Other"),
		classfiletest.New("p/Peer"),
	)
	r := hierarchy.NewResolver(p)

	accessible := func(requester, member string) bool {
		lookup := r.CollectMembers("p/Base", member, hierarchy.Unrestricted(requester))
		require.Len(t, lookup.Members, 1)
		return lookup.Members[0].Accessible
	}

	tests := []struct {
		requester string
		member    string
		want      bool
	}{
		{"q/Other", "open", true},
		{"q/Sub", "guarded", true},
		{"p/Peer", "guarded", true},
		{"q/Other", "guarded", false},
		{"p/Peer", "local", true},
		{"q/Sub", "local", false},
		{"p/Base", "hidden", true},
		{"p/Peer", "hidden", false},
	}
	for _, tt := range tests {
		t.Run(tt.requester+" "+tt.member, func(t *testing.T) {
			assert.Equal(t, tt.want, accessible(tt.requester, tt.member))
		})
	}

	lookup := r.CollectMembers("p/Base", "local", hierarchy.Unrestricted("p/Peer"))
	assert.Equal(t, hierarchy.PackagePrivate, lookup.Members[0].Visibility)
}

func TestMemberAccessibilityAcrossModules(t *testing.T) {
	p := withObject(t,
		classfiletest.New("lib/api/Api").Method(classfiletest.Public, "call", "()V"),
		classfiletest.New("lib/impl/Impl").
			Method(classfiletest.Public, "call", "()V").
			Method(0, "local", "()V"),
		classfiletest.New("app/Main"),
	)
	g, err := modules.Build([]modules.ModuleSource{
		{Name: "app", Requires: []string{"lib"}, Packages: []string{"app"}},
		{Name: "lib", Packages: []string{"lib/api", "lib/impl"}, Exports: exportsOf("lib/api")},
		{Name: "other", Packages: []string{"other"}},
	}, nil)
	require.NoError(t, err)
	classModules := map[string]string{
		"lib/api/Api":   "lib",
		"lib/impl/Impl": "lib",
		"app/Main":      "app",
	}
	r := hierarchy.NewResolver(p)
	ctx := hierarchy.ForModule("app/Main", "app", g, classModules)

	api := r.CollectMembers("lib/api/Api", "call", ctx).Members[0]
	assert.True(t, api.Accessible)
	assert.True(t, api.ModuleReadable)
	assert.True(t, api.PackageExported)

	impl := r.CollectMembers("lib/impl/Impl", "call", ctx).Members[0]
	assert.False(t, impl.Accessible)
	assert.True(t, impl.ModuleReadable)
	assert.False(t, impl.PackageExported)

	unreadable := hierarchy.ForModule("other/X", "other", g, classModules)
	call := r.CollectMembers("lib/api/Api", "call", unreadable).Members[0]
	assert.False(t, call.ModuleReadable)
	assert.False(t, call.Accessible)

	samePackage := hierarchy.ForModule("lib/impl/Helper", "app", g, classModules)
	local := r.CollectMembers("lib/impl/Impl", "local", samePackage).Members[0]
	assert.False(t, local.Accessible, "same package in a different module")
}

func TestCollectMethods(t *testing.T) {
	base := classfiletest.New("demo/Base").
		Field(classfiletest.Public, "count", "I").
		Method(classfiletest.Public, "size", "()I")
	sub := classfiletest.New("demo/Sub").Extends("demo/Base")
	sub.Method(classfiletest.Public, "items", "()Ljava/util/List;", sub.Signature("()Ljava/util/List<Ljava/lang/String;>;"))
	sub.Method(classfiletest.Public, "size", "()I")
	r := hierarchy.NewResolver(withObject(t, base, sub))

	lookup := r.CollectMethods("demo.Sub", hierarchy.Unrestricted("demo/Sub"))
	assert.Empty(t, lookup.Diagnostics)
	var got []string
	for _, m := range lookup.Members {
		assert.Equal(t, hierarchy.Method, m.Kind)
		got = append(got, m.Owner+"."+m.Name)
	}
	assert.Equal(t, []string{"demo/Sub.items", "demo/Sub.size", "demo/Base.size"}, got)
	assert.Equal(t, "()Ljava/util/List<Ljava/lang/String;>;", lookup.Members[0].Signature)
	assert.True(t, lookup.Members[2].Inherited)

	cd, ok := r.Class("demo.Base")
	require.True(t, ok)
	assert.Equal(t, "demo/Base", cd.Name)
	_, ok = r.Class("demo/Missing")
	assert.False(t, ok)
}
