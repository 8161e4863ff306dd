package sam_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/linkage/classfile/classfiletest"
	"github.com/dhamidi/linkage/java/hierarchy"
	"github.com/dhamidi/linkage/java/sam"
	"github.com/dhamidi/linkage/java/symbols"
)

const (
	public   = classfiletest.Public
	abstract = classfiletest.Public | classfiletest.Abstract
)

func analyzer(t *testing.T, classes ...*classfiletest.Class) *sam.Analyzer {
	t.Helper()
	p := symbols.NewMemoryProvider("")
	for _, c := range append([]*classfiletest.Class{classfiletest.New("java/lang/Object").Extends("")}, classes...) {
		_, err := p.AddBytes(c.Bytes())
		require.NoError(t, err)
	}
	return sam.NewAnalyzer(hierarchy.NewResolver(p))
}

func annotated(c *classfiletest.Class) *classfiletest.Class {
	return c.Attr(c.Annotations(true, classfiletest.A("Ljava/lang/FunctionalInterface;")))
}

func TestAnalyzeFunctional(t *testing.T) {
	fn := annotated(classfiletest.NewInterface("fn/Fn"))
	fn.Method(abstract, "apply", "(Ljava/lang/Object;)Ljava/lang/Object;", fn.Signature("(TT;)TR;"))
	fn.Method(abstract, "equals", "(Ljava/lang/Object;)Z")
	fn.Method(abstract, "toString", "()Ljava/lang/String;")
	fn.Method(public, "andThen", "(Lfn/Fn;)Lfn/Fn;")
	fn.Method(public|classfiletest.Static, "identity", "()Lfn/Fn;")
	fn.Method(abstract|classfiletest.Bridge|classfiletest.Synthetic, "apply", "(Ljava/lang/String;)Ljava/lang/Object;")

	res := analyzer(t, fn).Analyze("fn.Fn")
	assert.True(t, res.Functional)
	assert.True(t, res.Annotated)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, []string{"apply(Ljava/lang/Object;)Ljava/lang/Object;"}, res.Candidates)
	require.NotNil(t, res.Method)
	assert.Equal(t, sam.Method{
		Owner:      "fn/Fn",
		Name:       "apply",
		Descriptor: "(Ljava/lang/Object;)Ljava/lang/Object;",
		Generic:    "R apply(T)",
	}, *res.Method)
}

func TestAnalyzeCovariantRedeclaration(t *testing.T) {
	animal := classfiletest.New("zoo/Animal")
	dog := classfiletest.New("zoo/Dog").Extends("zoo/Animal")
	producer := classfiletest.NewInterface("zoo/Producer").
		Method(abstract, "get", "()Lzoo/Animal;")
	dogs := classfiletest.NewInterface("zoo/DogProducer").Implements("zoo/Producer").
		Method(abstract, "get", "()Lzoo/Dog;")
	objects := classfiletest.NewInterface("zoo/Supplier").
		Method(abstract, "get", "()Ljava/lang/Object;")
	both := classfiletest.NewInterface("zoo/Both").Implements("zoo/Supplier", "zoo/Producer")

	a := analyzer(t, animal, dog, producer, dogs, objects, both)

	res := a.Analyze("zoo/DogProducer")
	require.True(t, res.Functional)
	assert.Equal(t, "zoo/DogProducer", res.Method.Owner)
	assert.Equal(t, "()Lzoo/Dog;", res.Method.Descriptor)

	res = a.Analyze("zoo/Both")
	require.True(t, res.Functional)
	assert.Equal(t, "zoo/Producer", res.Method.Owner, "Animal is narrower than Object")
	assert.Equal(t, []string{"get()Lzoo/Animal;"}, res.Candidates)
}

func TestAnalyzeNotFunctional(t *testing.T) {
	two := annotated(classfiletest.NewInterface("fn/Two")).
		Method(abstract, "left", "()V").
		Method(abstract, "right", "(I)V")
	defaulted := classfiletest.NewInterface("fn/Defaulted").Implements("fn/Two").
		Method(public, "right", "(I)V")
	marker := classfiletest.NewInterface("fn/Marker")
	klass := classfiletest.New("fn/Impl").Implements("fn/Two").
		Method(public, "left", "()V").
		Method(public, "right", "(I)V")

	a := analyzer(t, two, defaulted, marker, klass)

	res := a.Analyze("fn/Two")
	assert.False(t, res.Functional)
	assert.Nil(t, res.Method)
	assert.Equal(t, []string{"left()V", "right(I)V"}, res.Candidates)
	assert.Equal(t, []string{
		"@FunctionalInterface is inconsistent: expected exactly one abstract method but found 2.",
	}, res.Diagnostics)

	res = a.Analyze("fn/Defaulted")
	assert.True(t, res.Functional, "a default method in a subinterface implements the abstract one")
	assert.Equal(t, "left", res.Method.Name)

	res = a.Analyze("fn/Marker")
	assert.False(t, res.Functional)
	assert.Empty(t, res.Candidates)
	assert.Empty(t, res.Diagnostics, "only annotated interfaces are reported")

	res = a.Analyze("fn/Impl")
	assert.False(t, res.Functional)
	assert.Empty(t, res.Candidates)

	res = a.Analyze("fn/Missing")
	assert.False(t, res.Functional)
	assert.Equal(t, []string{"Class not found: fn/Missing"}, res.Diagnostics)
}
