package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/linkage/classfile/classfiletest"
)

func TestMemoryProviderChainedBeforeTable(t *testing.T) {
	mem := NewMemoryProvider("app")
	cd, err := mem.AddBytes(classfiletest.New("app/Main").Extends("lib/Base").Bytes())
	require.NoError(t, err)
	assert.Equal(t, "app/Main", cd.Name)

	table := New(Options{Classpath: []string{classDir(t, "lib/Base", "app/Main")}})
	chain := Chain{mem, table}

	res, err := chain.ResolveClassWithMetadata("app.Main")
	require.NoError(t, err)
	assert.Equal(t, Found, res.Status)
	assert.Equal(t, "memory", res.Origin.Entry)
	assert.Equal(t, "app", res.Origin.Module)
	assert.Equal(t, "lib/Base", res.Class.SuperName)

	res, err = chain.ResolveClassWithMetadata("lib.Base")
	require.NoError(t, err)
	assert.Equal(t, Found, res.Status)
	assert.NotEqual(t, "memory", res.Origin.Entry)

	mem.Remove("app.Main")
	res, err = chain.ResolveClassWithMetadata("app.Main")
	require.NoError(t, err)
	assert.NotEqual(t, "memory", res.Origin.Entry)

	res, err = chain.ResolveClassWithMetadata("none.Such")
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.Status)
}

func TestMemoryProviderRejectsMalformedBytes(t *testing.T) {
	_, err := NewMemoryProvider("").AddBytes([]byte{0})
	assert.Error(t, err)
}
