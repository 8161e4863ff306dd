package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/linkage/classfile/classfiletest"
)

// fixture writes a class directory and a linkage.yaml pointing at it.
func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	classes := filepath.Join(dir, "classes")

	classfiletest.WriteClass(t, classes, "com/example/Shape", classfiletest.New("com/example/Shape").
		Method(classfiletest.Public, "area", "()D").
		Bytes())
	classfiletest.WriteClass(t, classes, "com/example/Square", classfiletest.New("com/example/Square").
		Extends("com/example/Shape").
		Implements("java/lang/Comparable").
		Field(classfiletest.Private, "side", "D").
		Method(classfiletest.Public, "area", "()D").
		Method(classfiletest.Public|classfiletest.Static, "of", "(I)Lcom/example/Square;").
		Method(classfiletest.Public|classfiletest.Static, "of", "(D)Lcom/example/Square;").
		Method(classfiletest.Public, "getSide", "()D").
		Method(classfiletest.Public, "setSide", "(D)V").
		Bytes())
	classfiletest.WriteClass(t, classes, "com/example/Measure", classfiletest.NewInterface("com/example/Measure").
		Method(classfiletest.Public|classfiletest.Abstract, "measure", "(Lcom/example/Shape;)D").
		Method(classfiletest.Public, "unit", "()Ljava/lang/String;").
		Bytes())

	config := "classpath: [classes]\ncache_file: cache.db\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "linkage.yaml"), []byte(config), 0o644))
	return dir
}

func run(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", filepath.Join(dir, "linkage.yaml")}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestDump(t *testing.T) {
	dir := fixture(t)

	out, _, err := run(t, dir, "dump", "com.example.Square")
	require.NoError(t, err)
	assert.Contains(t, out, "class\tcom/example/Square\tpublic\t52.0\n")
	assert.Contains(t, out, "field\tside\tD\tprivate\t-\n")

	out, _, err = run(t, dir, "dump", "--format", "json", filepath.Join(dir, "classes", "com", "example", "Shape.class"))
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "com/example/Shape"`)

	out, _, err = run(t, dir, "dump", "--format", "pp", "com/example/Shape")
	require.NoError(t, err)
	assert.Contains(t, out, "com/example/Shape")

	_, _, err = run(t, dir, "dump", "com/example/Missing")
	assert.ErrorContains(t, err, "class-not-found")

	_, _, err = run(t, dir, "dump", "--format", "xml", "com/example/Shape")
	assert.ErrorContains(t, err, "unknown format")
}

func TestResolve(t *testing.T) {
	dir := fixture(t)
	out, _, err := run(t, dir, "resolve", "com.example.Square")
	require.NoError(t, err)
	assert.Contains(t, out, "status\tFOUND\n")
	assert.Contains(t, out, "entry-name\tcom/example/Square.class\n")
	assert.Contains(t, out, "access\tACCESSIBLE\taccessible\n")

	out, _, err = run(t, dir, "resolve", "com.example.Nope")
	require.NoError(t, err)
	assert.Contains(t, out, "status\tNOT_FOUND\n")
	assert.Contains(t, out, "access\tCLASS_NOT_FOUND\tclass-not-found\n")
}

func TestSupertypes(t *testing.T) {
	dir := fixture(t)
	out, stderr, err := run(t, dir, "supertypes", "com/example/Square")
	require.NoError(t, err)
	assert.Contains(t, out, "com/example/Shape\n")
	assert.Contains(t, out, "java/lang/Comparable\n")
	assert.Contains(t, stderr, "java/lang/Object")
}

func TestMembers(t *testing.T) {
	dir := fixture(t)
	out, _, err := run(t, dir, "members", "com/example/Square", "area")
	require.NoError(t, err)
	assert.Contains(t, out, "METHOD\tcom/example/Square.area()D")
	assert.Contains(t, out, "METHOD\tcom/example/Shape.area()D")
	assert.Contains(t, out, "override\tcom/example/Square.area()D")
}

func TestOverload(t *testing.T) {
	dir := fixture(t)
	out, _, err := run(t, dir, "overload", "-k", "STATIC_METHOD", "com/example/Square", "of", "I")
	require.NoError(t, err)
	assert.Contains(t, out, "status\tSELECTED\n")
	assert.Contains(t, out, "selected\tcom/example/Square#of(I)Lcom/example/Square;@STATIC_METHOD\n")

	out, _, err = run(t, dir, "overload", "-k", "STATIC_METHOD", "com/example/Square", "of", "Ljava/lang/String;")
	require.NoError(t, err)
	assert.Contains(t, out, "status\tNO_APPLICABLE\n")

	_, _, err = run(t, dir, "overload", "-k", "BOGUS", "com/example/Square", "of")
	assert.Error(t, err)
}

func TestSam(t *testing.T) {
	dir := fixture(t)
	out, _, err := run(t, dir, "sam", "com.example.Measure")
	require.NoError(t, err)
	assert.Contains(t, out, "functional\ttrue\n")
	assert.Contains(t, out, "method\tcom/example/Measure.measure(Lcom/example/Shape;)D\n")
	assert.Contains(t, out, "generic\tdouble measure(com.example.Shape)\n")

	out, _, err = run(t, dir, "sam", "com/example/Square")
	require.NoError(t, err)
	assert.Contains(t, out, "functional\tfalse\n")
}

func TestProperties(t *testing.T) {
	dir := fixture(t)
	out, _, err := run(t, dir, "properties", "com/example/Square")
	require.NoError(t, err)
	assert.Equal(t, "property\tside\tgetSide()D\tsetSide(D)V\n", out)
}

func TestCache(t *testing.T) {
	dir := fixture(t)
	out, _, err := run(t, dir, "cache", "com/example/Square", "com/example/Square")
	require.NoError(t, err)
	assert.Contains(t, out, "entries\t1\n")
	assert.Contains(t, out, "hits\t1\n")
	assert.Contains(t, out, "misses\t1\n")

	out, _, err = run(t, dir, "cache")
	require.NoError(t, err)
	assert.Contains(t, out, "cache-file\t"+filepath.Join(dir, "cache.db"))
}

func TestModules(t *testing.T) {
	dir := t.TempDir()
	mods := filepath.Join(dir, "mods")
	require.NoError(t, os.MkdirAll(mods, 0o755))
	classfiletest.WriteJar(t, filepath.Join(mods, "app.jar"), map[string][]byte{
		"module-info.class": classfiletest.ModuleInfo(classfiletest.ModuleSpec{
			Name:    "com.example.app",
			Exports: []classfiletest.Export{{Package: "com/example/app"}},
		}),
		"com/example/app/Main.class": classfiletest.New("com/example/app/Main").Bytes(),
	})
	config := "classpath: [classes]\nmodule_path: [mods]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "linkage.yaml"), []byte(config), 0o644))

	out, _, err := run(t, dir, "modules")
	require.NoError(t, err)
	assert.Contains(t, out, "module\tcom.example.app\texplicit\t")
	assert.Contains(t, out, "  exports\tcom/example/app\n")
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "linkage.yaml"), []byte("target_release: -3\n"), 0o644))
	_, _, err := run(t, dir, "cache")
	assert.ErrorContains(t, err, "invalid configuration")
}
