package project_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/linkage/classfile/classfiletest"
	"github.com/dhamidi/linkage/project"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "linkage.yaml"), `
classpath:
  - build/classes
  - /opt/lib/guava.jar
module_path: [mods]
target_release: 17
cache_file: .linkage/cache.db
requester_module: app
`)
	cfg, err := project.LoadFrom(dir)
	require.NoError(t, err)

	abs, _ := filepath.Abs(dir)
	assert.Equal(t, []string{filepath.Join(abs, "build/classes"), "/opt/lib/guava.jar"}, cfg.Classpath)
	assert.Equal(t, []string{filepath.Join(abs, "mods")}, cfg.ModulePath)
	assert.Equal(t, 17, cfg.TargetRelease)
	assert.Equal(t, filepath.Join(abs, ".linkage/cache.db"), cfg.CacheFile)
	assert.Equal(t, "app", cfg.RequesterModule)
	assert.Equal(t, filepath.Join(dir, "linkage.yaml"), cfg.File)
	assert.NoError(t, cfg.Validate())
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "linkage.toml"), `
classpath = ["classes"]
java_home = "/usr/lib/jvm/java-21"
target_release = 21
tool_version = "ci"
`)
	cfg, err := project.LoadFrom(dir)
	require.NoError(t, err)
	abs, _ := filepath.Abs(dir)
	assert.Equal(t, []string{filepath.Join(abs, "classes")}, cfg.Classpath)
	assert.Equal(t, "/usr/lib/jvm/java-21", cfg.JavaHome)
	assert.Equal(t, 21, cfg.TargetRelease)
	assert.Equal(t, "ci", cfg.ToolVersion)
}

func TestLoadLibDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	classfiletest.WriteJar(t, filepath.Join(dir, "lib", "b.jar"), map[string][]byte{})
	classfiletest.WriteJar(t, filepath.Join(dir, "lib", "a.jar"), map[string][]byte{})
	write(t, filepath.Join(dir, "lib", "notes.txt"), "skip me")

	cfg, err := project.LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "lib", "a.jar"), filepath.Join(dir, "lib", "b.jar")}, cfg.Classpath)
	assert.Empty(t, cfg.File)
}

func TestLoadErrors(t *testing.T) {
	_, err := project.LoadFrom(t.TempDir())
	assert.ErrorIs(t, err, project.ErrNoConfig)

	dir := t.TempDir()
	write(t, filepath.Join(dir, "linkage.yaml"), "classpath: [unterminated")
	_, err = project.LoadFrom(dir)
	assert.Error(t, err)

	_, err = project.LoadFile(filepath.Join(dir, "linkage.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &project.Config{TargetRelease: -1, Classpath: []string{"a", " "}, ModulePath: []string{""}}
	err := cfg.Validate()
	require.Error(t, err)
	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 3)

	empty := &project.Config{}
	err = empty.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "java_home is not set")

	assert.NoError(t, (&project.Config{JavaHome: "/jdk"}).Validate())
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "a.jar")
	write(t, jar, "one")
	missing := filepath.Join(dir, "missing.jar")

	first := project.Fingerprint([]string{jar, missing})
	assert.Len(t, first, 64)
	assert.Equal(t, first, project.Fingerprint([]string{jar, missing}))
	assert.NotEqual(t, first, project.Fingerprint([]string{missing, jar}))

	write(t, jar, "one plus more")
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(jar, later, later))
	assert.NotEqual(t, first, project.Fingerprint([]string{jar, missing}))
}

func TestSymbolOptions(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "jmods"), 0o755))
	write(t, filepath.Join(home, "jmods", "java.sql.jmod"), "")
	write(t, filepath.Join(home, "jmods", "java.base.jmod"), "")

	cfg := &project.Config{Classpath: []string{"/app/classes"}, JavaHome: home, TargetRelease: 11, CacheFile: "/tmp/c.db"}
	opts, err := cfg.SymbolOptions()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/app/classes",
		filepath.Join(home, "jmods", "java.base.jmod"),
		filepath.Join(home, "jmods", "java.sql.jmod"),
	}, opts.Classpath)
	assert.Equal(t, project.Fingerprint(opts.Classpath), opts.Fingerprint)
	assert.Equal(t, 11, opts.TargetRelease)
	assert.Equal(t, "/tmp/c.db", opts.CacheFile)
}

func TestModuleGraph(t *testing.T) {
	dir := t.TempDir()
	classfiletest.WriteJar(t, filepath.Join(dir, "util-1.0.jar"), map[string][]byte{
		"org/util/Strings.class": classfiletest.New("org/util/Strings").Bytes(),
	})
	cfg := &project.Config{ModulePath: []string{dir}}
	g, err := cfg.ModuleGraph()
	require.NoError(t, err)
	require.Len(t, g.Modules, 1)
	assert.Equal(t, "util", g.Modules[0].Name)
	assert.True(t, g.Modules[0].Automatic)
}
