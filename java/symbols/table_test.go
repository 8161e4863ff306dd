package symbols

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/linkage/classfile/classfiletest"
	"github.com/dhamidi/linkage/java/symbols/cachestore"
)

func classBytes(name string) []byte {
	return classfiletest.New(name).Bytes()
}

func classDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		classfiletest.WriteClass(t, dir, n, classBytes(n))
	}
	return dir
}

func TestResolveFromDirectory(t *testing.T) {
	dir := classDir(t, "com/example/Widget")
	table := New(Options{Classpath: []string{dir}})

	res, err := table.ResolveClassWithMetadata("com.example.Widget")
	require.NoError(t, err)
	assert.Equal(t, Found, res.Status)
	assert.Equal(t, "com/example/Widget", res.Class.Name)
	assert.Equal(t, dir, res.Origin.Entry)
	assert.Equal(t, "com/example/Widget.class", res.Origin.EntryName)
	assert.False(t, res.Origin.Versioned)
	assert.Empty(t, res.Origin.Module)
	assert.NotEmpty(t, res.Bytes)

	cd, found, err := table.ResolveClass("com/example/Widget")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Same(t, res.Class, cd)
}

func TestResolveIsIdempotent(t *testing.T) {
	table := New(Options{Classpath: []string{classDir(t, "a/A")}, Fingerprint: "fp"})

	first, err := table.ResolveClassWithMetadata("a.A")
	require.NoError(t, err)
	stats := table.Stats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	second, err := table.ResolveClassWithMetadata("a/A")
	require.NoError(t, err)
	assert.Same(t, first, second)
	stats = table.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, table.ParsedCount("a.A"))
	assert.Equal(t, 1, table.CacheSize())
}

func TestResolveNotFoundIsCached(t *testing.T) {
	table := New(Options{Classpath: []string{classDir(t), filepath.Join(t.TempDir(), "missing.jar")}})

	res, err := table.ResolveClassWithMetadata("x.Missing")
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.Status)
	assert.Equal(t, "class-not-found", res.Diagnostic)
	assert.Nil(t, res.Class)

	_, err = table.ResolveClassWithMetadata("x.Missing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), table.Stats().Hits)
	assert.Equal(t, 0, table.ParsedCount("x.Missing"))
}

func TestClasspathOrderWins(t *testing.T) {
	first := t.TempDir()
	c := classfiletest.New("a/A").Implements("java/lang/Runnable")
	classfiletest.WriteClass(t, first, "a/A", c.Bytes())
	second := classDir(t, "a/A")

	table := New(Options{Classpath: []string{first, second}})
	res, err := table.ResolveClassWithMetadata("a.A")
	require.NoError(t, err)
	assert.Equal(t, first, res.Origin.Entry)
	assert.Equal(t, []string{"java/lang/Runnable"}, res.Class.Interfaces)
}

func TestInvalidation(t *testing.T) {
	dir := classDir(t, "a/A")
	table := New(Options{Classpath: []string{dir}, Fingerprint: " ABC "})
	assert.Equal(t, "abc", table.Fingerprint())

	_, err := table.ResolveClassWithMetadata("a.A")
	require.NoError(t, err)

	t.Run("same fingerprint keeps the cache", func(t *testing.T) {
		require.NoError(t, table.UpdateClasspath([]string{dir}, "abc"))
		assert.Equal(t, int64(0), table.Stats().Invalidations)
		assert.Equal(t, 1, table.CacheSize())
	})

	t.Run("new fingerprint clears the cache", func(t *testing.T) {
		require.NoError(t, table.UpdateClasspath([]string{dir}, "def"))
		assert.Equal(t, int64(1), table.Stats().Invalidations)
		assert.Equal(t, 0, table.CacheSize())

		misses := table.Stats().Misses
		_, err := table.ResolveClassWithMetadata("a.A")
		require.NoError(t, err)
		assert.Equal(t, misses+1, table.Stats().Misses)
		assert.Equal(t, 2, table.ParsedCount("a.A"))
	})

	t.Run("release below 8 is clamped", func(t *testing.T) {
		require.NoError(t, table.SetTargetRelease(5))
		assert.Equal(t, 8, table.TargetRelease())
		assert.Equal(t, int64(1), table.Stats().Invalidations)

		require.NoError(t, table.SetTargetRelease(17))
		assert.Equal(t, int64(2), table.Stats().Invalidations)
	})

	t.Run("blank fingerprint", func(t *testing.T) {
		require.NoError(t, table.UpdateClasspath([]string{dir}, "  "))
		assert.Equal(t, "no-fingerprint", table.Fingerprint())
	})
}

func multiReleaseJar(t *testing.T, withBase bool) string {
	t.Helper()
	files := map[string][]byte{
		"META-INF/MANIFEST.MF":                  classfiletest.Manifest("Multi-Release", "TRUE"),
		"META-INF/versions/17/lib/Feature.class": classfiletest.New("lib/Feature").Version(61).Bytes(),
	}
	if withBase {
		files["lib/Feature.class"] = classBytes("lib/Feature")
	}
	path := filepath.Join(t.TempDir(), "feature-2.1.0.jar")
	classfiletest.WriteJar(t, path, files)
	return path
}

func TestMultiReleaseSelection(t *testing.T) {
	jar := multiReleaseJar(t, true)

	t.Run("target 21 takes the versioned entry", func(t *testing.T) {
		table := New(Options{Classpath: []string{jar}, TargetRelease: 21})
		res, err := table.ResolveClassWithMetadata("lib.Feature")
		require.NoError(t, err)
		require.Equal(t, Found, res.Status)
		assert.True(t, res.Origin.Versioned)
		assert.Equal(t, 17, res.Origin.SelectedVersion)
		assert.Equal(t, "META-INF/versions/17/lib/Feature.class", res.Origin.EntryName)
		assert.Equal(t, uint16(61), res.Class.MajorVersion)
		assert.Equal(t, "feature", res.Origin.Module)
	})

	t.Run("target 11 takes the base entry", func(t *testing.T) {
		table := New(Options{Classpath: []string{jar}, TargetRelease: 11})
		res, err := table.ResolveClassWithMetadata("lib.Feature")
		require.NoError(t, err)
		require.Equal(t, Found, res.Status)
		assert.False(t, res.Origin.Versioned)
		assert.Equal(t, "lib/Feature.class", res.Origin.EntryName)
	})

	t.Run("no base entry is a target level mismatch", func(t *testing.T) {
		table := New(Options{Classpath: []string{multiReleaseJar(t, false)}, TargetRelease: 11})
		res, err := table.ResolveClassWithMetadata("lib.Feature")
		require.NoError(t, err)
		assert.Equal(t, TargetLevelMismatch, res.Status)
		assert.Equal(t, "target-level-mismatch: requires class version 17", res.Diagnostic)
		assert.Nil(t, res.Class)
	})
}

func TestVersionedEntriesIgnoredWithoutManifestFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.jar")
	classfiletest.WriteJar(t, path, map[string][]byte{
		"META-INF/versions/17/lib/Feature.class": classBytes("lib/Feature"),
	})
	table := New(Options{Classpath: []string{path}, TargetRelease: 21})
	res, err := table.ResolveClassWithMetadata("lib.Feature")
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.Status)
}

func TestArchiveModuleNames(t *testing.T) {
	dir := t.TempDir()

	declared := filepath.Join(dir, "declared-1.0.jar")
	classfiletest.WriteJar(t, declared, map[string][]byte{
		"module-info.class": classfiletest.ModuleInfo(classfiletest.ModuleSpec{Name: "org.declared"}),
		"d/D.class":         classBytes("d/D"),
	})
	automatic := filepath.Join(dir, "auto.jar")
	classfiletest.WriteJar(t, automatic, map[string][]byte{
		"META-INF/MANIFEST.MF": classfiletest.Manifest("Automatic-Module-Name", "org.auto"),
		"e/E.class":            classBytes("e/E"),
	})
	derived := filepath.Join(dir, "commons-lang3-3.12.0.jar")
	classfiletest.WriteJar(t, derived, map[string][]byte{"f/F.class": classBytes("f/F")})

	table := New(Options{Classpath: []string{declared, automatic, derived}})
	for class, module := range map[string]string{"d.D": "org.declared", "e.E": "org.auto", "f.F": "commons.lang3"} {
		res, err := table.ResolveClassWithMetadata(class)
		require.NoError(t, err)
		require.Equal(t, Found, res.Status, class)
		assert.Equal(t, module, res.Origin.Module, class)
	}
	require.NoError(t, table.Close())
}

func TestDeriveModuleName(t *testing.T) {
	tests := map[string]string{
		"commons-lang3-3.12.0.jar": "commons.lang3",
		"foo_bar-1.0.jar":          "foo.bar",
		"guava.jar":                "guava",
		"my--lib..x-SNAPSHOT.jar":  "my.lib.x.SNAPSHOT",
		"-1.0.jar":                 "",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, DeriveModuleName(in))
		})
	}
}

func TestJmodAndExplodedImage(t *testing.T) {
	dir := t.TempDir()
	jmod := filepath.Join(dir, "java.base.jmod")
	classfiletest.WriteJmod(t, jmod, map[string][]byte{
		"classes/java/lang/Object.class": classfiletest.New("java/lang/Object").Extends("").Bytes(),
		"classes/module-info.class":      classfiletest.ModuleInfo(classfiletest.ModuleSpec{Name: "java.base"}),
	})

	image := filepath.Join(dir, "image", "modules", "java.sql")
	classfiletest.WriteClass(t, image, "java/sql/Driver", classBytes("java/sql/Driver"))

	table := New(Options{Classpath: []string{jmod, image}})
	defer table.Close()

	res, err := table.ResolveClassWithMetadata("java.lang.Object")
	require.NoError(t, err)
	require.Equal(t, Found, res.Status)
	assert.Equal(t, "java.base", res.Origin.Module)
	assert.Equal(t, "java/lang/Object.class", res.Origin.EntryName)
	assert.Empty(t, res.Class.SuperName)

	res, err = table.ResolveClassWithMetadata("java.sql.Driver")
	require.NoError(t, err)
	require.Equal(t, Found, res.Status)
	assert.Equal(t, "java.sql", res.Origin.Module)
}

func TestFormatErrorsAreNotCached(t *testing.T) {
	dir := t.TempDir()
	classfiletest.WriteClass(t, dir, "bad/Broken", []byte{0xCA, 0xFE, 0xBA})
	table := New(Options{Classpath: []string{dir}})

	_, err := table.ResolveClassWithMetadata("bad.Broken")
	require.Error(t, err)
	assert.Equal(t, 0, table.CacheSize())

	_, found, err := table.ResolveClass("bad.Broken")
	require.Error(t, err)
	assert.False(t, found)
	assert.Equal(t, int64(2), table.Stats().Misses)
}

func TestPersistentCache(t *testing.T) {
	dir := classDir(t, "a/A")
	cacheFile := filepath.Join(t.TempDir(), "cache", "symbols.db")
	opts := Options{Classpath: []string{dir}, Fingerprint: "fp", TargetRelease: 17, CacheFile: cacheFile}

	first := New(opts)
	_, err := first.ResolveClassWithMetadata("a.A")
	require.NoError(t, err)
	_, err = first.ResolveClassWithMetadata("a.Missing")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	t.Run("reload serves hits without reading the classpath", func(t *testing.T) {
		second := New(opts)
		defer second.Close()
		assert.Empty(t, second.CacheDiagnostics())
		assert.Equal(t, 2, second.CacheSize())

		res, err := second.ResolveClassWithMetadata("a.A")
		require.NoError(t, err)
		assert.Equal(t, Found, res.Status)
		assert.Equal(t, "a/A", res.Class.Name)
		assert.Equal(t, filepath.Join(dir, "a/A.class"), res.Class.Path)
		assert.Equal(t, 0, second.ParsedCount("a.A"))
		assert.Equal(t, int64(1), second.Stats().Hits)

		res, err = second.ResolveClassWithMetadata("a.Missing")
		require.NoError(t, err)
		assert.Equal(t, NotFound, res.Status)
	})

	t.Run("mismatched envelope is discarded", func(t *testing.T) {
		changed := opts
		changed.Fingerprint = "other"
		third := New(changed)
		defer third.Close()
		assert.Equal(t, []string{"Persistent descriptor cache invalidated: schema/tool/fingerprint mismatch."}, third.CacheDiagnostics())
		assert.Equal(t, int64(1), third.Stats().Invalidations)
		assert.Equal(t, 0, third.CacheSize())
	})
}

func TestPersistentCacheEntryParseFailure(t *testing.T) {
	cacheFile := filepath.Join(t.TempDir(), "symbols.db")
	store, err := cachestore.Open(cacheFile)
	require.NoError(t, err)
	require.NoError(t, store.Save(cachestore.Envelope{
		Meta: cachestore.Meta{SchemaVersion: "1", ToolVersion: "linkage-local", Fingerprint: "no-fingerprint", TargetRelease: 8},
		Entries: []cachestore.Entry{
			{Key: "a/A@no-fingerprint", Status: "FOUND", ClassBytes: []byte{1, 2, 3}},
			{Key: "b/B@no-fingerprint", Status: "NOT_FOUND", Diagnostic: "class-not-found"},
		},
	}))
	require.NoError(t, store.Close())

	table := New(Options{CacheFile: cacheFile})
	defer table.Close()
	diags := table.CacheDiagnostics()
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0], "Persistent descriptor cache entry parse failed: ")
	assert.Equal(t, 1, table.CacheSize())
}

func TestDeferredWrites(t *testing.T) {
	dir := classDir(t, "a/A")
	cacheFile := filepath.Join(t.TempDir(), "symbols.db")
	table := New(Options{Classpath: []string{dir}, CacheFile: cacheFile, DeferWrites: true})
	_, err := table.ResolveClassWithMetadata("a.A")
	require.NoError(t, err)

	store, err := cachestore.Open(cacheFile)
	require.NoError(t, err)
	env, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, env)
	require.NoError(t, store.Close())

	require.NoError(t, table.Flush())
	require.NoError(t, table.Close())

	reopened := New(Options{Classpath: []string{dir}, CacheFile: cacheFile})
	defer reopened.Close()
	assert.Equal(t, 1, reopened.CacheSize())
}

func TestUnloadableCache(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	table := New(Options{CacheFile: filepath.Join(blocker, "symbols.db")})
	defer table.Close()
	diags := table.CacheDiagnostics()
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0], "Persistent descriptor cache could not be loaded: ")
}
