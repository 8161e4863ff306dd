// Package symbols resolves class names to descriptors across a classpath
// of directories, jars, multi-release jars and jmods, with an optional
// persistent cache.
package symbols

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/linkage/classfile"
	"github.com/dhamidi/linkage/java/symbols/cachestore"
)

const (
	DefaultSchemaVersion = "1"
	DefaultToolVersion   = "linkage-local"
	noFingerprint        = "no-fingerprint"
	minimumRelease       = 8
)

type Options struct {
	Classpath     []string
	Fingerprint   string
	TargetRelease int
	// CacheFile enables the persistent cache when set.
	CacheFile     string
	ToolVersion   string
	SchemaVersion string
	Logger        commonlog.Logger
	// DeferWrites holds persistent writes until Flush or Close.
	DeferWrites bool
}

// Table is the symbol table. It memoizes every resolution, including
// misses, per classpath fingerprint. A Table is not safe for concurrent
// use.
type Table struct {
	classpath     []string
	fingerprint   string
	targetRelease int
	toolVersion   string
	schemaVersion string
	log           commonlog.Logger

	resolutions map[string]*ClassResolution
	parseCounts map[string]int
	archives    map[string]*Archive
	stats       CacheStats
	diagnostics []string

	store       *cachestore.Store
	deferWrites bool
	dirty       bool
}

// New builds a table and loads the persistent cache when one is
// configured. A cache that cannot be used is reported through
// CacheDiagnostics, never as an error.
func New(opts Options) *Table {
	t := &Table{
		classpath:     normalizeEntries(opts.Classpath),
		fingerprint:   normalizeFingerprint(opts.Fingerprint),
		targetRelease: normalizeRelease(opts.TargetRelease),
		toolVersion:   normalizeVersion(opts.ToolVersion, DefaultToolVersion),
		schemaVersion: normalizeVersion(opts.SchemaVersion, DefaultSchemaVersion),
		log:           opts.Logger,
		resolutions:   map[string]*ClassResolution{},
		parseCounts:   map[string]int{},
		archives:      map[string]*Archive{},
		deferWrites:   opts.DeferWrites,
	}
	if t.log == nil {
		t.log = commonlog.GetLogger("linkage.symbols")
	}
	if opts.CacheFile != "" {
		t.openStore(opts.CacheFile)
	}
	return t
}

func normalizeEntries(entries []string) []string {
	normalized := make([]string, 0, len(entries))
	for _, e := range entries {
		if abs, err := filepath.Abs(e); err == nil {
			e = abs
		}
		normalized = append(normalized, filepath.Clean(e))
	}
	return normalized
}

func normalizeFingerprint(fingerprint string) string {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return noFingerprint
	}
	return strings.ToLower(fingerprint)
}

func normalizeRelease(release int) int {
	if release < minimumRelease {
		return minimumRelease
	}
	return release
}

func normalizeVersion(version, fallback string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return fallback
	}
	return version
}

func cacheKey(internalName, fingerprint string) string {
	return internalName + "@" + fingerprint
}

// ResolveClass returns the descriptor for name and whether it was found.
func (t *Table) ResolveClass(name string) (*classfile.ClassDescriptor, bool, error) {
	res, err := t.ResolveClassWithMetadata(name)
	if err != nil {
		return nil, false, err
	}
	return res.Class, res.Status == Found, nil
}

// ResolveClassWithMetadata resolves name and reports where the class came
// from. Read and format errors are returned and not cached.
func (t *Table) ResolveClassWithMetadata(name string) (*ClassResolution, error) {
	internal := InternalName(name)
	key := cacheKey(internal, t.fingerprint)
	if cached, ok := t.resolutions[key]; ok {
		t.stats.Hits++
		t.log.Debugf("cache hit: %s", key)
		return cached, nil
	}
	t.stats.Misses++
	t.log.Debugf("cache miss: %s", key)

	res, err := t.lookup(internal)
	if err != nil {
		return nil, err
	}
	t.resolutions[key] = res
	if res.Status == Found {
		t.parseCounts[internal]++
	}
	t.persist()
	return res, nil
}

// UpdateClasspath replaces the classpath. The cache survives unless the
// fingerprint changes.
func (t *Table) UpdateClasspath(entries []string, fingerprint string) error {
	normalized := normalizeFingerprint(fingerprint)
	t.classpath = normalizeEntries(entries)
	err := t.closeArchives()
	if t.fingerprint != normalized {
		t.invalidate("classpath fingerprint changed from %s to %s", t.fingerprint, normalized)
	}
	t.fingerprint = normalized
	t.persist()
	return err
}

// SetTargetRelease changes the release used for multi-release selection.
// The cache survives unless the effective release changes.
func (t *Table) SetTargetRelease(release int) error {
	normalized := normalizeRelease(release)
	if t.targetRelease != normalized {
		t.invalidate("target release changed from %d to %d", t.targetRelease, normalized)
	}
	t.targetRelease = normalized
	t.persist()
	return nil
}

func (t *Table) invalidate(format string, args ...any) {
	t.resolutions = map[string]*ClassResolution{}
	t.stats.Invalidations++
	t.log.Infof("cache invalidated: "+format, args...)
}

func (t *Table) TargetRelease() int { return t.targetRelease }
func (t *Table) Fingerprint() string { return t.fingerprint }

func (t *Table) Classpath() []string {
	return append([]string(nil), t.classpath...)
}

// ParsedCount reports how many times name was read from the classpath.
func (t *Table) ParsedCount(name string) int {
	return t.parseCounts[InternalName(name)]
}

func (t *Table) CacheSize() int {
	return len(t.resolutions)
}

func (t *Table) Stats() CacheStats {
	return t.stats
}

func (t *Table) CacheDiagnostics() []string {
	return append([]string(nil), t.diagnostics...)
}

// Flush writes pending cache changes when writes are deferred.
func (t *Table) Flush() error {
	if t.store == nil || !t.dirty {
		return nil
	}
	return t.write()
}

// Close flushes the cache and releases open archives and the database.
func (t *Table) Close() error {
	var result *multierror.Error
	if err := t.Flush(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := t.closeArchives(); err != nil {
		result = multierror.Append(result, err)
	}
	if t.store != nil {
		if err := t.store.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close cache: %w", err))
		}
		t.store = nil
	}
	return result.ErrorOrNil()
}

func (t *Table) closeArchives() error {
	var result *multierror.Error
	for path, a := range t.archives {
		if err := a.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s: %w", path, err))
		}
	}
	t.archives = map[string]*Archive{}
	return result.ErrorOrNil()
}

func (t *Table) archive(path string) (*Archive, error) {
	if a, ok := t.archives[path]; ok {
		return a, nil
	}
	a, err := OpenArchive(path)
	if err != nil {
		return nil, err
	}
	t.archives[path] = a
	return a, nil
}

func (t *Table) lookup(internal string) (*ClassResolution, error) {
	classEntry := internal + ".class"
	sawMismatch := false
	lowest := 0
	for _, entry := range t.classpath {
		info, err := os.Stat(entry)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat classpath entry: %w", err)
		}

		if info.IsDir() {
			res, err := lookupDirectory(entry, classEntry)
			if err != nil || res != nil {
				return res, err
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		a, err := t.archive(entry)
		if err != nil {
			return nil, err
		}
		sel := a.selectEntry(classEntry, t.targetRelease)
		switch sel.status {
		case notPresent:
			continue
		case mismatched:
			t.log.Debugf("%s in %s needs release %d", internal, entry, sel.version)
			sawMismatch = true
			if lowest == 0 || sel.version < lowest {
				lowest = sel.version
			}
			continue
		}
		t.log.Debugf("selected %s from %s", sel.entry, entry)
		data, err := a.Read(sel.entry)
		if err != nil {
			return nil, err
		}
		cd, err := classfile.Read(data, filepath.Join(entry, sel.entry))
		if err != nil {
			return nil, err
		}
		return &ClassResolution{
			Status: Found,
			Class:  cd,
			Origin: &Origin{
				Entry:           entry,
				EntryName:       sel.entry,
				Versioned:       sel.versioned,
				SelectedVersion: sel.version,
				Module:          a.ModuleName(),
			},
			Bytes: data,
		}, nil
	}
	if sawMismatch {
		return targetLevelMismatch(lowest), nil
	}
	return notFound(), nil
}

// lookupDirectory returns nil without error when the class is absent.
func lookupDirectory(dir, classEntry string) (*ClassResolution, error) {
	path := filepath.Join(dir, filepath.FromSlash(classEntry))
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class file: %w", err)
	}
	cd, err := classfile.Read(data, path)
	if err != nil {
		return nil, err
	}
	return &ClassResolution{
		Status: Found,
		Class:  cd,
		Origin: &Origin{Entry: dir, EntryName: classEntry, Module: explodedModuleName(dir)},
		Bytes:  data,
	}, nil
}

// explodedModuleName recognizes .../modules/<module> directories of an
// exploded runtime image.
func explodedModuleName(dir string) string {
	if filepath.Base(filepath.Dir(dir)) == "modules" {
		return filepath.Base(dir)
	}
	return ""
}

func (t *Table) openStore(path string) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.cacheDiagnostic("Persistent descriptor cache could not be loaded: %v", err)
			return
		}
	}
	store, err := cachestore.Open(path)
	if err != nil {
		t.stats.Invalidations++
		t.cacheDiagnostic("Persistent descriptor cache could not be loaded: %v", err)
		return
	}
	t.store = store

	env, err := store.Load()
	if err != nil {
		t.stats.Invalidations++
		t.cacheDiagnostic("Persistent descriptor cache could not be loaded: %v", err)
		return
	}
	if env == nil {
		return
	}
	if env.Meta != t.meta() {
		t.stats.Invalidations++
		t.cacheDiagnostic("Persistent descriptor cache invalidated: schema/tool/fingerprint mismatch.")
		return
	}
	for _, e := range env.Entries {
		res, err := fromEntry(e)
		if err != nil {
			t.cacheDiagnostic("Persistent descriptor cache entry parse failed: %v", err)
			continue
		}
		t.resolutions[e.Key] = res
	}
	t.log.Infof("loaded %d cached resolutions from %s", len(t.resolutions), path)
}

func (t *Table) cacheDiagnostic(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.diagnostics = append(t.diagnostics, msg)
	t.log.Warning(msg)
}

func (t *Table) meta() cachestore.Meta {
	return cachestore.Meta{
		SchemaVersion: t.schemaVersion,
		ToolVersion:   t.toolVersion,
		Fingerprint:   t.fingerprint,
		TargetRelease: t.targetRelease,
	}
}

func (t *Table) persist() {
	if t.store == nil {
		return
	}
	if t.deferWrites {
		t.dirty = true
		return
	}
	_ = t.write()
}

func (t *Table) write() error {
	keys := make([]string, 0, len(t.resolutions))
	for k := range t.resolutions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := cachestore.Envelope{Meta: t.meta()}
	for _, k := range keys {
		env.Entries = append(env.Entries, toEntry(k, t.resolutions[k]))
	}
	if err := t.store.Save(env); err != nil {
		t.cacheDiagnostic("Persistent descriptor cache write failed: %v", err)
		return fmt.Errorf("write cache: %w", err)
	}
	t.dirty = false
	return nil
}

func toEntry(key string, res *ClassResolution) cachestore.Entry {
	e := cachestore.Entry{
		Key:        key,
		Status:     res.Status.String(),
		Diagnostic: res.Diagnostic,
		ClassBytes: res.Bytes,
	}
	if res.Class != nil {
		e.PathHint = res.Class.Path
	}
	if o := res.Origin; o != nil {
		e.HasOrigin = true
		e.ClasspathEntry = o.Entry
		e.EntryName = o.EntryName
		e.Versioned = o.Versioned
		e.SelectedVersion = o.SelectedVersion
		e.Module = o.Module
	}
	return e
}

func fromEntry(e cachestore.Entry) (*ClassResolution, error) {
	status, ok := parseStatus(e.Status)
	if !ok {
		return nil, fmt.Errorf("unknown status %q for %s", e.Status, e.Key)
	}
	res := &ClassResolution{Status: status, Diagnostic: e.Diagnostic}
	if e.HasOrigin {
		res.Origin = &Origin{
			Entry:           e.ClasspathEntry,
			EntryName:       e.EntryName,
			Versioned:       e.Versioned,
			SelectedVersion: e.SelectedVersion,
			Module:          e.Module,
		}
	}
	if status != Found || e.ClassBytes == nil {
		return res, nil
	}
	path := e.PathHint
	if res.Origin != nil {
		path = filepath.Join(res.Origin.Entry, res.Origin.EntryName)
	} else if path == "" {
		path = "cached.class"
	}
	cd, err := classfile.Read(e.ClassBytes, path)
	if err != nil {
		return nil, err
	}
	res.Class = cd
	res.Bytes = e.ClassBytes
	return res, nil
}
