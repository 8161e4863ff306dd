package modules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhamidi/linkage/classfile"
	"github.com/dhamidi/linkage/java/symbols"
)

// ModuleSource is one module found on disk or supplied by the embedder.
// Package names are in internal form.
type ModuleSource struct {
	Name      string
	Automatic bool
	Requires  []string
	Exports   []classfile.ModuleExports
	Packages  []string
	Location  string
}

// Find discovers the modules under paths. Each path may be a jar, a jmod,
// an exploded module directory or a directory holding any of those.
// Missing paths are skipped.
func Find(paths []string) ([]ModuleSource, error) {
	var found []ModuleSource
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			m, ok, err := findArchive(path)
			if err != nil {
				return nil, err
			}
			if ok {
				found = append(found, m)
			}
			continue
		}
		if isExploded(path) {
			m, err := findExploded(path)
			if err != nil {
				return nil, err
			}
			found = append(found, m)
			continue
		}
		ms, err := findInDirectory(path)
		if err != nil {
			return nil, err
		}
		found = append(found, ms...)
	}
	return found, nil
}

// PlatformModules finds the jmods of the runtime at javaHome.
func PlatformModules(javaHome string) ([]ModuleSource, error) {
	dir := filepath.Join(javaHome, "jmods")
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("platform modules: %w", err)
	}
	return Find([]string{dir})
}

func isExploded(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "module-info.class"))
	return err == nil && info.Mode().IsRegular()
}

func findInDirectory(dir string) ([]ModuleSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read module directory: %w", err)
	}
	seen := map[string]string{}
	var found []ModuleSource
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		var (
			m   ModuleSource
			ok  bool
			err error
		)
		switch {
		case e.IsDir() && isExploded(path):
			m, err = findExploded(path)
			ok = err == nil
		case !e.IsDir():
			m, ok, err = findArchive(path)
		}
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if prev, dup := seen[m.Name]; dup {
			return nil, fmt.Errorf("two versions of module %s found in %s (%s and %s)",
				m.Name, dir, filepath.Base(prev), filepath.Base(path))
		}
		seen[m.Name] = path
		found = append(found, m)
	}
	return found, nil
}

// findArchive reports ok=false for files that are neither jars nor jmods.
func findArchive(path string) (ModuleSource, bool, error) {
	ext := filepath.Ext(path)
	if ext != ".jar" && ext != ".jmod" {
		return ModuleSource{}, false, nil
	}
	a, err := symbols.OpenArchive(path)
	if err != nil {
		return ModuleSource{}, false, err
	}
	defer a.Close()

	packages := packagesOf(a.Names())
	if declared := a.DeclaredModule(); declared != nil {
		return fromDescriptor(declared, packages, path), true, nil
	}
	if a.IsJmod() {
		return ModuleSource{}, false, fmt.Errorf("%s: jmod without module-info.class", path)
	}
	name := a.ModuleName()
	if name == "" {
		return ModuleSource{}, false, fmt.Errorf("%s: unable to derive module name", path)
	}
	return ModuleSource{Name: name, Automatic: true, Packages: packages, Location: path}, true, nil
}

func findExploded(dir string) (ModuleSource, error) {
	cd, err := classfile.ReadFile(filepath.Join(dir, "module-info.class"))
	if err != nil {
		return ModuleSource{}, err
	}
	if cd.Module == nil {
		return ModuleSource{}, fmt.Errorf("%s: module-info.class has no Module attribute", dir)
	}
	var names []string
	err = filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(dir, p)
			names = append(names, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return ModuleSource{}, fmt.Errorf("walk %s: %w", dir, err)
	}
	packages := packagesOf(names)
	packages = mergePackages(packages, cd.ModulePackages)
	return fromDescriptor(cd.Module, packages, dir), nil
}

func fromDescriptor(m *classfile.Module, packages []string, location string) ModuleSource {
	src := ModuleSource{Name: m.Name, Exports: m.Exports, Location: location}
	for _, r := range m.Requires {
		src.Requires = append(src.Requires, r.Module)
	}
	var declared []string
	for _, e := range m.Exports {
		declared = append(declared, e.Package)
	}
	for _, e := range m.Opens {
		declared = append(declared, e.Package)
	}
	src.Packages = mergePackages(packages, declared)
	return src
}

// packagesOf collects the packages of the class entries in names.
// Versioned entries count for the package they version.
func packagesOf(names []string) []string {
	set := map[string]bool{}
	for _, n := range names {
		if !strings.HasSuffix(n, ".class") {
			continue
		}
		if strings.HasPrefix(n, "META-INF/versions/") {
			parts := strings.SplitN(n, "/", 4)
			if len(parts) < 4 {
				continue
			}
			n = parts[3]
		} else if strings.HasPrefix(n, "META-INF/") {
			continue
		}
		if pkg := classfile.PackageOf(n); pkg != "" {
			set[pkg] = true
		}
	}
	return sortedSet(set)
}

func mergePackages(a, b []string) []string {
	set := map[string]bool{}
	for _, p := range a {
		set[p] = true
	}
	for _, p := range b {
		set[p] = true
	}
	return sortedSet(set)
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
