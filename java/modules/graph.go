// Package modules discovers Java modules on disk and builds the
// readability and export graph the access checks consult.
package modules

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tliron/commonlog"
)

const javaBase = "java.base"

var log = commonlog.GetLogger("linkage.modules")

// Graph is the resolved module graph. Package names are in internal form.
type Graph struct {
	// Modules holds every module in resolution order.
	Modules []ModuleSource

	ExportedPackages map[string]map[string]bool
	// Readable is the transitive closure of readability per module.
	Readable     map[string]map[string]bool
	PackageOwner map[string]string
	Diagnostics  []string
}

// Build resolves platform modules followed by the modules found on
// modulePath. A module-path module replaces a platform module of the same
// name. A failure to scan the module path is recorded as a diagnostic and
// leaves the graph with platform modules only.
func Build(platform []ModuleSource, modulePath []string) (*Graph, error) {
	g := &Graph{
		ExportedPackages: map[string]map[string]bool{},
		Readable:         map[string]map[string]bool{},
		PackageOwner:     map[string]string{},
	}

	index := map[string]int{}
	add := func(sources []ModuleSource) error {
		sorted := append([]ModuleSource(nil), sources...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		for _, m := range sorted {
			if m.Name == "" {
				return errors.New("module without a name")
			}
			if i, ok := index[m.Name]; ok {
				g.Modules[i] = m
				continue
			}
			index[m.Name] = len(g.Modules)
			g.Modules = append(g.Modules, m)
		}
		return nil
	}

	if err := add(platform); err != nil {
		return nil, fmt.Errorf("build module graph: %w", err)
	}
	if len(modulePath) > 0 {
		found, err := Find(modulePath)
		if err != nil {
			g.diagnose("module-path-scan-failed: " + err.Error())
		} else if err := add(found); err != nil {
			return nil, fmt.Errorf("build module graph: %w", err)
		}
	}

	for _, m := range g.Modules {
		g.ExportedPackages[m.Name] = exportsOf(m)
	}
	g.computeReadable()
	g.computeOwners()
	return g, nil
}

func (g *Graph) diagnose(msg string) {
	log.Warning(msg)
	g.Diagnostics = append(g.Diagnostics, msg)
}

func exportsOf(m ModuleSource) map[string]bool {
	exported := map[string]bool{}
	if m.Automatic {
		for _, p := range m.Packages {
			exported[p] = true
		}
		return exported
	}
	for _, e := range m.Exports {
		if !e.Qualified() {
			exported[e.Package] = true
		}
	}
	return exported
}

func (g *Graph) computeReadable() {
	_, hasBase := g.ExportedPackages[javaBase]
	direct := map[string][]string{}
	for _, m := range g.Modules {
		var reads []string
		if m.Automatic {
			for _, other := range g.Modules {
				if other.Name != m.Name {
					reads = append(reads, other.Name)
				}
			}
		}
		if m.Name != javaBase && hasBase {
			reads = append(reads, javaBase)
		}
		reads = append(reads, m.Requires...)
		direct[m.Name] = reads
	}

	for _, m := range g.Modules {
		reachable := map[string]bool{}
		queue := append([]string(nil), direct[m.Name]...)
		for len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]
			if reachable[next] {
				continue
			}
			reachable[next] = true
			queue = append(queue, direct[next]...)
		}
		g.Readable[m.Name] = reachable
	}
}

func (g *Graph) computeOwners() {
	for _, m := range g.Modules {
		for _, p := range m.Packages {
			owner, ok := g.PackageOwner[p]
			if !ok {
				g.PackageOwner[p] = m.Name
				continue
			}
			if owner != m.Name {
				g.diagnose(fmt.Sprintf("split-package: %s in %s and %s", p, owner, m.Name))
			}
		}
	}
}

// Module returns the named module.
func (g *Graph) Module(name string) (ModuleSource, bool) {
	for _, m := range g.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return ModuleSource{}, false
}

// Reads reports whether from reads to, directly or transitively.
func (g *Graph) Reads(from, to string) bool {
	return g.Readable[from][to]
}

// Exports reports whether module exports pkg without qualification.
func (g *Graph) Exports(module, pkg string) bool {
	return g.ExportedPackages[module][pkg]
}

// OwnerOf returns the module that owns pkg.
func (g *Graph) OwnerOf(pkg string) (string, bool) {
	m, ok := g.PackageOwner[pkg]
	return m, ok
}
