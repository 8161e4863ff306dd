package classfile

// Module is the decoded Module attribute of a module-info class. Package
// names are in internal form.
type Module struct {
	Name     string
	Flags    AccessFlags
	Version  string
	Requires []ModuleRequires
	Exports  []ModuleExports
	Opens    []ModuleExports
	Uses     []string
	Provides []ModuleProvides
}

type ModuleRequires struct {
	Module  string
	Flags   AccessFlags
	Version string
}

type ModuleExports struct {
	Package string
	Flags   AccessFlags
	To      []string
}

// Qualified reports whether the directive names target modules.
func (e ModuleExports) Qualified() bool { return len(e.To) > 0 }

type ModuleProvides struct {
	Service string
	With    []string
}
