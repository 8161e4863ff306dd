package access_test

import "github.com/dhamidi/linkage/classfile"

func exports(packages ...string) []classfile.ModuleExports {
	out := make([]classfile.ModuleExports, len(packages))
	for i, p := range packages {
		out[i] = classfile.ModuleExports{Package: p}
	}
	return out
}
