package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newModulesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "Print the module graph: exports, readability and diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			g, err := cfg.ModuleGraph()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range g.Modules {
				kind := "explicit"
				if m.Automatic {
					kind = "automatic"
				}
				fmt.Fprintf(out, "module\t%s\t%s\t%s\n", m.Name, kind, m.Location)
				for _, pkg := range sortedKeys(g.ExportedPackages[m.Name]) {
					fmt.Fprintf(out, "  exports\t%s\n", pkg)
				}
				for _, other := range sortedKeys(g.Readable[m.Name]) {
					fmt.Fprintf(out, "  reads\t%s\n", other)
				}
			}
			for _, d := range g.Diagnostics {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", d)
			}
			return nil
		},
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k, ok := range m {
		if ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
