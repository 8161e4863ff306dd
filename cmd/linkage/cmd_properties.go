package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/linkage/java/hierarchy"
	"github.com/dhamidi/linkage/java/properties"
)

func newPropertiesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "properties <class>",
		Short: "Pair getters and setters of a class into properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer closeInto(s, &err)

			res := properties.NewSynthesizer(hierarchy.NewResolver(s.table)).Synthesize(args[0])
			out := cmd.OutOrStdout()
			for _, p := range res.Properties {
				fmt.Fprintf(out, "property\t%s\t%s\t%s\n",
					p.Name, accessorOrDash(p.Getter, p.GetterDescriptor), accessorOrDash(p.Setter, p.SetterDescriptor))
			}
			for _, d := range res.Diagnostics {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", d)
			}
			return nil
		},
	}
}

func accessorOrDash(name, descriptor string) string {
	if name == "" {
		return "-"
	}
	return name + descriptor
}
