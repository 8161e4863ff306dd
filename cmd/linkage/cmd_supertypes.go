package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/linkage/java/hierarchy"
)

func newSupertypesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "supertypes <class>",
		Short: "Print the transitive supertypes of a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer closeInto(s, &err)

			result := hierarchy.NewResolver(s.table).Supertypes(args[0])
			out := cmd.OutOrStdout()
			for _, name := range result.Supertypes {
				fmt.Fprintln(out, name)
			}
			for _, d := range result.Diagnostics {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", d)
			}
			return nil
		},
	}
}
