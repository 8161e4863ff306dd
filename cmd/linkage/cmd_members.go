package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/linkage/java/hierarchy"
)

func newMembersCmd(flags *globalFlags) *cobra.Command {
	var (
		requester string
		module    string
	)

	cmd := &cobra.Command{
		Use:   "members <class> <name>",
		Short: "List the members named <name> visible on a class, with overrides resolved",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer closeInto(s, &err)

			if requester == "" {
				requester = args[0]
			}
			ctx := hierarchy.Unrestricted(requester)
			if m := s.requesterModule(module); m != "" {
				g, err := s.moduleGraph()
				if err != nil {
					return err
				}
				ctx = hierarchy.ForModule(requester, m, g, nil)
			}

			lookup := hierarchy.NewResolver(s.table).CollectMembers(args[0], args[1], ctx)
			out := cmd.OutOrStdout()
			for _, m := range lookup.Members {
				fmt.Fprintf(out, "%s\t%s.%s%s\t%s\taccessible=%t\tinherited=%t\n",
					m.Kind, m.Owner, m.Name, m.Descriptor, m.Visibility, m.Accessible, m.Inherited)
			}

			norm := hierarchy.NormalizeMethods(lookup.Members)
			for _, m := range norm.Methods {
				line := fmt.Sprintf("override\t%s.%s%s\tkey=%s", m.Owner, m.Name, m.Descriptor, m.OverrideKey)
				if len(m.Overridden) > 0 {
					line += fmt.Sprintf("\toverrides=%v", m.Overridden)
				}
				fmt.Fprintln(out, line)
			}
			for _, d := range lookup.Diagnostics {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", d)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&requester, "from", "r", "", "requesting class (default: the class itself)")
	cmd.Flags().StringVarP(&module, "module", "m", "", "module of the requesting class")

	return cmd
}
