package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/linkage/java/access"
)

func newResolveCmd(flags *globalFlags) *cobra.Command {
	var module string

	cmd := &cobra.Command{
		Use:   "resolve <class>",
		Short: "Resolve a class and check whether a module may access it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer closeInto(s, &err)

			res, err := s.table.ResolveClassWithMetadata(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status\t%s\n", res.Status)
			if res.Diagnostic != "" {
				fmt.Fprintf(out, "diagnostic\t%s\n", res.Diagnostic)
			}
			if o := res.Origin; o != nil {
				fmt.Fprintf(out, "entry\t%s\n", o.Entry)
				fmt.Fprintf(out, "entry-name\t%s\n", o.EntryName)
				if o.Versioned {
					fmt.Fprintf(out, "version\t%d\n", o.SelectedVersion)
				}
				if o.Module != "" {
					fmt.Fprintf(out, "module\t%s\n", o.Module)
				}
			}

			ctx := access.Unrestricted()
			if requester := s.requesterModule(module); requester != "" {
				g, err := s.moduleGraph()
				if err != nil {
					return err
				}
				ctx = access.ForRequesterModule(requester, g)
			}
			ar, err := access.NewResolver(s.table).ResolveClass(args[0], ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "access\t%s\t%s\n", ar.Status, ar.Detail)
			return nil
		},
	}

	cmd.Flags().StringVarP(&module, "module", "m", "", "requesting module")

	return cmd
}
