package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/linkage/java/hierarchy"
	"github.com/dhamidi/linkage/java/sam"
)

func newSamCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sam <interface>",
		Short: "Report whether an interface is functional and its single abstract method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer closeInto(s, &err)

			res := sam.NewAnalyzer(hierarchy.NewResolver(s.table)).Analyze(args[0])
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "interface\t%s\n", res.Interface)
			fmt.Fprintf(out, "functional\t%t\n", res.Functional)
			fmt.Fprintf(out, "annotated\t%t\n", res.Annotated)
			if m := res.Method; m != nil {
				fmt.Fprintf(out, "method\t%s.%s%s\n", m.Owner, m.Name, m.Descriptor)
				fmt.Fprintf(out, "generic\t%s\n", m.Generic)
			}
			for _, c := range res.Candidates {
				fmt.Fprintf(out, "candidate\t%s\n", c)
			}
			for _, d := range res.Diagnostics {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", d)
			}
			return nil
		},
	}
}
