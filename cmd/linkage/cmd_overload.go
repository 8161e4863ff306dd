package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/linkage/classfile"
	"github.com/dhamidi/linkage/java/hierarchy"
	"github.com/dhamidi/linkage/java/nullability"
	"github.com/dhamidi/linkage/java/overload"
	"github.com/dhamidi/linkage/java/symbols"
)

func newOverloadCmd(flags *globalFlags) *cobra.Command {
	var kindName string

	cmd := &cobra.Command{
		Use:   "overload <class> <name> [argdesc...]",
		Short: "Trace overload resolution for a call with the given argument descriptors",
		Long: `Trace overload resolution for a call.

Arguments are JVM field descriptors (I, J, Ljava/lang/String;, [I) or the
literals null and undefined.

Examples:
  linkage overload -k STATIC_METHOD java/lang/Math max I J
  linkage overload -k STATIC_METHOD java/util/Objects equals null Ljava/lang/String;`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			kind, err := overload.ParseInvokeKind(kindName)
			if err != nil {
				return err
			}

			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer closeInto(s, &err)

			h := hierarchy.NewResolver(s.table)
			owner := classfile.SourceToInternalName(args[0])
			nulls, err := analyzeHierarchy(s.table, h, owner)
			if err != nil {
				return err
			}
			supplier := overload.DescriptorSupplier{Hierarchy: h, Nullability: nulls}
			candidates, err := supplier.Candidates(owner, args[1], kind)
			if err != nil {
				return err
			}

			callArgs := make([]overload.Argument, 0, len(args)-2)
			for _, a := range args[2:] {
				callArgs = append(callArgs, overload.ParseArgument(a))
			}

			res := overload.NewResolver(h).Resolve(candidates, callArgs)
			out := cmd.OutOrStdout()
			for _, o := range res.Outcomes {
				if o.Applicable {
					fmt.Fprintf(out, "candidate\t%s\tscore=%d\n", o.Candidate.Identity, o.Score)
				} else {
					fmt.Fprintf(out, "candidate\t%s\t%s\n", o.Candidate.Identity, o.Reason)
				}
			}
			fmt.Fprintf(out, "status\t%s\n", res.Status)
			if res.Selected != nil {
				fmt.Fprintf(out, "selected\t%s\n", res.Selected)
			}
			if res.Diagnostic != "" {
				fmt.Fprintf(out, "diagnostic\t%s\n", res.Diagnostic)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindName, "kind", "k", "INSTANCE_METHOD", "invoke kind (CONSTRUCTOR, STATIC_METHOD, INSTANCE_METHOD, STATIC_FIELD_GET, STATIC_FIELD_SET, INSTANCE_FIELD_GET, INSTANCE_FIELD_SET)")

	return cmd
}

// analyzeHierarchy gathers nullability facts for owner and its supertypes.
func analyzeHierarchy(table *symbols.Table, h *hierarchy.Resolver, owner string) (nullability.Result, error) {
	names := append([]string{owner}, h.Supertypes(owner).Supertypes...)
	var classes []*classfile.ClassDescriptor
	for _, name := range names {
		res, err := table.ResolveClassWithMetadata(name)
		if err != nil {
			return nullability.Result{}, err
		}
		if res.Status == symbols.Found {
			classes = append(classes, res.Class)
		}
		if pkg := classfile.PackageOf(name); pkg != "" {
			info, err := table.ResolveClassWithMetadata(pkg + "/package-info")
			if err != nil {
				return nullability.Result{}, err
			}
			if info.Status == symbols.Found {
				classes = append(classes, info.Class)
			}
		}
	}
	return nullability.Analyze(classes), nil
}
