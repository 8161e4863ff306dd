package main

import (
	"fmt"
	"os"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/dhamidi/linkage/classfile"
	"github.com/dhamidi/linkage/format"
	"github.com/dhamidi/linkage/java/symbols"
)

func newDumpCmd(flags *globalFlags) *cobra.Command {
	var dumpFormat string

	cmd := &cobra.Command{
		Use:   "dump <class-or-file>",
		Short: "Dump the descriptor of a .class file or of a class on the classpath",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cd, err := loadDescriptor(flags, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch dumpFormat {
			case "text":
				return format.NewLineEncoder(out).Encode(cd)
			case "json":
				return format.NewJSONEncoder(out).Encode(cd)
			case "pp":
				printer := pp.New()
				printer.SetOutput(out)
				printer.SetColoringEnabled(false)
				_, err := printer.Println(cd)
				return err
			default:
				return fmt.Errorf("unknown format: %s (expected text, json or pp)", dumpFormat)
			}
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "text", "output format (text, json, pp)")

	return cmd
}

// loadDescriptor reads target as a class file when it exists on disk and
// resolves it on the configured classpath otherwise.
func loadDescriptor(flags *globalFlags, target string) (cd *classfile.ClassDescriptor, err error) {
	if _, statErr := os.Stat(target); statErr == nil {
		cd, err = classfile.ReadFile(target)
		if err != nil {
			return nil, fmt.Errorf("parse class file: %w", err)
		}
		return cd, nil
	}

	s, err := openSession(flags)
	if err != nil {
		return nil, err
	}
	defer closeInto(s, &err)

	res, err := s.table.ResolveClassWithMetadata(target)
	if err != nil {
		return nil, err
	}
	if res.Status != symbols.Found {
		return nil, fmt.Errorf("%s: %s", target, res.Diagnostic)
	}
	return res.Class, nil
}
