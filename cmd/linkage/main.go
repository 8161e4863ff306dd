package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

type globalFlags struct {
	config    string
	verbosity int
	logFile   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "linkage",
		Short:         "Inspect how JVM classes resolve, link and overload",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var path *string
			if flags.logFile != "" {
				path = &flags.logFile
			}
			commonlog.Configure(flags.verbosity, path)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "configuration file (default: linkage.yaml or linkage.toml in the current directory)")
	rootCmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", "increase log verbosity")
	rootCmd.PersistentFlags().StringVar(&flags.logFile, "log", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newDumpCmd(flags))
	rootCmd.AddCommand(newResolveCmd(flags))
	rootCmd.AddCommand(newSupertypesCmd(flags))
	rootCmd.AddCommand(newMembersCmd(flags))
	rootCmd.AddCommand(newModulesCmd(flags))
	rootCmd.AddCommand(newOverloadCmd(flags))
	rootCmd.AddCommand(newSamCmd(flags))
	rootCmd.AddCommand(newPropertiesCmd(flags))
	rootCmd.AddCommand(newCacheCmd(flags))

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
