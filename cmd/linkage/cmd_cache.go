package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCacheCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cache [class...]",
		Short: "Show symbol cache statistics, resolving the given classes first",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(flags)
			if err != nil {
				return err
			}
			defer closeInto(s, &err)

			for _, name := range args {
				if _, err := s.table.ResolveClassWithMetadata(name); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			stats := s.table.Stats()
			fmt.Fprintf(out, "fingerprint\t%s\n", s.table.Fingerprint())
			fmt.Fprintf(out, "target-release\t%d\n", s.table.TargetRelease())
			fmt.Fprintf(out, "entries\t%s\n", humanize.Comma(int64(s.table.CacheSize())))
			fmt.Fprintf(out, "hits\t%s\n", humanize.Comma(stats.Hits))
			fmt.Fprintf(out, "misses\t%s\n", humanize.Comma(stats.Misses))
			fmt.Fprintf(out, "invalidations\t%s\n", humanize.Comma(stats.Invalidations))

			if path := s.config.CacheFile; path != "" {
				if info, statErr := os.Stat(path); statErr == nil {
					fmt.Fprintf(out, "cache-file\t%s\t%s\tmodified %s\n",
						path, humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
				} else {
					fmt.Fprintf(out, "cache-file\t%s\tnot written yet\n", path)
				}
			}
			for _, d := range s.table.CacheDiagnostics() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", d)
			}
			return nil
		},
	}
}
