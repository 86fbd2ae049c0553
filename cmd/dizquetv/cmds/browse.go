package cmds

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/dizquetv/internal/app"
	"github.com/five82/dizquetv/internal/logging"
	"github.com/five82/dizquetv/internal/logtail"
)

func newBrowseCLI(rt *runtime) *cobra.Command {
	var (
		poll      time.Duration
		prefsPath string
	)
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive channel browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), app.Options{
				Client:    rt.client,
				Logger:    rt.logger,
				PrefsPath: prefsPath,
				PollEvery: poll,
			})
		},
	}
	cmd.Flags().DurationVar(&poll, "poll", 5*time.Second, "server poll interval")
	cmd.Flags().StringVar(&prefsPath, "prefs", "", "preferences file (default ~/.config/dizquetv/prefs.toml)")
	return cmd
}

func newLogsCLI(rt *runtime) *cobra.Command {
	var (
		lines int
		level string
		plain bool
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of the CLI log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			minLevel, err := logging.ParseLevel(level)
			if err != nil {
				return err
			}
			path := rt.cfg.LogPath()
			// Read extra lines so filtering still leaves enough.
			all, err := logtail.Read(path, lines*4)
			if err != nil {
				return err
			}
			out := logtail.Filter(all, minLevel)
			if lines > 0 && len(out) > lines {
				out = out[len(out)-lines:]
			}
			if len(out) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "no log entries in %s\n", path)
				return nil
			}
			if !plain {
				out = logtail.ColorizeLines(out)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(out, "\n"))
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "lines to print, 0 for the whole file")
	cmd.Flags().StringVar(&level, "level", "debug", "minimum level to print")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable colors")
	return cmd
}
