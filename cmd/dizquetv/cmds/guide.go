package cmds

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/dizquetv/pkg/dizquetv"
)

func newGuideCLI(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guide",
		Short: "Inspect the generated TV guide",
	}

	var hours int
	lineup := &cobra.Command{
		Use:   "lineup NUMBER",
		Short: "Print upcoming guide entries for a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseChannelNumber(args[0])
			if err != nil {
				return err
			}
			if hours <= 0 {
				return fmt.Errorf("--hours must be positive")
			}
			from := time.Now()
			programs, err := rt.client.GuideLineup(cmd.Context(), number, from, from.Add(time.Duration(hours)*time.Hour))
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(programs))
			for _, p := range programs {
				rows = append(rows, []string{guideClock(p.Start), guideClock(p.Stop), p.Title})
			}
			return printTable(cmd.OutOrStdout(), []string{"Start", "Stop", "Title"}, rows)
		},
	}
	lineup.Flags().IntVar(&hours, "hours", 6, "hours of guide to print")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Print when the guide was last built",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				status, err := rt.client.GuideStatus(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				last := status.LastUpdate
				if last == "" {
					last = "never"
				}
				fmt.Fprintf(out, "Last update: %s\n", last)
				fmt.Fprintf(out, "Channels:    %d\n", len(status.ChannelNumbers))
				return nil
			},
		},
		lineup,
	)
	return cmd
}

func guideClock(ts string) string {
	t, err := dizquetv.ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("Mon 15:04")
}

func newXMLTVCLI(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xmltv",
		Short: "Refresh or inspect the XMLTV export",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "refresh",
			Short: "Ask the server to rebuild the XMLTV file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := rt.client.RefreshXMLTV(cmd.Context()); err != nil {
					return err
				}
				rt.logger.Info("xmltv refresh requested")
				fmt.Fprintln(cmd.OutOrStdout(), "xmltv refresh requested")
				return nil
			},
		},
		&cobra.Command{
			Use:   "last-refresh",
			Short: "Print when XMLTV was last written",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				last, err := rt.client.LastXMLTVRefresh(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), last)
				return nil
			},
		},
		&cobra.Command{
			Use:   "channels",
			Short: "List channels in the XMLTV export with their programme counts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				tv, err := rt.client.XMLTV(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(tv.Channels))
				for _, ch := range tv.Channels {
					name := ""
					if len(ch.DisplayName) > 0 {
						name = ch.DisplayName[0]
					}
					rows = append(rows, []string{ch.ID, name, strconv.Itoa(len(tv.ProgrammesFor(ch.ID)))})
				}
				return printTable(cmd.OutOrStdout(), []string{"ID", "Name", "Programmes"}, rows)
			},
		},
		&cobra.Command{
			Use:   "m3u",
			Short: "List entries of the server's M3U playlist",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				playlist, err := rt.client.M3U(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(playlist.Entries))
				for _, e := range playlist.Entries {
					rows = append(rows, []string{e.TVGChno, e.Name, e.Group, e.URL})
				}
				return printTable(cmd.OutOrStdout(), []string{"#", "Name", "Group", "URL"}, rows)
			},
		},
	)
	return cmd
}

func newUploadImageCLI(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "upload-image PATH",
		Short: "Upload an image for use as a channel icon or offline picture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			upload, err := rt.client.UploadImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rt.logger.WithField("url", upload.FileURL).Info("image uploaded")
			fmt.Fprintln(cmd.OutOrStdout(), upload.FileURL)
			return nil
		},
	}
}
