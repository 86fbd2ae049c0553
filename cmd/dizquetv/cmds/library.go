package cmds

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/five82/dizquetv/pkg/dizquetv"
)

func newFillersCLI(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fillers",
		Short: "Manage filler lists",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List filler lists",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				lists, err := rt.client.FillerLists(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(lists))
				for _, f := range lists {
					rows = append(rows, []string{f.ID, f.Name, strconv.Itoa(f.Count)})
				}
				return printTable(cmd.OutOrStdout(), []string{"ID", "Name", "Items"}, rows)
			},
		},
		&cobra.Command{
			Use:   "show ID",
			Short: "Show a filler list and the channels using it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				list, err := rt.client.FillerList(ctx, args[0])
				if err != nil {
					return err
				}
				channels, err := list.Channels(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s)\n", list.Name, list.ID)
				fmt.Fprintf(out, "Length:   %s\n", dizquetv.DurationString(dizquetv.TotalDuration(list.Content)))
				for _, ch := range channels {
					fmt.Fprintf(out, "Channel:  %d %s\n", ch.Number, ch.Name)
				}
				return printPrograms(cmd, list.Content)
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a filler list and detach it from channels",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := rt.client.DeleteFillerList(cmd.Context(), args[0]); err != nil {
					return err
				}
				rt.logger.WithField("filler", args[0]).Info("filler list deleted")
				fmt.Fprintf(cmd.OutOrStdout(), "deleted filler list %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func newShowsCLI(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shows",
		Short: "Manage custom shows",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List custom shows",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				shows, err := rt.client.CustomShows(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(shows))
				for _, s := range shows {
					rows = append(rows, []string{s.ID, s.Name, strconv.Itoa(s.Count)})
				}
				return printTable(cmd.OutOrStdout(), []string{"ID", "Name", "Items"}, rows)
			},
		},
		&cobra.Command{
			Use:   "show ID",
			Short: "Show a custom show's programs",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				show, err := rt.client.CustomShow(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s)\n", show.Name, show.ID)
				fmt.Fprintf(out, "Length:   %s\n", dizquetv.DurationString(dizquetv.TotalDuration(show.Content)))
				return printPrograms(cmd, show.Content)
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a custom show",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := rt.client.DeleteCustomShow(cmd.Context(), args[0]); err != nil {
					return err
				}
				rt.logger.WithField("show", args[0]).Info("custom show deleted")
				fmt.Fprintf(cmd.OutOrStdout(), "deleted custom show %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func newPlexCLI(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plex",
		Short: "Manage Plex server connections",
	}
	var foreign bool
	status := &cobra.Command{
		Use:   "status NAME",
		Short: "Check whether a Plex server is reachable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			check := rt.client.PlexServerStatus
			if foreign {
				check = rt.client.PlexServerForeignStatus
			}
			up, err := check(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			state := "down"
			if up {
				state = "up"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], state)
			return nil
		},
	}
	status.Flags().BoolVar(&foreign, "foreign", false, "check reachability from outside the server")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List Plex servers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				servers, err := rt.client.PlexServers(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(servers))
				for _, s := range servers {
					rows = append(rows, []string{
						strconv.Itoa(s.Index), s.Name, s.URI, yesNo(s.ARChannels), yesNo(s.ARGuide),
					})
				}
				return printTable(cmd.OutOrStdout(), []string{"#", "Name", "URI", "Auto channels", "Auto guide"}, rows)
			},
		},
		status,
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Remove a Plex server",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := rt.client.DeletePlexServer(cmd.Context(), args[0]); err != nil {
					return err
				}
				rt.logger.WithField("server", args[0]).Info("plex server deleted")
				fmt.Fprintf(cmd.OutOrStdout(), "deleted plex server %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func printPrograms(cmd *cobra.Command, programs []dizquetv.Program) error {
	if len(programs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no programs")
		return nil
	}
	rows := make([][]string, 0, len(programs))
	for i, p := range programs {
		rows = append(rows, []string{strconv.Itoa(i + 1), dizquetv.DurationString(p.Duration), p.FullName()})
	}
	return printTable(cmd.OutOrStdout(), []string{"#", "Length", "Title"}, rows)
}
