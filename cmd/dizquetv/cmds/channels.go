package cmds

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/five82/dizquetv/pkg/dizquetv"
)

func newChannelsCLI(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "channels",
		Aliases: []string{"ch"},
		Short:   "List and inspect channels",
	}
	cmd.AddCommand(
		newChannelsListCLI(rt),
		newChannelsShowCLI(rt),
		newChannelsNumbersCLI(rt),
		newChannelsDeleteCLI(rt),
		newChannelsExportCLI(rt),
		newChannelsURLsCLI(rt),
	)
	return cmd
}

func newChannelsListCLI(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			channels, err := rt.client.Channels(cmd.Context())
			if err != nil {
				return err
			}
			if len(channels) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no channels")
				return nil
			}
			rows := make([][]string, 0, len(channels))
			for _, ch := range channels {
				rows = append(rows, []string{
					strconv.Itoa(ch.Number),
					ch.Name,
					ch.GroupTitle,
					strconv.Itoa(len(ch.Programs)),
					dizquetv.DurationString(ch.Duration),
					yesNo(ch.Stealth),
				})
			}
			return printTable(cmd.OutOrStdout(), []string{"#", "Name", "Group", "Programs", "Length", "Hidden"}, rows)
		},
	}
}

func newChannelsShowCLI(rt *runtime) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "show NUMBER",
		Short: "Show a channel and its lineup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseChannelNumber(args[0])
			if err != nil {
				return err
			}
			ch, err := rt.client.Channel(cmd.Context(), number)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "#%d %s\n", ch.Number, ch.Name)
			if ch.GroupTitle != "" {
				fmt.Fprintf(out, "Group:    %s\n", ch.GroupTitle)
			}
			fmt.Fprintf(out, "Start:    %s\n", ch.StartTime)
			fmt.Fprintf(out, "Length:   %s\n", dizquetv.DurationString(ch.Duration))
			fmt.Fprintf(out, "Hidden:   %s\n", yesNo(ch.Stealth))
			fmt.Fprintf(out, "Fillers:  %d\n", len(ch.FillerCollections))
			if ch.ScheduleBackup != nil && len(ch.ScheduleBackup.Slots) > 0 {
				kind := "time slots"
				if ch.ScheduleBackup.IsRandom() {
					kind = "random slots"
				}
				fmt.Fprintf(out, "Schedule: %s (%d)\n", kind, len(ch.ScheduleBackup.Slots))
			}

			programs := ch.Programs
			if limit > 0 && len(programs) > limit {
				programs = programs[:limit]
			}
			rows := make([][]string, 0, len(programs))
			for i, p := range programs {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					dizquetv.DurationString(p.Duration),
					programKind(p),
					p.FullName(),
				})
			}
			if err := printTable(out, []string{"#", "Length", "Type", "Title"}, rows); err != nil {
				return err
			}
			if len(programs) < len(ch.Programs) {
				fmt.Fprintf(out, "... %d more\n", len(ch.Programs)-len(programs))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "programs to print, 0 for all")
	return cmd
}

func newChannelsNumbersCLI(rt *runtime) *cobra.Command {
	var free bool
	cmd := &cobra.Command{
		Use:   "numbers",
		Short: "Print channel numbers in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if free {
				n, err := rt.client.LowestAvailableChannelNumber(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			}
			numbers, err := rt.client.ChannelNumbers(ctx)
			if err != nil {
				return err
			}
			for _, n := range numbers {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&free, "free", false, "print the lowest unused number instead")
	return cmd
}

func newChannelsDeleteCLI(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NUMBER",
		Short: "Delete a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseChannelNumber(args[0])
			if err != nil {
				return err
			}
			if err := rt.client.DeleteChannel(cmd.Context(), number); err != nil {
				return err
			}
			rt.logger.WithField("channel", number).Info("channel deleted")
			fmt.Fprintf(cmd.OutOrStdout(), "deleted channel %d\n", number)
			return nil
		},
	}
}

func newChannelsExportCLI(rt *runtime) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export NUMBER",
		Short: "Print a channel document as YAML or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseChannelNumber(args[0])
			if err != nil {
				return err
			}
			ch, err := rt.client.Channel(cmd.Context(), number)
			if err != nil {
				return err
			}
			return printDocument(cmd.OutOrStdout(), format, ch)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	return cmd
}

func newChannelsURLsCLI(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "urls NUMBER",
		Short: "Print stream URLs for a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseChannelNumber(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			stream, err := rt.client.StreamURL(ctx, number, false)
			if err != nil {
				return err
			}
			video, err := rt.client.VideoURL(ctx, number)
			if err != nil {
				return err
			}
			radio, err := rt.client.RadioURL(ctx, number)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stream  %s\n", stream)
			fmt.Fprintf(out, "video   %s\n", video)
			fmt.Fprintf(out, "radio   %s\n", radio)
			return nil
		},
	}
}

func programKind(p dizquetv.Program) string {
	switch {
	case p.IsRedirect():
		return "redirect"
	case p.IsFlex():
		return "flex"
	case p.Type == "":
		return "-"
	default:
		return p.Type
	}
}
