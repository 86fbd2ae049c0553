package cmds

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/dizquetv/pkg/dizquetv"
)

// channelOp loads a channel and edits it in place on the server.
type channelOp func(ctx context.Context, ch *dizquetv.Channel) error

func newLineupCLI(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lineup",
		Short: "Reorder and rewrite channel lineups",
	}

	simple := []struct {
		use   string
		short string
		op    channelOp
	}{
		{"sort-release NUMBER", "Sort by release date", method((*dizquetv.Channel).SortByReleaseDate)},
		{"sort-season NUMBER", "Sort episodes by season and episode number", method((*dizquetv.Channel).SortBySeasonOrder)},
		{"sort-alpha NUMBER", "Sort alphabetically by title", method((*dizquetv.Channel).SortAlphabetically)},
		{"sort-duration NUMBER", "Sort by program length", method((*dizquetv.Channel).SortByDuration)},
		{"shuffle NUMBER", "Shuffle programs", method((*dizquetv.Channel).SortRandomly)},
		{"cyclical-shuffle NUMBER", "Shuffle while keeping each show in episode order", method((*dizquetv.Channel).CyclicalShuffle)},
		{"dedupe NUMBER", "Remove duplicate programs", method((*dizquetv.Channel).RemoveDuplicatePrograms)},
		{"dedupe-redirects NUMBER", "Remove duplicate redirects", method((*dizquetv.Channel).RemoveDuplicateRedirects)},
		{"remove-redirects NUMBER", "Remove every redirect", method((*dizquetv.Channel).RemoveRedirects)},
		{"remove-specials NUMBER", "Remove season 0 episodes", method((*dizquetv.Channel).RemoveSpecials)},
		{"clear NUMBER", "Remove every program", method((*dizquetv.Channel).DeleteAllPrograms)},
		{"remove-schedule NUMBER", "Drop the saved slot schedule", method((*dizquetv.Channel).DeleteSchedule)},
	}
	for _, s := range simple {
		cmd.AddCommand(lineupCommand(rt, s.use, s.short, s.op))
	}

	cmd.AddCommand(
		newBlockShuffleCLI(rt),
		newReplicateCLI(rt),
		newPadCLI(rt),
		newBalanceCLI(rt),
		newShiftCLI(rt, "fast-forward NUMBER", "Move the channel start time back so playback jumps ahead", (*dizquetv.Channel).FastForward),
		newShiftCLI(rt, "rewind NUMBER", "Move the channel start time forward so playback jumps back", (*dizquetv.Channel).Rewind),
		newNightCLI(rt),
		newRerunsCLI(rt),
	)
	return cmd
}

func method(fn func(*dizquetv.Channel, context.Context) error) channelOp {
	return func(ctx context.Context, ch *dizquetv.Channel) error { return fn(ch, ctx) }
}

func lineupCommand(rt *runtime, use, short string, op channelOp) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.editChannel(cmd, args[0], op)
		},
	}
}

func (rt *runtime) editChannel(cmd *cobra.Command, arg string, op channelOp) error {
	number, err := parseChannelNumber(arg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	ch, err := rt.client.Channel(ctx, number)
	if err != nil {
		return err
	}
	before := len(ch.Programs)
	if err := op(ctx, ch); err != nil {
		return fmt.Errorf("%s channel %d: %w", cmd.Name(), number, err)
	}
	rt.logger.WithField("channel", number).WithField("programs", len(ch.Programs)).Info(cmd.Name())
	fmt.Fprintf(cmd.OutOrStdout(), "channel %d: %d -> %d programs, %s\n",
		number, before, len(ch.Programs), dizquetv.DurationString(ch.Duration))
	return nil
}

func newBlockShuffleCLI(rt *runtime) *cobra.Command {
	var (
		block  int
		random bool
	)
	cmd := &cobra.Command{
		Use:   "block-shuffle NUMBER",
		Short: "Interleave shows in blocks of episodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.editChannel(cmd, args[0], func(ctx context.Context, ch *dizquetv.Channel) error {
				return ch.BlockShuffle(ctx, block, random)
			})
		},
	}
	cmd.Flags().IntVar(&block, "block", 2, "episodes per block")
	cmd.Flags().BoolVar(&random, "random", false, "shuffle block order")
	return cmd
}

func newReplicateCLI(rt *runtime) *cobra.Command {
	var (
		times   int
		shuffle bool
	)
	cmd := &cobra.Command{
		Use:   "replicate NUMBER",
		Short: "Repeat the lineup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.editChannel(cmd, args[0], func(ctx context.Context, ch *dizquetv.Channel) error {
				if shuffle {
					return ch.ReplicateAndShuffle(ctx, times)
				}
				return ch.Replicate(ctx, times)
			})
		},
	}
	cmd.Flags().IntVar(&times, "times", 2, "total copies of the lineup")
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "shuffle each copy")
	return cmd
}

func newPadCLI(rt *runtime) *cobra.Command {
	var every int
	cmd := &cobra.Command{
		Use:   "pad NUMBER",
		Short: "Add flex time so programs start on round times",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.editChannel(cmd, args[0], func(ctx context.Context, ch *dizquetv.Channel) error {
				return ch.PadTimes(ctx, every)
			})
		},
	}
	cmd.Flags().IntVar(&every, "every", 30, "minutes between start times")
	return cmd
}

func newBalanceCLI(rt *runtime) *cobra.Command {
	var margin float64
	cmd := &cobra.Command{
		Use:   "balance NUMBER",
		Short: "Trim shows so none runs longer than the shortest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.editChannel(cmd, args[0], func(ctx context.Context, ch *dizquetv.Channel) error {
				return ch.BalancePrograms(ctx, margin)
			})
		},
	}
	cmd.Flags().Float64Var(&margin, "margin", 0, "allowed overage as a fraction of the shortest show")
	return cmd
}

func newShiftCLI(rt *runtime, use, short string, fn func(*dizquetv.Channel, context.Context, dizquetv.Shift) error) *cobra.Command {
	var shift dizquetv.Shift
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if shift.IsZero() {
				return fmt.Errorf("%s needs a non-zero shift", cmd.Name())
			}
			return rt.editChannel(cmd, args[0], func(ctx context.Context, ch *dizquetv.Channel) error {
				return fn(ch, ctx, shift)
			})
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&shift.Seconds, "seconds", 0, "seconds to shift")
	flags.IntVar(&shift.Minutes, "minutes", 0, "minutes to shift")
	flags.IntVar(&shift.Hours, "hours", 0, "hours to shift")
	flags.IntVar(&shift.Days, "days", 0, "days to shift")
	flags.IntVar(&shift.Months, "months", 0, "months to shift")
	flags.IntVar(&shift.Years, "years", 0, "years to shift")
	return cmd
}

func newNightCLI(rt *runtime) *cobra.Command {
	var night, start, end int
	cmd := &cobra.Command{
		Use:   "night NUMBER",
		Short: "Redirect to another channel during night hours",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if night <= 0 {
				return fmt.Errorf("--channel is required")
			}
			return rt.editChannel(cmd, args[0], func(ctx context.Context, ch *dizquetv.Channel) error {
				return ch.AddChannelAtNight(ctx, night, start, end)
			})
		},
	}
	cmd.Flags().IntVar(&night, "channel", 0, "channel to redirect to")
	cmd.Flags().IntVar(&start, "start", 0, "hour the redirect begins, 0-23")
	cmd.Flags().IntVar(&end, "end", 6, "hour the redirect ends, 0-23")
	return cmd
}

func newRerunsCLI(rt *runtime) *cobra.Command {
	var (
		from  string
		hours int
		times int
	)
	cmd := &cobra.Command{
		Use:   "reruns NUMBER",
		Short: "Repeat a block of the lineup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			if from != "" {
				t, err := dizquetv.ParseTimestamp(from)
				if err != nil {
					return fmt.Errorf("parse --from: %w", err)
				}
				start = t
			}
			return rt.editChannel(cmd, args[0], func(ctx context.Context, ch *dizquetv.Channel) error {
				return ch.AddReruns(ctx, start, hours, times)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "block start as an ISO timestamp (default now)")
	cmd.Flags().IntVar(&hours, "hours", 2, "block length in hours")
	cmd.Flags().IntVar(&times, "times", 2, "number of reruns")
	return cmd
}
