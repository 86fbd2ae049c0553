package dizquetv

import (
	"context"
	"fmt"
	"time"
)

// AddProgramsToChannels appends programs to each listed channel.
func (c *Client) AddProgramsToChannels(ctx context.Context, numbers []int, programs []Program) error {
	if len(numbers) == 0 || len(programs) == 0 {
		return fmt.Errorf("%w: channels and programs", ErrMissingParameters)
	}
	return c.eachChannel(ctx, numbers, func(ctx context.Context, ch *Channel) error {
		return ch.AddPrograms(ctx, programs...)
	})
}

// FillerAssignment attaches one filler list to a channel.
type FillerAssignment struct {
	ID       string
	Weight   int
	Cooldown time.Duration
}

// AddFillerListsToChannels attaches every filler list to each listed channel.
func (c *Client) AddFillerListsToChannels(ctx context.Context, numbers []int, fillers []FillerAssignment) error {
	if len(numbers) == 0 || len(fillers) == 0 {
		return fmt.Errorf("%w: channels and filler lists", ErrMissingParameters)
	}
	return c.eachChannel(ctx, numbers, func(ctx context.Context, ch *Channel) error {
		for _, f := range fillers {
			if err := ch.AddFillerList(ctx, f.ID, f.Weight, f.Cooldown); err != nil {
				return err
			}
		}
		return nil
	})
}

// eachChannel applies fn to the channels in order and stops at the first
// failure. Channels after the failing one are left untouched.
func (c *Client) eachChannel(ctx context.Context, numbers []int, fn func(context.Context, *Channel) error) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	for _, number := range numbers {
		ch, err := c.Channel(ctx, number)
		if err != nil {
			return fmt.Errorf("channel %d: %w", number, err)
		}
		if err := fn(ctx, ch); err != nil {
			return fmt.Errorf("channel %d: %w", number, err)
		}
	}
	return nil
}
