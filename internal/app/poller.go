package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/five82/dizquetv/internal/state"
	"github.com/five82/dizquetv/pkg/dizquetv"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// Fetcher is the part of the dizqueTV client the poller needs.
type Fetcher interface {
	Server(ctx context.Context) (*dizquetv.ServerDetails, error)
	Channels(ctx context.Context) ([]*dizquetv.Channel, error)
	GuideStatus(ctx context.Context) (*dizquetv.GuideStatus, error)
}

// StartPoller launches a background goroutine that refreshes the store at a
// fixed cadence, backing off while the server is unreachable. The first poll
// happens one interval after the call. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, fetcher Fetcher, interval time.Duration, logger logrus.FieldLogger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	go func() {
		failures := 0
		for {
			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			if err := refresh(ctx, store, fetcher); err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				logger.WithError(err).WithField("failures", failures).Warn("dizqueTV poll failed")
			} else {
				failures = 0
			}
		}
	}()
}

// calculateBackoff doubles the interval per consecutive failure up to maxBackoff.
func calculateBackoff(failures int, interval time.Duration) time.Duration {
	if failures <= 0 {
		return interval
	}
	d := interval
	for range failures {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// refresh polls the server once. Server details and channels are required;
// a guide status failure only leaves the previous guide in place.
func refresh(ctx context.Context, store *state.Store, fetcher Fetcher) error {
	var (
		server   *dizquetv.ServerDetails
		channels []*dizquetv.Channel
		guide    *dizquetv.GuideStatus
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		server, err = fetcher.Server(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		channels, err = fetcher.Channels(gctx)
		return err
	})
	g.Go(func() error {
		status, err := fetcher.GuideStatus(gctx)
		if err == nil {
			guide = status
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		store.Update(nil, err)
		return err
	}

	summaries := make([]state.ChannelSummary, 0, len(channels))
	for _, ch := range channels {
		summaries = append(summaries, state.Summarize(ch))
	}
	store.Update(&state.Data{Server: server, Channels: summaries, Guide: guide}, nil)
	return nil
}
