package app

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/dizquetv/internal/prefs"
	"github.com/five82/dizquetv/internal/state"
	"github.com/five82/dizquetv/internal/ui"
	"github.com/five82/dizquetv/pkg/dizquetv"
)

// Options configure the terminal browser.
type Options struct {
	Client    *dizquetv.Client
	Logger    logrus.FieldLogger
	PrefsPath string        // empty uses ~/.config/dizquetv/prefs.toml
	PollEvery time.Duration // zero uses the default
}

// Run starts the poller and the browser, blocking until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Client == nil {
		return errors.New("browser requires a dizqueTV client")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	interval := opts.PollEvery
	if interval <= 0 {
		interval = defaultPollInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}
	// Populate the store before the first frame so the browser opens on data.
	if err := refresh(ctx, store, opts.Client); err != nil {
		logger.WithError(err).WithField("url", opts.Client.URL()).Warn("initial poll failed")
	}
	StartPoller(ctx, store, opts.Client, interval, logger)

	logger.WithFields(logrus.Fields{"url": opts.Client.URL(), "interval": interval}).Info("browser started")
	return ui.Run(ctx, ui.Options{
		Context: ctx,
		Client:  opts.Client,
		Store:   store,
		Refresh: func(ctx context.Context) error {
			return refresh(ctx, store, opts.Client)
		},
		PollTick:    time.Second,
		ThemeName:   userPrefs.Theme,
		PrefsPath:   opts.PrefsPath,
		LastChannel: userPrefs.LastChannel,
	})
}
