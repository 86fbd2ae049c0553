// Package cmds holds the cobra command tree for the dizquetv binary.
package cmds

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/five82/dizquetv/internal/config"
	"github.com/five82/dizquetv/internal/logging"
	"github.com/five82/dizquetv/pkg/dizquetv"
)

// Version is the CLI version, set at build time with -ldflags.
var Version = "dev"

// runtime carries what PersistentPreRunE builds for the subcommands.
type runtime struct {
	configPath string
	url        string
	verbose    bool

	cfg      config.Config
	logger   *logrus.Logger
	client   *dizquetv.Client
	registry *prometheus.Registry
	closer   io.Closer
}

// NewRootCLI builds the dizquetv command tree.
func NewRootCLI() *cobra.Command {
	rt := &runtime{}

	rootCmd := &cobra.Command{
		Use:           "dizquetv",
		Short:         "Manage a dizqueTV server from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return rt.teardown()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rt.configPath, "config", "", "config file (default ~/.config/dizquetv/config.toml)")
	flags.StringVar(&rt.url, "url", "", "dizqueTV server URL, overrides config and DIZQUETV_URL")
	flags.BoolVarP(&rt.verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(
		newVersionCLI(rt),
		newChannelsCLI(rt),
		newLineupCLI(rt),
		newFillersCLI(rt),
		newShowsCLI(rt),
		newPlexCLI(rt),
		newSettingsCLI(rt),
		newGuideCLI(rt),
		newXMLTVCLI(rt),
		newUploadImageCLI(rt),
		newBrowseCLI(rt),
		newLogsCLI(rt),
	)
	return rootCmd
}

func (rt *runtime) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return err
	}
	if rt.url != "" {
		cfg.URL = rt.url
	}
	rt.cfg = cfg

	level := cfg.LogLevel
	var console io.Writer
	if rt.verbose {
		level = "debug"
		// The browser owns the terminal; its log goes to the file only.
		if cmd.Name() != "browse" {
			console = cmd.ErrOrStderr()
		}
	}
	logger, closer, err := logging.New(logging.Options{
		Level:      level,
		File:       cfg.LogPath(),
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Console:    console,
	})
	if err != nil {
		return err
	}
	rt.logger, rt.closer = logger, closer

	opts := []dizquetv.Option{
		dizquetv.WithTimeout(cfg.Timeout),
		dizquetv.WithLogger(logger),
		dizquetv.WithUserAgent("dizquetv-cli/" + Version),
	}
	if cfg.Tracing {
		opts = append(opts, dizquetv.WithTracing())
	}
	if cfg.Metrics {
		rt.registry = prometheus.NewRegistry()
		metrics, err := dizquetv.NewMetrics(rt.registry)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, dizquetv.WithMetrics(metrics))
	}

	client, err := dizquetv.New(cfg.URL, opts...)
	if err != nil {
		return err
	}
	rt.client = client
	logger.WithFields(logrus.Fields{"command": cmd.CommandPath(), "url": client.URL()}).Debug("command started")
	return nil
}

// teardown logs request totals when metrics are enabled and closes the log.
func (rt *runtime) teardown() error {
	var errs []error
	if rt.registry != nil && rt.logger != nil {
		families, err := rt.registry.Gather()
		if err != nil {
			errs = append(errs, fmt.Errorf("gather metrics: %w", err))
		}
		for _, family := range families {
			if family.GetName() != "dizquetv_client_requests_total" {
				continue
			}
			for _, metric := range family.GetMetric() {
				fields := logrus.Fields{"requests": metric.GetCounter().GetValue()}
				for _, label := range metric.GetLabel() {
					fields[label.GetName()] = label.GetValue()
				}
				rt.logger.WithFields(fields).Info("request metrics")
			}
		}
	}
	if rt.closer != nil {
		errs = append(errs, rt.closer.Close())
	}
	return errors.Join(errs...)
}
