package cmds

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/dizquetv/pkg/dizquetv"
)

type settingsKind struct {
	get   func(context.Context, *dizquetv.Client) (any, error)
	reset func(context.Context, *dizquetv.Client) (any, error)
}

var settingsKinds = map[string]settingsKind{
	"ffmpeg": {
		get:   func(ctx context.Context, c *dizquetv.Client) (any, error) { return c.FFMPEGSettings(ctx) },
		reset: func(ctx context.Context, c *dizquetv.Client) (any, error) { return c.ResetFFMPEGSettings(ctx) },
	},
	"plex": {
		get:   func(ctx context.Context, c *dizquetv.Client) (any, error) { return c.PlexSettings(ctx) },
		reset: func(ctx context.Context, c *dizquetv.Client) (any, error) { return c.ResetPlexSettings(ctx) },
	},
	"xmltv": {
		get:   func(ctx context.Context, c *dizquetv.Client) (any, error) { return c.XMLTVSettings(ctx) },
		reset: func(ctx context.Context, c *dizquetv.Client) (any, error) { return c.ResetXMLTVSettings(ctx) },
	},
	"hdhr": {
		get:   func(ctx context.Context, c *dizquetv.Client) (any, error) { return c.HDHRSettings(ctx) },
		reset: func(ctx context.Context, c *dizquetv.Client) (any, error) { return c.ResetHDHRSettings(ctx) },
	},
}

func settingsKindNames() []string {
	names := make([]string, 0, len(settingsKinds))
	for name := range settingsKinds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func lookupSettingsKind(name string) (settingsKind, error) {
	kind, ok := settingsKinds[strings.ToLower(name)]
	if !ok {
		return settingsKind{}, fmt.Errorf("unknown settings kind %q (want one of %s)", name, strings.Join(settingsKindNames(), ", "))
	}
	return kind, nil
}

func newSettingsCLI(rt *runtime) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read or reset server settings (" + strings.Join(settingsKindNames(), ", ") + ")",
	}
	cmd.PersistentFlags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")

	cmd.AddCommand(
		&cobra.Command{
			Use:       "get KIND",
			Short:     "Print a settings document",
			Args:      cobra.ExactArgs(1),
			ValidArgs: settingsKindNames(),
			RunE: func(cmd *cobra.Command, args []string) error {
				kind, err := lookupSettingsKind(args[0])
				if err != nil {
					return err
				}
				doc, err := kind.get(cmd.Context(), rt.client)
				if err != nil {
					return err
				}
				return printDocument(cmd.OutOrStdout(), format, doc)
			},
		},
		&cobra.Command{
			Use:       "reset KIND",
			Short:     "Restore a settings document to server defaults",
			Args:      cobra.ExactArgs(1),
			ValidArgs: settingsKindNames(),
			RunE: func(cmd *cobra.Command, args []string) error {
				kind, err := lookupSettingsKind(args[0])
				if err != nil {
					return err
				}
				doc, err := kind.reset(cmd.Context(), rt.client)
				if err != nil {
					return err
				}
				rt.logger.WithField("kind", args[0]).Info("settings reset")
				return printDocument(cmd.OutOrStdout(), format, doc)
			},
		},
	)
	return cmd
}
