package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCLI(rt *runtime) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print CLI and server versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dizquetv CLI %s\n", Version)
			if local {
				return nil
			}
			server, err := rt.client.Server(cmd.Context())
			if err != nil {
				return fmt.Errorf("server version: %w", err)
			}
			fmt.Fprintf(out, "dizqueTV      %s\n", server.DizqueTV)
			fmt.Fprintf(out, "FFMPEG        %s\n", server.FFMPEG)
			fmt.Fprintf(out, "Node.js       %s\n", server.NodeJS)
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "skip the server request")
	return cmd
}
