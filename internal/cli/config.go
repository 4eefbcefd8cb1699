package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NiceneNerd/hypostasis/internal/config"
	"github.com/NiceneNerd/hypostasis/internal/version"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: MsgConfigShort,
	}

	var format string
	show := &cobra.Command{
		Use:         "show [project]",
		Short:       MsgShowShort,
		Args:        cobra.MaximumNArgs(1),
		Annotations: projectAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Marshal(a.cfg, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	show.Flags().StringVar(&format, "as", "toml", MsgFlagShowFmt)
	cmd.AddCommand(show)

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
			return err
		},
	}
}
