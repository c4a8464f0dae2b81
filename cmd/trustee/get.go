package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cclaudio/trustee/internal/plugin"
)

func newGetCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get PLUGIN RESOURCE [QUERY]",
		Short: "Fetch one resource through the configured plugins and write it to stdout",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			mgr, err := plugin.NewManager(cfg.Repository, logger.Named("plugin"))
			if err != nil {
				return err
			}
			defer func() { _ = mgr.Close(context.Background()) }()

			var query string
			if len(args) == 3 {
				query = args[2]
			}
			data, err := mgr.Dispatch(cmd.Context(), args[0], args[1], query)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List compiled-in repository plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, b := range plugin.Builders() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), b.Name()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
