package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cclaudio/trustee/internal/config"
	"github.com/cclaudio/trustee/internal/observability"
	_ "github.com/cclaudio/trustee/internal/plugin/builtin"
)

const configEnv = "TRUSTEE_CONFIG"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "trustee",
		Short:        "Serve resources from compiled-in repository plugins",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv(configEnv), "Path to config file (yaml)")

	load := func() (*config.Config, *observability.Logger, error) {
		path := configPath
		if path == "" {
			path = "./config.yaml"
		}
		cfg, err := config.Load(path)
		if err != nil {
			return nil, nil, err
		}
		logger, err := observability.NewLogger(cfg.Observability)
		if err != nil {
			return nil, nil, err
		}
		return cfg, logger, nil
	}

	root.AddCommand(newServeCmd(load), newGetCmd(load), newPluginsCmd())
	return root
}

type loadFunc func() (*config.Config, *observability.Logger, error)
