package main

import (
	"github.com/spf13/cobra"
)

type options struct {
	configPath  string
	devicesPath string
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "iotc-bridge",
		Short:         "Forward BactoSense instrument data to the cloud",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "bridge.yaml", "bridge configuration file")
	root.PersistentFlags().StringVar(&opts.devicesPath, "devices", "devices.yaml", "device identities file")

	run := &cobra.Command{
		Use:   "run",
		Short: "Poll every configured device until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBridge(cmd.Context(), opts)
		},
	}
	run.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration files and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfiguration(cmd, opts)
		},
	}

	root.AddCommand(run, validate)
	return root
}
