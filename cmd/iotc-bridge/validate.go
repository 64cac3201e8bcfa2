package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func validateConfiguration(cmd *cobra.Command, opts *options) error {
	conf, identities, err := loadConfiguration(opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "cloud: %s\n", conf.Cloud.URL)
	fmt.Fprintf(out, "poll interval: %s\n", conf.PollInterval)
	for _, identity := range sortedIdentities(identities) {
		fmt.Fprintf(out, "device %s at %s\n", identity.DeviceID, identity.Address)
	}
	return nil
}
