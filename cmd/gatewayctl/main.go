package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gatewayctl",
		Short:        "Payment gateway signature tools",
		Long:         `Compute and check payment gateway signatures offline, and issue the credentials the payment service checks.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newSignCommand(),
		newVerifyCommand(),
		newTokenCommand(),
		newHashKeyCommand(),
	)

	return cmd
}
