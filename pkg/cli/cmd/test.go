package cmd

import (
	"github.com/cap-tools/capdeploy/pkg/config"
	"github.com/cap-tools/capdeploy/pkg/svc/verifier"
	"github.com/spf13/cobra"
)

// NewTestCmd creates the test command.
func NewTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the platform smoke tests",
		Long: "Test runs the smoke-test pod against the deployed platform and " +
			"streams its output. The pod is removed afterwards.",
		RunE:         handleTestRunE,
		SilenceUsage: true,
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func handleTestRunE(cmd *cobra.Command, _ []string) error {
	manager, err := newConfigManager(cmd)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd, manager)
	if err != nil {
		return err
	}

	verify := verifier.NewVerifier(
		rt.clientset,
		rt.poller,
		rt.cfg.SCF.Namespace,
		rt.cfg.SmokeTestImage,
		rt.cfg.ReadyTimeout,
		rt.writer,
	)

	return verify.Run(cmd.Context())
}
