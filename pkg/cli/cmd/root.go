// Package cmd wires the capdeploy command tree.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root command with version info and
// subcommands.
func NewRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "capdeploy",
		Short:        "capdeploy deploys, verifies and tears down the CAP platform on Kubernetes",
		Long: "capdeploy installs UAA, SCF and the Stratos console onto a Kubernetes " +
			"cluster, gates each step on workload readiness, runs the platform smoke " +
			"tests and tears everything down again.",
		RunE:         handleRootRunE,
		SilenceUsage: true,
	}

	cmd.Version = fmt.Sprintf("%s (Built on %s from Git SHA %s)", version, date, commit)

	cmd.AddCommand(NewDeployCmd())
	cmd.AddCommand(NewTestCmd())
	cmd.AddCommand(NewDestroyCmd())

	return cmd
}

// Execute runs the provided root command.
func Execute(cmd *cobra.Command) error {
	err := cmd.Execute()
	if err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

func handleRootRunE(cmd *cobra.Command, _ []string) error {
	// The err can safely be ignored, as it can never fail at runtime.
	_ = cmd.Help()

	return nil
}
