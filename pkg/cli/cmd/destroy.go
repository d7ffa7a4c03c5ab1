package cmd

import (
	"github.com/cap-tools/capdeploy/pkg/config"
	"github.com/cap-tools/capdeploy/pkg/svc/destroyer"
	"github.com/cap-tools/capdeploy/pkg/ui/notify"
	"github.com/spf13/cobra"
)

// NewDestroyCmd creates the destroy command.
func NewDestroyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Tear down the platform",
		Long: "Destroy uninstalls the console, SCF and UAA releases in reverse " +
			"install order, deletes their namespaces and waits until each " +
			"namespace is actually gone.",
		RunE:         handleDestroyRunE,
		SilenceUsage: true,
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func handleDestroyRunE(cmd *cobra.Command, _ []string) error {
	manager, err := newConfigManager(cmd)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd, manager)
	if err != nil {
		return err
	}

	destroy := destroyer.NewDestroyer(
		rt.helm, rt.clientset, rt.poller, rt.cfg.DeleteTimeout, rt.writer,
	)

	targets := []destroyer.Target{
		{Release: rt.cfg.Console.Release, Namespace: rt.cfg.Console.Namespace},
		{Release: rt.cfg.SCF.Release, Namespace: rt.cfg.SCF.Namespace},
		{Release: rt.cfg.UAA.Release, Namespace: rt.cfg.UAA.Namespace},
	}

	err = destroy.Destroy(cmd.Context(), targets)
	if err != nil {
		return err
	}

	notify.Successf(rt.writer, "Platform removed")

	return nil
}
