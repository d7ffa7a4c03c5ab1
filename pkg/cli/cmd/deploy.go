package cmd

import (
	"context"
	"fmt"

	"github.com/cap-tools/capdeploy/pkg/client/helm"
	"github.com/cap-tools/capdeploy/pkg/config"
	"github.com/cap-tools/capdeploy/pkg/k8s"
	"github.com/cap-tools/capdeploy/pkg/svc/deployer"
	"github.com/cap-tools/capdeploy/pkg/svc/installer/scf"
	"github.com/cap-tools/capdeploy/pkg/svc/installer/stratos"
	"github.com/cap-tools/capdeploy/pkg/svc/installer/uaa"
	"github.com/cap-tools/capdeploy/pkg/ui/notify"
	"github.com/spf13/cobra"
)

// NewDeployCmd creates the deploy command.
func NewDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy UAA, SCF and the Stratos console",
		Long: "Deploy installs the platform charts in dependency order. Each " +
			"component must report every workload ready before the next one starts.",
		RunE:         handleDeployRunE,
		SilenceUsage: true,
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

func handleDeployRunE(cmd *cobra.Command, _ []string) error {
	manager, err := newConfigManager(cmd)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd, manager)
	if err != nil {
		return err
	}

	components, err := buildComponents(rt)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	for _, component := range components {
		err = k8s.EnsureNamespace(ctx, rt.clientset, component.Namespace)
		if err != nil {
			return fmt.Errorf("failed to prepare namespace %s: %w", component.Namespace, err)
		}
	}

	deploy := deployer.NewDeployer(components, rt.poller, rt.cfg.ReadyTimeout, rt.writer)

	err = deploy.Deploy(ctx)
	if err != nil {
		return err
	}

	notify.Successf(rt.writer, "Platform deployed at https://console.%s", rt.cfg.Domain())

	return nil
}

// buildComponents assembles the ordered component list. SCF reads the UAA
// internal CA cert lazily so the secret exists by the time it is needed.
func buildComponents(rt *runtime) ([]deployer.Component, error) {
	cfg := rt.cfg
	repo := &helm.RepositoryEntry{Name: cfg.RepositoryName, URL: cfg.RepositoryURL}

	uaaInstaller, err := uaa.NewInstaller(rt.helm, repo, chartSpec(cfg.UAA, cfg), uaa.Config{
		Domain:               cfg.Domain(),
		UAAPort:              cfg.UAAPort,
		AdminPassword:        cfg.AdminPassword,
		UAAAdminClientSecret: cfg.UAAAdminClientSecret,
		StorageClass:         cfg.StorageClass,
		ExternalIPs:          cfg.ExternalIPs(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build uaa installer: %w", err)
	}

	certSource := func(ctx context.Context) (string, error) {
		return uaa.CACert(ctx, rt.clientset, cfg.UAA.Namespace)
	}

	scfInstaller := scf.NewInstaller(rt.helm, repo, chartSpec(cfg.SCF, cfg), scf.Config{
		Domain:               cfg.Domain(),
		UAAPort:              cfg.UAAPort,
		AdminPassword:        cfg.AdminPassword,
		UAAAdminClientSecret: cfg.UAAAdminClientSecret,
		StorageClass:         cfg.StorageClass,
		ExternalIPs:          cfg.ExternalIPs(),
	}, certSource)

	consoleInstaller, err := stratos.NewInstaller(
		rt.helm, repo, chartSpec(cfg.Console, cfg), stratos.Config{
			Domain:        cfg.Domain(),
			UAAPort:       cfg.UAAPort,
			AdminPassword: cfg.AdminPassword,
			StorageClass:  cfg.StorageClass,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build console installer: %w", err)
	}

	return []deployer.Component{
		{Name: "uaa", Namespace: cfg.UAA.Namespace, Installer: uaaInstaller},
		{Name: "scf", Namespace: cfg.SCF.Namespace, Installer: scfInstaller},
		{Name: "console", Namespace: cfg.Console.Namespace, Installer: consoleInstaller},
	}, nil
}

func chartSpec(component config.Component, cfg *config.Config) *helm.ChartSpec {
	return &helm.ChartSpec{
		ReleaseName: component.Release,
		ChartName:   component.Chart,
		Namespace:   component.Namespace,
		Version:     component.Version,
		RepoURL:     cfg.RepositoryURL,
		Timeout:     cfg.HelmTimeout,
	}
}
