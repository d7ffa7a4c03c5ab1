package cmd

import (
	"fmt"
	"io"

	"github.com/cap-tools/capdeploy/pkg/client/helm"
	"github.com/cap-tools/capdeploy/pkg/config"
	"github.com/cap-tools/capdeploy/pkg/k8s"
	"github.com/cap-tools/capdeploy/pkg/k8s/readiness"
	"github.com/spf13/cobra"
	"k8s.io/client-go/kubernetes"
)

// runtime bundles the clients every subcommand needs: the loaded
// configuration, a Kubernetes clientset, a Helm client and the readiness
// poller over the same cluster.
type runtime struct {
	cfg       *config.Config
	clientset kubernetes.Interface
	helm      helm.Interface
	poller    *readiness.Poller
	writer    io.Writer
}

// newConfigManager creates a config manager bound to the command's flags.
func newConfigManager(cmd *cobra.Command) (*config.Manager, error) {
	manager := config.NewManager(cmd.OutOrStdout())

	err := manager.BindFlags(cmd.Flags())
	if err != nil {
		return nil, err
	}

	return manager, nil
}

// newRuntime loads the configuration and connects to the cluster.
func newRuntime(cmd *cobra.Command, manager *config.Manager) (*runtime, error) {
	cfg, err := manager.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	kubeconfig := cfg.Kubeconfig
	if kubeconfig == "" {
		kubeconfig = k8s.DefaultKubeconfigPath()
	}

	clientset, err := k8s.NewClientset(kubeconfig, cfg.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cluster: %w", err)
	}

	helmClient, err := helm.NewClient(kubeconfig, cfg.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to create helm client: %w", err)
	}

	writer := cmd.OutOrStdout()

	poller := readiness.NewPoller(readiness.NewClientInspector(clientset))
	poller.Writer = writer

	return &runtime{
		cfg:       cfg,
		clientset: clientset,
		helm:      helmClient,
		poller:    poller,
		writer:    writer,
	}, nil
}
