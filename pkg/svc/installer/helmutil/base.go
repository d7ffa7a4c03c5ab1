// Package helmutil provides standard Helm chart lifecycle management for
// repository-based installers.
package helmutil

import (
	"context"
	"fmt"

	"github.com/cap-tools/capdeploy/pkg/client/helm"
)

// Base implements the installer contract (Install, Uninstall) by managing a
// single chart from a named Helm repository.
//
// Embed *Base in installer types that follow the pattern of adding a
// repository, installing/upgrading a chart, and uninstalling the release.
type Base struct {
	name   string
	client helm.Interface
	repo   *helm.RepositoryEntry
	spec   *helm.ChartSpec
}

// NewBase creates a new Base with the given configuration. The name parameter
// identifies the component in error messages (e.g. "uaa", "scf").
func NewBase(
	name string,
	client helm.Interface,
	repo *helm.RepositoryEntry,
	spec *helm.ChartSpec,
) *Base {
	return &Base{
		name:   name,
		client: client,
		repo:   repo,
		spec:   spec,
	}
}

// Install adds the Helm repository and installs or upgrades the chart.
func (b *Base) Install(ctx context.Context) error {
	err := b.client.AddRepository(ctx, b.repo)
	if err != nil {
		return fmt.Errorf("failed to add %s repository: %w", b.repo.Name, err)
	}

	_, err = b.client.InstallOrUpgradeChart(ctx, b.spec)
	if err != nil {
		return fmt.Errorf("failed to install %s chart: %w", b.name, err)
	}

	return nil
}

// Uninstall removes the Helm release.
func (b *Base) Uninstall(ctx context.Context) error {
	err := b.client.UninstallRelease(ctx, b.spec.ReleaseName, b.spec.Namespace)
	if err != nil {
		return fmt.Errorf("failed to uninstall %s release: %w", b.name, err)
	}

	return nil
}

// ReleaseName returns the managed release name.
func (b *Base) ReleaseName() string {
	return b.spec.ReleaseName
}

// Namespace returns the namespace the chart installs into.
func (b *Base) Namespace() string {
	return b.spec.Namespace
}

// SetValue adds a single --set style value override to the chart spec.
func (b *Base) SetValue(key, value string) {
	if b.spec.SetValues == nil {
		b.spec.SetValues = map[string]string{}
	}

	b.spec.SetValues[key] = value
}
