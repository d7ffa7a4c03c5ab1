// Package destroyer tears the platform down in reverse install order.
package destroyer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cap-tools/capdeploy/pkg/client/helm"
	"github.com/cap-tools/capdeploy/pkg/k8s"
	"github.com/cap-tools/capdeploy/pkg/k8s/readiness"
	"github.com/cap-tools/capdeploy/pkg/ui/notify"
	"k8s.io/client-go/kubernetes"
)

// DeleteAwaiter blocks until a resource is gone.
type DeleteAwaiter interface {
	AwaitDeleted(
		ctx context.Context,
		query readiness.ResourceQuery,
		timeout time.Duration,
	) (readiness.Outcome, error)
}

// Target names a release and the namespace it lives in.
type Target struct {
	Release   string
	Namespace string
}

// Destroyer uninstalls releases and deletes their namespaces. Namespace
// deletion is asynchronous on the cluster side, so each teardown step awaits
// actual disappearance before moving on.
type Destroyer struct {
	helm      helm.Interface
	clientset kubernetes.Interface
	awaiter   DeleteAwaiter
	timeout   time.Duration
	writer    io.Writer
}

// NewDestroyer creates a destroyer.
func NewDestroyer(
	helmClient helm.Interface,
	clientset kubernetes.Interface,
	awaiter DeleteAwaiter,
	timeout time.Duration,
	writer io.Writer,
) *Destroyer {
	return &Destroyer{
		helm:      helmClient,
		clientset: clientset,
		awaiter:   awaiter,
		timeout:   timeout,
		writer:    writer,
	}
}

// Destroy removes every target in order. A release that is already gone is
// skipped; its namespace is still deleted and awaited.
func (d *Destroyer) Destroy(ctx context.Context, targets []Target) error {
	for _, target := range targets {
		notify.Titlef(d.writer, "🔥", "Destroying %s...", target.Release)

		err := d.uninstallIfPresent(ctx, target)
		if err != nil {
			return fmt.Errorf("destroy %s: %w", target.Release, err)
		}

		err = k8s.DeleteNamespace(ctx, d.clientset, target.Namespace)
		if err != nil {
			return fmt.Errorf("destroy %s: %w", target.Release, err)
		}

		_, err = d.awaiter.AwaitDeleted(ctx, readiness.ResourceQuery{
			Kind: readiness.KindNamespace,
			Name: target.Namespace,
		}, d.timeout)
		if err != nil {
			return fmt.Errorf("destroy %s: %w", target.Release, err)
		}

		notify.Successf(d.writer, "%s removed", target.Release)
	}

	return nil
}

func (d *Destroyer) uninstallIfPresent(ctx context.Context, target Target) error {
	releases, err := d.helm.ListReleases(ctx, target.Namespace)
	if err != nil {
		return fmt.Errorf("list releases in %s: %w", target.Namespace, err)
	}

	for _, release := range releases {
		if release.Name != target.Release {
			continue
		}

		err = d.helm.UninstallRelease(ctx, target.Release, target.Namespace)
		if err != nil {
			return fmt.Errorf("uninstall %s: %w", target.Release, err)
		}

		return nil
	}

	notify.Activityf(d.writer, "Release %s not installed, skipping uninstall", target.Release)

	return nil
}
