// Package deployer orchestrates the ordered rollout of the platform
// components and gates each step on namespace readiness.
package deployer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cap-tools/capdeploy/pkg/k8s/readiness"
	"github.com/cap-tools/capdeploy/pkg/svc/installer"
	"github.com/cap-tools/capdeploy/pkg/ui/notify"
	"github.com/cap-tools/capdeploy/pkg/ui/timer"
)

// ReadyAwaiter blocks until every workload in a namespace is ready.
type ReadyAwaiter interface {
	AwaitNamespaceReady(
		ctx context.Context,
		namespace string,
		timeout time.Duration,
	) (readiness.Outcome, error)
}

// Component pairs an installer with the namespace whose readiness gates the
// next component.
type Component struct {
	Name      string
	Namespace string
	Installer installer.Installer
}

// Deployer installs components in order. Each component must report a fully
// ready namespace before the next one starts, since later charts read secrets
// the earlier releases generate.
type Deployer struct {
	components []Component
	awaiter    ReadyAwaiter
	timeout    time.Duration
	writer     io.Writer
	timer      timer.Timer
}

// NewDeployer creates a deployer over the given ordered components.
func NewDeployer(
	components []Component,
	awaiter ReadyAwaiter,
	timeout time.Duration,
	writer io.Writer,
) *Deployer {
	return &Deployer{
		components: components,
		awaiter:    awaiter,
		timeout:    timeout,
		writer:     writer,
		timer:      timer.New(),
	}
}

// Deploy installs every component in order, awaiting namespace readiness
// after each install. The first failure aborts the rollout.
func (d *Deployer) Deploy(ctx context.Context) error {
	d.timer.Start()

	for _, component := range d.components {
		d.timer.NewStage()
		notify.Titlef(d.writer, "🚀", "Deploying %s...", component.Name)

		err := component.Installer.Install(ctx)
		if err != nil {
			return fmt.Errorf("deploy %s: %w", component.Name, err)
		}

		notify.Activityf(d.writer, "Waiting for namespace %s to settle", component.Namespace)

		_, err = d.awaiter.AwaitNamespaceReady(ctx, component.Namespace, d.timeout)
		if err != nil {
			return fmt.Errorf("deploy %s: %w", component.Name, err)
		}

		_, stage := d.timer.GetTiming()
		notify.Successf(d.writer, "%s is ready (%s)", component.Name, stage.Round(time.Second))
	}

	total, _ := d.timer.GetTiming()
	notify.Successf(d.writer, "All components ready (%s)", total.Round(time.Second))

	return nil
}
