package readiness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/cap-tools/capdeploy/pkg/ui/notify"
)

// DefaultInterval is the tick cadence between status observations.
const DefaultInterval = time.Second

// Poller blocks callers until resources reach an awaited state. Waits are
// strictly sequential; suspension happens only at the per-tick sleep.
type Poller struct {
	// Inspector answers status queries each tick.
	Inspector Inspector

	// Interval overrides the tick cadence. Zero means DefaultInterval.
	Interval time.Duration

	// Writer receives progress output when observations change. Nil disables
	// progress output.
	Writer io.Writer
}

// NewPoller creates a poller with the default tick cadence.
func NewPoller(inspector Inspector) *Poller {
	return &Poller{Inspector: inspector}
}

// AwaitReady blocks until the queried resource is ready or timeout elapses.
//
// Workloads are ready when the observed ready count equals the desired count;
// the desired count is captured once, at the first tick where the resource is
// observed. Pods are ready when every container is ready, or immediately when
// the pod reports a terminal success phase. A resource that is transiently
// missing counts as not yet ready and polling continues.
//
// Timeouts are fatal to the wait session: the returned error carries the last
// observed counts, and callers must restart the session if they wish to retry.
func (p *Poller) AwaitReady(
	ctx context.Context,
	query ResourceQuery,
	timeout time.Duration,
) (Outcome, error) {
	switch query.Kind {
	case KindPod:
		return p.awaitPodReady(ctx, query, timeout)
	case KindDeployment, KindStatefulSet, KindDaemonSet:
		return p.awaitWorkloadReady(ctx, query, timeout)
	case KindNamespace:
		return OutcomeFailed, fmt.Errorf(
			"%w: %s (use AwaitNamespaceReady)", ErrUnsupportedKind, query.Kind,
		)
	default:
		return OutcomeFailed, fmt.Errorf("%w: %s", ErrUnsupportedKind, query.Kind)
	}
}

// AwaitPodCompleted blocks until the pod reaches a terminal success phase or
// timeout elapses. Unlike AwaitReady it does not accept a running pod with all
// containers ready; only completion counts. A Failed phase aborts the wait.
func (p *Poller) AwaitPodCompleted(
	ctx context.Context,
	query ResourceQuery,
	timeout time.Duration,
) (Outcome, error) {
	if query.Kind != KindPod {
		return OutcomeFailed, fmt.Errorf("%w: %s", ErrUnsupportedKind, query.Kind)
	}

	last, err := p.poll(ctx, timeout, func(tickCtx context.Context) (bool, string, error) {
		status, err := p.Inspector.PodStatus(tickCtx, query)
		if err != nil {
			return false, "", fmt.Errorf("inspect %s: %w", query, err)
		}

		if !status.Found {
			return false, fmt.Sprintf("waiting for %s: not found yet", query), nil
		}

		if isTerminalSuccess(status.Phase) {
			return true, fmt.Sprintf("%s completed", query), nil
		}

		if status.Phase == corev1.PodFailed {
			return false, "", fmt.Errorf("%w: %s", ErrPodFailed, query)
		}

		observed := fmt.Sprintf("waiting for %s: phase %s", query, status.Phase)

		return false, observed, nil
	})

	switch {
	case err == nil:
		return OutcomeReady, nil
	case isTimeout(err):
		return OutcomeTimedOut, fmt.Errorf(
			"%w: %s not completed after %s (%s)", ErrTimeout, query, timeout, last,
		)
	default:
		return OutcomeFailed, err
	}
}

// AwaitDeleted blocks until the queried resource no longer exists or timeout
// elapses. Absence is precisely the success condition.
func (p *Poller) AwaitDeleted(
	ctx context.Context,
	query ResourceQuery,
	timeout time.Duration,
) (Outcome, error) {
	last, err := p.poll(ctx, timeout, func(tickCtx context.Context) (bool, string, error) {
		exists, err := p.Inspector.Exists(tickCtx, query)
		if err != nil {
			return false, "", fmt.Errorf("inspect %s: %w", query, err)
		}

		if exists {
			return false, fmt.Sprintf("waiting for %s to be deleted", query), nil
		}

		return true, "", nil
	})

	switch {
	case err == nil:
		return OutcomeDeleted, nil
	case isTimeout(err):
		return OutcomeTimedOut, fmt.Errorf(
			"%w: %s still present after %s (%s)", ErrTimeout, query, timeout, last,
		)
	default:
		return OutcomeFailed, err
	}
}

// AwaitNamespaceReady snapshots every workload resource currently in the
// namespace and awaits readiness for each in turn. The snapshot is taken once;
// resources created mid-wait are not picked up. A single failure aborts the
// whole namespace-level wait without touching resources later in the snapshot.
func (p *Poller) AwaitNamespaceReady(
	ctx context.Context,
	namespace string,
	timeout time.Duration,
) (Outcome, error) {
	snapshot, err := p.Inspector.Workloads(ctx, namespace)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("snapshot workloads in %s: %w", namespace, err)
	}

	for _, query := range snapshot {
		outcome, err := p.AwaitReady(ctx, query, timeout)
		if err != nil {
			return outcome, fmt.Errorf("namespace %s: %w", namespace, err)
		}
	}

	return OutcomeReady, nil
}

func (p *Poller) awaitWorkloadReady(
	ctx context.Context,
	query ResourceQuery,
	timeout time.Duration,
) (Outcome, error) {
	// Desired count is captured at the first tick where the workload is
	// observed and stays fixed for the rest of the session.
	desired := int32(-1)

	last, err := p.poll(ctx, timeout, func(tickCtx context.Context) (bool, string, error) {
		status, err := p.Inspector.WorkloadStatus(tickCtx, query)
		if err != nil {
			return false, "", fmt.Errorf("inspect %s: %w", query, err)
		}

		if !status.Found {
			return false, fmt.Sprintf("waiting for %s: not found yet", query), nil
		}

		if desired < 0 {
			desired = status.DesiredReplicas
		}

		observed := fmt.Sprintf(
			"waiting for %s: %d/%d ready", query, status.ReadyReplicas, desired,
		)

		return status.ReadyReplicas == desired, observed, nil
	})

	switch {
	case err == nil:
		return OutcomeReady, nil
	case isTimeout(err):
		return OutcomeTimedOut, fmt.Errorf(
			"%w: %s not ready after %s (%s)", ErrTimeout, query, timeout, last,
		)
	default:
		return OutcomeFailed, err
	}
}

func (p *Poller) awaitPodReady(
	ctx context.Context,
	query ResourceQuery,
	timeout time.Duration,
) (Outcome, error) {
	last, err := p.poll(ctx, timeout, func(tickCtx context.Context) (bool, string, error) {
		status, err := p.Inspector.PodStatus(tickCtx, query)
		if err != nil {
			return false, "", fmt.Errorf("inspect %s: %w", query, err)
		}

		if !status.Found {
			return false, fmt.Sprintf("waiting for %s: not found yet", query), nil
		}

		// A terminal success phase short-circuits readiness regardless of the
		// ready fraction: completed job pods report 0/N ready containers.
		if isTerminalSuccess(status.Phase) {
			return true, fmt.Sprintf("%s completed", query), nil
		}

		if status.Phase == corev1.PodFailed {
			return false, "", fmt.Errorf("%w: %s", ErrPodFailed, query)
		}

		observed := fmt.Sprintf(
			"waiting for %s: %d/%d containers ready",
			query, status.ReadyContainers, status.TotalContainers,
		)
		ready := status.TotalContainers > 0 &&
			status.ReadyContainers == status.TotalContainers

		return ready, observed, nil
	})

	switch {
	case err == nil:
		return OutcomeReady, nil
	case isTimeout(err):
		return OutcomeTimedOut, fmt.Errorf(
			"%w: %s not ready after %s (%s)", ErrTimeout, query, timeout, last,
		)
	default:
		return OutcomeFailed, err
	}
}

// tickFunc observes the resource once. It returns whether the awaited
// condition holds, a human-readable observation for progress and timeout
// messages, and a fatal error if the inspection itself failed.
type tickFunc func(ctx context.Context) (bool, string, error)

// poll runs check at the configured cadence until it reports done, a tick
// fails, the context is cancelled, or the tick budget is exhausted. The tick
// budget is timeout divided by the interval; a satisfied condition returns
// immediately at its tick, not at the deadline. It returns the last
// observation alongside ErrTimeout when the budget runs out.
func (p *Poller) poll(
	ctx context.Context,
	timeout time.Duration,
	check tickFunc,
) (string, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticks := int(timeout / interval)
	if ticks < 1 {
		ticks = 1
	}

	last := ""

	for tick := range ticks {
		done, observed, err := check(ctx)
		if err != nil {
			return last, err
		}

		if observed != "" && observed != last {
			p.progress(observed)
		}

		if observed != "" {
			last = observed
		}

		if done {
			return last, nil
		}

		if tick == ticks-1 {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}

			return last, fmt.Errorf("wait cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return last, ErrTimeout
}

func (p *Poller) progress(observed string) {
	if p.Writer == nil {
		return
	}

	notify.Activityf(p.Writer, "%s", observed)
}

func isTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func isTerminalSuccess(phase corev1.PodPhase) bool {
	// kubectl renders the Succeeded phase as "Completed"; inspectors that
	// surface display phases are accepted too.
	return phase == corev1.PodSucceeded || phase == corev1.PodPhase("Completed")
}
