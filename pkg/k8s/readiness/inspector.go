package readiness

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
)

// Kind identifies the type of resource a wait session targets.
type Kind string

// Supported resource kinds.
const (
	KindDeployment  Kind = "deployment"
	KindStatefulSet Kind = "statefulset"
	KindDaemonSet   Kind = "daemonset"
	KindPod         Kind = "pod"
	KindNamespace   Kind = "namespace"
)

// ResourceQuery identifies a single resource to await. It never mutates during
// a wait session.
type ResourceQuery struct {
	Kind      Kind
	Namespace string
	Name      string
}

// String renders the query for progress and error messages.
func (q ResourceQuery) String() string {
	if q.Namespace == "" {
		return fmt.Sprintf("%s %s", q.Kind, q.Name)
	}

	return fmt.Sprintf("%s %s/%s", q.Kind, q.Namespace, q.Name)
}

// WorkloadStatus is a single observation of a replicated workload.
// Found is false when the resource does not currently exist; the remaining
// fields are then meaningless.
type WorkloadStatus struct {
	ReadyReplicas   int32
	DesiredReplicas int32
	Found           bool
}

// PodStatus is a single observation of a pod.
type PodStatus struct {
	ReadyContainers int32
	TotalContainers int32
	Phase           corev1.PodPhase
	Found           bool
}

// Inspector answers point-in-time status queries for the poller. Reads must be
// idempotent and side-effect free; the poller never mutates what it observes.
type Inspector interface {
	// WorkloadStatus reports replica counts for a deployment, statefulset,
	// or daemonset query.
	WorkloadStatus(ctx context.Context, query ResourceQuery) (WorkloadStatus, error)

	// PodStatus reports the container ready fraction and phase for a pod query.
	PodStatus(ctx context.Context, query ResourceQuery) (PodStatus, error)

	// Exists reports whether the queried resource currently exists.
	Exists(ctx context.Context, query ResourceQuery) (bool, error)

	// Workloads returns a one-shot snapshot of every workload resource in the
	// namespace. The snapshot is not re-evaluated as resources appear mid-wait.
	Workloads(ctx context.Context, namespace string) ([]ResourceQuery, error)
}
