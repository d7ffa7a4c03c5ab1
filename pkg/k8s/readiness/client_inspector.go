package readiness

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// ClientInspector answers status queries with structured client-go reads.
// Replica counts come from typed status fields rather than positional parsing
// of tabular CLI output, so the poller is insulated from output format drift
// between tool versions.
type ClientInspector struct {
	Client kubernetes.Interface
}

// NewClientInspector creates an inspector backed by the given clientset.
func NewClientInspector(client kubernetes.Interface) *ClientInspector {
	return &ClientInspector{Client: client}
}

var _ Inspector = (*ClientInspector)(nil)

// WorkloadStatus reports replica counts for a workload query. A missing
// resource yields Found=false and no error.
func (i *ClientInspector) WorkloadStatus(
	ctx context.Context,
	query ResourceQuery,
) (WorkloadStatus, error) {
	switch query.Kind {
	case KindDeployment:
		deployment, err := i.Client.AppsV1().
			Deployments(query.Namespace).
			Get(ctx, query.Name, metav1.GetOptions{})
		if err != nil {
			return missingWorkload(err, query)
		}

		desired := int32(1)
		if deployment.Spec.Replicas != nil {
			desired = *deployment.Spec.Replicas
		}

		return WorkloadStatus{
			ReadyReplicas:   deployment.Status.ReadyReplicas,
			DesiredReplicas: desired,
			Found:           true,
		}, nil
	case KindStatefulSet:
		statefulSet, err := i.Client.AppsV1().
			StatefulSets(query.Namespace).
			Get(ctx, query.Name, metav1.GetOptions{})
		if err != nil {
			return missingWorkload(err, query)
		}

		desired := int32(1)
		if statefulSet.Spec.Replicas != nil {
			desired = *statefulSet.Spec.Replicas
		}

		return WorkloadStatus{
			ReadyReplicas:   statefulSet.Status.ReadyReplicas,
			DesiredReplicas: desired,
			Found:           true,
		}, nil
	case KindDaemonSet:
		daemonSet, err := i.Client.AppsV1().
			DaemonSets(query.Namespace).
			Get(ctx, query.Name, metav1.GetOptions{})
		if err != nil {
			return missingWorkload(err, query)
		}

		return WorkloadStatus{
			ReadyReplicas:   daemonSet.Status.NumberReady,
			DesiredReplicas: daemonSet.Status.DesiredNumberScheduled,
			Found:           true,
		}, nil
	case KindPod, KindNamespace:
		return WorkloadStatus{}, fmt.Errorf("%w: %s is not a workload", ErrUnsupportedKind, query.Kind)
	default:
		return WorkloadStatus{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, query.Kind)
	}
}

// PodStatus reports the container ready fraction and phase for a pod query.
func (i *ClientInspector) PodStatus(
	ctx context.Context,
	query ResourceQuery,
) (PodStatus, error) {
	pod, err := i.Client.CoreV1().Pods(query.Namespace).Get(ctx, query.Name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return PodStatus{}, nil
		}

		return PodStatus{}, fmt.Errorf("get %s: %w", query, err)
	}

	ready := int32(0)

	for idx := range pod.Status.ContainerStatuses {
		if pod.Status.ContainerStatuses[idx].Ready {
			ready++
		}
	}

	return PodStatus{
		ReadyContainers: ready,
		TotalContainers: int32(len(pod.Spec.Containers)),
		Phase:           pod.Status.Phase,
		Found:           true,
	}, nil
}

// Exists reports whether the queried resource currently exists.
func (i *ClientInspector) Exists(ctx context.Context, query ResourceQuery) (bool, error) {
	var err error

	switch query.Kind {
	case KindDeployment:
		_, err = i.Client.AppsV1().
			Deployments(query.Namespace).
			Get(ctx, query.Name, metav1.GetOptions{})
	case KindStatefulSet:
		_, err = i.Client.AppsV1().
			StatefulSets(query.Namespace).
			Get(ctx, query.Name, metav1.GetOptions{})
	case KindDaemonSet:
		_, err = i.Client.AppsV1().
			DaemonSets(query.Namespace).
			Get(ctx, query.Name, metav1.GetOptions{})
	case KindPod:
		_, err = i.Client.CoreV1().
			Pods(query.Namespace).
			Get(ctx, query.Name, metav1.GetOptions{})
	case KindNamespace:
		_, err = i.Client.CoreV1().
			Namespaces().
			Get(ctx, query.Name, metav1.GetOptions{})
	default:
		return false, fmt.Errorf("%w: %s", ErrUnsupportedKind, query.Kind)
	}

	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, nil
		}

		return false, fmt.Errorf("get %s: %w", query, err)
	}

	return true, nil
}

// Workloads snapshots every deployment, statefulset, and daemonset currently
// in the namespace, in that order.
func (i *ClientInspector) Workloads(
	ctx context.Context,
	namespace string,
) ([]ResourceQuery, error) {
	var queries []ResourceQuery

	deployments, err := i.Client.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list deployments in %s: %w", namespace, err)
	}

	for idx := range deployments.Items {
		queries = append(queries, ResourceQuery{
			Kind:      KindDeployment,
			Namespace: namespace,
			Name:      deployments.Items[idx].Name,
		})
	}

	statefulSets, err := i.Client.AppsV1().StatefulSets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list statefulsets in %s: %w", namespace, err)
	}

	for idx := range statefulSets.Items {
		queries = append(queries, ResourceQuery{
			Kind:      KindStatefulSet,
			Namespace: namespace,
			Name:      statefulSets.Items[idx].Name,
		})
	}

	daemonSets, err := i.Client.AppsV1().DaemonSets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list daemonsets in %s: %w", namespace, err)
	}

	for idx := range daemonSets.Items {
		queries = append(queries, ResourceQuery{
			Kind:      KindDaemonSet,
			Namespace: namespace,
			Name:      daemonSets.Items[idx].Name,
		})
	}

	return queries, nil
}

func missingWorkload(err error, query ResourceQuery) (WorkloadStatus, error) {
	if apierrors.IsNotFound(err) {
		return WorkloadStatus{}, nil
	}

	return WorkloadStatus{}, fmt.Errorf("get %s: %w", query, err)
}
