// Package readiness provides Kubernetes resource readiness polling utilities.
//
// The poller blocks the caller until a resource reaches its desired state,
// disappears, or a deadline expires. Status access goes through the Inspector
// interface so that the polling algorithm stays independent of how status is
// fetched; ClientInspector implements it with structured client-go queries.
//
// Key features:
//   - Workload readiness polling (AwaitReady for deployments, statefulsets, daemonsets)
//   - Pod readiness polling with terminal-phase short-circuit (AwaitReady)
//   - Pod completion polling (AwaitPodCompleted)
//   - Deletion polling (AwaitDeleted)
//   - Namespace-wide sequential readiness (AwaitNamespaceReady)
package readiness
