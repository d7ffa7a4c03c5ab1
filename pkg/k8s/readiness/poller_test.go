package readiness_test

import (
	"context"
	"testing"
	"time"

	"github.com/cap-tools/capdeploy/pkg/k8s/readiness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
)

// scriptedInspector replays canned status observations, one per tick. The last
// entry repeats once the script is exhausted. It records every query so tests
// can assert tick counts and fail-fast ordering.
type scriptedInspector struct {
	workloadScript map[string][]readiness.WorkloadStatus
	podScript      []readiness.PodStatus
	existsScript   []bool
	snapshot       []readiness.ResourceQuery

	workloadCalls map[string]int
	podCalls      int
	existsCalls   int
	queriedNames  []string
}

func newScriptedInspector() *scriptedInspector {
	return &scriptedInspector{
		workloadScript: map[string][]readiness.WorkloadStatus{},
		workloadCalls:  map[string]int{},
	}
}

func (s *scriptedInspector) WorkloadStatus(
	_ context.Context,
	query readiness.ResourceQuery,
) (readiness.WorkloadStatus, error) {
	s.queriedNames = append(s.queriedNames, query.Name)

	script := s.workloadScript[query.Name]
	call := s.workloadCalls[query.Name]
	s.workloadCalls[query.Name] = call + 1

	if len(script) == 0 {
		return readiness.WorkloadStatus{}, nil
	}

	if call >= len(script) {
		call = len(script) - 1
	}

	return script[call], nil
}

func (s *scriptedInspector) PodStatus(
	_ context.Context,
	_ readiness.ResourceQuery,
) (readiness.PodStatus, error) {
	call := s.podCalls
	s.podCalls++

	if len(s.podScript) == 0 {
		return readiness.PodStatus{}, nil
	}

	if call >= len(s.podScript) {
		call = len(s.podScript) - 1
	}

	return s.podScript[call], nil
}

func (s *scriptedInspector) Exists(
	_ context.Context,
	_ readiness.ResourceQuery,
) (bool, error) {
	call := s.existsCalls
	s.existsCalls++

	if len(s.existsScript) == 0 {
		return false, nil
	}

	if call >= len(s.existsScript) {
		call = len(s.existsScript) - 1
	}

	return s.existsScript[call], nil
}

func (s *scriptedInspector) Workloads(
	_ context.Context,
	_ string,
) ([]readiness.ResourceQuery, error) {
	return s.snapshot, nil
}

func newTestPoller(inspector readiness.Inspector) *readiness.Poller {
	return &readiness.Poller{
		Inspector: inspector,
		Interval:  time.Millisecond,
	}
}

func deploymentQuery(name string) readiness.ResourceQuery {
	return readiness.ResourceQuery{
		Kind:      readiness.KindDeployment,
		Namespace: "scf",
		Name:      name,
	}
}

func TestAwaitReadyReturnsAtFirstSatisfyingTick(t *testing.T) {
	t.Parallel()

	inspector := newScriptedInspector()
	inspector.workloadScript["api"] = []readiness.WorkloadStatus{
		{ReadyReplicas: 0, DesiredReplicas: 3, Found: true},
		{ReadyReplicas: 1, DesiredReplicas: 3, Found: true},
		{ReadyReplicas: 3, DesiredReplicas: 3, Found: true},
	}

	poller := newTestPoller(inspector)

	outcome, err := poller.AwaitReady(
		context.Background(), deploymentQuery("api"), time.Second,
	)

	require.NoError(t, err)
	assert.Equal(t, readiness.OutcomeReady, outcome)
	assert.Equal(t, 3, inspector.workloadCalls["api"], "must return at the satisfying tick")
}

func TestAwaitReadyTimesOutAfterExactTickBudget(t *testing.T) {
	t.Parallel()

	inspector := newScriptedInspector()
	inspector.workloadScript["api"] = []readiness.WorkloadStatus{
		{ReadyReplicas: 2, DesiredReplicas: 3, Found: true},
	}

	poller := newTestPoller(inspector)

	outcome, err := poller.AwaitReady(
		context.Background(), deploymentQuery("api"), 10*time.Millisecond,
	)

	require.ErrorIs(t, err, readiness.ErrTimeout)
	assert.Equal(t, readiness.OutcomeTimedOut, outcome)
	assert.Equal(t, 10, inspector.workloadCalls["api"], "one observation per tick, no more")
	assert.Contains(t, err.Error(), "2/3 ready", "timeout must report last observed counts")
}

func TestAwaitReadyCapturesDesiredCountOnce(t *testing.T) {
	t.Parallel()

	// Desired drops to 2 mid-session; the session must keep waiting for the
	// count captured at the first observation.
	inspector := newScriptedInspector()
	inspector.workloadScript["api"] = []readiness.WorkloadStatus{
		{ReadyReplicas: 0, DesiredReplicas: 3, Found: true},
		{ReadyReplicas: 2, DesiredReplicas: 2, Found: true},
		{ReadyReplicas: 3, DesiredReplicas: 2, Found: true},
	}

	poller := newTestPoller(inspector)

	outcome, err := poller.AwaitReady(
		context.Background(), deploymentQuery("api"), time.Second,
	)

	require.NoError(t, err)
	assert.Equal(t, readiness.OutcomeReady, outcome)
	assert.Equal(t, 3, inspector.workloadCalls["api"])
}

func TestAwaitReadyTreatsMissingStatusAsNotReady(t *testing.T) {
	t.Parallel()

	inspector := newScriptedInspector()
	inspector.workloadScript["api"] = []readiness.WorkloadStatus{
		{},
		{},
		{ReadyReplicas: 1, DesiredReplicas: 1, Found: true},
	}

	poller := newTestPoller(inspector)

	outcome, err := poller.AwaitReady(
		context.Background(), deploymentQuery("api"), time.Second,
	)

	require.NoError(t, err)
	assert.Equal(t, readiness.OutcomeReady, outcome)
	assert.Equal(t, 3, inspector.workloadCalls["api"])
}

func TestAwaitReadyPodReadyFraction(t *testing.T) {
	t.Parallel()

	inspector := newScriptedInspector()
	inspector.podScript = []readiness.PodStatus{
		{ReadyContainers: 0, TotalContainers: 3, Phase: corev1.PodPending, Found: true},
		{ReadyContainers: 1, TotalContainers: 3, Phase: corev1.PodRunning, Found: true},
		{ReadyContainers: 3, TotalContainers: 3, Phase: corev1.PodRunning, Found: true},
	}

	poller := newTestPoller(inspector)
	query := readiness.ResourceQuery{
		Kind:      readiness.KindPod,
		Namespace: "scf",
		Name:      "smoke-tests",
	}

	outcome, err := poller.AwaitReady(context.Background(), query, time.Second)

	require.NoError(t, err)
	assert.Equal(t, readiness.OutcomeReady, outcome)
	assert.Equal(t, 3, inspector.podCalls)
}

func TestAwaitReadyPodPhaseShortCircuit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		phase corev1.PodPhase
	}{
		{name: "succeeded", phase: corev1.PodSucceeded},
		{name: "completed display phase", phase: corev1.PodPhase("Completed")},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			inspector := newScriptedInspector()
			inspector.podScript = []readiness.PodStatus{
				{ReadyContainers: 0, TotalContainers: 3, Phase: testCase.phase, Found: true},
			}

			poller := newTestPoller(inspector)
			query := readiness.ResourceQuery{
				Kind:      readiness.KindPod,
				Namespace: "scf",
				Name:      "smoke-tests",
			}

			outcome, err := poller.AwaitReady(context.Background(), query, time.Second)

			require.NoError(t, err)
			assert.Equal(t, readiness.OutcomeReady, outcome)
			assert.Equal(t, 1, inspector.podCalls, "terminal phase must win on the first tick")
		})
	}
}

func TestAwaitReadyPodFailedPhaseAborts(t *testing.T) {
	t.Parallel()

	inspector := newScriptedInspector()
	inspector.podScript = []readiness.PodStatus{
		{ReadyContainers: 0, TotalContainers: 1, Phase: corev1.PodFailed, Found: true},
	}

	poller := newTestPoller(inspector)
	query := readiness.ResourceQuery{
		Kind:      readiness.KindPod,
		Namespace: "scf",
		Name:      "smoke-tests",
	}

	outcome, err := poller.AwaitReady(context.Background(), query, time.Second)

	require.ErrorIs(t, err, readiness.ErrPodFailed)
	assert.Equal(t, readiness.OutcomeFailed, outcome)
	assert.Equal(t, 1, inspector.podCalls)
}

func TestAwaitReadyRejectsUnsupportedKind(t *testing.T) {
	t.Parallel()

	poller := newTestPoller(newScriptedInspector())
	query := readiness.ResourceQuery{Kind: readiness.KindNamespace, Name: "scf"}

	outcome, err := poller.AwaitReady(context.Background(), query, time.Second)

	require.ErrorIs(t, err, readiness.ErrUnsupportedKind)
	assert.Equal(t, readiness.OutcomeFailed, outcome)
}

func TestAwaitReadyCancelledContext(t *testing.T) {
	t.Parallel()

	inspector := newScriptedInspector()
	inspector.workloadScript["api"] = []readiness.WorkloadStatus{
		{ReadyReplicas: 0, DesiredReplicas: 3, Found: true},
	}

	poller := newTestPoller(inspector)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := poller.AwaitReady(ctx, deploymentQuery("api"), time.Second)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, readiness.OutcomeFailed, outcome)
}

func TestAwaitDeletedSucceedsWhenResourceDisappears(t *testing.T) {
	t.Parallel()

	inspector := newScriptedInspector()
	inspector.existsScript = []bool{true, true, true, true, true, false}

	poller := newTestPoller(inspector)
	query := readiness.ResourceQuery{Kind: readiness.KindNamespace, Name: "uaa"}

	outcome, err := poller.AwaitDeleted(context.Background(), query, time.Second)

	require.NoError(t, err)
	assert.Equal(t, readiness.OutcomeDeleted, outcome)
	assert.Equal(t, 6, inspector.existsCalls, "deleted on the first absent tick")
}

func TestAwaitDeletedTimesOut(t *testing.T) {
	t.Parallel()

	inspector := newScriptedInspector()
	inspector.existsScript = []bool{true}

	poller := newTestPoller(inspector)
	query := readiness.ResourceQuery{Kind: readiness.KindNamespace, Name: "uaa"}

	outcome, err := poller.AwaitDeleted(context.Background(), query, 5*time.Millisecond)

	require.ErrorIs(t, err, readiness.ErrTimeout)
	assert.Equal(t, readiness.OutcomeTimedOut, outcome)
	assert.Equal(t, 5, inspector.existsCalls)
}

func TestAwaitNamespaceReadySequentialFailFast(t *testing.T) {
	t.Parallel()

	inspector := newScriptedInspector()
	inspector.snapshot = []readiness.ResourceQuery{
		deploymentQuery("a"),
		deploymentQuery("b"),
		deploymentQuery("c"),
	}
	inspector.workloadScript["a"] = []readiness.WorkloadStatus{
		{ReadyReplicas: 1, DesiredReplicas: 1, Found: true},
	}
	inspector.workloadScript["b"] = []readiness.WorkloadStatus{
		{ReadyReplicas: 0, DesiredReplicas: 1, Found: true},
	}

	poller := newTestPoller(inspector)

	outcome, err := poller.AwaitNamespaceReady(
		context.Background(), "scf", 5*time.Millisecond,
	)

	require.ErrorIs(t, err, readiness.ErrTimeout)
	assert.Equal(t, readiness.OutcomeTimedOut, outcome)
	assert.NotContains(t, inspector.queriedNames, "c",
		"resources after the failure must never be queried")
}

func TestAwaitNamespaceReadyEmptySnapshot(t *testing.T) {
	t.Parallel()

	poller := newTestPoller(newScriptedInspector())

	outcome, err := poller.AwaitNamespaceReady(
		context.Background(), "scf", time.Second,
	)

	require.NoError(t, err)
	assert.Equal(t, readiness.OutcomeReady, outcome)
}

func TestAwaitNamespaceReadyAllReady(t *testing.T) {
	t.Parallel()

	inspector := newScriptedInspector()
	inspector.snapshot = []readiness.ResourceQuery{
		deploymentQuery("a"),
		deploymentQuery("b"),
	}
	inspector.workloadScript["a"] = []readiness.WorkloadStatus{
		{ReadyReplicas: 2, DesiredReplicas: 2, Found: true},
	}
	inspector.workloadScript["b"] = []readiness.WorkloadStatus{
		{ReadyReplicas: 0, DesiredReplicas: 1, Found: true},
		{ReadyReplicas: 1, DesiredReplicas: 1, Found: true},
	}

	poller := newTestPoller(inspector)

	outcome, err := poller.AwaitNamespaceReady(
		context.Background(), "scf", time.Second,
	)

	require.NoError(t, err)
	assert.Equal(t, readiness.OutcomeReady, outcome)
	assert.Equal(t, []string{"a", "b", "b"}, inspector.queriedNames)
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ready", readiness.OutcomeReady.String())
	assert.Equal(t, "timed out", readiness.OutcomeTimedOut.String())
	assert.Equal(t, "deleted", readiness.OutcomeDeleted.String())
	assert.Equal(t, "failed", readiness.OutcomeFailed.String())
}

func TestAwaitPodCompletedIgnoresRunningReadiness(t *testing.T) {
	t.Parallel()

	inspector := newScriptedInspector()
	inspector.podScript = []readiness.PodStatus{
		{ReadyContainers: 1, TotalContainers: 1, Phase: corev1.PodRunning, Found: true},
		{ReadyContainers: 1, TotalContainers: 1, Phase: corev1.PodRunning, Found: true},
		{ReadyContainers: 0, TotalContainers: 1, Phase: corev1.PodSucceeded, Found: true},
	}

	poller := newTestPoller(inspector)

	outcome, err := poller.AwaitPodCompleted(context.Background(), readiness.ResourceQuery{
		Kind:      readiness.KindPod,
		Namespace: "scf",
		Name:      "smoke-tests",
	}, 10*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, readiness.OutcomeReady, outcome)
	assert.Equal(t, 3, inspector.podCalls, "a running pod with ready containers must not count")
}

func TestAwaitPodCompletedFailedPhaseAborts(t *testing.T) {
	t.Parallel()

	inspector := newScriptedInspector()
	inspector.podScript = []readiness.PodStatus{
		{Phase: corev1.PodRunning, Found: true},
		{Phase: corev1.PodFailed, Found: true},
	}

	poller := newTestPoller(inspector)

	outcome, err := poller.AwaitPodCompleted(context.Background(), readiness.ResourceQuery{
		Kind:      readiness.KindPod,
		Namespace: "scf",
		Name:      "smoke-tests",
	}, 10*time.Millisecond)

	require.ErrorIs(t, err, readiness.ErrPodFailed)
	assert.Equal(t, readiness.OutcomeFailed, outcome)
}

func TestAwaitPodCompletedTimesOut(t *testing.T) {
	t.Parallel()

	inspector := newScriptedInspector()
	inspector.podScript = []readiness.PodStatus{
		{Phase: corev1.PodRunning, Found: true},
	}

	poller := newTestPoller(inspector)

	outcome, err := poller.AwaitPodCompleted(context.Background(), readiness.ResourceQuery{
		Kind:      readiness.KindPod,
		Namespace: "scf",
		Name:      "smoke-tests",
	}, 5*time.Millisecond)

	require.ErrorIs(t, err, readiness.ErrTimeout)
	assert.Equal(t, readiness.OutcomeTimedOut, outcome)
	assert.Equal(t, 5, inspector.podCalls)
	assert.Contains(t, err.Error(), "phase Running")
}

func TestAwaitPodCompletedRejectsNonPodKind(t *testing.T) {
	t.Parallel()

	poller := newTestPoller(newScriptedInspector())

	_, err := poller.AwaitPodCompleted(context.Background(), readiness.ResourceQuery{
		Kind: readiness.KindDeployment,
		Name: "api",
	}, time.Millisecond)

	require.ErrorIs(t, err, readiness.ErrUnsupportedKind)
}
