// Package verifier runs the platform smoke tests as a one-shot pod and
// reports its verdict.
package verifier

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cap-tools/capdeploy/pkg/k8s/readiness"
	"github.com/cap-tools/capdeploy/pkg/ui/notify"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// PodName is the name of the smoke-test pod.
const PodName = "smoke-tests"

// PodAwaiter blocks until a pod reaches a terminal success phase.
type PodAwaiter interface {
	AwaitPodCompleted(
		ctx context.Context,
		query readiness.ResourceQuery,
		timeout time.Duration,
	) (readiness.Outcome, error)
}

// Verifier creates the smoke-test pod, awaits its completion, streams its
// logs and removes it again.
type Verifier struct {
	clientset kubernetes.Interface
	awaiter   PodAwaiter
	namespace string
	image     string
	timeout   time.Duration
	writer    io.Writer
}

// NewVerifier creates a verifier running the given smoke-test image in the
// given namespace.
func NewVerifier(
	clientset kubernetes.Interface,
	awaiter PodAwaiter,
	namespace, image string,
	timeout time.Duration,
	writer io.Writer,
) *Verifier {
	return &Verifier{
		clientset: clientset,
		awaiter:   awaiter,
		namespace: namespace,
		image:     image,
		timeout:   timeout,
		writer:    writer,
	}
}

// Run executes the smoke tests. The pod is deleted afterwards whether or not
// the tests passed; log streaming happens before deletion so failures keep
// their output.
func (v *Verifier) Run(ctx context.Context) error {
	notify.Titlef(v.writer, "🧪", "Running smoke tests...")

	err := v.createPod(ctx)
	if err != nil {
		return err
	}

	defer v.deletePod(ctx)

	_, waitErr := v.awaiter.AwaitPodCompleted(ctx, readiness.ResourceQuery{
		Kind:      readiness.KindPod,
		Namespace: v.namespace,
		Name:      PodName,
	}, v.timeout)

	logErr := v.streamLogs(ctx)
	if logErr != nil {
		notify.Warningf(v.writer, "could not stream smoke test logs: %v", logErr)
	}

	if waitErr != nil {
		return fmt.Errorf("smoke tests: %w", waitErr)
	}

	notify.Successf(v.writer, "Smoke tests passed")

	return nil
}

func (v *Verifier) createPod(ctx context.Context) error {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      PodName,
			Namespace: v.namespace,
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers: []corev1.Container{
				{
					Name:  PodName,
					Image: v.image,
				},
			},
		},
	}

	_, err := v.clientset.CoreV1().Pods(v.namespace).Create(ctx, pod, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("create smoke test pod: %w", err)
	}

	return nil
}

func (v *Verifier) streamLogs(ctx context.Context) error {
	request := v.clientset.CoreV1().Pods(v.namespace).GetLogs(PodName, &corev1.PodLogOptions{})

	stream, err := request.Stream(ctx)
	if err != nil {
		return fmt.Errorf("open log stream: %w", err)
	}

	defer func() {
		_ = stream.Close()
	}()

	_, err = io.Copy(v.writer, stream)
	if err != nil {
		return fmt.Errorf("copy log stream: %w", err)
	}

	return nil
}

func (v *Verifier) deletePod(ctx context.Context) {
	err := v.clientset.CoreV1().Pods(v.namespace).Delete(ctx, PodName, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		notify.Warningf(v.writer, "could not delete smoke test pod: %v", err)
	}
}
