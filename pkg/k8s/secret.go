package k8s

import (
	"context"
	"fmt"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// SecretValue reads a single key from a secret and returns its decoded value.
//
// The deploy flow uses this to read the UAA internal CA certificate from the
// UAA namespace so it can be handed to dependent charts as a value, replacing
// the jsonpath scrape the shell tooling used.
func SecretValue(
	ctx context.Context,
	clientset kubernetes.Interface,
	namespace, name, key string,
) (string, error) {
	secret, err := clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("get secret %s/%s: %w", namespace, name, err)
	}

	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("%w: %s in secret %s/%s", ErrSecretKeyMissing, key, namespace, name)
	}

	return string(value), nil
}

// FirstSecretByPrefix returns the name of the lexically first secret in the
// namespace whose name starts with prefix. The platform charts generate
// versioned secret names (e.g. "secrets-2.14.5-1"), so lookups go by prefix.
func FirstSecretByPrefix(
	ctx context.Context,
	clientset kubernetes.Interface,
	namespace, prefix string,
) (string, error) {
	secrets, err := clientset.CoreV1().Secrets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("list secrets in %s: %w", namespace, err)
	}

	best := ""

	for i := range secrets.Items {
		name := secrets.Items[i].Name
		if !strings.HasPrefix(name, prefix) {
			continue
		}

		if best == "" || name < best {
			best = name
		}
	}

	if best == "" {
		return "", fmt.Errorf(
			"%w: no secret with prefix %q in %s",
			ErrSecretKeyMissing, prefix, namespace,
		)
	}

	return best, nil
}
