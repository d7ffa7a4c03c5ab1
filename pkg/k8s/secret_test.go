package k8s_test

import (
	"context"
	"testing"

	"github.com/cap-tools/capdeploy/pkg/k8s"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func newSecret(namespace, name string, data map[string][]byte) *corev1.Secret {
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
		Data:       data,
	}
}

func TestSecretValueReturnsDecodedValue(t *testing.T) {
	t.Parallel()

	client := fake.NewClientset(newSecret("uaa", "secrets-2.14.5-1", map[string][]byte{
		"internal-ca-cert": []byte("-----BEGIN CERTIFICATE-----"),
	}))

	value, err := k8s.SecretValue(
		context.Background(), client, "uaa", "secrets-2.14.5-1", "internal-ca-cert",
	)

	require.NoError(t, err)
	assert.Equal(t, "-----BEGIN CERTIFICATE-----", value)
}

func TestSecretValueMissingKey(t *testing.T) {
	t.Parallel()

	client := fake.NewClientset(newSecret("uaa", "secrets-2.14.5-1", nil))

	_, err := k8s.SecretValue(
		context.Background(), client, "uaa", "secrets-2.14.5-1", "internal-ca-cert",
	)

	require.ErrorIs(t, err, k8s.ErrSecretKeyMissing)
}

func TestSecretValueMissingSecret(t *testing.T) {
	t.Parallel()

	client := fake.NewClientset()

	_, err := k8s.SecretValue(context.Background(), client, "uaa", "missing", "any")

	require.Error(t, err)
}

func TestFirstSecretByPrefixPicksLexicallyFirst(t *testing.T) {
	t.Parallel()

	client := fake.NewClientset(
		newSecret("uaa", "secrets-2.14.5-2", nil),
		newSecret("uaa", "secrets-2.14.5-1", nil),
		newSecret("uaa", "unrelated", nil),
	)

	name, err := k8s.FirstSecretByPrefix(context.Background(), client, "uaa", "secrets-")

	require.NoError(t, err)
	assert.Equal(t, "secrets-2.14.5-1", name)
}

func TestFirstSecretByPrefixNoMatch(t *testing.T) {
	t.Parallel()

	client := fake.NewClientset(newSecret("uaa", "unrelated", nil))

	_, err := k8s.FirstSecretByPrefix(context.Background(), client, "uaa", "secrets-")

	require.ErrorIs(t, err, k8s.ErrSecretKeyMissing)
}
