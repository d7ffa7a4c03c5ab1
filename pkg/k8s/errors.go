package k8s

import "errors"

// ErrKubeconfigPathEmpty is returned when the kubeconfig path is empty.
var ErrKubeconfigPathEmpty = errors.New("kubeconfig path is empty")

// ErrSecretKeyMissing is returned when a secret does not contain the requested key.
var ErrSecretKeyMissing = errors.New("secret key not found")
