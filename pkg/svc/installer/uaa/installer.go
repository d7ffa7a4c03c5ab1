// Package uaa installs the UAA authentication server chart.
package uaa

import (
	"context"
	"fmt"

	"github.com/cap-tools/capdeploy/pkg/client/helm"
	"github.com/cap-tools/capdeploy/pkg/k8s"
	"github.com/cap-tools/capdeploy/pkg/svc/installer/helmutil"
	"k8s.io/client-go/kubernetes"
	"sigs.k8s.io/yaml"
)

const secretNamePrefix = "secrets-"

// Config holds the deployment parameters rendered into the UAA chart values.
type Config struct {
	// Domain is the platform base domain, e.g. "10.0.0.5.nip.io".
	Domain string

	// UAAPort is the public UAA port.
	UAAPort int

	// AdminPassword is the cluster admin password.
	AdminPassword string

	// UAAAdminClientSecret is the secret for the UAA admin OAuth client.
	UAAAdminClientSecret string

	// StorageClass is the persistent storage class for chart volumes.
	StorageClass string

	// ExternalIPs lists the node IPs exposed for ingress.
	ExternalIPs []string
}

// chartValues mirrors the values document shared by the platform charts.
type chartValues struct {
	Env     envValues     `json:"env"`
	Kube    kubeValues    `json:"kube"`
	Secrets secretsValues `json:"secrets"`
}

type envValues struct {
	Domain  string `json:"DOMAIN"`
	UAAHost string `json:"UAA_HOST"`
	UAAPort int    `json:"UAA_PORT"`
}

type kubeValues struct {
	ExternalIPs  []string          `json:"external_ips"`
	StorageClass kubeStorageValues `json:"storage_class"`
}

type kubeStorageValues struct {
	Persistent string `json:"persistent"`
	Shared     string `json:"shared"`
}

type secretsValues struct {
	ClusterAdminPassword string `json:"CLUSTER_ADMIN_PASSWORD"`
	UAAAdminClientSecret string `json:"UAA_ADMIN_CLIENT_SECRET"`
}

// Installer installs the UAA chart.
type Installer struct {
	*helmutil.Base
}

// NewInstaller creates a new UAA chart installer. The chart spec's values are
// rendered from cfg; spec fields for release name, chart, version and
// namespace come from the caller.
func NewInstaller(
	client helm.Interface,
	repo *helm.RepositoryEntry,
	spec *helm.ChartSpec,
	cfg Config,
) (*Installer, error) {
	valuesYaml, err := renderValues(cfg)
	if err != nil {
		return nil, err
	}

	spec.ValuesYaml = valuesYaml

	return &Installer{
		Base: helmutil.NewBase("uaa", client, repo, spec),
	}, nil
}

// renderValues marshals the shared values document for the UAA chart.
func renderValues(cfg Config) (string, error) {
	values := chartValues{
		Env: envValues{
			Domain:  cfg.Domain,
			UAAHost: "uaa." + cfg.Domain,
			UAAPort: cfg.UAAPort,
		},
		Kube: kubeValues{
			ExternalIPs: cfg.ExternalIPs,
			StorageClass: kubeStorageValues{
				Persistent: cfg.StorageClass,
				Shared:     cfg.StorageClass,
			},
		},
		Secrets: secretsValues{
			ClusterAdminPassword: cfg.AdminPassword,
			UAAAdminClientSecret: cfg.UAAAdminClientSecret,
		},
	}

	out, err := yaml.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to render uaa chart values: %w", err)
	}

	return string(out), nil
}

// CACert reads the internal CA certificate generated by the UAA release. The
// secret name carries the chart version, so the lookup matches on prefix and
// takes the first secret found.
func CACert(ctx context.Context, clientset kubernetes.Interface, namespace string) (string, error) {
	name, err := k8s.FirstSecretByPrefix(ctx, clientset, namespace, secretNamePrefix)
	if err != nil {
		return "", fmt.Errorf("failed to locate uaa secrets in %s: %w", namespace, err)
	}

	cert, err := k8s.SecretValue(ctx, clientset, namespace, name, "internal-ca-cert")
	if err != nil {
		return "", fmt.Errorf("failed to read uaa internal CA cert: %w", err)
	}

	return cert, nil
}
