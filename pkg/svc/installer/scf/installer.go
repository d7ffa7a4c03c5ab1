// Package scf installs the SCF (Cloud Foundry) chart.
package scf

import (
	"context"
	"fmt"

	"github.com/cap-tools/capdeploy/pkg/client/helm"
	"github.com/cap-tools/capdeploy/pkg/svc/installer/helmutil"
	"sigs.k8s.io/yaml"
)

// CertSource resolves the UAA internal CA certificate. SCF needs the cert to
// trust UAA's TLS endpoint, and the cert only exists once the UAA release has
// been installed, so resolution is deferred until Install runs.
type CertSource func(ctx context.Context) (string, error)

// Config holds the deployment parameters rendered into the SCF chart values.
type Config struct {
	// Domain is the platform base domain.
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
	UAACACert            string `json:"UAA_CA_CERT"`
}

// Installer installs the SCF chart.
type Installer struct {
	*helmutil.Base

	cfg        Config
	spec       *helm.ChartSpec
	certSource CertSource
}

// NewInstaller creates a new SCF chart installer. The certSource is invoked
// during Install to fetch the UAA internal CA cert.
func NewInstaller(
	client helm.Interface,
	repo *helm.RepositoryEntry,
	spec *helm.ChartSpec,
	cfg Config,
	certSource CertSource,
) *Installer {
	return &Installer{
		Base:       helmutil.NewBase("scf", client, repo, spec),
		cfg:        cfg,
		spec:       spec,
		certSource: certSource,
	}
}

// Install resolves the UAA CA cert, renders the chart values and installs the
// chart.
func (i *Installer) Install(ctx context.Context) error {
	cert, err := i.certSource(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve uaa CA cert: %w", err)
	}

	valuesYaml, err := renderValues(i.cfg, cert)
	if err != nil {
		return err
	}

	i.spec.ValuesYaml = valuesYaml

	return i.Base.Install(ctx)
}

func renderValues(cfg Config, caCert string) (string, error) {
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
			UAACACert:            caCert,
		},
	}

	out, err := yaml.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to render scf chart values: %w", err)
	}

	return string(out), nil
}
