// Package stratos installs the Stratos console chart.
package stratos

import (
	"fmt"

	"github.com/cap-tools/capdeploy/pkg/client/helm"
	"github.com/cap-tools/capdeploy/pkg/svc/installer/helmutil"
	"sigs.k8s.io/yaml"
)

// Config holds the deployment parameters rendered into the console chart
// values.
type Config struct {
	// Domain is the platform base domain.
	Domain string

	// UAAPort is the public UAA port.
	UAAPort int

	// AdminPassword is the console admin password.
	AdminPassword string

	// StorageClass is the persistent storage class for the console database.
	StorageClass string
}

type chartValues struct {
	Console consoleValues     `json:"console"`
	Env     envValues         `json:"env"`
	Kube    kubeStorageValues `json:"kube"`
}

type consoleValues struct {
	Service            serviceValues `json:"service"`
	LocalAdminPassword string        `json:"localAdminPassword,omitempty"`
}

type serviceValues struct {
	Type string `json:"type"`
}

type envValues struct {
	Domain  string `json:"DOMAIN"`
	UAAHost string `json:"UAA_HOST"`
	UAAPort int    `json:"UAA_PORT"`
}

type kubeStorageValues struct {
	StorageClass storageClassValues `json:"storage_class"`
}

type storageClassValues struct {
	Persistent string `json:"persistent"`
}

// Installer installs the Stratos console chart.
type Installer struct {
	*helmutil.Base
}

// NewInstaller creates a new console chart installer.
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
	if spec.SetValues == nil {
		spec.SetValues = map[string]string{}
	}

	spec.SetValues["console.techPreview"] = "true"

	return &Installer{
		Base: helmutil.NewBase("console", client, repo, spec),
	}, nil
}

func renderValues(cfg Config) (string, error) {
	values := chartValues{
		Console: consoleValues{
			Service:            serviceValues{Type: "LoadBalancer"},
			LocalAdminPassword: cfg.AdminPassword,
		},
		Env: envValues{
			Domain:  cfg.Domain,
			UAAHost: "uaa." + cfg.Domain,
			UAAPort: cfg.UAAPort,
		},
		Kube: kubeStorageValues{
			StorageClass: storageClassValues{Persistent: cfg.StorageClass},
		},
	}

	out, err := yaml.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to render console chart values: %w", err)
	}

	return string(out), nil
}
