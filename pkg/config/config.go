// Package config loads the deployment configuration from file, environment
// and flags.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Default values applied when neither file, environment nor flags override
// them.
const (
	DefaultRepositoryName = "suse"
	DefaultRepositoryURL  = "https://kubernetes-charts.suse.com"

	DefaultUAAChart     = "suse/uaa"
	DefaultSCFChart     = "suse/cf"
	DefaultConsoleChart = "suse/console"

	DefaultUAANamespace     = "uaa"
	DefaultSCFNamespace     = "scf"
	DefaultConsoleNamespace = "stratos"

	DefaultUAAPort = 2793

	DefaultStorageClass   = "persistent"
	DefaultAdminPassword  = "changeme"
	DefaultSmokeTestImage = "registry.suse.com/cap/scf-smoke-tests"

	DefaultHelmTimeout   = 10 * time.Minute
	DefaultReadyTimeout  = 40 * time.Minute
	DefaultDeleteTimeout = 10 * time.Minute
)

// ErrInternalIPRequired is returned when no internal IP is configured; the
// platform domain and the exposed node IPs derive from it.
var ErrInternalIPRequired = errors.New("config: internal IP is required")

// Component holds the chart coordinates of a single platform component.
type Component struct {
	Chart     string `mapstructure:"chart"`
	Version   string `mapstructure:"version"`
	Release   string `mapstructure:"release"`
	Namespace string `mapstructure:"namespace"`
}

// Config is the full deployment configuration.
type Config struct {
	// Kubeconfig is the path to the kubeconfig file. Empty means the
	// client-go default (~/.kube/config).
	Kubeconfig string `mapstructure:"kubeconfig"`

	// Context selects the kubeconfig context. Empty means the current one.
	Context string `mapstructure:"context"`

	// RepositoryName and RepositoryURL locate the chart repository.
	RepositoryName string `mapstructure:"repository-name"`
	RepositoryURL  string `mapstructure:"repository-url"`

	UAA     Component `mapstructure:"uaa"`
	SCF     Component `mapstructure:"scf"`
	Console Component `mapstructure:"console"`

	// InternalIP is the cluster-internal node IP. Required; the platform
	// domain derives from it.
	InternalIP string `mapstructure:"internal-ip"`

	// ExternalIP is the floating IP exposed to clients. Falls back to
	// InternalIP when empty.
	ExternalIP string `mapstructure:"external-ip"`

	// UAAPort is the public UAA port.
	UAAPort int `mapstructure:"uaa-port"`

	StorageClass         string `mapstructure:"storage-class"`
	AdminPassword        string `mapstructure:"admin-password"`
	UAAAdminClientSecret string `mapstructure:"uaa-admin-client-secret"`

	// SmokeTestImage is the image run by the test command.
	SmokeTestImage string `mapstructure:"smoke-test-image"`

	// HelmTimeout bounds individual chart operations, ReadyTimeout bounds
	// the per-namespace readiness wait, DeleteTimeout bounds teardown waits.
	HelmTimeout   time.Duration `mapstructure:"helm-timeout"`
	ReadyTimeout  time.Duration `mapstructure:"ready-timeout"`
	DeleteTimeout time.Duration `mapstructure:"delete-timeout"`
}

// Domain returns the platform base domain, a nip.io name over the external
// IP so no DNS setup is needed.
func (c *Config) Domain() string {
	ip := c.ExternalIP
	if ip == "" {
		ip = c.InternalIP
	}

	return ip + ".nip.io"
}

// ExternalIPs returns the node IPs exposed for ingress.
func (c *Config) ExternalIPs() []string {
	if c.ExternalIP != "" && c.ExternalIP != c.InternalIP {
		return []string{c.InternalIP, c.ExternalIP}
	}

	return []string{c.InternalIP}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.InternalIP == "" {
		return fmt.Errorf("%w (set --internal-ip, CAPDEPLOY_INTERNAL_IP or internal-ip)",
			ErrInternalIPRequired)
	}

	return nil
}
