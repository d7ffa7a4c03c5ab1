package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cap-tools/capdeploy/pkg/ui/notify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName = "capdeploy"
	envPrefix  = "CAPDEPLOY"
)

// Manager loads the configuration with the usual precedence: defaults,
// then the capdeploy.yaml config file, then CAPDEPLOY_* environment
// variables, then flags.
type Manager struct {
	Viper  *viper.Viper
	Writer io.Writer

	config *Config
}

// NewManager creates a configuration manager writing notifications to writer.
func NewManager(writer io.Writer) *Manager {
	viperInstance := viper.New()
	viperInstance.SetConfigName(configName)
	viperInstance.SetConfigType("yaml")
	viperInstance.AddConfigPath(".")
	viperInstance.SetEnvPrefix(envPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viperInstance.AutomaticEnv()

	setDefaults(viperInstance)

	return &Manager{
		Viper:  viperInstance,
		Writer: writer,
	}
}

func setDefaults(viperInstance *viper.Viper) {
	// Keys without a meaningful default still need to be registered, or
	// Unmarshal will not see their environment variables.
	viperInstance.SetDefault("kubeconfig", "")
	viperInstance.SetDefault("context", "")
	viperInstance.SetDefault("internal-ip", "")
	viperInstance.SetDefault("external-ip", "")
	viperInstance.SetDefault("uaa.version", "")
	viperInstance.SetDefault("scf.version", "")
	viperInstance.SetDefault("console.version", "")

	viperInstance.SetDefault("repository-name", DefaultRepositoryName)
	viperInstance.SetDefault("repository-url", DefaultRepositoryURL)

	viperInstance.SetDefault("uaa.chart", DefaultUAAChart)
	viperInstance.SetDefault("uaa.release", "uaa")
	viperInstance.SetDefault("uaa.namespace", DefaultUAANamespace)

	viperInstance.SetDefault("scf.chart", DefaultSCFChart)
	viperInstance.SetDefault("scf.release", "scf")
	viperInstance.SetDefault("scf.namespace", DefaultSCFNamespace)

	viperInstance.SetDefault("console.chart", DefaultConsoleChart)
	viperInstance.SetDefault("console.release", "console")
	viperInstance.SetDefault("console.namespace", DefaultConsoleNamespace)

	viperInstance.SetDefault("uaa-port", DefaultUAAPort)
	viperInstance.SetDefault("storage-class", DefaultStorageClass)
	viperInstance.SetDefault("admin-password", DefaultAdminPassword)
	viperInstance.SetDefault("uaa-admin-client-secret", DefaultAdminPassword)
	viperInstance.SetDefault("smoke-test-image", DefaultSmokeTestImage)

	viperInstance.SetDefault("helm-timeout", DefaultHelmTimeout)
	viperInstance.SetDefault("ready-timeout", DefaultReadyTimeout)
	viperInstance.SetDefault("delete-timeout", DefaultDeleteTimeout)
}

// RegisterFlags adds the configuration flags to the flag set. Commands call
// this at construction time; the manager binds the parsed values later.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("kubeconfig", "", "path to the kubeconfig file")
	flags.String("context", "", "kubeconfig context to use")
	flags.String("internal-ip", "", "cluster-internal node IP (required)")
	flags.String("external-ip", "", "floating IP exposed to clients")
	flags.String("storage-class", DefaultStorageClass, "storage class for persistent volumes")
	flags.String("admin-password", DefaultAdminPassword, "cluster admin password")
	flags.String("uaa.version", "", "UAA chart version")
	flags.String("scf.version", "", "SCF chart version")
	flags.String("console.version", "", "console chart version")
}

// BindFlags binds the flag set into Viper so set flags win over file and
// environment values.
func (m *Manager) BindFlags(flags *pflag.FlagSet) error {
	err := m.Viper.BindPFlags(flags)
	if err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	return nil
}

// Load reads the config file if present, applies environment and flag
// overrides and validates the result. Loading twice returns the cached
// configuration.
func (m *Manager) Load() (*Config, error) {
	if m.config != nil {
		return m.config, nil
	}

	err := m.readConfigFile()
	if err != nil {
		return nil, err
	}

	config := &Config{}

	err = m.Viper.Unmarshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	m.config = config

	return config, nil
}

func (m *Manager) readConfigFile() error {
	err := m.Viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}

		notify.Activityf(m.Writer, "no %s.yaml found, using defaults", configName)

		return nil
	}

	notify.Activityf(m.Writer, "'%s' found", m.Viper.ConfigFileUsed())

	return nil
}
