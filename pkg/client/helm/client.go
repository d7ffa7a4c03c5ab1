// Package helm wraps the Helm v4 action API with the small surface the
// platform installers need: repository registration, chart install/upgrade,
// release listing, and uninstall.
package helm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	helmv4action "helm.sh/helm/v4/pkg/action"
	helmv4loader "helm.sh/helm/v4/pkg/chart/loader"
	chartv2 "helm.sh/helm/v4/pkg/chart/v2"
	helmv4cli "helm.sh/helm/v4/pkg/cli"
	helmv4getter "helm.sh/helm/v4/pkg/getter"
	helmv4kube "helm.sh/helm/v4/pkg/kube"
	v1 "helm.sh/helm/v4/pkg/release/v1"
	repov1 "helm.sh/helm/v4/pkg/repo/v1"
)

const (
	// DefaultTimeout defines the fallback Helm chart installation timeout.
	DefaultTimeout = 5 * time.Minute

	repoDirMode  = 0o750
	repoFileMode = 0o640
)

var (
	errReleaseNameRequired     = errors.New("helm: release name is required")
	errRepositoryEntryRequired = errors.New("helm: repository entry is required")
	errRepositoryNameRequired  = errors.New("helm: repository name is required")
	errRepositoryConfigUnset   = errors.New("helm: repository config path is not set")
	errRepositoryCacheUnset    = errors.New("helm: repository cache path is not set")
	errChartSpecRequired       = errors.New("helm: chart spec is required")
)

// ChartSpec describes a single chart operation.
type ChartSpec struct {
	ReleaseName string
	ChartName   string
	Namespace   string
	Version     string
	RepoURL     string

	CreateNamespace bool
	Wait            bool
	WaitForJobs     bool
	Timeout         time.Duration

	ValuesYaml string
	SetValues  map[string]string
}

// RepositoryEntry describes a Helm repository that should be registered
// locally before performing chart operations.
type RepositoryEntry struct {
	Name string
	URL  string
}

// ReleaseInfo captures metadata about a Helm release after an operation.
type ReleaseInfo struct {
	Name       string
	Namespace  string
	Revision   int
	Status     string
	Chart      string
	AppVersion string
	Updated    time.Time
}

// Interface defines the subset of Helm functionality the installers require.
type Interface interface {
	AddRepository(ctx context.Context, entry *RepositoryEntry) error
	InstallOrUpgradeChart(ctx context.Context, spec *ChartSpec) (*ReleaseInfo, error)
	UninstallRelease(ctx context.Context, releaseName, namespace string) error
	ListReleases(ctx context.Context, namespace string) ([]ReleaseInfo, error)
}

// Client is the default Helm v4 implementation.
type Client struct {
	actionConfig *helmv4action.Configuration
	settings     *helmv4cli.EnvSettings
}

var _ Interface = (*Client)(nil)

// NewClient creates a Helm client using the provided kubeconfig and context.
func NewClient(kubeConfig, kubeContext string) (*Client, error) {
	settings := helmv4cli.New()
	if kubeConfig != "" {
		settings.KubeConfig = kubeConfig
	}

	if kubeContext != "" {
		settings.KubeContext = kubeContext
	}

	actionConfig := new(helmv4action.Configuration)

	initErr := actionConfig.Init(
		settings.RESTClientGetter(),
		settings.Namespace(),
		os.Getenv("HELM_DRIVER"),
	)
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize helm action config: %w", initErr)
	}

	return &Client{
		actionConfig: actionConfig,
		settings:     settings,
	}, nil
}

// AddRepository registers a Helm repository and downloads its index.
func (c *Client) AddRepository(ctx context.Context, entry *RepositoryEntry) error {
	if entry == nil {
		return errRepositoryEntryRequired
	}

	if entry.Name == "" {
		return errRepositoryNameRequired
	}

	ctxErr := ctx.Err()
	if ctxErr != nil {
		return fmt.Errorf("add repository context cancelled: %w", ctxErr)
	}

	repoFile, err := ensureRepositoryConfig(c.settings)
	if err != nil {
		return err
	}

	repositoryFile, err := repov1.LoadFile(repoFile)
	if err != nil {
		repositoryFile = repov1.NewFile()
	}

	repoEntry := &repov1.Entry{Name: entry.Name, URL: entry.URL}

	repoCache, err := ensureRepositoryCache(c.settings)
	if err != nil {
		return err
	}

	chartRepository, err := repov1.NewChartRepository(repoEntry, helmv4getter.All(c.settings))
	if err != nil {
		return fmt.Errorf("create chart repository: %w", err)
	}

	chartRepository.CachePath = repoCache

	_, err = chartRepository.DownloadIndexFile()
	if err != nil {
		return fmt.Errorf("failed to download repository index for %s: %w", entry.Name, err)
	}

	repositoryFile.Update(repoEntry)

	writeErr := repositoryFile.WriteFile(repoFile, repoFileMode)
	if writeErr != nil {
		return fmt.Errorf("write repository file: %w", writeErr)
	}

	return nil
}

// InstallOrUpgradeChart upgrades a chart when its release exists and installs
// it otherwise.
func (c *Client) InstallOrUpgradeChart(
	ctx context.Context,
	spec *ChartSpec,
) (*ReleaseInfo, error) {
	if spec == nil {
		return nil, errChartSpecRequired
	}

	cleanup, err := c.switchNamespace(spec.Namespace)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	histClient := helmv4action.NewHistory(c.actionConfig)
	histClient.Max = 1

	var rel *v1.Release

	releases, histErr := histClient.Run(spec.ReleaseName)
	if histErr == nil && len(releases) > 0 {
		rel, err = c.upgradeRelease(ctx, spec)
	} else {
		rel, err = c.installRelease(ctx, spec)
	}

	if err != nil {
		return nil, err
	}

	return releaseToInfo(rel), nil
}

// UninstallRelease removes a Helm release by name within the provided namespace.
func (c *Client) UninstallRelease(ctx context.Context, releaseName, namespace string) error {
	if releaseName == "" {
		return errReleaseNameRequired
	}

	ctxErr := ctx.Err()
	if ctxErr != nil {
		return fmt.Errorf("uninstall release context cancelled: %w", ctxErr)
	}

	cleanup, err := c.switchNamespace(namespace)
	if err != nil {
		return err
	}
	defer cleanup()

	client := helmv4action.NewUninstall(c.actionConfig)
	client.KeepHistory = false

	_, uninstallErr := client.Run(releaseName)
	if uninstallErr != nil {
		return fmt.Errorf("uninstall release %q: %w", releaseName, uninstallErr)
	}

	return nil
}

// ListReleases returns metadata for every release in the namespace.
func (c *Client) ListReleases(ctx context.Context, namespace string) ([]ReleaseInfo, error) {
	ctxErr := ctx.Err()
	if ctxErr != nil {
		return nil, fmt.Errorf("list releases context cancelled: %w", ctxErr)
	}

	cleanup, err := c.switchNamespace(namespace)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	client := helmv4action.NewList(c.actionConfig)
	client.All = true

	releases, listErr := client.Run()
	if listErr != nil {
		return nil, fmt.Errorf("list releases in %q: %w", namespace, listErr)
	}

	infos := make([]ReleaseInfo, 0, len(releases))
	for _, rel := range releases {
		typedRel, assertErr := assertRelease(rel)
		if assertErr != nil {
			return nil, assertErr
		}

		infos = append(infos, *releaseToInfo(typedRel))
	}

	return infos, nil
}

func (c *Client) installRelease(ctx context.Context, spec *ChartSpec) (*v1.Release, error) {
	client := helmv4action.NewInstall(c.actionConfig)
	client.ReleaseName = spec.ReleaseName
	client.Namespace = spec.Namespace
	client.CreateNamespace = spec.CreateNamespace
	client.Version = spec.Version

	if spec.Wait {
		client.WaitStrategy = helmv4kube.StatusWatcherStrategy
	}

	client.WaitForJobs = spec.WaitForJobs

	client.Timeout = spec.Timeout
	if client.Timeout == 0 {
		client.Timeout = DefaultTimeout
	}

	chart, err := c.locateAndLoadChart(spec, &client.ChartPathOptions)
	if err != nil {
		return nil, err
	}

	vals, err := buildValues(spec)
	if err != nil {
		return nil, err
	}

	releaser, err := client.RunWithContext(ctx, chart, vals)
	if err != nil {
		return nil, fmt.Errorf("install release %q: %w", spec.ReleaseName, err)
	}

	return assertRelease(releaser)
}

func (c *Client) upgradeRelease(ctx context.Context, spec *ChartSpec) (*v1.Release, error) {
	client := helmv4action.NewUpgrade(c.actionConfig)
	client.Namespace = spec.Namespace
	client.Version = spec.Version

	if spec.Wait {
		client.WaitStrategy = helmv4kube.StatusWatcherStrategy
	}

	client.WaitForJobs = spec.WaitForJobs

	client.Timeout = spec.Timeout
	if client.Timeout == 0 {
		client.Timeout = DefaultTimeout
	}

	chart, err := c.locateAndLoadChart(spec, &client.ChartPathOptions)
	if err != nil {
		return nil, err
	}

	vals, err := buildValues(spec)
	if err != nil {
		return nil, err
	}

	releaser, err := client.RunWithContext(ctx, spec.ReleaseName, chart, vals)
	if err != nil {
		return nil, fmt.Errorf("upgrade release %q: %w", spec.ReleaseName, err)
	}

	return assertRelease(releaser)
}

func (c *Client) locateAndLoadChart(
	spec *ChartSpec,
	pathOptions *helmv4action.ChartPathOptions,
) (*chartv2.Chart, error) {
	chartPath := spec.ChartName

	if spec.RepoURL != "" {
		pathOptions.RepoURL = spec.RepoURL

		chartURL, err := repov1.FindChartInRepoURL(
			spec.RepoURL,
			chartBaseName(spec.ChartName),
			helmv4getter.All(c.settings),
			repov1.WithChartVersion(spec.Version),
		)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to locate chart %q in repository %s: %w",
				spec.ChartName, spec.RepoURL, err,
			)
		}

		chartPath = chartURL
	}

	chartInterface, err := helmv4loader.Load(chartPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart %q: %w", chartPath, err)
	}

	chart, ok := chartInterface.(*chartv2.Chart)
	if !ok {
		return nil, fmt.Errorf("unexpected chart type: %T", chartInterface) //nolint:err113
	}

	return chart, nil
}

// switchNamespace re-inits the action configuration for the target namespace
// and returns a cleanup that restores the previous one.
func (c *Client) switchNamespace(namespace string) (func(), error) {
	if namespace == "" || c.settings.Namespace() == namespace {
		return func() {}, nil
	}

	previousNamespace := c.settings.Namespace()
	c.settings.SetNamespace(namespace)

	reinitErr := c.actionConfig.Init(
		c.settings.RESTClientGetter(),
		namespace,
		os.Getenv("HELM_DRIVER"),
	)
	if reinitErr != nil {
		c.settings.SetNamespace(previousNamespace)
		_ = c.actionConfig.Init(
			c.settings.RESTClientGetter(),
			previousNamespace,
			os.Getenv("HELM_DRIVER"),
		)

		return nil, fmt.Errorf("failed to set helm namespace %q: %w", namespace, reinitErr)
	}

	return func() {
		c.settings.SetNamespace(previousNamespace)
		_ = c.actionConfig.Init(
			c.settings.RESTClientGetter(),
			previousNamespace,
			os.Getenv("HELM_DRIVER"),
		)
	}, nil
}

func ensureRepositoryConfig(settings *helmv4cli.EnvSettings) (string, error) {
	repoFile := settings.RepositoryConfig
	if repoFile == "" {
		return "", errRepositoryConfigUnset
	}

	mkdirErr := os.MkdirAll(filepath.Dir(repoFile), repoDirMode)
	if mkdirErr != nil {
		return "", fmt.Errorf("create repository directory: %w", mkdirErr)
	}

	return repoFile, nil
}

func ensureRepositoryCache(settings *helmv4cli.EnvSettings) (string, error) {
	repoCache := settings.RepositoryCache
	if repoCache == "" {
		return "", errRepositoryCacheUnset
	}

	mkdirErr := os.MkdirAll(repoCache, repoDirMode)
	if mkdirErr != nil {
		return "", fmt.Errorf("create repository cache directory: %w", mkdirErr)
	}

	return repoCache, nil
}

func assertRelease(releaser any) (*v1.Release, error) {
	rel, ok := releaser.(*v1.Release)
	if !ok {
		return nil, fmt.Errorf("unexpected release type: %T", releaser) //nolint:err113
	}

	return rel, nil
}

func releaseToInfo(rel *v1.Release) *ReleaseInfo {
	if rel == nil {
		return nil
	}

	return &ReleaseInfo{
		Name:       rel.Name,
		Namespace:  rel.Namespace,
		Revision:   rel.Version,
		Status:     rel.Info.Status.String(),
		Chart:      rel.Chart.Metadata.Name,
		AppVersion: rel.Chart.Metadata.AppVersion,
		Updated:    rel.Info.LastDeployed,
	}
}
