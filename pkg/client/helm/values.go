package helm

import (
	"fmt"
	"strings"

	helmv4strvals "helm.sh/helm/v4/pkg/strvals"
	"sigs.k8s.io/yaml"
)

const chartRefParts = 2

// buildValues composes the final values map for a chart operation: the
// ValuesYaml document first, then SetValues overrides on top.
func buildValues(spec *ChartSpec) (map[string]any, error) {
	base := map[string]any{}

	if spec.ValuesYaml != "" {
		err := yaml.Unmarshal([]byte(spec.ValuesYaml), &base)
		if err != nil {
			return nil, fmt.Errorf("failed to parse values yaml: %w", err)
		}
	}

	for key, value := range spec.SetValues {
		err := helmv4strvals.ParseInto(fmt.Sprintf("%s=%s", key, value), base)
		if err != nil {
			return nil, fmt.Errorf("failed to parse set value %s=%s: %w", key, value, err)
		}
	}

	return base, nil
}

// chartBaseName strips the repository alias from a chart reference, so
// "suse/cf" becomes "cf". References without an alias pass through unchanged.
func chartBaseName(chartRef string) string {
	parts := strings.SplitN(chartRef, "/", chartRefParts)
	if len(parts) == 1 {
		return parts[0]
	}

	return parts[1]
}
