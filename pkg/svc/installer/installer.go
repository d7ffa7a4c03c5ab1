// Package installer defines the component installer contract shared by the
// platform charts.
package installer

import "context"

// Installer defines methods for installing and uninstalling a platform component.
type Installer interface {
	// Install installs or upgrades the component.
	Install(ctx context.Context) error

	// Uninstall removes the component's release.
	Uninstall(ctx context.Context) error
}
