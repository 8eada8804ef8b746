//go:build !darwin && !linux && !windows

package platform

import "log/slog"

func newCollaborators(logger *slog.Logger) Collaborators {
	logger.Warn("no platform collaborators for this OS; running schedule-only")
	return AllUnsupported()
}

// DependencyMessage describes missing desktop tools, or is empty.
func DependencyMessage() string { return "" }
