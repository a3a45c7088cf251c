//go:build !windows

// Package osutils holds process-level OS helpers used at startup.
package osutils

// EnableDPIAwareness is a no-op outside Windows
func EnableDPIAwareness() error {
	return nil
}

// IsElevated is a stub for non-Windows platforms
func IsElevated() bool {
	return false
}
