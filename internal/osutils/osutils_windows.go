//go:build windows

// Package osutils holds process-level OS helpers used at startup.
package osutils

import (
	"fmt"

	"golang.org/x/sys/windows"
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procSetProcessDPIAware = user32.NewProc("SetProcessDPIAware")
)

// EnableDPIAwareness marks the process DPI aware so hook coordinates, cursor
// positions and GDI captures all use physical pixels on scaled displays.
func EnableDPIAwareness() error {
	if err := procSetProcessDPIAware.Find(); err != nil {
		return fmt.Errorf("SetProcessDPIAware unavailable: %w", err)
	}
	ret, _, err := procSetProcessDPIAware.Call()
	if ret == 0 {
		return fmt.Errorf("SetProcessDPIAware: %v", err)
	}
	return nil
}

// IsElevated reports whether the process token is elevated. A non-elevated
// low-level hook does not see clicks aimed at elevated windows.
func IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
