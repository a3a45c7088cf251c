package input

import "errors"

var (
	// ErrUnsupportedPlatform is returned when global mouse hooks are unavailable
	ErrUnsupportedPlatform = errors.New("global mouse hook not supported on this platform")

	// ErrHookInstall is returned when the OS refuses to install the hook
	ErrHookInstall = errors.New("failed to install mouse hook")

	// ErrHookBusy is returned when another watcher already owns the process hook
	ErrHookBusy = errors.New("mouse hook already owned by another watcher")
)
