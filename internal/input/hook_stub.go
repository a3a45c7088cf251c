//go:build !windows

package input

// Global low-level mouse hooks exist only on Windows.

type unsupportedHook struct{}

func newPlatformHook() hookInstaller {
	return unsupportedHook{}
}

func (unsupportedHook) install() error {
	return ErrUnsupportedPlatform
}

func (unsupportedHook) uninstall() error {
	return nil
}
