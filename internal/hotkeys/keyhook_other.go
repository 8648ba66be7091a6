//go:build !windows

package hotkeys

type unsupportedHookAPI struct{}

func platformHookAPI() hookAPI { return unsupportedHookAPI{} }

func (unsupportedHookAPI) install(*KeyHook) (hookHandle, error) {
	return 0, &HookInstallError{Reason: "low-level keyboard hooks are only available on Windows"}
}

func (unsupportedHookAPI) uninstall(*KeyHook, hookHandle) error { return nil }

func (unsupportedHookAPI) pump() bool { return false }
