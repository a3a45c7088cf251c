//go:build windows

package input

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"

	"colorpick/internal/screen"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessage     = user32.NewProc("DispatchMessageW")
	procPostThreadMessage   = user32.NewProc("PostThreadMessageW")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procGetModuleHandle     = kernel32.NewProc("GetModuleHandleW")
)

const (
	whMouseLL = 14
	hcAction  = 0
	wmQuit    = 0x0012
)

type msllHookStruct struct {
	Pt          struct{ X, Y int32 }
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msg struct {
	Hwnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// postQuit asks a hook thread's message loop to exit.
var postQuit = func(threadID uint32) error {
	ret, _, err := procPostThreadMessage.Call(uintptr(threadID), wmQuit, 0, 0)
	if ret == 0 {
		return err
	}
	return nil
}

var (
	// The callback trampoline is created once; Windows callbacks are a
	// limited resource that is never freed.
	mouseHookCallback = windows.NewCallback(mouseHookProc)

	activeHook atomic.Uintptr
)

// llMouseHook installs WH_MOUSE_LL on a dedicated, locked OS thread. Low-level
// hooks are called on the installing thread, so that thread must pump
// messages for as long as the hook lives.
type llMouseHook struct {
	threadID uint32
	done     chan struct{}

	// stranded holds hook threads whose WM_QUIT could not be posted. They
	// are retried on the next install.
	stranded []uint32
}

func newPlatformHook() hookInstaller {
	return &llMouseHook{}
}

func (h *llMouseHook) install() error {
	h.releaseStranded()

	ready := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(done)

		hMod, _, _ := procGetModuleHandle.Call(0)
		handle, _, err := procSetWindowsHookEx.Call(whMouseLL, mouseHookCallback, hMod, 0)
		if handle == 0 {
			ready <- fmt.Errorf("%w: %v", ErrHookInstall, err)
			return
		}
		activeHook.Store(handle)
		h.threadID = windows.GetCurrentThreadId()
		ready <- nil

		var m msg
		for {
			ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if int32(ret) <= 0 {
				break
			}
			procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
			procDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
		}

		procUnhookWindowsHookEx.Call(handle)
		// A released stranded thread must not clear a newer hook's handle.
		activeHook.CompareAndSwap(handle, 0)
		slog.Debug("Watcher: hook thread exiting")
	}()

	if err := <-ready; err != nil {
		<-done
		return err
	}
	h.done = done
	return nil
}

func (h *llMouseHook) uninstall() error {
	if h.done == nil {
		return nil
	}

	if err := postQuit(h.threadID); err != nil {
		// The message loop cannot be reached; unhook from here so the OS
		// stops calling us. The thread stays parked in GetMessage until a
		// later WM_QUIT gets through.
		if handle := activeHook.Swap(0); handle != 0 {
			procUnhookWindowsHookEx.Call(handle)
		}
		h.stranded = append(h.stranded, h.threadID)
		h.done = nil
		slog.Warn("Watcher: hook thread left running, will retry on next start",
			"thread", h.threadID, "stranded", len(h.stranded), "err", err)
		return fmt.Errorf("post WM_QUIT to hook thread %d: %v", h.threadID, err)
	}

	<-h.done
	h.done = nil
	return nil
}

// releaseStranded re-posts WM_QUIT to hook threads a previous uninstall
// could not reach.
func (h *llMouseHook) releaseStranded() {
	remaining := h.stranded[:0]
	for _, id := range h.stranded {
		if err := postQuit(id); err != nil {
			slog.Warn("Watcher: stranded hook thread still unreachable", "thread", id, "err", err)
			remaining = append(remaining, id)
			continue
		}
		slog.Info("Watcher: released stranded hook thread", "thread", id)
	}
	h.stranded = remaining
}

// mouseHookProc is invoked by the OS on the hook thread for every mouse
// event. It must always pass the event on with CallNextHookEx.
func mouseHookProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode == hcAction {
		handleHookEvent(wParam, lParam)
	}
	ret, _, _ := procCallNextHookEx.Call(activeHook.Load(), uintptr(nCode), wParam, lParam)
	return ret
}

func handleHookEvent(wParam uintptr, lParam uintptr) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Watcher: hook callback panicked", "panic", r)
		}
	}()

	if _, ok := ButtonFromMessage(wParam); !ok {
		return
	}
	ms := (*msllHookStruct)(unsafe.Pointer(lParam))
	dispatchClick(wParam, screen.Point{X: ms.Pt.X, Y: ms.Pt.Y})
}
