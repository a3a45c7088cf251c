package input

import (
	"sync"

	"colorpick/internal/screen"
)

// hookRegistry is the single process-wide slot the OS hook callback reads,
// since the callback cannot carry a closure. At most one watcher is
// published at a time. publish and clear are only called while the owning
// watcher holds its lifecycle lock.
type hookRegistry struct {
	mu     sync.RWMutex
	active *Watcher
}

var registry hookRegistry

func (r *hookRegistry) publish(w *Watcher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil && r.active != w {
		return ErrHookBusy
	}
	r.active = w
	return nil
}

func (r *hookRegistry) clear(w *Watcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == w {
		r.active = nil
	}
}

func (r *hookRegistry) current() *Watcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// dispatchClick routes a native mouse message from the hook callback to the
// published watcher. Unrecognized messages are ignored.
func dispatchClick(msg uintptr, pt screen.Point) {
	button, ok := ButtonFromMessage(msg)
	if !ok {
		return
	}
	w := registry.current()
	if w == nil {
		return
	}
	w.handleClick(button, pt)
}
