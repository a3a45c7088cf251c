package input

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"colorpick/internal/screen"
)

const defaultNotifyBuffer = 64

// hookInstaller owns the OS side of the hook. install returns once the hook
// is live; uninstall returns once it is gone.
type hookInstaller interface {
	install() error
	uninstall() error
}

// Watcher manages the process-wide low-level mouse hook and buffers the
// clicks it observes.
type Watcher struct {
	mu      sync.Mutex // serializes Start/Stop transitions
	running atomic.Bool
	hook    hookInstaller

	queue         *EventQueue
	sampler       ColorSampler
	sampleOnClick bool
	notifyBuffer  int

	notifyMu sync.RWMutex
	notifyCh chan ClickNotification
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSampler sets the sampler used to resolve click colors.
func WithSampler(s ColorSampler) Option {
	return func(w *Watcher) { w.sampler = s }
}

// WithSampleOnClick enables or disables color sampling for each click.
func WithSampleOnClick(enabled bool) Option {
	return func(w *Watcher) { w.sampleOnClick = enabled }
}

// WithNotifyBuffer sets how many notifications may wait for the sink before
// new ones are dropped.
func WithNotifyBuffer(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.notifyBuffer = n
		}
	}
}

func withHook(h hookInstaller) Option {
	return func(w *Watcher) { w.hook = h }
}

// NewWatcher creates a stopped watcher. By default it samples clicked pixels
// with screen.Default().
func NewWatcher(opts ...Option) *Watcher {
	w := &Watcher{
		hook:          newPlatformHook(),
		queue:         NewEventQueue(DefaultQueueCapacity),
		sampler:       screen.Default(),
		sampleOnClick: true,
		notifyBuffer:  defaultNotifyBuffer,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start installs the hook and begins forwarding clicks to sink, which may be
// nil. Calling Start on a running watcher does nothing. If the OS refuses the
// hook the watcher stays stopped and the error is returned; the caller may
// retry.
func (w *Watcher) Start(sink Sink) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running.Load() {
		slog.Debug("Watcher: already running, start skipped")
		return nil
	}

	if err := registry.publish(w); err != nil {
		return err
	}
	w.openNotifications(sink)

	if err := w.hook.install(); err != nil {
		w.closeNotifications()
		registry.clear(w)
		slog.Warn("Watcher: failed to install mouse hook", "err", err)
		return err
	}

	w.running.Store(true)
	slog.Info("Watcher: mouse hook installed, watching clicks")
	return nil
}

// Stop removes the hook. Calling Stop on a stopped watcher does nothing. Once
// Stop returns no further clicks are recorded, even if the OS reported an
// error while unhooking.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running.Load() {
		slog.Debug("Watcher: not running, stop skipped")
		return nil
	}

	err := w.hook.uninstall()
	registry.clear(w)
	w.closeNotifications()
	w.running.Store(false)

	if err != nil {
		slog.Warn("Watcher: error while removing mouse hook", "err", err)
		return err
	}
	slog.Info("Watcher: mouse hook removed")
	return nil
}

// IsRunning reports whether the hook is installed.
func (w *Watcher) IsRunning() bool {
	return w.running.Load()
}

// DrainEvents removes and returns all buffered clicks, oldest first.
func (w *Watcher) DrainEvents() []MouseClickEvent {
	events := w.queue.Drain()
	if len(events) > 0 {
		slog.Debug("Watcher: drained click events", "count", len(events))
	}
	return events
}

// handleClick runs on the hook thread. It must stay fast: one queue push,
// then, only when a sink is attached, one pixel read and a non-blocking
// hand-off.
func (w *Watcher) handleClick(button MouseButton, pt screen.Point) {
	if w.queue.Push(MouseClickEvent{Button: button, Point: pt}) {
		slog.Debug("Watcher: click queue full, oldest event dropped")
	}

	if !w.hasSink() {
		return
	}

	n := ClickNotification{X: pt.X, Y: pt.Y, Button: button}
	if w.sampleOnClick && w.sampler != nil {
		if c, ok := w.sampler.SamplePixel(pt); ok {
			n.RGB = &c
		}
	}
	w.publish(n)
}

func (w *Watcher) hasSink() bool {
	w.notifyMu.RLock()
	defer w.notifyMu.RUnlock()
	return w.notifyCh != nil
}

func (w *Watcher) publish(n ClickNotification) {
	w.notifyMu.RLock()
	defer w.notifyMu.RUnlock()

	if w.notifyCh == nil {
		return
	}
	select {
	case w.notifyCh <- n:
	default:
		slog.Debug("Watcher: notification buffer full, dropping", "x", n.X, "y", n.Y)
	}
}

func (w *Watcher) openNotifications(sink Sink) {
	if sink == nil {
		return
	}
	ch := make(chan ClickNotification, w.notifyBuffer)

	w.notifyMu.Lock()
	w.notifyCh = ch
	w.notifyMu.Unlock()

	go deliver(ch, sink)
}

func (w *Watcher) closeNotifications() {
	w.notifyMu.Lock()
	ch := w.notifyCh
	w.notifyCh = nil
	w.notifyMu.Unlock()

	if ch != nil {
		close(ch)
	}
}

// deliver forwards notifications to the sink off the hook thread.
func deliver(ch <-chan ClickNotification, sink Sink) {
	for n := range ch {
		notifySafely(sink, n)
	}
}

func notifySafely(sink Sink, n ClickNotification) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Watcher: sink panicked", "panic", r)
		}
	}()
	sink.Notify(n)
}
