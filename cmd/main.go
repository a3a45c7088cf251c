// colorpick - screen color picker
// Watches global mouse clicks and samples the screen color under them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"colorpick/internal/api"
	"colorpick/internal/config"
	"colorpick/internal/input"
	"colorpick/internal/logging"
	"colorpick/internal/network"
	"colorpick/internal/osutils"
	"colorpick/internal/screen"
	"colorpick/internal/tray"
)

var (
	version    = "0.1.0"
	configPath = flag.String("config", "", "Path to config file (.json, .yaml or .yml)")
	showVer    = flag.Bool("version", false, "Show version")
	showCursor = flag.Bool("cursor", false, "Print the cursor position and the color under it")
	pixelAt    = flag.String("pixel", "", "Print the color at x,y")
	regionAt   = flag.String("region", "", "Print the colors of the rectangle x1,y1,x2,y2")
	tailAddr   = flag.String("tail", "", "Follow the click stream of a running service at host:port")
	noTray     = flag.Bool("no-tray", false, "Run the service without a tray icon")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("colorpick version %s\n", version)
		return
	}

	cfgMgr, err := config.NewManager(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize config: %v\n", err)
		os.Exit(1)
	}
	loadErr := cfgMgr.Load()
	cfg := cfgMgr.Get()

	levelVar := new(slog.LevelVar)
	logger, err := logging.New(logging.Options{
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		LevelVar: levelVar,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if loadErr != nil {
		slog.Warn("Config: failed to load, using defaults", "path", cfgMgr.Path(), "err", loadErr)
	}
	if err := osutils.EnableDPIAwareness(); err != nil {
		slog.Warn("Startup: DPI awareness not enabled, coordinates may be scaled", "err", err)
	}

	switch {
	case *showCursor:
		os.Exit(printCursor(screen.Default()))
	case *pixelAt != "":
		os.Exit(printPixel(screen.Default(), *pixelAt))
	case *regionAt != "":
		os.Exit(printRegion(screen.Default(), *regionAt))
	case *tailAddr != "":
		runTail(*tailAddr, cfg.APIToken)
	default:
		runService(cfgMgr, levelVar)
	}
}

func runService(cfgMgr *config.Manager, levelVar *slog.LevelVar) {
	cfg := cfgMgr.Get()
	slog.Info("Service: starting", "version", version, "listen", cfg.ListenAddr)

	if runtime.GOOS == "windows" && !osutils.IsElevated() {
		slog.Warn("Service: not elevated, clicks on elevated windows will not be seen")
	}

	sampler := screen.Default()
	watcher := input.NewWatcher(
		input.WithSampler(sampler),
		input.WithSampleOnClick(cfg.SampleOnClick),
		input.WithNotifyBuffer(cfg.NotifyBuffer),
	)
	server := api.NewServer(watcher, sampler, cfg.APIToken)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
			slog.Error("Service: API server unavailable", "err", err)
		}
	}()

	cfgMgr.RegisterChangeCallback(func() {
		next := cfgMgr.Get()
		if lvl, err := logging.ParseLevel(next.LogLevel); err == nil {
			levelVar.Set(lvl)
		}
		slog.Info("Config: reloaded; listen address, token and watcher options apply after restart")
	})
	if err := cfgMgr.Watch(ctx); err != nil {
		slog.Warn("Config: hot reload disabled", "err", err)
	}

	if cfg.AutoStartWatch {
		if err := server.StartWatch(); err != nil {
			slog.Warn("Service: failed to start watching on startup", "err", err)
		}
	}

	if cfg.TrayEnabled && !*noTray {
		runTray(ctx, cancel, server)
	} else {
		slog.Info("Service: running. Press Ctrl+C to stop.")
		<-ctx.Done()
	}

	slog.Info("Service: shutting down")
	if err := server.StopWatch(); err != nil {
		slog.Warn("Service: error while stopping watcher", "err", err)
	}
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Service: API shutdown error", "err", err)
	}
}

// runTray blocks in the tray loop until Quit is chosen or ctx ends.
func runTray(ctx context.Context, cancel context.CancelFunc, server *api.Server) {
	t := tray.New("colorpick - screen color picker", cancel)

	var watchItem int
	watchItem = t.AddCheckboxItem("Watch clicks", server.IsWatching(), func() {
		if server.IsWatching() {
			if err := server.StopWatch(); err != nil {
				slog.Warn("Tray: stop watching failed", "err", err)
			}
		} else if err := server.StartWatch(); err != nil {
			slog.Warn("Tray: start watching failed", "err", err)
		}
		t.SetItemChecked(watchItem, server.IsWatching())
	})
	t.AddSeparator()
	t.AddMenuItem("Quit", t.Stop)

	// Watching can also be toggled over the API; keep the check mark honest.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-ticker.C:
				if running := server.IsWatching(); running != t.IsChecked(watchItem) {
					t.SetItemChecked(watchItem, running)
				}
			}
		}
	}()

	slog.Info("Service: running in tray. Press Ctrl+C to stop.")
	t.Run()
}

func runTail(addr, token string) {
	client := network.NewStreamClient(addr, token)
	client.OnClick = func(n input.ClickNotification) {
		fmt.Println(formatClick(n))
	}
	client.OnWatchState = func(running bool) {
		if running {
			fmt.Println("-- watching started")
		} else {
			fmt.Println("-- watching stopped")
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go client.Run()
	<-ctx.Done()
	client.Close()
}

func printCursor(s *screen.Sampler) int {
	p, ok := s.CursorPosition()
	if !ok {
		fmt.Fprintln(os.Stderr, "Cursor position unavailable")
		return 1
	}
	if c, ok := s.SamplePixel(p); ok {
		fmt.Printf("%d,%d %s %s\n", p.X, p.Y, c, c.Hex())
	} else {
		fmt.Printf("%d,%d (color unavailable)\n", p.X, p.Y)
	}
	return 0
}

func printPixel(s *screen.Sampler, arg string) int {
	pts, err := parsePoints(arg, 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -pixel: %v\n", err)
		return 2
	}
	c, ok := s.SamplePixel(pts[0])
	if !ok {
		fmt.Fprintln(os.Stderr, "Pixel unavailable")
		return 1
	}
	fmt.Printf("%s %s\n", c, c.Hex())
	return 0
}

func printRegion(s *screen.Sampler, arg string) int {
	pts, err := parsePoints(arg, 2)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -region: %v\n", err)
		return 2
	}
	colors, ok := s.SampleRegion(pts[0], pts[1])
	if !ok {
		fmt.Fprintln(os.Stderr, "Region unavailable")
		return 1
	}
	r := screen.Normalize(pts[0], pts[1])
	for _, line := range formatRegion(r, colors) {
		fmt.Println(line)
	}
	return 0
}
