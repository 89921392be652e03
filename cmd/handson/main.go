package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/handson/internal/app"
	"github.com/ayusman/handson/internal/capture"
	"github.com/ayusman/handson/internal/config"
	"github.com/ayusman/handson/internal/detector"
	"github.com/ayusman/handson/internal/gesture"
	"github.com/ayusman/handson/internal/render"
	"github.com/ayusman/handson/internal/server"
	"github.com/ayusman/handson/internal/store"
	"github.com/ayusman/handson/internal/tray"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	withTray := flag.Bool("tray", false, "show the system tray icon (overrides config)")
	gestureName := flag.String("gesture", "", "gesture to practice first (overrides config)")
	flag.Parse()

	fmt.Println("Hands-On - Gesture Trainer")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "tray":
			cfg.Tray = *withTray
		case "gesture":
			cfg.Gesture = *gestureName
		}
	})

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load gesture catalog: %v", err)
	}
	log.Printf("Loaded %d gestures", catalog.Len())

	var det detector.Detector
	if mp, err := detector.NewMediaPipeDetector(cfg.Detector); err == nil {
		det = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		det = detector.NewMockDetector()
	}

	hub := server.NewHub(render.NewOverlay(cfg.Pipeline.MinKeypointConfidence))
	sinks := []app.Sink{hub}

	var t *tray.Tray
	if cfg.Tray {
		t = tray.New()
		sinks = append(sinks, t)
	}

	a, err := app.New(app.Config{
		Store:           st,
		Catalog:         catalog,
		Source:          capture.NewCameraSource(cfg.Camera.Devices, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS),
		Detector:        det,
		Pipeline:        cfg.Pipeline,
		PluginDir:       cfg.PluginDir,
		PluginTimeoutMs: cfg.PluginTimeoutMs,
		Gesture:         cfg.Gesture,
		Facing:          cfg.Facing(),
		Sinks:           sinks,
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}
	a.AddReporter(hub)

	if err := a.DiscoverPlugins(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Without a camera the server still serves the catalog and stats.
	if err := a.Start(ctx); err != nil {
		log.Printf("Failed to start camera session: %v", err)
	}

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Catalog:   catalog,
		Session:   a,
		Report:    a.Report,
		Hub:       hub,
	})

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Addr)
		errCh <- srv.ListenAndServe(cfg.Addr)
	}()

	if t != nil {
		t.OnFlip(func() {
			if err := a.Flip(); err != nil {
				log.Printf("Flip failed: %v", err)
			}
		})
		t.OnRetry(func() {
			if err := a.Retry(); err != nil {
				log.Printf("Retry failed: %v", err)
			}
		})
		t.OnOpen(func() { openBrowser(browserURL(cfg.Addr)) })
		t.OnQuit(stop)

		go func() {
			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil {
					log.Printf("Server failed: %v", err)
				}
				stop()
			}
			t.Quit()
		}()

		// The tray needs the main goroutine on some platforms.
		t.Run()
	} else {
		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil {
				log.Printf("Server failed: %v", err)
			}
		}
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	a.Stop()
}

func loadCatalog(path string) (*gesture.Catalog, error) {
	if path == "" {
		return gesture.DefaultCatalog()
	}
	return gesture.LoadCatalogFile(path)
}

// browserURL turns a listen address such as ":8080" into a local URL.
func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
		return
	}
	go cmd.Wait()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.handson/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(config.DefaultDir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
