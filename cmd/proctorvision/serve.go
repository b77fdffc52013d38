package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ayusman/proctorvision/internal/server"
	"github.com/ayusman/proctorvision/internal/tray"
)

var (
	serveTray bool
	serveLive bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveTray, "tray", false, "Show a system tray menu")
	serveCmd.Flags().BoolVar(&serveLive, "live", false, "Monitor the local camera and feed /api/stream and /api/monitor")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	rt, err := buildRuntime(cfg, log, buildOptions{camera: serveLive, evidence: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(cfg.DataDir)
	}
	if staticDir != "" {
		log.WithField("dir", staticDir).Info("Serving static files")
	}

	srv := server.New(server.Config{
		StaticDir:   staticDir,
		EvidenceDir: cfg.EvidenceDir,
		Store:       rt.store,
		App:         rt.app,
		Logger:      log,
	})

	if serveLive {
		if err := rt.app.Start(); err != nil {
			return err
		}
	}

	if !serveTray {
		return srv.ListenAndServe(ctx, cfg.Addr)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t := tray.New()
	t.OnToggle(rt.app.SetEnabled)
	t.OnDashboard(func() { openBrowser(dashboardURL(cfg.Addr)) })
	t.OnQuit(cancel)

	reports, unsubscribe := rt.app.Subscribe()
	defer unsubscribe()
	go func() {
		for r := range reports {
			if len(r.Warnings) > 0 {
				t.SetLastWarning(r.Warnings[0])
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, cfg.Addr)
		t.Quit()
	}()

	// systray must own the main goroutine.
	t.Run()
	cancel()
	return <-errCh
}

// findWebDir looks for a dashboard directory next to the working directory
// and under the data directory.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func dashboardURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
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
		log.WithError(err).Warn("Failed to open browser")
	}
}
