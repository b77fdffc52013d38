package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/proctorvision/internal/config"
	"github.com/ayusman/proctorvision/internal/logger"
)

// Version is the application version.
const Version = "0.1.0"

var (
	// cfg and log are initialized in the root PersistentPreRunE.
	cfg *config.Config
	log *logrus.Logger

	configPath string
	flagAddr   string
	flagData   string
	flagLevel  string
	flagCamera int
)

var rootCmd = &cobra.Command{
	Use:           "proctorvision",
	Short:         "Webcam exam proctoring: head pose, hand presence and prohibited device detection",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("addr") {
			cfg.Addr = flagAddr
		}
		if flags.Changed("data-dir") {
			cfg.DataDir = flagData
			cfg.DBPath, cfg.EvidenceDir = "", ""
			cfg.Resolve()
		}
		if flags.Changed("log-level") {
			cfg.Log.Level = flagLevel
		}
		if flags.Changed("camera") {
			cfg.CameraID = flagCamera
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		for _, dir := range []string{cfg.DataDir, cfg.EvidenceDir} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}

		log, err = logger.New(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File})
		if err != nil {
			return err
		}
		return nil
	},
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Path to a JSON config file")
	pf.StringVar(&flagAddr, "addr", ":8002", "HTTP listen address")
	pf.StringVar(&flagData, "data-dir", "", "Data directory (default ~/.proctorvision)")
	pf.StringVar(&flagLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	pf.IntVar(&flagCamera, "camera", 0, "Camera device ID")
}
