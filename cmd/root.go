package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-sorter/internal/config"
	"github.com/kozaktomas/face-sorter/internal/faceapi"
	"github.com/kozaktomas/face-sorter/internal/workspace"
)

var (
	configPath string
	rootDir    string
	captureDir string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "face-sorter",
	Short: "A CLI tool for sorting photos into per-person folders by face",
	Long: `Face Sorter sorts photos into one folder per person using a remote face
recognition service.

First enroll the persons you want to recognize: put reference photos into
faces/input/<person name>/ and run "face-sorter train <group>". Then put the
photos to sort into faces/unclassified/ and run "face-sorter classify <group>".
Sorted copies end up in faces/output/.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Folder containing the faces/ directory (default: working directory)")
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save API responses for testing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// setup loads and validates the config, checks the group name, prepares the
// workspace folders and connects the face service client.
func setup(groupID string) (*config.Config, *workspace.Layout, *faceapi.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	if err := config.ValidateGroupName(groupID); err != nil {
		return nil, nil, nil, err
	}

	dir := rootDir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return nil, nil, nil, fmt.Errorf("could not determine working directory: %w", err)
		}
	}
	layout := workspace.New(dir)
	if err := layout.EnsureDirs(); err != nil {
		return nil, nil, nil, err
	}

	client, err := faceapi.NewWithCapture(cfg.FaceAPI.Endpoint, cfg.FaceAPI.Key, captureDir,
		faceapi.WithRequestsPerMinute(cfg.Settings.RequestsPerMinute))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create face API client: %w", err)
	}

	return cfg, layout, client, nil
}

// signalContext returns a context cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nReceived interrupt signal, stopping after the current request...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
