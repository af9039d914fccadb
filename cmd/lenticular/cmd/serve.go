package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MANISPIN/align-images-for-lenticular/internal/align"
	"github.com/MANISPIN/align-images-for-lenticular/internal/detector"
	"github.com/MANISPIN/align-images-for-lenticular/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the alignment API",
	Long: `Start an HTTP server that provides REST API endpoints for image alignment.

The server provides the following endpoints:
  POST /align       - Align uploaded frames, returns a zip or manifest
  GET  /health      - Health check endpoint
  GET  /metrics     - Prometheus metrics
  GET  /ws/progress - WebSocket stream of per-pair progress

Examples:
  lenticular serve
  lenticular serve --port 8080
  lenticular serve --host 0.0.0.0 --port 3000 --no-detector`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	host := cfg.Server.Host
	if cmd.Flags().Changed("host") {
		host, _ = cmd.Flags().GetString("host")
	}
	port := cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetInt("port")
	}
	corsOrigin := cfg.Server.CORSOrigin
	if cmd.Flags().Changed("cors-origin") {
		corsOrigin, _ = cmd.Flags().GetString("cors-origin")
	}
	maxUpload := cfg.Server.MaxUploadMB
	if cmd.Flags().Changed("max-upload-size") {
		maxUpload, _ = cmd.Flags().GetInt("max-upload-size")
	}
	timeout := cfg.Server.TimeoutSec
	if cmd.Flags().Changed("timeout") {
		timeout, _ = cmd.Flags().GetInt("timeout")
	}
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if cmd.Flags().Changed("shutdown-timeout") {
		shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
	}

	// --no-detector serves translation-only alignment without ONNX runtime
	// or model files on the host.
	noDetector, _ := cmd.Flags().GetBool("no-detector")
	var matcher align.Matcher
	if !noDetector {
		detCfg := cfg.Pipeline.Detector
		detCfg.UpdateModelPath(cfg.ModelsDir)
		det, err := detector.NewDetector(detCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize feature detector: %w", err)
		}
		matcher = detector.NewMatcher(det)
	}

	srv, err := server.NewServer(server.Config{
		Host:            host,
		Port:            port,
		CORSOrigin:      corsOrigin,
		MaxUploadMB:     maxUpload,
		TimeoutSec:      timeout,
		ShutdownTimeout: shutdownTimeout,
		Filter:          cfg.Pipeline.Filter,
		Rotation:        cfg.Pipeline.Rotation,
		CropToCommon:    cfg.Output.CropToCommon,
	}, matcher)
	if err != nil {
		return err
	}
	defer func() {
		_ = srv.Close()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "host to bind the server to")
	serveCmd.Flags().Int("port", 8080, "port to listen on")
	serveCmd.Flags().String("cors-origin", "*", "allowed CORS origin")
	serveCmd.Flags().Int("max-upload-size", 200, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 120, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "graceful shutdown timeout in seconds")
	serveCmd.Flags().Bool("no-detector", false, "serve without a feature detector (translation-only alignment)")
}
