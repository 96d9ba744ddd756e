package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/servicehub/internal/config"
	"github.com/kozaktomas/servicehub/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the ServiceHub API server.

Configuration comes from the environment (or a .env file). DATABASE_URL is
required. Set FACE_SERVER_URL to use a real face encoder; without it, or when
the face server is unreachable at startup, deterministic fallback embeddings
are used.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	enrollmentRepo, err := initStorage(cfg)
	if err != nil {
		return err
	}
	initEnrollmentIndex(ctx, enrollmentRepo, cfg.Database.FaceIndexPath)

	// The encoder is chosen once, before the first request.
	selector := newFaceSelector(cfg)
	encoder := selector.Encoder(ctx)
	fmt.Printf("Face encoder: %s (default match threshold %.2f)\n", encoder.Kind(), cfg.Face.ThresholdFor(encoder.Kind()))

	classifier, err := newClassifier(ctx, cfg)
	if err != nil {
		return err
	}
	if classifier != nil {
		fmt.Printf("Recommendations use %s with keyword fallback\n", classifier.Name())
	}

	server := web.NewServer(cfg, selector, classifier)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		saveEnrollmentIndex()

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting ServiceHub API on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
