package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vargava/xr-emcee-demo/pkg/gateway"
)

var (
	serveContext     string
	serveAddr        string
	serveBackend     string
	serveModel       string
	servePersonality string
	serveTone        string
	serveScene       string
	servePersonas    string
	serveActuator    string
	serveDaemonAddr  string
	serveRespWait    time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway for the robot front end",
	Long: `Run the HTTP gateway that the robot front end and operator panel
connect to.

The gateway owns a single visitor session. REST endpoints initialize
and steer the session, a WebSocket at /session carries visitor audio,
and /events streams conversation activity to dashboards such as
'emcee monitor'.

Credentials and defaults come from the current context (see
'emcee config'); flags override them.

Examples:
  emcee serve
  emcee serve --addr :8080 --personality pirate --tone energetic
  emcee serve -c booth --actuator daemon --daemon-addr localhost:50055`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveContext, "context", "c", "", "context name to use")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides context config)")
	serveCmd.Flags().StringVar(&serveBackend, "backend", "", "LLM backend: openai or gemini (overrides context config)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "model name (overrides context config)")
	serveCmd.Flags().StringVar(&servePersonality, "personality", "", "starting personality")
	serveCmd.Flags().StringVar(&serveTone, "tone", "", "starting tone")
	serveCmd.Flags().StringVar(&serveScene, "scene", "", "starting scene")
	serveCmd.Flags().StringVar(&servePersonas, "personas", "", "persona catalog YAML file")
	serveCmd.Flags().StringVar(&serveActuator, "actuator", "", "gesture actuator: sim or daemon")
	serveCmd.Flags().StringVar(&serveDaemonAddr, "daemon-addr", "", "gesture daemon address")
	serveCmd.Flags().DurationVar(&serveRespWait, "response-timeout", 0, "wait bound for LLM replies")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logLevel := slog.LevelInfo
	if IsVerbose() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	logger := slog.Default()

	s, err := resolveSettings(serveContext)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		s.Addr = serveAddr
	}
	if serveBackend != "" {
		s.Backend = serveBackend
	}
	if serveModel != "" {
		s.Model = serveModel
	}
	if servePersonality != "" {
		s.Personality = servePersonality
	}
	if serveTone != "" {
		s.Tone = serveTone
	}
	if serveScene != "" {
		s.Scene = serveScene
	}
	if servePersonas != "" {
		s.Personas = servePersonas
	}
	if serveActuator != "" {
		s.Actuator = serveActuator
	}
	if serveDaemonAddr != "" {
		s.DaemonAddr = serveDaemonAddr
	}
	if serveRespWait > 0 {
		s.ResponseTimeout = serveRespWait
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := buildClient(ctx, s)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(s)
	if err != nil {
		return err
	}
	stt, tts := buildSpeech(s, logger)
	moves := buildActuator(s, logger)
	defer moves.Close()

	srv, err := gateway.NewServer(gateway.ServerConfig{
		Addr:            s.Addr,
		Client:          client,
		Transcriber:     stt,
		Synthesizer:     tts,
		Gestures:        moves,
		Catalog:         catalog,
		Personality:     s.Personality,
		Tone:            s.Tone,
		Scene:           s.Scene,
		ResponseTimeout: s.ResponseTimeout,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting gateway", "backend", s.Backend, "actuator", s.Actuator)
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
