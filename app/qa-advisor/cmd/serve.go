package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/averyhart/qa-advisor/internal/chat"
	"github.com/averyhart/qa-advisor/internal/server"
	"github.com/averyhart/qa-advisor/internal/telemetry"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI",
	Long: `Starts the single-page chat UI. Each browser session gets its own
in-memory conversation; nothing is persisted across sessions.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	telemetryProvider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:      cfg.OTLPEndpoint != "",
		OTLPEndpoint: cfg.OTLPEndpoint,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		if err := telemetryProvider.Shutdown(ctx); err != nil {
			log.Printf("Failed to shut down telemetry: %v", err)
		}
	}()

	completer, err := buildCompleter(cfg)
	if err != nil {
		return err
	}

	persona, err := chat.LoadPersona(cfg.PersonaFile)
	if err != nil {
		return err
	}

	settings := modelSettings(cfg)
	newConversation := func() *chat.Conversation {
		return chat.NewConversation(completer, settings, persona)
	}

	log.Printf("Starting QA Advisor (provider: %s, model: %s)", cfg.Provider, cfg.Model)

	srv := server.New(newConversation, cfg.SessionTimeout.Duration, cfg.AuthToken)
	return srv.Run(ctx, cfg.Addr)
}
