package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/averyhart/qa-advisor/internal/chat"
)

var askTranscriptPath string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-off question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askTranscriptPath, "transcript", "", "Write the transcript to this file")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	completer, err := buildCompleter(cfg)
	if err != nil {
		return err
	}

	persona, err := chat.LoadPersona(cfg.PersonaFile)
	if err != nil {
		return err
	}

	conv := chat.NewConversation(completer, modelSettings(cfg), persona)

	reply, err := conv.Submit(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Println(reply.Content)

	if askTranscriptPath != "" {
		transcript := chat.Transcript(conv.History())
		if err := os.WriteFile(askTranscriptPath, []byte(transcript), 0o644); err != nil {
			return fmt.Errorf("failed to write transcript: %w", err)
		}
	}
	return nil
}
