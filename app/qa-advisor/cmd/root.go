package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "qa-advisor",
	Short: "Conversational quality-management assistant",
	Long: `QA Advisor is a conversational assistant with a quality-assurance
consultant persona. It forwards user messages to a hosted language model and
keeps an in-memory conversation per session. Run it as a single-page web app
with 'serve' or ask one-off questions with 'ask'.`,
	PersistentPreRun: loadEnv,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadEnv(_ *cobra.Command, _ []string) {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to TOML config file")
}
