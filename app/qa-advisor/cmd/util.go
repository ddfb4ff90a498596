package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/averyhart/qa-advisor/internal/chat"
	"github.com/averyhart/qa-advisor/internal/config"
	"github.com/averyhart/qa-advisor/internal/llm"
	"github.com/averyhart/qa-advisor/internal/transport"
)

func setupContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		log.Println("Interrupt signal detected, shutting down gracefully...")
		cancel()
		<-interrupt
		log.Fatal("Forcing shutdown")
	}()

	return ctx
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func createAnthropicClient(apiKey string) anthropic.Client {
	rateLimitedHTTPClient := &http.Client{
		Transport: transport.WithRetryAfter(nil),
	}
	return anthropic.NewClient(
		option.WithHTTPClient(rateLimitedHTTPClient),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(5),
	)
}

// buildCompleter wires the completion boundary the config asks for.
func buildCompleter(cfg config.Config) (chat.Completer, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return llm.NewAnthropicSender(createAnthropicClient(cfg.AnthropicAPIKey)), nil
	case config.ProviderOpenAI:
		return createOpenAISender(cfg), nil
	case config.ProviderDual:
		primary := llm.NewAnthropicSender(createAnthropicClient(cfg.AnthropicAPIKey))
		return llm.NewDualSender(primary, createOpenAISender(cfg), cfg.FallbackModel), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func createOpenAISender(cfg config.Config) *llm.OpenAISender {
	rateLimitedHTTPClient := &http.Client{
		Transport: transport.WithRetryAfter(nil),
	}
	return llm.NewOpenAISender(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, rateLimitedHTTPClient)
}

func modelSettings(cfg config.Config) chat.ModelSettings {
	return chat.ModelSettings{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}
