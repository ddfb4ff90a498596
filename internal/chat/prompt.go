package chat

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed persona.md
var defaultPersona string

// LoadPersona returns the persona system prompt. If path is non-empty the
// prompt is read from that file, otherwise the embedded default is used.
func LoadPersona(path string) (string, error) {
	if path == "" {
		return defaultPersona, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read persona file: %w", err)
	}
	return string(b), nil
}
