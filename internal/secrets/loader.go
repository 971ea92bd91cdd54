// Package secrets resolves the API credentials the sources and enrichers
// need (SerpAPI, Hunter, Gemini, geocoding, PubMed). Keys live in files
// referenced from config or the environment so they stay out of leadgen.yaml.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where one credential comes from.
type Source struct {
	// Name identifies the credential in error messages, e.g. "serpapi key".
	Name string
	// Value is an inline value from configuration or flags.
	Value string
	// File points to a file holding the value. When set it takes precedence
	// over Value.
	File string
}

// Load resolves the credential, always trimmed. A configured but unreadable
// or empty key file is an error rather than a silent fallback to Value, so a
// broken deployment does not quietly run with the wrong key.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		src.Value = string(data)
		src.File = file
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		if src.File != "" {
			return "", fmt.Errorf("%s file %q is empty", name, src.File)
		}
		return "", fmt.Errorf("%s is not configured", name)
	}

	return secret, nil
}
