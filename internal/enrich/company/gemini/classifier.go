package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"leadgen/internal/enrich/company"
	"leadgen/internal/logger"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Classifier turns collected search snippets into an intent verdict through
// a generative model. It satisfies company.IntentClassifier.
type Classifier struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewClassifier(generator contentGenerator, log *zap.Logger, maxLogLength int) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Classifier{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

func (c *Classifier) Classify(ctx context.Context, organization string, snippets []string) (*company.Verdict, error) {
	organization = strings.TrimSpace(organization)
	if organization == "" {
		return nil, errors.New("organization is required")
	}
	if len(snippets) == 0 {
		return nil, nil
	}

	snippetsJSON, err := json.MarshalIndent(snippets, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snippets: %w", err)
	}

	prompt := buildPrompt(organization, string(snippetsJSON))

	c.logger.Debug("gemini classify request",
		zap.String("organization", organization),
		zap.Int("snippets", len(snippets)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, c.maxLogLen)),
	)

	raw, err := c.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("gemini classify response",
		zap.String("organization", organization),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, c.maxLogLen)),
	)

	return parseResponse(raw)
}

func buildPrompt(organization, snippetsJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Organization:\n{{ORGANIZATION}}\n\nSnippets:\n{{SNIPPETS_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{ORGANIZATION}}", organization)
	prompt = strings.ReplaceAll(prompt, "{{SNIPPETS_JSON}}", snippetsJSON)
	return prompt
}

func parseResponse(raw string) (*company.Verdict, error) {
	cleaned := extractJSON(strings.TrimSpace(raw))

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	return &company.Verdict{
		Uses3DModels: coerceBool(data["uses_3d_models"]),
		OpenToNAMs:   coerceBool(data["open_to_nams"]),
		Technologies: coerceStrings(data["technologies"]),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceStrings(v any) []string {
	switch val := v.(type) {
	case []any:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return nil
	}
}
