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

	"github.com/spigell/hr-selection/internal/ai"
	"github.com/spigell/hr-selection/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

//go:embed brief_prompt.md
var briefPrompt string

const defaultMaxLogLength = 200

// Briefer asks Gemini for a written brief of a shortlist.
type Briefer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewBriefer(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Briefer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Briefer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (b *Briefer) Brief(ctx context.Context, shortlist *ai.Shortlist) (*ai.Brief, error) {
	if shortlist == nil {
		return nil, errors.New("shortlist is required")
	}

	if len(shortlist.Candidates) == 0 {
		return nil, fmt.Errorf("posting %q has no scored candidates to brief", shortlist.PostingTitle)
	}

	payload, err := json.MarshalIndent(shortlist, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal shortlist: %w", err)
	}
	message := string(payload)

	b.logger.Debug("gemini brief request",
		zap.Int("posting_id", shortlist.PostingID),
		zap.Int("candidates", len(shortlist.Candidates)),
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", utils.TruncateForLog(message, b.maxLogLen)),
	)

	raw, err := b.generator.GenerateContent(ctx, briefPrompt, message)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("gemini brief response",
		zap.Int("posting_id", shortlist.PostingID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, b.maxLogLen)),
	)

	brief, err := parseBrief(raw)
	if err != nil {
		return nil, err
	}

	brief.Raw = raw
	return brief, nil
}

func parseBrief(raw string) (*ai.Brief, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	brief := &ai.Brief{
		Summary: coerceString(data["summary"]),
		TopPick: coerceString(data["top_pick"]),
	}

	if brief.Summary == "" {
		return nil, errors.New("gemini response has no summary")
	}

	if items, ok := data["concerns"].([]any); ok {
		for _, item := range items {
			if concern := coerceString(item); concern != "" {
				brief.Concerns = append(brief.Concerns, concern)
			}
		}
	}

	return brief, nil
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

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
