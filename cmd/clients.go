package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hr-selection/internal/ai"
	"github.com/spigell/hr-selection/internal/ai/gemini"
	"github.com/spigell/hr-selection/internal/recruit"
	"github.com/spigell/hr-selection/internal/secrets"
)

func newRecruitClient(config *Config, logger *zap.Logger) (*recruit.Client, error) {
	token, err := secrets.LoadOptional(secrets.Source{
		Name:  "recruitment api token",
		Value: config.API.Token,
		File:  config.API.TokenFile,
		Env:   "HR_API_TOKEN",
	})
	if err != nil {
		return nil, err
	}

	client := recruit.New(logger.With(zap.String("component", "recruit")), config.API.URL, token)
	client.HTTPClient.Timeout = config.API.Timeout

	if config.API.UserAgent != "" {
		client.UserAgent = config.API.UserAgent
	}

	return client, nil
}

func newBriefer(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Briefer, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("ai is disabled (set ai.enabled to true)")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Gemini.Model),
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewBriefer(generator, cfg.Gemini.MaxLogLength, genLogger.With(zap.String("resolved_model", generator.Model()))), nil
}
