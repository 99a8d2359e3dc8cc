package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hr-selection/internal/logger"
)

const (
	app = "hr-selection"
)

type Config struct {
	API      *APIConfig      `mapstructure:"api" validate:"required"`
	Pipeline *PipelineConfig `mapstructure:"pipeline" validate:"required"`
	Refresh  *RefreshConfig  `mapstructure:"refresh" validate:"required"`
	Log      *LogConfig      `mapstructure:"log" validate:"required"`
	Rank     *RankConfig     `mapstructure:"rank"`
	AI       *AIConfig       `mapstructure:"ai"`
}

type APIConfig struct {
	URL       string        `mapstructure:"url" validate:"required,url"`
	Token     string        `mapstructure:"token"`
	TokenFile string        `mapstructure:"token-file"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"min=1s"`
	UserAgent string        `mapstructure:"user-agent"`
}

type PipelineConfig struct {
	StagePause     time.Duration `mapstructure:"stage-pause" validate:"min=0s"`
	RefreshTimeout time.Duration `mapstructure:"refresh-timeout" validate:"min=1s"`
}

type RefreshConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"min=1s"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max-size-mb" validate:"min=0"`
	MaxBackups int    `mapstructure:"max-backups" validate:"min=0"`
	MaxAgeDays int    `mapstructure:"max-age-days" validate:"min=0"`
}

type RankConfig struct {
	HideInvited       bool     `mapstructure:"hide-invited"`
	MinClassification string   `mapstructure:"min-classification" validate:"omitempty,oneof=strong good fair weak"`
	ExcludeApplicants []string `mapstructure:"exclude-applicants"`
}

type AIConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Provider      string        `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	TopCandidates int           `mapstructure:"top-candidates" validate:"min=0"`
	Gemini        *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"min=0"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"min=0"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hr-selection is an administrator console for the AI candidate selection of the recruitment service",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if err := viper.BindEnv("api.token-file", "HR_API_TOKEN_FILE"); err != nil {
		log.Fatalf("binding HR_API_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("api.url", "HR_API_URL"); err != nil {
		log.Fatalf("binding HR_API_URL environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	setDefaults(viper.GetViper())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hr-selection.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("api-url", "", "base url of the recruitment service")
	rootCmd.PersistentFlags().String("log-file", "", "also write json logs to this file with rotation")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("api.url", rootCmd.PersistentFlags().Lookup("api-url"))
	viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", "http://localhost:5000")
	v.SetDefault("api.timeout", "10m")
	v.SetDefault("pipeline.stage-pause", "0s")
	v.SetDefault("pipeline.refresh-timeout", "30s")
	v.SetDefault("refresh.interval", "30s")
	v.SetDefault("log.max-size-mb", 100)
	v.SetDefault("log.max-backups", 3)
	v.SetDefault("log.max-age-days", 28)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.top-candidates", 5)
}

func initConfig() {
	// The version command works without any config.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// A missing default config is fine, everything has defaults or flags.
	// An explicit or broken config is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if config == nil {
		return nil, errors.New("config is required")
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(config); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return config, nil
}

// setup builds the logger and the validated config shared by all commands.
func setup() (*zap.Logger, *Config) {
	var file *logger.FileOptions
	if path := viper.GetString("log.file"); path != "" {
		file = &logger.FileOptions{
			Path:       path,
			MaxSizeMB:  viper.GetInt("log.max-size-mb"),
			MaxBackups: viper.GetInt("log.max-backups"),
			MaxAgeDays: viper.GetInt("log.max-age-days"),
		}
	}

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), file)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting with config",
		zap.String("config_file", viper.ConfigFileUsed()),
		zap.String("api_url", config.API.URL),
		zap.Duration("api_timeout", config.API.Timeout),
		zap.Duration("refresh_interval", config.Refresh.Interval),
		zap.Duration("stage_pause", config.Pipeline.StagePause),
	)

	return logger, config
}
