// Package config loads service configuration from a yaml file,
// BEGRIFF_* environment variables and command-line flags, in that order
// of precedence (later sources win).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config is the static options structure the core consumes.
type Config struct {
	Listen string   `koanf:"listen" validate:"required"`
	DB     DBConfig `koanf:"db"`
	SRS    SRS      `koanf:"srs"`
	LLM    LLM      `koanf:"llm"`
	Import Import   `koanf:"import"`
}

// DBConfig locates the sqlite database.
type DBConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// SRS holds the scheduling knobs.
type SRS struct {
	TargetRetention     float64 `koanf:"target_retention" validate:"gt=0,lt=1"`
	MatureThresholdDays int     `koanf:"mature_threshold_days" validate:"gte=1"`
	NewCardsPerSession  int     `koanf:"new_cards_per_session" validate:"gte=0"`
	SessionWindowHours  int     `koanf:"session_window_hours" validate:"gte=1"`
	BurySiblings        bool    `koanf:"bury_siblings"`
	LeechDifficulty     float64 `koanf:"leech_difficulty" validate:"gte=1,lte=10"`
	LeechViewCount      int     `koanf:"leech_view_count" validate:"gte=1"`
}

// MatureThreshold is the horizon beyond which a reviewed card counts as
// mature.
func (s SRS) MatureThreshold() time.Duration {
	return time.Duration(s.MatureThresholdDays) * 24 * time.Hour
}

// SessionWindow is the sliding window for sibling burying and the
// new-card quota.
func (s SRS) SessionWindow() time.Duration {
	return time.Duration(s.SessionWindowHours) * time.Hour
}

// LLM configures the text-generation collaborator.
type LLM struct {
	APIKey         string `koanf:"api_key"`
	Model          string `koanf:"model"`
	TimeoutSeconds int    `koanf:"timeout_seconds" validate:"gte=1"`
}

// Timeout bounds one generation call.
func (l LLM) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// Import configures word-list sources.
type Import struct {
	ReposDir string `koanf:"repos_dir"`
}

// Default returns the configuration used when a knob is not set by any
// source.
func Default() Config {
	return Config{
		Listen: ":8080",
		DB:     DBConfig{Path: "begriff.db"},
		SRS: SRS{
			TargetRetention:     0.9,
			MatureThresholdDays: 21,
			NewCardsPerSession:  10,
			SessionWindowHours:  12,
			BurySiblings:        true,
			LeechDifficulty:     9.0,
			LeechViewCount:      8,
		},
		LLM: LLM{
			Model:          "gemini-2.0-flash",
			TimeoutSeconds: 30,
		},
		Import: Import{ReposDir: "repos"},
	}
}

const envPrefix = "BEGRIFF_"

// Load merges defaults, the yaml file at path (if it exists), BEGRIFF_*
// environment variables (double underscore nests, e.g.
// BEGRIFF_SRS__TARGET_RETENTION) and the given flag set, then validates
// the result.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		return strings.ReplaceAll(key, "__", "."), value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}
