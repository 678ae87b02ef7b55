// Package config loads the engine configuration from a YAML file (if
// present) overlaid with environment variables, following the teacher's
// "environment overrides default, log every resolution" posture
// (internal/utils.GetEnv / GetEnvAsInt) generalized to the nested keys
// enumerated in spec §6.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/piyushdatta/senseboard-server/internal/logger"
)

type AIProvider string

const (
	ProviderDeterministic AIProvider = "deterministic"
	ProviderOpenAI        AIProvider = "openai"
	ProviderAnthropic     AIProvider = "anthropic"
	ProviderCodexCLI      AIProvider = "codex_cli"
	ProviderAuto          AIProvider = "auto"
)

type AIReviewConfig struct {
	MaxRevisions         int     `yaml:"maxRevisions"`
	ConfidenceThreshold  float64 `yaml:"confidenceThreshold"`
}

type AIConfig struct {
	Provider                AIProvider     `yaml:"provider"`
	OpenAIAPIKey            string         `yaml:"openaiApiKey"`
	AnthropicAPIKey         string         `yaml:"anthropicApiKey"`
	OpenAIModel             string         `yaml:"openaiModel"`
	AnthropicModel          string         `yaml:"anthropicModel"`
	CodexModel              string         `yaml:"codexModel"`
	OpenAITranscriptionModel string        `yaml:"openaiTranscriptionModel"`
	Review                  AIReviewConfig `yaml:"review"`
}

type ServerConfig struct {
	Port          int `yaml:"port"`
	PortScanSpan  int `yaml:"portScanSpan"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type CaptureTranscriptionChunksConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
}

type CaptureConfig struct {
	TranscriptionChunks CaptureTranscriptionChunksConfig `yaml:"transcriptionChunks"`
}

type PersonalizationConfig struct {
	SQLitePath      string `yaml:"sqlitePath"`
	MaxContextLines int    `yaml:"maxContextLines"`
}

// RedisConfig is the optional cross-process broadcast relay (SPEC_FULL.md
// §D): additive only, the hub still fans snapshots out locally when it's
// empty/unset.
type RedisConfig struct {
	Addr          string `yaml:"addr"`
	ChannelPrefix string `yaml:"channelPrefix"`
}

type Config struct {
	AI              AIConfig              `yaml:"ai"`
	Server          ServerConfig          `yaml:"server"`
	Logging         LoggingConfig         `yaml:"logging"`
	Capture         CaptureConfig         `yaml:"capture"`
	Personalization PersonalizationConfig `yaml:"personalization"`
	Redis           RedisConfig           `yaml:"redis"`

	EnableCodexTranscribeFallback bool
	TranscriptArchiveEnabled      bool
}

// Load reads path (if non-empty and it exists) as YAML, then overlays
// environment variables, then fills remaining zero values with defaults.
func Load(path string, log *logger.Logger) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else if log != nil {
			log.Debug("config file not found, using defaults+env", "path", path)
		}
	}

	cfg.AI.Provider = AIProvider(getEnv("SENSEBOARD_AI_PROVIDER", string(orDefault(cfg.AI.Provider, ProviderDeterministic)), log))
	cfg.AI.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.AI.OpenAIAPIKey, log)
	cfg.AI.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", cfg.AI.AnthropicAPIKey, log)
	cfg.AI.OpenAIModel = getEnv("SENSEBOARD_OPENAI_MODEL", orDefaultStr(cfg.AI.OpenAIModel, "gpt-4o-mini"), log)
	cfg.AI.AnthropicModel = getEnv("SENSEBOARD_ANTHROPIC_MODEL", orDefaultStr(cfg.AI.AnthropicModel, "claude-3-5-sonnet-latest"), log)
	cfg.AI.CodexModel = getEnv("SENSEBOARD_CODEX_MODEL", orDefaultStr(cfg.AI.CodexModel, "codex"), log)
	cfg.AI.OpenAITranscriptionModel = getEnv("SENSEBOARD_OPENAI_TRANSCRIBE_MODEL", orDefaultStr(cfg.AI.OpenAITranscriptionModel, "whisper-1"), log)

	if cfg.AI.Review.MaxRevisions == 0 {
		cfg.AI.Review.MaxRevisions = getEnvAsInt("SENSEBOARD_AI_REVIEW_MAX_REVISIONS", 2, log)
	}
	if cfg.AI.Review.ConfidenceThreshold == 0 {
		cfg.AI.Review.ConfidenceThreshold = getEnvAsFloat("SENSEBOARD_AI_REVIEW_CONFIDENCE_THRESHOLD", 0.6, log)
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = getEnvAsInt("SENSEBOARD_PORT", 8080, log)
	}
	if cfg.Server.PortScanSpan == 0 {
		cfg.Server.PortScanSpan = getEnvAsInt("SENSEBOARD_PORT_SCAN_SPAN", 10, log)
	}

	cfg.Logging.Level = getEnv("SENSEBOARD_LOG_LEVEL", orDefaultStr(cfg.Logging.Level, "info"), log)

	cfg.Capture.TranscriptionChunks.Enabled = getEnvAsBool("SENSEBOARD_CAPTURE_TRANSCRIPTION_CHUNKS", cfg.Capture.TranscriptionChunks.Enabled, log)
	cfg.Capture.TranscriptionChunks.Directory = getEnv("SENSEBOARD_CAPTURE_DIR", orDefaultStr(cfg.Capture.TranscriptionChunks.Directory, "data/captures"), log)

	cfg.Personalization.SQLitePath = getEnv("SENSEBOARD_PERSONALIZATION_SQLITE_PATH", orDefaultStr(cfg.Personalization.SQLitePath, "data/personalization.db"), log)
	if cfg.Personalization.MaxContextLines == 0 {
		cfg.Personalization.MaxContextLines = getEnvAsInt("SENSEBOARD_PERSONALIZATION_MAX_CONTEXT_LINES", 20, log)
	}

	cfg.EnableCodexTranscribeFallback = getEnvAsBool01("SENSEBOARD_ENABLE_CODEX_TRANSCRIBE_FALLBACK", true, log)
	cfg.TranscriptArchiveEnabled = envTruthy(os.Getenv("SENSEBOARD_TRANSCRIPT_ARCHIVE_ENABLED"))

	cfg.Redis.Addr = getEnv("SENSEBOARD_REDIS_ADDR", cfg.Redis.Addr, log)
	cfg.Redis.ChannelPrefix = getEnv("SENSEBOARD_REDIS_CHANNEL_PREFIX", orDefaultStr(cfg.Redis.ChannelPrefix, "senseboard:room:"), log)

	return cfg, nil
}

func orDefault(v AIProvider, def AIProvider) AIProvider {
	if v == "" {
		return def
	}
	return v
}

func orDefaultStr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func envTruthy(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "1" || v == "true"
}

func getEnv(key, defaultVal string, log *logger.Logger) string {
	if log != nil {
		log = log.With("env_var", key)
	}
	val, ok := os.LookupEnv(key)
	if !ok {
		if log != nil {
			log.Debug("environment variable not found, using default")
		}
		return defaultVal
	}
	return val
}

func getEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		if log != nil {
			log.Debug("environment variable could not be parsed as int, using default", "env_var", key, "value", val)
		}
		return defaultVal
	}
	return i
}

func getEnvAsFloat(key string, defaultVal float64, log *logger.Logger) float64 {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		if log != nil {
			log.Debug("environment variable could not be parsed as float, using default", "env_var", key, "value", val)
		}
		return defaultVal
	}
	return f
}

func getEnvAsBool(key string, defaultVal bool, log *logger.Logger) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

// getEnvAsBool01 mirrors spec §6's SENSEBOARD_ENABLE_CODEX_TRANSCRIBE_FALLBACK=0 convention.
func getEnvAsBool01(key string, defaultVal bool, log *logger.Logger) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	return val != "0"
}

// Durations used by the orchestration engine (spec §4.2, §5); not
// user-configurable per spec, so these are package-level constants rather
// than Config fields.
const (
	AIMinIntervalMS             = 4000
	AIIdleAfterInactivityMS     = 10 * 60 * 1000
	AILayerShiftY               = 520.0
	AILayerBoundaryY            = 5600.0
	PersonalAIDeferAfterMainMS  = 240
	QueueCapPerRoom             = 120
	CodexCLITimeout             = 45 * time.Second
	CodexCLIPingTimeout         = 30 * time.Second
	PersonalQueueWaitSlice      = 20 * time.Millisecond
	PersonalQueueWaitCap        = 1500 * time.Millisecond
	MinTranscribeBytes          = 1024
	ArchivedGroupsCap           = 24
	AIHistoryCap                = 20
	ChatMessagesCap             = 300
	ContextItemsCap             = 200
	TranscriptChunksCap         = 400
)
