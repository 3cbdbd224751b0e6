// Package config loads application configuration from an optional YAML
// file plus MVOICE_-prefixed environment variables, and initializes the
// global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Chat       ChatConfig       `yaml:"chat" mapstructure:"chat"`
	Browser    BrowserConfig    `yaml:"browser" mapstructure:"browser"`
	Download   DownloadConfig   `yaml:"download" mapstructure:"download"`
	Controller ControllerConfig `yaml:"controller" mapstructure:"controller"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ChatConfig configures the AI chat surface.
type ChatConfig struct {
	URL string `yaml:"url" mapstructure:"url"`

	// SettleDelaySecs is the pause between submitting and the first poll.
	SettleDelaySecs int `yaml:"settle_delay_secs" mapstructure:"settle_delay_secs"`
}

// BrowserConfig configures the Chrome automation surface.
type BrowserConfig struct {
	Headless      bool   `yaml:"headless" mapstructure:"headless"`
	SlowMotionMs  int    `yaml:"slow_motion_ms" mapstructure:"slow_motion_ms"`
	SessionPath   string `yaml:"session_path" mapstructure:"session_path"`
	StagingDir    string `yaml:"staging_dir" mapstructure:"staging_dir"`
	SelectorsPath string `yaml:"selectors_path" mapstructure:"selectors_path"`
}

// DownloadConfig configures the video download phase.
type DownloadConfig struct {
	TikTokSite      string `yaml:"tiktok_site" mapstructure:"tiktok_site"`
	InstagramSite   string `yaml:"instagram_site" mapstructure:"instagram_site"`
	Dir             string `yaml:"dir" mapstructure:"dir"`
	TimeoutSecs     int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	SettleDelaySecs int    `yaml:"settle_delay_secs" mapstructure:"settle_delay_secs"`
	MaxAttempts     int    `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// ControllerConfig configures the per-item retry state machine.
type ControllerConfig struct {
	PollIntervalSecs int `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	RetryBudget      int `yaml:"retry_budget" mapstructure:"retry_budget"`
	StreamingBudget  int `yaml:"streaming_budget" mapstructure:"streaming_budget"`
	AcceptLength     int `yaml:"accept_length" mapstructure:"accept_length"`
	CheckMin         int `yaml:"check_min" mapstructure:"check_min"`
	CheckMax         int `yaml:"check_max" mapstructure:"check_max"`
}

// ClassifierConfig configures response completion detection.
type ClassifierConfig struct {
	ShortThreshold       int `yaml:"short_threshold" mapstructure:"short_threshold"`
	SubstantialThreshold int `yaml:"substantial_threshold" mapstructure:"substantial_threshold"`
	StabilityPolls       int `yaml:"stability_polls" mapstructure:"stability_polls"`
	MaxPolls             int `yaml:"max_polls" mapstructure:"max_polls"`
}

// StoreConfig configures the results backend.
type StoreConfig struct {
	// Driver is "csv" or "sqlite".
	Driver string `yaml:"driver" mapstructure:"driver"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// PipelineConfig configures batch behavior.
type PipelineConfig struct {
	WorklistPath string `yaml:"worklist_path" mapstructure:"worklist_path"`

	// ItemDelaySecs is the inter-item rate limit that keeps the run below
	// anti-automation thresholds.
	ItemDelaySecs int `yaml:"item_delay_secs" mapstructure:"item_delay_secs"`

	// DeleteArtifacts reclaims disk after a successful upload.
	DeleteArtifacts bool `yaml:"delete_artifacts" mapstructure:"delete_artifacts"`

	// Streaming escalates the retry budget for large unattended batches.
	Streaming bool `yaml:"streaming" mapstructure:"streaming"`

	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
}

// ServerConfig configures the status server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MVOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("chat.url", "https://chat.mvoice.ai")
	v.SetDefault("chat.settle_delay_secs", 5)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.session_path", "session.json")
	v.SetDefault("browser.staging_dir", ".staging")
	v.SetDefault("download.tiktok_site", "https://snaptik.app")
	v.SetDefault("download.instagram_site", "https://snapvideo.app")
	v.SetDefault("download.dir", "downloads")
	v.SetDefault("download.timeout_secs", 90)
	v.SetDefault("download.settle_delay_secs", 5)
	v.SetDefault("download.max_attempts", 3)
	v.SetDefault("controller.poll_interval_secs", 2)
	v.SetDefault("controller.retry_budget", 2)
	v.SetDefault("controller.streaming_budget", 5)
	v.SetDefault("controller.accept_length", 2000)
	v.SetDefault("controller.check_min", 500)
	v.SetDefault("controller.check_max", 1500)
	v.SetDefault("classifier.short_threshold", 200)
	v.SetDefault("classifier.substantial_threshold", 800)
	v.SetDefault("classifier.stability_polls", 5)
	v.SetDefault("classifier.max_polls", 300)
	v.SetDefault("store.driver", "csv")
	v.SetDefault("store.path", "output.csv")
	v.SetDefault("pipeline.worklist_path", "worklist.csv")
	v.SetDefault("pipeline.item_delay_secs", 5)
	v.SetDefault("pipeline.delete_artifacts", false)
	v.SetDefault("pipeline.streaming", false)
	v.SetDefault("pipeline.batch_size", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// RetryBudget resolves the controller budget for the run mode.
func (c *Config) RetryBudget() int {
	if c.Pipeline.Streaming {
		return c.Controller.StreamingBudget
	}
	return c.Controller.RetryBudget
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
