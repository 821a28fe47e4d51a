package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/callguard/callguard/pkg/domain/safety"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Audio         AudioConfig         `mapstructure:"audio"`
	Speech        SpeechConfig        `mapstructure:"speech"`
	ContentSafety ContentSafetyConfig `mapstructure:"content_safety"`
	Search        SearchConfig        `mapstructure:"search"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Safety        SafetyConfig        `mapstructure:"safety"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type RedisConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

type AudioConfig struct {
	FFmpegBinary string `mapstructure:"ffmpeg_binary"`
	TempDir      string `mapstructure:"temp_dir"`
}

type SpeechConfig struct {
	Region      string `mapstructure:"region"`
	Key         string `mapstructure:"key"`
	Language    string `mapstructure:"language"`
	Endpoint    string `mapstructure:"endpoint"`
	UseIdentity bool   `mapstructure:"use_identity"`
}

type ContentSafetyConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	Key        string `mapstructure:"key"`
	APIVersion string `mapstructure:"api_version"`
}

type SearchConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	Key        string `mapstructure:"key"`
	Index      string `mapstructure:"index"`
	APIVersion string `mapstructure:"api_version"`
}

type AzureLLMConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	APIVersion  string `mapstructure:"api_version"`
	UseIdentity bool   `mapstructure:"use_identity"`
}

type LLMConfig struct {
	Provider            string         `mapstructure:"provider"`
	APIKey              string         `mapstructure:"api_key"`
	ClassificationModel string         `mapstructure:"classification_model"`
	GuidanceModel       string         `mapstructure:"guidance_model"`
	MaxTokens           int            `mapstructure:"max_tokens"`
	Temperature         float64        `mapstructure:"temperature"`
	Azure               AzureLLMConfig `mapstructure:"azure"`
}

type SafetyConfig struct {
	// Thresholds maps category names to the minimum severity that rejects.
	// -1 disables a category. Categories not listed use the default of 4.
	Thresholds map[string]int `mapstructure:"thresholds"`
}

var globalConfig Config

func Load(configPath string) error {
	if err := loadConfigFile(configPath, "config", &globalConfig); err != nil {
		return err
	}
	setDefaultValues()
	return nil
}

func loadConfigFile(configPath, fileName string, out interface{}) error {
	viper.SetConfigName(fileName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
		}
		// No file is fine: everything can come from the environment.
	}

	if err := viper.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", fileName, err)
	}

	return nil
}

func setDefaultValues() {
	if globalConfig.Server.Port == 0 {
		globalConfig.Server.Port = 8080
	}
	if globalConfig.Server.MetricsPort == 0 {
		globalConfig.Server.MetricsPort = 9090
	}
	if globalConfig.Redis.Port == 0 {
		globalConfig.Redis.Port = 6379
	}
	if globalConfig.Redis.TTLSeconds == 0 {
		globalConfig.Redis.TTLSeconds = 300
	}
	if globalConfig.Audio.FFmpegBinary == "" {
		globalConfig.Audio.FFmpegBinary = "ffmpeg"
	}
	if globalConfig.Speech.Language == "" {
		globalConfig.Speech.Language = "ko-KR"
	}
	if globalConfig.ContentSafety.APIVersion == "" {
		globalConfig.ContentSafety.APIVersion = "2024-09-01"
	}
	if globalConfig.Search.APIVersion == "" {
		globalConfig.Search.APIVersion = "2023-11-01"
	}
	if globalConfig.LLM.Provider == "" {
		globalConfig.LLM.Provider = "azure"
	}
	if globalConfig.LLM.MaxTokens == 0 {
		globalConfig.LLM.MaxTokens = 1024
	}
}

func GetConfig() *Config {
	return &globalConfig
}

// DecisionThresholds builds the decision engine's threshold table: defaults
// overlaid with the configured per-category values. Unknown category names
// are ignored.
func (c *SafetyConfig) DecisionThresholds() safety.Thresholds {
	thresholds := safety.DefaultThresholds()
	for name, value := range c.Thresholds {
		category := safety.Category(name)
		if _, ok := thresholds[category]; ok {
			thresholds[category] = value
		}
	}
	return thresholds
}
