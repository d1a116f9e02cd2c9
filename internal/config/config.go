package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // parser.timezone 在没有系统时区库的机器上也能解析

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingAPIKey = errors.New("gemini.api_key is required (set in config or GEMINI_API_KEY env)")

var validate = validator.New()

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Parser  ParserConfig  `mapstructure:"parser"`
	Cloud   CloudConfig   `mapstructure:"cloud"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Search  SearchConfig  `mapstructure:"search"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	RAG     RAGConfig     `mapstructure:"rag"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type ParserConfig struct {
	Timezone string `mapstructure:"timezone" validate:"required"`
}

type CloudConfig struct {
	FontPath      string   `mapstructure:"font_path"`
	Width         int      `mapstructure:"width" validate:"gt=0"`
	Height        int      `mapstructure:"height" validate:"gt=0"`
	MaxWords      int      `mapstructure:"max_words" validate:"gt=0"`
	MinFontSize   float64  `mapstructure:"min_font_size" validate:"gt=0"`
	MaxFontSize   float64  `mapstructure:"max_font_size" validate:"gtefield=MinFontSize"`
	Margin        int      `mapstructure:"margin" validate:"gte=0"`
	StopwordsPath string   `mapstructure:"stopwords_path"`
	MaskPath      string   `mapstructure:"mask_path"`
	MaskCropSize  int      `mapstructure:"mask_crop_size" validate:"gt=0"`
	NoisePhrases  []string `mapstructure:"noise_phrases"`
	StripMarkup   bool     `mapstructure:"strip_markup"`
	Seed          uint64   `mapstructure:"seed"`
	Background    string   `mapstructure:"background" validate:"oneof=black white"`
}

type ArchiveConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

type SearchConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api_key"`
	EmbeddingModel string `mapstructure:"embedding_model" validate:"required"`
	RPMLimit       int    `mapstructure:"rpm_limit" validate:"gt=0"`
}

type RAGConfig struct {
	VectorsDir    string  `mapstructure:"vectors_dir" validate:"required"`
	TopK          int     `mapstructure:"top_k" validate:"gt=0"`
	MinSimilarity float32 `mapstructure:"min_similarity" validate:"gte=-1,lte=1"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("parser.timezone", "UTC")

	v.SetDefault("cloud.font_path", "")
	v.SetDefault("cloud.width", 1920)
	v.SetDefault("cloud.height", 1920)
	v.SetDefault("cloud.max_words", 648)
	v.SetDefault("cloud.min_font_size", 12)
	v.SetDefault("cloud.max_font_size", 240)
	v.SetDefault("cloud.margin", 10)
	v.SetDefault("cloud.stopwords_path", "")
	v.SetDefault("cloud.mask_path", "")
	v.SetDefault("cloud.mask_crop_size", 960)
	v.SetDefault("cloud.noise_phrases", []string{"[图片]", "[表情]"})
	v.SetDefault("cloud.strip_markup", false)
	v.SetDefault("cloud.seed", 42)
	v.SetDefault("cloud.background", "black")

	v.SetDefault("archive.dir", "data/archive")
	v.SetDefault("search.dir", "data/search")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.embedding_model", "gemini-embedding-001")
	v.SetDefault("gemini.rpm_limit", 100)

	v.SetDefault("rag.vectors_dir", "data/vectors")
	v.SetDefault("rag.top_k", 5)
	v.SetDefault("rag.min_similarity", 0.5)
}

// Load 读取配置。path 为空或文件不存在时只用默认值和环境变量。
func Load(path string) (*Config, error) {
	// .env 不存在不算错误
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config: %w", err)
			}
			slog.Debug("config file not found, using defaults", "path", path)
		}
	}

	// 环境变量覆盖
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		v.Set("gemini.api_key", key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Parser.Location(); err != nil {
		return err
	}
	return nil
}

// RequireAPIKey embed / similar 命令需要 Gemini key
func (c *Config) RequireAPIKey() error {
	if c.Gemini.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Location 解析 parser.timezone
func (p ParserConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("parser.timezone: %w", err)
	}
	return loc, nil
}
