package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load("")
	req.NoError(err)
	req.Equal("info", cfg.Log.Level)
	req.Equal("UTC", cfg.Parser.Timezone)
	req.Equal(1920, cfg.Cloud.Width)
	req.Equal(960, cfg.Cloud.MaskCropSize)
	req.Equal([]string{"[图片]", "[表情]"}, cfg.Cloud.NoisePhrases)
	req.Equal(uint64(42), cfg.Cloud.Seed)
	req.Equal("gemini-embedding-001", cfg.Gemini.EmbeddingModel)
	req.Equal(5, cfg.RAG.TopK)
	req.ErrorIs(cfg.RequireAPIKey(), ErrMissingAPIKey)
}

func TestLoad_MissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "data/archive", cfg.Archive.Dir)
}

func TestLoad_File(t *testing.T) {
	req := require.New(t)
	t.Setenv("GEMINI_API_KEY", "")
	path := writeConfig(t, `
log:
  level: debug
parser:
  timezone: Asia/Shanghai
cloud:
  width: 800
  height: 600
  noise_phrases: ["[语音]"]
  background: white
gemini:
  api_key: from-file
`)

	cfg, err := Load(path)
	req.NoError(err)
	req.Equal("debug", cfg.Log.Level)
	req.Equal(800, cfg.Cloud.Width)
	req.Equal(600, cfg.Cloud.Height)
	req.Equal([]string{"[语音]"}, cfg.Cloud.NoisePhrases)
	req.Equal("white", cfg.Cloud.Background)
	req.NoError(cfg.RequireAPIKey())

	loc, err := cfg.Parser.Location()
	req.NoError(err)
	req.Equal("Asia/Shanghai", loc.String())
}

func TestLoad_EnvOverridesAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	path := writeConfig(t, "gemini:\n  api_key: from-file\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Gemini.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad level", "log:\n  level: loud\n"},
		{"zero width", "cloud:\n  width: 0\n"},
		{"font sizes inverted", "cloud:\n  min_font_size: 50\n  max_font_size: 10\n"},
		{"unknown timezone", "parser:\n  timezone: Mars/Olympus\n"},
		{"bad background", "cloud:\n  background: purple\n"},
		{"similarity out of range", "rag:\n  min_similarity: 2\n"},
		{"malformed yaml", "cloud: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.example.yaml"))
	require.NoError(t, err)
	require.Equal(t, "Asia/Shanghai", cfg.Parser.Timezone)
	require.Equal(t, 648, cfg.Cloud.MaxWords)
}
