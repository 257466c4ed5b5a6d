package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/typlsp/internal/memo"
	"github.com/Sumatoshi-tech/typlsp/internal/position"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ExportNever, cfg.ExportModeValue())
	assert.Equal(t, uint64(memo.DefaultMaxAge), cfg.Eviction.MaxAge)
	assert.True(t, cfg.Fonts.Embedded)
	assert.Empty(t, cfg.Fonts.Dirs)
	assert.Equal(t, position.UTF16, cfg.Encoding())
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoadConfig_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "typlsp.yaml")
	content := `export:
  mode: onSave
eviction:
  max_age: 5
fonts:
  dirs:
    - /usr/share/fonts
position:
  encoding: utf-8
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ExportOnSave, cfg.ExportModeValue())
	assert.Equal(t, uint64(5), cfg.Eviction.MaxAge)
	assert.Equal(t, []string{"/usr/share/fonts"}, cfg.Fonts.Dirs)
	assert.Equal(t, position.UTF8, cfg.Encoding())
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("TYPLSP_EXPORT_MODE", "onType")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ExportOnType, cfg.ExportModeValue())
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"bad export mode": "export:\n  mode: sometimes\n",
		"zero max age":    "eviction:\n  max_age: 0\n",
		"bad encoding":    "position:\n  encoding: utf-32\n",
		"bad log level":   "log:\n  level: loud\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "typlsp.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Export:   ExportConfig{Mode: string(ExportNever)},
		Eviction: EvictionConfig{MaxAge: 1},
		Position: PositionConfig{Encoding: "utf-16"},
		Log:      LogConfig{Level: "info"},
	}
	require.NoError(t, cfg.Validate())

	cfg.Export.Mode = "whenever"
	assert.Error(t, cfg.Validate())
}
