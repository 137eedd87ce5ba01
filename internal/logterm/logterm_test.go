package logterm_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/CZERTAINLY/s6compile/internal/logterm"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := logterm.Write(&buf, map[string]string{
		"web":     "/var/log/web",
		"migrate": "/var/log/migrate/",
	})
	require.NoError(t, err)
	require.Equal(t, `logsets:
  migrate: /var/log/migrate/current
  web: /var/log/web/current

`, buf.String())
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "etc", "logterm.yaml")
	require.NoError(t, logterm.WriteFile(path, map[string]string{"api": "/logs/api"}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg struct {
		Logsets map[string]string `yaml:"logsets"`
	}
	require.NoError(t, yaml.Unmarshal(b, &cfg))
	require.Equal(t, map[string]string{"api": "/logs/api/current"}, cfg.Logsets)
}

func TestWrite_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, logterm.Write(&buf, nil))

	var cfg struct {
		Logsets map[string]string `yaml:"logsets"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &cfg))
	require.Empty(t, cfg.Logsets)
}

func TestWrite_KeepsDirVerbatim(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := logterm.Write(&buf, map[string]string{
		"api":  "logs/../api",
		"jobs": "./jobs//",
	})
	require.NoError(t, err)

	var cfg struct {
		Logsets map[string]string `yaml:"logsets"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &cfg))
	require.Equal(t, map[string]string{
		"api":  "logs/../api/current",
		"jobs": "./jobs//current",
	}, cfg.Logsets)
}
