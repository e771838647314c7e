package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("missing file should give defaults (-want +got):\n%s", diff)
	}

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ".tif", cfg.Export.Ext)
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imsread.yaml")
	data := `
export:
  outDir: /data/out
plot:
  width: 8
logging:
  verbose: true
  maxAge: 3
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/out", cfg.Export.OutDir)
	assert.Equal(t, ".tif", cfg.Export.Ext, "unset keys keep defaults")
	assert.Equal(t, 8.0, cfg.Plot.Width)
	assert.Equal(t, 6.0, cfg.Plot.Height)
	assert.True(t, cfg.Logging.Verbose)
	assert.Equal(t, 3, cfg.Logging.MaxAge)
	assert.Equal(t, 100, cfg.Logging.MaxSize)
}

func TestLoadConfigTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imsread.toml")
	data := `
[export]
ext = ".tiff"

[logging]
logfile = "/var/log/imsread.log"
max_log_size = 10
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ".tiff", cfg.Export.Ext)
	assert.Equal(t, "/var/log/imsread.log", cfg.Logging.Logfile)
	assert.Equal(t, 10, cfg.Logging.MaxSize)
	assert.Equal(t, 28, cfg.Logging.MaxAge)
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"bad.yaml":  "plot: [1, 2",
		"ext.yaml":  "export:\n  ext: tif\n",
		"size.yaml": "plot:\n  width: 0\n",
		"bad.toml":  "[export\next = 1",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	for _, name := range []string{"cfg/imsread.yaml", "cfg/imsread.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			want := DefaultConfig()
			want.Export.OutDir = "exports"
			want.Plot.Colors = 64
			want.Logging.Verbose = true

			require.NoError(t, SaveConfig(want, path))
			got, err := LoadConfig(path)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExportBase(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "run1", cfg.ExportBase("run1"))

	cfg.Export.OutDir = "/out"
	assert.Equal(t, filepath.Join("/out", "run1"), cfg.ExportBase("run1"))
	assert.Equal(t, "/abs/run1", cfg.ExportBase("/abs/run1"))
}

func TestLogger(t *testing.T) {
	var lc LogConfig
	l, c := lc.Logger("imsread: ")
	require.NotNil(t, l)
	assert.NoError(t, c.Close())

	lc.Verbose = true
	lc.Logfile = filepath.Join(t.TempDir(), "imsread.log")
	l, c = lc.Logger("imsread: ")
	l.Print("hello")
	require.NoError(t, c.Close())

	data, err := os.ReadFile(lc.Logfile)
	require.NoError(t, err)
	assert.Regexp(t, `^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2} imsread: hello\n$`, string(data))
}
