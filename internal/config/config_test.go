package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadServerConfig(t *testing.T) {
	path := writeTemp(t, `
ip = "0.0.0.0"
port = 9443
cert_path = "/etc/echodawn/server.crt"
key_path = "/etc/echodawn/server.key"
max_frame_size_bytes = 4194304

[edss_config]
plugin_name = "loopback"
ip = "127.0.0.1"
port = 5000
`)

	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.IP)
	require.EqualValues(t, 9443, cfg.Port)
	require.Equal(t, "/etc/echodawn/server.crt", cfg.CertPath)
	require.Equal(t, "loopback", cfg.Edss.PluginName)
	require.EqualValues(t, 5000, cfg.Edss.Port)
	require.EqualValues(t, 4194304, cfg.MaxFrameSizeBytes)
}

func TestLoadClientConfig(t *testing.T) {
	path := writeTemp(t, `
host = "edcs.example.com"
domain = "edcs.example.com"
port = 9443
cert = "/etc/echodawn/ca.pem"
disable_tls_verification = false
bitrate = 8000000
framerate = 60
host_cursor = true

[cal_plugin_params]
codec = "h264"
`)

	cfg, err := LoadClientConfig(path)
	require.NoError(t, err)
	require.Equal(t, "edcs.example.com", cfg.Host)
	require.EqualValues(t, 9443, cfg.Port)
	require.False(t, cfg.DisableTLSVerification)
	require.True(t, cfg.HostCursor)
	require.Equal(t, "h264", cfg.CalPluginParams["codec"])
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	_, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
