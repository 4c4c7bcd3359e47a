// Package config loads the TOML configuration files for the server and
// client binaries (spec §4, ambient configuration concern), in the style
// the pack uses for TOML-backed config structs: exported fields with
// explicit `toml:"..."` tags, decoded with github.com/BurntSushi/toml.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// EdssConfig names the CAL backend plugin to load and the loopback address
// it should bind, mirroring session.PluginConfig.
type EdssConfig struct {
	PluginName string `toml:"plugin_name"`
	IP         string `toml:"ip"`
	Port       uint16 `toml:"port"`
}

// ServerConfig is the edcs server's top-level config file.
type ServerConfig struct {
	IP       string     `toml:"ip"`
	Port     uint16     `toml:"port"`
	CertPath string     `toml:"cert_path"`
	KeyPath  string     `toml:"key_path"`
	Edss     EdssConfig `toml:"edss_config"`

	// MaxFrameSizeBytes overrides protocol.DefaultMaxFrameSize when
	// non-zero, for operators running over a transport with a tighter
	// message-size ceiling.
	MaxFrameSizeBytes uint64 `toml:"max_frame_size_bytes"`
}

// ClientConfig is the edc client's top-level config file.
type ClientConfig struct {
	Host                   string `toml:"host"`
	Domain                 string `toml:"domain"`
	Port                   uint16 `toml:"port"`
	Cert                   string `toml:"cert"`
	DisableTLSVerification bool   `toml:"disable_tls_verification"`

	Bitrate   uint32 `toml:"bitrate"`
	Framerate uint32 `toml:"framerate"`

	// CalPluginParams seeds the capability dictionary offered to
	// SetupStream before the user edits it, per plugin-specific defaults
	// (spec §4.7 StreamConfig merge).
	CalPluginParams map[string]string `toml:"cal_plugin_params"`

	// HostCursor mirrors the original client's preference to render the
	// host-provided cursor rather than a client-local one.
	HostCursor bool `toml:"host_cursor"`
}

// LoadServerConfig decodes a ServerConfig from path.
func LoadServerConfig(path string) (*ServerConfig, error) {
	var cfg ServerConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode server config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadClientConfig decodes a ClientConfig from path.
func LoadClientConfig(path string) (*ClientConfig, error) {
	var cfg ClientConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode client config %s: %w", path, err)
	}
	return &cfg, nil
}
