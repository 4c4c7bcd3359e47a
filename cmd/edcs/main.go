// Command edcs runs the EDCS server: it accepts TLS connections, dispatches
// the control-channel protocol per session, and drives a CAL backend
// adapter to actually stand up the media stream.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yuv418/echodawn/internal/config"
	"github.com/yuv418/echodawn/internal/serverconn"
	"github.com/yuv418/echodawn/internal/session"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "edcs",
	Short: "Run the EDCS remote-desktop control-plane server",
	Long:  `edcs accepts TLS client connections and brokers them to a CAL backend adapter, one session per connection.`,
	RunE:  runServer,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "/etc/echodawn/edcs.toml", "path to the server TOML config file")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServerConfig(configFile)
	if err != nil {
		return err
	}

	ip := net.ParseIP(cfg.Edss.IP)
	if ip == nil {
		return fmt.Errorf("edcs: invalid edss_config.ip %q", cfg.Edss.IP)
	}

	serverCfg := serverconn.Config{
		IP:       cfg.IP,
		Port:     int(cfg.Port),
		CertPath: cfg.CertPath,
		KeyPath:  cfg.KeyPath,
		EdssConfig: session.PluginConfig{
			PluginName: cfg.Edss.PluginName,
			IP:         ip,
			Port:       int(cfg.Edss.Port),
		},
		MaxFrameSize: cfg.MaxFrameSizeBytes,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().Str("config_file", configFile).Msg("loaded edcs config")
	return serverconn.Run(ctx, serverCfg)
}

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("edcs exited with error")
	}
}
