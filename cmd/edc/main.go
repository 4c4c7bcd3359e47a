// Command edc is the EDCS client control-plane driver: it connects to an
// edcs server, runs the SetupEdcs/SetupStream/StartStream handshake, and
// reports the negotiated SDP. Video decoding and rendering are out of
// scope; a real client links this protocol plumbing to its own decoder.
package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yuv418/echodawn/internal/broker"
	"github.com/yuv418/echodawn/internal/clienttransport"
	"github.com/yuv418/echodawn/internal/config"
	"github.com/yuv418/echodawn/internal/mirror"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "edc",
	Short: "Drive an EDCS remote-desktop session from the command line",
	Long:  `edc connects to an edcs server and runs the control-channel handshake through to Handoff, printing the negotiated SDP.`,
	RunE:  runClient,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "/etc/echodawn/edc.toml", "path to the client TOML config file")
}

// recvUntil blocks until a broker.Response arrives or timeout elapses.
func recvUntil(b *broker.Broker, timeout time.Duration) (broker.Response, error) {
	type result struct {
		resp broker.Response
		ok   bool
	}
	ch := make(chan result, 1)
	go func() {
		resp, ok := b.Recv()
		ch <- result{resp, ok}
	}()
	select {
	case r := <-ch:
		if !r.ok {
			return broker.Response{}, fmt.Errorf("edc: broker closed before a response arrived")
		}
		return r.resp, nil
	case <-time.After(timeout):
		return broker.Response{}, fmt.Errorf("edc: timed out waiting for a response")
	}
}

func runClient(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadClientConfig(configFile)
	if err != nil {
		return err
	}

	dialCfg := clienttransport.DialConfig{
		Host:                   cfg.Host,
		Domain:                 cfg.Domain,
		Port:                   int(cfg.Port),
		CertPath:               cfg.Cert,
		DisableTLSVerification: cfg.DisableTLSVerification,
	}

	b := broker.New()
	defer b.Close()
	m := mirror.New()

	m.BeginConnect()
	if err := b.Push(broker.NewClientRequest(dialCfg)); err != nil {
		return fmt.Errorf("edc: push NewClient: %w", err)
	}
	resp, err := recvUntil(b, 10*time.Second)
	if err != nil {
		return err
	}
	m.Apply(resp)
	if m.Phase() != mirror.AwaitSetupEdcs {
		return fmt.Errorf("edc: connect failed: %w", m.LastErr())
	}
	log.Info().Str("host", cfg.Host).Msg("connected")

	if err := b.Push(broker.SetupEdcsRequest(cfg.Bitrate, cfg.Framerate)); err != nil {
		return fmt.Errorf("edc: push SetupEdcs: %w", err)
	}
	resp, err = recvUntil(b, 10*time.Second)
	if err != nil {
		return err
	}
	m.Apply(resp)
	if m.Phase() != mirror.AwaitSetupStream {
		return fmt.Errorf("edc: SetupEdcs failed: %w", m.LastErr())
	}

	calOptionDict := m.Config().CalOptionDict
	if calOptionDict == nil {
		calOptionDict = make(map[string]string)
	}
	for k, v := range cfg.CalPluginParams {
		calOptionDict[k] = v
	}

	if err := b.Push(broker.SetupStreamRequest(calOptionDict)); err != nil {
		return fmt.Errorf("edc: push SetupStream: %w", err)
	}
	resp, err = recvUntil(b, 10*time.Second)
	if err != nil {
		return err
	}
	m.Apply(resp)
	if m.Phase() != mirror.Handoff {
		return fmt.Errorf("edc: SetupStream failed: %w", m.LastErr())
	}

	if err := b.Push(broker.StartStreamRequest()); err != nil {
		return fmt.Errorf("edc: push StartStream: %w", err)
	}
	resp, err = recvUntil(b, 10*time.Second)
	if err != nil {
		return err
	}
	if resp.Kind == broker.RespRPC && resp.RPC != nil {
		log.Info().Str("status", resp.RPC.Status.String()).Msg("StartStream acknowledged")
	}

	fmt.Println(m.Config().Sdp)
	return nil
}

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("edc exited with error")
	}
}
