package cal

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// knownOptionKeys are the cal_option_dict keys the loopback backend
// recognises. Per spec §9 open question 3, an unknown key is a hard
// backend error (not silently dropped), reported as EdssErrData.
var knownOptionKeys = map[string]struct{}{
	"vgpuId":     {},
	"preset":     {},
	"gpuIndex":   {},
	"colorSpace": {},
}

// errUnknownOptionCode is the opaque EdssErr code for an unrecognised
// cal_option_dict key.
const errUnknownOptionCode int32 = 1001

// loopbackBackend is a software stand-in for the native CAL backend: it
// tracks virtual input-device state and synthesises an SDP string, with no
// actual media emission. It exists so the session/dispatcher layers are
// fully testable without a native dependency (spec §1 treats the real CAL
// backend as an external collaborator).
type loopbackBackend struct {
	mu       sync.Mutex
	opened   bool
	started  bool
	mousePos MouseMoveIn
	buttons  map[int]bool
	keys     map[int32]bool
}

func newLoopbackBackend() *loopbackBackend {
	return &loopbackBackend{
		buttons: map[int]bool{},
		keys:    map[int32]bool{},
	}
}

func (b *loopbackBackend) Open(pluginName string) (map[string]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = true
	log.Debug().Str("backend", "loopback").Str("plugin", pluginName).Msg("cal backend opened")
	return map[string]string{
		"vgpuId": "",
		"preset": "balanced",
	}, nil
}

func (b *loopbackBackend) InitServer(cfg BackendConfig) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key := range cfg.CalOptionDict {
		if _, ok := knownOptionKeys[key]; !ok {
			return "", &BackendError{Code: errUnknownOptionCode, Message: fmt.Sprintf("unknown cal_option_dict key %q", key)}
		}
	}

	sdp := fmt.Sprintf(
		"v=0\r\no=- 0 0 IN IP4 %s\r\ns=echodawn\r\nc=IN IP4 %s\r\nt=0 0\r\nm=video %d RTP/SAVP 96\r\na=rtpmap:96 H264/90000\r\na=crypto:1 AES_CM_128_HMAC_SHA1_80 inline:%s\r\n",
		cfg.IP, cfg.IP, cfg.Port, cfg.SrtpOutParams,
	)
	log.Debug().Str("backend", "loopback").Uint32("bitrate", cfg.Bitrate).Uint32("framerate", cfg.Framerate).Msg("cal backend configured")
	return sdp, nil
}

func (b *loopbackBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = true
	log.Debug().Str("backend", "loopback").Msg("cal backend streaming started")
	return nil
}

func (b *loopbackBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = false
	log.Debug().Str("backend", "loopback").Msg("cal backend streaming stopped")
	return nil
}

func (b *loopbackBackend) WriteMouse(ev MouseEventIn) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ev.Move != nil {
		b.mousePos = *ev.Move
	}
	if ev.Button != nil {
		b.buttons[ev.Button.Code] = ev.Button.Pressed
	}
	return nil
}

func (b *loopbackBackend) WriteKeyboard(ev KeyboardEventIn) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys[ev.KeyCode] = ev.Pressed
	return nil
}
