// Command airplay2d runs a standalone AirPlay 2 receiver core, discarding
// every decoded audio/video packet via pkg/sink's null device. It exists to
// exercise the Server end to end; a real deployment wires its own Sinks
// implementation in place of sink.NullDevice.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/blackbird-av/airplay2/config"
	"github.com/blackbird-av/airplay2/internal/logx"
	"github.com/blackbird-av/airplay2/pkg/crypto/fairplay"
	"github.com/blackbird-av/airplay2/pkg/keychain"
	"github.com/blackbird-av/airplay2/pkg/sink"
	"github.com/blackbird-av/airplay2/server"
)

func main() {
	var (
		addr    = flag.String("addr", ":5200", "address to listen on")
		name    = flag.String("name", "", "advertised device name")
		macAddr = flag.String("mac", "00:11:22:33:44:55", "advertised MAC address (deviceid), colon-separated hex")
		homekit = flag.Bool("homekit", false, "require HomeKit pair-setup instead of legacy pair-verify")
		pin     = flag.String("pin", "", "8-digit HomeKit pairing PIN, required when -homekit is set")
		jsonLog = flag.Bool("json", false, "emit structured JSON logs instead of console output")
		verbose = flag.Bool("v", false, "debug-level logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := logx.New(logx.Options{Level: level, JSON: *jsonLog})

	mac, err := parseMAC(*macAddr)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -mac")
	}

	kc, err := keychain.NewDefault(hex.EncodeToString(mac[:]), nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build keychain identity")
	}

	cfg := config.Config{
		MACAddr:  mac,
		Name:     *name,
		Keychain: kc,
	}

	if *homekit {
		cfg.PairingMode = config.PairingHomeKit
		p, err := parsePIN(*pin)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -pin")
		}
		cfg.PIN = &p
	}
	cfg = config.New(cfg)

	sinks := server.Sinks{
		AudioRealtime: sink.Adapt[sink.AudioParams, *sink.NullStream](sink.NullDevice[sink.AudioParams]{Log: log}),
		AudioBuffered: sink.Adapt[sink.AudioParams, *sink.NullStream](sink.NullDevice[sink.AudioParams]{Log: log}),
		Video:         sink.Adapt[sink.VideoParams, *sink.NullStream](sink.NullDevice[sink.VideoParams]{Log: log}),
	}

	srv := server.New(cfg, fairplay.NoopUnwrapper, sinks, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().Str("addr", *addr).Str("deviceid", cfg.DeviceID()).Msg("airplay2d starting")
	if err := srv.Serve(ctx, *addr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func parseMAC(s string) ([6]byte, error) {
	var out [6]byte
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return out, fmt.Errorf("mac address must have 6 colon-separated bytes, got %d", len(parts))
	}
	for i, p := range parts {
		b, err := hex.DecodeString(p)
		if err != nil || len(b) != 1 {
			return out, fmt.Errorf("invalid mac address byte %q", p)
		}
		out[i] = b[0]
	}
	return out, nil
}

func parsePIN(s string) (config.PIN, error) {
	s = strings.ReplaceAll(s, "-", "")
	if len(s) != 8 {
		return config.PIN{}, fmt.Errorf("pin must have 8 digits, got %d", len(s))
	}
	var digits [8]byte
	for i := 0; i < 8; i++ {
		if s[i] < '0' || s[i] > '9' {
			return config.PIN{}, fmt.Errorf("pin must be all digits")
		}
		digits[i] = s[i] - '0'
	}
	return config.NewPIN(digits)
}
