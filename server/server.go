// Package server implements the AirPlay 2 receiver core's RTSP-over-HTTP
// request pipeline (spec.md §2/§4): the accept loop, per-connection state,
// the fixed route table, and the handlers that drive pairing, SETUP, and
// stream teardown.
package server

import (
	"context"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/blackbird-av/airplay2/config"
	"github.com/blackbird-av/airplay2/pkg/crypto/fairplay"
	"github.com/blackbird-av/airplay2/pkg/sink"
)

// Sinks bundles the three playback-sink collaborators a Server hands
// decoded packets to, widened to the Stream interface via sink.Adapt so a
// Server doesn't need to be generic over a caller's concrete stream type
// (spec.md §6's playback sink contract).
type Sinks struct {
	AudioRealtime sink.Device[sink.AudioParams, sink.Stream]
	AudioBuffered sink.Device[sink.AudioParams, sink.Stream]
	Video         sink.Device[sink.VideoParams, sink.Stream]
}

// Server accepts RTSP-over-HTTP connections and runs the receiver core's
// request pipeline on each.
type Server struct {
	cfg       config.Config
	unwrapper fairplay.KeyUnwrapper
	sinks     Sinks
	log       zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New constructs a Server. A nil unwrapper is replaced with
// fairplay.NoopUnwrapper so a Server is always safe to construct before a
// real FairPlay-3 collaborator is wired in.
func New(cfg config.Config, unwrapper fairplay.KeyUnwrapper, sinks Sinks, log zerolog.Logger) *Server {
	if unwrapper == nil {
		unwrapper = fairplay.NoopUnwrapper
	}
	return &Server{cfg: cfg, unwrapper: unwrapper, sinks: sinks, log: log}
}

// Serve listens on addr (spec.md §6 names ":5200" as the default) and
// accepts connections, each handled on its own goroutine, until ctx is
// cancelled or the listener fails. A dual-stack IPv6 socket with
// IPV6_V6ONLY disabled is used so one listener serves both address
// families, mirroring spec.md §6's networking note.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := listenDualStack(addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		ln.Close() //nolint:errcheck
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handleConn(ctx, nc)
	}
}

// Close stops accepting new connections. Connections already accepted run
// to completion on their own goroutines.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}
