package server

import (
	"bufio"
	"context"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/blackbird-av/airplay2/pkg/base"
	"github.com/blackbird-av/airplay2/pkg/rtsphttp"
	"github.com/blackbird-av/airplay2/pkg/sink"
	"github.com/blackbird-av/airplay2/session"
	"github.com/blackbird-av/airplay2/streams"
)

const (
	connReadBufSize  = 4096
	connWriteBufSize = 4096
)

// connState is the per-connection handler context: the RTSP/HTTP socket,
// the session.State it owns, and the bits a handler needs to open new
// listeners on the same local address the client reached us on.
type connState struct {
	server *Server
	conn   net.Conn
	state  *session.State
	ctx    context.Context
	log    zerolog.Logger

	mu              sync.Mutex
	lastAudioStream sink.Stream
}

// handleConn runs one connection's request/response loop until the client
// disconnects or sends something the codec can't parse, then cascades
// cancellation to every stream channel the connection ever set up
// (spec.md §5's teardown-on-disconnect rule).
func (s *Server) handleConn(ctx context.Context, nc net.Conn) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer nc.Close() //nolint:errcheck

	state := session.New(s.cfg)
	log := s.log.With().Str("session", state.ID).Str("remote", nc.RemoteAddr().String()).Logger()
	defer state.Registry.Cascade()

	c := &connState{
		server: s,
		conn:   nc,
		state:  state,
		ctx:    connCtx,
		log:    log,
	}

	br := bufio.NewReaderSize(nc, connReadBufSize)
	bw := bufio.NewWriterSize(nc, connWriteBufSize)

	for {
		req, err := rtsphttp.DecodeRequest(br)
		if err != nil {
			if !streams.IsRecoverable(err) {
				log.Debug().Err(err).Msg("connection read failed")
			}
			return
		}

		res := c.dispatch(req)
		if res.Header == nil {
			res.Header = make(base.Header)
		}
		if cseq, ok := req.Header.Get("CSeq"); ok {
			res.Header.Set("CSeq", cseq)
		}

		if err := rtsphttp.EncodeResponse(bw, res); err != nil {
			log.Debug().Err(err).Msg("connection write failed")
			return
		}
	}
}

func (c *connState) setAudioStream(strm sink.Stream) {
	c.mu.Lock()
	c.lastAudioStream = strm
	c.mu.Unlock()
}

func (c *connState) currentAudioStream() sink.Stream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAudioStream
}
