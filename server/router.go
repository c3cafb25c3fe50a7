package server

import (
	"github.com/blackbird-av/airplay2/pkg/base"
)

// dispatch implements spec.md §4.2's fixed route table: a handful of named
// top-level paths, with every other path/method pair (the per-media-item
// RTSP verbs) routed purely on method regardless of the path component.
func (c *connState) dispatch(req *base.Request) *base.Response {
	switch {
	case req.Method == base.MethodGet && req.Path == "/info":
		return c.handleInfo(req)
	case req.Method == base.MethodPost && (req.Path == "/feedback" || req.Path == "/command"):
		return okEmpty()
	case req.Method == base.MethodPost && req.Path == "/fp-setup":
		return c.handleFairPlay(req)
	case req.Method == base.MethodPost && req.Path == "/pair-setup":
		return c.handlePairSetup(req)
	case req.Method == base.MethodPost && req.Path == "/pair-verify":
		return c.handlePairVerify(req)
	default:
		return c.handleMedia(req)
	}
}

// handleMedia dispatches the ANY /{mediaId} route by method, spec.md §4.2.
func (c *connState) handleMedia(req *base.Request) *base.Response {
	switch req.Method {
	case base.MethodSetup:
		return c.handleSetup(req)
	case base.MethodGetParameter:
		return c.handleGetParameter(req)
	case base.MethodSetParameter:
		return c.handleSetParameter(req)
	case base.MethodTeardown:
		return c.handleTeardown(req)
	case base.MethodRecord, base.MethodFlush, base.MethodFlushBuffered,
		base.MethodSetRateAnchorTime, base.MethodSetPeers:
		return okEmpty()
	default:
		c.log.Trace().Str("method", string(req.Method)).Str("path", req.Path).Msg("unhandled method, replying empty 200")
		return okEmpty()
	}
}
