package server

import (
	"fmt"

	"github.com/blackbird-av/airplay2/pkg/base"
	"github.com/blackbird-av/airplay2/pkg/plist"
	"github.com/blackbird-av/airplay2/session"
)

// handleTeardown implements TEARDOWN (spec.md §4.6/§5): an empty or absent
// streams list cascades cancellation to every stream channel the session
// has open; a populated list cancels only the named streams.
func (c *connState) handleTeardown(req *base.Request) *base.Response {
	var tr plist.TeardownRequest
	if len(req.Content) > 0 {
		if err := plist.Decode(req.Content, &tr); err != nil {
			return errorResponse(fmt.Errorf("plist decode: %w", err))
		}
	}

	if len(tr.Streams) == 0 {
		c.state.Registry.Cascade()
		return okEmpty()
	}

	for _, ts := range tr.Streams {
		if ts.StreamID == nil {
			continue
		}
		c.state.Registry.CancelOne(session.StreamKey{ID: *ts.StreamID, Type: ts.Type})
	}
	return okEmpty()
}
