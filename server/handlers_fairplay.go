package server

import (
	"github.com/blackbird-av/airplay2/pkg/base"
	"github.com/blackbird-av/airplay2/pkg/crypto/fairplay"
)

// handleFairPlay implements the stateless FairPlay-3 challenge/response
// over POST /fp-setup (spec.md §4.5), saving the seq==3/M3Len message into
// SessionState for the key unwrap that happens later during SETUP.
func (c *connState) handleFairPlay(req *base.Request) *base.Response {
	reply, savedM3, err := fairplay.Decode(req.Content)
	if err != nil {
		return errorResponse(err)
	}
	if savedM3 != nil {
		c.state.SetFPLastMsg(savedM3)
	}
	return octetResponse(reply)
}
