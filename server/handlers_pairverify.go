package server

import (
	"github.com/blackbird-av/airplay2/internal/airerrors"
	"github.com/blackbird-av/airplay2/pkg/base"
)

// handlePairVerify implements the legacy ECDH + Ed25519 pair-verify
// exchange over POST /pair-verify (spec.md §4.3). The body's leading byte
// is a mode flag: non-zero selects M1 (establish agreement), zero selects
// M2 (verify the controller's signature).
func (c *connState) handlePairVerify(req *base.Request) *base.Response {
	pv := c.state.PairVerify()
	if pv == nil {
		return errorResponse(airerrors.ErrWrongState{Reason: "pair-verify is not enabled for this session"})
	}

	body := req.Content
	if len(body) < 4 {
		return errorResponse(airerrors.ErrMalformedRequest{Reason: "pair-verify body too short"})
	}

	if body[0] != 0 {
		const m1Len = 4 + 32 + 32
		if len(body) < m1Len {
			return errorResponse(airerrors.ErrMalformedRequest{Reason: "pair-verify M1 body too short"})
		}

		var theirPub, theirVerify [32]byte
		copy(theirPub[:], body[4:36])
		copy(theirVerify[:], body[36:68])

		resp, _, err := pv.EstablishAgreement(theirPub, theirVerify)
		if err != nil {
			return errorResponse(err)
		}
		return octetResponse(resp[:])
	}

	const m2Len = 4 + 64
	if len(body) < m2Len {
		return errorResponse(airerrors.ErrMalformedRequest{Reason: "pair-verify M2 body too short"})
	}

	var sig [64]byte
	copy(sig[:], body[4:68])
	if err := pv.VerifyAgreement(sig); err != nil {
		return errorResponse(airerrors.ErrAuthenticationFailed{Reason: err.Error()})
	}
	return okEmpty()
}
