package server

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blackbird-av/airplay2/internal/airerrors"
	"github.com/blackbird-av/airplay2/pkg/base"
	"github.com/blackbird-av/airplay2/pkg/crypto/pairsetup"
	"github.com/blackbird-av/airplay2/pkg/tlv8"
)

// handlePairSetup implements HomeKit's SRP-6a-3072 pair-setup exchange
// over POST /pair-setup (spec.md §4.4): a TLV8-framed M1/M2 salt+verifier
// exchange followed by an M3/M4 proof exchange, and optionally the M5/M6
// trust exchange when transient completion is enabled. Unlike pair-verify,
// failures of the exchange itself are reported as a 200 response carrying
// a TLV8 Error record (spec.md §7); a session without pair-setup (403), a
// malformed body (400) and an MFi request (500) get an HTTP error status.
func (c *connState) handlePairSetup(req *base.Request) *base.Response {
	ps := c.state.PairSetup()
	if ps == nil {
		return errorResponse(airerrors.ErrWrongState{Reason: "pair-setup is not enabled for this session"})
	}

	values, err := tlv8.Decode(req.Content)
	if err != nil {
		return errorResponse(airerrors.ErrMalformedRequest{Reason: err.Error()})
	}

	if method, ok := values.GetByte(tlv8.TagMethod); ok && tlv8.Method(method) == tlv8.MethodPairSetupAuth {
		return errorResponse(errors.New("MFi authentication not supported"))
	}

	state, ok := values.GetByte(tlv8.TagState)
	if !ok {
		return errorResponse(airerrors.ErrMalformedRequest{Reason: "pair-setup: missing state"})
	}

	switch tlv8.PairingState(state) {
	case tlv8.StateM1:
		return c.pairSetupM1(ps, values)
	case tlv8.StateM3:
		return c.pairSetupM3(ps, values)
	case tlv8.StateM5:
		return c.pairSetupM5(ps, values)
	default:
		return errorResponse(airerrors.ErrMalformedRequest{Reason: fmt.Sprintf("pair-setup: unexpected state %d", state)})
	}
}

// pairSetupFlags reads the optional 32-bit little-endian Flags record
// (TRANSIENT is bit 4); an absent or short record decodes as zero.
func pairSetupFlags(values tlv8.Values) uint32 {
	raw, ok := values.Get(tlv8.TagFlags)
	if !ok {
		return 0
	}
	var buf [4]byte
	copy(buf[:], raw)
	return binary.LittleEndian.Uint32(buf[:])
}

func (c *connState) pairSetupM1(ps *pairsetup.State, values tlv8.Values) *base.Response {
	flags := pairSetupFlags(values)

	pub, salt, err := ps.M1M2()
	if err != nil {
		return errorResponse(err)
	}

	var flagBytes [4]byte
	binary.LittleEndian.PutUint32(flagBytes[:], flags)

	body := tlv8.Encode(
		tlv8.Pair{Tag: tlv8.TagState, Value: []byte{byte(tlv8.StateM2)}},
		tlv8.Pair{Tag: tlv8.TagPublicKey, Value: pub},
		tlv8.Pair{Tag: tlv8.TagSalt, Value: salt},
		tlv8.Pair{Tag: tlv8.TagFlags, Value: flagBytes[:]},
	)
	return tlv8Response(body)
}

func (c *connState) pairSetupM3(ps *pairsetup.State, values tlv8.Values) *base.Response {
	clientPub, ok := values.Get(tlv8.TagPublicKey)
	if !ok {
		return errorResponse(airerrors.ErrMalformedRequest{Reason: "pair-setup: missing public key"})
	}
	clientProof, ok := values.Get(tlv8.TagProof)
	if !ok {
		return errorResponse(airerrors.ErrMalformedRequest{Reason: "pair-setup: missing proof"})
	}

	proof, err := ps.M3M4(clientPub, clientProof)
	if err != nil {
		return pairSetupError(tlv8.StateM4, err)
	}

	body := tlv8.Encode(
		tlv8.Pair{Tag: tlv8.TagState, Value: []byte{byte(tlv8.StateM4)}},
		tlv8.Pair{Tag: tlv8.TagProof, Value: proof},
	)
	return tlv8Response(body)
}

// pairSetupM5 completes the trust exchange: decrypt the controller's
// identity blob, verify its signature, record the peer in the keychain,
// and return our own signed identity the same way. Gated behind
// Config.EnableTransientCompletion since no live sender has been observed
// advancing past M4 (spec.md §9's open question).
func (c *connState) pairSetupM5(ps *pairsetup.State, values tlv8.Values) *base.Response {
	if !c.server.cfg.EnableTransientCompletion {
		return pairSetupError(tlv8.StateM6, pairsetup.ErrorUnavailable)
	}

	encrypted, ok := values.Get(tlv8.TagEncryptedData)
	if !ok {
		return errorResponse(airerrors.ErrMalformedRequest{Reason: "pair-setup: missing encrypted data"})
	}

	plain, err := ps.M5M6Decrypt(encrypted)
	if err != nil {
		return pairSetupError(tlv8.StateM6, err)
	}

	sub, err := tlv8.Decode(plain)
	if err != nil {
		return pairSetupError(tlv8.StateM6, pairsetup.ErrorAuthentication)
	}
	deviceID, ok1 := sub.Get(tlv8.TagIdentifier)
	devicePub, ok2 := sub.Get(tlv8.TagPublicKey)
	deviceSig, ok3 := sub.Get(tlv8.TagSignature)
	if !ok1 || !ok2 || !ok3 {
		return pairSetupError(tlv8.StateM6, pairsetup.ErrorAuthentication)
	}

	if err := ps.M5M6Verify(deviceID, devicePub, deviceSig); err != nil {
		return pairSetupError(tlv8.StateM6, err)
	}

	kc := c.server.cfg.Keychain
	if kc == nil {
		return errorResponse(errors.New("pair-setup: no keychain configured"))
	}
	kc.Trust(string(deviceID), ed25519.PublicKey(devicePub))

	accessoryID := []byte(kc.ID())
	accessoryPub := kc.PublicKey()
	sig, err := ps.M5M6Sign(accessoryID, accessoryPub, kc.Sign)
	if err != nil {
		return pairSetupError(tlv8.StateM6, err)
	}

	subOut := tlv8.Encode(
		tlv8.Pair{Tag: tlv8.TagIdentifier, Value: accessoryID},
		tlv8.Pair{Tag: tlv8.TagPublicKey, Value: accessoryPub},
		tlv8.Pair{Tag: tlv8.TagSignature, Value: sig},
	)
	sealed, err := ps.M5M6Encrypt(subOut)
	if err != nil {
		return pairSetupError(tlv8.StateM6, err)
	}

	body := tlv8.Encode(
		tlv8.Pair{Tag: tlv8.TagState, Value: []byte{byte(tlv8.StateM6)}},
		tlv8.Pair{Tag: tlv8.TagEncryptedData, Value: sealed},
	)
	return tlv8Response(body)
}

// pairSetupError wraps err's pairing error code in a TLV8 Error record
// tagged with the response state the failing message would have produced.
func pairSetupError(state tlv8.PairingState, err error) *base.Response {
	code := pairsetup.ErrorAuthentication
	if ec, ok := err.(pairsetup.ErrorCode); ok {
		code = ec
	}
	body := tlv8.Encode(
		tlv8.Pair{Tag: tlv8.TagState, Value: []byte{byte(state)}},
		tlv8.Pair{Tag: tlv8.TagError, Value: []byte{byte(code)}},
	)
	return tlv8Response(body)
}
