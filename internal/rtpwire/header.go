// Package rtpwire wraps pion/rtp for the fixed 12-byte RTP header every
// audio stream loop reads off the wire (spec.md §3 RtpHeader), instead of
// hand-rolling the bit-field accessors spec.md's data model describes.
package rtpwire

import (
	"github.com/pion/rtp"
)

// HeaderLen is the fixed size of an AirPlay audio RTP header: no CSRC
// entries, no extension.
const HeaderLen = 12

// TrailerLen is the fixed size of the AEAD trailer spec.md §3 attaches to
// buffered-audio packets: a 16-byte Poly1305 tag followed by an 8-byte
// nonce suffix.
const TrailerLen = 24

// ParseHeader parses the leading RTP header out of buf. buf may contain
// more than HeaderLen bytes (the ciphertext payload follows); pion/rtp
// reads only as much as the header's own CSRC-count/extension flag call
// for, which for AirPlay's audio streams is always exactly 12.
func ParseHeader(buf []byte) (rtp.Header, error) {
	var h rtp.Header
	if _, err := h.Unmarshal(buf); err != nil {
		return rtp.Header{}, err
	}
	return h, nil
}

// AAD returns the 8 header bytes 4..12 (timestamp, SSRC) used
// as associated data for the buffered-audio ChaCha20-Poly1305 AEAD,
// spec.md §4.7 step 5.
func AAD(headerBytes []byte) [8]byte {
	var out [8]byte
	copy(out[:], headerBytes[4:12])
	return out
}

// Trailer is the 24-byte AEAD trailer read separately from the RTP
// header/payload on the buffered-audio wire framing.
type Trailer struct {
	Tag         [16]byte
	NonceSuffix [8]byte
}

// ParseTrailer reads a Trailer from its 24-byte wire form.
func ParseTrailer(buf []byte) Trailer {
	var t Trailer
	copy(t.Tag[:], buf[:16])
	copy(t.NonceSuffix[:], buf[16:24])
	return t
}
