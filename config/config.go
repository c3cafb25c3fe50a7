// Package config holds the immutable configuration a Server is built from:
// advertised identity, feature bitmask, buffer sizing, and pairing mode.
// Following the teacher's posture, it is a plain exported struct with no
// environment or flag parsing of its own — that belongs to the caller
// (cmd/airplay2d).
package config

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/blackbird-av/airplay2/pkg/keychain"
)

// PairingMode selects which initial-trust handshake a Server accepts.
type PairingMode int

const (
	// PairingLegacy accepts only the ECDH+Ed25519 pair-verify flow used by
	// older AirPlay senders already holding a trusted key.
	PairingLegacy PairingMode = iota
	// PairingHomeKit accepts SRP-6a pair-setup gated by PIN instead of
	// legacy pair-verify.
	PairingHomeKit
)

// Config is shared immutably across request handlers once a Server starts;
// nothing in this module mutates a Config after construction.
type Config struct {
	// MACAddr is the 6-byte hardware address advertised as deviceid.
	MACAddr [6]byte

	// Features is the capability bitmask advertised in the mDNS TXT
	// record and echoed in plist responses. Defaults to DefaultFeatures
	// when left zero by New.
	Features Features

	// Manufacturer, Model, and Name identify the device in /info replies
	// and mDNS TXT records.
	Manufacturer string
	Model        string
	Name         string
	FirmwareVer  string

	// VideoBufSize and AudioBufSize bound the per-channel receive buffer
	// a stream channel allocates from session.BytesArena.
	VideoBufSize int
	AudioBufSize int

	// Keychain signs this device's pair-verify/pair-setup challenges and
	// tracks peers trusted across sessions.
	Keychain keychain.Keychain

	// PairingMode selects which handshake(s) this Server accepts.
	PairingMode PairingMode

	// PIN gates HomeKit pair-setup. Ignored when PairingMode is
	// PairingLegacy.
	PIN *PIN

	// InitialVolume is the volume GET_PARAMETER reports while no audio
	// stream is set up, in the [-30, 0] dB range AirPlay clients expect.
	InitialVolume float32

	// EnableTransientCompletion gates whether a HomeKit pair-setup
	// session is allowed to advance past M4 to the M5/M6 exchange. See
	// the "M5/M6 gating" decision recorded alongside this module.
	EnableTransientCompletion bool
}

const (
	defaultVideoBufSize = 1 << 20
	defaultAudioBufSize = 1 << 16
)

// New returns a Config with spec-mandated defaults applied to zero fields,
// mirroring the teacher's "zero value means default" normalization done in
// ServerConf.Serve rather than requiring every caller to fill every field.
func New(opts Config) Config {
	c := opts
	if c.Features == 0 {
		c.Features = DefaultFeatures
		if c.PairingMode == PairingHomeKit {
			c.Features |= FeatureHomeKitPairing
		}
	}
	if c.Manufacturer == "" {
		c.Manufacturer = "blackbird"
	}
	if c.Model == "" {
		c.Model = "airplay2"
	}
	if c.Name == "" {
		c.Name = "AirPlay2 Receiver"
	}
	if c.FirmwareVer == "" {
		c.FirmwareVer = "366.0"
	}
	if c.VideoBufSize == 0 {
		c.VideoBufSize = defaultVideoBufSize
	}
	if c.AudioBufSize == 0 {
		c.AudioBufSize = defaultAudioBufSize
	}
	return c
}

// DeviceID renders MACAddr as the colon-separated hex string AirPlay's
// deviceid field and pairing identifiers both use.
func (c Config) DeviceID() string {
	m := c.MACAddr
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

// FeatureTXTRecord returns the "features=0xLOW,0xHIGH" mDNS TXT value for
// this Config's Features bitmask.
func (c Config) FeatureTXTRecord() string {
	return c.Features.TXTRecord()
}

// TXTRecords derives the `_airplay._tcp.local.` TXT key/value set
// advertised for this Config. Registering the records with an mDNS
// responder is the caller's job; only the content derivation lives here.
// pi is a stable pairing identity derived from the device id; pk is the
// keychain's Ed25519 public key and is omitted when no keychain is
// configured.
func (c Config) TXTRecords() map[string]string {
	records := map[string]string{
		"deviceid":  c.DeviceID(),
		"features":  c.Features.TXTRecord(),
		"model":     c.Model,
		"protovers": "1.1",
		"srcvers":   c.FirmwareVer,
		"pi":        uuid.NewSHA1(uuid.NameSpaceOID, []byte(c.DeviceID())).String(),
	}
	if c.Keychain != nil {
		records["pk"] = hex.EncodeToString(c.Keychain.PublicKey())
	}
	return records
}
